// Package events announces processed deals to other services.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

const (
	TypeDealIngested = "deal.ingested"
	envelopeSource   = "dealflow"
	envelopeVersion  = "1.0"
)

// DealIngested is emitted once per successful ingest.
type DealIngested struct {
	DealID    uuid.UUID `json:"deal_id"`
	Source    string    `json:"source"`
	SourceUID string    `json:"source_uid"`
	Category  string    `json:"category"`
	AIScore   float64   `json:"ai_score"`
	Notified  int       `json:"notified"`
	At        time.Time `json:"at"`
}

type envelope struct {
	Type      string       `json:"type"`
	Source    string       `json:"source"`
	Version   string       `json:"version"`
	Timestamp time.Time    `json:"timestamp"`
	Deal      DealIngested `json:"deal"`
}

type Publisher interface {
	PublishDealIngested(ctx context.Context, evt DealIngested) error
	Close()
}

// Nop drops every event. It is used when NATS_URL is not set.
type Nop struct{}

func (Nop) PublishDealIngested(context.Context, DealIngested) error { return nil }
func (Nop) Close()                                                  {}

type NATSPublisher struct {
	conn    *nats.Conn
	subject string
	logger  *zap.Logger
}

func NewNATSPublisher(url, subject string, logger *zap.Logger) (*NATSPublisher, error) {
	nc, err := nats.Connect(url,
		nats.Name("dealflow"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}

	return &NATSPublisher{conn: nc, subject: subject, logger: logger}, nil
}

func (p *NATSPublisher) PublishDealIngested(_ context.Context, evt DealIngested) error {
	data, err := encode(evt)
	if err != nil {
		return err
	}

	if err := p.conn.Publish(p.subject, data); err != nil {
		return fmt.Errorf("publish %s: %w", p.subject, err)
	}

	p.logger.Debug("Published deal event", zap.String("subject", p.subject), zap.String("deal_id", evt.DealID.String()))
	return nil
}

func (p *NATSPublisher) Close() {
	if p.conn != nil {
		p.conn.Close()
	}
}

func encode(evt DealIngested) ([]byte, error) {
	data, err := json.Marshal(envelope{
		Type:      TypeDealIngested,
		Source:    envelopeSource,
		Version:   envelopeVersion,
		Timestamp: time.Now().UTC(),
		Deal:      evt,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal deal event: %w", err)
	}
	return data, nil
}
