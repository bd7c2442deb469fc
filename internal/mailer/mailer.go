// Package mailer delivers queued notifications over SMTP.
package mailer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"dealflow/pkg/config"

	"github.com/wneessen/go-mail"
	"go.uber.org/zap"
)

const Provider = "smtp"

var ErrNotConfigured = errors.New("smtp transport is not configured")

// Session is one open connection; Send may be called many times before Close.
type Session interface {
	Send(ctx context.Context, to, subject, body string) error
	Close() error
}

// Transport opens sessions against a delivery channel.
type Transport interface {
	Provider() string
	Open(ctx context.Context) (Session, error)
}

// SMTPTransport dials the configured server through go-mail.
type SMTPTransport struct {
	cfg    config.SMTPConfig
	logger *zap.Logger
}

// NewSMTPTransport returns nil when SMTP is not configured, so callers can treat
// a missing transport as "send nothing".
func NewSMTPTransport(cfg config.SMTPConfig, logger *zap.Logger) *SMTPTransport {
	if !cfg.Enabled() {
		return nil
	}
	return &SMTPTransport{cfg: cfg, logger: logger}
}

func (t *SMTPTransport) Provider() string { return Provider }

func (t *SMTPTransport) Open(ctx context.Context) (Session, error) {
	if t == nil {
		return nil, ErrNotConfigured
	}

	opts := []mail.Option{
		mail.WithPort(t.cfg.Port),
	}
	if t.cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(t.cfg.Username),
			mail.WithPassword(t.cfg.Password),
		)
	}
	if t.cfg.TLS {
		opts = append(opts, mail.WithTLSPolicy(mail.TLSOpportunistic))
	} else {
		opts = append(opts, mail.WithTLSPolicy(mail.NoTLS))
	}

	client, err := mail.NewClient(t.cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("create smtp client: %w", err)
	}
	if err := client.DialWithContext(ctx); err != nil {
		return nil, fmt.Errorf("dial smtp %s:%d: %w", t.cfg.Host, t.cfg.Port, err)
	}

	t.logger.Debug("SMTP session opened", zap.String("host", t.cfg.Host))
	return &smtpSession{client: client, from: t.cfg.From}, nil
}

// ValidAddress returns an error unless addr is a single address go-mail accepts
// as a recipient.
func ValidAddress(addr string) error {
	return mail.NewMsg().To(addr)
}

type smtpSession struct {
	client *mail.Client
	from   string
}

func (s *smtpSession) Send(_ context.Context, to, subject, body string) error {
	msg := mail.NewMsg()
	if err := msg.From(s.from); err != nil {
		return fmt.Errorf("invalid sender %q: %w", s.from, err)
	}
	if err := msg.To(strings.TrimSpace(to)); err != nil {
		return fmt.Errorf("invalid recipient %q: %w", to, err)
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextPlain, body)

	if err := s.client.Send(msg); err != nil {
		return fmt.Errorf("send mail: %w", err)
	}
	return nil
}

func (s *smtpSession) Close() error {
	return s.client.Close()
}
