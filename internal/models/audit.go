package models

import (
	"time"

	"github.com/google/uuid"
)

const AuditEventDealIngested = "deal_ingested"

type AuditMatch struct {
	BuyerID   uuid.UUID `json:"buyer_id"`
	Recipient string    `json:"recipient"`
	Score     float64   `json:"score"`
}

type AuditRecord struct {
	ID        uuid.UUID    `db:"id"`
	Event     string       `db:"event"`
	DealID    uuid.UUID    `db:"deal_id"`
	AIScore   float64      `db:"ai_score"`
	AIReason  string       `db:"ai_reason"`
	Matched   []AuditMatch `db:"matched"` // jsonb
	CreatedAt time.Time    `db:"created_at"`
}
