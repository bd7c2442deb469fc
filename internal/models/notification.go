package models

import (
	"time"

	"github.com/google/uuid"
)

type NotificationKind string

const (
	NotificationKindAdmin NotificationKind = "admin"
	NotificationKindBuyer NotificationKind = "buyer"
)

type NotificationStatus string

// Status only moves from queued to sent.
const (
	NotificationStatusQueued NotificationStatus = "queued"
	NotificationStatusSent   NotificationStatus = "sent"
)

type Notification struct {
	ID        uuid.UUID          `db:"id"`
	Kind      NotificationKind   `db:"kind"`
	Recipient string             `db:"recipient"`
	Subject   string             `db:"subject"`
	Body      string             `db:"body"`
	Status    NotificationStatus `db:"status"`
	DealID    *uuid.UUID         `db:"deal_id"`
	BuyerID   *uuid.UUID         `db:"buyer_id"`
	Provider  string             `db:"provider"`
	Attempts  int                `db:"attempts"`
	LastError string             `db:"last_error"`
	CreatedAt time.Time          `db:"created_at"`
	SentAt    *time.Time         `db:"sent_at"`
}
