package models

import (
	"time"

	"github.com/google/uuid"
)

type BuyerStatus string

const (
	BuyerStatusActive   BuyerStatus = "active"
	BuyerStatusInactive BuyerStatus = "inactive"
)

type Buyer struct {
	ID         uuid.UUID   `db:"id"`
	Name       string      `db:"name"`
	Email      string      `db:"email"`
	Phone      string      `db:"phone"`
	Countries  []string    `db:"countries"`
	Regions    []string    `db:"regions"`
	Categories []string    `db:"categories"`
	BudgetMin  *float64    `db:"budget_min"`
	BudgetMax  *float64    `db:"budget_max"`
	Notes      string      `db:"notes"`
	Status     BuyerStatus `db:"status"`
	CreatedAt  time.Time   `db:"created_at"`
}

type Seller struct {
	ID          uuid.UUID `db:"id"`
	Name        string    `db:"name"`
	Email       string    `db:"email"`
	Phone       string    `db:"phone"`
	Country     string    `db:"country"`
	Region      string    `db:"region"`
	City        string    `db:"city"`
	AssetType   string    `db:"asset_type"`
	Price       *float64  `db:"price"`
	Currency    string    `db:"currency"`
	Description string    `db:"description"`
	Images      []string  `db:"images"`
	SourceURL   string    `db:"source_url"`
	CreatedAt   time.Time `db:"created_at"`
}
