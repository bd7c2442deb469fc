package models

import (
	"time"

	"github.com/google/uuid"
)

type Category string

const (
	CategoryRealEstate Category = "real_estate"
	CategoryCar        Category = "car"
	CategoryWholesale  Category = "wholesale"
	CategoryLuxury     Category = "luxury"
	CategoryEquipment  Category = "equipment"
)

// Categories lists every accepted deal category.
var Categories = []Category{
	CategoryRealEstate,
	CategoryCar,
	CategoryWholesale,
	CategoryLuxury,
	CategoryEquipment,
}

func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

const DefaultSource = "unknown"

type Deal struct {
	ID          uuid.UUID      `db:"id"`
	Category    Category       `db:"category"`
	Source      string         `db:"source"`
	SourceURL   string         `db:"source_url"`
	SourceUID   string         `db:"source_uid"`
	Title       string         `db:"title"`
	Description string         `db:"description"`
	Price       *float64       `db:"price"`
	Currency    string         `db:"currency"`
	Country     string         `db:"country"`
	Region      string         `db:"region"`
	City        string         `db:"city"`
	PostalCode  string         `db:"postal_code"`
	PostedAt    *time.Time     `db:"posted_at"`
	Images      []string       `db:"images"` // jsonb
	Raw         map[string]any `db:"raw"`    // jsonb
	AIScore     float64        `db:"ai_score"`
	AIReason    string         `db:"ai_reason"`
	CreatedAt   time.Time      `db:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at"`
}
