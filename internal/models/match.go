package models

import (
	"time"

	"github.com/google/uuid"
)

// MatchWeights is the weight table applied to the match factors.
type MatchWeights struct {
	Budget   float64 `json:"budget"`
	Location float64 `json:"location"`
	Category float64 `json:"category"`
	Recency  float64 `json:"recency"`
}

// MatchBreakdown keeps the raw factor values next to the weights that produced the score.
type MatchBreakdown struct {
	Budget   float64      `json:"budget"`
	Location float64      `json:"location"`
	Category float64      `json:"category"`
	Recency  float64      `json:"recency"`
	Weights  MatchWeights `json:"weights"`
}

type Match struct {
	ID         uuid.UUID      `db:"id"`
	DealID     uuid.UUID      `db:"deal_id"`
	BuyerID    uuid.UUID      `db:"buyer_id"`
	MatchScore float64        `db:"match_score"`
	Breakdown  MatchBreakdown `db:"breakdown"` // jsonb
	CreatedAt  time.Time      `db:"created_at"`
	UpdatedAt  time.Time      `db:"updated_at"`
}
