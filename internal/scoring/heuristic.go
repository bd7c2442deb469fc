package scoring

import (
	"context"
	"strings"
	"time"

	"dealflow/internal/models"
)

const (
	heuristicBase    = 0.30
	keywordBonus     = 0.08
	priceBonus       = 0.10
	freshBonus       = 0.10
	recentBonus      = 0.06
	heuristicDefault = "heuristic"
)

// urgencyKeywords are matched as substrings of the lower-cased title and description.
var urgencyKeywords = []string{
	"urgent",
	"must sell",
	"motivated",
	"discount",
	"below market",
	"wholesale",
	"liquidation",
}

// Heuristic is the deterministic local scorer.
type Heuristic struct {
	now func() time.Time
}

func NewHeuristic() *Heuristic {
	return &Heuristic{now: time.Now}
}

func NewHeuristicAt(now func() time.Time) *Heuristic {
	return &Heuristic{now: now}
}

func (h *Heuristic) Name() string { return heuristicDefault }

func (h *Heuristic) Score(_ context.Context, deal *models.Deal) (float64, string, error) {
	score, reason := h.Evaluate(deal)
	return score, reason, nil
}

// Evaluate returns the score and the comma-joined signals that produced it.
func (h *Heuristic) Evaluate(deal *models.Deal) (float64, string) {
	score := heuristicBase
	var signals []string

	text := strings.ToLower(deal.Title + " " + deal.Description)
	for _, kw := range urgencyKeywords {
		if strings.Contains(text, kw) {
			score += keywordBonus
			signals = append(signals, kw)
		}
	}

	if deal.Price != nil && *deal.Price > 0 {
		score += priceBonus
		signals = append(signals, "price")
	}

	if deal.PostedAt != nil && !deal.PostedAt.IsZero() {
		age := h.now().Sub(*deal.PostedAt)
		switch {
		case age <= 24*time.Hour:
			score += freshBonus
			signals = append(signals, "fresh<24h")
		case age <= 72*time.Hour:
			score += recentBonus
			signals = append(signals, "recent<72h")
		}
	}

	if len(signals) == 0 {
		return clamp01(score), heuristicDefault
	}
	return clamp01(score), strings.Join(signals, ",")
}
