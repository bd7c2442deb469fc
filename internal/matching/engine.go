// Package matching scores a deal against a buyer profile.
package matching

import (
	"math"
	"strings"
	"time"

	"dealflow/internal/models"
)

// DefaultWeights is the fixed weight table; the values sum to 1.0.
var DefaultWeights = models.MatchWeights{
	Budget:   0.40,
	Location: 0.30,
	Category: 0.20,
	Recency:  0.10,
}

const (
	budgetFull     = 1.0
	budgetUnderMax = 0.6
	budgetBaseline = 0.3

	locationCountry = 0.6
	locationRegion  = 0.4

	recencyUnknown = 0.5
)

type Engine struct {
	weights models.MatchWeights
	now     func() time.Time
}

func NewEngine() *Engine {
	return &Engine{weights: DefaultWeights, now: time.Now}
}

// NewEngineAt pins the clock, which makes the recency factor reproducible.
func NewEngineAt(now func() time.Time) *Engine {
	return &Engine{weights: DefaultWeights, now: now}
}

// Match returns the weighted score in [0,1] and the factors behind it.
func (e *Engine) Match(deal *models.Deal, buyer *models.Buyer) (float64, models.MatchBreakdown) {
	return Score(deal, buyer, e.weights, e.now())
}

// Score is the pure form of Engine.Match.
func Score(deal *models.Deal, buyer *models.Buyer, weights models.MatchWeights, now time.Time) (float64, models.MatchBreakdown) {
	breakdown := models.MatchBreakdown{
		Budget:   BudgetFactor(deal.Price, buyer.BudgetMin, buyer.BudgetMax),
		Location: LocationFactor(deal.Country, deal.Region, buyer.Countries, buyer.Regions),
		Category: CategoryFactor(deal.Category, buyer.Categories),
		Recency:  RecencyFactor(deal.PostedAt, now),
		Weights:  weights,
	}

	score := weights.Budget*breakdown.Budget +
		weights.Location*breakdown.Location +
		weights.Category*breakdown.Category +
		weights.Recency*breakdown.Recency

	return round4(clamp01(score)), breakdown
}

func CategoryFactor(category models.Category, categories []string) float64 {
	if containsFold(categories, string(category)) {
		return 1.0
	}
	return 0.0
}

func LocationFactor(country, region string, countries, regions []string) float64 {
	var v float64
	if containsFold(countries, country) {
		v += locationCountry
	}
	if containsFold(regions, region) {
		v += locationRegion
	}
	return math.Min(v, 1.0)
}

// BudgetFactor never drops below the baseline so missing data is not punished.
func BudgetFactor(price, budgetMin, budgetMax *float64) float64 {
	if price == nil {
		return budgetBaseline
	}
	p := *price
	if budgetMin != nil && budgetMax != nil && *budgetMin <= p && p <= *budgetMax {
		return budgetFull
	}
	if budgetMax != nil && p <= *budgetMax {
		return budgetUnderMax
	}
	return budgetBaseline
}

func RecencyFactor(postedAt *time.Time, now time.Time) float64 {
	if postedAt == nil || postedAt.IsZero() {
		return recencyUnknown
	}
	age := now.Sub(*postedAt)
	switch {
	case age <= 24*time.Hour:
		return 1.0
	case age <= 72*time.Hour:
		return 0.8
	case age <= 168*time.Hour:
		return 0.6
	default:
		return 0.4
	}
}

func containsFold(values []string, needle string) bool {
	needle = strings.TrimSpace(needle)
	if needle == "" {
		return false
	}
	for _, v := range values {
		if strings.EqualFold(strings.TrimSpace(v), needle) {
			return true
		}
	}
	return false
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
