package matching

import (
	"fmt"
	"strings"

	"dealflow/internal/models"
)

// CandidateSelector narrows the active buyers a deal is scored against.
// Selectors only drop buyers; they never change how survivors are scored.
type CandidateSelector interface {
	Name() string
	Select(deal *models.Deal, buyers []*models.Buyer) []*models.Buyer
}

const (
	SelectorAll             = "none"
	SelectorCategoryCountry = "category_country"
)

func NewSelector(name string) (CandidateSelector, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", SelectorAll, "all":
		return AllBuyers{}, nil
	case SelectorCategoryCountry:
		return CategoryCountry{}, nil
	default:
		return nil, fmt.Errorf("unknown match prefilter: %s", name)
	}
}

// AllBuyers scores every active buyer.
type AllBuyers struct{}

func (AllBuyers) Name() string { return SelectorAll }

func (AllBuyers) Select(_ *models.Deal, buyers []*models.Buyer) []*models.Buyer {
	return buyers
}

// CategoryCountry keeps buyers that want the deal category and either accept any
// country or list the deal's country.
type CategoryCountry struct{}

func (CategoryCountry) Name() string { return SelectorCategoryCountry }

func (CategoryCountry) Select(deal *models.Deal, buyers []*models.Buyer) []*models.Buyer {
	out := make([]*models.Buyer, 0, len(buyers))
	for _, b := range buyers {
		if !containsFold(b.Categories, string(deal.Category)) {
			continue
		}
		if len(b.Countries) > 0 && !containsFold(b.Countries, deal.Country) {
			continue
		}
		out = append(out, b)
	}
	return out
}
