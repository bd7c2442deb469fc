package dto

type BuyerRequest struct {
	Name       string   `json:"name"`
	Email      string   `json:"email"`
	Phone      string   `json:"phone,omitempty"`
	Countries  []string `json:"countries"`
	Regions    []string `json:"regions"`
	Categories []string `json:"categories"`
	BudgetMin  *float64 `json:"budget_min,omitempty"`
	BudgetMax  *float64 `json:"budget_max,omitempty"`
	Notes      string   `json:"notes,omitempty"`
}

type BuyerResponse struct {
	OK      bool   `json:"ok"`
	BuyerID string `json:"buyer_id"`
}

type SellerRequest struct {
	Name        string   `json:"name"`
	Email       string   `json:"email"`
	Phone       string   `json:"phone,omitempty"`
	Country     string   `json:"country"`
	Region      string   `json:"region,omitempty"`
	City        string   `json:"city,omitempty"`
	AssetType   string   `json:"asset_type"`
	Price       *float64 `json:"price,omitempty"`
	Currency    string   `json:"currency,omitempty"`
	Description string   `json:"description,omitempty"`
	Images      []string `json:"images"`
	SourceURL   string   `json:"source_url,omitempty"`
}

type SellerResponse struct {
	OK       bool   `json:"ok"`
	SellerID string `json:"seller_id"`
}
