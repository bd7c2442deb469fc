package dto

// DealIngestRequest is the body of POST /webhooks/deal-ingest. The feed
// collaborator sends the same shape.
type DealIngestRequest struct {
	Category    string         `json:"category"`
	Source      string         `json:"source,omitempty"`
	SourceURL   string         `json:"source_url,omitempty"`
	SourceUID   string         `json:"source_uid,omitempty"`
	Title       string         `json:"title,omitempty"`
	Description string         `json:"description,omitempty"`
	Price       *float64       `json:"price,omitempty"`
	Currency    string         `json:"currency,omitempty"`
	Country     string         `json:"country,omitempty"`
	Region      string         `json:"region,omitempty"`
	City        string         `json:"city,omitempty"`
	PostalCode  string         `json:"postal_code,omitempty"`
	PostedAt    string         `json:"posted_at,omitempty"`
	Images      []string       `json:"images"`
	Raw         map[string]any `json:"raw,omitempty"`
}

type DealIngestResponse struct {
	OK              bool    `json:"ok"`
	DealID          string  `json:"deal_id"`
	AIScore         float64 `json:"ai_score"`
	MatchedNotified int     `json:"matched_notified"`
	EmailsSentNow   int     `json:"emails_sent_now"`
}
