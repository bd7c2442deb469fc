package dto

// SMSWebhookRequest is the inbound SMS callback, form or JSON encoded.
type SMSWebhookRequest struct {
	From string `json:"From" form:"From"`
	To   string `json:"To" form:"To"`
	Body string `json:"Body" form:"Body"`
}
