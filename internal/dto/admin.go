package dto

type SendQueuedResponse struct {
	OK        bool `json:"ok"`
	Sent      int  `json:"sent"`
	Attempted int  `json:"attempted"`
	Failed    int  `json:"failed"`
}

type HealthResponse struct {
	OK   bool   `json:"ok"`
	Time string `json:"time"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type OKResponse struct {
	OK bool `json:"ok"`
}
