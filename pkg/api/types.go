package api

import "time"

// ErrorResponse is the JSON body of every non-2xx response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// HealthResponse reports service liveness.
type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Version   string    `json:"version"`
}

// HideOfferRequest is the body of POST /api/offers/{id}/hide.
type HideOfferRequest struct {
	Reason      string `json:"reason"`
	AdminReason string `json:"adminReason,omitempty"`
}
