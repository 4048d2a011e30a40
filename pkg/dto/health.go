package dto

// HealthResponse describes the payload returned by the /healthz endpoint.
type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
	Version string `json:"version"`
}

// MessageResponse is the acknowledgement returned after a user sync.
type MessageResponse struct {
	Message string `json:"message"`
	User    any    `json:"user"`
}

// AckResponse acknowledges a webhook that required no state change.
type AckResponse struct {
	Response string `json:"response"`
}
