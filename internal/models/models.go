package models

// GenerateLogRequest is the body of POST /api/auto-generate-log
type GenerateLogRequest struct {
	// Today is a YYYY-MM-DD date; empty means the server's current date
	Today string `json:"today"`
	// Project limits generation to one registered project id
	Project string `json:"project,omitempty"`
}

// SendDigestRequest is the body of POST /api/send-digest
type SendDigestRequest struct {
	Today string `json:"today"`
	// To overrides the configured WhatsApp recipient JID
	To string `json:"to,omitempty"`
}
