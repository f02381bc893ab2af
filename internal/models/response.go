package models

import (
	"github.com/nahidhasan98/autolog/internal/autolog"
	"github.com/nahidhasan98/autolog/internal/changelog"
)

// GenerateLogResponse is the success body of POST /api/auto-generate-log
type GenerateLogResponse struct {
	Success  bool               `json:"success"`
	Logs     []*changelog.Entry `json:"logs"`
	Projects []string           `json:"projects"`
	Count    int                `json:"count"`
}

// ProjectStatusResponse is the body of GET /api/project-status
type ProjectStatusResponse struct {
	Today  string                           `json:"today"`
	Status map[string]autolog.ProjectStatus `json:"status"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Projects  int    `json:"projects"`
}

// DetailedHealthResponse adds scheduler and notifier state to the health check
type DetailedHealthResponse struct {
	HealthResponse
	DigestSchedule string                 `json:"digest_schedule,omitempty"`
	Notifier       map[string]interface{} `json:"notifier,omitempty"`
}

// SendDigestResponse is returned after a digest was delivered
type SendDigestResponse struct {
	Status string `json:"status"`
	To     string `json:"to,omitempty"`
	Count  int    `json:"count"`
}

// ErrorResponse represents an error response. Success is always false so
// clients can branch on the same field for every endpoint.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}
