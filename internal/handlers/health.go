package handlers

import (
	"net/http"

	"github.com/nahidhasan98/autolog/internal/models"
)

// TimestampLayout is ISO-8601 in UTC with millisecond precision
const TimestampLayout = "2006-01-02T15:04:05.000Z"

// HealthCheck handles health check requests
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	response := models.HealthResponse{
		Status:    "ok",
		Timestamp: h.service.Now().UTC().Format(TimestampLayout),
		Projects:  h.service.ProjectCount(),
	}

	// Add digest and notifier details if requested
	if r.URL.Query().Get("detailed") == "true" {
		detailed := &models.DetailedHealthResponse{HealthResponse: response}
		if h.digest != nil {
			detailed.DigestSchedule = h.digest.Schedule()
		}
		if h.notifier != nil {
			detailed.Notifier = h.notifier.Status()
		}
		h.writeJSON(w, detailed, http.StatusOK)
		return
	}

	h.writeJSON(w, &response, http.StatusOK)
}
