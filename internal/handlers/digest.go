package handlers

import (
	stderrors "errors"
	"net/http"

	"github.com/nahidhasan98/autolog/internal/digest"
	"github.com/nahidhasan98/autolog/internal/errors"
	"github.com/nahidhasan98/autolog/internal/models"
	"github.com/nahidhasan98/autolog/internal/notify"
)

// SendDigest handles POST /api/send-digest
func (h *Handler) SendDigest(w http.ResponseWriter, r *http.Request) {
	if h.digest == nil {
		h.writeAppError(w, errors.New(errors.ErrCodeNotifierUnavailable, "Digest delivery is not configured"))
		return
	}

	var req models.SendDigestRequest
	if err := decodeBody(r, &req); err != nil {
		h.writeAppError(w, errors.InvalidRequest("Invalid request body: "+err.Error()))
		return
	}

	day, appErr := h.validator.ParseDay(req.Today, h.service.Today())
	if appErr != nil {
		h.writeAppError(w, appErr)
		return
	}

	if req.To != "" {
		if req.To, appErr = h.validator.NormalizeJID(req.To); appErr != nil {
			h.writeAppError(w, appErr)
			return
		}
	}

	report, err := h.digest.Run(r.Context(), day, req.To)
	if err != nil {
		switch {
		case stderrors.Is(err, digest.ErrNoRecipient):
			h.writeAppError(w, errors.ValidationError("Recipient is required: set 'to' or WHATSAPP_RECIPIENT"))
		case stderrors.Is(err, notify.ErrNotLinked):
			h.writeAppError(w, errors.Wrap(err, errors.ErrCodeNotifierUnavailable, "WhatsApp device is not linked"))
		case stderrors.Is(err, notify.ErrNotConnected):
			h.writeAppError(w, errors.Wrap(err, errors.ErrCodeNotifierUnavailable, "WhatsApp session is not connected"))
		default:
			h.writeAppError(w, errors.InternalError(err))
		}
		return
	}

	h.writeJSON(w, &models.SendDigestResponse{
		Status: report.Result,
		To:     report.Recipient,
		Count:  report.Entries,
	}, http.StatusOK)
}
