package handlers

import (
	"context"
	stderrors "errors"
	"net/http"
	"time"

	"github.com/nahidhasan98/autolog/internal/autolog"
	"github.com/nahidhasan98/autolog/internal/changelog"
	"github.com/nahidhasan98/autolog/internal/digest"
	"github.com/nahidhasan98/autolog/internal/errors"
	"github.com/nahidhasan98/autolog/internal/gitlog"
	"github.com/nahidhasan98/autolog/internal/logger"
	"github.com/nahidhasan98/autolog/internal/models"
	"github.com/nahidhasan98/autolog/internal/validation"
)

// Service is the log generation backend the handlers drive
type Service interface {
	GenerateLogs(ctx context.Context, day time.Time) (*autolog.GenerateResult, error)
	GenerateProjectLog(ctx context.Context, id string, day time.Time) (*autolog.GenerateResult, error)
	ProjectStatus(ctx context.Context, day time.Time) (map[string]autolog.ProjectStatus, error)
	ProjectCount() int
	Today() time.Time
	Now() time.Time
}

// DigestRunner sends a digest on demand
type DigestRunner interface {
	Run(ctx context.Context, day time.Time, to string) (digest.Report, error)
	Schedule() string
}

// NotifierStatus reports the state of the message transport
type NotifierStatus interface {
	Status() map[string]interface{}
}

// Options carries the optional handler dependencies
type Options struct {
	Digest   DigestRunner
	Notifier NotifierStatus
	Location *time.Location
}

// Handler holds dependencies for HTTP handlers
type Handler struct {
	service   Service
	digest    DigestRunner
	notifier  NotifierStatus
	log       *logger.Logger
	validator *validation.Validator
}

// New creates a new handler instance
func New(service Service, log *logger.Logger, opts Options) *Handler {
	return &Handler{
		service:   service,
		digest:    opts.Digest,
		notifier:  opts.Notifier,
		log:       log.Component("handlers"),
		validator: validation.New(opts.Location),
	}
}

// GenerateLog handles POST /api/auto-generate-log
func (h *Handler) GenerateLog(w http.ResponseWriter, r *http.Request) {
	var req models.GenerateLogRequest
	if err := decodeBody(r, &req); err != nil {
		h.writeAppError(w, errors.GenerateFailed(err))
		return
	}

	day, appErr := h.validator.ParseDay(req.Today, h.service.Today())
	if appErr != nil {
		h.writeAppError(w, appErr)
		return
	}

	var result *autolog.GenerateResult
	var err error
	if req.Project != "" {
		result, err = h.service.GenerateProjectLog(r.Context(), req.Project, day)
	} else {
		result, err = h.service.GenerateLogs(r.Context(), day)
	}
	if err != nil {
		if stderrors.Is(err, autolog.ErrUnknownProject) {
			h.writeAppError(w, errors.Wrap(err, errors.ErrCodeNotFound, "Unknown project: "+req.Project))
			return
		}
		h.writeAppError(w, errors.GenerateFailed(err))
		return
	}

	response := &models.GenerateLogResponse{
		Success:  true,
		Logs:     result.Logs,
		Projects: result.Projects,
		Count:    result.Count(),
	}
	if response.Logs == nil {
		response.Logs = []*changelog.Entry{}
	}
	if response.Projects == nil {
		response.Projects = []string{}
	}

	h.writeJSON(w, response, http.StatusOK)
}

// ProjectStatus handles GET /api/project-status. An optional ?today=
// query parameter selects another day.
func (h *Handler) ProjectStatus(w http.ResponseWriter, r *http.Request) {
	day, appErr := h.validator.ParseDay(r.URL.Query().Get("today"), h.service.Today())
	if appErr != nil {
		h.writeAppError(w, appErr)
		return
	}

	status, err := h.service.ProjectStatus(r.Context(), day)
	if err != nil {
		h.writeAppError(w, errors.StatusFailed(err))
		return
	}

	h.writeJSON(w, &models.ProjectStatusResponse{
		Today:  day.Format(gitlog.DateLayout),
		Status: status,
	}, http.StatusOK)
}
