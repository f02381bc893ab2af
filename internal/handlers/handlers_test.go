package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/nahidhasan98/autolog/internal/autolog"
	"github.com/nahidhasan98/autolog/internal/changelog"
	"github.com/nahidhasan98/autolog/internal/digest"
	"github.com/nahidhasan98/autolog/internal/logger"
	"github.com/nahidhasan98/autolog/internal/notify"
	"github.com/nahidhasan98/autolog/internal/registry"
	"github.com/nahidhasan98/autolog/internal/scanner"
)

var (
	now   = time.Date(2026, time.October, 16, 14, 30, 5, 123e6, time.Local)
	today = time.Date(2026, time.October, 16, 0, 0, 0, 0, time.Local)
)

type mockService struct {
	mock.Mock
}

func (m *mockService) GenerateLogs(ctx context.Context, day time.Time) (*autolog.GenerateResult, error) {
	args := m.Called(ctx, day)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*autolog.GenerateResult), args.Error(1)
}

func (m *mockService) GenerateProjectLog(ctx context.Context, id string, day time.Time) (*autolog.GenerateResult, error) {
	args := m.Called(ctx, id, day)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*autolog.GenerateResult), args.Error(1)
}

func (m *mockService) ProjectStatus(ctx context.Context, day time.Time) (map[string]autolog.ProjectStatus, error) {
	args := m.Called(ctx, day)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]autolog.ProjectStatus), args.Error(1)
}

func (m *mockService) ProjectCount() int { return 6 }
func (m *mockService) Today() time.Time  { return today }
func (m *mockService) Now() time.Time    { return now }

type mockDigest struct {
	mock.Mock
}

func (m *mockDigest) Run(ctx context.Context, day time.Time, to string) (digest.Report, error) {
	args := m.Called(ctx, day, to)
	return args.Get(0).(digest.Report), args.Error(1)
}

func (m *mockDigest) Schedule() string { return "0 21 * * *" }

type staticNotifier map[string]interface{}

func (s staticNotifier) Status() map[string]interface{} { return s }

type noChanges struct{}

func (noChanges) Scan(context.Context, string, time.Time) *scanner.Changes { return nil }

func do(t *testing.T, h http.HandlerFunc, method, target, body string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	rec := httptest.NewRecorder()
	h(rec, req)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decoded), rec.Body.String())
	return rec, decoded
}

func TestHealthCheck(t *testing.T) {
	h := New(new(mockService), logger.Nop(), Options{})

	rec, body := do(t, h.HealthCheck, http.MethodGet, "/api/health", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, float64(6), body["projects"])
	assert.Equal(t, now.UTC().Format(TimestampLayout), body["timestamp"])
	assert.NotContains(t, body, "notifier")
}

func TestHealthCheckDetailed(t *testing.T) {
	h := New(new(mockService), logger.Nop(), Options{
		Digest:   new(mockDigest),
		Notifier: staticNotifier{"connected": true},
	})

	_, body := do(t, h.HealthCheck, http.MethodGet, "/api/health?detailed=true", "")

	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "0 21 * * *", body["digest_schedule"])
	assert.Equal(t, map[string]interface{}{"connected": true}, body["notifier"])
}

func TestHealthCountMatchesRegistry(t *testing.T) {
	reg, err := registry.New(
		registry.Project{ID: "a", Path: "/does/not/exist/a"},
		registry.Project{ID: "b", Path: "/does/not/exist/b"},
	)
	require.NoError(t, err)
	h := New(autolog.New(reg, noChanges{}, autolog.Options{}), logger.Nop(), Options{})

	_, body := do(t, h.HealthCheck, http.MethodGet, "/api/health", "")

	assert.Equal(t, float64(2), body["projects"])
}

func TestGenerateLogWithoutChanges(t *testing.T) {
	reg, err := registry.New(registry.Project{ID: "a", Path: t.TempDir()})
	require.NoError(t, err)
	h := New(autolog.New(reg, noChanges{}, autolog.Options{}), logger.Nop(), Options{})

	rec := httptest.NewRecorder()
	h.GenerateLog(rec, httptest.NewRequest(http.MethodPost, "/api/auto-generate-log", strings.NewReader(`{"today":"2026-10-16"}`)))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true,"logs":[],"projects":[],"count":0}`, rec.Body.String())
}

func TestGenerateLogUsesRequestedDay(t *testing.T) {
	svc := new(mockService)
	day := time.Date(2026, time.October, 1, 0, 0, 0, 0, time.Local)
	svc.On("GenerateLogs", mock.Anything, day).Return(&autolog.GenerateResult{
		Logs:     []*changelog.Entry{{ID: "x", ProjectID: "skills", Title: "✨ Feature - Skills"}},
		Projects: []string{"Skills"},
	}, nil)
	h := New(svc, logger.Nop(), Options{})

	rec, body := do(t, h.GenerateLog, http.MethodPost, "/api/auto-generate-log", `{"today":"2026-10-01"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, float64(1), body["count"])
	assert.Equal(t, []interface{}{"Skills"}, body["projects"])
	svc.AssertExpectations(t)
}

func TestGenerateLogDefaultsToToday(t *testing.T) {
	for _, payload := range []string{"", "{}", `{"today":""}`} {
		t.Run(fmt.Sprintf("body %q", payload), func(t *testing.T) {
			svc := new(mockService)
			svc.On("GenerateLogs", mock.Anything, today).Return(&autolog.GenerateResult{}, nil)
			h := New(svc, logger.Nop(), Options{})

			rec, _ := do(t, h.GenerateLog, http.MethodPost, "/api/auto-generate-log", payload)

			assert.Equal(t, http.StatusOK, rec.Code)
			svc.AssertExpectations(t)
		})
	}
}

func TestGenerateLogMalformedBody(t *testing.T) {
	h := New(new(mockService), logger.Nop(), Options{})

	rec, body := do(t, h.GenerateLog, http.MethodPost, "/api/auto-generate-log", `{"today":`)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "GENERATE_FAILED", body["code"])
	assert.NotEmpty(t, body["error"])
}

func TestGenerateLogInvalidDate(t *testing.T) {
	h := New(new(mockService), logger.Nop(), Options{})

	rec, body := do(t, h.GenerateLog, http.MethodPost, "/api/auto-generate-log", `{"today":"16/10/2026"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "VALIDATION_FAILED", body["code"])
}

func TestGenerateLogServiceFailure(t *testing.T) {
	svc := new(mockService)
	svc.On("GenerateLogs", mock.Anything, today).Return(nil, context.Canceled)
	h := New(svc, logger.Nop(), Options{})

	rec, body := do(t, h.GenerateLog, http.MethodPost, "/api/auto-generate-log", "")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "context canceled", body["error"])
}

func TestGenerateLogSingleProject(t *testing.T) {
	reg, err := registry.New(
		registry.Project{ID: "a", Name: "Alpha", Path: t.TempDir()},
		registry.Project{ID: "b", Name: "Beta", Path: t.TempDir()},
	)
	require.NoError(t, err)
	h := New(autolog.New(reg, noChanges{}, autolog.Options{}), logger.Nop(), Options{})

	rec, body := do(t, h.GenerateLog, http.MethodPost, "/api/auto-generate-log", `{"today":"2026-10-16","project":"b"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(0), body["count"])

	rec, body = do(t, h.GenerateLog, http.MethodPost, "/api/auto-generate-log", `{"project":"missing"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "NOT_FOUND", body["code"])
}

func TestProjectStatus(t *testing.T) {
	svc := new(mockService)
	svc.On("ProjectStatus", mock.Anything, today).Return(map[string]autolog.ProjectStatus{
		"skills": {Name: "Skills", HasChanges: true, Commits: 3, Files: 2},
		"docs":   {Name: "Docs"},
	}, nil)
	h := New(svc, logger.Nop(), Options{})

	rec := httptest.NewRecorder()
	h.ProjectStatus(rec, httptest.NewRequest(http.MethodGet, "/api/project-status", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{
		"today": "2026-10-16",
		"status": {
			"skills": {"name": "Skills", "hasChanges": true, "commits": 3, "files": 2},
			"docs": {"name": "Docs", "hasChanges": false, "commits": 0, "files": 0}
		}
	}`, rec.Body.String())
}

func TestProjectStatusForRequestedDay(t *testing.T) {
	svc := new(mockService)
	day := time.Date(2026, time.October, 3, 0, 0, 0, 0, time.Local)
	svc.On("ProjectStatus", mock.Anything, day).Return(map[string]autolog.ProjectStatus{}, nil)
	h := New(svc, logger.Nop(), Options{})

	rec, body := do(t, h.ProjectStatus, http.MethodGet, "/api/project-status?today=2026-10-03", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "2026-10-03", body["today"])
	svc.AssertExpectations(t)
}

func TestProjectStatusInvalidDate(t *testing.T) {
	h := New(new(mockService), logger.Nop(), Options{})

	rec, _ := do(t, h.ProjectStatus, http.MethodGet, "/api/project-status?today=yesterday", "")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSendDigestNotConfigured(t *testing.T) {
	h := New(new(mockService), logger.Nop(), Options{})

	rec, body := do(t, h.SendDigest, http.MethodPost, "/api/send-digest", "")

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "NOTIFIER_UNAVAILABLE", body["code"])
}

func TestSendDigest(t *testing.T) {
	d := new(mockDigest)
	d.On("Run", mock.Anything, today, "8801712345678@s.whatsapp.net").
		Return(digest.Report{Result: digest.ResultSent, Recipient: "8801712345678@s.whatsapp.net", Entries: 2}, nil)
	h := New(new(mockService), logger.Nop(), Options{Digest: d})

	rec := httptest.NewRecorder()
	h.SendDigest(rec, httptest.NewRequest(http.MethodPost, "/api/send-digest", strings.NewReader(`{"to":"+880 1712-345678"}`)))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"sent","to":"8801712345678@s.whatsapp.net","count":2}`, rec.Body.String())
	d.AssertExpectations(t)
}

func TestSendDigestErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
		err  error
		want int
	}{
		{"bad recipient", `{"to":"someone@example.com"}`, nil, http.StatusBadRequest},
		{"malformed body", `{"to":`, nil, http.StatusBadRequest},
		{"no recipient", `{}`, digest.ErrNoRecipient, http.StatusBadRequest},
		{"not linked", `{}`, fmt.Errorf("failed to send digest: %w", notify.ErrNotLinked), http.StatusServiceUnavailable},
		{"not connected", `{}`, fmt.Errorf("failed to send digest: %w", notify.ErrNotConnected), http.StatusServiceUnavailable},
		{"send failure", `{}`, fmt.Errorf("failed to send digest: boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := new(mockDigest)
			d.On("Run", mock.Anything, today, "").Return(digest.Report{Result: digest.ResultError}, tt.err)
			h := New(new(mockService), logger.Nop(), Options{Digest: d})

			rec, body := do(t, h.SendDigest, http.MethodPost, "/api/send-digest", tt.body)

			assert.Equal(t, tt.want, rec.Code)
			assert.Equal(t, false, body["success"])
		})
	}
}
