package digest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/nahidhasan98/autolog/internal/autolog"
	"github.com/nahidhasan98/autolog/internal/logger"
	"github.com/nahidhasan98/autolog/internal/metrics"
)

// Run results, also used as metric labels.
const (
	ResultSent   = "sent"
	ResultLogged = "logged"
	ResultEmpty  = "empty"
	ResultError  = "error"
)

// ErrNoRecipient is returned when a digest should be sent but nobody is configured to receive it.
var ErrNoRecipient = errors.New("no digest recipient configured")

// Generator produces the log entries a digest summarizes.
type Generator interface {
	GenerateLogs(ctx context.Context, day time.Time) (*autolog.GenerateResult, error)
	Today() time.Time
}

// Notifier delivers a digest message.
type Notifier interface {
	Send(ctx context.Context, to, text string) error
}

// Scheduler runs the digest on a cron schedule.
type Scheduler struct {
	generator Generator
	notifier  Notifier
	recipient string
	schedule  string
	log       *logger.Logger
	metrics   *metrics.Collector

	mu      sync.Mutex
	cron    *cron.Cron
	running bool
}

// Options configure a Scheduler. Notifier may be nil, in which case digests are logged.
type Options struct {
	Schedule  string
	Recipient string
	Notifier  Notifier
	Logger    *logger.Logger
	Metrics   *metrics.Collector
}

// NewScheduler creates a scheduler; call Start to begin.
func NewScheduler(gen Generator, opts Options) *Scheduler {
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}

	return &Scheduler{
		generator: gen,
		notifier:  opts.Notifier,
		recipient: opts.Recipient,
		schedule:  opts.Schedule,
		log:       log.Component("digest"),
		metrics:   opts.Metrics,
		cron:      cron.New(),
	}
}

// Schedule returns the configured cron expression.
func (s *Scheduler) Schedule() string {
	return s.schedule
}

// Start registers the job and starts the cron runner. An empty schedule is a no-op.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.schedule == "" {
		s.log.Info("Digest schedule not configured, skipping scheduler")
		return nil
	}
	if s.running {
		return nil
	}

	if _, err := cron.ParseStandard(s.schedule); err != nil {
		return fmt.Errorf("invalid digest schedule %q: %w", s.schedule, err)
	}

	if _, err := s.cron.AddFunc(s.schedule, func() {
		if _, err := s.Run(ctx, s.generator.Today(), ""); err != nil {
			s.log.Error("Scheduled digest failed", err)
		}
	}); err != nil {
		return fmt.Errorf("failed to schedule digest: %w", err)
	}

	s.cron.Start()
	s.running = true
	s.log.Infof("Digest scheduler started with schedule %q", s.schedule)

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	return nil
}

// Stop halts the cron runner and waits for a running job to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}

	<-s.cron.Stop().Done()
	s.running = false
	s.log.Info("Digest scheduler stopped")
}

// Report describes one digest run.
type Report struct {
	Result    string
	Recipient string
	Entries   int
}

// Run generates the digest for day and delivers it. to overrides the
// configured recipient when non-empty.
func (s *Scheduler) Run(ctx context.Context, day time.Time, to string) (Report, error) {
	report := Report{Result: ResultError}

	result, err := s.generator.GenerateLogs(ctx, day)
	if err != nil {
		s.metrics.RecordDigest(ResultError)
		return report, fmt.Errorf("failed to generate logs: %w", err)
	}
	report.Entries = result.Count()

	text := Format(result, day)
	if text == "" {
		report.Result = ResultEmpty
		s.metrics.RecordDigest(ResultEmpty)
		s.log.Info("No changes, digest skipped")
		return report, nil
	}

	if s.notifier == nil {
		report.Result = ResultLogged
		s.metrics.RecordDigest(ResultLogged)
		s.log.With("entries", report.Entries).Info(text)
		return report, nil
	}

	if to == "" {
		to = s.recipient
	}
	if to == "" {
		s.metrics.RecordDigest(ResultError)
		return report, ErrNoRecipient
	}
	report.Recipient = to

	if err := s.notifier.Send(ctx, to, text); err != nil {
		s.metrics.RecordDigest(ResultError)
		return report, fmt.Errorf("failed to send digest: %w", err)
	}

	report.Result = ResultSent
	s.metrics.RecordDigest(ResultSent)
	return report, nil
}
