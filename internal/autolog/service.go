// Package autolog runs the change scanner over every registered project and
// assembles log entries and status reports from the results.
package autolog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nahidhasan98/autolog/internal/changelog"
	"github.com/nahidhasan98/autolog/internal/logger"
	"github.com/nahidhasan98/autolog/internal/metrics"
	"github.com/nahidhasan98/autolog/internal/registry"
	"github.com/nahidhasan98/autolog/internal/scanner"
)

// ChangeScanner finds the changes of one directory; nil means no changes.
type ChangeScanner interface {
	Scan(ctx context.Context, path string, day time.Time) *scanner.Changes
}

// ProjectStatus is the per-project summary of a status poll.
type ProjectStatus struct {
	Name       string `json:"name"`
	HasChanges bool   `json:"hasChanges"`
	Commits    int    `json:"commits"`
	Files      int    `json:"files"`
}

// GenerateResult holds the entries produced by one generate run.
type GenerateResult struct {
	Logs     []*changelog.Entry
	Projects []string
}

// Count returns the number of generated entries.
func (r *GenerateResult) Count() int {
	return len(r.Logs)
}

// Options tune a Service. Zero values are usable.
type Options struct {
	// Concurrency bounds parallel project scans; 1 or less scans sequentially.
	Concurrency int
	// Now defaults to time.Now.
	Now     func() time.Time
	Metrics *metrics.Collector
	Logger  *logger.Logger
}

// Service ties the project registry to the scanner.
type Service struct {
	registry    *registry.Registry
	scanner     ChangeScanner
	concurrency int
	now         func() time.Time
	metrics     *metrics.Collector
	log         *logger.Logger
}

// New creates a service over an immutable registry.
func New(reg *registry.Registry, sc ChangeScanner, opts Options) *Service {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = logger.Nop()
	}
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}

	return &Service{
		registry:    reg,
		scanner:     sc,
		concurrency: opts.Concurrency,
		now:         opts.Now,
		metrics:     opts.Metrics,
		log:         opts.Logger.Component("autolog"),
	}
}

// Today returns the current calendar day in local time.
func (s *Service) Today() time.Time {
	n := s.now()
	y, m, d := n.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, n.Location())
}

// Now returns the service clock's current time.
func (s *Service) Now() time.Time {
	return s.now()
}

// ProjectCount returns the number of registered projects.
func (s *Service) ProjectCount() int {
	return s.registry.Len()
}

// Projects returns the registered projects in order.
func (s *Service) Projects() []registry.Project {
	return s.registry.All()
}

// ErrUnknownProject is returned when a project id is not registered.
var ErrUnknownProject = errors.New("unknown project")

// GenerateLogs scans every project for day and synthesizes one entry per
// project with changes, in registry order. Per-project failures are already
// absorbed by the scanner; only context cancellation fails the run.
func (s *Service) GenerateLogs(ctx context.Context, day time.Time) (*GenerateResult, error) {
	projects := s.registry.All()

	changes, err := s.scanAll(ctx, projects, day)
	if err != nil {
		return nil, err
	}

	return s.build(projects, changes, day), nil
}

// GenerateProjectLog scans a single registered project. The result holds at
// most one entry.
func (s *Service) GenerateProjectLog(ctx context.Context, id string, day time.Time) (*GenerateResult, error) {
	p, ok := s.registry.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProject, id)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	changes := []*scanner.Changes{s.scanOne(ctx, p, day)}
	return s.build([]registry.Project{p}, changes, day), nil
}

func (s *Service) build(projects []registry.Project, changes []*scanner.Changes, day time.Time) *GenerateResult {
	result := &GenerateResult{
		Logs:     []*changelog.Entry{},
		Projects: []string{},
	}

	now := s.now()
	for i, p := range projects {
		entry := changelog.Build(p, changes[i], day, now)
		if entry == nil {
			continue
		}
		result.Logs = append(result.Logs, entry)
		result.Projects = append(result.Projects, p.Name)
	}

	s.metrics.RecordLogEntries(result.Count())
	s.log.Infof("Generated %d log entries for %s", result.Count(), day.Format("2006-01-02"))

	return result
}

// ProjectStatus reports, per project id, whether day's window has changes.
func (s *Service) ProjectStatus(ctx context.Context, day time.Time) (map[string]ProjectStatus, error) {
	projects := s.registry.All()

	changes, err := s.scanAll(ctx, projects, day)
	if err != nil {
		return nil, err
	}

	status := make(map[string]ProjectStatus, len(projects))
	for i, p := range projects {
		st := ProjectStatus{Name: p.Name}
		if c := changes[i]; c != nil {
			st.HasChanges = len(c.Commits) > 0
			st.Commits = len(c.Commits)
			st.Files = len(c.FilesChanged)
		}
		status[p.ID] = st
	}

	return status, nil
}

// scanAll returns one result per project, index-aligned with projects.
func (s *Service) scanAll(ctx context.Context, projects []registry.Project, day time.Time) ([]*scanner.Changes, error) {
	results := make([]*scanner.Changes, len(projects))

	if s.concurrency == 1 {
		for i, p := range projects {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			results[i] = s.scanOne(ctx, p, day)
		}
		return results, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, p := range projects {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = s.scanOne(gctx, p, day)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return results, nil
}

func (s *Service) scanOne(ctx context.Context, p registry.Project, day time.Time) *scanner.Changes {
	changes := s.scanner.Scan(ctx, p.Path, day)
	s.metrics.RecordScan(p.ID, changes != nil && len(changes.Commits) > 0)
	return changes
}
