// Package scanner detects recent commits in a project directory.
package scanner

import (
	"context"
	"time"

	"github.com/nahidhasan98/autolog/internal/gitlog"
	"github.com/nahidhasan98/autolog/internal/logger"
)

// Changes is what a scan found inside the window.
type Changes struct {
	Window       gitlog.Window
	Commits      []gitlog.Commit
	FilesChanged []gitlog.FileChange
}

// Scanner runs windowed git queries against project directories.
type Scanner struct {
	git *gitlog.Client
	log *logger.Logger
}

// New creates a scanner.
func New(git *gitlog.Client, log *logger.Logger) *Scanner {
	if log == nil {
		log = logger.Nop()
	}
	return &Scanner{
		git: git,
		log: log.Component("scanner"),
	}
}

// Scan looks for commits in the two-day window ending on day.
//
// A nil result means "no changes": the path is not a git checkout, nothing was
// committed in the window, or git failed. Failures are logged, never returned.
// The file summary is best-effort; when it fails the scan still succeeds with
// an empty file list.
func (s *Scanner) Scan(ctx context.Context, path string, day time.Time) *Changes {
	if !s.git.IsRepository(ctx, path) {
		s.log.Debugf("Skipping %s: not a git repository", path)
		return nil
	}

	window := gitlog.WindowFor(day)

	commits, err := s.git.Commits(ctx, path, window)
	if err != nil {
		s.log.With("path", path).Error("Failed to check git changes", err)
		return nil
	}
	if len(commits) == 0 {
		return nil
	}

	files, err := s.git.FileChanges(ctx, path, window)
	if err != nil {
		s.log.With("path", path).Debugf("File summary unavailable: %v", err)
		files = []gitlog.FileChange{}
	}

	return &Changes{
		Window:       window,
		Commits:      commits,
		FilesChanged: files,
	}
}
