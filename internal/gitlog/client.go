// Package gitlog wraps the git command line for windowed history queries.
//
// The stdout formats produced by the commands below are the contract the
// parsers in this package depend on.
package gitlog

import (
	"context"
	"fmt"
)

// Client issues git queries through a Runner.
type Client struct {
	runner Runner
}

// NewClient creates a client. A nil runner falls back to the git binary on PATH.
func NewClient(runner Runner) *Client {
	if runner == nil {
		runner = &ExecRunner{}
	}
	return &Client{runner: runner}
}

// IsRepository reports whether dir is inside a git checkout. A missing
// directory is simply not a repository.
func (c *Client) IsRepository(ctx context.Context, dir string) bool {
	_, err := c.runner.Run(ctx, dir, "rev-parse", "--git-dir")
	return err == nil
}

// Commits lists commits inside the window, oldest first.
func (c *Client) Commits(ctx context.Context, dir string, w Window) ([]Commit, error) {
	args := []string{"-c", "core.quotePath=false", "log"}
	args = append(args, w.Args()...)
	args = append(args, "--pretty=format:"+CommitFormat, "--reverse")

	out, err := c.runner.Run(ctx, dir, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list commits: %w", err)
	}

	return ParseCommits(string(out)), nil
}

// FileChanges summarizes the files touched inside the window.
func (c *Client) FileChanges(ctx context.Context, dir string, w Window) ([]FileChange, error) {
	args := []string{"-c", "core.quotePath=false", "log"}
	args = append(args, w.Args()...)
	args = append(args, "--numstat", "--pretty=format:")

	out, err := c.runner.Run(ctx, dir, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to collect file changes: %w", err)
	}

	return ParseNumstat(string(out)), nil
}
