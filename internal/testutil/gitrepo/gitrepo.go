// Package gitrepo builds throwaway git repositories for tests.
package gitrepo

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"
)

// Repo is a temporary git checkout.
type Repo struct {
	Dir string
	t   testing.TB
}

// RequireGit skips the test when no git binary is available.
func RequireGit(t testing.TB) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git binary not available")
	}
}

// New initializes an empty repository in a temp dir.
func New(t testing.TB) *Repo {
	t.Helper()
	RequireGit(t)

	r := &Repo{Dir: t.TempDir(), t: t}
	r.Git(time.Time{}, "init", "-q")
	r.Git(time.Time{}, "config", "user.email", "test@example.com")
	r.Git(time.Time{}, "config", "user.name", "Test User")
	r.Git(time.Time{}, "config", "commit.gpgsign", "false")
	return r
}

// WriteFile writes content at a path relative to the repo root.
func (r *Repo) WriteFile(name, content string) {
	r.t.Helper()

	full := filepath.Join(r.Dir, name)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		r.t.Fatalf("mkdir %s: %v", name, err)
	}
	if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
		r.t.Fatalf("write %s: %v", name, err)
	}
}

// Commit stages everything and commits with author and committer dates set to when.
func (r *Repo) Commit(message string, when time.Time) {
	r.t.Helper()

	r.Git(time.Time{}, "add", "-A")
	r.Git(when, "commit", "-q", "--allow-empty", "-m", message)
}

// Git runs a git command in the repo. A non-zero when pins the commit dates.
func (r *Repo) Git(when time.Time, args ...string) string {
	r.t.Helper()

	cmd := exec.Command("git", args...)
	cmd.Dir = r.Dir
	cmd.Env = os.Environ()
	if !when.IsZero() {
		stamp := when.Format(time.RFC3339)
		cmd.Env = append(cmd.Env, "GIT_AUTHOR_DATE="+stamp, "GIT_COMMITTER_DATE="+stamp)
	}

	out, err := cmd.CombinedOutput()
	if err != nil {
		r.t.Fatalf("git %v failed: %v\n%s", args, err, out)
	}
	return string(out)
}
