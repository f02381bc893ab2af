package gitlog

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"
)

// Runner executes a git subcommand inside dir and returns its stdout.
type Runner interface {
	Run(ctx context.Context, dir string, args ...string) ([]byte, error)
}

// ObserveFunc receives the subcommand name, its duration and its error after every run.
type ObserveFunc func(command string, duration time.Duration, err error)

// ExecRunner runs the git binary through os/exec.
type ExecRunner struct {
	// Binary defaults to "git".
	Binary string
	// Timeout bounds every invocation when positive.
	Timeout time.Duration
	// Observe is optional.
	Observe ObserveFunc
}

// Run implements Runner.
func (r *ExecRunner) Run(ctx context.Context, dir string, args ...string) ([]byte, error) {
	binary := r.Binary
	if binary == "" {
		binary = "git"
	}

	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, binary, args...)
	cmd.Dir = dir
	// Never block on credential prompts.
	cmd.Env = append(os.Environ(), "GIT_TERMINAL_PROMPT=0")

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	start := time.Now()
	out, err := cmd.Output()
	if err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			err = fmt.Errorf("git %s failed: %w (%s)", subcommand(args), err, msg)
		} else {
			err = fmt.Errorf("git %s failed: %w", subcommand(args), err)
		}
	}

	if r.Observe != nil {
		r.Observe(subcommand(args), time.Since(start), err)
	}

	return out, err
}

// subcommand skips leading "-c key=value" pairs and flags.
func subcommand(args []string) string {
	for i := 0; i < len(args); i++ {
		if args[i] == "-c" {
			i++
			continue
		}
		if !strings.HasPrefix(args[i], "-") {
			return args[i]
		}
	}
	return "unknown"
}
