// Package runner invokes external build and run commands on behalf of goals.
package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
)

// ExitError carries everything a goal action needs to turn a failed command
// into a structured result: the combined output and the exit code. A spawn
// failure (command not found, bad working directory) reports exit code -1.
type ExitError struct {
	Command string
	Output  string
	Code    int
	Err     error
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("command %q failed with exit code %d: %v", e.Command, e.Code, e.Err)
}

func (e *ExitError) Unwrap() error { return e.Err }

// Runner spawns external commands and captures their combined output.
type Runner struct {
	logger *slog.Logger
}

// New returns a Runner. A nil logger falls back to slog.Default.
func New(logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{logger: logger}
}

// Run executes command with args in dir and returns the combined standard
// output and error on success (exit code 0). On nonzero exit or spawn failure
// it returns an *ExitError; the calling goal action owns that error boundary
// and must convert it into a terminal failure result.
func (r *Runner) Run(ctx context.Context, command string, args []string, dir string, env ...string) (string, error) {
	cmd := exec.CommandContext(ctx, command, args...)
	cmd.Dir = dir
	if len(env) > 0 {
		cmd.Env = append(cmd.Environ(), env...)
	}

	r.logger.InfoContext(ctx, "running command", "command", command, "args", args, "dir", dir)

	out, err := cmd.CombinedOutput()
	output := string(out)
	if err != nil {
		code := -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			code = exitErr.ExitCode()
		}
		r.logger.WarnContext(ctx, "command failed", "command", command, "exit_code", code)
		return "", &ExitError{Command: command, Output: output, Code: code, Err: err}
	}
	return output, nil
}
