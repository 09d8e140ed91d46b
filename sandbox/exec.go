package sandbox

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"
)

// ShellCommand describes one `<Shell> -c <Command>` invocation.
type ShellCommand struct {
	Shell   string
	Command string
	Dir     string
	// Env replaces the process environment when non-nil.
	Env     []string
	Timeout time.Duration
}

// RunShell runs c and captures its output. A non-zero exit is reported in
// Result.ExitCode and an expired timeout as TimedOut with exit code -1; only
// failures to run the shell at all are returned as error.
func RunShell(ctx context.Context, c ShellCommand) (*Result, error) {
	shell := c.Shell
	if shell == "" {
		shell = "sh"
	}

	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, shell, "-c", c.Command)
	cmd.Dir = c.Dir
	cmd.Env = c.Env
	// Grandchildren may keep the pipes open after the shell is killed.
	cmd.WaitDelay = time.Second

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()
	res := &Result{Stdout: stdout.String(), Stderr: stderr.String()}

	if runErr != nil {
		var exitErr *exec.ExitError
		switch {
		case errors.Is(ctx.Err(), context.DeadlineExceeded):
			res.TimedOut = true
			res.ExitCode = -1
		case errors.As(runErr, &exitErr):
			res.ExitCode = exitErr.ExitCode()
		default:
			return nil, fmt.Errorf("execute %q: %w", c.Command, runErr)
		}
	}

	return res, nil
}
