package builtin

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hupe1980/agentkit/tool"
)

// DefaultShellTimeout is the execute_shell timeout in seconds.
const DefaultShellTimeout = 30

type shellArgs struct {
	Command    string `json:"command" description:"The shell command to execute"`
	Timeout    int    `json:"timeout" description:"Timeout in seconds (default: 30)" default:"30"`
	WorkingDir string `json:"working_dir,omitempty" description:"Working directory for the command"`
}

func newShell(o Options) *tool.Definition {
	b := o.backend()

	return tool.NewTyped(NameShell,
		"Execute a shell command and return its output. Use for running scripts, installing packages, system commands, etc.",
		func(ctx context.Context, args shellArgs) (any, error) {
			timeout := args.Timeout
			if timeout <= 0 {
				timeout = DefaultShellTimeout
			}

			o.Logger.Debug("builtin.shell.exec", "command", args.Command, "timeout", timeout)

			res, err := b.exec(ctx, args.Command, args.WorkingDir, time.Duration(timeout)*time.Second)
			if err != nil {
				return fmt.Sprintf("Error: %v", err), nil
			}

			return formatShellResult(res.Stdout, res.Stderr, res.ExitCode, res.TimedOut, timeout), nil
		})
}

// formatShellResult renders stdout, plus stderr and the exit code when the
// command failed.
func formatShellResult(stdout, stderr string, exitCode int, timedOut bool, timeout int) string {
	if timedOut {
		return fmt.Sprintf("Error: Command timed out after %ds", timeout)
	}

	out := stdout
	if exitCode != 0 {
		if stderr != "" {
			out += "\nSTDERR: " + stderr
		}
		out += fmt.Sprintf("\nExit code: %d", exitCode)
	}

	if out = strings.TrimSpace(out); out == "" {
		return "(no output)"
	}

	return out
}
