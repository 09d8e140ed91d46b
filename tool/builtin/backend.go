package builtin

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/hupe1980/agentkit/sandbox"
)

// backend is where shell and file tools act.
type backend interface {
	exec(ctx context.Context, command, workingDir string, timeout time.Duration) (*sandbox.Result, error)
	readFile(ctx context.Context, path string) (string, error)
	writeFile(ctx context.Context, path, content string) error
	listDir(ctx context.Context, path string) ([]sandbox.DirEntry, error)
}

// hostBackend runs on the local machine.
type hostBackend struct{}

func (hostBackend) exec(ctx context.Context, command, workingDir string, timeout time.Duration) (*sandbox.Result, error) {
	return sandbox.RunShell(ctx, sandbox.ShellCommand{
		Command: command,
		Dir:     expandHome(workingDir),
		Timeout: timeout,
	})
}

func (hostBackend) readFile(_ context.Context, path string) (string, error) {
	data, err := os.ReadFile(expandHome(path))
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (hostBackend) writeFile(_ context.Context, path, content string) error {
	path = expandHome(path)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(content), 0o644)
}

func (hostBackend) listDir(_ context.Context, path string) ([]sandbox.DirEntry, error) {
	des, err := os.ReadDir(expandHome(path))
	if err != nil {
		return nil, err
	}
	out := make([]sandbox.DirEntry, 0, len(des))
	for _, de := range des {
		out = append(out, sandbox.DirEntry{Name: de.Name(), IsDir: de.IsDir()})
	}
	return out, nil
}

func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}

// sandboxBackend delegates to a sandbox.Provider. Providers without
// sandbox.DirLister are listed through their shell.
type sandboxBackend struct {
	p sandbox.Provider
}

func (b *sandboxBackend) exec(ctx context.Context, command, workingDir string, timeout time.Duration) (*sandbox.Result, error) {
	if workingDir != "" {
		if r, ok := b.p.(sandbox.PathResolver); ok {
			resolved, err := r.Resolve(workingDir)
			if err != nil {
				return nil, err
			}
			workingDir = resolved
		}
		command = "cd " + shellQuote(workingDir) + " && " + command
	}
	return b.p.Execute(ctx, command, timeout)
}

func (b *sandboxBackend) readFile(ctx context.Context, path string) (string, error) {
	return b.p.ReadFile(ctx, path)
}

func (b *sandboxBackend) writeFile(ctx context.Context, path, content string) error {
	return b.p.WriteFile(ctx, path, content)
}

func (b *sandboxBackend) listDir(ctx context.Context, path string) ([]sandbox.DirEntry, error) {
	if l, ok := b.p.(sandbox.DirLister); ok {
		return l.ListDir(ctx, path)
	}

	res, err := b.p.Execute(ctx, "ls -1Ap "+shellQuote(path), 30*time.Second)
	if err != nil {
		return nil, err
	}
	if res.ExitCode != 0 {
		return nil, errors.New(strings.TrimSpace(res.Stderr))
	}

	var out []sandbox.DirEntry
	for _, line := range strings.Split(strings.TrimSpace(res.Stdout), "\n") {
		if line == "" {
			continue
		}
		name, isDir := strings.CutSuffix(line, "/")
		out = append(out, sandbox.DirEntry{Name: name, IsDir: isDir})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
