package sandbox

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/hupe1980/agentkit/core"
	"github.com/hupe1980/agentkit/logging"
)

// LocalOptions configures a Local provider.
type LocalOptions struct {
	Config Config
	// BaseDir is where the private working directory is created. Empty uses
	// the system temp directory.
	BaseDir string
	// Shell runs commands as `<Shell> -c <command>`. Defaults to "sh".
	Shell  string
	Logger logging.Logger
}

// Local runs commands as host processes confined to a private temporary
// working directory. It enforces timeouts and path confinement; resource and
// network limits in Config are not enforced.
type Local struct {
	mu     sync.RWMutex
	cfg    Config
	base   string
	shell  string
	root   string
	status Status
	logger logging.Logger
}

// NewLocal creates a stopped Local provider.
func NewLocal(optFns ...func(o *LocalOptions)) *Local {
	opts := LocalOptions{Shell: "sh"}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Shell == "" {
		opts.Shell = "sh"
	}

	return &Local{
		cfg:    opts.Config.withDefaults(),
		base:   opts.BaseDir,
		shell:  opts.Shell,
		status: StatusCreated,
		logger: logging.Ensure(opts.Logger),
	}
}

// Config returns the effective configuration.
func (l *Local) Config() Config { return l.cfg }

// Root returns the host directory backing the sandbox working directory, or
// "" when not running.
func (l *Local) Root() string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.root
}

// Start implements Provider.
func (l *Local) Start(_ context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.status == StatusRunning {
		return nil
	}

	root, err := os.MkdirTemp(l.base, "agentkit-sandbox-"+core.NewShortID(12)+"-")
	if err != nil {
		l.status = StatusError
		return fmt.Errorf("start sandbox: %w", err)
	}

	l.root = root
	l.status = StatusRunning
	l.logger.Info("sandbox.start", "provider", "local", "root", root)

	return nil
}

// Stop implements Provider.
func (l *Local) Stop(_ context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.root != "" {
		if err := os.RemoveAll(l.root); err != nil {
			l.status = StatusError
			return fmt.Errorf("stop sandbox: %w", err)
		}
		l.logger.Info("sandbox.stop", "provider", "local", "root", l.root)
	}

	l.root = ""
	l.status = StatusStopped

	return nil
}

// IsRunning implements Provider.
func (l *Local) IsRunning() bool { return l.Status() == StatusRunning }

// Status implements Provider.
func (l *Local) Status() Status {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.status
}

// Execute implements Provider.
func (l *Local) Execute(ctx context.Context, command string, timeout time.Duration) (*Result, error) {
	root, err := l.running()
	if err != nil {
		return nil, err
	}

	if timeout <= 0 {
		timeout = l.cfg.Timeout()
	}

	start := time.Now()
	res, err := RunShell(ctx, ShellCommand{
		Shell:   l.shell,
		Command: command,
		Dir:     root,
		Env:     l.environment(root),
		Timeout: timeout,
	})
	if err != nil {
		return nil, err
	}

	l.logger.Debug("sandbox.execute", "provider", "local", "exit_code", res.ExitCode, "timed_out", res.TimedOut, "duration", time.Since(start))

	return res, nil
}

// WriteFile implements Provider. Parent directories are created.
func (l *Local) WriteFile(_ context.Context, path, content string) error {
	resolved, err := l.resolve(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(resolved), 0o755); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := os.WriteFile(resolved, []byte(content), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// ReadFile implements Provider.
func (l *Local) ReadFile(_ context.Context, path string) (string, error) {
	resolved, err := l.resolve(path)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(resolved)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return string(data), nil
}

// ListDir implements DirLister. Entries are sorted by name.
func (l *Local) ListDir(_ context.Context, path string) ([]DirEntry, error) {
	resolved, err := l.resolve(path)
	if err != nil {
		return nil, err
	}
	des, err := os.ReadDir(resolved)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", path, err)
	}
	out := make([]DirEntry, 0, len(des))
	for _, de := range des {
		out = append(out, DirEntry{Name: de.Name(), IsDir: de.IsDir()})
	}
	return out, nil
}

// Resolve maps a sandbox path to its host location. Relative paths and
// absolute paths under Config.WorkingDir are accepted; anything escaping the
// working directory yields ErrPathOutside.
func (l *Local) Resolve(path string) (string, error) { return l.resolve(path) }

func (l *Local) resolve(path string) (string, error) {
	root, err := l.running()
	if err != nil {
		return "", err
	}

	p := filepath.ToSlash(path)
	if strings.HasPrefix(p, "/") {
		wd := strings.TrimSuffix(filepath.ToSlash(l.cfg.WorkingDir), "/")
		if p != wd && !strings.HasPrefix(p, wd+"/") {
			return "", fmt.Errorf("%w: %s", ErrPathOutside, path)
		}
		p = strings.TrimPrefix(strings.TrimPrefix(p, wd), "/")
	}

	resolved := filepath.Join(root, filepath.FromSlash(p))
	rel, err := filepath.Rel(root, resolved)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", ErrPathOutside, path)
	}

	return resolved, nil
}

func (l *Local) running() (string, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.status != StatusRunning {
		return "", ErrNotRunning
	}
	return l.root, nil
}

// sensitiveEnvSuffixes mark host variables that never leak into the sandbox.
var sensitiveEnvSuffixes = []string{"_API_KEY", "_SECRET", "_TOKEN", "_PASSWORD", "_CREDENTIAL"}

func (l *Local) environment(root string) []string {
	var env []string
	for _, kv := range os.Environ() {
		name, _, ok := strings.Cut(kv, "=")
		if !ok || isSensitiveEnv(name) || name == "HOME" || name == "PWD" {
			continue
		}
		env = append(env, kv)
	}
	env = append(env, "HOME="+root, "PWD="+root)
	for k, v := range l.cfg.Env {
		env = append(env, k+"="+v)
	}
	return env
}

func isSensitiveEnv(name string) bool {
	upper := strings.ToUpper(name)
	for _, s := range sensitiveEnvSuffixes {
		if strings.HasSuffix(upper, s) {
			return true
		}
	}
	return false
}

var (
	_ Provider     = (*Local)(nil)
	_ DirLister    = (*Local)(nil)
	_ PathResolver = (*Local)(nil)
)
