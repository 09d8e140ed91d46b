package sandbox

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startLocal(t *testing.T, optFns ...func(o *LocalOptions)) *Local {
	t.Helper()

	optFns = append([]func(o *LocalOptions){func(o *LocalOptions) { o.BaseDir = t.TempDir() }}, optFns...)
	sb := NewLocal(optFns...)
	require.NoError(t, sb.Start(context.Background()))
	t.Cleanup(func() { _ = sb.Stop(context.Background()) })

	return sb
}

func TestConfig_Defaults(t *testing.T) {
	cfg := Config{MemoryMB: 1024}.withDefaults()

	assert.Equal(t, "python:3.11-slim", cfg.Image)
	assert.Equal(t, 1024, cfg.MemoryMB)
	assert.Equal(t, 1, cfg.CPUCount)
	assert.Equal(t, 1800, cfg.TimeoutSeconds)
	assert.Equal(t, "/workspace", cfg.WorkingDir)
	assert.Equal(t, 30*time.Minute, cfg.Timeout())
}

func TestResult_Output(t *testing.T) {
	assert.Equal(t, "out", Result{Stdout: "out"}.Output())
	assert.Equal(t, "err", Result{Stderr: "err"}.Output())
	assert.Equal(t, "out\nerr", Result{Stdout: "out", Stderr: "err"}.Output())
}

func TestLocal_Lifecycle(t *testing.T) {
	sb := NewLocal(func(o *LocalOptions) { o.BaseDir = t.TempDir() })
	assert.Equal(t, StatusCreated, sb.Status())
	assert.False(t, sb.IsRunning())

	_, err := sb.Execute(context.Background(), "echo hi", 0)
	assert.ErrorIs(t, err, ErrNotRunning)

	require.NoError(t, sb.Start(context.Background()))
	assert.True(t, sb.IsRunning())
	root := sb.Root()
	assert.DirExists(t, root)

	// Starting twice keeps the same workspace.
	require.NoError(t, sb.Start(context.Background()))
	assert.Equal(t, root, sb.Root())

	require.NoError(t, sb.Stop(context.Background()))
	assert.Equal(t, StatusStopped, sb.Status())
	assert.NoDirExists(t, root)
}

func TestLocal_Execute(t *testing.T) {
	sb := startLocal(t)

	res, err := sb.Execute(context.Background(), "echo hello && pwd", 5*time.Second)
	require.NoError(t, err)
	assert.Equal(t, 0, res.ExitCode)
	assert.False(t, res.TimedOut)
	assert.Contains(t, res.Stdout, "hello")

	wantRoot, err := filepath.EvalSymlinks(sb.Root())
	require.NoError(t, err)
	assert.Contains(t, res.Stdout, filepath.Base(wantRoot))
}

func TestLocal_ExecuteNonZeroExit(t *testing.T) {
	sb := startLocal(t)

	res, err := sb.Execute(context.Background(), "echo oops >&2; exit 3", 5*time.Second)
	require.NoError(t, err)
	assert.Equal(t, 3, res.ExitCode)
	assert.Equal(t, "oops\n", res.Stderr)
}

func TestLocal_ExecuteTimeout(t *testing.T) {
	sb := startLocal(t)

	res, err := sb.Execute(context.Background(), "sleep 5", 100*time.Millisecond)
	require.NoError(t, err)
	assert.True(t, res.TimedOut)
	assert.Equal(t, -1, res.ExitCode)
}

func TestLocal_ExecuteEnv(t *testing.T) {
	t.Setenv("AGENTKIT_TEST_API_KEY", "leak")
	sb := startLocal(t, func(o *LocalOptions) { o.Config.Env = map[string]string{"GREETING": "hi"} })

	res, err := sb.Execute(context.Background(), `echo "$GREETING:$AGENTKIT_TEST_API_KEY"`, 5*time.Second)
	require.NoError(t, err)
	assert.Equal(t, "hi:\n", res.Stdout)
}

func TestLocal_Files(t *testing.T) {
	sb := startLocal(t)
	ctx := context.Background()

	require.NoError(t, sb.WriteFile(ctx, "/workspace/src/main.py", "print('hi')"))
	require.NoError(t, sb.WriteFile(ctx, "notes.txt", "n"))

	got, err := sb.ReadFile(ctx, "src/main.py")
	require.NoError(t, err)
	assert.Equal(t, "print('hi')", got)

	data, err := os.ReadFile(filepath.Join(sb.Root(), "notes.txt"))
	require.NoError(t, err)
	assert.Equal(t, "n", string(data))

	res, err := sb.Execute(ctx, "cat src/main.py", time.Second*5)
	require.NoError(t, err)
	assert.Equal(t, "print('hi')", res.Stdout)

	_, err = sb.ReadFile(ctx, "missing.txt")
	assert.Error(t, err)
}

func TestLocal_PathConfinement(t *testing.T) {
	sb := startLocal(t)
	ctx := context.Background()

	for _, p := range []string{"/etc/passwd", "../escape.txt", "a/../../escape.txt", "/workspace/../etc"} {
		err := sb.WriteFile(ctx, p, "x")
		assert.ErrorIs(t, err, ErrPathOutside, p)
	}

	resolved, err := sb.Resolve("/workspace")
	require.NoError(t, err)
	assert.Equal(t, sb.Root(), resolved)
}
