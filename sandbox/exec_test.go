package sandbox

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunShell(t *testing.T) {
	dir := t.TempDir()

	res, err := RunShell(context.Background(), ShellCommand{
		Command: "pwd; echo oops >&2; exit 3",
		Dir:     dir,
		Env:     []string{"PATH=/usr/bin:/bin"},
		Timeout: 5 * time.Second,
	})
	require.NoError(t, err)

	assert.True(t, strings.HasSuffix(strings.TrimSpace(res.Stdout), filepath.Base(dir)))
	assert.Equal(t, "oops\n", res.Stderr)
	assert.Equal(t, 3, res.ExitCode)
	assert.False(t, res.TimedOut)
}

func TestRunShell_Environment(t *testing.T) {
	res, err := RunShell(context.Background(), ShellCommand{
		Command: `echo "[$AGENTKIT_ONLY]"`,
		Env:     []string{"PATH=/usr/bin:/bin", "AGENTKIT_ONLY=yes"},
	})
	require.NoError(t, err)
	assert.Equal(t, "[yes]\n", res.Stdout)
}

func TestRunShell_Timeout(t *testing.T) {
	res, err := RunShell(context.Background(), ShellCommand{
		Command: "sleep 5",
		Timeout: 100 * time.Millisecond,
	})
	require.NoError(t, err)

	assert.True(t, res.TimedOut)
	assert.Equal(t, -1, res.ExitCode)
}

func TestRunShell_MissingShell(t *testing.T) {
	_, err := RunShell(context.Background(), ShellCommand{
		Shell:   "/nonexistent/agentkit-shell",
		Command: "true",
	})
	assert.Error(t, err)
}
