package runner

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRunner() *Runner {
	return New(slog.New(slog.NewTextHandler(os.Stdout, nil)))
}

func TestRunCapturesOutputOnSuccess(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("POSIX shell required")
	}

	out, err := testRunner().Run(context.Background(), "sh", []string{"-c", "echo hello"}, t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, out, "hello")
}

func TestRunRespectsWorkingDirectory(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("POSIX shell required")
	}

	dir := t.TempDir()
	out, err := testRunner().Run(context.Background(), "pwd", nil, dir)
	require.NoError(t, err)
	assert.Contains(t, out, dir)
}

func TestRunNonzeroExit(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("POSIX shell required")
	}

	_, err := testRunner().Run(context.Background(), "sh", []string{"-c", "echo boom >&2; exit 3"}, t.TempDir())
	require.Error(t, err)

	var exitErr *ExitError
	require.True(t, errors.As(err, &exitErr))
	assert.Equal(t, 3, exitErr.Code)
	assert.Contains(t, exitErr.Output, "boom", "stderr must be captured in combined output")
}

func TestRunSpawnFailure(t *testing.T) {
	_, err := testRunner().Run(context.Background(), "definitely-not-a-command-shiplane", nil, t.TempDir())
	require.Error(t, err)

	var exitErr *ExitError
	require.True(t, errors.As(err, &exitErr))
	assert.Equal(t, -1, exitErr.Code)
}

func TestRunPassesExtraEnv(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("POSIX shell required")
	}

	out, err := testRunner().Run(context.Background(), "sh", []string{"-c", "echo $SHIPLANE_TEST_VAR"}, t.TempDir(), "SHIPLANE_TEST_VAR=42")
	require.NoError(t, err)
	assert.Contains(t, out, "42")
}
