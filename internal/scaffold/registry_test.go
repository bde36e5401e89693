package scaffold

import (
	"context"
	"io"
	"log/slog"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shiplane/shiplane/internal/config"
	"github.com/shiplane/shiplane/internal/runner"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeGenerator struct {
	gotParams Params
	out       string
	err       error
}

func (f *fakeGenerator) Generate(_ context.Context, params Params) (string, error) {
	f.gotParams = params
	return f.out, f.err
}

func TestRegistryInvoke(t *testing.T) {
	reg := NewRegistry(testLogger())
	gen := &fakeGenerator{out: "created"}
	require.NoError(t, reg.Register("create-project", gen))

	out, err := reg.Invoke(context.Background(), "create-project", Params{"name": "demo"})
	require.NoError(t, err)
	assert.Equal(t, "created", out)
	assert.Equal(t, "demo", gen.gotParams["name"])
}

func TestRegistryUnknownIntent(t *testing.T) {
	reg := NewRegistry(testLogger())

	_, err := reg.Invoke(context.Background(), "nope", nil)
	require.ErrorIs(t, err, ErrUnknownIntent)
}

func TestRegistryRejectsDuplicateIntent(t *testing.T) {
	reg := NewRegistry(testLogger())
	require.NoError(t, reg.Register("create-project", &fakeGenerator{}))

	err := reg.Register("create-project", &fakeGenerator{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already registered")
}

func TestRegistryIntentsSorted(t *testing.T) {
	reg := NewRegistry(testLogger())
	require.NoError(t, reg.Register("b-intent", &fakeGenerator{}))
	require.NoError(t, reg.Register("a-intent", &fakeGenerator{}))

	assert.Equal(t, []string{"a-intent", "b-intent"}, reg.Intents())
}

func TestCommandGeneratorFlagsSortedByKey(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX shell")
	}

	gen := NewCommandGenerator(config.ScaffoldConfig{
		Command: "echo",
		Args:    []string{"new"},
	}, runner.New(testLogger()))

	out, err := gen.Generate(context.Background(), Params{"type": "maven", "name": "demo"})
	require.NoError(t, err)
	assert.Contains(t, out, "new --name=demo --type=maven")
}

func TestDefaultRegistryWithoutCommand(t *testing.T) {
	reg, err := DefaultRegistry(config.ScaffoldConfig{}, runner.New(testLogger()), testLogger())
	require.NoError(t, err)
	assert.Empty(t, reg.Intents())
}

func TestDefaultRegistryRegistersCreateProject(t *testing.T) {
	reg, err := DefaultRegistry(config.ScaffoldConfig{Command: "echo"}, runner.New(testLogger()), testLogger())
	require.NoError(t, err)
	assert.Equal(t, []string{CreateProjectIntent}, reg.Intents())
}
