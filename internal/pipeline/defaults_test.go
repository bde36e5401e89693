package pipeline

import (
	"context"
	"fmt"
	"net"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shiplane/shiplane/internal/config"
	"github.com/shiplane/shiplane/internal/core"
	"github.com/shiplane/shiplane/internal/rules"
	"github.com/shiplane/shiplane/internal/runner"
	"github.com/shiplane/shiplane/internal/snapshot"
	"github.com/shiplane/shiplane/internal/version"
)

func testDeliveryConfig() config.DeliveryConfig {
	return config.DeliveryConfig{
		MarkerFile:   "pom.xml",
		BuildCommand: "sh",
		BuildArgs:    []string{"-c", "echo built"},
		RunCommand:   "sh",
		RunArgs:      []string{"-c", "echo serving on {port}"},
		BaseVersion:  "0.1.0",
		PortLow:      8000,
		PortHigh:     8100,
	}
}

func requirePOSIX(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("POSIX shell required")
	}
}

func TestDefaultRulesShape(t *testing.T) {
	cfg := testDeliveryConfig()
	table, err := DefaultRules(cfg, runner.New(testLogger()), version.NewService(cfg.BaseVersion))
	require.NoError(t, err)

	set, err := rules.NewSet(table...)
	require.NoError(t, err)

	t.Run("push without marker resolves to empty locked set", func(t *testing.T) {
		push := testPush()
		push.Files = snapshot.New("README.md")
		res := set.Resolve(push)
		assert.True(t, res.Locked)
		assert.Equal(t, "excluded", res.LockedBy)
		assert.True(t, res.Empty())
	})

	t.Run("push with marker schedules build then run", func(t *testing.T) {
		push := testPush()
		push.Files = snapshot.New("pom.xml", "src/main/java/App.java")
		res := set.Resolve(push)
		require.Len(t, res.Entries, 2)
		assert.Equal(t, "build", res.Entries[0].Rule.Name)
		assert.NotNil(t, res.Entries[0].Rule.Goals[0].Before, "build goal carries the versioning listener")
		assert.Equal(t, "run", res.Entries[1].Rule.Name)
		assert.Equal(t, "build", res.Entries[1].Rule.DependsOn)
	})
}

func TestDefaultRulesRequireMarker(t *testing.T) {
	cfg := testDeliveryConfig()
	cfg.MarkerFile = ""
	_, err := DefaultRules(cfg, runner.New(testLogger()), version.NewService("0.1.0"))
	assert.Error(t, err)
}

func TestRunActionSuccessReportsAllocatedPortURL(t *testing.T) {
	requirePOSIX(t)

	cfg := testDeliveryConfig()
	action := RunAction(cfg, runner.New(testLogger()))
	gc := &core.GoalContext{Push: testPush(), Dir: t.TempDir(), Log: &core.ProgressLog{}}

	result := action(context.Background(), gc)

	require.Equal(t, core.StateSuccess, result.State)
	require.Len(t, result.ExternalURLs, 1, "exactly one external URL")

	url := result.ExternalURLs[0].URL
	require.True(t, strings.HasPrefix(url, "http://localhost:"), "got %q", url)
	var port int
	_, err := fmt.Sscanf(url, "http://localhost:%d", &port)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, port, cfg.PortLow)
	assert.LessOrEqual(t, port, cfg.PortHigh)

	// The command saw the same substituted port that the URL reports.
	assert.Contains(t, strings.Join(gc.Log.Lines(), "\n"), fmt.Sprintf("serving on %d", port))
}

func TestRunActionProcessFailure(t *testing.T) {
	requirePOSIX(t)

	cfg := testDeliveryConfig()
	cfg.RunArgs = []string{"-c", "echo cannot start >&2; exit 7"}
	action := RunAction(cfg, runner.New(testLogger()))
	gc := &core.GoalContext{Push: testPush(), Dir: t.TempDir(), Log: &core.ProgressLog{}}

	var result core.GoalResult
	assert.NotPanics(t, func() {
		result = action(context.Background(), gc)
	})

	assert.Equal(t, core.StateFailure, result.State)
	assert.Equal(t, 1, result.Code, "process failures map to code 1 regardless of exit status")
	assert.Contains(t, strings.Join(gc.Log.Lines(), "\n"), "cannot start")
}

func TestRunActionPortExhaustion(t *testing.T) {
	// Occupy a single-port range so allocation must fail.
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer l.Close()
	busy := l.Addr().(*net.TCPAddr).Port

	cfg := testDeliveryConfig()
	cfg.PortLow, cfg.PortHigh = busy, busy
	action := RunAction(cfg, runner.New(testLogger()))
	gc := &core.GoalContext{Push: testPush(), Dir: t.TempDir(), Log: &core.ProgressLog{}}

	result := action(context.Background(), gc)

	assert.Equal(t, core.StateFailure, result.State)
	assert.Equal(t, 1, result.Code, "port unavailability is treated like a process failure")
	assert.Contains(t, strings.Join(gc.Log.Lines(), "\n"), "port allocation failed")
}

func TestBuildActionSuccessAndFailure(t *testing.T) {
	requirePOSIX(t)

	t.Run("success captures output", func(t *testing.T) {
		cfg := testDeliveryConfig()
		gc := &core.GoalContext{Push: testPush(), Dir: t.TempDir(), Log: &core.ProgressLog{}}
		result := BuildAction(cfg, runner.New(testLogger()))(context.Background(), gc)

		assert.Equal(t, core.StateSuccess, result.State)
		assert.Contains(t, strings.Join(gc.Log.Lines(), "\n"), "built")
	})

	t.Run("failure records captured output with code 1", func(t *testing.T) {
		cfg := testDeliveryConfig()
		cfg.BuildArgs = []string{"-c", "echo compile error >&2; exit 2"}
		gc := &core.GoalContext{Push: testPush(), Dir: t.TempDir(), Log: &core.ProgressLog{}}
		result := BuildAction(cfg, runner.New(testLogger()))(context.Background(), gc)

		assert.Equal(t, core.StateFailure, result.State)
		assert.Equal(t, 1, result.Code)
		assert.Contains(t, strings.Join(gc.Log.Lines(), "\n"), "compile error")
	})

	t.Run("docker build without DOCKER_HOST fails only the goal", func(t *testing.T) {
		t.Setenv("DOCKER_HOST", "")
		cfg := testDeliveryConfig()
		cfg.DockerBuild = true
		gc := &core.GoalContext{Push: testPush(), Dir: t.TempDir(), Log: &core.ProgressLog{}}
		result := BuildAction(cfg, runner.New(testLogger()))(context.Background(), gc)

		assert.Equal(t, core.StateFailure, result.State)
		assert.Contains(t, strings.Join(gc.Log.Lines(), "\n"), "DOCKER_HOST")
	})
}

func TestEndToEndMarkerPushBuildThenRun(t *testing.T) {
	requirePOSIX(t)

	cfg := testDeliveryConfig()
	table, err := DefaultRules(cfg, runner.New(testLogger()), version.NewService(cfg.BaseVersion))
	require.NoError(t, err)
	set, err := rules.NewSet(table...)
	require.NoError(t, err)

	push := testPush()
	push.Files = snapshot.New("pom.xml")
	res := set.Resolve(push)

	notifier := &fakeNotifier{}
	exec := NewExecutor(NewReporter(notifier, newFakeStatusSink(), testLogger()), testLogger())
	summary := exec.Execute(context.Background(), res, push, t.TempDir())

	require.Len(t, summary.Executions, 2)
	assert.Equal(t, "build", summary.Executions[0].Goal)
	assert.Equal(t, "run", summary.Executions[1].Goal)
	assert.True(t, summary.RuleSucceeded["build"])
	assert.True(t, summary.RuleSucceeded["run"])

	// The build goal's versioning listener ran before its action.
	assert.Contains(t, summary.Executions[0].Log.Lines()[0], "build version 0.1.0-main.")

	// Two success notifications, the second carrying the run URL.
	require.Len(t, notifier.messages, 2)
	assert.Contains(t, notifier.messages[1], "http://localhost:")
}
