package jobs

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shiplane/shiplane/internal/config"
	"github.com/shiplane/shiplane/internal/core"
	"github.com/shiplane/shiplane/internal/gitutil"
	"github.com/shiplane/shiplane/internal/rules"
	"github.com/shiplane/shiplane/internal/runner"
	"github.com/shiplane/shiplane/internal/snapshot"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func validPush() *core.PushEvent {
	return &core.PushEvent{
		RepoOwner:      "acme",
		RepoName:       "widget",
		RepoFullName:   "acme/widget",
		RepoCloneURL:   "https://github.com/acme/widget.git",
		Branch:         "main",
		SHA:            "a1b2c3d4e5f60718293a4b5c6d7e8f9012345678",
		InstallationID: 42,
	}
}

func testJob(t *testing.T) *DeliveryJob {
	t.Helper()

	set, err := rules.NewSet(rules.Rule{
		Name: "build",
		When: rules.HasFile("pom.xml"),
		Goals: core.GoalSet{{
			Name:   "build",
			Action: func(context.Context, *core.GoalContext) core.GoalResult { return core.SuccessResult() },
		}},
	})
	require.NoError(t, err)

	cfg := &config.Config{
		Delivery: config.DeliveryConfig{
			MarkerFile:   "pom.xml",
			BuildCommand: "mvn",
			BuildArgs:    []string{"-B", "package"},
			RunCommand:   "mvn",
			RunArgs:      []string{"spring-boot:run"},
			PortLow:      8000,
			PortHigh:     8100,
		},
	}
	job := NewDeliveryJob(cfg, set, gitutil.NewClient(testLogger()), runner.New(testLogger()), testLogger())
	return job.(*DeliveryJob)
}

func TestDeliveryJobValidateInputs(t *testing.T) {
	job := testJob(t)

	tests := []struct {
		name    string
		mutate  func(*core.PushEvent)
		wantErr string
	}{
		{name: "valid push", mutate: func(*core.PushEvent) {}},
		{
			name:    "missing owner",
			mutate:  func(p *core.PushEvent) { p.RepoOwner = "" },
			wantErr: "owner",
		},
		{
			name:    "missing name",
			mutate:  func(p *core.PushEvent) { p.RepoName = "" },
			wantErr: "name",
		},
		{
			name:    "missing full name",
			mutate:  func(p *core.PushEvent) { p.RepoFullName = "" },
			wantErr: "full name",
		},
		{
			name:    "missing clone URL",
			mutate:  func(p *core.PushEvent) { p.RepoCloneURL = "" },
			wantErr: "clone URL",
		},
		{
			name:    "missing SHA",
			mutate:  func(p *core.PushEvent) { p.SHA = "" },
			wantErr: "SHA",
		},
		{
			name:    "zero installation ID",
			mutate:  func(p *core.PushEvent) { p.InstallationID = 0 },
			wantErr: "installation ID",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			push := validPush()
			tt.mutate(push)

			err := job.validateInputs(context.Background(), push)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}

	t.Run("nil push", func(t *testing.T) {
		err := job.validateInputs(context.Background(), nil)
		require.Error(t, err)
	})
}

func TestCloneNeeded(t *testing.T) {
	job := testJob(t)

	t.Run("scheduled goals require a clone", func(t *testing.T) {
		push := validPush()
		push.Files = snapshot.New("pom.xml")
		res := job.ruleSet.Resolve(push)
		assert.True(t, cloneNeeded(res, push))
	})

	t.Run("no match and no override file skips the clone", func(t *testing.T) {
		push := validPush()
		push.Files = snapshot.New("README.md")
		res := job.ruleSet.Resolve(push)
		assert.False(t, cloneNeeded(res, push))
	})

	t.Run("override file forces a clone even without a match", func(t *testing.T) {
		// A .shiplane.yml can broaden matching with a different marker, so
		// the worktree must be materialized to read it.
		push := validPush()
		push.Files = snapshot.New("README.md", ".shiplane.yml")
		res := job.ruleSet.Resolve(push)
		assert.True(t, cloneNeeded(res, push))
	})
}

func TestApplyRepoOverrides(t *testing.T) {
	job := testJob(t)

	push := validPush()
	push.Files = snapshot.New("pom.xml", "build.gradle")
	base := job.ruleSet.Resolve(push)
	require.False(t, base.Empty())

	t.Run("no config keeps original resolution", func(t *testing.T) {
		res, err := job.applyRepoOverrides(push, base, t.TempDir())
		require.NoError(t, err)
		assert.Same(t, base, res)
	})

	t.Run("marker override changes the schedule", func(t *testing.T) {
		dir := t.TempDir()
		writeRepoConfig(t, dir, "markerFile: build.gradle\n")

		res, err := job.applyRepoOverrides(push, base, dir)
		require.NoError(t, err)
		require.False(t, res.Empty())
		for _, entry := range res.Entries {
			assert.True(t, entry.Rule.When.Eval(push.Files))
		}
	})

	t.Run("marker override can broaden an empty resolution", func(t *testing.T) {
		unmatched := validPush()
		unmatched.Files = snapshot.New("build.gradle", ".shiplane.yml")
		empty := job.ruleSet.Resolve(unmatched)
		require.True(t, empty.Empty())

		dir := t.TempDir()
		writeRepoConfig(t, dir, "markerFile: build.gradle\n")

		res, err := job.applyRepoOverrides(unmatched, empty, dir)
		require.NoError(t, err)
		assert.False(t, res.Empty())
	})

	t.Run("marker override can exclude the push", func(t *testing.T) {
		dir := t.TempDir()
		writeRepoConfig(t, dir, "markerFile: package.json\n")

		res, err := job.applyRepoOverrides(push, base, dir)
		require.NoError(t, err)
		assert.True(t, res.Empty())
		assert.True(t, res.Locked)
	})

	t.Run("malformed config fails the job", func(t *testing.T) {
		dir := t.TempDir()
		writeRepoConfig(t, dir, "markerFile: [broken\n")

		_, err := job.applyRepoOverrides(push, base, dir)
		require.Error(t, err)
	})
}

func writeRepoConfig(t *testing.T, dir, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".shiplane.yml"), []byte(content), 0o600))
}

type countingJob struct {
	runs  atomic.Int64
	block chan struct{}
}

func (c *countingJob) Run(_ context.Context, _ *core.PushEvent) error {
	if c.block != nil {
		<-c.block
	}
	c.runs.Add(1)
	return nil
}

func TestDispatcherProcessesQueuedPushes(t *testing.T) {
	job := &countingJob{}
	d := NewDispatcher(job, 2, testLogger())

	for range 5 {
		require.NoError(t, d.Dispatch(context.Background(), validPush()))
	}
	d.Stop()

	assert.Equal(t, int64(5), job.runs.Load())
}

func TestDispatcherStopWaitsForInFlightJobs(t *testing.T) {
	job := &countingJob{block: make(chan struct{})}
	d := NewDispatcher(job, 1, testLogger())

	require.NoError(t, d.Dispatch(context.Background(), validPush()))

	done := make(chan struct{})
	go func() {
		d.Stop()
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("Stop returned while a job was still running")
	case <-time.After(50 * time.Millisecond):
	}

	close(job.block)
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Stop did not return after jobs finished")
	}
	assert.Equal(t, int64(1), job.runs.Load())
}

func TestDispatcherRejectsWhenQueueFull(t *testing.T) {
	// No workers drain this queue, so the second dispatch hits a full channel.
	d := &dispatcher{
		jobQueue: make(chan *core.PushEvent, 1),
		logger:   testLogger(),
	}

	require.NoError(t, d.Dispatch(context.Background(), validPush()))
	err := d.Dispatch(context.Background(), validPush())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "queue is full")
}
