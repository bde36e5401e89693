package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shiplane/shiplane/internal/config"
	"github.com/shiplane/shiplane/internal/core"
	"github.com/shiplane/shiplane/internal/github"
	"github.com/shiplane/shiplane/internal/gitutil"
	"github.com/shiplane/shiplane/internal/pipeline"
	"github.com/shiplane/shiplane/internal/rules"
	"github.com/shiplane/shiplane/internal/runner"
	"github.com/shiplane/shiplane/internal/version"
)

// cloneTimeout bounds the network part of a delivery; goal execution itself
// is not time-limited here.
const cloneTimeout = 2 * time.Minute

// DeliveryJob takes one push from snapshot through resolution and goal
// execution. Goal failures are terminal states reported on the commit; only
// infrastructure failures (authentication, snapshot fetch, clone) surface as
// errors.
type DeliveryJob struct {
	cfg     *config.Config
	ruleSet *rules.Set
	git     *gitutil.Client
	run     *runner.Runner
	logger  *slog.Logger
}

// NewDeliveryJob creates a new DeliveryJob with config, rule set, git client,
// process runner, and logger.
func NewDeliveryJob(cfg *config.Config, ruleSet *rules.Set, git *gitutil.Client, run *runner.Runner, logger *slog.Logger) core.Job {
	if cfg == nil {
		panic("config cannot be nil")
	}
	if ruleSet == nil {
		panic("rule set cannot be nil")
	}
	if git == nil {
		panic("git client cannot be nil")
	}
	if run == nil {
		panic("runner cannot be nil")
	}
	if logger == nil {
		panic("logger cannot be nil")
	}
	return &DeliveryJob{cfg: cfg, ruleSet: ruleSet, git: git, run: run, logger: logger}
}

// Run executes the delivery job for a given push event.
func (j *DeliveryJob) Run(ctx context.Context, push *core.PushEvent) error {
	if err := j.validateInputs(ctx, push); err != nil {
		j.logger.Error("input validation failed", "error", err)
		return fmt.Errorf("input validation failed: %w", err)
	}

	j.logger.Info("starting delivery job", "repo", push.RepoFullName, "sha", push.ShortSHA())

	ghClient, token, err := github.CreateInstallationClient(ctx, j.cfg, push.InstallationID, j.logger)
	if err != nil {
		return fmt.Errorf("failed to create GitHub client: %w", err)
	}

	// The snapshot comes from the trees API, so resolution needs no clone;
	// pushes that schedule nothing never touch the local disk.
	snap, err := github.NewSnapshotProvider(ghClient).Fetch(ctx, push)
	if err != nil {
		return fmt.Errorf("failed to fetch repository snapshot: %w", err)
	}
	push.Files = snap

	res := j.ruleSet.Resolve(push)
	if !cloneNeeded(res, push) {
		if res.Locked {
			j.logger.Info("push excluded by locked rule",
				"rule", res.LockedBy, "repo", push.RepoFullName, "sha", push.ShortSHA())
		} else {
			j.logger.Info("no rule matched push", "repo", push.RepoFullName, "sha", push.ShortSHA())
		}
		return nil
	}

	cloneCtx, cancel := context.WithTimeout(ctx, cloneTimeout)
	defer cancel()

	dir, cleanup, err := j.git.CloneAndCheckoutTemp(cloneCtx, push.RepoCloneURL, push.SHA, token)
	if err != nil {
		return fmt.Errorf("failed to clone repository: %w", err)
	}
	defer cleanup()

	res, err = j.applyRepoOverrides(push, res, dir)
	if err != nil {
		return err
	}
	if res.Empty() {
		j.logger.Info("repository config excluded push", "repo", push.RepoFullName, "sha", push.ShortSHA())
		return nil
	}

	reporter := pipeline.NewReporter(github.NewNotifier(ghClient), github.NewStatusSink(ghClient), j.logger)
	executor := pipeline.NewExecutor(reporter, j.logger)
	summary := executor.Execute(ctx, res, push, dir)

	succeeded, failed := 0, 0
	for _, ex := range summary.Executions {
		if ex.Result.Succeeded() {
			succeeded++
		} else {
			failed++
		}
	}
	j.logger.Info("delivery job completed",
		"repo", push.RepoFullName,
		"sha", push.ShortSHA(),
		"goals_succeeded", succeeded,
		"goals_failed", failed,
		"rules_skipped", len(summary.Skipped),
	)
	return nil
}

// cloneNeeded reports whether the worktree must be materialized: either goals
// are already scheduled, or the repository carries an override file that can
// rebuild the rule table and change the schedule in either direction. Without
// the second condition an override marker could never broaden matching, since
// the file is only readable after the clone.
func cloneNeeded(res *rules.Resolution, push *core.PushEvent) bool {
	return !res.Empty() || push.Files.HasFile(config.RepoConfigFile)
}

// applyRepoOverrides rebuilds the rule table when the repository carries a
// .shiplane.yml and re-resolves the push against it. Overrides change the
// build and run commands and the base version; a changed marker file also
// changes what matches, so the schedule is recomputed rather than patched.
func (j *DeliveryJob) applyRepoOverrides(push *core.PushEvent, res *rules.Resolution, dir string) (*rules.Resolution, error) {
	repoCfg, err := config.LoadRepoConfig(dir)
	if err != nil {
		if errors.Is(err, config.ErrRepoConfigNotFound) {
			return res, nil
		}
		return nil, fmt.Errorf("failed to load repository config: %w", err)
	}

	j.logger.Info("applying repository config overrides", "repo", push.RepoFullName)

	merged := config.MergeRepoConfig(j.cfg.Delivery, repoCfg)
	table, err := pipeline.DefaultRules(merged, j.run, version.NewService(merged.BaseVersion))
	if err != nil {
		return nil, fmt.Errorf("failed to build rule table from repository config: %w", err)
	}
	set, err := rules.NewSet(table...)
	if err != nil {
		return nil, fmt.Errorf("invalid rule table from repository config: %w", err)
	}
	return set.Resolve(push), nil
}

// validateInputs ensures the push contains all fields the job needs.
func (j *DeliveryJob) validateInputs(ctx context.Context, push *core.PushEvent) error {
	if ctx == nil {
		return fmt.Errorf("context cannot be nil")
	}
	if push == nil {
		return fmt.Errorf("push event cannot be nil")
	}
	if push.RepoOwner == "" {
		return fmt.Errorf("repository owner cannot be empty")
	}
	if push.RepoName == "" {
		return fmt.Errorf("repository name cannot be empty")
	}
	if push.RepoFullName == "" {
		return fmt.Errorf("repository full name cannot be empty")
	}
	if push.RepoCloneURL == "" {
		return fmt.Errorf("repository clone URL cannot be empty")
	}
	if push.SHA == "" {
		return fmt.Errorf("commit SHA cannot be empty")
	}
	if push.InstallationID <= 0 {
		return fmt.Errorf("installation ID must be positive, got: %d", push.InstallationID)
	}
	return nil
}
