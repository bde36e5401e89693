package pipeline

import (
	"context"
	"log/slog"

	"github.com/shiplane/shiplane/internal/core"
	"github.com/shiplane/shiplane/internal/rules"
)

// GoalExecution is the record of one goal run, kept for the push summary.
type GoalExecution struct {
	Rule   string
	Goal   string
	Result core.GoalResult
	Log    *core.ProgressLog
}

// SkippedRule names a goal set that was never scheduled because the rule it
// depends on did not reach success.
type SkippedRule struct {
	Name      string
	DependsOn string
}

// Summary is the terminal account of one push's execution.
type Summary struct {
	Executions []GoalExecution
	Skipped    []SkippedRule
	// RuleSucceeded holds the overall goal-set outcome per executed rule.
	RuleSucceeded map[string]bool
}

// Executor runs resolved goal sets strictly sequentially for one push. It
// holds no per-push state itself, so a single Executor serves concurrent
// pushes; each call owns its goal sets exclusively.
type Executor struct {
	reporter *Reporter
	logger   *slog.Logger
}

// NewExecutor creates an Executor reporting through the given Reporter.
func NewExecutor(reporter *Reporter, logger *slog.Logger) *Executor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Executor{reporter: reporter, logger: logger}
}

// Execute runs every scheduled goal set in resolution order. A goal set only
// begins once the rule it depends on reached overall success; when a
// dependency failed or was itself skipped, the dependent set is skipped
// entirely, never attempted and never marked failed. Within a goal set a
// failing goal halts the remainder of that set only; sibling rules unrelated
// by dependency continue unaffected.
func (e *Executor) Execute(ctx context.Context, res *rules.Resolution, push *core.PushEvent, dir string) *Summary {
	summary := &Summary{RuleSucceeded: make(map[string]bool, len(res.Entries))}

	for _, d := range res.Dropped {
		e.logger.WarnContext(ctx, "rule dropped: dependency did not match push",
			"rule", d.Name, "depends_on", d.DependsOn, "repo", push.RepoFullName)
	}

	for _, entry := range res.Entries {
		rule := entry.Rule

		if dep := rule.DependsOn; dep != "" && !summary.RuleSucceeded[dep] {
			summary.Skipped = append(summary.Skipped, SkippedRule{Name: rule.Name, DependsOn: dep})
			e.logger.InfoContext(ctx, "skipping goal set: dependency did not succeed",
				"rule", rule.Name, "depends_on", dep, "repo", push.RepoFullName)
			continue
		}

		summary.RuleSucceeded[rule.Name] = e.executeGoalSet(ctx, rule, push, dir, summary)
	}

	return summary
}

// executeGoalSet runs one rule's goals in order and reports whether the whole
// set succeeded. An empty set succeeds trivially; a locked empty set is the
// terminal no-op for an explicitly excluded push.
func (e *Executor) executeGoalSet(ctx context.Context, rule rules.Rule, push *core.PushEvent, dir string, summary *Summary) bool {
	for _, goal := range rule.Goals {
		plog := &core.ProgressLog{}
		gc := &core.GoalContext{Push: push, Dir: dir, Log: plog}

		e.reporter.InProcess(ctx, push, goal.Name)
		result := runGoal(ctx, goal, gc)
		result = e.reporter.Report(ctx, push, goal, result, plog)

		summary.Executions = append(summary.Executions, GoalExecution{
			Rule:   rule.Name,
			Goal:   goal.Name,
			Result: result,
			Log:    plog,
		})

		if !result.Succeeded() {
			return false
		}
	}
	return true
}

// runGoal invokes the pre-action listener and the main action. The goal
// action owns the error boundary for process failures; this wrapper adds a
// second fence so a panicking action still resolves to a terminal failure
// instead of crashing the scheduler.
func runGoal(ctx context.Context, goal core.Goal, gc *core.GoalContext) (result core.GoalResult) {
	defer func() {
		if rec := recover(); rec != nil {
			gc.Log.Append("goal %s panicked: %v", goal.Name, rec)
			result = core.FailureResult(1)
		}
	}()

	if goal.Before != nil {
		if err := goal.Before(ctx, gc); err != nil {
			gc.Log.Append("pre-action listener failed: %v", err)
			return core.FailureResult(1)
		}
	}
	return goal.Action(ctx, gc)
}
