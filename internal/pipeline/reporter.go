// Package pipeline executes resolved goal sets and reports their outcomes.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shiplane/shiplane/internal/core"
)

// Reporter converts goal outcomes into reportable states: commit statuses for
// every transition and a notification for terminal success. It never retries;
// retry policy, if any, belongs to the goal action itself.
type Reporter struct {
	notifier core.Notifier
	statuses core.StatusSink
	logger   *slog.Logger
}

// NewReporter creates a Reporter. Both notifier and statuses may be nil, in
// which case the corresponding side effect is skipped; the dry-run CLI runs
// with neither.
func NewReporter(notifier core.Notifier, statuses core.StatusSink, logger *slog.Logger) *Reporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reporter{notifier: notifier, statuses: statuses, logger: logger}
}

// InProcess publishes the requested -> in_process transition for a goal.
// Publishing failures are logged and swallowed: an unreachable status API
// must not fail the goal before it ran.
func (r *Reporter) InProcess(ctx context.Context, push *core.PushEvent, goalName string) {
	r.logger.InfoContext(ctx, "goal in process", "goal", goalName, "repo", push.RepoFullName, "sha", push.ShortSHA())
	if r.statuses == nil {
		return
	}
	if err := r.statuses.InProcess(ctx, push, goalName); err != nil {
		r.logger.WarnContext(ctx, "failed to publish in_process status", "goal", goalName, "error", err)
	}
}

// Report handles a goal's terminal result. On success it sends a notification
// carrying the short commit identifier and the goal's external URLs and
// returns {success, externalUrls}. On failure it appends the failure message
// to the goal's progress log and returns {failure, code}.
func (r *Reporter) Report(ctx context.Context, push *core.PushEvent, goal core.Goal, result core.GoalResult, plog *core.ProgressLog) core.GoalResult {
	if r.statuses != nil {
		if err := r.statuses.Terminal(ctx, push, goal.Name, result); err != nil {
			r.logger.WarnContext(ctx, "failed to publish terminal status", "goal", goal.Name, "error", err)
		}
	}

	if result.Succeeded() {
		msg := successMessage(push, goal.Name, result.ExternalURLs)
		if r.notifier != nil {
			if err := r.notifier.Notify(ctx, push, msg, result.ExternalURLs); err != nil {
				r.logger.WarnContext(ctx, "failed to send success notification", "goal", goal.Name, "error", err)
			}
		}
		r.logger.InfoContext(ctx, "goal succeeded", "goal", goal.Name, "repo", push.RepoFullName, "sha", push.ShortSHA())
		return core.GoalResult{State: core.StateSuccess, ExternalURLs: result.ExternalURLs}
	}

	plog.Append("goal %s failed with code %d", goal.Name, result.Code)
	r.logger.WarnContext(ctx, "goal failed", "goal", goal.Name, "repo", push.RepoFullName, "code", result.Code)
	return core.GoalResult{State: core.StateFailure, Code: result.Code}
}

// successMessage renders the notification body for a successful goal.
func successMessage(push *core.PushEvent, goalName string, urls []core.ExternalURL) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Goal %s succeeded for %s@%s", goalName, push.RepoFullName, push.ShortSHA())
	for _, u := range urls {
		fmt.Fprintf(&sb, "\n%s: %s", u.Label, u.URL)
	}
	return sb.String()
}
