// Package github provides functionality for interacting with the GitHub API.
package github

import (
	"context"
	"fmt"

	"github.com/google/go-github/v73/github"

	"github.com/shiplane/shiplane/internal/core"
)

// statusContextPrefix namespaces every commit status this application sets.
const statusContextPrefix = "shiplane"

// statusSink publishes goal state transitions as GitHub commit statuses.
// Push events have no pull request or check-run context, so plain commit
// statuses are the reporting surface.
type statusSink struct {
	client Client
}

// NewStatusSink returns a core.StatusSink backed by commit statuses.
func NewStatusSink(client Client) core.StatusSink {
	return &statusSink{client: client}
}

// InProcess marks the goal's status as pending on the pushed commit.
func (s *statusSink) InProcess(ctx context.Context, push *core.PushEvent, goalName string) error {
	status := &github.RepoStatus{
		State:       github.Ptr("pending"),
		Context:     github.Ptr(statusContext(goalName)),
		Description: github.Ptr(fmt.Sprintf("Goal %s in process", goalName)),
	}
	return s.client.CreateStatus(ctx, push.RepoOwner, push.RepoName, push.SHA, status)
}

// Terminal publishes the goal's terminal state. The first external URL, when
// present, becomes the status target so the commit links straight to the
// running application.
func (s *statusSink) Terminal(ctx context.Context, push *core.PushEvent, goalName string, result core.GoalResult) error {
	state := "failure"
	description := fmt.Sprintf("Goal %s failed with code %d", goalName, result.Code)
	if result.Succeeded() {
		state = "success"
		description = fmt.Sprintf("Goal %s succeeded", goalName)
	}

	status := &github.RepoStatus{
		State:       github.Ptr(state),
		Context:     github.Ptr(statusContext(goalName)),
		Description: github.Ptr(description),
	}
	if len(result.ExternalURLs) > 0 {
		status.TargetURL = github.Ptr(result.ExternalURLs[0].URL)
	}
	return s.client.CreateStatus(ctx, push.RepoOwner, push.RepoName, push.SHA, status)
}

func statusContext(goalName string) string {
	return statusContextPrefix + "/" + goalName
}
