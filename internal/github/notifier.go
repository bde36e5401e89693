package github

import (
	"context"

	"github.com/shiplane/shiplane/internal/core"
)

// commitCommentNotifier delivers success notifications as commit comments,
// the push-scoped equivalent of the chat message a delivery bot would send.
type commitCommentNotifier struct {
	client Client
}

// NewNotifier returns a core.Notifier that comments on the pushed commit.
func NewNotifier(client Client) core.Notifier {
	return &commitCommentNotifier{client: client}
}

func (n *commitCommentNotifier) Notify(ctx context.Context, push *core.PushEvent, message string, _ []core.ExternalURL) error {
	return n.client.CreateCommitComment(ctx, push.RepoOwner, push.RepoName, push.SHA, message)
}
