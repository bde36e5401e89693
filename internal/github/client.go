// Package github provides functionality for interacting with the GitHub API.
package github

import (
	"context"
	"log/slog"

	"github.com/google/go-github/v73/github"
	"golang.org/x/oauth2"
)

// Client defines the set of GitHub operations the scheduler needs: commit
// statuses for goal state transitions, commit comments for notifications, and
// the git trees API for lightweight repository snapshots.
type Client interface {
	CreateStatus(ctx context.Context, owner, repo, sha string, status *github.RepoStatus) error
	CreateCommitComment(ctx context.Context, owner, repo, sha, body string) error
	ListTree(ctx context.Context, owner, repo, sha string) ([]string, error)
}

type gitHubClient struct {
	client *github.Client
	logger *slog.Logger
}

// NewGitHubClient wraps the official go-github client to provide a focused,
// testable interface for application-specific GitHub operations.
func NewGitHubClient(client *github.Client, logger *slog.Logger) Client {
	return &gitHubClient{client: client, logger: logger}
}

// NewPATClient creates a new GitHub client authenticated with a Personal Access
// Token. This is useful for CLI tools or local development where an App
// installation is not available.
func NewPATClient(ctx context.Context, token string, logger *slog.Logger) Client {
	ts := oauth2.StaticTokenSource(
		&oauth2.Token{AccessToken: token},
	)
	tc := oauth2.NewClient(ctx, ts)
	return &gitHubClient{client: github.NewClient(tc), logger: logger}
}

// CreateStatus publishes a commit status on the given SHA.
func (g *gitHubClient) CreateStatus(ctx context.Context, owner, repo, sha string, status *github.RepoStatus) error {
	_, _, err := g.client.Repositories.CreateStatus(ctx, owner, repo, sha, status)
	if err != nil {
		g.logger.Error("failed to create commit status", "owner", owner, "repo", repo, "sha", sha, "error", err)
	}
	return err
}

// CreateCommitComment posts a comment on a commit.
func (g *gitHubClient) CreateCommitComment(ctx context.Context, owner, repo, sha, body string) error {
	comment := &github.RepositoryComment{Body: github.Ptr(body)}
	_, _, err := g.client.Repositories.CreateComment(ctx, owner, repo, sha, comment)
	if err != nil {
		g.logger.Error("failed to create commit comment", "owner", owner, "repo", repo, "sha", sha, "error", err)
	}
	return err
}

// ListTree returns the paths of every blob reachable from the commit's tree.
// The recursive call keeps this a single round trip for ordinary repositories;
// truncated trees fall back to whatever GitHub returned, which is still a
// superset of the root-level files the default rules test for.
func (g *gitHubClient) ListTree(ctx context.Context, owner, repo, sha string) ([]string, error) {
	tree, _, err := g.client.Git.GetTree(ctx, owner, repo, sha, true)
	if err != nil {
		g.logger.Error("failed to get git tree", "owner", owner, "repo", repo, "sha", sha, "error", err)
		return nil, err
	}
	if tree.GetTruncated() {
		g.logger.Warn("git tree truncated by API", "owner", owner, "repo", repo, "sha", sha)
	}

	var files []string
	for _, entry := range tree.Entries {
		if entry.GetType() == "blob" {
			files = append(files, entry.GetPath())
		}
	}
	return files, nil
}
