// Package gitutil materializes the pushed commit on local disk so goals can
// execute against a real worktree.
package gitutil

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"os/exec"
	"strings"

	"github.com/go-git/go-git/v5"
)

// Client handles interacting with Git repositories.
type Client struct {
	Logger *slog.Logger
}

// NewClient returns a new Client instance.
func NewClient(logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{Logger: logger}
}

// Clone clones a repository to path. The git CLI is used for the network
// operation; the result is opened with go-git so callers can inspect it.
func (c *Client) Clone(ctx context.Context, repoURL, path, token string) (*git.Repository, error) {
	authURL, err := c.authenticatedURL(repoURL, token)
	if err != nil {
		return nil, err
	}

	c.Logger.InfoContext(ctx, "cloning repository", "url", repoURL, "path", path)
	cmd := exec.CommandContext(ctx, "git", "clone", "--no-tags", authURL, path)
	if out, err := cmd.CombinedOutput(); err != nil {
		return nil, fmt.Errorf("git clone failed: %s: %w", string(out), err)
	}

	repo, err := git.PlainOpen(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open cloned repo: %w", err)
	}
	return repo, nil
}

// Checkout switches the repository's worktree to a specific commit.
func (c *Client) Checkout(ctx context.Context, path, sha string) error {
	c.Logger.InfoContext(ctx, "checking out commit", "sha", sha)

	cmd := exec.CommandContext(ctx, "git", "checkout", "--force", sha)
	cmd.Dir = path
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("git checkout failed: %s: %w", string(out), err)
	}
	return nil
}

// CloneAndCheckoutTemp clones a repo into a temporary directory, checks out
// the pushed commit, and returns the worktree path with a cleanup function.
func (c *Client) CloneAndCheckoutTemp(ctx context.Context, repoURL, sha, token string) (string, func(), error) {
	repoPath, err := os.MkdirTemp("", "shiplane-workdir-*")
	if err != nil {
		return "", nil, fmt.Errorf("failed to create temp directory: %w", err)
	}
	cleanup := func() {
		if removeErr := os.RemoveAll(repoPath); removeErr != nil {
			c.Logger.Error("failed to remove temp worktree", "path", repoPath, "error", removeErr)
		}
	}

	if _, err := c.Clone(ctx, repoURL, repoPath, token); err != nil {
		cleanup()
		return "", nil, err
	}
	if err := c.Checkout(ctx, repoPath, sha); err != nil {
		cleanup()
		return "", nil, err
	}

	c.Logger.InfoContext(ctx, "worktree ready", "path", repoPath, "sha", sha)
	return repoPath, cleanup, nil
}

// GetHeadSHA returns the current HEAD SHA of the repository at path.
func (c *Client) GetHeadSHA(ctx context.Context, path string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", "rev-parse", "HEAD")
	cmd.Dir = path
	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("git rev-parse failed: %w", err)
	}
	return strings.TrimSpace(string(out)), nil
}

// authenticatedURL injects the installation token into an https clone URL.
// Local paths pass through untouched; file:// is intentionally unsupported.
func (c *Client) authenticatedURL(repoURL, token string) (string, error) {
	if !strings.Contains(repoURL, "://") {
		return repoURL, nil
	}
	if !strings.HasPrefix(repoURL, "https://") && !strings.HasPrefix(repoURL, "http://") {
		return "", fmt.Errorf("invalid repository URL: %s", repoURL)
	}
	if token == "" {
		return repoURL, nil
	}

	parsedURL, err := url.Parse(repoURL)
	if err != nil {
		return "", fmt.Errorf("failed to parse repository URL %q: %w", repoURL, err)
	}
	parsedURL.User = url.UserPassword("x-access-token", token)
	return parsedURL.String(), nil
}
