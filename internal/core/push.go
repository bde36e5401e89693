// Package core defines the essential interfaces and data structures that form the
// backbone of the application. These components are designed to be abstract,
// allowing for flexible and decoupled implementations of the application's logic.
package core

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/go-github/v73/github"
)

// Snapshot is a read-only view of the file names present in a repository at a
// single commit. Implementations must be fully materialized: answering a query
// never performs I/O, so predicate evaluation over a Snapshot stays pure.
type Snapshot interface {
	// HasFile reports whether a file with exactly this path exists.
	HasFile(name string) bool
	// HasFileWithExtension reports whether any file name ends with ext.
	HasFileWithExtension(ext string) bool
	// Files returns all file paths in the snapshot.
	Files() []string
}

// SnapshotProvider materializes the file snapshot for a push.
type SnapshotProvider interface {
	Fetch(ctx context.Context, push *PushEvent) (Snapshot, error)
}

// PushEvent represents a simplified, internal view of a GitHub push webhook.
// It is immutable once created; the snapshot is attached exactly once by the
// delivery job before rule resolution.
type PushEvent struct {
	RepoOwner    string
	RepoName     string
	RepoFullName string
	RepoCloneURL string
	Branch       string
	SHA          string

	Pusher         string
	InstallationID int64

	// Files is the materialized snapshot of the repository at SHA.
	Files Snapshot
}

// ShortSHA returns the abbreviated commit identifier used in notifications.
func (p *PushEvent) ShortSHA() string {
	if len(p.SHA) < 7 {
		return p.SHA
	}
	return p.SHA[:7]
}

// EventFromPush transforms a raw GitHub PushEvent into the application's internal
// representation. It acts as an anti-corruption layer: the incoming payload is
// validated before any rule is evaluated against it. Branch deletions and pushes
// without a head commit are rejected here, not deeper in the pipeline.
func EventFromPush(event *github.PushEvent) (*PushEvent, error) {
	if event.GetDeleted() {
		return nil, fmt.Errorf("push is a branch deletion")
	}

	repo := event.GetRepo()
	if repo == nil || repo.GetOwner() == nil || repo.GetOwner().GetLogin() == "" || repo.GetName() == "" {
		return nil, fmt.Errorf("repository or owner information is missing from the event")
	}

	sha := event.GetHeadCommit().GetID()
	if sha == "" {
		sha = event.GetAfter()
	}
	if sha == "" || strings.Trim(sha, "0") == "" {
		return nil, fmt.Errorf("push has no valid head commit SHA")
	}

	if event.GetInstallation() == nil || event.GetInstallation().GetID() == 0 {
		return nil, fmt.Errorf("installation ID is missing from the event")
	}

	branch := strings.TrimPrefix(event.GetRef(), "refs/heads/")

	return &PushEvent{
		RepoOwner:      repo.GetOwner().GetLogin(),
		RepoName:       repo.GetName(),
		RepoFullName:   repo.GetFullName(),
		RepoCloneURL:   repo.GetCloneURL(),
		Branch:         branch,
		SHA:            sha,
		Pusher:         event.GetPusher().GetName(),
		InstallationID: event.GetInstallation().GetID(),
	}, nil
}
