package github

import (
	"context"
	"fmt"

	"github.com/shiplane/shiplane/internal/core"
	"github.com/shiplane/shiplane/internal/snapshot"
)

// treeSnapshotProvider materializes repository snapshots from the git trees
// API. Resolution then needs no clone at all: pushes that match no goal rule
// never touch the local disk.
type treeSnapshotProvider struct {
	client Client
}

// NewSnapshotProvider returns a core.SnapshotProvider backed by the trees API.
func NewSnapshotProvider(client Client) core.SnapshotProvider {
	return &treeSnapshotProvider{client: client}
}

func (p *treeSnapshotProvider) Fetch(ctx context.Context, push *core.PushEvent) (core.Snapshot, error) {
	files, err := p.client.ListTree(ctx, push.RepoOwner, push.RepoName, push.SHA)
	if err != nil {
		return nil, fmt.Errorf("failed to list tree for %s@%s: %w", push.RepoFullName, push.ShortSHA(), err)
	}
	return snapshot.New(files...), nil
}
