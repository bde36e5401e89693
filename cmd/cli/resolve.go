package main

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/shiplane/shiplane/internal/config"
	"github.com/shiplane/shiplane/internal/core"
	"github.com/shiplane/shiplane/internal/github"
	"github.com/shiplane/shiplane/internal/gitutil"
	"github.com/shiplane/shiplane/internal/pipeline"
	"github.com/shiplane/shiplane/internal/rules"
	"github.com/shiplane/shiplane/internal/runner"
	"github.com/shiplane/shiplane/internal/snapshot"
	"github.com/shiplane/shiplane/internal/version"
)

var (
	resolveMarker string
	resolveBranch string
	resolveRemote bool
	resolveRef    string
)

var resolveCmd = &cobra.Command{
	Use:   "resolve [path | owner/repo]",
	Short: "Resolve goal sets for a repository without executing them.",
	Long: `Evaluates the default rule table against the files of a repository and prints
the resulting schedule. Nothing is built or run. The argument is a local path, or
with --remote an owner/repo slug whose file list is fetched from the GitHub trees
API using the token from --github-token or GITHUB_TOKEN.`,
	Args: cobra.ExactArgs(1),
	Run: func(_ *cobra.Command, args []string) {
		target := args[0]

		push, err := resolvePush(target)
		if err != nil {
			slog.Error("failed to snapshot repository", "target", target, "error", err)
			return
		}

		cfg := config.DeliveryConfig{MarkerFile: resolveMarker}
		logger := slog.Default()
		table, err := pipeline.DefaultRules(cfg, runner.New(logger), version.NewService(""))
		if err != nil {
			slog.Error("failed to build rule table", "error", err)
			return
		}
		set, err := rules.NewSet(table...)
		if err != nil {
			slog.Error("invalid rule table", "error", err)
			return
		}

		res := set.Resolve(push)

		if res.Locked {
			fmt.Printf("locked by rule %q\n", res.LockedBy)
		}
		if res.Empty() {
			fmt.Println("no goals scheduled for this repository")
			return
		}
		for _, entry := range res.Entries {
			for _, goal := range entry.Rule.Goals {
				fmt.Printf("rule %-10s goal %s\n", entry.Rule.Name, goal.Name)
			}
		}
		for _, d := range res.Dropped {
			fmt.Printf("rule %-10s dropped: depends on %s, which did not match\n", d.Name, d.DependsOn)
		}
	},
}

// resolvePush builds the simulated push event, snapshotting either a local
// working tree or a remote repository through the trees API.
func resolvePush(target string) (*core.PushEvent, error) {
	if !resolveRemote {
		snap, err := snapshot.FromDir(target)
		if err != nil {
			return nil, err
		}
		// Use the real HEAD commit when the directory is a git repository;
		// plain directories still resolve, just without a commit identity.
		sha := "local"
		if head, err := gitutil.NewClient(slog.Default()).GetHeadSHA(context.Background(), target); err == nil {
			sha = head
		}
		return &core.PushEvent{
			RepoFullName: "local/" + filepath.Base(target),
			Branch:       resolveBranch,
			SHA:          sha,
			Files:        snap,
		}, nil
	}

	owner, repo, ok := strings.Cut(target, "/")
	if !ok || owner == "" || repo == "" {
		return nil, fmt.Errorf("remote target must be owner/repo, got %q", target)
	}
	token := viper.GetString("GITHUB_TOKEN")
	if token == "" {
		return nil, fmt.Errorf("GITHUB_TOKEN must be set for --remote")
	}

	ctx := context.Background()
	client := github.NewPATClient(ctx, token, slog.Default())
	push := &core.PushEvent{
		RepoOwner:    owner,
		RepoName:     repo,
		RepoFullName: target,
		Branch:       resolveBranch,
		SHA:          resolveRef,
	}
	snap, err := github.NewSnapshotProvider(client).Fetch(ctx, push)
	if err != nil {
		return nil, err
	}
	push.Files = snap
	return push, nil
}

func init() { //nolint:gochecknoinits // Cobra's init function for command registration
	resolveCmd.Flags().StringVar(&resolveMarker, "marker", "pom.xml", "marker file selecting build goals")
	resolveCmd.Flags().StringVar(&resolveBranch, "branch", "main", "branch name used in the simulated push")
	resolveCmd.Flags().BoolVar(&resolveRemote, "remote", false, "treat the argument as an owner/repo slug on GitHub")
	resolveCmd.Flags().StringVar(&resolveRef, "ref", "HEAD", "commit or ref to snapshot when --remote is set")
}
