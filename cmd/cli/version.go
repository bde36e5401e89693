package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/shiplane/shiplane/internal/core"
	"github.com/shiplane/shiplane/internal/version"
)

var (
	versionBase   string
	versionBranch string
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Preview the build version the pre-build listener would compute.",
	Run: func(_ *cobra.Command, _ []string) {
		svc := version.NewService(versionBase)
		push := &core.PushEvent{Branch: versionBranch}
		fmt.Println(svc.Compute(push, time.Now()))
	},
}

func init() { //nolint:gochecknoinits // Cobra's init function for command registration
	versionCmd.Flags().StringVar(&versionBase, "base", "0.1.0", "base version")
	versionCmd.Flags().StringVar(&versionBranch, "branch", "main", "branch name")
}
