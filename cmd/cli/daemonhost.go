package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/shiplane/shiplane/internal/config"
)

var daemonHostCmd = &cobra.Command{
	Use:   "daemon-host",
	Short: "Print the Docker daemon host resolved from DOCKER_HOST.",
	Run: func(_ *cobra.Command, _ []string) {
		host, err := config.DaemonHost()
		if err != nil {
			slog.Error("failed to resolve Docker daemon host", "error", err)
			return
		}
		fmt.Println(host)
	},
}
