package main

import (
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var githubToken string

var rootCmd = &cobra.Command{
	Use:   "shiplane-cli",
	Short: "shiplane-cli is the command-line interface for Shiplane.",
	Long:  `A CLI for inspecting the Shiplane goal scheduler: resolve goal sets for a local repository, preview build versions, and check the Docker daemon address.`,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() { //nolint:gochecknoinits // Cobra's init function for command registration
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&githubToken, "github-token", "t", "", "GitHub Token")

	if err := viper.BindPFlag("GITHUB_TOKEN", rootCmd.PersistentFlags().Lookup("github-token")); err != nil {
		slog.Error("Error binding flag", "error", err)
		os.Exit(1)
	}

	rootCmd.AddCommand(resolveCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(daemonHostCmd)
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}
