// Code generated manually. DO NOT EDIT.

//go:generate go run -mod=mod github.com/google/wire/cmd/wire
//go:build !wireinject
// +build !wireinject

package wire

import (
	"context"
	"fmt"

	"github.com/shiplane/shiplane/internal/app"
	"github.com/shiplane/shiplane/internal/config"
	"github.com/shiplane/shiplane/internal/gitutil"
	"github.com/shiplane/shiplane/internal/jobs"
	"github.com/shiplane/shiplane/internal/logger"
	"github.com/shiplane/shiplane/internal/runner"
	"github.com/shiplane/shiplane/internal/server"
	"github.com/shiplane/shiplane/internal/version"
)

// InitializeApp creates and wires all application dependencies.
func InitializeApp(ctx context.Context) (*app.App, func(), error) {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	// Setup logger
	logWriter := provideLogWriter(cfg)
	slogLogger := logger.NewLogger(cfg.Logging, logWriter)

	// Process runner shared by goal actions and the scaffold registry
	run := runner.New(slogLogger)

	// Versioning service feeding the pre-build listener
	versions := version.NewService(cfg.Delivery.BaseVersion)

	// Rule table, validated at startup
	ruleSet, err := provideRuleSet(cfg, run, versions)
	if err != nil {
		return nil, nil, err
	}

	// Git client
	gitClient := gitutil.NewClient(slogLogger)

	// Delivery job and dispatcher
	deliveryJob := jobs.NewDeliveryJob(cfg, ruleSet, gitClient, run, slogLogger)
	dispatcher := jobs.NewDispatcher(deliveryJob, cfg.MaxWorkers, slogLogger)

	// Command registry
	commands, err := provideScaffoldRegistry(cfg, run, slogLogger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build command registry: %w", err)
	}

	// Server
	srv := server.NewServer(ctx, cfg, dispatcher, commands, slogLogger)

	// App
	application := app.NewApp(ctx, cfg, srv, dispatcher, slogLogger)

	cleanup := func() {}

	return application, cleanup, nil
}
