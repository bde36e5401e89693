// Package app orchestrates the main components of the Shiplane application:
// the HTTP server accepting pushes and commands, and the dispatcher that
// drives goal execution.
package app

import (
	"context"
	"log/slog"

	"github.com/shiplane/shiplane/internal/config"
	"github.com/shiplane/shiplane/internal/core"
	"github.com/shiplane/shiplane/internal/server"
)

// App holds the main application components.
type App struct {
	ctx        context.Context
	cfg        *config.Config
	server     *server.Server
	dispatcher core.JobDispatcher
	logger     *slog.Logger
}

// NewApp assembles the application from its prebuilt components.
func NewApp(ctx context.Context, cfg *config.Config, srv *server.Server, dispatcher core.JobDispatcher, logger *slog.Logger) *App {
	return &App{
		ctx:        ctx,
		cfg:        cfg,
		server:     srv,
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// Start runs the HTTP server.
func (a *App) Start() error {
	a.logger.Info("starting Shiplane",
		"server_port", a.cfg.Server.Port,
		"max_workers", a.cfg.MaxWorkers,
		"marker_file", a.cfg.Delivery.MarkerFile)

	err := a.server.Start()
	if err != nil {
		a.logger.Error("failed to start HTTP server", "error", err)
		return err
	}
	return nil
}

// Stop shuts down the application cleanly.
func (a *App) Stop() error {
	a.logger.Info("shutting down Shiplane services")

	// Stop the HTTP server first to prevent new incoming pushes.
	serverErr := a.server.Stop()
	if serverErr != nil {
		a.logger.Error("error during HTTP server shutdown", "error", serverErr)
		// Continue to stop other components even if the server failed.
	}

	// Stop the job dispatcher, allowing in-flight deliveries to finish.
	a.dispatcher.Stop()

	if serverErr != nil {
		a.logger.Error("Shiplane stopped with errors", "error", serverErr)
		return serverErr
	}

	a.logger.Info("Shiplane stopped successfully")
	return nil
}
