package wire

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/google/wire"

	"github.com/shiplane/shiplane/internal/app"
	"github.com/shiplane/shiplane/internal/config"
	"github.com/shiplane/shiplane/internal/core"
	"github.com/shiplane/shiplane/internal/gitutil"
	"github.com/shiplane/shiplane/internal/jobs"
	"github.com/shiplane/shiplane/internal/logger"
	"github.com/shiplane/shiplane/internal/pipeline"
	"github.com/shiplane/shiplane/internal/rules"
	"github.com/shiplane/shiplane/internal/runner"
	"github.com/shiplane/shiplane/internal/scaffold"
	"github.com/shiplane/shiplane/internal/server"
	"github.com/shiplane/shiplane/internal/version"
)

var AppSet = wire.NewSet(
	app.NewApp,
	server.NewServer,
	config.LoadConfig,
	gitutil.NewClient,
	runner.New,
	jobs.NewDeliveryJob,
	provideDispatcher,
	provideRuleSet,
	provideVersionService,
	provideScaffoldRegistry,
	provideLoggerConfig,
	provideLogWriter,
	provideSlogLogger,
)

func provideDispatcher(deliveryJob core.Job, cfg *config.Config, log *slog.Logger) core.JobDispatcher {
	return jobs.NewDispatcher(deliveryJob, cfg.MaxWorkers, log)
}

func provideVersionService(cfg *config.Config) version.Service {
	return version.NewService(cfg.Delivery.BaseVersion)
}

// provideRuleSet builds and validates the default rule table. Invalid rule
// configuration is a startup failure, never a per-push one.
func provideRuleSet(cfg *config.Config, run *runner.Runner, versions version.Service) (*rules.Set, error) {
	table, err := pipeline.DefaultRules(cfg.Delivery, run, versions)
	if err != nil {
		return nil, fmt.Errorf("failed to build rule table: %w", err)
	}
	set, err := rules.NewSet(table...)
	if err != nil {
		return nil, fmt.Errorf("invalid rule table: %w", err)
	}
	return set, nil
}

func provideScaffoldRegistry(cfg *config.Config, run *runner.Runner, log *slog.Logger) (*scaffold.Registry, error) {
	return scaffold.DefaultRegistry(cfg.Scaffold, run, log)
}

func provideLoggerConfig(cfg *config.Config) logger.Config {
	return cfg.Logging
}

func provideLogWriter(cfg *config.Config) io.Writer {
	switch cfg.Logging.Output {
	case "stdout":
		return os.Stdout
	case "stderr":
		return os.Stderr
	case "file":
		f, _ := os.OpenFile("shiplane.log", os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0600)
		return f
	default:
		return os.Stdout
	}
}

func provideSlogLogger(loggerConfig logger.Config, writer io.Writer) *slog.Logger {
	return logger.NewLogger(loggerConfig, writer)
}
