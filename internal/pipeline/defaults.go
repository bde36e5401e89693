package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shiplane/shiplane/internal/config"
	"github.com/shiplane/shiplane/internal/core"
	"github.com/shiplane/shiplane/internal/ports"
	"github.com/shiplane/shiplane/internal/rules"
	"github.com/shiplane/shiplane/internal/runner"
	"github.com/shiplane/shiplane/internal/version"
)

// portPlaceholder in run arguments is replaced with the allocated port.
const portPlaceholder = "{port}"

// DefaultRules builds the standard rule table from delivery configuration:
//
//   - excluded: pushes without the marker file get an empty, locked goal set;
//     the push is explicitly excluded and no further rule is ever considered.
//   - build: marker pushes get the build goal, with the versioning listener
//     running before the main action.
//   - run: depends on build; starts the application on a freshly allocated
//     port and reports its address as an external URL.
func DefaultRules(cfg config.DeliveryConfig, run *runner.Runner, versions version.Service) ([]rules.Rule, error) {
	if cfg.MarkerFile == "" {
		return nil, fmt.Errorf("delivery marker file must be configured")
	}

	return []rules.Rule{
		{
			Name: "excluded",
			When: rules.Not(rules.HasFile(cfg.MarkerFile)),
			Lock: true,
		},
		{
			Name: "build",
			When: rules.HasFile(cfg.MarkerFile),
			Goals: core.GoalSet{{
				Name:   "build",
				Before: version.Listener(versions),
				Action: BuildAction(cfg, run),
			}},
		},
		{
			Name:      "run",
			When:      rules.HasFile(cfg.MarkerFile),
			DependsOn: "build",
			Goals: core.GoalSet{{
				Name:   "run",
				Action: RunAction(cfg, run),
			}},
		},
	}, nil
}

// BuildAction packages the configured build command as a goal action. Process
// failures are converted into a terminal failure result here; they never
// propagate past the goal.
func BuildAction(cfg config.DeliveryConfig, run *runner.Runner) core.GoalAction {
	return func(ctx context.Context, gc *core.GoalContext) core.GoalResult {
		var env []string
		if cfg.DockerBuild {
			host, err := config.DaemonHost()
			if err != nil {
				// A missing daemon address aborts only this goal, not the
				// scheduler.
				gc.Log.Append("docker daemon address unavailable: %v", err)
				return core.FailureResult(1)
			}
			env = append(env, "SHIPLANE_DOCKER_DAEMON="+host)
		}

		out, err := run.Run(ctx, cfg.BuildCommand, cfg.BuildArgs, gc.Dir, env...)
		if err != nil {
			return failureFromRun(gc, err)
		}
		gc.Log.Append("%s", out)
		return core.SuccessResult()
	}
}

// RunAction packages the configured run command as a goal action. It
// allocates a port from the configured range, substitutes it into the
// arguments and, on exit code 0, succeeds with exactly one external URL
// pointing at the allocated port.
func RunAction(cfg config.DeliveryConfig, run *runner.Runner) core.GoalAction {
	return func(ctx context.Context, gc *core.GoalContext) core.GoalResult {
		port, err := ports.Allocate(cfg.PortLow, cfg.PortHigh)
		if err != nil {
			gc.Log.Append("port allocation failed: %v", err)
			return core.FailureResult(1)
		}

		args := substitutePort(cfg.RunArgs, port)
		out, err := run.Run(ctx, cfg.RunCommand, args, gc.Dir)
		if err != nil {
			return failureFromRun(gc, err)
		}
		gc.Log.Append("%s", out)

		return core.SuccessResult(core.ExternalURL{
			Label: "run",
			URL:   fmt.Sprintf("http://localhost:%d", port),
		})
	}
}

// failureFromRun records a process failure on the progress log and returns
// the terminal failure result the spec requires: code 1, raw message kept.
func failureFromRun(gc *core.GoalContext, err error) core.GoalResult {
	var exitErr *runner.ExitError
	if errors.As(err, &exitErr) && exitErr.Output != "" {
		gc.Log.Append("%s", exitErr.Output)
	}
	gc.Log.Append("%v", err)
	return core.FailureResult(1)
}

func substitutePort(args []string, port int) []string {
	out := make([]string, len(args))
	for i, a := range args {
		out[i] = strings.ReplaceAll(a, portPlaceholder, fmt.Sprintf("%d", port))
	}
	return out
}
