// Package scaffold exposes named command intents, such as creating a new
// project from a template, behind a small registry. Intents are invoked by
// name through the HTTP command surface; the work itself is delegated to an
// external generator.
package scaffold

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/shiplane/shiplane/internal/config"
	"github.com/shiplane/shiplane/internal/runner"
)

// CreateProjectIntent is the registered name of the project generator.
const CreateProjectIntent = "create-project"

// ErrUnknownIntent is returned when no generator is registered for a name.
var ErrUnknownIntent = errors.New("unknown command intent")

// Params carries the caller-supplied arguments of one invocation.
type Params map[string]string

// Generator performs the work behind one intent.
type Generator interface {
	Generate(ctx context.Context, params Params) (string, error)
}

// Registry maps intent names to generators. It is safe for concurrent use.
type Registry struct {
	mu         sync.RWMutex
	generators map[string]Generator
	logger     *slog.Logger
}

// NewRegistry returns an empty Registry.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		generators: make(map[string]Generator),
		logger:     logger,
	}
}

// Register binds a generator to an intent name. Registering the same name
// twice is a wiring bug and fails loudly.
func (r *Registry) Register(intent string, gen Generator) error {
	if intent == "" {
		return fmt.Errorf("intent name cannot be empty")
	}
	if gen == nil {
		return fmt.Errorf("generator for intent %q cannot be nil", intent)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.generators[intent]; exists {
		return fmt.Errorf("intent %q is already registered", intent)
	}
	r.generators[intent] = gen
	return nil
}

// Invoke runs the generator registered for intent.
func (r *Registry) Invoke(ctx context.Context, intent string, params Params) (string, error) {
	r.mu.RLock()
	gen, ok := r.generators[intent]
	r.mu.RUnlock()
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownIntent, intent)
	}

	r.logger.InfoContext(ctx, "invoking command intent", "intent", intent)
	return gen.Generate(ctx, params)
}

// Intents returns the registered intent names in sorted order.
func (r *Registry) Intents() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.generators))
	for name := range r.generators {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// commandGenerator shells out to the configured scaffolding command. The
// command is configuration data; the registry never interprets it.
type commandGenerator struct {
	cfg config.ScaffoldConfig
	run *runner.Runner
}

// NewCommandGenerator wraps an external command as a Generator. Invocation
// params become trailing --key=value flags in sorted key order so repeated
// invocations produce identical command lines.
func NewCommandGenerator(cfg config.ScaffoldConfig, run *runner.Runner) Generator {
	return &commandGenerator{cfg: cfg, run: run}
}

func (g *commandGenerator) Generate(ctx context.Context, params Params) (string, error) {
	args := make([]string, 0, len(g.cfg.Args)+len(params))
	args = append(args, g.cfg.Args...)

	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		args = append(args, fmt.Sprintf("--%s=%s", k, params[k]))
	}

	out, err := g.run.Run(ctx, g.cfg.Command, args, "")
	if err != nil {
		return out, fmt.Errorf("scaffolding command failed: %w", err)
	}
	return out, nil
}

// DefaultRegistry builds the registry from configuration. The create-project
// intent is only registered when a scaffolding command is configured; an
// empty command leaves the surface present but with no intents.
func DefaultRegistry(cfg config.ScaffoldConfig, run *runner.Runner, logger *slog.Logger) (*Registry, error) {
	reg := NewRegistry(logger)
	if cfg.Command == "" {
		return reg, nil
	}
	if err := reg.Register(CreateProjectIntent, NewCommandGenerator(cfg, run)); err != nil {
		return nil, err
	}
	return reg, nil
}
