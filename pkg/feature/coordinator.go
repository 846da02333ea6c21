package feature

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/greeter/internal/logging"
	"github.com/aretw0/greeter/pkg/config"
	"github.com/aretw0/greeter/pkg/observability"
	"github.com/aretw0/greeter/pkg/registry"
)

type progress int

const (
	progressNew progress = iota
	progressRegistered
	progressInitializing
	progressDone
)

// Coordinator owns the ordered feature list and drives the composition protocol.
type Coordinator struct {
	features []Feature
	logger   *slog.Logger
	metrics  *observability.Metrics

	mu       sync.RWMutex
	progress progress
	states   []State
	errs     []error
}

// Option configures the Coordinator.
type Option func(*Coordinator)

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Coordinator) {
		c.logger = logger
	}
}

// WithMetrics records initialization duration and feature states.
func WithMetrics(m *observability.Metrics) Option {
	return func(c *Coordinator) {
		c.metrics = m
	}
}

// NewCoordinator validates the feature list. Order is preserved exactly as given.
func NewCoordinator(features []Feature, opts ...Option) (*Coordinator, error) {
	seen := make(map[string]struct{}, len(features))
	for i, f := range features {
		if f == nil {
			return nil, fmt.Errorf("feature at position %d is nil", i)
		}
		name := f.Name()
		if name == "" {
			return nil, fmt.Errorf("feature at position %d has no name", i)
		}
		if _, dup := seen[name]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateFeature, name)
		}
		seen[name] = struct{}{}
	}

	c := &Coordinator{
		features: append([]Feature(nil), features...),
		logger:   logging.NewNop(),
		states:   make([]State, len(features)),
		errs:     make([]error, len(features)),
	}
	for _, opt := range opts {
		opt(c)
	}

	for _, f := range c.features {
		c.metrics.SetFeatureState(f.Name(), StatePending.String(), stateNames())
	}
	return c, nil
}

// Register runs Phase A then Phase B. It can only succeed once.
func (c *Coordinator) Register(reg *registry.Registry, settings config.Settings) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.progress != progressNew {
		return fmt.Errorf("%w: features already registered", ErrPhaseOrder)
	}

	for _, f := range c.features {
		if err := f.RegisterStorage(reg, settings); err != nil {
			return &RegistrationError{Feature: f.Name(), Phase: PhaseStorage, Err: err}
		}
		c.logger.Debug("Feature storage registered", "feature", f.Name())
	}

	for _, f := range c.features {
		if err := f.RegisterServices(reg, settings); err != nil {
			return &RegistrationError{Feature: f.Name(), Phase: PhaseServices, Err: err}
		}
		c.logger.Debug("Feature services registered", "feature", f.Name())
	}

	c.progress = progressRegistered
	return nil
}

// Initialize runs Phase C: each feature in order, stopping at the first failure.
// A cancelled ctx fails the next pending feature without calling it.
func (c *Coordinator) Initialize(ctx context.Context, services registry.Resolver, rt Runtime) error {
	c.mu.Lock()
	if c.progress != progressRegistered {
		c.mu.Unlock()
		return fmt.Errorf("%w: initialize requires a single successful register", ErrPhaseOrder)
	}
	c.progress = progressInitializing
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.progress = progressDone
		c.mu.Unlock()
	}()

	if rt.Logger == nil {
		rt.Logger = c.logger
	}

	for i, f := range c.features {
		name := f.Name()

		if err := ctx.Err(); err != nil {
			return c.fail(i, err)
		}

		c.setState(i, StateInitializing, nil)
		c.logger.Info("Initializing feature", "feature", name)

		start := time.Now()
		err := f.Initialize(ctx, services, Runtime{
			Environment: rt.Environment,
			Logger:      rt.Logger.With("feature", name),
		})
		c.metrics.ObserveFeatureInit(name, time.Since(start), err)

		if err != nil {
			return c.fail(i, err)
		}
		c.setState(i, StateInitialized, nil)
	}

	c.logger.Info("All features initialized", "count", len(c.features))
	return nil
}

func (c *Coordinator) fail(i int, err error) error {
	name := c.features[i].Name()
	c.setState(i, StateFailed, err)
	c.logger.Error("Failed to initialize feature", "feature", name, "err", err)
	return &InitializationError{Feature: name, Err: err}
}

func (c *Coordinator) setState(i int, s State, err error) {
	c.mu.Lock()
	c.states[i] = s
	c.errs[i] = err
	c.mu.Unlock()
	c.metrics.SetFeatureState(c.features[i].Name(), s.String(), stateNames())
}

// State returns the state of the named feature.
func (c *Coordinator) State(name string) (State, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for i, f := range c.features {
		if f.Name() == name {
			return c.states[i], true
		}
	}
	return StatePending, false
}

// Status returns a snapshot of every feature, in registration order.
// It is safe to call while Initialize runs.
func (c *Coordinator) Status() []FeatureStatus {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]FeatureStatus, len(c.features))
	for i, f := range c.features {
		out[i] = FeatureStatus{Name: f.Name(), State: c.states[i].String()}
		if c.errs[i] != nil {
			out[i].Error = c.errs[i].Error()
		}
	}
	return out
}

// Ready reports whether every feature is initialized.
func (c *Coordinator) Ready() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, s := range c.states {
		if s != StateInitialized {
			return false
		}
	}
	return true
}

// Names returns the feature names in registration order.
func (c *Coordinator) Names() []string {
	names := make([]string, len(c.features))
	for i, f := range c.features {
		names[i] = f.Name()
	}
	return names
}
