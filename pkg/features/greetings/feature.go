// Package greetings wires the greeting use cases into the feature coordinator.
package greetings

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/aretw0/greeter/internal/logging"
	"github.com/aretw0/greeter/pkg/config"
	"github.com/aretw0/greeter/pkg/feature"
	"github.com/aretw0/greeter/pkg/observability"
	"github.com/aretw0/greeter/pkg/persistence/middleware"
	"github.com/aretw0/greeter/pkg/ports"
	"github.com/aretw0/greeter/pkg/registry"
	"github.com/aretw0/greeter/pkg/usecase"
)

// Registry names owned by this feature.
const (
	StorageKey    = "greetings.storage"
	RepositoryKey = "greetings.repository"
	UseCasesKey   = "greetings.usecases"
)

const (
	// Name is the feature name used in logs and health reports.
	Name = "Greetings"

	// ConnectionName is the connection string consulted before DefaultConnection.
	ConnectionName = "GreetingsDatabase"

	// DefaultConnectionString is used when no connection string is configured.
	DefaultConnectionString = "loam://data/greetings"
)

var defaultDataDir = filepath.Join("data", "greetings")

var _ feature.Feature = (*Feature)(nil)

// Feature is the greeting feature.
type Feature struct {
	target Target
}

// New creates the greeting feature.
func New() *Feature {
	return &Feature{}
}

func (f *Feature) Name() string { return Name }

// Target returns the storage selected by the last RegisterStorage call.
func (f *Feature) Target() Target { return f.target }

// RegisterStorage selects the backend from the connection string and registers a lazy
// singleton for it.
func (f *Feature) RegisterStorage(reg *registry.Registry, settings config.Settings) error {
	raw := settings.ConnectionStringOrDefault(ConnectionName, DefaultConnectionString)
	target, err := ParseConnectionString(raw)
	if err != nil {
		return err
	}
	f.target = target

	db := settings.Database
	return reg.Register(StorageKey, registry.Singleton, func(ctx context.Context, _ registry.Resolver) (any, error) {
		repo, err := open(ctx, target, db)
		if err != nil {
			return nil, fmt.Errorf("failed to open %s storage: %w", target.Backend, err)
		}
		return repo, nil
	})
}

// RegisterServices registers the decorated repository and the use cases, both scoped.
func (f *Feature) RegisterServices(reg *registry.Registry, settings config.Settings) error {
	detailed := settings.DetailedErrors

	err := reg.Register(RepositoryKey, registry.Scoped, func(ctx context.Context, r registry.Resolver) (any, error) {
		storage, err := registry.Resolve[ports.GreetingRepository](ctx, r, StorageKey)
		if err != nil {
			return nil, err
		}
		return middleware.Chain(storage,
			middleware.NewLoggingMiddleware(resolveLogger(ctx, r), detailed),
			middleware.NewInstrumentationMiddleware(resolveMetrics(ctx, r)),
		), nil
	})
	if err != nil {
		return err
	}

	return reg.Register(UseCasesKey, registry.Scoped, func(ctx context.Context, r registry.Resolver) (any, error) {
		repo, err := registry.Resolve[ports.GreetingRepository](ctx, r, RepositoryKey)
		if err != nil {
			return nil, err
		}
		return usecase.NewGreetings(repo, usecase.WithLogger(resolveLogger(ctx, r))), nil
	})
}

// Initialize opens the storage and makes sure its schema or directory exists.
func (f *Feature) Initialize(ctx context.Context, services registry.Resolver, rt feature.Runtime) error {
	storage, err := registry.Resolve[ports.GreetingRepository](ctx, services, StorageKey)
	if err != nil {
		return err
	}

	if initializer, ok := storage.(ports.StorageInitializer); ok {
		if err := initializer.EnsureCreated(ctx); err != nil {
			return fmt.Errorf("failed to prepare %s storage: %w", f.target.Backend, err)
		}
	}

	if rt.Logger != nil {
		rt.Logger.Info("Greeting storage ready",
			"backend", string(f.target.Backend),
			"environment", rt.Environment,
		)
	}
	return nil
}

func resolveLogger(ctx context.Context, r registry.Resolver) *slog.Logger {
	logger, err := registry.Resolve[*slog.Logger](ctx, r, feature.LoggerKey)
	if err != nil || logger == nil {
		return logging.NewNop()
	}
	return logger
}

func resolveMetrics(ctx context.Context, r registry.Resolver) *observability.Metrics {
	m, err := registry.Resolve[*observability.Metrics](ctx, r, feature.MetricsKey)
	if err != nil {
		return nil
	}
	return m
}
