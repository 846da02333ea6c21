package feature

import (
	"context"
	"log/slog"

	"github.com/aretw0/greeter/pkg/config"
	"github.com/aretw0/greeter/pkg/registry"
)

// Feature is one independently composable unit of the application.
type Feature interface {
	// Name identifies the feature in logs and diagnostics. It must be unique.
	Name() string

	// RegisterStorage wires the storage backend of the feature.
	// Calling it twice must leave the registry in the same state.
	RegisterStorage(reg *registry.Registry, settings config.Settings) error

	// RegisterServices wires repositories and use cases. Storage of every feature is
	// registered by then; services of other features may not be.
	RegisterServices(reg *registry.Registry, settings config.Settings) error

	// Initialize performs startup-only work such as ensuring storage exists.
	Initialize(ctx context.Context, services registry.Resolver, rt Runtime) error
}

// Runtime is the process context handed to initializers.
type Runtime struct {
	Environment string
	Logger      *slog.Logger
}

// Registry names of the process-wide services every feature may resolve.
const (
	LoggerKey  = "logger"
	MetricsKey = "metrics"
)
