package greeter

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/aretw0/greeter/internal/logging"
	greeterhttp "github.com/aretw0/greeter/pkg/adapters/http"
	"github.com/aretw0/greeter/pkg/adapters/mcp"
	"github.com/aretw0/greeter/pkg/config"
	"github.com/aretw0/greeter/pkg/feature"
	"github.com/aretw0/greeter/pkg/features/greetings"
	"github.com/aretw0/greeter/pkg/observability"
	"github.com/aretw0/greeter/pkg/registry"
	"github.com/aretw0/greeter/pkg/usecase"
)

// Version is the release version, with a trailing newline.
//
//go:embed VERSION
var Version string

// SettingsKey is the registry name of the loaded config.Settings.
const SettingsKey = "settings"

// DefaultFeatures is the ordered feature list of the application.
// New features are appended here; nothing is discovered by reflection.
func DefaultFeatures() []feature.Feature {
	return []feature.Feature{
		greetings.New(),
	}
}

// App is the composed application: settings, registry, features and transports.
type App struct {
	Settings config.Settings

	logger      *slog.Logger
	metrics     *observability.Metrics
	features    []feature.Feature
	coordinator *feature.Coordinator
	container   *registry.Container
}

// Option defines a functional option for configuring the App.
type Option func(*App)

// WithLogger sets the application logger. Defaults to a no-op logger.
func WithLogger(logger *slog.Logger) Option {
	return func(a *App) {
		a.logger = logger
	}
}

// WithMetrics replaces the metrics registry.
func WithMetrics(m *observability.Metrics) Option {
	return func(a *App) {
		a.metrics = m
	}
}

// WithFeatures replaces DefaultFeatures.
func WithFeatures(features ...feature.Feature) Option {
	return func(a *App) {
		a.features = features
	}
}

// New composes the application: it registers storage and services of every feature and
// builds the container. Features are not initialized until Start.
func New(settings config.Settings, opts ...Option) (*App, error) {
	a := &App{
		Settings: settings,
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.metrics == nil {
		a.metrics = observability.NewMetrics()
	}
	if a.features == nil {
		a.features = DefaultFeatures()
	}

	coordinator, err := feature.NewCoordinator(a.features,
		feature.WithLogger(a.logger),
		feature.WithMetrics(a.metrics),
	)
	if err != nil {
		return nil, err
	}
	a.coordinator = coordinator

	reg := registry.NewRegistry()
	for name, v := range map[string]any{
		feature.LoggerKey:  a.logger,
		feature.MetricsKey: a.metrics,
		SettingsKey:        settings,
	} {
		if err := reg.RegisterInstance(name, v); err != nil {
			return nil, fmt.Errorf("failed to register %s: %w", name, err)
		}
	}

	if err := coordinator.Register(reg, settings); err != nil {
		return nil, fmt.Errorf("failed to compose features: %w", err)
	}

	container, err := reg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build services: %w", err)
	}
	a.container = container
	return a, nil
}

// Start initializes every feature in order. Any error is fatal: the app must not serve.
func (a *App) Start(ctx context.Context) error {
	return a.coordinator.Initialize(ctx, a.container, feature.Runtime{
		Environment: a.Settings.Environment,
		Logger:      a.logger,
	})
}

// Handler builds the HTTP API.
func (a *App) Handler() (http.Handler, error) {
	return greeterhttp.NewHandler(greeterhttp.Config{
		Container:      a.container,
		Health:         a.coordinator,
		Metrics:        a.metrics,
		Logger:         a.logger,
		AppName:        a.Settings.ApplicationName,
		Version:        Version,
		Environment:    a.Settings.Environment,
		DetailedErrors: a.Settings.DetailedErrors,
		AllowedOrigins: a.Settings.CORS.AllowedOrigins,
	})
}

// MCPServer builds the MCP adapter.
func (a *App) MCPServer() *mcp.Server {
	return mcp.NewServer(a.container, Version, mcp.WithLogger(a.logger))
}

// UseCases resolves the greeting use cases in a new scope. Call release when done.
func (a *App) UseCases(ctx context.Context) (uc usecase.GreetingUseCases, release func() error, err error) {
	scope := a.container.NewScope()
	uc, err = registry.Resolve[usecase.GreetingUseCases](ctx, scope, greetings.UseCasesKey)
	if err != nil {
		_ = scope.Close()
		return nil, nil, err
	}
	return uc, scope.Close, nil
}

// Coordinator exposes feature state.
func (a *App) Coordinator() *feature.Coordinator {
	return a.coordinator
}

// Metrics returns the metrics registry.
func (a *App) Metrics() *observability.Metrics {
	return a.metrics
}

// Close releases storage clients.
func (a *App) Close() error {
	return a.container.Close()
}
