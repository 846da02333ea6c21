package greetings_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/greeter/pkg/adapters/file"
	"github.com/aretw0/greeter/pkg/adapters/memory"
	"github.com/aretw0/greeter/pkg/config"
	"github.com/aretw0/greeter/pkg/feature"
	"github.com/aretw0/greeter/pkg/features/greetings"
	"github.com/aretw0/greeter/pkg/ports"
	"github.com/aretw0/greeter/pkg/registry"
	"github.com/aretw0/greeter/pkg/usecase"
)

func settingsWith(conns map[string]string) config.Settings {
	return config.Settings{
		ApplicationName:   "test",
		Environment:       config.EnvDevelopment,
		ConnectionStrings: conns,
	}
}

func compose(t *testing.T, settings config.Settings) (*greetings.Feature, *registry.Container) {
	t.Helper()
	f := greetings.New()
	c, err := feature.NewCoordinator([]feature.Feature{f})
	require.NoError(t, err)

	reg := registry.NewRegistry()
	require.NoError(t, c.Register(reg, settings))
	container, err := reg.Build()
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Close() })

	require.NoError(t, c.Initialize(context.Background(), container, feature.Runtime{Environment: settings.Environment}))
	return f, container
}

func TestParseConnectionString(t *testing.T) {
	tests := []struct {
		raw      string
		backend  greetings.Backend
		location string
	}{
		{"memory://", greetings.BackendMemory, ""},
		{"file://var/greetings", greetings.BackendFile, filepath.FromSlash("var/greetings")},
		{"file://", greetings.BackendFile, filepath.Join("data", "greetings")},
		{"loam://data/greetings", greetings.BackendLoam, filepath.Join("data", "greetings")},
		{"redis://localhost:6379/0", greetings.BackendRedis, "redis://localhost:6379/0"},
		{"postgres://u:p@db/greeter", greetings.BackendPostgres, "postgres://u:p@db/greeter"},
		{"postgresql://u:p@db/greeter", greetings.BackendPostgres, "postgresql://u:p@db/greeter"},
		{"MEMORY://", greetings.BackendMemory, ""},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			target, err := greetings.ParseConnectionString(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.backend, target.Backend)
			assert.Equal(t, tt.location, target.Location)
		})
	}

	t.Run("Unknown Scheme", func(t *testing.T) {
		_, err := greetings.ParseConnectionString("mongodb://localhost")
		assert.Error(t, err)
	})

	t.Run("Missing Scheme", func(t *testing.T) {
		_, err := greetings.ParseConnectionString("Data Source=greetings.db")
		assert.Error(t, err)
	})
}

func TestFeature_ConnectionStringFallback(t *testing.T) {
	t.Run("Feature Connection Wins", func(t *testing.T) {
		f := greetings.New()
		err := f.RegisterStorage(registry.NewRegistry(), settingsWith(map[string]string{
			"GreetingsDatabase": "memory://",
			"DefaultConnection": "file://elsewhere",
		}))
		require.NoError(t, err)
		assert.Equal(t, greetings.BackendMemory, f.Target().Backend)
	})

	t.Run("Default Connection", func(t *testing.T) {
		f := greetings.New()
		err := f.RegisterStorage(registry.NewRegistry(), settingsWith(map[string]string{
			"DefaultConnection": "file://elsewhere",
		}))
		require.NoError(t, err)
		assert.Equal(t, greetings.BackendFile, f.Target().Backend)
	})

	t.Run("Documented Default", func(t *testing.T) {
		f := greetings.New()
		require.NoError(t, f.RegisterStorage(registry.NewRegistry(), settingsWith(nil)))
		assert.Equal(t, greetings.BackendLoam, f.Target().Backend)
		assert.Equal(t, filepath.Join("data", "greetings"), f.Target().Location)
	})

	t.Run("Unknown Scheme Fails Registration", func(t *testing.T) {
		f := greetings.New()
		err := f.RegisterStorage(registry.NewRegistry(), settingsWith(map[string]string{
			"GreetingsDatabase": "sqlite://greetings.db",
		}))
		assert.Error(t, err)
	})
}

func TestFeature_RegisterStorageIsIdempotent(t *testing.T) {
	f := greetings.New()
	reg := registry.NewRegistry()
	settings := settingsWith(map[string]string{"GreetingsDatabase": "memory://"})

	require.NoError(t, f.RegisterStorage(reg, settings))
	require.NoError(t, f.RegisterStorage(reg, settings))
	assert.Equal(t, []string{greetings.StorageKey}, reg.Names())
}

func TestFeature_MemoryEndToEnd(t *testing.T) {
	_, container := compose(t, settingsWith(map[string]string{"GreetingsDatabase": "memory://"}))
	ctx := context.Background()

	storage, err := registry.Resolve[ports.GreetingRepository](ctx, container, greetings.StorageKey)
	require.NoError(t, err)
	assert.IsType(t, &memory.Store{}, storage)

	scope := container.NewScope()
	defer scope.Close()

	uc, err := registry.Resolve[usecase.GreetingUseCases](ctx, scope, greetings.UseCasesKey)
	require.NoError(t, err)

	created, err := uc.CreateGreeting(ctx, usecase.CreateGreetingRequest{Name: "Ada"})
	require.NoError(t, err)
	assert.Equal(t, "Hello, Ada!", created.Message)

	// Storage is a singleton, so a fresh scope sees the same data.
	other := container.NewScope()
	defer other.Close()
	uc2, err := registry.Resolve[usecase.GreetingUseCases](ctx, other, greetings.UseCasesKey)
	require.NoError(t, err)

	got, err := uc2.GetGreeting(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created, got)
}

func TestFeature_FileInitializeCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "greetings")
	_, container := compose(t, settingsWith(map[string]string{"GreetingsDatabase": "file://" + filepath.ToSlash(dir)}))

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	storage, err := registry.Resolve[ports.GreetingRepository](context.Background(), container, greetings.StorageKey)
	require.NoError(t, err)
	assert.IsType(t, &file.Store{}, storage)
}

func TestFeature_RedisInitialize(t *testing.T) {
	mr := miniredis.RunT(t)
	_, container := compose(t, settingsWith(map[string]string{"GreetingsDatabase": "redis://" + mr.Addr()}))

	uc, err := registry.Resolve[usecase.GreetingUseCases](context.Background(), container, greetings.UseCasesKey)
	require.NoError(t, err)
	_, err = uc.CreateGreeting(context.Background(), usecase.CreateGreetingRequest{Name: "Grace"})
	require.NoError(t, err)
	assert.NotEmpty(t, mr.Keys())
}

func TestFeature_InitializeFailsWhenStorageUnreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	f := greetings.New()
	c, err := feature.NewCoordinator([]feature.Feature{f})
	require.NoError(t, err)
	reg := registry.NewRegistry()
	require.NoError(t, c.Register(reg, settingsWith(map[string]string{"GreetingsDatabase": "redis://" + addr})))
	container, err := reg.Build()
	require.NoError(t, err)
	defer container.Close()

	err = c.Initialize(context.Background(), container, feature.Runtime{})
	var initErr *feature.InitializationError
	require.ErrorAs(t, err, &initErr)
	assert.Equal(t, greetings.Name, initErr.Feature)
}
