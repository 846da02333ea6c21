package feature_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/greeter/pkg/config"
	"github.com/aretw0/greeter/pkg/feature"
	"github.com/aretw0/greeter/pkg/observability"
	"github.com/aretw0/greeter/pkg/registry"
)

type journal struct {
	mu      sync.Mutex
	entries []string
}

func (j *journal) add(entry string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.entries = append(j.entries, entry)
}

func (j *journal) all() []string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]string(nil), j.entries...)
}

type stubFeature struct {
	name       string
	log        *journal
	storageErr error
	initErr    error
	initHook   func(ctx context.Context, services registry.Resolver) error
}

func (f *stubFeature) Name() string { return f.name }

func (f *stubFeature) RegisterStorage(reg *registry.Registry, _ config.Settings) error {
	f.log.add(f.name + ":storage")
	if f.storageErr != nil {
		return f.storageErr
	}
	return reg.RegisterInstance(f.name+".storage", f.name)
}

func (f *stubFeature) RegisterServices(reg *registry.Registry, _ config.Settings) error {
	f.log.add(f.name + ":services")
	return nil
}

func (f *stubFeature) Initialize(ctx context.Context, services registry.Resolver, _ feature.Runtime) error {
	f.log.add(f.name + ":init")
	if f.initHook != nil {
		return f.initHook(ctx, services)
	}
	return f.initErr
}

func setup(t *testing.T, features ...feature.Feature) (*feature.Coordinator, *registry.Registry) {
	t.Helper()
	c, err := feature.NewCoordinator(features)
	require.NoError(t, err)
	return c, registry.NewRegistry()
}

func build(t *testing.T, reg *registry.Registry) *registry.Container {
	t.Helper()
	container, err := reg.Build()
	require.NoError(t, err)
	return container
}

func TestCoordinator_PhaseOrdering(t *testing.T) {
	log := &journal{}
	a := &stubFeature{name: "A", log: log}
	b := &stubFeature{name: "B", log: log}
	c, reg := setup(t, a, b)

	require.NoError(t, c.Register(reg, config.Settings{}))
	assert.Equal(t, []string{"A:storage", "B:storage", "A:services", "B:services"}, log.all())

	require.NoError(t, c.Initialize(context.Background(), build(t, reg), feature.Runtime{}))
	assert.Equal(t, []string{
		"A:storage", "B:storage", "A:services", "B:services", "A:init", "B:init",
	}, log.all())
	assert.True(t, c.Ready())

	for _, s := range c.Status() {
		assert.Equal(t, "initialized", s.State)
		assert.Empty(t, s.Error)
	}
}

func TestCoordinator_InitializeSeesOtherFeaturesStorage(t *testing.T) {
	log := &journal{}
	a := &stubFeature{name: "A", log: log}
	b := &stubFeature{name: "B", log: log}
	a.initHook = func(ctx context.Context, services registry.Resolver) error {
		v, err := registry.Resolve[string](ctx, services, "B.storage")
		if err != nil {
			return err
		}
		if v != "B" {
			return errors.New("unexpected storage")
		}
		return nil
	}
	c, reg := setup(t, a, b)

	require.NoError(t, c.Register(reg, config.Settings{}))
	require.NoError(t, c.Initialize(context.Background(), build(t, reg), feature.Runtime{}))
}

func TestCoordinator_FailFast(t *testing.T) {
	log := &journal{}
	boom := errors.New("storage unreachable")
	a := &stubFeature{name: "A", log: log, initErr: boom}
	b := &stubFeature{name: "B", log: log}
	c, reg := setup(t, a, b)

	require.NoError(t, c.Register(reg, config.Settings{}))
	err := c.Initialize(context.Background(), build(t, reg), feature.Runtime{})
	require.Error(t, err)

	var initErr *feature.InitializationError
	require.ErrorAs(t, err, &initErr)
	assert.Equal(t, "A", initErr.Feature)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "failed to initialize feature A")

	assert.NotContains(t, log.all(), "B:init")
	assert.False(t, c.Ready())

	stateA, ok := c.State("A")
	require.True(t, ok)
	assert.Equal(t, feature.StateFailed, stateA)
	stateB, _ := c.State("B")
	assert.Equal(t, feature.StatePending, stateB)

	status := c.Status()
	assert.Equal(t, "storage unreachable", status[0].Error)
	assert.Equal(t, "pending", status[1].State)
}

func TestCoordinator_CancelledContext(t *testing.T) {
	log := &journal{}
	a := &stubFeature{name: "A", log: log}
	c, reg := setup(t, a)
	require.NoError(t, c.Register(reg, config.Settings{}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := c.Initialize(ctx, build(t, reg), feature.Runtime{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotContains(t, log.all(), "A:init")

	state, _ := c.State("A")
	assert.Equal(t, feature.StateFailed, state)
}

func TestCoordinator_RegistrationError(t *testing.T) {
	log := &journal{}
	boom := errors.New("bad connection string")
	a := &stubFeature{name: "A", log: log, storageErr: boom}
	b := &stubFeature{name: "B", log: log}
	c, reg := setup(t, a, b)

	err := c.Register(reg, config.Settings{})
	var regErr *feature.RegistrationError
	require.ErrorAs(t, err, &regErr)
	assert.Equal(t, "A", regErr.Feature)
	assert.Equal(t, feature.PhaseStorage, regErr.Phase)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"A:storage"}, log.all())

	err = c.Initialize(context.Background(), build(t, reg), feature.Runtime{})
	assert.ErrorIs(t, err, feature.ErrPhaseOrder)
}

func TestCoordinator_PhaseOrderErrors(t *testing.T) {
	log := &journal{}
	c, reg := setup(t, &stubFeature{name: "A", log: log})

	t.Run("Initialize Before Register", func(t *testing.T) {
		err := c.Initialize(context.Background(), build(t, registry.NewRegistry()), feature.Runtime{})
		assert.ErrorIs(t, err, feature.ErrPhaseOrder)
	})

	require.NoError(t, c.Register(reg, config.Settings{}))

	t.Run("Register Twice", func(t *testing.T) {
		assert.ErrorIs(t, c.Register(registry.NewRegistry(), config.Settings{}), feature.ErrPhaseOrder)
	})

	container := build(t, reg)
	require.NoError(t, c.Initialize(context.Background(), container, feature.Runtime{}))

	t.Run("Initialize Twice", func(t *testing.T) {
		assert.ErrorIs(t, c.Initialize(context.Background(), container, feature.Runtime{}), feature.ErrPhaseOrder)
	})
}

func TestNewCoordinator_Validation(t *testing.T) {
	log := &journal{}

	_, err := feature.NewCoordinator([]feature.Feature{
		&stubFeature{name: "A", log: log},
		&stubFeature{name: "A", log: log},
	})
	assert.ErrorIs(t, err, feature.ErrDuplicateFeature)

	_, err = feature.NewCoordinator([]feature.Feature{&stubFeature{name: "", log: log}})
	assert.Error(t, err)

	_, err = feature.NewCoordinator([]feature.Feature{nil})
	assert.Error(t, err)

	c, err := feature.NewCoordinator(nil)
	require.NoError(t, err)
	assert.True(t, c.Ready())
	assert.Empty(t, c.Names())
}

func TestCoordinator_Metrics(t *testing.T) {
	log := &journal{}
	m := observability.NewMetrics()
	c, err := feature.NewCoordinator(
		[]feature.Feature{&stubFeature{name: "A", log: log}},
		feature.WithMetrics(m),
	)
	require.NoError(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.FeatureState.WithLabelValues("A", "pending")))

	reg := registry.NewRegistry()
	require.NoError(t, c.Register(reg, config.Settings{}))
	require.NoError(t, c.Initialize(context.Background(), build(t, reg), feature.Runtime{}))

	assert.Equal(t, 0.0, testutil.ToFloat64(m.FeatureState.WithLabelValues("A", "pending")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FeatureState.WithLabelValues("A", "initialized")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.FeatureInitDuration))
}
