package registry

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"sync"
)

var (
	// ErrServiceNotFound is returned when resolving a name nobody registered.
	ErrServiceNotFound = errors.New("service not found")

	// ErrFrozen is returned when registering after Build.
	ErrFrozen = errors.New("registry is frozen")

	// ErrCycle is returned when a provider depends on itself, directly or not.
	ErrCycle = errors.New("dependency cycle")

	// ErrTypeMismatch is returned by Resolve[T] when the instance is not a T.
	ErrTypeMismatch = errors.New("service type mismatch")
)

// Lifetime controls how often a provider runs.
type Lifetime int

const (
	// Singleton providers run once per Container.
	Singleton Lifetime = iota
	// Scoped providers run once per Scope, and on every call at the Container root.
	Scoped
)

func (l Lifetime) String() string {
	switch l {
	case Singleton:
		return "singleton"
	case Scoped:
		return "scoped"
	default:
		return fmt.Sprintf("lifetime(%d)", int(l))
	}
}

// Provider builds a service. It may resolve its own dependencies through r, passing on
// the ctx it received so cycles can be detected.
type Provider func(ctx context.Context, r Resolver) (any, error)

// Resolver looks services up by name.
type Resolver interface {
	Resolve(ctx context.Context, name string) (any, error)
}

type registration struct {
	lifetime Lifetime
	provider Provider
}

// Registry collects service providers before the application is built.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]registration
	frozen    bool
}

// NewRegistry creates a new empty registry.
func NewRegistry() *Registry {
	return &Registry{
		providers: make(map[string]registration),
	}
}

// Register adds a provider to the registry.
// If a provider with the same name exists, it is overwritten.
func (r *Registry) Register(name string, lifetime Lifetime, p Provider) error {
	if name == "" {
		return fmt.Errorf("service name cannot be empty")
	}
	if p == nil {
		return fmt.Errorf("provider for %s cannot be nil", name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.frozen {
		return fmt.Errorf("cannot register %s: %w", name, ErrFrozen)
	}
	r.providers[name] = registration{lifetime: lifetime, provider: p}
	return nil
}

// RegisterInstance registers an already built value as a singleton.
func (r *Registry) RegisterInstance(name string, v any) error {
	return r.Register(name, Singleton, func(context.Context, Resolver) (any, error) {
		return v, nil
	})
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.providers[name]
	return ok
}

// Names returns the registered names in lexical order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Build freezes the registry and returns a container that can resolve its services.
// Singletons are provided to a dig container; scoped providers are provided to a fresh
// one for every Scope.
func (r *Registry) Build() (*Container, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.frozen {
		return nil, fmt.Errorf("cannot build twice: %w", ErrFrozen)
	}
	r.frozen = true

	c := &Container{
		providers: make(map[string]registration, len(r.providers)),
		params:    make(map[string]reflect.Type, len(r.providers)),
		graph:     newGraph(),
	}
	for name, reg := range r.providers {
		c.providers[name] = reg
		c.params[name] = paramType(name)
		if reg.lifetime == Singleton {
			if err := c.graph.provide(name, reg.provider, c); err != nil {
				return nil, fmt.Errorf("failed to provide %s: %w", name, err)
			}
		}
	}
	return c, nil
}

// Resolve is a typed helper around Resolver.Resolve.
func Resolve[T any](ctx context.Context, r Resolver, name string) (T, error) {
	var zero T
	v, err := r.Resolve(ctx, name)
	if err != nil {
		return zero, err
	}
	typed, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("%w: %s is %T, want %T", ErrTypeMismatch, name, v, zero)
	}
	return typed, nil
}

type chainKey struct{}

// enter records name on the resolution chain carried by ctx and fails on a repeat.
func enter(ctx context.Context, name string) (context.Context, error) {
	chain, _ := ctx.Value(chainKey{}).([]string)
	for _, seen := range chain {
		if seen == name {
			return ctx, fmt.Errorf("%w: %v -> %s", ErrCycle, chain, name)
		}
	}
	next := make([]string, len(chain), len(chain)+1)
	copy(next, chain)
	return context.WithValue(ctx, chainKey{}, append(next, name)), nil
}
