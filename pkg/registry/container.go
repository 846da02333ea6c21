package registry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"reflect"
	"sync"

	"go.uber.org/dig"
)

var (
	_ Resolver = (*Container)(nil)
	_ Resolver = (*Scope)(nil)
)

var anyType = reflect.TypeOf((*any)(nil)).Elem()

// paramType builds the dig.In struct that asks for the value named name:
//
//	struct {
//		dig.In
//		Value any `name:"<name>"`
//	}
func paramType(name string) reflect.Type {
	return reflect.StructOf([]reflect.StructField{
		{Name: "In", Type: reflect.TypeOf(dig.In{}), Anonymous: true},
		{Name: "Value", Type: anyType, Tag: reflect.StructTag(fmt.Sprintf("name:%q", name))},
	})
}

// graph guards a dig container, which is not safe for concurrent use.
// Providers resolve their dependencies on the goroutine that holds the lock; the ctx they
// receive is marked so those nested calls do not lock again.
type graph struct {
	dig *dig.Container

	mu       sync.Mutex
	building context.Context
	created  []any
}

type heldKey struct{ g *graph }

func newGraph() *graph {
	return &graph{dig: dig.New()}
}

// provide registers p under name. Values are recorded in creation order for Close.
func (g *graph) provide(name string, p Provider, r Resolver) error {
	return g.dig.Provide(func() (any, error) {
		v, err := p(g.building, r)
		if err != nil {
			return nil, err
		}
		g.created = append(g.created, v)
		return v, nil
	}, dig.Name(name))
}

// invoke asks dig for the value named by param, building it on first use.
// A failed build is not cached and runs again on the next call.
func (g *graph) invoke(ctx context.Context, param reflect.Type) (any, error) {
	if ctx.Value(heldKey{g}) == nil {
		g.mu.Lock()
		defer g.mu.Unlock()
		ctx = context.WithValue(ctx, heldKey{g}, true)
	}

	prev := g.building
	g.building = ctx
	defer func() { g.building = prev }()

	var out any
	fn := reflect.MakeFunc(reflect.FuncOf([]reflect.Type{param}, nil, false), func(args []reflect.Value) []reflect.Value {
		out = args[0].Field(1).Interface()
		return nil
	})
	if err := g.dig.Invoke(fn.Interface()); err != nil {
		return nil, dig.RootCause(err)
	}
	return out, nil
}

// drain hands back the created values and forgets them.
func (g *graph) drain() []any {
	g.mu.Lock()
	defer g.mu.Unlock()
	created := g.created
	g.created = nil
	return created
}

// Container resolves services registered before Build. It is safe for concurrent use.
type Container struct {
	providers map[string]registration
	params    map[string]reflect.Type
	graph     *graph
}

// Resolve builds or returns the named service. Scoped services are built fresh on every
// call at the root; use NewScope to share them within a unit of work.
func (c *Container) Resolve(ctx context.Context, name string) (any, error) {
	return c.resolve(ctx, name, nil)
}

func (c *Container) resolve(ctx context.Context, name string, scope *Scope) (any, error) {
	reg, ok := c.providers[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrServiceNotFound, name)
	}

	ctx, err := enter(ctx, name)
	if err != nil {
		return nil, err
	}

	var v any
	switch {
	case reg.lifetime == Singleton:
		v, err = c.graph.invoke(ctx, c.params[name])
	case scope != nil:
		v, err = scope.graph.invoke(ctx, c.params[name])
	default:
		v, err = reg.provider(ctx, c)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to build %s: %w", name, err)
	}
	return v, nil
}

// NewScope opens a unit of work, typically one request.
// Scoped providers get their own dig container, dropped with the Scope.
func (c *Container) NewScope() *Scope {
	s := &Scope{root: c, graph: newGraph()}
	for name, reg := range c.providers {
		if reg.lifetime != Scoped {
			continue
		}
		// provide only rejects malformed constructors, and this one is fixed.
		if err := s.graph.provide(name, reg.provider, s); err != nil {
			panic(fmt.Sprintf("registry: failed to provide scoped %s: %v", name, err))
		}
	}
	return s
}

// Close closes every built singleton implementing io.Closer, newest first.
func (c *Container) Close() error {
	return closeAll(c.graph.drain())
}

// Scope caches scoped services for its lifetime and delegates singletons to the root.
type Scope struct {
	root  *Container
	graph *graph
}

// Resolve builds or returns the named service within the scope.
func (s *Scope) Resolve(ctx context.Context, name string) (any, error) {
	return s.root.resolve(ctx, name, s)
}

// Close closes scoped instances implementing io.Closer, newest first.
func (s *Scope) Close() error {
	return closeAll(s.graph.drain())
}

func closeAll(values []any) error {
	var errs []error
	for i := len(values) - 1; i >= 0; i-- {
		if closer, ok := values[i].(io.Closer); ok {
			if err := closer.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}
