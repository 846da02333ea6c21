package middleware

import (
	"context"
	"errors"
	"time"

	"github.com/aretw0/greeter/pkg/domain"
	"github.com/aretw0/greeter/pkg/observability"
	"github.com/aretw0/greeter/pkg/ports"
	"github.com/google/uuid"
)

type instrumentationMiddleware struct {
	next    ports.GreetingRepository
	metrics *observability.Metrics
}

// NewInstrumentationMiddleware records count, outcome and latency of every repository call.
// A lookup miss counts as a success.
func NewInstrumentationMiddleware(metrics *observability.Metrics) Middleware {
	return func(next ports.GreetingRepository) ports.GreetingRepository {
		return &instrumentationMiddleware{next: next, metrics: metrics}
	}
}

func (m *instrumentationMiddleware) observe(op string, start time.Time, err error) {
	if errors.Is(err, domain.ErrGreetingNotFound) {
		err = nil
	}
	m.metrics.ObserveRepository(op, time.Since(start), err)
}

func (m *instrumentationMiddleware) Save(ctx context.Context, g domain.Greeting) (domain.Greeting, error) {
	start := time.Now()
	saved, err := m.next.Save(ctx, g)
	m.observe("save", start, err)
	return saved, err
}

func (m *instrumentationMiddleware) GetByID(ctx context.Context, id uuid.UUID) (domain.Greeting, error) {
	start := time.Now()
	g, err := m.next.GetByID(ctx, id)
	m.observe("get_by_id", start, err)
	return g, err
}

func (m *instrumentationMiddleware) GetAll(ctx context.Context) ([]domain.Greeting, error) {
	start := time.Now()
	all, err := m.next.GetAll(ctx)
	m.observe("get_all", start, err)
	return all, err
}

func (m *instrumentationMiddleware) GetByName(ctx context.Context, name string) ([]domain.Greeting, error) {
	start := time.Now()
	found, err := m.next.GetByName(ctx, name)
	m.observe("get_by_name", start, err)
	return found, err
}
