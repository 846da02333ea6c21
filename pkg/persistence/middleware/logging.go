package middleware

import (
	"context"
	"errors"
	"log/slog"

	"github.com/aretw0/greeter/pkg/domain"
	"github.com/aretw0/greeter/pkg/ports"
	"github.com/google/uuid"
)

const masked = "***"

type loggingMiddleware struct {
	next     ports.GreetingRepository
	logger   *slog.Logger
	detailed bool
}

// NewLoggingMiddleware logs failed repository calls.
// Person names are personal data: they are masked unless detailed is set.
// Lookup misses are expected outcomes and only logged at debug level.
func NewLoggingMiddleware(logger *slog.Logger, detailed bool) Middleware {
	return func(next ports.GreetingRepository) ports.GreetingRepository {
		return &loggingMiddleware{next: next, logger: logger, detailed: detailed}
	}
}

func (m *loggingMiddleware) name(n string) string {
	if m.detailed {
		return n
	}
	return masked
}

func (m *loggingMiddleware) report(ctx context.Context, op string, err error, attrs ...any) {
	if err == nil {
		return
	}
	attrs = append([]any{"op", op, "err", err}, attrs...)
	switch {
	case errors.Is(err, domain.ErrGreetingNotFound):
		m.logger.DebugContext(ctx, "Greeting not found", attrs...)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		m.logger.InfoContext(ctx, "Repository call cancelled", attrs...)
	default:
		m.logger.ErrorContext(ctx, "Repository call failed", attrs...)
	}
}

func (m *loggingMiddleware) Save(ctx context.Context, g domain.Greeting) (domain.Greeting, error) {
	saved, err := m.next.Save(ctx, g)
	m.report(ctx, "save", err, "id", g.ID(), "name", m.name(g.Name().Value()))
	return saved, err
}

func (m *loggingMiddleware) GetByID(ctx context.Context, id uuid.UUID) (domain.Greeting, error) {
	g, err := m.next.GetByID(ctx, id)
	m.report(ctx, "get_by_id", err, "id", id)
	return g, err
}

func (m *loggingMiddleware) GetAll(ctx context.Context) ([]domain.Greeting, error) {
	all, err := m.next.GetAll(ctx)
	m.report(ctx, "get_all", err)
	return all, err
}

func (m *loggingMiddleware) GetByName(ctx context.Context, name string) ([]domain.Greeting, error) {
	found, err := m.next.GetByName(ctx, name)
	m.report(ctx, "get_by_name", err, "name", m.name(name))
	return found, err
}
