package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/greeter/internal/logging"
	"github.com/aretw0/greeter/pkg/domain"
	"github.com/aretw0/greeter/pkg/ports"
	"github.com/google/uuid"
	"github.com/samber/lo"
)

// CreateGreetingRequest is the API-level input for creating a greeting.
type CreateGreetingRequest struct {
	Name string `json:"name"`
}

// GreetingResponse is the API-level shape of a greeting.
type GreetingResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
}

// GreetingUseCases is what transports call.
type GreetingUseCases interface {
	CreateGreeting(ctx context.Context, req CreateGreetingRequest) (GreetingResponse, error)
	GetGreeting(ctx context.Context, id uuid.UUID) (GreetingResponse, error)
	ListGreetings(ctx context.Context) ([]GreetingResponse, error)
	FindGreetingsByName(ctx context.Context, name string) ([]GreetingResponse, error)
	Hello(ctx context.Context, name string) (string, error)
}

var _ GreetingUseCases = (*Greetings)(nil)

// Greetings implements GreetingUseCases.
type Greetings struct {
	repo   ports.GreetingRepository
	logger *slog.Logger
}

// Option configures Greetings.
type Option func(*Greetings)

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(logger *slog.Logger) Option {
	return func(g *Greetings) {
		g.logger = logger
	}
}

// NewGreetings creates the use cases over repo.
func NewGreetings(repo ports.GreetingRepository, opts ...Option) *Greetings {
	g := &Greetings{
		repo:   repo,
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// CreateGreeting validates the name, creates the greeting and persists it.
func (g *Greetings) CreateGreeting(ctx context.Context, req CreateGreetingRequest) (GreetingResponse, error) {
	name, err := domain.NewPersonName(req.Name)
	if err != nil {
		return GreetingResponse{}, err
	}

	saved, err := g.repo.Save(ctx, domain.NewGreeting(name))
	if err != nil {
		return GreetingResponse{}, fmt.Errorf("failed to save greeting: %w", err)
	}

	g.logger.Debug("Greeting created", "id", saved.ID())
	return toResponse(saved), nil
}

// GetGreeting returns domain.ErrGreetingNotFound when id is unknown.
func (g *Greetings) GetGreeting(ctx context.Context, id uuid.UUID) (GreetingResponse, error) {
	found, err := g.repo.GetByID(ctx, id)
	if err != nil {
		return GreetingResponse{}, fmt.Errorf("failed to get greeting %s: %w", id, err)
	}
	return toResponse(found), nil
}

// ListGreetings returns every greeting, oldest first. The slice is never nil.
func (g *Greetings) ListGreetings(ctx context.Context) ([]GreetingResponse, error) {
	all, err := g.repo.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list greetings: %w", err)
	}
	return toResponses(all), nil
}

// FindGreetingsByName matches name case-insensitively.
func (g *Greetings) FindGreetingsByName(ctx context.Context, name string) ([]GreetingResponse, error) {
	found, err := g.repo.GetByName(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to find greetings by name: %w", err)
	}
	return toResponses(found), nil
}

// Hello creates a greeting for name and returns only its message.
func (g *Greetings) Hello(ctx context.Context, name string) (string, error) {
	resp, err := g.CreateGreeting(ctx, CreateGreetingRequest{Name: name})
	if err != nil {
		return "", err
	}
	return resp.Message, nil
}

func toResponse(g domain.Greeting) GreetingResponse {
	return GreetingResponse{
		ID:        g.ID(),
		Name:      g.Name().Value(),
		Message:   g.Message().Value(),
		CreatedAt: g.CreatedAt(),
	}
}

func toResponses(greetings []domain.Greeting) []GreetingResponse {
	if len(greetings) == 0 {
		return []GreetingResponse{}
	}
	return lo.Map(greetings, func(item domain.Greeting, _ int) GreetingResponse {
		return toResponse(item)
	})
}
