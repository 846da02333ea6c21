package ports

import (
	"context"

	"github.com/aretw0/greeter/pkg/domain"
	"github.com/google/uuid"
)

// GreetingRepository defines the persistence contract consumed by the greeting use cases.
// Every method honors ctx; a cancelled context surfaces ctx.Err() instead of a partial result.
type GreetingRepository interface {
	// Save inserts the greeting and returns it as persisted.
	// Returns domain.ErrGreetingExists if the ID is already stored.
	Save(ctx context.Context, greeting domain.Greeting) (domain.Greeting, error)

	// GetByID retrieves a single greeting.
	// Returns domain.ErrGreetingNotFound if the greeting does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (domain.Greeting, error)

	// GetAll returns every greeting ordered by creation time, oldest first.
	GetAll(ctx context.Context) ([]domain.Greeting, error)

	// GetByName returns greetings whose name matches case-insensitively, oldest first.
	GetByName(ctx context.Context, name string) ([]domain.Greeting, error)
}

// StorageInitializer is implemented by adapters that need to create their schema,
// directory or index before first use.
type StorageInitializer interface {
	EnsureCreated(ctx context.Context) error
}
