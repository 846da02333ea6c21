package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/aretw0/greeter/pkg/domain"
	"github.com/aretw0/greeter/pkg/ports"
	"github.com/google/uuid"
)

var _ ports.GreetingRepository = (*Store)(nil)

// Store implements ports.GreetingRepository in memory.
// Safe for concurrent use. Greetings are immutable values, so no copies are needed.
type Store struct {
	data  map[uuid.UUID]domain.Greeting
	order []uuid.UUID
	mu    sync.RWMutex
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		data: make(map[uuid.UUID]domain.Greeting),
	}
}

// Save inserts the greeting in memory.
func (s *Store) Save(ctx context.Context, greeting domain.Greeting) (domain.Greeting, error) {
	if err := ctx.Err(); err != nil {
		return domain.Greeting{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[greeting.ID()]; exists {
		return domain.Greeting{}, domain.ErrGreetingExists
	}
	s.data[greeting.ID()] = greeting
	s.order = append(s.order, greeting.ID())
	return greeting, nil
}

// GetByID retrieves a greeting from memory.
func (s *Store) GetByID(ctx context.Context, id uuid.UUID) (domain.Greeting, error) {
	if err := ctx.Err(); err != nil {
		return domain.Greeting{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	g, ok := s.data[id]
	if !ok {
		return domain.Greeting{}, domain.ErrGreetingNotFound
	}
	return g, nil
}

// GetAll returns every greeting, oldest first.
func (s *Store) GetAll(ctx context.Context) ([]domain.Greeting, error) {
	return s.filter(ctx, func(domain.Greeting) bool { return true })
}

// GetByName returns greetings whose name equals name ignoring case, oldest first.
func (s *Store) GetByName(ctx context.Context, name string) ([]domain.Greeting, error) {
	want := domain.NameKey(name)
	return s.filter(ctx, func(g domain.Greeting) bool {
		return domain.NameKey(g.Name().Value()) == want
	})
}

func (s *Store) filter(ctx context.Context, match func(domain.Greeting) bool) ([]domain.Greeting, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	out := make([]domain.Greeting, 0, len(s.order))
	for _, id := range s.order {
		if g := s.data[id]; match(g) {
			out = append(out, g)
		}
	}
	s.mu.RUnlock()

	// Insertion order breaks ties between equal timestamps.
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt().Before(out[j].CreatedAt())
	})
	return out, nil
}

// Len returns the number of stored greetings.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}
