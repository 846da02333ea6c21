package middleware_test

import (
	"context"

	"github.com/aretw0/greeter/pkg/adapters/memory"
	"github.com/aretw0/greeter/pkg/domain"
)

// failingStore is a memory store whose writes fail with err.
type failingStore struct {
	*memory.Store
	err error
}

func newFailingStore(err error) *failingStore {
	return &failingStore{Store: memory.NewStore(), err: err}
}

func (s *failingStore) Save(ctx context.Context, g domain.Greeting) (domain.Greeting, error) {
	if s.err != nil {
		return domain.Greeting{}, s.err
	}
	return s.Store.Save(ctx, g)
}
