package tests

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/greeter/pkg/domain"
	"github.com/aretw0/greeter/pkg/ports"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// GreetingRepositoryContractTest is a reusable test suite that verifies if an adapter complies
// with ports.GreetingRepository. newRepo must return an empty repository on every call.
func GreetingRepositoryContractTest(t *testing.T, newRepo func(t *testing.T) ports.GreetingRepository) {
	ctx := context.Background()
	base := time.Date(2024, 1, 15, 9, 30, 0, 0, time.UTC)

	t.Run("Save and GetByID", func(t *testing.T) {
		repo := newRepo(t)
		g := domain.NewGreeting(contractName(t, "Ada"))

		saved, err := repo.Save(ctx, g)
		require.NoError(t, err, "Save should not return error")
		assert.True(t, g.Equal(saved))

		loaded, err := repo.GetByID(ctx, g.ID())
		require.NoError(t, err, "GetByID should not return error")
		assert.True(t, g.Equal(loaded), "got %+v, want %+v", loaded.Record(), g.Record())
	})

	t.Run("Messages Read Back After Many Saves", func(t *testing.T) {
		repo := newRepo(t)
		ada := contractGreeting(t, "Ada", base)
		grace := contractGreeting(t, "Grace", base.Add(time.Second))

		for _, g := range []domain.Greeting{ada, grace} {
			_, err := repo.Save(ctx, g)
			require.NoError(t, err, "every save must succeed, not only the first")
		}

		all, err := repo.GetAll(ctx)
		require.NoError(t, err)
		require.Len(t, all, 2)
		assert.Equal(t, "Hello, Ada!", all[0].Message().Value())
		assert.Equal(t, "Hello, Grace!", all[1].Message().Value())

		loaded, err := repo.GetByID(ctx, grace.ID())
		require.NoError(t, err)
		assert.True(t, grace.Equal(loaded))

		byName, err := repo.GetByName(ctx, "grace")
		require.NoError(t, err)
		require.Len(t, byName, 1)
		assert.Equal(t, "Hello, Grace!", byName[0].Message().Value())
	})

	t.Run("GetByID Non-Existent", func(t *testing.T) {
		repo := newRepo(t)
		_, err := repo.GetByID(ctx, uuid.New())
		assert.ErrorIs(t, err, domain.ErrGreetingNotFound)
	})

	t.Run("Save Is Insert Only", func(t *testing.T) {
		repo := newRepo(t)
		g := domain.NewGreeting(contractName(t, "Ada"))
		_, err := repo.Save(ctx, g)
		require.NoError(t, err)

		_, err = repo.Save(ctx, g)
		assert.ErrorIs(t, err, domain.ErrGreetingExists)
	})

	t.Run("GetAll Empty", func(t *testing.T) {
		repo := newRepo(t)
		all, err := repo.GetAll(ctx)
		require.NoError(t, err)
		assert.Empty(t, all)
	})

	t.Run("GetAll Ordered By CreatedAt", func(t *testing.T) {
		repo := newRepo(t)
		third := contractGreeting(t, "Third", base.Add(2*time.Hour))
		first := contractGreeting(t, "First", base)
		second := contractGreeting(t, "Second", base.Add(time.Hour))

		for _, g := range []domain.Greeting{third, first, second} {
			_, err := repo.Save(ctx, g)
			require.NoError(t, err)
		}

		all, err := repo.GetAll(ctx)
		require.NoError(t, err)
		require.Len(t, all, 3)
		assert.Equal(t, []string{"First", "Second", "Third"}, contractNames(all))
		assert.True(t, first.Equal(all[0]))
	})

	t.Run("GetByName Case Insensitive", func(t *testing.T) {
		repo := newRepo(t)
		later := contractGreeting(t, "Ada", base.Add(time.Minute))
		earlier := contractGreeting(t, "ADA", base)
		other := contractGreeting(t, "Grace", base)

		for _, g := range []domain.Greeting{later, earlier, other} {
			_, err := repo.Save(ctx, g)
			require.NoError(t, err)
		}

		found, err := repo.GetByName(ctx, "ada")
		require.NoError(t, err)
		require.Len(t, found, 2)
		assert.Equal(t, earlier.ID(), found[0].ID())
		assert.Equal(t, later.ID(), found[1].ID())

		none, err := repo.GetByName(ctx, "Linus")
		require.NoError(t, err)
		assert.Empty(t, none)
	})

	t.Run("GetByName Uses Name Key", func(t *testing.T) {
		repo := newRepo(t)
		g := contractGreeting(t, "İlker", base)
		_, err := repo.Save(ctx, g)
		require.NoError(t, err)

		found, err := repo.GetByName(ctx, domain.NameKey("İlker"))
		require.NoError(t, err)
		require.Len(t, found, 1, "lookups match on domain.NameKey in every backend")
		assert.Equal(t, g.ID(), found[0].ID())
	})

	t.Run("Cancelled Context", func(t *testing.T) {
		repo := newRepo(t)
		cancelled, cancel := context.WithCancel(ctx)
		cancel()

		g := domain.NewGreeting(contractName(t, "Ada"))
		_, err := repo.Save(cancelled, g)
		assert.ErrorIs(t, err, context.Canceled)

		_, err = repo.GetAll(cancelled)
		assert.ErrorIs(t, err, context.Canceled)

		_, err = repo.GetByID(ctx, g.ID())
		assert.ErrorIs(t, err, domain.ErrGreetingNotFound, "cancelled save must not be visible")
	})
}

func contractName(t *testing.T, raw string) domain.PersonName {
	t.Helper()
	n, err := domain.NewPersonName(raw)
	require.NoError(t, err)
	return n
}

func contractGreeting(t *testing.T, name string, createdAt time.Time) domain.Greeting {
	t.Helper()
	n := contractName(t, name)
	return domain.ReconstructGreeting(uuid.New(), n, domain.DefaultMessageFor(n), createdAt)
}

func contractNames(greetings []domain.Greeting) []string {
	out := make([]string, len(greetings))
	for i, g := range greetings {
		out[i] = g.Name().Value()
	}
	return out
}
