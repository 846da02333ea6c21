package postgres_test

import (
	"context"
	"errors"
	"os"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/aretw0/greeter/pkg/adapters/postgres"
	"github.com/aretw0/greeter/pkg/domain"
	"github.com/aretw0/greeter/pkg/ports"
	"github.com/aretw0/greeter/pkg/ports/tests"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var columns = []string{"id", "name", "message", "created_at"}

func newMock(t *testing.T) (*postgres.Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return postgres.New(sqlx.NewDb(db, "postgres")), mock
}

func greeting(t *testing.T, name string, createdAt time.Time) domain.Greeting {
	t.Helper()
	n, err := domain.NewPersonName(name)
	require.NoError(t, err)
	return domain.ReconstructGreeting(uuid.New(), n, domain.DefaultMessageFor(n), createdAt)
}

func TestStore_EnsureCreated(t *testing.T) {
	store, mock := newMock(t)

	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS greetings")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("CREATE INDEX IF NOT EXISTS ix_greetings_name")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("CREATE INDEX IF NOT EXISTS ix_greetings_created_at")).WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, store.EnsureCreated(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_EnsureCreated_Failure(t *testing.T) {
	store, mock := newMock(t)
	mock.ExpectExec(".*").WillReturnError(errors.New("permission denied"))

	err := store.EnsureCreated(context.Background())
	assert.ErrorContains(t, err, "permission denied")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_Save(t *testing.T) {
	g := greeting(t, "Ada", time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	rec := g.Record()

	t.Run("Inserted", func(t *testing.T) {
		store, mock := newMock(t)
		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO greetings")).
			WithArgs(rec.ID, rec.Name, "ada", rec.Message, rec.CreatedAt).
			WillReturnResult(sqlmock.NewResult(0, 1))

		saved, err := store.Save(context.Background(), g)
		require.NoError(t, err)
		assert.True(t, g.Equal(saved))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Duplicate", func(t *testing.T) {
		store, mock := newMock(t)
		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO greetings")).
			WillReturnError(&pq.Error{Code: "23505", Message: "duplicate key value violates unique constraint"})

		_, err := store.Save(context.Background(), g)
		assert.ErrorIs(t, err, domain.ErrGreetingExists)
	})

	t.Run("IO Failure", func(t *testing.T) {
		store, mock := newMock(t)
		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO greetings")).
			WillReturnError(errors.New("connection reset"))

		_, err := store.Save(context.Background(), g)
		var pe *domain.PersistenceError
		require.ErrorAs(t, err, &pe)
		assert.Equal(t, "save", pe.Op)
	})

	t.Run("Cancelled", func(t *testing.T) {
		store, mock := newMock(t)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := store.Save(ctx, g)
		assert.ErrorIs(t, err, context.Canceled)
		assert.NoError(t, mock.ExpectationsWereMet(), "no statement may run")
	})
}

func TestStore_GetByID(t *testing.T) {
	g := greeting(t, "Ada", time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	rec := g.Record()

	t.Run("Found", func(t *testing.T) {
		store, mock := newMock(t)
		mock.ExpectQuery(regexp.QuoteMeta("FROM greetings WHERE id = $1")).
			WithArgs(rec.ID).
			WillReturnRows(sqlmock.NewRows(columns).AddRow(rec.ID, rec.Name, rec.Message, rec.CreatedAt))

		got, err := store.GetByID(context.Background(), g.ID())
		require.NoError(t, err)
		assert.True(t, g.Equal(got))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Not Found", func(t *testing.T) {
		store, mock := newMock(t)
		mock.ExpectQuery(regexp.QuoteMeta("FROM greetings WHERE id = $1")).
			WillReturnRows(sqlmock.NewRows(columns))

		_, err := store.GetByID(context.Background(), g.ID())
		assert.ErrorIs(t, err, domain.ErrGreetingNotFound)
	})

	t.Run("Corrupt Row", func(t *testing.T) {
		store, mock := newMock(t)
		mock.ExpectQuery(regexp.QuoteMeta("FROM greetings WHERE id = $1")).
			WillReturnRows(sqlmock.NewRows(columns).AddRow(rec.ID, "   ", rec.Message, rec.CreatedAt))

		_, err := store.GetByID(context.Background(), g.ID())
		assert.ErrorIs(t, err, domain.ErrCorruptRecord)
	})
}

func TestStore_GetAllAndByName(t *testing.T) {
	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	first := greeting(t, "ADA", base)
	second := greeting(t, "Ada", base.Add(time.Minute))

	rows := func() *sqlmock.Rows {
		r := sqlmock.NewRows(columns)
		for _, g := range []domain.Greeting{first, second} {
			rec := g.Record()
			r.AddRow(rec.ID, rec.Name, rec.Message, rec.CreatedAt)
		}
		return r
	}

	t.Run("GetAll", func(t *testing.T) {
		store, mock := newMock(t)
		mock.ExpectQuery(regexp.QuoteMeta("ORDER BY created_at ASC")).WillReturnRows(rows())

		all, err := store.GetAll(context.Background())
		require.NoError(t, err)
		require.Len(t, all, 2)
		assert.Equal(t, first.ID(), all[0].ID())
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("GetByName", func(t *testing.T) {
		store, mock := newMock(t)
		mock.ExpectQuery(regexp.QuoteMeta("WHERE name_key = $1")).
			WithArgs("ada").
			WillReturnRows(rows())

		found, err := store.GetByName(context.Background(), "ADA")
		require.NoError(t, err)
		assert.Len(t, found, 2)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Empty", func(t *testing.T) {
		store, mock := newMock(t)
		mock.ExpectQuery(regexp.QuoteMeta("ORDER BY created_at ASC")).WillReturnRows(sqlmock.NewRows(columns))

		all, err := store.GetAll(context.Background())
		require.NoError(t, err)
		assert.NotNil(t, all)
		assert.Empty(t, all)
	})
}

func TestStoreIntegration(t *testing.T) {
	dsn := os.Getenv("GREETER_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("GREETER_TEST_POSTGRES_DSN not set; skipping postgres integration test")
	}

	ctx := context.Background()
	store, err := postgres.Open(ctx, dsn, postgres.PoolConfig{MaxOpenConns: 4})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	require.NoError(t, store.EnsureCreated(ctx))

	db, err := sqlx.Open("postgres", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	tests.GreetingRepositoryContractTest(t, func(t *testing.T) ports.GreetingRepository {
		_, err := db.ExecContext(ctx, "TRUNCATE greetings")
		require.NoError(t, err)
		return store
	})
}
