package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/aretw0/greeter/pkg/domain"
	"github.com/aretw0/greeter/pkg/ports"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

var (
	_ ports.GreetingRepository = (*Store)(nil)
	_ ports.StorageInitializer = (*Store)(nil)
)

// uniqueViolation is the SQLSTATE Postgres reports for duplicate keys.
const uniqueViolation = "23505"

// Schema creates the greetings table and its secondary indexes.
// name_key holds domain.NameKey(name); matching on it instead of LOWER(name) keeps lookups
// independent of the database locale.
var Schema = []string{
	`CREATE TABLE IF NOT EXISTS greetings (
		id         UUID PRIMARY KEY,
		name       VARCHAR(100) NOT NULL,
		name_key   TEXT         NOT NULL,
		message    VARCHAR(200) NOT NULL,
		created_at TIMESTAMPTZ  NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS ix_greetings_name ON greetings (name_key)`,
	`CREATE INDEX IF NOT EXISTS ix_greetings_created_at ON greetings (created_at)`,
}

const selectColumns = `SELECT id, name, message, created_at FROM greetings`

// PoolConfig tunes the connection pool. Zero values keep the database/sql defaults.
type PoolConfig struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	PingTimeout     time.Duration
}

// Store implements ports.GreetingRepository backed by PostgreSQL.
type Store struct {
	db *sqlx.DB
}

// New creates a Store using the provided database handle.
func New(db *sqlx.DB) *Store {
	return &Store{db: db}
}

// Open connects to dsn with the lib/pq driver, applies the pool settings and pings the server.
func Open(ctx context.Context, dsn string, cfg PoolConfig) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("database dsn not configured")
	}

	db, err := sqlx.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	timeout := cfg.PingTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	return New(db), nil
}

// EnsureCreated creates the table and indexes if they are missing.
func (s *Store) EnsureCreated(ctx context.Context) error {
	for _, stmt := range Schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to ensure schema: %w", err)
		}
	}
	return nil
}

// Save inserts the greeting row.
func (s *Store) Save(ctx context.Context, greeting domain.Greeting) (domain.Greeting, error) {
	if err := ctx.Err(); err != nil {
		return domain.Greeting{}, err
	}

	rec := greeting.Record()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO greetings (id, name, name_key, message, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, rec.ID, rec.Name, domain.NameKey(rec.Name), rec.Message, rec.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
			return domain.Greeting{}, domain.ErrGreetingExists
		}
		return domain.Greeting{}, domain.NewPersistenceError("save", err)
	}
	return greeting, nil
}

// GetByID loads a single row by primary key.
func (s *Store) GetByID(ctx context.Context, id uuid.UUID) (domain.Greeting, error) {
	if err := ctx.Err(); err != nil {
		return domain.Greeting{}, err
	}

	var rec domain.GreetingRecord
	err := s.db.GetContext(ctx, &rec, selectColumns+` WHERE id = $1`, id.String())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Greeting{}, domain.ErrGreetingNotFound
		}
		return domain.Greeting{}, domain.NewPersistenceError("get_by_id", err)
	}
	return domain.RestoreGreeting(rec)
}

// GetAll returns every row ordered by creation time.
func (s *Store) GetAll(ctx context.Context) ([]domain.Greeting, error) {
	return s.query(ctx, "get_all", selectColumns+` ORDER BY created_at ASC, id ASC`)
}

// GetByName matches name_key, which the ix_greetings_name index covers.
func (s *Store) GetByName(ctx context.Context, name string) ([]domain.Greeting, error) {
	return s.query(ctx, "get_by_name", selectColumns+` WHERE name_key = $1 ORDER BY created_at ASC, id ASC`, domain.NameKey(name))
}

func (s *Store) query(ctx context.Context, op, query string, args ...any) ([]domain.Greeting, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var recs []domain.GreetingRecord
	if err := s.db.SelectContext(ctx, &recs, query, args...); err != nil {
		return nil, domain.NewPersistenceError(op, err)
	}

	out := make([]domain.Greeting, 0, len(recs))
	for _, rec := range recs {
		g, err := domain.RestoreGreeting(rec)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, nil
}

// Close closes the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}
