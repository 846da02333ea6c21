package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aretw0/greeter/pkg/domain"
	"github.com/aretw0/greeter/pkg/ports"
	"github.com/google/uuid"
	backend "github.com/redis/go-redis/v9"
)

var (
	_ ports.GreetingRepository = (*Store)(nil)
	_ ports.StorageInitializer = (*Store)(nil)
)

const defaultPrefix = "greeter:greeting:"

// Store implements ports.GreetingRepository using Redis.
//
// Each greeting is a JSON string under prefix+id. Two sorted sets scored by the creation
// time in microseconds keep the ordered indexes: prefix+"index" for every greeting and
// prefix+"name:"+lower(name) for lookups by name.
type Store struct {
	client *backend.Client
	prefix string
}

type Option func(*Store)

// WithPrefix sets the key prefix for greetings.
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		s.prefix = prefix
	}
}

// New creates a new Redis store with options.
func New(address, password string, db int, opts ...Option) *Store {
	rdb := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(rdb, opts...)
}

// NewFromURL creates a new Redis store from a redis:// or rediss:// URL.
func NewFromURL(rawURL string, opts ...Option) (*Store, error) {
	options, err := backend.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}
	return NewFromClient(backend.NewClient(options), opts...), nil
}

// NewFromClient creates a new Redis store from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Store {
	store := &Store{
		client: client,
		prefix: defaultPrefix,
	}

	for _, opt := range opts {
		opt(store)
	}

	return store
}

func (s *Store) key(id string) string {
	return s.prefix + id
}

func (s *Store) indexKey() string {
	return s.prefix + "index"
}

func (s *Store) nameKey(name string) string {
	return s.prefix + "name:" + domain.NameKey(name)
}

// EnsureCreated verifies the server is reachable. Redis needs no schema.
func (s *Store) EnsureCreated(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to ping redis: %w", err)
	}
	return nil
}

// Save inserts the greeting and both index entries in one transaction.
func (s *Store) Save(ctx context.Context, greeting domain.Greeting) (domain.Greeting, error) {
	if err := ctx.Err(); err != nil {
		return domain.Greeting{}, err
	}

	rec := greeting.Record()
	data, err := json.Marshal(rec)
	if err != nil {
		return domain.Greeting{}, fmt.Errorf("failed to marshal greeting: %w", err)
	}

	key := s.key(rec.ID)
	member := backend.Z{
		Score:  float64(greeting.CreatedAt().UnixMicro()),
		Member: rec.ID,
	}

	err = s.client.Watch(ctx, func(tx *backend.Tx) error {
		n, err := tx.Exists(ctx, key).Result()
		if err != nil {
			return err
		}
		if n > 0 {
			return domain.ErrGreetingExists
		}

		_, err = tx.TxPipelined(ctx, func(pipe backend.Pipeliner) error {
			pipe.Set(ctx, key, data, 0)
			pipe.ZAdd(ctx, s.indexKey(), member)
			pipe.ZAdd(ctx, s.nameKey(rec.Name), member)
			return nil
		})
		return err
	}, key)

	if errors.Is(err, backend.TxFailedErr) {
		// Another writer touched the same key between WATCH and EXEC.
		return domain.Greeting{}, domain.ErrGreetingExists
	}
	if err != nil {
		return domain.Greeting{}, domain.NewPersistenceError("save", fmt.Errorf("failed to save to redis: %w", err))
	}
	return greeting, nil
}

// GetByID retrieves the greeting from Redis.
func (s *Store) GetByID(ctx context.Context, id uuid.UUID) (domain.Greeting, error) {
	if err := ctx.Err(); err != nil {
		return domain.Greeting{}, err
	}

	val, err := s.client.Get(ctx, s.key(id.String())).Result()
	if err != nil {
		if err == backend.Nil {
			return domain.Greeting{}, domain.ErrGreetingNotFound
		}
		return domain.Greeting{}, domain.NewPersistenceError("get_by_id", fmt.Errorf("failed to get from redis: %w", err))
	}

	return decode(val)
}

// GetAll returns every greeting, oldest first.
func (s *Store) GetAll(ctx context.Context) ([]domain.Greeting, error) {
	return s.fromIndex(ctx, "get_all", s.indexKey())
}

// GetByName returns greetings whose name matches ignoring case, oldest first.
func (s *Store) GetByName(ctx context.Context, name string) ([]domain.Greeting, error) {
	return s.fromIndex(ctx, "get_by_name", s.nameKey(name))
}

func (s *Store) fromIndex(ctx context.Context, op, index string) ([]domain.Greeting, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ids, err := s.client.ZRange(ctx, index, 0, -1).Result()
	if err != nil {
		return nil, domain.NewPersistenceError(op, fmt.Errorf("failed to read index: %w", err))
	}
	if len(ids) == 0 {
		return []domain.Greeting{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = s.key(id)
	}

	vals, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, domain.NewPersistenceError(op, fmt.Errorf("failed to get from redis: %w", err))
	}

	out := make([]domain.Greeting, 0, len(vals))
	for _, v := range vals {
		str, ok := v.(string)
		if !ok {
			// Index entry without a value; skipped rather than failing the listing.
			continue
		}
		g, err := decode(str)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, nil
}

func decode(val string) (domain.Greeting, error) {
	var rec domain.GreetingRecord
	if err := json.Unmarshal([]byte(val), &rec); err != nil {
		return domain.Greeting{}, fmt.Errorf("%w: failed to unmarshal greeting: %v", domain.ErrCorruptRecord, err)
	}
	return domain.RestoreGreeting(rec)
}

// Close closes the redis client.
func (s *Store) Close() error {
	return s.client.Close()
}
