package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/aretw0/greeter/pkg/domain"
	"github.com/aretw0/greeter/pkg/ports"
	"github.com/google/uuid"
)

var (
	_ ports.GreetingRepository = (*Store)(nil)
	_ ports.StorageInitializer = (*Store)(nil)
)

const ext = ".json"

// Store implements ports.GreetingRepository using the local filesystem.
// It stores one JSON file per greeting in a configured directory.
// Insert-only checks are serialized within the process; the directory must not be shared
// by several writers.
type Store struct {
	BasePath string
	mu       sync.Mutex
}

// New creates a new Store with the given base path.
// If basePath is empty, it defaults to "data/greetings".
func New(basePath string) *Store {
	if basePath == "" {
		basePath = filepath.Join("data", "greetings")
	}
	return &Store{BasePath: basePath}
}

// EnsureCreated creates the base directory.
func (s *Store) EnsureCreated(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(s.BasePath, 0755); err != nil {
		return fmt.Errorf("failed to ensure greetings directory: %w", err)
	}
	return nil
}

// Save persists the greeting to a JSON file atomically.
// It writes to a temporary file first, syncs via fsync, and then renames it to the destination.
func (s *Store) Save(ctx context.Context, greeting domain.Greeting) (domain.Greeting, error) {
	if err := ctx.Err(); err != nil {
		return domain.Greeting{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	destPath := s.path(greeting.ID())
	if _, err := os.Stat(destPath); err == nil {
		return domain.Greeting{}, domain.ErrGreetingExists
	}

	if err := os.MkdirAll(s.BasePath, 0755); err != nil {
		return domain.Greeting{}, domain.NewPersistenceError("save", fmt.Errorf("failed to ensure greetings directory: %w", err))
	}

	data, err := json.MarshalIndent(greeting.Record(), "", "  ")
	if err != nil {
		return domain.Greeting{}, fmt.Errorf("failed to marshal greeting: %w", err)
	}

	if err := writeAtomic(s.BasePath, destPath, data); err != nil {
		return domain.Greeting{}, domain.NewPersistenceError("save", err)
	}
	return greeting, nil
}

// writeAtomic writes data to a temp file in dir and renames it onto destPath.
// The temp file lives in the same directory so the rename stays on one filesystem.
func writeAtomic(dir, destPath string, data []byte) error {
	tmpFile, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
	}()

	if _, err := tmpFile.Write(data); err != nil {
		return fmt.Errorf("failed to write to temp file: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		return fmt.Errorf("failed to fsync temp file: %w", err)
	}
	// Windows cannot rename an open file.
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}

// GetByID retrieves a greeting from its JSON file.
func (s *Store) GetByID(ctx context.Context, id uuid.UUID) (domain.Greeting, error) {
	if err := ctx.Err(); err != nil {
		return domain.Greeting{}, err
	}

	g, err := s.read(s.path(id))
	if err != nil {
		if os.IsNotExist(err) {
			return domain.Greeting{}, domain.ErrGreetingNotFound
		}
		return domain.Greeting{}, domain.NewPersistenceError("get_by_id", err)
	}
	return g, nil
}

// GetAll returns every stored greeting, oldest first.
func (s *Store) GetAll(ctx context.Context) ([]domain.Greeting, error) {
	return s.scan(ctx, "get_all", func(domain.Greeting) bool { return true })
}

// GetByName returns greetings whose name equals name ignoring case, oldest first.
func (s *Store) GetByName(ctx context.Context, name string) ([]domain.Greeting, error) {
	want := domain.NameKey(name)
	return s.scan(ctx, "get_by_name", func(g domain.Greeting) bool {
		return domain.NameKey(g.Name().Value()) == want
	})
}

func (s *Store) scan(ctx context.Context, op string, match func(domain.Greeting) bool) ([]domain.Greeting, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(s.BasePath)
	if err != nil {
		if os.IsNotExist(err) {
			return []domain.Greeting{}, nil
		}
		return nil, domain.NewPersistenceError(op, fmt.Errorf("failed to list greetings: %w", err))
	}

	out := make([]domain.Greeting, 0, len(entries))
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if entry.IsDir() || filepath.Ext(entry.Name()) != ext || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		g, err := s.read(filepath.Join(s.BasePath, entry.Name()))
		if err != nil {
			return nil, domain.NewPersistenceError(op, err)
		}
		if match(g) {
			out = append(out, g)
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt().Equal(out[j].CreatedAt()) {
			return out[i].ID().String() < out[j].ID().String()
		}
		return out[i].CreatedAt().Before(out[j].CreatedAt())
	})
	return out, nil
}

func (s *Store) read(path string) (domain.Greeting, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.Greeting{}, err
	}

	var rec domain.GreetingRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return domain.Greeting{}, fmt.Errorf("failed to unmarshal greeting %s: %w", filepath.Base(path), err)
	}
	return domain.RestoreGreeting(rec)
}

func (s *Store) path(id uuid.UUID) string {
	return filepath.Join(s.BasePath, id.String()+ext)
}
