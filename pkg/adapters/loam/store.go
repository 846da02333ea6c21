package loam

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/greeter/pkg/domain"
	"github.com/aretw0/greeter/pkg/ports"
	"github.com/aretw0/loam"
	"github.com/google/uuid"
)

var (
	_ ports.GreetingRepository = (*Store)(nil)
	_ ports.StorageInitializer = (*Store)(nil)
)

// Store adapts a Loam document repository to ports.GreetingRepository.
// Each greeting is one markdown document: metadata in the frontmatter, message as the body.
// Listing returns frontmatter only, so reads list to select and order documents, then Get
// each one for its body.
type Store struct {
	Path string
	Repo *loam.TypedRepository[GreetingMetadata]

	mu sync.Mutex
}

// New initializes a Loam repository rooted at path, without versioning.
// Relative paths resolve against the working directory.
func New(path string) (*Store, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("invalid path: %w", err)
	}
	path = absPath

	if err := os.MkdirAll(path, 0755); err != nil {
		return nil, fmt.Errorf("failed to ensure loam directory: %w", err)
	}

	// Loam re-roots writable vaults under os.TempDir when run by go run or go test.
	// The store must write where Path says, so the sandbox stays off.
	repo, err := loam.Init(path,
		loam.WithVersioning(false),
		loam.WithForceTemp(false),
		loam.WithDevSafety(false),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize loam: %w", err)
	}

	return &Store{
		Path: path,
		Repo: loam.NewTypedRepository[GreetingMetadata](repo),
	}, nil
}

// EnsureCreated verifies the repository directory exists and is listable.
func (s *Store) EnsureCreated(ctx context.Context) error {
	if err := os.MkdirAll(s.Path, 0755); err != nil {
		return fmt.Errorf("failed to ensure loam directory: %w", err)
	}
	if _, err := s.index(ctx, "ensure_created"); err != nil {
		return err
	}
	return nil
}

// Save writes the greeting as a new document.
func (s *Store) Save(ctx context.Context, greeting domain.Greeting) (domain.Greeting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec := greeting.Record()
	entries, err := s.index(ctx, "save")
	if err != nil {
		return domain.Greeting{}, err
	}
	for _, e := range entries {
		if e.meta.ID == rec.ID {
			return domain.Greeting{}, domain.ErrGreetingExists
		}
	}

	err = s.Repo.Save(ctx, &loam.DocumentModel[GreetingMetadata]{
		ID:      rec.ID,
		Content: rec.Message,
		Data: GreetingMetadata{
			ID:        rec.ID,
			Name:      rec.Name,
			CreatedAt: rec.CreatedAt.Format(time.RFC3339Nano),
		},
	})
	if err != nil {
		return domain.Greeting{}, domain.NewPersistenceError("save", fmt.Errorf("loam save failed for %s: %w", rec.ID, err))
	}
	return greeting, nil
}

// GetByID loads the document named after id.
func (s *Store) GetByID(ctx context.Context, id uuid.UUID) (domain.Greeting, error) {
	if err := ctx.Err(); err != nil {
		return domain.Greeting{}, err
	}

	doc, err := s.Repo.Get(ctx, id.String())
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return domain.Greeting{}, domain.ErrGreetingNotFound
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return domain.Greeting{}, ctxErr
		}
		return domain.Greeting{}, domain.NewPersistenceError("get_by_id", fmt.Errorf("loam get failed for %s: %w", id, err))
	}
	if doc.Data.ID != id.String() {
		return domain.Greeting{}, domain.ErrGreetingNotFound
	}
	return restore(doc)
}

// GetAll returns every greeting document, oldest first.
func (s *Store) GetAll(ctx context.Context) ([]domain.Greeting, error) {
	entries, err := s.index(ctx, "get_all")
	if err != nil {
		return nil, err
	}
	return s.load(ctx, "get_all", entries)
}

// GetByName returns greetings whose name equals name ignoring case, oldest first.
func (s *Store) GetByName(ctx context.Context, name string) ([]domain.Greeting, error) {
	entries, err := s.index(ctx, "get_by_name")
	if err != nil {
		return nil, err
	}

	want := domain.NameKey(name)
	matches := entries[:0]
	for _, e := range entries {
		if domain.NameKey(e.meta.Name) == want {
			matches = append(matches, e)
		}
	}
	return s.load(ctx, "get_by_name", matches)
}

// entry is a listed greeting document. Listing carries metadata only, never the body.
type entry struct {
	docID     string
	meta      GreetingMetadata
	createdAt time.Time
}

// index lists greeting documents sorted by creation time.
// Documents without a greeting ID in their metadata belong to someone else and are skipped.
func (s *Store) index(ctx context.Context, op string) ([]entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	docs, err := s.Repo.List(ctx)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, domain.NewPersistenceError(op, fmt.Errorf("loam list failed: %w", err))
	}

	out := make([]entry, 0, len(docs))
	for _, doc := range docs {
		if doc.Data.ID == "" {
			continue
		}
		createdAt, err := parseCreatedAt(doc.Data.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("%w: document %s: %v", domain.ErrCorruptRecord, doc.ID, err)
		}
		out = append(out, entry{docID: doc.ID, meta: doc.Data, createdAt: createdAt})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].createdAt.Equal(out[j].createdAt) {
			return out[i].meta.ID < out[j].meta.ID
		}
		return out[i].createdAt.Before(out[j].createdAt)
	})
	return out, nil
}

// load reads each listed document in full, keeping the index order.
func (s *Store) load(ctx context.Context, op string, entries []entry) ([]domain.Greeting, error) {
	out := make([]domain.Greeting, 0, len(entries))
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		doc, err := s.Repo.Get(ctx, e.docID)
		if err != nil {
			return nil, domain.NewPersistenceError(op, fmt.Errorf("loam get failed for %s: %w", e.docID, err))
		}
		g, err := restore(doc)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, nil
}

func restore(doc *loam.DocumentModel[GreetingMetadata]) (domain.Greeting, error) {
	createdAt, err := parseCreatedAt(doc.Data.CreatedAt)
	if err != nil {
		return domain.Greeting{}, fmt.Errorf("%w: document %s: %v", domain.ErrCorruptRecord, doc.ID, err)
	}
	return domain.RestoreGreeting(domain.GreetingRecord{
		ID:        doc.Data.ID,
		Name:      doc.Data.Name,
		Message:   strings.TrimSpace(doc.Content),
		CreatedAt: createdAt,
	})
}
