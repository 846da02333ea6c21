package greetings

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/aretw0/greeter/pkg/adapters/file"
	"github.com/aretw0/greeter/pkg/adapters/loam"
	"github.com/aretw0/greeter/pkg/adapters/memory"
	"github.com/aretw0/greeter/pkg/adapters/postgres"
	"github.com/aretw0/greeter/pkg/adapters/redis"
	"github.com/aretw0/greeter/pkg/config"
	"github.com/aretw0/greeter/pkg/ports"
)

// Backend names a storage implementation selected by connection string scheme.
type Backend string

const (
	BackendMemory   Backend = "memory"
	BackendFile     Backend = "file"
	BackendLoam     Backend = "loam"
	BackendRedis    Backend = "redis"
	BackendPostgres Backend = "postgres"
)

// Target is a parsed connection string.
type Target struct {
	Backend Backend
	// Location is the directory for file and loam, the full URL for redis and postgres.
	Location string
}

// ParseConnectionString maps a connection string to a storage backend.
func ParseConnectionString(raw string) (Target, error) {
	raw = strings.TrimSpace(raw)
	scheme, rest, ok := strings.Cut(raw, "://")
	if !ok {
		return Target{}, fmt.Errorf("invalid connection string %q: missing scheme", raw)
	}

	switch strings.ToLower(scheme) {
	case "memory":
		return Target{Backend: BackendMemory}, nil
	case "file":
		return Target{Backend: BackendFile, Location: localPath(rest)}, nil
	case "loam":
		return Target{Backend: BackendLoam, Location: localPath(rest)}, nil
	case "redis", "rediss":
		return Target{Backend: BackendRedis, Location: raw}, nil
	case "postgres", "postgresql":
		return Target{Backend: BackendPostgres, Location: raw}, nil
	default:
		return Target{}, fmt.Errorf("unsupported storage scheme %q", scheme)
	}
}

func localPath(rest string) string {
	if rest == "" {
		return defaultDataDir
	}
	return filepath.FromSlash(rest)
}

// open builds the repository for t. Network backends connect here, so this runs lazily
// on first resolution rather than during registration.
func open(ctx context.Context, t Target, db config.DatabaseSettings) (ports.GreetingRepository, error) {
	switch t.Backend {
	case BackendMemory:
		return memory.NewStore(), nil
	case BackendFile:
		return file.New(t.Location), nil
	case BackendLoam:
		return loam.New(t.Location)
	case BackendRedis:
		return redis.NewFromURL(t.Location)
	case BackendPostgres:
		return postgres.Open(ctx, t.Location, postgres.PoolConfig{
			MaxOpenConns:    db.MaxOpenConns,
			MaxIdleConns:    db.MaxIdleConns,
			ConnMaxLifetime: db.ConnMaxLifetime,
		})
	default:
		return nil, fmt.Errorf("unsupported storage backend %q", t.Backend)
	}
}
