package testutils

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aretw0/greeter/pkg/adapters/loam"
	"github.com/aretw0/greeter/pkg/config"
)

// SetupLoamStore creates a temporary directory and initializes a Loam-backed store in it.
// It returns the absolute path to the temp dir and the store.
// It fails the test immediately on error.
func SetupLoamStore(t *testing.T) (string, *loam.Store) {
	t.Helper()

	// Loam sometimes prefers absolute paths, though t.TempDir usually returns one.
	absPath, err := filepath.Abs(t.TempDir())
	require.NoError(t, err, "Failed to get absolute path for temp dir")

	store, err := loam.New(absPath)
	require.NoError(t, err, "Failed to init loam store")

	return absPath, store
}

// LoadSettings loads defaults plus overrides, ignoring the process environment.
func LoadSettings(t *testing.T, overrides map[string]string) config.Settings {
	t.Helper()

	opts := []config.Option{config.WithEnviron(func() []string { return nil })}
	for k, v := range overrides {
		opts = append(opts, config.WithOverride(k, v))
	}

	settings, err := config.Load(opts...)
	require.NoError(t, err, "Failed to load settings")
	return settings
}
