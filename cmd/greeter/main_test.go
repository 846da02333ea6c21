package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/aretw0/greeter/pkg/feature"
)

// run executes the CLI with fresh flag values and returns stdout.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(append([]string{"--env-file", filepath.Join(t.TempDir(), "missing.env")}, args...))
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.PersistentFlags().VisitAll(reset)
	cmd.Flags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

func useStore(t *testing.T, conn string) {
	t.Helper()
	t.Setenv("GREETER_CONNECTIONSTRINGS__GREETINGSDATABASE", conn)
}

func TestVersionCommand(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "greeter version "))
}

func TestGreetAndList(t *testing.T) {
	useStore(t, "file://"+filepath.ToSlash(t.TempDir()))

	out, err := run(t, "greet", "Ada")
	require.NoError(t, err)
	assert.Equal(t, "Hello, Ada!\n", out)

	_, err = run(t, "greet", "Grace", "--verbose")
	require.NoError(t, err)

	out, err = run(t, "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Hello, Ada!")
	assert.Contains(t, out, "Hello, Grace!")

	out, err = run(t, "list", "--name", "ADA")
	require.NoError(t, err)
	assert.Contains(t, out, "Hello, Ada!")
	assert.NotContains(t, out, "Grace")
}

func TestGreetValidation(t *testing.T) {
	useStore(t, "memory://")

	_, err := run(t, "greet", "   ")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "name")
}

func TestStartFailureStopsCommand(t *testing.T) {
	useStore(t, "redis://127.0.0.1:1")

	_, err := run(t, "greet", "Ada")
	var initErr *feature.InitializationError
	require.ErrorAs(t, err, &initErr)
	assert.Equal(t, "Greetings", initErr.Feature)
}

func TestFeaturesCommand(t *testing.T) {
	useStore(t, "memory://")

	out, err := run(t, "features")
	require.NoError(t, err)

	var status []feature.FeatureStatus
	require.NoError(t, json.Unmarshal([]byte(out), &status))
	require.Len(t, status, 1)
	assert.Equal(t, "initialized", status[0].State)

	out, err = run(t, "features", "--yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "state: initialized")
	var fromYAML []feature.FeatureStatus
	require.NoError(t, yaml.Unmarshal([]byte(out), &fromYAML))
	assert.Equal(t, status, fromYAML)

	out, err = run(t, "features", "--mermaid")
	require.NoError(t, err)
	assert.Contains(t, out, "class Greetings initialized;")
}

func TestConfigFlagAndOverrides(t *testing.T) {
	dir := t.TempDir()
	cfg := filepath.Join(dir, "greeter.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte("ConnectionStrings:\n  GreetingsDatabase: mongodb://nowhere\n"), 0644))

	_, err := run(t, "--config", cfg, "greet", "Ada")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported storage scheme")
}
