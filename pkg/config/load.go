package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// EnvPrefix marks environment variables that belong to the settings view.
const EnvPrefix = "GREETER_"

// Option configures Load.
type Option func(*loader)

type loader struct {
	files     []string
	envFiles  []string
	environ   func() []string
	overrides map[string]string
}

// WithFile adds a YAML or JSON settings file. Missing files are an error.
func WithFile(path string) Option {
	return func(l *loader) {
		if path != "" {
			l.files = append(l.files, path)
		}
	}
}

// WithEnvFile adds a .env file. A missing file is ignored.
func WithEnvFile(path string) Option {
	return func(l *loader) {
		if path != "" {
			l.envFiles = append(l.envFiles, path)
		}
	}
}

// WithEnviron replaces os.Environ as the environment source.
func WithEnviron(environ func() []string) Option {
	return func(l *loader) {
		l.environ = environ
	}
}

// WithOverride sets a key on the highest layer.
func WithOverride(key, value string) Option {
	return func(l *loader) {
		l.overrides[key] = value
	}
}

// Load layers every configured source over the defaults and returns the validated snapshot.
func Load(opts ...Option) (Settings, error) {
	l := &loader{
		environ:   os.Environ,
		overrides: make(map[string]string),
	}
	for _, opt := range opts {
		opt(l)
	}

	v := newViper()
	for k, value := range defaults {
		v.SetDefault(k, value)
	}

	for _, path := range l.files {
		v.SetConfigFile(path)
		v.SetConfigType(fileType(path))
		if err := v.MergeInConfig(); err != nil {
			return Settings{}, fmt.Errorf("failed to read settings file %s: %w", path, err)
		}
	}

	for _, path := range l.envFiles {
		values, err := godotenv.Read(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return Settings{}, fmt.Errorf("failed to read env file %s: %w", path, err)
		}
		if err := mergeLayer(v, fromEnv(values)); err != nil {
			return Settings{}, err
		}
	}

	if err := mergeLayer(v, fromEnv(environMap(l.environ()))); err != nil {
		return Settings{}, err
	}

	for k, value := range l.overrides {
		v.Set(k, value)
	}

	return Decode(v.AllSettings())
}

// Decode turns the merged settings tree into validated Settings.
func Decode(raw map[string]any) (Settings, error) {
	var s Settings
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &s,
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	})
	if err != nil {
		return Settings{}, fmt.Errorf("failed to create settings decoder: %w", err)
	}
	if err := decoder.Decode(raw); err != nil {
		return Settings{}, fmt.Errorf("failed to decode settings: %w", err)
	}

	s.CORS.AllowedOrigins = compact(s.CORS.AllowedOrigins)
	if s.ConnectionStrings == nil {
		s.ConnectionStrings = map[string]string{}
	}

	if err := s.Validate(); err != nil {
		return Settings{}, fmt.Errorf("invalid settings: %w", err)
	}
	return s, nil
}

// newViper returns a viper that splits keys on ":", so "Logging:LogLevel" is the
// LogLevel entry of the Logging section.
func newViper() *viper.Viper {
	return viper.NewWithOptions(viper.KeyDelimiter(":"))
}

// fileType picks the parser for a settings file. Anything but .json is read as YAML.
func fileType(path string) string {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return "json"
	}
	return "yaml"
}

// mergeLayer nests colon-keyed values and merges them over the files read so far.
func mergeLayer(v *viper.Viper, values map[string]string) error {
	if len(values) == 0 {
		return nil
	}
	layer := newViper()
	for k, value := range values {
		layer.Set(k, value)
	}
	if err := v.MergeConfigMap(layer.AllSettings()); err != nil {
		return fmt.Errorf("failed to merge settings layer: %w", err)
	}
	return nil
}

// fromEnv keeps prefixed variables and converts NAME__PART into Name:Part segments.
// The environment is scanned rather than bound with AutomaticEnv because viper only
// looks up keys it already knows, and connection string names are free-form.
func fromEnv(env map[string]string) map[string]string {
	out := make(map[string]string)
	for k, v := range env {
		if !strings.HasPrefix(strings.ToUpper(k), EnvPrefix) {
			continue
		}
		key := strings.ReplaceAll(k[len(EnvPrefix):], "__", ":")
		if key != "" {
			out[key] = v
		}
	}
	return out
}

func environMap(environ []string) map[string]string {
	out := make(map[string]string, len(environ))
	for _, kv := range environ {
		if k, v, ok := strings.Cut(kv, "="); ok {
			out[k] = v
		}
	}
	return out
}

func compact(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
