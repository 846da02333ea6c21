package config

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// DefaultConnectionName is consulted when a feature has no connection string of its own.
const DefaultConnectionName = "DefaultConnection"

// Environment names.
const (
	EnvDevelopment = "Development"
	EnvProduction  = "Production"
)

var validate = validator.New()

// Settings is the process-wide configuration snapshot.
// Treat it as read-only; ConnectionStrings in particular must not be mutated.
type Settings struct {
	ApplicationName   string            `mapstructure:"ApplicationName" validate:"required"`
	Environment       string            `mapstructure:"Environment" validate:"required"`
	DetailedErrors    bool              `mapstructure:"DetailedErrors"`
	Logging           LoggingSettings   `mapstructure:"Logging"`
	ConnectionStrings map[string]string `mapstructure:"ConnectionStrings"`
	Database          DatabaseSettings  `mapstructure:"Database"`
	HTTP              HTTPSettings      `mapstructure:"Http"`
	CORS              CORSSettings      `mapstructure:"Cors"`
}

type LoggingSettings struct {
	LogLevel      string `mapstructure:"LogLevel" validate:"required"`
	Format        string `mapstructure:"Format" validate:"oneof=text json"`
	IncludeScopes bool   `mapstructure:"IncludeScopes"`
}

// DatabaseSettings tunes pooled SQL connections.
type DatabaseSettings struct {
	MaxOpenConns    int           `mapstructure:"MaxOpenConns" validate:"gte=0"`
	MaxIdleConns    int           `mapstructure:"MaxIdleConns" validate:"gte=0"`
	ConnMaxLifetime time.Duration `mapstructure:"ConnMaxLifetime"`
}

type HTTPSettings struct {
	Address         string        `mapstructure:"Address" validate:"required"`
	ShutdownTimeout time.Duration `mapstructure:"ShutdownTimeout"`
}

type CORSSettings struct {
	AllowedOrigins []string `mapstructure:"AllowedOrigins" validate:"dive,url"`
}

// defaults are the lowest layer of every Load.
var defaults = map[string]string{
	"ApplicationName":          "Greeter API",
	"Environment":              EnvProduction,
	"DetailedErrors":           "false",
	"Logging:LogLevel":         "Information",
	"Logging:Format":           "text",
	"Logging:IncludeScopes":    "false",
	"Database:MaxOpenConns":    "10",
	"Database:MaxIdleConns":    "5",
	"Database:ConnMaxLifetime": "30m",
	"Http:Address":             ":8080",
	"Http:ShutdownTimeout":     "5s",
	"Cors:AllowedOrigins":      "http://localhost:3000,https://localhost:3000",
}

// Validate checks the struct constraints.
func (s Settings) Validate() error {
	return validate.Struct(s)
}

// ConnectionString looks name up ignoring case.
func (s Settings) ConnectionString(name string) (string, bool) {
	for k, v := range s.ConnectionStrings {
		if strings.EqualFold(k, name) && strings.TrimSpace(v) != "" {
			return v, true
		}
	}
	return "", false
}

// ConnectionStringOrDefault resolves name, then DefaultConnection, then fallback.
func (s Settings) ConnectionStringOrDefault(name, fallback string) string {
	if v, ok := s.ConnectionString(name); ok {
		return v
	}
	if v, ok := s.ConnectionString(DefaultConnectionName); ok {
		return v
	}
	return fallback
}

// IsDevelopment reports whether the snapshot was loaded for the Development environment.
func (s Settings) IsDevelopment() bool {
	return strings.EqualFold(s.Environment, EnvDevelopment)
}
