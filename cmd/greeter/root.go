package main

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/aretw0/greeter"
	"github.com/aretw0/greeter/internal/logging"
	"github.com/aretw0/greeter/pkg/config"
)

var rootCmd = &cobra.Command{
	Use:           "greeter",
	Short:         "Greeter creates and stores personalized greetings",
	Long:          `Greeter serves a greeting API over HTTP or MCP and manages stored greetings from the command line.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().String("config", "", "YAML or JSON settings file")
	rootCmd.PersistentFlags().String("env-file", ".env", "Dotenv file with GREETER_ variables (ignored when missing)")
	rootCmd.PersistentFlags().String("log-level", "", "Override Logging:LogLevel (debug, information, warning, error)")
	rootCmd.PersistentFlags().Bool("detailed-errors", false, "Include error details in responses and names in logs")
}

// loadSettings layers defaults, the settings file, the env file, the environment and flags.
func loadSettings(cmd *cobra.Command) (config.Settings, error) {
	file, _ := cmd.Flags().GetString("config")
	envFile, _ := cmd.Flags().GetString("env-file")

	opts := []config.Option{
		config.WithFile(file),
		config.WithEnvFile(envFile),
	}
	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		opts = append(opts, config.WithOverride("Logging:LogLevel", level))
	}
	if cmd.Flags().Changed("detailed-errors") {
		detailed, _ := cmd.Flags().GetBool("detailed-errors")
		opts = append(opts, config.WithOverride("DetailedErrors", strconv.FormatBool(detailed)))
	}

	settings, err := config.Load(opts...)
	if err != nil {
		return config.Settings{}, fmt.Errorf("failed to load settings: %w", err)
	}
	return settings, nil
}

// newLogger writes to stderr so stdout stays free for command output and MCP traffic.
func newLogger(settings config.Settings) *slog.Logger {
	return logging.NewWithFormat(
		logging.ParseLevel(settings.Logging.LogLevel),
		settings.Logging.Format,
		os.Stderr,
	).With("app", settings.ApplicationName)
}

// bootstrap loads settings and composes the application. When start is set it also runs
// feature initialization and fails on the first error.
func bootstrap(cmd *cobra.Command, start bool) (*greeter.App, *slog.Logger, error) {
	settings, err := loadSettings(cmd)
	if err != nil {
		return nil, nil, err
	}
	logger := newLogger(settings)

	app, err := greeter.New(settings, greeter.WithLogger(logger))
	if err != nil {
		return nil, nil, err
	}

	if start {
		if err := app.Start(cmd.Context()); err != nil {
			_ = app.Close()
			return nil, nil, err
		}
	}
	return app, logger, nil
}
