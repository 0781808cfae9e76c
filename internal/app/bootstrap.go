package app

import (
	"context"
	"fmt"
	"io"
	"os"

	"backlog-mcp/internal/config"
	"backlog-mcp/pkg/logging"
)

// Application ties a loaded configuration to the run modes.
//
// The Application follows a two-phase initialization pattern:
//  1. Bootstrap phase: initialize logging, load the file, overlay the
//     environment and flags
//  2. Execution phase: run the gateway or the server until ctx is done
//
// Example usage:
//
//	cfg := app.NewConfig(false, "backlog-mcp.yaml")
//	application, err := app.NewApplication(cfg)
//	if err != nil {
//	    return fmt.Errorf("failed to create application: %w", err)
//	}
//	return application.RunGateway(ctx)
type Application struct {
	config *Config
}

// NewApplication performs the bootstrap sequence. Logging is initialized
// twice: first from the debug flag so that loading is visible, then from
// the loaded log section.
func NewApplication(cfg *Config) (*Application, error) {
	var logOutput io.Writer = os.Stdout
	if cfg.LogOutput != nil {
		logOutput = cfg.LogOutput
	}

	appLogLevel := logging.LevelInfo
	if cfg.Debug {
		appLogLevel = logging.LevelDebug
	}
	logging.Init(appLogLevel, logOutput, logging.FormatText)

	settings, err := config.LoadConfig(cfg.ConfigPath)
	if err != nil {
		logging.Error("Bootstrap", err, "Failed to load configuration")
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := ApplyServerEnv(&settings.Server, os.LookupEnv); err != nil {
		return nil, err
	}
	if cfg.Overrides != nil {
		cfg.Overrides(&settings)
	}

	level, err := logging.ParseLogLevel(settings.Log.Level)
	if err != nil {
		return nil, config.ValidationError{Field: "log.level", Message: err.Error(), Value: settings.Log.Level}
	}
	if cfg.Debug {
		level = logging.LevelDebug
	}
	format := logging.Format(settings.Log.Format)
	if err := config.ValidateOneOf("log.format", string(format), []string{string(logging.FormatText), string(logging.FormatJSON)}); err != nil {
		return nil, err
	}
	logging.Init(level, logOutput, format)

	cfg.Settings = &settings
	return &Application{config: cfg}, nil
}

// Settings returns the effective configuration.
func (a *Application) Settings() config.Config {
	return *a.config.Settings
}

// RunGateway serves the stdio gateway until ctx is done.
func (a *Application) RunGateway(ctx context.Context) error {
	return runGateway(ctx, a.config)
}

// RunServer serves the Backlog MCP server on the configured transport until
// ctx is done or, in stdio mode, stdin is closed.
func (a *Application) RunServer(ctx context.Context) error {
	return runServer(ctx, a.config)
}
