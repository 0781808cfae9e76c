package app

import (
	"io"
	"net"
	"os"

	"backlog-mcp/internal/config"
)

// Config holds the runtime configuration of one command invocation.
type Config struct {
	// Debug forces debug logging regardless of the configured level.
	Debug bool

	// ConfigPath is the optional YAML file loaded on top of the defaults.
	ConfigPath string

	// WatchConfig reloads response headers when ConfigPath changes.
	WatchConfig bool

	// Version is reported by the MCP endpoints.
	Version string

	// LogOutput receives log records. Nil means stdout.
	LogOutput io.Writer

	// Stdin and Stdout carry the protocol in stdio mode. Nil means the
	// process streams.
	Stdin  io.Reader
	Stdout io.Writer

	// Overrides is applied after the file and the environment, so command
	// line flags win.
	Overrides func(*config.Config)

	// OnListen is called once an HTTP listener is bound.
	OnListen func(net.Addr)

	// Settings is populated by NewApplication.
	Settings *config.Config
}

// NewConfig creates a new application configuration
func NewConfig(debug bool, configPath string) *Config {
	return &Config{
		Debug:      debug,
		ConfigPath: configPath,
	}
}

func (c *Config) stdin() io.Reader {
	if c.Stdin == nil {
		return os.Stdin
	}
	return c.Stdin
}

func (c *Config) stdout() io.Writer {
	if c.Stdout == nil {
		return os.Stdout
	}
	return c.Stdout
}
