package config

import "time"

// Config is the top-level configuration structure for backlog-mcp.
type Config struct {
	Gateway GatewayConfig `yaml:"gateway"`
	Server  ServerConfig  `yaml:"server"`
	Log     LogConfig     `yaml:"log"`
}

const (
	// TransportStdio serves the MCP server over standard input/output.
	TransportStdio = "stdio"
	// TransportStreamableHTTP serves the MCP server over stateless streamable HTTP.
	TransportStreamableHTTP = "streamable-http"
)

// GatewayConfig configures the stdio-to-streamable-HTTP gateway.
type GatewayConfig struct {
	Host               string `yaml:"host,omitempty"`
	Port               int    `yaml:"port,omitempty"`
	StreamableHTTPPath string `yaml:"streamableHttpPath,omitempty"`

	// Stdio is the worker command line, split with shell quoting rules.
	// Command, when set, is used verbatim and takes precedence.
	Stdio   string            `yaml:"stdio,omitempty"`
	Command []string          `yaml:"command,omitempty"`
	Env     map[string]string `yaml:"env,omitempty"`

	CORSOrigins     []string          `yaml:"corsOrigins,omitempty"`
	HealthEndpoints []string          `yaml:"healthEndpoints,omitempty"`
	Headers         map[string]string `yaml:"headers,omitempty"`

	// JSONResponse answers POSTs with application/json instead of an SSE stream.
	JSONResponse bool `yaml:"jsonResponse,omitempty"`

	// WorkerTimeout bounds one worker's lifetime. Zero disables the bound.
	WorkerTimeout   time.Duration `yaml:"workerTimeout,omitempty"`
	MaxLineBytes    int           `yaml:"maxLineBytes,omitempty"`
	MaxBodyBytes    int64         `yaml:"maxBodyBytes,omitempty"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout,omitempty"`
}

// ServerConfig configures the Backlog MCP server.
type ServerConfig struct {
	Transport string `yaml:"transport,omitempty"`
	Host      string `yaml:"host,omitempty"`
	Port      int    `yaml:"port,omitempty"`
	Path      string `yaml:"path,omitempty"`

	// Domain is the Backlog space host, e.g. "example.backlog.com".
	Domain      string `yaml:"domain,omitempty"`
	APIKey      string `yaml:"apiKey,omitempty"`
	AccessToken string `yaml:"accessToken,omitempty"`

	Prefix          string   `yaml:"prefix,omitempty"`
	EnabledToolsets []string `yaml:"enabledToolsets,omitempty"`
	MaxTokens       int      `yaml:"maxTokens,omitempty"`
}

// LogConfig controls the process logger.
type LogConfig struct {
	Level  string `yaml:"level,omitempty"`
	Format string `yaml:"format,omitempty"`
}
