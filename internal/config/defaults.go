package config

import "time"

const (
	DefaultGatewayPort        = 8000
	DefaultStreamableHTTPPath = "/mcp"
	DefaultMaxLineBytes       = 4 << 20
	DefaultMaxBodyBytes       = 4 << 20
	DefaultShutdownTimeout    = 10 * time.Second

	DefaultServerPort = 8080
	DefaultMaxTokens  = 50000
)

// ToolsetAll enables every toolset.
const ToolsetAll = "all"

// GetDefaultConfig returns the configuration used when no file is given.
func GetDefaultConfig() Config {
	return Config{
		Gateway: GatewayConfig{
			Port:               DefaultGatewayPort,
			StreamableHTTPPath: DefaultStreamableHTTPPath,
			MaxLineBytes:       DefaultMaxLineBytes,
			MaxBodyBytes:       DefaultMaxBodyBytes,
			ShutdownTimeout:    DefaultShutdownTimeout,
		},
		Server: ServerConfig{
			Transport:       TransportStdio,
			Port:            DefaultServerPort,
			Path:            DefaultStreamableHTTPPath,
			EnabledToolsets: []string{ToolsetAll},
			MaxTokens:       DefaultMaxTokens,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}
