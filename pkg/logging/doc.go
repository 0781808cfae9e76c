// Package logging provides the subsystem-tagged structured logger used across
// backlog-mcp.
//
// The package wraps Go's standard slog package behind a small printf-style API
// so call sites stay short and every entry carries a subsystem attribute:
//
//	logging.Init(logging.LevelInfo, os.Stderr, logging.FormatText)
//
//	logging.Info("Gateway", "Listening on %s", addr)
//	logging.Debug("Relay", "Worker %d started", pid)
//	logging.Warn("Config", "Unknown header %q ignored", name)
//	logging.Error("Relay", err, "Failed to forward message")
//
// # Output
//
// Init selects the writer and the handler format (text or JSON). When the Backlog
// MCP server runs on stdio, stdout is the protocol channel, so the serve command
// initialises logging on stderr. The gateway logs to stdout unless configured
// otherwise.
//
// # Subsystems
//
//   - Bootstrap: application start-up and shutdown
//   - Config: configuration loading, validation and reloads
//   - Gateway: listener and HTTP routing
//   - Relay: per-request worker sessions
//   - Backlog: REST client
//   - MCPServer: tool registration and serving
//
// The logger is safe for concurrent use; Init may be called more than once.
package logging
