// Package app bootstraps backlog-mcp and runs its long-lived modes.
//
// # Bootstrap
//
// NewApplication initializes logging, loads the optional YAML file on top of
// the defaults, overlays the server environment variables (BACKLOG_DOMAIN,
// BACKLOG_API_KEY, BACKLOG_ACCESS_TOKEN, PREFIX, ENABLE_TOOLSETS, MAX_TOKENS,
// PORT) and finally applies command line overrides. Later sources win.
//
// # Modes
//
//   - RunGateway serves the stdio gateway: every POST spawns one worker
//     process and relays its line-delimited JSON-RPC output. With
//     WatchConfig the response headers follow edits to the config file.
//   - RunServer serves the Backlog MCP server over stdio or stateless
//     streamable HTTP.
//
// Both HTTP modes listen until the context is done, then shut down within
// the configured timeout and report readiness and stopping to systemd when
// NOTIFY_SOCKET is set.
//
// # Signals
//
// InstallSignalHandlers registers SIGINT and SIGTERM exactly once per
// process and returns the context every mode should run under:
//
//	ctx := app.InstallSignalHandlers()
//	application, err := app.NewApplication(app.NewConfig(debug, configPath))
//	if err != nil {
//	    return err
//	}
//	return application.RunGateway(ctx)
package app
