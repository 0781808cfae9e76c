package cmd

import (
	"fmt"
	"strings"
	"time"

	"backlog-mcp/internal/app"
	"backlog-mcp/internal/config"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

type gatewayOptions struct {
	configPath  string
	watchConfig bool
	debug       bool

	stdio         string
	host          string
	port          int
	path          string
	cors          []string
	health        []string
	headers       []string
	jsonResponse  bool
	workerTimeout time.Duration
	maxLineBytes  int
}

func newGatewayCmd() *cobra.Command {
	return newGatewayCmdWith(&gatewayOptions{})
}

func newGatewayCmdWith(o *gatewayOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gateway",
		Short: "Serve a stdio MCP server over stateless streamable HTTP",
		Long: `Serves a stdio MCP server over stateless streamable HTTP.

Every POST to the endpoint spawns a fresh worker process running the --stdio
command, forwards the request body to its stdin and relays each JSON line it
prints back as the HTTP response. The worker is terminated when the exchange
completes or the client disconnects. GET and DELETE are answered with 405.

Examples:
  backlog-mcp gateway --stdio "backlog-mcp serve"
  backlog-mcp gateway --stdio "node build/index.js" --port 8000 \
      --health-endpoint /health --header "X-Service: backlog"
  backlog-mcp gateway --config gateway.yaml --watch-config`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGatewayCmd(cmd, o)
		},
	}

	f := cmd.Flags()
	f.StringVar(&o.configPath, "config", "", "Path to a YAML configuration file")
	f.BoolVar(&o.watchConfig, "watch-config", false, "Reload response headers when the configuration file changes")
	f.BoolVar(&o.debug, "debug", false, "Enable debug logging and forward worker stderr")
	f.StringVar(&o.stdio, "stdio", "", "Worker command line, split with shell quoting rules")
	f.StringVar(&o.host, "host", "", "Address to bind (default all interfaces)")
	f.IntVar(&o.port, "port", config.DefaultGatewayPort, "Port to listen on")
	f.StringVar(&o.path, "streamable-http-path", config.DefaultStreamableHTTPPath, "Path of the streamable HTTP endpoint")
	f.StringArrayVar(&o.cors, "cors", nil, "Allowed CORS origin, repeatable (\"*\" allows any)")
	f.StringArrayVar(&o.health, "health-endpoint", nil, "Path answering GET with \"ok\", repeatable")
	f.StringArrayVar(&o.headers, "header", nil, "Extra response header \"Name: value\", repeatable")
	f.BoolVar(&o.jsonResponse, "json-response", false, "Answer with application/json instead of an event stream")
	f.DurationVar(&o.workerTimeout, "worker-timeout", 0, "Bound on one worker's lifetime (0 disables)")
	f.IntVar(&o.maxLineBytes, "max-line-bytes", config.DefaultMaxLineBytes, "Largest accepted line of worker output")

	return cmd
}

func runGatewayCmd(cmd *cobra.Command, o *gatewayOptions) error {
	headers, err := parseHeaders(o.headers)
	if err != nil {
		return err
	}

	cfg := app.NewConfig(o.debug, o.configPath)
	cfg.WatchConfig = o.watchConfig
	cfg.Version = GetVersion()
	cfg.LogOutput = cmd.OutOrStdout()
	flags := cmd.Flags()
	cfg.Overrides = func(c *config.Config) {
		o.apply(flags, &c.Gateway, headers)
	}

	application, err := app.NewApplication(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	return application.RunGateway(app.InstallSignalHandlers())
}

// apply copies the flags the user set onto g. Unset flags leave the file's
// values alone; headers are merged by name.
func (o *gatewayOptions) apply(flags *pflag.FlagSet, g *config.GatewayConfig, headers map[string]string) {
	if flags.Changed("stdio") {
		g.Stdio = o.stdio
		g.Command = nil
	}
	if flags.Changed("host") {
		g.Host = o.host
	}
	if flags.Changed("port") {
		g.Port = o.port
	}
	if flags.Changed("streamable-http-path") {
		g.StreamableHTTPPath = o.path
	}
	if flags.Changed("cors") {
		g.CORSOrigins = o.cors
	}
	if flags.Changed("health-endpoint") {
		g.HealthEndpoints = o.health
	}
	if flags.Changed("json-response") {
		g.JSONResponse = o.jsonResponse
	}
	if flags.Changed("worker-timeout") {
		g.WorkerTimeout = o.workerTimeout
	}
	if flags.Changed("max-line-bytes") {
		g.MaxLineBytes = o.maxLineBytes
	}
	if len(headers) > 0 {
		if g.Headers == nil {
			g.Headers = make(map[string]string, len(headers))
		}
		for k, v := range headers {
			g.Headers[k] = v
		}
	}
}

// parseHeaders parses "Name: value" pairs.
func parseHeaders(raw []string) (map[string]string, error) {
	headers := make(map[string]string, len(raw))
	for _, h := range raw {
		name, value, ok := strings.Cut(h, ":")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid header %q, expected \"Name: value\"", h)
		}
		headers[name] = strings.TrimSpace(value)
	}
	return headers, nil
}
