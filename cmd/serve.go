package cmd

import (
	"fmt"

	"backlog-mcp/internal/app"
	"backlog-mcp/internal/config"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

type serveOptions struct {
	configPath string
	debug      bool

	transport      string
	host           string
	port           int
	path           string
	prefix         string
	enableToolsets []string
	maxTokens      int
}

func newServeCmd() *cobra.Command {
	return newServeCmdWith(&serveOptions{})
}

func newServeCmdWith(o *serveOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the Backlog MCP server",
		Long: `Runs the Backlog MCP server over stdio (default) or stateless streamable HTTP.

Credentials and defaults are read from the environment:
  BACKLOG_DOMAIN        Backlog space host, e.g. example.backlog.com (required)
  BACKLOG_API_KEY       API key
  BACKLOG_ACCESS_TOKEN  OAuth 2.0 access token, used instead of the API key
  PREFIX                Prefix for every tool name
  ENABLE_TOOLSETS       Comma separated toolsets (issue, wiki, git or all)
  MAX_TOKENS            Response budget per tool call
  PORT                  Port for --transport streamable-http

Flags override the environment, which overrides the configuration file.
Logs are written to stderr.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServeCmd(cmd, o)
		},
	}

	f := cmd.Flags()
	f.StringVar(&o.configPath, "config", "", "Path to a YAML configuration file")
	f.BoolVar(&o.debug, "debug", false, "Enable debug logging")
	f.StringVar(&o.transport, "transport", config.TransportStdio, "Transport: stdio or streamable-http")
	f.StringVar(&o.host, "host", "", "Address to bind for streamable-http")
	f.IntVar(&o.port, "port", config.DefaultServerPort, "Port for streamable-http")
	f.StringVar(&o.path, "path", config.DefaultStreamableHTTPPath, "Endpoint path for streamable-http")
	f.StringVar(&o.prefix, "prefix", "", "Prefix for every tool name")
	f.StringSliceVar(&o.enableToolsets, "enable-toolsets", []string{config.ToolsetAll}, "Toolsets to enable")
	f.IntVar(&o.maxTokens, "max-tokens", config.DefaultMaxTokens, "Response budget per tool call, in estimated tokens")

	return cmd
}

func runServeCmd(cmd *cobra.Command, o *serveOptions) error {
	cfg := app.NewConfig(o.debug, o.configPath)
	cfg.Version = GetVersion()
	cfg.LogOutput = cmd.ErrOrStderr()
	flags := cmd.Flags()
	cfg.Overrides = func(c *config.Config) {
		o.apply(flags, &c.Server)
	}

	application, err := app.NewApplication(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	return application.RunServer(app.InstallSignalHandlers())
}

func (o *serveOptions) apply(flags *pflag.FlagSet, s *config.ServerConfig) {
	if flags.Changed("transport") {
		s.Transport = o.transport
	}
	if flags.Changed("host") {
		s.Host = o.host
	}
	if flags.Changed("port") {
		s.Port = o.port
	}
	if flags.Changed("path") {
		s.Path = o.path
	}
	if flags.Changed("prefix") {
		s.Prefix = o.prefix
	}
	if flags.Changed("enable-toolsets") {
		s.EnabledToolsets = o.enableToolsets
	}
	if flags.Changed("max-tokens") {
		s.MaxTokens = o.maxTokens
	}
}
