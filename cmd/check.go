package cmd

import (
	"context"
	"fmt"
	"time"

	"backlog-mcp/internal/formatting"
	"backlog-mcp/internal/mcpserver"

	"github.com/spf13/cobra"
)

type checkOptions struct {
	url     string
	headers []string
	timeout time.Duration
	output  string
	quiet   bool
	color   bool
}

func newCheckCmd() *cobra.Command {
	o := &checkOptions{}

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Check that a streamable HTTP MCP endpoint answers",
		Long: `Connects to a streamable HTTP MCP endpoint, performs the initialize
handshake and lists its tools. Works against both the gateway and
'serve --transport streamable-http'.

Examples:
  backlog-mcp check
  backlog-mcp check --url http://localhost:8080/mcp -o json
  backlog-mcp check --header "Authorization: Bearer $TOKEN"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheckCmd(cmd, o)
		},
	}

	f := cmd.Flags()
	f.StringVar(&o.url, "url", "http://localhost:8000/mcp", "Endpoint URL")
	f.StringArrayVar(&o.headers, "header", nil, "Request header \"Name: value\", repeatable")
	f.DurationVar(&o.timeout, "timeout", 30*time.Second, "Overall timeout")
	f.StringVarP(&o.output, "output", "o", "table", "Output format (table, json, yaml)")
	f.BoolVarP(&o.quiet, "quiet", "q", false, "Suppress non-essential output")
	f.BoolVar(&o.color, "color", stdoutIsTerminal(), "Color table headers (default on for terminals)")

	return cmd
}

func runCheckCmd(cmd *cobra.Command, o *checkOptions) error {
	headers, err := parseHeaders(o.headers)
	if err != nil {
		return err
	}
	formatter, err := formatting.New(formatting.Options{
		Format: formatting.OutputFormat(o.output),
		Quiet:  o.quiet,
		Color:  o.color,
	})
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	res, err := mcpserver.Probe(ctx, o.url, headers, nil)
	if err != nil {
		return fmt.Errorf("check %s: %w", o.url, err)
	}

	out := cmd.OutOrStdout()
	if !o.quiet && formatting.OutputFormat(o.output) == formatting.FormatTable {
		fmt.Fprintf(out, "Server: %s %s (protocol %s)\n", res.ServerName, res.ServerVersion, res.ProtocolVersion)
	}

	listing, err := formatter.FormatTools(formatting.RowsFromTools(res.Tools))
	if err != nil {
		return err
	}
	fmt.Fprint(out, listing)
	return nil
}
