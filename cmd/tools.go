package cmd

import (
	"fmt"
	"os"

	"backlog-mcp/internal/formatting"
	"backlog-mcp/internal/tools"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

type toolsOptions struct {
	prefix         string
	enableToolsets []string
	output         string
	quiet          bool
	color          bool
}

func newToolsCmd() *cobra.Command {
	o := &toolsOptions{}

	cmd := &cobra.Command{
		Use:   "tools",
		Short: "List the tools the Backlog MCP server exposes",
		Long: `Lists the tools the Backlog MCP server would register for the given
prefix and toolsets, without contacting Backlog.

Examples:
  backlog-mcp tools
  backlog-mcp tools --enable-toolsets issue,wiki --prefix bl_
  backlog-mcp tools -o json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runToolsCmd(cmd, o)
		},
	}

	f := cmd.Flags()
	f.StringVar(&o.prefix, "prefix", "", "Prefix for every tool name")
	f.StringSliceVar(&o.enableToolsets, "enable-toolsets", nil, "Toolsets to list (default all)")
	f.StringVarP(&o.output, "output", "o", "table", "Output format (table, json, yaml)")
	f.BoolVarP(&o.quiet, "quiet", "q", false, "Suppress non-essential output")
	f.BoolVar(&o.color, "color", stdoutIsTerminal(), "Color table headers (default on for terminals)")

	return cmd
}

func runToolsCmd(cmd *cobra.Command, o *toolsOptions) error {
	formatter, err := formatting.New(formatting.Options{
		Format: formatting.OutputFormat(o.output),
		Quiet:  o.quiet,
		Color:  o.color,
	})
	if err != nil {
		return err
	}

	enabled, err := tools.Enabled(nil, tools.Options{
		Prefix:          o.prefix,
		EnabledToolsets: o.enableToolsets,
	})
	if err != nil {
		return err
	}

	rows := make([]formatting.ToolRow, 0, len(enabled))
	for _, t := range enabled {
		row := formatting.RowsFromTools([]mcp.Tool{t.Tool})[0]
		row.Toolset = t.Toolset
		rows = append(rows, row)
	}

	out, err := formatter.FormatTools(rows)
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), out)
	return nil
}

func stdoutIsTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}
