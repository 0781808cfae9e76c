// Package formatting renders tool listings for the CLI as tables, JSON or
// YAML.
package formatting

import (
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

// OutputFormat represents the desired output format
type OutputFormat string

const (
	FormatTable OutputFormat = "table" // Rich table output
	FormatJSON  OutputFormat = "json"  // JSON output
	FormatYAML  OutputFormat = "yaml"  // YAML output
)

// Options configures the formatter behavior
type Options struct {
	Format OutputFormat
	Quiet  bool // Suppress decorative elements
	Color  bool // Enable colored output
}

// ToolRow is one line of a tool listing.
type ToolRow struct {
	Name        string `json:"name" yaml:"name"`
	Toolset     string `json:"toolset,omitempty" yaml:"toolset,omitempty"`
	ReadOnly    bool   `json:"readOnly" yaml:"readOnly"`
	Description string `json:"description" yaml:"description"`
}

// Formatter renders tool listings.
type Formatter interface {
	FormatTools(rows []ToolRow) (string, error)
}

// New returns the formatter for options.Format.
func New(options Options) (Formatter, error) {
	switch options.Format {
	case FormatTable, "":
		return &TableFormatter{options: options}, nil
	case FormatJSON:
		return &JSONFormatter{}, nil
	case FormatYAML:
		return &YAMLFormatter{}, nil
	default:
		return nil, fmt.Errorf("unsupported output format %q (use table, json or yaml)", options.Format)
	}
}

// RowsFromTools converts MCP tool definitions into rows. The toolset column is
// left empty since remote servers do not report it.
func RowsFromTools(tools []mcp.Tool) []ToolRow {
	rows := make([]ToolRow, 0, len(tools))
	for _, t := range tools {
		rows = append(rows, ToolRow{
			Name:        t.Name,
			ReadOnly:    t.Annotations.ReadOnlyHint != nil && *t.Annotations.ReadOnlyHint,
			Description: t.Description,
		})
	}
	return rows
}
