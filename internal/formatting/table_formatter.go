package formatting

import (
	"fmt"
	"strings"

	textutil "backlog-mcp/pkg/strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// TableFormatter provides rich table output formatting
type TableFormatter struct {
	options Options
}

// FormatTools renders rows as a rounded table with a total line.
func (f *TableFormatter) FormatTools(rows []ToolRow) (string, error) {
	if len(rows) == 0 {
		return f.formatEmptyMessage("No tools found"), nil
	}

	t := f.createTable()
	t.AppendHeader(table.Row{
		f.header("NAME"),
		f.header("TOOLSET"),
		f.header("READ-ONLY"),
		f.header("DESCRIPTION"),
	})

	for _, r := range rows {
		toolset := r.Toolset
		if toolset == "" {
			toolset = "-"
		}
		readOnly := "no"
		if r.ReadOnly {
			readOnly = "yes"
		}
		t.AppendRow(table.Row{r.Name, toolset, readOnly, textutil.Truncate(r.Description, textutil.DefaultDescriptionMaxLen)})
	}

	var b strings.Builder
	b.WriteString(t.Render())
	b.WriteString("\n")
	if !f.options.Quiet {
		fmt.Fprintf(&b, "\n%s %d tools\n", f.paint(text.FgHiBlue, "Total:"), len(rows))
	}
	return b.String(), nil
}

// createTable creates a new table with standard styling
func (f *TableFormatter) createTable() table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	return t
}

func (f *TableFormatter) header(s string) string {
	return f.paint(text.FgHiCyan, s)
}

func (f *TableFormatter) paint(c text.Color, s string) string {
	if !f.options.Color {
		return s
	}
	return c.Sprint(s)
}

// formatEmptyMessage formats empty result messages
func (f *TableFormatter) formatEmptyMessage(message string) string {
	return f.paint(text.FgYellow, message) + "\n"
}
