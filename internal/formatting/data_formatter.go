package formatting

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// JSONFormatter provides structured JSON output formatting
type JSONFormatter struct{}

// FormatTools renders rows as an indented JSON document.
func (f *JSONFormatter) FormatTools(rows []ToolRow) (string, error) {
	if rows == nil {
		rows = []ToolRow{}
	}
	return PrettyJSON(map[string]any{"tools": rows, "count": len(rows)}) + "\n", nil
}

// YAMLFormatter provides YAML output formatting
type YAMLFormatter struct{}

// FormatTools renders rows as a YAML list.
func (f *YAMLFormatter) FormatTools(rows []ToolRow) (string, error) {
	if rows == nil {
		rows = []ToolRow{}
	}
	b, err := yaml.Marshal(rows)
	if err != nil {
		return "", fmt.Errorf("failed to encode tools: %w", err)
	}
	return string(b), nil
}
