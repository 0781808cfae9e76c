package template

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"github.com/Masterminds/sprig/v3"
)

// Engine renders configuration values as Go text templates with the sprig
// function library, e.g. `{{ env "BACKLOG_DOMAIN" }}` or
// `{{ .Port | toString }}`. Values without template delimiters pass through
// unchanged.
type Engine struct {
	data  map[string]interface{}
	funcs template.FuncMap
}

// New creates an engine. Later data maps override earlier ones.
func New(data ...map[string]interface{}) *Engine {
	return &Engine{
		data:  MergeContexts(data...),
		funcs: sprig.TxtFuncMap(),
	}
}

// Render renders a single value.
func (e *Engine) Render(value string) (string, error) {
	if !strings.Contains(value, "{{") {
		return value, nil
	}

	tmpl, err := template.New("value").Funcs(e.funcs).Option("missingkey=error").Parse(value)
	if err != nil {
		return "", fmt.Errorf("invalid template %q: %w", value, err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, e.data); err != nil {
		return "", fmt.Errorf("failed to render %q: %w", value, err)
	}
	return buf.String(), nil
}

// RenderAll renders each element of a slice.
func (e *Engine) RenderAll(values []string) ([]string, error) {
	result := make([]string, len(values))
	for i, v := range values {
		rendered, err := e.Render(v)
		if err != nil {
			return nil, fmt.Errorf("error at index %d: %w", i, err)
		}
		result[i] = rendered
	}
	return result, nil
}

// RenderMap renders every value of a map; keys are left as-is.
func (e *Engine) RenderMap(values map[string]string) (map[string]string, error) {
	result := make(map[string]string, len(values))
	for k, v := range values {
		rendered, err := e.Render(v)
		if err != nil {
			return nil, fmt.Errorf("error in key '%s': %w", k, err)
		}
		result[k] = rendered
	}
	return result, nil
}
