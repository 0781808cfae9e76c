package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"backlog-mcp/internal/template"
	"backlog-mcp/pkg/logging"

	"github.com/mattn/go-shellwords"
	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

// LoadConfig reads the YAML file at configPath on top of the defaults. Files
// ending in .json or .jsonc may be JSON with comments. An empty path or a
// missing file yields the defaults.
func LoadConfig(configPath string) (Config, error) {
	config := GetDefaultConfig()
	if configPath == "" {
		return config, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logging.Info("ConfigLoader", "No config found at %s, using defaults", configPath)
			return config, nil
		}
		return Config{}, fmt.Errorf("error reading config from %s: %w", configPath, err)
	}

	// JSON is valid YAML once comments and trailing commas are gone.
	if ext := filepath.Ext(configPath); ext == ".json" || ext == ".jsonc" {
		data = jsonc.ToJSON(data)
	}

	if err := yaml.Unmarshal(data, &config); err != nil {
		return Config{}, fmt.Errorf("error loading config from %s: %w", configPath, err)
	}

	logging.Info("ConfigLoader", "Loaded configuration from %s", configPath)
	return config, nil
}

// WorkerArgv returns the worker command line with templates rendered.
// Command wins over Stdio when both are set.
func (g GatewayConfig) WorkerArgv(engine *template.Engine) ([]string, error) {
	argv := g.Command
	if len(argv) == 0 && g.Stdio != "" {
		parsed, err := shellwords.Parse(g.Stdio)
		if err != nil {
			return nil, fmt.Errorf("invalid stdio command %q: %w", g.Stdio, err)
		}
		argv = parsed
	}
	if len(argv) == 0 {
		return nil, ValidationError{Field: "gateway.stdio", Message: "a worker command is required"}
	}
	return engine.RenderAll(argv)
}

// WorkerEnv returns the extra worker environment as KEY=VALUE pairs with
// values rendered.
func (g GatewayConfig) WorkerEnv(engine *template.Engine) ([]string, error) {
	rendered, err := engine.RenderMap(g.Env)
	if err != nil {
		return nil, err
	}
	env := make([]string, 0, len(rendered))
	for k, v := range rendered {
		env = append(env, k+"="+v)
	}
	return env, nil
}

// ResponseHeaders returns the configured extra headers with values rendered.
func (g GatewayConfig) ResponseHeaders(engine *template.Engine) (map[string]string, error) {
	return engine.RenderMap(g.Headers)
}
