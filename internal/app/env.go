package app

import (
	"fmt"
	"strconv"
	"strings"

	"backlog-mcp/internal/config"
)

// Environment variables read by the server mode.
const (
	EnvDomain         = "BACKLOG_DOMAIN"
	EnvAPIKey         = "BACKLOG_API_KEY"
	EnvAccessToken    = "BACKLOG_ACCESS_TOKEN"
	EnvPrefix         = "PREFIX"
	EnvEnableToolsets = "ENABLE_TOOLSETS"
	EnvMaxTokens      = "MAX_TOKENS"
	EnvPort           = "PORT"
)

// ApplyServerEnv overlays non-empty environment values onto s.
func ApplyServerEnv(s *config.ServerConfig, lookup func(string) (string, bool)) error {
	get := func(key string) (string, bool) {
		v, ok := lookup(key)
		if !ok || strings.TrimSpace(v) == "" {
			return "", false
		}
		return strings.TrimSpace(v), true
	}

	if v, ok := get(EnvDomain); ok {
		s.Domain = v
	}
	if v, ok := get(EnvAPIKey); ok {
		s.APIKey = v
	}
	if v, ok := get(EnvAccessToken); ok {
		s.AccessToken = v
	}
	if v, ok := get(EnvPrefix); ok {
		s.Prefix = v
	}
	if v, ok := get(EnvEnableToolsets); ok {
		s.EnabledToolsets = SplitList(v)
	}
	if v, ok := get(EnvMaxTokens); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", EnvMaxTokens, v, err)
		}
		s.MaxTokens = n
	}
	if v, ok := get(EnvPort); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", EnvPort, v, err)
		}
		s.Port = n
	}
	return nil
}

// SplitList splits a comma separated list, dropping empty items.
func SplitList(v string) []string {
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
