package cmd

import (
	"io"
	"testing"
	"time"

	"backlog-mcp/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseHeaders(t *testing.T) {
	headers, err := parseHeaders([]string{"X-One: 1", "Authorization:Bearer a:b", "X-Empty:"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"X-One":         "1",
		"Authorization": "Bearer a:b",
		"X-Empty":       "",
	}, headers)

	for _, bad := range []string{"no-colon", ": value", "  :x"} {
		_, err := parseHeaders([]string{bad})
		assert.Error(t, err, bad)
	}
}

func TestGatewayOptions_ApplyOnlyChangedFlags(t *testing.T) {
	o := &gatewayOptions{}
	cmd := newGatewayCmdWith(o)
	require.NoError(t, cmd.ParseFlags([]string{
		"--stdio", "node build/index.js",
		"--port", "9001",
		"--health-endpoint", "/health",
		"--health-endpoint", "/ready",
		"--cors", "https://app.example.com",
		"--json-response",
		"--worker-timeout", "30s",
	}))

	g := config.GetDefaultConfig().Gateway
	g.Command = []string{"from", "file"}
	g.StreamableHTTPPath = "/from-file"
	g.Headers = map[string]string{"X-File": "1", "X-Both": "file"}

	o.apply(cmd.Flags(), &g, map[string]string{"X-Both": "flag"})

	assert.Equal(t, "node build/index.js", g.Stdio)
	assert.Nil(t, g.Command, "--stdio replaces a configured command")
	assert.Equal(t, 9001, g.Port)
	assert.Equal(t, "/from-file", g.StreamableHTTPPath, "unset flags keep file values")
	assert.Equal(t, []string{"/health", "/ready"}, g.HealthEndpoints)
	assert.Equal(t, []string{"https://app.example.com"}, g.CORSOrigins)
	assert.True(t, g.JSONResponse)
	assert.Equal(t, 30*time.Second, g.WorkerTimeout)
	assert.Equal(t, map[string]string{"X-File": "1", "X-Both": "flag"}, g.Headers)
}

func TestGatewayCmd_RejectsBadHeader(t *testing.T) {
	cmd := newGatewayCmd()
	cmd.SetArgs([]string{"--stdio", "cat", "--header", "broken"})
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	assert.ErrorContains(t, cmd.Execute(), "invalid header")
}
