package cmd

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"backlog-mcp/internal/backlog"
	"backlog-mcp/internal/mcpserver"
	"backlog-mcp/internal/tools"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMCPEndpoint(t *testing.T) (*httptest.Server, *http.Header) {
	t.Helper()

	client, err := backlog.NewClient(backlog.Config{Domain: "example.backlog.com", APIKey: "key"})
	require.NoError(t, err)
	srv, err := mcpserver.New(mcpserver.Config{Version: "0.0.1", Tools: tools.Options{EnabledToolsets: []string{"git"}}}, client)
	require.NoError(t, err)

	seen := &http.Header{}
	handler := srv.Handler("/mcp")
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*seen = r.Header.Clone()
		handler.ServeHTTP(w, r)
	}))
	t.Cleanup(ts.Close)
	return ts, seen
}

func TestCheckCmd(t *testing.T) {
	ts, seen := newTestMCPEndpoint(t)

	cmd := newCheckCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--url", ts.URL + "/mcp", "--header", "X-Probe: yes"})
	require.NoError(t, cmd.Execute())

	assert.Contains(t, out.String(), "Server: backlog 0.0.1")
	assert.Contains(t, out.String(), "get_pull_requests")
	assert.Contains(t, out.String(), "3 tools")
	assert.Equal(t, "yes", seen.Get("X-Probe"))
}

func TestCheckCmd_QuietYAML(t *testing.T) {
	ts, _ := newTestMCPEndpoint(t)

	cmd := newCheckCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--url", ts.URL + "/mcp", "-o", "yaml", "-q"})
	require.NoError(t, cmd.Execute())

	assert.NotContains(t, out.String(), "Server:")
	assert.Contains(t, out.String(), "name: update_pull_request_comment")
}

func TestCheckCmd_Unreachable(t *testing.T) {
	cmd := newCheckCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--url", "http://127.0.0.1:1/mcp", "--timeout", "2s"})
	assert.Error(t, cmd.Execute())
}
