package mcpserver

import (
	"context"
	"fmt"
	"net/http"

	"backlog-mcp/pkg/logging"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/client/transport"
	"github.com/mark3labs/mcp-go/mcp"
)

// ProbeResult is what a remote endpoint reported.
type ProbeResult struct {
	ServerName      string
	ServerVersion   string
	ProtocolVersion string
	Tools           []mcp.Tool
}

// Probe connects to a streamable HTTP MCP endpoint, performs the handshake
// and lists its tools.
func Probe(ctx context.Context, url string, headers map[string]string, httpClient *http.Client) (*ProbeResult, error) {
	var opts []transport.StreamableHTTPCOption
	if len(headers) > 0 {
		opts = append(opts, transport.WithHTTPHeaders(headers))
	}
	if httpClient != nil {
		opts = append(opts, transport.WithHTTPBasicClient(httpClient))
	}

	logging.Debug("Probe", "Connecting to %s", url)
	mcpClient, err := client.NewStreamableHttpClient(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create streamable HTTP client: %w", err)
	}
	defer mcpClient.Close()

	req := mcp.InitializeRequest{}
	req.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
	req.Params.ClientInfo = mcp.Implementation{
		Name:    "backlog-mcp-probe",
		Version: "1.0.0",
	}

	initResult, err := mcpClient.Initialize(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize MCP protocol: %w", err)
	}

	toolsResult, err := mcpClient.ListTools(ctx, mcp.ListToolsRequest{})
	if err != nil {
		return nil, fmt.Errorf("failed to list tools: %w", err)
	}

	logging.Debug("Probe", "%s %s reported %d tools",
		initResult.ServerInfo.Name, initResult.ServerInfo.Version, len(toolsResult.Tools))

	return &ProbeResult{
		ServerName:      initResult.ServerInfo.Name,
		ServerVersion:   initResult.ServerInfo.Version,
		ProtocolVersion: initResult.ProtocolVersion,
		Tools:           toolsResult.Tools,
	}, nil
}
