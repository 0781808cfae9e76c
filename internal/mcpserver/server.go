package mcpserver

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"backlog-mcp/internal/tools"
	"backlog-mcp/pkg/logging"

	"github.com/mark3labs/mcp-go/server"
)

// DefaultName is the server name reported during initialization.
const DefaultName = "backlog"

// Config configures a Server.
type Config struct {
	Name    string
	Version string
	Tools   tools.Options
}

// Server is the Backlog MCP server.
type Server struct {
	mcp       *server.MCPServer
	toolCount int
}

// New builds the server and registers the enabled toolsets.
func New(cfg Config, api tools.Backlog) (*Server, error) {
	if api == nil {
		return nil, errors.New("backlog client is required")
	}
	if cfg.Name == "" {
		cfg.Name = DefaultName
	}

	mcpServer := server.NewMCPServer(
		cfg.Name,
		cfg.Version,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	)

	n, err := tools.Register(mcpServer, api, cfg.Tools)
	if err != nil {
		return nil, err
	}

	return &Server{mcp: mcpServer, toolCount: n}, nil
}

// MCPServer exposes the underlying mcp-go server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

// ToolCount returns how many tools were registered.
func (s *Server) ToolCount() int {
	return s.toolCount
}

// ServeStdio serves line-delimited JSON-RPC on in/out until ctx is done or
// in reaches EOF.
func (s *Server) ServeStdio(ctx context.Context, in io.Reader, out io.Writer) error {
	stdio := server.NewStdioServer(s.mcp)
	stdio.SetErrorLogger(slog.NewLogLogger(logging.Logger().Handler(), slog.LevelError))

	logging.Info("MCPServer", "Serving %d tools over stdio", s.toolCount)
	err := stdio.Listen(ctx, in, out)
	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// Handler returns a stateless streamable HTTP handler mounted at path.
func (s *Server) Handler(path string) http.Handler {
	streamable := server.NewStreamableHTTPServer(s.mcp,
		server.WithStateLess(true),
		server.WithEndpointPath(path),
	)

	mux := http.NewServeMux()
	mux.Handle(path, streamable)
	return mux
}
