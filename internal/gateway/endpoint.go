package gateway

import (
	"errors"

	"github.com/mark3labs/mcp-go/mcp"
)

// Endpoint is the protocol endpoint a session's transport is bound to. The
// gateway advertises no capabilities of its own; it only relays what the
// worker says.
type Endpoint struct {
	Info         mcp.Implementation
	Capabilities mcp.ServerCapabilities

	transport *StreamableTransport
}

// NewEndpoint creates an endpoint identifying itself as name/version.
func NewEndpoint(name, version string) *Endpoint {
	return &Endpoint{
		Info: mcp.Implementation{
			Name:    name,
			Version: version,
		},
	}
}

// Connect binds the endpoint to t and starts it.
func (e *Endpoint) Connect(t *StreamableTransport) error {
	if e.transport != nil {
		return errors.New("endpoint already connected")
	}
	if err := t.Start(); err != nil {
		return err
	}
	e.transport = t
	return nil
}
