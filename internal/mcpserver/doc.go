// Package mcpserver runs the Backlog MCP server and talks to remote MCP
// endpoints.
//
// Server wraps an mcp-go server with the enabled Backlog toolsets registered.
// It serves either over stdio, which is how the gateway spawns it as a
// worker, or over mcp-go's own stateless streamable HTTP transport.
//
// Probe is a small streamable HTTP client used to check that a running
// gateway or server answers the MCP handshake and lists its tools.
package mcpserver
