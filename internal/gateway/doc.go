// Package gateway exposes a stdio MCP server over stateless streamable HTTP.
//
// Every POST to the endpoint gets a fresh worker process. The request body is
// written to the worker's stdin as line-delimited JSON-RPC, and the worker's
// stdout is split into lines, decoded and routed back to the client either as
// server-sent events or as a single JSON body. When the exchange completes,
// the client disconnects or the worker exits, the session is torn down and
// the worker is killed and reaped. Nothing is shared between requests.
//
// The main pieces are:
//
//   - Relay: the HTTP handler, health endpoints and failure boundary
//   - StreamableTransport: stateless MCP streamable HTTP framing for one POST
//   - Worker: the spawned process and its pipes
//   - LineBuffer and DecodeMessage: output splitting and typed decoding
//
// Example:
//
//	relay, err := gateway.NewRelay(gateway.Options{
//		Command: []string{"npx", "-y", "backlog-mcp-server"},
//		Path:    "/mcp",
//	})
//	if err != nil {
//		return err
//	}
//	http.ListenAndServe(":8000", relay.Handler())
package gateway
