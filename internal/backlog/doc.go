// Package backlog is a small client for the Backlog REST API (v2).
//
// It covers the endpoints exposed as MCP tools: issues and their comments,
// wiki pages, and Git pull requests. Payloads are returned undecoded as
// json.RawMessage so tool handlers can relay them as-is.
//
// Authentication uses either an API key, sent as the apiKey query parameter,
// or an OAuth 2.0 access token sent as a bearer token.
package backlog
