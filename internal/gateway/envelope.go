package gateway

import (
	"encoding/json"
	"net/http"

	"github.com/mark3labs/mcp-go/mcp"
)

// errCodeServer is the JSON-RPC implementation-defined server error used by
// MCP transports for HTTP-level rejections.
const errCodeServer = -32000

const (
	msgInternalError    = "Internal server error"
	msgMethodNotAllowed = "Method not allowed."
)

// errorEnvelope is a JSON-RPC error response without a request id. Field
// order matches what MCP clients commonly log.
type errorEnvelope struct {
	JSONRPC string          `json:"jsonrpc"`
	Error   envelopeError   `json:"error"`
	ID      json.RawMessage `json:"id"`
}

type envelopeError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    string `json:"data,omitempty"`
}

func newEnvelope(code int, message, data string) errorEnvelope {
	return errorEnvelope{
		JSONRPC: mcp.JSONRPC_VERSION,
		Error:   envelopeError{Code: code, Message: message, Data: data},
		ID:      json.RawMessage("null"),
	}
}

func writeEnvelope(w http.ResponseWriter, status, code int, message, data string) {
	body, err := json.Marshal(newEnvelope(code, message, data))
	if err != nil {
		http.Error(w, message, status)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

func writeInternalError(w http.ResponseWriter) {
	writeEnvelope(w, http.StatusInternalServerError, mcp.INTERNAL_ERROR, msgInternalError, "")
}

func writeMethodNotAllowed(w http.ResponseWriter) {
	writeEnvelope(w, http.StatusMethodNotAllowed, errCodeServer, msgMethodNotAllowed, "")
}
