package gateway

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

var (
	// ErrParse reports bytes that are not JSON at all.
	ErrParse = errors.New("parse error")
	// ErrInvalidMessage reports JSON that is not a JSON-RPC 2.0 message.
	ErrInvalidMessage = errors.New("invalid JSON-RPC message")
)

// MessageKind classifies a decoded JSON-RPC message.
type MessageKind int

const (
	KindRequest MessageKind = iota + 1
	KindNotification
	KindResponse
	KindError
)

func (k MessageKind) String() string {
	switch k {
	case KindRequest:
		return "request"
	case KindNotification:
		return "notification"
	case KindResponse:
		return "response"
	case KindError:
		return "error"
	default:
		return "unknown"
	}
}

// Message is one validated JSON-RPC message. Raw holds the compacted wire
// form, which is what gets relayed; the other fields exist for routing.
type Message struct {
	Kind   MessageKind
	ID     json.RawMessage
	Method string
	Raw    json.RawMessage
}

// IsResponse reports whether the message answers a request.
func (m Message) IsResponse() bool {
	return m.Kind == KindResponse || m.Kind == KindError
}

// IDKey is the key used to correlate a response with its request.
// It is empty for notifications and for null ids.
func (m Message) IDKey() string {
	return string(m.ID)
}

// MarshalJSON relays the message unchanged.
func (m Message) MarshalJSON() ([]byte, error) {
	return m.Raw, nil
}

type wireMessage struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Method  *string         `json:"method"`
	Result  json.RawMessage `json:"result"`
	Error   json.RawMessage `json:"error"`
}

// DecodeMessage decodes one JSON-RPC message. It never panics on malformed
// input; errors wrap ErrParse or ErrInvalidMessage.
func DecodeMessage(data []byte) (Message, error) {
	data = bytes.TrimSpace(data)
	if !json.Valid(data) {
		return Message{}, fmt.Errorf("%w: not valid JSON", ErrParse)
	}

	var compact bytes.Buffer
	if err := json.Compact(&compact, data); err != nil {
		return Message{}, fmt.Errorf("%w: %v", ErrParse, err)
	}

	var w wireMessage
	if err := json.Unmarshal(compact.Bytes(), &w); err != nil {
		return Message{}, fmt.Errorf("%w: %v", ErrInvalidMessage, err)
	}
	if w.JSONRPC != mcp.JSONRPC_VERSION {
		return Message{}, fmt.Errorf("%w: jsonrpc must be %q", ErrInvalidMessage, mcp.JSONRPC_VERSION)
	}

	id := normalizeID(w.ID)
	if id != nil && !validID(id) {
		return Message{}, fmt.Errorf("%w: id must be a string or number", ErrInvalidMessage)
	}

	msg := Message{ID: id, Raw: json.RawMessage(compact.Bytes())}

	hasResult := len(w.Result) > 0
	hasError := len(w.Error) > 0 && string(w.Error) != "null"

	switch {
	case w.Method != nil:
		if *w.Method == "" {
			return Message{}, fmt.Errorf("%w: empty method", ErrInvalidMessage)
		}
		if hasResult || hasError {
			return Message{}, fmt.Errorf("%w: request carries result or error", ErrInvalidMessage)
		}
		msg.Method = *w.Method
		if id != nil {
			msg.Kind = KindRequest
		} else {
			msg.Kind = KindNotification
		}
	case hasResult && hasError:
		return Message{}, fmt.Errorf("%w: both result and error present", ErrInvalidMessage)
	case hasResult:
		if id == nil {
			return Message{}, fmt.Errorf("%w: response without id", ErrInvalidMessage)
		}
		msg.Kind = KindResponse
	case hasError:
		msg.Kind = KindError
	default:
		return Message{}, fmt.Errorf("%w: neither method, result nor error", ErrInvalidMessage)
	}

	return msg, nil
}

// ParseBatch decodes an HTTP body holding a single message or a non-empty
// batch array.
func ParseBatch(body []byte) ([]Message, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return nil, fmt.Errorf("%w: empty body", ErrParse)
	}

	if body[0] != '[' {
		msg, err := DecodeMessage(body)
		if err != nil {
			return nil, err
		}
		return []Message{msg}, nil
	}

	var items []json.RawMessage
	if err := json.Unmarshal(body, &items); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: empty batch", ErrInvalidMessage)
	}

	messages := make([]Message, 0, len(items))
	for i, item := range items {
		msg, err := DecodeMessage(item)
		if err != nil {
			return nil, fmt.Errorf("batch item %d: %w", i, err)
		}
		messages = append(messages, msg)
	}
	return messages, nil
}

func normalizeID(raw json.RawMessage) json.RawMessage {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	return raw
}

func validID(id json.RawMessage) bool {
	switch c := id[0]; {
	case c == '"':
		return true
	case c == '-' || (c >= '0' && c <= '9'):
		return true
	default:
		return false
	}
}
