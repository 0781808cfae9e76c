package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"
)

var (
	ErrNotStarted       = errors.New("transport not started")
	ErrAlreadyStarted   = errors.New("transport already started")
	ErrTransportClosed  = errors.New("transport closed")
	ErrExchangeComplete = errors.New("HTTP exchange already complete")
	ErrUnknownRequestID = errors.New("no pending request with this id")
	ErrNoStream         = errors.New("no open stream for server-initiated message")
	ErrNoResponse       = errors.New("exchange ended before all responses were sent")
)

// TransportOptions configures a StreamableTransport.
type TransportOptions struct {
	// JSONResponse collects all responses into a single application/json
	// body instead of streaming them as server-sent events.
	JSONResponse bool
}

type responseMode int

const (
	modeIdle responseMode = iota
	modeSSE
	modeJSON
	modeDone
)

// StreamableTransport is the HTTP side of one relay session: a stateless MCP
// streamable HTTP transport bound to exactly one POST exchange. No session id
// is generated, returned or checked.
//
// Inbound messages from the HTTP body are handed to the OnMessage observer.
// Send routes outbound messages: responses by request id, everything else
// onto the open event stream. The exchange completes once every request in
// the body has been answered, or when the transport closes.
type StreamableTransport struct {
	opts TransportOptions

	mu        sync.Mutex
	started   bool
	closed    bool
	mode      responseMode
	w         http.ResponseWriter
	batch     bool
	pending   map[string]struct{}
	collected []json.RawMessage
	responded bool

	onMessage func(Message) error
	onClose   func()
	onError   func(error)

	complete     chan struct{}
	completeOnce sync.Once
	closeOnce    sync.Once
}

// NewStreamableTransport creates an unstarted transport.
func NewStreamableTransport(opts TransportOptions) *StreamableTransport {
	return &StreamableTransport{
		opts:     opts,
		complete: make(chan struct{}),
	}
}

// OnMessage registers the observer for messages arriving from the client.
// A returned error is reported through OnError and closes the transport.
func (t *StreamableTransport) OnMessage(fn func(Message) error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onMessage = fn
}

// OnClose registers the observer invoked once when the transport closes.
func (t *StreamableTransport) OnClose(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onClose = fn
}

// OnError registers the observer for transport failures.
func (t *StreamableTransport) OnError(fn func(error)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onError = fn
}

// Start marks the transport ready. It may be called once.
func (t *StreamableTransport) Start() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return ErrTransportClosed
	}
	if t.started {
		return ErrAlreadyStarted
	}
	t.started = true
	return nil
}

// HandleRequest serves one POST exchange and blocks until it completes, the
// transport closes or the request context ends. Client errors (bad headers,
// malformed bodies) are answered directly and return nil. A non-nil error
// means nothing useful reached the client; the caller decides whether an
// error response can still be written.
func (t *StreamableTransport) HandleRequest(w http.ResponseWriter, r *http.Request, body []byte) error {
	t.mu.Lock()
	switch {
	case !t.started:
		t.mu.Unlock()
		return ErrNotStarted
	case t.closed:
		t.mu.Unlock()
		return ErrTransportClosed
	case t.mode != modeIdle:
		t.mu.Unlock()
		return ErrExchangeComplete
	}
	t.mu.Unlock()

	if !acceptsJSONAndEventStream(r.Header.Values("Accept")) {
		writeEnvelope(w, http.StatusNotAcceptable, errCodeServer,
			"Not Acceptable: Client must accept both application/json and text/event-stream", "")
		t.finish()
		return nil
	}
	if !strings.Contains(r.Header.Get("Content-Type"), "application/json") {
		writeEnvelope(w, http.StatusUnsupportedMediaType, errCodeServer,
			"Unsupported Media Type: Content-Type must be application/json", "")
		t.finish()
		return nil
	}

	messages, err := ParseBatch(body)
	if err != nil {
		if errors.Is(err, ErrParse) {
			writeEnvelope(w, http.StatusBadRequest, mcp.PARSE_ERROR, "Parse error", err.Error())
		} else {
			writeEnvelope(w, http.StatusBadRequest, mcp.INVALID_REQUEST, "Invalid Request", err.Error())
		}
		t.finish()
		return nil
	}

	requests := make(map[string]struct{})
	for _, m := range messages {
		if m.Kind == KindRequest {
			requests[m.IDKey()] = struct{}{}
		}
	}

	if len(requests) == 0 {
		t.finish()
		w.WriteHeader(http.StatusAccepted)
		t.deliver(messages)
		return nil
	}

	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return ErrTransportClosed
	}
	t.w = w
	t.pending = requests
	t.batch = bytes.HasPrefix(bytes.TrimSpace(body), []byte("["))
	if t.opts.JSONResponse {
		t.mode = modeJSON
	} else {
		t.mode = modeSSE
		h := w.Header()
		h.Set("Content-Type", "text/event-stream")
		h.Set("Cache-Control", "no-cache")
		h.Set("Connection", "keep-alive")
		w.WriteHeader(http.StatusOK)
		flush(w)
	}
	t.mu.Unlock()

	t.deliver(messages)

	ctx := r.Context()
	select {
	case <-t.complete:
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			t.fail(fmt.Errorf("worker deadline exceeded: %w", ctx.Err()))
		}
		t.Close()
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.completeLocked()
	if t.opts.JSONResponse && !t.responded {
		return fmt.Errorf("%w: %d unanswered", ErrNoResponse, len(t.pending))
	}
	return nil
}

// Send routes one message from the worker to the client.
func (t *StreamableTransport) Send(msg Message) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch {
	case t.closed:
		return ErrTransportClosed
	case !t.started:
		return ErrNotStarted
	case t.mode == modeDone:
		return ErrExchangeComplete
	}

	if !msg.IsResponse() {
		if t.mode != modeSSE {
			return fmt.Errorf("%w: %s %s", ErrNoStream, msg.Kind, msg.Method)
		}
		return t.writeEventLocked(msg.Raw)
	}

	key := msg.IDKey()
	if _, ok := t.pending[key]; !ok || key == "" {
		return fmt.Errorf("%w: %s", ErrUnknownRequestID, displayID(msg.ID))
	}
	delete(t.pending, key)

	switch t.mode {
	case modeSSE:
		if err := t.writeEventLocked(msg.Raw); err != nil {
			return err
		}
	case modeJSON:
		t.collected = append(t.collected, msg.Raw)
	}

	if len(t.pending) == 0 {
		if t.mode == modeJSON {
			if err := t.writeJSONLocked(); err != nil {
				t.completeLocked()
				return err
			}
		}
		t.completeLocked()
	}
	return nil
}

// Close closes the transport and notifies the close observer. It is safe to
// call any number of times.
func (t *StreamableTransport) Close() error {
	t.closeOnce.Do(func() {
		t.mu.Lock()
		t.closed = true
		t.completeLocked()
		fn := t.onClose
		t.mu.Unlock()

		if fn != nil {
			fn()
		}
	})
	return nil
}

// Closed reports whether Close has been called.
func (t *StreamableTransport) Closed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.closed
}

func (t *StreamableTransport) deliver(messages []Message) {
	t.mu.Lock()
	fn := t.onMessage
	t.mu.Unlock()

	if fn == nil {
		return
	}
	for _, m := range messages {
		if err := fn(m); err != nil {
			t.fail(fmt.Errorf("failed to deliver %s: %w", m.Kind, err))
			return
		}
	}
}

func (t *StreamableTransport) fail(err error) {
	t.mu.Lock()
	fn := t.onError
	t.mu.Unlock()

	if fn != nil {
		fn(err)
	}
	t.Close()
}

func (t *StreamableTransport) finish() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.completeLocked()
}

func (t *StreamableTransport) completeLocked() {
	t.mode = modeDone
	t.completeOnce.Do(func() { close(t.complete) })
}

func (t *StreamableTransport) writeEventLocked(raw json.RawMessage) error {
	if _, err := fmt.Fprintf(t.w, "event: message\ndata: %s\n\n", raw); err != nil {
		return fmt.Errorf("failed to write event: %w", err)
	}
	flush(t.w)
	return nil
}

func (t *StreamableTransport) writeJSONLocked() error {
	var body []byte
	var err error
	if !t.batch && len(t.collected) == 1 {
		body = t.collected[0]
	} else {
		body, err = json.Marshal(t.collected)
		if err != nil {
			return fmt.Errorf("failed to encode responses: %w", err)
		}
	}

	t.w.Header().Set("Content-Type", "application/json")
	t.w.WriteHeader(http.StatusOK)
	t.responded = true
	if _, err := t.w.Write(body); err != nil {
		return fmt.Errorf("failed to write response: %w", err)
	}
	return nil
}

func acceptsJSONAndEventStream(values []string) bool {
	accept := strings.Join(values, ",")
	return strings.Contains(accept, "application/json") && strings.Contains(accept, "text/event-stream")
}

func flush(w http.ResponseWriter) {
	_ = http.NewResponseController(w).Flush()
}

func displayID(id json.RawMessage) string {
	if id == nil {
		return "null"
	}
	return string(id)
}
