package gateway

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"backlog-mcp/pkg/logging"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/rs/cors"
)

const endpointName = "backlog-mcp-gateway"

// Options configures a Relay.
type Options struct {
	// Command is the worker argv. Command[0] is the executable.
	Command []string
	// Env is appended to the gateway's environment for every worker.
	Env []string
	// Path is the MCP endpoint path, e.g. "/mcp".
	Path string
	// HealthEndpoints answer GET with "ok".
	HealthEndpoints []string
	// Headers are set on health responses.
	Headers map[string]string
	// CORSOrigins enables CORS for the listed origins. "*" allows any.
	CORSOrigins []string
	// JSONResponse answers requests with an application/json body instead of
	// an event stream.
	JSONResponse bool
	// WorkerTimeout bounds one exchange. Zero means no limit.
	WorkerTimeout time.Duration
	// MaxLineBytes caps a single line of worker output.
	MaxLineBytes int
	// MaxBodyBytes caps the request body.
	MaxBodyBytes int64
	// Version is reported by the protocol endpoint.
	Version string
	// Stderr receives worker error output. Nil discards it.
	Stderr io.Writer
}

// Relay bridges stateless streamable HTTP to a stdio worker, spawning one
// worker per POST.
type Relay struct {
	opts    Options
	headers atomic.Pointer[map[string]string]
	active  atomic.Int64

	newTransport func(TransportOptions) *StreamableTransport
	startWorker  func(WorkerSpec) (*Worker, error)
}

// NewRelay validates opts and creates a relay.
func NewRelay(opts Options) (*Relay, error) {
	if len(opts.Command) == 0 || opts.Command[0] == "" {
		return nil, errors.New("worker command is required")
	}
	if opts.Path == "" {
		opts.Path = "/mcp"
	}
	if opts.MaxLineBytes <= 0 {
		opts.MaxLineBytes = 4 << 20
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = 4 << 20
	}

	r := &Relay{
		opts:         opts,
		newTransport: NewStreamableTransport,
		startWorker:  StartWorker,
	}
	r.SetHeaders(opts.Headers)
	return r, nil
}

// SetHeaders replaces the headers applied to health responses. Safe for
// concurrent use with serving.
func (r *Relay) SetHeaders(headers map[string]string) {
	cp := make(map[string]string, len(headers))
	for k, v := range headers {
		cp[k] = v
	}
	r.headers.Store(&cp)
}

// ActiveSessions returns the number of sessions currently relaying.
func (r *Relay) ActiveSessions() int64 {
	return r.active.Load()
}

// Handler returns the HTTP handler serving the endpoint and health paths.
func (r *Relay) Handler() http.Handler {
	health := make(map[string]bool, len(r.opts.HealthEndpoints))
	for _, ep := range r.opts.HealthEndpoints {
		health[ep] = true
	}

	// Paths are compared verbatim, never compiled as ServeMux patterns.
	var h http.Handler = http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		switch {
		case req.URL.Path == r.opts.Path:
			if req.Method == http.MethodPost {
				r.handlePost(w, req)
				return
			}
			logging.Debug("Relay", "Rejecting %s %s", req.Method, req.URL.Path)
			writeMethodNotAllowed(w)
		case health[req.URL.Path]:
			if req.Method != http.MethodGet && req.Method != http.MethodHead {
				w.Header().Set("Allow", "GET, HEAD")
				http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
				return
			}
			r.handleHealth(w, req)
		default:
			http.NotFound(w, req)
		}
	})

	if len(r.opts.CORSOrigins) == 0 {
		return h
	}
	return cors.New(cors.Options{
		AllowedOrigins: r.opts.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"*"},
		ExposedHeaders: []string{"Mcp-Session-Id"},
	}).Handler(h)
}

func (r *Relay) handleHealth(w http.ResponseWriter, _ *http.Request) {
	for k, v := range *r.headers.Load() {
		w.Header().Set(k, v)
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, "ok")
}

func (r *Relay) handlePost(rw http.ResponseWriter, req *http.Request) {
	w := &trackingWriter{ResponseWriter: rw}
	id := uuid.NewString()

	defer func() {
		if p := recover(); p != nil {
			r.fail(w, id, fmt.Errorf("panic: %v", p))
		}
	}()

	body, err := io.ReadAll(http.MaxBytesReader(w, req.Body, r.opts.MaxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeEnvelope(w, http.StatusRequestEntityTooLarge, mcp.INVALID_REQUEST, "Request body too large", "")
			return
		}
		r.fail(w, id, fmt.Errorf("failed to read request body: %w", err))
		return
	}

	transport := r.newTransport(TransportOptions{JSONResponse: r.opts.JSONResponse})
	endpoint := NewEndpoint(endpointName, r.opts.Version)
	if err := endpoint.Connect(transport); err != nil {
		r.fail(w, id, fmt.Errorf("failed to connect endpoint: %w", err))
		return
	}

	worker, err := r.startWorker(WorkerSpec{
		Command: r.opts.Command[0],
		Args:    r.opts.Command[1:],
		Env:     r.opts.Env,
		Stderr:  r.opts.Stderr,
	})
	if err != nil {
		transport.Close()
		r.fail(w, id, err)
		return
	}
	logging.Debug("Relay", "Session %s spawned worker %d", id, worker.PID())

	s := newSession(id, worker, transport, r.opts.MaxLineBytes)
	r.active.Add(1)
	defer func() {
		s.terminate()
		r.active.Add(-1)
	}()
	s.start()

	ctx := req.Context()
	if r.opts.WorkerTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.opts.WorkerTimeout)
		defer cancel()
	}

	if err := transport.HandleRequest(w, req.WithContext(ctx), body); err != nil {
		r.fail(w, id, err)
	}
}

// fail writes the internal error envelope unless a response is already under
// way, in which case the error is only logged.
func (r *Relay) fail(w *trackingWriter, id string, err error) {
	if w.wroteHeader {
		logging.Error("Relay", err, "Session %s failed after response started", id)
		return
	}
	logging.Error("Relay", err, "Session %s failed", id)
	writeInternalError(w)
}

// trackingWriter records whether the status line has been written.
type trackingWriter struct {
	http.ResponseWriter
	wroteHeader bool
}

func (w *trackingWriter) WriteHeader(code int) {
	w.wroteHeader = true
	w.ResponseWriter.WriteHeader(code)
}

func (w *trackingWriter) Write(b []byte) (int, error) {
	w.wroteHeader = true
	return w.ResponseWriter.Write(b)
}

func (w *trackingWriter) Flush() {
	_ = http.NewResponseController(w.ResponseWriter).Flush()
}

func (w *trackingWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
