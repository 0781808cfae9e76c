package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"backlog-mcp/internal/mcpserver"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	wantMethodNotAllowed = `{"jsonrpc":"2.0","error":{"code":-32000,"message":"Method not allowed."},"id":null}`
	wantInternalError    = `{"jsonrpc":"2.0","error":{"code":-32603,"message":"Internal server error"},"id":null}`
)

type testRelay struct {
	*Relay
	server  *httptest.Server
	spawned atomic.Int32
	pids    chan int
}

func newTestRelay(t *testing.T, mode string, configure func(*Options)) *testRelay {
	t.Helper()
	argv, env := testWorkerCommand(mode)
	opts := Options{
		Command:         argv,
		Env:             env,
		Path:            "/mcp",
		HealthEndpoints: []string{"/healthz"},
		Headers:         map[string]string{"X-Gateway": "backlog"},
		Version:         "test",
	}
	if configure != nil {
		configure(&opts)
	}

	r, err := NewRelay(opts)
	require.NoError(t, err)

	tr := &testRelay{Relay: r, pids: make(chan int, 64)}
	r.startWorker = func(spec WorkerSpec) (*Worker, error) {
		w, err := StartWorker(spec)
		if err == nil {
			tr.spawned.Add(1)
			tr.pids <- w.PID()
		}
		return w, err
	}

	tr.server = httptest.NewServer(r.Handler())
	t.Cleanup(tr.server.Close)
	return tr
}

func (tr *testRelay) post(t *testing.T, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, tr.server.URL+"/mcp", strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Accept", "application/json, text/event-stream")
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(b)
}

// sseData returns the data payloads of every event in an SSE body.
func sseData(body string) []string {
	var out []string
	for _, line := range strings.Split(body, "\n") {
		if data, ok := strings.CutPrefix(line, "data: "); ok {
			out = append(out, data)
		}
	}
	return out
}

type echoResult struct {
	ID     json.RawMessage `json:"id"`
	Result struct {
		Method string          `json:"method"`
		Params json.RawMessage `json:"params"`
		PID    int             `json:"pid"`
	} `json:"result"`
}

func TestNewRelay_RequiresCommand(t *testing.T) {
	_, err := NewRelay(Options{})
	assert.Error(t, err)

	_, err = NewRelay(Options{Command: []string{""}})
	assert.Error(t, err)
}

func TestRelay_RoundTripSSE(t *testing.T) {
	tr := newTestRelay(t, "echo", nil)

	resp := tr.post(t, `{"jsonrpc":"2.0","id":1,"method":"tools/list","params":{"cursor":"a"}}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	body := readBody(t, resp)
	events := sseData(body)
	require.Len(t, events, 1)

	var res echoResult
	require.NoError(t, json.Unmarshal([]byte(events[0]), &res))
	assert.Equal(t, "1", string(res.ID))
	assert.Equal(t, "tools/list", res.Result.Method)
	assert.JSONEq(t, `{"cursor":"a"}`, string(res.Result.Params))
	assert.NotContains(t, body, "diagnostics")
}

func TestRelay_RoundTripJSON(t *testing.T) {
	tr := newTestRelay(t, "echo", func(o *Options) { o.JSONResponse = true })

	resp := tr.post(t, `[{"jsonrpc":"2.0","id":"a","method":"ping"},{"jsonrpc":"2.0","id":"b","method":"tools/list"}]`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var results []echoResult
	require.NoError(t, json.Unmarshal([]byte(readBody(t, resp)), &results))
	require.Len(t, results, 2)
	methods := map[string]string{}
	for _, r := range results {
		methods[string(r.ID)] = r.Result.Method
	}
	assert.Equal(t, map[string]string{`"a"`: "ping", `"b"`: "tools/list"}, methods)
}

func TestRelay_NotificationOnlyBody(t *testing.T) {
	tr := newTestRelay(t, "echo", nil)

	resp := tr.post(t, `{"jsonrpc":"2.0","method":"notifications/initialized"}`)

	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
	assert.Equal(t, int32(1), tr.spawned.Load())
	assert.Eventually(t, func() bool { return tr.ActiveSessions() == 0 }, 5*time.Second, 10*time.Millisecond)
}

func TestRelay_OneWorkerPerRequest(t *testing.T) {
	tr := newTestRelay(t, "echo", nil)

	const n = 5
	seen := map[int]bool{}
	for i := 0; i < n; i++ {
		resp := tr.post(t, fmt.Sprintf(`{"jsonrpc":"2.0","id":%d,"method":"ping"}`, i))
		events := sseData(readBody(t, resp))
		require.Len(t, events, 1)

		var res echoResult
		require.NoError(t, json.Unmarshal([]byte(events[0]), &res))
		seen[res.Result.PID] = true
	}

	assert.Equal(t, int32(n), tr.spawned.Load())
	assert.Len(t, seen, n)
	assert.Eventually(t, func() bool { return tr.ActiveSessions() == 0 }, 5*time.Second, 10*time.Millisecond)
}

func TestRelay_ConcurrentSessionsAreIsolated(t *testing.T) {
	tr := newTestRelay(t, "echo", nil)

	const n = 8
	var wg sync.WaitGroup
	results := make([]echoResult, n)
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			req, _ := http.NewRequest(http.MethodPost, tr.server.URL+"/mcp",
				strings.NewReader(fmt.Sprintf(`{"jsonrpc":"2.0","id":1,"method":"call","params":{"client":%d}}`, i)))
			req.Header.Set("Accept", "application/json, text/event-stream")
			req.Header.Set("Content-Type", "application/json")
			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				errs[i] = err
				return
			}
			defer resp.Body.Close()
			b, _ := io.ReadAll(resp.Body)
			events := sseData(string(b))
			if len(events) != 1 {
				errs[i] = fmt.Errorf("client %d got %d events", i, len(events))
				return
			}
			errs[i] = json.Unmarshal([]byte(events[0]), &results[i])
		}(i)
	}
	wg.Wait()

	pids := map[int]bool{}
	for i := 0; i < n; i++ {
		require.NoError(t, errs[i])
		assert.JSONEq(t, fmt.Sprintf(`{"client":%d}`, i), string(results[i].Result.Params))
		pids[results[i].Result.PID] = true
	}
	assert.Len(t, pids, n)
}

func TestRelay_ChunkedOutput(t *testing.T) {
	tr := newTestRelay(t, "chunked", nil)

	resp := tr.post(t, `{"jsonrpc":"2.0","id":1,"method":"ping"}`)
	events := sseData(readBody(t, resp))

	require.Len(t, events, 2)
	assert.JSONEq(t, `{"jsonrpc":"2.0","method":"notifications/message","params":{"level":"info"}}`, events[0])
	var res echoResult
	require.NoError(t, json.Unmarshal([]byte(events[1]), &res))
	assert.Equal(t, "ping", res.Result.Method)
}

func TestRelay_DropsNonJSONLines(t *testing.T) {
	tr := newTestRelay(t, "garbage", nil)

	resp := tr.post(t, `{"jsonrpc":"2.0","id":1,"method":"ping"}`)
	body := readBody(t, resp)
	events := sseData(body)

	require.Len(t, events, 2)
	assert.NotContains(t, body, "NOTJSON")
	assert.Contains(t, events[0], `"line":1`)
	assert.Contains(t, events[1], `"method":"ping"`)
}

func TestRelay_MethodNotAllowed(t *testing.T) {
	tr := newTestRelay(t, "echo", nil)

	for _, method := range []string{http.MethodGet, http.MethodDelete, http.MethodPut} {
		t.Run(method, func(t *testing.T) {
			req, err := http.NewRequest(method, tr.server.URL+"/mcp",
				strings.NewReader(`{"jsonrpc":"2.0","id":1,"method":"ping"}`))
			require.NoError(t, err)
			resp, err := http.DefaultClient.Do(req)
			require.NoError(t, err)
			defer resp.Body.Close()

			assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
			assert.Equal(t, wantMethodNotAllowed, readBody(t, resp))
		})
	}
	assert.Zero(t, tr.spawned.Load())
}

func TestRelay_HealthEndpoint(t *testing.T) {
	tr := newTestRelay(t, "exit", nil)

	resp, err := http.Get(tr.server.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "backlog", resp.Header.Get("X-Gateway"))
	assert.Equal(t, "ok", readBody(t, resp))
	assert.Zero(t, tr.spawned.Load())
}

func TestRelay_HealthEndpointsAreMatchedVerbatim(t *testing.T) {
	tr := newTestRelay(t, "exit", func(o *Options) {
		o.HealthEndpoints = []string{"/healthz", "/healthz", "/h{x}", "/"}
	})

	for _, path := range []string{"/healthz", "/h%7Bx%7D", "/"} {
		resp, err := http.Get(tr.server.URL + path)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode, path)
		assert.Equal(t, "ok", readBody(t, resp), path)
		resp.Body.Close()
	}

	resp, err := http.Get(tr.server.URL + "/mcp")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)

	resp, err = http.Get(tr.server.URL + "/elsewhere")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Zero(t, tr.spawned.Load())
}

func TestRelay_HealthEndpointRejectsPost(t *testing.T) {
	tr := newTestRelay(t, "exit", nil)

	resp, err := http.Post(tr.server.URL+"/healthz", "application/json", strings.NewReader("{}"))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
	assert.Equal(t, "GET, HEAD", resp.Header.Get("Allow"))
	assert.Zero(t, tr.spawned.Load())
}

func TestRelay_SetHeaders(t *testing.T) {
	tr := newTestRelay(t, "echo", nil)
	tr.SetHeaders(map[string]string{"X-Reloaded": "yes"})

	resp, err := http.Get(tr.server.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "yes", resp.Header.Get("X-Reloaded"))
	assert.Empty(t, resp.Header.Get("X-Gateway"))
}

func TestRelay_WorkerExitsBeforeOutput(t *testing.T) {
	t.Run("event stream ends", func(t *testing.T) {
		tr := newTestRelay(t, "exit", nil)

		resp := tr.post(t, `{"jsonrpc":"2.0","id":1,"method":"ping"}`)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Empty(t, sseData(readBody(t, resp)))
	})

	t.Run("json response fails", func(t *testing.T) {
		tr := newTestRelay(t, "silent-exit", func(o *Options) { o.JSONResponse = true })

		resp := tr.post(t, `{"jsonrpc":"2.0","id":1,"method":"ping"}`)

		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		assert.Equal(t, wantInternalError, readBody(t, resp))
	})
}

func TestRelay_WorkerTimeout(t *testing.T) {
	tr := newTestRelay(t, "hang", func(o *Options) { o.WorkerTimeout = 100 * time.Millisecond })

	start := time.Now()
	resp := tr.post(t, `{"jsonrpc":"2.0","id":1,"method":"ping"}`)
	readBody(t, resp)

	assert.Less(t, time.Since(start), 5*time.Second)
	assert.Eventually(t, func() bool { return tr.ActiveSessions() == 0 }, 5*time.Second, 10*time.Millisecond)
}

func TestRelay_SetupFailure(t *testing.T) {
	t.Run("transport panics", func(t *testing.T) {
		tr := newTestRelay(t, "echo", nil)
		tr.newTransport = func(TransportOptions) *StreamableTransport {
			panic("boom")
		}

		resp := tr.post(t, `{"jsonrpc":"2.0","id":1,"method":"ping"}`)

		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		assert.Equal(t, wantInternalError, readBody(t, resp))
	})

	t.Run("transport already closed", func(t *testing.T) {
		tr := newTestRelay(t, "echo", nil)
		tr.newTransport = func(opts TransportOptions) *StreamableTransport {
			st := NewStreamableTransport(opts)
			st.Close()
			return st
		}

		resp := tr.post(t, `{"jsonrpc":"2.0","id":1,"method":"ping"}`)

		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		assert.Equal(t, wantInternalError, readBody(t, resp))
		assert.Zero(t, tr.spawned.Load())
	})

	t.Run("worker fails to start", func(t *testing.T) {
		tr := newTestRelay(t, "echo", nil)
		tr.startWorker = func(WorkerSpec) (*Worker, error) {
			return nil, errors.New("exec: not found")
		}

		resp := tr.post(t, `{"jsonrpc":"2.0","id":1,"method":"ping"}`)

		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		assert.Equal(t, wantInternalError, readBody(t, resp))
	})
}

func TestRelay_BodyTooLarge(t *testing.T) {
	tr := newTestRelay(t, "echo", func(o *Options) { o.MaxBodyBytes = 32 })

	resp := tr.post(t, `{"jsonrpc":"2.0","id":1,"method":"ping","params":{"padding":"xxxxxxxxxxxxxxxx"}}`)

	assert.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)
	assert.Zero(t, tr.spawned.Load())
}

func TestRelay_CORS(t *testing.T) {
	tr := newTestRelay(t, "echo", func(o *Options) { o.CORSOrigins = []string{"https://example.com"} })

	req, err := http.NewRequest(http.MethodOptions, tr.server.URL+"/mcp", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "https://example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "https://example.com", resp.Header.Get("Access-Control-Allow-Origin"))
	assert.Zero(t, tr.spawned.Load())
}

func TestRelay_ClientDisconnectKillsWorker(t *testing.T) {
	tr := newTestRelay(t, "hang", nil)

	ctx, cancel := context.WithCancel(context.Background())
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tr.server.URL+"/mcp",
		strings.NewReader(`{"jsonrpc":"2.0","id":1,"method":"ping"}`))
	require.NoError(t, err)
	req.Header.Set("Accept", "application/json, text/event-stream")
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	cancel()
	resp.Body.Close()

	assert.Eventually(t, func() bool { return tr.ActiveSessions() == 0 }, 5*time.Second, 10*time.Millisecond)
}

func TestRelay_MCPClientThroughGateway(t *testing.T) {
	tr := newTestRelay(t, "mcp", nil)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	res, err := mcpserver.Probe(ctx, tr.server.URL+"/mcp", nil, nil)
	require.NoError(t, err)

	assert.Equal(t, "helper-worker", res.ServerName)
	require.Len(t, res.Tools, 1)
	assert.Equal(t, "echo", res.Tools[0].Name)
	assert.GreaterOrEqual(t, tr.spawned.Load(), int32(2))
	assert.Eventually(t, func() bool { return tr.ActiveSessions() == 0 }, 5*time.Second, 10*time.Millisecond)
}
