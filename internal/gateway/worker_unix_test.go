//go:build unix

package gateway

import (
	"bufio"
	"encoding/json"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// readChildPID reads the notification a worker prints after starting a child.
func readChildPID(t *testing.T, reader *bufio.Reader) int {
	t.Helper()
	line, err := reader.ReadBytes('\n')
	require.NoError(t, err)

	var started struct {
		Params struct {
			Child int `json:"child"`
		} `json:"params"`
	}
	require.NoError(t, json.Unmarshal(line, &started))
	require.NotZero(t, started.Params.Child)
	return started.Params.Child
}

// requireEOF waits until every holder of the worker's output has let go.
func requireEOF(t *testing.T, reader io.Reader, child int) {
	t.Helper()
	eof := make(chan error, 1)
	go func() {
		_, err := io.Copy(io.Discard, reader)
		eof <- err
	}()
	select {
	case err := <-eof:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatalf("child %d kept the worker's output open", child)
	}
}

func TestWorker_KillTakesChildrenAlong(t *testing.T) {
	argv, env := testWorkerCommand("grandchild")
	w, err := StartWorker(WorkerSpec{Command: argv[0], Env: env})
	require.NoError(t, err)
	defer w.closePipes()

	reader := bufio.NewReader(w.Stdout())
	child := readChildPID(t, reader)

	w.Kill()
	requireEOF(t, reader, child)

	select {
	case <-w.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("worker was not reaped")
	}
}

func TestWorker_KillGroupAfterWorkerExited(t *testing.T) {
	argv, env := testWorkerCommand("orphan")
	w, err := StartWorker(WorkerSpec{Command: argv[0], Env: env})
	require.NoError(t, err)
	defer w.closePipes()

	reader := bufio.NewReader(w.Stdout())
	child := readChildPID(t, reader)

	require.NoError(t, w.Write([]byte(`{"jsonrpc":"2.0","id":1,"method":"ping"}`)))
	select {
	case <-w.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("worker did not exit")
	}

	// Kill is a no-op once the worker is gone; the group kill is not.
	w.Kill()
	w.killGroup()
	requireEOF(t, reader, child)
}
