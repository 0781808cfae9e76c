package gateway

import (
	"errors"
	"io"
	"os"
	"sync/atomic"
	"time"

	"backlog-mcp/pkg/logging"
	textutil "backlog-mcp/pkg/strings"
)

const (
	// outputDrainTimeout bounds how long a worker's remaining output is read
	// after it exits, before the transport is closed.
	outputDrainTimeout = time.Second
	// teardownTimeout bounds the wait for the worker to be reaped.
	teardownTimeout = 5 * time.Second

	readChunkSize = 32 * 1024
)

type sessionState int32

const (
	stateSpawned sessionState = iota
	stateRelaying
	stateTearingDown
	stateTerminated
)

func (s sessionState) String() string {
	switch s {
	case stateSpawned:
		return "spawned"
	case stateRelaying:
		return "relaying"
	case stateTearingDown:
		return "tearing-down"
	case stateTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// session binds one worker to one transport for the lifetime of a single
// POST. It is never shared between requests.
type session struct {
	id        string
	worker    *Worker
	transport *StreamableTransport
	lines     *LineBuffer

	state    atomic.Int32
	pumpDone chan struct{}

	forwarded atomic.Int64
	dropped   atomic.Int64
}

func newSession(id string, worker *Worker, transport *StreamableTransport, maxLineBytes int) *session {
	return &session{
		id:        id,
		worker:    worker,
		transport: transport,
		lines:     NewLineBuffer(maxLineBytes),
		pumpDone:  make(chan struct{}),
	}
}

func (s *session) current() sessionState {
	return sessionState(s.state.Load())
}

func (s *session) transition(from, to sessionState) bool {
	return s.state.CompareAndSwap(int32(from), int32(to))
}

// start wires the observers and begins relaying.
func (s *session) start() {
	if !s.transition(stateSpawned, stateRelaying) {
		return
	}

	s.transport.OnMessage(func(msg Message) error {
		return s.worker.Write(msg.Raw)
	})
	s.transport.OnClose(func() {
		s.worker.Kill()
	})
	s.transport.OnError(func(err error) {
		logging.Warn("Relay", "Session %s transport error: %v", s.id, err)
		s.worker.Kill()
	})

	go s.pumpOutput()
	go s.watchExit()
}

func (s *session) pumpOutput() {
	defer close(s.pumpDone)

	buf := make([]byte, readChunkSize)
	out := s.worker.Stdout()
	for {
		n, err := out.Read(buf)
		if n > 0 {
			s.handleChunk(buf[:n])
		}
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, os.ErrClosed) {
				logging.Debug("Relay", "Session %s output read ended: %v", s.id, err)
			}
			if pending := s.lines.Pending(); pending > 0 {
				logging.Debug("Relay", "Session %s discarding %d bytes of unterminated output", s.id, pending)
			}
			return
		}
	}
}

func (s *session) handleChunk(chunk []byte) {
	lines, err := s.lines.Feed(chunk)
	if err != nil {
		s.dropped.Add(1)
		logging.Error("Relay", err, "Session %s dropped oversized worker output", s.id)
	}

	for _, line := range lines {
		msg, err := DecodeMessage([]byte(line))
		if err != nil {
			s.dropped.Add(1)
			logging.Error("Relay", err, "Session %s worker sent non-JSON-RPC line: %s", s.id, textutil.Excerpt(line, 200))
			continue
		}
		if err := s.transport.Send(msg); err != nil {
			logging.Error("Relay", err, "Session %s failed to forward %s to client", s.id, msg.Kind)
			continue
		}
		s.forwarded.Add(1)
	}
}

func (s *session) watchExit() {
	<-s.worker.Done()

	select {
	case <-s.pumpDone:
	case <-time.After(outputDrainTimeout):
	}

	logging.Debug("Relay", "Session %s worker %d exited (code %d)", s.id, s.worker.PID(), s.worker.ExitCode())
	s.transport.Close()
}

// terminate tears the session down: closes the transport, which kills the
// worker, then reaps the worker and releases its pipes. Only the first call
// does anything.
func (s *session) terminate() {
	if !s.transition(stateRelaying, stateTearingDown) {
		if !s.transition(stateSpawned, stateTearingDown) {
			return
		}
		// Never started, so no pump owns pumpDone.
		close(s.pumpDone)
	}

	s.transport.Close()
	s.worker.Kill()

	select {
	case <-s.worker.Done():
	case <-time.After(teardownTimeout):
		logging.Warn("Relay", "Session %s worker %d did not exit after kill", s.id, s.worker.PID())
	}

	// Children can outlive a worker that exited on its own.
	s.worker.killGroup()
	s.worker.closePipes()

	select {
	case <-s.pumpDone:
	case <-time.After(outputDrainTimeout):
	}

	s.state.Store(int32(stateTerminated))
	logging.Debug("Relay", "Session %s terminated (forwarded %d, dropped %d)", s.id, s.forwarded.Load(), s.dropped.Load())
}
