package gateway

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"time"

	"backlog-mcp/pkg/logging"
)

// workerWaitDelay bounds how long Wait lingers on I/O held open by
// grandchildren after the worker itself has exited.
const workerWaitDelay = 2 * time.Second

// WorkerSpec describes how to launch a worker process.
type WorkerSpec struct {
	Command string
	Args    []string
	// Env is appended to the gateway's own environment.
	Env []string
	Dir string
	// Stderr receives the worker's error stream. Nil discards it.
	Stderr io.Writer
}

// Worker is one running worker process with piped standard streams.
type Worker struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout *os.File

	writeMu sync.Mutex

	done     chan struct{}
	exitErr  error
	killOnce sync.Once
}

// StartWorker launches the worker described by spec.
func StartWorker(spec WorkerSpec) (*Worker, error) {
	if spec.Command == "" {
		return nil, errors.New("worker command is empty")
	}

	cmd := exec.Command(spec.Command, spec.Args...)
	cmd.Env = append(os.Environ(), spec.Env...)
	cmd.Dir = spec.Dir
	cmd.Stderr = spec.Stderr
	cmd.WaitDelay = workerWaitDelay
	configureProcAttr(cmd)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to create stdin pipe: %w", err)
	}

	// os.Pipe instead of cmd.StdoutPipe: Wait must be free to reap the
	// process while the reader is still draining output.
	stdoutR, stdoutW, err := os.Pipe()
	if err != nil {
		stdin.Close()
		return nil, fmt.Errorf("failed to create stdout pipe: %w", err)
	}
	cmd.Stdout = stdoutW

	if err := cmd.Start(); err != nil {
		stdin.Close()
		stdoutR.Close()
		stdoutW.Close()
		return nil, fmt.Errorf("failed to start %s: %w", spec.Command, err)
	}
	stdoutW.Close()

	w := &Worker{
		cmd:    cmd,
		stdin:  stdin,
		stdout: stdoutR,
		done:   make(chan struct{}),
	}
	go w.wait()

	return w, nil
}

func (w *Worker) wait() {
	w.exitErr = w.cmd.Wait()
	close(w.done)
}

// PID returns the worker's process id.
func (w *Worker) PID() int {
	return w.cmd.Process.Pid
}

// Stdout returns the worker's output stream.
func (w *Worker) Stdout() io.Reader {
	return w.stdout
}

// Done is closed once the process has exited and been reaped.
func (w *Worker) Done() <-chan struct{} {
	return w.done
}

// Exited reports whether the process has exited.
func (w *Worker) Exited() bool {
	select {
	case <-w.done:
		return true
	default:
		return false
	}
}

// ExitCode returns the exit code, or -1 while running or when killed by a
// signal.
func (w *Worker) ExitCode() int {
	if !w.Exited() {
		return -1
	}
	return w.cmd.ProcessState.ExitCode()
}

// Err returns the error reported by Wait once the process has exited.
func (w *Worker) Err() error {
	if !w.Exited() {
		return nil
	}
	return w.exitErr
}

// Write sends one line to the worker's input. The newline is appended here.
func (w *Worker) Write(line []byte) error {
	w.writeMu.Lock()
	defer w.writeMu.Unlock()

	buf := make([]byte, 0, len(line)+1)
	buf = append(buf, line...)
	buf = append(buf, '\n')

	if _, err := w.stdin.Write(buf); err != nil {
		return fmt.Errorf("failed to write to worker stdin: %w", err)
	}
	return nil
}

// Kill terminates the process together with any children it started.
// Calling it again, or after the process has exited on its own, is a no-op.
func (w *Worker) Kill() {
	w.killOnce.Do(func() {
		if w.Exited() {
			return
		}
		if err := killProcessGroup(w.cmd.Process); err != nil {
			logging.Debug("Relay", "Failed to kill worker %d: %v", w.PID(), err)
		}
	})
}

// killGroup kills whatever is left of the worker's process group, including
// children that outlived the worker itself.
func (w *Worker) killGroup() {
	if err := killGroupRemnants(w.PID()); err != nil {
		logging.Debug("Relay", "Failed to kill children of worker %d: %v", w.PID(), err)
	}
}

// closePipes releases the parent's ends of the standard streams. Closing the
// output pipe also unblocks a reader stuck on output held by grandchildren.
func (w *Worker) closePipes() {
	w.stdin.Close()
	w.stdout.Close()
}
