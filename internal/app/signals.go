package app

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"backlog-mcp/pkg/logging"
)

var (
	signalOnce sync.Once
	signalCtx  context.Context
)

// InstallSignalHandlers registers for SIGINT and SIGTERM and returns a
// context that is canceled when the first one arrives. Registration happens
// once per process; every call returns the same context. After the first
// signal the handlers are removed, so a second signal terminates the process
// immediately.
func InstallSignalHandlers() context.Context {
	signalOnce.Do(func() {
		ctx, cancel := context.WithCancel(context.Background())
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

		go func() {
			sig := <-sigCh
			signal.Stop(sigCh)
			logging.Info("Signals", "Received %s, shutting down", sig)
			cancel()
		}()

		signalCtx = ctx
	})
	return signalCtx
}
