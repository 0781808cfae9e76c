package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"backlog-mcp/internal/backlog"
	"backlog-mcp/internal/config"
	"backlog-mcp/internal/gateway"
	"backlog-mcp/internal/mcpserver"
	"backlog-mcp/internal/template"
	"backlog-mcp/internal/tools"
	"backlog-mcp/pkg/logging"

	"github.com/coreos/go-systemd/v22/daemon"
	"golang.org/x/sync/errgroup"
)

const readHeaderTimeout = 10 * time.Second

// runGateway resolves the worker command, starts the relay and blocks until
// ctx is done. With WatchConfig, edits to the file's response headers are
// applied without a restart.
func runGateway(ctx context.Context, cfg *Config) error {
	gw := cfg.Settings.Gateway
	if err := config.ValidateGateway(gw); err != nil {
		return err
	}

	engine := template.New(templateData(gw))
	argv, err := gw.WorkerArgv(engine)
	if err != nil {
		return err
	}
	env, err := gw.WorkerEnv(engine)
	if err != nil {
		return fmt.Errorf("failed to render worker environment: %w", err)
	}
	headers, err := gw.ResponseHeaders(engine)
	if err != nil {
		return fmt.Errorf("failed to render response headers: %w", err)
	}

	var stderr io.Writer
	if cfg.Debug {
		stderr = os.Stderr
	}

	relay, err := gateway.NewRelay(gateway.Options{
		Command:         argv,
		Env:             env,
		Path:            gw.StreamableHTTPPath,
		HealthEndpoints: gw.HealthEndpoints,
		Headers:         headers,
		CORSOrigins:     gw.CORSOrigins,
		JSONResponse:    gw.JSONResponse,
		WorkerTimeout:   gw.WorkerTimeout,
		MaxLineBytes:    gw.MaxLineBytes,
		MaxBodyBytes:    gw.MaxBodyBytes,
		Version:         cfg.Version,
		Stderr:          stderr,
	})
	if err != nil {
		return err
	}

	if cfg.WatchConfig && cfg.ConfigPath != "" {
		watcher := config.NewWatcher(cfg.ConfigPath, func(next config.Config) {
			if err := reloadHeaders(cfg, relay, next); err != nil {
				logging.Error("Gateway", err, "Keeping previous response headers")
			}
		})
		if err := watcher.Start(); err != nil {
			return fmt.Errorf("failed to watch %s: %w", cfg.ConfigPath, err)
		}
		defer watcher.Stop()
	}

	logging.Info("Gateway", "Worker command: %s", strings.Join(argv, " "))
	logging.Info("Gateway", "Streamable HTTP endpoint: %s", gw.StreamableHTTPPath)
	for _, ep := range gw.HealthEndpoints {
		logging.Info("Gateway", "Health endpoint: %s", ep)
	}

	addr := net.JoinHostPort(gw.Host, strconv.Itoa(gw.Port))
	return serveHTTP(ctx, "Gateway", addr, relay.Handler(), gw.ShutdownTimeout, cfg.OnListen)
}

// runServer builds the Backlog client and serves the MCP server.
func runServer(ctx context.Context, cfg *Config) error {
	sc := cfg.Settings.Server
	if err := config.ValidateServer(sc); err != nil {
		return err
	}

	client, err := backlog.NewClient(backlog.Config{
		Domain:      sc.Domain,
		APIKey:      sc.APIKey,
		AccessToken: sc.AccessToken,
	})
	if err != nil {
		return err
	}

	srv, err := mcpserver.New(mcpserver.Config{
		Version: cfg.Version,
		Tools: tools.Options{
			Prefix:          sc.Prefix,
			EnabledToolsets: sc.EnabledToolsets,
			MaxTokens:       sc.MaxTokens,
		},
	}, client)
	if err != nil {
		return err
	}
	logging.Info("MCPServer", "Backlog API at %s, %d tools enabled", client.BaseURL(), srv.ToolCount())

	if sc.Transport == config.TransportStreamableHTTP {
		addr := net.JoinHostPort(sc.Host, strconv.Itoa(sc.Port))
		return serveHTTP(ctx, "MCPServer", addr, srv.Handler(sc.Path), config.DefaultShutdownTimeout, cfg.OnListen)
	}
	return srv.ServeStdio(ctx, cfg.stdin(), cfg.stdout())
}

// reloadHeaders applies the response headers of a new config revision. Flag
// overrides are layered on first, and the result is validated as a whole.
func reloadHeaders(cfg *Config, relay *gateway.Relay, next config.Config) error {
	if cfg.Overrides != nil {
		cfg.Overrides(&next)
	}
	if err := config.ValidateGateway(next.Gateway); err != nil {
		return err
	}
	h, err := next.Gateway.ResponseHeaders(template.New(templateData(next.Gateway)))
	if err != nil {
		return err
	}
	relay.SetHeaders(h)
	logging.Info("Gateway", "Reloaded %d response headers", len(h))
	return nil
}

// serveHTTP runs an HTTP server on addr until ctx is done, then shuts it down
// within shutdownTimeout. Request contexts derive from ctx, so in-flight
// exchanges are torn down when shutdown begins.
func serveHTTP(ctx context.Context, subsystem, addr string, handler http.Handler, shutdownTimeout time.Duration, onListen func(net.Addr)) error {
	if shutdownTimeout <= 0 {
		shutdownTimeout = config.DefaultShutdownTimeout
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: readHeaderTimeout,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logging.Info(subsystem, "Shutting down")
		notifySystemd(daemon.SdNotifyStopping)

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			srv.Close()
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	})

	logging.Info(subsystem, "Listening on http://%s", ln.Addr())
	if onListen != nil {
		onListen(ln.Addr())
	}
	notifySystemd(daemon.SdNotifyReady)

	return g.Wait()
}

func notifySystemd(state string) {
	sent, err := daemon.SdNotify(false, state)
	if err != nil {
		logging.Debug("Systemd", "sd_notify %q failed: %v", state, err)
		return
	}
	if sent {
		logging.Debug("Systemd", "Sent %q", state)
	}
}

func templateData(gw config.GatewayConfig) map[string]interface{} {
	return map[string]interface{}{
		"Port": gw.Port,
		"Path": gw.StreamableHTTPPath,
	}
}
