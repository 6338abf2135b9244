package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/specialistvlad/paramfn/internal/httpapi"
)

const shutdownTimeout = 5 * time.Second

// Handler returns the HTTP API of the app.
func (a *App) Handler() http.Handler {
	return httpapi.New(a.registry, a.engine, a.logger)
}

// ListenAddr returns the address the HTTP server is bound to, or an empty
// string when it is not running.
func (a *App) ListenAddr() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.listenAddr
}

// Serve runs the HTTP API on the configured address until ctx is cancelled
// or the server fails, then shuts it down gracefully.
func (a *App) Serve(ctx context.Context) error {
	serveErr, err := a.startServer()
	if err != nil {
		return err
	}

	select {
	case <-ctx.Done():
		return a.closeServer()
	case err := <-serveErr:
		a.mu.Lock()
		a.httpServer, a.serverDone, a.listenAddr = nil, nil, ""
		a.mu.Unlock()
		return fmt.Errorf("http server failed: %w", err)
	}
}

// startServer binds the listener and serves in a goroutine. The returned
// channel receives the error if the server stops for any reason other than
// a shutdown.
func (a *App) startServer() (<-chan error, error) {
	a.logger.Debug("Configuring HTTP server.", "addr", a.config.Addr)

	ln, err := net.Listen("tcp", a.config.Addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", a.config.Addr, err)
	}

	srv := &http.Server{
		Handler:           a.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	done := make(chan struct{})
	a.mu.Lock()
	a.httpServer = srv
	a.serverDone = done
	a.listenAddr = ln.Addr().String()
	a.mu.Unlock()

	serveErr := make(chan error, 1)
	go func() {
		defer close(done)
		a.logger.Info("HTTP server starting", "address", "http://"+ln.Addr().String(),
			"functions_dir", a.registry.Dir(), "functions", a.registry.Len())
		// Serve returns ErrServerClosed on graceful shutdown.
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("HTTP server failed unexpectedly", "error", err)
			serveErr <- err
		}
	}()
	return serveErr, nil
}

func (a *App) closeServer() error {
	a.mu.Lock()
	srv, done := a.httpServer, a.serverDone
	a.httpServer, a.serverDone, a.listenAddr = nil, nil, ""
	a.mu.Unlock()

	if srv == nil {
		a.logger.Debug("HTTP server was not running.")
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	a.logger.Info("Shutting down HTTP server...")
	if err := srv.Shutdown(ctx); err != nil {
		a.logger.Error("HTTP server shutdown failed", "error", err)
		return err
	}
	<-done

	a.logger.Debug("HTTP server shut down gracefully.")
	return nil
}
