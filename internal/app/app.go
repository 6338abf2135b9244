package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"

	"github.com/specialistvlad/paramfn/internal/ctxlog"
	"github.com/specialistvlad/paramfn/internal/engine"
	"github.com/specialistvlad/paramfn/internal/registry"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	ctx      context.Context
	logger   *slog.Logger
	config   *Config
	registry *registry.Registry
	engine   *engine.Engine

	mu         sync.Mutex
	httpServer *http.Server
	serverDone chan struct{}
	listenAddr string
}

// NewApp is the constructor for the main application. It builds the
// logger, opens the registry in cfg.FunctionsDir and wires the engine to it.
// Logs are written to logW.
func NewApp(ctx context.Context, logW io.Writer, cfg *Config, opts ...engine.Option) (*App, error) {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, logW)
	ctx = ctxlog.WithLogger(ctx, logger)
	logger.Debug("Logger configured successfully.")

	reg, err := registry.Open(ctx, cfg.FunctionsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to open function registry: %w", err)
	}

	return &App{
		ctx:      ctx,
		logger:   logger,
		config:   cfg,
		registry: reg,
		engine:   engine.New(reg, opts...),
	}, nil
}

// Context returns the application context, which carries the logger.
func (a *App) Context() context.Context {
	return a.ctx
}

// Logger returns the application logger.
func (a *App) Logger() *slog.Logger {
	return a.logger
}

// Config returns the configuration the app was built with.
func (a *App) Config() *Config {
	return a.config
}

// Registry returns the application's function registry.
func (a *App) Registry() *registry.Registry {
	return a.registry
}

// Engine returns the execution engine.
func (a *App) Engine() *engine.Engine {
	return a.engine
}
