package app

import (
	"context"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/shormigo/base-bmf-flow-architecture-viewer/internal/ctxlog"
	"github.com/shormigo/base-bmf-flow-architecture-viewer/internal/registry"
	"github.com/shormigo/base-bmf-flow-architecture-viewer/internal/render"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	logW       io.Writer
	logger     *slog.Logger
	registry   *registry.Registry
	config     *Config
	rasterizer render.Rasterizer
	now        func() time.Time
}

// Option configures an App.
type Option func(*App)

// WithLogOutput sets where log records are written. Defaults to stderr.
func WithLogOutput(w io.Writer) Option {
	return func(a *App) {
		if w != nil {
			a.logW = w
		}
	}
}

// WithRasterizer sets the PNG renderer. Without one, PNG output fails with
// render.ErrRasterizerUnavailable.
func WithRasterizer(r render.Rasterizer) Option {
	return func(a *App) {
		a.rasterizer = r
	}
}

// WithClock sets the clock used to timestamp output files.
func WithClock(now func() time.Time) Option {
	return func(a *App) {
		if now != nil {
			a.now = now
		}
	}
}

// NewApp is the constructor for the main application. It returns a fully
// initialized App instance, including its own isolated logger and registry.
func NewApp(cfg *Config, opts ...Option) *App {
	a := &App{
		logW:   os.Stderr,
		config: cfg,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}

	a.logger = newLogger(cfg.LogLevel, cfg.LogFormat, a.logW)
	a.logger.Debug("Logger configured successfully.")

	if cfg.RegistryDir != "" {
		a.registry = registry.NewDir(cfg.RegistryDir, registry.WithLogger(a.logger))
		a.logger.Debug("Using task registry directory.", "dir", cfg.RegistryDir)
	} else {
		a.registry = registry.NewDefault(registry.WithLogger(a.logger))
	}
	return a
}

// Registry returns the application's registry. This is primarily for testing.
func (a *App) Registry() *registry.Registry {
	return a.registry
}

// Config returns the configuration the App was created with.
func (a *App) Config() *Config {
	return a.config
}

// Context returns ctx carrying the App's logger.
func (a *App) Context(ctx context.Context) context.Context {
	return ctxlog.WithLogger(ctx, a.logger)
}
