package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"

	"github.com/vk/shaderplan/internal/config"
	"github.com/vk/shaderplan/internal/model"
	"github.com/vk/shaderplan/internal/publish"
	"github.com/vk/shaderplan/internal/registry"
)

// Publisher hands a compiled plan to a render backend.
type Publisher interface {
	Publish(ctx context.Context, plan *model.Plan) error
}

// Option customizes an App.
type Option func(*App)

// WithPublisher replaces the publisher built from Config.Publish.
func WithPublisher(p Publisher) Option {
	return func(a *App) { a.publisher = p }
}

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW      io.Writer
	logger    *slog.Logger
	config    *Config
	loader    config.Loader
	publisher Publisher

	httpServer *http.Server

	mu       sync.RWMutex
	lastPlan *model.Plan
	shaders  *registry.Registry
}

// NewApp is the constructor for the main application. Plans are written to
// outW and logs to logW.
func NewApp(outW, logW io.Writer, cfg *Config, loader config.Loader, opts ...Option) (*App, error) {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, logW)
	logger.Debug("Logger configured successfully.")

	a := &App{
		outW:   outW,
		logger: logger,
		config: cfg,
		loader: loader,
	}
	if cfg.Publish.URL != "" {
		p, err := publish.NewSocketIO(cfg.Publish)
		if err != nil {
			return nil, err
		}
		a.publisher = p
		logger.Debug("Plan publishing enabled.", "url", cfg.Publish.URL)
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// LastPlan returns the most recent plan that compiled successfully, or nil.
func (a *App) LastPlan() *model.Plan {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.lastPlan
}

func (a *App) setLastPlan(plan *model.Plan, shaders *registry.Registry) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.lastPlan = plan
	a.shaders = shaders
}

func (a *App) shaderName(id registry.ShaderID) string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.shaders != nil {
		if name := a.shaders.NameOf(id); name != "" {
			return name
		}
	}
	return fmt.Sprintf("#%d", id)
}
