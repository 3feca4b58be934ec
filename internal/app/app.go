package app

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/vk/flowgrid/internal/engine"
	"github.com/vk/flowgrid/internal/registry"
	"github.com/vk/flowgrid/internal/transform"
	"github.com/vk/flowgrid/internal/typesys"
	"github.com/vk/flowgrid/internal/validator"
)

// App encapsulates the runtime's dependencies, configuration and lifecycle.
type App struct {
	outW   io.Writer
	logger *slog.Logger
	config *Config

	types      *typesys.Registry
	transforms *transform.Catalog
	registry   *registry.Registry
	engine     *engine.Engine

	httpServer *http.Server
}

// NewApp returns a fully initialized App: type system and transformer
// catalog populated with the built-ins, all modules registered, engine
// wired. Registration conflicts among modules are programmer errors and
// panic, matching the registry's contract.
func NewApp(outW io.Writer, cfg *Config, modules ...registry.Module) *App {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, outW)
	logger.Debug("Logger configured successfully.")

	types := typesys.NewRegistry()
	typesys.RegisterBuiltins(types)

	catalog := transform.NewCatalog(types)
	if err := transform.RegisterBuiltins(catalog); err != nil {
		// A broken built-in catalog is a programmer error.
		panic(err)
	}
	logger.Debug("Type system and transformer catalog ready.", "types", len(types.IDs()))

	reg := registry.New()
	if len(modules) == 0 {
		modules = coreModules
	}
	for _, mod := range modules {
		mod.Register(reg)
	}
	logger.Debug("All component modules registered.", "count", len(modules))

	return &App{
		outW:       outW,
		logger:     logger,
		config:     cfg,
		types:      types,
		transforms: catalog,
		registry:   reg,
		engine:     engine.New(reg, validator.New(types, catalog)),
	}
}

// Registry returns the application's component directory. Primarily for
// testing.
func (a *App) Registry() *registry.Registry {
	return a.registry
}
