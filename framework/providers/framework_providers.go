package providers

import (
	"errors"
	"io"
	"log/slog"
	"os"

	"github.com/km-arc/go-ioc/framework/config"
	"github.com/km-arc/go-ioc/framework/container"
	gohttp "github.com/km-arc/go-ioc/framework/http"
	"github.com/km-arc/go-ioc/framework/logging"
	"github.com/km-arc/go-ioc/framework/routing"
	"github.com/km-arc/go-ioc/framework/settings"
)

// Ids of the framework objects.
const (
	SettingsID  = "settings"
	LoggerID    = "logger"
	RouterID    = "router"
	InspectorID = "inspector"
)

// ── SettingsProvider ──────────────────────────────────────────────────────────

// SettingsProvider registers the process settings.
//
// Registered ids:
//   - "settings" → *settings.Settings
//
// Settings is used as given; otherwise the settings are loaded from EnvFiles
// and validated when first requested.
type SettingsProvider struct {
	BaseProvider
	Settings *settings.Settings
	EnvFiles []string
}

func (p *SettingsProvider) Register(cfg *config.CodeConfig) {
	if p.Settings != nil {
		cfg.RegisterValue(SettingsID, p.Settings)
		return
	}
	envFiles := p.EnvFiles
	cfg.Register(SettingsID, func(container.Resolver) (any, error) {
		s := settings.Load(envFiles...)
		if err := s.Validate(); err != nil {
			return nil, err
		}
		return s, nil
	})
}

// ── LoggerProvider ────────────────────────────────────────────────────────────

// LoggerProvider registers the shared logger.
//
// Registered ids:
//   - "logger" → *slog.Logger
//
// Logger is used as given; otherwise one is built from the "settings" object,
// writing to Writer (default os.Stderr).
type LoggerProvider struct {
	BaseProvider
	Logger *slog.Logger
	Writer io.Writer
}

func (p *LoggerProvider) Register(cfg *config.CodeConfig) {
	if p.Logger != nil {
		cfg.RegisterValue(LoggerID, p.Logger)
		return
	}
	w := p.Writer
	if w == nil {
		w = os.Stderr
	}
	cfg.Register(LoggerID, func(r container.Resolver) (any, error) {
		s, err := container.Get[*settings.Settings](r, SettingsID)
		if err != nil {
			return nil, err
		}
		return logging.New(w, s.Log.Level, s.Log.Format)
	})
}

// Boot reports the container's size once everything eager is built.
func (p *LoggerProvider) Boot(c *container.Container) error {
	logger, err := container.Get[*slog.Logger](c, LoggerID)
	if err != nil {
		return err
	}
	logger.Info("container started", "definitions", len(c.IDs()), "singletons", len(c.Objects()))
	return nil
}

// ── RoutingProvider ───────────────────────────────────────────────────────────

// RoutingProvider registers the HTTP router.
//
// Registered ids:
//   - "router" → *routing.Router
type RoutingProvider struct {
	BaseProvider
}

func (p *RoutingProvider) Register(cfg *config.CodeConfig) {
	cfg.Register(RouterID, func(r container.Resolver) (any, error) {
		return routing.New(optionalLogger(r)), nil
	}, config.LazyInit())
}

// ── InspectorProvider ─────────────────────────────────────────────────────────

// InspectorProvider registers the read-only inspection endpoints. It is
// deferred: nothing is built until the "inspector" object is requested, which
// then mounts the endpoints on the router under Prefix.
//
// Registered ids:
//   - "inspector" → *gohttp.Inspector
type InspectorProvider struct {
	BaseProvider
	Prefix string // default "/"
}

func (p *InspectorProvider) Register(cfg *config.CodeConfig) {
	cfg.Register(InspectorID, func(r container.Resolver) (any, error) {
		return gohttp.NewInspector(optionalLogger(r)), nil
	})
}

func (p *InspectorProvider) Provides() []string { return []string{InspectorID} }
func (p *InspectorProvider) IsDeferred() bool   { return true }

// Boot mounts the inspector on the router.
func (p *InspectorProvider) Boot(c *container.Container) error {
	router, err := container.Get[*routing.Router](c, RouterID)
	if err != nil {
		return err
	}
	inspector, err := container.Get[*gohttp.Inspector](c, InspectorID)
	if err != nil {
		return err
	}
	prefix := p.Prefix
	if prefix == "" || prefix == "/" {
		inspector.Routes(router)
		return nil
	}
	router.Prefix(prefix, inspector.Routes)
	return nil
}

// optionalLogger returns the "logger" object, or slog.Default when none is
// defined.
func optionalLogger(r container.Resolver) *slog.Logger {
	logger, err := container.Get[*slog.Logger](r, LoggerID)
	if err != nil {
		if !errors.Is(err, container.ErrObjectNotFound) {
			slog.Default().Warn("logger unavailable", "err", err)
		}
		return slog.Default()
	}
	return logger
}
