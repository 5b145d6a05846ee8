// Package app wires settings, logging, definition sources and the framework
// providers into a running container.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/km-arc/go-ioc/framework/config"
	"github.com/km-arc/go-ioc/framework/container"
	gohttp "github.com/km-arc/go-ioc/framework/http"
	"github.com/km-arc/go-ioc/framework/logging"
	"github.com/km-arc/go-ioc/framework/providers"
	"github.com/km-arc/go-ioc/framework/routing"
	"github.com/km-arc/go-ioc/framework/settings"
)

// shutdownTimeout bounds how long Run waits for in-flight requests.
const shutdownTimeout = 5 * time.Second

// Application is the top-level container. It embeds *container.Container so
// callers use GetObject, ObjectDefs and Shutdown directly.
type Application struct {
	*container.Container
	Settings  *settings.Settings
	Logger    *slog.Logger
	Providers *providers.Registry
}

// Option configures New.
type Option func(*options)

type options struct {
	envFiles  []string
	settings  *settings.Settings
	sources   []string
	providers []providers.ServiceProvider
	configs   []container.Config
	types     *container.TypeRegistry
	logWriter io.Writer
	eager     *bool
}

// WithEnvFiles sets the .env files settings are loaded from.
func WithEnvFiles(files ...string) Option {
	return func(o *options) { o.envFiles = files }
}

// WithSettings uses s instead of loading settings from the environment.
func WithSettings(s *settings.Settings) Option {
	return func(o *options) { o.settings = s }
}

// WithSources replaces IOC_SOURCES with the given definition files.
func WithSources(paths ...string) Option {
	return func(o *options) { o.sources = paths }
}

// WithProviders adds service providers after the framework ones.
func WithProviders(ps ...providers.ServiceProvider) Option {
	return func(o *options) { o.providers = append(o.providers, ps...) }
}

// WithConfigs adds definition readers after the file sources, so their
// definitions win on conflicting ids.
func WithConfigs(cs ...container.Config) Option {
	return func(o *options) { o.configs = append(o.configs, cs...) }
}

// WithTypes sets the registry class names in definition files bind to.
func WithTypes(types *container.TypeRegistry) Option {
	return func(o *options) { o.types = types }
}

// WithLogWriter sets where logs go (default os.Stderr).
func WithLogWriter(w io.Writer) Option {
	return func(o *options) { o.logWriter = w }
}

// WithoutEagerInit leaves every singleton unbuilt until requested, whatever
// IOC_EAGER_INIT says.
func WithoutEagerInit() Option {
	return func(o *options) {
		eager := false
		o.eager = &eager
	}
}

// New loads settings, builds the logger, reads every source and starts the
// container. Definitions are read in this order, later ids replacing earlier
// ones: framework and extra providers, IOC_SOURCES files, extra configs.
//
//	application, err := app.New(
//	    app.WithEnvFiles(".env"),
//	    app.WithTypes(types),
//	    app.WithProviders(&MailProvider{}),
//	)
func New(opts ...Option) (*Application, error) {
	o := options{types: container.DefaultTypes(), logWriter: os.Stderr}
	for _, opt := range opts {
		opt(&o)
	}

	s := o.settings
	if s == nil {
		s = settings.Load(o.envFiles...)
	}
	if o.sources != nil {
		s.Container.Sources = o.sources
	}
	if o.eager != nil {
		s.Container.EagerInit = *o.eager
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}

	logger, err := logging.New(o.logWriter, s.Log.Level, s.Log.Format)
	if err != nil {
		return nil, err
	}
	logger = logger.With("app", s.App.Name)

	registry := providers.NewRegistry(logger).Register(
		&providers.SettingsProvider{Settings: s},
		&providers.LoggerProvider{Logger: logger},
		&providers.RoutingProvider{},
		&providers.InspectorProvider{},
	).Register(o.providers...)

	sources, err := config.Open(s.Container.Sources, config.WithTypeRegistry(o.types), config.WithLogger(logger))
	if err != nil {
		return nil, err
	}
	configs := append([]container.Config{registry}, sources...)
	configs = append(configs, o.configs...)

	copts := []container.Option{container.WithLogger(logger)}
	if !s.Container.EagerInit {
		copts = append(copts, container.WithoutEagerInit())
	}
	c, err := container.New(configs, copts...)
	if err != nil {
		return nil, err
	}
	if err := registry.Boot(c); err != nil {
		return nil, errors.Join(err, c.Shutdown(context.Background()))
	}

	return &Application{Container: c, Settings: s, Logger: logger, Providers: registry}, nil
}

// Run blocks until ctx is done, serving the inspection endpoints meanwhile
// when IOC_INSPECT_ENABLED is set, then shuts the container down.
func (a *Application) Run(ctx context.Context) error {
	var serveErr error
	if a.Settings.Inspect.Enabled {
		serveErr = a.serve(ctx)
	} else {
		<-ctx.Done()
	}

	shutdownErr := a.Shutdown(context.Background())
	return errors.Join(serveErr, shutdownErr)
}

func (a *Application) serve(ctx context.Context) error {
	if _, err := container.Get[*gohttp.Inspector](a, providers.InspectorID); err != nil {
		return err
	}
	router, err := container.Get[*routing.Router](a, providers.RouterID)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              a.Settings.Inspect.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		a.Logger.Info("inspection server listening", "addr", srv.Addr, "routes", router.Routes())
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("inspection server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("inspection server: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("inspection server: %w", err)
	}
	return nil
}

// Environment returns APP_ENV.
func (a *Application) Environment() string { return a.Settings.App.Env }
func (a *Application) IsLocal() bool       { return a.Settings.IsLocal() }
func (a *Application) IsProduction() bool  { return a.Settings.IsProduction() }
func (a *Application) IsDebug() bool       { return a.Settings.App.Debug }
