// Package providers groups object registrations into service providers.
//
// A provider registers its objects into a config.CodeConfig and may boot once
// the container exists. A Registry collects providers and is itself a
// container.Config:
//
//	registry := providers.NewRegistry(logger).
//	    Register(&providers.SettingsProvider{Settings: s}).
//	    Register(&MailProvider{})
//
//	c, err := container.New([]container.Config{registry, xmlConfig})
//	err = registry.Boot(c)
//
// Deferred providers have their objects registered lazily and are booted the
// first time one of those objects is built.
package providers

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/km-arc/go-ioc/framework/config"
	"github.com/km-arc/go-ioc/framework/container"
)

// ── ServiceProvider interface ─────────────────────────────────────────────────

// ServiceProvider registers a group of related objects.
//
//	type MailProvider struct{ providers.BaseProvider }
//
//	func (p *MailProvider) Register(cfg *config.CodeConfig) {
//	    cfg.Register("mailer", func(r container.Resolver) (any, error) {
//	        return mail.NewSMTP(), nil
//	    })
//	}
type ServiceProvider interface {
	// Register adds the provider's definitions. It runs every time the
	// registry is read and must not build objects.
	Register(cfg *config.CodeConfig)

	// Boot runs once the container exists. Eager providers boot from
	// Registry.Boot, deferred ones when their first object is built.
	Boot(c *container.Container) error

	// Provides lists ids the provider owns besides the ones it registers;
	// building any of them boots a deferred provider.
	Provides() []string

	// IsDeferred makes every registered definition lazy.
	IsDeferred() bool
}

// ── BaseProvider ──────────────────────────────────────────────────────────────

// BaseProvider is an embeddable struct with no-op Boot, Provides and
// IsDeferred.
type BaseProvider struct{}

func (BaseProvider) Boot(*container.Container) error { return nil }
func (BaseProvider) Provides() []string              { return nil }
func (BaseProvider) IsDeferred() bool                { return false }

// ── Registry ──────────────────────────────────────────────────────────────────

// Registry manages registration and booting of ServiceProviders.
type Registry struct {
	mu        sync.Mutex
	logger    *slog.Logger
	providers []ServiceProvider
	owners    map[string]ServiceProvider // id → deferred provider
	bootedBy  map[ServiceProvider]bool
	c         *container.Container
	booted    bool
}

// NewRegistry returns an empty registry.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		logger:   logger,
		owners:   make(map[string]ServiceProvider),
		bootedBy: make(map[ServiceProvider]bool),
	}
}

// Register adds providers. Adding the same provider twice is a no-op.
func (r *Registry) Register(ps ...ServiceProvider) *Registry {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range ps {
		if slices.Contains(r.providers, p) {
			continue
		}
		r.providers = append(r.providers, p)
		if p.IsDeferred() {
			for _, id := range p.Provides() {
				r.owners[id] = p
			}
		}
	}
	return r
}

// ReadObjectDefs runs Register on every provider, in order, and returns the
// definitions they added. Definitions of deferred providers are made lazy.
func (r *Registry) ReadObjectDefs() ([]*container.ObjectDef, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var (
		defs []*container.ObjectDef
		errs []error
	)
	for _, p := range r.providers {
		cfg := config.NewCodeConfig()
		p.Register(cfg)
		pdefs, err := cfg.ReadObjectDefs()
		if err != nil {
			errs = append(errs, fmt.Errorf("provider %T: %w", p, err))
			continue
		}
		if p.IsDeferred() {
			for _, d := range pdefs {
				d.LazyInit = true
				r.owners[d.ID] = p
			}
		}
		defs = append(defs, pdefs...)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return defs, nil
}

// Boot attaches the registry to c and boots every eager provider in order.
// Later calls do nothing.
func (r *Registry) Boot(c *container.Container) error {
	r.mu.Lock()
	if r.booted {
		r.mu.Unlock()
		return nil
	}
	r.booted = true
	r.c = c
	var eager []ServiceProvider
	for _, p := range r.providers {
		if !p.IsDeferred() {
			eager = append(eager, p)
			r.bootedBy[p] = true
		}
	}
	r.mu.Unlock()

	c.AfterResolving(r.bootDeferred)

	for _, p := range eager {
		if err := p.Boot(c); err != nil {
			return fmt.Errorf("booting provider %T: %w", p, err)
		}
		r.logger.Debug("booted provider", "provider", fmt.Sprintf("%T", p))
	}

	// Deferred objects built by eager initialization or by eager Boot
	// methods before the hook saw them.
	for id := range c.Objects() {
		r.bootDeferred(id, nil)
	}
	return nil
}

func (r *Registry) bootDeferred(id string, _ any) {
	r.mu.Lock()
	p, ok := r.owners[id]
	if !ok || r.bootedBy[p] || r.c == nil {
		r.mu.Unlock()
		return
	}
	r.bootedBy[p] = true
	c := r.c
	r.mu.Unlock()

	if err := p.Boot(c); err != nil {
		r.logger.Error("booting deferred provider failed", "provider", fmt.Sprintf("%T", p), "id", id, "err", err)
		return
	}
	r.logger.Debug("booted deferred provider", "provider", fmt.Sprintf("%T", p), "id", id)
}

// Booted reports whether Boot has been called.
func (r *Registry) Booted() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.booted
}

// Providers returns the registered providers in order.
func (r *Registry) Providers() []ServiceProvider {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.providers)
}
