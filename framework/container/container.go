package container

import (
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"slices"
	"sync"
)

// ── Container ─────────────────────────────────────────────────────────────────

// Config is a source of object definitions. Every call re-reads the source.
type Config interface {
	ReadObjectDefs() ([]*ObjectDef, error)
}

// Extender decorates an object after the container has built it.
type Extender func(obj any, r Resolver) (any, error)

// Container builds and caches objects from the definitions its configs
// produce.
//
// It supports:
//   - Singleton and prototype scopes
//   - Parent definitions (inheritance of constructor args and properties)
//   - Eager construction of non-lazy singletons at start-up
//   - Post processors, initialization and container-aware hooks
//   - Instance / Alias / Extend registration on top of the configs
//   - Disposal of singletons on Shutdown
type Container struct {
	mu sync.Mutex

	// id → merged definition
	defs map[string]*ObjectDef

	// definition ids in the order they were first read
	order []string

	// id → constructed singleton
	objects map[string]any

	// singleton ids in construction order
	created []string

	// alias → id
	aliases map[string]string

	// id → extenders
	extenders map[string][]Extender

	// callbacks fired after every construction
	afterResolving []func(id string, obj any)

	// post processors applied to every construction
	processors []ObjectPostProcessor

	logger   *slog.Logger
	eager    bool
	started  bool
	shutdown bool
}

// Option configures a Container.
type Option func(*Container)

// WithLogger sets the logger used for debug and error output.
func WithLogger(l *slog.Logger) Option {
	return func(c *Container) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithPostProcessors registers post processors that apply from the first
// construction on, in addition to the ones found among the definitions.
func WithPostProcessors(p ...ObjectPostProcessor) Option {
	return func(c *Container) {
		c.processors = append(c.processors, p...)
	}
}

// WithoutEagerInit skips building the non-lazy singletons in New. Call Start
// to build them later.
func WithoutEagerInit() Option {
	return func(c *Container) {
		c.eager = false
	}
}

// New reads every config in order, resolves parent definitions and, unless
// WithoutEagerInit is given, builds every non-lazy singleton.
//
//	c, err := container.New([]container.Config{
//	    config.NewXMLConfig([]string{"app-context.xml"}),
//	    config.NewYAMLConfig([]string{"overrides.yaml"}),
//	})
func New(configs []Config, opts ...Option) (*Container, error) {
	c := &Container{
		defs:      make(map[string]*ObjectDef),
		objects:   make(map[string]any),
		aliases:   make(map[string]string),
		extenders: make(map[string][]Extender),
		logger:    slog.Default(),
		eager:     true,
	}
	for _, opt := range opts {
		opt(c)
	}
	if err := c.load(configs); err != nil {
		return nil, err
	}
	if c.eager {
		if err := c.Start(); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// load merges the definitions of every config. A later definition replaces an
// earlier one with the same id but keeps its position.
func (c *Container) load(configs []Config) error {
	for _, cfg := range configs {
		c.logger.Debug("scanning configuration for object definitions", "config", fmt.Sprintf("%T", cfg))
		defs, err := cfg.ReadObjectDefs()
		if err != nil {
			return fmt.Errorf("container: reading object definitions: %w", err)
		}
		for _, def := range defs {
			if err := def.Validate(); err != nil {
				return err
			}
			if _, exists := c.defs[def.ID]; exists {
				c.logger.Debug("overriding previous object definition", "id", def.ID)
			} else {
				c.order = append(c.order, def.ID)
			}
			c.defs[def.ID] = def
		}
	}
	return resolveInheritance(c.defs, c.order)
}

// Start builds every singleton that is neither lazy nor abstract, in
// definition order. Post processors built here are applied to the singletons
// already in the cache and then to everything built afterwards. Start runs
// once; later calls return nil.
func (c *Container) Start() error {
	c.mu.Lock()
	if c.started {
		c.mu.Unlock()
		return nil
	}
	c.started = true
	ids := slices.Clone(c.order)
	c.mu.Unlock()

	var discovered []ObjectPostProcessor
	for _, id := range ids {
		c.mu.Lock()
		def := c.defs[id]
		c.mu.Unlock()
		if def.Abstract || def.LazyInit || def.Scope != Singleton {
			continue
		}
		c.logger.Debug("eagerly fetching object", "id", id)
		obj, err := c.GetObject(id)
		if err != nil {
			return err
		}
		if pp, ok := obj.(ObjectPostProcessor); ok {
			discovered = append(discovered, pp)
		}
	}
	if len(discovered) == 0 {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	return c.applyProcessors(discovered)
}

// ── Registration ──────────────────────────────────────────────────────────────

// Instance registers a pre-built value as a singleton.
//
//	c.Instance("clock", clock.New())
func (c *Container) Instance(id string, obj any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.defs[id]; !exists {
		c.order = append(c.order, id)
	}
	def := NewObjectDef(id)
	def.Class = fmt.Sprintf("%T", obj)
	def.Factory = valueFactory{value: obj}
	c.defs[id] = def
	if _, built := c.objects[id]; !built {
		c.created = append(c.created, id)
	}
	c.objects[id] = obj
}

// Alias registers an alternative name for id.
//
//	c.Alias("MovieLister", "lister")
func (c *Container) Alias(id, alias string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if id == alias {
		return fmt.Errorf("container: %q is aliased to itself", id)
	}
	c.aliases[alias] = c.canonical(id)
	return nil
}

// Extend decorates the object built for id. If id is a singleton that is
// already built, the cached object is decorated immediately.
//
//	c.Extend("logger", func(obj any, r container.Resolver) (any, error) {
//	    return obj.(*slog.Logger).With("component", "lister"), nil
//	})
func (c *Container) Extend(id string, fn Extender) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := c.canonical(id)
	c.extenders[key] = append(c.extenders[key], fn)

	if obj, ok := c.objects[key]; ok {
		extended, err := fn(obj, &resolution{c: c})
		if err != nil {
			return &ConstructionError{ID: key, Err: err}
		}
		c.objects[key] = extended
	}
	return nil
}

// AfterResolving registers a callback fired after any object is built. It
// runs once the outermost GetObject has released the container, so it may
// resolve objects itself.
func (c *Container) AfterResolving(cb func(id string, obj any)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.afterResolving = append(c.afterResolving, cb)
}

// ── Resolution ────────────────────────────────────────────────────────────────

// GetOption adjusts a single GetObject call.
type GetOption func(*getOptions)

type getOptions struct {
	ignoreAbstract bool
}

// IgnoreAbstract allows an abstract definition to be built.
func IgnoreAbstract() GetOption {
	return func(o *getOptions) {
		o.ignoreAbstract = true
	}
}

// GetObject returns the object with the given id (or alias), building it when
// it is a prototype or a singleton not built yet.
//
//	obj, err := c.GetObject("MovieLister")
func (c *Container) GetObject(id string, opts ...GetOption) (any, error) {
	c.mu.Lock()
	r := &resolution{c: c}
	obj, err := r.GetObject(id, opts...)
	callbacks := slices.Clone(c.afterResolving)
	c.mu.Unlock()

	for _, built := range r.built {
		for _, cb := range callbacks {
			cb(built.id, built.obj)
		}
	}
	return obj, err
}

type builtObject struct {
	id  string
	obj any
}

// resolution is the Resolver for one top-level GetObject. The container's
// lock is held for its whole lifetime.
type resolution struct {
	c     *Container
	stack []string
	built []builtObject
}

func (r *resolution) GetObject(id string, opts ...GetOption) (any, error) {
	var o getOptions
	for _, opt := range opts {
		opt(&o)
	}
	c := r.c
	key := c.canonical(id)

	def, ok := c.defs[key]
	if !ok {
		return nil, &ObjectNotFoundError{ID: id}
	}
	if def.Abstract && !o.ignoreAbstract {
		return nil, &AbstractObjectError{ID: key}
	}
	if def.Scope == Singleton {
		if obj, ok := c.objects[key]; ok {
			return obj, nil
		}
	}
	if i := slices.Index(r.stack, key); i >= 0 {
		chain := append(slices.Clone(r.stack[i:]), key)
		return nil, &ConfigurationCycleError{Chain: chain, Reference: true}
	}

	r.stack = append(r.stack, key)
	obj, err := c.create(r, def)
	r.stack = r.stack[:len(r.stack)-1]
	if err != nil {
		return nil, err
	}

	switch def.Scope {
	case Singleton:
		c.objects[key] = obj
		c.created = append(c.created, key)
		c.logger.Debug("stored singleton", "id", key)
	case Prototype:
	default:
		return nil, fmt.Errorf("%w: object %q has scope %s", ErrInvalidObjectScope, key, def.Scope)
	}
	r.built = append(r.built, builtObject{id: key, obj: obj})
	return obj, nil
}

// create runs the construction pipeline for def.
func (c *Container) create(r *resolution, def *ObjectDef) (any, error) {
	if def.Factory == nil {
		return nil, &ConstructionError{ID: def.ID, Err: ErrNoFactory}
	}
	args, err := resolveArgs(r, def)
	if err != nil {
		return nil, constructionError(def.ID, err)
	}
	obj, err := def.Factory.Create(r, args)
	if err != nil {
		return nil, constructionError(def.ID, err)
	}

	_, isProcessor := obj.(ObjectPostProcessor)
	if !isProcessor {
		for _, pp := range c.processors {
			if obj, err = pp.PostProcessBeforeInitialization(obj, def.ID); err != nil {
				return nil, constructionError(def.ID, err)
			}
		}
	}

	for _, prop := range def.Props {
		if prop == nil {
			continue
		}
		v, err := prop.Resolve(r)
		if err != nil {
			return nil, constructionError(def.ID, err)
		}
		if err := assignProperty(obj, prop.Name(), v); err != nil {
			return nil, &PropertyError{ID: def.ID, Property: prop.Name(), Err: err}
		}
	}

	if init, ok := obj.(InitializingObject); ok {
		if err := init.AfterPropertiesSet(); err != nil {
			return nil, constructionError(def.ID, err)
		}
	}
	if aware, ok := obj.(ContainerAware); ok {
		aware.SetContainer(c)
	}

	if !isProcessor {
		for _, pp := range c.processors {
			if obj, err = pp.PostProcessAfterInitialization(obj, def.ID); err != nil {
				return nil, constructionError(def.ID, err)
			}
		}
	}

	for _, ext := range c.extenders[def.ID] {
		if obj, err = ext(obj, r); err != nil {
			return nil, constructionError(def.ID, err)
		}
	}
	return obj, nil
}

func resolveArgs(r Resolver, def *ObjectDef) (Args, error) {
	args := Args{
		Positional: make([]any, 0, len(def.PosConstr)),
		Named:      make(map[string]any, len(def.NamedConstr)),
	}
	for _, v := range def.PosConstr {
		resolved, err := resolveValue(r, v)
		if err != nil {
			return Args{}, err
		}
		args.Positional = append(args.Positional, resolved)
	}
	for name, v := range def.NamedConstr {
		resolved, err := resolveValue(r, v)
		if err != nil {
			return Args{}, err
		}
		args.Named[name] = resolved
	}
	return args, nil
}

// constructionError wraps err for id unless it already describes a failure
// of a nested object or belongs to the resolution taxonomy.
func constructionError(id string, err error) error {
	if isResolutionError(err) {
		return err
	}
	var ce *ConstructionError
	var pe *PropertyError
	if errors.As(err, &ce) || errors.As(err, &pe) {
		return err
	}
	return &ConstructionError{ID: id, Err: err}
}

// ── Inspection ────────────────────────────────────────────────────────────────

// ObjectDefs returns copies of every definition keyed by id.
func (c *Container) ObjectDefs() map[string]*ObjectDef {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]*ObjectDef, len(c.defs))
	for id, def := range c.defs {
		out[id] = def.Clone()
	}
	return out
}

// ObjectDef returns a copy of the definition for id (or alias).
func (c *Container) ObjectDef(id string) (*ObjectDef, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	def, ok := c.defs[c.canonical(id)]
	if !ok {
		return nil, false
	}
	return def.Clone(), true
}

// IDs returns the definition ids in the order they were read.
func (c *Container) IDs() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.order)
}

// Objects returns the singletons built so far, keyed by id.
func (c *Container) Objects() map[string]any {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]any, len(c.objects))
	for id, obj := range c.objects {
		out[id] = obj
	}
	return out
}

// Has reports whether a definition exists for id (or alias).
func (c *Container) Has(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.defs[c.canonical(id)]
	return ok
}

// Resolved reports whether the singleton for id has been built.
func (c *Container) Resolved(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.objects[c.canonical(id)]
	return ok
}

// GetObjectsByType returns the built singletons whose dynamic type is t or,
// when includeSubtypes is set, assignable to t.
//
//	listers := c.GetObjectsByType(reflect.TypeFor[Lister](), true)
func (c *Container) GetObjectsByType(t reflect.Type, includeSubtypes bool) map[string]any {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]any)
	for id, obj := range c.objects {
		if obj == nil {
			continue
		}
		ot := reflect.TypeOf(obj)
		if ot == t || (includeSubtypes && ot.AssignableTo(t)) {
			out[id] = obj
		}
	}
	return out
}

// canonical resolves an alias to its id. Callers hold mu.
func (c *Container) canonical(id string) string {
	if target, ok := c.aliases[id]; ok {
		return target
	}
	return id
}

// ── Generics helpers ──────────────────────────────────────────────────────────

// Get resolves id and type-asserts the result. r is usually the *Container, or
// the Resolver a factory receives.
//
//	lister, err := container.Get[*MovieLister](c, "MovieLister")
func Get[T any](r Resolver, id string, opts ...GetOption) (T, error) {
	var zero T
	obj, err := r.GetObject(id, opts...)
	if err != nil {
		return zero, err
	}
	typed, ok := obj.(T)
	if !ok {
		return zero, fmt.Errorf("container: object %q is %T, not %s", id, obj, reflect.TypeFor[T]())
	}
	return typed, nil
}

// MustGet is like Get but panics on error.
func MustGet[T any](r Resolver, id string, opts ...GetOption) T {
	typed, err := Get[T](r, id, opts...)
	if err != nil {
		panic(err)
	}
	return typed
}

// ObjectsOf returns the built singletons that are of type T.
func ObjectsOf[T any](c *Container) map[string]T {
	out := make(map[string]T)
	for id, obj := range c.Objects() {
		if typed, ok := obj.(T); ok {
			out[id] = typed
		}
	}
	return out
}
