package config

import (
	"errors"
	"fmt"
	"sync"

	"github.com/km-arc/go-ioc/framework/container"
)

// ObjectFunc builds one object. It must fetch collaborators through r so the
// container can track the object graph.
type ObjectFunc func(r container.Resolver) (any, error)

// RegisterOption adjusts a definition registered with CodeConfig.
type RegisterOption func(*container.ObjectDef)

// WithScope sets the object's scope.
func WithScope(s container.Scope) RegisterOption {
	return func(d *container.ObjectDef) { d.Scope = s }
}

// LazyInit defers a singleton until it is first requested.
func LazyInit() RegisterOption {
	return func(d *container.ObjectDef) { d.LazyInit = true }
}

// Abstract marks the definition as a template that is only inherited.
func Abstract() RegisterOption {
	return func(d *container.ObjectDef) { d.Abstract = true }
}

// WithParent inherits arguments, properties and, when the registration has no
// function of its own, the factory of the named definition.
func WithParent(id string) RegisterOption {
	return func(d *container.ObjectDef) { d.Parent = id }
}

// WithDestroyMethod names a method called on the singleton at shutdown.
func WithDestroyMethod(name string) RegisterOption {
	return func(d *container.ObjectDef) { d.DestroyMethod = name }
}

// WithProperty injects value into the named property after construction. A
// container.Value is used as given; anything else becomes a literal.
func WithProperty(name string, value any) RegisterOption {
	return func(d *container.ObjectDef) {
		v, ok := value.(container.Value)
		if !ok {
			v = container.NewLiteral(name, value)
		}
		d.Props = append(d.Props, v)
	}
}

// CodeConfig collects definitions registered from Go code.
//
//	cfg := config.NewCodeConfig().
//	    Register("MovieFinder", func(container.Resolver) (any, error) {
//	        return &ColonMovieFinder{Path: "movies.txt"}, nil
//	    }).
//	    Register("MovieLister", func(r container.Resolver) (any, error) {
//	        finder, err := container.Get[MovieFinder](r, "MovieFinder")
//	        if err != nil {
//	            return nil, err
//	        }
//	        return &MovieLister{Finder: finder}, nil
//	    }, config.LazyInit())
type CodeConfig struct {
	mu   sync.Mutex
	defs []*container.ObjectDef
	errs []error
}

// NewCodeConfig returns an empty CodeConfig.
func NewCodeConfig() *CodeConfig {
	return &CodeConfig{}
}

// Register adds a definition built by fn. fn may be nil only for a child
// that inherits its parent's factory. Registering an id twice is an error,
// reported by ReadObjectDefs.
func (c *CodeConfig) Register(id string, fn ObjectFunc, opts ...RegisterOption) *CodeConfig {
	def := container.NewObjectDef(id)
	for _, opt := range opts {
		opt(def)
	}
	if fn != nil {
		def.Factory = container.FactoryFunc(func(r container.Resolver, _ container.Args) (any, error) {
			return fn(r)
		})
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	switch {
	case fn == nil && def.Parent == "" && !def.Abstract:
		c.errs = append(c.errs, fmt.Errorf("object %q: %w", id, container.ErrNoFactory))
		return c
	case c.index(id) >= 0:
		c.errs = append(c.errs, fmt.Errorf("object %q registered twice", id))
		return c
	}
	if err := def.Validate(); err != nil {
		c.errs = append(c.errs, err)
		return c
	}
	c.defs = append(c.defs, def)
	return c
}

// RegisterValue adds a singleton that is v itself.
func (c *CodeConfig) RegisterValue(id string, v any, opts ...RegisterOption) *CodeConfig {
	return c.Register(id, func(container.Resolver) (any, error) { return v, nil }, opts...)
}

// Has reports whether id has been registered.
func (c *CodeConfig) Has(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.index(id) >= 0
}

func (c *CodeConfig) index(id string) int {
	for i, d := range c.defs {
		if d.ID == id {
			return i
		}
	}
	return -1
}

// ReadObjectDefs returns copies of the registered definitions, or every
// registration error joined together.
func (c *CodeConfig) ReadObjectDefs() ([]*container.ObjectDef, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.errs) > 0 {
		return nil, errors.Join(c.errs...)
	}
	out := make([]*container.ObjectDef, len(c.defs))
	for i, d := range c.defs {
		out[i] = d.Clone()
	}
	return out, nil
}
