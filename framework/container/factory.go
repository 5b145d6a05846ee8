package container

import "fmt"

// Args are the resolved constructor arguments handed to a Factory.
type Args struct {
	Positional []any
	Named      map[string]any
}

// Len returns the number of positional arguments.
func (a Args) Len() int { return len(a.Positional) }

// Arg returns the positional argument at index i.
func (a Args) Arg(i int) (any, bool) {
	if i < 0 || i >= len(a.Positional) {
		return nil, false
	}
	return a.Positional[i], true
}

// Lookup returns the named argument with the given name.
func (a Args) Lookup(name string) (any, bool) {
	v, ok := a.Named[name]
	return v, ok
}

// Factory builds a raw object from resolved constructor arguments.
type Factory interface {
	Create(r Resolver, args Args) (any, error)
}

// FactoryFunc adapts a plain function to Factory.
//
//	def.Factory = container.FactoryFunc(func(r container.Resolver, args container.Args) (any, error) {
//	    return &MovieLister{}, nil
//	})
type FactoryFunc func(r Resolver, args Args) (any, error)

func (f FactoryFunc) Create(r Resolver, args Args) (any, error) { return f(r, args) }

// Constructor builds an object of one registered class.
type Constructor func(args Args) (any, error)

// ClassFactory looks its class up in a TypeRegistry when it is asked to build,
// so a definition may name a class that is registered after parsing.
type ClassFactory struct {
	Class string
	Types *TypeRegistry
}

func (f *ClassFactory) Create(_ Resolver, args Args) (any, error) {
	ctor, ok := f.Types.Lookup(f.Class)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownClass, f.Class)
	}
	return ctor(args)
}

func (f *ClassFactory) String() string { return "class " + f.Class }

// valueFactory returns a pre-built value.
type valueFactory struct {
	value any
}

func (f valueFactory) Create(Resolver, Args) (any, error) { return f.value, nil }
