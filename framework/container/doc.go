// Package container provides an object container driven by declarative
// object definitions.
//
// # Overview
//
// A definition (ObjectDef) says how to build an object: a factory, positional
// and named constructor arguments, properties to assign afterwards, a scope
// and a few lifecycle flags. Arguments and properties are Value descriptors:
// literals, references to other definitions, inner objects, and collections
// (list, tuple, set, frozenset, dict, props) of further descriptors.
//
// Definitions come from Configs. The readers in framework/config parse XML
// and YAML files; config.CodeConfig registers Go functions directly.
//
// # Container Lifecycle
//
//  1. Create: c, err := container.New(configs)
//     Reads every config, resolves parent definitions and builds all
//     non-lazy singletons.
//  2. Resolve: obj, err := c.GetObject("MovieLister")
//  3. Shut down: c.Shutdown(ctx) destroys the singletons in reverse order.
//
// # Scopes
//
//	Singleton  built once, cached until Shutdown (the default)
//	Prototype  built on every GetObject
//
// # Inheritance
//
// A definition naming a Parent inherits the parent's constructor arguments
// (filling gaps by position), named arguments and properties, and the factory
// of the last ancestor in the chain. Abstract definitions exist only to be
// inherited from; GetObject refuses them unless IgnoreAbstract is passed.
//
// # Classes
//
// Configuration files refer to classes by name. A TypeRegistry maps those
// names to Go constructors:
//
//	types := container.NewTypeRegistry()
//	types.RegisterStruct("springpython.MovieLister", (*MovieLister)(nil))
//	types.RegisterFunc("springpython.ColonMovieFinder", NewColonMovieFinder)
//
// RegisterBuiltins installs the builtin.* classes that the str, int, float,
// ... shorthands of the readers resolve to.
//
// # Properties
//
// After construction each property is assigned: through PropertySetter when
// the object implements it, as a key when the object is a map[string]any,
// otherwise to the struct field matched by `ioc:"name"` tag or by name.
//
// # Hooks
//
//	ObjectPostProcessor  before/after initialization of every object
//	InitializingObject   AfterPropertiesSet once properties are assigned
//	ContainerAware       receives the *Container
//	Disposable           Destroy on Shutdown (or DestroyMethod, io.Closer)
//
// # Generic helpers
//
//	lister, err := container.Get[*MovieLister](c, "MovieLister")
//	finders := container.ObjectsOf[MovieFinder](c)
package container
