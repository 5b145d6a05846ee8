package container

import (
	"errors"
	"fmt"
	"maps"
	"reflect"
	"slices"
	"strings"
	"sync"
)

// TypeRegistry maps the class names used by configuration files to Go
// constructors. It replaces loading classes by name at runtime.
type TypeRegistry struct {
	mu    sync.RWMutex
	ctors map[string]Constructor
}

// NewTypeRegistry creates an empty registry.
func NewTypeRegistry() *TypeRegistry {
	return &TypeRegistry{ctors: make(map[string]Constructor)}
}

var (
	defaultTypes     *TypeRegistry
	defaultTypesOnce sync.Once
)

// DefaultTypes returns the process-wide registry, pre-loaded with the builtin
// shorthand types. Readers use it unless they are given another registry.
func DefaultTypes() *TypeRegistry {
	defaultTypesOnce.Do(func() {
		defaultTypes = NewTypeRegistry()
		if err := RegisterBuiltins(defaultTypes); err != nil {
			panic(err)
		}
	})
	return defaultTypes
}

// Register binds name to ctor. Registering a name twice fails with
// ErrDuplicateType.
func (t *TypeRegistry) Register(name string, ctor Constructor) error {
	if name == "" {
		return errors.New("container: type name must not be empty")
	}
	if ctor == nil {
		return fmt.Errorf("container: nil constructor for type %q", name)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, exists := t.ctors[name]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateType, name)
	}
	t.ctors[name] = ctor
	return nil
}

// MustRegister is Register that panics on error.
func (t *TypeRegistry) MustRegister(name string, ctor Constructor) {
	if err := t.Register(name, ctor); err != nil {
		panic(err)
	}
}

// RegisterFunc registers a Go function as a constructor. Positional arguments
// are bound to the function's parameters in order and converted to the
// parameter types; missing trailing arguments are zero values. fn must return
// one value, or one value and an error. Named arguments are rejected.
//
//	types.RegisterFunc("springpython.MovieLister", NewMovieLister)
func (t *TypeRegistry) RegisterFunc(name string, fn any) error {
	fv := reflect.ValueOf(fn)
	ft := fv.Type()
	if ft.Kind() != reflect.Func {
		return fmt.Errorf("container: type %q: expected a function, got %s", name, ft)
	}
	if ft.IsVariadic() {
		return fmt.Errorf("container: type %q: variadic constructors are not supported", name)
	}
	errType := reflect.TypeFor[error]()
	switch {
	case ft.NumOut() == 1:
	case ft.NumOut() == 2 && ft.Out(1) == errType:
	default:
		return fmt.Errorf("container: type %q: constructor must return (T) or (T, error)", name)
	}

	return t.Register(name, func(args Args) (any, error) {
		if len(args.Named) > 0 {
			return nil, fmt.Errorf("%s takes positional arguments only, got named %s",
				name, strings.Join(slices.Sorted(maps.Keys(args.Named)), ", "))
		}
		if args.Len() > ft.NumIn() {
			return nil, fmt.Errorf("%s takes %d arguments, got %d", name, ft.NumIn(), args.Len())
		}
		in := make([]reflect.Value, ft.NumIn())
		for i := range in {
			arg, _ := args.Arg(i)
			v, err := convertTo(arg, ft.In(i))
			if err != nil {
				return nil, fmt.Errorf("%s argument %d: %w", name, i, err)
			}
			in[i] = v
		}
		out := fv.Call(in)
		if len(out) == 2 && !out[1].IsNil() {
			return nil, out[1].Interface().(error)
		}
		return out[0].Interface(), nil
	})
}

// RegisterStruct registers a struct type. prototype must be a pointer to a
// struct; each construction allocates a new one. Named arguments are assigned
// to fields the same way properties are, positional arguments fill exported
// fields in declaration order.
//
//	types.RegisterStruct("springpython.MovieFinder", (*ColonMovieFinder)(nil))
func (t *TypeRegistry) RegisterStruct(name string, prototype any) error {
	pt := reflect.TypeOf(prototype)
	if pt == nil || pt.Kind() != reflect.Pointer || pt.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("container: type %q: prototype must be a pointer to a struct, got %T", name, prototype)
	}
	st := pt.Elem()

	return t.Register(name, func(args Args) (any, error) {
		obj := reflect.New(st)
		fields := exportedFields(st)
		if args.Len() > len(fields) {
			return nil, fmt.Errorf("%s has %d fields, got %d positional arguments", name, len(fields), args.Len())
		}
		for i, arg := range args.Positional {
			if err := setField(obj.Elem().Field(fields[i]), arg); err != nil {
				return nil, fmt.Errorf("%s field %s: %w", name, st.Field(fields[i]).Name, err)
			}
		}
		for key, arg := range args.Named {
			if err := assignProperty(obj.Interface(), key, arg); err != nil {
				return nil, fmt.Errorf("%s argument %q: %w", name, key, err)
			}
		}
		return obj.Interface(), nil
	})
}

// Lookup returns the constructor registered under name.
func (t *TypeRegistry) Lookup(name string) (Constructor, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	ctor, ok := t.ctors[name]
	return ctor, ok
}

// Names returns the registered names, sorted.
func (t *TypeRegistry) Names() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return slices.Sorted(maps.Keys(t.ctors))
}

// Factory returns a Factory that builds class through this registry.
func (t *TypeRegistry) Factory(class string) Factory {
	return &ClassFactory{Class: class, Types: t}
}

// Clone returns an independent copy of the registry.
func (t *TypeRegistry) Clone() *TypeRegistry {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return &TypeRegistry{ctors: maps.Clone(t.ctors)}
}

func exportedFields(st reflect.Type) []int {
	var out []int
	for i := range st.NumField() {
		if st.Field(i).IsExported() {
			out = append(out, i)
		}
	}
	return out
}
