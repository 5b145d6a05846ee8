package config

import (
	"io"
	"io/fs"
	"log/slog"
	"maps"
	"os"

	"github.com/km-arc/go-ioc/framework/container"
)

// Option configures a reader.
type Option func(*options)

type options struct {
	types    *container.TypeRegistry
	mappings map[string]string
	logger   *slog.Logger
	fsys     fs.FS
}

func newOptions(opts []Option) options {
	o := options{
		types:    container.DefaultTypes(),
		mappings: DefaultTypeMappings(),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithTypeRegistry sets the registry class names are bound through.
func WithTypeRegistry(types *container.TypeRegistry) Option {
	return func(o *options) {
		if types != nil {
			o.types = types
		}
	}
}

// WithTypeMappings adds or replaces shorthand mappings. A node whose tag (XML)
// or key (YAML) is mapped becomes an object of the mapped class with the
// node's content as its single constructor argument.
//
//	config.WithTypeMappings(map[string]string{"money": "shop.Money"})
func WithTypeMappings(m map[string]string) Option {
	return func(o *options) {
		maps.Copy(o.mappings, m)
	}
}

// WithLogger sets the logger used for parse diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithFS makes the reader open its paths in fsys instead of the OS
// filesystem.
func WithFS(fsys fs.FS) Option {
	return func(o *options) {
		o.fsys = fsys
	}
}

// DefaultTypeMappings returns a fresh copy of the builtin shorthand table.
func DefaultTypeMappings() map[string]string {
	m := make(map[string]string)
	for _, name := range []string{"str", "unicode", "int", "long", "float", "decimal", "bool", "complex", "list", "tuple", "dict"} {
		m[name] = container.BuiltinPrefix + name
	}
	return m
}

func (o *options) open(path string) (io.ReadCloser, error) {
	if o.fsys != nil {
		return o.fsys.Open(path)
	}
	return os.Open(path)
}
