package config

import (
	"strconv"
	"strings"

	"github.com/spf13/cast"

	"github.com/km-arc/go-ioc/framework/container"
)

// AnonymousID names an inner object that carries no id of its own.
const AnonymousID = "<anonymous>"

// parser accumulates the definitions of one ReadObjectDefs call. Inner objects
// are appended as they are found, before the object that owns them.
type parser struct {
	opts *options
	defs []*container.ObjectDef
}

func newParser(opts *options) *parser {
	return &parser{opts: opts}
}

func (p *parser) add(def *container.ObjectDef) {
	p.defs = append(p.defs, def)
}

// nestedID returns the id of an object found under prefix.
func nestedID(prefix, id string) string {
	if prefix == "" {
		return id
	}
	if id == "" {
		id = AnonymousID
	}
	return prefix + "." + id
}

// objectAttrs are the attributes shared by every object notation.
type objectAttrs struct {
	id            string
	class         string
	scope         string
	lazyInit      bool
	abstract      bool
	parent        string
	destroyMethod string

	// unbuildable is set once the caller has warned that nothing can build
	// the object.
	unbuildable bool
}

// newDef creates a definition from attrs. Objects with a parent get no
// factory; the container merges them with their ancestors.
func (p *parser) newDef(a objectAttrs) (*container.ObjectDef, error) {
	scope, err := container.ParseScope(a.scope)
	if err != nil {
		return nil, err
	}
	def := container.NewObjectDef(a.id)
	def.Scope = scope
	def.LazyInit = a.lazyInit
	def.Abstract = a.abstract
	def.Parent = a.parent
	def.DestroyMethod = a.destroyMethod
	switch {
	case a.parent != "":
	case a.class != "":
		def.Class = a.class
		def.Factory = p.opts.types.Factory(a.class)
	case !a.unbuildable:
		p.opts.logger.Warn("no class or parent for object, it cannot be built", "id", a.id)
	}
	return def, nil
}

// coerceText converts literal text. Only the spellings True and False change;
// everything else stays a string.
func coerceText(s string) any {
	switch s {
	case "True":
		return true
	case "False":
		return false
	}
	return s
}

// coerceLegacy converts the literal expressions of the legacy component
// format: quoted strings, None, booleans, ints and floats. Anything else is
// kept as raw text.
func coerceLegacy(s string) any {
	s = strings.TrimSpace(s)
	switch s {
	case "None":
		return nil
	case "True", "False":
		return s == "True"
	}
	if len(s) >= 2 {
		if q := s[0]; (q == '\'' || q == '"') && s[len(s)-1] == q {
			if unquoted, err := strconv.Unquote(`"` + strings.ReplaceAll(s[1:len(s)-1], `"`, `\"`) + `"`); err == nil {
				return unquoted
			}
			return s[1 : len(s)-1]
		}
	}
	if i, err := strconv.Atoi(s); err == nil {
		return i
	}
	if f, err := cast.ToFloat64E(s); err == nil {
		return f
	}
	return s
}

// parseBool reads a boolean attribute; empty means false.
func parseBool(s string) (bool, error) {
	if strings.TrimSpace(s) == "" {
		return false, nil
	}
	return cast.ToBoolE(strings.TrimSpace(s))
}
