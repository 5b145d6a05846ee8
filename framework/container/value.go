package container

import (
	"fmt"

	"github.com/spf13/cast"
)

// ── Resolver ──────────────────────────────────────────────────────────────────

// Resolver looks objects up by id. The container hands one to every value
// descriptor and factory while it builds an object; nested lookups must go
// through it so the container can detect reference cycles.
type Resolver interface {
	GetObject(id string, opts ...GetOption) (any, error)
}

// ── Value descriptors ─────────────────────────────────────────────────────────

// Value describes how to produce one constructor argument or property value.
// Descriptors are immutable once a reader has built them; Resolve always
// returns a fresh result.
type Value interface {
	Name() string
	Resolve(r Resolver) (any, error)
}

// resolveValue resolves v, treating a nil descriptor as a nil value.
func resolveValue(r Resolver, v Value) (any, error) {
	if v == nil {
		return nil, nil
	}
	return v.Resolve(r)
}

// Literal is a value that was fully known at parse time.
type Literal struct {
	name  string
	value any
}

// NewLiteral wraps an already coerced scalar.
func NewLiteral(name string, value any) *Literal {
	return &Literal{name: name, value: value}
}

func (l *Literal) Name() string { return l.name }
func (l *Literal) Value() any { return l.value }
func (l *Literal) Resolve(Resolver) (any, error) { return l.value, nil }
func (l *Literal) String() string { return fmt.Sprintf("%s=%v", l.name, l.value) }

// Reference points at another object definition by id.
type Reference struct {
	name string
	ref  string
}

// NewReference creates a descriptor that resolves to the object with id ref.
//
//	container.NewReference("movie_finder", "MovieFinder")
func NewReference(name, ref string) *Reference {
	return &Reference{name: name, ref: ref}
}

func (r *Reference) Name() string { return r.name }
func (r *Reference) Ref() string { return r.ref }
func (r *Reference) String() string { return fmt.Sprintf("%s->%s", r.name, r.ref) }

func (r *Reference) Resolve(res Resolver) (any, error) {
	return res.GetObject(r.ref)
}

// InnerObject wraps a nested definition. Readers register the definition
// itself alongside the top-level ones, so resolving is a lookup by its id.
type InnerObject struct {
	name string
	def  *ObjectDef
}

func NewInnerObject(name string, def *ObjectDef) *InnerObject {
	return &InnerObject{name: name, def: def}
}

func (i *InnerObject) Name() string { return i.name }
func (i *InnerObject) Def() *ObjectDef { return i.def }
func (i *InnerObject) String() string { return fmt.Sprintf("%s=<%s>", i.name, i.def.ID) }

func (i *InnerObject) Resolve(r Resolver) (any, error) {
	return r.GetObject(i.def.ID)
}

// ── Collections ───────────────────────────────────────────────────────────────

// CollectionKind selects the shape a Collection resolves to.
type CollectionKind int

const (
	KindList CollectionKind = iota
	KindTuple
	KindSet
	KindFrozenSet
	KindDict
	KindProps
)

func (k CollectionKind) String() string {
	switch k {
	case KindList:
		return "list"
	case KindTuple:
		return "tuple"
	case KindSet:
		return "set"
	case KindFrozenSet:
		return "frozenset"
	case KindDict:
		return "dict"
	case KindProps:
		return "props"
	default:
		return fmt.Sprintf("CollectionKind(%d)", int(k))
	}
}

// Entry is one keyed element of a dict or props collection.
type Entry struct {
	Key   string
	Value Value
}

// Collection is a list, tuple, set, frozenset, dict or props descriptor whose
// elements are descriptors themselves.
type Collection struct {
	name    string
	kind    CollectionKind
	items   []Value
	entries []Entry
}

func NewList(name string, items ...Value) *Collection {
	return &Collection{name: name, kind: KindList, items: items}
}

func NewTuple(name string, items ...Value) *Collection {
	return &Collection{name: name, kind: KindTuple, items: items}
}

func NewSetValue(name string, items ...Value) *Collection {
	return &Collection{name: name, kind: KindSet, items: items}
}

func NewFrozenSetValue(name string, items ...Value) *Collection {
	return &Collection{name: name, kind: KindFrozenSet, items: items}
}

func NewDict(name string, entries ...Entry) *Collection {
	return &Collection{name: name, kind: KindDict, entries: entries}
}

// NewProps builds a string-to-string properties descriptor. Entry values are
// expected to be literals.
func NewProps(name string, entries ...Entry) *Collection {
	return &Collection{name: name, kind: KindProps, entries: entries}
}

func (c *Collection) Name() string { return c.name }
func (c *Collection) Kind() CollectionKind { return c.kind }
func (c *Collection) Items() []Value { return append([]Value(nil), c.items...) }
func (c *Collection) Entries() []Entry { return append([]Entry(nil), c.entries...) }

func (c *Collection) String() string { return fmt.Sprintf("%s=%s(%d)", c.name, c.kind, c.Len()) }

func (c *Collection) Len() int {
	if c.kind == KindDict || c.kind == KindProps {
		return len(c.entries)
	}
	return len(c.items)
}

// Resolve builds a new collection of the resolved elements:
//
//	list      → []any
//	tuple     → Tuple
//	set       → *Set
//	frozenset → FrozenSet
//	dict      → map[string]any
//	props     → map[string]string
func (c *Collection) Resolve(r Resolver) (any, error) {
	switch c.kind {
	case KindList, KindTuple, KindSet, KindFrozenSet:
		values := make([]any, 0, len(c.items))
		for _, item := range c.items {
			v, err := resolveValue(r, item)
			if err != nil {
				return nil, err
			}
			values = append(values, v)
		}
		switch c.kind {
		case KindTuple:
			return Tuple(values), nil
		case KindSet:
			return NewSet(values...), nil
		case KindFrozenSet:
			return NewSet(values...).Freeze(), nil
		}
		return values, nil

	case KindDict:
		out := make(map[string]any, len(c.entries))
		for _, e := range c.entries {
			v, err := resolveValue(r, e.Value)
			if err != nil {
				return nil, err
			}
			out[e.Key] = v
		}
		return out, nil

	case KindProps:
		out := make(map[string]string, len(c.entries))
		for _, e := range c.entries {
			v, err := resolveValue(r, e.Value)
			if err != nil {
				return nil, err
			}
			s, err := cast.ToStringE(v)
			if err != nil {
				return nil, fmt.Errorf("props %q key %q: %w", c.name, e.Key, err)
			}
			out[e.Key] = s
		}
		return out, nil
	}
	return nil, fmt.Errorf("container: unknown collection kind %s", c.kind)
}
