package container

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
)

// ObjectDef is the recipe for one managed object: how to construct it, how to
// configure it and how long it lives.
type ObjectDef struct {
	ID       string
	Class    string
	Factory  Factory
	Scope    Scope
	LazyInit bool
	Abstract bool
	Parent   string

	// DestroyMethod names a method invoked on the singleton at Shutdown.
	DestroyMethod string

	PosConstr   []Value
	NamedConstr map[string]Value
	Props       []Value
}

// NewObjectDef returns a singleton, eager, concrete definition with no
// arguments.
func NewObjectDef(id string) *ObjectDef {
	return &ObjectDef{ID: id, NamedConstr: make(map[string]Value)}
}

// Prop returns the property descriptor with the given name.
func (d *ObjectDef) Prop(name string) (Value, bool) {
	for _, p := range d.Props {
		if p != nil && p.Name() == name {
			return p, true
		}
	}
	return nil, false
}

// Clone returns a copy whose argument and property slices can be changed
// without touching d. Descriptors are shared.
func (d *ObjectDef) Clone() *ObjectDef {
	out := *d
	out.PosConstr = slices.Clone(d.PosConstr)
	out.NamedConstr = maps.Clone(d.NamedConstr)
	if out.NamedConstr == nil {
		out.NamedConstr = make(map[string]Value)
	}
	out.Props = slices.Clone(d.Props)
	return &out
}

// Validate checks the fields every definition must satisfy before the
// container accepts it.
func (d *ObjectDef) Validate() error {
	if strings.TrimSpace(d.ID) == "" {
		return errors.New("container: object definition has an empty id")
	}
	if !d.Scope.Valid() {
		return fmt.Errorf("%w: object %q has scope %s", ErrInvalidObjectScope, d.ID, d.Scope)
	}
	return nil
}

func (d *ObjectDef) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "id=%s", d.ID)
	if d.Class != "" {
		fmt.Fprintf(&b, " class=%s", d.Class)
	}
	fmt.Fprintf(&b, " scope=%s", d.Scope)
	if d.LazyInit {
		b.WriteString(" lazy-init")
	}
	if d.Abstract {
		b.WriteString(" abstract")
	}
	if d.Parent != "" {
		fmt.Fprintf(&b, " parent=%s", d.Parent)
	}
	fmt.Fprintf(&b, " args=%d named=%d props=%d", len(d.PosConstr), len(d.NamedConstr), len(d.Props))
	return b.String()
}
