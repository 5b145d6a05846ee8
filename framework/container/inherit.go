package container

import (
	"maps"
	"slices"
)

// Inherit merges child with its ancestor chain and returns the merged
// definition. child is not modified.
//
//   - positional args: each gap (nil, or index past the child's list) takes
//     the ancestor's value at that index
//   - named args: the child's value wins; ancestors fill missing names and
//     names the child leaves nil
//   - properties: the child's value wins by name; ancestor properties the
//     child lacks are appended in ancestor order
//
// The merged definition keeps the child's id, scope, lazy-init, abstract and
// destroy method. Unless the child carries its own factory it takes the factory
// and class of the last ancestor in the chain.
func Inherit(child *ObjectDef, lookup func(id string) (*ObjectDef, bool)) (*ObjectDef, error) {
	merged := child.Clone()
	chain := []string{child.ID}

	current := child
	for current.Parent != "" {
		if slices.Contains(chain, current.Parent) {
			return nil, &ConfigurationCycleError{Chain: append(chain, current.Parent)}
		}
		parent, ok := lookup(current.Parent)
		if !ok {
			return nil, &ObjectNotFoundError{ID: current.Parent}
		}
		chain = append(chain, parent.ID)

		merged.PosConstr = fillGaps(merged.PosConstr, parent.PosConstr)
		for name, v := range parent.NamedConstr {
			if cur := merged.NamedConstr[name]; cur == nil {
				merged.NamedConstr[name] = v
			}
		}
		for _, p := range parent.Props {
			if p == nil {
				continue
			}
			if _, ok := merged.Prop(p.Name()); !ok {
				merged.Props = append(merged.Props, p)
			}
		}
		if merged.DestroyMethod == "" {
			merged.DestroyMethod = parent.DestroyMethod
		}
		current = parent
	}

	if child.Factory == nil {
		merged.Factory = current.Factory
		merged.Class = current.Class
	}
	return merged, nil
}

func fillGaps(own, inherited []Value) []Value {
	if len(own) < len(inherited) {
		own = append(own, make([]Value, len(inherited)-len(own))...)
	}
	for i, v := range inherited {
		if own[i] == nil {
			own[i] = v
		}
	}
	return own
}

// resolveInheritance replaces every definition that names a parent with its
// merged form. Parents are looked up among the unmerged definitions, so the
// result does not depend on the order definitions were read.
func resolveInheritance(defs map[string]*ObjectDef, order []string) error {
	raw := maps.Clone(defs)
	lookup := func(id string) (*ObjectDef, bool) {
		d, ok := raw[id]
		return d, ok
	}
	for _, id := range order {
		def := raw[id]
		if def.Parent == "" {
			continue
		}
		merged, err := Inherit(def, lookup)
		if err != nil {
			return err
		}
		defs[id] = merged
	}
	return nil
}
