package container

import (
	"reflect"
	"slices"
)

// Tuple is an ordered, fixed collection produced by tuple descriptors.
type Tuple []any

func (t Tuple) Len() int { return len(t) }

// Set is an insertion-ordered collection of unique values. Comparable values
// are deduplicated with ==, everything else with reflect.DeepEqual.
type Set struct {
	items []any
	index map[any]int
}

// NewSet returns a set holding the unique values in the order first seen.
func NewSet(values ...any) *Set {
	s := &Set{index: make(map[any]int, len(values))}
	for _, v := range values {
		s.Add(v)
	}
	return s
}

// Add inserts v and reports whether it was not already present.
func (s *Set) Add(v any) bool {
	if s.Contains(v) {
		return false
	}
	if hashable(v) {
		s.index[v] = len(s.items)
	}
	s.items = append(s.items, v)
	return true
}

func (s *Set) Contains(v any) bool {
	if hashable(v) {
		_, ok := s.index[v]
		return ok
	}
	return slices.ContainsFunc(s.items, func(item any) bool {
		return reflect.DeepEqual(item, v)
	})
}

// Remove deletes v and reports whether it was present.
func (s *Set) Remove(v any) bool {
	i := slices.IndexFunc(s.items, func(item any) bool {
		if hashable(v) && hashable(item) {
			return item == v
		}
		return reflect.DeepEqual(item, v)
	})
	if i < 0 {
		return false
	}
	s.items = slices.Delete(s.items, i, i+1)
	s.index = make(map[any]int, len(s.items))
	for j, item := range s.items {
		if hashable(item) {
			s.index[item] = j
		}
	}
	return true
}

func (s *Set) Len() int { return len(s.items) }

// Items returns a copy of the members in insertion order.
func (s *Set) Items() []any { return slices.Clone(s.items) }

// Freeze returns a read-only view of a copy of s.
func (s *Set) Freeze() FrozenSet {
	return FrozenSet{set: NewSet(s.items...)}
}

// FrozenSet is an immutable set.
type FrozenSet struct {
	set *Set
}

func (f FrozenSet) Len() int {
	if f.set == nil {
		return 0
	}
	return f.set.Len()
}

func (f FrozenSet) Contains(v any) bool {
	return f.set != nil && f.set.Contains(v)
}

func (f FrozenSet) Items() []any {
	if f.set == nil {
		return nil
	}
	return f.set.Items()
}

func hashable(v any) bool {
	if v == nil {
		return true
	}
	return reflect.ValueOf(v).Comparable()
}
