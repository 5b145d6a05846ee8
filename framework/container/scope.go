package container

import (
	"fmt"
	"strings"
)

// Scope controls how many instances the container builds for a definition.
type Scope int

const (
	// Singleton objects are built once and cached for the container's lifetime.
	Singleton Scope = iota
	// Prototype objects are built fresh on every GetObject.
	Prototype
)

// String returns the lower-case name used by the configuration formats.
func (s Scope) String() string {
	switch s {
	case Singleton:
		return "singleton"
	case Prototype:
		return "prototype"
	default:
		return fmt.Sprintf("Scope(%d)", int(s))
	}
}

// Valid reports whether s is one of the known scopes.
func (s Scope) Valid() bool {
	return s == Singleton || s == Prototype
}

// ParseScope converts "singleton" or "prototype" (any case) to a Scope.
// The empty string yields Singleton.
func ParseScope(s string) (Scope, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "singleton":
		return Singleton, nil
	case "prototype":
		return Prototype, nil
	}
	return Singleton, fmt.Errorf("%w: %q", ErrInvalidObjectScope, s)
}
