package container

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors. Every typed error below matches one of these with errors.Is.
var (
	ErrObjectNotFound     = errors.New("object not found")
	ErrAbstractObject     = errors.New("abstract object")
	ErrConfigurationCycle = errors.New("configuration cycle")
	ErrInvalidObjectScope = errors.New("invalid object scope")
	ErrNoFactory          = errors.New("no factory")
	ErrUnknownClass       = errors.New("unknown class")
	ErrDuplicateType      = errors.New("duplicate type")
	ErrAlreadyShutdown    = errors.New("container already shut down")
)

// ObjectNotFoundError is returned when no definition exists for an id.
type ObjectNotFoundError struct {
	ID string
}

func (e *ObjectNotFoundError) Error() string {
	return fmt.Sprintf("container: object %q not found", e.ID)
}

func (e *ObjectNotFoundError) Is(target error) bool { return target == ErrObjectNotFound }

// AbstractObjectError is returned when an abstract definition is requested
// directly.
type AbstractObjectError struct {
	ID string
}

func (e *AbstractObjectError) Error() string {
	return fmt.Sprintf("container: object %q is abstract and cannot be instantiated", e.ID)
}

func (e *AbstractObjectError) Is(target error) bool { return target == ErrAbstractObject }

// ConfigurationCycleError reports either a parent chain that loops back on
// itself or, when Reference is set, an object graph that references an object
// still under construction.
type ConfigurationCycleError struct {
	Chain     []string
	Reference bool
}

func (e *ConfigurationCycleError) Error() string {
	kind := "parent cycle"
	if e.Reference {
		kind = "circular reference"
	}
	return fmt.Sprintf("container: %s: %s", kind, strings.Join(e.Chain, " -> "))
}

func (e *ConfigurationCycleError) Is(target error) bool { return target == ErrConfigurationCycle }

// PropertyError wraps a failure to assign a resolved property value.
type PropertyError struct {
	ID       string
	Property string
	Err      error
}

func (e *PropertyError) Error() string {
	return fmt.Sprintf("container: object %q: property %q: %v", e.ID, e.Property, e.Err)
}

func (e *PropertyError) Unwrap() error { return e.Err }

// ConstructionError wraps a failure raised by a factory, a post processor or
// an initialization hook.
type ConstructionError struct {
	ID  string
	Err error
}

func (e *ConstructionError) Error() string {
	return fmt.Sprintf("container: creating %q: %v", e.ID, e.Err)
}

func (e *ConstructionError) Unwrap() error { return e.Err }

// isResolutionError reports whether err belongs to the resolution taxonomy.
// Those errors travel back to the caller unwrapped.
func isResolutionError(err error) bool {
	return errors.Is(err, ErrObjectNotFound) ||
		errors.Is(err, ErrAbstractObject) ||
		errors.Is(err, ErrConfigurationCycle) ||
		errors.Is(err, ErrInvalidObjectScope)
}
