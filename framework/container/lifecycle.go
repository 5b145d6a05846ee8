package container

import (
	"context"
	"errors"
	"fmt"
	"io"
	"reflect"
)

// ── Hooks ─────────────────────────────────────────────────────────────────────

// ObjectPostProcessor sees every object the container builds. Both methods may
// return a replacement for obj.
type ObjectPostProcessor interface {
	PostProcessBeforeInitialization(obj any, id string) (any, error)
	PostProcessAfterInitialization(obj any, id string) (any, error)
}

// PostProcessorFuncs adapts functions to ObjectPostProcessor. A nil func
// passes the object through.
type PostProcessorFuncs struct {
	Before func(obj any, id string) (any, error)
	After  func(obj any, id string) (any, error)
}

func (p PostProcessorFuncs) PostProcessBeforeInitialization(obj any, id string) (any, error) {
	if p.Before == nil {
		return obj, nil
	}
	return p.Before(obj, id)
}

func (p PostProcessorFuncs) PostProcessAfterInitialization(obj any, id string) (any, error) {
	if p.After == nil {
		return obj, nil
	}
	return p.After(obj, id)
}

// InitializingObject is called once all properties are assigned.
type InitializingObject interface {
	AfterPropertiesSet() error
}

// ContainerAware objects receive the container that built them. SetContainer
// runs while the container is locked: store it, resolve later.
type ContainerAware interface {
	SetContainer(c *Container)
}

// Disposable objects are destroyed on Shutdown.
type Disposable interface {
	Destroy() error
}

// DestroyMethodNamer names the method Shutdown should call instead of Destroy.
type DestroyMethodNamer interface {
	DestroyMethod() string
}

// applyProcessors runs the before phase of every processor over every cached
// singleton, then the after phase, then activates the processors for later
// constructions. Callers hold mu.
func (c *Container) applyProcessors(processors []ObjectPostProcessor) error {
	phases := []func(ObjectPostProcessor, any, string) (any, error){
		ObjectPostProcessor.PostProcessBeforeInitialization,
		ObjectPostProcessor.PostProcessAfterInitialization,
	}
	for _, phase := range phases {
		for _, id := range c.created {
			obj := c.objects[id]
			if _, ok := obj.(ObjectPostProcessor); ok {
				continue
			}
			for _, pp := range processors {
				var err error
				if obj, err = phase(pp, obj, id); err != nil {
					return &ConstructionError{ID: id, Err: err}
				}
			}
			c.objects[id] = obj
		}
	}
	c.processors = append(c.processors, processors...)
	return nil
}

// ── Shutdown ──────────────────────────────────────────────────────────────────

// Shutdown destroys the built singletons in reverse construction order. For
// each object the first of these that applies is used:
//
//   - the definition's DestroyMethod
//   - DestroyMethodNamer.DestroyMethod()
//   - Disposable.Destroy()
//   - io.Closer.Close()
//
// Failures are logged and joined; an expired ctx stops the loop. A second call
// returns ErrAlreadyShutdown.
func (c *Container) Shutdown(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.shutdown {
		return ErrAlreadyShutdown
	}
	c.shutdown = true

	var errs []error
	for i := len(c.created) - 1; i >= 0; i-- {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		id := c.created[i]
		if err := c.dispose(id, c.objects[id]); err != nil {
			c.logger.Error("failed to destroy object", "id", id, "error", err)
			errs = append(errs, fmt.Errorf("destroying %q: %w", id, err))
		}
	}
	return errors.Join(errs...)
}

func (c *Container) dispose(id string, obj any) error {
	if obj == nil {
		return nil
	}
	var method string
	if def, ok := c.defs[id]; ok {
		method = def.DestroyMethod
	}
	if method == "" {
		if namer, ok := obj.(DestroyMethodNamer); ok {
			method = namer.DestroyMethod()
		}
	}
	if method != "" {
		c.logger.Debug("destroying object", "id", id, "method", method)
		return callMethod(obj, method)
	}

	switch o := obj.(type) {
	case Disposable:
		c.logger.Debug("destroying object", "id", id, "method", "Destroy")
		return o.Destroy()
	case io.Closer:
		c.logger.Debug("destroying object", "id", id, "method", "Close")
		return o.Close()
	}
	return nil
}

// callMethod invokes obj.name(). The method takes no arguments and returns
// nothing or an error.
func callMethod(obj any, name string) error {
	m := reflect.ValueOf(obj).MethodByName(name)
	if !m.IsValid() {
		return fmt.Errorf("%T has no method %s", obj, name)
	}
	if m.Type().NumIn() != 0 {
		return fmt.Errorf("%T.%s takes arguments", obj, name)
	}
	out := m.Call(nil)
	if len(out) == 0 {
		return nil
	}
	if err, ok := out[len(out)-1].Interface().(error); ok {
		return err
	}
	return nil
}
