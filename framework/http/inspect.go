package http

import (
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/km-arc/go-ioc/framework/container"
	"github.com/km-arc/go-ioc/framework/routing"
)

// DefinitionView is the JSON form of an object definition.
type DefinitionView struct {
	ID            string            `json:"id"`
	Class         string            `json:"class,omitempty"`
	Scope         string            `json:"scope"`
	LazyInit      bool              `json:"lazy_init"`
	Abstract      bool              `json:"abstract"`
	Parent        string            `json:"parent,omitempty"`
	DestroyMethod string            `json:"destroy_method,omitempty"`
	Args          []string          `json:"args,omitempty"`
	NamedArgs     map[string]string `json:"named_args,omitempty"`
	Properties    []string          `json:"properties,omitempty"`
	Resolved      bool              `json:"resolved"`
}

// ObjectView is the JSON form of a built singleton.
type ObjectView struct {
	ID    string `json:"id"`
	Type  string `json:"type"`
	Value string `json:"value"`
}

// Inspector serves a read-only view of a container. It reports definitions
// and the singletons built so far; it never builds anything.
//
//	GET /definitions        every definition, in read order
//	GET /definitions/{id}   one definition
//	GET /objects            every built singleton
//	GET /objects/{id}       one built singleton
type Inspector struct {
	mu     sync.RWMutex
	c      *container.Container
	logger *slog.Logger
}

// NewInspector returns an Inspector. It serves 503 until a container is
// attached with SetContainer, which the container does itself when the
// Inspector is one of its objects.
func NewInspector(logger *slog.Logger) *Inspector {
	if logger == nil {
		logger = slog.Default()
	}
	return &Inspector{logger: logger}
}

// SetContainer attaches c.
func (i *Inspector) SetContainer(c *container.Container) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.c = c
}

// Routes registers the inspection endpoints on r.
func (i *Inspector) Routes(r *routing.Router) {
	r.Get("/definitions", i.definitions)
	r.Get("/definitions/{id}", i.definition)
	r.Get("/objects", i.objects)
	r.Get("/objects/{id}", i.object)
}

// Handler returns a standalone handler serving the endpoints at the root.
func (i *Inspector) Handler() http.Handler {
	r := routing.New(i.logger)
	i.Routes(r)
	return r
}

func (i *Inspector) respond(w http.ResponseWriter) *Response {
	return NewResponse(w).WithLogger(i.logger)
}

func (i *Inspector) attached(w http.ResponseWriter) (*container.Container, bool) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	if i.c == nil {
		i.respond(w).Error(http.StatusServiceUnavailable, "No container attached.")
		return nil, false
	}
	return i.c, true
}

func (i *Inspector) definitions(w http.ResponseWriter, r *http.Request) {
	c, ok := i.attached(w)
	if !ok {
		return
	}
	defs := c.ObjectDefs()
	views := make([]DefinitionView, 0, len(defs))
	for _, id := range c.IDs() {
		if def, ok := defs[id]; ok {
			views = append(views, definitionView(def, c.Resolved(id)))
		}
	}
	i.respond(w).List(views, len(views))
}

func (i *Inspector) definition(w http.ResponseWriter, r *http.Request) {
	c, ok := i.attached(w)
	if !ok {
		return
	}
	id := routing.Param(r, "id")
	def, ok := c.ObjectDef(id)
	if !ok {
		i.respond(w).NotFound("No definition %q.", id)
		return
	}
	i.respond(w).Success(definitionView(def, c.Resolved(id)))
}

func (i *Inspector) objects(w http.ResponseWriter, r *http.Request) {
	c, ok := i.attached(w)
	if !ok {
		return
	}
	objs := c.Objects()
	views := make([]ObjectView, 0, len(objs))
	for _, id := range c.IDs() {
		if obj, ok := objs[id]; ok {
			views = append(views, objectView(id, obj))
		}
	}
	i.respond(w).List(views, len(views))
}

func (i *Inspector) object(w http.ResponseWriter, r *http.Request) {
	c, ok := i.attached(w)
	if !ok {
		return
	}
	id := routing.Param(r, "id")
	def, ok := c.ObjectDef(id)
	if !ok {
		i.respond(w).NotFound("No definition %q.", id)
		return
	}
	obj, ok := c.Objects()[def.ID]
	if !ok {
		i.respond(w).NotFound("Object %q has not been built.", id)
		return
	}
	i.respond(w).Success(objectView(def.ID, obj))
}

func definitionView(def *container.ObjectDef, resolved bool) DefinitionView {
	v := DefinitionView{
		ID:            def.ID,
		Class:         def.Class,
		Scope:         def.Scope.String(),
		LazyInit:      def.LazyInit,
		Abstract:      def.Abstract,
		Parent:        def.Parent,
		DestroyMethod: def.DestroyMethod,
		Resolved:      resolved,
	}
	for _, a := range def.PosConstr {
		v.Args = append(v.Args, describe(a))
	}
	if len(def.NamedConstr) > 0 {
		v.NamedArgs = make(map[string]string, len(def.NamedConstr))
		for name, a := range def.NamedConstr {
			v.NamedArgs[name] = describe(a)
		}
	}
	for _, p := range def.Props {
		v.Properties = append(v.Properties, describe(p))
	}
	return v
}

func describe(v container.Value) string {
	if v == nil {
		return "<gap>"
	}
	return fmt.Sprint(v)
}

func objectView(id string, obj any) ObjectView {
	return ObjectView{ID: id, Type: fmt.Sprintf("%T", obj), Value: fmt.Sprintf("%+v", obj)}
}
