package config

import (
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/km-arc/go-ioc/framework/container"
)

// element is a namespace-agnostic DOM node. Every dialect matches on local
// names only, so the 1.0 and 1.1 object schemas read the same way.
type element struct {
	XMLName  xml.Name
	Attrs    []xml.Attr `xml:",any,attr"`
	Children []*element `xml:",any"`
	Text     string     `xml:",chardata"`
}

func (e *element) tag() string { return e.XMLName.Local }

func (e *element) attr(name string) (string, bool) {
	for _, a := range e.Attrs {
		if a.Name.Local == name {
			return a.Value, true
		}
	}
	return "", false
}

func (e *element) get(name string) string {
	v, _ := e.attr(name)
	return v
}

// child returns the first child with one of the given local names.
func (e *element) child(names ...string) *element {
	for _, c := range e.Children {
		for _, n := range names {
			if c.tag() == n {
				return c
			}
		}
	}
	return nil
}

func (e *element) children(name string) []*element {
	var out []*element
	for _, c := range e.Children {
		if c.tag() == name {
			out = append(out, c)
		}
	}
	return out
}

// text returns the node's text when it holds anything but whitespace.
func (e *element) text() (string, bool) {
	if strings.TrimSpace(e.Text) == "" {
		return "", false
	}
	return e.Text, true
}

func decodeElement(r io.Reader) (*element, error) {
	var root element
	if err := xml.NewDecoder(r).Decode(&root); err != nil {
		return nil, err
	}
	return &root, nil
}

// dialect names the root and object elements of an XML object format. The
// value vocabulary is shared: dict and map, object and bean, and the ref
// attributes object, bean and local are all understood.
type dialect struct {
	root   string
	object string
}

var (
	objectsDialect = dialect{root: "objects", object: "object"}
	beansDialect   = dialect{root: "beans", object: "bean"}
)

// slot locates a descriptor inside its owning object. path is relative to the
// owner and prefixes inner object ids; name is the descriptor's own name.
type slot struct {
	owner string
	path  string
	name  string
}

func (s slot) item(suffix string) slot {
	return slot{owner: s.owner, path: s.path + suffix, name: s.name + suffix}
}

func (s slot) prefix() string { return s.owner + "." + s.path }

// constrSlot is the slot of one constructor argument. The path keeps inner
// objects of different arguments apart: constr[0], constr[1], constr.name.
func constrSlot(owner, name string, named bool, index int) slot {
	path := fmt.Sprintf("constr[%d]", index)
	if named {
		path = "constr." + name
	}
	return slot{owner: owner, path: path, name: owner + ".constr"}
}

// xmlWalker converts one document of a dialect into definitions.
type xmlWalker struct {
	*parser
	dialect dialect
}

func (w *xmlWalker) document(root *element) error {
	if root.tag() != w.dialect.root {
		return fmt.Errorf("expected <%s> root element, found <%s>", w.dialect.root, root.tag())
	}
	for _, el := range root.Children {
		if _, err := w.object(el, ""); err != nil {
			return err
		}
	}
	return nil
}

// object converts el and appends it, after any inner objects it declares.
func (w *xmlWalker) object(el *element, prefix string) (*container.ObjectDef, error) {
	attrs := objectAttrs{
		id:            nestedID(prefix, el.get("id")),
		class:         el.get("class"),
		scope:         el.get("scope"),
		parent:        el.get("parent"),
		destroyMethod: el.get("destroy-method"),
	}
	var err error
	if attrs.lazyInit, err = parseBool(el.get("lazy-init")); err != nil {
		return nil, fmt.Errorf("object %q: lazy-init: %w", attrs.id, err)
	}
	if attrs.abstract, err = parseBool(el.get("abstract")); err != nil {
		return nil, fmt.Errorf("object %q: abstract: %w", attrs.id, err)
	}

	var shorthand container.Value
	if el.tag() != w.dialect.object && attrs.class == "" && attrs.parent == "" {
		if class, ok := w.opts.mappings[el.tag()]; ok {
			attrs.class = class
			shorthand = container.NewLiteral(attrs.id+".constr", coerceText(el.Text))
		} else {
			w.opts.logger.Warn("no matching type for element", "tag", el.tag(), "id", attrs.id)
			attrs.unbuildable = true
		}
	}

	def, err := w.newDef(attrs)
	if err != nil {
		return nil, err
	}
	if shorthand != nil {
		def.PosConstr = append(def.PosConstr, shorthand)
	}

	for _, arg := range el.children("constructor-arg") {
		name, named := arg.attr("name")
		v, err := w.slotValue(arg, constrSlot(def.ID, name, named, len(def.PosConstr)))
		if err != nil {
			return nil, err
		}
		if named {
			def.NamedConstr[name] = v
		} else {
			def.PosConstr = append(def.PosConstr, v)
		}
	}
	for _, prop := range el.children("property") {
		name := prop.get("name")
		if name == "" {
			return nil, fmt.Errorf("object %q: property without a name", def.ID)
		}
		v, err := w.slotValue(prop, slot{owner: def.ID, path: name, name: name})
		if err != nil {
			return nil, err
		}
		if v == nil {
			v = container.NewLiteral(name, nil)
		}
		def.Props = append(def.Props, v)
	}

	w.add(def)
	return def, nil
}

// slotValue converts a constructor-arg or property element. Attribute
// shortcuts win over child elements; an empty element is a gap.
func (w *xmlWalker) slotValue(el *element, s slot) (container.Value, error) {
	if ref, ok := el.attr("ref"); ok {
		return container.NewReference(s.name, ref), nil
	}
	if v, ok := el.attr("value"); ok {
		return container.NewLiteral(s.name, coerceText(v)), nil
	}
	if len(el.Children) == 0 {
		if text, ok := el.text(); ok {
			return container.NewLiteral(s.name, coerceText(text)), nil
		}
		return nil, nil
	}
	return w.value(el.Children[0], s)
}

// value converts a value element: ref, value, a collection or an inner object.
func (w *xmlWalker) value(el *element, s slot) (container.Value, error) {
	switch el.tag() {
	case "ref", "idref":
		for _, attr := range []string{"object", "bean", "local"} {
			if id, ok := el.attr(attr); ok {
				return container.NewReference(s.name, id), nil
			}
		}
		if text, ok := el.text(); ok {
			return container.NewReference(s.name, strings.TrimSpace(text)), nil
		}
		return nil, fmt.Errorf("%s: <ref> names no object", s.name)
	case "value":
		if text, ok := el.text(); ok {
			return container.NewLiteral(s.name, coerceText(text)), nil
		}
		if len(el.Children) > 0 {
			return w.value(el.Children[0], s)
		}
		return container.NewLiteral(s.name, ""), nil
	case "null":
		return container.NewLiteral(s.name, nil), nil
	case "list":
		items, err := w.items(el, func(i int) slot { return s.item(fmt.Sprintf(".list[%d]", i)) })
		return container.NewList(s.name, items...), err
	case "tuple":
		items, err := w.items(el, func(i int) slot { return s.item(fmt.Sprintf(".tuple(%d)", i)) })
		return container.NewTuple(s.name, items...), err
	case "set":
		items, err := w.items(el, func(i int) slot { return s.item(fmt.Sprintf(".set(%d)", i)) })
		return container.NewSetValue(s.name, items...), err
	case "frozenset":
		items, err := w.items(el, func(i int) slot { return s.item(fmt.Sprintf(".set(%d)", i)) })
		return container.NewFrozenSetValue(s.name, items...), err
	case "dict", "map":
		return w.dict(el, s)
	case "props":
		var entries []container.Entry
		for _, prop := range el.children("prop") {
			key := prop.get("key")
			entries = append(entries, container.Entry{
				Key:   key,
				Value: container.NewLiteral(fmt.Sprintf("%s.props['%s']", s.name, key), strings.TrimSpace(prop.Text)),
			})
		}
		return container.NewProps(s.name, entries...), nil
	case "object", "bean":
		def, err := w.object(el, s.prefix())
		if err != nil {
			return nil, err
		}
		return container.NewInnerObject(s.name, def), nil
	}
	return nil, fmt.Errorf("%s: unsupported element <%s>", s.name, el.tag())
}

func (w *xmlWalker) items(el *element, at func(i int) slot) ([]container.Value, error) {
	items := make([]container.Value, 0, len(el.Children))
	for i, c := range el.Children {
		v, err := w.value(c, at(i))
		if err != nil {
			return nil, err
		}
		items = append(items, v)
	}
	return items, nil
}

// dict reads entry elements. The key comes from a key attribute or a <key>
// child holding text or a <value>; the value from value or ref attributes or
// the first other child.
func (w *xmlWalker) dict(el *element, s slot) (container.Value, error) {
	var entries []container.Entry
	for _, entry := range el.children("entry") {
		key, err := entryKey(entry)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", s.name, err)
		}
		es := s.item(fmt.Sprintf(".dict['%s']", key))

		var v container.Value
		switch {
		case entry.get("value") != "":
			v = container.NewLiteral(es.name, coerceText(entry.get("value")))
		case entry.get("ref") != "" || entry.get("value-ref") != "":
			v = container.NewReference(es.name, entry.get("ref")+entry.get("value-ref"))
		default:
			for _, c := range entry.Children {
				if c.tag() == "key" {
					continue
				}
				if v, err = w.value(c, es); err != nil {
					return nil, err
				}
				break
			}
		}
		entries = append(entries, container.Entry{Key: key, Value: v})
	}
	return container.NewDict(s.name, entries...), nil
}

func entryKey(entry *element) (string, error) {
	if key, ok := entry.attr("key"); ok {
		return key, nil
	}
	k := entry.child("key")
	if k == nil {
		return "", fmt.Errorf("dict entry without a key")
	}
	if v := k.child("value"); v != nil {
		return strings.TrimSpace(v.Text), nil
	}
	return strings.TrimSpace(k.Text), nil
}

// XMLConfig reads definitions in the objects XML format:
//
//	<objects xmlns="http://www.springframework.org/springpython/schema/objects/1.1">
//	    <object id="MovieLister" class="movies.MovieLister">
//	        <property name="finder" ref="MovieFinder"/>
//	    </object>
//	    <str id="greeting">hello</str>
//	</objects>
type XMLConfig struct {
	paths   []string
	dialect dialect
	opts    options
}

// NewXMLConfig returns a reader for the given objects files.
func NewXMLConfig(paths []string, opts ...Option) *XMLConfig {
	return &XMLConfig{paths: paths, dialect: objectsDialect, opts: newOptions(opts)}
}

// NewBeansXMLConfig returns a reader for files in the beans format, where
// objects are <bean> elements and references use <ref bean="...">.
func NewBeansXMLConfig(paths []string, opts ...Option) *XMLConfig {
	return &XMLConfig{paths: paths, dialect: beansDialect, opts: newOptions(opts)}
}

// Paths returns the files the reader parses.
func (x *XMLConfig) Paths() []string { return append([]string(nil), x.paths...) }

// ReadObjectDefs parses every file from scratch.
func (x *XMLConfig) ReadObjectDefs() ([]*container.ObjectDef, error) {
	w := &xmlWalker{parser: newParser(&x.opts), dialect: x.dialect}
	for _, path := range x.paths {
		x.opts.logger.Debug("parsing definitions", "path", path, "format", x.dialect.root)
		if err := x.readFile(w, path); err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
	}
	return w.defs, nil
}

func (x *XMLConfig) readFile(w *xmlWalker, path string) error {
	f, err := x.opts.open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	root, err := decodeElement(f)
	if err != nil {
		return err
	}
	return w.document(root)
}
