package config

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/km-arc/go-ioc/framework/container"
)

// YAMLConfig reads definitions from YAML documents with a top-level objects
// sequence:
//
//	objects:
//	  - object: MovieLister
//	    class: movies.MovieLister
//	    properties:
//	      finder: {ref: MovieFinder}
//	      tags: {set: [classic, noir]}
//	  - object: greeting
//	    str: hello
//
// Documents are walked as yaml.Node trees so property order is kept.
type YAMLConfig struct {
	paths []string
	opts  options
}

// NewYAMLConfig returns a reader for the given YAML files.
func NewYAMLConfig(paths []string, opts ...Option) *YAMLConfig {
	return &YAMLConfig{paths: paths, opts: newOptions(opts)}
}

// Paths returns the files the reader parses.
func (y *YAMLConfig) Paths() []string { return append([]string(nil), y.paths...) }

// ReadObjectDefs parses every file from scratch.
func (y *YAMLConfig) ReadObjectDefs() ([]*container.ObjectDef, error) {
	w := &yamlWalker{parser: newParser(&y.opts)}
	for _, path := range y.paths {
		y.opts.logger.Debug("parsing definitions", "path", path, "format", "yaml")
		if err := y.readFile(w, path); err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
	}
	return w.defs, nil
}

func (y *YAMLConfig) readFile(w *yamlWalker, path string) error {
	f, err := y.opts.open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return err
	}
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return err
	}
	return w.document(&doc)
}

type yamlWalker struct {
	*parser
}

type pair struct {
	key   string
	value *yaml.Node
}

func pairs(n *yaml.Node) []pair {
	out := make([]pair, 0, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		out = append(out, pair{key: n.Content[i].Value, value: n.Content[i+1]})
	}
	return out
}

func lookup(n *yaml.Node, key string) (*yaml.Node, bool) {
	for _, p := range pairs(n) {
		if p.key == key {
			return p.value, true
		}
	}
	return nil, false
}

func isNull(n *yaml.Node) bool {
	return n == nil || (n.Kind == yaml.ScalarNode && n.ShortTag() == "!!null")
}

func scalar(n *yaml.Node) string {
	if isNull(n) {
		return ""
	}
	return n.Value
}

func (w *yamlWalker) document(doc *yaml.Node) error {
	if doc.Kind == 0 {
		return nil
	}
	root := doc
	if root.Kind == yaml.DocumentNode {
		root = root.Content[0]
	}
	if root.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: expected a mapping with an objects key", root.Line)
	}
	objects, ok := lookup(root, "objects")
	if !ok || isNull(objects) {
		return nil
	}
	if objects.Kind != yaml.SequenceNode {
		return fmt.Errorf("line %d: objects must be a sequence", objects.Line)
	}
	for _, n := range objects.Content {
		if _, err := w.object(n, ""); err != nil {
			return err
		}
	}
	return nil
}

// object converts a mapping node and appends it, after any inner objects it
// declares.
func (w *yamlWalker) object(n *yaml.Node, prefix string) (*container.ObjectDef, error) {
	if n.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("line %d: object must be a mapping", n.Line)
	}
	id, _ := lookup(n, "object")
	attrs := objectAttrs{id: nestedID(prefix, scalar(id))}
	var args, props, shorthand *yaml.Node
	var mapped string
	for _, p := range pairs(n) {
		var err error
		switch p.key {
		case "object":
		case "class":
			attrs.class = scalar(p.value)
		case "scope":
			attrs.scope = scalar(p.value)
		case "parent":
			attrs.parent = scalar(p.value)
		case "destroy-method":
			attrs.destroyMethod = scalar(p.value)
		case "lazy-init":
			attrs.lazyInit, err = parseBool(scalar(p.value))
		case "abstract":
			attrs.abstract, err = parseBool(scalar(p.value))
		case "constructor-args":
			args = p.value
		case "properties":
			props = p.value
		default:
			if class, ok := w.opts.mappings[p.key]; ok && shorthand == nil {
				shorthand, mapped = p.value, class
				continue
			}
			w.opts.logger.Debug("ignoring unknown object key", "id", attrs.id, "key", p.key)
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: object %q: %s: %w", p.value.Line, attrs.id, p.key, err)
		}
	}
	switch {
	case shorthand != nil && (attrs.class != "" || attrs.parent != "" || args != nil):
		return nil, fmt.Errorf("line %d: object %q mixes a type shorthand with class, parent or constructor-args", n.Line, attrs.id)
	case shorthand != nil:
		attrs.class = mapped
	case attrs.class == "" && attrs.parent == "":
		w.opts.logger.Warn("no matching type for object", "id", attrs.id)
		attrs.unbuildable = true
	}

	def, err := w.newDef(attrs)
	if err != nil {
		return nil, err
	}
	if shorthand != nil {
		v, err := w.value(shorthand, constrSlot(def.ID, "", false, 0))
		if err != nil {
			return nil, err
		}
		def.PosConstr = append(def.PosConstr, v)
	}

	if args != nil && !isNull(args) {
		switch args.Kind {
		case yaml.SequenceNode:
			for _, a := range args.Content {
				if isNull(a) {
					def.PosConstr = append(def.PosConstr, nil)
					continue
				}
				v, err := w.value(a, constrSlot(def.ID, "", false, len(def.PosConstr)))
				if err != nil {
					return nil, err
				}
				def.PosConstr = append(def.PosConstr, v)
			}
		case yaml.MappingNode:
			for _, p := range pairs(args) {
				if isNull(p.value) {
					continue
				}
				v, err := w.value(p.value, constrSlot(def.ID, p.key, true, 0))
				if err != nil {
					return nil, err
				}
				def.NamedConstr[p.key] = v
			}
		default:
			return nil, fmt.Errorf("line %d: object %q: constructor-args must be a sequence or a mapping", args.Line, def.ID)
		}
	}

	if props != nil && !isNull(props) {
		if props.Kind != yaml.MappingNode {
			return nil, fmt.Errorf("line %d: object %q: properties must be a mapping", props.Line, def.ID)
		}
		for _, p := range pairs(props) {
			v, err := w.value(p.value, slot{owner: def.ID, path: p.key, name: p.key})
			if err != nil {
				return nil, err
			}
			def.Props = append(def.Props, v)
		}
	}

	w.add(def)
	return def, nil
}

var yamlCollections = map[string]func(name string, items ...container.Value) *container.Collection{
	"list":      container.NewList,
	"tuple":     container.NewTuple,
	"set":       container.NewSetValue,
	"frozenset": container.NewFrozenSetValue,
}

var yamlItemFormat = map[string]string{
	"list":      ".list[%d]",
	"tuple":     ".tuple(%d)",
	"set":       ".set(%d)",
	"frozenset": ".set(%d)",
}

// value converts a property or argument node. Tagged mappings ({ref: ...},
// {list: [...]}, {object: ...}) select a descriptor; any other mapping is a
// dict, any other sequence a list, and scalars are literals.
func (w *yamlWalker) value(n *yaml.Node, s slot) (container.Value, error) {
	switch n.Kind {
	case yaml.AliasNode:
		return w.value(n.Alias, s)
	case yaml.ScalarNode:
		if isNull(n) {
			return container.NewLiteral(s.name, nil), nil
		}
		var v any
		if err := n.Decode(&v); err != nil {
			return nil, fmt.Errorf("line %d: %s: %w", n.Line, s.name, err)
		}
		if str, ok := v.(string); ok {
			return container.NewLiteral(s.name, coerceText(str)), nil
		}
		return container.NewLiteral(s.name, v), nil
	case yaml.SequenceNode:
		return w.collection("list", n, s)
	case yaml.MappingNode:
	default:
		return nil, fmt.Errorf("line %d: %s: unsupported node", n.Line, s.name)
	}

	if ref, ok := lookup(n, "ref"); ok {
		if ref.Kind == yaml.MappingNode {
			id, ok := lookup(ref, "object")
			if !ok {
				return nil, fmt.Errorf("line %d: %s: ref mapping needs an object key", ref.Line, s.name)
			}
			return container.NewReference(s.name, scalar(id)), nil
		}
		return container.NewReference(s.name, scalar(ref)), nil
	}
	if len(n.Content) == 2 {
		key, body := n.Content[0].Value, n.Content[1]
		switch key {
		case "list", "tuple", "set", "frozenset":
			return w.collection(key, body, s)
		case "dict":
			return w.dict(body, s)
		case "props":
			return w.props(body, s)
		}
	}
	if _, ok := lookup(n, "object"); ok {
		def, err := w.object(n, s.prefix())
		if err != nil {
			return nil, err
		}
		return container.NewInnerObject(s.name, def), nil
	}
	return w.dict(n, s)
}

func (w *yamlWalker) collection(kind string, n *yaml.Node, s slot) (container.Value, error) {
	if isNull(n) {
		return yamlCollections[kind](s.name), nil
	}
	if n.Kind != yaml.SequenceNode {
		return nil, fmt.Errorf("line %d: %s: %s needs a sequence", n.Line, s.name, kind)
	}
	items := make([]container.Value, 0, len(n.Content))
	for i, item := range n.Content {
		v, err := w.value(item, s.item(fmt.Sprintf(yamlItemFormat[kind], i)))
		if err != nil {
			return nil, err
		}
		items = append(items, v)
	}
	return yamlCollections[kind](s.name, items...), nil
}

func (w *yamlWalker) dict(n *yaml.Node, s slot) (container.Value, error) {
	if isNull(n) {
		return container.NewDict(s.name), nil
	}
	if n.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("line %d: %s: dict needs a mapping", n.Line, s.name)
	}
	var entries []container.Entry
	for _, p := range pairs(n) {
		v, err := w.value(p.value, s.item(fmt.Sprintf(".dict['%s']", p.key)))
		if err != nil {
			return nil, err
		}
		entries = append(entries, container.Entry{Key: p.key, Value: v})
	}
	return container.NewDict(s.name, entries...), nil
}

func (w *yamlWalker) props(n *yaml.Node, s slot) (container.Value, error) {
	if n.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("line %d: %s: props needs a mapping", n.Line, s.name)
	}
	var entries []container.Entry
	for _, p := range pairs(n) {
		entries = append(entries, container.Entry{
			Key:   p.key,
			Value: container.NewLiteral(fmt.Sprintf("%s.props['%s']", s.name, p.key), scalar(p.value)),
		})
	}
	return container.NewProps(s.name, entries...), nil
}
