package config

import (
	"fmt"
	"strings"

	"github.com/km-arc/go-ioc/framework/container"
)

// LegacyXMLConfig reads the older components format. Properties are either
// references (a local attribute or <local> element), lists of references, or
// literal expressions such as 'text', 42, 1.5, True or None.
//
//	<components>
//	    <component id="MovieLister" class="movies.MovieLister">
//	        <property name="finder" local="MovieFinder"/>
//	        <property name="description">'classics'</property>
//	    </component>
//	</components>
type LegacyXMLConfig struct {
	paths []string
	opts  options
}

// NewLegacyXMLConfig returns a reader for the given components files.
func NewLegacyXMLConfig(paths []string, opts ...Option) *LegacyXMLConfig {
	return &LegacyXMLConfig{paths: paths, opts: newOptions(opts)}
}

// Paths returns the files the reader parses.
func (l *LegacyXMLConfig) Paths() []string { return append([]string(nil), l.paths...) }

// ReadObjectDefs parses every file from scratch.
func (l *LegacyXMLConfig) ReadObjectDefs() ([]*container.ObjectDef, error) {
	p := newParser(&l.opts)
	for _, path := range l.paths {
		l.opts.logger.Debug("parsing definitions", "path", path, "format", "components")
		if err := l.readFile(p, path); err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
	}
	return p.defs, nil
}

func (l *LegacyXMLConfig) readFile(p *parser, path string) error {
	f, err := l.opts.open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	root, err := decodeElement(f)
	if err != nil {
		return err
	}
	if root.tag() != "components" {
		return fmt.Errorf("expected <components> root element, found <%s>", root.tag())
	}
	for _, el := range root.children("component") {
		def, err := l.component(p, el)
		if err != nil {
			return err
		}
		p.add(def)
	}
	return nil
}

func (l *LegacyXMLConfig) component(p *parser, el *element) (*container.ObjectDef, error) {
	def, err := p.newDef(objectAttrs{
		id:    el.get("id"),
		class: el.get("class"),
		scope: el.get("scope"),
	})
	if err != nil {
		return nil, err
	}
	for _, prop := range el.children("property") {
		name := prop.get("name")
		if name == "" {
			return nil, fmt.Errorf("component %q: property without a name", def.ID)
		}
		def.Props = append(def.Props, legacyProperty(prop, name))
	}
	return def, nil
}

func legacyProperty(prop *element, name string) container.Value {
	if local, ok := prop.attr("local"); ok {
		return container.NewReference(name, local)
	}
	if local := prop.child("local"); local != nil {
		return container.NewReference(name, strings.TrimSpace(local.Text))
	}
	if list := prop.child("list"); list != nil {
		var refs []container.Value
		for _, local := range list.children("local") {
			id := local.get("local")
			if id == "" {
				id = strings.TrimSpace(local.Text)
			}
			refs = append(refs, container.NewReference(name+".list", id))
		}
		return container.NewList(name, refs...)
	}
	return container.NewLiteral(name, coerceLegacy(prop.Text))
}
