// Package config reads object definitions for the container.
//
// Every reader implements container.Config and parses its sources from
// scratch on each ReadObjectDefs call.
//
// # Readers
//
//	XMLConfig        <objects>/<object> files (both schema versions)
//	BeansXMLConfig   <beans>/<bean> files
//	LegacyXMLConfig  <components>/<component> files
//	YAMLConfig       objects: sequences in YAML
//	CodeConfig       definitions registered from Go functions
//
// Open picks the right reader per file:
//
//	configs, err := config.Open([]string{"app.xml", "extra.yaml"},
//	    config.WithTypeRegistry(types))
//	c, err := container.New(configs)
//
// # Inner Objects
//
// An object declared inside a property or argument gets the id
// "<owner>.<property path>.<id>", or "<owner>.<property path>.<anonymous>"
// without an id of its own, and is listed before its owner.
//
// # Type Shorthands
//
// An object with no class and no parent whose tag (XML) or key (YAML) is a
// known shorthand becomes an instance of the mapped class, built from the
// node's content:
//
//	<str id="greeting">hello</str>
//
//	- object: timeout
//	  int: 30
//
// DefaultTypeMappings maps str, unicode, int, long, float, decimal, bool,
// complex, list, tuple and dict to the builtin.* classes. WithTypeMappings
// adds more.
package config
