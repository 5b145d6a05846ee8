package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/km-arc/go-ioc/framework/container"
)

// Open returns one reader per path. YAML is chosen by extension; XML files are
// sniffed for their root element to pick the objects, beans or components
// format.
func Open(paths []string, opts ...Option) ([]container.Config, error) {
	o := newOptions(opts)
	configs := make([]container.Config, 0, len(paths))
	for _, path := range paths {
		path = strings.TrimSpace(path)
		if path == "" {
			continue
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case ".yaml", ".yml":
			configs = append(configs, NewYAMLConfig([]string{path}, opts...))
		case ".xml":
			root, err := o.rootElement(path)
			if err != nil {
				return nil, fmt.Errorf("reading %s: %w", path, err)
			}
			switch root {
			case objectsDialect.root:
				configs = append(configs, NewXMLConfig([]string{path}, opts...))
			case beansDialect.root:
				configs = append(configs, NewBeansXMLConfig([]string{path}, opts...))
			case "components":
				configs = append(configs, NewLegacyXMLConfig([]string{path}, opts...))
			default:
				return nil, fmt.Errorf("reading %s: unknown root element <%s>", path, root)
			}
		default:
			return nil, fmt.Errorf("reading %s: unsupported file type %q", path, filepath.Ext(path))
		}
	}
	return configs, nil
}

func (o *options) rootElement(path string) (string, error) {
	f, err := o.open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	root, err := decodeElement(f)
	if err != nil {
		return "", err
	}
	return root.tag(), nil
}
