package data

import (
	"fmt"
	"os"

	"github.com/goccy/go-yaml"
)

// LoadBindingsFile reads a YAML mapping from path and returns it as a
// binding map suitable for Bindings.SetAll. The top level of the document
// must be a mapping; nested values are carried through untyped.
func LoadBindingsFile(path string) (map[string]any, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read bindings file: %w", err)
	}

	var m map[string]any
	if err := yaml.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("failed to parse bindings file %s: %w", path, err)
	}

	return m, nil
}
