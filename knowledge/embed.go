package knowledge

import (
	_ "embed"
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed tables.yaml
var embeddedTables []byte

var (
	defaultOnce   sync.Once
	defaultTables *Tables
	defaultErr    error
)

// EmbeddedYAML returns a copy of the embedded table source.
func EmbeddedYAML() []byte {
	out := make([]byte, len(embeddedTables))
	copy(out, embeddedTables)
	return out
}

// Decode parses UTF-8 YAML into a Tables value with normalized keys.
func Decode(data []byte) (*Tables, error) {
	var t Tables
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("failed to decode knowledge tables: %w", err)
	}
	t.normalizeKeys()
	return &t, nil
}

// Default returns the embedded tables. The result is shared and must not be modified.
func Default() (*Tables, error) {
	defaultOnce.Do(func() {
		defaultTables, defaultErr = Decode(embeddedTables)
	})
	return defaultTables, defaultErr
}

// MustDefault is Default for callers that cannot continue without the embedded tables.
func MustDefault() *Tables {
	t, err := Default()
	if err != nil {
		panic(err)
	}
	return t
}
