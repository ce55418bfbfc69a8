// Package scriptresult parses the YAML documents scripts upload and drives the
// status transitions of stored script results.
package scriptresult

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"slices"

	"gopkg.in/yaml.v3"
)

// Accepted values of the status key of a result document
var resultStatuses = []string{"passed", "failed", "degraded", "timedout"}

// ValidationError is returned when a result document is malformed
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func invalid(format string, args ...any) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// ReadResults parses and validates a result document. An empty or null
// document yields nil without error.
func ReadResults(result []byte) (map[string]any, error) {
	if len(bytes.TrimSpace(result)) == 0 {
		return nil, nil
	}

	dec := yaml.NewDecoder(bytes.NewReader(result))
	var doc yaml.Node
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, &ValidationError{Message: err.Error()}
	}
	var extra yaml.Node
	if err := dec.Decode(&extra); !errors.Is(err, io.EOF) {
		if err != nil {
			return nil, &ValidationError{Message: err.Error()}
		}
		return nil, invalid("expected a single YAML document.")
	}
	root := resolve(&doc)
	if root == nil || root.Kind == 0 || isNull(root) {
		return nil, nil
	}
	if root.Kind != yaml.MappingNode {
		return nil, invalid("YAML must be a dictionary.")
	}

	if status := lookup(root, "status"); status != nil && !isNull(status) {
		if status.Kind != yaml.ScalarNode || status.Tag != "!!str" || !slices.Contains(resultStatuses, status.Value) {
			return nil, invalid(`status must be "passed", "failed", "degraded", or "timedout".`)
		}
	}

	if results := lookup(root, "results"); results != nil && !isNull(results) {
		if results.Kind != yaml.MappingNode {
			return nil, invalid("results must be a dictionary.")
		}
		for i := 0; i+1 < len(results.Content); i += 2 {
			key := resolve(results.Content[i])
			if key.Kind != yaml.ScalarNode || key.Tag != "!!str" {
				return nil, invalid("All keys in the results dictionary must be strings.")
			}
			value := resolve(results.Content[i+1])
			values := []*yaml.Node{value}
			if value.Kind == yaml.SequenceNode {
				values = value.Content
			}
			for _, v := range values {
				if !isPlainValue(resolve(v)) {
					return nil, invalid("All values in the results dictionary must be a string, float, int, or bool.")
				}
			}
		}
	}

	var parsed any
	if err := root.Decode(&parsed); err != nil {
		return nil, &ValidationError{Message: err.Error()}
	}
	m, _ := normalize(parsed).(map[string]any)
	return m, nil
}

// Status returns the status key of a parsed result document, if any
func Status(parsed map[string]any) string {
	s, _ := parsed["status"].(string)
	return s
}

// resolve unwraps documents and aliases
func resolve(n *yaml.Node) *yaml.Node {
	for n != nil {
		switch n.Kind {
		case yaml.DocumentNode:
			if len(n.Content) == 0 {
				return nil
			}
			n = n.Content[0]
		case yaml.AliasNode:
			n = n.Alias
		default:
			return n
		}
	}
	return nil
}

func isNull(n *yaml.Node) bool {
	return n.Kind == yaml.ScalarNode && n.Tag == "!!null"
}

func isPlainValue(n *yaml.Node) bool {
	if n == nil || n.Kind != yaml.ScalarNode {
		return false
	}
	switch n.Tag {
	case "!!str", "!!int", "!!float", "!!bool":
		return true
	}
	return false
}

func lookup(m *yaml.Node, key string) *yaml.Node {
	for i := 0; i+1 < len(m.Content); i += 2 {
		k := resolve(m.Content[i])
		if k != nil && k.Kind == yaml.ScalarNode && k.Tag == "!!str" && k.Value == key {
			return resolve(m.Content[i+1])
		}
	}
	return nil
}

// normalize turns map[any]any produced for non-string keys into map[string]any
func normalize(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, val := range t {
			t[k] = normalize(val)
		}
		return t
	case map[any]any:
		m := make(map[string]any, len(t))
		for k, val := range t {
			m[fmt.Sprint(k)] = normalize(val)
		}
		return m
	case []any:
		for i, val := range t {
			t[i] = normalize(val)
		}
		return t
	default:
		return v
	}
}
