package spec

import (
    "fmt"

    "github.com/mark3labs/qigen/internal/ordered"
    "gopkg.in/yaml.v3"
)

// Map is a string-keyed mapping decoded from YAML that keeps declaration
// order. Decoding into a plain Go map would lose that order.
type Map[V any] struct {
    ordered.Map[string, V]
}

func (m *Map[V]) UnmarshalYAML(node *yaml.Node) error {
    if node.Kind == yaml.ScalarNode && node.ShortTag() == "!!null" {
        return nil
    }
    if node.Kind != yaml.MappingNode {
        return fmt.Errorf("line %d: expected a mapping", node.Line)
    }
    for i := 0; i+1 < len(node.Content); i += 2 {
        key, value := node.Content[i], node.Content[i+1]
        if m.Has(key.Value) {
            return fmt.Errorf("line %d: duplicate key %q", key.Line, key.Value)
        }
        var v V
        if err := value.Decode(&v); err != nil {
            return fmt.Errorf("%s: %w", key.Value, err)
        }
        m.Set(key.Value, v)
    }
    return nil
}

func (a *AdditionalProperties) UnmarshalYAML(node *yaml.Node) error {
    if node.Kind == yaml.ScalarNode && node.ShortTag() == "!!bool" {
        return node.Decode(&a.Allowed)
    }
    var s Schema
    if err := node.Decode(&s); err != nil {
        return err
    }
    a.Allowed = true
    a.Schema = &s
    return nil
}
