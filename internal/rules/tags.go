package rules

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// DecodeFunc converts a node to plain Go values as if it carried no tag.
type DecodeFunc func(node *yaml.Node) (any, error)

// UnknownTagFunc resolves a node whose tag is not a YAML core tag.
type UnknownTagFunc func(tag string, node *yaml.Node, decode DecodeFunc) (any, error)

// TransparentTags ignores unknown tags. A tagged scalar yields its text, a
// tagged sequence or mapping is decoded structurally.
func TransparentTags(_ string, node *yaml.Node, decode DecodeFunc) (any, error) {
	return decode(node)
}

// RejectUnknownTags fails on the first unknown tag.
func RejectUnknownTags(tag string, node *yaml.Node, _ DecodeFunc) (any, error) {
	return nil, fmt.Errorf("line %d: unsupported tag %s", node.Line, tag)
}

// maxDepth bounds nesting, including alias expansion.
const maxDepth = 256

// converter turns a yaml.Node tree into map[string]any, []any and scalars.
type converter struct {
	onUnknown UnknownTagFunc
	// anchors holds decoded anchor values so aliases share them.
	anchors map[*yaml.Node]any
}

func (c *converter) decode(n *yaml.Node) (any, error) {
	return c.node(n, 0)
}

func (c *converter) node(n *yaml.Node, depth int) (any, error) {
	if n == nil {
		return nil, nil
	}
	if depth > maxDepth {
		return nil, fmt.Errorf("line %d: document nested too deeply", n.Line)
	}

	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return nil, nil
		}
		return c.node(n.Content[0], depth+1)
	case yaml.AliasNode:
		if v, ok := c.anchors[n.Alias]; ok {
			return v, nil
		}
		v, err := c.node(n.Alias, depth+1)
		if err != nil {
			return nil, err
		}
		if c.anchors == nil {
			c.anchors = make(map[*yaml.Node]any)
		}
		c.anchors[n.Alias] = v
		return v, nil
	}

	if isCustomTag(n.Tag) {
		return c.onUnknown(n.Tag, n, func(inner *yaml.Node) (any, error) {
			return c.untagged(inner, depth)
		})
	}
	return c.untagged(n, depth)
}

// untagged decodes n by its shape, ignoring any custom tag.
func (c *converter) untagged(n *yaml.Node, depth int) (any, error) {
	switch n.Kind {
	case yaml.ScalarNode:
		if isCustomTag(n.Tag) {
			return n.Value, nil
		}
		var v any
		if err := n.Decode(&v); err != nil {
			return nil, err
		}
		return v, nil
	case yaml.SequenceNode:
		out := make([]any, 0, len(n.Content))
		for _, item := range n.Content {
			v, err := c.node(item, depth+1)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil
	case yaml.MappingNode:
		return c.mapping(n, depth)
	}
	return nil, nil
}

// mapping decodes a mapping node. Merge keys (<<) contribute entries that the
// mapping does not set itself.
func (c *converter) mapping(n *yaml.Node, depth int) (map[string]any, error) {
	out := make(map[string]any, len(n.Content)/2)
	var merged []map[string]any

	for i := 0; i+1 < len(n.Content); i += 2 {
		keyNode, valNode := n.Content[i], n.Content[i+1]
		if keyNode.Tag == "!!merge" {
			maps, err := c.mergeSources(valNode, depth)
			if err != nil {
				return nil, err
			}
			merged = append(merged, maps...)
			continue
		}
		key, err := c.node(keyNode, depth+1)
		if err != nil {
			return nil, err
		}
		val, err := c.node(valNode, depth+1)
		if err != nil {
			return nil, err
		}
		out[keyString(key)] = val
	}

	for _, m := range merged {
		for k, v := range m {
			if _, set := out[k]; !set {
				out[k] = v
			}
		}
	}
	return out, nil
}

func (c *converter) mergeSources(n *yaml.Node, depth int) ([]map[string]any, error) {
	v, err := c.node(n, depth+1)
	if err != nil {
		return nil, err
	}
	switch t := v.(type) {
	case map[string]any:
		return []map[string]any{t}, nil
	case []any:
		out := make([]map[string]any, 0, len(t))
		for _, item := range t {
			m, ok := item.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("line %d: merge key expects mappings", n.Line)
			}
			out = append(out, m)
		}
		return out, nil
	}
	return nil, fmt.Errorf("line %d: merge key expects a mapping", n.Line)
}

func isCustomTag(tag string) bool {
	return tag != "" && !strings.HasPrefix(tag, "!!")
}

func keyString(k any) string {
	if s, ok := k.(string); ok {
		return s
	}
	return fmt.Sprint(k)
}
