package loader

import (
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"confdrift/internal/tree"
)

// LoadYAML parses key-structured markup (workflow definitions, pre-commit
// manifests) into an ordered mapping tree. yaml.Node is used instead of
// map[string]any so mapping key order survives into the tree.
func LoadYAML(path string, raw []byte) (*tree.Node, *ParseError) {
	var doc yaml.Node
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, &ParseError{Kind: MalformedMarkup, Path: path, Detail: err.Error()}
	}
	if doc.Kind == 0 || len(doc.Content) == 0 {
		// Empty document: treat as an empty mapping so extractors see a
		// well-formed but contentless record.
		return tree.Mapping(), nil
	}
	n, err := yamlToTree(doc.Content[0])
	if err != nil {
		return nil, &ParseError{Kind: MalformedMarkup, Path: path, Detail: err.Error()}
	}
	return n, nil
}

func yamlToTree(n *yaml.Node) (*tree.Node, error) {
	switch n.Kind {
	case yaml.AliasNode:
		return yamlToTree(n.Alias)

	case yaml.ScalarNode:
		return yamlScalar(n), nil

	case yaml.SequenceNode:
		out := make([]*tree.Node, 0, len(n.Content))
		for _, c := range n.Content {
			child, err := yamlToTree(c)
			if err != nil {
				return nil, err
			}
			out = append(out, child)
		}
		return tree.Sequence(out...), nil

	case yaml.MappingNode:
		m := tree.Mapping()
		for i := 0; i+1 < len(n.Content); i += 2 {
			key := n.Content[i].Value
			child, err := yamlToTree(n.Content[i+1])
			if err != nil {
				return nil, err
			}
			m.Put(key, child)
		}
		return m, nil

	default:
		return tree.Unresolved(), nil
	}
}

func yamlScalar(n *yaml.Node) *tree.Node {
	switch n.Tag {
	case "!!null":
		return tree.Null()
	case "!!bool":
		v, err := strconv.ParseBool(strings.ToLower(n.Value))
		if err != nil {
			return tree.Scalar(n.Value)
		}
		return tree.Bool(v)
	case "!!int", "!!float":
		return tree.Number(n.Value)
	default:
		return tree.Scalar(n.Value)
	}
}
