package loader

import (
	"fmt"
	"os"

	"labsolver/domain/lab"
	"labsolver/internal"
	"labsolver/internal/errors"

	"gopkg.in/yaml.v3"
)

// YAMLLoader reads input definitions written as YAML. Mappings are read
// through yaml.Node so key order survives.
type YAMLLoader struct {
	resolver *Resolver
}

// NewYAMLLoader creates a YAML loader; defaults fill settings the document omits
func NewYAMLLoader(defaults lab.Settings, logger *internal.Logger) *YAMLLoader {
	return &YAMLLoader{resolver: NewResolver(defaults, logger)}
}

// Load reads and resolves the file at path
func (l *YAMLLoader) Load(path string) (*lab.Task, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.InvalidInput(fmt.Sprintf("failed to read %s: %v", path, err))
	}
	task, err := l.Parse(data)
	if err != nil {
		return nil, err
	}
	task.Source = path
	return task, nil
}

// Parse resolves an in-memory YAML document
func (l *YAMLLoader) Parse(data []byte) (*lab.Task, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.Parse("input is not valid YAML", err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, errors.Parse("input is empty", nil)
	}
	root, err := fromYAML(doc.Content[0])
	if err != nil {
		return nil, errors.Parse("input is not valid YAML", err)
	}
	return l.resolver.Resolve(root, data)
}

func fromYAML(y *yaml.Node) (node, error) {
	switch y.Kind {
	case yaml.AliasNode:
		return fromYAML(y.Alias)
	case yaml.SequenceNode:
		n := node{kind: nodeList}
		for _, item := range y.Content {
			converted, err := fromYAML(item)
			if err != nil {
				return node{}, err
			}
			n.items = append(n.items, converted)
		}
		return n, nil
	case yaml.MappingNode:
		n := node{kind: nodeMap}
		for i := 0; i+1 < len(y.Content); i += 2 {
			value, err := fromYAML(y.Content[i+1])
			if err != nil {
				return node{}, err
			}
			n.fields = append(n.fields, field{key: y.Content[i].Value, value: value})
		}
		return n, nil
	case yaml.ScalarNode:
		return fromYAMLScalar(y)
	default:
		return node{kind: nodeNull}, nil
	}
}

func fromYAMLScalar(y *yaml.Node) (node, error) {
	switch y.ShortTag() {
	case "!!null":
		return node{kind: nodeNull}, nil
	case "!!bool":
		var b bool
		if err := y.Decode(&b); err != nil {
			return node{}, fmt.Errorf("line %d: %w", y.Line, err)
		}
		return node{kind: nodeBool, flag: b}, nil
	case "!!int", "!!float":
		var f float64
		if err := y.Decode(&f); err != nil {
			return node{}, fmt.Errorf("line %d: %w", y.Line, err)
		}
		return node{kind: nodeNumber, num: f, text: y.Value}, nil
	default:
		return node{kind: nodeString, text: y.Value}, nil
	}
}
