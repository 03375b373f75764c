package loader

import (
	"fmt"
	"os"

	"labsolver/domain/lab"
	"labsolver/internal"
	"labsolver/internal/errors"

	"github.com/tidwall/gjson"
)

// JSONLoader reads input definitions written as JSON
type JSONLoader struct {
	resolver *Resolver
}

// NewJSONLoader creates a JSON loader; defaults fill settings the document omits
func NewJSONLoader(defaults lab.Settings, logger *internal.Logger) *JSONLoader {
	return &JSONLoader{resolver: NewResolver(defaults, logger)}
}

// Load reads and resolves the file at path
func (l *JSONLoader) Load(path string) (*lab.Task, error) {
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

// Parse resolves an in-memory JSON document
func (l *JSONLoader) Parse(data []byte) (*lab.Task, error) {
	if !gjson.ValidBytes(data) {
		return nil, errors.Parse("input is not valid JSON", nil)
	}
	root := fromJSON(gjson.ParseBytes(data))
	return l.resolver.Resolve(root, data)
}

func fromJSON(r gjson.Result) node {
	switch r.Type {
	case gjson.Number:
		return node{kind: nodeNumber, num: r.Float(), text: r.Raw}
	case gjson.String:
		return node{kind: nodeString, text: r.Str}
	case gjson.True, gjson.False:
		return node{kind: nodeBool, flag: r.Bool()}
	case gjson.JSON:
		if r.IsArray() {
			n := node{kind: nodeList}
			r.ForEach(func(_, value gjson.Result) bool {
				n.items = append(n.items, fromJSON(value))
				return true
			})
			return n
		}
		n := node{kind: nodeMap}
		r.ForEach(func(key, value gjson.Result) bool {
			n.fields = append(n.fields, field{key: key.String(), value: fromJSON(value)})
			return true
		})
		return n
	default:
		return node{kind: nodeNull}
	}
}
