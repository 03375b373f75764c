package loader

import (
	"fmt"
	"strings"
)

// nodeKind tells what a document node holds
type nodeKind int

const (
	nodeNull nodeKind = iota
	nodeNumber
	nodeString
	nodeBool
	nodeList
	nodeMap
)

func (k nodeKind) String() string {
	switch k {
	case nodeNumber:
		return "number"
	case nodeString:
		return "string"
	case nodeBool:
		return "boolean"
	case nodeList:
		return "list"
	case nodeMap:
		return "mapping"
	default:
		return "null"
	}
}

// node is a format-neutral view of a parsed input document. Mappings keep
// their keys in document order, which is the evaluation and report order.
type node struct {
	kind   nodeKind
	num    float64
	text   string
	flag   bool
	items  []node
	fields []field
}

type field struct {
	key   string
	value node
}

// get returns the value of key in a mapping node
func (n node) get(key string) (node, bool) {
	for _, f := range n.fields {
		if f.key == key {
			return f.value, true
		}
	}
	return node{}, false
}

// describe renders a short excerpt for diagnostics
func (n node) describe() string {
	switch n.kind {
	case nodeNumber:
		return fmt.Sprintf("%v", n.num)
	case nodeString:
		return fmt.Sprintf("%q", n.text)
	case nodeBool:
		return fmt.Sprintf("%v", n.flag)
	case nodeList:
		parts := make([]string, len(n.items))
		for i, item := range n.items {
			parts[i] = item.describe()
		}
		return "[" + strings.Join(parts, ", ") + "]"
	default:
		return n.kind.String()
	}
}
