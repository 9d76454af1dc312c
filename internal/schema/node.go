// Package schema models ADE extraction schemas and checks them against the
// constraints the extraction API imposes before any request is sent.
package schema

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"
)

// Kind is the JSON type a schema node describes.
type Kind string

const (
	KindObject  Kind = "object"
	KindArray   Kind = "array"
	KindString  Kind = "string"
	KindNumber  Kind = "number"
	KindInteger Kind = "integer"
	KindBoolean Kind = "boolean"
	KindNull    Kind = "null"
	KindUnknown Kind = "unknown"
)

var knownKinds = map[string]Kind{
	"object":  KindObject,
	"array":   KindArray,
	"string":  KindString,
	"number":  KindNumber,
	"integer": KindInteger,
	"boolean": KindBoolean,
	"null":    KindNull,
}

// prohibitedKeywords are rejected by ADE at any depth, in report order.
var prohibitedKeywords = []string{
	"allOf", "anyOf", "oneOf", "not",
	"if", "then", "else",
	"dependentRequired", "dependentSchemas",
}

func isProhibited(keyword string) bool {
	for _, k := range prohibitedKeywords {
		if k == keyword {
			return true
		}
	}
	return false
}

// Property is a named child of an object node.
type Property struct {
	Name string
	Node *Node
}

// Problem records input the parser could not interpret. Field names the
// offending keyword, or is empty when the node itself is unusable.
type Problem struct {
	Field   string
	Message string
}

// Node is one fragment of a JSON Schema document. Nodes are built once by
// Parse and never modified afterwards.
type Node struct {
	Kind  Kind
	Types []string // declared "type" values, in source order

	Properties    []Property
	HasProperties bool
	Required      []string

	Items    *Node
	HasItems bool

	Prohibited []string // denylisted keywords present here, in source order
	Problems   []Problem
	Depth      int

	isObject bool // false when the source value was not a JSON object
	typeList bool // "type" was written as an array
}

// Parse decodes a JSON Schema document into a node tree. It only fails on
// syntactically invalid JSON; everything else becomes a Problem on a node.
func Parse(data []byte) (*Node, error) {
	v, err := decodeOrdered(data)
	if err != nil {
		return nil, fmt.Errorf("invalid schema JSON: %w", err)
	}
	return buildNode(v, 0), nil
}

// MustParse is Parse for literals in tests and defaults.
func MustParse(data string) *Node {
	n, err := Parse([]byte(data))
	if err != nil {
		panic(err)
	}
	return n
}

func buildNode(v any, depth int) *Node {
	n := &Node{Kind: KindUnknown, Depth: depth}

	obj, ok := v.(object)
	if !ok {
		n.Problems = append(n.Problems, Problem{
			Message: fmt.Sprintf("schema node must be a JSON object, got %s", jsonTypeName(v)),
		})
		return n
	}
	n.isObject = true

	if raw, ok := obj.get("type"); ok {
		n.readType(raw)
	}

	for _, m := range obj {
		if isProhibited(m.Key) && !slices.Contains(n.Prohibited, m.Key) {
			n.Prohibited = append(n.Prohibited, m.Key)
		}
	}

	if raw, ok := obj.get("properties"); ok {
		n.HasProperties = true
		props, isObj := raw.(object)
		if !isObj {
			n.Problems = append(n.Problems, Problem{
				Field:   "properties",
				Message: fmt.Sprintf("\"properties\" must be an object, got %s", jsonTypeName(raw)),
			})
		}
		for _, p := range props {
			n.Properties = append(n.Properties, Property{Name: p.Key, Node: buildNode(p.Value, depth+1)})
		}
	}

	if raw, ok := obj.get("required"); ok {
		n.readRequired(raw)
	}

	if raw, ok := obj.get("items"); ok {
		n.HasItems = true
		n.Items = buildNode(raw, depth+1)
	}

	return n
}

func (n *Node) readType(raw any) {
	switch t := raw.(type) {
	case string:
		n.Types = []string{t}
	case []any:
		n.typeList = true
		for _, item := range t {
			s, ok := item.(string)
			if !ok {
				n.Problems = append(n.Problems, Problem{
					Field:   "type",
					Message: fmt.Sprintf("type entries must be strings, got %s", jsonTypeName(item)),
				})
				continue
			}
			n.Types = append(n.Types, s)
		}
	default:
		n.Problems = append(n.Problems, Problem{
			Field:   "type",
			Message: fmt.Sprintf("\"type\" must be a string or array of strings, got %s", jsonTypeName(raw)),
		})
		return
	}

	var nonNull []Kind
	for _, name := range n.Types {
		k, ok := knownKinds[name]
		if !ok {
			n.Problems = append(n.Problems, Problem{
				Field:   "type",
				Message: fmt.Sprintf("unrecognized type %q", name),
			})
			continue
		}
		if k != KindNull {
			nonNull = append(nonNull, k)
		}
	}

	switch {
	case len(nonNull) == 1:
		n.Kind = nonNull[0]
	case len(nonNull) == 0 && len(n.Types) > 0 && allNull(n.Types):
		n.Kind = KindNull
	}
}

func (n *Node) readRequired(raw any) {
	list, ok := raw.([]any)
	if !ok {
		n.Problems = append(n.Problems, Problem{
			Field:   "required",
			Message: fmt.Sprintf("\"required\" must be an array of strings, got %s", jsonTypeName(raw)),
		})
		return
	}
	for _, item := range list {
		s, ok := item.(string)
		if !ok {
			n.Problems = append(n.Problems, Problem{
				Field:   "required",
				Message: fmt.Sprintf("required entries must be strings, got %s", jsonTypeName(item)),
			})
			continue
		}
		n.Required = append(n.Required, s)
	}
}

// hasProperty reports whether name is declared under properties.
func (n *Node) hasProperty(name string) bool {
	for _, p := range n.Properties {
		if p.Name == name {
			return true
		}
	}
	return false
}

// unionsComposite reports a type array that names object or array, even a
// single-element one.
func (n *Node) unionsComposite() bool {
	if !n.typeList {
		return false
	}
	for _, t := range n.Types {
		if t == "object" || t == "array" {
			return true
		}
	}
	return false
}

func allNull(types []string) bool {
	for _, t := range types {
		if t != "null" {
			return false
		}
	}
	return true
}

func jsonTypeName(v any) string {
	switch v.(type) {
	case object:
		return "object"
	case []any:
		return "array"
	case string:
		return "string"
	case json.Number:
		return "number"
	case bool:
		return "boolean"
	case nil:
		return "null"
	default:
		return strings.ToLower(fmt.Sprintf("%T", v))
	}
}
