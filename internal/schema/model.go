package schema

import (
	"encoding/json"
	"fmt"
	"strings"
)

// primitiveTypes maps accepted field type names to JSON Schema fragments.
var primitiveTypes = map[string]object{
	"str":      {{Key: "type", Value: "string"}},
	"string":   {{Key: "type", Value: "string"}},
	"text":     {{Key: "type", Value: "string"}},
	"int":      {{Key: "type", Value: "integer"}},
	"integer":  {{Key: "type", Value: "integer"}},
	"float":    {{Key: "type", Value: "number"}},
	"number":   {{Key: "type", Value: "number"}},
	"decimal":  {{Key: "type", Value: "number"}},
	"bool":     {{Key: "type", Value: "boolean"}},
	"boolean":  {{Key: "type", Value: "boolean"}},
	"date":     {{Key: "type", Value: "string"}, {Key: "format", Value: "date"}},
	"datetime": {{Key: "type", Value: "string"}, {Key: "format", Value: "date-time"}},
}

// ModelDescription is a static structural description of the data to
// extract: field names mapped to declared types. Nothing in it is executed.
//
// Fields is a JSON object whose values are either a type expression
// ("str", "int", "float", "bool", "date", "datetime", "list[T]",
// "optional[T]", "T?"), a nested object describing a sub-model, or a
// one-element array [T] meaning a list of T. Descriptions maps dotted field
// paths ("line_items.price") to field descriptions.
type ModelDescription struct {
	Name         string            `json:"name,omitempty"`
	Fields       json.RawMessage   `json:"fields"`
	Descriptions map[string]string `json:"descriptions,omitempty"`
}

// Translate converts the description to a JSON Schema document. Field
// declarations that cannot be translated are returned as issues at their
// path; the returned schema still contains every field that could be.
func (m ModelDescription) Translate() (json.RawMessage, []Issue, error) {
	if len(strings.TrimSpace(string(m.Fields))) == 0 {
		return nil, nil, fmt.Errorf("model description has no fields")
	}
	v, err := decodeOrdered(m.Fields)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid model description JSON: %w", err)
	}
	fields, ok := v.(object)
	if !ok {
		return nil, nil, fmt.Errorf("model fields must be a JSON object of field name to type, got %s", jsonTypeName(v))
	}

	t := translator{descriptions: m.Descriptions}
	root := t.object(fields, RootPath, "")
	if m.Name != "" {
		root = append(object{{Key: "title", Value: m.Name}}, root...)
	}

	out, err := json.Marshal(root)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to encode model schema: %w", err)
	}
	return out, t.issues, nil
}

type translator struct {
	descriptions map[string]string
	issues       []Issue
}

func (t *translator) object(fields object, path, rel string) object {
	props := object{}
	required := []any{}

	for _, f := range fields {
		fieldPath := path + "." + f.Key
		fieldRel := f.Key
		if rel != "" {
			fieldRel = rel + "." + f.Key
		}

		node, optional, ok := t.field(f.Value, fieldPath, fieldRel)
		if !ok {
			continue
		}
		if desc, ok := t.descriptions[fieldRel]; ok && desc != "" {
			node = append(node, member{Key: "description", Value: desc})
		}
		props = append(props, member{Key: f.Key, Value: node})
		if !optional {
			required = append(required, f.Key)
		}
	}

	out := object{
		{Key: "type", Value: "object"},
		{Key: "properties", Value: props},
	}
	if len(required) > 0 {
		out = append(out, member{Key: "required", Value: required})
	}
	return out
}

// field translates one declaration. optional is only meaningful for
// object fields; list elements ignore it.
func (t *translator) field(decl any, path, rel string) (node object, optional, ok bool) {
	switch d := decl.(type) {
	case string:
		return t.expr(d, path, rel)
	case object:
		return t.object(d, path, rel), false, true
	case []any:
		if len(d) != 1 {
			t.fail(path, fmt.Sprintf("list declarations take exactly one element type, got %d", len(d)))
			return nil, false, false
		}
		items, _, ok := t.field(d[0], path+".items", rel)
		if !ok {
			return nil, false, false
		}
		return object{{Key: "type", Value: "array"}, {Key: "items", Value: items}}, false, true
	default:
		t.fail(path, fmt.Sprintf("field type must be a type name, nested model or [type], got %s", jsonTypeName(decl)))
		return nil, false, false
	}
}

func (t *translator) expr(expr, path, rel string) (object, bool, bool) {
	e := strings.TrimSpace(expr)
	if e == "" {
		t.fail(path, "field type is empty")
		return nil, false, false
	}

	if strings.HasSuffix(e, "?") {
		node, _, ok := t.expr(strings.TrimSuffix(e, "?"), path, rel)
		return node, true, ok
	}
	if inner, ok := unwrap(e, "optional"); ok {
		node, _, ok := t.expr(inner, path, rel)
		return node, true, ok
	}
	for _, prefix := range []string{"list", "array"} {
		if inner, ok := unwrap(e, prefix); ok {
			items, _, ok := t.expr(inner, path+".items", rel)
			if !ok {
				return nil, false, false
			}
			return object{{Key: "type", Value: "array"}, {Key: "items", Value: items}}, false, true
		}
	}

	prim, ok := primitiveTypes[strings.ToLower(e)]
	if !ok {
		t.fail(path, fmt.Sprintf("unsupported field type %q", expr))
		return nil, false, false
	}
	// Copy so appended descriptions never alias the shared table.
	node := make(object, len(prim), len(prim)+1)
	copy(node, prim)
	return node, false, true
}

func (t *translator) fail(path, message string) {
	t.issues = append(t.issues, Issue{Path: path, Rule: RuleModelType, Message: message})
}

// unwrap matches "name[inner]" case-insensitively.
func unwrap(expr, name string) (string, bool) {
	if len(expr) < len(name)+2 || !strings.EqualFold(expr[:len(name)], name) {
		return "", false
	}
	rest := expr[len(name):]
	if rest[0] != '[' || rest[len(rest)-1] != ']' {
		return "", false
	}
	return strings.TrimSpace(rest[1 : len(rest)-1]), true
}
