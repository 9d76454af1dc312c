package providers

import (
	"encoding/json"
	"fmt"
	"sort"
)

// flattenExtractionMetadata turns ADE's nested extraction_metadata, which
// mirrors the shape of the extraction, into a map keyed by dotted field path
// (e.g. "vendor.name", "line_items[0].amount").
func flattenExtractionMetadata(raw json.RawMessage) map[string]FieldReference {
	if len(raw) == 0 {
		return nil
	}
	var tree any
	if err := json.Unmarshal(raw, &tree); err != nil {
		return nil
	}
	out := make(map[string]FieldReference)
	flattenInto(out, "", tree)
	if len(out) == 0 {
		return nil
	}
	return out
}

func flattenInto(out map[string]FieldReference, path string, v any) {
	switch node := v.(type) {
	case map[string]any:
		if ref, ok := asReference(node); ok && path != "" {
			out[path] = ref
			return
		}
		keys := make([]string, 0, len(node))
		for k := range node {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			child := k
			if path != "" {
				child = path + "." + k
			}
			flattenInto(out, child, node[k])
		}
	case []any:
		for i, elem := range node {
			flattenInto(out, fmt.Sprintf("%s[%d]", path, i), elem)
		}
	}
}

// asReference reports whether node is a metadata leaf.
func asReference(node map[string]any) (FieldReference, bool) {
	var ref FieldReference
	found := false

	for _, key := range []string{"references", "chunk_references"} {
		if list, ok := node[key].([]any); ok {
			found = true
			for _, id := range list {
				if s, ok := id.(string); ok {
					ref.ChunkReferences = append(ref.ChunkReferences, s)
				}
			}
		}
	}
	if c, ok := node["confidence"].(float64); ok {
		found = true
		ref.Confidence = &c
	}
	if s, ok := node["raw_text"].(string); ok {
		found = true
		ref.RawText = s
	}
	return ref, found
}
