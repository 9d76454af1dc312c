package extract

import (
	"encoding/json"

	"github.com/landing-ai/ade-apps/internal/document"
	"github.com/landing-ai/ade-apps/internal/schema"
)

type modeKind int

const (
	modeRaw modeKind = iota
	modeSchema
	modeModel
)

// Mode selects what an extraction returns.
type Mode struct {
	kind   modeKind
	schema json.RawMessage
	model  schema.ModelDescription
}

// Raw returns markdown and chunks only.
func Raw() Mode {
	return Mode{kind: modeRaw}
}

// SchemaGuided extracts data shaped by a JSON Schema document.
func SchemaGuided(raw json.RawMessage) Mode {
	return Mode{kind: modeSchema, schema: raw}
}

// ModelGuided extracts data shaped by a structural model description.
func ModelGuided(m schema.ModelDescription) Mode {
	return Mode{kind: modeModel, model: m}
}

// Structured reports whether the mode produces schema-shaped data.
func (m Mode) Structured() bool {
	return m.kind != modeRaw
}

func (m Mode) String() string {
	switch m.kind {
	case modeSchema:
		return "schema"
	case modeModel:
		return "model"
	default:
		return "raw"
	}
}

// Source produces the document for one extraction. Loading is deferred
// until the schema has passed the validation gate.
type Source interface {
	Load() (*document.Document, error)
}

type sourceFunc func() (*document.Document, error)

func (f sourceFunc) Load() (*document.Document, error) { return f() }

// FromBase64 decodes a base64 payload.
func FromBase64(encoded string) Source {
	return sourceFunc(func() (*document.Document, error) { return document.Decode(encoded) })
}

// FromPath reads a file.
func FromPath(path string) Source {
	return sourceFunc(func() (*document.Document, error) { return document.Load(path) })
}

// FromDocument wraps an already loaded document.
func FromDocument(doc *document.Document) Source {
	return sourceFunc(func() (*document.Document, error) {
		if doc == nil {
			return nil, document.ErrInvalidDocument
		}
		return doc, nil
	})
}
