package schema

import (
	"encoding/json"
	"testing"
)

func TestCheckConformance(t *testing.T) {
	schemaRaw := json.RawMessage(`{
		"type":"object",
		"properties":{
			"invoice_number":{"type":"string"},
			"total":{"type":"number"}
		},
		"required":["invoice_number"]
	}`)

	t.Run("matching data", func(t *testing.T) {
		data := json.RawMessage(`{"invoice_number":"INV-001","total":12.5}`)
		if err := CheckConformance(schemaRaw, data); err != nil {
			t.Errorf("CheckConformance() error = %v", err)
		}
	})

	t.Run("wrong type", func(t *testing.T) {
		data := json.RawMessage(`{"invoice_number":"INV-001","total":"twelve"}`)
		if err := CheckConformance(schemaRaw, data); err == nil {
			t.Error("expected error for string total")
		}
	})

	t.Run("missing required", func(t *testing.T) {
		if err := CheckConformance(schemaRaw, json.RawMessage(`{"total":1}`)); err == nil {
			t.Error("expected error for missing invoice_number")
		}
	})

	t.Run("empty inputs are ignored", func(t *testing.T) {
		if err := CheckConformance(nil, json.RawMessage(`{}`)); err != nil {
			t.Errorf("nil schema: %v", err)
		}
		if err := CheckConformance(schemaRaw, nil); err != nil {
			t.Errorf("nil data: %v", err)
		}
	})
}
