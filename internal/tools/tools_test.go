package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/landing-ai/ade-apps/internal/extract"
	"github.com/landing-ai/ade-apps/internal/providers"
	"github.com/landing-ai/ade-apps/internal/schema"
	"github.com/landing-ai/ade-apps/internal/testutil"
)

func newSession(t *testing.T, p providers.Parser) *mcp.ClientSession {
	t.Helper()

	srv := New(Config{
		Extractor: extract.New(extract.Config{Parser: p, Logger: testutil.Logger(t)}),
		Version:   "test",
		Logger:    testutil.Logger(t),
	})

	clientTransport, serverTransport := mcp.NewInMemoryTransports()

	serverCtx, serverCancel := context.WithCancel(context.Background())
	serverSession, err := srv.MCP().Connect(serverCtx, serverTransport, nil)
	if err != nil {
		t.Fatalf("server connect failed: %v", err)
	}

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "test"}, nil)
	clientSession, err := client.Connect(context.Background(), clientTransport, nil)
	if err != nil {
		t.Fatalf("client connect failed: %v", err)
	}

	t.Cleanup(func() {
		_ = clientSession.Close()
		_ = serverSession.Close()
		serverCancel()
	})
	return clientSession
}

func callTool(t *testing.T, session *mcp.ClientSession, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()

	res, err := session.CallTool(context.Background(), &mcp.CallToolParams{Name: name, Arguments: args})
	if err != nil {
		t.Fatalf("CallTool(%s) error = %v", name, err)
	}
	return res
}

func firstText(res *mcp.CallToolResult) string {
	if res == nil {
		return ""
	}
	for _, c := range res.Content {
		if txt, ok := c.(*mcp.TextContent); ok {
			return txt.Text
		}
	}
	return ""
}

func decodeText(t *testing.T, res *mcp.CallToolResult, v any) {
	t.Helper()

	if err := json.Unmarshal([]byte(firstText(res)), v); err != nil {
		t.Fatalf("result is not JSON: %v\n%s", err, firstText(res))
	}
}

func expectError(t *testing.T, res *mcp.CallToolResult, code string) ErrorBody {
	t.Helper()

	if !res.IsError {
		t.Fatalf("expected error result, got %s", firstText(res))
	}
	var body ErrorBody
	decodeText(t, res, &body)
	if body.Error.Code != code {
		t.Errorf("code = %q, want %q (message: %s)", body.Error.Code, code, body.Error.Message)
	}
	if body.Error.Message == "" {
		t.Error("error message should not be empty")
	}
	return body
}

func pdfBase64(pages int) string {
	return testutil.Base64(testutil.MinimalPDF(pages))
}

func TestListTools(t *testing.T) {
	session := newSession(t, providers.NewMockParser())

	res, err := session.ListTools(context.Background(), nil)
	if err != nil {
		t.Fatalf("ListTools() error = %v", err)
	}

	required := map[string][]string{
		ToolExtractRawChunks:      {"document_base64"},
		ToolExtractFromPath:       {"path"},
		ToolExtractWithModel:      {"document_base64", "model"},
		ToolExtractWithJSONSchema: {"document_base64", "schema"},
		ToolValidateJSONSchema:    {"schema"},
	}
	if len(res.Tools) != len(required) {
		t.Fatalf("got %d tools, want %d", len(res.Tools), len(required))
	}

	for _, tool := range res.Tools {
		want, ok := required[tool.Name]
		if !ok {
			t.Errorf("unexpected tool %q", tool.Name)
			continue
		}
		if tool.Description == "" {
			t.Errorf("%s has no description", tool.Name)
		}

		raw, _ := json.Marshal(tool.InputSchema)
		var input struct {
			Type       string                     `json:"type"`
			Required   []string                   `json:"required"`
			Properties map[string]json.RawMessage `json:"properties"`
		}
		if err := json.Unmarshal(raw, &input); err != nil {
			t.Fatalf("%s input schema: %v", tool.Name, err)
		}
		if input.Type != "object" {
			t.Errorf("%s input type = %q", tool.Name, input.Type)
		}
		if !reflect.DeepEqual(input.Required, want) {
			t.Errorf("%s required = %v, want %v", tool.Name, input.Required, want)
		}
	}
}

func TestValidateJSONSchemaTool(t *testing.T) {
	session := newSession(t, providers.NewMockParser())

	tests := []struct {
		name  string
		input string
		paths []string
	}{
		{
			name:  "valid invoice",
			input: `{"type":"object","properties":{"invoice_number":{"type":"string"},"total":{"type":"number"}},"required":["invoice_number"]}`,
			paths: []string{},
		},
		{
			name:  "prohibited keyword",
			input: `{"type":"object","properties":{"a":{"type":"string"}},"allOf":[{"type":"object"}]}`,
			paths: []string{"root.allOf"},
		},
		{
			name:  "nested array without items",
			input: `{"type":"array","items":{"type":"array"}}`,
			paths: []string{"root", "root.items.items"},
		},
		{
			name:  "unknown required",
			input: `{"type":"object","properties":{"a":{"type":"string"}},"required":["a","b"]}`,
			paths: []string{"root.required"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var s map[string]any
			if err := json.Unmarshal([]byte(tt.input), &s); err != nil {
				t.Fatal(err)
			}
			res := callTool(t, session, ToolValidateJSONSchema, map[string]any{"schema": s})
			if res.IsError {
				t.Fatalf("unexpected error result: %s", firstText(res))
			}

			var report schema.Report
			decodeText(t, res, &report)
			paths := []string{}
			for _, issue := range report.Issues {
				paths = append(paths, issue.Path)
			}
			if !reflect.DeepEqual(paths, tt.paths) {
				t.Errorf("issue paths = %v, want %v", paths, tt.paths)
			}
			if report.Valid != (len(tt.paths) == 0) {
				t.Errorf("Valid = %v", report.Valid)
			}
		})
	}

	t.Run("schema must be an object", func(t *testing.T) {
		res := callTool(t, session, ToolValidateJSONSchema, map[string]any{"schema": "not an object"})
		expectError(t, res, CodeInvalidArguments)
	})
}

func TestExtractRawChunksTool(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		p := providers.NewMockParser()
		p.PageCount = 2
		p.Chunks = []providers.Chunk{
			{ID: "c1", Type: "text", Markdown: "Hello", Page: 0, Box: providers.BoundingBox{Left: 0.1, Top: 0.1, Right: 0.5, Bottom: 0.2}},
			{ID: "c2", Type: "table", Markdown: "| a |", Page: 1},
		}
		session := newSession(t, p)

		res := callTool(t, session, ToolExtractRawChunks, map[string]any{"document_base64": pdfBase64(2)})
		if res.IsError {
			t.Fatalf("unexpected error result: %s", firstText(res))
		}

		var out extract.RawOutput
		decodeText(t, res, &out)
		if out.PageCount != 2 || len(out.Chunks) != 2 {
			t.Fatalf("output = %+v", out)
		}
		if out.Chunks[0].ChunkID != "c1" || out.Chunks[0].Content != "Hello" || out.Chunks[0].BoundingBox.Right != 0.5 {
			t.Errorf("chunk 0 = %+v", out.Chunks[0])
		}
		if out.Chunks[1].Type != "table" || out.Chunks[1].Page != 1 {
			t.Errorf("chunk 1 = %+v", out.Chunks[1])
		}
		if res.StructuredContent == nil {
			t.Error("expected structured content")
		}
	})

	t.Run("invalid document", func(t *testing.T) {
		p := providers.NewMockParser()
		session := newSession(t, p)

		res := callTool(t, session, ToolExtractRawChunks, map[string]any{"document_base64": "bm90IGEgZG9jdW1lbnQ="})
		expectError(t, res, CodeInvalidDocument)
		if p.RequestCount() != 0 {
			t.Error("parser must not be called for an invalid document")
		}
	})

	t.Run("missing argument", func(t *testing.T) {
		session := newSession(t, providers.NewMockParser())

		res := callTool(t, session, ToolExtractRawChunks, map[string]any{})
		body := expectError(t, res, CodeInvalidArguments)
		if !strings.Contains(body.Error.Message, "document_base64") {
			t.Errorf("message should name the missing argument: %s", body.Error.Message)
		}
	})

	t.Run("unknown argument", func(t *testing.T) {
		session := newSession(t, providers.NewMockParser())

		res := callTool(t, session, ToolExtractRawChunks, map[string]any{
			"document_base64": pdfBase64(1),
			"pdf_base64":      pdfBase64(1),
		})
		expectError(t, res, CodeInvalidArguments)
	})

	t.Run("extraction failure", func(t *testing.T) {
		p := providers.NewMockParser()
		p.ShouldFail = true
		session := newSession(t, p)

		res := callTool(t, session, ToolExtractRawChunks, map[string]any{"document_base64": pdfBase64(1)})
		body := expectError(t, res, CodeExtractionFailed)
		if !strings.Contains(body.Error.Message, "mock parser configured to fail") {
			t.Errorf("message should carry the upstream detail: %s", body.Error.Message)
		}
	})
}

func TestExtractFromPathTool(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		session := newSession(t, providers.NewMockParser())
		path := testutil.WriteFile(t, "scan.png", testutil.PNG)

		res := callTool(t, session, ToolExtractFromPath, map[string]any{"path": path})
		if res.IsError {
			t.Fatalf("unexpected error result: %s", firstText(res))
		}

		var out extract.PathOutput
		decodeText(t, res, &out)
		if out.FilePath != path {
			t.Errorf("file_path = %q, want %q", out.FilePath, path)
		}
		if len(out.Chunks) != 1 {
			t.Errorf("len(chunks) = %d, want 1", len(out.Chunks))
		}
	})

	t.Run("missing file", func(t *testing.T) {
		session := newSession(t, providers.NewMockParser())

		res := callTool(t, session, ToolExtractFromPath, map[string]any{"path": filepath.Join(t.TempDir(), "missing.pdf")})
		expectError(t, res, CodeFileNotFound)
	})

	t.Run("directory", func(t *testing.T) {
		session := newSession(t, providers.NewMockParser())

		res := callTool(t, session, ToolExtractFromPath, map[string]any{"path": t.TempDir()})
		expectError(t, res, CodeFileUnreadable)
	})
}

func TestExtractWithJSONSchemaTool(t *testing.T) {
	invoice := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"invoice_number": map[string]any{"type": "string"},
		},
		"required": []any{"invoice_number"},
	}

	t.Run("success", func(t *testing.T) {
		confidence := 0.8
		p := providers.NewMockParser()
		p.Extraction = json.RawMessage(`{"invoice_number":"INV-1"}`)
		p.ExtractionMetadata = map[string]providers.FieldReference{
			"invoice_number": {Confidence: &confidence, ChunkReferences: []string{"chunk-0"}},
		}
		session := newSession(t, p)

		res := callTool(t, session, ToolExtractWithJSONSchema, map[string]any{
			"document_base64": pdfBase64(1),
			"schema":          invoice,
		})
		if res.IsError {
			t.Fatalf("unexpected error result: %s", firstText(res))
		}

		var out struct {
			Data            map[string]any                   `json:"data"`
			FieldMetadata   map[string]extract.FieldMetadata `json:"field_metadata"`
			ExtractionError *string                          `json:"extraction_error"`
		}
		decodeText(t, res, &out)
		if out.Data["invoice_number"] != "INV-1" {
			t.Errorf("data = %v", out.Data)
		}
		if out.ExtractionError != nil {
			t.Errorf("extraction_error = %q", *out.ExtractionError)
		}
		meta := out.FieldMetadata["invoice_number"]
		if meta.Page == nil || *meta.Page != 0 || meta.Confidence == nil {
			t.Errorf("field metadata = %+v", meta)
		}
	})

	t.Run("invalid schema never reaches the parser", func(t *testing.T) {
		p := providers.NewMockParser()
		session := newSession(t, p)

		res := callTool(t, session, ToolExtractWithJSONSchema, map[string]any{
			"document_base64": pdfBase64(1),
			"schema": map[string]any{
				"type":  "object",
				"anyOf": []any{},
				"properties": map[string]any{
					"tags": map[string]any{"type": "array"},
				},
			},
		})
		body := expectError(t, res, CodeSchemaInvalid)

		var paths []string
		for _, issue := range body.Error.Issues {
			paths = append(paths, issue.Path)
		}
		if !reflect.DeepEqual(paths, []string{"root.anyOf", "root.tags.items"}) {
			t.Errorf("issue paths = %v", paths)
		}
		if p.RequestCount() != 0 {
			t.Errorf("parser called %d times", p.RequestCount())
		}
		if len(res.Content) < 2 || !strings.Contains(res.Content[1].(*mcp.TextContent).Text, "- root.anyOf:") {
			t.Errorf("expected a bullet list of issues, got %+v", res.Content)
		}
	})
}

func TestExtractWithModelTool(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		p := providers.NewMockParser()
		p.Extraction = json.RawMessage(`{"vendor":"ACME","items":[{"amount":3}]}`)
		session := newSession(t, p)

		res := callTool(t, session, ToolExtractWithModel, map[string]any{
			"document_base64": pdfBase64(1),
			"model": map[string]any{
				"vendor": "str",
				"items":  []any{map[string]any{"amount": "float"}},
			},
			"descriptions": map[string]any{"vendor": "Seller name"},
		})
		if res.IsError {
			t.Fatalf("unexpected error result: %s", firstText(res))
		}

		req, _ := p.LastRequest()
		var sent struct {
			Properties map[string]map[string]any `json:"properties"`
		}
		if err := json.Unmarshal(req.Schema, &sent); err != nil {
			t.Fatalf("schema sent is not JSON: %v", err)
		}
		if sent.Properties["vendor"]["description"] != "Seller name" {
			t.Errorf("vendor schema = %v", sent.Properties["vendor"])
		}
		if sent.Properties["items"]["type"] != "array" {
			t.Errorf("items schema = %v", sent.Properties["items"])
		}
	})

	t.Run("unsupported type", func(t *testing.T) {
		p := providers.NewMockParser()
		session := newSession(t, p)

		res := callTool(t, session, ToolExtractWithModel, map[string]any{
			"document_base64": pdfBase64(1),
			"model":           map[string]any{"amount": "Decimal128"},
		})
		body := expectError(t, res, CodeSchemaInvalid)
		if len(body.Error.Issues) != 1 || body.Error.Issues[0].Rule != schema.RuleModelType {
			t.Errorf("issues = %+v", body.Error.Issues)
		}
		if p.RequestCount() != 0 {
			t.Error("parser must not be called")
		}
	})
}

func TestServerNames(t *testing.T) {
	srv := New(Config{Extractor: extract.New(extract.Config{Parser: providers.NewMockParser()})})

	want := []string{
		ToolExtractRawChunks,
		ToolExtractFromPath,
		ToolExtractWithModel,
		ToolExtractWithJSONSchema,
		ToolValidateJSONSchema,
	}
	if got := srv.Names(); !reflect.DeepEqual(got, want) {
		t.Errorf("Names() = %v, want %v", got, want)
	}
}

func TestServerRun(t *testing.T) {
	srv := New(Config{
		Extractor: extract.New(extract.Config{Parser: providers.NewMockParser(), Logger: testutil.Logger(t)}),
		Logger:    testutil.Logger(t),
	})
	clientTransport, serverTransport := mcp.NewInMemoryTransports()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx, serverTransport) }()
	starter := testutil.StartServer{Cancel: cancel, Done: done}
	t.Cleanup(starter.Stop)

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "test"}, nil)
	session, err := client.Connect(context.Background(), clientTransport, nil)
	if err != nil {
		t.Fatalf("client connect failed: %v", err)
	}
	defer session.Close()

	res := callTool(t, session, ToolValidateJSONSchema, map[string]any{
		"schema": map[string]any{"type": "object", "properties": map[string]any{"a": map[string]any{"type": "string"}}},
	})
	if res.IsError {
		t.Fatalf("validate_json_schema failed: %s", firstText(res))
	}
}

func TestErrorResult(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code string
	}{
		{"invalid arguments", fmt.Errorf("%w: path is required", ErrInvalidArguments), CodeInvalidArguments},
		{"extraction failed", fmt.Errorf("%w: upstream 500", extract.ErrExtractionFailed), CodeExtractionFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := errorResult(tt.err)
			body := expectError(t, res, tt.code)
			if body.Error.Message != tt.err.Error() {
				t.Errorf("message = %q, want %q", body.Error.Message, tt.err.Error())
			}
			structured, ok := res.StructuredContent.(ErrorBody)
			if !ok || structured.Error.Code != tt.code {
				t.Errorf("StructuredContent = %#v", res.StructuredContent)
			}
		})
	}
}
