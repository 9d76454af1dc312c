package tools

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/landing-ai/ade-apps/internal/extract"
	"github.com/landing-ai/ade-apps/internal/schema"
)

// Error codes carried in error results.
const (
	CodeInvalidDocument  = extract.CodeInvalidDocument
	CodeFileNotFound     = extract.CodeFileNotFound
	CodeFileUnreadable   = extract.CodeFileUnreadable
	CodeSchemaInvalid    = extract.CodeSchemaInvalid
	CodeExtractionFailed = extract.CodeExtractionFailed
	CodeInvalidArguments = "invalid_arguments"
)

// ErrorBody is the machine-readable body of an error result.
type ErrorBody struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail describes one failed tool call.
type ErrorDetail struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Issues  []schema.Issue `json:"issues,omitempty"`
}

func errorCode(err error) string {
	if errors.Is(err, ErrInvalidArguments) {
		return CodeInvalidArguments
	}
	return extract.Code(err)
}

func errorResult(err error) *mcp.CallToolResult {
	body := ErrorBody{Error: ErrorDetail{Code: errorCode(err), Message: err.Error()}}

	var invalid *extract.SchemaInvalidError
	if errors.As(err, &invalid) {
		body.Error.Message = fmt.Sprintf("schema validation failed with %d issue(s); fix the schema before extraction",
			len(invalid.Report.Issues))
		body.Error.Issues = invalid.Report.Issues
	}

	text := body.Error.Code + ": " + body.Error.Message
	if b, err := json.MarshalIndent(body, "", "  "); err == nil {
		text = string(b)
	}
	content := []mcp.Content{&mcp.TextContent{Text: text}}
	if invalid != nil {
		content = append(content, &mcp.TextContent{Text: "Schema validation failed:\n" + invalid.Report.Bullets()})
	}

	return &mcp.CallToolResult{
		Content:           content,
		StructuredContent: body,
		IsError:           true,
	}
}

func successResult(out any) (*mcp.CallToolResult, error) {
	b, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode tool result: %w", err)
	}
	return &mcp.CallToolResult{
		Content:           []mcp.Content{&mcp.TextContent{Text: string(b)}},
		StructuredContent: json.RawMessage(b),
	}, nil
}
