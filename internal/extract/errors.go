package extract

import (
	"errors"
	"fmt"

	"github.com/landing-ai/ade-apps/internal/document"
	"github.com/landing-ai/ade-apps/internal/schema"
)

// Errors returned by Extract. Document errors are the loader's own
// sentinels so errors.Is works across both packages.
var (
	ErrInvalidDocument  = document.ErrInvalidDocument
	ErrFileNotFound     = document.ErrFileNotFound
	ErrFileUnreadable   = document.ErrFileUnreadable
	ErrExtractionFailed = errors.New("extraction failed")
)

// SchemaInvalidError is returned when the requested schema fails the
// validation gate. No extraction call was made.
type SchemaInvalidError struct {
	Report schema.Report
}

func (e *SchemaInvalidError) Error() string {
	n := len(e.Report.Issues)
	if n == 1 {
		return fmt.Sprintf("schema invalid: 1 issue\n%s", e.Report.Bullets())
	}
	return fmt.Sprintf("schema invalid: %d issues\n%s", n, e.Report.Bullets())
}

func schemaInvalid(issues ...schema.Issue) *SchemaInvalidError {
	return &SchemaInvalidError{Report: schema.NewReport(issues)}
}

func extractionFailed(err error) error {
	return fmt.Errorf("%w: %w", ErrExtractionFailed, err)
}

// Error codes classifying Extract failures.
const (
	CodeInvalidDocument  = "invalid_document"
	CodeFileNotFound     = "file_not_found"
	CodeFileUnreadable   = "file_unreadable"
	CodeSchemaInvalid    = "schema_invalid"
	CodeExtractionFailed = "extraction_failed"
)

// Code classifies an error returned by Extract. Unrecognized errors are
// extraction failures.
func Code(err error) string {
	var invalid *SchemaInvalidError
	switch {
	case errors.As(err, &invalid):
		return CodeSchemaInvalid
	case errors.Is(err, ErrInvalidDocument):
		return CodeInvalidDocument
	case errors.Is(err, ErrFileNotFound):
		return CodeFileNotFound
	case errors.Is(err, ErrFileUnreadable):
		return CodeFileUnreadable
	default:
		return CodeExtractionFailed
	}
}
