// Package extract runs one document extraction: it gates the requested
// schema, loads the document, calls the parser and normalizes the result.
package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/landing-ai/ade-apps/internal/document"
	"github.com/landing-ai/ade-apps/internal/metrics"
	"github.com/landing-ai/ade-apps/internal/providers"
	"github.com/landing-ai/ade-apps/internal/schema"
)

// DefaultTimeout bounds one extraction when the config does not.
const DefaultTimeout = 120 * time.Second

// Config configures an Extractor.
type Config struct {
	Parser   providers.Parser
	Timeout  time.Duration
	Logger   *slog.Logger
	Recorder *metrics.Recorder // optional usage tracking
}

// Extractor turns documents into normalized extraction results. It holds no
// per-call state and is safe for concurrent use.
type Extractor struct {
	parser   providers.Parser
	timeout  time.Duration
	logger   *slog.Logger
	recorder *metrics.Recorder
}

// New creates an Extractor.
func New(cfg Config) *Extractor {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Extractor{
		parser:   cfg.Parser,
		timeout:  cfg.Timeout,
		logger:   cfg.Logger,
		recorder: cfg.Recorder,
	}
}

// Extract runs one extraction. Structured modes pass through the validation
// gate before the document is loaded; a failing schema returns
// *SchemaInvalidError and the parser is never called.
func (e *Extractor) Extract(ctx context.Context, src Source, mode Mode) (*Result, error) {
	return e.extract(ctx, uuid.New().String(), src, mode)
}

// ExtractWithID is Extract with a caller-supplied request id.
func (e *Extractor) ExtractWithID(ctx context.Context, requestID string, src Source, mode Mode) (*Result, error) {
	if requestID == "" {
		requestID = uuid.New().String()
	}
	return e.extract(ctx, requestID, src, mode)
}

func (e *Extractor) extract(ctx context.Context, requestID string, src Source, mode Mode) (*Result, error) {
	start := time.Now()
	doc, result, err := e.run(ctx, requestID, src, mode)

	m := metrics.Metric{
		RequestID:    requestID,
		Mode:         mode.String(),
		Provider:     e.parser.Name(),
		TotalSeconds: time.Since(start).Seconds(),
		Success:      err == nil,
	}
	if doc != nil {
		m.Document = doc.Filename
		m.PageCount = doc.PageCount
	}
	if result != nil {
		m.PageCount = result.PageCount
		m.ChunkCount = len(result.Chunks)
		m.Credits = result.Credits
	}
	if err != nil {
		m.ErrorType = Code(err)
	}
	e.recorder.Record(m)

	return result, err
}

func (e *Extractor) run(ctx context.Context, requestID string, src Source, mode Mode) (*document.Document, *Result, error) {
	log := e.logger.With("request_id", requestID, "mode", mode.String())

	schemaRaw, err := Gate(mode)
	if err != nil {
		log.Info("schema rejected", "error", err)
		return nil, nil, err
	}

	doc, err := src.Load()
	if err != nil {
		return nil, nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeoutFor(doc))
	defer cancel()

	start := time.Now()
	resp, err := e.parser.Parse(ctx, &providers.ParseRequest{
		Document:  doc.Data,
		Filename:  doc.Filename,
		PageCount: doc.PageCount,
		Schema:    schemaRaw,
		RequestID: requestID,
	})
	if err != nil {
		log.Warn("extraction failed", "document", doc.Filename, "error", err, "duration", time.Since(start))
		return doc, nil, extractionFailed(err)
	}

	result, err := normalize(doc, resp, schemaRaw)
	if err != nil {
		log.Warn("extraction result rejected", "document", doc.Filename, "error", err)
		return doc, nil, err
	}
	result.RequestID = requestID
	result.Structured = mode.Structured()

	log.Info("extraction completed",
		"document", doc.Filename,
		"pages", result.PageCount,
		"chunks", len(result.Chunks),
		"credits", result.Credits,
		"duration", time.Since(start))
	return doc, result, nil
}

// timeoutFor is the deadline for one parser call. Parsers that poll
// asynchronous jobs get their poll budget on top of the base timeout.
func (e *Extractor) timeoutFor(doc *document.Document) time.Duration {
	timeout := e.timeout
	if b, ok := e.parser.(providers.Budgeter); ok {
		timeout += b.ExtraTime(doc.PageCount)
	}
	return timeout
}

// Gate returns the schema to send for a structured mode, or
// *SchemaInvalidError when the schema fails validation. Raw mode returns nil.
func Gate(mode Mode) (json.RawMessage, error) {
	switch mode.kind {
	case modeSchema:
		return gateSchema(mode.schema, nil)
	case modeModel:
		raw, issues, err := mode.model.Translate()
		if err != nil {
			return nil, schemaInvalid(schema.Issue{
				Path:    schema.RootPath,
				Rule:    schema.RuleMalformed,
				Message: err.Error(),
			})
		}
		return gateSchema(raw, issues)
	default:
		return nil, nil
	}
}

func gateSchema(raw json.RawMessage, prior []schema.Issue) (json.RawMessage, error) {
	root, err := schema.Parse(raw)
	if err != nil {
		return nil, schemaInvalid(append(prior, schema.Issue{
			Path:    schema.RootPath,
			Rule:    schema.RuleMalformed,
			Message: err.Error(),
		})...)
	}
	report := schema.Validate(root)
	issues := append(prior, report.Issues...)
	if len(issues) > 0 {
		return nil, schemaInvalid(issues...)
	}
	return raw, nil
}

func normalize(doc *document.Document, resp *providers.ParseResponse, schemaRaw json.RawMessage) (*Result, error) {
	pageCount := resp.PageCount
	if pageCount <= 0 {
		pageCount = doc.PageCount
	}

	result := &Result{
		Document:  doc.Filename,
		Path:      doc.Path,
		Markdown:  resp.Markdown,
		Chunks:    make([]Chunk, 0, len(resp.Chunks)),
		PageCount: pageCount,
		Credits:   resp.CreditUsage,
	}

	byID := make(map[string]providers.Chunk, len(resp.Chunks))
	for i, ch := range resp.Chunks {
		if ch.Page < 0 || (pageCount > 0 && ch.Page >= pageCount) {
			return nil, extractionFailed(fmt.Errorf("chunk %d (%s) is on page %d, document has %d pages",
				i, ch.ID, ch.Page, pageCount))
		}
		result.Chunks = append(result.Chunks, Chunk{
			ChunkID:     ch.ID,
			Type:        ch.Type,
			Content:     ch.Markdown,
			Page:        ch.Page,
			BoundingBox: ch.Box,
		})
		if ch.ID != "" {
			byID[ch.ID] = ch
		}
	}

	if schemaRaw == nil {
		return result, nil
	}

	result.Data = resp.Extraction
	result.ExtractionError = resp.ExtractionError
	if result.ExtractionError == "" {
		if err := schema.CheckConformance(schemaRaw, resp.Extraction); err != nil {
			result.ExtractionError = fmt.Sprintf("extracted data does not match the schema: %v", err)
		}
	}

	result.FieldMetadata = make(map[string]FieldMetadata, len(resp.ExtractionMetadata))
	for field, ref := range resp.ExtractionMetadata {
		meta := FieldMetadata{
			Confidence:      ref.Confidence,
			RawText:         ref.RawText,
			ChunkReferences: ref.ChunkReferences,
		}
		if meta.ChunkReferences == nil {
			meta.ChunkReferences = []string{}
		}
		for _, id := range ref.ChunkReferences {
			if ch, ok := byID[id]; ok {
				page, box := ch.Page, ch.Box
				meta.Page = &page
				meta.BoundingBox = &box
				break
			}
		}
		result.FieldMetadata[field] = meta
	}
	return result, nil
}
