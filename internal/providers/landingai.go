package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	LandingAIName    = "landingai-ade"
	LandingAIBaseURL = "https://api.va.landing.ai"
	LandingAIModel   = "dpt-2-latest"

	DefaultTimeout            = 120 * time.Second
	DefaultRateLimit          = 25 // requests per minute
	DefaultAsyncPageThreshold = 50
	DefaultPollInterval       = 5 * time.Second
	DefaultMaxPollAttempts    = 120
)

// LandingAIConfig holds configuration for the LandingAI ADE client.
type LandingAIConfig struct {
	APIKey  string
	BaseURL string
	Model   string // parse model, e.g. "dpt-2-latest"
	Timeout time.Duration

	RateLimit int // Requests per minute

	// Documents with more pages than this go through the async jobs API.
	// Zero selects the default; negative disables async parsing.
	AsyncPageThreshold int
	PollInterval       time.Duration
	MaxPollAttempts    int

	Logger *slog.Logger
}

// LandingAIClient implements Parser using the LandingAI ADE REST API.
type LandingAIClient struct {
	apiKey             string
	baseURL            string
	model              string
	asyncPageThreshold int
	pollInterval       time.Duration
	maxPollAttempts    int
	limiter            *RateLimiter
	logger             *slog.Logger
	client             *http.Client
}

// APIError is a non-2xx response from ADE.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("ADE error (status %d): %s", e.StatusCode, e.Message)
}

// NewLandingAIClient creates a new LandingAI ADE client.
func NewLandingAIClient(cfg LandingAIConfig) *LandingAIClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = LandingAIBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = LandingAIModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.AsyncPageThreshold == 0 {
		cfg.AsyncPageThreshold = DefaultAsyncPageThreshold
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	if cfg.MaxPollAttempts <= 0 {
		cfg.MaxPollAttempts = DefaultMaxPollAttempts
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &LandingAIClient{
		apiKey:             cfg.APIKey,
		baseURL:            strings.TrimRight(cfg.BaseURL, "/"),
		model:              cfg.Model,
		asyncPageThreshold: cfg.AsyncPageThreshold,
		pollInterval:       cfg.PollInterval,
		maxPollAttempts:    cfg.MaxPollAttempts,
		limiter:            NewRateLimiter(cfg.RateLimit),
		logger:             cfg.Logger.With("provider", LandingAIName),
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// Name returns the provider identifier.
func (c *LandingAIClient) Name() string {
	return LandingAIName
}

// Parse runs ADE parse on the document and, when a schema is given, ADE
// extract on the resulting markdown.
func (c *LandingAIClient) Parse(ctx context.Context, req *ParseRequest) (*ParseResponse, error) {
	start := time.Now()
	if req.RequestID == "" {
		req.RequestID = uuid.New().String()
	}
	log := c.logger.With("request_id", req.RequestID)

	var (
		parsed *adeParseResponse
		jobID  string
		err    error
	)
	if c.useAsync(req.PageCount) {
		log.Debug("submitting parse job", "pages", req.PageCount)
		parsed, jobID, err = c.parseAsync(ctx, req)
	} else {
		log.Debug("parsing document", "bytes", len(req.Document))
		parsed, err = c.parseSync(ctx, req)
	}
	if err != nil {
		return nil, err
	}

	result := &ParseResponse{
		Markdown:    parsed.Markdown,
		Chunks:      parsed.chunks(),
		PageCount:   parsed.Metadata.PageCount,
		CreditUsage: parsed.Metadata.CreditUsage,
		Provider:    LandingAIName,
		JobID:       jobID,
	}

	if len(req.Schema) > 0 {
		extracted, err := c.extract(ctx, req, parsed.Markdown)
		if err != nil {
			return nil, err
		}
		result.Extraction = extracted.Extraction
		result.ExtractionMetadata = flattenExtractionMetadata(extracted.ExtractionMetadata)
		result.ExtractionError = extracted.Error
		result.CreditUsage += extracted.Metadata.CreditUsage
	}

	result.ExecutionTime = time.Since(start)
	log.Info("document parsed",
		"pages", result.PageCount,
		"chunks", len(result.Chunks),
		"structured", len(req.Schema) > 0,
		"duration", result.ExecutionTime)
	return result, nil
}

func (c *LandingAIClient) useAsync(pageCount int) bool {
	return c.asyncPageThreshold > 0 && pageCount > c.asyncPageThreshold
}

func (c *LandingAIClient) parseSync(ctx context.Context, req *ParseRequest) (*adeParseResponse, error) {
	body, contentType, err := c.documentForm(req)
	if err != nil {
		return nil, err
	}

	var resp adeParseResponse
	if err := c.doRequest(ctx, http.MethodPost, "/v1/ade/parse", req.RequestID, contentType, body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *LandingAIClient) extract(ctx context.Context, req *ParseRequest, markdown string) (*adeExtractResponse, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if err := w.WriteField("schema", string(req.Schema)); err != nil {
		return nil, fmt.Errorf("failed to write schema field: %w", err)
	}
	part, err := w.CreateFormFile("markdown", "document.md")
	if err != nil {
		return nil, fmt.Errorf("failed to create markdown part: %w", err)
	}
	if _, err := io.WriteString(part, markdown); err != nil {
		return nil, fmt.Errorf("failed to write markdown part: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("failed to finish form: %w", err)
	}

	var resp adeExtractResponse
	if err := c.doRequest(ctx, http.MethodPost, "/v1/ade/extract", req.RequestID, w.FormDataContentType(), &buf, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// documentForm builds the multipart body shared by parse and parse jobs.
func (c *LandingAIClient) documentForm(req *ParseRequest) (*bytes.Buffer, string, error) {
	filename := req.Filename
	if filename == "" {
		filename = "document"
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("document", filename)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create document part: %w", err)
	}
	if _, err := part.Write(req.Document); err != nil {
		return nil, "", fmt.Errorf("failed to write document part: %w", err)
	}
	if err := w.WriteField("model", c.model); err != nil {
		return nil, "", fmt.Errorf("failed to write model field: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to finish form: %w", err)
	}
	return &buf, w.FormDataContentType(), nil
}

// doRequest makes one rate-limited HTTP request to ADE and decodes the JSON
// response into out. Failed requests are never retried here.
func (c *LandingAIClient) doRequest(ctx context.Context, method, path, requestID, contentType string, body io.Reader, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("X-Request-ID", requestID)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if resp.StatusCode == http.StatusTooManyRequests {
			c.limiter.Record429()
			c.logger.Warn("rate limited by ADE", "request_id", requestID, "limiter", c.limiter.Status())
		}
		return &APIError{StatusCode: resp.StatusCode, Message: errorMessage(respBody)}
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return nil
}

// errorMessage pulls the most specific message out of an error body.
func errorMessage(body []byte) string {
	var errResp adeErrorResponse
	if json.Unmarshal(body, &errResp) == nil {
		switch {
		case errResp.Error.Message != "":
			return errResp.Error.Message
		case errResp.Detail != "":
			return errResp.Detail
		case errResp.Message != "":
			return errResp.Message
		}
	}
	msg := strings.TrimSpace(string(body))
	if msg == "" {
		return "empty response body"
	}
	return msg
}

// IsRateLimited reports whether err is an ADE 429.
func IsRateLimited(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusTooManyRequests
}

// LandingAI ADE API types

type adeParseResponse struct {
	Markdown string       `json:"markdown"`
	Chunks   []adeChunk   `json:"chunks"`
	Metadata adeParseMeta `json:"metadata"`
}

type adeChunk struct {
	ID        string       `json:"id"`
	Type      string       `json:"type"`
	Markdown  string       `json:"markdown"`
	Grounding adeGrounding `json:"grounding"`
}

type adeGrounding struct {
	Page int    `json:"page"`
	Box  adeBox `json:"box"`
}

type adeBox struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Right  float64 `json:"right"`
	Bottom float64 `json:"bottom"`
}

type adeParseMeta struct {
	Filename    string  `json:"filename"`
	PageCount   int     `json:"page_count"`
	DurationMS  int     `json:"duration_ms"`
	CreditUsage float64 `json:"credit_usage"`
	JobID       string  `json:"job_id"`
	Version     string  `json:"version"`
}

type adeExtractResponse struct {
	Extraction         json.RawMessage `json:"extraction"`
	ExtractionMetadata json.RawMessage `json:"extraction_metadata"`
	Metadata           adeParseMeta    `json:"metadata"`
	Error              string          `json:"error,omitempty"`
}

type adeErrorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
	Detail  string `json:"detail"`
	Message string `json:"message"`
}

func (r *adeParseResponse) chunks() []Chunk {
	chunks := make([]Chunk, len(r.Chunks))
	for i, ch := range r.Chunks {
		chunks[i] = Chunk{
			ID:       ch.ID,
			Type:     ch.Type,
			Markdown: ch.Markdown,
			Page:     ch.Grounding.Page,
			Box: BoundingBox{
				Left:   ch.Grounding.Box.Left,
				Top:    ch.Grounding.Box.Top,
				Right:  ch.Grounding.Box.Right,
				Bottom: ch.Grounding.Box.Bottom,
			},
		}
	}
	return chunks
}

// Verify interface
var _ Parser = (*LandingAIClient)(nil)
