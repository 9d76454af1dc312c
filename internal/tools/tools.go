// Package tools exposes document extraction as MCP tools.
package tools

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/landing-ai/ade-apps/internal/extract"
)

// ServerName is the MCP implementation name announced to hosts.
const ServerName = "ade-server"

// Tool names.
const (
	ToolExtractRawChunks      = "extract_raw_chunks"
	ToolExtractFromPath       = "extract_from_path"
	ToolExtractWithModel      = "extract_with_model"
	ToolExtractWithJSONSchema = "extract_with_json_schema"
	ToolValidateJSONSchema    = "validate_json_schema"
)

// Config configures the tool server.
type Config struct {
	Extractor *extract.Extractor
	Version   string
	Logger    *slog.Logger
}

// Server registers the ADE tools on an MCP server.
type Server struct {
	extractor *extract.Extractor
	logger    *slog.Logger
	mcp       *mcp.Server
}

// handlerFunc runs one tool call. Returned errors are converted to
// structured error results; they never reach the protocol layer.
type handlerFunc func(ctx context.Context, requestID string, args json.RawMessage) (any, error)

type toolDef struct {
	name        string
	description string
	args        any // zero value of the argument struct, reflected for the input schema
	handler     handlerFunc
}

// New creates the tool server with every tool registered.
func New(cfg Config) *Server {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Version == "" {
		cfg.Version = "dev"
	}

	s := &Server{
		extractor: cfg.Extractor,
		logger:    cfg.Logger,
		mcp: mcp.NewServer(&mcp.Implementation{
			Name:    ServerName,
			Version: cfg.Version,
		}, nil),
	}

	for _, def := range s.definitions() {
		s.register(def)
	}
	return s
}

func (s *Server) definitions() []toolDef {
	return []toolDef{
		extractRawChunksTool(s),
		extractFromPathTool(s),
		extractWithModelTool(s),
		extractWithJSONSchemaTool(s),
		validateJSONSchemaTool(),
	}
}

// Names returns the registered tool names in registration order.
func (s *Server) Names() []string {
	defs := s.definitions()
	names := make([]string, len(defs))
	for i, def := range defs {
		names[i] = def.name
	}
	return names
}

// MCP returns the underlying MCP server.
func (s *Server) MCP() *mcp.Server {
	return s.mcp
}

// Run serves the tools over transport until ctx is cancelled or the client
// disconnects.
func (s *Server) Run(ctx context.Context, transport mcp.Transport) error {
	s.logger.Info("mcp server starting", "name", ServerName, "tools", len(s.definitions()))
	return s.mcp.Run(ctx, transport)
}

// RunStdio serves the tools over stdin/stdout.
func (s *Server) RunStdio(ctx context.Context) error {
	return s.Run(ctx, &mcp.StdioTransport{})
}

func (s *Server) register(def toolDef) {
	inputSchema, argsSchema := reflectArgs(def.args)

	s.mcp.AddTool(&mcp.Tool{
		Name:        def.name,
		Description: def.description,
		InputSchema: inputSchema,
	}, func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		requestID := uuid.New().String()
		log := s.logger.With("tool", def.name, "request_id", requestID)
		start := time.Now()

		args := req.Params.Arguments
		if len(args) == 0 {
			args = json.RawMessage("{}")
		}
		if err := argsSchema.check(args); err != nil {
			log.Info("tool call rejected", "error", err, "duration", time.Since(start))
			return errorResult(err), nil
		}

		out, err := def.handler(ctx, requestID, args)
		if err != nil {
			log.Info("tool call failed", "code", errorCode(err), "error", err, "duration", time.Since(start))
			return errorResult(err), nil
		}

		log.Info("tool call completed", "duration", time.Since(start))
		return successResult(out)
	})
}
