package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/parley"
	"github.com/aretw0/parley/internal/dto"
	"github.com/aretw0/parley/internal/logging"
	"github.com/aretw0/parley/internal/presentation/graph"
	"github.com/aretw0/parley/internal/validator"
	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/ports"
	"github.com/aretw0/parley/pkg/runner"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Engine defines what the MCP server needs from parley.
type Engine interface {
	ports.Engine
	Play(ctx context.Context, documentID string) (domain.Step, error)
	Document(ctx context.Context, id string) (*domain.Document, error)
	Documents(ctx context.Context) ([]string, error)
	Lookup(name string) (domain.Variable, bool)
}

// DocumentList is the result of list_documents.
type DocumentList struct {
	Documents []string `json:"documents" jsonschema_description:"IDs of the playable documents"`
}

// ValidationResult is the result of validate_document.
type ValidationResult struct {
	Valid bool `json:"valid" jsonschema_description:"True when the document has no structural errors"`
	validator.Result
}

type documentArgs struct {
	DocumentID string `json:"document_id"`
}

type chooseArgs struct {
	Choice int `json:"choice"`
}

type variableArgs struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type noArgs struct{}

// Server wraps the parley Engine and exposes it as an MCP Server.
// Agents play one dialogue at a time: start_dialogue, then advance or choose
// until the step status is "ended".
type Server struct {
	engine    Engine
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer creates a new MCP Server instance.
func NewServer(engine Engine, opts ...Option) *Server {
	s := &Server{
		engine:    engine,
		logger:    logging.NewNop(),
		mcpServer: server.NewMCPServer("parley-mcp", strings.TrimSpace(parley.Version)),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer returns the underlying protocol server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE starts the server on the given port using SSE and stops it when
// ctx is done.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Info("shutdown signal received, stopping MCP server")
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("list_documents",
		mcp.WithDescription("List the IDs of the dialogue documents that can be played."),
		mcp.WithOutputSchema[DocumentList](),
	), mcp.NewStructuredToolHandler(s.handleListDocuments))

	s.mcpServer.AddTool(mcp.NewTool("start_dialogue",
		mcp.WithDescription("Start a dialogue. Any running dialogue is ended first. Returns the first step."),
		mcp.WithString("document_id", mcp.Required(), mcp.Description("ID of the document to play")),
		mcp.WithOutputSchema[dto.Step](),
	), mcp.NewStructuredToolHandler(s.handleStart))

	s.mcpServer.AddTool(mcp.NewTool("advance",
		mcp.WithDescription("Continue after a speech step (status awaiting_speech)."),
		mcp.WithOutputSchema[dto.Step](),
	), mcp.NewStructuredToolHandler(s.handleAdvance))

	s.mcpServer.AddTool(mcp.NewTool("choose",
		mcp.WithDescription("Pick an option of a choice step (status awaiting_choice) by its index."),
		mcp.WithNumber("choice", mcp.Required(), mcp.Description("The index field of one of the step options")),
		mcp.WithOutputSchema[dto.Step](),
	), mcp.NewStructuredToolHandler(s.handleChoose))

	s.mcpServer.AddTool(mcp.NewTool("end_dialogue",
		mcp.WithDescription("End the running dialogue."),
		mcp.WithOutputSchema[dto.Step](),
	), mcp.NewStructuredToolHandler(s.handleEnd))

	s.mcpServer.AddTool(mcp.NewTool("get_variable",
		mcp.WithDescription("Read a blackboard variable of the current or last played dialogue."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Variable name")),
		mcp.WithOutputSchema[dto.Variable](),
	), mcp.NewStructuredToolHandler(s.handleGetVariable))

	s.mcpServer.AddTool(mcp.NewTool("set_variable",
		mcp.WithDescription("Write a blackboard variable. The variable must exist and keep its kind."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Variable name")),
		mcp.WithString("value", mcp.Required(), mcp.Description("New value as a JSON literal, e.g. 5, true or \"text\"")),
		mcp.WithOutputSchema[dto.Variable](),
	), mcp.NewStructuredToolHandler(s.handleSetVariable))

	s.mcpServer.AddTool(mcp.NewTool("validate_document",
		mcp.WithDescription("Check a document for structural errors and authoring warnings."),
		mcp.WithString("document_id", mcp.Required(), mcp.Description("ID of the document to validate")),
		mcp.WithOutputSchema[ValidationResult](),
	), mcp.NewStructuredToolHandler(s.handleValidate))
}

func (s *Server) handleListDocuments(ctx context.Context, request mcp.CallToolRequest, args noArgs) (DocumentList, error) {
	ids, err := s.engine.Documents(ctx)
	if err != nil {
		return DocumentList{}, fmt.Errorf("list failed: %w", err)
	}
	if ids == nil {
		ids = []string{}
	}
	return DocumentList{Documents: ids}, nil
}

func (s *Server) handleStart(ctx context.Context, request mcp.CallToolRequest, args documentArgs) (dto.Step, error) {
	if args.DocumentID == "" {
		return dto.Step{}, errors.New("document_id is required")
	}
	step, err := s.engine.Play(ctx, args.DocumentID)
	return s.step(step, err)
}

func (s *Server) handleAdvance(ctx context.Context, request mcp.CallToolRequest, args noArgs) (dto.Step, error) {
	return s.step(s.engine.Resume(ctx, domain.Advance()))
}

func (s *Server) handleChoose(ctx context.Context, request mcp.CallToolRequest, args chooseArgs) (dto.Step, error) {
	return s.step(s.engine.Resume(ctx, domain.Choose(args.Choice)))
}

func (s *Server) handleEnd(ctx context.Context, request mcp.CallToolRequest, args noArgs) (dto.Step, error) {
	if err := s.engine.End(ctx); err != nil {
		return dto.Step{}, err
	}
	step, _ := s.engine.Current()
	if step.Status == "" {
		return dto.Step{}, domain.ErrNoActiveSession
	}
	return s.step(step, nil)
}

func (s *Server) handleGetVariable(ctx context.Context, request mcp.CallToolRequest, args variableArgs) (dto.Variable, error) {
	v, ok := s.engine.Lookup(args.Name)
	if !ok {
		return dto.Variable{}, fmt.Errorf("%w: %s", domain.ErrVariableNotFound, args.Name)
	}
	return dto.FromVariable(v), nil
}

func (s *Server) handleSetVariable(ctx context.Context, request mcp.CallToolRequest, args variableArgs) (dto.Variable, error) {
	clean, err := runner.SanitizeInput(args.Value)
	if err != nil {
		s.logger.Warn("MCP set_variable: input rejected", "err", err, "size", len(args.Value))
		return dto.Variable{}, fmt.Errorf("input rejected: %w", err)
	}
	if err := s.engine.SetVariable(ctx, args.Name, decodeValue(clean)); err != nil {
		return dto.Variable{}, err
	}
	v, _ := s.engine.Lookup(args.Name)
	return dto.FromVariable(v), nil
}

func (s *Server) handleValidate(ctx context.Context, request mcp.CallToolRequest, args documentArgs) (ValidationResult, error) {
	doc, err := s.engine.Document(ctx, args.DocumentID)
	if err != nil {
		return ValidationResult{}, err
	}
	res := validator.Validate(doc)
	return ValidationResult{Valid: res.Valid(), Result: res}, nil
}

func (s *Server) step(step domain.Step, err error) (dto.Step, error) {
	if err != nil {
		s.logger.Warn("MCP step failed", "document_id", step.DocumentID, "err", err)
		return dto.Step{}, err
	}
	return dto.FromStep(step, s.engine.Render), nil
}

// decodeValue reads a JSON literal, keeping numbers exact. Anything that is
// not valid JSON is taken as a plain string.
func decodeValue(raw string) any {
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil || dec.More() {
		return raw
	}
	return v
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource("parley://session", "Current Dialogue Step",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		step, _ := s.engine.Current()
		data, err := json.Marshal(dto.FromStep(step, s.engine.Render))
		if err != nil {
			return nil, err
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      "parley://session",
				MIMEType: "application/json",
				Text:     string(data),
			},
		}, nil
	})

	s.mcpServer.AddResourceTemplate(mcp.NewResourceTemplate("parley://documents/{id}/graph", "Document Graph",
		mcp.WithTemplateMIMEType("text/plain"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		uri := request.Params.URI
		id := strings.TrimSuffix(strings.TrimPrefix(uri, "parley://documents/"), "/graph")
		doc, err := s.engine.Document(ctx, id)
		if err != nil {
			return nil, err
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      uri,
				MIMEType: "text/plain",
				Text:     graph.GenerateMermaid(doc, nil),
			},
		}, nil
	})
}
