package http

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"slices"
	"sync"

	"github.com/aretw0/parley/internal/dto"
	"github.com/aretw0/parley/internal/logging"
	"github.com/aretw0/parley/internal/presentation/graph"
	"github.com/aretw0/parley/pkg/document"
	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/ports"
	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/getkin/kin-openapi/routers"
	"github.com/getkin/kin-openapi/routers/gorillamux"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
)

//go:embed openapi.yaml
var openapiSpec []byte

// Engine is the dialogue engine served over HTTP.
type Engine interface {
	ports.Engine
	Play(ctx context.Context, documentID string) (domain.Step, error)
	Document(ctx context.Context, id string) (*domain.Document, error)
	Documents(ctx context.Context) ([]string, error)
	Watch(ctx context.Context) (<-chan string, error)
	Lookup(name string) (domain.Variable, bool)
	ClearRuntimeState(ctx context.Context, doc *domain.Document) error
}

// Server exposes an Engine as a JSON API, a websocket play channel and
// server-sent events.
type Server struct {
	Engine  Engine
	Streams *StreamManager

	logger   *slog.Logger
	origins  []string
	validate bool
	metrics  http.Handler
	upgrader websocket.Upgrader
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithAllowedOrigins restricts CORS and websocket origins. "*" allows any.
func WithAllowedOrigins(origins ...string) Option {
	return func(s *Server) {
		s.origins = origins
	}
}

// WithRequestValidation toggles validation of requests against the
// embedded OpenAPI document. It is on by default.
func WithRequestValidation(enabled bool) Option {
	return func(s *Server) {
		s.validate = enabled
	}
}

// WithMetrics mounts a metrics handler on /metrics.
func WithMetrics(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// NewHandler creates a new HTTP handler for the engine.
func NewHandler(engine Engine, opts ...Option) http.Handler {
	s := &Server{
		Engine:   engine,
		Streams:  NewStreamManager(),
		logger:   logging.NewNop(),
		origins:  []string{"*"},
		validate: true,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.Streams.logger = s.logger
	s.upgrader = websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || s.allowOrigin(origin)
		},
	}

	r := chi.NewRouter()
	r.Use(s.cors)
	if s.validate {
		router, err := specRouter()
		if err != nil {
			s.logger.Error("request validation disabled", "err", err)
		} else {
			r.Use(s.validateRequests(router))
		}
	}

	r.Get("/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/yaml")
		_, _ = w.Write(openapiSpec)
	})
	r.Get("/swagger", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(swaggerHTML))
	})
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics)
	}

	r.Get("/health", s.GetHealth)
	r.Get("/documents", s.ListDocuments)
	r.Get("/documents/{id}", s.GetDocument)
	r.Get("/documents/{id}/graph", s.GetGraph)
	r.Post("/documents/{id}/session", s.StartSession)
	r.Delete("/documents/{id}/runtime", s.ClearRuntimeState)
	r.Get("/session", s.GetSession)
	r.Post("/session/advance", s.Advance)
	r.Post("/session/choose", s.Choose)
	r.Delete("/session", s.EndSession)
	r.Get("/variables/{name}", s.GetVariable)
	r.Put("/variables/{name}", s.SetVariable)
	r.Get("/events", s.SubscribeEvents)
	r.Get("/ws", s.ServeWS)

	return r
}

var specRouter = sync.OnceValues(func() (routers.Router, error) {
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromData(openapiSpec)
	if err != nil {
		return nil, err
	}
	if err := doc.Validate(loader.Context); err != nil {
		return nil, err
	}
	return gorillamux.NewRouter(doc)
})

func (s *Server) allowOrigin(origin string) bool {
	return slices.Contains(s.origins, "*") || slices.Contains(s.origins, origin)
}

func (s *Server) cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if origin := r.Header.Get("Origin"); origin != "" && s.allowOrigin(origin) {
			if slices.Contains(s.origins, "*") {
				w.Header().Set("Access-Control-Allow-Origin", "*")
			} else {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Add("Vary", "Origin")
			}
		}
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// validateRequests rejects requests that do not match the OpenAPI document.
// Routes it does not describe, such as /ws and /metrics, pass through.
func (s *Server) validateRequests(router routers.Router) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			route, params, err := router.FindRoute(r)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}
			input := &openapi3filter.RequestValidationInput{
				Request:    r,
				PathParams: params,
				Route:      route,
			}
			if err := openapi3filter.ValidateRequest(r.Context(), input); err != nil {
				s.logger.Warn("request rejected", "method", r.Method, "path", r.URL.Path, "err", err)
				s.writeError(w, http.StatusBadRequest, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

const swaggerHTML = `
<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="utf-8" />
    <meta name="viewport" content="width=device-width, initial-scale=1" />
    <title>Parley API Documentation</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui.css" />
</head>
<body>
<div id="swagger-ui"></div>
<script src="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui-bundle.js" crossorigin></script>
<script>
    window.onload = () => {
    window.ui = SwaggerUIBundle({
        url: '/openapi.yaml',
        dom_id: '#swagger-ui',
    });
    };
</script>
</body>
</html>
`

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ListDocuments handles the GET /documents request.
func (s *Server) ListDocuments(w http.ResponseWriter, r *http.Request) {
	ids, err := s.Engine.Documents(r.Context())
	if err != nil {
		s.fail(w, err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	s.writeJSON(w, http.StatusOK, ids)
}

// GetDocument handles the GET /documents/{id} request.
func (s *Server) GetDocument(w http.ResponseWriter, r *http.Request) {
	doc, err := s.Engine.Document(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, err)
		return
	}
	f, err := document.Encode(doc)
	if err != nil {
		s.fail(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, f)
}

// GetGraph handles the GET /documents/{id}/graph request. The node of the
// running session is highlighted.
func (s *Server) GetGraph(w http.ResponseWriter, r *http.Request) {
	doc, err := s.Engine.Document(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, err)
		return
	}
	var overlay *graph.GraphOverlay
	if step, active := s.Engine.Current(); active && step.DocumentID == doc.ID && step.Node != nil {
		overlay = &graph.GraphOverlay{CurrentNode: step.Node.Base().ID}
	}
	w.Header().Set("Content-Type", "text/plain")
	_, _ = w.Write([]byte(graph.GenerateMermaid(doc, overlay)))
}

// StartSession handles the POST /documents/{id}/session request.
func (s *Server) StartSession(w http.ResponseWriter, r *http.Request) {
	step, err := s.Engine.Play(r.Context(), chi.URLParam(r, "id"))
	s.respondStep(w, step, err)
}

// ClearRuntimeState handles the DELETE /documents/{id}/runtime request.
func (s *Server) ClearRuntimeState(w http.ResponseWriter, r *http.Request) {
	doc, err := s.Engine.Document(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, err)
		return
	}
	if err := s.Engine.ClearRuntimeState(r.Context(), doc); err != nil {
		s.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetSession handles the GET /session request.
func (s *Server) GetSession(w http.ResponseWriter, r *http.Request) {
	step, _ := s.Engine.Current()
	if step.Status == "" {
		s.fail(w, domain.ErrNoActiveSession)
		return
	}
	s.writeJSON(w, http.StatusOK, dto.FromStep(step, s.Engine.Render))
}

// Advance handles the POST /session/advance request.
func (s *Server) Advance(w http.ResponseWriter, r *http.Request) {
	step, err := s.Engine.Resume(r.Context(), domain.Advance())
	s.respondStep(w, step, err)
}

// Choose handles the POST /session/choose request.
func (s *Server) Choose(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Choice int `json:"choice"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.logger.Warn("choose: invalid request body", "err", err)
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	step, err := s.Engine.Resume(r.Context(), domain.Choose(body.Choice))
	s.respondStep(w, step, err)
}

// EndSession handles the DELETE /session request.
func (s *Server) EndSession(w http.ResponseWriter, r *http.Request) {
	if err := s.Engine.End(r.Context()); err != nil {
		s.fail(w, err)
		return
	}
	if step, _ := s.Engine.Current(); step.Status != "" {
		s.broadcast(step)
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetVariable handles the GET /variables/{name} request.
func (s *Server) GetVariable(w http.ResponseWriter, r *http.Request) {
	v, ok := s.Engine.Lookup(chi.URLParam(r, "name"))
	if !ok {
		s.fail(w, domain.ErrVariableNotFound)
		return
	}
	s.writeJSON(w, http.StatusOK, dto.FromVariable(v))
}

// SetVariable handles the PUT /variables/{name} request.
func (s *Server) SetVariable(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Value any `json:"value"`
	}
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	if err := dec.Decode(&body); err != nil {
		s.logger.Warn("set variable: invalid request body", "err", err)
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	name := chi.URLParam(r, "name")
	if err := s.Engine.SetVariable(r.Context(), name, body.Value); err != nil {
		s.fail(w, err)
		return
	}
	v, _ := s.Engine.Lookup(name)
	s.writeJSON(w, http.StatusOK, dto.FromVariable(v))
}

func (s *Server) respondStep(w http.ResponseWriter, step domain.Step, err error) {
	if err != nil {
		s.fail(w, err)
		return
	}
	s.broadcast(step)
	s.writeJSON(w, http.StatusOK, dto.FromStep(step, s.Engine.Render))
}

func (s *Server) broadcast(step domain.Step) {
	if step.DocumentID == "" {
		return
	}
	data, err := json.Marshal(dto.FromStep(step, s.Engine.Render))
	if err != nil {
		s.logger.Error("step encode failed", "err", err)
		return
	}
	s.Streams.Broadcast(step.DocumentID, string(data))
}

// statusFor maps engine errors to HTTP status codes.
func statusFor(err error) int {
	var mismatch *domain.TypeMismatchError
	switch {
	case errors.Is(err, domain.ErrDocumentNotFound), errors.Is(err, domain.ErrVariableNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrNoActiveSession):
		return http.StatusConflict
	case errors.Is(err, domain.ErrInvalidChoice),
		errors.Is(err, domain.ErrUnexpectedInput),
		errors.Is(err, domain.ErrNoRoot),
		errors.As(err, &mismatch):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

func (s *Server) fail(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "err", err)
	}
	s.writeError(w, status, err)
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("response encode failed", "err", err)
	}
}
