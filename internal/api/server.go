package api

import (
	"context"
	"encoding/json"
	"net/http"

	"autoblogger/internal/settings"
	"autoblogger/internal/store"
)

// maxRequestBody is the maximum allowed request body size (1 MB).
const maxRequestBody int64 = 1 << 20

// Runner starts a pipeline run for one artifact.
type Runner interface {
	Run(ctx context.Context, id string) error
}

// Server holds the HTTP handlers and dependencies.
type Server struct {
	store    *store.Store
	settings *settings.Files
	runner   Runner
	origin   string
	mux      *http.ServeMux
}

// New creates a new API server. origin is the allowed CORS origin;
// empty means "*".
func New(s *store.Store, set *settings.Files, runner Runner, origin string) *Server {
	if origin == "" {
		origin = "*" // TODO: restrict in production
	}
	srv := &Server{store: s, settings: set, runner: runner, origin: origin, mux: http.NewServeMux()}
	srv.routes()
	return srv
}

// Handler returns the root http.Handler with middleware applied.
func (s *Server) Handler() http.Handler {
	return s.corsMiddleware(limitBody(jsonContent(s.mux)))
}

func (s *Server) routes() {
	s.mux.HandleFunc("POST /api/artifacts", s.handleCreate)
	s.mux.HandleFunc("GET /api/artifacts", s.handleList)
	s.mux.HandleFunc("GET /api/artifacts/{id}", s.handleGet)
	s.mux.HandleFunc("POST /api/artifacts/{id}/run", s.handleRun)
	s.mux.HandleFunc("GET /api/artifacts/{id}/stages/{stage}", s.handleStageMarkdown)
	s.mux.HandleFunc("GET /api/artifacts/{id}/exports/{name}", s.handleExport)
	s.mux.HandleFunc("GET /api/settings/pipeline", s.handleGetPipelineSettings)
	s.mux.HandleFunc("PUT /api/settings/pipeline", s.handlePutPipelineSettings)
	s.mux.HandleFunc("GET /api/settings/eval", s.handleGetEvalSettings)
	s.mux.HandleFunc("PUT /api/settings/eval", s.handlePutEvalSettings)
}

// ---------------------------------------------------------------------------
// Middleware
// ---------------------------------------------------------------------------

func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", s.origin)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// limitBody restricts the request body to maxRequestBody bytes.
func limitBody(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)
		next.ServeHTTP(w, r)
	})
}

func jsonContent(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}

// ---------------------------------------------------------------------------
// Response helpers
// ---------------------------------------------------------------------------

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
