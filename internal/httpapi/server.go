package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/specialistvlad/paramfn/internal/ctxlog"
	"github.com/specialistvlad/paramfn/internal/engine"
	"github.com/specialistvlad/paramfn/internal/model"
)

// Store is the registry as seen by the API.
type Store interface {
	Lookup(name string) (*model.FunctionDefinition, bool)
	Exists(name string) bool
	Save(def *model.FunctionDefinition) error
	Delete(name string) (bool, error)
	List() []model.FunctionMetadata
}

// Executor runs and checks stored functions.
type Executor interface {
	Execute(ctx context.Context, name string, inputs, parameters map[string]any) (*model.ExecutionResult, error)
	Check(ctx context.Context, name string) (*engine.CheckReport, error)
}

// Server serves the HTTP API.
type Server struct {
	store  Store
	exec   Executor
	logger *slog.Logger
	mux    *http.ServeMux
}

// New returns the API handler.
func New(store Store, exec Executor, logger *slog.Logger) *Server {
	s := &Server{
		store:  store,
		exec:   exec,
		logger: logger,
		mux:    http.NewServeMux(),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /{$}", s.handleRoot)
	s.mux.HandleFunc("GET /health", s.handleHealth)

	for _, p := range []string{"/functions", "/functions/{$}"} {
		s.mux.HandleFunc("GET "+p, s.handleList)
		s.mux.HandleFunc("POST "+p, s.handleCreate)
	}
	s.mux.HandleFunc("GET /functions/{name}", s.handleGet)
	s.mux.HandleFunc("PUT /functions/{name}", s.handleUpdate)
	s.mux.HandleFunc("DELETE /functions/{name}", s.handleDelete)
	s.mux.HandleFunc("GET /functions/{name}/info", s.handleInfo)
	s.mux.HandleFunc("GET /functions/{name}/check", s.handleCheck)

	s.mux.HandleFunc("POST /execute", s.handleExecute)
	s.mux.HandleFunc("POST /execute/{$}", s.handleExecute)
}

// ServeHTTP logs every request at debug level and dispatches it.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

	logger := s.logger.With("method", r.Method, "path", r.URL.Path)
	r = r.WithContext(ctxlog.WithLogger(r.Context(), logger))

	s.mux.ServeHTTP(rec, r)

	logger.Debug("HTTP request handled.", "status", rec.status, "duration", time.Since(start), "remote_addr", r.RemoteAddr)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
