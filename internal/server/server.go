// Package server exposes the layout engine over HTTP. Clients upload a
// commit list, the server computes and stores the layout, and later
// requests fetch it or overlay a merge preview on it.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	apperrors "github.com/lanegraph/lanegraph/pkg/errors"
	"github.com/lanegraph/lanegraph/pkg/history"
	"github.com/lanegraph/lanegraph/pkg/lanes"
	"github.com/lanegraph/lanegraph/pkg/observability"
	"github.com/lanegraph/lanegraph/pkg/store"
)

// maxBodyBytes bounds uploaded commit lists.
const maxBodyBytes = 8 << 20

// Options configures a Server.
type Options struct {
	// Store persists computed layouts. Defaults to an in-memory store.
	Store store.Store

	// Logger receives request logs. Defaults to a discard logger.
	Logger *log.Logger

	// PaletteSize is the default color palette modulus applied when a
	// request doesn't specify one.
	PaletteSize int
}

// Server handles the layout HTTP API.
type Server struct {
	store       store.Store
	logger      *log.Logger
	paletteSize int
}

// New creates a server with the given options.
func New(opts Options) *Server {
	if opts.Store == nil {
		opts.Store = store.NewMemoryStore()
	}
	if opts.Logger == nil {
		opts.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return &Server{
		store:       opts.Store,
		logger:      opts.Logger,
		paletteSize: opts.PaletteSize,
	}
}

// Router builds the chi router with all routes and middleware.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(s.logRequests)
	r.Use(chimw.Recoverer)

	r.Get("/healthz", s.handleHealth)

	r.Route("/api/layouts", func(r chi.Router) {
		r.Post("/", s.handleCreate)
		r.Get("/", s.handleList)
		r.Get("/{id}", s.handleGet)
		r.Delete("/{id}", s.handleDelete)
		r.Post("/{id}/preview", s.handlePreview)
	})
	return r
}

// ListenAndServe runs the server until ctx is canceled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// =============================================================================
// Handlers
// =============================================================================

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// createRequest is the body of POST /api/layouts. Callers upload either
// full history entries (commit metadata included) or a bare commit
// list.
type createRequest struct {
	RepoID      string          `json:"repo_id"`
	PaletteSize *int            `json:"palette_size,omitempty"`
	HasMore     bool            `json:"has_more,omitempty"`
	Commits     []lanes.Commit  `json:"commits,omitempty"`
	Entries     []history.Entry `json:"entries,omitempty"`
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	commits := req.Commits
	if len(commits) == 0 && len(req.Entries) > 0 {
		commits = history.Commits(req.Entries)
	}
	if len(commits) == 0 {
		s.writeError(w, r, apperrors.New(apperrors.ErrCodeInvalidInput, "commits or entries required"))
		return
	}

	paletteSize := s.paletteSize
	if req.PaletteSize != nil {
		paletteSize = *req.PaletteSize
	}

	layout := lanes.Compute(commits, lanes.Options{
		PaletteSize: paletteSize,
		HasMore:     req.HasMore,
	})

	rec := store.NewRecord(req.RepoID, layout, req.Entries)
	if err := s.store.Save(r.Context(), rec); err != nil {
		s.writeError(w, r, err)
		return
	}

	s.logger.Info("layout created",
		"id", rec.ID,
		"repo", rec.RepoID,
		"rows", len(layout.Rows),
		"diagnostics", len(layout.Diagnostics))
	writeJSON(w, http.StatusCreated, rec)
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	rec, err := s.store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := parseLimit(v)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		limit = n
	}
	recs, err := s.store.List(r.Context(), r.URL.Query().Get("repo_id"), limit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"layouts": recs})
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// previewRequest is the body of POST /api/layouts/{id}/preview.
type previewRequest struct {
	Heads []string `json:"heads"`
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	var req previewRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	rec, err := s.store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	overlay, err := lanes.MergePreview(rec.Layout, req.Heads)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"id":     rec.ID,
		"heads":  req.Heads,
		"layout": overlay,
	})
}

// =============================================================================
// Middleware
// =============================================================================

// requestID assigns a request id unless the client supplied one.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r)
	})
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		observability.HTTP().OnRequest(r.Context(), r.Method, r.URL.Path)

		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		duration := time.Since(start)
		observability.HTTP().OnResponse(r.Context(), r.Method, r.URL.Path, ww.Status(), duration)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", duration)
	})
}

// =============================================================================
// Helpers
// =============================================================================

func decodeJSON(r *http.Request, v any) error {
	body := http.MaxBytesReader(nil, r.Body, maxBodyBytes)
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return apperrors.Wrap(apperrors.ErrCodeInvalidInput, err, "decode request body")
	}
	return nil
}

func parseLimit(v string) (int, error) {
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, apperrors.New(apperrors.ErrCodeInvalidInput, "invalid limit: %q", v)
	}
	return n, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// errorResponse is the JSON error envelope.
type errorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		observability.HTTP().OnError(r.Context(), r.Method, r.URL.Path, err)
		s.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "err", err)
	}

	var resp errorResponse
	resp.Error.Code = string(apperrors.GetCode(err))
	if resp.Error.Code == "" {
		resp.Error.Code = string(apperrors.ErrCodeInternal)
	}
	resp.Error.Message = apperrors.UserMessage(err)
	writeJSON(w, status, resp)
}

// statusFor maps error codes to HTTP status codes.
func statusFor(err error) int {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return http.StatusRequestEntityTooLarge
	}
	switch apperrors.GetCode(err) {
	case apperrors.ErrCodeInvalidInput, apperrors.ErrCodeInvalidFormat, apperrors.ErrCodeInvalidConfig:
		return http.StatusBadRequest
	case apperrors.ErrCodeUnknownHead:
		return http.StatusUnprocessableEntity
	case apperrors.ErrCodeNotFound, apperrors.ErrCodeLayoutNotFound, apperrors.ErrCodeRepoNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
