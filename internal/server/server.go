// Package server is the HTTP shell around the edit pipeline: upload, plan
// preview, apply, download, and the history surfaces. Cross-request state
// lives only in the session store, so two browser sessions cannot bleed
// into each other.
package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/pdf-markup/internal/common"
	"github.com/joseph-ayodele/pdf-markup/internal/export"
	"github.com/joseph-ayodele/pdf-markup/internal/history"
	processor "github.com/joseph-ayodele/pdf-markup/internal/pipeline"
)

type Server struct {
	cfg      *common.Config
	logger   *slog.Logger
	extract  *processor.ExtractStage
	plan     *processor.PlanStage
	apply    *processor.ApplyStage
	sessions *SessionStore
	history  history.Store
	export   *export.Service
}

func NewServer(cfg *common.Config, logger *slog.Logger, ex *processor.ExtractStage, plan *processor.PlanStage, apply *processor.ApplyStage, hist history.Store) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		cfg:      cfg,
		logger:   logger,
		extract:  ex,
		plan:     plan,
		apply:    apply,
		sessions: NewSessionStore(cfg.Server.SessionTTL, logger),
		history:  hist,
	}
	if hist != nil {
		s.export = export.NewService(hist, logger)
	}
	return s
}

// Sessions exposes the store so the command can start its sweep loop.
func (s *Server) Sessions() *SessionStore { return s.sessions }

// Router builds the handler tree.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/", s.handleIndex)
	r.Get("/healthz", s.handleHealthz)
	r.Get("/download/{id}", s.handleDownload)

	r.Route("/api", func(r chi.Router) {
		r.Post("/upload", s.handleUpload)
		r.Post("/plan", s.handlePlan)
		r.Post("/apply", s.handleApply)
		r.Get("/history", s.handleHistory)
		r.Get("/history.xlsx", s.handleHistoryXLSX)
		r.Get("/history.csv", s.handleHistoryCSV)
	})
	return r
}

// requestLogger emits one line per request through the app logger.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Info("http.request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"elapsed_ms", time.Since(start).Milliseconds(),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if s.history != nil {
		if err := s.history.Ping(r.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable,
				map[string]string{"status": "degraded", "error": err.Error()})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// session resolves a client-supplied session id to a live session.
func (s *Server) session(id string) (*Session, bool) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, false
	}
	return s.sessions.Get(uid)
}
