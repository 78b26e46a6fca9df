package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/joseph-ayodele/pdf-markup/constants"
	"github.com/joseph-ayodele/pdf-markup/internal/entity"
	"github.com/joseph-ayodele/pdf-markup/internal/history"
)

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeError(w, http.StatusServiceUnavailable, errors.New("history store not configured"))
		return
	}
	jobs, err := s.history.List(r.Context(), queryInt(r, "limit", 50))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if jobs == nil {
		jobs = []entity.EditJob{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"jobs": jobs})
}

func (s *Server) handleHistoryXLSX(w http.ResponseWriter, r *http.Request) {
	if s.export == nil {
		writeError(w, http.StatusServiceUnavailable, errors.New("history store not configured"))
		return
	}
	out, err := s.export.ExportJobsXLSX(r.Context(), queryInt(r, "limit", 500))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	name := fmt.Sprintf("edit_history_%s.xlsx", time.Now().Format(constants.TimestampLayout))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	_, _ = w.Write(out)
}

func (s *Server) handleHistoryCSV(w http.ResponseWriter, r *http.Request) {
	if s.export == nil {
		writeError(w, http.StatusServiceUnavailable, errors.New("history store not configured"))
		return
	}
	out, err := s.export.ExportJobsCSV(r.Context(), queryInt(r, "limit", 500))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	name := fmt.Sprintf("edit_history_%s.csv", time.Now().Format(constants.TimestampLayout))
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	_, _ = w.Write(out)
}

// recordRun writes one terminal history row for a session's run. History
// failures are logged and swallowed; the user's request never fails on the
// audit trail.
func (s *Server) recordRun(ctx context.Context, sess *Session, instruction string, out history.Outcome) {
	if s.history == nil {
		return
	}
	// The row must land even if the client has gone away.
	ctx = context.WithoutCancel(ctx)
	job := &entity.EditJob{
		Filename:    sess.Filename,
		FileSize:    int64(len(sess.Data)),
		ContentHash: sess.Hash,
		Instruction: instruction,
	}
	if err := s.history.Start(ctx, job); err != nil {
		s.logger.Warn("history.record.failed", "filename", sess.Filename, "err", err)
		return
	}
	if err := s.history.Finish(ctx, job.ID, out); err != nil {
		s.logger.Warn("history.record.failed", "job_id", job.ID, "err", err)
	}
}
