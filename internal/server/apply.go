package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/joseph-ayodele/pdf-markup/constants"
	"github.com/joseph-ayodele/pdf-markup/internal/history"
)

type applyRequest struct {
	SessionID string `json:"session_id"`
}

type appliedView struct {
	Kind        constants.EditKind `json:"kind"`
	Target      string             `json:"target"`
	Replacement string             `json:"replacement,omitempty"`
	Page        int                `json:"page"`
	Confidence  float64            `json:"confidence"`
}

type missView struct {
	Kind   constants.EditKind `json:"kind"`
	Target string             `json:"target"`
	Reason string             `json:"reason"`
	Best   float64            `json:"best_score"`
}

type skipView struct {
	Kind   constants.EditKind `json:"kind"`
	Target string             `json:"target"`
	Page   int                `json:"page"`
	Reason string             `json:"reason"`
}

type applyResponse struct {
	SessionID   string              `json:"session_id"`
	Status      constants.JobStatus `json:"status"`
	Summary     string              `json:"summary,omitempty"`
	Model       string              `json:"model,omitempty"`
	Applied     []appliedView       `json:"applied"`
	Missed      []missView          `json:"missed,omitempty"`
	Skipped     []skipView          `json:"skipped,omitempty"`
	OutputSize  int64               `json:"output_size"`
	OutputHuman string              `json:"output_size_human"`
	DownloadURL string              `json:"download_url"`
}

// handleApply locates and applies the stored plan, records the run, and
// keeps the output on the session for download. Per-edit misses and skips
// come back alongside the applied list; they never fail the request.
func (s *Server) handleApply(w http.ResponseWriter, r *http.Request) {
	var req applyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("decoding request: %w", err))
		return
	}
	sess, ok := s.session(req.SessionID)
	if !ok {
		writeError(w, http.StatusNotFound, errors.New("session unknown or expired"))
		return
	}
	instruction, plan := sess.PlanState()
	if plan == nil {
		writeError(w, http.StatusConflict, errors.New("no edit plan on this session; request one first"))
		return
	}

	outcome, err := s.apply.Run(sess.Data, sess.Doc, plan.Edits)
	if err != nil {
		s.recordRun(r.Context(), sess, instruction, history.Outcome{
			Status:       constants.JobStatusFailed,
			ModelName:    plan.Model,
			Pages:        sess.Doc.Stats.Pages,
			Fragments:    sess.Doc.Stats.Fragments,
			Characters:   sess.Doc.Stats.Characters,
			Proposed:     len(plan.Edits),
			Missed:       len(outcome.Missed),
			ErrorMessage: err.Error(),
		})
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	sess.SetOutput(outcome.Output)

	s.recordRun(r.Context(), sess, instruction, history.Outcome{
		Status:     constants.JobStatusSucceeded,
		ModelName:  plan.Model,
		Pages:      sess.Doc.Stats.Pages,
		Fragments:  sess.Doc.Stats.Fragments,
		Characters: sess.Doc.Stats.Characters,
		Proposed:   len(plan.Edits),
		Applied:    len(outcome.Applied),
		Missed:     len(outcome.Missed) + len(outcome.Skipped),
	})

	resp := applyResponse{
		SessionID:   sess.ID.String(),
		Status:      constants.JobStatusSucceeded,
		Summary:     plan.Summary,
		Model:       plan.Model,
		Applied:     make([]appliedView, 0, len(outcome.Applied)),
		OutputSize:  int64(len(outcome.Output)),
		OutputHuman: constants.FormatFileSize(int64(len(outcome.Output))),
		DownloadURL: "/download/" + sess.ID.String(),
	}
	for _, a := range outcome.Applied {
		resp.Applied = append(resp.Applied, appliedView{
			Kind:        a.Edit.Kind,
			Target:      a.Edit.Target,
			Replacement: a.Edit.Replacement,
			Page:        a.Page,
			Confidence:  a.Confidence,
		})
	}
	for _, m := range outcome.Missed {
		resp.Missed = append(resp.Missed, missView{
			Kind:   m.Edit.Kind,
			Target: m.Edit.Target,
			Reason: m.Reason,
			Best:   m.Best,
		})
	}
	for _, k := range outcome.Skipped {
		resp.Skipped = append(resp.Skipped, skipView{
			Kind:   k.Edit.Kind,
			Target: k.Edit.Target,
			Page:   k.Page,
			Reason: k.Reason,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}
