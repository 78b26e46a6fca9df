package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/joseph-ayodele/pdf-markup/constants"
	"github.com/joseph-ayodele/pdf-markup/internal/common"
	"github.com/joseph-ayodele/pdf-markup/internal/history"
	"github.com/joseph-ayodele/pdf-markup/internal/llm"
)

type planRequest struct {
	SessionID   string `json:"session_id"`
	Instruction string `json:"instruction"`
	APIKey      string `json:"api_key,omitempty"`
}

// planEditView is one proposed edit plus whether its target text appears in
// the document, so the page can warn before apply.
type planEditView struct {
	Kind        constants.EditKind `json:"kind"`
	Target      string             `json:"target"`
	Replacement string             `json:"replacement,omitempty"`
	Context     string             `json:"context,omitempty"`
	Note        string             `json:"note,omitempty"`
	Found       bool               `json:"found"`
}

type planResponse struct {
	SessionID string         `json:"session_id"`
	Summary   string         `json:"summary,omitempty"`
	Approach  string         `json:"approach,omitempty"`
	Model     string         `json:"model,omitempty"`
	Edits     []planEditView `json:"edits"`
	Dropped   []string       `json:"dropped,omitempty"`
}

// handlePlan resolves the credential, asks the oracle for an edit plan, and
// stores it on the session for a later apply. The credential is checked
// before any model call; form value wins over the server's configured key.
func (s *Server) handlePlan(w http.ResponseWriter, r *http.Request) {
	var req planRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("decoding request: %w", err))
		return
	}

	v := common.NewValidator()
	v.Field("session_id", req.SessionID, common.Required, common.UUID)
	v.Field("instruction", req.Instruction, common.Required)
	if err := common.ValidateAndReturnError(v); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	sess, ok := s.session(req.SessionID)
	if !ok {
		writeError(w, http.StatusNotFound, errors.New("session unknown or expired"))
		return
	}
	if sess.Doc.Empty() {
		writeError(w, http.StatusUnprocessableEntity, errors.New("document has no extractable text"))
		return
	}

	apiKey := strings.TrimSpace(req.APIKey)
	if apiKey == "" {
		apiKey = s.cfg.LLM.APIKey
	}
	if !common.ValidAPIKey(apiKey) {
		writeError(w, http.StatusUnauthorized, common.ErrNoAPIKey)
		return
	}

	instruction := strings.TrimSpace(req.Instruction)
	plan, err := s.plan.Run(r.Context(), sess.Doc, instruction, apiKey)
	if err != nil {
		code := http.StatusBadGateway
		if errors.Is(err, common.ErrNoAPIKey) {
			code = http.StatusUnauthorized
		}
		s.recordRun(r.Context(), sess, instruction, history.Outcome{
			Status:       constants.JobStatusFailed,
			Pages:        sess.Doc.Stats.Pages,
			Fragments:    sess.Doc.Stats.Fragments,
			Characters:   sess.Doc.Stats.Characters,
			ErrorMessage: err.Error(),
		})
		writeError(w, code, err)
		return
	}

	sess.SetPlan(instruction, plan)

	docText := sess.Doc.Text()
	views := make([]planEditView, 0, len(plan.Edits))
	for _, e := range plan.Edits {
		views = append(views, planEditView{
			Kind:        e.Kind,
			Target:      e.Target,
			Replacement: e.Replacement,
			Context:     e.Context,
			Note:        e.Note,
			Found:       targetVisible(docText, e),
		})
	}
	writeJSON(w, http.StatusOK, planResponse{
		SessionID: sess.ID.String(),
		Summary:   plan.Summary,
		Approach:  plan.Approach,
		Model:     plan.Model,
		Edits:     views,
		Dropped:   plan.Dropped,
	})
}

// targetVisible is the preview check only. The locator makes the real call
// during apply, with fuzzy matching this check does not attempt.
func targetVisible(docText string, e llm.EditRequest) bool {
	if e.Kind == constants.EditHighlight {
		return strings.Contains(strings.ToLower(docText), strings.ToLower(e.Target))
	}
	return strings.Contains(docText, e.Target)
}
