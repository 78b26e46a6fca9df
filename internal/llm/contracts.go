package llm

import (
	"context"

	"github.com/joseph-ayodele/pdf-markup/constants"
)

// EditRequest is one normalized edit proposed by the model.
type EditRequest struct {
	Kind        constants.EditKind `json:"kind"`
	Target      string             `json:"target"`                // exact text to locate in the document
	Replacement string             `json:"replacement,omitempty"` // replace edits only
	Context     string             `json:"context,omitempty"`     // where the text appears, per the model
	Note        string             `json:"note,omitempty"`        // model's rationale for the edit
}

// EditPlan is the normalized shape we want from the LLM.
type EditPlan struct {
	Edits    []EditRequest `json:"edits"`
	Summary  string        `json:"summary,omitempty"`
	Approach string        `json:"approach,omitempty"`
	Dropped  []string      `json:"dropped,omitempty"` // entries discarded during sanitization
	Model    string        `json:"model,omitempty"`   // model that produced the plan, filled by the client
}

type PlanRequest struct {
	// DocumentText is the page-marked text snapshot of the PDF.
	DocumentText string
	// Instruction is the user's natural-language edit request.
	Instruction string
}

// Oracle is the interface our pipeline depends on.
type Oracle interface {
	Propose(ctx context.Context, req PlanRequest) (*EditPlan, error)
}
