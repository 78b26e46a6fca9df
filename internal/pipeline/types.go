package processor

import (
	"context"

	"github.com/joseph-ayodele/pdf-markup/constants"
	"github.com/joseph-ayodele/pdf-markup/internal/extract"
	"github.com/joseph-ayodele/pdf-markup/internal/llm"
	"github.com/joseph-ayodele/pdf-markup/internal/locate"
	"github.com/joseph-ayodele/pdf-markup/internal/mutate"
)

// Request is one full edit run: a document, an instruction, and the
// credential to plan with.
type Request struct {
	Data        []byte
	Filename    string
	Instruction string
	APIKey      string
}

// OracleFactory builds the planning oracle for a request. The server passes
// a per-request API key; the CLI passes the environment's.
type OracleFactory func(ctx context.Context, apiKey string) (llm.Oracle, error)

// AppliedEdit is one edit that made it into the output document.
type AppliedEdit struct {
	Edit       llm.EditRequest
	Page       int
	Confidence float64
}

// Result summarizes a Process run. Output is nil when the document had no
// text; it holds the ORIGINAL bytes when mutation failed.
type Result struct {
	Output  []byte
	Status  constants.JobStatus
	Stats   extract.Stats
	Summary string
	Model   string
	Applied []AppliedEdit
	Missed  []locate.Miss
	Skipped []mutate.Skipped
	Dropped []string
}

// Proposed is the number of edits the oracle put forward, applied or not.
func (r *Result) Proposed() int {
	return len(r.Applied) + len(r.Missed) + len(r.Skipped)
}
