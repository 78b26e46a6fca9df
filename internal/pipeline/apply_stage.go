package processor

import (
	"log/slog"

	"github.com/joseph-ayodele/pdf-markup/internal/extract"
	"github.com/joseph-ayodele/pdf-markup/internal/llm"
	"github.com/joseph-ayodele/pdf-markup/internal/locate"
	"github.com/joseph-ayodele/pdf-markup/internal/mutate"
)

type ApplyStage struct {
	Locator *locate.Locator
	Mutator *mutate.Mutator
	Logger  *slog.Logger
}

func NewApplyStage(loc *locate.Locator, mut *mutate.Mutator, logger *slog.Logger) *ApplyStage {
	if logger == nil {
		logger = slog.Default()
	}
	return &ApplyStage{Locator: loc, Mutator: mut, Logger: logger}
}

// ApplyOutcome carries the rewritten file and the per-edit fates. On a
// mutation failure Output still holds the original bytes.
type ApplyOutcome struct {
	Output  []byte
	Applied []AppliedEdit
	Missed  []locate.Miss
	Skipped []mutate.Skipped
}

// Run locates the proposed edits in the document and applies what it can.
// Misses and skips accumulate; only a mutation failure is an error.
func (s *ApplyStage) Run(data []byte, doc *extract.Document, edits []llm.EditRequest) (*ApplyOutcome, error) {
	located, missed := s.Locator.LocateAll(doc, edits)

	out, mres, err := s.Mutator.Apply(data, located)
	if err != nil {
		return &ApplyOutcome{Output: data, Missed: missed}, err
	}
	return &ApplyOutcome{
		Output:  out,
		Applied: appliedOf(located, mres.Skipped),
		Missed:  missed,
		Skipped: mres.Skipped,
	}, nil
}

// appliedOf filters the located edits down to the ones the mutator kept.
// Skips are matched as a multiset so duplicate proposals stay accounted.
func appliedOf(located []locate.LocatedEdit, skipped []mutate.Skipped) []AppliedEdit {
	skipCount := make(map[llm.EditRequest]int, len(skipped))
	for _, s := range skipped {
		skipCount[s.Edit]++
	}
	applied := make([]AppliedEdit, 0, len(located))
	for _, le := range located {
		if skipCount[le.Edit] > 0 {
			skipCount[le.Edit]--
			continue
		}
		applied = append(applied, AppliedEdit{Edit: le.Edit, Page: le.Page, Confidence: le.Confidence})
	}
	return applied
}
