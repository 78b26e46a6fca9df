package processor

import (
	"context"
	"log/slog"

	"github.com/joseph-ayodele/pdf-markup/internal/extract"
	"github.com/joseph-ayodele/pdf-markup/internal/llm"
)

type PlanStage struct {
	Factory OracleFactory
	Logger  *slog.Logger
}

func NewPlanStage(factory OracleFactory, logger *slog.Logger) *PlanStage {
	if logger == nil {
		logger = slog.Default()
	}
	return &PlanStage{Factory: factory, Logger: logger}
}

// Run asks the oracle for an edit plan against the document text.
// Credential problems surface from the factory before any model call.
func (s *PlanStage) Run(ctx context.Context, doc *extract.Document, instruction, apiKey string) (*llm.EditPlan, error) {
	oracle, err := s.Factory(ctx, apiKey)
	if err != nil {
		return nil, err
	}
	return oracle.Propose(ctx, llm.PlanRequest{
		DocumentText: doc.Text(),
		Instruction:  instruction,
	})
}
