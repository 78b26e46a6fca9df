// Package processor chains extraction, planning and application into one
// synchronous document edit run. It keeps no state between runs; every
// Process call is independent, so concurrent sessions cannot bleed into
// each other.
package processor

import (
	"context"
	"log/slog"
	"time"

	"github.com/joseph-ayodele/pdf-markup/constants"
)

// Processor coordinates extract (text + layout), plan (oracle), and apply
// (locate + mutate).
type Processor struct {
	Logger  *slog.Logger
	Extract *ExtractStage
	Plan    *PlanStage
	Apply   *ApplyStage
}

func NewProcessor(logger *slog.Logger, ex *ExtractStage, plan *PlanStage, apply *ApplyStage) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{Logger: logger, Extract: ex, Plan: plan, Apply: apply}
}

// Process runs the full pipeline for one request. A document without
// extractable text returns a NO_TEXT result and never reaches the oracle.
// Extraction and oracle failures return an error with no result; a mutation
// failure returns both the error and a FAILED result carrying the original
// bytes.
func (p *Processor) Process(ctx context.Context, req Request) (*Result, error) {
	start := time.Now()

	doc, err := p.Extract.Run(ctx, req.Data)
	if err != nil {
		p.Logger.Error("processor.extract.failed", "filename", req.Filename, "err", err)
		return nil, err
	}
	if doc.Empty() {
		p.Logger.Info("processor.no_text", "filename", req.Filename, "pages", doc.Stats.Pages)
		return &Result{Status: constants.JobStatusNoText, Stats: doc.Stats}, nil
	}
	p.Logger.Info("processor.extract.ok",
		"filename", req.Filename,
		"pages", doc.Stats.Pages,
		"fragments", doc.Stats.Fragments,
		"characters", doc.Stats.Characters,
	)

	plan, err := p.Plan.Run(ctx, doc, req.Instruction, req.APIKey)
	if err != nil {
		p.Logger.Error("processor.plan.failed", "filename", req.Filename, "err", err)
		return nil, err
	}
	p.Logger.Info("processor.plan.ok",
		"filename", req.Filename,
		"edits", len(plan.Edits),
		"dropped", len(plan.Dropped),
	)

	outcome, err := p.Apply.Run(req.Data, doc, plan.Edits)
	if err != nil {
		p.Logger.Error("processor.apply.failed", "filename", req.Filename, "err", err)
		return &Result{
			Output:  outcome.Output,
			Status:  constants.JobStatusFailed,
			Stats:   doc.Stats,
			Summary: plan.Summary,
			Model:   plan.Model,
			Missed:  outcome.Missed,
			Dropped: plan.Dropped,
		}, err
	}

	res := &Result{
		Output:  outcome.Output,
		Status:  constants.JobStatusSucceeded,
		Stats:   doc.Stats,
		Summary: plan.Summary,
		Model:   plan.Model,
		Applied: outcome.Applied,
		Missed:  outcome.Missed,
		Skipped: outcome.Skipped,
		Dropped: plan.Dropped,
	}
	p.Logger.Info("processor.apply.ok",
		"filename", req.Filename,
		"applied", len(res.Applied),
		"missed", len(res.Missed),
		"skipped", len(res.Skipped),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return res, nil
}
