// Package gemini adapts Google's Gemini API to the edit-planning interface.
// One Propose call walks the configured model list in order and parses the
// first reply it gets, tolerating the JSON hygiene problems models exhibit.
package gemini

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/pdf-markup/internal/common"
	"github.com/joseph-ayodele/pdf-markup/internal/llm"
)

// Propose asks Gemini for an edit plan. Models are tried in configured order;
// transport or quota failures advance to the next model, while a reply that
// merely parses badly goes down the lenient and fallback paths instead.
func (c *Client) Propose(ctx context.Context, req llm.PlanRequest) (*llm.EditPlan, error) {
	reqID := uuid.NewString()
	start := time.Now()
	c.logger.Info("llm.plan.start",
		"req_id", reqID,
		"models", len(c.cfg.Models),
		"doc_chars", len(req.DocumentText),
		"instruction_chars", len(req.Instruction))

	prompt := llm.BuildSystemPrompt() + "\n\n" + llm.BuildUserPrompt(req)

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	var (
		reply   string
		model   string
		lastErr error
	)
	for _, m := range c.cfg.Models {
		tryStart := time.Now()
		out, err := c.generate(ctx, m, prompt)
		if err != nil {
			lastErr = err
			c.logger.Warn("llm.plan.model_failed",
				"req_id", reqID,
				"model", m,
				"elapsed_ms", time.Since(tryStart).Milliseconds(),
				"err", err)
			if ctx.Err() != nil {
				break
			}
			continue
		}
		reply, model = out, m
		break
	}
	if model == "" {
		return nil, &common.OracleError{Message: "all models failed", Cause: lastErr}
	}

	plan, err := c.parseReply(reqID, reply, req)
	if err != nil {
		return nil, err
	}
	plan.Model = model

	c.logger.Info("llm.plan.ok",
		"req_id", reqID,
		"model", model,
		"edits", len(plan.Edits),
		"dropped", len(plan.Dropped),
		"elapsed_ms", time.Since(start).Milliseconds())
	return plan, nil
}

// parseReply turns raw model output into a plan. Strategy: strip code fences,
// dig out the first JSON object if the reply is not pure JSON, sanitize entry
// by entry, and as a last resort derive edits from the instruction itself.
func (c *Client) parseReply(reqID, reply string, req llm.PlanRequest) (*llm.EditPlan, error) {
	cleaned := llm.StripCodeFences(reply)
	candidate := cleaned
	if !json.Valid([]byte(candidate)) {
		candidate = llm.FindFirstJSON(cleaned)
	}
	if candidate == "" {
		c.logger.Warn("llm.plan.unparseable", "req_id", reqID, "reply_chars", len(reply))
		return c.fallback(reqID, req, nil)
	}

	raw := []byte(candidate)
	if err := llm.ValidateJSONAgainstSchema(llm.BuildPlanJSONSchema(), raw); err != nil {
		c.logger.Warn("llm.plan.schema_validation_failed", "req_id", reqID, "err", err)
	}

	plan, dropped, err := llm.NormalizeAndSanitizePlan(raw, c.logger)
	if err != nil {
		c.logger.Warn("llm.plan.sanitize_failed", "req_id", reqID, "err", err)
		return c.fallback(reqID, req, err)
	}
	plan.Dropped = dropped
	return plan, nil
}

func (c *Client) fallback(reqID string, req llm.PlanRequest, cause error) (*llm.EditPlan, error) {
	plan := llm.FallbackPlan(req)
	if len(plan.Edits) == 0 {
		return nil, &common.OracleError{Message: "reply contained no usable edit plan", Cause: cause}
	}
	c.logger.Info("llm.plan.fallback_applied", "req_id", reqID, "edits", len(plan.Edits))
	return plan, nil
}
