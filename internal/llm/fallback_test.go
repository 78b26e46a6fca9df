package llm

import (
	"strings"
	"testing"

	"github.com/joseph-ayodele/pdf-markup/constants"
)

// WHAT: recovers a replace edit from a quoted change instruction.
// WHY: when the model reply is garbage, the instruction itself often names
// the edit precisely enough to act on.
func TestFallbackPlan_ChangePattern(t *testing.T) {
	req := PlanRequest{
		DocumentText: "--- Page 1 ---\nChapter 2: Background\nSome body text here",
		Instruction:  `Change 'Chapter 2: Background' to 'Chapter 2: Fundamentals'`,
	}
	plan := FallbackPlan(req)
	if len(plan.Edits) != 1 {
		t.Fatalf("got %d edits, want 1", len(plan.Edits))
	}
	e := plan.Edits[0]
	if e.Kind != constants.EditReplace {
		t.Errorf("Kind = %q, want replace", e.Kind)
	}
	if e.Target != "Chapter 2: Background" || e.Replacement != "Chapter 2: Fundamentals" {
		t.Errorf("edit = %+v", e)
	}
	if !strings.Contains(plan.Summary, "Fallback modification") {
		t.Errorf("Summary = %q", plan.Summary)
	}
}

// WHAT: the quoted target does not appear in the document.
// WHY: fallback edits must never invent targets the locator cannot find.
func TestFallbackPlan_TargetAbsent(t *testing.T) {
	req := PlanRequest{
		DocumentText: "nothing relevant here",
		Instruction:  `change 'missing text' to 'anything'`,
	}
	if plan := FallbackPlan(req); len(plan.Edits) != 0 {
		t.Fatalf("edits = %+v, want none", plan.Edits)
	}
}

// WHAT: a highlight instruction over a document containing finance vocabulary.
// WHY: the keyword recovery proposes exactly one highlight, the first term
// found, so repeated runs stay deterministic.
func TestFallbackPlan_HighlightFinancialTerm(t *testing.T) {
	req := PlanRequest{
		DocumentText: "The project Budget grew while profit held steady.",
		Instruction:  "Please highlight all financial matters",
	}
	plan := FallbackPlan(req)
	if len(plan.Edits) != 1 {
		t.Fatalf("got %d edits, want 1", len(plan.Edits))
	}
	e := plan.Edits[0]
	if e.Kind != constants.EditHighlight || e.Target != "budget" {
		t.Errorf("edit = %+v, want highlight of %q", e, "budget")
	}
}

// WHAT: double-quoted change instructions and mixed-case matching.
// WHY: the pattern accepts either quote style and matches case-insensitively
// against the document.
func TestFallbackPlan_QuoteStylesAndCase(t *testing.T) {
	req := PlanRequest{
		DocumentText: "SOME HEADING IN CAPS",
		Instruction:  `CHANGE "some heading in caps" TO "new heading"`,
	}
	plan := FallbackPlan(req)
	if len(plan.Edits) != 1 {
		t.Fatalf("got %d edits, want 1", len(plan.Edits))
	}
	if plan.Edits[0].Target != "some heading in caps" {
		t.Errorf("Target = %q", plan.Edits[0].Target)
	}
}

// WHAT: an instruction with neither pattern over a plain document.
// WHY: an empty fallback plan is how callers learn nothing was recoverable.
func TestFallbackPlan_NothingRecoverable(t *testing.T) {
	req := PlanRequest{
		DocumentText: "plain text",
		Instruction:  "make it nicer",
	}
	if plan := FallbackPlan(req); len(plan.Edits) != 0 {
		t.Fatalf("edits = %+v, want none", plan.Edits)
	}
}
