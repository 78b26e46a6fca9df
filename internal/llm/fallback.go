package llm

import (
	"regexp"
	"strings"

	"github.com/joseph-ayodele/pdf-markup/constants"
)

// changePattern matches instructions like: change 'old text' to "new text".
var changePattern = regexp.MustCompile(`(?i)change\s+['"]([^'"]+)['"]\s+to\s+['"]([^'"]+)['"]`)

// financialTerms drive the keyword highlight recovery, most specific first.
var financialTerms = []string{
	"financial", "money", "cost", "budget", "revenue",
	"profit", "investment", "price", "fee",
}

// FallbackPlan recovers simple edits straight from the instruction when the
// model reply cannot be parsed at all. It only proposes edits whose target
// text is actually present in the document.
func FallbackPlan(req PlanRequest) *EditPlan {
	plan := &EditPlan{
		Summary: "Fallback modification created for: " + strings.TrimSpace(req.Instruction),
	}
	lowerDoc := strings.ToLower(req.DocumentText)

	if m := changePattern.FindStringSubmatch(req.Instruction); m != nil {
		target, replacement := m[1], m[2]
		if strings.Contains(lowerDoc, strings.ToLower(target)) {
			plan.Edits = append(plan.Edits, EditRequest{
				Kind:        constants.EditReplace,
				Target:      target,
				Replacement: replacement,
				Context:     "Found in text: " + target,
			})
		}
	}

	if strings.Contains(strings.ToLower(req.Instruction), "highlight") {
		for _, term := range financialTerms {
			if strings.Contains(lowerDoc, term) {
				plan.Edits = append(plan.Edits, EditRequest{
					Kind:    constants.EditHighlight,
					Target:  term,
					Context: "Found financial term: " + term,
					Note:    "Contains financial content",
				})
				break
			}
		}
	}
	return plan
}
