package llm

import (
	"strings"

	"github.com/joseph-ayodele/pdf-markup/constants"
)

// BuildSystemPrompt composes the editor role, humanization guidelines, matching
// rules, and the strict JSON output contract.
func BuildSystemPrompt() string {
	parts := []string{
		"You are an expert content editor and humanization specialist.",
		"Analyze the original text and create natural, human-like modifications that improve readability, engagement, and clarity while keeping the original meaning and structure.",

		// Humanization guidance
		"Make content more conversational and engaging. Use natural, flowing language that sounds human-written. Keep a professional tone while being more approachable. Use active voice where appropriate and break up long sentences for better flow.",

		// Matching rules; the downstream locator needs verbatim targets.
		"For replacements, 'original_text' MUST be an exact copy-paste of text from the original, including punctuation.",
		"For highlighting, identify the sentence or phrase that matches the criteria and copy it exactly into 'text_to_highlight'.",
		"Always provide 'context' describing where the text appears.",
		"If the request concerns headings, look for patterns like 'Chapter X:' or 'Section X:'.",
		"If highlighting financial content, look for words like: financial, money, cost, budget, revenue, profit, investment.",
		"Only include modifications for text that actually exists in the original document.",

		// Output contract
		"Respond ONLY with valid JSON. No text before or after the JSON, no markdown code fences.",
		"Return a JSON object with this exact structure:",
		planShapeExample,
	}
	return strings.Join(parts, " ")
}

// BuildUserPrompt packages the document snapshot and the user's request. The
// snapshot is clipped so large documents do not blow the prompt budget.
func BuildUserPrompt(req PlanRequest) string {
	doc := strings.TrimSpace(req.DocumentText)

	var b strings.Builder
	b.WriteString("Original text:\n")
	if len(doc) > constants.MaxPromptDocChars {
		b.WriteString(doc[:constants.MaxPromptDocChars])
		b.WriteString("\n…(truncated)")
	} else {
		b.WriteString(doc)
	}
	b.WriteString("\n\nModification request: ")
	b.WriteString(strings.TrimSpace(req.Instruction))
	return b.String()
}

const planShapeExample = `{
  "modifications": [
    {
      "type": "replace",
      "original_text": "exact text from original",
      "new_text": "humanized replacement text",
      "context": "brief context about where this text appears",
      "humanization_note": "how this makes the text more human-like"
    },
    {
      "type": "highlight",
      "text_to_highlight": "text to highlight",
      "context": "brief context about where this text appears",
      "reason": "why this text should be highlighted"
    }
  ],
  "summary": "Brief summary of all modifications made",
  "humanization_approach": "Overall approach taken"
}`
