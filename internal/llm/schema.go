package llm

import (
	"github.com/joseph-ayodele/pdf-markup/constants"
)

// BuildPlanJSONSchema returns a JSON-Schema (draft 2020-12 subset) as a generic
// map. We use it locally to decide whether a model reply can be decoded
// strictly or needs the lenient path.
func BuildPlanJSONSchema() map[string]any {
	modification := map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"type":              map[string]any{"type": "string", "enum": constants.EditKindStrings()},
			"original_text":     map[string]any{"type": "string"},
			"new_text":          map[string]any{"type": "string"},
			"text_to_highlight": map[string]any{"type": "string"},
			"context":           map[string]any{"type": "string"},
			"reason":            map[string]any{"type": "string"},
			"humanization_note": map[string]any{"type": "string"},
		},
		// Per-kind field requirements are enforced during sanitization, where a
		// bad entry can be dropped without failing its siblings.
		"required": []string{"type"},
	}

	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"modifications": map[string]any{
				"type":  "array",
				"items": modification,
			},
			"summary":               map[string]any{"type": "string"},
			"humanization_approach": map[string]any{"type": "string"},
		},
		"required": []string{"modifications"},
	}
}
