package constants

import (
	"strings"
)

// EditKind classifies a proposed document edit.
type EditKind string

const (
	EditReplace   EditKind = "replace"
	EditHighlight EditKind = "highlight"
)

var allEditKinds = []EditKind{
	EditReplace,
	EditHighlight,
}

// EditKindStrings returns the kinds as plain strings, e.g. for schema enums.
func EditKindStrings() []string {
	result := make([]string, len(allEditKinds))
	for i, k := range allEditKinds {
		result[i] = string(k)
	}
	return result
}

// CanonicalizeEditKind maps model output onto a known edit kind. The second
// return reports whether the input was recognized.
func CanonicalizeEditKind(input string) (EditKind, bool) {
	if input == "" {
		return EditReplace, false
	}

	normalized := strings.ToLower(strings.TrimSpace(input))

	// synonyms map
	synonyms := map[string]EditKind{
		"replacement":  EditReplace,
		"substitute":   EditReplace,
		"substitution": EditReplace,
		"change":       EditReplace,
		"rewrite":      EditReplace,
		"edit":         EditReplace,
		"mark":         EditHighlight,
		"marker":       EditHighlight,
		"emphasize":    EditHighlight,
		"emphasis":     EditHighlight,
		"annotate":     EditHighlight,
	}

	if kind, ok := synonyms[normalized]; ok {
		return kind, true
	}

	for _, kind := range allEditKinds {
		if normalized == string(kind) {
			return kind, true
		}
	}

	return EditReplace, false
}
