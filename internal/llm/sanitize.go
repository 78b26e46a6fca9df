package llm

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/joseph-ayodele/pdf-markup/constants"
)

// NormalizeAndSanitizePlan decodes a model reply leniently:
// - Canonicalizes the entry type through known synonyms (replacement -> replace)
// - Tolerates alternate key spellings (old_text -> original_text)
// - Coerces stray scalars to strings
// - Drops entries that cannot be coerced into a usable edit
// A bad entry never fails its siblings; every drop is recorded.
func NormalizeAndSanitizePlan(raw []byte, logger *slog.Logger) (*EditPlan, []string, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, nil, fmt.Errorf("sanitize: decode: %w", err)
	}

	plan := &EditPlan{}
	dropped := make([]string, 0, 4)

	plan.Summary, _ = pickString(m, "summary")
	plan.Approach, _ = pickString(m, "humanization_approach", "approach")

	entries := pickEntries(m)
	for i, e := range entries {
		entry, ok := e.(map[string]any)
		if !ok {
			dropped = append(dropped, entryReason(i, "not an object"))
			continue
		}
		edit, reason := sanitizeEntry(entry)
		if reason != "" {
			dropped = append(dropped, entryReason(i, reason))
			continue
		}
		plan.Edits = append(plan.Edits, edit)
	}

	if len(dropped) > 0 {
		logger.Warn("llm.plan.normalize_sanitize", "dropped", dropped)
	}
	return plan, dropped, nil
}

// sanitizeEntry coerces one modification object into an EditRequest. A
// non-empty reason means the entry is unusable and should be dropped.
func sanitizeEntry(entry map[string]any) (EditRequest, string) {
	var edit EditRequest

	kind, ok := resolveKind(entry)
	if !ok {
		s, _ := pickString(entry, "type", "kind", "action", "operation")
		return edit, "unrecognized type " + quoteOrNone(s)
	}
	edit.Kind = kind
	edit.Context, _ = pickString(entry, "context")
	edit.Note, _ = pickString(entry, "humanization_note", "reason", "note")

	switch kind {
	case constants.EditReplace:
		target, _ := pickString(entry, "original_text", "old_text", "original", "target", "find", "text")
		if target == "" {
			return edit, "original_text missing"
		}
		replacement, found := pickString(entry, "new_text", "replacement", "replacement_text", "new", "updated_text")
		if !found {
			return edit, "new_text missing"
		}
		edit.Target = target
		// An empty replacement is a deletion, which is a legitimate edit.
		edit.Replacement = replacement

	case constants.EditHighlight:
		target, _ := pickString(entry, "text_to_highlight", "highlight_text", "text", "target", "original_text")
		if target == "" {
			return edit, "text_to_highlight missing"
		}
		edit.Target = target
	}
	return edit, ""
}

// resolveKind canonicalizes the declared type, or infers one from the fields
// present when the model omitted it.
func resolveKind(entry map[string]any) (constants.EditKind, bool) {
	if s, found := pickString(entry, "type", "kind", "action", "operation"); found {
		return constants.CanonicalizeEditKind(s)
	}
	if s, _ := pickString(entry, "text_to_highlight", "highlight_text"); s != "" {
		return constants.EditHighlight, true
	}
	if s, _ := pickString(entry, "original_text", "old_text"); s != "" {
		if _, found := pickString(entry, "new_text", "replacement", "replacement_text"); found {
			return constants.EditReplace, true
		}
	}
	return "", false
}

// pickEntries returns the modifications array under its canonical or synonym keys.
func pickEntries(m map[string]any) []any {
	for _, key := range []string{"modifications", "edits", "changes"} {
		if v, ok := m[key]; ok {
			if arr, ok := v.([]any); ok {
				return arr
			}
		}
	}
	return nil
}

// pickString returns the first present key as a trimmed string. Scalars are
// coerced; found reports key presence even when the value trims to empty.
func pickString(m map[string]any, keys ...string) (string, bool) {
	for _, k := range keys {
		v, ok := m[k]
		if !ok {
			continue
		}
		switch t := v.(type) {
		case string:
			return strings.TrimSpace(t), true
		case float64:
			return trimFloat(t), true
		case bool:
			return fmt.Sprintf("%t", t), true
		case nil:
			return "", true
		}
	}
	return "", false
}

func trimFloat(f float64) string {
	s := fmt.Sprintf("%f", f)
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}

func entryReason(i int, reason string) string {
	return fmt.Sprintf("modifications[%d]: %s", i, reason)
}

func quoteOrNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return fmt.Sprintf("%q", s)
}
