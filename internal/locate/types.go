package locate

import (
	"github.com/joseph-ayodele/pdf-markup/internal/extract"
	"github.com/joseph-ayodele/pdf-markup/internal/llm"
)

// Span is the raw byte range a match covers inside one fragment's text.
type Span struct {
	Fragment extract.Fragment
	Start    int
	End      int
}

// Text returns the exact document text the span covers.
func (s Span) Text() string {
	return s.Fragment.Text[s.Start:s.End]
}

// LocatedEdit binds one edit request to the place it applies. A match that
// crosses layout fragments carries one span per fragment, in reading order.
type LocatedEdit struct {
	Edit       llm.EditRequest
	Page       int
	Spans      []Span
	Confidence float64
}

// Miss records an edit whose target could not be found anywhere in the
// document. Misses are reported per edit; they never fail the batch.
type Miss struct {
	Edit   llm.EditRequest
	Reason string
	Best   float64 // best similarity seen while scanning, 0 if none
}
