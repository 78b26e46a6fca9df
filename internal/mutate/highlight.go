package mutate

import (
	"bytes"
	"fmt"

	"github.com/joseph-ayodele/pdf-markup/internal/extract"
	"github.com/joseph-ayodele/pdf-markup/internal/locate"
)

type rect struct {
	x, y, w, h float64
}

// spanRect clips a fragment's box to the matched portion of its text,
// byte-proportionally. Glyph-exact clipping would need per-glyph widths the
// fragments no longer carry; proportional clipping is deterministic and close
// for running text.
func spanRect(s locate.Span) rect {
	box := s.Fragment.Box
	n := len(s.Fragment.Text)
	if n == 0 || (s.Start == 0 && s.End == n) {
		return rect{x: box.X0, y: box.Y0, w: box.Width(), h: box.Height()}
	}
	x0 := box.X0 + box.Width()*float64(s.Start)/float64(n)
	x1 := box.X0 + box.Width()*float64(s.End)/float64(n)
	return rect{x: x0, y: box.Y0, w: x1 - x0, h: box.Height()}
}

// highlightBlock renders one edit's rectangles as a painting group. The block
// is prepended to the page's first content stream, so it paints underneath
// the existing text rather than over it.
func highlightBlock(color extract.RGB, rects []rect) []byte {
	var b bytes.Buffer
	b.WriteString("q\n")
	fmt.Fprintf(&b, "%.3f %.3f %.3f rg\n", color.R, color.G, color.B)
	for _, r := range rects {
		fmt.Fprintf(&b, "%.2f %.2f %.2f %.2f re f\n", r.x, r.y, r.w, r.h)
	}
	b.WriteString("Q\n")
	return b.Bytes()
}
