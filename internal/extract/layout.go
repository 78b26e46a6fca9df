package extract

import (
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/joseph-ayodele/pdf-markup/constants"
)

// Fragment boxes are derived from the baseline the engine reports; ascent
// and descent are approximated as fractions of the font size.
const (
	ascentFactor  = 0.88
	descentFactor = 0.24
)

// groupIntoRows buckets raw text runs by Y coordinate so runs on the same
// visual line end up together. Rows come back top-to-bottom (higher Y
// first).
func (e *Extractor) groupIntoRows(texts []pdf.Text) [][]pdf.Text {
	if len(texts) == 0 {
		return nil
	}

	type rowBucket struct {
		yMin, yMax float64
		texts      []pdf.Text
	}

	var buckets []rowBucket

	for _, t := range texts {
		found := false
		for i := range buckets {
			if t.Y >= buckets[i].yMin-e.cfg.RowTolerance && t.Y <= buckets[i].yMax+e.cfg.RowTolerance {
				buckets[i].texts = append(buckets[i].texts, t)
				if t.Y < buckets[i].yMin {
					buckets[i].yMin = t.Y
				}
				if t.Y > buckets[i].yMax {
					buckets[i].yMax = t.Y
				}
				found = true
				break
			}
		}
		if !found {
			buckets = append(buckets, rowBucket{yMin: t.Y, yMax: t.Y, texts: []pdf.Text{t}})
		}
	}

	sort.Slice(buckets, func(i, j int) bool {
		return buckets[i].yMax > buckets[j].yMax
	})

	rows := make([][]pdf.Text, len(buckets))
	for i, bucket := range buckets {
		rows[i] = bucket.texts
	}

	return rows
}

// rowToFragments merges a row's runs, sorted by X, into fragments. A gap
// wider than WordGapFactor times the font size reads as a word boundary and
// contributes a space; a gap wider than SegmentGapThreshold points splits
// the row into separate fragments (columns, tab stops).
func (e *Extractor) rowToFragments(page int, row []pdf.Text) []Fragment {
	if len(row) == 0 {
		return nil
	}

	sort.SliceStable(row, func(i, j int) bool {
		return row[i].X < row[j].X
	})

	var frags []Fragment
	var cur *fragmentBuilder

	for _, t := range row {
		if cur == nil {
			cur = newFragmentBuilder(t)
			continue
		}

		gap := t.X - cur.endX
		size := cur.size
		if size <= 0 {
			size = constants.DefaultFontSize
		}

		if gap > e.cfg.SegmentGapThreshold {
			frags = append(frags, cur.build(page))
			cur = newFragmentBuilder(t)
			continue
		}
		if gap > e.cfg.WordGapFactor*size && !strings.HasSuffix(cur.text.String(), " ") {
			cur.text.WriteString(" ")
		}
		cur.add(t)
	}
	if cur != nil {
		frags = append(frags, cur.build(page))
	}

	return frags
}

type fragmentBuilder struct {
	text      strings.Builder
	x0, endX  float64
	baselineY float64
	font      string
	size      float64
}

func newFragmentBuilder(t pdf.Text) *fragmentBuilder {
	fb := &fragmentBuilder{
		x0:        t.X,
		endX:      t.X + t.W,
		baselineY: t.Y,
		font:      t.Font,
		size:      t.FontSize,
	}
	fb.text.WriteString(t.S)
	return fb
}

func (fb *fragmentBuilder) add(t pdf.Text) {
	fb.text.WriteString(t.S)
	if end := t.X + t.W; end > fb.endX {
		fb.endX = end
	}
	if t.Y < fb.baselineY {
		fb.baselineY = t.Y
	}
	if fb.font == "" {
		fb.font = t.Font
	}
	if t.FontSize > fb.size {
		fb.size = t.FontSize
	}
}

func (fb *fragmentBuilder) build(page int) Fragment {
	size := fb.size
	if size <= 0 {
		size = constants.DefaultFontSize
	}
	return Fragment{
		Page: page,
		Text: strings.TrimSpace(fb.text.String()),
		Box: BBox{
			X0: fb.x0,
			Y0: fb.baselineY - descentFactor*size,
			X1: fb.endX,
			Y1: fb.baselineY + ascentFactor*size,
		},
		Font:  fb.font,
		Size:  size,
		Color: Black,
	}
}

// filterTexts removes empty and whitespace-only runs.
func filterTexts(texts []pdf.Text) []pdf.Text {
	filtered := make([]pdf.Text, 0, len(texts))
	for _, t := range texts {
		if strings.TrimSpace(t.S) != "" {
			filtered = append(filtered, t)
		}
	}
	return filtered
}
