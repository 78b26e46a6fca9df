package extract

import (
	"fmt"
	"strings"
)

// BBox is an axis-aligned box in PDF user space points, origin bottom-left.
type BBox struct {
	X0, Y0, X1, Y1 float64
}

func (b BBox) Width() float64 {
	return b.X1 - b.X0
}

func (b BBox) Height() float64 {
	return b.Y1 - b.Y0
}

// RGB is a fill color with components in [0,1].
type RGB struct {
	R, G, B float64
}

// Black is the assumed text color when the engine does not report one.
var Black = RGB{0, 0, 0}

// Fragment is a positioned run of text on one page. Fragments are immutable
// once produced and ordered top-to-bottom, left-to-right within their page.
type Fragment struct {
	Page  int // 1-based
	Index int // position within the page, reading order
	Text  string
	Box   BBox
	Font  string
	Size  float64
	Color RGB
}

// PageText holds one page worth of fragments in reading order.
type PageText struct {
	Number    int
	MediaBox  BBox
	Fragments []Fragment
}

// Stats summarizes an extraction for display and history.
type Stats struct {
	Pages          int   `json:"pages"`
	Fragments      int   `json:"fragments"`
	Characters     int   `json:"characters"`
	ImageOnlyPages int   `json:"image_only_pages"`
	FileSize       int64 `json:"file_size"`
}

// Document is the result of one extraction. An empty fragment list is a
// valid terminal state (image-only or blank documents), not an error.
type Document struct {
	Pages []PageText
	Stats Stats
}

// Empty reports whether the document yielded no text at all.
func (d *Document) Empty() bool {
	for _, p := range d.Pages {
		if len(p.Fragments) > 0 {
			return false
		}
	}
	return true
}

// Fragments returns every fragment in document order.
func (d *Document) Fragments() []Fragment {
	var out []Fragment
	for _, p := range d.Pages {
		out = append(out, p.Fragments...)
	}
	return out
}

// Text renders the whole document as prompt-ready text with page markers.
func (d *Document) Text() string {
	var sb strings.Builder
	for i, p := range d.Pages {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		fmt.Fprintf(&sb, "--- Page %d ---\n", p.Number)
		sb.WriteString(p.PageString())
	}
	return sb.String()
}

// PageString joins one page's fragments into display text.
func (p *PageText) PageString() string {
	var sb strings.Builder
	for i, f := range p.Fragments {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(f.Text)
	}
	return sb.String()
}
