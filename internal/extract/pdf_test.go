package extract

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/joseph-ayodele/pdf-markup/internal/common"
)

func TestExtract_SinglePage(t *testing.T) {
	// WHAT: a one-page PDF with two lines yields two fragments in reading
	// order with page stats filled in.
	// WHY: everything downstream consumes this exact shape.
	data := buildTextPDF([][]string{{"Chapter 2: Background", "Some body text here"}})

	e := NewExtractor(DefaultConfig(), nil)
	doc, err := e.Extract(context.Background(), data)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}

	if len(doc.Pages) != 1 {
		t.Fatalf("pages = %d, want 1", len(doc.Pages))
	}
	frags := doc.Pages[0].Fragments
	if len(frags) != 2 {
		t.Fatalf("fragments = %d, want 2: %+v", len(frags), frags)
	}
	if frags[0].Text != "Chapter 2: Background" {
		t.Errorf("fragment 0 = %q", frags[0].Text)
	}
	if frags[1].Text != "Some body text here" {
		t.Errorf("fragment 1 = %q", frags[1].Text)
	}
	if frags[0].Box.Y0 <= frags[1].Box.Y0 {
		t.Error("fragments are not in top-to-bottom order")
	}
	if frags[0].Index != 0 || frags[1].Index != 1 {
		t.Errorf("indexes = %d,%d, want 0,1", frags[0].Index, frags[1].Index)
	}
	if doc.Stats.Pages != 1 || doc.Stats.Fragments != 2 {
		t.Errorf("stats = %+v", doc.Stats)
	}
	if doc.Stats.FileSize != int64(len(data)) {
		t.Errorf("file size = %d, want %d", doc.Stats.FileSize, len(data))
	}
}

func TestExtract_MultiPage(t *testing.T) {
	// WHAT: fragments carry their 1-based page number.
	// WHY: the locator tie-breaks by earliest page.
	data := buildTextPDF([][]string{
		{"First page text"},
		{"Second page text"},
	})

	e := NewExtractor(DefaultConfig(), nil)
	doc, err := e.Extract(context.Background(), data)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if len(doc.Pages) != 2 {
		t.Fatalf("pages = %d, want 2", len(doc.Pages))
	}
	if got := doc.Pages[0].Fragments[0].Page; got != 1 {
		t.Errorf("page number = %d, want 1", got)
	}
	if got := doc.Pages[1].Fragments[0].Page; got != 2 {
		t.Errorf("page number = %d, want 2", got)
	}
	if doc.Empty() {
		t.Error("document with text reports Empty")
	}
}

func TestExtract_NoText(t *testing.T) {
	// WHAT: a valid PDF with an empty content stream yields an empty
	// fragment list, not an error.
	// WHY: "no text" is a terminal state the pipeline reports as such.
	data := buildTextPDF([][]string{{}})

	e := NewExtractor(DefaultConfig(), nil)
	doc, err := e.Extract(context.Background(), data)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if !doc.Empty() {
		t.Error("expected Empty document")
	}
	if doc.Stats.Fragments != 0 || doc.Stats.Characters != 0 {
		t.Errorf("stats = %+v, want zero fragments and characters", doc.Stats)
	}
}

func TestExtract_InvalidBytes(t *testing.T) {
	// WHAT: garbage bytes produce an ExtractionError.
	// WHY: unreadable input aborts the run with a typed failure.
	e := NewExtractor(DefaultConfig(), nil)
	_, err := e.Extract(context.Background(), []byte("this is not a pdf"))
	if err == nil {
		t.Fatal("expected error")
	}
	var xerr *common.ExtractionError
	if !errors.As(err, &xerr) {
		t.Fatalf("error = %T %v, want ExtractionError", err, err)
	}
}

func TestExtract_MediaBox(t *testing.T) {
	// WHAT: the page MediaBox is recorded on the page.
	// WHY: highlight rectangles must stay within page bounds.
	data := buildTextPDF([][]string{{"content"}})

	e := NewExtractor(DefaultConfig(), nil)
	doc, err := e.Extract(context.Background(), data)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	mb := doc.Pages[0].MediaBox
	if mb.X1 != 612 || mb.Y1 != 792 {
		t.Errorf("media box = %+v, want 612x792", mb)
	}
}

// --- PDF test helpers ---

// buildTextPDF creates a valid PDF with proper xref offsets. Each outer
// slice entry is one page; each string is one line drawn top to bottom in
// 12pt Courier starting at (72,720). Courier is used so glyph widths (600
// per em) are declared and positions come back exact.
func buildTextPDF(pages [][]string) []byte {
	var widths strings.Builder
	for i := 32; i <= 126; i++ {
		if i > 32 {
			widths.WriteString(" ")
		}
		widths.WriteString("600")
	}

	numObjs := 3 + 2*len(pages) // catalog, pages, font + (page, content) each
	offsets := make([]int, numObjs+1)

	var kids strings.Builder
	for i := range pages {
		if i > 0 {
			kids.WriteString(" ")
		}
		fmt.Fprintf(&kids, "%d 0 R", 4+2*i)
	}

	var b strings.Builder
	b.WriteString("%PDF-1.4\n")

	offsets[1] = b.Len()
	b.WriteString("1 0 obj\n<< /Type /Catalog /Pages 2 0 R >>\nendobj\n")

	offsets[2] = b.Len()
	fmt.Fprintf(&b, "2 0 obj\n<< /Type /Pages /Kids [%s] /Count %d >>\nendobj\n", kids.String(), len(pages))

	offsets[3] = b.Len()
	fmt.Fprintf(&b, "3 0 obj\n<< /Type /Font /Subtype /Type1 /BaseFont /Courier /FirstChar 32 /LastChar 126 /Widths [%s] >>\nendobj\n", widths.String())

	for i, lines := range pages {
		pageObj := 4 + 2*i
		contentObj := pageObj + 1

		offsets[pageObj] = b.Len()
		fmt.Fprintf(&b, "%d 0 obj\n<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Contents %d 0 R /Resources << /Font << /F1 3 0 R >> >> >>\nendobj\n", pageObj, contentObj)

		stream := pageStream(lines)
		offsets[contentObj] = b.Len()
		fmt.Fprintf(&b, "%d 0 obj\n<< /Length %d >>\nstream\n%s\nendstream\nendobj\n", contentObj, len(stream), stream)
	}

	xrefOffset := b.Len()
	fmt.Fprintf(&b, "xref\n0 %d\n", numObjs+1)
	b.WriteString("0000000000 65535 f \n")
	for i := 1; i <= numObjs; i++ {
		fmt.Fprintf(&b, "%010d 00000 n \n", offsets[i])
	}
	fmt.Fprintf(&b, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", numObjs+1, xrefOffset)

	return []byte(b.String())
}

func pageStream(lines []string) string {
	if len(lines) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteString("BT\n/F1 12 Tf\n72 720 Td\n")
	for i, line := range lines {
		if i > 0 {
			sb.WriteString("0 -28 Td\n")
		}
		fmt.Fprintf(&sb, "(%s) Tj\n", escapePDFString(line))
	}
	sb.WriteString("ET")
	return sb.String()
}

func escapePDFString(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "(", `\(`)
	s = strings.ReplaceAll(s, ")", `\)`)
	return s
}
