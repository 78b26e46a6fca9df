package extract

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"time"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"

	"github.com/joseph-ayodele/pdf-markup/internal/common"
)

// Config tunes how raw text runs are grouped into fragments.
type Config struct {
	// RowTolerance is the Y distance, in points, within which runs are
	// considered part of the same visual line.
	RowTolerance float64
	// WordGapFactor is the fraction of the font size beyond which a gap
	// between runs reads as a word boundary.
	WordGapFactor float64
	// SegmentGapThreshold is the gap, in points, beyond which a row splits
	// into separate fragments.
	SegmentGapThreshold float64
}

// DefaultConfig returns the grouping defaults.
func DefaultConfig() Config {
	return Config{
		RowTolerance:        3.0,
		WordGapFactor:       0.3,
		SegmentGapThreshold: 30.0,
	}
}

// Extractor reads positioned text fragments out of PDF bytes.
type Extractor struct {
	cfg Config
	log *slog.Logger
}

// NewExtractor builds an Extractor; zero config fields fall back to the
// defaults.
func NewExtractor(cfg Config, log *slog.Logger) *Extractor {
	def := DefaultConfig()
	if cfg.RowTolerance <= 0 {
		cfg.RowTolerance = def.RowTolerance
	}
	if cfg.WordGapFactor <= 0 {
		cfg.WordGapFactor = def.WordGapFactor
	}
	if cfg.SegmentGapThreshold <= 0 {
		cfg.SegmentGapThreshold = def.SegmentGapThreshold
	}
	if log == nil {
		log = slog.Default()
	}
	return &Extractor{cfg: cfg, log: log}
}

// Extract parses the document and returns its fragments in reading order.
// Invalid or unreadable bytes yield an ExtractionError; a document with no
// extractable text yields an empty (but valid) Document.
func (e *Extractor) Extract(ctx context.Context, data []byte) (*Document, error) {
	start := time.Now()

	info, err := inspect(data)
	if err != nil {
		return nil, &common.ExtractionError{Cause: err}
	}

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, &common.ExtractionError{Cause: err}
	}

	doc := &Document{}
	characters := 0
	fragments := 0

	for pageNr := 1; pageNr <= r.NumPage(); pageNr++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		p := r.Page(pageNr)
		pt := PageText{Number: pageNr, MediaBox: mediaBox(p)}
		if p.V.IsNull() {
			doc.Pages = append(doc.Pages, pt)
			continue
		}

		content, err := pageContent(p)
		if err != nil {
			e.log.Warn("extract.page.unreadable", "page", pageNr, "error", err)
			doc.Pages = append(doc.Pages, pt)
			continue
		}

		texts := filterTexts(content.Text)
		idx := 0
		for _, row := range e.groupIntoRows(texts) {
			for _, f := range e.rowToFragments(pageNr, row) {
				if f.Text == "" {
					continue
				}
				f.Index = idx
				idx++
				characters += utf8.RuneCountInString(f.Text)
				pt.Fragments = append(pt.Fragments, f)
			}
		}
		fragments += len(pt.Fragments)
		doc.Pages = append(doc.Pages, pt)
	}

	imageOnly := 0
	for _, p := range doc.Pages {
		if len(p.Fragments) == 0 && info.imagePages[p.Number] {
			imageOnly++
		}
	}

	doc.Stats = Stats{
		Pages:          len(doc.Pages),
		Fragments:      fragments,
		Characters:     characters,
		ImageOnlyPages: imageOnly,
		FileSize:       int64(len(data)),
	}

	e.log.Info("extract.done",
		"pages", doc.Stats.Pages,
		"fragments", doc.Stats.Fragments,
		"characters", doc.Stats.Characters,
		"image_only_pages", doc.Stats.ImageOnlyPages,
		"elapsed_ms", time.Since(start).Milliseconds())

	return doc, nil
}

// pageContent shields callers from parser panics on malformed font tables.
func pageContent(p pdf.Page) (c pdf.Content, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("reading page content: %v", r)
		}
	}()
	return p.Content(), nil
}

// mediaBox resolves the page's MediaBox, walking up the page tree for
// inherited values. Letter size is assumed when nothing is declared.
func mediaBox(p pdf.Page) BBox {
	v := p.V
	for !v.IsNull() {
		if mb := v.Key("MediaBox"); !mb.IsNull() && mb.Len() == 4 {
			return BBox{
				X0: mb.Index(0).Float64(),
				Y0: mb.Index(1).Float64(),
				X1: mb.Index(2).Float64(),
				Y1: mb.Index(3).Float64(),
			}
		}
		v = v.Key("Parent")
	}
	return BBox{X0: 0, Y0: 0, X1: 612, Y1: 792}
}
