// Package locate maps requested edits onto extracted document fragments.
// Matching is exact-first: a normalized substring hit is certainty, taken
// once per page and on every page it occurs. Only when no exact hit exists
// anywhere does fuzzy scoring run, and it accepts a single best window, and
// only above the configured threshold.
package locate

import (
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/joseph-ayodele/pdf-markup/constants"
	"github.com/joseph-ayodele/pdf-markup/internal/extract"
	"github.com/joseph-ayodele/pdf-markup/internal/llm"
)

type Config struct {
	// Threshold is the minimum similarity an inexact match must reach.
	Threshold float64
	// MaxWindow bounds how many adjacent fragments are joined when a target
	// spans layout runs.
	MaxWindow int
}

func DefaultConfig() Config {
	return Config{
		Threshold: constants.MatchThreshold,
		MaxWindow: constants.MaxWindowFragments,
	}
}

type Locator struct {
	cfg Config
	log *slog.Logger
}

func NewLocator(cfg Config, log *slog.Logger) *Locator {
	if cfg.Threshold <= 0 {
		cfg.Threshold = constants.MatchThreshold
	}
	if cfg.MaxWindow <= 0 {
		cfg.MaxWindow = constants.MaxWindowFragments
	}
	if log == nil {
		log = slog.Default()
	}
	return &Locator{cfg: cfg, log: log}
}

// LocateAll resolves every edit in the plan. Misses are collected, never
// raised; the returned edits keep plan order, then page order within an edit.
func (l *Locator) LocateAll(doc *extract.Document, edits []llm.EditRequest) ([]LocatedEdit, []Miss) {
	var located []LocatedEdit
	var misses []Miss
	for _, e := range edits {
		hits, miss := l.Locate(doc, e)
		if miss != nil {
			l.log.Info("locate.miss",
				"kind", e.Kind,
				"target_chars", len(e.Target),
				"best", miss.Best,
				"reason", miss.Reason)
			misses = append(misses, *miss)
			continue
		}
		located = append(located, hits...)
	}
	return located, misses
}

// Locate finds where one edit applies. Exact hits short-circuit the rest of
// their page but every page is scanned, so document-wide instructions reach
// all occurrences.
func (l *Locator) Locate(doc *extract.Document, edit llm.EditRequest) ([]LocatedEdit, *Miss) {
	target := normalize(edit.Target)
	if target.text == "" {
		return nil, &Miss{Edit: edit, Reason: "empty target"}
	}

	var located []LocatedEdit
	for pi := range doc.Pages {
		if hit, ok := l.exactOnPage(&doc.Pages[pi], target.text, edit); ok {
			located = append(located, hit)
		}
	}
	if len(located) > 0 {
		return located, nil
	}

	bestWin, best := l.bestFuzzy(doc, target.text)
	if best >= l.cfg.Threshold {
		return []LocatedEdit{{
			Edit:       edit,
			Page:       bestWin.frags[0].Page,
			Spans:      bestWin.spans(0, len(bestWin.text)),
			Confidence: best,
		}}, nil
	}
	return nil, &Miss{
		Edit:   edit,
		Reason: fmt.Sprintf("best similarity %.2f below threshold %.2f", best, l.cfg.Threshold),
		Best:   best,
	}
}

// exactOnPage returns the first normalized substring hit on the page, using
// the smallest window that contains the target.
func (l *Locator) exactOnPage(page *extract.PageText, target string, edit llm.EditRequest) (LocatedEdit, bool) {
	frags := page.Fragments
	norms := normalizeAll(frags)
	for i := range frags {
		limit := min(l.cfg.MaxWindow, len(frags)-i)
		for w := 1; w <= limit; w++ {
			win := newWindow(frags[i:i+w], norms[i:i+w])
			idx := strings.Index(win.text, target)
			if idx < 0 {
				continue
			}
			// A hit that starts past the first fragment belongs to a later,
			// narrower window.
			if w > 1 && idx >= len(win.pieces[0].text) {
				continue
			}
			return LocatedEdit{
				Edit:       edit,
				Page:       page.Number,
				Spans:      win.spans(idx, idx+len(target)),
				Confidence: 1.0,
			}, true
		}
	}
	return LocatedEdit{}, false
}

// bestFuzzy scores the target against every candidate window in the document
// and returns the best one. Strict improvement keeps the earliest page, then
// the earliest fragment, then the smallest window on ties, which makes
// repeated runs land on the same spot.
func (l *Locator) bestFuzzy(doc *extract.Document, target string) (window, float64) {
	dmp := diffmatchpatch.New()
	var bestWin window
	best := 0.0
	for pi := range doc.Pages {
		frags := doc.Pages[pi].Fragments
		norms := normalizeAll(frags)
		for i := range frags {
			limit := min(l.cfg.MaxWindow, len(frags)-i)
			for w := 1; w <= limit; w++ {
				win := newWindow(frags[i:i+w], norms[i:i+w])
				if score := similarity(dmp, target, win.text); score > best {
					best = score
					bestWin = win
				}
			}
		}
	}
	return bestWin, best
}

// similarity is 1 - levenshtein/longest over already-normalized strings.
func similarity(dmp *diffmatchpatch.DiffMatchPatch, a, b string) float64 {
	if a == b {
		return 1
	}
	if a == "" || b == "" {
		return 0
	}
	longest := utf8.RuneCountInString(a)
	if n := utf8.RuneCountInString(b); n > longest {
		longest = n
	}
	diffs := dmp.DiffMain(a, b, false)
	lev := dmp.DiffLevenshtein(diffs)
	return 1 - float64(lev)/float64(longest)
}

// window is one candidate run of adjacent fragments joined for matching.
type window struct {
	frags   []extract.Fragment
	pieces  []normText
	text    string // normalized pieces joined by single spaces
	offsets []int  // start of each piece within text
}

func newWindow(frags []extract.Fragment, pieces []normText) window {
	w := window{frags: frags, pieces: pieces}
	var b strings.Builder
	w.offsets = make([]int, len(pieces))
	for i, p := range pieces {
		if i > 0 && b.Len() > 0 && p.text != "" {
			b.WriteByte(' ')
		}
		w.offsets[i] = b.Len()
		b.WriteString(p.text)
	}
	w.text = b.String()
	return w
}

// spans maps a normalized range of the window back to raw per-fragment spans.
// Joiner spaces between fragments belong to no fragment and produce nothing.
func (w window) spans(p, q int) []Span {
	var out []Span
	for i, piece := range w.pieces {
		if piece.text == "" {
			continue
		}
		lo := w.offsets[i]
		hi := lo + len(piece.text)
		s := max(p, lo)
		e := min(q, hi)
		if s >= e {
			continue
		}
		rs, re := piece.rawRange(s-lo, e-lo)
		out = append(out, Span{Fragment: w.frags[i], Start: rs, End: re})
	}
	return out
}

func normalizeAll(frags []extract.Fragment) []normText {
	norms := make([]normText, len(frags))
	for i, f := range frags {
		norms[i] = normalize(f.Text)
	}
	return norms
}
