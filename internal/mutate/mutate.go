// Package mutate rewrites PDF bytes to carry out located edits. Replacements
// are spliced into the page content streams so the surrounding layout, font
// and color survive untouched; highlights are painted as rectangles beneath
// the text. Edits that cannot be applied are reported per edit, and a run
// that applies nothing returns the input bytes unchanged.
package mutate

import (
	"bytes"
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"github.com/joseph-ayodele/pdf-markup/constants"
	"github.com/joseph-ayodele/pdf-markup/internal/common"
	"github.com/joseph-ayodele/pdf-markup/internal/llm"
	"github.com/joseph-ayodele/pdf-markup/internal/locate"
)

// Apply carries out the edits against data and returns the rewritten file.
// On a MutationError the original bytes come back, never a partial write.
func (m *Mutator) Apply(data []byte, edits []locate.LocatedEdit) ([]byte, *Result, error) {
	res := &Result{}
	if len(edits) == 0 {
		return data, res, nil
	}
	start := time.Now()

	pdfCtx, err := api.ReadValidateAndOptimize(bytes.NewReader(data), model.NewDefaultConfiguration())
	if err != nil {
		return data, res, &common.MutationError{Cause: err}
	}

	byPage := make(map[int][]locate.LocatedEdit)
	for _, e := range edits {
		byPage[e.Page] = append(byPage[e.Page], e)
	}
	for _, p := range slices.Sorted(maps.Keys(byPage)) {
		if p < 1 || p > pdfCtx.PageCount {
			m.skipAll(res, byPage[p], fmt.Sprintf("page %d outside document", p))
			continue
		}
		m.applyPage(pdfCtx, p, byPage[p], res)
	}

	if res.Applied == 0 {
		m.logDone(start, len(edits), res, len(data))
		return data, res, nil
	}

	var buf bytes.Buffer
	if err := api.WriteContext(pdfCtx, &buf); err != nil {
		return data, res, &common.MutationError{Cause: err}
	}
	m.logDone(start, len(edits), res, buf.Len())
	return buf.Bytes(), res, nil
}

func (m *Mutator) applyPage(pdfCtx *model.Context, pageNr int, edits []locate.LocatedEdit, res *Result) {
	refs, err := contentRefs(pdfCtx, pageNr)
	if err != nil || len(refs) == 0 {
		m.skipAll(res, edits, "page has no content stream")
		return
	}

	sds := make([]*types.StreamDict, len(refs))
	contents := make([][]byte, len(refs))
	for i, ref := range refs {
		sd, err := loadStream(pdfCtx, ref)
		if err != nil {
			m.skipAll(res, edits, "content stream unreadable")
			return
		}
		sds[i] = sd
		contents[i] = sd.Content
	}

	dirty := make([]bool, len(refs))
	var hl bytes.Buffer
	for _, e := range edits {
		switch e.Edit.Kind {
		case constants.EditHighlight:
			rects := make([]rect, 0, len(e.Spans))
			for _, s := range e.Spans {
				rects = append(rects, spanRect(s))
			}
			hl.Write(highlightBlock(m.cfg.HighlightColor, rects))
			res.Applied++
		default:
			si, reason := m.applyReplace(contents, matchTarget(e.Spans), e.Edit.Replacement)
			if si < 0 {
				m.skip(res, e.Edit, pageNr, reason)
				continue
			}
			dirty[si] = true
			res.Applied++
		}
	}
	if hl.Len() > 0 {
		contents[0] = append(hl.Bytes(), contents[0]...)
		dirty[0] = true
	}

	for i := range refs {
		if dirty[i] {
			storeStream(pdfCtx, refs[i], sds[i], contents[i])
		}
	}
}

// matchTarget renders the located spans as the raw text the content streams
// should carry, word gaps joined by single spaces.
func matchTarget(spans []locate.Span) string {
	parts := make([]string, 0, len(spans))
	for _, s := range spans {
		parts = append(parts, s.Text())
	}
	return strings.Join(parts, " ")
}

func (m *Mutator) skip(res *Result, edit llm.EditRequest, page int, reason string) {
	m.log.Warn("mutate.skip", "kind", edit.Kind, "page", page, "reason", reason)
	res.Skipped = append(res.Skipped, Skipped{Edit: edit, Page: page, Reason: reason})
}

func (m *Mutator) skipAll(res *Result, edits []locate.LocatedEdit, reason string) {
	for _, e := range edits {
		m.skip(res, e.Edit, e.Page, reason)
	}
}

func (m *Mutator) logDone(start time.Time, edits int, res *Result, outBytes int) {
	m.log.Info("mutate.done",
		"edits", edits,
		"applied", res.Applied,
		"skipped", len(res.Skipped),
		"bytes", outBytes,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
}
