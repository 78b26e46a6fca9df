package mutate

import (
	"unicode/utf8"
)

// matchPiece is the part of a match that falls inside one literal.
type matchPiece struct {
	lit      *showLiteral
	decStart int
	decEnd   int
}

// findMatch locates target in the shown text of a stream. A match may cross
// literal boundaries, and a boundary may absorb one space of the target; that
// is how word gaps encoded as positioning moves line back up with the
// space-joined text the extractor produced.
func findMatch(lits []showLiteral, target string) ([]matchPiece, bool) {
	t := []byte(target)
	if len(t) == 0 {
		return nil, false
	}
	for k := range lits {
		for o := 0; o < len(lits[k].dec); o++ {
			if pieces, ok := alignFrom(lits, k, o, t, 0); ok {
				return pieces, true
			}
		}
	}
	return nil, false
}

// alignFrom matches target[ti:] starting at byte pos of literal li. At a
// literal boundary it first tries to continue verbatim, then retries after
// absorbing a single space, so both space-in-literal and space-by-positioning
// encodings match.
func alignFrom(lits []showLiteral, li, pos int, target []byte, ti int) ([]matchPiece, bool) {
	dec := lits[li].dec
	pieceStart := pos
	for pos < len(dec) && ti < len(target) {
		if dec[pos] != target[ti] {
			return nil, false
		}
		pos++
		ti++
	}

	withHead := func(rest []matchPiece) []matchPiece {
		if pos == pieceStart {
			return rest
		}
		head := matchPiece{lit: &lits[li], decStart: pieceStart, decEnd: pos}
		return append([]matchPiece{head}, rest...)
	}

	if ti == len(target) {
		return withHead(nil), true
	}
	if li+1 >= len(lits) {
		return nil, false
	}
	if rest, ok := alignFrom(lits, li+1, 0, target, ti); ok {
		return withHead(rest), true
	}
	if target[ti] == ' ' {
		if ti+1 == len(target) {
			return withHead(nil), true
		}
		if rest, ok := alignFrom(lits, li+1, 0, target, ti+1); ok {
			return withHead(rest), true
		}
	}
	return nil, false
}

// buildReplaceSplices turns a match into byte substitutions. The first piece
// receives the replacement, any later pieces are blanked; when the
// replacement is wider than the target the first piece's whole Tj op is
// rebuilt with horizontal scaling.
func buildReplaceSplices(pieces []matchPiece, replacement string, scalePct int) ([]splice, string) {
	first := pieces[0]
	var splices []splice
	if scalePct < 100 {
		if first.lit.op.kind != opTj {
			return nil, "replacement needs scaling outside a plain Tj operator"
		}
		splices = append(splices, splice{
			start: first.lit.start,
			end:   first.lit.op.opEnd,
			repl: tjScaledShow(
				first.lit.dec[:first.decStart],
				first.lit.dec[first.decEnd:],
				replacement,
				scalePct,
			),
		})
	} else {
		s, e := first.lit.encRange(first.decStart, first.decEnd)
		splices = append(splices, splice{start: s, end: e, repl: escapeLiteral(replacement)})
	}
	for i := range pieces[1:] {
		p := pieces[1+i]
		s, e := p.lit.encRange(p.decStart, p.decEnd)
		splices = append(splices, splice{start: s, end: e})
	}
	return splices, ""
}

// applyReplace rewrites the first stream in which the target is addressable
// and returns that stream's index. A negative index carries the reason no
// stream could take the edit.
func (m *Mutator) applyReplace(contents [][]byte, target, replacement string) (int, string) {
	scale := m.scalePct(target, replacement)
	for si, content := range contents {
		lits := scanShowLiterals(content)
		pieces, ok := findMatch(lits, target)
		if !ok {
			continue
		}
		splices, reason := buildReplaceSplices(pieces, replacement, scale)
		if reason != "" {
			return -1, reason
		}
		contents[si] = applySplices(content, splices)
		return si, ""
	}
	return -1, "target text not addressable in content streams"
}

// scalePct computes the horizontal scaling for a replacement, by rune count
// against the text it replaces. 100 means no scaling; the configured floor
// bounds how far text is compressed.
func (m *Mutator) scalePct(target, replacement string) int {
	oldN := utf8.RuneCountInString(target)
	newN := utf8.RuneCountInString(replacement)
	if newN <= oldN || newN == 0 {
		return 100
	}
	s := oldN * 100 / newN
	if s < m.cfg.MinScalePct {
		return m.cfg.MinScalePct
	}
	return s
}
