package locate

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// minorPunct are characters ignored during matching. Model-quoted targets
// routinely differ from the document in exactly these.
const minorPunct = ".,;:!?'\"`‘’“”"

func isMinorPunct(r rune) bool {
	return strings.ContainsRune(minorPunct, r)
}

// normText is a matching-normalized string that remembers, per normalized
// byte, which raw bytes produced it. Matches found in the normalized text are
// mapped back to raw spans so the mutator replaces exactly what is on the
// page, original casing and punctuation included.
type normText struct {
	text     string
	srcStart []int // raw byte offset of the rune behind normalized byte i
	srcEnd   []int // raw byte offset just past that rune
}

// normalize casefolds, collapses whitespace runs to single spaces, trims the
// ends, and drops minor punctuation, keeping the byte provenance of
// everything it emits.
func normalize(s string) normText {
	var b strings.Builder
	starts := make([]int, 0, len(s))
	ends := make([]int, 0, len(s))

	pendingSpace := false
	spaceSrc := 0
	for i, r := range s {
		size := utf8.RuneLen(r)
		switch {
		case unicode.IsSpace(r):
			if b.Len() > 0 && !pendingSpace {
				pendingSpace = true
				spaceSrc = i
			}
		case isMinorPunct(r):
			// dropped
		default:
			if pendingSpace {
				b.WriteByte(' ')
				starts = append(starts, spaceSrc)
				ends = append(ends, spaceSrc+1)
				pendingSpace = false
			}
			from := b.Len()
			b.WriteRune(unicode.ToLower(r))
			for j := from; j < b.Len(); j++ {
				starts = append(starts, i)
				ends = append(ends, i+size)
			}
		}
	}
	return normText{text: b.String(), srcStart: starts, srcEnd: ends}
}

// rawRange maps a normalized byte range [p, q) back to the raw byte range
// that produced it.
func (n normText) rawRange(p, q int) (int, int) {
	if p >= q || p < 0 || q > len(n.text) {
		return 0, 0
	}
	return n.srcStart[p], n.srcEnd[q-1]
}
