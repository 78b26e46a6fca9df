package mutate

import (
	"bytes"
	"fmt"
)

// literal is one (...) string in a content stream, decoded with per-byte
// provenance so a match in decoded text maps back to encoded byte ranges.
type literal struct {
	start    int // offset of '('
	end      int // offset just past ')'
	dec      []byte
	encStart []int // encoded offset of the bytes behind dec[i]
	encEnd   []int
	arrStart int // offset of the innermost '[' containing the literal, -1 if none
}

type opKind int

const (
	opOther opKind = iota // literal is not the operand of a text-showing op
	opTj
	opQuote // ' and " line-advancing show ops
	opTJ    // literal sits inside a [...] TJ array
)

type opInfo struct {
	kind  opKind
	opEnd int // offset just past the operator token
}

// showLiteral is a literal confirmed to be shown as text.
type showLiteral struct {
	literal
	op opInfo
}

// scanShowLiterals walks a decoded content stream and returns every string
// literal that a text-showing operator consumes, in stream order.
func scanShowLiterals(stream []byte) []showLiteral {
	lits := scanLiterals(stream)
	out := make([]showLiteral, 0, len(lits))
	for _, l := range lits {
		op := classify(stream, l)
		if op.kind == opOther {
			continue
		}
		out = append(out, showLiteral{literal: l, op: op})
	}
	return out
}

func scanLiterals(stream []byte) []literal {
	var lits []literal
	var arrStack []int
	i := 0
	for i < len(stream) {
		switch stream[i] {
		case '(':
			lit := parseLiteral(stream, i)
			lit.arrStart = -1
			if len(arrStack) > 0 {
				lit.arrStart = arrStack[len(arrStack)-1]
			}
			lits = append(lits, lit)
			i = lit.end
		case '[':
			arrStack = append(arrStack, i)
			i++
		case ']':
			if len(arrStack) > 0 {
				arrStack = arrStack[:len(arrStack)-1]
			}
			i++
		case '<':
			if i+1 < len(stream) && stream[i+1] == '<' {
				i += 2
				break
			}
			// hex string
			for i < len(stream) && stream[i] != '>' {
				i++
			}
			i++
		case '%':
			for i < len(stream) && stream[i] != '\n' {
				i++
			}
		default:
			i++
		}
	}
	return lits
}

// parseLiteral decodes one string literal starting at '(' per the PDF escape
// rules: named escapes, octal codes, line continuations, and balanced
// unescaped parentheses.
func parseLiteral(stream []byte, start int) literal {
	lit := literal{start: start}
	emit := func(b byte, from, to int) {
		lit.dec = append(lit.dec, b)
		lit.encStart = append(lit.encStart, from)
		lit.encEnd = append(lit.encEnd, to)
	}

	depth := 1
	i := start + 1
	for i < len(stream) {
		c := stream[i]
		if c == '\\' && i+1 < len(stream) {
			n := stream[i+1]
			switch {
			case n == 'n':
				emit('\n', i, i+2)
				i += 2
			case n == 'r':
				emit('\r', i, i+2)
				i += 2
			case n == 't':
				emit('\t', i, i+2)
				i += 2
			case n == 'b':
				emit('\b', i, i+2)
				i += 2
			case n == 'f':
				emit('\f', i, i+2)
				i += 2
			case n == '(' || n == ')' || n == '\\':
				emit(n, i, i+2)
				i += 2
			case n >= '0' && n <= '7':
				v := 0
				j := i + 1
				for j < len(stream) && j < i+4 && stream[j] >= '0' && stream[j] <= '7' {
					v = v*8 + int(stream[j]-'0')
					j++
				}
				emit(byte(v), i, j)
				i = j
			case n == '\n':
				i += 2
			case n == '\r':
				i += 2
				if i < len(stream) && stream[i] == '\n' {
					i++
				}
			default:
				emit(n, i, i+2)
				i += 2
			}
			continue
		}
		switch c {
		case '(':
			depth++
			emit(c, i, i+1)
			i++
		case ')':
			depth--
			if depth == 0 {
				lit.end = i + 1
				return lit
			}
			emit(c, i, i+1)
			i++
		default:
			emit(c, i, i+1)
			i++
		}
	}
	lit.end = len(stream)
	return lit
}

// classify decides which showing operator, if any, consumes the literal.
func classify(stream []byte, lit literal) opInfo {
	if lit.arrStart >= 0 {
		// Find the array's closing bracket, then the operator behind it.
		depth := 1
		i := lit.end
		for i < len(stream) && depth > 0 {
			switch stream[i] {
			case '[':
				depth++
				i++
			case ']':
				depth--
				i++
			case '(':
				l := parseLiteral(stream, i)
				i = l.end
			case '<':
				if i+1 < len(stream) && stream[i+1] == '<' {
					i += 2
					break
				}
				for i < len(stream) && stream[i] != '>' {
					i++
				}
				i++
			default:
				i++
			}
		}
		if depth != 0 {
			return opInfo{kind: opOther}
		}
		tok, tokEnd := nextToken(stream, i)
		if tok == "TJ" {
			return opInfo{kind: opTJ, opEnd: tokEnd}
		}
		return opInfo{kind: opOther}
	}

	tok, tokEnd := nextToken(stream, lit.end)
	switch tok {
	case "Tj":
		return opInfo{kind: opTj, opEnd: tokEnd}
	case "'", `"`:
		return opInfo{kind: opQuote, opEnd: tokEnd}
	}
	return opInfo{kind: opOther}
}

func nextToken(stream []byte, i int) (string, int) {
	for i < len(stream) && isWS(stream[i]) {
		i++
	}
	if i >= len(stream) {
		return "", i
	}
	if stream[i] == '\'' || stream[i] == '"' {
		return string(stream[i]), i + 1
	}
	start := i
	for i < len(stream) && !isWS(stream[i]) && !isDelim(stream[i]) {
		i++
	}
	return string(stream[start:i]), i
}

func isWS(c byte) bool {
	switch c {
	case 0, '\t', '\n', '\f', '\r', ' ':
		return true
	}
	return false
}

func isDelim(c byte) bool {
	switch c {
	case '(', ')', '<', '>', '[', ']', '{', '}', '/', '%':
		return true
	}
	return false
}

// encRange maps a decoded byte range [p, q) to the encoded range behind it.
func (l *literal) encRange(p, q int) (int, int) {
	return l.encStart[p], l.encEnd[q-1]
}

// escapeLiteral encodes replacement text for use inside a string literal.
func escapeLiteral(s string) []byte {
	var b []byte
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch c {
		case '(', ')', '\\':
			b = append(b, '\\', c)
		case '\n':
			b = append(b, '\\', 'n')
		case '\r':
			b = append(b, '\\', 'r')
		case '\t':
			b = append(b, '\\', 't')
		default:
			b = append(b, c)
		}
	}
	return b
}

// splice is one pending byte-range substitution in a stream.
type splice struct {
	start, end int
	repl       []byte
}

// applySplices rewrites the stream, highest offset first so earlier ranges
// stay valid.
func applySplices(stream []byte, splices []splice) []byte {
	for i := len(splices) - 1; i >= 0; i-- {
		s := splices[i]
		out := make([]byte, 0, len(stream)-(s.end-s.start)+len(s.repl))
		out = append(out, stream[:s.start]...)
		out = append(out, s.repl...)
		out = append(out, stream[s.end:]...)
		stream = out
	}
	return stream
}

// tjScaledShow renders the three-part construct replacing a whole (...) Tj op
// when the replacement needs horizontal scaling: unscaled prefix, scaled
// replacement, unscaled suffix. Tz state is restored afterwards.
func tjScaledShow(prefix, suffix []byte, replacement string, scalePct int) []byte {
	var b bytes.Buffer
	if len(prefix) > 0 {
		b.WriteByte('(')
		b.Write(escapeLiteral(string(prefix)))
		b.WriteString(") Tj ")
	}
	fmt.Fprintf(&b, "%d Tz (", scalePct)
	b.Write(escapeLiteral(replacement))
	b.WriteString(") Tj 100 Tz")
	if len(suffix) > 0 {
		b.WriteString(" (")
		b.Write(escapeLiteral(string(suffix)))
		b.WriteString(") Tj")
	}
	return b.Bytes()
}
