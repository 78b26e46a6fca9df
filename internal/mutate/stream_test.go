package mutate

import (
	"bytes"
	"strings"
	"testing"
)

func TestScanShowLiterals_Classification(t *testing.T) {
	// WHAT: only literals consumed by text-showing ops are returned, each
	// tagged with its operator kind.
	// WHY: splicing a non-show literal would corrupt the page.
	stream := []byte("BT /F1 12 Tf (plain) Tj 0 -14 Td (quoted) ' [(a) -120 (b)] TJ ET 10 10 100 20 re f")

	lits := scanShowLiterals(stream)
	if len(lits) != 4 {
		t.Fatalf("literals = %d, want 4: %+v", len(lits), lits)
	}
	wantText := []string{"plain", "quoted", "a", "b"}
	wantKind := []opKind{opTj, opQuote, opTJ, opTJ}
	for i, l := range lits {
		if string(l.dec) != wantText[i] {
			t.Errorf("literal %d text = %q, want %q", i, l.dec, wantText[i])
		}
		if l.op.kind != wantKind[i] {
			t.Errorf("literal %d kind = %d, want %d", i, l.op.kind, wantKind[i])
		}
	}
}

func TestScanShowLiterals_SkipsNonShowContexts(t *testing.T) {
	// WHAT: literals inside comments and dicts, and literals followed by
	// non-show operators, are ignored.
	stream := []byte("% (comment) Tj\nBT (shown) Tj ET (positioned) Td <6869> Tj")

	lits := scanShowLiterals(stream)
	if len(lits) != 1 || string(lits[0].dec) != "shown" {
		t.Fatalf("literals = %+v, want only the shown one", lits)
	}
}

func TestParseLiteral_Escapes(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"escaped parens", `(a\(b\))`, "a(b)"},
		{"named escapes", `(tab\there)`, "tab\there"},
		{"octal", `(oct\101l)`, "octAl"},
		{"short octal", `(bell\7x)`, "bell\x07x"},
		{"line continuation", "(line\\\ncont)", "linecont"},
		{"balanced nested parens", `(nested (paren) ok)`, "nested (paren) ok"},
		{"backslash literal", `(back\\slash)`, `back\slash`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lit := parseLiteral([]byte(tt.in), 0)
			if string(lit.dec) != tt.want {
				t.Errorf("dec = %q, want %q", lit.dec, tt.want)
			}
			if lit.end != len(tt.in) {
				t.Errorf("end = %d, want %d", lit.end, len(tt.in))
			}
		})
	}
}

func TestLiteral_EncRangeMapsThroughEscapes(t *testing.T) {
	// WHAT: a decoded range maps back to the encoded bytes behind it, multi
	// byte escapes included.
	// WHY: splices cut encoded bytes, matches are found in decoded text.
	lit := parseLiteral([]byte(`(x\(y)`), 0)
	if string(lit.dec) != "x(y" {
		t.Fatalf("dec = %q", lit.dec)
	}
	s, e := lit.encRange(1, 2)
	if s != 2 || e != 4 {
		t.Errorf("encRange(1,2) = (%d,%d), want (2,4) covering the escape", s, e)
	}
	s, e = lit.encRange(0, 3)
	if s != 1 || e != 5 {
		t.Errorf("encRange(0,3) = (%d,%d), want (1,5)", s, e)
	}
}

func TestApplySplices(t *testing.T) {
	// WHAT: splices listed in ascending order are applied without
	// invalidating each other's offsets.
	stream := []byte("hello cruel world")
	out := applySplices(stream, []splice{
		{start: 0, end: 5, repl: []byte("goodbye")},
		{start: 6, end: 11, repl: nil},
	})
	if string(out) != "goodbye  world" {
		t.Errorf("out = %q, want %q", out, "goodbye  world")
	}
}

func TestTjScaledShow(t *testing.T) {
	tests := []struct {
		name   string
		prefix string
		suffix string
		repl   string
		scale  int
		want   string
	}{
		{
			name: "full construct", prefix: "The ", suffix: " end", repl: "x", scale: 75,
			want: `(The ) Tj 75 Tz (x) Tj 100 Tz ( end) Tj`,
		},
		{
			name: "no prefix or suffix", repl: "x", scale: 50,
			want: `50 Tz (x) Tj 100 Tz`,
		},
		{
			name: "replacement needing escapes", repl: `a(b)`, scale: 60,
			want: `60 Tz (a\(b\)) Tj 100 Tz`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tjScaledShow([]byte(tt.prefix), []byte(tt.suffix), tt.repl, tt.scale)
			if string(got) != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestScalePct(t *testing.T) {
	m := testMutator()
	tests := []struct {
		target string
		repl   string
		want   int
	}{
		{"budget", "wallet", 100},
		{"budget", "plan", 100},
		{"budget", "", 100},
		{"abcdef", "abcdefgh", 75},
		{"ab", "abcdefghijklmnop", 50}, // floored
	}
	for _, tt := range tests {
		if got := m.scalePct(tt.target, tt.repl); got != tt.want {
			t.Errorf("scalePct(%q, %q) = %d, want %d", tt.target, tt.repl, got, tt.want)
		}
	}
}

func TestApplyReplace_InTJArray(t *testing.T) {
	// WHAT: an equal-or-shorter replacement lands inside a TJ array literal.
	content := []byte("BT [(The budget grew) -120 (today)] TJ ET")
	contents := [][]byte{bytes.Clone(content)}

	si, reason := testMutator().applyReplace(contents, "budget", "wallet")
	if si != 0 || reason != "" {
		t.Fatalf("applyReplace = (%d, %q), want stream 0", si, reason)
	}
	if !bytes.Contains(contents[0], []byte("(The wallet grew)")) {
		t.Errorf("stream = %q, want spliced TJ literal", contents[0])
	}
}

func TestApplyReplace_ScalingRequiresTjOperator(t *testing.T) {
	// WHAT: a replacement that needs scaling is refused inside a TJ array.
	// WHY: a Tz toggle cannot be injected mid-array without rebuilding the
	// whole operand, so the edit is skipped with a reason instead.
	content := []byte("BT [(The budget grew)] TJ ET")
	contents := [][]byte{bytes.Clone(content)}

	si, reason := testMutator().applyReplace(contents, "budget", "expenditure")
	if si != -1 {
		t.Fatalf("applyReplace = %d, want refusal", si)
	}
	if !strings.Contains(reason, "scaling") {
		t.Errorf("reason = %q, want scaling refusal", reason)
	}
	if !bytes.Equal(contents[0], content) {
		t.Error("stream modified despite refusal")
	}
}

func TestFindMatch_AbsorbsBoundarySpace(t *testing.T) {
	// WHAT: a target space may fall on a literal boundary where the page
	// encodes the gap as a positioning move instead of a space glyph.
	content := []byte("BT (The budget) Tj 12 0 Td (grew fast) Tj ET")
	lits := scanShowLiterals(content)

	pieces, ok := findMatch(lits, "budget grew")
	if !ok {
		t.Fatal("no match across the literal boundary")
	}
	if len(pieces) != 2 {
		t.Fatalf("pieces = %d, want 2", len(pieces))
	}
	if got := string(pieces[0].lit.dec[pieces[0].decStart:pieces[0].decEnd]); got != "budget" {
		t.Errorf("piece 0 = %q", got)
	}
	if got := string(pieces[1].lit.dec[pieces[1].decStart:pieces[1].decEnd]); got != "grew" {
		t.Errorf("piece 1 = %q", got)
	}
}

func TestFindMatch_SpaceInsideLiterals(t *testing.T) {
	// WHAT: when the gap is a real space glyph in the first literal, the
	// match continues verbatim across the boundary.
	content := []byte("BT (The budget ) Tj (grew fast) Tj ET")
	lits := scanShowLiterals(content)

	pieces, ok := findMatch(lits, "budget grew")
	if !ok {
		t.Fatal("no match")
	}
	if got := string(pieces[0].lit.dec[pieces[0].decStart:pieces[0].decEnd]); got != "budget " {
		t.Errorf("piece 0 = %q", got)
	}
}

func TestFindMatch_RejectsAbsent(t *testing.T) {
	content := []byte("BT (The budget grew fast) Tj ET")
	lits := scanShowLiterals(content)
	if _, ok := findMatch(lits, "nowhere"); ok {
		t.Error("matched text that is not on the page")
	}
}
