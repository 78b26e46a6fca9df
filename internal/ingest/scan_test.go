// Scan feeds the batch pipeline, so the properties under test are the ones
// the batch summary reports on: extension filtering, hidden-entry handling,
// and content-hash deduplication across differently named copies.
package ingest

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"testing"
)

// seedTree builds root/{.hidden/d.pdf, a.pdf, b.pdf, c.pdf, notes.txt}
// where a.pdf and b.pdf share identical bytes.
func seedTree(t *testing.T) string {
	t.Helper()
	root := t.TempDir()

	hidden := filepath.Join(root, ".hidden")
	if err := os.Mkdir(hidden, 0o755); err != nil {
		t.Fatal(err)
	}
	files := map[string]string{
		filepath.Join(hidden, "d.pdf"):   "delta",
		filepath.Join(root, "a.pdf"):     "alpha",
		filepath.Join(root, "b.pdf"):     "alpha",
		filepath.Join(root, "c.pdf"):     "gamma",
		filepath.Join(root, "notes.txt"): "not a document",
	}
	for path, content := range files {
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return root
}

func TestScanSkipsHiddenAndDeduplicates(t *testing.T) {
	root := seedTree(t)

	got, stats, err := Scan(root, true)
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}

	wantPaths := []string{
		filepath.Join(root, "a.pdf"),
		filepath.Join(root, "c.pdf"),
	}
	if len(got) != len(wantPaths) {
		t.Fatalf("got %d candidates, want %d: %+v", len(got), len(wantPaths), got)
	}
	for i, c := range got {
		if c.Path != wantPaths[i] {
			t.Errorf("candidate[%d].Path = %s, want %s", i, c.Path, wantPaths[i])
		}
	}

	if stats.Matched != 3 {
		t.Errorf("Matched = %d, want 3", stats.Matched)
	}
	if stats.Deduplicated != 1 {
		t.Errorf("Deduplicated = %d, want 1", stats.Deduplicated)
	}
	if stats.Failed != 0 {
		t.Errorf("Failed = %d, want 0", stats.Failed)
	}

	sum := sha256.Sum256([]byte("alpha"))
	if got[0].HashHex != hex.EncodeToString(sum[:]) {
		t.Errorf("a.pdf hash = %s, want sha256 of content", got[0].HashHex)
	}
	if got[0].Size != int64(len("alpha")) {
		t.Errorf("a.pdf size = %d, want %d", got[0].Size, len("alpha"))
	}
}

func TestScanIncludesHiddenWhenAsked(t *testing.T) {
	root := seedTree(t)

	got, stats, err := Scan(root, false)
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}

	wantPaths := []string{
		filepath.Join(root, ".hidden", "d.pdf"),
		filepath.Join(root, "a.pdf"),
		filepath.Join(root, "c.pdf"),
	}
	if len(got) != len(wantPaths) {
		t.Fatalf("got %d candidates, want %d: %+v", len(got), len(wantPaths), got)
	}
	for i, c := range got {
		if c.Path != wantPaths[i] {
			t.Errorf("candidate[%d].Path = %s, want %s", i, c.Path, wantPaths[i])
		}
	}
	if stats.Matched != 4 || stats.Deduplicated != 1 {
		t.Errorf("stats = %+v, want Matched 4 Deduplicated 1", stats)
	}
}

func TestAllowedExt(t *testing.T) {
	cases := []struct {
		path string
		want bool
	}{
		{"invoice.pdf", true},
		{"INVOICE.PDF", true},
		{"archive.tar.pdf", true},
		{"notes.txt", false},
		{"noext", false},
		{"dir/.pdf", true},
	}
	for _, tc := range cases {
		if got := allowedExt(tc.path); got != tc.want {
			t.Errorf("allowedExt(%q) = %v, want %v", tc.path, got, tc.want)
		}
	}
}
