// Package ingest discovers documents for batch editing. Scan walks a
// directory once; Watch keeps emitting paths as new files land.
package ingest

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joseph-ayodele/pdf-markup/constants"
)

// Candidate is one discovered document.
type Candidate struct {
	Path    string
	Size    int64
	HashHex string
}

// Stats aggregates one Scan pass.
type Stats struct {
	Scanned      int
	Matched      int
	Deduplicated int
	Failed       int
}

// Scan walks root and returns every allowed document in walk order. Files
// whose content hash was already seen in this pass are dropped: identical
// bytes produce identical edits, so duplicates only waste oracle calls.
func Scan(root string, skipHidden bool) ([]Candidate, Stats, error) {
	var (
		out   []Candidate
		stats Stats
		seen  = map[string]struct{}{}
	)

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		stats.Scanned++
		if walkErr != nil {
			stats.Failed++
			return nil // keep walking
		}
		if d.IsDir() {
			if skipHidden && path != root && isHidden(path) {
				return filepath.SkipDir
			}
			return nil
		}
		if skipHidden && isHidden(path) {
			return nil
		}
		if !allowedExt(path) {
			return nil
		}
		stats.Matched++

		sum, size, err := hashFile(path)
		if err != nil {
			stats.Failed++
			return nil
		}
		if _, dup := seen[sum]; dup {
			stats.Deduplicated++
			return nil
		}
		seen[sum] = struct{}{}
		out = append(out, Candidate{Path: path, Size: size, HashHex: sum})
		return nil
	})
	if err != nil {
		return out, stats, fmt.Errorf("walk %s: %w", root, err)
	}
	return out, stats, nil
}

func hashFile(path string) (string, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", 0, err
	}
	defer f.Close()

	h := sha256.New()
	n, err := io.Copy(h, f)
	if err != nil {
		return "", 0, err
	}
	return hex.EncodeToString(h.Sum(nil)), n, nil
}

func allowedExt(path string) bool {
	ext := constants.NormalizeExt(filepath.Ext(path))
	_, ok := constants.AllowedExtensions[ext]
	return ok
}

func isHidden(path string) bool {
	return strings.HasPrefix(filepath.Base(path), ".")
}
