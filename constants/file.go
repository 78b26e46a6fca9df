package constants

import (
	"fmt"
	"strings"
)

// AllowedExtensions holds the allowed file extensions for document upload.
var AllowedExtensions = map[string]struct{}{
	"pdf": {},
}

// MaxFileSizeMB caps uploaded document size.
const MaxFileSizeMB = 10

// MaxFileSizeBytes is MaxFileSizeMB expressed in bytes.
const MaxFileSizeBytes = MaxFileSizeMB << 20

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// FormatFileSize renders a byte count as B, KB or MB for display.
func FormatFileSize(size int64) string {
	switch {
	case size < 1024:
		return fmt.Sprintf("%d B", size)
	case size < 1024*1024:
		return fmt.Sprintf("%.1f KB", float64(size)/1024)
	default:
		return fmt.Sprintf("%.1f MB", float64(size)/(1024*1024))
	}
}
