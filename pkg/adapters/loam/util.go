package loam

import (
	"path/filepath"
	"strings"
)

// trimExtension normalizes a document ID by dropping its file extension, the
// same convention Loam applies on retrieval ("snapshot.md" -> "snapshot").
func trimExtension(id string) string {
	ext := filepath.Ext(id)
	if ext != "" {
		return filepath.ToSlash(strings.TrimSuffix(id, ext))
	}
	return filepath.ToSlash(id)
}
