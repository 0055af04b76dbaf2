package scan

import (
	"path/filepath"
	"strings"
)

// IsIgnored reports whether path is equal to, or a descendant of, any entry
// in ignores. Comparison is purely lexical on cleaned paths; the filesystem
// is never consulted, so the answer is the same whether or not path exists.
func IsIgnored(path string, ignores []string) bool {
	cleaned := filepath.Clean(path)
	for _, ig := range ignores {
		ig = filepath.Clean(ig)
		if cleaned == ig {
			return true
		}
		if strings.HasPrefix(cleaned, ig+string(filepath.Separator)) {
			return true
		}
	}
	return false
}
