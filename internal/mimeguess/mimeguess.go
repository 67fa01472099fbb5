// Package mimeguess provides the default MIME-guesser collaborator
// (spec.md §6's "maps a path to an optional content-type string"),
// backed entirely by the standard library's extension-to-type table.
package mimeguess

import (
	"mime"
	"path/filepath"
	"strings"
)

// Guesser maps an archive-relative path to an optional content-type
// string, matching the collaborator contract archive writer depends
// on (spec.md §4.10 step 5).
type Guesser func(path string) string

// ByExtension is the default Guesser: it consults the standard
// library's mime.TypeByExtension table and strips any trailing
// parameters (e.g. "; charset=utf-8"), since protected headers carry
// a bare content-type string.
func ByExtension(path string) string {
	ext := filepath.Ext(path)
	if ext == "" {
		return ""
	}
	t := mime.TypeByExtension(ext)
	if t == "" {
		return ""
	}
	if i := strings.IndexByte(t, ';'); i >= 0 {
		t = strings.TrimSpace(t[:i])
	}
	return t
}
