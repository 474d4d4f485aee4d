package modulefile

import (
	"path"
	"strings"
)

// validateEntryPath enforces spec §4.5's path-safety rule for a stored
// subsection path: forward-slash separated, relative, and not escaping
// the destination root once normalized. singlePathElement additionally
// requires the path have no directory component, the rule §4.5 applies to
// native-code executable entries (NATIVE_CMDS).
//
// Stdlib path.Clean is used rather than filepath.Clean: stored paths are
// always "/"-separated regardless of host OS, which is exactly what the
// path package (as opposed to path/filepath) assumes.
func validateEntryPath(p string, singlePathElement bool) error {
	if p == "" || strings.Contains(p, "\\") {
		return &PathEscape{Path: p}
	}
	if path.IsAbs(p) {
		return &PathEscape{Path: p}
	}
	clean := path.Clean(p)
	if clean == ".." || strings.HasPrefix(clean, "../") || path.IsAbs(clean) {
		return &PathEscape{Path: p}
	}
	if singlePathElement && strings.Contains(clean, "/") {
		return &PathEscape{Path: p}
	}
	return nil
}
