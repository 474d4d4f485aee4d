package modulefile

import "fmt"

// FormatError reports a structural problem in a module-file's bytes: a
// bad magic number, an out-of-order section, a missing MODULE_INFO, or a
// section/subsection whose declared size doesn't match what followed it.
type FormatError struct {
	Reason string
}

func (e *FormatError) Error() string { return "modulefile: " + e.Reason }

// PathEscape reports a subsection path that fails the path-safety rule
// from spec §4.5: not relative, not forward-slash, or escaping the
// destination root after normalization.
type PathEscape struct {
	Path string
}

func (e *PathEscape) Error() string {
	return fmt.Sprintf("modulefile: unsafe entry path %q", e.Path)
}

// HashMismatch reports that a hash recomputed while streaming a
// module-file didn't match the value recorded for it, at write time or
// during verification (spec §4.6 step 3).
type HashMismatch struct {
	Subject string // "section:CLASSES", "header", "file", etc.
}

func (e *HashMismatch) Error() string {
	return fmt.Sprintf("modulefile: hash mismatch for %s", e.Subject)
}
