package linking

import "fmt"

// AmbiguousClass is spec §4.3's phase-3 failure: more than one module in
// a context defines the same class and no unique dominant definer exists.
type AmbiguousClass struct {
	Context   string
	ClassName string
	Definers  []string
}

func (e *AmbiguousClass) Error() string {
	return fmt.Sprintf("context %s: class %s is defined by multiple modules with no dominant definer: %v", e.Context, e.ClassName, e.Definers)
}

// SplitPackage is spec §4.3's check that every module defining a type in
// a given package lies in the same context.
type SplitPackage struct {
	Package  string
	Contexts []string
}

func (e *SplitPackage) Error() string {
	return fmt.Sprintf("package %s is split across contexts: %v", e.Package, e.Contexts)
}

// AmbiguousPackage is spec §4.3's phase-4 failure: a package imported into
// a context does not resolve to exactly one supplying context.
type AmbiguousPackage struct {
	Context   string
	Package   string
	Suppliers []string
}

func (e *AmbiguousPackage) Error() string {
	return fmt.Sprintf("context %s: package %s resolves to %d supplying contexts (want exactly 1): %v", e.Context, e.Package, len(e.Suppliers), e.Suppliers)
}
