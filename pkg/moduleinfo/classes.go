package moduleinfo

import "strings"

// Classes is the set of fully-qualified class names a module defines. It
// is not part of spec §3's ModuleInfo field list directly, but the Linker
// (§4.3) requires per-module knowledge of defined classes to build
// moduleForLocalClass and to detect split packages — every descriptor
// format the spec's module-file could carry (CLASSES section entries, see
// §4.5) ultimately needs to expose this.
type Classes map[string]struct{}

// AddClass registers a class this module defines.
func (i *Info) AddClass(name string) {
	if i.classes == nil {
		i.classes = Classes{}
	}
	i.classes[name] = struct{}{}
}

// DefinedClasses returns the set of classes this module defines.
func (i *Info) DefinedClasses() Classes {
	if i.classes == nil {
		return Classes{}
	}
	return i.classes
}

// PackageOf returns the package portion of a fully-qualified class name
// (everything before the final '.'), or "" for a default-package class.
func PackageOf(className string) string {
	idx := strings.LastIndex(className, ".")
	if idx < 0 {
		return ""
	}
	return className[:idx]
}

// DefinedPackages returns the set of packages this module defines at least
// one class in.
func (i *Info) DefinedPackages() map[string]struct{} {
	out := map[string]struct{}{}
	for class := range i.DefinedClasses() {
		out[PackageOf(class)] = struct{}{}
	}
	return out
}
