// Package moduleid implements the identity types of the module system: a
// module's name and version, and the version-constrained query used to
// request one.
package moduleid

import (
	"fmt"

	"github.com/blang/semver/v4"
)

// ID identifies a single module: a name, and an optional version. A nil
// Version is the least element of the version order — it sorts before any
// concrete version.
type ID struct {
	Name    string
	Version *semver.Version
}

// New returns an ID with no version.
func New(name string) ID {
	return ID{Name: name}
}

// WithVersion returns an ID for name at version.
func WithVersion(name string, version semver.Version) ID {
	v := version
	return ID{Name: name, Version: &v}
}

func (id ID) String() string {
	if id.Version == nil {
		return id.Name
	}
	return fmt.Sprintf("%s@%s", id.Name, id.Version.String())
}

// Equal reports whether id and other identify the same module at the same
// version. Two nil versions are equal; a nil and a non-nil version are not.
func (id ID) Equal(other ID) bool {
	if id.Name != other.Name {
		return false
	}
	if id.Version == nil || other.Version == nil {
		return id.Version == other.Version
	}
	return id.Version.EQ(*other.Version)
}

// Less orders IDs first by name, then by version with a nil version sorting
// least. It is used wherever the spec requires a deterministic ascending
// order over module ids (context membership, canonical naming).
func (id ID) Less(other ID) bool {
	if id.Name != other.Name {
		return id.Name < other.Name
	}
	switch {
	case id.Version == nil && other.Version == nil:
		return false
	case id.Version == nil:
		return true
	case other.Version == nil:
		return false
	default:
		return id.Version.LT(*other.Version)
	}
}

// ByID sorts a slice of IDs using Less.
type ByID []ID

func (b ByID) Len() int           { return len(b) }
func (b ByID) Less(i, j int) bool { return b[i].Less(b[j]) }
func (b ByID) Swap(i, j int)      { b[i], b[j] = b[j], b[i] }
