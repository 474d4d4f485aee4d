// Package modulefile implements the binary module-file container format
// from spec §4.5: a header, a sequence of typed sections (each optionally
// carrying file-bearing subsections), and an optional signature section.
package modulefile

import "fmt"

// SectionType enumerates the section kinds a module-file can carry. Order
// here matches no wire requirement beyond MODULE_INFO needing to sort
// first and SIGNATURE needing to sort second when present — both of
// which Writer enforces directly rather than relying on enum order.
type SectionType uint16

const (
	SectionModuleInfo SectionType = 1
	SectionSignature  SectionType = 2
	SectionClasses    SectionType = 3
	SectionResources  SectionType = 4
	SectionNativeLibs SectionType = 5
	SectionNativeCmds SectionType = 6
	SectionConfig     SectionType = 7
)

func (t SectionType) String() string {
	switch t {
	case SectionModuleInfo:
		return "MODULE_INFO"
	case SectionSignature:
		return "SIGNATURE"
	case SectionClasses:
		return "CLASSES"
	case SectionResources:
		return "RESOURCES"
	case SectionNativeLibs:
		return "NATIVE_LIBS"
	case SectionNativeCmds:
		return "NATIVE_CMDS"
	case SectionConfig:
		return "CONFIG"
	default:
		return fmt.Sprintf("SectionType(%d)", uint16(t))
	}
}

// Subdir returns the extraction subdirectory for this section type, per
// spec §6's mapping: MODULE_INFO and SIGNATURE extract into the module
// root, CLASSES and RESOURCES share "classes", NATIVE_LIBS goes to "lib",
// NATIVE_CMDS to "bin", CONFIG to "etc".
func (t SectionType) Subdir() string {
	switch t {
	case SectionClasses, SectionResources:
		return "classes"
	case SectionNativeLibs:
		return "lib"
	case SectionNativeCmds:
		return "bin"
	case SectionConfig:
		return "etc"
	default:
		return "."
	}
}

// Compressor enumerates the compression applied to a section's content.
type Compressor uint16

const (
	CompressorNone       Compressor = 0
	CompressorGzip       Compressor = 1
	CompressorPack200Gzip Compressor = 2
)

func (c Compressor) String() string {
	switch c {
	case CompressorNone:
		return "NONE"
	case CompressorGzip:
		return "GZIP"
	case CompressorPack200Gzip:
		return "PACK200_GZIP"
	default:
		return fmt.Sprintf("Compressor(%d)", uint16(c))
	}
}

// compressorFor returns the compressor spec §4.5 mandates for t: MODULE_INFO
// is always stored uncompressed, CLASSES always goes through PACK200_GZIP,
// and every other file-bearing section uses plain GZIP.
func compressorFor(t SectionType) Compressor {
	switch t {
	case SectionModuleInfo:
		return CompressorNone
	case SectionClasses:
		return CompressorPack200Gzip
	default:
		return CompressorGzip
	}
}

// SubsectionType is always FILE on the wire; spec §4.5 defines no other
// value, but the field exists so the format can grow one.
type SubsectionType uint16

const SubsectionFile SubsectionType = 1

const (
	fileTypeModuleFile uint16 = 1
	fileMajor          uint16 = 1
	fileMinor          uint16 = 0

	hashTypeSHA256 uint16 = 1

	fileMagic uint32 = 0x4d4f4446 // "MODF", matching the configuration store's magic: both are this system's container formats
)

// FileHeader is the fixed-layout prologue of a module-file.
type FileHeader struct {
	Magic        uint32
	FileType     uint16
	Major, Minor uint16
	CSize        uint64
	USize        uint64
	SectionCount uint16
	HashType     uint16
	Hash         []byte
}

// SectionHeader is a section's typed, hashed prologue.
type SectionHeader struct {
	Type            SectionType
	Compressor      Compressor
	CSize           uint32
	SubsectionCount uint16
	Hash            []byte
}

// SubsectionHeader precedes one file-bearing entry's content within a
// section.
type SubsectionHeader struct {
	Type  SubsectionType
	CSize uint32
	Path  string
}

// Subsection is one (path, content) entry of a file-bearing section, as
// supplied to the Writer. Content is the uncompressed bytes; the Writer
// compresses each section's encoded subsections as one body, with the
// compressor compressorFor picks for the section type.
type Subsection struct {
	Path    string
	Content []byte
}

// SectionInput is one section as supplied to the Writer: a type and,
// for file-bearing sections, its subsections. MODULE_INFO, SIGNATURE and
// CONFIG are single-file sections (spec §4.5: "subsection count is 0 for
// single-file sections"); for those, put the content in Content and leave
// Subsections nil.
type SectionInput struct {
	Type        SectionType
	Content     []byte
	Subsections []Subsection
}

func (s SectionInput) isFileBearing() bool {
	return s.Type == SectionClasses || s.Type == SectionResources ||
		s.Type == SectionNativeLibs || s.Type == SectionNativeCmds
}
