package modulefile

import (
	"bytes"
	"io"
)

// encodeSubsection renders one subsection: type, csize, path, content. p
// is validated against spec §4.5's path-safety rule before encoding;
// singlePathElement is set for NATIVE_CMDS entries.
func encodeSubsection(s Subsection, singlePathElement bool) ([]byte, error) {
	if err := validateEntryPath(s.Path, singlePathElement); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := writeUint16(&buf, uint16(SubsectionFile)); err != nil {
		return nil, err
	}
	if err := writeUint32(&buf, uint32(len(s.Content))); err != nil {
		return nil, err
	}
	if err := writePathString(&buf, s.Path); err != nil {
		return nil, err
	}
	if _, err := buf.Write(s.Content); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decodeSubsection(r io.Reader) (SubsectionHeader, []byte, error) {
	var sh SubsectionHeader
	typ, err := readUint16(r)
	if err != nil {
		return sh, nil, err
	}
	sh.Type = SubsectionType(typ)
	if sh.CSize, err = readUint32(r); err != nil {
		return sh, nil, err
	}
	if sh.Path, err = readPathString(r); err != nil {
		return sh, nil, err
	}
	if err := validateEntryPath(sh.Path, false); err != nil {
		return sh, nil, err
	}
	content := make([]byte, sh.CSize)
	if _, err := io.ReadFull(r, content); err != nil {
		return sh, nil, err
	}
	return sh, content, nil
}

// uncompressedBody renders a section's decompressed content: the bare
// Content for a single-file section, or its subsections concatenated for
// a file-bearing one. This is what the section hash is computed over
// (spec §4.5: "digest of the section's uncompressed-header-less content
// bytes") and what gets handed to compress before it's written.
func uncompressedBody(s SectionInput) ([]byte, error) {
	if !s.isFileBearing() {
		return s.Content, nil
	}
	singlePathElement := s.Type == SectionNativeCmds
	var buf bytes.Buffer
	for _, sub := range s.Subsections {
		enc, err := encodeSubsection(sub, singlePathElement)
		if err != nil {
			return nil, err
		}
		buf.Write(enc)
	}
	return buf.Bytes(), nil
}

// encodedSection is the fully-built wire form of one section plus the
// values the file-level hashing contract needs from it.
type encodedSection struct {
	header SectionHeader
	wire   []byte // header fields + compressed content, as written on the wire
	hash   []byte // section hash: digest of the uncompressed body
}

func encodeSection(s SectionInput) (*encodedSection, error) {
	body, err := uncompressedBody(s)
	if err != nil {
		return nil, err
	}
	comp := compressorFor(s.Type)
	wireContent, err := compress(comp, body)
	if err != nil {
		return nil, err
	}

	h := SectionHeader{
		Type:            s.Type,
		Compressor:      comp,
		CSize:           uint32(len(wireContent)),
		SubsectionCount: uint16(len(s.Subsections)),
		Hash:            hashOf(body),
	}

	var buf bytes.Buffer
	if err := writeUint16(&buf, uint16(h.Type)); err != nil {
		return nil, err
	}
	if err := writeUint16(&buf, uint16(h.Compressor)); err != nil {
		return nil, err
	}
	if err := writeUint32(&buf, h.CSize); err != nil {
		return nil, err
	}
	if err := writeUint16(&buf, h.SubsectionCount); err != nil {
		return nil, err
	}
	if err := writeBytes16(&buf, h.Hash); err != nil {
		return nil, err
	}
	if _, err := buf.Write(wireContent); err != nil {
		return nil, err
	}

	return &encodedSection{header: h, wire: buf.Bytes(), hash: h.Hash}, nil
}

// decodeSectionHeader reads a section's prologue; the caller is
// responsible for then reading exactly CSize more bytes as its content.
func decodeSectionHeader(r io.Reader) (SectionHeader, error) {
	var h SectionHeader
	typ, err := readUint16(r)
	if err != nil {
		return h, err
	}
	h.Type = SectionType(typ)
	comp, err := readUint16(r)
	if err != nil {
		return h, err
	}
	h.Compressor = Compressor(comp)
	if h.CSize, err = readUint32(r); err != nil {
		return h, err
	}
	if h.SubsectionCount, err = readUint16(r); err != nil {
		return h, err
	}
	if h.Hash, err = readBytes16(r); err != nil {
		return h, err
	}
	return h, nil
}
