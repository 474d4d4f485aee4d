package modulefile

import (
	"bufio"
	"io"
)

// ParsedSubsection is one decoded (path, content) entry of a file-bearing
// section.
type ParsedSubsection struct {
	Header  SubsectionHeader
	Content []byte // decompressed
}

// ParsedSection is one decoded section: its header, decompressed body
// (for single-file sections) or decompressed subsections (for file-bearing
// ones), and the exact bytes it occupied on the wire — the latter is what
// RecomputeHashes needs to reconstruct the file-hash input without
// re-serializing.
type ParsedSection struct {
	Header      SectionHeader
	Body        []byte // single-file sections only
	Subsections []ParsedSubsection
	wire        []byte
}

// ParsedFile is the fully-decoded form of a module-file. Parse reads the
// whole stream up front rather than leaving section content compressed
// until first access — a module-file is sized for a single library unit,
// not a multi-gigabyte archive, so the spec's "decompressed on demand"
// phrasing is honored here as "decompressed once, cached", not as
// byte-level laziness.
type ParsedFile struct {
	Header   FileHeader
	Sections []ParsedSection
}

// Parse decodes a module-file from r.
func Parse(r io.Reader) (*ParsedFile, error) {
	br := bufio.NewReader(r)

	header, err := decodeHeader(br)
	if err != nil {
		return nil, err
	}

	pf := &ParsedFile{Header: header}
	sawModuleInfo := false
	sawSignature := false

	for i := 0; i < int(header.SectionCount); i++ {
		sec, err := parseOneSection(br)
		if err != nil {
			return nil, err
		}
		if i == 0 && sec.Header.Type != SectionModuleInfo {
			return nil, &FormatError{Reason: "first section must be MODULE_INFO"}
		}
		if sec.Header.Type == SectionModuleInfo {
			if sawModuleInfo {
				return nil, &FormatError{Reason: "duplicate MODULE_INFO section"}
			}
			sawModuleInfo = true
		}
		if sec.Header.Type == SectionSignature {
			if sawSignature || i != 1 {
				return nil, &FormatError{Reason: "SIGNATURE must be the single section immediately after MODULE_INFO"}
			}
			sawSignature = true
		}
		pf.Sections = append(pf.Sections, *sec)
	}
	if !sawModuleInfo {
		return nil, &FormatError{Reason: "missing MODULE_INFO section"}
	}
	return pf, nil
}

func parseOneSection(br *bufio.Reader) (*ParsedSection, error) {
	var headerBuf countingReader
	headerBuf.r = br

	h, err := decodeSectionHeader(&headerBuf)
	if err != nil {
		return nil, err
	}

	wire := append([]byte(nil), headerBuf.read...)
	compressed := make([]byte, h.CSize)
	if _, err := io.ReadFull(br, compressed); err != nil {
		return nil, err
	}
	wire = append(wire, compressed...)

	body, err := decompress(h.Compressor, compressed)
	if err != nil {
		return nil, err
	}
	if got := hashOf(body); !bytesEqual(got, h.Hash) {
		return nil, &HashMismatch{Subject: "section:" + h.Type.String()}
	}

	sec := &ParsedSection{Header: h, wire: wire}
	if h.SubsectionCount == 0 {
		sec.Body = body
		return sec, nil
	}

	rest := body
	for i := uint16(0); i < h.SubsectionCount; i++ {
		sr := &byteSliceReader{b: rest}
		subHeader, content, err := decodeSubsection(sr)
		if err != nil {
			return nil, err
		}
		sec.Subsections = append(sec.Subsections, ParsedSubsection{Header: subHeader, Content: content})
		rest = rest[len(rest)-sr.remaining():]
	}
	return sec, nil
}

// ClassEntry is one decoded (entry-path, bytes) pair from a CLASSES
// section — spec §4.5's getClasses().
type ClassEntry struct {
	Path  string
	Bytes []byte
}

// GetClasses returns the decoded entries of the CLASSES section, or nil if
// pf has none. PACK200_GZIP decoding already happened during Parse, so
// this is a plain projection.
func (pf *ParsedFile) GetClasses() []ClassEntry {
	for _, s := range pf.Sections {
		if s.Header.Type != SectionClasses {
			continue
		}
		out := make([]ClassEntry, len(s.Subsections))
		for i, sub := range s.Subsections {
			out[i] = ClassEntry{Path: sub.Header.Path, Bytes: sub.Content}
		}
		return out
	}
	return nil
}

// Section returns the first section of type t, or nil.
func (pf *ParsedFile) Section(t SectionType) *ParsedSection {
	for i := range pf.Sections {
		if pf.Sections[i].Header.Type == t {
			return &pf.Sections[i]
		}
	}
	return nil
}

// RecomputeHashes reconstructs spec §4.5's header hash and file hash from
// the already-parsed sections, reconstructing the "as if the SIGNATURE
// section didn't exist" header the signed payload was actually computed
// over: SectionCount and CSize are taken down by the SIGNATURE section's
// exact wire length (spec §4.5: the file hash always excludes the
// signature section and the header's own hash field).
func (pf *ParsedFile) RecomputeHashes() (headerHash, fHash []byte, err error) {
	adjusted := pf.Header
	var body []byte
	for _, sec := range pf.Sections {
		if sec.Header.Type == SectionSignature {
			adjusted.SectionCount--
			adjusted.CSize -= uint64(len(sec.wire))
			continue
		}
		body = append(body, sec.wire...)
	}

	zeroed, err := encodeHeader(adjusted, true)
	if err != nil {
		return nil, nil, err
	}
	headerHash = hashOf(zeroed)
	fHash = hashOf(append(append([]byte(nil), zeroed...), body...))
	return headerHash, fHash, nil
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// countingReader records every byte read through it, so a section's
// fixed-layout header can be re-emitted verbatim into its wire slice
// without hand-duplicating the encoding logic.
type countingReader struct {
	r    io.Reader
	read []byte
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.read = append(c.read, p[:n]...)
	return n, err
}

// byteSliceReader is a minimal io.Reader over an in-memory slice, used to
// decode successive subsections out of an already-decompressed section
// body.
type byteSliceReader struct {
	b   []byte
	pos int
}

func (r *byteSliceReader) Read(p []byte) (int, error) {
	if r.pos >= len(r.b) {
		return 0, io.EOF
	}
	n := copy(p, r.b[r.pos:])
	r.pos += n
	return n, nil
}

func (r *byteSliceReader) remaining() int { return len(r.b) - r.pos }
