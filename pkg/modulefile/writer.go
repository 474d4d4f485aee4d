package modulefile

import (
	"bytes"
	"fmt"
	"io"
	"os"
)

// Signer produces an enveloped signed-data structure over payload (spec
// §4.5's "hashes-for-signing" byte string) for placement in the SIGNATURE
// section. pkg/signing's Signer implements this structurally; modulefile
// never imports pkg/signing, so the two packages compose without a cycle.
type Signer interface {
	Sign(payload []byte) ([]byte, error)
}

// WriteUnsigned writes an unsigned module-file: sections[0] must be
// MODULE_INFO and no section may be SIGNATURE. The header's csize and
// file-hash are filled in from the fully-assembled body — spec §4.5
// describes this as "placeholder, then overwrite"; since Go's io.Writer
// has no universal Seek, the body is assembled in memory first and the
// header is written correct the first time, which produces the identical
// bytes on the wire.
func WriteUnsigned(w io.Writer, sections []SectionInput) error {
	if err := validateSectionOrder(sections, false); err != nil {
		return err
	}

	encoded, err := encodeAll(sections)
	if err != nil {
		return err
	}
	body := concatWire(encoded)

	header := FileHeader{
		Magic:        fileMagic,
		FileType:     fileTypeModuleFile,
		Major:        fileMajor,
		Minor:        fileMinor,
		CSize:        uint64(len(body)),
		USize:        uint64(totalUncompressed(sections)),
		SectionCount: uint16(len(sections)),
		HashType:     hashTypeSHA256,
		Hash:         make([]byte, 32),
	}
	header.Hash, err = fileHash(header, body)
	if err != nil {
		return err
	}

	headerBytes, err := encodeHeader(header, false)
	if err != nil {
		return err
	}
	if _, err := w.Write(headerBytes); err != nil {
		return err
	}
	_, err = w.Write(body)
	return err
}

// WriteSigned writes a signed module-file (spec §4.5's two-pass writer):
// the unsigned form (zeroed header plus sections) is written to a
// temporary file, and its hashes (and the signed payload they feed) are
// computed from the same in-memory bytes before the SIGNATURE section
// exists; the temp file is not read back and is always removed, whether
// or not signing succeeds. sections must not include a SIGNATURE entry — WriteSigned
// inserts one, immediately after MODULE_INFO.
func WriteSigned(w io.Writer, sections []SectionInput, signer Signer) error {
	if err := validateSectionOrder(sections, false); err != nil {
		return err
	}

	encoded, err := encodeAll(sections)
	if err != nil {
		return err
	}
	domainBody := concatWire(encoded)

	domainHeader := FileHeader{
		Magic:        fileMagic,
		FileType:     fileTypeModuleFile,
		Major:        fileMajor,
		Minor:        fileMinor,
		CSize:        uint64(len(domainBody)),
		USize:        uint64(totalUncompressed(sections)),
		SectionCount: uint16(len(sections)),
		HashType:     hashTypeSHA256,
		Hash:         make([]byte, 32),
	}

	tmp, err := os.CreateTemp("", "modulefile-unsigned-*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	defer tmp.Close()

	zeroed, err := encodeHeader(domainHeader, true)
	if err != nil {
		return err
	}
	if _, err := tmp.Write(zeroed); err != nil {
		return err
	}
	if _, err := tmp.Write(domainBody); err != nil {
		return err
	}

	fHash, err := fileHash(domainHeader, domainBody)
	if err != nil {
		return err
	}

	headerHash := hashOf(zeroed)
	sectionHashes := make([][]byte, 0, len(encoded)+2)
	sectionHashes = append(sectionHashes, headerHash)
	for _, sec := range encoded {
		sectionHashes = append(sectionHashes, sec.hash)
	}
	sectionHashes = append(sectionHashes, fHash)

	payload := FrameHashList(sectionHashes)
	envelope, err := signer.Sign(payload)
	if err != nil {
		return err
	}

	sigEncoded, err := encodeSection(SectionInput{Type: SectionSignature, Content: envelope})
	if err != nil {
		return err
	}

	finalHeader := domainHeader
	finalHeader.SectionCount = domainHeader.SectionCount + 1
	finalHeader.CSize = domainHeader.CSize + uint64(len(sigEncoded.wire))
	finalHeader.Hash = fHash

	finalHeaderBytes, err := encodeHeader(finalHeader, false)
	if err != nil {
		return err
	}
	if _, err := w.Write(finalHeaderBytes); err != nil {
		return err
	}
	if _, err := w.Write(encoded[0].wire); err != nil { // MODULE_INFO
		return err
	}
	if _, err := w.Write(sigEncoded.wire); err != nil {
		return err
	}
	for _, sec := range encoded[1:] {
		if _, err := w.Write(sec.wire); err != nil {
			return err
		}
	}
	return nil
}

// fileHash computes spec §4.5's file hash: the given header (hash field
// zeroed) followed by body, which is itself the signature-free section
// stream — the file hash always excludes the SIGNATURE section, so this
// same computation serves both the unsigned writer and the signed
// writer's pre-signature pass.
func fileHash(header FileHeader, body []byte) ([]byte, error) {
	zeroed, err := encodeHeader(header, true)
	if err != nil {
		return nil, err
	}
	return hashOf(append(zeroed, body...)), nil
}

func validateSectionOrder(sections []SectionInput, allowSignature bool) error {
	if len(sections) == 0 || sections[0].Type != SectionModuleInfo {
		return &FormatError{Reason: "first section must be MODULE_INFO"}
	}
	for i, s := range sections {
		if s.Type == SectionModuleInfo && i != 0 {
			return &FormatError{Reason: "MODULE_INFO must appear exactly once, first"}
		}
		if s.Type == SectionSignature {
			if !allowSignature {
				return &FormatError{Reason: "SIGNATURE section is inserted by the writer, not supplied"}
			}
			if i != 1 {
				return &FormatError{Reason: "SIGNATURE must immediately follow MODULE_INFO"}
			}
		}
	}
	return nil
}

func encodeAll(sections []SectionInput) ([]*encodedSection, error) {
	out := make([]*encodedSection, 0, len(sections))
	for _, s := range sections {
		enc, err := encodeSection(s)
		if err != nil {
			return nil, fmt.Errorf("modulefile: encoding %s section: %w", s.Type, err)
		}
		out = append(out, enc)
	}
	return out, nil
}

func concatWire(encoded []*encodedSection) []byte {
	var buf bytes.Buffer
	for _, e := range encoded {
		buf.Write(e.wire)
	}
	return buf.Bytes()
}

func totalUncompressed(sections []SectionInput) int {
	total := 0
	for _, s := range sections {
		body, err := uncompressedBody(s)
		if err != nil {
			continue
		}
		total += len(body)
	}
	return total
}
