package modulefile

import (
	"bytes"
	"io"
)

// encodeHeader renders h exactly per spec §4.5's FileHeader grammar. When
// zeroHash is true the hash field is emitted as all-zero bytes of its
// declared length — the form the "header hash" (spec §4.5: "file header
// bytes with the file-hash field zeroed") is computed over.
func encodeHeader(h FileHeader, zeroHash bool) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeUint32(&buf, h.Magic); err != nil {
		return nil, err
	}
	if err := writeUint16(&buf, h.FileType); err != nil {
		return nil, err
	}
	if err := writeUint16(&buf, h.Major); err != nil {
		return nil, err
	}
	if err := writeUint16(&buf, h.Minor); err != nil {
		return nil, err
	}
	if err := writeUint64(&buf, h.CSize); err != nil {
		return nil, err
	}
	if err := writeUint64(&buf, h.USize); err != nil {
		return nil, err
	}
	if err := writeUint16(&buf, h.SectionCount); err != nil {
		return nil, err
	}
	if err := writeUint16(&buf, h.HashType); err != nil {
		return nil, err
	}
	hash := h.Hash
	if zeroHash {
		hash = make([]byte, len(h.Hash))
	}
	if err := writeBytes16(&buf, hash); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decodeHeader(r io.Reader) (FileHeader, error) {
	var h FileHeader
	var err error
	if h.Magic, err = readUint32(r); err != nil {
		return h, err
	}
	if h.Magic != fileMagic {
		return h, &FormatError{Reason: "bad module-file magic"}
	}
	if h.FileType, err = readUint16(r); err != nil {
		return h, err
	}
	if h.FileType != fileTypeModuleFile {
		return h, &FormatError{Reason: "unexpected file-type"}
	}
	if h.Major, err = readUint16(r); err != nil {
		return h, err
	}
	if h.Minor, err = readUint16(r); err != nil {
		return h, err
	}
	if h.CSize, err = readUint64(r); err != nil {
		return h, err
	}
	if h.USize, err = readUint64(r); err != nil {
		return h, err
	}
	if h.SectionCount, err = readUint16(r); err != nil {
		return h, err
	}
	if h.HashType, err = readUint16(r); err != nil {
		return h, err
	}
	if h.Hash, err = readBytes16(r); err != nil {
		return h, err
	}
	return h, nil
}
