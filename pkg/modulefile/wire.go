package modulefile

import (
	"encoding/binary"
	"io"
)

// writePathString encodes a subsection path as MUTF-8 the way a JVM
// class-file CONSTANT_Utf8_info does: a u16 byte-length prefix followed by
// the bytes. In practice this system never stores supplementary-plane
// characters or embedded NUL in an entry path, so plain UTF-8 (what a Go
// string already is) and MUTF-8 coincide for every path this codec needs
// to carry.
func writePathString(w io.Writer, s string) error { return writeBytes16(w, []byte(s)) }

func readPathString(r io.Reader) (string, error) {
	b, err := readBytes16(r)
	return string(b), err
}

func writeUint16(w io.Writer, v uint16) error { return binary.Write(w, binary.BigEndian, v) }
func writeUint32(w io.Writer, v uint32) error { return binary.Write(w, binary.BigEndian, v) }
func writeUint64(w io.Writer, v uint64) error { return binary.Write(w, binary.BigEndian, v) }

func readUint16(r io.Reader) (uint16, error) {
	var v uint16
	err := binary.Read(r, binary.BigEndian, &v)
	return v, err
}

func readUint32(r io.Reader) (uint32, error) {
	var v uint32
	err := binary.Read(r, binary.BigEndian, &v)
	return v, err
}

func readUint64(r io.Reader) (uint64, error) {
	var v uint64
	err := binary.Read(r, binary.BigEndian, &v)
	return v, err
}

// writeBytes16 writes a 2-byte length prefix followed by b, the framing
// FileHeader and Section use for their hash fields.
func writeBytes16(w io.Writer, b []byte) error {
	if err := writeUint16(w, uint16(len(b))); err != nil {
		return err
	}
	_, err := w.Write(b)
	return err
}

func readBytes16(r io.Reader) ([]byte, error) {
	n, err := readUint16(r)
	if err != nil {
		return nil, err
	}
	buf := make([]byte, n)
	_, err = io.ReadFull(r, buf)
	return buf, err
}

func writeString(w io.Writer, s string) error {
	if err := writeUint32(w, uint32(len(s))); err != nil {
		return err
	}
	_, err := io.WriteString(w, s)
	return err
}

func readString(r io.Reader) (string, error) {
	n, err := readUint32(r)
	if err != nil {
		return "", err
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}
	return string(buf), nil
}
