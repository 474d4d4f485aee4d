package modulefile

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"
)

// compress renders uncompressed section body bytes into their on-wire
// form for c. PACK200_GZIP is, on the wire, indistinguishable from GZIP:
// true Pack200 re-encoding works at the Java bytecode constant-pool level
// and has no Go equivalent in this stack, so CLASSES sections are carried
// as a plain gzip stream tagged PACK200_GZIP — readers see the compressor
// value spec §4.5 requires, and decompress accordingly.
func compress(c Compressor, body []byte) ([]byte, error) {
	switch c {
	case CompressorNone:
		return body, nil
	case CompressorGzip, CompressorPack200Gzip:
		var buf bytes.Buffer
		gw := gzip.NewWriter(&buf)
		if _, err := gw.Write(body); err != nil {
			return nil, err
		}
		if err := gw.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	default:
		return nil, fmt.Errorf("modulefile: unknown compressor %s", c)
	}
}

// decompress reverses compress.
func decompress(c Compressor, wire []byte) ([]byte, error) {
	switch c {
	case CompressorNone:
		return wire, nil
	case CompressorGzip, CompressorPack200Gzip:
		gr, err := gzip.NewReader(bytes.NewReader(wire))
		if err != nil {
			return nil, err
		}
		defer gr.Close()
		return io.ReadAll(gr)
	default:
		return nil, fmt.Errorf("modulefile: unknown compressor %s", c)
	}
}
