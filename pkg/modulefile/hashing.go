package modulefile

import (
	"encoding/hex"

	digest "github.com/opencontainers/go-digest"
)

// hashOf implements every hash in spec §4.5's hashing contract: section
// hash, header hash, and file hash are all "digest of these bytes", with
// SHA256 as the only defined hash-type. go-digest's Canonical algorithm is
// SHA256, so FromBytes gives exactly the raw digest this format's
// hash-length/hash fields want once its hex encoding is decoded back to
// bytes.
func hashOf(content []byte) []byte {
	d := digest.FromBytes(content)
	raw, err := hex.DecodeString(d.Encoded())
	if err != nil {
		// FromBytes always returns a well-formed Canonical digest; a
		// decode failure here would mean go-digest itself is broken.
		panic("modulefile: malformed digest from go-digest: " + err.Error())
	}
	return raw
}

// FrameHashList renders spec §4.5's "hashes-for-signing" payload: each
// hash prefixed by its 2-byte length, concatenated in order. pkg/signing
// calls this to build the bytes it signs.
func FrameHashList(hashes [][]byte) []byte {
	var out []byte
	for _, h := range hashes {
		out = append(out, byte(len(h)>>8), byte(len(h)))
		out = append(out, h...)
	}
	return out
}

// ParseHashList reverses FrameHashList, for Verify's envelope parsing
// (spec §4.6 step 1): "must have ≥ 3 entries; reject extra bytes".
func ParseHashList(b []byte) ([][]byte, error) {
	var out [][]byte
	for len(b) > 0 {
		if len(b) < 2 {
			return nil, &FormatError{Reason: "truncated hash-list length prefix"}
		}
		n := int(b[0])<<8 | int(b[1])
		b = b[2:]
		if len(b) < n {
			return nil, &FormatError{Reason: "truncated hash-list entry"}
		}
		out = append(out, b[:n])
		b = b[n:]
	}
	if len(out) < 3 {
		return nil, &FormatError{Reason: "hash list has fewer than 3 entries"}
	}
	return out, nil
}
