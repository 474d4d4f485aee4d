// Package signing implements spec §4.6: producing the enveloped
// signed-data structure that goes in a module-file's SIGNATURE section,
// and verifying one against a trusted-cert set.
//
// No certificate-message-syntax library appears anywhere in the example
// pack, so the envelope is a small encoding/asn1 structure of this
// system's own design rather than a PKCS7/CMS library's — the stdlib is
// the only available tool for a DER-shaped signed envelope here.
package signing

import "encoding/asn1"

// envelope is the DER-encoded structure carried as the "signature bytes"
// of modulefile's SignatureContent (spec §4.5): the signing algorithm,
// the raw signature, the signer's certificate chain (leaf first, DER
// encoded), and an optional RFC 3161-style timestamp token.
type envelope struct {
	Algorithm    string
	Payload      []byte // the signed hashes-for-signing byte string (spec §4.5)
	Signature    []byte
	Certificates [][]byte
	Timestamp    []byte `asn1:"optional"`
}

func marshalEnvelope(e envelope) ([]byte, error) {
	return asn1.Marshal(e)
}

func unmarshalEnvelope(b []byte) (envelope, error) {
	var e envelope
	rest, err := asn1.Unmarshal(b, &e)
	if err != nil {
		return envelope{}, err
	}
	if len(rest) != 0 {
		return envelope{}, &FormatError{Reason: "trailing bytes after signature envelope"}
	}
	return e, nil
}
