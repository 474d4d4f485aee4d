package signing

import (
	"crypto"
	"crypto/x509"
)

// SignatureType is the wire discriminant for SignatureContent's
// "signature-type u16" field (spec §4.5). Only one signing mechanism is
// implemented; the field exists because the format names it explicitly.
type SignatureType uint16

const SignatureTypeEnvelope SignatureType = 1

// Params are the caller-supplied signing parameters spec §4.6 names:
// "signature algorithm, certificate chain, optional
// timestamping-authority URI". The URI itself is represented as a
// Timestamper collaborator rather than a raw string — network fetching
// is out of this system's scope (spec §1), so callers inject however
// they actually talk to a TSA.
type Params struct {
	Algorithm   string // descriptive; e.g. "ECDSA-P256-SHA256"
	Signer      crypto.Signer
	Chain       []*x509.Certificate // leaf first
	Timestamper Timestamper
}

// Timestamper obtains a timestamp token over a message imprint from a
// timestamping authority (spec §4.6's optional TSA step). Implementations
// own whatever network or local call that requires.
type Timestamper interface {
	Timestamp(messageImprint []byte) ([]byte, error)
}

// TrustStore supplies the trusted-cert set certificate chains are
// validated against (spec §6 "Trust store").
type TrustStore interface {
	Pools() (roots *x509.CertPool, intermediates *x509.CertPool)
}
