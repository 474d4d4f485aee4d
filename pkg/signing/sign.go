package signing

import (
	"crypto"
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
)

// Signer implements modulefile.Signer: Sign takes spec §4.5's
// hashes-for-signing payload and returns the SignatureContent bytes
// (signature-type || signature-length || signature bytes) for the
// SIGNATURE section. modulefile itself never imports this package — the
// dependency runs one way, through the structural Signer interface it
// declares.
type Signer struct {
	Params Params
}

func NewSigner(p Params) *Signer { return &Signer{Params: p} }

// Sign implements spec §4.6's Sign step: hash the payload, sign the
// digest, optionally fetch a timestamp, and envelope the result with the
// signer's certificate chain.
func (s *Signer) Sign(payload []byte) ([]byte, error) {
	digest := sha256.Sum256(payload)

	sig, err := s.Params.Signer.Sign(rand.Reader, digest[:], crypto.SHA256)
	if err != nil {
		return nil, err
	}

	var ts []byte
	if s.Params.Timestamper != nil {
		ts, err = s.Params.Timestamper.Timestamp(digest[:])
		if err != nil {
			return nil, err
		}
	}

	certs := make([][]byte, len(s.Params.Chain))
	for i, c := range s.Params.Chain {
		certs[i] = c.Raw
	}

	env, err := marshalEnvelope(envelope{
		Algorithm:    s.Params.Algorithm,
		Payload:      payload,
		Signature:    sig,
		Certificates: certs,
		Timestamp:    ts,
	})
	if err != nil {
		return nil, err
	}

	out := make([]byte, 4, 4+len(env))
	binary.BigEndian.PutUint16(out[0:2], uint16(SignatureTypeEnvelope))
	binary.BigEndian.PutUint16(out[2:4], uint16(len(env)))
	return append(out, env...), nil
}
