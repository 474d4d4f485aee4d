package signing

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/binary"
	"time"

	"github.com/modsys/core/pkg/modulefile"
)

// Verify implements spec §4.6's four verification steps against an
// already-parsed module-file: parse the envelope and its signed hash
// list, check the cryptographic signature, recompute and compare every
// hash, and validate the signer's certificate chain (with a timestamp
// fallback for an expired signer cert).
func Verify(pf *modulefile.ParsedFile, trust TrustStore, now time.Time) error {
	sigSection := pf.Section(modulefile.SectionSignature)
	if sigSection == nil {
		return &FormatError{Reason: "no SIGNATURE section present"}
	}

	_, envBytes, err := parseSignatureContent(sigSection.Body)
	if err != nil {
		return err
	}
	env, err := unmarshalEnvelope(envBytes)
	if err != nil {
		return err
	}

	hashList, err := modulefile.ParseHashList(env.Payload)
	if err != nil {
		return err
	}

	if err := verifySignature(env, now); err != nil {
		return err
	}

	if err := compareHashes(pf, hashList); err != nil {
		return err
	}

	return validateChain(env, trust, now)
}

func parseSignatureContent(content []byte) (SignatureType, []byte, error) {
	if len(content) < 4 {
		return 0, nil, &FormatError{Reason: "truncated SignatureContent"}
	}
	typ := SignatureType(binary.BigEndian.Uint16(content[0:2]))
	n := int(binary.BigEndian.Uint16(content[2:4]))
	rest := content[4:]
	if len(rest) < n {
		return 0, nil, &FormatError{Reason: "truncated signature bytes"}
	}
	if len(rest) != n {
		return 0, nil, &FormatError{Reason: "trailing bytes after SignatureContent"}
	}
	return typ, rest[:n], nil
}

// verifySignature implements spec §4.6 step 2. It only checks the
// signature against the embedded payload; step 4's cert-chain trust
// check is separate, so a correctly-signed-but-untrusted envelope fails
// there instead.
func verifySignature(env envelope, now time.Time) error {
	if len(env.Certificates) == 0 {
		return &BadSignature{Algorithm: env.Algorithm, Err: &FormatError{Reason: "no certificates in envelope"}}
	}
	leaf, err := x509.ParseCertificate(env.Certificates[0])
	if err != nil {
		return &BadSignature{Algorithm: env.Algorithm, Err: err}
	}

	digest := sha256.Sum256(env.Payload)

	switch pub := leaf.PublicKey.(type) {
	case *ecdsa.PublicKey:
		if !ecdsa.VerifyASN1(pub, digest[:], env.Signature) {
			return &BadSignature{Algorithm: env.Algorithm, Err: &FormatError{Reason: "ecdsa verification failed"}}
		}
	case *rsa.PublicKey:
		if err := rsa.VerifyPKCS1v15(pub, crypto.SHA256, digest[:], env.Signature); err != nil {
			return &BadSignature{Algorithm: env.Algorithm, Err: err}
		}
	default:
		return &BadSignature{Algorithm: env.Algorithm, Err: &FormatError{Reason: "unsupported public key type"}}
	}
	return nil
}

// compareHashes implements spec §4.6 step 3: recompute every hash during
// streaming and compare to the expected list element-wise. Per-section
// hashes were already checked once while Parse decompressed each
// section's content; this additionally confirms the signed payload's
// hash list agrees with what was actually parsed, in the exact order
// FrameHashList was built: [header-hash, module-info-hash, each other
// section hash in file order, file-hash].
func compareHashes(pf *modulefile.ParsedFile, hashList [][]byte) error {
	headerHash, fileHash, err := pf.RecomputeHashes()
	if err != nil {
		return err
	}

	var expected [][]byte
	expected = append(expected, headerHash)
	for _, sec := range pf.Sections {
		if sec.Header.Type == modulefile.SectionSignature {
			continue
		}
		expected = append(expected, sec.Header.Hash)
	}
	expected = append(expected, fileHash)

	if len(expected) != len(hashList) {
		return &modulefile.HashMismatch{Subject: "hash-list-length"}
	}
	for i, h := range expected {
		if !bytesEqual(h, hashList[i]) {
			return &modulefile.HashMismatch{Subject: hashSubjectLabel(pf, i)}
		}
	}
	return nil
}

func hashSubjectLabel(pf *modulefile.ParsedFile, i int) string {
	switch i {
	case 0:
		return "header"
	default:
		nonSig := 0
		for _, sec := range pf.Sections {
			if sec.Header.Type == modulefile.SectionSignature {
				continue
			}
			nonSig++
			if nonSig == i {
				return "section:" + sec.Header.Type.String()
			}
		}
		return "file"
	}
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

// validateChain implements spec §4.6 step 4: the signer's certificate
// chain must validate against the trusted-cert set; if the signer cert
// has expired, a timestamp placing the signing time within the cert's
// validity window is required, and the timestamper's own chain is
// validated in turn.
func validateChain(env envelope, trust TrustStore, now time.Time) error {
	leaf, err := x509.ParseCertificate(env.Certificates[0])
	if err != nil {
		return &UntrustedChain{Subject: "signer", Err: err}
	}

	roots, intermediates := trust.Pools()
	pool := intermediates.Clone()
	for _, raw := range env.Certificates[1:] {
		c, err := x509.ParseCertificate(raw)
		if err != nil {
			return &UntrustedChain{Subject: leaf.Subject.String(), Err: err}
		}
		pool.AddCert(c)
	}

	_, err = leaf.Verify(x509.VerifyOptions{Roots: roots, Intermediates: pool, CurrentTime: now})
	if err == nil {
		return nil
	}
	if now.Before(leaf.NotAfter) {
		return &UntrustedChain{Subject: leaf.Subject.String(), Err: err}
	}

	if len(env.Timestamp) == 0 {
		return &ExpiredWithoutTimestamp{Subject: leaf.Subject.String()}
	}
	tok, err := decodeTimestampToken(env.Timestamp)
	if err != nil {
		return &UntrustedChain{Subject: leaf.Subject.String(), Err: err}
	}
	if tok.Time.Before(leaf.NotBefore) || tok.Time.After(leaf.NotAfter) {
		return &ExpiredWithoutTimestamp{Subject: leaf.Subject.String()}
	}

	tsCert, err := x509.ParseCertificate(tok.Cert)
	if err != nil {
		return &UntrustedChain{Subject: "timestamper", Err: err}
	}
	if _, err := tsCert.Verify(x509.VerifyOptions{Roots: roots, Intermediates: pool, CurrentTime: now}); err != nil {
		return &UntrustedChain{Subject: tsCert.Subject.String(), Err: err}
	}
	return nil
}
