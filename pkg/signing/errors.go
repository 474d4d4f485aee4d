package signing

import "fmt"

// FormatError reports a malformed signature envelope or its framing:
// trailing bytes, a truncated SignatureContent, or a missing SIGNATURE
// section; LoadTrustStore also uses it for a PEM file that holds no
// certificates. A hash list with fewer than 3 entries is reported by
// modulefile.ParseHashList as a *modulefile.FormatError instead.
type FormatError struct {
	Reason string
}

func (e *FormatError) Error() string { return "signing: " + e.Reason }

// BadSignature reports that the cryptographic signature itself didn't
// verify against the signer's public key (spec §4.6 step 2).
type BadSignature struct {
	Algorithm string
	Err       error
}

func (e *BadSignature) Error() string {
	return fmt.Sprintf("signing: bad signature (%s): %v", e.Algorithm, e.Err)
}

func (e *BadSignature) Unwrap() error { return e.Err }

// UntrustedChain reports that the signer's (or timestamper's) certificate
// chain didn't validate against the trusted-cert set (spec §4.6 step 4).
type UntrustedChain struct {
	Subject string
	Err     error
}

func (e *UntrustedChain) Error() string {
	return fmt.Sprintf("signing: untrusted certificate chain for %q: %v", e.Subject, e.Err)
}

func (e *UntrustedChain) Unwrap() error { return e.Err }

// ExpiredWithoutTimestamp reports a signer certificate that had already
// expired and carried no usable timestamp to fall back on (spec §4.6
// step 4's "if the signer certificate has expired, require a
// timestamp...").
type ExpiredWithoutTimestamp struct {
	Subject string
}

func (e *ExpiredWithoutTimestamp) Error() string {
	return fmt.Sprintf("signing: certificate %q has expired and no valid timestamp was presented", e.Subject)
}
