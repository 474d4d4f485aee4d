package signing

import (
	"encoding/asn1"
	"time"
)

// timestampToken is this system's own stand-in for an RFC 3161 timestamp
// token: no TSA client or parser exists anywhere in the example pack, and
// actually talking to a timestamping authority is networked I/O this
// system's core (spec §1 Non-goals) doesn't do — callers that need real
// RFC 3161 interop supply their own Timestamper and only need Verify to
// agree on this token shape.
type timestampToken struct {
	Time time.Time
	Cert []byte // DER-encoded timestamper certificate
}

// EncodeTimestampToken renders a timestamp token carrying the signing time
// t and the timestamper's DER certificate cert. The token has no
// signature of its own; Verify checks t against the signer certificate's
// validity window and validates cert's chain.
func EncodeTimestampToken(t time.Time, cert []byte) ([]byte, error) {
	return asn1.Marshal(timestampToken{Time: t, Cert: cert})
}

func decodeTimestampToken(b []byte) (timestampToken, error) {
	var tok timestampToken
	rest, err := asn1.Unmarshal(b, &tok)
	if err != nil {
		return timestampToken{}, err
	}
	if len(rest) != 0 {
		return timestampToken{}, &FormatError{Reason: "trailing bytes after timestamp token"}
	}
	return tok, nil
}
