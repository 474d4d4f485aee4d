package signing

import (
	"bytes"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/modsys/core/pkg/modulefile"
)

func selfSignedCert(t *testing.T) (*ecdsa.PrivateKey, *x509.Certificate) {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	tmpl := &x509.Certificate{
		SerialNumber:          big.NewInt(1),
		Subject:               pkix.Name{CommonName: "test-signer"},
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              time.Now().Add(24 * time.Hour),
		KeyUsage:              x509.KeyUsageDigitalSignature | x509.KeyUsageCertSign,
		IsCA:                  true,
		BasicConstraintsValid: true,
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	require.NoError(t, err)
	cert, err := x509.ParseCertificate(der)
	require.NoError(t, err)
	return key, cert
}

func sections() []modulefile.SectionInput {
	return []modulefile.SectionInput{
		{Type: modulefile.SectionModuleInfo, Content: []byte("module-info")},
		{
			Type: modulefile.SectionClasses,
			Subsections: []modulefile.Subsection{
				{Path: "com/example/Widget.class", Content: []byte("classbytes")},
			},
		},
	}
}

func TestSignAndVerifyRoundTrip(t *testing.T) {
	key, cert := selfSignedCert(t)
	signer := NewSigner(Params{
		Algorithm: "ECDSA-P256-SHA256",
		Signer:    key,
		Chain:     []*x509.Certificate{cert},
	})

	var buf bytes.Buffer
	require.NoError(t, modulefile.WriteSigned(&buf, sections(), signer))

	pf, err := modulefile.Parse(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)

	trust := StaticTrustStore{Roots: pemEncode(cert.Raw)}
	require.NoError(t, Verify(pf, trust, time.Now()))
}

func TestParseRejectsTamperedSignedContent(t *testing.T) {
	key, cert := selfSignedCert(t)
	signer := NewSigner(Params{
		Algorithm: "ECDSA-P256-SHA256",
		Signer:    key,
		Chain:     []*x509.Certificate{cert},
	})

	var buf bytes.Buffer
	require.NoError(t, modulefile.WriteSigned(&buf, sections(), signer))

	tampered := append([]byte(nil), buf.Bytes()...)
	tampered[len(tampered)-1] ^= 0xff

	_, err := modulefile.Parse(bytes.NewReader(tampered))
	require.Error(t, err, "tampering the last section's compressed bytes must surface during parse")
}

func TestVerifyRejectsUntrustedSigner(t *testing.T) {
	key, cert := selfSignedCert(t)
	signer := NewSigner(Params{
		Algorithm: "ECDSA-P256-SHA256",
		Signer:    key,
		Chain:     []*x509.Certificate{cert},
	})

	var buf bytes.Buffer
	require.NoError(t, modulefile.WriteSigned(&buf, sections(), signer))

	pf, err := modulefile.Parse(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)

	_, otherCert := selfSignedCert(t)
	trust := StaticTrustStore{Roots: pemEncode(otherCert.Raw)}
	err = Verify(pf, trust, time.Now())
	require.Error(t, err)
	var untrusted *UntrustedChain
	require.ErrorAs(t, err, &untrusted)
}

func pemEncode(der []byte) []byte {
	var buf bytes.Buffer
	_ = pem.Encode(&buf, &pem.Block{Type: "CERTIFICATE", Bytes: der})
	return buf.Bytes()
}
