package signing

import (
	"crypto/x509"
	"os"
)

// TrustStoreEnvVar is the named environment setting spec §6's "Trust
// store" entry names as overriding the default source path.
const TrustStoreEnvVar = "MODSYS_TRUST_STORE_PATH"

// FileTrustStore loads trusted roots and intermediates from PEM files on
// disk.
type FileTrustStore struct {
	roots         *x509.CertPool
	intermediates *x509.CertPool
}

// LoadTrustStore reads the root and intermediate PEM bundles at the given
// paths. If rootsPath is empty, TrustStoreEnvVar is consulted; if that too
// is unset, LoadTrustStore falls back to defaultRootsPath.
func LoadTrustStore(rootsPath, intermediatesPath, defaultRootsPath string) (*FileTrustStore, error) {
	if rootsPath == "" {
		rootsPath = os.Getenv(TrustStoreEnvVar)
	}
	if rootsPath == "" {
		rootsPath = defaultRootsPath
	}

	roots, err := loadCertPool(rootsPath)
	if err != nil {
		return nil, err
	}

	intermediates := x509.NewCertPool()
	if intermediatesPath != "" {
		intermediates, err = loadCertPool(intermediatesPath)
		if err != nil {
			return nil, err
		}
	}

	return &FileTrustStore{roots: roots, intermediates: intermediates}, nil
}

func loadCertPool(path string) (*x509.CertPool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(data) {
		return nil, &FormatError{Reason: "no certificates found in " + path}
	}
	return pool, nil
}

// Pools implements TrustStore.
func (s *FileTrustStore) Pools() (*x509.CertPool, *x509.CertPool) {
	return s.roots, s.intermediates
}

// StaticTrustStore wraps an already-loaded certificate list, mainly for
// tests that don't want to touch disk.
type StaticTrustStore struct {
	Roots         []byte // concatenated PEM
	Intermediates []byte
}

func (s StaticTrustStore) Pools() (*x509.CertPool, *x509.CertPool) {
	roots := x509.NewCertPool()
	roots.AppendCertsFromPEM(s.Roots)
	intermediates := x509.NewCertPool()
	if len(s.Intermediates) > 0 {
		intermediates.AppendCertsFromPEM(s.Intermediates)
	}
	return roots, intermediates
}
