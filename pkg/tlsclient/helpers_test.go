package tlsclient

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// testPEM holds runtime-generated PEM material shared by tests.
type testPEM struct {
	CACertPEM     []byte
	ClientCertPEM []byte
	ClientKeyPEM  []byte
}

// generateTestPEM generates a CA and a CA-signed client certificate.
func generateTestPEM(t *testing.T) testPEM {
	t.Helper()

	caKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	caTemplate := &x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject: pkix.Name{
			CommonName:   "Test CA",
			Organization: []string{"Test Org"},
		},
		NotBefore:             time.Now().Add(-1 * time.Hour),
		NotAfter:              time.Now().Add(24 * time.Hour),
		KeyUsage:              x509.KeyUsageCertSign | x509.KeyUsageCRLSign,
		BasicConstraintsValid: true,
		IsCA:                  true,
	}

	caCertDER, err := x509.CreateCertificate(rand.Reader, caTemplate, caTemplate, &caKey.PublicKey, caKey)
	require.NoError(t, err)

	caCert, err := x509.ParseCertificate(caCertDER)
	require.NoError(t, err)

	clientKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	clientTemplate := &x509.Certificate{
		SerialNumber: big.NewInt(2),
		Subject: pkix.Name{
			CommonName:   "client.example.com",
			Organization: []string{"Test Org"},
		},
		NotBefore:             time.Now().Add(-1 * time.Hour),
		NotAfter:              time.Now().Add(24 * time.Hour),
		KeyUsage:              x509.KeyUsageDigitalSignature,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageClientAuth},
		BasicConstraintsValid: true,
	}

	clientCertDER, err := x509.CreateCertificate(rand.Reader, clientTemplate, caCert, &clientKey.PublicKey, caKey)
	require.NoError(t, err)

	keyDER, err := x509.MarshalECPrivateKey(clientKey)
	require.NoError(t, err)

	return testPEM{
		CACertPEM:     pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: caCertDER}),
		ClientCertPEM: pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: clientCertDER}),
		ClientKeyPEM:  pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: keyDER}),
	}
}

// writeTestCertificateFiles writes PEM material to a temp dir and returns the paths.
func writeTestCertificateFiles(t *testing.T, pems testPEM) (certFile, keyFile, caFile string) {
	t.Helper()

	tempDir := t.TempDir()

	certFile = filepath.Join(tempDir, "client.crt")
	keyFile = filepath.Join(tempDir, "client.key")
	caFile = filepath.Join(tempDir, "ca.crt")

	require.NoError(t, os.WriteFile(certFile, pems.ClientCertPEM, 0600))
	require.NoError(t, os.WriteFile(keyFile, pems.ClientKeyPEM, 0600))
	require.NoError(t, os.WriteFile(caFile, pems.CACertPEM, 0600))

	return certFile, keyFile, caFile
}

// encryptTestKeyPEM encrypts a PEM key with legacy RFC 1423 encryption.
func encryptTestKeyPEM(t *testing.T, keyPEM []byte, password string) []byte {
	t.Helper()

	block, _ := pem.Decode(keyPEM)
	require.NotNil(t, block)

	//nolint:staticcheck // SA1019: legacy encryption exercised on purpose
	encrypted, err := x509.EncryptPEMBlock(rand.Reader, block.Type, block.Bytes, []byte(password), x509.PEMCipherAES256)
	require.NoError(t, err)

	return pem.EncodeToMemory(encrypted)
}

// withALPNUnavailable swaps the capability probe for the duration of a test.
func withALPNUnavailable(t *testing.T) {
	t.Helper()

	orig := alpnAvailable
	alpnAvailable = func() bool { return false }
	t.Cleanup(func() { alpnAvailable = orig })
}
