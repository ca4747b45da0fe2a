package tlsclient

import (
	"crypto/tls"
	"crypto/x509"
	"encoding/pem"
	"errors"

	"golang.org/x/crypto/pkcs12"
)

// LoadKeyMaterial produces the client identity used for handshakes requiring
// client authentication. A nil chain source means client authentication is
// disabled and both results are nil. A chain without a usable private key is
// a configuration error. The password is consulted only for encrypted keys;
// its absence for an unencrypted key is not an error.
//
// A chain source carrying DER-encoded PKCS#12 data may bundle the private key
// with the certificate, in which case no separate key source is needed.
func LoadKeyMaterial(chain, key *Source, password string) (*tls.Certificate, error) {
	if chain == nil {
		return nil, nil
	}

	chainData, err := chain.Read()
	if err != nil {
		return nil, err
	}

	if !isPEM(chainData) {
		return decodePKCS12(chainData, password, chain.Path())
	}

	if key == nil {
		return nil, NewInvalidKeyMaterialError(chain.Path(),
			"private key is required when a certificate chain is supplied")
	}

	keyData, err := key.Read()
	if err != nil {
		return nil, err
	}

	keyPEM, err := decryptKeyPEM(keyData, password, key.Path())
	if err != nil {
		return nil, err
	}

	cert, err := tls.X509KeyPair(chainData, keyPEM)
	if err != nil {
		if errors.Is(err, x509.IncorrectPasswordError) {
			return nil, NewInvalidKeyMaterialErrorWithCause(key.Path(),
				"incorrect password for encrypted key", err)
		}
		return nil, NewInvalidKeyMaterialErrorWithCause(chain.Path(),
			"failed to assemble certificate and key", err)
	}

	attachLeaf(&cert)
	return &cert, nil
}

// isPEM reports whether data contains at least one PEM block.
func isPEM(data []byte) bool {
	block, _ := pem.Decode(data)
	return block != nil
}

// decryptKeyPEM returns PEM key data ready for tls.X509KeyPair, decrypting
// legacy RFC 1423 encrypted blocks when a password is supplied.
func decryptKeyPEM(keyData []byte, password, path string) ([]byte, error) {
	block, _ := pem.Decode(keyData)
	if block == nil {
		return nil, NewInvalidKeyMaterialError(path, "failed to decode PEM block in private key")
	}

	//nolint:staticcheck // SA1019: legacy PEM encryption kept for compatibility
	if !x509.IsEncryptedPEMBlock(block) {
		return keyData, nil
	}

	if password == "" {
		return nil, NewInvalidKeyMaterialError(path,
			"private key is encrypted and no password was supplied")
	}

	//nolint:staticcheck // SA1019: legacy PEM encryption kept for compatibility
	der, err := x509.DecryptPEMBlock(block, []byte(password))
	if err != nil {
		return nil, NewInvalidKeyMaterialErrorWithCause(path, "failed to decrypt private key", err)
	}

	return pem.EncodeToMemory(&pem.Block{
		Type:  block.Type,
		Bytes: der,
	}), nil
}

// decodePKCS12 extracts the client identity from a PKCS#12 bundle.
func decodePKCS12(data []byte, password, path string) (*tls.Certificate, error) {
	priv, leaf, err := pkcs12.Decode(data, password)
	if err != nil {
		return nil, NewInvalidKeyMaterialErrorWithCause(path, "failed to decode PKCS#12 bundle", err)
	}

	return &tls.Certificate{
		Certificate: [][]byte{leaf.Raw},
		PrivateKey:  priv,
		Leaf:        leaf,
	}, nil
}

// attachLeaf parses and attaches the leaf certificate so downstream code can
// inspect expiry and subject without re-parsing.
func attachLeaf(cert *tls.Certificate) {
	if len(cert.Certificate) == 0 || cert.Leaf != nil {
		return
	}
	if leaf, err := x509.ParseCertificate(cert.Certificate[0]); err == nil {
		cert.Leaf = leaf
	}
}
