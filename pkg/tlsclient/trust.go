package tlsclient

import (
	"crypto/x509"
	"errors"

	"github.com/vyrodovalexey/tlsctx/pkg/observability"
)

// TrustSource names where the active trust provider came from. Exactly one
// trust source is active per context.
type TrustSource string

// Trust source constants.
const (
	// TrustSourceServerChain derives trust from a supplied server certificate chain.
	TrustSourceServerChain TrustSource = "server-chain"

	// TrustSourceExplicit uses a caller-supplied certificate pool.
	TrustSourceExplicit TrustSource = "explicit"

	// TrustSourceSystem uses the platform trust store.
	TrustSourceSystem TrustSource = "system"
)

// String returns the string representation of the trust source.
func (s TrustSource) String() string {
	return string(s)
}

// ResolveTrust resolves the trust provider for server certificate
// verification. A server certificate chain source takes precedence over an
// explicitly supplied pool; this asymmetry is intentional and a warning is
// logged when both are present. With neither, the platform trust store is
// used.
func ResolveTrust(serverChain *Source, explicit *x509.CertPool, logger observability.Logger) (*x509.CertPool, TrustSource, error) {
	if logger == nil {
		logger = observability.NopLogger()
	}

	if serverChain != nil {
		if explicit != nil {
			logger.Warn("server certificate chain overrides the explicit trust provider",
				observability.String("source", serverChain.Describe()),
			)
		}

		pool, err := trustPoolFromChain(serverChain)
		if err != nil {
			return nil, "", err
		}
		return pool, TrustSourceServerChain, nil
	}

	if explicit != nil {
		return explicit, TrustSourceExplicit, nil
	}

	pool, err := x509.SystemCertPool()
	if err != nil {
		return nil, "", NewTrustConfigurationErrorWithCause("system",
			"failed to load platform trust store", err)
	}
	return pool, TrustSourceSystem, nil
}

// trustPoolFromChain builds a certificate pool from a PEM chain source.
func trustPoolFromChain(chain *Source) (*x509.CertPool, error) {
	data, err := chain.Read()
	if err != nil {
		if errors.Is(err, ErrCertificateNotFound) {
			return nil, err
		}
		return nil, NewTrustConfigurationErrorWithCause(chain.Describe(),
			"failed to read server certificate chain", err)
	}

	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(data) {
		return nil, NewTrustConfigurationError(chain.Describe(),
			"failed to parse server certificate chain")
	}

	return pool, nil
}
