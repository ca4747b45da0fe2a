package tlsclient

import (
	"crypto/tls"
	"fmt"
	"strings"
)

// CipherSuite represents a TLS cipher suite with metadata.
type CipherSuite struct {
	// ID is the cipher suite ID.
	ID uint16

	// Name is the cipher suite name.
	Name string

	// Secure indicates if this is a secure cipher suite.
	Secure bool

	// TLS13 indicates if this is a TLS 1.3 cipher suite.
	TLS13 bool
}

// cipherSuiteRegistry maps cipher suite names to their configurations.
var cipherSuiteRegistry = map[string]CipherSuite{
	// TLS 1.3 cipher suites (always secure)
	"TLS_AES_128_GCM_SHA256": {
		ID:     tls.TLS_AES_128_GCM_SHA256,
		Name:   "TLS_AES_128_GCM_SHA256",
		Secure: true,
		TLS13:  true,
	},
	"TLS_AES_256_GCM_SHA384": {
		ID:     tls.TLS_AES_256_GCM_SHA384,
		Name:   "TLS_AES_256_GCM_SHA384",
		Secure: true,
		TLS13:  true,
	},
	"TLS_CHACHA20_POLY1305_SHA256": {
		ID:     tls.TLS_CHACHA20_POLY1305_SHA256,
		Name:   "TLS_CHACHA20_POLY1305_SHA256",
		Secure: true,
		TLS13:  true,
	},

	// TLS 1.2 secure cipher suites
	"TLS_ECDHE_ECDSA_WITH_AES_128_GCM_SHA256": {
		ID:     tls.TLS_ECDHE_ECDSA_WITH_AES_128_GCM_SHA256,
		Name:   "TLS_ECDHE_ECDSA_WITH_AES_128_GCM_SHA256",
		Secure: true,
	},
	"TLS_ECDHE_ECDSA_WITH_AES_256_GCM_SHA384": {
		ID:     tls.TLS_ECDHE_ECDSA_WITH_AES_256_GCM_SHA384,
		Name:   "TLS_ECDHE_ECDSA_WITH_AES_256_GCM_SHA384",
		Secure: true,
	},
	"TLS_ECDHE_RSA_WITH_AES_128_GCM_SHA256": {
		ID:     tls.TLS_ECDHE_RSA_WITH_AES_128_GCM_SHA256,
		Name:   "TLS_ECDHE_RSA_WITH_AES_128_GCM_SHA256",
		Secure: true,
	},
	"TLS_ECDHE_RSA_WITH_AES_256_GCM_SHA384": {
		ID:     tls.TLS_ECDHE_RSA_WITH_AES_256_GCM_SHA384,
		Name:   "TLS_ECDHE_RSA_WITH_AES_256_GCM_SHA384",
		Secure: true,
	},
	"TLS_ECDHE_ECDSA_WITH_CHACHA20_POLY1305_SHA256": {
		ID:     tls.TLS_ECDHE_ECDSA_WITH_CHACHA20_POLY1305_SHA256,
		Name:   "TLS_ECDHE_ECDSA_WITH_CHACHA20_POLY1305_SHA256",
		Secure: true,
	},
	"TLS_ECDHE_RSA_WITH_CHACHA20_POLY1305_SHA256": {
		ID:     tls.TLS_ECDHE_RSA_WITH_CHACHA20_POLY1305_SHA256,
		Name:   "TLS_ECDHE_RSA_WITH_CHACHA20_POLY1305_SHA256",
		Secure: true,
	},

	// Legacy cipher suites (not recommended)
	"TLS_ECDHE_ECDSA_WITH_AES_128_CBC_SHA": {
		ID:   tls.TLS_ECDHE_ECDSA_WITH_AES_128_CBC_SHA,
		Name: "TLS_ECDHE_ECDSA_WITH_AES_128_CBC_SHA",
	},
	"TLS_ECDHE_RSA_WITH_AES_128_CBC_SHA": {
		ID:   tls.TLS_ECDHE_RSA_WITH_AES_128_CBC_SHA,
		Name: "TLS_ECDHE_RSA_WITH_AES_128_CBC_SHA",
	},
	"TLS_RSA_WITH_AES_128_GCM_SHA256": {
		ID:   tls.TLS_RSA_WITH_AES_128_GCM_SHA256,
		Name: "TLS_RSA_WITH_AES_128_GCM_SHA256",
	},
	"TLS_RSA_WITH_AES_256_GCM_SHA384": {
		ID:   tls.TLS_RSA_WITH_AES_256_GCM_SHA384,
		Name: "TLS_RSA_WITH_AES_256_GCM_SHA384",
	},
	"TLS_RSA_WITH_AES_128_CBC_SHA": {
		ID:   tls.TLS_RSA_WITH_AES_128_CBC_SHA,
		Name: "TLS_RSA_WITH_AES_128_CBC_SHA",
	},
}

// curveRegistry maps curve names to their tls.CurveID values.
var curveRegistry = map[string]tls.CurveID{
	"X25519": tls.X25519,
	"P256":   tls.CurveP256,
	"P384":   tls.CurveP384,
	"P521":   tls.CurveP521,
}

// DefaultSecureCipherSuites returns the default secure cipher suites for
// TLS 1.2. TLS 1.3 cipher suites are managed by Go and cannot be configured.
func DefaultSecureCipherSuites() []uint16 {
	return []uint16{
		tls.TLS_ECDHE_ECDSA_WITH_AES_256_GCM_SHA384,
		tls.TLS_ECDHE_RSA_WITH_AES_256_GCM_SHA384,
		tls.TLS_ECDHE_ECDSA_WITH_AES_128_GCM_SHA256,
		tls.TLS_ECDHE_RSA_WITH_AES_128_GCM_SHA256,
		tls.TLS_ECDHE_ECDSA_WITH_CHACHA20_POLY1305_SHA256,
		tls.TLS_ECDHE_RSA_WITH_CHACHA20_POLY1305_SHA256,
	}
}

// DefaultCurvePreferences returns the default ECDH curve preferences.
func DefaultCurvePreferences() []tls.CurveID {
	return []tls.CurveID{
		tls.X25519,
		tls.CurveP256,
		tls.CurveP384,
	}
}

// ParseCipherSuites parses cipher suite names in preference order and returns
// their IDs. An empty input returns nil, leaving the platform default suites
// in effect.
func ParseCipherSuites(names []string) ([]uint16, error) {
	if len(names) == 0 {
		return nil, nil
	}

	suites := make([]uint16, 0, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}

		suite, ok := cipherSuiteRegistry[name]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrCipherSuiteInvalid, name)
		}

		// TLS 1.3 suites are not configurable in crypto/tls
		if suite.TLS13 {
			continue
		}

		suites = append(suites, suite.ID)
	}

	if len(suites) == 0 {
		return nil, nil
	}

	return suites, nil
}

// ParseCurvePreferences parses curve names and returns their IDs. An empty
// input returns nil, leaving the platform default curves in effect.
func ParseCurvePreferences(names []string) ([]tls.CurveID, error) {
	if len(names) == 0 {
		return nil, nil
	}

	curves := make([]tls.CurveID, 0, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}

		curve, ok := curveRegistry[name]
		if !ok {
			return nil, fmt.Errorf("invalid curve: %s", name)
		}

		curves = append(curves, curve)
	}

	return curves, nil
}

// GetCipherSuiteByID returns information about a cipher suite by ID.
func GetCipherSuiteByID(id uint16) (CipherSuite, bool) {
	for _, suite := range cipherSuiteRegistry {
		if suite.ID == id {
			return suite, true
		}
	}
	return CipherSuite{}, false
}

// CipherSuiteName returns the name of a cipher suite by ID.
func CipherSuiteName(id uint16) string {
	if suite, ok := GetCipherSuiteByID(id); ok {
		return suite.Name
	}
	return fmt.Sprintf("0x%04X", id)
}

// CurveName returns the name of an ECDH curve by ID.
func CurveName(id tls.CurveID) string {
	for name, curve := range curveRegistry {
		if curve == id {
			return name
		}
	}
	return fmt.Sprintf("0x%04X", uint16(id))
}

// ParseTLSVersion parses a TLS version name to the crypto/tls constant. An
// empty name returns zero, letting the platform choose.
func ParseTLSVersion(version string) (uint16, error) {
	switch version {
	case "":
		return 0, nil
	case "TLS10":
		return tls.VersionTLS10, nil
	case "TLS11":
		return tls.VersionTLS11, nil
	case "TLS12":
		return tls.VersionTLS12, nil
	case "TLS13":
		return tls.VersionTLS13, nil
	default:
		return 0, fmt.Errorf("%w: %s", ErrTLSVersionInvalid, version)
	}
}

// TLSVersionName returns the human-readable name of a TLS version.
func TLSVersionName(version uint16) string {
	switch version {
	case tls.VersionTLS10:
		return "TLS 1.0"
	case tls.VersionTLS11:
		return "TLS 1.1"
	case tls.VersionTLS12:
		return "TLS 1.2"
	case tls.VersionTLS13:
		return "TLS 1.3"
	default:
		return fmt.Sprintf("0x%04X", version)
	}
}
