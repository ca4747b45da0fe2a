package tlsclient

import "slices"

// alpnAvailable reports whether the TLS stack supports application-layer
// protocol negotiation. It is a pure, process-wide capability query invoked
// once per context build; package tests swap it to exercise the unsupported
// path. Go's crypto/tls has shipped ALPN since 1.4.
var alpnAvailable = func() bool {
	return true
}

// NormalizeProtocols validates and normalizes the ordered list of
// application-layer protocol names for negotiation.
//
// A non-empty input requires ALPN support; without it the call fails with
// NegotiationUnsupportedError naming the requested list. An empty or nil
// input disables the negotiation extension and never fails, regardless of
// platform capability.
//
// Iteration stops at (and excludes) the first empty entry. This sentinel-stop
// behavior is preserved from legacy callers that rely on it to truncate the
// list; it is not a pattern to copy for new list-like inputs. Duplicates are
// permitted and order is preserved.
func NormalizeProtocols(protocols []string) ([]string, error) {
	if len(protocols) == 0 {
		return []string{}, nil
	}

	if !alpnAvailable() {
		return nil, &NegotiationUnsupportedError{Protocols: slices.Clone(protocols)}
	}

	normalized := make([]string, 0, len(protocols))
	for _, p := range protocols {
		if p == "" {
			break
		}
		normalized = append(normalized, p)
	}

	return normalized, nil
}
