// Package tlsclient configures and instantiates client-side TLS contexts.
//
// The package reconciles optional, overlapping inputs into one validated,
// immutable ClientContext that a connection layer can use to negotiate secure
// sessions with a server. Inputs include certificate material from files,
// streams, or memory, explicit or certificate-derived trust, cipher and
// protocol preferences, and session cache tuning. It orchestrates policy
// only; certificate parsing, signature verification, and the handshake
// itself are delegated to crypto/tls and crypto/x509.
//
// # Building a context
//
// Build is the single canonical entry point. Every field of Config is
// optional; the convenience constructors are thin callers supplying defaults:
//
//	ctx, err := tlsclient.Build(tlsclient.Config{
//	    CertChain:       tlsclient.FileSource("/path/to/client-cert.pem"),
//	    Key:             tlsclient.FileSource("/path/to/client-key.pem"),
//	    ServerCertChain: tlsclient.FileSource("/path/to/ca.pem"),
//	    NextProtos:      []string{"h2", "http/1.1"},
//	    SessionCache:    tlsclient.SessionCacheSettings{Size: 1024, Timeout: 300},
//	}, tlsclient.WithLogger(logger))
//	if err != nil {
//	    return err
//	}
//
//	conn, err := tls.Dial("tcp", addr, ctx.TLSConfig())
//
// # Trust resolution
//
// Exactly one trust source is active per context, resolved by precedence:
// a server certificate chain source overrides an explicit pool (a deliberate
// asymmetry, logged as a warning when both are supplied), an explicit pool is
// used when no chain is given, and the platform trust store is the fallback.
//
// # Error taxonomy
//
// Callers branch on the error kinds with errors.Is and errors.As:
// ErrCertificateNotFound, InvalidKeyMaterialError, TrustConfigurationError,
// NegotiationUnsupportedError, and ContextInitializationError, which wraps
// all remaining initialization failures while preserving the cause chain.
//
// # Hot reload
//
// ReloadingKeyMaterial watches the client certificate and key files and
// swaps the identity atomically, so rotated certificates are picked up by
// new handshakes without rebuilding the context:
//
//	provider, err := tlsclient.NewReloadingKeyMaterial(certFile, keyFile,
//	    tlsclient.WithReloadLogger(logger))
//	if err != nil {
//	    return err
//	}
//	defer provider.Close()
//
//	if err := provider.Start(ctx); err != nil {
//	    return err
//	}
//
//	clientCtx, err := tlsclient.Build(cfg, tlsclient.WithKeyMaterialProvider(provider))
package tlsclient
