package tlsclient

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"slices"

	"github.com/vyrodovalexey/tlsctx/pkg/observability"
)

// Config holds the named optional inputs for building a client TLS context.
// Every field has a usable zero value; an empty Config yields a context that
// trusts the platform store, uses default cipher suites, and performs no
// client authentication.
type Config struct {
	// CertChain is the client certificate chain in PEM form (or a PKCS#12
	// bundle). Nil disables client authentication.
	CertChain *Source

	// Key is the client private key in PEM form. Required when CertChain is
	// a PEM source.
	Key *Source

	// KeyPassword decrypts an encrypted private key. Ignored for
	// unencrypted keys.
	KeyPassword string

	// ServerCertChain derives the trust provider from a PEM certificate
	// chain. Takes precedence over RootCAs.
	ServerCertChain *Source

	// RootCAs is an explicit trust provider. Used only when ServerCertChain
	// is absent.
	RootCAs *x509.CertPool

	// CipherSuites lists cipher suite names in preference order. Empty
	// leaves the platform default suites.
	CipherSuites []string

	// CurvePreferences lists ECDH curve names in preference order. Empty
	// leaves the platform defaults.
	CurvePreferences []string

	// NextProtos lists application-layer protocol names for negotiation, in
	// preference order. Empty disables the negotiation extension.
	NextProtos []string

	// MinVersion and MaxVersion bound the negotiated protocol version
	// ("TLS10" through "TLS13"). Empty leaves the platform defaults.
	MinVersion string
	MaxVersion string

	// ServerName is the expected server name for verification and SNI.
	ServerName string

	// InsecureSkipVerify disables server certificate verification. For
	// development and testing only.
	InsecureSkipVerify bool

	// SessionCache tunes session resumption caching.
	SessionCache SessionCacheSettings
}

// KeyMaterialProvider supplies the client identity dynamically, allowing key
// material to change between handshakes (for example via hot-reload).
type KeyMaterialProvider interface {
	GetClientCertificate(info *tls.CertificateRequestInfo) (*tls.Certificate, error)
}

// builder collects the injected collaborators for a single build.
type builder struct {
	logger   observability.Logger
	metrics  MetricsRecorder
	provider KeyMaterialProvider
}

// Option is a functional option for Build.
type Option func(*builder)

// WithLogger sets the logger used during context assembly.
func WithLogger(logger observability.Logger) Option {
	return func(b *builder) {
		b.logger = logger
	}
}

// WithMetrics sets the metrics recorder used during context assembly.
func WithMetrics(metrics MetricsRecorder) Option {
	return func(b *builder) {
		b.metrics = metrics
	}
}

// WithKeyMaterialProvider supplies the client identity through a dynamic
// provider instead of Config.CertChain and Config.Key.
func WithKeyMaterialProvider(provider KeyMaterialProvider) Option {
	return func(b *builder) {
		b.provider = provider
	}
}

// ClientContext is an immutable client-side TLS context. It is safe for
// unsynchronized concurrent use by many simultaneous connection attempts.
type ClientContext struct {
	cfg         *tls.Config
	nextProtos  []string
	trustSource TrustSource
	clientAuth  bool
}

// Build assembles a client TLS context from the configuration. It is the
// single canonical entry point; the convenience constructors are thin callers
// supplying defaults.
//
// Construction is all-or-nothing: on failure no partially initialized context
// escapes. A non-empty protocol list on a platform without ALPN support fails
// with NegotiationUnsupportedError before any certificate I/O, and a missing
// certificate file fails with ErrCertificateNotFound; every other
// initialization failure is wrapped in ContextInitializationError carrying
// the original cause.
func Build(cfg Config, opts ...Option) (*ClientContext, error) {
	b := &builder{
		logger:  observability.NopLogger(),
		metrics: NewNopMetrics(),
	}
	for _, opt := range opts {
		opt(b)
	}

	ctx, err := b.build(cfg)
	if err != nil {
		b.metrics.RecordBuildError(errorReason(err))
		return nil, err
	}

	b.metrics.RecordBuild(ctx.trustSource, ctx.clientAuth)
	return ctx, nil
}

func (b *builder) build(cfg Config) (*ClientContext, error) {
	// Protocol validation happens before any certificate I/O.
	nextProtos, err := NormalizeProtocols(cfg.NextProtos)
	if err != nil {
		return nil, err
	}

	cert, err := LoadKeyMaterial(cfg.CertChain, cfg.Key, cfg.KeyPassword)
	if err != nil {
		return nil, wrapInit(err)
	}

	trustPool, trustSource, err := ResolveTrust(cfg.ServerCertChain, cfg.RootCAs, b.logger)
	if err != nil {
		return nil, wrapInit(err)
	}

	tlsCfg, err := b.initTLSConfig(cfg, cert, trustPool)
	if err != nil {
		return nil, wrapInit(err)
	}

	cfg.SessionCache.apply(tlsCfg, b.logger)

	if len(nextProtos) > 0 {
		tlsCfg.NextProtos = slices.Clone(nextProtos)
	}

	clientAuth := cert != nil || b.provider != nil
	if cert != nil {
		b.metrics.UpdateCertificateExpiryFromTLS(cert, "client")
	}

	b.logger.Info("client TLS context assembled",
		observability.String("trust", trustSource.String()),
		observability.Bool("clientAuth", clientAuth),
		observability.Strings("nextProtos", nextProtos),
	)

	return &ClientContext{
		cfg:         tlsCfg,
		nextProtos:  nextProtos,
		trustSource: trustSource,
		clientAuth:  clientAuth,
	}, nil
}

// initTLSConfig initializes the underlying platform TLS configuration from
// the resolved key material and trust provider.
func (b *builder) initTLSConfig(cfg Config, cert *tls.Certificate, trustPool *x509.CertPool) (*tls.Config, error) {
	minVersion, err := ParseTLSVersion(cfg.MinVersion)
	if err != nil {
		return nil, err
	}
	maxVersion, err := ParseTLSVersion(cfg.MaxVersion)
	if err != nil {
		return nil, err
	}

	suites, err := ParseCipherSuites(cfg.CipherSuites)
	if err != nil {
		return nil, err
	}

	curves, err := ParseCurvePreferences(cfg.CurvePreferences)
	if err != nil {
		return nil, err
	}

	tlsCfg := &tls.Config{
		RootCAs:            trustPool,
		MinVersion:         minVersion,
		MaxVersion:         maxVersion,
		CipherSuites:       suites,
		CurvePreferences:   curves,
		ServerName:         cfg.ServerName,
		InsecureSkipVerify: cfg.InsecureSkipVerify, //nolint:gosec // intentional opt-in for dev/testing
	}

	if tlsCfg.MinVersion == 0 {
		tlsCfg.MinVersion = tls.VersionTLS12
	}

	switch {
	case b.provider != nil:
		tlsCfg.GetClientCertificate = b.provider.GetClientCertificate
	case cert != nil:
		tlsCfg.Certificates = []tls.Certificate{*cert}
	}

	return tlsCfg, nil
}

// IsClient reports whether this context is for the client side of a
// connection. Always true for this variant.
func (c *ClientContext) IsClient() bool {
	return true
}

// NextProtos returns the normalized application-layer protocol list. An
// empty list means the negotiation extension is disabled.
func (c *ClientContext) NextProtos() []string {
	return slices.Clone(c.nextProtos)
}

// TrustSource returns the active trust source.
func (c *ClientContext) TrustSource() TrustSource {
	return c.trustSource
}

// HasClientAuth reports whether the context carries a client identity.
func (c *ClientContext) HasClientAuth() bool {
	return c.clientAuth
}

// TLSConfig returns a clone of the underlying platform TLS configuration for
// use by the connection layer. Cloning keeps the context itself immutable.
// The clone shares the session cache so resumption works across connections.
func (c *ClientContext) TLSConfig() *tls.Config {
	return c.cfg.Clone()
}

// NewDefault builds a context that trusts the platform store with no client
// identity.
func NewDefault(opts ...Option) (*ClientContext, error) {
	return Build(Config{}, opts...)
}

// NewWithServerCA builds a context that trusts the given PEM certificate
// chain file.
func NewWithServerCA(caFile string, opts ...Option) (*ClientContext, error) {
	return Build(Config{ServerCertChain: FileSource(caFile)}, opts...)
}

// NewWithClientIdentity builds a context with a client identity loaded from
// PEM files, trusting the given CA chain file (or the platform store when
// caFile is empty).
func NewWithClientIdentity(certFile, keyFile, caFile string, opts ...Option) (*ClientContext, error) {
	cfg := Config{
		CertChain: FileSource(certFile),
		Key:       FileSource(keyFile),
	}
	if caFile != "" {
		cfg.ServerCertChain = FileSource(caFile)
	}
	return Build(cfg, opts...)
}

// wrapInit wraps an initialization failure, letting the early-validated
// certificate-not-found signal pass through unwrapped.
func wrapInit(err error) error {
	if errors.Is(err, ErrCertificateNotFound) {
		return err
	}
	return &ContextInitializationError{Cause: err}
}

// errorReason maps a build error to a stable metrics label.
func errorReason(err error) string {
	switch {
	case errors.Is(err, ErrCertificateNotFound):
		return "certificate_not_found"
	case errors.Is(err, &NegotiationUnsupportedError{}):
		return "negotiation_unsupported"
	case errors.Is(err, &InvalidKeyMaterialError{}):
		return "invalid_key_material"
	case errors.Is(err, &TrustConfigurationError{}):
		return "trust_configuration"
	default:
		return "initialization"
	}
}
