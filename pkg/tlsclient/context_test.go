package tlsclient

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuild_Empty(t *testing.T) {
	ctx, err := Build(Config{})
	require.NoError(t, err)

	assert.True(t, ctx.IsClient())
	assert.False(t, ctx.HasClientAuth())
	assert.Equal(t, TrustSourceSystem, ctx.TrustSource())
	assert.Empty(t, ctx.NextProtos())

	cfg := ctx.TLSConfig()
	assert.Equal(t, uint16(tls.VersionTLS12), cfg.MinVersion)
	assert.Empty(t, cfg.NextProtos)
	assert.Nil(t, cfg.ClientSessionCache)
}

func TestBuild_ClientIdentityWithDefaultTrust(t *testing.T) {
	pems := generateTestPEM(t)

	ctx, err := Build(Config{
		CertChain: BytesSource(pems.ClientCertPEM),
		Key:       BytesSource(pems.ClientKeyPEM),
	})
	require.NoError(t, err)

	assert.True(t, ctx.HasClientAuth())
	assert.Equal(t, TrustSourceSystem, ctx.TrustSource())
	assert.Len(t, ctx.TLSConfig().Certificates, 1)
}

func TestBuild_TrustPrecedenceLaw(t *testing.T) {
	// Supplying both a server chain and an explicit pool always yields
	// certificate-derived trust.
	pems := generateTestPEM(t)

	ctx, err := Build(Config{
		ServerCertChain: BytesSource(pems.CACertPEM),
		RootCAs:         x509.NewCertPool(),
	})
	require.NoError(t, err)
	assert.Equal(t, TrustSourceServerChain, ctx.TrustSource())
}

func TestBuild_ProtocolSentinelStop(t *testing.T) {
	ctx, err := Build(Config{
		NextProtos: []string{"h2", "http/1.1", "", "spdy"},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"h2", "http/1.1"}, ctx.NextProtos())
	assert.Equal(t, []string{"h2", "http/1.1"}, ctx.TLSConfig().NextProtos)
}

func TestBuild_NegotiationUnsupportedBeforeFileIO(t *testing.T) {
	withALPNUnavailable(t)

	// The certificate path does not exist; the ALPN failure must win because
	// protocol validation precedes any certificate I/O.
	_, err := Build(Config{
		CertChain:  FileSource("/nonexistent/cert.pem"),
		Key:        FileSource("/nonexistent/key.pem"),
		NextProtos: []string{"h2"},
	})
	require.Error(t, err)

	var negErr *NegotiationUnsupportedError
	require.ErrorAs(t, err, &negErr)
	assert.Equal(t, []string{"h2"}, negErr.Protocols)
	assert.NotErrorIs(t, err, ErrCertificateNotFound)
}

func TestBuild_EmptyProtocolsOnIncapablePlatform(t *testing.T) {
	withALPNUnavailable(t)

	ctx, err := Build(Config{})
	require.NoError(t, err)
	assert.Empty(t, ctx.NextProtos())
}

func TestBuild_CertificateNotFoundNotWrapped(t *testing.T) {
	pems := generateTestPEM(t)

	// Other inputs are valid; the missing file still surfaces unwrapped.
	_, err := Build(Config{
		CertChain:       FileSource("/nonexistent/cert.pem"),
		Key:             BytesSource(pems.ClientKeyPEM),
		ServerCertChain: BytesSource(pems.CACertPEM),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCertificateNotFound)
	assert.NotErrorIs(t, err, &ContextInitializationError{})
}

func TestBuild_KeyMaterialErrorWrapped(t *testing.T) {
	pems := generateTestPEM(t)

	_, err := Build(Config{
		CertChain: BytesSource(pems.ClientCertPEM),
		Key:       BytesSource([]byte("garbage")),
	})
	require.Error(t, err)

	assert.ErrorIs(t, err, &ContextInitializationError{})

	var keyErr *InvalidKeyMaterialError
	assert.ErrorAs(t, err, &keyErr)
}

func TestBuild_TrustErrorWrapped(t *testing.T) {
	_, err := Build(Config{
		ServerCertChain: BytesSource([]byte("garbage")),
	})
	require.Error(t, err)

	assert.ErrorIs(t, err, &ContextInitializationError{})

	var trustErr *TrustConfigurationError
	assert.ErrorAs(t, err, &trustErr)
}

func TestBuild_InvalidVersionWrapped(t *testing.T) {
	_, err := Build(Config{MinVersion: "SSL30"})
	require.Error(t, err)

	assert.ErrorIs(t, err, &ContextInitializationError{})
	assert.ErrorIs(t, err, ErrTLSVersionInvalid)
}

func TestBuild_InvalidCipherSuiteWrapped(t *testing.T) {
	_, err := Build(Config{CipherSuites: []string{"BOGUS"}})
	require.Error(t, err)

	assert.ErrorIs(t, err, &ContextInitializationError{})
	assert.ErrorIs(t, err, ErrCipherSuiteInvalid)
}

func TestBuild_VersionAndCipherPreferences(t *testing.T) {
	ctx, err := Build(Config{
		MinVersion:       "TLS13",
		MaxVersion:       "TLS13",
		CipherSuites:     []string{"TLS_ECDHE_RSA_WITH_AES_256_GCM_SHA384"},
		CurvePreferences: []string{"X25519"},
		ServerName:       "example.com",
	})
	require.NoError(t, err)

	cfg := ctx.TLSConfig()
	assert.Equal(t, uint16(tls.VersionTLS13), cfg.MinVersion)
	assert.Equal(t, uint16(tls.VersionTLS13), cfg.MaxVersion)
	assert.Equal(t, []uint16{tls.TLS_ECDHE_RSA_WITH_AES_256_GCM_SHA384}, cfg.CipherSuites)
	assert.Equal(t, []tls.CurveID{tls.X25519}, cfg.CurvePreferences)
	assert.Equal(t, "example.com", cfg.ServerName)
}

func TestBuild_SessionCache(t *testing.T) {
	tests := []struct {
		name      string
		settings  SessionCacheSettings
		wantCache bool
	}{
		{name: "negative size leaves default", settings: SessionCacheSettings{Size: -5}},
		{name: "zero leaves default", settings: SessionCacheSettings{}},
		{name: "positive size applies", settings: SessionCacheSettings{Size: 100}, wantCache: true},
		{name: "oversized size clamps and applies", settings: SessionCacheSettings{Size: math.MaxInt32 + 1}, wantCache: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, err := Build(Config{SessionCache: tt.settings})
			require.NoError(t, err)

			cache := ctx.TLSConfig().ClientSessionCache
			if tt.wantCache {
				assert.NotNil(t, cache)
			} else {
				assert.Nil(t, cache)
			}
		})
	}
}

func TestBuild_IndependentContexts(t *testing.T) {
	pems := generateTestPEM(t)
	certFile, keyFile, caFile := writeTestCertificateFiles(t, pems)

	mkConfig := func() Config {
		return Config{
			CertChain:       FileSource(certFile),
			Key:             FileSource(keyFile),
			ServerCertChain: FileSource(caFile),
			NextProtos:      []string{"h2"},
		}
	}

	first, err := Build(mkConfig())
	require.NoError(t, err)
	second, err := Build(mkConfig())
	require.NoError(t, err)

	assert.NotSame(t, first, second)
	assert.Equal(t, first.NextProtos(), second.NextProtos())
	assert.Equal(t, first.TrustSource(), second.TrustSource())

	// Mutating one context's config handle must not leak into the other.
	cfgA := first.TLSConfig()
	cfgA.ServerName = "mutated"
	assert.Empty(t, second.TLSConfig().ServerName)
	assert.Empty(t, first.TLSConfig().ServerName)
}

func TestBuild_TLSConfigIsClone(t *testing.T) {
	ctx, err := Build(Config{})
	require.NoError(t, err)

	a := ctx.TLSConfig()
	b := ctx.TLSConfig()
	assert.NotSame(t, a, b)

	a.InsecureSkipVerify = true
	assert.False(t, b.InsecureSkipVerify)
	assert.False(t, ctx.TLSConfig().InsecureSkipVerify)
}

func TestBuild_SourceConsumedRejected(t *testing.T) {
	pems := generateTestPEM(t)

	src := BytesSource(pems.CACertPEM)
	_, err := src.Read()
	require.NoError(t, err)

	_, err = Build(Config{ServerCertChain: src})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSourceConsumed)
}

func TestBuild_WithKeyMaterialProvider(t *testing.T) {
	pems := generateTestPEM(t)
	certFile, keyFile, _ := writeTestCertificateFiles(t, pems)

	provider, err := NewReloadingKeyMaterial(certFile, keyFile)
	require.NoError(t, err)
	defer provider.Close()

	ctx, err := Build(Config{}, WithKeyMaterialProvider(provider))
	require.NoError(t, err)

	assert.True(t, ctx.HasClientAuth())
	assert.NotNil(t, ctx.TLSConfig().GetClientCertificate)
}

func TestBuild_RecordsMetrics(t *testing.T) {
	recorder := &fakeRecorder{}

	_, err := Build(Config{}, WithMetrics(recorder))
	require.NoError(t, err)
	assert.Equal(t, 1, recorder.builds)

	_, err = Build(Config{ServerCertChain: BytesSource([]byte("garbage"))}, WithMetrics(recorder))
	require.Error(t, err)
	assert.Equal(t, []string{"trust_configuration"}, recorder.errors)
}

func TestNewDefault(t *testing.T) {
	ctx, err := NewDefault()
	require.NoError(t, err)
	assert.Equal(t, TrustSourceSystem, ctx.TrustSource())
	assert.False(t, ctx.HasClientAuth())
}

func TestNewWithServerCA(t *testing.T) {
	_, _, caFile := writeTestCertificateFiles(t, generateTestPEM(t))

	ctx, err := NewWithServerCA(caFile)
	require.NoError(t, err)
	assert.Equal(t, TrustSourceServerChain, ctx.TrustSource())
}

func TestNewWithClientIdentity(t *testing.T) {
	certFile, keyFile, caFile := writeTestCertificateFiles(t, generateTestPEM(t))

	ctx, err := NewWithClientIdentity(certFile, keyFile, caFile)
	require.NoError(t, err)
	assert.True(t, ctx.HasClientAuth())
	assert.Equal(t, TrustSourceServerChain, ctx.TrustSource())

	ctx, err = NewWithClientIdentity(certFile, keyFile, "")
	require.NoError(t, err)
	assert.Equal(t, TrustSourceSystem, ctx.TrustSource())
}

func TestErrorReason(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "not found", err: ErrCertificateNotFound, want: "certificate_not_found"},
		{name: "negotiation", err: &NegotiationUnsupportedError{Protocols: []string{"h2"}}, want: "negotiation_unsupported"},
		{name: "key material", err: wrapInit(NewInvalidKeyMaterialError("", "bad")), want: "invalid_key_material"},
		{name: "trust", err: wrapInit(NewTrustConfigurationError("", "bad")), want: "trust_configuration"},
		{name: "other", err: wrapInit(errors.New("boom")), want: "initialization"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, errorReason(tt.err))
		})
	}
}

// fakeRecorder counts metric calls for assembly tests.
type fakeRecorder struct {
	NopMetrics
	builds int
	errors []string
}

func (r *fakeRecorder) RecordBuild(_ TrustSource, _ bool) {
	r.builds++
}

func (r *fakeRecorder) RecordBuildError(reason string) {
	r.errors = append(r.errors, reason)
}
