package tlsclient

import (
	"crypto/tls"
	"crypto/x509"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds Prometheus metrics for client TLS context operations.
type Metrics struct {
	buildsTotal       *prometheus.CounterVec
	buildErrors       *prometheus.CounterVec
	certificateExpiry *prometheus.GaugeVec
	keyMaterialReload *prometheus.CounterVec

	registry *prometheus.Registry
}

// MetricsOption is a functional option for configuring Metrics.
type MetricsOption func(*Metrics)

// WithRegistry sets a custom Prometheus registry.
func WithRegistry(registry *prometheus.Registry) MetricsOption {
	return func(m *Metrics) {
		m.registry = registry
	}
}

// NewMetrics creates a new Metrics instance with the given namespace.
func NewMetrics(namespace string, opts ...MetricsOption) *Metrics {
	if namespace == "" {
		namespace = "tlsctx"
	}

	m := &Metrics{}

	for _, opt := range opts {
		opt(m)
	}

	if m.registry == nil {
		m.registry = prometheus.NewRegistry()
	}

	m.buildsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "client",
			Name:      "context_builds_total",
			Help:      "Total number of client TLS context builds by trust source and client auth",
		},
		[]string{"trust", "client_auth"},
	)

	m.buildErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "client",
			Name:      "context_build_errors_total",
			Help:      "Total number of failed client TLS context builds by reason",
		},
		[]string{"reason"},
	)

	m.certificateExpiry = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "client",
			Name:      "certificate_expiry_seconds",
			Help:      "Time until certificate expiry in seconds",
		},
		[]string{"subject", "type"},
	)

	m.keyMaterialReload = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "client",
			Name:      "key_material_reload_total",
			Help:      "Total number of client key material reload attempts by status",
		},
		[]string{"status"},
	)

	m.registry.MustRegister(
		m.buildsTotal,
		m.buildErrors,
		m.certificateExpiry,
		m.keyMaterialReload,
	)

	return m
}

// RecordBuild records a successful context build.
func (m *Metrics) RecordBuild(trust TrustSource, clientAuth bool) {
	m.buildsTotal.WithLabelValues(string(trust), strconv.FormatBool(clientAuth)).Inc()
}

// RecordBuildError records a failed context build.
func (m *Metrics) RecordBuildError(reason string) {
	m.buildErrors.WithLabelValues(reason).Inc()
}

// UpdateCertificateExpiry updates the certificate expiry metric.
func (m *Metrics) UpdateCertificateExpiry(cert *x509.Certificate, certType string) {
	if cert == nil {
		return
	}

	subject := cert.Subject.CommonName
	if subject == "" {
		subject = cert.Subject.String()
	}

	m.certificateExpiry.WithLabelValues(subject, certType).Set(time.Until(cert.NotAfter).Seconds())
}

// UpdateCertificateExpiryFromTLS updates the certificate expiry metric from a tls.Certificate.
func (m *Metrics) UpdateCertificateExpiryFromTLS(cert *tls.Certificate, certType string) {
	if cert == nil || len(cert.Certificate) == 0 {
		return
	}

	x509Cert := cert.Leaf
	if x509Cert == nil {
		parsed, err := x509.ParseCertificate(cert.Certificate[0])
		if err != nil {
			return
		}
		x509Cert = parsed
	}

	m.UpdateCertificateExpiry(x509Cert, certType)
}

// RecordKeyMaterialReload records a key material reload attempt.
func (m *Metrics) RecordKeyMaterialReload(success bool) {
	status := "success"
	if !success {
		status = "failure"
	}
	m.keyMaterialReload.WithLabelValues(status).Inc()
}

// Registry returns the Prometheus registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// NopMetrics is a no-op implementation of metrics for testing.
type NopMetrics struct{}

// NewNopMetrics creates a new NopMetrics instance.
func NewNopMetrics() *NopMetrics {
	return &NopMetrics{}
}

// RecordBuild is a no-op.
func (m *NopMetrics) RecordBuild(_ TrustSource, _ bool) {}

// RecordBuildError is a no-op.
func (m *NopMetrics) RecordBuildError(_ string) {}

// UpdateCertificateExpiry is a no-op.
func (m *NopMetrics) UpdateCertificateExpiry(_ *x509.Certificate, _ string) {}

// UpdateCertificateExpiryFromTLS is a no-op.
func (m *NopMetrics) UpdateCertificateExpiryFromTLS(_ *tls.Certificate, _ string) {}

// RecordKeyMaterialReload is a no-op.
func (m *NopMetrics) RecordKeyMaterialReload(_ bool) {}

// MetricsRecorder defines the interface for recording client TLS context metrics.
type MetricsRecorder interface {
	RecordBuild(trust TrustSource, clientAuth bool)
	RecordBuildError(reason string)
	UpdateCertificateExpiry(cert *x509.Certificate, certType string)
	UpdateCertificateExpiryFromTLS(cert *tls.Certificate, certType string)
	RecordKeyMaterialReload(success bool)
}

// Ensure implementations satisfy the interface.
var (
	_ MetricsRecorder = (*Metrics)(nil)
	_ MetricsRecorder = (*NopMetrics)(nil)
)
