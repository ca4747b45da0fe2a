package tlsclient

import (
	"context"
	"crypto/tls"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/vyrodovalexey/tlsctx/pkg/observability"
)

// ReloadingKeyMaterial is a KeyMaterialProvider that loads the client
// identity from PEM files and reloads it when they change on disk. It plugs
// into Build via WithKeyMaterialProvider, so new handshakes pick up rotated
// certificates without rebuilding the context.
type ReloadingKeyMaterial struct {
	certFile string
	keyFile  string
	password string
	logger   observability.Logger
	metrics  MetricsRecorder

	certificate atomic.Pointer[tls.Certificate]

	watcher   *fsnotify.Watcher
	stopCh    chan struct{}
	stoppedCh chan struct{}

	mu      sync.Mutex
	closed  bool
	started bool

	debounceDelay time.Duration
}

// ReloadOption is a functional option for configuring ReloadingKeyMaterial.
type ReloadOption func(*ReloadingKeyMaterial)

// WithReloadLogger sets the logger for the provider.
func WithReloadLogger(logger observability.Logger) ReloadOption {
	return func(p *ReloadingKeyMaterial) {
		p.logger = logger
	}
}

// WithReloadMetrics sets the metrics recorder for the provider.
func WithReloadMetrics(metrics MetricsRecorder) ReloadOption {
	return func(p *ReloadingKeyMaterial) {
		p.metrics = metrics
	}
}

// WithReloadKeyPassword sets the password for an encrypted private key.
func WithReloadKeyPassword(password string) ReloadOption {
	return func(p *ReloadingKeyMaterial) {
		p.password = password
	}
}

// WithReloadDebounce sets the debounce delay for file change events.
func WithReloadDebounce(delay time.Duration) ReloadOption {
	return func(p *ReloadingKeyMaterial) {
		p.debounceDelay = delay
	}
}

// NewReloadingKeyMaterial creates a provider and performs the initial load.
func NewReloadingKeyMaterial(certFile, keyFile string, opts ...ReloadOption) (*ReloadingKeyMaterial, error) {
	p := &ReloadingKeyMaterial{
		certFile:      certFile,
		keyFile:       keyFile,
		logger:        observability.NopLogger(),
		metrics:       NewNopMetrics(),
		stopCh:        make(chan struct{}),
		stoppedCh:     make(chan struct{}),
		debounceDelay: 100 * time.Millisecond,
	}

	for _, opt := range opts {
		opt(p)
	}

	if err := p.load(); err != nil {
		return nil, err
	}

	return p, nil
}

// Start begins watching the certificate and key files for changes.
func (p *ReloadingKeyMaterial) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.started {
		p.mu.Unlock()
		return nil
	}
	p.started = true
	p.mu.Unlock()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		p.abortStart()
		return NewInvalidKeyMaterialErrorWithCause(p.certFile, "failed to create file watcher", err)
	}

	certDir := filepath.Dir(p.certFile)
	if err := watcher.Add(certDir); err != nil {
		_ = watcher.Close()
		p.abortStart()
		return NewInvalidKeyMaterialErrorWithCause(p.certFile, "failed to watch certificate directory", err)
	}

	if keyDir := filepath.Dir(p.keyFile); keyDir != certDir {
		if err := watcher.Add(keyDir); err != nil {
			_ = watcher.Close()
			p.abortStart()
			return NewInvalidKeyMaterialErrorWithCause(p.keyFile, "failed to watch key directory", err)
		}
	}
	p.watcher = watcher

	p.logger.Info("watching client key material",
		observability.String("certFile", p.certFile),
		observability.String("keyFile", p.keyFile),
	)

	go p.watchLoop(ctx)

	return nil
}

// abortStart rolls back the started flag after a failed Start. Only a running
// watch loop closes stoppedCh, so Close must not wait for one that never ran.
func (p *ReloadingKeyMaterial) abortStart() {
	p.mu.Lock()
	p.started = false
	p.mu.Unlock()
}

// GetClientCertificate returns the current client identity. It satisfies the
// tls.Config GetClientCertificate callback signature.
func (p *ReloadingKeyMaterial) GetClientCertificate(_ *tls.CertificateRequestInfo) (*tls.Certificate, error) {
	cert := p.certificate.Load()
	if cert == nil {
		return nil, ErrCertificateNotFound
	}
	return cert, nil
}

// Close stops the file watcher and releases resources.
func (p *ReloadingKeyMaterial) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	started := p.started
	p.mu.Unlock()

	close(p.stopCh)

	if started {
		<-p.stoppedCh
	}

	if p.watcher != nil {
		return p.watcher.Close()
	}

	return nil
}

// load reads and assembles the key material from disk.
func (p *ReloadingKeyMaterial) load() error {
	cert, err := LoadKeyMaterial(FileSource(p.certFile), FileSource(p.keyFile), p.password)
	if err != nil {
		return err
	}

	p.certificate.Store(cert)
	p.metrics.UpdateCertificateExpiryFromTLS(cert, "client")

	if cert.Leaf != nil {
		p.logger.Info("client key material loaded",
			observability.String("subject", cert.Leaf.Subject.CommonName),
			observability.Time("notAfter", cert.Leaf.NotAfter),
		)
	}

	return nil
}

// watchLoop handles file change events with debouncing.
func (p *ReloadingKeyMaterial) watchLoop(ctx context.Context) {
	defer close(p.stoppedCh)

	var debounceTimer *time.Timer
	var debounceCh <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("key material watcher stopped due to context cancellation")
			return

		case <-p.stopCh:
			p.logger.Info("key material watcher stopped")
			return

		case event, ok := <-p.watcher.Events:
			if !ok {
				return
			}
			if !p.isRelevantFile(filepath.Clean(event.Name)) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}

			p.logger.Debug("key material file changed",
				observability.String("path", event.Name),
				observability.String("op", event.Op.String()),
			)

			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.NewTimer(p.debounceDelay)
			debounceCh = debounceTimer.C

		case <-debounceCh:
			debounceCh = nil
			p.reload()

		case err, ok := <-p.watcher.Errors:
			if !ok {
				return
			}
			p.logger.Error("file watcher error", observability.Error(err))
		}
	}
}

// isRelevantFile checks if the given path is one of the watched files.
func (p *ReloadingKeyMaterial) isRelevantFile(cleanPath string) bool {
	return cleanPath == filepath.Clean(p.certFile) || cleanPath == filepath.Clean(p.keyFile)
}

// reload reloads the key material, keeping the previous identity on failure.
func (p *ReloadingKeyMaterial) reload() {
	if err := p.load(); err != nil {
		p.logger.Error("failed to reload client key material", observability.Error(err))
		p.metrics.RecordKeyMaterialReload(false)
		return
	}

	p.metrics.RecordKeyMaterialReload(true)
	p.logger.Info("client key material reloaded")
}

// Ensure ReloadingKeyMaterial implements KeyMaterialProvider.
var _ KeyMaterialProvider = (*ReloadingKeyMaterial)(nil)
