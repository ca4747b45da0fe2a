package tlsclient

import (
	"errors"
	"fmt"
	"strings"
)

// Common sentinel errors for client TLS context construction.
var (
	// ErrCertificateNotFound indicates that a certificate file path does not
	// resolve to a readable file. It is reported immediately and never wrapped
	// into ContextInitializationError.
	ErrCertificateNotFound = errors.New("certificate not found")

	// ErrSourceConsumed indicates that a certificate source was read more than once.
	ErrSourceConsumed = errors.New("certificate source already consumed")

	// ErrCipherSuiteInvalid indicates that a cipher suite name is unknown.
	ErrCipherSuiteInvalid = errors.New("invalid cipher suite")

	// ErrTLSVersionInvalid indicates that a TLS version name is unknown.
	ErrTLSVersionInvalid = errors.New("invalid TLS version")
)

// InvalidKeyMaterialError indicates that client key material could not be
// assembled: a certificate chain was supplied without a usable private key,
// or the PEM content is malformed.
type InvalidKeyMaterialError struct {
	Path    string
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *InvalidKeyMaterialError) Error() string {
	if e.Path != "" {
		if e.Cause != nil {
			return fmt.Sprintf("invalid key material at %s: %s: %v", e.Path, e.Message, e.Cause)
		}
		return fmt.Sprintf("invalid key material at %s: %s", e.Path, e.Message)
	}
	if e.Cause != nil {
		return fmt.Sprintf("invalid key material: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("invalid key material: %s", e.Message)
}

// Unwrap returns the underlying error.
func (e *InvalidKeyMaterialError) Unwrap() error {
	return e.Cause
}

// Is checks if the error matches the target.
func (e *InvalidKeyMaterialError) Is(target error) bool {
	_, ok := target.(*InvalidKeyMaterialError)
	return ok || errors.Is(e.Cause, target)
}

// NewInvalidKeyMaterialError creates a new InvalidKeyMaterialError.
func NewInvalidKeyMaterialError(path, message string) *InvalidKeyMaterialError {
	return &InvalidKeyMaterialError{Path: path, Message: message}
}

// NewInvalidKeyMaterialErrorWithCause creates a new InvalidKeyMaterialError with a cause.
func NewInvalidKeyMaterialErrorWithCause(path, message string, cause error) *InvalidKeyMaterialError {
	return &InvalidKeyMaterialError{Path: path, Message: message, Cause: cause}
}

// TrustConfigurationError indicates a failure parsing a server certificate
// chain or initializing the default or explicit trust store.
type TrustConfigurationError struct {
	Source  string
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *TrustConfigurationError) Error() string {
	if e.Source != "" {
		if e.Cause != nil {
			return fmt.Sprintf("trust configuration error (%s): %s: %v", e.Source, e.Message, e.Cause)
		}
		return fmt.Sprintf("trust configuration error (%s): %s", e.Source, e.Message)
	}
	if e.Cause != nil {
		return fmt.Sprintf("trust configuration error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("trust configuration error: %s", e.Message)
}

// Unwrap returns the underlying error.
func (e *TrustConfigurationError) Unwrap() error {
	return e.Cause
}

// Is checks if the error matches the target.
func (e *TrustConfigurationError) Is(target error) bool {
	_, ok := target.(*TrustConfigurationError)
	return ok || errors.Is(e.Cause, target)
}

// NewTrustConfigurationError creates a new TrustConfigurationError.
func NewTrustConfigurationError(source, message string) *TrustConfigurationError {
	return &TrustConfigurationError{Source: source, Message: message}
}

// NewTrustConfigurationErrorWithCause creates a new TrustConfigurationError with a cause.
func NewTrustConfigurationErrorWithCause(source, message string, cause error) *TrustConfigurationError {
	return &TrustConfigurationError{Source: source, Message: message, Cause: cause}
}

// NegotiationUnsupportedError indicates that a non-empty application-layer
// protocol list was requested on a platform without ALPN support. The
// requested protocols are carried in the error.
type NegotiationUnsupportedError struct {
	Protocols []string
}

// Error implements the error interface.
func (e *NegotiationUnsupportedError) Error() string {
	return fmt.Sprintf("protocol negotiation unsupported: %s", strings.Join(e.Protocols, ", "))
}

// Is checks if the error matches the target.
func (e *NegotiationUnsupportedError) Is(target error) bool {
	_, ok := target.(*NegotiationUnsupportedError)
	return ok
}

// ContextInitializationError wraps any failure during final context
// initialization. Callers are not expected to branch on platform-specific
// subtypes; the original cause is retained for diagnostics.
type ContextInitializationError struct {
	Cause error
}

// Error implements the error interface.
func (e *ContextInitializationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("failed to initialize the client-side TLS context: %v", e.Cause)
	}
	return "failed to initialize the client-side TLS context"
}

// Unwrap returns the underlying error.
func (e *ContextInitializationError) Unwrap() error {
	return e.Cause
}

// Is checks if the error matches the target.
func (e *ContextInitializationError) Is(target error) bool {
	_, ok := target.(*ContextInitializationError)
	return ok || errors.Is(e.Cause, target)
}
