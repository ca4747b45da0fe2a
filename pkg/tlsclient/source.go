package tlsclient

import (
	"fmt"
	"io"
	"os"
)

// Source identifies PEM-encoded certificate or key material by file path,
// byte stream, or inline bytes. A Source is consumed exactly once: the first
// Read drains the underlying resource and subsequent Reads fail with
// ErrSourceConsumed. File handles are opened and released within a single
// Read call; caller-supplied readers are drained but not closed, since the
// caller owns them.
type Source struct {
	path     string
	reader   io.Reader
	data     []byte
	consumed bool
}

// FileSource returns a Source backed by a PEM file on disk.
func FileSource(path string) *Source {
	return &Source{path: path}
}

// ReaderSource returns a Source backed by an open byte stream positioned at
// the start of the PEM content. The stream must not be reused afterwards.
func ReaderSource(r io.Reader) *Source {
	return &Source{reader: r}
}

// BytesSource returns a Source backed by in-memory PEM data.
func BytesSource(data []byte) *Source {
	return &Source{data: data}
}

// Path returns the file path backing this source, if any.
func (s *Source) Path() string {
	if s == nil {
		return ""
	}
	return s.path
}

// Describe returns a short description of the source for logs and errors.
func (s *Source) Describe() string {
	switch {
	case s == nil:
		return "none"
	case s.path != "":
		return s.path
	case s.reader != nil:
		return "stream"
	default:
		return "inline"
	}
}

// Read consumes the source and returns its PEM bytes. A file path that does
// not resolve to an existing file fails with ErrCertificateNotFound, which is
// distinct from downstream parse failures.
func (s *Source) Read() ([]byte, error) {
	if s == nil {
		return nil, nil
	}
	if s.consumed {
		return nil, ErrSourceConsumed
	}
	s.consumed = true

	switch {
	case s.path != "":
		return readFileOnce(s.path)
	case s.reader != nil:
		data, err := io.ReadAll(s.reader)
		s.reader = nil
		if err != nil {
			return nil, fmt.Errorf("failed to read certificate stream: %w", err)
		}
		return data, nil
	default:
		data := s.data
		s.data = nil
		return data, nil
	}
}

// readFileOnce reads a PEM file, holding the handle only for the duration of
// the read.
func readFileOnce(path string) ([]byte, error) {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrCertificateNotFound, path)
	}

	data, err := os.ReadFile(path) // #nosec G304 -- path supplied by caller configuration
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrCertificateNotFound, path)
	}

	return data, nil
}
