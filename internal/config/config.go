// Package config loads client TLS profiles for the tlsctx CLI.
package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/vyrodovalexey/tlsctx/pkg/tlsclient"
)

// envVarPattern matches ${VAR} and ${VAR:-default} patterns.
var envVarPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

// Profile describes one client TLS context in YAML form.
type Profile struct {
	// Client identity (optional; both files required together).
	CertFile    string `yaml:"certFile"`
	KeyFile     string `yaml:"keyFile"`
	KeyPassword string `yaml:"keyPassword"`

	// Trust. CAFile derives trust from a PEM chain; empty means the
	// platform trust store.
	CAFile string `yaml:"caFile"`

	// Server verification.
	ServerName         string `yaml:"serverName"`
	InsecureSkipVerify bool   `yaml:"insecureSkipVerify"`

	// Protocol preferences.
	MinVersion       string   `yaml:"minVersion"`
	MaxVersion       string   `yaml:"maxVersion"`
	CipherSuites     []string `yaml:"cipherSuites"`
	CurvePreferences []string `yaml:"curvePreferences"`
	ALPN             []string `yaml:"alpn"`

	// Session cache tuning. Zero leaves the platform default.
	SessionCacheSize      int64 `yaml:"sessionCacheSize"`
	SessionTimeoutSeconds int64 `yaml:"sessionTimeoutSeconds"`

	Logging LoggingConfig `yaml:"logging"`
}

// LoggingConfig configures CLI logging.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Load loads a profile from a file path.
func Load(path string) (*Profile, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve path %s: %w", path, err)
	}

	data, err := os.ReadFile(absPath) //nolint:gosec // path is validated via filepath.Abs
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	return parse(data)
}

// LoadFromReader loads a profile from an io.Reader.
func LoadFromReader(r io.Reader) (*Profile, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	return parse(data)
}

// parse parses YAML data into a Profile.
func parse(data []byte) (*Profile, error) {
	content := substituteEnvVars(string(data))

	var profile Profile
	if err := yaml.Unmarshal([]byte(content), &profile); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := profile.Validate(); err != nil {
		return nil, err
	}

	return &profile, nil
}

// substituteEnvVars replaces ${VAR} and ${VAR:-default} patterns with
// environment variable values.
func substituteEnvVars(content string) string {
	content = strings.ReplaceAll(content, "$$", "\x00ESCAPED_DOLLAR\x00")

	result := envVarPattern.ReplaceAllStringFunc(content, func(match string) string {
		submatches := envVarPattern.FindStringSubmatch(match)
		if len(submatches) < 2 {
			return match
		}

		varName := submatches[1]
		defaultValue := ""
		if len(submatches) >= 3 {
			defaultValue = submatches[2]
		}

		if value, ok := os.LookupEnv(varName); ok {
			return value
		}
		return defaultValue
	})

	return strings.ReplaceAll(result, "\x00ESCAPED_DOLLAR\x00", "$")
}

// Validate checks the profile for inconsistent field combinations.
func (p *Profile) Validate() error {
	if p.CertFile != "" && p.KeyFile == "" {
		return fmt.Errorf("keyFile is required when certFile is set")
	}
	if p.KeyFile != "" && p.CertFile == "" {
		return fmt.Errorf("certFile is required when keyFile is set")
	}
	if p.SessionCacheSize < 0 {
		return fmt.Errorf("sessionCacheSize must not be negative")
	}
	if p.SessionTimeoutSeconds < 0 {
		return fmt.Errorf("sessionTimeoutSeconds must not be negative")
	}
	return nil
}

// ToClientConfig converts the profile into a build configuration.
func (p *Profile) ToClientConfig() tlsclient.Config {
	cfg := tlsclient.Config{
		KeyPassword:        p.KeyPassword,
		ServerName:         p.ServerName,
		InsecureSkipVerify: p.InsecureSkipVerify,
		MinVersion:         p.MinVersion,
		MaxVersion:         p.MaxVersion,
		CipherSuites:       p.CipherSuites,
		CurvePreferences:   p.CurvePreferences,
		NextProtos:         p.ALPN,
		SessionCache: tlsclient.SessionCacheSettings{
			Size:    p.SessionCacheSize,
			Timeout: p.SessionTimeoutSeconds,
		},
	}

	if p.CertFile != "" {
		cfg.CertChain = tlsclient.FileSource(p.CertFile)
		cfg.Key = tlsclient.FileSource(p.KeyFile)
	}
	if p.CAFile != "" {
		cfg.ServerCertChain = tlsclient.FileSource(p.CAFile)
	}

	return cfg
}
