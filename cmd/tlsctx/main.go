// Package main is the entry point for the tlsctx inspection tool. It loads a
// client TLS profile, builds the context, and prints the resolved parameters.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/vyrodovalexey/tlsctx/internal/config"
	"github.com/vyrodovalexey/tlsctx/pkg/observability"
	"github.com/vyrodovalexey/tlsctx/pkg/tlsclient"
)

// Version information (set at build time).
var (
	version   = "dev"
	buildTime = "unknown"
	gitCommit = "unknown"
)

// cliFlags holds command line flags.
type cliFlags struct {
	configPath   string
	logLevel     string
	logFormat    string
	showVersion  bool
	showDefaults bool
}

func main() {
	flags := parseFlags()

	if flags.showVersion {
		printVersion()
		return
	}

	if flags.showDefaults {
		printDefaults()
		return
	}

	logger := initLogger(flags)
	defer func() { _ = logger.Sync() }()

	profile := loadProfile(flags.configPath, logger)

	ctx, err := tlsclient.Build(profile.ToClientConfig(), tlsclient.WithLogger(logger))
	if err != nil {
		logger.Error("failed to build client TLS context", observability.Error(err))
		os.Exit(1)
	}

	printContext(ctx)
}

// parseFlags parses command line flags.
func parseFlags() cliFlags {
	configPath := flag.String("config", getEnvOrDefault("TLSCTX_CONFIG_PATH", "tlsctx.yaml"),
		"Path to client TLS profile")
	logLevel := flag.String("log-level", getEnvOrDefault("TLSCTX_LOG_LEVEL", "info"),
		"Log level (debug, info, warn, error)")
	logFormat := flag.String("log-format", getEnvOrDefault("TLSCTX_LOG_FORMAT", "console"),
		"Log format (json, console)")
	showVersion := flag.Bool("version", false, "Show version information")
	showDefaults := flag.Bool("defaults", false, "Show recommended cipher suites and curve preferences")
	flag.Parse()

	return cliFlags{
		configPath:   *configPath,
		logLevel:     *logLevel,
		logFormat:    *logFormat,
		showVersion:  *showVersion,
		showDefaults: *showDefaults,
	}
}

// printDefaults prints the recommended preference lists in the names the
// profile accepts, for pasting into cipherSuites and curvePreferences.
func printDefaults() {
	fmt.Println("cipherSuites:")
	for _, id := range tlsclient.DefaultSecureCipherSuites() {
		fmt.Printf("  - %s\n", tlsclient.CipherSuiteName(id))
	}
	fmt.Println("curvePreferences:")
	for _, id := range tlsclient.DefaultCurvePreferences() {
		fmt.Printf("  - %s\n", tlsclient.CurveName(id))
	}
}

// printVersion prints version information and exits.
func printVersion() {
	fmt.Printf("tlsctx version %s\n", version)
	fmt.Printf("  Build time: %s\n", buildTime)
	fmt.Printf("  Git commit: %s\n", gitCommit)
}

// initLogger initializes the logger.
func initLogger(flags cliFlags) observability.Logger {
	logger, err := observability.NewLogger(observability.LogConfig{
		Level:  flags.logLevel,
		Format: flags.logFormat,
		Output: "stderr",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	return logger
}

// loadProfile loads the client TLS profile.
func loadProfile(configPath string, logger observability.Logger) *config.Profile {
	logger.Info("starting tlsctx",
		observability.String("version", version),
		observability.String("config", configPath),
	)

	profile, err := config.Load(configPath)
	if err != nil {
		logger.Error("failed to load profile", observability.Error(err))
		os.Exit(1)
	}

	return profile
}

// printContext prints the resolved context parameters.
func printContext(ctx *tlsclient.ClientContext) {
	cfg := ctx.TLSConfig()

	fmt.Printf("client mode:      %v\n", ctx.IsClient())
	fmt.Printf("trust source:     %s\n", ctx.TrustSource())
	fmt.Printf("client auth:      %v\n", ctx.HasClientAuth())
	fmt.Printf("min version:      %s\n", tlsclient.TLSVersionName(cfg.MinVersion))
	if cfg.MaxVersion != 0 {
		fmt.Printf("max version:      %s\n", tlsclient.TLSVersionName(cfg.MaxVersion))
	}

	protos := ctx.NextProtos()
	if len(protos) == 0 {
		fmt.Println("negotiation:      disabled")
	} else {
		fmt.Println("negotiation:")
		for _, p := range protos {
			fmt.Printf("  - %s\n", p)
		}
	}

	if len(cfg.CipherSuites) == 0 {
		fmt.Println("cipher suites:    platform default")
	} else {
		fmt.Println("cipher suites:")
		for _, id := range cfg.CipherSuites {
			fmt.Printf("  - %s\n", tlsclient.CipherSuiteName(id))
		}
	}
}

// getEnvOrDefault returns an environment variable value or a default.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
