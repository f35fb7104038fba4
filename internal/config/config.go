// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-keyconv.
//
// go-keyconv is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/jeremyhahn/go-keyconv/pkg/digest"
	"github.com/jeremyhahn/go-keyconv/pkg/logging"
	"github.com/jeremyhahn/go-keyconv/pkg/types"
	"github.com/jeremyhahn/go-keyconv/pkg/verification"
	"gopkg.in/yaml.v3"
)

// Environment variables that override file settings.
const (
	EnvLogLevel         = "KEYCONV_LOG_LEVEL"
	EnvLogFormat        = "KEYCONV_LOG_FORMAT"
	EnvThumbprintDigest = "KEYCONV_THUMBPRINT_DIGEST"
	EnvPSSBackend       = "KEYCONV_PSS_BACKEND"
	EnvDefaultRSAAlg    = "KEYCONV_DEFAULT_RSA_ALG"
	EnvOutputFormat     = "KEYCONV_OUTPUT_FORMAT"
	EnvMetricsEnabled   = "KEYCONV_METRICS_ENABLED"
)

// Config represents the complete keyconv configuration
type Config struct {
	Logging      LoggingConfig      `yaml:"logging"`
	Thumbprint   ThumbprintConfig   `yaml:"thumbprint"`
	Verification VerificationConfig `yaml:"verification"`
	Output       OutputConfig       `yaml:"output"`
	Metrics      MetricsConfig      `yaml:"metrics"`
}

// LoggingConfig controls logging behavior
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// ThumbprintConfig selects the JWK thumbprint digest
type ThumbprintConfig struct {
	Digest string `yaml:"digest"` // sha256, sha384, sha512
}

// VerificationConfig controls raw signature verification
type VerificationConfig struct {
	PSSBackend    string `yaml:"pss_backend"`     // platform, software
	DefaultRSAAlg string `yaml:"default_rsa_alg"` // RS256 ... PS512
}

// OutputConfig controls CLI output
type OutputConfig struct {
	Format string `yaml:"format"` // text, json, yaml
}

// MetricsConfig controls Prometheus metrics collection
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

// Default returns a fully populated configuration.
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Thumbprint: ThumbprintConfig{
			Digest: string(digest.SHA256),
		},
		Verification: VerificationConfig{
			PSSBackend:    string(verification.PSSBackendPlatform),
			DefaultRSAAlg: string(types.PS256),
		},
		Output: OutputConfig{
			Format: "text",
		},
	}
}

// Load reads configuration from a YAML file. Settings missing from the
// file keep their defaults; environment variables override both.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		// #nosec G304 - Config file path is provided by the user
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides to the configuration
func applyEnvOverrides(cfg *Config) {
	for env, field := range map[string]*string{
		EnvLogLevel:         &cfg.Logging.Level,
		EnvLogFormat:        &cfg.Logging.Format,
		EnvThumbprintDigest: &cfg.Thumbprint.Digest,
		EnvPSSBackend:       &cfg.Verification.PSSBackend,
		EnvDefaultRSAAlg:    &cfg.Verification.DefaultRSAAlg,
		EnvOutputFormat:     &cfg.Output.Format,
	} {
		if v := os.Getenv(env); v != "" {
			*field = v
		}
	}
	if enabled := os.Getenv(EnvMetricsEnabled); enabled != "" {
		b, err := strconv.ParseBool(enabled)
		if err != nil {
			log.Printf("Warning: invalid %s value %q, using %t: %v",
				EnvMetricsEnabled, enabled, cfg.Metrics.Enabled, err)
		} else {
			cfg.Metrics.Enabled = b
		}
	}
}

// Validate checks every setting.
func (c *Config) Validate() error {
	if _, err := logging.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logging.Level)
	}

	switch strings.ToLower(c.Logging.Format) {
	case "json", "text":
	default:
		return fmt.Errorf("invalid log format: %s (must be json or text)", c.Logging.Format)
	}

	if _, err := digest.Parse(c.Thumbprint.Digest); err != nil {
		return fmt.Errorf("invalid thumbprint digest: %w", err)
	}

	if _, err := verification.ParsePSSBackend(c.Verification.PSSBackend); err != nil {
		return fmt.Errorf("invalid pss_backend: %w", err)
	}

	alg, err := types.ParseSignatureAlgorithm(c.Verification.DefaultRSAAlg)
	if err != nil {
		return fmt.Errorf("invalid default_rsa_alg: %w", err)
	}
	if !alg.IsRSA() {
		return fmt.Errorf("invalid default_rsa_alg: %s is not an RSA algorithm", alg)
	}

	switch strings.ToLower(c.Output.Format) {
	case "text", "json", "yaml":
	default:
		return fmt.Errorf("invalid output format: %s (must be text, json, or yaml)", c.Output.Format)
	}
	return nil
}

// Digest returns the configured thumbprint digest.
func (c *Config) Digest() digest.Algorithm {
	alg, err := digest.Parse(c.Thumbprint.Digest)
	if err != nil {
		return digest.SHA256
	}
	return alg
}

// VerifierOptions translates the verification settings into RawVerifier
// options.
func (c *Config) VerifierOptions() ([]verification.Option, error) {
	backend, err := verification.ParsePSSBackend(c.Verification.PSSBackend)
	if err != nil {
		return nil, err
	}
	pss, err := verification.PSSVerifierFor(backend)
	if err != nil {
		return nil, err
	}
	alg, err := types.ParseSignatureAlgorithm(c.Verification.DefaultRSAAlg)
	if err != nil {
		return nil, err
	}
	return []verification.Option{
		verification.WithPSSVerifier(pss),
		verification.WithDefaultRSAAlgorithm(alg),
	}, nil
}
