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

package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/jeremyhahn/go-keyconv/internal/config"
	"github.com/jeremyhahn/go-keyconv/pkg/encoding/jwk"
	"github.com/jeremyhahn/go-keyconv/pkg/logging"
	"github.com/jeremyhahn/go-keyconv/pkg/metrics"
	"github.com/jeremyhahn/go-keyconv/pkg/verification"
	"github.com/prometheus/client_golang/prometheus"
)

// Config holds global CLI configuration
type Config struct {
	// ConfigFile is the path to the configuration file
	ConfigFile string

	// OutputFormat controls output formatting (text, json, yaml). When
	// empty, the configuration file's output.format applies.
	OutputFormat string

	// Verbose enables debug logging
	Verbose bool

	// File settings after environment overrides
	File *config.Config

	Logger   *logging.Logger
	Registry *prometheus.Registry
	Recorder metrics.Recorder
}

// NewConfig creates a new Config with default values
func NewConfig() *Config {
	return &Config{
		File:     config.Default(),
		Logger:   logging.Discard(),
		Recorder: metrics.NopRecorder{},
	}
}

// Load reads the configuration file and builds the logger and recorder.
func (c *Config) Load(stderr io.Writer) error {
	file, err := config.Load(c.ConfigFile)
	if err != nil {
		return err
	}
	c.File = file
	if c.OutputFormat == "" {
		c.OutputFormat = file.Output.Format
	}
	c.OutputFormat = strings.ToLower(c.OutputFormat)
	switch OutputFormat(c.OutputFormat) {
	case OutputFormatText, OutputFormatJSON, OutputFormatYAML:
	default:
		return fmt.Errorf("invalid output format: %s (must be text, json, or yaml)", c.OutputFormat)
	}

	level := file.Logging.Level
	if c.Verbose {
		level = "debug"
	}
	logger, err := logging.New(stderr, file.Logging.Format, level)
	if err != nil {
		return err
	}
	c.Logger = logger.With("invocation_id", uuid.New().String())

	if file.Metrics.Enabled {
		c.Registry = prometheus.NewRegistry()
		c.Recorder = metrics.NewPrometheusRecorder(c.Registry)
	}
	return nil
}

// Format returns the effective output format.
func (c *Config) Format() string {
	if c.OutputFormat == "" {
		return string(OutputFormatText)
	}
	return c.OutputFormat
}

// Converter returns a jwk.Converter wired to the logger, recorder and
// thumbprint digest.
func (c *Config) Converter() *jwk.Converter {
	return &jwk.Converter{
		Logger:   c.Logger,
		Recorder: c.Recorder,
		Digest:   c.File.Digest(),
	}
}

// Verifier returns a RawVerifier configured from the file settings.
func (c *Config) Verifier() (*verification.RawVerifier, error) {
	opts, err := c.File.VerifierOptions()
	if err != nil {
		return nil, err
	}
	opts = append(opts,
		verification.WithLogger(c.Logger),
		verification.WithRecorder(c.Recorder))
	return verification.NewRawVerifier(opts...), nil
}

// readInput returns the contents of path, or stdin when path is "-".
func readInput(path string, stdin io.Reader) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(stdin)
	}
	// #nosec G304 - Input path is provided by the user
	return os.ReadFile(path)
}
