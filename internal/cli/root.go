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
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/prometheus/common/expfmt"
	"github.com/spf13/cobra"
)

const (
	// ExitFalse is returned when a verification completes with a mismatch.
	ExitFalse = 1

	// ExitFailure is returned for every structural or usage error.
	ExitFailure = 2
)

// ExitError carries a process exit code. A nil Err means the command
// already reported its result and nothing more is printed.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("exit status %d", e.Code)
	}
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// ExitCode maps an Execute error to a process exit code.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// NewRootCommand builds the keyconv command tree around cfg.
func NewRootCommand(cfg *Config) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "keyconv",
		Short: "keyconv - JWK conversion, thumbprint and signature tool",
		Long: `keyconv converts keys between raw encodings and JSON Web Keys,
computes RFC 7638 thumbprints and verifies raw signatures.

Supported key types:
  - secp256k1, P-256, P-384, P-521
  - Ed25519, X25519
  - RSA`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := applyEnvironment(cmd); err != nil {
				return err
			}
			return cfg.Load(cmd.ErrOrStderr())
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return dumpMetrics(cfg, cmd.ErrOrStderr())
		},
	}

	rootCmd.PersistentFlags().StringVar(&cfg.ConfigFile, "config", "",
		"config file (YAML)")
	rootCmd.PersistentFlags().StringVarP(&cfg.OutputFormat, "output", "o", "",
		"output format (text, json, yaml)")
	rootCmd.PersistentFlags().BoolVarP(&cfg.Verbose, "verbose", "v", false,
		"verbose output")

	rootCmd.AddCommand(newVersionCmd(cfg))
	rootCmd.AddCommand(newJWKCmd(cfg))
	rootCmd.AddCommand(newRawCmd(cfg))
	rootCmd.AddCommand(newThumbprintCmd(cfg))
	rootCmd.AddCommand(newVerifyCmd(cfg))
	rootCmd.AddCommand(newCompressCmd(cfg))
	rootCmd.AddCommand(newDecompressCmd(cfg))
	return rootCmd
}

// Execute runs the root command with the process arguments. Errors are
// printed to stderr in the selected output format.
func Execute() error {
	cfg := NewConfig()
	rootCmd := NewRootCommand(cfg)
	err := rootCmd.Execute()
	reportError(cfg, os.Stderr, err)
	return err
}

func reportError(cfg *Config, w io.Writer, err error) {
	if err == nil {
		return
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) && exitErr.Err == nil {
		return
	}
	_ = NewPrinter(cfg.Format(), w).PrintError(err) // best-effort
}

// dumpMetrics writes the collected operation metrics in the Prometheus
// text format when metrics are enabled and verbose output is requested.
func dumpMetrics(cfg *Config, w io.Writer) error {
	if cfg.Registry == nil || !cfg.Verbose {
		return nil
	}
	families, err := cfg.Registry.Gather()
	if err != nil {
		return err
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return err
		}
	}
	return nil
}

// usageError marks err as a structural failure.
func usageError(err error) error {
	return &ExitError{Code: ExitFailure, Err: err}
}
