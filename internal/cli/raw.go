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
	"encoding/hex"

	"github.com/jeremyhahn/go-keyconv/pkg/encoding/jwk"
	"github.com/jeremyhahn/go-keyconv/pkg/types"
	"github.com/spf13/cobra"
)

func newRawCmd(cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "raw <jwk.json|->",
		Short: "Export the raw public key bytes of a JWK as hex",
		Long: `Export the public key of a JWK: 04||X||Y for EC keys, X for OKP keys,
PKCS#1 DER for RSA keys and k for symmetric keys.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := loadJWK(args[0], cmd)
			if err != nil {
				return usageError(err)
			}
			raw, err := cfg.Converter().FromJWK(key)
			if err != nil {
				return usageError(err)
			}
			return NewPrinter(cfg.Format(), cmd.OutOrStdout()).PrintValue("raw", hex.EncodeToString(raw))
		},
	}
}

func newCompressCmd(cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "compress <hex>",
		Short: "Compress an uncompressed EC point",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			point, err := jwk.DecodeHex(args[0])
			if err != nil {
				return usageError(err)
			}
			compressed, err := jwk.CompressPoint(point)
			if err != nil {
				return usageError(err)
			}
			return NewPrinter(cfg.Format(), cmd.OutOrStdout()).PrintValue("point", hex.EncodeToString(compressed))
		},
	}
}

func newDecompressCmd(cfg *Config) *cobra.Command {
	var keyType string

	cmd := &cobra.Command{
		Use:   "decompress <hex>",
		Short: "Decompress a compressed EC point",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kt, err := types.ParseKeyType(keyType)
			if err != nil {
				return usageError(err)
			}
			point, err := jwk.DecodeHex(args[0])
			if err != nil {
				return usageError(err)
			}
			uncompressed, err := jwk.DecompressPoint(kt, point)
			if err != nil {
				return usageError(err)
			}
			return NewPrinter(cfg.Format(), cmd.OutOrStdout()).PrintValue("point", hex.EncodeToString(uncompressed))
		},
	}
	cmd.Flags().StringVarP(&keyType, "type", "t", "secp256k1", "curve (secp256k1, p-256, p-384, p-521)")
	return cmd
}

// loadJWK reads a JWK in JSON from path, or stdin when path is "-".
func loadJWK(path string, cmd *cobra.Command) (*jwk.JWK, error) {
	data, err := readInput(path, cmd.InOrStdin())
	if err != nil {
		return nil, err
	}
	return jwk.Unmarshal(data)
}
