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
	"github.com/jeremyhahn/go-keyconv/pkg/digest"
	"github.com/jeremyhahn/go-keyconv/pkg/encoding/jwk"
	"github.com/spf13/cobra"
)

func newThumbprintCmd(cfg *Config) *cobra.Command {
	var (
		digestName string
		uri        bool
	)

	cmd := &cobra.Command{
		Use:   "thumbprint <jwk.json|->",
		Short: "Compute the RFC 7638 thumbprint of a JWK",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := loadJWK(args[0], cmd)
			if err != nil {
				return usageError(err)
			}

			converter := cfg.Converter()
			if digestName != "" {
				alg, err := digest.Parse(digestName)
				if err != nil {
					return usageError(err)
				}
				converter.Digest = alg
			}

			printer := NewPrinter(cfg.Format(), cmd.OutOrStdout())
			if uri {
				value, err := jwk.ThumbprintURI(key, converter.Digest)
				if err != nil {
					return usageError(err)
				}
				return printer.PrintValue("uri", value)
			}
			value, err := converter.Thumbprint(key)
			if err != nil {
				return usageError(err)
			}
			return printer.PrintValue("thumbprint", value)
		},
	}

	cmd.Flags().StringVar(&digestName, "digest", "", "digest algorithm (sha256, sha384, sha512); defaults to the configured digest")
	cmd.Flags().BoolVar(&uri, "uri", false, "print the RFC 9278 thumbprint URI")
	return cmd
}
