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
	"strings"

	"github.com/jeremyhahn/go-keyconv/pkg/encoding/jwk"
	"github.com/jeremyhahn/go-keyconv/pkg/types"
	"github.com/spf13/cobra"
)

const (
	inputHex = "hex"
	inputDER = "der"
	inputPEM = "pem"
)

func newJWKCmd(cfg *Config) *cobra.Command {
	var (
		keyType  string
		input    string
		password string
		private  bool
		opts     jwk.ToJWKOptions
	)

	cmd := &cobra.Command{
		Use:   "jwk <hex|file|->",
		Short: "Convert a raw key to a JSON Web Key",
		Long: `Convert raw key bytes to a JWK.

With --input hex (default) the argument is the key in hex. With --input der
or --input pem the argument is a file path. "-" reads from stdin.

EC keys accept a 32/48/66-byte private scalar or a compressed or
uncompressed point. OKP keys accept 32 bytes (Ed25519 private keys also
accept the 64-byte seed||public form). RSA keys accept PKCS#1 or SPKI DER
(public) and PKCS#1 or PKCS#8 DER (private).`,
		Example: `  keyconv jwk --type secp256k1 0478...
  keyconv jwk --type ed25519 --private 9d61b19d...
  keyconv jwk --input pem --password secret key.pem`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.IsPrivateKey = private

			var kt types.KeyType
			if keyType != "" {
				parsed, err := types.ParseKeyType(keyType)
				if err != nil {
					return usageError(err)
				}
				kt = parsed
			} else if input != inputPEM {
				return usageError(fmt.Errorf("--type is required for %s input", input))
			}

			key, err := convertInput(cfg, cmd, strings.ToLower(input), args[0], kt, []byte(password), &opts)
			if err != nil {
				return usageError(err)
			}
			cfg.Logger.Debug("converted key", "type", keyTypeName(key), "private", key.IsPrivate())
			return NewPrinter(cfg.Format(), cmd.OutOrStdout()).PrintJWK(key)
		},
	}

	cmd.Flags().StringVarP(&keyType, "type", "t", "", "key type (secp256k1, p-256, p-384, p-521, ed25519, x25519, rsa)")
	cmd.Flags().StringVar(&input, "input", inputHex, "input encoding (hex, der, pem)")
	cmd.Flags().StringVar(&password, "password", "", "password for encrypted PKCS#8 input")
	cmd.Flags().BoolVar(&private, "private", false, "input is private key material")
	cmd.Flags().BoolVar(&opts.NoKidThumbprint, "no-kid", false, "omit the kid thumbprint")
	cmd.Flags().StringVar(&opts.Use, "use", "", "JWK use member (sig, enc)")
	cmd.Flags().StringVar(&opts.Alg, "alg", "", "JWK alg member")
	return cmd
}

func convertInput(cfg *Config, cmd *cobra.Command, input, arg string, kt types.KeyType, password []byte, opts *jwk.ToJWKOptions) (*jwk.JWK, error) {
	switch input {
	case inputHex:
		text := arg
		if arg == "-" {
			data, err := readInput(arg, cmd.InOrStdin())
			if err != nil {
				return nil, err
			}
			text = string(data)
		}
		raw, err := jwk.DecodeHex(text)
		if err != nil {
			return nil, err
		}
		return cfg.Converter().ToJWK(raw, kt, opts)

	case inputDER:
		data, err := readInput(arg, cmd.InOrStdin())
		if err != nil {
			return nil, err
		}
		if opts.IsPrivateKey && kt != types.KeyTypeRSA {
			return jwk.FromPKCS8(data, password, opts)
		}
		return jwk.FromDER(data, kt, opts)

	case inputPEM:
		data, err := readInput(arg, cmd.InOrStdin())
		if err != nil {
			return nil, err
		}
		return jwk.FromPEM(data, kt, password, opts)
	}
	return nil, fmt.Errorf("unknown input encoding: %s (must be hex, der, or pem)", input)
}

func keyTypeName(key *jwk.JWK) string {
	kt, err := key.KeyType()
	if err != nil {
		return key.Kty
	}
	return kt.String()
}
