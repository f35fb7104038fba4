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

	"github.com/jeremyhahn/go-keyconv/pkg/encoding/jwk"
	"github.com/jeremyhahn/go-keyconv/pkg/types"
	"github.com/jeremyhahn/go-keyconv/pkg/verification"
	"github.com/spf13/cobra"
)

func newVerifyCmd(cfg *Config) *cobra.Command {
	var (
		keyPath    string
		dataHex    string
		sigHex     string
		alg        string
		saltLength int
	)

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Verify a raw signature against a JWK",
		Long: `Verify a raw signature over a message with a public JWK.

ECDSA signatures are compact r||s. RSA keys default to PS256 unless --alg
or the JWK alg member says otherwise.

Exit status is 0 when the signature matches, 1 when it does not and 2 for
malformed input.`,
		Example: `  keyconv verify --key key.json --data 4d7367 --sig 109cd8ae...
  keyconv verify --key rsa.json --data 4d7367 --sig ab01... --alg PS384`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := loadJWK(keyPath, cmd)
			if err != nil {
				return usageError(err)
			}
			data, err := jwk.DecodeHex(dataHex)
			if err != nil {
				return usageError(fmt.Errorf("--data: %w", err))
			}
			sig, err := jwk.DecodeHex(sigHex)
			if err != nil {
				return usageError(fmt.Errorf("--sig: %w", err))
			}

			opts := &verification.RawSignatureOptions{SaltLength: saltLength}
			if alg != "" {
				parsed, err := types.ParseSignatureAlgorithm(alg)
				if err != nil {
					return usageError(err)
				}
				opts.SignatureAlg = parsed
			}

			verifier, err := cfg.Verifier()
			if err != nil {
				return usageError(err)
			}
			ok, err := verifier.VerifyRawSignature(&verification.RawSignatureRequest{
				Data:      data,
				Signature: sig,
				Key:       key,
				Opts:      opts,
			})
			if err != nil {
				return usageError(err)
			}

			if err := NewPrinter(cfg.Format(), cmd.OutOrStdout()).PrintValue("valid", ok); err != nil {
				return err
			}
			if !ok {
				return &ExitError{Code: ExitFalse}
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&keyPath, "key", "k", "", "public JWK file (- for stdin)")
	cmd.Flags().StringVar(&dataHex, "data", "", "message in hex")
	cmd.Flags().StringVar(&sigHex, "sig", "", "signature in hex")
	cmd.Flags().StringVar(&alg, "alg", "", "signature algorithm (ES256K, ES256, ES384, ES512, EdDSA, RS256..RS512, PS256..PS512)")
	cmd.Flags().IntVar(&saltLength, "salt-length", 0, "RSA-PSS salt length in bytes (0 = digest size)")
	_ = cmd.MarkFlagRequired("key")
	_ = cmd.MarkFlagRequired("sig")
	return cmd
}
