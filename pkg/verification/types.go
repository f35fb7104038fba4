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

package verification

import (
	"github.com/jeremyhahn/go-keyconv/pkg/encoding/jwk"
	"github.com/jeremyhahn/go-keyconv/pkg/types"
)

// SignatureEncoding selects how ECDSA signatures are encoded.
type SignatureEncoding int

const (
	// EncodingASN1 is the DER SEQUENCE{r, s} form used by X.509 and TLS.
	EncodingASN1 SignatureEncoding = iota

	// EncodingCompact is the fixed-width r||s form used by JOSE.
	EncodingCompact
)

// VerifyOpts contains optional parameters for signature verification operations.
type VerifyOpts struct {
	// Algorithm selects the signature scheme. When empty, the scheme is
	// inferred from the public key type (PKCS1v15 for RSA).
	Algorithm types.SignatureAlgorithm

	// Encoding of ECDSA signatures.
	Encoding SignatureEncoding

	// SaltLength is the RSA-PSS salt length in bytes. Zero means the
	// digest output length.
	SaltLength int
}

// RawSignatureOptions tunes VerifyRawSignature.
type RawSignatureOptions struct {
	// SignatureAlg overrides the JWK alg member.
	SignatureAlg types.SignatureAlgorithm

	// SaltLength is the RSA-PSS salt length in bytes. Zero means the
	// digest output length (32, 48 or 64).
	SaltLength int
}

// RawSignatureRequest is a message, a raw signature and the JWK to check
// them against. ECDSA signatures are compact r||s.
type RawSignatureRequest struct {
	Data      []byte
	Signature []byte
	Key       *jwk.JWK
	Opts      *RawSignatureOptions
}
