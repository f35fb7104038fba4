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

package jwk

import (
	"crypto/ecdsa"
	"crypto/rsa"
	"crypto/x509"
	"fmt"

	"github.com/jeremyhahn/go-keyconv/pkg/encoding"
	"github.com/jeremyhahn/go-keyconv/pkg/types"
)

// FromPKCS8 builds a private JWK from PKCS#8 DER, encrypted when password
// is non-empty. kid, use and alg follow opts as in ToJWK.
func FromPKCS8(data, password []byte, opts *ToJWKOptions) (*JWK, error) {
	key, err := encoding.DecodePKCS8(data, password)
	if err != nil {
		return nil, err
	}
	jwk, err := FromPrivateKey(key)
	if err != nil {
		return nil, err
	}
	return finish(jwk, opts)
}

// ToPKCS8 exports the private key of jwk as PKCS#8 DER, encrypted when
// password is non-empty. secp256k1 keys have no PKCS#8 form in the
// standard library and are rejected.
func (jwk *JWK) ToPKCS8(password []byte) ([]byte, error) {
	if Sanitize(jwk).Crv == string(types.CurveSecp256k1) {
		return nil, fmt.Errorf("%w: secp256k1 PKCS#8 export", ErrUnsupportedKeyType)
	}
	priv, err := jwk.ToPrivateKey()
	if err != nil {
		return nil, err
	}
	return encoding.EncodePKCS8(priv, password)
}

// FromPEM builds a JWK from the first key block of PEM data. Public blocks
// are decoded with FromDER for key type kt; private blocks (PKCS#1, SEC1,
// PKCS#8 and encrypted PKCS#8) carry their own key type.
func FromPEM(data []byte, kt types.KeyType, password []byte, opts *ToJWKOptions) (*JWK, error) {
	block, err := encoding.DecodePEM(data)
	if err != nil {
		return nil, err
	}

	switch block.Type {
	case encoding.PEMTypePublicKey, encoding.PEMTypeRSAPublicKey:
		public := ToJWKOptions{}
		if opts != nil {
			public = *opts
		}
		public.IsPrivateKey = false
		return FromDER(block.Bytes, kt, &public)
	case encoding.PEMTypePrivateKey, encoding.PEMTypeEncryptedPrivateKey:
		return FromPKCS8(block.Bytes, password, opts)
	case encoding.PEMTypeRSAPrivateKey:
		var key *rsa.PrivateKey
		if key, err = x509.ParsePKCS1PrivateKey(block.Bytes); err != nil {
			return nil, fmt.Errorf("failed to parse PKCS#1 private key: %w", err)
		}
		return fromPrivate(key, opts)
	case encoding.PEMTypeECPrivateKey:
		var key *ecdsa.PrivateKey
		if key, err = x509.ParseECPrivateKey(block.Bytes); err != nil {
			return nil, fmt.Errorf("failed to parse SEC1 private key: %w", err)
		}
		return fromPrivate(key, opts)
	}
	return nil, fmt.Errorf("%w: %s", encoding.ErrUnsupportedPEMType, block.Type)
}

func fromPrivate(key any, opts *ToJWKOptions) (*JWK, error) {
	jwk, err := FromPrivateKey(key)
	if err != nil {
		return nil, err
	}
	return finish(jwk, opts)
}

// finish applies use, alg and the kid thumbprint.
func finish(jwk *JWK, opts *ToJWKOptions) (*JWK, error) {
	if opts == nil {
		opts = &ToJWKOptions{}
	}
	jwk.Use = opts.Use
	jwk.Alg = opts.Alg
	if !opts.NoKidThumbprint {
		kid, err := CalculateThumbprint(jwk, ThumbprintOptions{})
		if err != nil {
			return nil, err
		}
		jwk.Kid = kid
	}
	return jwk, nil
}
