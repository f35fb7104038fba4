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

package jwt

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/rand"
	"crypto/rsa"
	"errors"
	"fmt"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	secpecdsa "github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
	"github.com/golang-jwt/jwt/v5"
	"github.com/jeremyhahn/go-keyconv/pkg/digest"
	"github.com/jeremyhahn/go-keyconv/pkg/encoding/jwk"
	"github.com/jeremyhahn/go-keyconv/pkg/types"
	"github.com/jeremyhahn/go-keyconv/pkg/verification"
)

var (
	ErrInvalidSignatureAlgorithm = errors.New("jwt: invalid signature algorithm")
	ErrInvalidKey                = errors.New("jwt: invalid key type")
)

// SigningMethodES256K is the JWK-backed method for ES256K (RFC 8812). It
// is registered with golang-jwt so tokens carrying "alg":"ES256K" parse.
var SigningMethodES256K = NewSigningMethodJWK(types.ES256K, nil)

func init() {
	jwt.RegisterSigningMethod(string(types.ES256K), func() jwt.SigningMethod {
		return SigningMethodES256K
	})
}

// SigningMethodJWK implements jwt.SigningMethod for *jwk.JWK keys. Verify
// delegates to a verification.RawVerifier; Sign converts the private JWK
// and produces JOSE signatures (fixed-width r||s for ECDSA).
type SigningMethodJWK struct {
	alg      types.SignatureAlgorithm
	verifier *verification.RawVerifier
}

// NewSigningMethodJWK returns a method for alg. A nil verifier uses
// verification.NewRawVerifier() defaults.
func NewSigningMethodJWK(alg types.SignatureAlgorithm, verifier *verification.RawVerifier) *SigningMethodJWK {
	if verifier == nil {
		verifier = verification.NewRawVerifier()
	}
	return &SigningMethodJWK{alg: alg, verifier: verifier}
}

// Alg returns the JWS algorithm name.
func (sm *SigningMethodJWK) Alg() string {
	return string(sm.alg)
}

// Verify verifies the signature of the signing string against a public
// (or private) JWK. A mismatch returns jwt.ErrSignatureInvalid.
func (sm *SigningMethodJWK) Verify(signingString string, signature []byte, key any) error {
	k, err := keyArg(key)
	if err != nil {
		return err
	}
	ok, err := sm.verifier.VerifyRawSignature(&verification.RawSignatureRequest{
		Data:      []byte(signingString),
		Signature: signature,
		Key:       k.Public(),
		Opts:      &verification.RawSignatureOptions{SignatureAlg: sm.alg},
	})
	if err != nil {
		return err
	}
	if !ok {
		return jwt.ErrSignatureInvalid
	}
	return nil
}

// Sign signs the signing string with a private JWK.
func (sm *SigningMethodJWK) Sign(signingString string, key any) ([]byte, error) {
	k, err := keyArg(key)
	if err != nil {
		return nil, err
	}
	kt, err := verification.ResolveKeyType(k, sm.alg)
	if err != nil {
		return nil, err
	}
	if k.Crv == "" {
		k = jwk.Sanitize(k)
		k.Crv = kt.JWKCurve()
	}
	priv, err := k.ToPrivateKey()
	if err != nil {
		return nil, err
	}

	msg := []byte(signingString)
	if sm.alg == types.EdDSA {
		edKey, ok := priv.(ed25519.PrivateKey)
		if !ok {
			return nil, fmt.Errorf("%w: %T", ErrInvalidKey, priv)
		}
		return ed25519.Sign(edKey, msg), nil
	}

	hashed, err := digest.SumHash(sm.alg.Hash(), msg)
	if err != nil {
		return nil, err
	}

	switch p := priv.(type) {
	case *secp256k1.PrivateKey:
		// SignCompact prefixes the recovery code.
		return secpecdsa.SignCompact(p, hashed, false)[1:], nil
	case *ecdsa.PrivateKey:
		r, s, err := ecdsa.Sign(rand.Reader, p, hashed)
		if err != nil {
			return nil, err
		}
		size := kt.CoordinateSize()
		out := make([]byte, 2*size)
		r.FillBytes(out[:size])
		s.FillBytes(out[size:])
		return out, nil
	case *rsa.PrivateKey:
		var opts crypto.SignerOpts = sm.alg.Hash()
		if sm.alg.IsPSS() {
			opts = &rsa.PSSOptions{
				Hash:       sm.alg.Hash(),
				SaltLength: rsa.PSSSaltLengthEqualsHash,
			}
		}
		return p.Sign(rand.Reader, hashed, opts)
	default:
		return nil, fmt.Errorf("%w: %T", ErrInvalidKey, priv)
	}
}

func keyArg(key any) (*jwk.JWK, error) {
	switch k := key.(type) {
	case *jwk.JWK:
		if k == nil {
			return nil, ErrInvalidKey
		}
		return k, nil
	case jwk.JWK:
		return &k, nil
	default:
		return nil, fmt.Errorf("%w: %T, expected *jwk.JWK", ErrInvalidKey, key)
	}
}

// MethodForKey returns the method a JWK signs with: its alg member when
// set, otherwise the default algorithm for its key type (PS256 for RSA).
func MethodForKey(key *jwk.JWK, verifier *verification.RawVerifier) (*SigningMethodJWK, error) {
	if key == nil {
		return nil, ErrInvalidKey
	}
	if key.Alg != "" {
		alg, err := types.ParseSignatureAlgorithm(key.Alg)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidSignatureAlgorithm, err)
		}
		return NewSigningMethodJWK(alg, verifier), nil
	}
	kt, err := verification.ResolveKeyType(key, "")
	if err != nil {
		return nil, err
	}
	alg, err := types.DefaultSignatureAlgorithm(kt)
	if err != nil {
		return nil, err
	}
	return NewSigningMethodJWK(alg, verifier), nil
}
