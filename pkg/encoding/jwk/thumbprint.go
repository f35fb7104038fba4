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
	"crypto"
	"encoding/base64"
	"fmt"

	"github.com/jeremyhahn/go-keyconv/pkg/digest"
)

// ThumbprintURIPrefix is the RFC 9278 URN prefix for JWK thumbprints.
const ThumbprintURIPrefix = "urn:ietf:params:oauth:jwk-thumbprint:"

// ThumbprintOptions controls CalculateThumbprint.
type ThumbprintOptions struct {
	// Digest defaults to SHA-256.
	Digest digest.Algorithm
}

// CalculateThumbprint computes the RFC 7638 thumbprint of jwk:
// sanitize, validate, reduce to the required members, canonicalize,
// hash and base64url-encode without padding. Private members never
// influence the result.
func CalculateThumbprint(jwk *JWK, opts ThumbprintOptions) (string, error) {
	alg := opts.Digest
	if alg == "" {
		alg = digest.SHA256
	}

	sanitized := Sanitize(jwk)
	if err := Validate(sanitized, ValidateOptions{}); err != nil {
		return "", err
	}
	minimal, err := Minimal(sanitized)
	if err != nil {
		return "", err
	}
	canonical, err := Canonicalize(minimal)
	if err != nil {
		return "", err
	}
	sum, err := digest.Sum(alg, canonical)
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(sum), nil
}

// ThumbprintSHA256 computes the SHA-256 JWK thumbprint as defined in RFC 7638.
//
// For RSA keys: {"e":"...","kty":"RSA","n":"..."}
// For EC keys: {"crv":"...","kty":"EC","x":"...","y":"..."}
// For OKP keys: {"crv":"...","kty":"OKP","x":"..."}
func ThumbprintSHA256(key crypto.PublicKey) (string, error) {
	return Thumbprint(key, crypto.SHA256)
}

// ThumbprintSHA512 computes the SHA-512 JWK thumbprint.
func ThumbprintSHA512(key crypto.PublicKey) (string, error) {
	return Thumbprint(key, crypto.SHA512)
}

// Thumbprint computes a JWK thumbprint of a crypto.PublicKey using the
// given SHA-2 hash.
func Thumbprint(key crypto.PublicKey, hashFunc crypto.Hash) (string, error) {
	jwk, err := FromPublicKey(key)
	if err != nil {
		return "", fmt.Errorf("failed to convert key to JWK: %w", err)
	}
	return jwk.Thumbprint(hashFunc)
}

// Thumbprint computes the JWK thumbprint for this key using the specified hash function.
// This method can be called on both public and private keys.
func (jwk *JWK) Thumbprint(hashFunc crypto.Hash) (string, error) {
	alg, err := digest.ForHash(hashFunc)
	if err != nil {
		return "", err
	}
	return CalculateThumbprint(jwk, ThumbprintOptions{Digest: alg})
}

// ThumbprintSHA256 is a convenience method that computes the SHA-256 thumbprint.
func (jwk *JWK) ThumbprintSHA256() (string, error) {
	return jwk.Thumbprint(crypto.SHA256)
}

// ThumbprintURI returns the RFC 9278 thumbprint URI, for example
// urn:ietf:params:oauth:jwk-thumbprint:sha-256:<thumbprint>.
func ThumbprintURI(jwk *JWK, alg digest.Algorithm) (string, error) {
	if alg == "" {
		alg = digest.SHA256
	}
	tp, err := CalculateThumbprint(jwk, ThumbprintOptions{Digest: alg})
	if err != nil {
		return "", err
	}
	return ThumbprintURIPrefix + hashName(alg) + ":" + tp, nil
}

// hashName returns the IANA Named Information hash name.
func hashName(alg digest.Algorithm) string {
	switch alg {
	case digest.SHA384:
		return "sha-384"
	case digest.SHA512:
		return "sha-512"
	default:
		return "sha-256"
	}
}

// KeyAuthorization computes the key authorization string for ACME challenges.
// This combines a token with the JWK thumbprint as defined in RFC 8555.
//
// The key authorization is: token || '.' || base64url(SHA-256(JWK))
func KeyAuthorization(token string, key crypto.PublicKey) (string, error) {
	thumbprint, err := ThumbprintSHA256(key)
	if err != nil {
		return "", fmt.Errorf("failed to compute JWK thumbprint: %w", err)
	}
	return fmt.Sprintf("%s.%s", token, thumbprint), nil
}
