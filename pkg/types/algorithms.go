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

package types

import (
	"crypto"
	"fmt"
	"strings"
)

// =============================================================================
// Curve Name Constants
// =============================================================================
// Curve names are the JWK "crv" registry values (RFC 7518, RFC 8037, RFC 8812).

// EllipticCurve represents JWK curve identifiers.
type EllipticCurve string

const (
	// CurveP256 is NIST P-256 (secp256r1, prime256v1).
	CurveP256 EllipticCurve = "P-256"

	// CurveP384 is NIST P-384 (secp384r1).
	CurveP384 EllipticCurve = "P-384"

	// CurveP521 is NIST P-521 (secp521r1).
	CurveP521 EllipticCurve = "P-521"

	// CurveSecp256k1 is the secp256k1 curve used in Bitcoin/Ethereum.
	CurveSecp256k1 EllipticCurve = "secp256k1"

	// CurveX25519 is Curve25519 for key agreement (X25519).
	CurveX25519 EllipticCurve = "X25519"

	// CurveEd25519 is the Edwards curve used for Ed25519 signatures.
	CurveEd25519 EllipticCurve = "Ed25519"
)

// String returns the string representation.
func (c EllipticCurve) String() string {
	return string(c)
}

// =============================================================================
// Signature Algorithms
// =============================================================================

// SignatureAlgorithm is a JOSE "alg" identifier for a signature scheme.
type SignatureAlgorithm string

const (
	ES256K SignatureAlgorithm = "ES256K"
	ES256  SignatureAlgorithm = "ES256"
	ES384  SignatureAlgorithm = "ES384"
	ES512  SignatureAlgorithm = "ES512"
	EdDSA  SignatureAlgorithm = "EdDSA"
	RS256  SignatureAlgorithm = "RS256"
	RS384  SignatureAlgorithm = "RS384"
	RS512  SignatureAlgorithm = "RS512"
	PS256  SignatureAlgorithm = "PS256"
	PS384  SignatureAlgorithm = "PS384"
	PS512  SignatureAlgorithm = "PS512"
)

// SignatureAlgorithms lists every supported signature algorithm.
var SignatureAlgorithms = []SignatureAlgorithm{
	ES256K, ES256, ES384, ES512, EdDSA,
	RS256, RS384, RS512, PS256, PS384, PS512,
}

// String returns the string representation.
func (s SignatureAlgorithm) String() string {
	return string(s)
}

// IsValid reports whether s is one of the declared algorithms.
func (s SignatureAlgorithm) IsValid() bool {
	for _, alg := range SignatureAlgorithms {
		if alg == s {
			return true
		}
	}
	return false
}

// IsRSA reports whether the algorithm names an RSA scheme (RS* or PS*).
func (s SignatureAlgorithm) IsRSA() bool {
	return s.IsPKCS1v15() || s.IsPSS()
}

// IsPKCS1v15 reports whether the algorithm is RSASSA-PKCS1-v1_5.
func (s SignatureAlgorithm) IsPKCS1v15() bool {
	return s == RS256 || s == RS384 || s == RS512
}

// IsPSS reports whether the algorithm is RSASSA-PSS.
func (s SignatureAlgorithm) IsPSS() bool {
	return s == PS256 || s == PS384 || s == PS512
}

// Hash returns the pre-hash used by the algorithm. EdDSA has no separate
// pre-hash and returns 0.
func (s SignatureAlgorithm) Hash() crypto.Hash {
	switch s {
	case ES256K, ES256, RS256, PS256:
		return crypto.SHA256
	case ES384, RS384, PS384:
		return crypto.SHA384
	case ES512, RS512, PS512:
		return crypto.SHA512
	default:
		return 0
	}
}

// KeyType returns the key type an algorithm is bound to. RSA algorithms
// return KeyTypeRSA.
func (s SignatureAlgorithm) KeyType() (KeyType, bool) {
	switch s {
	case ES256K:
		return KeyTypeSecp256k1, true
	case ES256:
		return KeyTypeSecp256r1, true
	case ES384:
		return KeyTypeSecp384r1, true
	case ES512:
		return KeyTypeSecp521r1, true
	case EdDSA:
		return KeyTypeEd25519, true
	case RS256, RS384, RS512, PS256, PS384, PS512:
		return KeyTypeRSA, true
	default:
		return 0, false
	}
}

// ParseSignatureAlgorithm parses a JOSE algorithm name. "Ed25519" is
// accepted as an alias for EdDSA.
func ParseSignatureAlgorithm(s string) (SignatureAlgorithm, error) {
	if strings.EqualFold(s, "Ed25519") {
		return EdDSA, nil
	}
	alg := SignatureAlgorithm(strings.TrimSpace(s))
	if !alg.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedAlgorithm, s)
	}
	return alg, nil
}

// DefaultSignatureAlgorithm returns the algorithm used when neither the
// caller nor the JWK names one.
func DefaultSignatureAlgorithm(kt KeyType) (SignatureAlgorithm, error) {
	switch kt {
	case KeyTypeSecp256k1:
		return ES256K, nil
	case KeyTypeSecp256r1:
		return ES256, nil
	case KeyTypeSecp384r1:
		return ES384, nil
	case KeyTypeSecp521r1:
		return ES512, nil
	case KeyTypeEd25519:
		return EdDSA, nil
	case KeyTypeRSA:
		return PS256, nil
	default:
		return "", fmt.Errorf("%w: no signature algorithm for %s", ErrUnsupportedKeyType, kt)
	}
}
