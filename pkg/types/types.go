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

// Package types defines the closed enumerations shared by the key
// conversion and verification packages.
package types

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnsupportedKeyType is returned for any kty/crv/key type that does not
	// map to exactly one KeyType.
	ErrUnsupportedKeyType = errors.New("not_supported: unsupported key type")

	// ErrUnsupportedAlgorithm is returned for unknown signature algorithm names.
	ErrUnsupportedAlgorithm = errors.New("not_supported: unsupported algorithm")
)

// JWK kty values
const (
	KtyEC  = "EC"
	KtyOKP = "OKP"
	KtyRSA = "RSA"
	KtyOct = "oct"
)

// =============================================================================
// Key Family
// =============================================================================

// Family groups key types by the JWK kty they are serialized under.
type Family uint8

const (
	FamilyEC Family = 1 + iota
	FamilyOKP
	FamilyRSA
)

// String returns the JWK kty for the family.
func (f Family) String() string {
	switch f {
	case FamilyEC:
		return KtyEC
	case FamilyOKP:
		return KtyOKP
	case FamilyRSA:
		return KtyRSA
	default:
		return fmt.Sprintf("UNKNOWN(%d)", f)
	}
}

// =============================================================================
// Key Type
// =============================================================================

// KeyType identifies a concrete key family and curve. Exactly one KeyType
// corresponds to each valid JWK (kty, crv) pair; RSA carries no curve.
type KeyType uint8

const (
	KeyTypeSecp256k1 KeyType = 1 + iota
	KeyTypeSecp256r1
	KeyTypeSecp384r1
	KeyTypeSecp521r1
	KeyTypeEd25519
	KeyTypeX25519
	KeyTypeRSA
)

// KeyTypes lists every supported key type in declaration order.
var KeyTypes = []KeyType{
	KeyTypeSecp256k1,
	KeyTypeSecp256r1,
	KeyTypeSecp384r1,
	KeyTypeSecp521r1,
	KeyTypeEd25519,
	KeyTypeX25519,
	KeyTypeRSA,
}

// String returns the canonical lowercase name of the key type.
func (kt KeyType) String() string {
	switch kt {
	case KeyTypeSecp256k1:
		return "secp256k1"
	case KeyTypeSecp256r1:
		return "secp256r1"
	case KeyTypeSecp384r1:
		return "secp384r1"
	case KeyTypeSecp521r1:
		return "secp521r1"
	case KeyTypeEd25519:
		return "ed25519"
	case KeyTypeX25519:
		return "x25519"
	case KeyTypeRSA:
		return "rsa"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", kt)
	}
}

// IsValid reports whether kt is one of the declared key types.
func (kt KeyType) IsValid() bool {
	return kt >= KeyTypeSecp256k1 && kt <= KeyTypeRSA
}

// Family returns the JWK family of the key type.
func (kt KeyType) Family() Family {
	switch kt {
	case KeyTypeSecp256k1, KeyTypeSecp256r1, KeyTypeSecp384r1, KeyTypeSecp521r1:
		return FamilyEC
	case KeyTypeEd25519, KeyTypeX25519:
		return FamilyOKP
	case KeyTypeRSA:
		return FamilyRSA
	default:
		return 0
	}
}

// JWKKty returns the JWK "kty" member for the key type.
func (kt KeyType) JWKKty() string {
	if !kt.IsValid() {
		return ""
	}
	return kt.Family().String()
}

// JWKCurve returns the JWK "crv" member, or "" for RSA.
func (kt KeyType) JWKCurve() string {
	switch kt {
	case KeyTypeSecp256k1:
		return string(CurveSecp256k1)
	case KeyTypeSecp256r1:
		return string(CurveP256)
	case KeyTypeSecp384r1:
		return string(CurveP384)
	case KeyTypeSecp521r1:
		return string(CurveP521)
	case KeyTypeEd25519:
		return string(CurveEd25519)
	case KeyTypeX25519:
		return string(CurveX25519)
	default:
		return ""
	}
}

// CoordinateSize returns the fixed big-endian width in bytes of a single
// coordinate (EC) or of the raw key (OKP). RSA has no fixed width and
// returns 0.
func (kt KeyType) CoordinateSize() int {
	switch kt {
	case KeyTypeSecp256k1, KeyTypeSecp256r1, KeyTypeEd25519, KeyTypeX25519:
		return 32
	case KeyTypeSecp384r1:
		return 48
	case KeyTypeSecp521r1:
		return 66
	default:
		return 0
	}
}

// ParseKeyType parses a key type name. Common aliases (P-256, prime256v1,
// ES256K curve names) are accepted, case-insensitively.
func ParseKeyType(s string) (KeyType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "secp256k1", "k-256", "k256":
		return KeyTypeSecp256k1, nil
	case "secp256r1", "p-256", "p256", "prime256v1":
		return KeyTypeSecp256r1, nil
	case "secp384r1", "p-384", "p384":
		return KeyTypeSecp384r1, nil
	case "secp521r1", "p-521", "p521":
		return KeyTypeSecp521r1, nil
	case "ed25519":
		return KeyTypeEd25519, nil
	case "x25519":
		return KeyTypeX25519, nil
	case "rsa":
		return KeyTypeRSA, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedKeyType, s)
	}
}

// KeyTypeFromJWK maps a JWK (kty, crv) pair to its KeyType. The match is
// exact: JWK member values are case-sensitive.
func KeyTypeFromJWK(kty, crv string) (KeyType, error) {
	switch kty {
	case KtyEC:
		switch EllipticCurve(crv) {
		case CurveSecp256k1:
			return KeyTypeSecp256k1, nil
		case CurveP256:
			return KeyTypeSecp256r1, nil
		case CurveP384:
			return KeyTypeSecp384r1, nil
		case CurveP521:
			return KeyTypeSecp521r1, nil
		}
	case KtyOKP:
		switch EllipticCurve(crv) {
		case CurveEd25519:
			return KeyTypeEd25519, nil
		case CurveX25519:
			return KeyTypeX25519, nil
		}
	case KtyRSA:
		return KeyTypeRSA, nil
	}
	return 0, fmt.Errorf("%w: kty=%q crv=%q", ErrUnsupportedKeyType, kty, crv)
}
