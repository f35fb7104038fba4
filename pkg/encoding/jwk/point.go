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
	"crypto/ecdh"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"fmt"
	"math/big"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/jeremyhahn/go-keyconv/pkg/types"
)

const (
	pointUncompressed = 0x04
	pointEvenY        = 0x02
	pointOddY         = 0x03
)

// CompressPoint converts an uncompressed SEC1 point (0x04||X||Y) to its
// compressed form (0x02|0x03||X). The point is not checked against a curve.
func CompressPoint(uncompressed []byte) ([]byte, error) {
	if len(uncompressed) < 3 || len(uncompressed)%2 == 0 || uncompressed[0] != pointUncompressed {
		return nil, fmt.Errorf("%w: not an uncompressed point", ErrInvalidPoint)
	}
	size := (len(uncompressed) - 1) / 2
	out := make([]byte, 1+size)
	out[0] = pointEvenY | uncompressed[len(uncompressed)-1]&1
	copy(out[1:], uncompressed[1:1+size])
	return out, nil
}

// DecompressPoint recovers the uncompressed point for a compressed SEC1
// point on the curve of kt.
func DecompressPoint(kt types.KeyType, compressed []byte) ([]byte, error) {
	if kt.Family() != types.FamilyEC {
		return nil, fmt.Errorf("%w: %s has no point compression", ErrUnsupportedKeyType, kt)
	}
	size := kt.CoordinateSize()
	if len(compressed) != 1+size {
		return nil, &InvalidKeyLengthError{KeyType: kt, Expected: []int{1 + size}, Actual: len(compressed)}
	}
	if compressed[0] != pointEvenY && compressed[0] != pointOddY {
		return nil, fmt.Errorf("%w: compressed point prefix 0x%02x", ErrInvalidPoint, compressed[0])
	}

	if kt == types.KeyTypeSecp256k1 {
		pub, err := secp256k1.ParsePubKey(compressed)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidPoint, err)
		}
		return pub.SerializeUncompressed(), nil
	}

	curve, _ := ellipticCurve(kt)
	x, y := elliptic.UnmarshalCompressed(curve, compressed)
	if x == nil {
		return nil, fmt.Errorf("%w: point is not on %s", ErrInvalidPoint, kt.JWKCurve())
	}
	return uncompressedPoint(size, x, y), nil
}

func uncompressedPoint(size int, x, y *big.Int) []byte {
	out := make([]byte, 1+2*size)
	out[0] = pointUncompressed
	x.FillBytes(out[1 : 1+size])
	y.FillBytes(out[1+size:])
	return out
}

// checkPoint verifies that an uncompressed point lies on the curve of kt.
func checkPoint(kt types.KeyType, point []byte) error {
	if point[0] != pointUncompressed {
		return fmt.Errorf("%w: uncompressed point prefix 0x%02x", ErrInvalidPoint, point[0])
	}
	if kt == types.KeyTypeSecp256k1 {
		if _, err := secp256k1.ParsePubKey(point); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidPoint, err)
		}
		return nil
	}
	curve, _ := ecdhCurve(kt)
	if _, err := curve.NewPublicKey(point); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPoint, err)
	}
	return nil
}

// derivePublicRaw computes the public key bytes for private key bytes d:
// the uncompressed point for EC keys, the 32-byte key for OKP keys.
func derivePublicRaw(kt types.KeyType, d []byte) ([]byte, error) {
	priv, err := privateKeyFromRaw(kt, d)
	if err != nil {
		return nil, err
	}
	switch key := priv.(type) {
	case *secp256k1.PrivateKey:
		return key.PubKey().SerializeUncompressed(), nil
	case *ecdsa.PrivateKey:
		pub, err := key.PublicKey.ECDH()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidPoint, err)
		}
		return pub.Bytes(), nil
	case ed25519.PrivateKey:
		return append([]byte(nil), key.Public().(ed25519.PublicKey)...), nil
	case *ecdh.PrivateKey:
		return key.PublicKey().Bytes(), nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedKeyType, kt)
}

// privateKeyFromRaw builds a crypto.PrivateKey for raw private key bytes.
// EC scalars must be in [1, n-1]. Ed25519 accepts a 32-byte seed or the
// 64-byte seed||public form.
func privateKeyFromRaw(kt types.KeyType, d []byte) (crypto.PrivateKey, error) {
	switch kt {
	case types.KeyTypeSecp256k1:
		if len(d) != 32 {
			return nil, &InvalidKeyLengthError{KeyType: kt, Private: true, Expected: []int{32}, Actual: len(d)}
		}
		var s secp256k1.ModNScalar
		if overflow := s.SetByteSlice(d); overflow || s.IsZero() {
			return nil, fmt.Errorf("%w: secp256k1 private scalar out of range", ErrInvalidPoint)
		}
		return secp256k1.NewPrivateKey(&s), nil

	case types.KeyTypeSecp256r1, types.KeyTypeSecp384r1, types.KeyTypeSecp521r1:
		size := kt.CoordinateSize()
		if len(d) != size {
			return nil, &InvalidKeyLengthError{KeyType: kt, Private: true, Expected: []int{size}, Actual: len(d)}
		}
		ec, _ := ecdhCurve(kt)
		key, err := ec.NewPrivateKey(d)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidPoint, err)
		}
		curve, _ := ellipticCurve(kt)
		point := key.PublicKey().Bytes()
		return &ecdsa.PrivateKey{
			PublicKey: ecdsa.PublicKey{
				Curve: curve,
				X:     new(big.Int).SetBytes(point[1 : 1+size]),
				Y:     new(big.Int).SetBytes(point[1+size:]),
			},
			D: new(big.Int).SetBytes(d),
		}, nil

	case types.KeyTypeEd25519:
		switch len(d) {
		case ed25519.SeedSize:
			return ed25519.NewKeyFromSeed(d), nil
		case ed25519.PrivateKeySize:
			key := ed25519.NewKeyFromSeed(d[:ed25519.SeedSize])
			if string(key[ed25519.SeedSize:]) != string(d[ed25519.SeedSize:]) {
				return nil, fmt.Errorf("%w: Ed25519 public half does not match seed", ErrInvalidPoint)
			}
			return key, nil
		}
		return nil, &InvalidKeyLengthError{KeyType: kt, Private: true,
			Expected: []int{ed25519.SeedSize, ed25519.PrivateKeySize}, Actual: len(d)}

	case types.KeyTypeX25519:
		curve, _ := ecdhCurve(kt)
		key, err := curve.NewPrivateKey(d)
		if err != nil {
			return nil, &InvalidKeyLengthError{KeyType: kt, Private: true, Expected: []int{32}, Actual: len(d)}
		}
		return key, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedKeyType, kt)
}

// publicKeyFromRaw builds a crypto.PublicKey from the bytes FromJWK
// produces: an uncompressed point, a 32-byte OKP key, or PKCS#1 DER.
func publicKeyFromRaw(kt types.KeyType, raw []byte) (crypto.PublicKey, error) {
	switch kt {
	case types.KeyTypeSecp256k1:
		pub, err := secp256k1.ParsePubKey(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidPoint, err)
		}
		return pub, nil

	case types.KeyTypeSecp256r1, types.KeyTypeSecp384r1, types.KeyTypeSecp521r1:
		if err := checkPoint(kt, raw); err != nil {
			return nil, err
		}
		curve, _ := ellipticCurve(kt)
		size := kt.CoordinateSize()
		return &ecdsa.PublicKey{
			Curve: curve,
			X:     new(big.Int).SetBytes(raw[1 : 1+size]),
			Y:     new(big.Int).SetBytes(raw[1+size:]),
		}, nil

	case types.KeyTypeEd25519:
		if len(raw) != ed25519.PublicKeySize {
			return nil, &InvalidKeyLengthError{KeyType: kt, Expected: []int{ed25519.PublicKeySize}, Actual: len(raw)}
		}
		return ed25519.PublicKey(append([]byte(nil), raw...)), nil

	case types.KeyTypeX25519:
		curve, _ := ecdhCurve(kt)
		pub, err := curve.NewPublicKey(raw)
		if err != nil {
			return nil, &InvalidKeyLengthError{KeyType: kt, Expected: []int{32}, Actual: len(raw)}
		}
		return pub, nil

	case types.KeyTypeRSA:
		jwk, err := rsaPublicJWK(raw)
		if err != nil {
			return nil, err
		}
		return jwk.toRSAPublicKey()
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedKeyType, kt)
}
