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
	"crypto/ed25519"
	"crypto/rsa"
	"crypto/x509"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/jeremyhahn/go-keyconv/pkg/encoding"
	"github.com/jeremyhahn/go-keyconv/pkg/encoding/der"
	"github.com/jeremyhahn/go-keyconv/pkg/types"
)

// ToJWKOptions controls ToJWK.
type ToJWKOptions struct {
	// IsPrivateKey marks raw as private key material. The public members
	// are derived from it.
	IsPrivateKey bool

	// NoKidThumbprint suppresses the kid member, which otherwise carries
	// the SHA-256 thumbprint.
	NoKidThumbprint bool

	Use string
	Alg string
}

// rawLengths returns the accepted raw byte lengths for kt.
func rawLengths(kt types.KeyType, private bool) []int {
	switch kt.Family() {
	case types.FamilyEC:
		size := kt.CoordinateSize()
		if private {
			return []int{size}
		}
		return []int{1 + size, 1 + 2*size}
	case types.FamilyOKP:
		if private && kt == types.KeyTypeEd25519 {
			return []int{ed25519.SeedSize, ed25519.PrivateKeySize}
		}
		return []int{32}
	}
	return nil
}

func checkLength(kt types.KeyType, private bool, raw []byte) error {
	accepted := rawLengths(kt, private)
	for _, n := range accepted {
		if len(raw) == n {
			return nil
		}
	}
	return &InvalidKeyLengthError{KeyType: kt, Private: private, Expected: accepted, Actual: len(raw)}
}

// ToJWK builds a JWK from raw key bytes of type kt.
//
// EC keys accept a private scalar or a compressed/uncompressed SEC1 point;
// OKP keys accept the 32-byte key (or the 64-byte Ed25519 seed||public
// form); RSA keys accept PKCS#1 or SPKI DER for public keys and PKCS#1 or
// PKCS#8 DER for private keys. Unless opts.NoKidThumbprint is set, kid is
// the SHA-256 thumbprint of the result.
func ToJWK(raw []byte, kt types.KeyType, opts *ToJWKOptions) (*JWK, error) {
	if opts == nil {
		opts = &ToJWKOptions{}
	}
	if !kt.IsValid() {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedKeyType, kt)
	}

	var (
		jwk *JWK
		err error
	)
	switch kt.Family() {
	case types.FamilyRSA:
		if opts.IsPrivateKey {
			jwk, err = rsaPrivateJWK(raw)
		} else {
			jwk, err = rsaPublicJWK(raw)
		}
	case types.FamilyEC:
		jwk, err = ecJWK(kt, raw, opts.IsPrivateKey)
	case types.FamilyOKP:
		jwk, err = okpJWK(kt, raw, opts.IsPrivateKey)
	default:
		err = fmt.Errorf("%w: %s", ErrUnsupportedKeyType, kt)
	}
	if err != nil {
		return nil, err
	}

	return finish(jwk, opts)
}

// ToJWKFromHex is ToJWK for hex input. An optional 0x prefix and
// surrounding whitespace are ignored.
func ToJWKFromHex(s string, kt types.KeyType, opts *ToJWKOptions) (*JWK, error) {
	raw, err := DecodeHex(s)
	if err != nil {
		return nil, err
	}
	return ToJWK(raw, kt, opts)
}

// DecodeHex decodes a hex string, ignoring an optional 0x prefix.
func DecodeHex(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	raw, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: hex: %v", ErrInvalidEncoding, err)
	}
	return raw, nil
}

func ecJWK(kt types.KeyType, raw []byte, private bool) (*JWK, error) {
	if err := checkLength(kt, private, raw); err != nil {
		return nil, err
	}
	if private {
		point, err := derivePublicRaw(kt, raw)
		if err != nil {
			return nil, err
		}
		jwk := fromUncompressedPoint(kt, point)
		jwk.D = encode(raw)
		return jwk, nil
	}

	point := raw
	if len(raw) == 1+kt.CoordinateSize() {
		var err error
		if point, err = DecompressPoint(kt, raw); err != nil {
			return nil, err
		}
	} else if err := checkPoint(kt, raw); err != nil {
		return nil, err
	}
	return fromUncompressedPoint(kt, point), nil
}

func okpJWK(kt types.KeyType, raw []byte, private bool) (*JWK, error) {
	if err := checkLength(kt, private, raw); err != nil {
		return nil, err
	}
	if !private {
		return &JWK{Kty: types.KtyOKP, Crv: kt.JWKCurve(), X: encode(raw)}, nil
	}
	priv, err := privateKeyFromRaw(kt, raw)
	if err != nil {
		return nil, err
	}
	return FromPrivateKey(priv)
}

func rsaPublicJWK(raw []byte) (*JWK, error) {
	pub, err := der.ParseRSAPublicKey(raw)
	if err != nil {
		return nil, err
	}
	return &JWK{
		Kty: types.KtyRSA,
		N:   encode(pub.Modulus),
		E:   encode(pub.Exponent),
	}, nil
}

func rsaPrivateJWK(raw []byte) (*JWK, error) {
	if key, err := x509.ParsePKCS1PrivateKey(raw); err == nil {
		return FromPrivateKey(key)
	}
	parsed, err := encoding.DecodePKCS8(raw, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: RSA private key is neither PKCS#1 nor PKCS#8", der.ErrMalformed)
	}
	key, ok := parsed.(*rsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("%w: PKCS#8 key is %T, not RSA", ErrUnsupportedKeyType, parsed)
	}
	return FromPrivateKey(key)
}

// FromJWK exports the public key bytes of jwk: 0x04||X||Y for EC, X for
// OKP, PKCS#1 DER built from n and e for RSA, and the raw k for oct.
func FromJWK(jwk *JWK) ([]byte, error) {
	j := Sanitize(jwk)
	if err := Validate(j, ValidateOptions{CrvOptional: true}); err != nil {
		return nil, err
	}

	switch j.Kty {
	case types.KtyEC:
		kt, err := types.KeyTypeFromJWK(j.Kty, j.Crv)
		if err != nil {
			return nil, err
		}
		size := kt.CoordinateSize()
		x, err := coordinate(kt, "x", j.X)
		if err != nil {
			return nil, err
		}
		y, err := coordinate(kt, "y", j.Y)
		if err != nil {
			return nil, err
		}
		out := make([]byte, 1+2*size)
		out[0] = pointUncompressed
		copy(out[1:], x)
		copy(out[1+size:], y)
		return out, nil

	case types.KtyOKP:
		x, err := decodeMember("x", j.X)
		if err != nil {
			return nil, err
		}
		// Both OKP curves use 32-byte public keys.
		kt := types.KeyTypeEd25519
		if j.Crv != "" {
			if kt, err = types.KeyTypeFromJWK(j.Kty, j.Crv); err != nil {
				return nil, err
			}
		}
		if err := checkLength(kt, false, x); err != nil {
			return nil, err
		}
		return x, nil

	case types.KtyRSA:
		n, err := decodeMember("n", j.N)
		if err != nil {
			return nil, err
		}
		e, err := decodeMember("e", j.E)
		if err != nil {
			return nil, err
		}
		return der.MarshalPKCS1(n, e)

	case types.KtyOct:
		return decodeMember("k", j.K)
	}
	return nil, fmt.Errorf("%w: kty %q", ErrUnsupportedKeyType, j.Kty)
}

// FromJWKHex is FromJWK with lowercase hex output.
func FromJWKHex(jwk *JWK) (string, error) {
	raw, err := FromJWK(jwk)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(raw), nil
}

// coordinate decodes an EC coordinate and left-pads it to the curve width.
// Some encoders strip leading zero bytes; longer values are rejected.
func coordinate(kt types.KeyType, name, value string) ([]byte, error) {
	b, err := decodeMember(name, value)
	if err != nil {
		return nil, err
	}
	size := kt.CoordinateSize()
	if len(b) > size {
		return nil, &InvalidKeyLengthError{KeyType: kt, Expected: []int{size}, Actual: len(b)}
	}
	if len(b) < size {
		padded := make([]byte, size)
		copy(padded[size-len(b):], b)
		b = padded
	}
	return b, nil
}

// FromDER builds a JWK from a DER-encoded public key. RSA accepts PKCS#1
// or SPKI; EC and OKP keys accept any structure that carries the curve
// OID followed by the key BIT STRING (SPKI, SEC1, PKCS#8).
func FromDER(data []byte, kt types.KeyType, opts *ToJWKOptions) (*JWK, error) {
	if kt == types.KeyTypeRSA {
		return ToJWK(data, kt, opts)
	}
	point, err := der.ExtractECPoint(data, kt)
	if err != nil {
		return nil, err
	}
	public := ToJWKOptions{}
	if opts != nil {
		public = *opts
	}
	public.IsPrivateKey = false
	return ToJWK(point, kt, &public)
}
