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

package der

import (
	encoding_asn1 "encoding/asn1"
	"math/big"

	"golang.org/x/crypto/cryptobyte"
	"golang.org/x/crypto/cryptobyte/asn1"
)

// oidRSAEncryption is 1.2.840.113549.1.1.1.
var oidRSAEncryption = encoding_asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 1, 1}

// RSAPublicKey holds the unsigned big-endian modulus and exponent of an RSA
// public key, in the form JWK "n" and "e" expect.
type RSAPublicKey struct {
	Modulus  []byte
	Exponent []byte
}

// UnwrapSPKIToPKCS1 returns the PKCS#1 RSAPublicKey carried by an X.509
// SubjectPublicKeyInfo. Input that is already PKCS#1 (the outer SEQUENCE
// starts with an INTEGER) is returned unchanged, so the function is
// idempotent. The result aliases der.
func UnwrapSPKIToPKCS1(der []byte) ([]byte, error) {
	c, err := locatePKCS1(der)
	if err != nil {
		return nil, err
	}
	return c.Bytes(), nil
}

// locatePKCS1 returns a cursor over exactly the PKCS#1 SEQUENCE inside der,
// keeping absolute offsets for error reporting.
func locatePKCS1(der []byte) (Cursor, error) {
	outer, rest, err := NewCursor(der).ReadExpected(TagSequence)
	if err != nil {
		return Cursor{}, err
	}
	if err := rest.expectEnd("outer SEQUENCE"); err != nil {
		return Cursor{}, err
	}

	inner := outer.Cursor()
	tag, err := inner.PeekTag()
	if err != nil {
		return Cursor{}, err
	}
	if tag == TagInteger {
		return NewCursor(der), nil
	}

	// AlgorithmIdentifier is skipped by its declared length.
	_, inner, err = inner.ReadExpected(TagSequence)
	if err != nil {
		return Cursor{}, err
	}
	bits, inner, err := inner.ReadExpected(TagBitString)
	if err != nil {
		return Cursor{}, err
	}
	if err := inner.expectEnd("subjectPublicKey"); err != nil {
		return Cursor{}, err
	}
	if len(bits.Content) == 0 {
		return Cursor{}, malformed(bits.Offset, "empty BIT STRING")
	}
	if unused := bits.Content[0]; unused != 0 {
		return Cursor{}, malformed(bits.ContentOffset(), "BIT STRING has %d unused bits", unused)
	}

	key := Cursor{data: bits.Content[1:], base: bits.ContentOffset() + 1}
	if _, rest, err := key.ReadExpected(TagSequence); err != nil {
		return Cursor{}, err
	} else if err := rest.expectEnd("RSAPublicKey"); err != nil {
		return Cursor{}, err
	}
	return key, nil
}

// ParseRSAPublicKey reads the modulus and exponent from a PKCS#1
// RSAPublicKey or an SPKI-wrapped one. DER INTEGERs are signed, so a single
// leading 0x00 sign byte is removed from each value.
func ParseRSAPublicKey(der []byte) (*RSAPublicKey, error) {
	c, err := locatePKCS1(der)
	if err != nil {
		return nil, err
	}
	seq, _, err := c.ReadExpected(TagSequence)
	if err != nil {
		return nil, err
	}

	fields := seq.Cursor()
	n, fields, err := fields.ReadExpected(TagInteger)
	if err != nil {
		return nil, err
	}
	e, fields, err := fields.ReadExpected(TagInteger)
	if err != nil {
		return nil, err
	}
	if err := fields.expectEnd("publicExponent"); err != nil {
		return nil, err
	}

	modulus, err := unsignedInteger(n)
	if err != nil {
		return nil, err
	}
	exponent, err := unsignedInteger(e)
	if err != nil {
		return nil, err
	}
	return &RSAPublicKey{Modulus: modulus, Exponent: exponent}, nil
}

func unsignedInteger(el Element) ([]byte, error) {
	v := el.Content
	if len(v) == 0 {
		return nil, malformed(el.Offset, "empty INTEGER")
	}
	if v[0]&0x80 != 0 {
		return nil, malformed(el.ContentOffset(), "negative INTEGER")
	}
	if len(v) > 1 && v[0] == 0x00 {
		v = v[1:]
	}
	return v, nil
}

// MarshalPKCS1 encodes SEQUENCE { INTEGER modulus, INTEGER exponent } from
// unsigned big-endian values.
func MarshalPKCS1(modulus, exponent []byte) ([]byte, error) {
	if len(modulus) == 0 {
		return nil, malformed(0, "empty modulus")
	}
	if len(exponent) == 0 {
		return nil, malformed(0, "empty exponent")
	}
	var b cryptobyte.Builder
	b.AddASN1(asn1.SEQUENCE, func(b *cryptobyte.Builder) {
		b.AddASN1BigInt(new(big.Int).SetBytes(modulus))
		b.AddASN1BigInt(new(big.Int).SetBytes(exponent))
	})
	return b.Bytes()
}

// WrapPKCS1InSPKI wraps a PKCS#1 RSAPublicKey in a SubjectPublicKeyInfo
// with the rsaEncryption algorithm identifier. SPKI input is validated and
// returned unchanged.
func WrapPKCS1InSPKI(der []byte) ([]byte, error) {
	pkcs1, err := UnwrapSPKIToPKCS1(der)
	if err != nil {
		return nil, err
	}
	if len(pkcs1) != len(der) {
		return der, nil
	}
	if _, err := ParseRSAPublicKey(pkcs1); err != nil {
		return nil, err
	}
	var b cryptobyte.Builder
	b.AddASN1(asn1.SEQUENCE, func(b *cryptobyte.Builder) {
		b.AddASN1(asn1.SEQUENCE, func(b *cryptobyte.Builder) {
			b.AddASN1ObjectIdentifier(oidRSAEncryption)
			b.AddASN1NULL()
		})
		b.AddASN1BitString(pkcs1)
	})
	return b.Bytes()
}
