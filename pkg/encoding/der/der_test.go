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
	"bytes"
	"crypto/ecdh"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/hex"
	"errors"
	"testing"

	"github.com/jeremyhahn/go-keyconv/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func generateRSAKey(t *testing.T, bits int) *rsa.PrivateKey {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, bits)
	require.NoError(t, err)
	return key
}

func requireMalformedAt(t *testing.T, err error, offset int) {
	t.Helper()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMalformed), "expected ErrMalformed, got %v", err)
	var me *MalformedError
	require.True(t, errors.As(err, &me))
	assert.Equal(t, offset, me.Offset, "error: %v", err)
	assert.Contains(t, err.Error(), "invalid DER encoding:")
}

func TestDecodeLength(t *testing.T) {
	tests := []struct {
		name       string
		in         []byte
		offset     int
		wantLength int
		wantHeader int
	}{
		{"short form zero", []byte{0x00}, 0, 0, 1},
		{"short form max", []byte{0x7f}, 0, 127, 1},
		{"long form one byte", []byte{0x81, 0x80}, 0, 128, 2},
		{"long form two bytes", []byte{0x82, 0x01, 0x0a}, 0, 266, 3},
		{"offset into buffer", []byte{0x30, 0x82, 0x01, 0x22}, 1, 290, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			length, header, err := DecodeLength(tt.in, tt.offset)
			require.NoError(t, err)
			assert.Equal(t, tt.wantLength, length)
			assert.Equal(t, tt.wantHeader, header)
		})
	}
}

func TestDecodeLength_Malformed(t *testing.T) {
	tests := []struct {
		name   string
		in     []byte
		offset int
	}{
		{"empty", []byte{}, 0},
		{"offset past end", []byte{0x01}, 1},
		{"indefinite", []byte{0x80}, 0},
		{"truncated long form", []byte{0x82, 0x01}, 0},
		{"non-minimal short value", []byte{0x81, 0x7f}, 0},
		{"non-minimal leading zero", []byte{0x82, 0x00, 0xff}, 0},
		{"too many length bytes", []byte{0x85, 0x01, 0x01, 0x01, 0x01, 0x01}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := DecodeLength(tt.in, tt.offset)
			requireMalformedAt(t, err, tt.offset)
		})
	}
}

func TestCursor_ReadElement(t *testing.T) {
	// SEQUENCE { INTEGER 5, NULL }
	in := []byte{0x30, 0x05, 0x02, 0x01, 0x05, 0x05, 0x00}

	seq, rest, err := NewCursor(in).ReadExpected(TagSequence)
	require.NoError(t, err)
	assert.True(t, rest.Empty())
	assert.Equal(t, 0, seq.Offset)
	assert.Equal(t, 2, seq.HeaderLen)
	assert.True(t, seq.Constructed())

	inner := seq.Cursor()
	assert.Equal(t, 2, inner.Offset())
	i, inner, err := inner.ReadExpected(TagInteger)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x05}, i.Content)
	assert.Equal(t, 2, i.Offset)

	null, inner, err := inner.ReadExpected(TagNull)
	require.NoError(t, err)
	assert.Empty(t, null.Content)
	assert.Equal(t, 7, null.End())
	assert.True(t, inner.Empty())

	_, _, err = inner.ReadElement()
	requireMalformedAt(t, err, 7)
}

func TestCursor_IsImmutable(t *testing.T) {
	in := []byte{0x02, 0x01, 0x01, 0x02, 0x01, 0x02}
	c := NewCursor(in)
	first, _, err := c.ReadElement()
	require.NoError(t, err)
	again, _, err := c.ReadElement()
	require.NoError(t, err)
	assert.Equal(t, first, again)
	assert.Equal(t, 0, c.Offset())
}

func TestCursor_NestedOffsets(t *testing.T) {
	// SEQUENCE { SEQUENCE { INTEGER with truncated length } }
	in := []byte{0x30, 0x04, 0x30, 0x02, 0x02, 0x82}
	outer, _, err := NewCursor(in).ReadElement()
	require.NoError(t, err)
	inner, _, err := outer.Cursor().ReadElement()
	require.NoError(t, err)
	_, _, err = inner.Cursor().ReadElement()
	requireMalformedAt(t, err, 5)
}

func TestCursor_LengthExceedsInput(t *testing.T) {
	_, _, err := NewCursor([]byte{0x30, 0x05, 0x02, 0x01}).ReadElement()
	requireMalformedAt(t, err, 0)
}

func TestCursor_HighTagNumber(t *testing.T) {
	_, _, err := NewCursor([]byte{0x1f, 0x81, 0x00}).ReadElement()
	requireMalformedAt(t, err, 0)
}

func TestUnwrapSPKIToPKCS1(t *testing.T) {
	key := generateRSAKey(t, 2048)
	spki, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	require.NoError(t, err)
	pkcs1 := x509.MarshalPKCS1PublicKey(&key.PublicKey)

	got, err := UnwrapSPKIToPKCS1(spki)
	require.NoError(t, err)
	assert.Equal(t, pkcs1, got)

	// Idempotence
	again, err := UnwrapSPKIToPKCS1(got)
	require.NoError(t, err)
	assert.Equal(t, got, again)

	// Already PKCS#1 passes through unchanged
	same, err := UnwrapSPKIToPKCS1(pkcs1)
	require.NoError(t, err)
	assert.Equal(t, pkcs1, same)
}

func TestUnwrapSPKIToPKCS1_NonZeroUnusedBits(t *testing.T) {
	key := generateRSAKey(t, 2048)
	spki, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	require.NoError(t, err)

	// 30 82 01 22 | 30 0d ... (15 bytes) | 03 82 01 0f | 00 <- unused bits
	require.Equal(t, byte(TagBitString), spki[19])
	require.Equal(t, byte(0x00), spki[23])

	bad := bytes.Clone(spki)
	bad[23] = 0x01
	_, err = UnwrapSPKIToPKCS1(bad)
	requireMalformedAt(t, err, 23)
	assert.Contains(t, err.Error(), "unused bits")
}

func TestUnwrapSPKIToPKCS1_Malformed(t *testing.T) {
	key := generateRSAKey(t, 2048)
	spki, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	require.NoError(t, err)

	t.Run("not a sequence", func(t *testing.T) {
		bad := bytes.Clone(spki)
		bad[0] = 0x31
		_, err := UnwrapSPKIToPKCS1(bad)
		requireMalformedAt(t, err, 0)
	})

	t.Run("truncated", func(t *testing.T) {
		_, err := UnwrapSPKIToPKCS1(spki[:len(spki)-1])
		requireMalformedAt(t, err, 0)
	})

	t.Run("trailing data", func(t *testing.T) {
		bad := append(bytes.Clone(spki), 0x00)
		_, err := UnwrapSPKIToPKCS1(bad)
		requireMalformedAt(t, err, len(spki))
	})

	t.Run("algorithm identifier is not a sequence", func(t *testing.T) {
		bad := bytes.Clone(spki)
		bad[4] = TagOctetString
		_, err := UnwrapSPKIToPKCS1(bad)
		requireMalformedAt(t, err, 4)
	})

	t.Run("missing bit string", func(t *testing.T) {
		bad := bytes.Clone(spki)
		bad[19] = TagOctetString
		_, err := UnwrapSPKIToPKCS1(bad)
		requireMalformedAt(t, err, 19)
	})

	t.Run("empty", func(t *testing.T) {
		_, err := UnwrapSPKIToPKCS1(nil)
		requireMalformedAt(t, err, 0)
	})
}

func TestParseRSAPublicKey(t *testing.T) {
	key := generateRSAKey(t, 2048)
	pkcs1 := x509.MarshalPKCS1PublicKey(&key.PublicKey)
	spki, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	require.NoError(t, err)

	for name, in := range map[string][]byte{"pkcs1": pkcs1, "spki": spki} {
		t.Run(name, func(t *testing.T) {
			pub, err := ParseRSAPublicKey(in)
			require.NoError(t, err)
			// Sign byte stripped: 2048-bit modulus is exactly 256 bytes
			assert.Len(t, pub.Modulus, 256)
			assert.Equal(t, key.N.Bytes(), pub.Modulus)
			assert.Equal(t, []byte{0x01, 0x00, 0x01}, pub.Exponent)
		})
	}
}

func TestParseRSAPublicKey_CrossFormatEquivalence(t *testing.T) {
	key := generateRSAKey(t, 2048)
	pkcs1 := x509.MarshalPKCS1PublicKey(&key.PublicKey)

	original, err := ParseRSAPublicKey(pkcs1)
	require.NoError(t, err)

	// PKCS1 -> SPKI through the standard library, then back
	parsed, err := x509.ParsePKCS1PublicKey(pkcs1)
	require.NoError(t, err)
	spki, err := x509.MarshalPKIXPublicKey(parsed)
	require.NoError(t, err)
	back, err := UnwrapSPKIToPKCS1(spki)
	require.NoError(t, err)

	roundTripped, err := ParseRSAPublicKey(back)
	require.NoError(t, err)
	assert.Equal(t, original, roundTripped)
}

func TestParseRSAPublicKey_Malformed(t *testing.T) {
	t.Run("negative modulus", func(t *testing.T) {
		// SEQUENCE { INTEGER 0x80, INTEGER 3 }
		_, err := ParseRSAPublicKey([]byte{0x30, 0x06, 0x02, 0x01, 0x80, 0x02, 0x01, 0x03})
		requireMalformedAt(t, err, 4)
	})
	t.Run("missing exponent", func(t *testing.T) {
		_, err := ParseRSAPublicKey([]byte{0x30, 0x03, 0x02, 0x01, 0x05})
		requireMalformedAt(t, err, 5)
	})
	t.Run("extra field", func(t *testing.T) {
		_, err := ParseRSAPublicKey([]byte{0x30, 0x09, 0x02, 0x01, 0x05, 0x02, 0x01, 0x03, 0x02, 0x01, 0x01})
		requireMalformedAt(t, err, 8)
	})
	t.Run("empty integer", func(t *testing.T) {
		_, err := ParseRSAPublicKey([]byte{0x30, 0x05, 0x02, 0x00, 0x02, 0x01, 0x03})
		requireMalformedAt(t, err, 2)
	})
}

func TestMarshalPKCS1(t *testing.T) {
	key := generateRSAKey(t, 2048)
	e := []byte{0x01, 0x00, 0x01}

	got, err := MarshalPKCS1(key.N.Bytes(), e)
	require.NoError(t, err)
	assert.Equal(t, x509.MarshalPKCS1PublicKey(&key.PublicKey), got)

	_, err = MarshalPKCS1(nil, e)
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestWrapPKCS1InSPKI(t *testing.T) {
	key := generateRSAKey(t, 2048)
	pkcs1 := x509.MarshalPKCS1PublicKey(&key.PublicKey)
	want, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	require.NoError(t, err)

	spki, err := WrapPKCS1InSPKI(pkcs1)
	require.NoError(t, err)
	assert.Equal(t, want, spki)

	// Wrapping SPKI is a no-op
	again, err := WrapPKCS1InSPKI(spki)
	require.NoError(t, err)
	assert.Equal(t, spki, again)

	back, err := UnwrapSPKIToPKCS1(spki)
	require.NoError(t, err)
	assert.Equal(t, pkcs1, back)
}

func TestExtractECPoint_SPKI(t *testing.T) {
	curves := map[types.KeyType]elliptic.Curve{
		types.KeyTypeSecp256r1: elliptic.P256(),
		types.KeyTypeSecp384r1: elliptic.P384(),
		types.KeyTypeSecp521r1: elliptic.P521(),
	}
	for kt, curve := range curves {
		t.Run(kt.String(), func(t *testing.T) {
			key, err := ecdsa.GenerateKey(curve, rand.Reader)
			require.NoError(t, err)
			spki, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
			require.NoError(t, err)
			ecdhKey, err := key.PublicKey.ECDH()
			require.NoError(t, err)

			point, err := ExtractECPoint(spki, kt)
			require.NoError(t, err)
			assert.Equal(t, ecdhKey.Bytes(), point)
			assert.Equal(t, byte(0x04), point[0])
			assert.Len(t, point, 1+2*kt.CoordinateSize())
		})
	}
}

func TestExtractECPoint_SEC1AndPKCS8(t *testing.T) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	ecdhKey, err := key.PublicKey.ECDH()
	require.NoError(t, err)

	sec1, err := x509.MarshalECPrivateKey(key)
	require.NoError(t, err)
	point, err := ExtractECPoint(sec1, types.KeyTypeSecp256r1)
	require.NoError(t, err)
	assert.Equal(t, ecdhKey.Bytes(), point)

	pkcs8, err := x509.MarshalPKCS8PrivateKey(key)
	require.NoError(t, err)
	point, err = ExtractECPoint(pkcs8, types.KeyTypeSecp256r1)
	require.NoError(t, err)
	assert.Equal(t, ecdhKey.Bytes(), point)
}

func TestExtractECPoint_OKP(t *testing.T) {
	edPub, _, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	spki, err := x509.MarshalPKIXPublicKey(edPub)
	require.NoError(t, err)
	point, err := ExtractECPoint(spki, types.KeyTypeEd25519)
	require.NoError(t, err)
	assert.Equal(t, []byte(edPub), point)

	xPriv, err := ecdh.X25519().GenerateKey(rand.Reader)
	require.NoError(t, err)
	spki, err = x509.MarshalPKIXPublicKey(xPriv.PublicKey())
	require.NoError(t, err)
	point, err = ExtractECPoint(spki, types.KeyTypeX25519)
	require.NoError(t, err)
	assert.Equal(t, xPriv.PublicKey().Bytes(), point)
}

func TestExtractECPoint_Secp256k1(t *testing.T) {
	point, err := hex.DecodeString("04782c8ed17e3b2a783b5464f33b09652a71c678e05ec51e84e2bcfc663a3de963af9acb4280b8c7f7c42f4ef9aba6245ec1ec1712fd38a0fa96418d8cd6aa6152")
	require.NoError(t, err)
	// SEQUENCE { SEQUENCE { id-ecPublicKey, secp256k1 }, BIT STRING }
	prefix, err := hex.DecodeString("3056301006072a8648ce3d020106052b8104000a034200")
	require.NoError(t, err)
	spki := append(prefix, point...)

	got, err := ExtractECPoint(spki, types.KeyTypeSecp256k1)
	require.NoError(t, err)
	assert.Equal(t, point, got)
}

func TestExtractECPoint_Malformed(t *testing.T) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	spki, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	require.NoError(t, err)

	t.Run("wrong curve", func(t *testing.T) {
		_, err := ExtractECPoint(spki, types.KeyTypeSecp384r1)
		requireMalformedAt(t, err, 0)
		assert.Contains(t, err.Error(), "not found")
	})

	t.Run("rsa has no curve oid", func(t *testing.T) {
		_, err := ExtractECPoint(spki, types.KeyTypeRSA)
		assert.ErrorIs(t, err, ErrMalformed)
	})

	t.Run("non-zero unused bits", func(t *testing.T) {
		bad := bytes.Clone(spki)
		// 30 59 | 30 13 ... (21 bytes) | 03 42 | 00
		require.Equal(t, byte(TagBitString), bad[23])
		bad[25] = 0x04
		_, err := ExtractECPoint(bad, types.KeyTypeSecp256r1)
		requireMalformedAt(t, err, 25)
	})

	t.Run("no bit string", func(t *testing.T) {
		oid, ok := OID(types.KeyTypeSecp256r1)
		require.True(t, ok)
		_, err := ExtractECPoint(append(oid, 0x05, 0x00), types.KeyTypeSecp256r1)
		assert.ErrorIs(t, err, ErrMalformed)
	})
}

func TestOID_ReturnsCopy(t *testing.T) {
	oid, ok := OID(types.KeyTypeEd25519)
	require.True(t, ok)
	oid[0] = 0xff
	again, _ := OID(types.KeyTypeEd25519)
	assert.Equal(t, byte(TagOID), again[0])

	_, ok = OID(types.KeyTypeRSA)
	assert.False(t, ok)
}
