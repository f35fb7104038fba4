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
	"crypto"
	"crypto/ecdh"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"encoding/hex"
	"testing"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	secpecdsa "github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
	"github.com/jeremyhahn/go-keyconv/pkg/encoding/jwk"
	"github.com/jeremyhahn/go-keyconv/pkg/metrics"
	"github.com/jeremyhahn/go-keyconv/pkg/types"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	goldenMessage   = "4d7367"
	goldenX         = "eCyO0X47Kng7VGTzOwllKnHGeOBexR6E4rz8Zjo96WM"
	goldenY         = "r5rLQoC4x_fEL075q6YkXsHsFxL9OKD6lkGNjNaqYVI"
	goldenSignature = "109cd8ae0374358984a8249c0a843628f2835ffad1df1a9a69aa2fe72355545c" +
		"ac6f00daf53bd8b1e34da329359b6e08019c5b037fed79ee383ae39f85a159c6"
)

func decodeHex(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	require.NoError(t, err)
	return b
}

func goldenKey() *jwk.JWK {
	return &jwk.JWK{Kty: "EC", Crv: "secp256k1", X: goldenX, Y: goldenY}
}

func digestOf(t *testing.T, h crypto.Hash, data []byte) []byte {
	t.Helper()
	hasher := h.New()
	hasher.Write(data)
	return hasher.Sum(nil)
}

// signer produces a public JWK and a function signing messages the way
// VerifyRawSignature expects for alg.
func signer(t *testing.T, alg types.SignatureAlgorithm) (*jwk.JWK, func([]byte) []byte) {
	t.Helper()
	var (
		pub  crypto.PublicKey
		sign func([]byte) []byte
	)
	switch alg {
	case types.ES256K:
		priv, err := secp256k1.GeneratePrivateKey()
		require.NoError(t, err)
		pub = priv.PubKey()
		sign = func(m []byte) []byte {
			return secpecdsa.SignCompact(priv, digestOf(t, crypto.SHA256, m), false)[1:]
		}
	case types.ES256, types.ES384, types.ES512:
		curve := map[types.SignatureAlgorithm]elliptic.Curve{
			types.ES256: elliptic.P256(), types.ES384: elliptic.P384(), types.ES512: elliptic.P521(),
		}[alg]
		priv, err := ecdsa.GenerateKey(curve, rand.Reader)
		require.NoError(t, err)
		pub = &priv.PublicKey
		sign = func(m []byte) []byte { return compactECDSA(t, priv, digestOf(t, alg.Hash(), m)) }
	case types.EdDSA:
		p, priv, err := ed25519.GenerateKey(rand.Reader)
		require.NoError(t, err)
		pub = p
		sign = func(m []byte) []byte { return ed25519.Sign(priv, m) }
	default:
		priv, err := rsa.GenerateKey(rand.Reader, 2048)
		require.NoError(t, err)
		pub = &priv.PublicKey
		sign = func(m []byte) []byte {
			hashed := digestOf(t, alg.Hash(), m)
			var sig []byte
			if alg.IsPSS() {
				sig, err = rsa.SignPSS(rand.Reader, priv, alg.Hash(), hashed,
					&rsa.PSSOptions{SaltLength: rsa.PSSSaltLengthEqualsHash})
			} else {
				sig, err = rsa.SignPKCS1v15(rand.Reader, priv, alg.Hash(), hashed)
			}
			require.NoError(t, err)
			return sig
		}
	}
	key, err := jwk.FromPublicKey(pub)
	require.NoError(t, err)
	return key, sign
}

func TestVerifyRawSignature_GoldenSecp256k1(t *testing.T) {
	v := NewRawVerifier()
	msg := decodeHex(t, goldenMessage)
	sig := decodeHex(t, goldenSignature)

	ok, err := v.VerifyRawSignature(&RawSignatureRequest{Data: msg, Signature: sig, Key: goldenKey()})
	require.NoError(t, err)
	assert.True(t, ok)

	for i := range sig {
		flipped := append([]byte(nil), sig...)
		flipped[i] ^= 0x01
		ok, err := v.VerifyRawSignature(&RawSignatureRequest{Data: msg, Signature: flipped, Key: goldenKey()})
		require.NoError(t, err, "byte %d", i)
		assert.False(t, ok, "byte %d", i)
	}
}

func TestVerifyRawSignature_AllAlgorithms(t *testing.T) {
	msg := []byte("raw signature verification")
	for _, alg := range types.SignatureAlgorithms {
		t.Run(string(alg), func(t *testing.T) {
			key, sign := signer(t, alg)
			sig := sign(msg)
			v := NewRawVerifier()
			req := &RawSignatureRequest{
				Data:      msg,
				Signature: sig,
				Key:       key,
				Opts:      &RawSignatureOptions{SignatureAlg: alg},
			}

			ok, err := v.VerifyRawSignature(req)
			require.NoError(t, err)
			assert.True(t, ok)

			req.Data = []byte("another message")
			ok, err = v.VerifyRawSignature(req)
			require.NoError(t, err)
			assert.False(t, ok)

			req.Data = msg
			req.Signature = sig[:len(sig)-1]
			_, err = v.VerifyRawSignature(req)
			assert.ErrorIs(t, err, ErrMalformedSignature)
		})
	}
}

func TestVerifyRawSignature_PSSSaltLength(t *testing.T) {
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	key, err := jwk.FromPublicKey(&priv.PublicKey)
	require.NoError(t, err)

	msg := []byte("salted")
	sig, err := rsa.SignPSS(rand.Reader, priv, crypto.SHA384, digestOf(t, crypto.SHA384, msg),
		&rsa.PSSOptions{SaltLength: 48})
	require.NoError(t, err)

	for name, pss := range map[string]PSSVerifier{"platform": PlatformPSS(), "software": SoftwarePSS()} {
		t.Run(name, func(t *testing.T) {
			v := NewRawVerifier(WithPSSVerifier(pss))
			verify := func(salt int) bool {
				ok, err := v.VerifyRawSignature(&RawSignatureRequest{
					Data:      msg,
					Signature: sig,
					Key:       key,
					Opts:      &RawSignatureOptions{SignatureAlg: types.PS384, SaltLength: salt},
				})
				require.NoError(t, err)
				return ok
			}
			assert.True(t, verify(48))
			assert.True(t, verify(0), "zero salt length means the digest size")
			assert.False(t, verify(32))
		})
	}
}

func TestVerifyRawSignature_AlgorithmPrecedence(t *testing.T) {
	msg := []byte("precedence")
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	key, err := jwk.FromPublicKey(&priv.PublicKey)
	require.NoError(t, err)

	pkcs1, err := rsa.SignPKCS1v15(rand.Reader, priv, crypto.SHA256, digestOf(t, crypto.SHA256, msg))
	require.NoError(t, err)
	pss, err := rsa.SignPSS(rand.Reader, priv, crypto.SHA256, digestOf(t, crypto.SHA256, msg),
		&rsa.PSSOptions{SaltLength: rsa.PSSSaltLengthEqualsHash})
	require.NoError(t, err)

	verify := func(v *RawVerifier, k *jwk.JWK, sig []byte, alg types.SignatureAlgorithm) bool {
		ok, err := v.VerifyRawSignature(&RawSignatureRequest{
			Data: msg, Signature: sig, Key: k,
			Opts: &RawSignatureOptions{SignatureAlg: alg},
		})
		require.NoError(t, err)
		return ok
	}

	v := NewRawVerifier()

	// Without any hint RSA defaults to PS256.
	assert.True(t, verify(v, key, pss, ""))
	assert.False(t, verify(v, key, pkcs1, ""))

	// The JWK alg member overrides the default.
	withAlg := *key
	withAlg.Alg = "RS256"
	assert.True(t, verify(v, &withAlg, pkcs1, ""))

	// An explicit algorithm overrides the JWK.
	assert.True(t, verify(v, &withAlg, pss, types.PS256))

	// The default is configurable.
	rs := NewRawVerifier(WithDefaultRSAAlgorithm(types.RS256))
	assert.True(t, verify(rs, key, pkcs1, ""))
	ignored := NewRawVerifier(WithDefaultRSAAlgorithm(types.ES256))
	assert.True(t, verify(ignored, key, pss, ""))
}

func TestVerifyRawSignature_OKPWithoutCurve(t *testing.T) {
	key, sign := signer(t, types.EdDSA)
	msg := []byte("no crv")
	key.Crv = ""

	v := NewRawVerifier()
	ok, err := v.VerifyRawSignature(&RawSignatureRequest{
		Data: msg, Signature: sign(msg), Key: key,
		Opts: &RawSignatureOptions{SignatureAlg: types.EdDSA},
	})
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = v.VerifyRawSignature(&RawSignatureRequest{Data: msg, Signature: sign(msg), Key: key})
	assert.ErrorIs(t, err, ErrUnsupportedKeyType)
}

func TestVerifyRawSignature_Errors(t *testing.T) {
	x25519, err := ecdh.X25519().GenerateKey(rand.Reader)
	require.NoError(t, err)
	xkey, err := jwk.FromPublicKey(x25519.PublicKey())
	require.NoError(t, err)

	sig := decodeHex(t, goldenSignature)
	msg := decodeHex(t, goldenMessage)

	tests := []struct {
		name string
		req  *RawSignatureRequest
		want error
	}{
		{"nil request", nil, ErrInvalidRequest},
		{"nil key", &RawSignatureRequest{Data: msg, Signature: sig}, ErrInvalidRequest},
		{"unknown kty", &RawSignatureRequest{Data: msg, Signature: sig,
			Key: &jwk.JWK{Kty: "unknown", X: goldenX}}, ErrUnsupportedKeyType},
		{"missing y", &RawSignatureRequest{Data: msg, Signature: sig,
			Key: &jwk.JWK{Kty: "EC", Crv: "secp256k1", X: goldenX}}, jwk.ErrMissingMember},
		{"curve mismatch", &RawSignatureRequest{Data: msg, Signature: sig, Key: goldenKey(),
			Opts: &RawSignatureOptions{SignatureAlg: types.ES256}}, ErrUnsupportedKeyType},
		{"rsa algorithm on EC key", &RawSignatureRequest{Data: msg, Signature: sig, Key: goldenKey(),
			Opts: &RawSignatureOptions{SignatureAlg: types.RS256}}, ErrUnsupportedKeyType},
		{"unknown algorithm", &RawSignatureRequest{Data: msg, Signature: sig, Key: goldenKey(),
			Opts: &RawSignatureOptions{SignatureAlg: "HS256"}}, ErrUnsupportedAlgorithm},
		{"unknown jwk alg", &RawSignatureRequest{Data: msg, Signature: sig,
			Key: &jwk.JWK{Kty: "EC", Crv: "secp256k1", X: goldenX, Y: goldenY, Alg: "none"}}, ErrUnsupportedAlgorithm},
		{"x25519 cannot sign", &RawSignatureRequest{Data: msg, Signature: make([]byte, 64), Key: xkey},
			ErrUnsupportedKeyType},
		{"eddsa on x25519", &RawSignatureRequest{Data: msg, Signature: make([]byte, 64), Key: xkey,
			Opts: &RawSignatureOptions{SignatureAlg: types.EdDSA}}, ErrUnsupportedKeyType},
		{"oct key", &RawSignatureRequest{Data: msg, Signature: sig,
			Key: &jwk.JWK{Kty: "oct", K: "c2VjcmV0"}}, ErrUnsupportedKeyType},
		{"der signature", &RawSignatureRequest{Data: msg, Signature: append([]byte{0x30, 0x44}, sig...),
			Key: goldenKey()}, ErrMalformedSignature},
		{"point not on curve", &RawSignatureRequest{Data: msg, Signature: sig,
			Key: &jwk.JWK{Kty: "EC", Crv: "secp256k1", X: goldenX, Y: goldenX}}, jwk.ErrInvalidPoint},
	}

	v := NewRawVerifier()
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ok, err := v.VerifyRawSignature(tc.req)
			assert.False(t, ok)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestVerifyRawSignature_Metrics(t *testing.T) {
	rec := metrics.NewPrometheusRecorder(prometheus.NewRegistry())
	v := NewRawVerifier(WithRecorder(rec))
	msg := decodeHex(t, goldenMessage)
	sig := decodeHex(t, goldenSignature)

	_, _ = v.VerifyRawSignature(&RawSignatureRequest{Data: msg, Signature: sig, Key: goldenKey()})
	_, _ = v.VerifyRawSignature(&RawSignatureRequest{Data: []byte("x"), Signature: sig, Key: goldenKey()})
	_, _ = v.VerifyRawSignature(&RawSignatureRequest{Data: msg, Signature: sig[:10], Key: goldenKey()})
	_, _ = v.VerifyRawSignature(nil)

	for status, want := range map[string]float64{
		metrics.StatusSuccess:  1,
		metrics.StatusMismatch: 1,
		metrics.StatusError:    1,
	} {
		got := testutil.ToFloat64(rec.OperationsTotal.WithLabelValues(metrics.OpVerify, "secp256k1", status))
		assert.Equal(t, want, got, status)
	}
	assert.Equal(t, 1.0, testutil.ToFloat64(rec.OperationsTotal.WithLabelValues(metrics.OpVerify, "unknown", metrics.StatusError)))
}

func TestResolveKeyType(t *testing.T) {
	tests := []struct {
		name string
		key  *jwk.JWK
		alg  types.SignatureAlgorithm
		want types.KeyType
		err  error
	}{
		{"crv only", &jwk.JWK{Kty: "EC", Crv: "P-384"}, "", types.KeyTypeSecp384r1, nil},
		{"kty only", &jwk.JWK{Kty: "RSA"}, "", types.KeyTypeRSA, nil},
		{"alg agrees", &jwk.JWK{Kty: "EC", Crv: "P-521"}, types.ES512, types.KeyTypeSecp521r1, nil},
		{"alg fills okp crv", &jwk.JWK{Kty: "OKP"}, types.EdDSA, types.KeyTypeEd25519, nil},
		{"alg disagrees with crv", &jwk.JWK{Kty: "EC", Crv: "P-256"}, types.ES256K, 0, ErrUnsupportedKeyType},
		{"alg disagrees with kty", &jwk.JWK{Kty: "RSA"}, types.ES256, 0, ErrUnsupportedKeyType},
		{"ec without crv", &jwk.JWK{Kty: "EC"}, types.ES256, 0, ErrUnsupportedKeyType},
		{"unknown alg", &jwk.JWK{Kty: "RSA"}, "RSA-OAEP", 0, ErrUnsupportedAlgorithm},
		{"nil key", nil, "", 0, ErrInvalidRequest},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			kt, err := ResolveKeyType(tc.key, tc.alg)
			if tc.err != nil {
				assert.ErrorIs(t, err, tc.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, kt)
		})
	}
}
