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

package encoding

import (
	"crypto"
	"crypto/ecdh"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPKCS8_RoundTrip(t *testing.T) {
	rsaKey, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	ecKey, err := ecdsa.GenerateKey(elliptic.P384(), rand.Reader)
	require.NoError(t, err)
	_, edKey, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	xKey, err := ecdh.X25519().GenerateKey(rand.Reader)
	require.NoError(t, err)

	keys := map[string]any{
		"rsa":     rsaKey,
		"ecdsa":   ecKey,
		"ed25519": edKey,
		"x25519":  xKey,
	}
	for name, key := range keys {
		t.Run(name, func(t *testing.T) {
			for _, password := range [][]byte{nil, []byte("secret")} {
				der, err := EncodePKCS8(key, password)
				require.NoError(t, err)

				decoded, err := DecodePKCS8(der, password)
				require.NoError(t, err)
				eq, ok := key.(interface{ Equal(crypto.PrivateKey) bool })
				require.True(t, ok)
				assert.True(t, eq.Equal(decoded))
			}
		})
	}
}

func TestPKCS8_Errors(t *testing.T) {
	_, err := EncodePKCS8(nil, nil)
	assert.ErrorIs(t, err, ErrInvalidPrivateKey)

	_, err = DecodePKCS8(nil, nil)
	assert.ErrorIs(t, err, ErrInvalidData)

	_, err = DecodePKCS8([]byte{0x30, 0x03, 0x02, 0x01, 0x00}, nil)
	assert.Error(t, err)

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	der, err := EncodePKCS8(key, []byte("right"))
	require.NoError(t, err)

	_, err = DecodePKCS8(der, []byte("wrong"))
	assert.Error(t, err)
	_, err = DecodePKCS8(der, nil)
	assert.Error(t, err)
}

func TestPEM(t *testing.T) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	spki, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	require.NoError(t, err)

	pemData, err := EncodePEM(PEMTypePublicKey, spki)
	require.NoError(t, err)
	assert.True(t, IsPEM(pemData))
	assert.False(t, IsPEM(spki))

	block, err := DecodePEM(pemData)
	require.NoError(t, err)
	assert.Equal(t, PEMTypePublicKey, block.Type)
	assert.Equal(t, spki, block.Bytes)
	assert.False(t, block.IsPrivate())

	t.Run("skips non-key blocks", func(t *testing.T) {
		params, err := EncodePEM("EC PARAMETERS", []byte{0x06, 0x08, 0x2a, 0x86, 0x48, 0xce, 0x3d, 0x03, 0x01, 0x07})
		require.NoError(t, err)
		der, err := x509.MarshalECPrivateKey(key)
		require.NoError(t, err)
		priv, err := EncodePEM(PEMTypeECPrivateKey, der)
		require.NoError(t, err)

		block, err := DecodePEM(append(params, priv...))
		require.NoError(t, err)
		assert.Equal(t, PEMTypeECPrivateKey, block.Type)
		assert.True(t, block.IsPrivate())

		_, err = DecodePEM(params)
		assert.ErrorIs(t, err, ErrUnsupportedPEMType)
	})

	t.Run("errors", func(t *testing.T) {
		_, err := DecodePEM(nil)
		assert.ErrorIs(t, err, ErrInvalidData)
		_, err = DecodePEM([]byte("not pem"))
		assert.ErrorIs(t, err, ErrInvalidPEMEncoding)
		_, err = EncodePEM(PEMTypePublicKey, nil)
		assert.ErrorIs(t, err, ErrInvalidData)
	})
}
