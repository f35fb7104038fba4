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
	"crypto/ecdh"
	"fmt"

	"github.com/go-jose/go-jose/v4"
	"github.com/jeremyhahn/go-keyconv/pkg/types"
)

// FromJOSE converts a go-jose JSONWebKey. Key ID, algorithm and use are
// carried over unchanged.
func FromJOSE(key *jose.JSONWebKey) (*JWK, error) {
	if key == nil || key.Key == nil {
		return nil, fmt.Errorf("%w: empty JSONWebKey", ErrMissingMember)
	}

	var (
		jwk *JWK
		err error
	)
	switch k := key.Key.(type) {
	case []byte:
		jwk, err = FromSymmetricKey(k, key.Algorithm)
	default:
		if key.IsPublic() {
			jwk, err = FromPublicKey(k)
		} else {
			jwk, err = FromPrivateKey(k)
		}
	}
	if err != nil {
		return nil, err
	}
	jwk.Kid = key.KeyID
	jwk.Alg = key.Algorithm
	jwk.Use = key.Use
	return jwk, nil
}

// ToJOSE converts the JWK to a go-jose JSONWebKey. go-jose has no
// secp256k1 or X25519 support, so those keys are rejected.
func (jwk *JWK) ToJOSE() (*jose.JSONWebKey, error) {
	j := Sanitize(jwk)
	if j.Crv == string(types.CurveSecp256k1) || j.Crv == string(types.CurveX25519) {
		return nil, fmt.Errorf("%w: %s in go-jose", ErrUnsupportedKeyType, j.Crv)
	}

	var (
		key any
		err error
	)
	switch {
	case j.Kty == types.KtyOct:
		key, err = j.ToSymmetricKey()
	case j.D != "":
		key, err = j.ToPrivateKey()
	default:
		key, err = j.ToPublicKey()
	}
	if err != nil {
		return nil, err
	}
	if _, ok := key.(*ecdh.PublicKey); ok {
		return nil, fmt.Errorf("%w: ECDH key in go-jose", ErrUnsupportedKeyType)
	}

	out := &jose.JSONWebKey{
		Key:       key,
		KeyID:     j.Kid,
		Algorithm: j.Alg,
		Use:       j.Use,
	}
	if _, symmetric := key.([]byte); !symmetric && !out.Valid() {
		return nil, fmt.Errorf("%w: go-jose rejected key", ErrInvalidPoint)
	}
	return out, nil
}
