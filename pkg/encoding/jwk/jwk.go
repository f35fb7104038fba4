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
	"bytes"
	"crypto"
	"crypto/ecdh"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/jeremyhahn/go-keyconv/pkg/types"
)

// JWK represents a JSON Web Key as defined in RFC 7517.
// It supports RSA, EC (including secp256k1), OKP (Ed25519, X25519) and
// symmetric (oct) key types.
type JWK struct {
	// Common fields (all key types)
	Kty string `json:"kty"`           // Key Type (required)
	Use string `json:"use,omitempty"` // Public Key Use (sig, enc)
	Alg string `json:"alg,omitempty"` // Algorithm
	Kid string `json:"kid,omitempty"` // Key ID

	// RSA public key fields (RFC 7518 Section 6.3.1)
	N string `json:"n,omitempty"` // Modulus (base64url)
	E string `json:"e,omitempty"` // Exponent (base64url)

	// RSA private key fields (RFC 7518 Section 6.3.2)
	D  string `json:"d,omitempty"`  // Private Exponent (also EC/OKP private key)
	P  string `json:"p,omitempty"`  // First Prime Factor
	Q  string `json:"q,omitempty"`  // Second Prime Factor
	DP string `json:"dp,omitempty"` // First Factor CRT Exponent
	DQ string `json:"dq,omitempty"` // Second Factor CRT Exponent
	QI string `json:"qi,omitempty"` // First CRT Coefficient

	// EC / OKP public key fields (RFC 7518 Section 6.2.1, RFC 8037)
	Crv string `json:"crv,omitempty"` // Curve (P-256, P-384, P-521, secp256k1, Ed25519, X25519)
	X   string `json:"x,omitempty"`   // X Coordinate (base64url)
	Y   string `json:"y,omitempty"`   // Y Coordinate (base64url)

	// Symmetric key field (RFC 7518 Section 6.4)
	K string `json:"k,omitempty"` // Key Value (base64url)

	// Key Operations (optional)
	KeyOps []string `json:"key_ops,omitempty"` // Key Operations
}

// FromPublicKey creates a JWK from a crypto.PublicKey.
// Supports RSA, ECDSA (P-256/384/521), secp256k1, Ed25519 and X25519 public keys.
func FromPublicKey(pub crypto.PublicKey) (*JWK, error) {
	switch key := pub.(type) {
	case *rsa.PublicKey:
		return fromRSAPublicKey(key), nil
	case *ecdsa.PublicKey:
		return fromECDSAPublicKey(key)
	case *secp256k1.PublicKey:
		return fromSecp256k1PublicKey(key), nil
	case ed25519.PublicKey:
		return fromEd25519PublicKey(key), nil
	case *ecdh.PublicKey:
		if key.Curve() == ecdh.X25519() {
			return fromX25519PublicKey(key), nil
		}
		return nil, fmt.Errorf("%w: ECDH curve %v", ErrUnsupportedKeyType, key.Curve())
	default:
		return nil, fmt.Errorf("%w: public key type %T", ErrUnsupportedKeyType, pub)
	}
}

// FromPrivateKey creates a JWK from a crypto.PrivateKey.
// The resulting JWK includes private key parameters.
func FromPrivateKey(priv crypto.PrivateKey) (*JWK, error) {
	switch key := priv.(type) {
	case *rsa.PrivateKey:
		return fromRSAPrivateKey(key), nil
	case *ecdsa.PrivateKey:
		return fromECDSAPrivateKey(key)
	case *secp256k1.PrivateKey:
		jwk := fromSecp256k1PublicKey(key.PubKey())
		d := key.Key.Bytes()
		jwk.D = encode(d[:])
		return jwk, nil
	case ed25519.PrivateKey:
		return fromEd25519PrivateKey(key), nil
	case *ecdh.PrivateKey:
		if key.Curve() == ecdh.X25519() {
			return fromX25519PrivateKey(key), nil
		}
		return nil, fmt.Errorf("%w: ECDH curve %v", ErrUnsupportedKeyType, key.Curve())
	default:
		return nil, fmt.Errorf("%w: private key type %T", ErrUnsupportedKeyType, priv)
	}
}

// FromSymmetricKey creates a JWK from symmetric key bytes.
func FromSymmetricKey(key []byte, alg string) (*JWK, error) {
	if len(key) == 0 {
		return nil, fmt.Errorf("symmetric key cannot be empty")
	}

	return &JWK{
		Kty: types.KtyOct,
		K:   encode(key),
		Alg: alg,
	}, nil
}

// KeyType resolves the (kty, crv) pair to a types.KeyType.
func (jwk *JWK) KeyType() (types.KeyType, error) {
	return types.KeyTypeFromJWK(jwk.Kty, jwk.Crv)
}

// ToPublicKey converts the JWK to a crypto.PublicKey. secp256k1 keys are
// returned as *secp256k1.PublicKey, X25519 keys as *ecdh.PublicKey.
func (jwk *JWK) ToPublicKey() (crypto.PublicKey, error) {
	j := Sanitize(jwk)
	if j.Kty == types.KtyOct {
		return nil, fmt.Errorf("%w: oct keys have no public key", ErrUnsupportedKeyType)
	}
	kt, err := j.KeyType()
	if err != nil {
		return nil, err
	}
	raw, err := FromJWK(j)
	if err != nil {
		return nil, err
	}
	return publicKeyFromRaw(kt, raw)
}

// ToPrivateKey converts the JWK to a crypto.PrivateKey.
// Returns an error if the JWK doesn't contain private key parameters.
func (jwk *JWK) ToPrivateKey() (crypto.PrivateKey, error) {
	j := Sanitize(jwk)
	if j.D == "" {
		return nil, fmt.Errorf("%w: kty=%s", ErrNotPrivateKey, j.Kty)
	}
	kt, err := j.KeyType()
	if err != nil {
		return nil, err
	}
	if kt == types.KeyTypeRSA {
		return j.toRSAPrivateKey()
	}

	d, err := decodeMember("d", j.D)
	if err != nil {
		return nil, err
	}
	priv, err := privateKeyFromRaw(kt, d)
	if err != nil {
		return nil, err
	}
	// The public members must belong to d.
	derived, err := derivePublicRaw(kt, d)
	if err != nil {
		return nil, err
	}
	claimed, err := FromJWK(j)
	if err != nil {
		return nil, err
	}
	if !bytes.Equal(derived, claimed) {
		return nil, fmt.Errorf("%w: public members do not match d", ErrInvalidPoint)
	}
	return priv, nil
}

// ToSymmetricKey extracts the symmetric key bytes from the JWK.
func (jwk *JWK) ToSymmetricKey() ([]byte, error) {
	if jwk.Kty != types.KtyOct {
		return nil, fmt.Errorf("JWK is not a symmetric key (kty=%s)", jwk.Kty)
	}
	if jwk.K == "" {
		return nil, fmt.Errorf("%w %q", ErrMissingMember, "k")
	}
	return decodeMember("k", jwk.K)
}

// Public returns a copy of the JWK with every private member removed.
func (jwk *JWK) Public() *JWK {
	pub := *jwk
	pub.D, pub.P, pub.Q, pub.DP, pub.DQ, pub.QI = "", "", "", "", "", ""
	if pub.Kty == types.KtyOct {
		pub.K = ""
	}
	pub.KeyOps = append([]string(nil), jwk.KeyOps...)
	return &pub
}

// Marshal returns the JSON encoding of the JWK.
func (jwk *JWK) Marshal() ([]byte, error) {
	return json.Marshal(jwk)
}

// MarshalIndent returns the indented JSON encoding of the JWK.
func (jwk *JWK) MarshalIndent(prefix, indent string) ([]byte, error) {
	return json.MarshalIndent(jwk, prefix, indent)
}

// Unmarshal parses the JSON-encoded data and stores the result in a JWK.
func Unmarshal(data []byte) (*JWK, error) {
	var jwk JWK
	if err := json.Unmarshal(data, &jwk); err != nil {
		return nil, fmt.Errorf("failed to unmarshal JWK: %w", err)
	}
	return &jwk, nil
}

// IsPrivate returns true if the JWK contains private key parameters.
func (jwk *JWK) IsPrivate() bool {
	return jwk.D != "" || jwk.K != ""
}

// IsPublic returns true if the JWK represents a public key.
func (jwk *JWK) IsPublic() bool {
	return !jwk.IsPrivate() && (jwk.N != "" || jwk.X != "" || jwk.Crv != "")
}

// IsSymmetric returns true if the JWK represents a symmetric key.
func (jwk *JWK) IsSymmetric() bool {
	return jwk.Kty == types.KtyOct
}

func encode(b []byte) string {
	return base64.RawURLEncoding.EncodeToString(b)
}

// Helper functions for RSA keys

func fromRSAPublicKey(key *rsa.PublicKey) *JWK {
	return &JWK{
		Kty: types.KtyRSA,
		N:   encode(key.N.Bytes()),
		E:   encode(big.NewInt(int64(key.E)).Bytes()),
	}
}

func fromRSAPrivateKey(key *rsa.PrivateKey) *JWK {
	// Ensure CRT values are precomputed
	if key.Precomputed.Dp == nil {
		key.Precompute()
	}

	jwk := fromRSAPublicKey(&key.PublicKey)
	jwk.D = encode(key.D.Bytes())

	if len(key.Primes) >= 2 {
		jwk.P = encode(key.Primes[0].Bytes())
		jwk.Q = encode(key.Primes[1].Bytes())
	}

	if key.Precomputed.Dp != nil {
		jwk.DP = encode(key.Precomputed.Dp.Bytes())
		jwk.DQ = encode(key.Precomputed.Dq.Bytes())
		jwk.QI = encode(key.Precomputed.Qinv.Bytes())
	}

	return jwk
}

func (jwk *JWK) toRSAPublicKey() (*rsa.PublicKey, error) {
	if err := Validate(jwk, ValidateOptions{}); err != nil {
		return nil, err
	}
	nBytes, err := decodeMember("n", jwk.N)
	if err != nil {
		return nil, err
	}
	eBytes, err := decodeMember("e", jwk.E)
	if err != nil {
		return nil, err
	}

	e := new(big.Int).SetBytes(eBytes)
	if !e.IsInt64() || e.Int64() > 1<<31-1 {
		return nil, fmt.Errorf("RSA exponent too large")
	}

	return &rsa.PublicKey{
		N: new(big.Int).SetBytes(nBytes),
		E: int(e.Int64()),
	}, nil
}

func (jwk *JWK) toRSAPrivateKey() (*rsa.PrivateKey, error) {
	pubKey, err := jwk.toRSAPublicKey()
	if err != nil {
		return nil, err
	}

	dBytes, err := decodeMember("d", jwk.D)
	if err != nil {
		return nil, err
	}

	privKey := &rsa.PrivateKey{
		PublicKey: *pubKey,
		D:         new(big.Int).SetBytes(dBytes),
	}

	if jwk.P == "" || jwk.Q == "" {
		return nil, fmt.Errorf("%w: RSA private JWK without p and q", ErrMissingMember)
	}
	pBytes, err := decodeMember("p", jwk.P)
	if err != nil {
		return nil, err
	}
	qBytes, err := decodeMember("q", jwk.Q)
	if err != nil {
		return nil, err
	}
	privKey.Primes = []*big.Int{
		new(big.Int).SetBytes(pBytes),
		new(big.Int).SetBytes(qBytes),
	}

	if err := privKey.Validate(); err != nil {
		return nil, fmt.Errorf("invalid RSA private key: %w", err)
	}
	privKey.Precompute()

	return privKey, nil
}

// Helper functions for EC keys

func fromECDSAPublicKey(key *ecdsa.PublicKey) (*JWK, error) {
	kt, err := keyTypeForCurve(key.Curve)
	if err != nil {
		return nil, err
	}
	pub, err := key.ECDH()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPoint, err)
	}
	return fromUncompressedPoint(kt, pub.Bytes()), nil
}

func fromECDSAPrivateKey(key *ecdsa.PrivateKey) (*JWK, error) {
	jwk, err := fromECDSAPublicKey(&key.PublicKey)
	if err != nil {
		return nil, err
	}
	size := key.Curve.Params().BitSize
	d := make([]byte, (size+7)/8)
	key.D.FillBytes(d)
	jwk.D = encode(d)
	return jwk, nil
}

func fromSecp256k1PublicKey(key *secp256k1.PublicKey) *JWK {
	return fromUncompressedPoint(types.KeyTypeSecp256k1, key.SerializeUncompressed())
}

// fromUncompressedPoint splits 0x04||X||Y into fixed-width coordinates.
func fromUncompressedPoint(kt types.KeyType, point []byte) *JWK {
	size := kt.CoordinateSize()
	return &JWK{
		Kty: types.KtyEC,
		Crv: kt.JWKCurve(),
		X:   encode(point[1 : 1+size]),
		Y:   encode(point[1+size : 1+2*size]),
	}
}

// Helper functions for OKP keys

func fromEd25519PublicKey(key ed25519.PublicKey) *JWK {
	return &JWK{
		Kty: types.KtyOKP,
		Crv: string(types.CurveEd25519),
		X:   encode(key),
	}
}

func fromEd25519PrivateKey(key ed25519.PrivateKey) *JWK {
	jwk := fromEd25519PublicKey(key.Public().(ed25519.PublicKey))
	jwk.D = encode(key.Seed())
	return jwk
}

func fromX25519PublicKey(key *ecdh.PublicKey) *JWK {
	return &JWK{
		Kty: types.KtyOKP,
		Crv: string(types.CurveX25519),
		X:   encode(key.Bytes()),
	}
}

func fromX25519PrivateKey(key *ecdh.PrivateKey) *JWK {
	jwk := fromX25519PublicKey(key.PublicKey())
	jwk.D = encode(key.Bytes())
	return jwk
}

// Curve helper functions

func keyTypeForCurve(curve elliptic.Curve) (types.KeyType, error) {
	switch curve {
	case elliptic.P256():
		return types.KeyTypeSecp256r1, nil
	case elliptic.P384():
		return types.KeyTypeSecp384r1, nil
	case elliptic.P521():
		return types.KeyTypeSecp521r1, nil
	default:
		return 0, fmt.Errorf("%w: elliptic curve %s", ErrUnsupportedKeyType, curve.Params().Name)
	}
}

func ellipticCurve(kt types.KeyType) (elliptic.Curve, bool) {
	switch kt {
	case types.KeyTypeSecp256r1:
		return elliptic.P256(), true
	case types.KeyTypeSecp384r1:
		return elliptic.P384(), true
	case types.KeyTypeSecp521r1:
		return elliptic.P521(), true
	default:
		return nil, false
	}
}

func ecdhCurve(kt types.KeyType) (ecdh.Curve, bool) {
	switch kt {
	case types.KeyTypeSecp256r1:
		return ecdh.P256(), true
	case types.KeyTypeSecp384r1:
		return ecdh.P384(), true
	case types.KeyTypeSecp521r1:
		return ecdh.P521(), true
	case types.KeyTypeX25519:
		return ecdh.X25519(), true
	default:
		return nil, false
	}
}
