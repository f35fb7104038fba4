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

package jwt

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jeremyhahn/go-keyconv/pkg/encoding/jwk"
	"github.com/jeremyhahn/go-keyconv/pkg/types"
	"github.com/jeremyhahn/go-keyconv/pkg/verification"
)

// Signer signs JWT tokens with private JWKs.
type Signer struct {
	verifier *verification.RawVerifier
}

// NewSigner creates a new JWT signer. The verifier is only carried into
// the returned signing methods and may be nil.
func NewSigner(verifier *verification.RawVerifier) *Signer {
	return &Signer{verifier: verifier}
}

// Sign creates and signs a JWT with the given private JWK and claims.
// The algorithm is the JWK's alg member or the default for its key type,
// and the JWK's kid, when set, is copied into the header.
//
// Example:
//
//	key, _ := jwk.ToJWKFromHex(privHex, types.KeyTypeSecp256k1, &jwk.ToJWKOptions{IsPrivateKey: true})
//	token, err := jwt.NewSigner(nil).Sign(key, jwt.MapClaims{"sub": "user123"})
func (s *Signer) Sign(key *jwk.JWK, claims jwt.Claims) (string, error) {
	method, err := MethodForKey(key, s.verifier)
	if err != nil {
		return "", err
	}
	return s.sign(method, key, claims)
}

// SignWithAlgorithm creates and signs a JWT with a specific algorithm.
//
// Example:
//
//	token, err := signer.SignWithAlgorithm(key, claims, types.PS512)
func (s *Signer) SignWithAlgorithm(key *jwk.JWK, claims jwt.Claims, alg types.SignatureAlgorithm) (string, error) {
	if !alg.IsValid() {
		return "", fmt.Errorf("%w: %s", ErrInvalidSignatureAlgorithm, alg)
	}
	return s.sign(NewSigningMethodJWK(alg, s.verifier), key, claims)
}

func (s *Signer) sign(method *SigningMethodJWK, key *jwk.JWK, claims jwt.Claims) (string, error) {
	token := jwt.NewWithClaims(method, claims)
	if key.Kid != "" {
		token.Header["kid"] = key.Kid
	}
	return token.SignedString(key)
}

// Verifier verifies JWT tokens against JWKs.
type Verifier struct {
	raw *verification.RawVerifier
}

// NewVerifier creates a new JWT verifier. A nil raw verifier uses
// verification.NewRawVerifier() defaults.
func NewVerifier(raw *verification.RawVerifier) *Verifier {
	if raw == nil {
		raw = verification.NewRawVerifier()
	}
	return &Verifier{raw: raw}
}

// VerifyOptions contains options for JWT verification
type VerifyOptions struct {
	ValidateIssuer   bool
	ExpectedIssuer   string
	ValidateAudience bool
	ExpectedAudience string
	ValidateExpiry   bool

	// Algorithms restricts the accepted header alg values.
	Algorithms []types.SignatureAlgorithm
}

// Verify parses and verifies a JWT token with a public JWK.
//
// Example:
//
//	token, err := jwt.NewVerifier(nil).Verify(tokenString, key)
//	if err != nil {
//	    log.Fatal("invalid token")
//	}
func (v *Verifier) Verify(tokenString string, key *jwk.JWK) (*jwt.Token, error) {
	return v.VerifyWithOptions(tokenString, key, nil)
}

// VerifyWithOptions verifies a JWT with additional validation options.
//
// Example:
//
//	opts := &jwt.VerifyOptions{
//	    ValidateIssuer: true,
//	    ExpectedIssuer: "issuer.example",
//	    ValidateAudience: true,
//	    ExpectedAudience: "my-app",
//	}
//	token, err := verifier.VerifyWithOptions(tokenString, key, opts)
func (v *Verifier) VerifyWithOptions(tokenString string, key *jwk.JWK, opts *VerifyOptions) (*jwt.Token, error) {
	if key == nil {
		return nil, ErrInvalidKey
	}
	token, err := jwt.Parse(tokenString, v.keyfunc(key), parserOptions(opts)...)
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}
	return token, nil
}

// keyfunc binds the token to a JWK-backed signing method for its header
// alg and returns key. golang-jwt calls Method.Verify after the keyfunc.
func (v *Verifier) keyfunc(key *jwk.JWK) jwt.Keyfunc {
	return func(token *jwt.Token) (any, error) {
		alg, err := types.ParseSignatureAlgorithm(token.Method.Alg())
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidSignatureAlgorithm, err)
		}
		token.Method = NewSigningMethodJWK(alg, v.raw)
		return key, nil
	}
}

func parserOptions(opts *VerifyOptions) []jwt.ParserOption {
	if opts == nil {
		return nil
	}
	var out []jwt.ParserOption
	if opts.ValidateIssuer {
		out = append(out, jwt.WithIssuer(opts.ExpectedIssuer))
	}
	if opts.ValidateAudience {
		out = append(out, jwt.WithAudience(opts.ExpectedAudience))
	}
	if opts.ValidateExpiry {
		out = append(out, jwt.WithExpirationRequired())
	}
	if len(opts.Algorithms) > 0 {
		names := make([]string, len(opts.Algorithms))
		for i, alg := range opts.Algorithms {
			names[i] = string(alg)
		}
		out = append(out, jwt.WithValidMethods(names))
	}
	return out
}

// ParseWithJWK verifies tokenString against key with default options.
func ParseWithJWK(tokenString string, key *jwk.JWK) (*jwt.Token, error) {
	return NewVerifier(nil).Verify(tokenString, key)
}

// ExtractKID extracts the Key ID (kid) from a JWT token header without verifying the signature.
// Returns an empty string if no kid is present.
//
// Example:
//
//	kid, err := jwt.ExtractKID(tokenString)
//	if err != nil {
//	    log.Fatal("invalid token format")
//	}
//	key := keys[kid]
func ExtractKID(tokenString string) (string, error) {
	parser := jwt.NewParser(jwt.WithoutClaimsValidation())
	token, _, err := parser.ParseUnverified(tokenString, jwt.MapClaims{})
	if err != nil {
		return "", fmt.Errorf("failed to parse token: %w", err)
	}

	kid, ok := token.Header["kid"].(string)
	if !ok {
		return "", nil
	}

	return kid, nil
}
