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

// Package jwt signs and verifies JSON Web Tokens with JWK keys.
//
// It plugs golang-jwt/jwt into the rest of go-keyconv: SigningMethodJWK
// implements jwt.SigningMethod, verifies through a
// verification.RawVerifier and signs from a private JWK. ECDSA signatures
// use the fixed-width r||s form JOSE requires.
//
// # Supported Algorithms
//
//   - ES256K (secp256k1, registered with golang-jwt on import)
//   - ES256, ES384, ES512 (ECDSA)
//   - EdDSA (Ed25519)
//   - RS256, RS384, RS512 (RSA with PKCS#1 v1.5)
//   - PS256, PS384, PS512 (RSA with PSS)
//
// # Basic Usage
//
// Signing with a private JWK:
//
//	signer := jwt.NewSigner(nil)
//	token, err := signer.Sign(privateJWK, jwt.MapClaims{"sub": "user123"})
//
// The algorithm is the JWK's alg member or the default for its key type
// (ES256K for secp256k1, PS256 for RSA). The kid member becomes the
// token's kid header.
//
// Verifying with a public JWK:
//
//	token, err := jwt.ParseWithJWK(tokenString, publicJWK)
//
// VerifyWithOptions adds issuer, audience, expiry and algorithm checks.
// The verifier rebinds each parsed token to a SigningMethodJWK for its
// header alg, so the built-in golang-jwt methods never see the JWK.
package jwt
