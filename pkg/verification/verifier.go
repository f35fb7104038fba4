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
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/rsa"
	"fmt"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	secpecdsa "github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
	"github.com/jeremyhahn/go-keyconv/pkg/types"
	"golang.org/x/crypto/cryptobyte"
	"golang.org/x/crypto/cryptobyte/asn1"
)

// Verifier defines the interface for signature verification operations.
// It supports RSA (PKCS1v15 and PSS), ECDSA (NIST curves and secp256k1)
// and Ed25519 signature schemes.
type Verifier interface {
	// Verify validates a signature against the provided public key and digest.
	// The hash parameter specifies the hash algorithm used to create the digest.
	// For Ed25519, hashed is the message itself and hash is ignored.
	// A mismatch returns an error matching ErrSignatureVerification; every
	// other error is structural.
	Verify(
		pub crypto.PublicKey,
		hash crypto.Hash,
		hashed, signature []byte,
		opts *VerifyOpts) error
}

// verify implements the Verifier interface.
type verify struct {
	pss PSSVerifier
}

// NewVerifier creates a new Verifier that checks RSA-PSS signatures with
// pss, or with PlatformPSS when pss is nil.
func NewVerifier(pss PSSVerifier) Verifier {
	if pss == nil {
		pss = PlatformPSS()
	}
	return &verify{pss: pss}
}

// Verify validates a signature against the provided public key and digest.
//
// When opts is nil, the function performs basic signature verification:
//   - RSA signatures use PKCS1v15 padding
//   - ECDSA signatures use ASN.1 encoding
//   - Ed25519 signatures use standard verification
//
// When opts names an algorithm, the key must match it.
func (v *verify) Verify(
	pub crypto.PublicKey,
	hash crypto.Hash,
	hashed, signature []byte,
	opts *VerifyOpts) error {

	if opts == nil {
		opts = &VerifyOpts{}
	}
	if opts.Algorithm != "" && !opts.Algorithm.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidSignatureAlgorithm, opts.Algorithm)
	}

	if err := checkKeyForAlgorithm(pub, opts.Algorithm); err != nil {
		return err
	}

	switch key := pub.(type) {
	case *rsa.PublicKey:
		return v.verifyRSA(key, hash, hashed, signature, opts)
	case *ecdsa.PublicKey:
		return verifyECDSA(key, hashed, signature, opts.Encoding)
	case *secp256k1.PublicKey:
		return verifySecp256k1(key, hashed, signature, opts.Encoding)
	case ed25519.PublicKey:
		if len(key) != ed25519.PublicKeySize {
			return ErrInvalidPublicKeyEd25519
		}
		if len(signature) != ed25519.SignatureSize {
			return fmt.Errorf("%w: Ed25519 signature is %d bytes, expected %d",
				ErrMalformedSignature, len(signature), ed25519.SignatureSize)
		}
		if !ed25519.Verify(key, hashed, signature) {
			return ErrSignatureVerification
		}
		return nil
	default:
		return fmt.Errorf("%w: public key type %T", ErrInvalidSignatureAlgorithm, pub)
	}
}

// checkKeyForAlgorithm rejects a public key whose type does not fit alg.
// The error names the key type the algorithm requires.
func checkKeyForAlgorithm(pub crypto.PublicKey, alg types.SignatureAlgorithm) error {
	if alg == "" {
		return nil
	}
	want, _ := alg.KeyType()
	switch want {
	case types.KeyTypeRSA:
		if _, ok := pub.(*rsa.PublicKey); !ok {
			return fmt.Errorf("%w: %s requires an RSA key, got %T", ErrInvalidPublicKeyRSA, alg, pub)
		}
	case types.KeyTypeSecp256k1:
		if _, ok := pub.(*secp256k1.PublicKey); !ok {
			return fmt.Errorf("%w: %s requires a secp256k1 key, got %T", ErrInvalidPublicKeySecp256k1, alg, pub)
		}
	case types.KeyTypeEd25519:
		if _, ok := pub.(ed25519.PublicKey); !ok {
			return fmt.Errorf("%w: %s requires an Ed25519 key, got %T", ErrInvalidPublicKeyEd25519, alg, pub)
		}
	default:
		key, ok := pub.(*ecdsa.PublicKey)
		if !ok || key.Curve == nil || key.Curve.Params().Name != want.JWKCurve() {
			return fmt.Errorf("%w: %s requires a %s key", ErrInvalidPublicKeyECDSA, alg, want.JWKCurve())
		}
	}
	return nil
}

func (v *verify) verifyRSA(pub *rsa.PublicKey, hash crypto.Hash, hashed, signature []byte, opts *VerifyOpts) error {
	if pub.N == nil || pub.E < 2 {
		return ErrInvalidPublicKeyRSA
	}
	if len(signature) != pub.Size() {
		return fmt.Errorf("%w: RSA signature is %d bytes, modulus is %d",
			ErrMalformedSignature, len(signature), pub.Size())
	}

	if opts.Algorithm.IsPSS() {
		return v.pss.VerifyPSS(pub, hash, hashed, signature, opts.SaltLength)
	}
	if err := rsa.VerifyPKCS1v15(pub, hash, hashed, signature); err != nil {
		return fmt.Errorf("%w: %v", ErrSignatureVerification, err)
	}
	return nil
}

func verifyECDSA(pub *ecdsa.PublicKey, hashed, signature []byte, enc SignatureEncoding) error {
	if pub.Curve == nil {
		return ErrInvalidPublicKeyECDSA
	}
	if enc == EncodingCompact {
		size := (pub.Curve.Params().BitSize + 7) / 8
		der, err := compactToASN1(signature, size)
		if err != nil {
			return err
		}
		signature = der
	}
	if !ecdsa.VerifyASN1(pub, hashed, signature) {
		return ErrSignatureVerification
	}
	return nil
}

func verifySecp256k1(pub *secp256k1.PublicKey, hashed, signature []byte, enc SignatureEncoding) error {
	var sig *secpecdsa.Signature
	if enc == EncodingCompact {
		if len(signature) != 64 {
			return fmt.Errorf("%w: compact secp256k1 signature is %d bytes, expected 64",
				ErrMalformedSignature, len(signature))
		}
		var r, s secp256k1.ModNScalar
		// Scalars >= n or zero cannot verify; that is a mismatch, not a
		// malformed signature.
		if r.SetByteSlice(signature[:32]) || s.SetByteSlice(signature[32:]) || r.IsZero() || s.IsZero() {
			return ErrSignatureVerification
		}
		sig = secpecdsa.NewSignature(&r, &s)
	} else {
		parsed, err := secpecdsa.ParseDERSignature(signature)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrMalformedSignature, err)
		}
		sig = parsed
	}
	if !sig.Verify(hashed, pub) {
		return ErrSignatureVerification
	}
	return nil
}

// compactToASN1 re-encodes a fixed-width r||s signature as DER.
func compactToASN1(signature []byte, size int) ([]byte, error) {
	if len(signature) != 2*size {
		return nil, fmt.Errorf("%w: compact signature is %d bytes, expected %d",
			ErrMalformedSignature, len(signature), 2*size)
	}
	var b cryptobyte.Builder
	b.AddASN1(asn1.SEQUENCE, func(b *cryptobyte.Builder) {
		addUnsigned(b, signature[:size])
		addUnsigned(b, signature[size:])
	})
	return b.Bytes()
}

// addUnsigned appends a non-negative big-endian integer.
func addUnsigned(b *cryptobyte.Builder, v []byte) {
	for len(v) > 1 && v[0] == 0 {
		v = v[1:]
	}
	b.AddASN1(asn1.INTEGER, func(b *cryptobyte.Builder) {
		if v[0]&0x80 != 0 {
			b.AddUint8(0)
		}
		b.AddBytes(v)
	})
}
