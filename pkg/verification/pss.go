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
	"bytes"
	"crypto"
	"crypto/rsa"
	"crypto/subtle"
	"encoding/binary"
	"fmt"
	"math/big"
)

// PSSVerifier checks RSASSA-PSS signatures over a precomputed digest.
// saltLen of zero means the digest length.
type PSSVerifier interface {
	VerifyPSS(pub *rsa.PublicKey, hash crypto.Hash, hashed, signature []byte, saltLen int) error
}

// PSSBackend names a PSSVerifier implementation.
type PSSBackend string

const (
	// PSSBackendPlatform delegates to crypto/rsa.
	PSSBackendPlatform PSSBackend = "platform"

	// PSSBackendSoftware runs EMSA-PSS-VERIFY with math/big. It is not
	// constant time with respect to the public key operation and is meant
	// for environments where crypto/rsa is unavailable or restricted.
	PSSBackendSoftware PSSBackend = "software"
)

// ParsePSSBackend parses a backend name.
func ParsePSSBackend(s string) (PSSBackend, error) {
	switch PSSBackend(s) {
	case PSSBackendPlatform, PSSBackendSoftware:
		return PSSBackend(s), nil
	case "":
		return PSSBackendPlatform, nil
	default:
		return "", fmt.Errorf("%w: PSS backend %q", ErrUnsupportedAlgorithm, s)
	}
}

// PSSVerifierFor returns the verifier for a backend.
func PSSVerifierFor(b PSSBackend) (PSSVerifier, error) {
	switch b {
	case PSSBackendPlatform, "":
		return PlatformPSS(), nil
	case PSSBackendSoftware:
		return SoftwarePSS(), nil
	default:
		return nil, fmt.Errorf("%w: PSS backend %q", ErrUnsupportedAlgorithm, b)
	}
}

type platformPSS struct{}

// PlatformPSS returns a PSSVerifier backed by crypto/rsa.
func PlatformPSS() PSSVerifier { return platformPSS{} }

func (platformPSS) VerifyPSS(pub *rsa.PublicKey, hash crypto.Hash, hashed, signature []byte, saltLen int) error {
	if saltLen < 0 {
		return fmt.Errorf("%w: negative PSS salt length %d", ErrInvalidSignatureAlgorithm, saltLen)
	}
	if saltLen == 0 {
		saltLen = rsa.PSSSaltLengthEqualsHash
	}
	err := rsa.VerifyPSS(pub, hash, hashed, signature, &rsa.PSSOptions{
		SaltLength: saltLen,
		Hash:       hash,
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSignatureVerification, err)
	}
	return nil
}

type softwarePSS struct{}

// SoftwarePSS returns a PSSVerifier that implements RFC 8017 section 9.1.2
// directly on math/big.
func SoftwarePSS() PSSVerifier { return softwarePSS{} }

func (softwarePSS) VerifyPSS(pub *rsa.PublicKey, hash crypto.Hash, hashed, signature []byte, saltLen int) error {
	if pub == nil || pub.N == nil || pub.E < 2 {
		return ErrInvalidPublicKeyRSA
	}
	if !hash.Available() {
		return fmt.Errorf("%w: hash %v", ErrInvalidSignatureAlgorithm, hash)
	}
	hLen := hash.Size()
	if len(hashed) != hLen {
		return fmt.Errorf("%w: digest is %d bytes, expected %d", ErrInvalidSignatureAlgorithm, len(hashed), hLen)
	}
	if saltLen < 0 {
		return fmt.Errorf("%w: negative PSS salt length %d", ErrInvalidSignatureAlgorithm, saltLen)
	}
	if saltLen == 0 {
		saltLen = hLen
	}
	k := (pub.N.BitLen() + 7) / 8
	if len(signature) != k {
		return fmt.Errorf("%w: RSA signature is %d bytes, modulus is %d", ErrMalformedSignature, len(signature), k)
	}

	s := new(big.Int).SetBytes(signature)
	if s.Cmp(pub.N) >= 0 {
		return ErrSignatureVerification
	}
	m := new(big.Int).Exp(s, big.NewInt(int64(pub.E)), pub.N)

	emBits := pub.N.BitLen() - 1
	emLen := (emBits + 7) / 8
	if m.BitLen() > emLen*8 {
		return ErrSignatureVerification
	}
	em := m.FillBytes(make([]byte, emLen))

	if emLen < hLen+saltLen+2 || em[emLen-1] != 0xbc {
		return ErrSignatureVerification
	}
	maskedDB := em[:emLen-hLen-1]
	h := em[emLen-hLen-1 : emLen-1]

	topMask := byte(0xff >> (8*emLen - emBits))
	if maskedDB[0]&^topMask != 0 {
		return ErrSignatureVerification
	}

	db := mgf1(hash, h, len(maskedDB))
	for i := range db {
		db[i] ^= maskedDB[i]
	}
	db[0] &= topMask

	psLen := emLen - hLen - saltLen - 2
	for _, b := range db[:psLen] {
		if b != 0 {
			return ErrSignatureVerification
		}
	}
	if db[psLen] != 0x01 {
		return ErrSignatureVerification
	}
	salt := db[len(db)-saltLen:]

	hasher := hash.New()
	hasher.Write(make([]byte, 8))
	hasher.Write(hashed)
	hasher.Write(salt)
	if subtle.ConstantTimeCompare(hasher.Sum(nil), h) != 1 {
		return ErrSignatureVerification
	}
	return nil
}

// mgf1 is the MGF1 mask generation function from RFC 8017 appendix B.2.1.
func mgf1(hash crypto.Hash, seed []byte, length int) []byte {
	var out bytes.Buffer
	var counter [4]byte
	for i := uint32(0); out.Len() < length; i++ {
		binary.BigEndian.PutUint32(counter[:], i)
		hasher := hash.New()
		hasher.Write(seed)
		hasher.Write(counter[:])
		out.Write(hasher.Sum(nil))
	}
	return out.Bytes()[:length]
}
