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

// Package digest provides the SHA-2 primitives used for JWK thumbprints
// and signature pre-hashing.
package digest

import (
	"crypto"
	_ "crypto/sha256" // register SHA-256
	_ "crypto/sha512" // register SHA-384/512
	"errors"
	"fmt"
	"strings"
)

// ErrUnsupportedDigest is returned for digest algorithms outside SHA-256/384/512.
var ErrUnsupportedDigest = errors.New("not_supported: unsupported digest algorithm")

// Algorithm names a supported digest.
type Algorithm string

const (
	SHA256 Algorithm = "sha256"
	SHA384 Algorithm = "sha384"
	SHA512 Algorithm = "sha512"
)

// String returns the string representation.
func (a Algorithm) String() string {
	return string(a)
}

// Hash returns the crypto.Hash for the algorithm, or 0 if unknown.
func (a Algorithm) Hash() crypto.Hash {
	switch a {
	case SHA256:
		return crypto.SHA256
	case SHA384:
		return crypto.SHA384
	case SHA512:
		return crypto.SHA512
	default:
		return 0
	}
}

// Size returns the digest output length in bytes, or 0 if unknown.
func (a Algorithm) Size() int {
	if h := a.Hash(); h != 0 {
		return h.Size()
	}
	return 0
}

// Parse parses a digest name. "SHA-256", "sha256" and "S256" style
// spellings are accepted.
func Parse(s string) (Algorithm, error) {
	switch strings.ToLower(strings.ReplaceAll(strings.TrimSpace(s), "-", "")) {
	case "sha256", "s256":
		return SHA256, nil
	case "sha384", "s384":
		return SHA384, nil
	case "sha512", "s512":
		return SHA512, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedDigest, s)
	}
}

// ForHash maps a crypto.Hash back to an Algorithm.
func ForHash(h crypto.Hash) (Algorithm, error) {
	switch h {
	case crypto.SHA256:
		return SHA256, nil
	case crypto.SHA384:
		return SHA384, nil
	case crypto.SHA512:
		return SHA512, nil
	default:
		return "", fmt.Errorf("%w: %v", ErrUnsupportedDigest, h)
	}
}

// Sum computes the digest of data.
func Sum(alg Algorithm, data []byte) ([]byte, error) {
	h := alg.Hash()
	if h == 0 {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDigest, string(alg))
	}
	return SumHash(h, data)
}

// SumHash computes the digest of data with a crypto.Hash restricted to the
// SHA-2 family this package supports.
func SumHash(h crypto.Hash, data []byte) ([]byte, error) {
	if _, err := ForHash(h); err != nil {
		return nil, err
	}
	hasher := h.New()
	hasher.Write(data)
	return hasher.Sum(nil), nil
}
