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
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jeremyhahn/go-keyconv/pkg/types"
)

var (
	// ErrUnsupportedKeyType is returned for key types, curves or kty values
	// outside the supported set.
	ErrUnsupportedKeyType = types.ErrUnsupportedKeyType

	// ErrUnsupportedAlgorithm is returned for unknown signature or digest
	// algorithms.
	ErrUnsupportedAlgorithm = types.ErrUnsupportedAlgorithm

	// ErrInvalidKeyLength is matched by every *InvalidKeyLengthError.
	ErrInvalidKeyLength = errors.New("invalid key length")

	// ErrMissingMember is returned when a JWK lacks a member its kty requires.
	ErrMissingMember = errors.New("invalid JWK: missing required member")

	// ErrInvalidEncoding is returned when a base64url member or a hex
	// string cannot be decoded.
	ErrInvalidEncoding = errors.New("invalid encoding")

	// ErrInvalidPoint is returned for curve points that are malformed or
	// not on the curve, and for private scalars out of range.
	ErrInvalidPoint = errors.New("invalid key material")

	// ErrNotPrivateKey is returned when private material is requested from
	// a public JWK.
	ErrNotPrivateKey = errors.New("JWK does not contain private key material")
)

// InvalidKeyLengthError reports a raw key whose byte length is not one of
// the lengths accepted for its key type.
type InvalidKeyLengthError struct {
	KeyType  types.KeyType
	Private  bool
	Expected []int
	Actual   int
}

func (e *InvalidKeyLengthError) Error() string {
	want := make([]string, len(e.Expected))
	for i, n := range e.Expected {
		want[i] = strconv.Itoa(n)
	}
	return fmt.Sprintf("invalid key length for %s: expected %s, got %d",
		e.KeyType, strings.Join(want, " or "), e.Actual)
}

// Is reports whether target is ErrInvalidKeyLength.
func (e *InvalidKeyLengthError) Is(target error) bool {
	return target == ErrInvalidKeyLength
}

func missingMember(name string) error {
	return fmt.Errorf("%w %q", ErrMissingMember, name)
}
