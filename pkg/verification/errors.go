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
	"errors"

	"github.com/jeremyhahn/go-keyconv/pkg/types"
)

var (
	// ErrInvalidPublicKeyRSA indicates the RSA public key is invalid or has wrong type.
	ErrInvalidPublicKeyRSA = errors.New("verification: invalid RSA public key")

	// ErrInvalidPublicKeyECDSA indicates the ECDSA public key is invalid or has wrong type.
	ErrInvalidPublicKeyECDSA = errors.New("verification: invalid ECDSA public key")

	// ErrInvalidPublicKeyEd25519 indicates the Ed25519 public key is invalid or has wrong type.
	ErrInvalidPublicKeyEd25519 = errors.New("verification: invalid Ed25519 public key")

	// ErrInvalidPublicKeySecp256k1 indicates the secp256k1 public key is invalid or has wrong type.
	ErrInvalidPublicKeySecp256k1 = errors.New("verification: invalid secp256k1 public key")

	// ErrSignatureVerification indicates a structurally valid signature
	// that does not match the data and key.
	ErrSignatureVerification = errors.New("verification: signature verification failed")

	// ErrInvalidSignatureAlgorithm indicates an unsupported signature algorithm.
	ErrInvalidSignatureAlgorithm = errors.New("verification: invalid signature algorithm")

	// ErrMalformedSignature indicates a signature whose shape does not fit
	// the algorithm (wrong length or encoding).
	ErrMalformedSignature = errors.New("verification: malformed signature")

	// ErrInvalidRequest indicates a nil request or a request without a key.
	ErrInvalidRequest = errors.New("verification: invalid request")

	// ErrUnsupportedKeyType is returned when the key type cannot be
	// resolved or disagrees with the algorithm.
	ErrUnsupportedKeyType = types.ErrUnsupportedKeyType

	// ErrUnsupportedAlgorithm is returned for unknown algorithm names.
	ErrUnsupportedAlgorithm = types.ErrUnsupportedAlgorithm
)
