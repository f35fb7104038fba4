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
	"bytes"
	"encoding/pem"
	"fmt"
)

// PEM block types
const (
	PEMTypeRSAPrivateKey       = "RSA PRIVATE KEY"
	PEMTypeECPrivateKey        = "EC PRIVATE KEY"
	PEMTypePrivateKey          = "PRIVATE KEY"
	PEMTypeEncryptedPrivateKey = "ENCRYPTED PRIVATE KEY"
	PEMTypePublicKey           = "PUBLIC KEY"
	PEMTypeRSAPublicKey        = "RSA PUBLIC KEY"
)

// Block is a decoded PEM key block.
type Block struct {
	Type  string
	Bytes []byte
}

// IsPrivate reports whether the block carries private key material.
func (b *Block) IsPrivate() bool {
	switch b.Type {
	case PEMTypeRSAPrivateKey, PEMTypeECPrivateKey, PEMTypePrivateKey, PEMTypeEncryptedPrivateKey:
		return true
	}
	return false
}

// IsPEM reports whether data looks like PEM text.
func IsPEM(data []byte) bool {
	return bytes.Contains(data, []byte("-----BEGIN "))
}

// DecodePEM returns the first key block in data. Blocks that carry no key
// (certificates, EC PARAMETERS) are skipped.
func DecodePEM(data []byte) (*Block, error) {
	if len(data) == 0 {
		return nil, ErrInvalidData
	}
	rest := data
	skipped := ""
	for {
		block, next := pem.Decode(rest)
		if block == nil {
			if skipped != "" {
				return nil, fmt.Errorf("%w: %s", ErrUnsupportedPEMType, skipped)
			}
			return nil, ErrInvalidPEMEncoding
		}
		switch block.Type {
		case PEMTypeRSAPrivateKey, PEMTypeECPrivateKey, PEMTypePrivateKey,
			PEMTypeEncryptedPrivateKey, PEMTypePublicKey, PEMTypeRSAPublicKey:
			return &Block{Type: block.Type, Bytes: block.Bytes}, nil
		}
		skipped = block.Type
		rest = next
	}
}

// EncodePEM wraps DER bytes in a PEM block of the given type.
//
// Example:
//
//	pemData, err := encoding.EncodePEM(encoding.PEMTypePublicKey, spki)
func EncodePEM(blockType string, der []byte) ([]byte, error) {
	if len(der) == 0 {
		return nil, ErrInvalidData
	}
	var buf bytes.Buffer
	if err := pem.Encode(&buf, &pem.Block{Type: blockType, Bytes: der}); err != nil {
		return nil, fmt.Errorf("failed to encode PEM: %w", err)
	}
	return buf.Bytes(), nil
}
