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

package der

import (
	"bytes"

	"github.com/jeremyhahn/go-keyconv/pkg/types"
)

// DER-encoded (tag, length, value) curve object identifiers.
var curveOIDs = map[types.KeyType][]byte{
	types.KeyTypeSecp256k1: {0x06, 0x05, 0x2b, 0x81, 0x04, 0x00, 0x0a},                   // 1.3.132.0.10
	types.KeyTypeSecp256r1: {0x06, 0x08, 0x2a, 0x86, 0x48, 0xce, 0x3d, 0x03, 0x01, 0x07}, // 1.2.840.10045.3.1.7
	types.KeyTypeSecp384r1: {0x06, 0x05, 0x2b, 0x81, 0x04, 0x00, 0x22},                   // 1.3.132.0.34
	types.KeyTypeSecp521r1: {0x06, 0x05, 0x2b, 0x81, 0x04, 0x00, 0x23},                   // 1.3.132.0.35
	types.KeyTypeEd25519:   {0x06, 0x03, 0x2b, 0x65, 0x70},                               // 1.3.101.112
	types.KeyTypeX25519:    {0x06, 0x03, 0x2b, 0x65, 0x6e},                               // 1.3.101.110
}

// OID returns the DER encoding of the curve object identifier for kt.
func OID(kt types.KeyType) ([]byte, bool) {
	oid, ok := curveOIDs[kt]
	if !ok {
		return nil, false
	}
	return bytes.Clone(oid), true
}

// ExtractECPoint returns the raw public point (EC) or raw key octets (OKP)
// embedded in a DER structure such as an SPKI, a SEC1 ECPrivateKey or a
// PKCS#8 PrivateKeyInfo. The curve OID for kt is located by subsequence
// search; the elements that follow it are then walked, descending into
// constructed and encapsulating elements, until the first BIT STRING. Its
// unused-bits byte must be zero and the remaining content is returned.
func ExtractECPoint(der []byte, kt types.KeyType) ([]byte, error) {
	oid, ok := curveOIDs[kt]
	if !ok {
		return nil, malformed(0, "no curve object identifier for %s", kt)
	}
	idx := bytes.Index(der, oid)
	if idx < 0 {
		return nil, malformed(0, "object identifier for %s not found", kt)
	}

	bits, err := nextBitString(At(der, idx+len(oid)))
	if err != nil {
		return nil, err
	}
	if len(bits.Content) < 2 {
		return nil, malformed(bits.Offset, "BIT STRING too short for a point")
	}
	if unused := bits.Content[0]; unused != 0 {
		return nil, malformed(bits.ContentOffset(), "BIT STRING has %d unused bits", unused)
	}
	return bits.Content[1:], nil
}

// nextBitString walks forward from c until it reads a BIT STRING. OCTET
// STRINGs that hold exactly one SEQUENCE (PKCS#8 wrapping SEC1) are
// searched too; parse failures inside them only abandon that branch.
func nextBitString(c Cursor) (Element, error) {
	type frame struct {
		cur          Cursor
		encapsulated bool
	}
	stack := []frame{{cur: c}}
	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		if top.cur.Empty() {
			stack = stack[:len(stack)-1]
			continue
		}
		el, next, err := top.cur.ReadElement()
		if err != nil {
			if !top.encapsulated {
				return Element{}, err
			}
			stack = stack[:len(stack)-1]
			continue
		}
		top.cur = next
		encapsulated := top.encapsulated

		switch {
		case el.Tag == TagBitString:
			return el, nil
		case el.Constructed():
			stack = append(stack, frame{cur: el.Cursor(), encapsulated: encapsulated})
		case el.Tag == TagOctetString && holdsSequence(el):
			stack = append(stack, frame{cur: el.Cursor(), encapsulated: true})
		}
	}
	return Element{}, malformed(c.Offset(), "BIT STRING not found after curve object identifier")
}

// holdsSequence reports whether an OCTET STRING's content is exactly one
// SEQUENCE.
func holdsSequence(el Element) bool {
	_, rest, err := el.Cursor().ReadExpected(TagSequence)
	return err == nil && rest.Empty()
}
