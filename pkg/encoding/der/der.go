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

// Package der implements the small subset of ASN.1 DER needed to move RSA
// and EC public keys between their PKCS#1, SubjectPublicKeyInfo and raw
// forms.
//
// Decoding is done with a value-typed Cursor over the input. Every Element
// read through a Cursor is a zero-copy view into the original buffer and
// remembers its absolute offset, so errors always report where in the
// caller's input the structure went wrong. Encoding uses
// golang.org/x/crypto/cryptobyte.
package der

import (
	"errors"
	"fmt"
)

// Universal tags used by this package.
const (
	TagInteger     byte = 0x02
	TagBitString   byte = 0x03
	TagOctetString byte = 0x04
	TagNull        byte = 0x05
	TagOID         byte = 0x06
	TagSequence    byte = 0x30

	constructedBit byte = 0x20
	highTagNumber  byte = 0x1f
)

// maxLengthBytes bounds long-form lengths to what fits in an int on every
// platform.
const maxLengthBytes = 4

// ErrMalformed matches every *MalformedError via errors.Is.
var ErrMalformed = errors.New("invalid DER encoding")

// MalformedError describes a structural DER failure at a byte offset of
// the caller's input.
type MalformedError struct {
	Offset int
	Reason string
}

func (e *MalformedError) Error() string {
	return fmt.Sprintf("invalid DER encoding: %s at offset %d", e.Reason, e.Offset)
}

// Is reports whether target is ErrMalformed.
func (e *MalformedError) Is(target error) bool {
	return target == ErrMalformed
}

func malformed(offset int, format string, args ...any) error {
	return &MalformedError{Offset: offset, Reason: fmt.Sprintf(format, args...)}
}

// DecodeLength decodes the DER length field that starts at b[offset]. It
// returns the content length and the number of bytes the length field
// itself occupies. Short form (< 0x80) uses one byte; long form is 0x80|n
// followed by n big-endian bytes. Indefinite and non-minimal lengths are
// rejected.
func DecodeLength(b []byte, offset int) (length, headerBytes int, err error) {
	if offset < 0 || offset >= len(b) {
		return 0, 0, malformed(offset, "truncated length")
	}
	first := b[offset]
	if first < 0x80 {
		return int(first), 1, nil
	}
	n := int(first & 0x7f)
	if n == 0 {
		return 0, 0, malformed(offset, "indefinite length")
	}
	if n > maxLengthBytes {
		return 0, 0, malformed(offset, "length field of %d bytes", n)
	}
	if offset+1+n > len(b) {
		return 0, 0, malformed(offset, "truncated long-form length")
	}
	if b[offset+1] == 0 {
		return 0, 0, malformed(offset, "non-minimal length")
	}
	for _, v := range b[offset+1 : offset+1+n] {
		length = length<<8 | int(v)
	}
	if length < 0x80 {
		return 0, 0, malformed(offset, "non-minimal length")
	}
	return length, 1 + n, nil
}

// Element is a single TLV. Content aliases the decoded buffer.
type Element struct {
	Tag       byte
	Offset    int // absolute offset of the tag byte
	HeaderLen int // tag plus length bytes
	Content   []byte
}

// ContentOffset is the absolute offset of the first content byte.
func (e Element) ContentOffset() int {
	return e.Offset + e.HeaderLen
}

// End is the absolute offset just past the element.
func (e Element) End() int {
	return e.ContentOffset() + len(e.Content)
}

// Constructed reports whether the tag has the constructed bit set.
func (e Element) Constructed() bool {
	return e.Tag&constructedBit != 0
}

// Cursor returns a cursor over the element content.
func (e Element) Cursor() Cursor {
	return Cursor{data: e.Content, base: e.ContentOffset()}
}

// Cursor is an immutable read position. Reads return the element and the
// advanced cursor; the receiver is never modified.
type Cursor struct {
	data []byte
	base int // absolute offset of data[0]
	pos  int
}

// NewCursor returns a cursor at the start of b.
func NewCursor(b []byte) Cursor {
	return Cursor{data: b}
}

// At returns a cursor over b positioned at offset.
func At(b []byte, offset int) Cursor {
	return Cursor{data: b, pos: offset}
}

// Offset is the absolute offset of the next unread byte.
func (c Cursor) Offset() int {
	return c.base + c.pos
}

// Len is the number of unread bytes.
func (c Cursor) Len() int {
	return len(c.data) - c.pos
}

// Empty reports whether all bytes have been consumed.
func (c Cursor) Empty() bool {
	return c.Len() <= 0
}

// Bytes returns the unread bytes.
func (c Cursor) Bytes() []byte {
	return c.data[c.pos:]
}

// PeekTag returns the next tag without consuming it.
func (c Cursor) PeekTag() (byte, error) {
	if c.Empty() {
		return 0, malformed(c.Offset(), "unexpected end of data")
	}
	return c.data[c.pos], nil
}

// ReadElement reads the next TLV.
func (c Cursor) ReadElement() (Element, Cursor, error) {
	tag, err := c.PeekTag()
	if err != nil {
		return Element{}, c, err
	}
	if tag&highTagNumber == highTagNumber {
		return Element{}, c, malformed(c.Offset(), "high tag number form 0x%02x", tag)
	}
	afterTag := c
	afterTag.pos++
	length, body, err := afterTag.ReadLength()
	if err != nil {
		return Element{}, c, err
	}
	if length > body.Len() {
		return Element{}, c, malformed(c.Offset(), "element length %d exceeds remaining %d bytes",
			length, body.Len())
	}
	el := Element{
		Tag:       tag,
		Offset:    c.Offset(),
		HeaderLen: body.pos - c.pos,
		Content:   c.data[body.pos : body.pos+length],
	}
	next := body
	next.pos += length
	return el, next, nil
}

// ReadLength decodes a length field at the cursor and returns the cursor
// positioned at the first content byte.
func (c Cursor) ReadLength() (int, Cursor, error) {
	length, lenBytes, err := DecodeLength(c.data, c.pos)
	if err != nil {
		var me *MalformedError
		if errors.As(err, &me) {
			me.Offset += c.base
		}
		return 0, c, err
	}
	next := c
	next.pos += lenBytes
	return length, next, nil
}

// ReadExpected reads the next TLV and requires its tag to be tag.
func (c Cursor) ReadExpected(tag byte) (Element, Cursor, error) {
	got, err := c.PeekTag()
	if err != nil {
		return Element{}, c, malformed(c.Offset(), "expected %s, got end of data", tagName(tag))
	}
	if got != tag {
		return Element{}, c, malformed(c.Offset(), "expected %s, got tag 0x%02x", tagName(tag), got)
	}
	return c.ReadElement()
}

// expectEnd fails when the cursor has unread bytes.
func (c Cursor) expectEnd(what string) error {
	if !c.Empty() {
		return malformed(c.Offset(), "%d trailing bytes after %s", c.Len(), what)
	}
	return nil
}

func tagName(tag byte) string {
	switch tag {
	case TagInteger:
		return "INTEGER"
	case TagBitString:
		return "BIT STRING"
	case TagOctetString:
		return "OCTET STRING"
	case TagNull:
		return "NULL"
	case TagOID:
		return "OBJECT IDENTIFIER"
	case TagSequence:
		return "SEQUENCE"
	default:
		return fmt.Sprintf("tag 0x%02x", tag)
	}
}
