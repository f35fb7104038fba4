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
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jeremyhahn/go-keyconv/pkg/types"
)

// ValidateOptions controls Validate.
type ValidateOptions struct {
	// CrvOptional accepts OKP keys without a crv member.
	CrvOptional bool
}

// Member is a single name/value pair of a MinimalJWK.
type Member struct {
	Name  string
	Value string
}

// MinimalJWK holds exactly the required public members of a JWK in
// lexicographic order (RFC 7638 Section 3.2).
type MinimalJWK struct {
	members []Member
}

// Members returns a copy of the ordered member list.
func (m *MinimalJWK) Members() []Member {
	return append([]Member(nil), m.members...)
}

// Get returns the value of the named member.
func (m *MinimalJWK) Get(name string) (string, bool) {
	for _, mem := range m.members {
		if mem.Name == name {
			return mem.Value, true
		}
	}
	return "", false
}

// MarshalJSON emits the members in their stored order without whitespace.
func (m *MinimalJWK) MarshalJSON() ([]byte, error) {
	var b strings.Builder
	b.WriteByte('{')
	for i, mem := range m.members {
		if i > 0 {
			b.WriteByte(',')
		}
		if err := writeJCSString(&b, mem.Name); err != nil {
			return nil, err
		}
		b.WriteByte(':')
		if err := writeJCSString(&b, mem.Value); err != nil {
			return nil, err
		}
	}
	b.WriteByte('}')
	return []byte(b.String()), nil
}

// NormalizeBase64URL maps standard base64 characters to their URL-safe
// equivalents and strips padding. The decoded value is unchanged and the
// function is idempotent.
func NormalizeBase64URL(s string) string {
	s = strings.TrimRight(s, "=")
	return strings.Map(func(r rune) rune {
		switch r {
		case '+':
			return '-'
		case '/':
			return '_'
		}
		return r
	}, s)
}

// Sanitize returns a copy of jwk with every binary member normalized to
// unpadded base64url. Empty members are treated as absent. The input is
// not modified.
func Sanitize(jwk *JWK) *JWK {
	if jwk == nil {
		return nil
	}
	out := *jwk
	for _, f := range []*string{&out.N, &out.E, &out.D, &out.P, &out.Q,
		&out.DP, &out.DQ, &out.QI, &out.X, &out.Y, &out.K} {
		*f = NormalizeBase64URL(strings.TrimSpace(*f))
	}
	out.Kty = strings.TrimSpace(out.Kty)
	out.Crv = strings.TrimSpace(out.Crv)
	if len(out.KeyOps) == 0 {
		out.KeyOps = nil
	} else {
		out.KeyOps = append([]string(nil), jwk.KeyOps...)
	}
	return &out
}

// Validate checks that the members required by the key's kty are present.
func Validate(jwk *JWK, opts ValidateOptions) error {
	if jwk == nil || jwk.Kty == "" {
		return missingMember("kty")
	}
	var required []string
	switch jwk.Kty {
	case types.KtyEC:
		required = []string{"crv", "x", "y"}
	case types.KtyOKP:
		required = []string{"x"}
		if !opts.CrvOptional {
			required = append(required, "crv")
		}
	case types.KtyRSA:
		required = []string{"n", "e"}
	case types.KtyOct:
		required = []string{"k"}
	default:
		return fmt.Errorf("%w: kty %q", ErrUnsupportedKeyType, jwk.Kty)
	}
	for _, name := range required {
		if jwk.member(name) == "" {
			return missingMember(name)
		}
	}
	return nil
}

// Minimal reduces jwk to its RFC 7638 required members: crv, kty, x, y for
// EC; crv, kty, x for OKP; e, kty, n for RSA; k, kty for oct. An OKP key
// without crv yields crv-less output.
func Minimal(jwk *JWK) (*MinimalJWK, error) {
	if err := Validate(jwk, ValidateOptions{CrvOptional: true}); err != nil {
		return nil, err
	}
	var names []string
	switch jwk.Kty {
	case types.KtyEC:
		names = []string{"crv", "kty", "x", "y"}
	case types.KtyOKP:
		names = []string{"crv", "kty", "x"}
	case types.KtyRSA:
		names = []string{"e", "kty", "n"}
	case types.KtyOct:
		names = []string{"k", "kty"}
	}
	m := &MinimalJWK{members: make([]Member, 0, len(names))}
	for _, name := range names {
		if v := jwk.member(name); v != "" {
			m.members = append(m.members, Member{Name: name, Value: v})
		}
	}
	return m, nil
}

func (jwk *JWK) member(name string) string {
	switch name {
	case "kty":
		return jwk.Kty
	case "crv":
		return jwk.Crv
	case "x":
		return jwk.X
	case "y":
		return jwk.Y
	case "n":
		return jwk.N
	case "e":
		return jwk.E
	case "k":
		return jwk.K
	case "d":
		return jwk.D
	}
	return ""
}

// decodeMember decodes a base64url member, accepting standard alphabet
// and padding.
func decodeMember(name, value string) ([]byte, error) {
	b, err := base64.RawURLEncoding.Strict().DecodeString(NormalizeBase64URL(value))
	if err != nil {
		return nil, fmt.Errorf("%w: member %q: %v", ErrInvalidEncoding, name, err)
	}
	return b, nil
}

// String returns the compact JSON form of the minimal JWK.
func (m *MinimalJWK) String() string {
	b, err := m.MarshalJSON()
	if err != nil {
		return ""
	}
	return string(b)
}

var _ json.Marshaler = (*MinimalJWK)(nil)
