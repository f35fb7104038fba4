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
	"encoding/json"
	"math"
	"testing"
)

func TestCanonicalize_Numbers(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "0"},
		{math.Copysign(0, -1), "0"},
		{1, "1"},
		{-1.5, "-1.5"},
		{4.50, "4.5"},
		{2e-3, "0.002"},
		{0.000001, "0.000001"},
		{1e-7, "1e-7"},
		{1e20, "100000000000000000000"},
		{1e21, "1e+21"},
		{123456789012345680000, "123456789012345680000"},
		{333333333.33333329, "333333333.3333333"},
		{1.7976931348623157e308, "1.7976931348623157e+308"},
		{5e-324, "5e-324"},
		{-1.2345e-10, "-1.2345e-10"},
	}
	for _, tt := range tests {
		got, err := Canonicalize(tt.in)
		if err != nil {
			t.Fatalf("Canonicalize(%v) failed: %v", tt.in, err)
		}
		if string(got) != tt.want {
			t.Errorf("Canonicalize(%v) = %s, want %s", tt.in, got, tt.want)
		}
	}

	for _, bad := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		if _, err := Canonicalize(bad); err == nil {
			t.Errorf("Expected error for %v", bad)
		}
	}
}

func TestCanonicalize_Strings(t *testing.T) {
	in := "\u20ac$\x0f\nA'B\"\\\\\"/"
	want := `"` + "\u20ac" + `$\u000f\nA'B\"\\\\\"/"`

	got, err := Canonicalize(in)
	if err != nil {
		t.Fatalf("Canonicalize failed: %v", err)
	}
	if string(got) != want {
		t.Errorf("got %s, want %s", got, want)
	}

	if _, err := Canonicalize("\xff"); err == nil {
		t.Error("Expected error for invalid UTF-8")
	}
}

func TestCanonicalize_KeyOrder(t *testing.T) {
	in := map[string]any{
		"\u20ac":     "Euro Sign",
		"\r":         "Carriage Return",
		"\ufb33":     "Hebrew Letter Dalet With Dagesh",
		"1":          "One",
		"\U0001F600": "Emoji: Grinning Face",
		"\u0080":     "Control",
		"\u00f6":     "Latin Small Letter O With Diaeresis",
	}
	want := `{"\r":"Carriage Return","1":"One","` + "\u0080" + `":"Control",` +
		`"` + "\u00f6" + `":"Latin Small Letter O With Diaeresis",` +
		`"` + "\u20ac" + `":"Euro Sign",` +
		`"` + "\U0001F600" + `":"Emoji: Grinning Face",` +
		`"` + "\ufb33" + `":"Hebrew Letter Dalet With Dagesh"}`

	got, err := Canonicalize(in)
	if err != nil {
		t.Fatalf("Canonicalize failed: %v", err)
	}
	if string(got) != want {
		t.Errorf("got  %s\nwant %s", got, want)
	}
}

func TestCanonicalize_Structures(t *testing.T) {
	var parsed any
	input := `{ "b" : [ 1.0, true, null, {"z": 1, "a": "x"} ], "a" : 1e2 }`
	if err := json.Unmarshal([]byte(input), &parsed); err != nil {
		t.Fatal(err)
	}
	got, err := Canonicalize(parsed)
	if err != nil {
		t.Fatalf("Canonicalize failed: %v", err)
	}
	if want := `{"a":100,"b":[1,true,null,{"a":"x","z":1}]}`; string(got) != want {
		t.Errorf("got %s, want %s", got, want)
	}

	// Structs go through encoding/json first.
	jwk := &JWK{Kty: "EC", Crv: "P-256", X: "x", Y: "y", Kid: "k"}
	got, err = Canonicalize(jwk)
	if err != nil {
		t.Fatalf("Canonicalize(JWK) failed: %v", err)
	}
	if want := `{"crv":"P-256","kid":"k","kty":"EC","x":"x","y":"y"}`; string(got) != want {
		t.Errorf("got %s, want %s", got, want)
	}

	got, err = Canonicalize(map[string]string{"b": "2", "a": "1"})
	if err != nil || string(got) != `{"a":"1","b":"2"}` {
		t.Errorf("map[string]string: %s, %v", got, err)
	}

	got, err = Canonicalize([]any{json.Number("1E3"), 7, int64(-2), float32(0.5)})
	if err != nil || string(got) != `[1000,7,-2,0.5]` {
		t.Errorf("mixed numbers: %s, %v", got, err)
	}
}
