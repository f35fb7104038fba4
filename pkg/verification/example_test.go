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

package verification_test

import (
	"crypto"
	"crypto/ed25519"
	"crypto/rand"
	"crypto/rsa"
	"encoding/hex"
	"fmt"
	"log"

	"github.com/jeremyhahn/go-keyconv/pkg/encoding/jwk"
	"github.com/jeremyhahn/go-keyconv/pkg/types"
	"github.com/jeremyhahn/go-keyconv/pkg/verification"
)

// Example_rawSecp256k1 verifies a compact secp256k1 signature against a JWK.
func Example_rawSecp256k1() {
	key := &jwk.JWK{
		Kty: "EC",
		Crv: "secp256k1",
		X:   "eCyO0X47Kng7VGTzOwllKnHGeOBexR6E4rz8Zjo96WM",
		Y:   "r5rLQoC4x_fEL075q6YkXsHsFxL9OKD6lkGNjNaqYVI",
	}
	msg, _ := hex.DecodeString("4d7367")
	sig, _ := hex.DecodeString("109cd8ae0374358984a8249c0a843628f2835ffad1df1a9a69aa2fe72355545c" +
		"ac6f00daf53bd8b1e34da329359b6e08019c5b037fed79ee383ae39f85a159c6")

	verifier := verification.NewRawVerifier()
	ok, err := verifier.VerifyRawSignature(&verification.RawSignatureRequest{
		Data:      msg,
		Signature: sig,
		Key:       key,
	})
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(ok)
	// Output: true
}

// Example_rawEd25519 verifies an Ed25519 signature. EdDSA signs the
// message directly.
func Example_rawEd25519() {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		log.Fatal(err)
	}
	key, err := jwk.FromPublicKey(pub)
	if err != nil {
		log.Fatal(err)
	}

	msg := []byte("important message")
	verifier := verification.NewRawVerifier()
	ok, err := verifier.VerifyRawSignature(&verification.RawSignatureRequest{
		Data:      msg,
		Signature: ed25519.Sign(priv, msg),
		Key:       key,
	})
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(ok)
	// Output: true
}

// Example_rsaPSS demonstrates RSA-PSS verification with an explicit salt
// length and the software backend.
func Example_rsaPSS() {
	privateKey, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		log.Fatal(err)
	}

	data := []byte("important message")
	hasher := crypto.SHA384.New()
	hasher.Write(data)
	hashed := hasher.Sum(nil)

	signature, err := rsa.SignPSS(rand.Reader, privateKey, crypto.SHA384, hashed, &rsa.PSSOptions{SaltLength: 48})
	if err != nil {
		log.Fatal(err)
	}

	key, err := jwk.FromPublicKey(&privateKey.PublicKey)
	if err != nil {
		log.Fatal(err)
	}

	verifier := verification.NewRawVerifier(verification.WithPSSVerifier(verification.SoftwarePSS()))
	for _, salt := range []int{48, 32} {
		ok, err := verifier.VerifyRawSignature(&verification.RawSignatureRequest{
			Data:      data,
			Signature: signature,
			Key:       key,
			Opts:      &verification.RawSignatureOptions{SignatureAlg: types.PS384, SaltLength: salt},
		})
		if err != nil {
			log.Fatal(err)
		}
		fmt.Printf("salt %d: %v\n", salt, ok)
	}
	// Output:
	// salt 48: true
	// salt 32: false
}

// Example_rsaPKCS1v15 demonstrates verification with a crypto.PublicKey.
func Example_rsaPKCS1v15() {
	privateKey, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		log.Fatal(err)
	}

	data := []byte("important message")
	hasher := crypto.SHA256.New()
	hasher.Write(data)
	hashed := hasher.Sum(nil)

	signature, err := rsa.SignPKCS1v15(rand.Reader, privateKey, crypto.SHA256, hashed)
	if err != nil {
		log.Fatal(err)
	}

	verifier := verification.NewVerifier(nil)
	opts := &verification.VerifyOpts{Algorithm: types.RS256}
	if err := verifier.Verify(&privateKey.PublicKey, crypto.SHA256, hashed, signature, opts); err != nil {
		log.Fatal(err)
	}

	fmt.Println("RSA PKCS1v15 signature verified successfully")
	// Output: RSA PKCS1v15 signature verified successfully
}
