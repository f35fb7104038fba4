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
	"fmt"
	"time"

	"github.com/jeremyhahn/go-keyconv/pkg/digest"
	"github.com/jeremyhahn/go-keyconv/pkg/encoding/jwk"
	"github.com/jeremyhahn/go-keyconv/pkg/logging"
	"github.com/jeremyhahn/go-keyconv/pkg/metrics"
	"github.com/jeremyhahn/go-keyconv/pkg/types"
)

// RawVerifier checks raw signatures against JWK public keys. It holds no
// mutable state and is safe for concurrent use.
type RawVerifier struct {
	logger     *logging.Logger
	recorder   metrics.Recorder
	pss        PSSVerifier
	defaultRSA types.SignatureAlgorithm
	verifier   Verifier
}

// Option configures a RawVerifier.
type Option func(*RawVerifier)

// WithLogger sets the logger. A nil logger discards output.
func WithLogger(l *logging.Logger) Option {
	return func(v *RawVerifier) { v.logger = l }
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r metrics.Recorder) Option {
	return func(v *RawVerifier) { v.recorder = r }
}

// WithPSSVerifier selects the RSA-PSS implementation.
func WithPSSVerifier(p PSSVerifier) Option {
	return func(v *RawVerifier) { v.pss = p }
}

// WithDefaultRSAAlgorithm sets the algorithm used for RSA keys when neither
// the request nor the JWK names one. Non-RSA values are ignored.
func WithDefaultRSAAlgorithm(alg types.SignatureAlgorithm) Option {
	return func(v *RawVerifier) {
		if alg.IsRSA() {
			v.defaultRSA = alg
		}
	}
}

// NewRawVerifier creates a RawVerifier. Without options it discards logs,
// records no metrics, uses crypto/rsa for PSS and defaults RSA keys to PS256.
func NewRawVerifier(opts ...Option) *RawVerifier {
	v := &RawVerifier{defaultRSA: types.PS256}
	for _, opt := range opts {
		opt(v)
	}
	v.logger = logging.OrDiscard(v.logger)
	v.recorder = metrics.OrNop(v.recorder)
	if v.pss == nil {
		v.pss = PlatformPSS()
	}
	v.verifier = NewVerifier(v.pss)
	return v
}

// VerifyRawSignature validates the key, converts it, and checks the
// signature over req.Data. It returns (false, nil) when the signature is
// well formed but does not match, and a non-nil error for anything else:
// an invalid or unsupported key, an unknown algorithm, or a signature whose
// length does not fit the algorithm.
//
// ECDSA signatures must be compact r||s. The message is hashed with the
// algorithm's digest (SHA-256 for ES256K and ES256, SHA-384 for ES384,
// SHA-512 for ES512); Ed25519 signs the message directly.
func (v *RawVerifier) VerifyRawSignature(req *RawSignatureRequest) (bool, error) {
	start := time.Now()
	kt, alg, err := v.verify(req)

	label := "unknown"
	if kt.IsValid() {
		label = kt.String()
	}
	status := metrics.StatusSuccess
	switch {
	case errors.Is(err, ErrSignatureVerification):
		status = metrics.StatusMismatch
	case err != nil:
		status = metrics.StatusError
	}
	elapsed := time.Since(start)
	v.recorder.ObserveOperation(metrics.OpVerify, label, status, elapsed)

	switch status {
	case metrics.StatusSuccess:
		v.logger.Debug("signature verified", "key_type", label, "alg", alg, "elapsed", elapsed)
		return true, nil
	case metrics.StatusMismatch:
		v.logger.Debug("signature mismatch", "key_type", label, "alg", alg, "elapsed", elapsed)
		return false, nil
	default:
		v.logger.Warn("signature verification failed", "key_type", label, "alg", alg, "error", err)
		return false, err
	}
}

func (v *RawVerifier) verify(req *RawSignatureRequest) (types.KeyType, types.SignatureAlgorithm, error) {
	if req == nil || req.Key == nil {
		return 0, "", ErrInvalidRequest
	}
	opts := req.Opts
	if opts == nil {
		opts = &RawSignatureOptions{}
	}

	key := jwk.Sanitize(req.Key)
	if err := jwk.Validate(key, jwk.ValidateOptions{CrvOptional: true}); err != nil {
		return 0, "", err
	}

	alg, err := requestedAlgorithm(key, opts.SignatureAlg)
	if err != nil {
		return 0, "", err
	}
	kt, err := ResolveKeyType(key, alg)
	if err != nil {
		return 0, alg, err
	}
	if alg == "" {
		if alg, err = v.defaultAlgorithm(kt); err != nil {
			return kt, "", err
		}
	}
	// ToPublicKey needs crv; OKP keys may omit it and take it from alg.
	if key.Crv == "" {
		key.Crv = kt.JWKCurve()
	}

	pub, err := key.ToPublicKey()
	if err != nil {
		return kt, alg, err
	}

	hashed := req.Data
	hash := alg.Hash()
	if hash != 0 {
		if hashed, err = digest.SumHash(hash, req.Data); err != nil {
			return kt, alg, err
		}
	}

	err = v.verifier.Verify(pub, hash, hashed, req.Signature, &VerifyOpts{
		Algorithm:  alg,
		Encoding:   EncodingCompact,
		SaltLength: opts.SaltLength,
	})
	return kt, alg, err
}

func (v *RawVerifier) defaultAlgorithm(kt types.KeyType) (types.SignatureAlgorithm, error) {
	if kt == types.KeyTypeRSA {
		return v.defaultRSA, nil
	}
	return types.DefaultSignatureAlgorithm(kt)
}

// requestedAlgorithm applies the first two precedence steps: the explicit
// algorithm, then the JWK alg member. It returns "" when neither is set.
func requestedAlgorithm(key *jwk.JWK, explicit types.SignatureAlgorithm) (types.SignatureAlgorithm, error) {
	if explicit != "" {
		return types.ParseSignatureAlgorithm(string(explicit))
	}
	if key.Alg != "" {
		return types.ParseSignatureAlgorithm(key.Alg)
	}
	return "", nil
}

// ResolveKeyType returns the key type a verification with alg uses for key.
// Precedence is alg, then crv, then kty. When alg is set it must agree with
// the JWK: an RSA algorithm requires kty RSA, and an EC or EdDSA algorithm
// requires a matching kty and, if present, a matching crv. An OKP key
// without crv takes its curve from alg.
func ResolveKeyType(key *jwk.JWK, alg types.SignatureAlgorithm) (types.KeyType, error) {
	if key == nil {
		return 0, ErrInvalidRequest
	}
	if key.Kty == types.KtyOct {
		return 0, fmt.Errorf("%w: oct keys cannot verify signatures", ErrUnsupportedKeyType)
	}
	if alg == "" {
		return types.KeyTypeFromJWK(key.Kty, key.Crv)
	}

	want, ok := alg.KeyType()
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedAlgorithm, alg)
	}
	if key.Kty != want.JWKKty() {
		return 0, fmt.Errorf("%w: algorithm %s does not apply to kty %q", ErrUnsupportedKeyType, alg, key.Kty)
	}
	if key.Crv == "" && want.Family() != types.FamilyEC {
		return want, nil
	}
	got, err := types.KeyTypeFromJWK(key.Kty, key.Crv)
	if err != nil {
		return 0, err
	}
	if got != want {
		return 0, fmt.Errorf("%w: algorithm %s does not apply to crv %q", ErrUnsupportedKeyType, alg, key.Crv)
	}
	return got, nil
}
