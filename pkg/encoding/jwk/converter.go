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
	"time"

	"github.com/jeremyhahn/go-keyconv/pkg/digest"
	"github.com/jeremyhahn/go-keyconv/pkg/logging"
	"github.com/jeremyhahn/go-keyconv/pkg/metrics"
	"github.com/jeremyhahn/go-keyconv/pkg/types"
)

// Converter wraps the package functions with logging and metrics.
// A zero Converter discards both.
type Converter struct {
	Logger   *logging.Logger
	Recorder metrics.Recorder

	// Digest is the thumbprint digest; empty means SHA-256.
	Digest digest.Algorithm
}

// ToJWK calls ToJWK and records the outcome.
func (c *Converter) ToJWK(raw []byte, kt types.KeyType, opts *ToJWKOptions) (*JWK, error) {
	start := time.Now()
	jwk, err := ToJWK(raw, kt, opts)
	c.observe(metrics.OpToJWK, kt.String(), start, err, "length", len(raw))
	return jwk, err
}

// FromJWK calls FromJWK and records the outcome.
func (c *Converter) FromJWK(jwk *JWK) ([]byte, error) {
	start := time.Now()
	raw, err := FromJWK(jwk)
	c.observe(metrics.OpFromJWK, keyTypeLabel(jwk), start, err, "length", len(raw))
	return raw, err
}

// Thumbprint computes the thumbprint with the configured digest.
func (c *Converter) Thumbprint(jwk *JWK) (string, error) {
	start := time.Now()
	tp, err := CalculateThumbprint(jwk, ThumbprintOptions{Digest: c.Digest})
	c.observe(metrics.OpThumbprint, keyTypeLabel(jwk), start, err, "digest", c.digest())
	return tp, err
}

func (c *Converter) digest() digest.Algorithm {
	if c.Digest == "" {
		return digest.SHA256
	}
	return c.Digest
}

func (c *Converter) observe(op, keyType string, start time.Time, err error, args ...any) {
	elapsed := time.Since(start)
	metrics.OrNop(c.Recorder).ObserveOperation(op, keyType, metrics.Status(err), elapsed)

	log := logging.OrDiscard(c.Logger)
	args = append(args, "operation", op, "key_type", keyType, "elapsed", elapsed)
	if err != nil {
		log.Warn("key conversion failed", append(args, "error", err)...)
		return
	}
	log.Debug("key conversion", args...)
}

// keyTypeLabel names the key type of jwk for metric labels.
func keyTypeLabel(jwk *JWK) string {
	if jwk == nil {
		return "unknown"
	}
	if jwk.Kty == types.KtyOct {
		return types.KtyOct
	}
	kt, err := types.KeyTypeFromJWK(jwk.Kty, jwk.Crv)
	if err != nil {
		return "unknown"
	}
	return kt.String()
}
