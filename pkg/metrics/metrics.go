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

// Package metrics provides Prometheus instrumentation for key conversion,
// thumbprint and verification operations.
package metrics

import (
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	// Namespace is the Prometheus namespace for all keyconv metrics
	Namespace = "keyconv"

	// Label names
	LabelOperation = "operation"
	LabelKeyType   = "key_type"
	LabelStatus    = "status"

	// Status values
	StatusSuccess  = "success"
	StatusError    = "error"
	StatusMismatch = "mismatch"

	// Operation names
	OpToJWK      = "to_jwk"
	OpFromJWK    = "from_jwk"
	OpThumbprint = "thumbprint"
	OpVerify     = "verify"
)

// Recorder observes completed operations.
type Recorder interface {
	ObserveOperation(operation, keyType, status string, duration time.Duration)
}

// NopRecorder discards every observation.
type NopRecorder struct{}

// ObserveOperation implements Recorder.
func (NopRecorder) ObserveOperation(string, string, string, time.Duration) {}

// PrometheusRecorder records operations into a counter and a histogram
// registered on the Registerer given to NewPrometheusRecorder.
type PrometheusRecorder struct {
	// OperationsTotal tracks operations by type, key type and status.
	OperationsTotal *prometheus.CounterVec

	// OperationDuration tracks the duration of operations in seconds.
	// Buckets are tuned for sub-millisecond conversions up to RSA verification.
	OperationDuration *prometheus.HistogramVec

	enabled atomic.Bool
}

// NewPrometheusRecorder creates a recorder whose collectors are registered
// on reg. A nil reg leaves the collectors unregistered.
//
// Example:
//
//	reg := prometheus.NewRegistry()
//	rec := metrics.NewPrometheusRecorder(reg)
//	verifier := verification.NewRawVerifier(verification.WithRecorder(rec))
func NewPrometheusRecorder(reg prometheus.Registerer) *PrometheusRecorder {
	factory := promauto.With(reg)
	r := &PrometheusRecorder{
		OperationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "operations_total",
				Help:      "Total number of keyconv operations by type, key type, and status",
			},
			[]string{LabelOperation, LabelKeyType, LabelStatus},
		),
		OperationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: Namespace,
				Name:      "operation_duration_seconds",
				Help:      "Duration of keyconv operations in seconds",
				Buckets:   []float64{.00001, .00005, .0001, .0005, .001, .005, .01, .05, .1},
			},
			[]string{LabelOperation, LabelKeyType},
		),
	}
	r.enabled.Store(true)
	return r
}

// ObserveOperation implements Recorder.
func (r *PrometheusRecorder) ObserveOperation(operation, keyType, status string, duration time.Duration) {
	if !r.enabled.Load() {
		return
	}
	r.OperationsTotal.WithLabelValues(operation, keyType, status).Inc()
	r.OperationDuration.WithLabelValues(operation, keyType).Observe(duration.Seconds())
}

// Enable enables metrics collection.
func (r *PrometheusRecorder) Enable() {
	r.enabled.Store(true)
}

// Disable disables metrics collection.
// Useful for testing or when metrics are not desired.
func (r *PrometheusRecorder) Disable() {
	r.enabled.Store(false)
}

// IsEnabled returns whether metrics collection is currently enabled.
func (r *PrometheusRecorder) IsEnabled() bool {
	return r.enabled.Load()
}

// Status maps an operation outcome to a status label.
func Status(err error) string {
	if err != nil {
		return StatusError
	}
	return StatusSuccess
}

// OrNop returns r, or NopRecorder when r is nil.
func OrNop(r Recorder) Recorder {
	if r == nil {
		return NopRecorder{}
	}
	return r
}
