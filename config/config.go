// Copyright (C) 2025, Elara Project Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

// Package config holds the tunables named or implied by the protocol
// specification: per-class ratchet epoch thresholds, per-profile horizon
// bounds, degradation recovery behavior, quarantine bounds, network-model
// EMA alphas, and Byzantine-containment rate limits. Mirrors the donor
// consensus engine's struct-plus-builder configuration convention.
package config

import "time"

// Tunables holds every adjustable constant of the engine. Zero-value
// Tunables is not meaningful; use Default().
type Tunables struct {
	// EMA smoothing factors for the per-peer network model (§4.3).
	FastEMAAlpha float64 `json:"fastEmaAlpha"`
	SlowEMAAlpha float64 `json:"slowEmaAlpha"`
	SkewSampleThreshold int `json:"skewSampleThreshold"`

	// Instability formula coefficients: I = (1+JitterCoeff*jitter)*(1+LossCoeff*loss).
	// Retained as the spec's documented defaults (§9 open question) but
	// exposed here as tunables rather than literals.
	JitterCoeff float64 `json:"jitterCoeff"`
	LossCoeff   float64 `json:"lossCoeff"`

	// Periodic loop intervals (§4.3).
	DriftEstimationInterval time.Duration `json:"driftEstimationInterval"`
	PredictionInterval      time.Duration `json:"predictionInterval"`
	CorrectionInterval      time.Duration `json:"correctionInterval"`
	CompressionInterval     time.Duration `json:"compressionInterval"`

	// State-clock rate bound (§3): rate stays within [1-RateBound, 1+RateBound].
	RateBound float64 `json:"rateBound"`

	// Quarantine bounds (§4.4).
	QuarantineMaxSize int           `json:"quarantineMaxSize"`
	QuarantineMaxAge  time.Duration `json:"quarantineMaxAge"`

	// Degradation ladder (§4.4): a recovery to a lower level requires
	// this many consecutive stable adaptation ticks.
	RecoveryTicks int `json:"recoveryTicks"`

	// Per-class ratchet epoch thresholds (§4.2).
	EpochThresholds map[uint8]uint32 `json:"epochThresholds"`

	// Byzantine containment (§4.4): events/second per source before
	// ErrRateLimited, and how long a source stays isolated after a
	// sustained anomaly.
	RateLimitPerSecond float64       `json:"rateLimitPerSecond"`
	RateLimitBurst     int           `json:"rateLimitBurst"`
	IsolationDuration  time.Duration `json:"isolationDuration"`

	// Swarm diffusion fanout cap (§4.4 stage 6).
	SwarmFanoutCap int `json:"swarmFanoutCap"`

	// Divergence entropy threshold past which stage 5 simplifies.
	EntropyThreshold float64 `json:"entropyThreshold"`
}

// Default returns the spec's documented defaults.
func Default() Tunables {
	return Tunables{
		FastEMAAlpha:        0.1,
		SlowEMAAlpha:        0.05,
		SkewSampleThreshold: 10,
		JitterCoeff:         10,
		LossCoeff:           5,

		DriftEstimationInterval: 100 * time.Millisecond,
		PredictionInterval:      16 * time.Millisecond,
		CorrectionInterval:      10 * time.Millisecond,
		CompressionInterval:     100 * time.Millisecond,

		RateBound: 0.1,

		QuarantineMaxSize: 1024,
		QuarantineMaxAge:  30 * time.Second,

		RecoveryTicks: 10,

		EpochThresholds: map[uint8]uint32{
			0: 1000, // core
			1: 100,  // perceptual
			2: 500,  // enhancement
			3: 1000, // cosmetic
			4: 500,  // repair
		},

		RateLimitPerSecond: 200,
		RateLimitBurst:     400,
		IsolationDuration:  5 * time.Second,

		SwarmFanoutCap: 16,

		EntropyThreshold: 0.35,
	}
}

// Builder provides a fluent interface for composing Tunables overrides on
// top of Default(), matching the donor engine's configuration builder.
type Builder struct {
	t Tunables
}

// NewBuilder starts from Default().
func NewBuilder() *Builder {
	return &Builder{t: Default()}
}

func (b *Builder) WithRecoveryTicks(n int) *Builder {
	b.t.RecoveryTicks = n
	return b
}

func (b *Builder) WithQuarantine(maxSize int, maxAge time.Duration) *Builder {
	b.t.QuarantineMaxSize = maxSize
	b.t.QuarantineMaxAge = maxAge
	return b
}

func (b *Builder) WithRateLimit(perSecond float64, burst int) *Builder {
	b.t.RateLimitPerSecond = perSecond
	b.t.RateLimitBurst = burst
	return b
}

func (b *Builder) WithEntropyThreshold(t float64) *Builder {
	b.t.EntropyThreshold = t
	return b
}

// Build returns the composed Tunables.
func (b *Builder) Build() Tunables {
	return b.t
}
