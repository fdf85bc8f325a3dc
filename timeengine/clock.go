// Copyright (C) 2025, Elara Project Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package timeengine

import (
	"sync"
	"time"
)

// NowFunc is the monotonic time source clocks are built from; tests
// substitute a deterministic fake.
type NowFunc func() time.Time

// RealClock is the production NowFunc, backed by the runtime monotonic
// clock reading time.Now carries.
func RealClock() time.Time { return time.Now() }

// PerceptualClock is τp: fixed-rate monotonic elapsed time since an
// arbitrary base, never adjusted by network input (§3, §4.3).
type PerceptualClock struct {
	now  NowFunc
	base time.Time
}

// NewPerceptualClock starts a PerceptualClock with its base at the
// current reading of now.
func NewPerceptualClock(now NowFunc) *PerceptualClock {
	return &PerceptualClock{now: now, base: now()}
}

// Tau returns the elapsed perceptual time since the clock was created.
func (c *PerceptualClock) Tau() time.Duration {
	return c.now().Sub(c.base)
}

// rateBound is the [1-bound, 1+bound] clamp on the state clock's rate
// (§3, §4.3). The bound is passed to NewStateClock by its caller; the
// engine passes config.Tunables.RateBound (default 0.1).
type rateBound struct{ bound float64 }

func (r rateBound) clamp(rate float64) float64 {
	lo, hi := 1-r.bound, 1+r.bound
	if rate < lo {
		return lo
	}
	if rate > hi {
		return hi
	}
	return rate
}

// StateClock is τs: an elastic projection of network consensus time,
// advanced at a bounded rate from a perceptual reference point and
// shifted by non-destructive corrections (§4.3). Corrections never
// touch τp.
type StateClock struct {
	mu    sync.Mutex
	pc    *PerceptualClock
	bound rateBound

	rate          float64
	refPerceptual time.Duration
	refState      time.Duration
}

// NewStateClock creates a StateClock referencing pc, with rate starting
// at 1.0 and bounded to [1-rateBound, 1+rateBound].
func NewStateClock(pc *PerceptualClock, rateBoundValue float64) *StateClock {
	return &StateClock{pc: pc, bound: rateBound{bound: rateBoundValue}, rate: 1.0}
}

// Tau returns the current state-clock reading.
func (c *StateClock) Tau() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tauLocked()
}

func (c *StateClock) tauLocked() time.Duration {
	p := c.pc.Tau()
	elapsed := p - c.refPerceptual
	return c.refState + time.Duration(float64(elapsed)*c.rate)
}

// SetRate updates the clock's ongoing rate (a skew estimate), rebasing
// the reference point first so the change takes effect only from now
// forward. The rate is clamped to the configured bound.
func (c *StateClock) SetRate(rate float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rebaseLocked()
	c.rate = c.bound.clamp(rate)
}

// Correct applies a blended, non-destructive correction: the instant
// advances by correction*weight, rebasing the reference point so past
// readings are unaffected (§4.3's "non-destructive correction").
func (c *StateClock) Correct(correction time.Duration, weight float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	shift := time.Duration(float64(correction) * weight)
	c.rebaseLocked()
	c.refState += shift
}

func (c *StateClock) rebaseLocked() {
	c.refState = c.tauLocked()
	c.refPerceptual = c.pc.Tau()
}

// Rate returns the clock's current rate.
func (c *StateClock) Rate() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rate
}
