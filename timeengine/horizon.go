// Copyright (C) 2025, Elara Project Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package timeengine

import (
	"time"

	"github.com/elara-project/elara/config"
)

// RealityClass is the classification an event's target time receives
// relative to the current reality window (§4.3).
type RealityClass int

const (
	// TooOld events are archived, never applied.
	TooOld RealityClass = iota
	// Correctable events apply with correction-weight blending.
	Correctable
	// Current events (including near-future predicted ones) apply now.
	Current
	// TooFuture events are quarantined.
	TooFuture
)

func (c RealityClass) String() string {
	switch c {
	case TooOld:
		return "too-old"
	case Correctable:
		return "correctable"
	case Current:
		return "current"
	default:
		return "too-future"
	}
}

// Instability computes I = (1 + 10*jitter) * (1 + 5*loss), the formula
// driving horizon adaptation (§4.3, retained per §9 as a tunable-backed
// default rather than a derived constant).
func Instability(jitter, loss, jitterCoeff, lossCoeff float64) float64 {
	return (1 + jitterCoeff*jitter) * (1 + lossCoeff*loss)
}

// AdaptedHorizons applies the clamped-excess adaptation to a profile's
// bounds: x = clamp(instability-1, 0, 1); Hp/Hc interpolate linearly
// between their min and max across x.
func AdaptedHorizons(bounds config.HorizonBounds, instability float64) (hp, hc time.Duration) {
	x := instability - 1
	x = clampUnitFloat(x)
	hp = bounds.HpMin + time.Duration(x*float64(bounds.HpMax-bounds.HpMin))
	hc = bounds.HcMin + time.Duration(x*float64(bounds.HcMax-bounds.HcMin))
	return hp, hc
}

func clampUnitFloat(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Classify places target time t (as a state-clock duration since
// session start) relative to the current reality window [tau-Hc,
// tau+Hp], returning the class and, for Correctable events, the
// correction weight w = clamp(1 - age/Hc, 0, 1).
func Classify(tau, t, hc, hp time.Duration) (RealityClass, float64) {
	switch {
	case t < tau-hc:
		return TooOld, 0
	case t < tau:
		if hc <= 0 {
			return Correctable, 0
		}
		age := tau - t
		w := 1 - float64(age)/float64(hc)
		return Correctable, clampUnitFloat(w)
	case t <= tau+hp:
		return Current, 1
	default:
		return TooFuture, 0
	}
}
