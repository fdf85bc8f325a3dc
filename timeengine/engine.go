// Copyright (C) 2025, Elara Project Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package timeengine

import (
	"sync"
	"time"

	"github.com/elara-project/elara"
	"github.com/elara-project/elara/config"
)

// Engine bundles the dual clocks, the network model, and the adapted
// reality-window horizons for one session (§4.3, §4.5). It is
// session-local and single-threaded by contract; the mutex here guards
// only against the runtime's own tick/on_datagram interleaving, not
// cross-session sharing.
type Engine struct {
	mu sync.Mutex

	tunables config.Tunables
	bounds   config.HorizonBounds

	Perceptual *PerceptualClock
	State      *StateClock
	Network    *NetworkModel

	hp, hc time.Duration

	pendingCorrection time.Duration
	pendingWeight     float64
	pendingSamples    int
}

// NewEngine constructs an Engine for a session whose atoms mostly use
// profile's horizon preset. Multiple atoms of different profiles share
// one engine; AdaptedHorizonsFor lets callers recompute per-profile
// bounds without reconstructing the engine.
func NewEngine(now NowFunc, tunables config.Tunables, profile elara.RepresentationProfile) *Engine {
	pc := NewPerceptualClock(now)
	bounds := config.HorizonPreset(uint8(profile))
	e := &Engine{
		tunables: tunables,
		bounds:   bounds,
		Perceptual: pc,
		State:      NewStateClock(pc, tunables.RateBound),
		Network:    NewNetworkModel(tunables.FastEMAAlpha, tunables.SlowEMAAlpha, tunables.SkewSampleThreshold),
	}
	e.hp, e.hc = bounds.HpMax, bounds.HcMax
	return e
}

// TauP returns the current perceptual-clock reading.
func (e *Engine) TauP() time.Duration { return e.Perceptual.Tau() }

// TauS returns the current state-clock reading.
func (e *Engine) TauS() time.Duration { return e.State.Tau() }

// Horizons returns the engine's current adapted (Hp, Hc).
func (e *Engine) Horizons() (hp, hc time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.hp, e.hc
}

// Observe feeds a passive sample from an accepted frame into the network
// model (§4.3): localRecvTime and remoteStateTimeHint are both state-clock
// durations, sample = local - remote.
func (e *Engine) Observe(peer elara.NodeId, localRecvTime, remoteStateTimeHint time.Duration) {
	e.Network.Observe(peer, localRecvTime-remoteStateTimeHint)
}

// Classify places t against the engine's current reality window.
func (e *Engine) Classify(t time.Duration) (RealityClass, float64) {
	hp, hc := e.Horizons()
	return Classify(e.TauS(), t, hc, hp)
}

// QueueCorrection accumulates a Correctable event's contribution for the
// next CorrectionTick, matching the non-destructive, bounded-per-tick
// application described in §4.3: corrections are batched rather than
// applied one at a time off the hot path.
func (e *Engine) QueueCorrection(correction time.Duration, weight float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.pendingCorrection += correction
	e.pendingWeight += weight
	e.pendingSamples++
}

// DriftTick is the ~100ms drift-estimation loop: it recomputes
// instability from the network model and adapts the reality-window
// horizons. Bounded work: one pass over already-aggregated scalars, no
// per-peer iteration.
func (e *Engine) DriftTick() {
	jitter := e.Network.JitterFraction()
	loss := e.Network.LossFraction()
	instability := Instability(jitter, loss, e.tunables.JitterCoeff, e.tunables.LossCoeff)
	e.Network.UpdateStability(instability)

	hp, hc := AdaptedHorizons(e.bounds, instability)
	e.mu.Lock()
	e.hp, e.hc = hp, hc
	e.mu.Unlock()
}

// CorrectionTick is the ~10ms correction loop: it applies the average of
// any corrections queued since the last tick to the state clock, bounded
// so the implied instantaneous rate stays within the configured bound.
func (e *Engine) CorrectionTick() {
	e.mu.Lock()
	if e.pendingSamples == 0 {
		e.mu.Unlock()
		return
	}
	correction := e.pendingCorrection / time.Duration(e.pendingSamples)
	weight := e.pendingWeight / float64(e.pendingSamples)
	e.pendingCorrection = 0
	e.pendingWeight = 0
	e.pendingSamples = 0
	e.mu.Unlock()

	e.State.Correct(correction, weight)
}

// PredictionTick is the ~16ms (60Hz) loop; the engine itself has no
// per-tick prediction state beyond the always-current State.Tau(), so
// this is a light no-op reserved for future per-atom extrapolation
// hooks, kept as an explicit call site so runtime.tick's four-loop
// structure matches §4.3 exactly.
func (e *Engine) PredictionTick() {}
