// Copyright (C) 2025, Elara Project Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package timeengine

import (
	"sync"
	"time"

	"github.com/elara-project/elara"
)

// PeerModel is the per-peer network state learned passively from
// accepted frames (§4.3): an EMA-smoothed clock offset, a slower skew
// (offset-trend) estimate once enough samples have accumulated, and a
// jitter envelope tracking offset dispersion.
type PeerModel struct {
	Offset         time.Duration
	Skew           float64
	JitterEnvelope time.Duration
	SampleCount    int
	LossRate       float64

	lastOffsetForSkew time.Duration
	haveSkewBaseline  bool
}

// NetworkModel holds the global aggregates plus the per-peer table
// (§4.3). It is owned exclusively by one session; no locking is needed
// across sessions, but the map itself is guarded since runtime callbacks
// and periodic ticks both touch it.
type NetworkModel struct {
	mu sync.Mutex

	fastAlpha           float64
	slowAlpha           float64
	skewSampleThreshold int

	LatencyMean    time.Duration
	JitterEnvelope time.Duration
	ReorderDepth   int
	LossRate       float64
	Stability      float64

	peers map[elara.NodeId]*PeerModel
}

// NewNetworkModel constructs an empty NetworkModel using the given EMA
// tunables.
func NewNetworkModel(fastAlpha, slowAlpha float64, skewSampleThreshold int) *NetworkModel {
	return &NetworkModel{
		fastAlpha:           fastAlpha,
		slowAlpha:           slowAlpha,
		skewSampleThreshold: skewSampleThreshold,
		Stability:           1.0,
		peers:               make(map[elara.NodeId]*PeerModel),
	}
}

func ema(current, sample time.Duration, alpha float64) time.Duration {
	return current + time.Duration(alpha*float64(sample-current))
}

// Observe records one passive sample from an accepted frame: sample =
// local receive time minus the remote state-time the frame encoded
// (§4.3's "passive learning"). It updates the peer's offset and jitter
// envelope, and once enough samples have arrived, a slower skew
// estimate.
func (nm *NetworkModel) Observe(peer elara.NodeId, sample time.Duration) {
	nm.mu.Lock()
	defer nm.mu.Unlock()

	pm, ok := nm.peers[peer]
	if !ok {
		pm = &PeerModel{Offset: sample}
		nm.peers[peer] = pm
	}

	prevOffset := pm.Offset
	pm.Offset = ema(pm.Offset, sample, nm.fastAlpha)
	deviation := sample - pm.Offset
	if deviation < 0 {
		deviation = -deviation
	}
	pm.JitterEnvelope = ema(pm.JitterEnvelope, deviation, nm.fastAlpha)
	pm.SampleCount++

	if pm.SampleCount >= nm.skewSampleThreshold {
		trend := pm.Offset - prevOffset
		if !pm.haveSkewBaseline {
			pm.lastOffsetForSkew = trend
			pm.haveSkewBaseline = true
		}
		smoothed := float64(pm.lastOffsetForSkew)*(1-nm.slowAlpha) + float64(trend)*nm.slowAlpha
		pm.lastOffsetForSkew = time.Duration(smoothed)
		if seconds := float64(time.Second); seconds > 0 {
			pm.Skew = smoothed / seconds
		}
	}

	nm.JitterEnvelope = ema(nm.JitterEnvelope, pm.JitterEnvelope, nm.fastAlpha)
}

// ObserveLoss records a loss-rate sample for peer (e.g. a gap detected in
// sequence numbers), updating both the peer's and the global rolling
// loss rate with the fast EMA.
func (nm *NetworkModel) ObserveLoss(peer elara.NodeId, lost bool) {
	nm.mu.Lock()
	defer nm.mu.Unlock()
	pm, ok := nm.peers[peer]
	if !ok {
		pm = &PeerModel{}
		nm.peers[peer] = pm
	}
	sample := 0.0
	if lost {
		sample = 1.0
	}
	pm.LossRate += nm.fastAlpha * (sample - pm.LossRate)
	nm.LossRate += nm.fastAlpha * (sample - nm.LossRate)
}

// Peer returns a copy of the tracked state for peer, or the zero value
// if nothing has been observed yet.
func (nm *NetworkModel) Peer(peer elara.NodeId) PeerModel {
	nm.mu.Lock()
	defer nm.mu.Unlock()
	if pm, ok := nm.peers[peer]; ok {
		return *pm
	}
	return PeerModel{}
}

// clampUnit bounds v to [0,1]; JitterFraction, LossFraction and
// UpdateStability use it to keep their results unit fractions.
func clampUnit(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// JitterFraction returns the global jitter envelope normalized against a
// one-second span, a simple unit-free proxy suitable for the instability
// formula.
func (nm *NetworkModel) JitterFraction() float64 {
	nm.mu.Lock()
	defer nm.mu.Unlock()
	return clampUnit(float64(nm.JitterEnvelope) / float64(time.Second))
}

// LossFraction returns the current global loss-rate estimate.
func (nm *NetworkModel) LossFraction() float64 {
	nm.mu.Lock()
	defer nm.mu.Unlock()
	return clampUnit(nm.LossRate)
}

// UpdateStability recomputes the global stability score as the inverse
// of normalized instability, called once per drift-estimation tick.
func (nm *NetworkModel) UpdateStability(instability float64) {
	nm.mu.Lock()
	defer nm.mu.Unlock()
	nm.Stability = clampUnit(1 / instability)
}
