// Copyright (C) 2025, Elara Project Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package state

// TemporalClass mirrors timeengine.RealityClass without importing the
// timeengine package: the runtime composing both packages translates one
// into the other, keeping state ignorant of clocks and state-field
// ignorant of network models (§4.5's separation of the four subsystems).
type TemporalClass int

const (
	TooOld TemporalClass = iota
	Correctable
	Current
	TooFuture
)
