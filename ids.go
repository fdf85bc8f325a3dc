// Copyright (C) 2025, Elara Project Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package elara

import "fmt"

// NodeId is a 64-bit value derived by hashing a node's signing public key
// and key-agreement public key under a domain tag, truncated to 8 bytes.
type NodeId uint64

// String renders a NodeId as a fixed-width hex string.
func (n NodeId) String() string {
	return fmt.Sprintf("%016x", uint64(n))
}

// SessionId is a 64-bit value agreed at session setup, identifying a
// reality space shared between peers.
type SessionId uint64

func (s SessionId) String() string {
	return fmt.Sprintf("%016x", uint64(s))
}

// StateId identifies a state atom, typically (state-type, instance).
type StateId struct {
	StateType uint32
	Instance  uint32
}

func (s StateId) String() string {
	return fmt.Sprintf("%08x:%08x", s.StateType, s.Instance)
}

// Uint64 packs the StateId into the u64 wire/map-key form used by
// version-vector-adjacent lookups.
func (s StateId) Uint64() uint64 {
	return uint64(s.StateType)<<32 | uint64(s.Instance)
}

// StateIdFromUint64 is the inverse of StateId.Uint64.
func StateIdFromUint64(v uint64) StateId {
	return StateId{StateType: uint32(v >> 32), Instance: uint32(v)}
}

// EventId uniquely identifies an event by its source node and a
// per-source monotonically increasing sequence number.
type EventId struct {
	Source   NodeId
	Sequence uint64
}

func (e EventId) String() string {
	return fmt.Sprintf("%s/%d", e.Source, e.Sequence)
}

// Less gives EventId a total order for tie-breaking: lexicographic on
// (source, sequence), matching the AppendOnly delta-law tie-break rule.
func (e EventId) Less(o EventId) bool {
	if e.Source != o.Source {
		return e.Source < o.Source
	}
	return e.Sequence < o.Sequence
}

// PacketClass is the wire-level priority category; each class carries an
// independent ratchet, replay window, and drop policy.
type PacketClass uint8

const (
	ClassCore PacketClass = iota
	ClassPerceptual
	ClassEnhancement
	ClassCosmetic
	ClassRepair
)

func (c PacketClass) String() string {
	switch c {
	case ClassCore:
		return "core"
	case ClassPerceptual:
		return "perceptual"
	case ClassEnhancement:
		return "enhancement"
	case ClassCosmetic:
		return "cosmetic"
	case ClassRepair:
		return "repair"
	default:
		return fmt.Sprintf("class(%d)", uint8(c))
	}
}

// Valid reports whether c is one of the five defined classes.
func (c PacketClass) Valid() bool {
	return c <= ClassRepair
}

// RepresentationProfile is an informational hint for upper-layer decoding;
// it never affects wire validity.
type RepresentationProfile uint8

const (
	ProfileRaw RepresentationProfile = iota
	ProfileTextual
	ProfileVoiceMinimal
	ProfileVoiceRich
	ProfileVideoPerceptual
	ProfileGroupSwarm
	ProfileLivestreamAsymmetric
	ProfileAgent
)

func (p RepresentationProfile) String() string {
	switch p {
	case ProfileRaw:
		return "raw"
	case ProfileTextual:
		return "textual"
	case ProfileVoiceMinimal:
		return "voice_minimal"
	case ProfileVoiceRich:
		return "voice_rich"
	case ProfileVideoPerceptual:
		return "video_perceptual"
	case ProfileGroupSwarm:
		return "group_swarm"
	case ProfileLivestreamAsymmetric:
		return "livestream_asymmetric"
	case ProfileAgent:
		return "agent"
	default:
		return fmt.Sprintf("profile(%d)", uint8(p))
	}
}

// DegradationLevel is the coarse quality tier L0 (full presence) through
// L5 (identity heartbeat, the terminal floor).
type DegradationLevel uint8

const (
	L0 DegradationLevel = iota
	L1
	L2
	L3
	L4
	L5
)

func (l DegradationLevel) String() string {
	return fmt.Sprintf("L%d", uint8(l))
}

// Clamp bounds l to [L0, L5].
func (l DegradationLevel) Clamp() DegradationLevel {
	if l > L5 {
		return L5
	}
	return l
}

// PresenceVector holds the five scalar components of felt connection
// quality, each in [0.0, 1.0].
type PresenceVector struct {
	Liveness             float64
	Immediacy            float64
	Coherence             float64
	RelationalContinuity float64
	EmotionalBandwidth   float64
}

// Score is the mean of the five components.
func (p PresenceVector) Score() float64 {
	return (p.Liveness + p.Immediacy + p.Coherence + p.RelationalContinuity + p.EmotionalBandwidth) / 5.0
}

// Alive reports whether any component is above zero.
func (p PresenceVector) Alive() bool {
	return p.Liveness > 0 || p.Immediacy > 0 || p.Coherence > 0 ||
		p.RelationalContinuity > 0 || p.EmotionalBandwidth > 0
}
