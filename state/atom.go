// Copyright (C) 2025, Elara Project Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package state

import (
	"time"

	"github.com/elara-project/elara"
)

// DeltaLawKind is the closed set of merge semantics an atom can declare
// (§3, §4.4). Modeled as a tagged sum rather than a virtual-dispatch
// hierarchy, per §9: the set is small and fixed.
type DeltaLawKind uint8

const (
	LawLastWriteWins DeltaLawKind = iota
	LawAppendOnly
	LawSetCRDT
	LawPNCounter
	LawEphemeral
	LawFrameBased
	LawCustom
)

func (k DeltaLawKind) String() string {
	switch k {
	case LawLastWriteWins:
		return "last-write-wins"
	case LawAppendOnly:
		return "append-only"
	case LawSetCRDT:
		return "set-crdt"
	case LawPNCounter:
		return "pn-counter"
	case LawEphemeral:
		return "ephemeral"
	case LawFrameBased:
		return "frame-based"
	default:
		return "custom"
	}
}

// DeltaLaw is an atom's merge-semantics declaration, with the
// kind-specific parameters each law needs.
type DeltaLaw struct {
	Kind DeltaLawKind

	// SetCRDT: true selects add-wins on a concurrent add+remove of the
	// same tag.
	AddWins bool

	// Ephemeral: time-to-live from the moment a value is set.
	TTL time.Duration

	// FrameBased: nominal blend interval, informational; the actual
	// blend weight comes from the event's Blend mutation or the stage-3
	// correction weight.
	Interval time.Duration
}

// Bounds caps an atom's resource footprint: event-history retention for
// AppendOnly-style atoms (§9's "keep last N events or collapse to
// snapshot + delta log").
type Bounds struct {
	MaxHistoryEvents int
}

// Atom holds one unit of reconciled state (§3, §4.4).
type Atom struct {
	ID           elara.StateId
	StateType    elara.PacketClass // one of Core, Perceptual, Enhancement, Cosmetic
	AuthoritySet map[elara.NodeId]struct{}
	VersionVector VersionVector
	DeltaLaw     DeltaLaw
	Bounds       Bounds
	Entropy      EntropyModel

	Value      []byte
	SetEntries map[string]setEntry // SetCRDT backing store, tag -> entry
	ExpiresAt  *time.Duration      // Ephemeral: state-time expiry, nil if not set

	// AppendOnly backing store: one entry per accepted Append mutation.
	AppendEntries []appendEntry

	// LastWriteWins bookkeeping.
	LastWriteTime   time.Duration
	LastWriteSource elara.NodeId
	haveLastWrite   bool

	// PNCounter backing store: per-source positive/negative totals.
	PNPositive map[elara.NodeId]uint64
	PNNegative map[elara.NodeId]uint64

	EntropyThreshold float64
	NeedsResolution  bool // Core atom flagged instead of auto-simplified (§4.4 stage 5)
	QualityReduced   int  // Enhancement atoms: count of divergence-driven reductions
	Deleted          bool
}

// setEntry is one tagged element of a SetCRDT atom.
type setEntry struct {
	present bool
	value   []byte
	lastVV  VersionVector
}

// appendEntry is one accepted element of an AppendOnly atom, carrying
// enough to reconstruct a deterministic cross-source order (§4.4).
type appendEntry struct {
	id         elara.EventId
	versionRef VersionVector
	bytes      []byte
}

// NewAtom constructs an atom in its initial, empty state.
func NewAtom(id elara.StateId, stateType elara.PacketClass, authority []elara.NodeId, law DeltaLaw, entropyThreshold float64) *Atom {
	set := make(map[elara.NodeId]struct{}, len(authority))
	for _, n := range authority {
		set[n] = struct{}{}
	}
	return &Atom{
		ID:               id,
		StateType:        stateType,
		AuthoritySet:     set,
		VersionVector:    VersionVector{},
		DeltaLaw:         law,
		Entropy:          DefaultEntropyModel{},
		EntropyThreshold: entropyThreshold,
	}
}

// Authorized reports whether node is a direct authority-set member.
func (a *Atom) Authorized(node elara.NodeId) bool {
	_, ok := a.AuthoritySet[node]
	return ok
}
