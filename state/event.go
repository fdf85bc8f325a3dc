// Copyright (C) 2025, Elara Project Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package state

import (
	"time"

	"github.com/elara-project/elara"
)

// EventType distinguishes atom lifecycle events from ordinary mutations
// (§3).
type EventType uint8

const (
	EventStateCreate EventType = iota
	EventStateMutate
	EventStateDelete
)

// MutationKind is the closed set of mutation shapes an Event can carry
// (§3).
type MutationKind uint8

const (
	MutationSet MutationKind = iota
	MutationIncrement
	MutationAppend
	MutationMerge
	MutationDelete
	MutationBlend
)

// Mutation is the tagged payload of an event (§3).
type Mutation struct {
	Kind   MutationKind
	Bytes  []byte
	Delta  int64
	Weight float64 // Blend.weight, in [0,1]
	Tag    string  // SetCRDT element tag
	Add    bool    // SetCRDT: true = add, false = remove
}

// TimeIntent carries the sender's notion of when an event should apply,
// expressed in the sender's own state-clock units (§3).
type TimeIntent struct {
	Timestamp time.Duration
	Urgency   uint8
}

// AuthorityProof binds an event to its source's signing authority,
// optionally via a delegation chain (§3, §4.2).
type AuthorityProof struct {
	Signature  []byte
	Delegation []DelegationLink
}

// DelegationLink grants authority from an authority-set member to a
// third party under a scope, optionally bounded by an expiry expressed
// in state-clock time (§3, §4.2).
type DelegationLink struct {
	Delegator elara.NodeId
	Delegate  elara.NodeId
	Scope     string
	Expiry    *time.Duration
	Signature []byte
}

// Event is an immutable, signed intent to mutate one state atom (§3).
type Event struct {
	ID             elara.EventId
	EventType      EventType
	Source         elara.NodeId
	TargetState    elara.StateId
	VersionRef     VersionVector
	Mutation       Mutation
	TimeIntent     TimeIntent
	AuthorityProof AuthorityProof
	EntropyHint    float64

	// Class/Profile are carried alongside the event for routing and
	// degradation decisions even though they are wire-level concepts;
	// runtime fills them in from the frame header.
	Class   elara.PacketClass
	Profile elara.RepresentationProfile

	// CreateAuthority and CreateLaw are only meaningful on a
	// EventStateCreate event: they establish a new atom's initial
	// authority set and delta law.
	CreateAuthority []elara.NodeId
	CreateLaw       DeltaLaw
}

// CanonicalEncoding returns the bytes an event's signature covers: a
// domain tag plus (id, target_state, version_ref, mutation), in a fixed
// field order so both sides compute the same digest input (§3).
func (e Event) CanonicalEncoding(domainTag string) []byte {
	buf := []byte(domainTag)
	buf = appendEventId(buf, e.ID)
	buf = appendStateId(buf, e.TargetState)
	buf = appendVersionVector(buf, e.VersionRef)
	buf = appendMutation(buf, e.Mutation)
	return buf
}

func appendEventId(buf []byte, id elara.EventId) []byte {
	buf = appendUint64(buf, uint64(id.Source))
	buf = appendUint64(buf, id.Sequence)
	return buf
}

func appendStateId(buf []byte, id elara.StateId) []byte {
	return appendUint64(buf, id.Uint64())
}

func appendVersionVector(buf []byte, vv VersionVector) []byte {
	// Deterministic ordering: nodes sorted ascending.
	nodes := make([]elara.NodeId, 0, len(vv))
	for n := range vv {
		nodes = append(nodes, n)
	}
	sortNodeIds(nodes)
	for _, n := range nodes {
		buf = appendUint64(buf, uint64(n))
		buf = appendUint64(buf, vv[n])
	}
	return buf
}

func appendMutation(buf []byte, m Mutation) []byte {
	buf = append(buf, byte(m.Kind))
	buf = append(buf, m.Bytes...)
	buf = appendUint64(buf, uint64(m.Delta))
	buf = append(buf, []byte(m.Tag)...)
	if m.Add {
		buf = append(buf, 1)
	} else {
		buf = append(buf, 0)
	}
	return buf
}

func appendUint64(buf []byte, v uint64) []byte {
	for i := 0; i < 8; i++ {
		buf = append(buf, byte(v>>(8*(7-i))))
	}
	return buf
}

func sortNodeIds(nodes []elara.NodeId) {
	for i := 1; i < len(nodes); i++ {
		for j := i; j > 0 && nodes[j-1] > nodes[j]; j-- {
			nodes[j-1], nodes[j] = nodes[j], nodes[j-1]
		}
	}
}
