// Copyright (C) 2025, Elara Project Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package state

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"

	"github.com/elara-project/elara"
)

// SwarmDiffuser tracks per-(peer, atom) interest heat so stage 6 can
// decide which peers other than the source should receive a re-emitted
// event, capped at a configured fanout (§4.4 stage 6). Heat is a simple
// hashed bucket count rather than per-pair floats, keeping the structure
// O(1) per update regardless of swarm size.
type SwarmDiffuser struct {
	fanoutCap int
	heat      map[uint64]uint32
}

// NewSwarmDiffuser constructs a diffuser with the given fanout cap.
func NewSwarmDiffuser(fanoutCap int) *SwarmDiffuser {
	return &SwarmDiffuser{fanoutCap: fanoutCap, heat: make(map[uint64]uint32)}
}

func heatKey(peer elara.NodeId, atom elara.StateId) uint64 {
	var buf [16]byte
	binary.LittleEndian.PutUint64(buf[0:8], uint64(peer))
	binary.LittleEndian.PutUint64(buf[8:16], atom.Uint64())
	return xxhash.Sum64(buf[:])
}

// Touch records interest from peer in atom, incrementing its heat.
func (s *SwarmDiffuser) Touch(peer elara.NodeId, atom elara.StateId) {
	s.heat[heatKey(peer, atom)]++
}

// Fanout selects up to the configured cap of candidates (excluding
// source) to re-emit an event to, ordered by descending heat so the
// peers that have shown the most interest in this atom are served first
// when the candidate set exceeds the cap.
func (s *SwarmDiffuser) Fanout(candidates []elara.NodeId, source elara.NodeId, atom elara.StateId) []elara.NodeId {
	filtered := make([]elara.NodeId, 0, len(candidates))
	for _, c := range candidates {
		if c != source {
			filtered = append(filtered, c)
		}
	}
	// Simple insertion sort by heat descending; swarm sizes here are
	// small enough that O(n^2) is bounded work per call.
	heats := make([]uint32, len(filtered))
	for i, c := range filtered {
		heats[i] = s.heat[heatKey(c, atom)]
	}
	for i := 1; i < len(filtered); i++ {
		for j := i; j > 0 && heats[j-1] < heats[j]; j-- {
			heats[j-1], heats[j] = heats[j], heats[j-1]
			filtered[j-1], filtered[j] = filtered[j], filtered[j-1]
		}
	}
	if len(filtered) > s.fanoutCap {
		filtered = filtered[:s.fanoutCap]
	}
	return filtered
}
