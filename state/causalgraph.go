// Copyright (C) 2025, Elara Project Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package state

import (
	"github.com/elara-project/elara"
	"github.com/elara-project/elara/horizon"
)

// releaseBatch adapts a slice of quarantine-released events to
// horizon.Graph so they can be topologically sorted before reapplication:
// an event whose VersionRef causally precedes another's must be replayed
// first, even though the quarantine buffer itself holds them unordered.
type releaseBatch struct {
	byID  map[elara.EventId]Event
	order []elara.EventId
}

func newReleaseBatch(events []Event) *releaseBatch {
	b := &releaseBatch{byID: make(map[elara.EventId]Event, len(events)), order: make([]elara.EventId, len(events))}
	for i, e := range events {
		b.byID[e.ID] = e
		b.order[i] = e.ID
	}
	return b
}

// Parents returns every other event in the batch that v's VersionRef
// causally depends on (happens_before, direct or transitive — redundant
// transitive edges don't change the resulting topological order).
func (b *releaseBatch) Parents(v elara.EventId) []elara.EventId {
	event, ok := b.byID[v]
	if !ok {
		return nil
	}
	var parents []elara.EventId
	for _, id := range b.order {
		if id == v {
			continue
		}
		other := b.byID[id]
		if other.VersionRef.HappensBefore(event.VersionRef) {
			parents = append(parents, id)
		}
	}
	return parents
}

// orderForReplay returns events ordered so that every event is preceded
// by every other released event its VersionRef happens after, per
// §4.4 stage 2's causal-order requirement (events must be merged in an
// order consistent with the partial order, not arrival order).
// horizon.TopologicalSort lists each vertex before its parents, so its
// result is read back to front.
func orderForReplay(events []Event) []Event {
	if len(events) < 2 {
		return events
	}
	batch := newReleaseBatch(events)
	sorted := horizon.TopologicalSort[elara.EventId](batch, batch.order)
	out := make([]Event, 0, len(sorted))
	for i := len(sorted) - 1; i >= 0; i-- {
		out = append(out, batch.byID[sorted[i]])
	}
	return out
}
