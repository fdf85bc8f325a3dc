// Copyright (C) 2025, Elara Project Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package state

import (
	"testing"

	"github.com/elara-project/elara"
)

func TestOrderForReplayRespectsCausalOrder(t *testing.T) {
	early := Event{ID: elara.EventId{Source: 1, Sequence: 1}, VersionRef: VersionVector{}}
	late := Event{ID: elara.EventId{Source: 1, Sequence: 2}, VersionRef: VersionVector{1: 1}}
	unrelated := Event{ID: elara.EventId{Source: 2, Sequence: 1}, VersionRef: VersionVector{}}

	// Deliberately out of causal order in the input slice.
	ordered := orderForReplay([]Event{late, early, unrelated})

	pos := make(map[elara.EventId]int, len(ordered))
	for i, e := range ordered {
		pos[e.ID] = i
	}
	if pos[early.ID] >= pos[late.ID] {
		t.Fatalf("early event must be replayed before the event causally after it: order=%v", ordered)
	}
}
