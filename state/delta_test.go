// Copyright (C) 2025, Elara Project Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package state

import (
	"testing"
	"time"

	"github.com/elara-project/elara"
)

func TestApplyLastWriteWinsTieBreaksOnSource(t *testing.T) {
	atom := NewAtom(elara.StateId{Instance: 1}, elara.ClassCore, []elara.NodeId{1, 2}, DeltaLaw{Kind: LawLastWriteWins}, 1.0)

	applyDeltaLaw(atom, Event{
		Source:     1,
		Mutation:   Mutation{Bytes: []byte("a")},
		TimeIntent: TimeIntent{Timestamp: 10 * time.Millisecond},
	}, 1.0, 0)

	applyDeltaLaw(atom, Event{
		Source:     2,
		Mutation:   Mutation{Bytes: []byte("b")},
		TimeIntent: TimeIntent{Timestamp: 10 * time.Millisecond},
	}, 1.0, 0)

	// Same timestamp: higher NodeId wins the tie-break.
	if string(atom.Value) != "b" {
		t.Fatalf("value = %q, want %q (tie-break on source)", atom.Value, "b")
	}

	applyDeltaLaw(atom, Event{
		Source:     1,
		Mutation:   Mutation{Bytes: []byte("c")},
		TimeIntent: TimeIntent{Timestamp: 5 * time.Millisecond},
	}, 1.0, 0)

	// Earlier timestamp should not overwrite a later write.
	if string(atom.Value) != "b" {
		t.Fatalf("value = %q, want %q (earlier write should lose)", atom.Value, "b")
	}
}

func TestApplyAppendOnlyOrdersConcurrentEntriesDeterministically(t *testing.T) {
	atomA := NewAtom(elara.StateId{Instance: 1}, elara.ClassCore, []elara.NodeId{1, 2}, DeltaLaw{Kind: LawAppendOnly}, 1.0)
	atomB := NewAtom(elara.StateId{Instance: 1}, elara.ClassCore, []elara.NodeId{1, 2}, DeltaLaw{Kind: LawAppendOnly}, 1.0)

	eventFromOne := Event{
		ID:         elara.EventId{Source: 1, Sequence: 1},
		Source:     1,
		VersionRef: VersionVector{},
		Mutation:   Mutation{Bytes: []byte("X")},
	}
	eventFromTwo := Event{
		ID:         elara.EventId{Source: 2, Sequence: 1},
		Source:     2,
		VersionRef: VersionVector{},
		Mutation:   Mutation{Bytes: []byte("Y")},
	}

	// Replica A sees node 1's event first, then node 2's.
	applyDeltaLaw(atomA, eventFromOne, 1.0, 0)
	applyDeltaLaw(atomA, eventFromTwo, 1.0, 0)

	// Replica B sees them in the opposite order.
	applyDeltaLaw(atomB, eventFromTwo, 1.0, 0)
	applyDeltaLaw(atomB, eventFromOne, 1.0, 0)

	if string(atomA.Value) != string(atomB.Value) {
		t.Fatalf("append-only order diverged: A=%q B=%q", atomA.Value, atomB.Value)
	}
}

func TestApplySetCRDTAddWins(t *testing.T) {
	atom := NewAtom(elara.StateId{Instance: 1}, elara.ClassCore, []elara.NodeId{1, 2}, DeltaLaw{Kind: LawSetCRDT, AddWins: true}, 1.0)

	addVV := VersionVector{1: 1}
	removeVV := VersionVector{2: 1} // concurrent with the add

	applyDeltaLaw(atom, Event{Source: 1, VersionRef: addVV, Mutation: Mutation{Tag: "x", Add: true, Bytes: []byte("v")}}, 1.0, 0)
	applyDeltaLaw(atom, Event{Source: 2, VersionRef: removeVV, Mutation: Mutation{Tag: "x", Add: false}}, 1.0, 0)

	entry := atom.SetEntries["x"]
	if !entry.present {
		t.Fatal("concurrent add should win over remove under add-wins policy")
	}
}

func TestApplyEphemeralSetsExpiry(t *testing.T) {
	atom := NewAtom(elara.StateId{Instance: 1}, elara.ClassCosmetic, []elara.NodeId{1}, DeltaLaw{Kind: LawEphemeral, TTL: 50 * time.Millisecond}, 1.0)
	applyDeltaLaw(atom, Event{Source: 1, Mutation: Mutation{Bytes: []byte("blip")}}, 1.0, 10*time.Millisecond)
	if atom.ExpiresAt == nil || *atom.ExpiresAt != 60*time.Millisecond {
		t.Fatalf("expiry = %v, want 60ms", atom.ExpiresAt)
	}
}

func TestSimplifyCosmeticRevertsToOldValue(t *testing.T) {
	atom := NewAtom(elara.StateId{Instance: 1}, elara.ClassCosmetic, []elara.NodeId{1}, DeltaLaw{Kind: LawLastWriteWins}, 0.01)
	atom.Value = []byte("merged")
	simplify(atom, []byte("old"))
	if string(atom.Value) != "old" {
		t.Fatalf("cosmetic simplify should drop the merge, got %q", atom.Value)
	}
}

func TestSimplifyCoreFlagsInsteadOfDropping(t *testing.T) {
	atom := NewAtom(elara.StateId{Instance: 1}, elara.ClassCore, []elara.NodeId{1}, DeltaLaw{Kind: LawLastWriteWins}, 0.01)
	atom.Value = []byte("merged")
	simplify(atom, []byte("old"))
	if string(atom.Value) != "merged" {
		t.Fatalf("core atoms must never be auto-simplified, got %q", atom.Value)
	}
	if !atom.NeedsResolution {
		t.Fatal("core atom should be flagged NeedsResolution")
	}
}

func TestSimplifyEnhancementReducesQuality(t *testing.T) {
	atom := NewAtom(elara.StateId{Instance: 1}, elara.ClassEnhancement, []elara.NodeId{1}, DeltaLaw{Kind: LawLastWriteWins}, 0.01)
	atom.Value = []byte("abcdefgh")
	simplify(atom, []byte("abcd"))
	if len(atom.Value) != 4 {
		t.Fatalf("enhancement atom should be truncated, len=%d", len(atom.Value))
	}
	if atom.QualityReduced != 1 {
		t.Fatalf("QualityReduced = %d, want 1", atom.QualityReduced)
	}
}

func TestDivergenceEntropyTriggersSimplify(t *testing.T) {
	atom := NewAtom(elara.StateId{Instance: 1}, elara.ClassCosmetic, []elara.NodeId{1}, DeltaLaw{Kind: LawLastWriteWins}, 0.1)
	atom.Value = []byte("aaaa")
	old := append([]byte(nil), atom.Value...)
	applyDeltaLaw(atom, Event{Source: 1, Mutation: Mutation{Bytes: []byte("zzzzzzzz")}}, 1.0, 0)
	entropy := atom.Entropy.Entropy(old, atom.Value)
	if entropy <= atom.EntropyThreshold {
		t.Fatalf("expected high entropy merge, got %f", entropy)
	}
	simplify(atom, old)
	if string(atom.Value) != "aaaa" {
		t.Fatalf("cosmetic atom should revert on high divergence, got %q", atom.Value)
	}
}
