// Copyright (C) 2025, Elara Project Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package state

import (
	"encoding/binary"
	"math"
	"time"

	"github.com/elara-project/elara"
)

// applyDeltaLaw mutates atom.Value (and any law-specific backing store)
// per atom.DeltaLaw's semantics (§4.4 stage 4). Merges are non-destructive
// in the CRDT sense: concurrent contributions from different sources are
// never silently lost, only combined per the declared law.
func applyDeltaLaw(atom *Atom, event Event, correctionWeight float64, now time.Duration) {
	switch atom.DeltaLaw.Kind {
	case LawLastWriteWins:
		applyLastWriteWins(atom, event)
	case LawAppendOnly:
		applyAppendOnly(atom, event)
	case LawSetCRDT:
		applySetCRDT(atom, event)
	case LawPNCounter:
		applyPNCounter(atom, event)
	case LawEphemeral:
		applyEphemeral(atom, event, now)
	case LawFrameBased:
		applyFrameBased(atom, event, correctionWeight)
	default: // LawCustom: no registered hook, fall back to last-write-wins
		applyLastWriteWins(atom, event)
	}
}

func applyLastWriteWins(atom *Atom, event Event) {
	t := event.TimeIntent.Timestamp
	if !atom.haveLastWrite ||
		t > atom.LastWriteTime ||
		(t == atom.LastWriteTime && event.Source > atom.LastWriteSource) {
		atom.Value = append([]byte(nil), event.Mutation.Bytes...)
		atom.LastWriteTime = t
		atom.LastWriteSource = event.Source
		atom.haveLastWrite = true
	}
}

// applyAppendOnly inserts the event's bytes into the ordered append log,
// then recomputes atom.Value by a deterministic sort: causally-ordered
// entries keep their order, concurrent ones tie-break lexicographically
// on (source, sequence) — identical on every replica regardless of
// arrival order (§4.4, §8 S4).
func applyAppendOnly(atom *Atom, event Event) {
	atom.AppendEntries = append(atom.AppendEntries, appendEntry{
		id:         event.ID,
		versionRef: event.VersionRef,
		bytes:      append([]byte(nil), event.Mutation.Bytes...),
	})
	entries := atom.AppendEntries
	for i := 1; i < len(entries); i++ {
		for j := i; j > 0 && appendLess(entries[j], entries[j-1]); j-- {
			entries[j-1], entries[j] = entries[j], entries[j-1]
		}
	}
	var buf []byte
	for _, e := range entries {
		buf = append(buf, e.bytes...)
	}
	atom.Value = buf
}

func appendLess(a, b appendEntry) bool {
	if a.versionRef.HappensBefore(b.versionRef) {
		return true
	}
	if b.versionRef.HappensBefore(a.versionRef) {
		return false
	}
	return a.id.Less(b.id)
}

func applySetCRDT(atom *Atom, event Event) {
	if atom.SetEntries == nil {
		atom.SetEntries = make(map[string]setEntry)
	}
	tag := event.Mutation.Tag
	cur, ok := atom.SetEntries[tag]

	if event.Mutation.Add {
		atom.SetEntries[tag] = setEntry{present: true, value: event.Mutation.Bytes, lastVV: event.VersionRef}
	} else {
		// Remove. Add-wins: if a concurrent (or later) add exists that
		// this remove doesn't dominate, the add stands.
		if !ok {
			atom.SetEntries[tag] = setEntry{present: false, lastVV: event.VersionRef}
		} else if atom.DeltaLaw.AddWins && cur.present && !event.VersionRef.Dominates(cur.lastVV) {
			// concurrent with (or behind) the known add: add wins, ignore remove.
		} else {
			atom.SetEntries[tag] = setEntry{present: false, lastVV: event.VersionRef}
		}
	}

	atom.Value = encodeSetEntries(atom.SetEntries)
}

func encodeSetEntries(entries map[string]setEntry) []byte {
	tags := make([]string, 0, len(entries))
	for t := range entries {
		tags = append(tags, t)
	}
	for i := 1; i < len(tags); i++ {
		for j := i; j > 0 && tags[j-1] > tags[j]; j-- {
			tags[j-1], tags[j] = tags[j], tags[j-1]
		}
	}
	var buf []byte
	for _, t := range tags {
		e := entries[t]
		if !e.present {
			continue
		}
		buf = append(buf, byte(len(t)))
		buf = append(buf, t...)
		buf = append(buf, e.value...)
		buf = append(buf, 0xff)
	}
	return buf
}

func applyPNCounter(atom *Atom, event Event) {
	if atom.PNPositive == nil {
		atom.PNPositive = make(map[elara.NodeId]uint64)
		atom.PNNegative = make(map[elara.NodeId]uint64)
	}
	delta := event.Mutation.Delta
	if delta >= 0 {
		atom.PNPositive[event.Source] += uint64(delta)
	} else {
		atom.PNNegative[event.Source] += uint64(-delta)
	}
	var total int64
	for _, v := range atom.PNPositive {
		total += int64(v)
	}
	for _, v := range atom.PNNegative {
		total -= int64(v)
	}
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint64(buf, uint64(total))
	atom.Value = buf
}

func applyEphemeral(atom *Atom, event Event, now time.Duration) {
	atom.Value = append([]byte(nil), event.Mutation.Bytes...)
	expiry := now + atom.DeltaLaw.TTL
	atom.ExpiresAt = &expiry
}

func applyFrameBased(atom *Atom, event Event, correctionWeight float64) {
	w := event.Mutation.Weight
	if w == 0 {
		w = correctionWeight
	}
	old := decodeFloat64s(atom.Value)
	next := decodeFloat64s(event.Mutation.Bytes)
	n := len(next)
	if len(old) > n {
		n = len(old)
	}
	blended := make([]float64, n)
	for i := 0; i < n; i++ {
		var o, nv float64
		if i < len(old) {
			o = old[i]
		}
		if i < len(next) {
			nv = next[i]
		}
		blended[i] = (1-w)*o + w*nv
	}
	buf := make([]byte, n*8)
	for i, v := range blended {
		binary.LittleEndian.PutUint64(buf[i*8:i*8+8], math.Float64bits(v))
	}
	atom.Value = buf
}

// simplify applies stage 5's state-type-specific divergence response
// once entropy exceeds threshold (§4.4). oldValue is the atom's value
// before this event's merge, used by the "drop" response.
func simplify(atom *Atom, oldValue []byte) {
	switch atom.StateType {
	case elara.ClassCosmetic:
		atom.Value = oldValue
	case elara.ClassEnhancement:
		if len(atom.Value) > 1 {
			atom.Value = atom.Value[:len(atom.Value)/2]
		}
		atom.QualityReduced++
	case elara.ClassPerceptual:
		atom.EntropyThreshold = clampUnitFloat2(atom.EntropyThreshold * 1.1)
	case elara.ClassCore:
		atom.NeedsResolution = true
	}
}

func clampUnitFloat2(v float64) float64 {
	if v > 1 {
		return 1
	}
	return v
}
