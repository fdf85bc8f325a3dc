// Copyright (C) 2025, Elara Project Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package state

import (
	"time"

	"github.com/elara-project/elara"
)

// QuarantineReason records why an event could not yet enter the
// pipeline past the stage that quarantined it (§4.4).
type QuarantineReason uint8

const (
	ReasonMissingDependency QuarantineReason = iota
	ReasonTooFuture
)

// quarantineEntry is one held event.
type quarantineEntry struct {
	event      Event
	reason     QuarantineReason
	queuedAt   time.Duration // the now passed to Add at enqueue
	missingDep elara.EventId
}

// Quarantine is the bounded holding area for events not yet applicable
// (§4.4): capped by MaxSize and MaxAge. Field.Tick releases an entry once
// its dependency resolves or it is no longer TooFuture, and the released
// event is driven through Apply again from the start of the pipeline.
type Quarantine struct {
	maxSize int
	maxAge  time.Duration
	entries []quarantineEntry
}

// NewQuarantine constructs an empty Quarantine.
func NewQuarantine(maxSize int, maxAge time.Duration) *Quarantine {
	return &Quarantine{maxSize: maxSize, maxAge: maxAge}
}

// Len reports the number of held events.
func (q *Quarantine) Len() int { return len(q.entries) }

// Add holds event, evicting the oldest entry first if at capacity. It
// reports whether the event was admitted (false only when eviction still
// leaves no room, which cannot happen with maxSize > 0 but is checked
// defensively).
func (q *Quarantine) Add(event Event, reason QuarantineReason, missingDep elara.EventId, now time.Duration) bool {
	if len(q.entries) >= q.maxSize {
		if q.maxSize == 0 {
			return false
		}
		q.entries = q.entries[1:]
	}
	q.entries = append(q.entries, quarantineEntry{
		event:      event,
		reason:     reason,
		queuedAt:   now,
		missingDep: missingDep,
	})
	return true
}

// Expire drops entries older than maxAge relative to now, returning how
// many were evicted.
func (q *Quarantine) Expire(now time.Duration) int {
	evicted := 0
	kept := q.entries[:0]
	for _, e := range q.entries {
		if now-e.queuedAt > q.maxAge {
			evicted++
			continue
		}
		kept = append(kept, e)
	}
	q.entries = kept
	return evicted
}

// ReleaseReady removes and returns every entry whose missing dependency
// is now satisfied (present in seen) or whose reason was TooFuture and
// stillFuture reports false for it, leaving the rest queued.
func (q *Quarantine) ReleaseReady(seen func(elara.EventId) bool, stillFuture func(Event) bool) []Event {
	var ready []Event
	kept := q.entries[:0]
	for _, e := range q.entries {
		release := false
		switch e.reason {
		case ReasonMissingDependency:
			release = seen(e.missingDep)
		case ReasonTooFuture:
			release = !stillFuture(e.event)
		}
		if release {
			ready = append(ready, e.event)
		} else {
			kept = append(kept, e)
		}
	}
	q.entries = kept
	return ready
}
