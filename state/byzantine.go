// Copyright (C) 2025, Elara Project Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package state

import (
	"time"

	"github.com/elara-project/elara"
)

// sourceGuard is the per-source rate-limit and isolation state backing
// Byzantine containment (§4.4, §9): no consensus, just authority
// bounding (enforced at the atom level), a fixed one-second-window rate
// limit, and temporary isolation after a burst.
type sourceGuard struct {
	windowStart time.Duration
	count       int
	isolatedAt  time.Duration
	isolated    bool
}

// Containment tracks per-source guards across the whole field.
type Containment struct {
	perSecond     float64
	burst         int
	isolationDur  time.Duration
	guards        map[elara.NodeId]*sourceGuard
}

// NewContainment constructs a Containment using the given rate-limit and
// isolation tunables.
func NewContainment(perSecond float64, burst int, isolationDur time.Duration) *Containment {
	return &Containment{
		perSecond:    perSecond,
		burst:        burst,
		isolationDur: isolationDur,
		guards:       make(map[elara.NodeId]*sourceGuard),
	}
}

// Admit reports whether an event from source at time now is allowed
// through: not isolated, and under the rate limit. The count resets when
// a second has passed since the window opened; it is not a sliding
// window. A source whose count in one window exceeds burst is isolated
// for isolationDur.
func (c *Containment) Admit(source elara.NodeId, now time.Duration) error {
	g, ok := c.guards[source]
	if !ok {
		g = &sourceGuard{windowStart: now}
		c.guards[source] = g
	}

	if g.isolated {
		if now-g.isolatedAt < c.isolationDur {
			return elara.ErrIsolated
		}
		g.isolated = false
		g.count = 0
		g.windowStart = now
	}

	if now-g.windowStart >= time.Second {
		g.windowStart = now
		g.count = 0
	}
	g.count++

	limit := int(c.perSecond)
	if g.count > c.burst {
		g.isolated = true
		g.isolatedAt = now
		return elara.ErrIsolated
	}
	if g.count > limit {
		return elara.ErrRateLimited
	}
	return nil
}

// VectorSane rejects version vectors with an impossibly high entry for a
// third party: any entry whose tick exceeds maxPlausibleTick is treated
// as a sanity violation (§4.4's "version-vector sanity").
func VectorSane(vv VersionVector, maxPlausibleTick uint64) bool {
	for _, tick := range vv {
		if tick > maxPlausibleTick {
			return false
		}
	}
	return true
}
