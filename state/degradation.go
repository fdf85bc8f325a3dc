// Copyright (C) 2025, Elara Project Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package state

import "github.com/elara-project/elara"

// DegradationController tracks the session's coarse quality tier (§4.4):
// at most one level change per adaptation tick, and a step down to a
// lower (better) level only after RecoveryTicks consecutive stable
// samples.
type DegradationController struct {
	level        elara.DegradationLevel
	recoveryNeed int
	stableRun    int
}

// NewDegradationController starts at L0 (full presence).
func NewDegradationController(recoveryTicks int) *DegradationController {
	return &DegradationController{recoveryNeed: recoveryTicks}
}

// Level returns the current degradation level.
func (d *DegradationController) Level() elara.DegradationLevel { return d.level }

// Sample feeds one adaptation tick's pressure signals and returns the
// (possibly unchanged) resulting level. pressure true pushes the level up
// (worse); pressure false counts toward a sustained-stability run that
// eventually allows recovery one level at a time.
func (d *DegradationController) Sample(pressure bool) elara.DegradationLevel {
	if pressure {
		d.stableRun = 0
		if d.level < elara.L5 {
			d.level++
		}
		return d.level
	}

	d.stableRun++
	if d.stableRun >= d.recoveryNeed && d.level > elara.L0 {
		d.level--
		d.stableRun = 0
	}
	return d.level
}
