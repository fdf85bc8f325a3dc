// Copyright (C) 2025, Elara Project Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package config

import "time"

// HorizonBounds gives the [min,max] clamp range for the predicted and
// correctable horizons of a representation profile (§4.3).
type HorizonBounds struct {
	HpMin, HpMax time.Duration
	HcMin, HcMax time.Duration
}

// horizonPresets holds the profile defaults named in §4.3. Profiles not
// listed here (Raw, VoiceRich, LivestreamAsymmetric, Agent) fall back to
// the Textual bounds, the most conservative of the named presets.
var horizonPresets = map[uint8]HorizonBounds{
	1: { // ProfileTextual
		HpMin: 100 * time.Millisecond, HpMax: 500 * time.Millisecond,
		HcMin: 5 * time.Second, HcMax: 30 * time.Second,
	},
	2: { // ProfileVoiceMinimal
		HpMin: 40 * time.Millisecond, HpMax: 100 * time.Millisecond,
		HcMin: 80 * time.Millisecond, HcMax: 200 * time.Millisecond,
	},
	4: { // ProfileVideoPerceptual
		HpMin: 50 * time.Millisecond, HpMax: 150 * time.Millisecond,
		HcMin: 100 * time.Millisecond, HcMax: 500 * time.Millisecond,
	},
	5: { // ProfileGroupSwarm
		HpMin: 60 * time.Millisecond, HpMax: 200 * time.Millisecond,
		HcMin: 100 * time.Millisecond, HcMax: 400 * time.Millisecond,
	},
}

var textualDefault = HorizonBounds{
	HpMin: 100 * time.Millisecond, HpMax: 500 * time.Millisecond,
	HcMin: 5 * time.Second, HcMax: 30 * time.Second,
}

// HorizonPreset returns the horizon bounds for a profile byte (matching
// the NodeId/RepresentationProfile numbering in the root package), falling
// back to the Textual defaults for profiles the spec leaves unspecified.
func HorizonPreset(profile uint8) HorizonBounds {
	if hb, ok := horizonPresets[profile]; ok {
		return hb
	}
	return textualDefault
}

// PresetNames lists the profiles with a dedicated horizon preset.
func PresetNames() []string {
	return []string{"textual", "voice_minimal", "video_perceptual", "group_swarm"}
}
