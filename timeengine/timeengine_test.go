// Copyright (C) 2025, Elara Project Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package timeengine

import (
	"testing"
	"time"

	"github.com/elara-project/elara/config"
)

func fakeClock(start time.Time, step *time.Duration) NowFunc {
	cur := start
	return func() time.Time {
		cur = cur.Add(*step)
		return cur
	}
}

func TestPerceptualClockMonotonic(t *testing.T) {
	step := 10 * time.Millisecond
	pc := NewPerceptualClock(fakeClock(time.Now(), &step))
	var last time.Duration
	for i := 0; i < 5; i++ {
		tau := pc.Tau()
		if tau < last {
			t.Fatalf("perceptual clock went backwards: %v < %v", tau, last)
		}
		last = tau
	}
}

func TestStateClockCorrectionMovesForward(t *testing.T) {
	step := 10 * time.Millisecond
	pc := NewPerceptualClock(fakeClock(time.Now(), &step))
	sc := NewStateClock(pc, 0.1)

	before := sc.Tau()
	sc.Correct(500*time.Millisecond, 1.0)
	after := sc.Tau()
	if after <= before {
		t.Fatalf("expected correction to move state clock forward: before=%v after=%v", before, after)
	}
}

func TestStateClockRateClamped(t *testing.T) {
	step := time.Millisecond
	pc := NewPerceptualClock(fakeClock(time.Now(), &step))
	sc := NewStateClock(pc, 0.1)
	sc.SetRate(5.0)
	if r := sc.Rate(); r != 1.1 {
		t.Fatalf("rate should clamp to 1.1, got %v", r)
	}
	sc.SetRate(-5.0)
	if r := sc.Rate(); r != 0.9 {
		t.Fatalf("rate should clamp to 0.9, got %v", r)
	}
}

func TestClassifyBoundaries(t *testing.T) {
	tau := 10 * time.Second
	hc := 5 * time.Second
	hp := 300 * time.Millisecond

	if class, _ := Classify(tau, tau-hc-time.Second, hc, hp); class != TooOld {
		t.Fatalf("expected TooOld, got %v", class)
	}
	if class, w := Classify(tau, tau-hc, hc, hp); class != Correctable || w != 0 {
		t.Fatalf("expected Correctable weight 0 at age=Hc, got %v w=%v", class, w)
	}
	if class, w := Classify(tau, tau, hc, hp); class != Current || w != 1 {
		t.Fatalf("expected Current weight 1 at age=0, got %v w=%v", class, w)
	}
	if class, _ := Classify(tau, tau+hp, hc, hp); class != Current {
		t.Fatalf("expected Current at t=tau+Hp, got %v", class)
	}
	if class, _ := Classify(tau, tau+hp+time.Millisecond, hc, hp); class != TooFuture {
		t.Fatalf("expected TooFuture beyond Hp, got %v", class)
	}
}

func TestInstabilityAndHorizonAdaptation(t *testing.T) {
	bounds := config.HorizonPreset(uint8(1)) // Textual

	// No jitter/loss: instability is 1, excess clamps to 0, horizons sit
	// at their minimum.
	i := Instability(0, 0, 10, 5)
	if i != 1 {
		t.Fatalf("expected instability 1 with no jitter/loss, got %v", i)
	}
	hp, hc := AdaptedHorizons(bounds, i)
	if hp != bounds.HpMin || hc != bounds.HcMin {
		t.Fatalf("expected horizons at minimum, got hp=%v hc=%v", hp, hc)
	}

	// Heavy jitter and loss push instability well past 1; excess clamps
	// to 1 and horizons sit at their maximum.
	i = Instability(1, 1, 10, 5)
	if i != 66 {
		t.Fatalf("expected instability (1+10)(1+5)=66, got %v", i)
	}
	hp, hc = AdaptedHorizons(bounds, i)
	if hp != bounds.HpMax || hc != bounds.HcMax {
		t.Fatalf("expected horizons at maximum, got hp=%v hc=%v", hp, hc)
	}
}
