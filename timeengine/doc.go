// Copyright (C) 2025, Elara Project Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

// Package timeengine implements the dual-clock time model (§4.3): a
// monotonic perceptual clock τp that is never adjusted, an elastic state
// clock τs that is nudged toward network consensus time by bounded,
// non-destructive corrections, a per-peer network model learned passively
// from accepted frames, and the reality-window classification that
// decides whether an incoming event applies now, waits, or is archived.
//
//	eng := timeengine.NewEngine(timeengine.RealClock, config.Default(), elara.ProfileTextual)
//	eng.Observe(peer, eng.TauS(), remoteTimeHint)
//	class, weight := eng.Classify(eventTime)
//	eng.DriftTick()
//	eng.CorrectionTick()
package timeengine
