// Copyright (C) 2025, Elara Project Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

// Package state implements the reconciled state field (§4.4): version
// vectors, state atoms with their delta laws, the six-stage event
// reconciliation pipeline (authority, causality, temporal placement,
// delta merge, divergence control, swarm diffusion), the quarantine
// buffer for not-yet-applicable events, the degradation ladder, and the
// rate-limiting and isolation primitives that contain misbehaving
// sources without full Byzantine consensus.
//
//	field := state.NewField(config.Default(), "elara-event-sig-v0", resolvePublicKey, verify) // verify is a state.Verifier
//	field.CreateAtom(id, elara.ClassCore, authoritySet, state.DeltaLaw{Kind: state.LawLastWriteWins})
//	result, err := field.Apply(event, state.Current, 1.0, now, peers)
//	field.Tick(now, classify, reapply)
package state
