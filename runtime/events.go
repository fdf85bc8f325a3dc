// Copyright (C) 2025, Elara Project Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package runtime

import (
	"errors"
	"fmt"
	"time"

	"github.com/elara-project/elara"
	"github.com/elara-project/elara/pkg/wire"
	"github.com/elara-project/elara/state"
)

// heartbeatStateType reserves state type 0 for per-node identity
// heartbeat atoms, one per authoring node, addressed by the low 32 bits
// of its NodeId (§4.5's "periodic identity heartbeats at L5").
const heartbeatStateType = 0

func (s *Session) identityAtomID(node elara.NodeId) elara.StateId {
	return elara.StateId{StateType: heartbeatStateType, Instance: uint32(node)}
}

// nextEventID allocates the next (source, sequence) pair for an event
// this session authors.
func (s *Session) nextEventID() elara.EventId {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.eventSeq++
	return elara.EventId{Source: s.localNode, Sequence: s.eventSeq}
}

// EmitEvent implements §4.5's emit_event: sign, classify against the
// local reality window, merge into local state immediately (a node's own
// emission is authoritative for itself), then encrypt and hand off to
// the transport for every peer the state field's swarm diffusion stage
// selects.
func (s *Session) EmitEvent(event state.Event) (state.ApplyResult, error) {
	event.Source = s.localNode
	if event.ID == (elara.EventId{}) {
		event.ID = s.nextEventID()
	}
	event.AuthorityProof.Signature = s.identity.Sign(event.CanonicalEncoding(s.domainTag))

	now := s.engine.TauS()
	rc, weight := s.engine.Classify(event.TimeIntent.Timestamp)
	temporal := translateRealityClass(rc)

	result, err := s.field.Apply(event, temporal, weight, now, s.peerNodeIDs())
	if err != nil && !result.Quarantined {
		return result, err
	}
	if !result.Applied {
		return result, nil
	}

	payload, err := state.EncodeEvent(event)
	if err != nil {
		return result, fmt.Errorf("runtime: emit event: %w", err)
	}
	for _, node := range result.Reemit {
		if err := s.sendTo(node, event.Class, event.Profile, event.TimeIntent.Timestamp, payload); err != nil {
			s.log.Warn("elara: send to peer failed", "peer", node.String(), "err", err)
		}
	}
	return result, nil
}

// SendDirect signs and transmits event to node without first gating it
// through this session's own reality-window classification: a sender
// emitting a genuinely out-of-window event (clock skew, or a conformance
// harness exercising a receiver's quarantine handling directly, §8's S3)
// has nothing local to apply, since the event targets the receiver's
// state space, not the sender's own view of it.
func (s *Session) SendDirect(node elara.NodeId, event state.Event) error {
	event.Source = s.localNode
	if event.ID == (elara.EventId{}) {
		event.ID = s.nextEventID()
	}
	event.AuthorityProof.Signature = s.identity.Sign(event.CanonicalEncoding(s.domainTag))

	payload, err := state.EncodeEvent(event)
	if err != nil {
		return fmt.Errorf("runtime: send direct: %w", err)
	}
	return s.sendTo(node, event.Class, event.Profile, event.TimeIntent.Timestamp, payload)
}

func (s *Session) sendTo(node elara.NodeId, class elara.PacketClass, profile elara.RepresentationProfile, timeHint time.Duration, payload []byte) error {
	p, ok := s.peerByNode(node)
	if !ok {
		return fmt.Errorf("runtime: unknown peer %s", node)
	}
	frame, err := p.crypto.EncryptFrame(class, profile, timeHint, nil, payload)
	if err != nil {
		return fmt.Errorf("runtime: encrypt frame to %s: %w", node, err)
	}
	return s.transport.Send(p.address, frame)
}

// OnDatagram implements §4.5's on_datagram: parse, decrypt, feed the
// passive network-time sample, classify, and reconcile. Frames from a
// node that is not a known peer are dropped; peerAddr only fills in the
// reply address of a known peer registered without one. The sender's identity
// for cryptographic and reconciliation purposes always comes from the
// frame header's node id, never the transport address.
func (s *Session) OnDatagram(peerAddr string, frame []byte) {
	hdr, _, _, err := wire.Parse(frame)
	if err != nil {
		s.metrics.FramesMalformed.Inc()
		return
	}
	node := elara.NodeId(hdr.NodeID)

	p, ok := s.peerByNode(node)
	if !ok {
		s.metrics.FramesMalformed.Inc()
		return
	}
	now := s.engine.TauS()
	s.mu.Lock()
	if p.address == "" {
		p.address = peerAddr
	}
	p.lastSeen = now
	s.lastInboundAt = now
	s.sawAnyInbound = true
	s.mu.Unlock()

	class, payload, err := p.crypto.DecryptFrame(frame)
	if err != nil {
		switch {
		case errors.Is(err, elara.ErrReplayDetected):
			s.metrics.ReplaysDetected.Inc()
		default:
			s.metrics.TagFailures.Inc()
		}
		return
	}

	event, err := state.DecodeEvent(payload)
	if err != nil {
		s.metrics.FramesMalformed.Inc()
		return
	}
	event.Class = class
	event.Profile = elara.RepresentationProfile(hdr.Profile)

	s.engine.Observe(node, now, hdr.TimeHint)

	rc, weight := s.engine.Classify(event.TimeIntent.Timestamp)
	temporal := translateRealityClass(rc)

	result, applyErr := s.field.Apply(event, temporal, weight, now, s.peerNodeIDs())
	s.accountApply(result, applyErr)
	if !result.Applied {
		return
	}

	if s.onMessage != nil {
		s.onMessage(event.Source, event.Mutation.Bytes)
	}
	for _, dest := range result.Reemit {
		if err := s.sendTo(dest, event.Class, event.Profile, event.TimeIntent.Timestamp, payload); err != nil {
			s.log.Warn("elara: re-emit failed", "peer", dest.String(), "err", err)
		}
	}
}

// accountApply updates the session's error-kind counters from one
// Apply outcome (§7's five error kinds, as exposed by state.ApplyResult).
func (s *Session) accountApply(result state.ApplyResult, err error) {
	switch {
	case result.Quarantined:
		s.metrics.EventsQuarantined.Inc()
	case result.Rejected && errors.Is(err, elara.ErrUnauthorized):
		s.metrics.EventsUnauthorized.Inc()
	case result.Rejected && errors.Is(err, elara.ErrRateLimited):
		s.metrics.RateLimited.Inc()
	}
}

// Tick implements §4.5's tick(now): it runs whichever of the drift,
// correction and prediction loops are due, drains the quarantine buffer
// causally and runs compression (both on every call; CompressionInterval
// is not consulted), samples degradation, and emits an identity heartbeat
// once the session has floored at L5.
func (s *Session) Tick(now time.Duration) {
	if s.due(&s.lastDrift, now, s.tunables.DriftEstimationInterval) {
		s.engine.DriftTick()
	}
	if s.due(&s.lastCorrection, now, s.tunables.CorrectionInterval) {
		s.engine.CorrectionTick()
	}
	if s.due(&s.lastPrediction, now, s.tunables.PredictionInterval) {
		s.engine.PredictionTick()
	}

	classify := func(e state.Event) state.TemporalClass {
		rc, _ := s.engine.Classify(e.TimeIntent.Timestamp)
		return translateRealityClass(rc)
	}
	var delivered []state.Event
	s.field.Tick(now, classify, func(e state.Event) {
		result, applyErr := s.field.Apply(e, classify(e), 1, now, s.peerNodeIDs())
		s.accountApply(result, applyErr)
		if result.Applied {
			delivered = append(delivered, e)
		}
	})
	for _, e := range delivered {
		if s.onMessage != nil {
			s.onMessage(e.Source, e.Mutation.Bytes)
		}
	}

	previous := s.DegradationLevel()
	level := s.field.SampleDegradation(s.pressureSignal(now))
	s.mu.Lock()
	s.degradation = level
	s.mu.Unlock()
	s.metrics.DegradationLevel.Set(float64(level))
	if level != previous {
		if s.onDegradation != nil {
			s.onDegradation(level)
		}
		if s.onPresence != nil {
			presence := presenceForLevel(level)
			for _, node := range s.peerNodeIDs() {
				s.onPresence(node, presence)
			}
		}
	}
	if level == elara.L5 {
		s.emitIdentityHeartbeat(now)
	}
}

func (s *Session) due(last *time.Duration, now, interval time.Duration) bool {
	if now-*last < interval {
		return false
	}
	*last = now
	return true
}

// silenceGraceTicks is how many DriftEstimationIntervals a session with at
// least one known peer may go without an inbound frame from a known peer
// (counted once it parses, before decryption) before prolonged silence
// itself counts as degradation pressure, independent of the jitter/loss
// instability formula (a dead transport carries neither jitter nor loss
// samples, only an absence of them).
const silenceGraceTicks = 5

// pressureSignal reports whether the current network conditions warrant
// a degradation-ladder step up this tick: either the instability formula
// the drift-estimation loop uses to adapt the reality window exceeds its
// neutral point, or a known peer has gone silent for an extended stretch
// (§4.3, §4.4).
func (s *Session) pressureSignal(now time.Duration) bool {
	jitter := s.engine.Network.JitterFraction()
	loss := s.engine.Network.LossFraction()
	instability := (1 + s.tunables.JitterCoeff*jitter) * (1 + s.tunables.LossCoeff*loss)
	if instability > 1.0 {
		return true
	}

	s.mu.Lock()
	hasPeers := len(s.peers) > 0
	sawInbound := s.sawAnyInbound
	lastInbound := s.lastInboundAt
	s.mu.Unlock()
	if !hasPeers {
		return false
	}
	grace := silenceGraceTicks * s.tunables.DriftEstimationInterval
	if !sawInbound {
		return now > grace
	}
	return now-lastInbound > grace
}

// emitIdentityHeartbeat authors a minimal LastWriteWins mutation to this
// node's own heartbeat atom, creating it on first use.
func (s *Session) emitIdentityHeartbeat(now time.Duration) {
	id := s.identityAtomID(s.localNode)
	_, exists := s.field.Atom(id)

	event := state.Event{
		EventType:   state.EventStateMutate,
		TargetState: id,
		Mutation:    state.Mutation{Kind: state.MutationSet, Bytes: []byte("heartbeat")},
		TimeIntent:  state.TimeIntent{Timestamp: now},
		Class:       elara.ClassCore,
		Profile:     elara.ProfileRaw,
	}
	if !exists {
		event.EventType = state.EventStateCreate
		event.CreateAuthority = []elara.NodeId{s.localNode}
		event.CreateLaw = state.DeltaLaw{Kind: state.LawLastWriteWins}
	}
	if _, err := s.EmitEvent(event); err != nil {
		s.log.Warn("elara: identity heartbeat failed", "err", err)
	}
}
