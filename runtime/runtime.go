// Copyright (C) 2025, Elara Project Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

// Package runtime composes the wire, crypto, time, and state subsystems
// into a session: the single-threaded, cooperatively-scheduled unit that
// routes inbound frames into decrypt -> time-update -> reconcile, routes
// outbound events into sign -> classify -> encrypt -> frame, and runs the
// periodic ticks that drive degradation and quarantine drain (§4.5).
package runtime

import (
	"fmt"
	"sync"
	"time"

	"github.com/luxfi/log"

	"github.com/elara-project/elara"
	"github.com/elara-project/elara/config"
	"github.com/elara-project/elara/crypto"
	"github.com/elara-project/elara/metrics"
	"github.com/elara-project/elara/state"
	"github.com/elara-project/elara/timeengine"
)

// DomainTag is the signature domain separator every event this build
// emits or verifies is canonically encoded under (§3).
const DomainTag = "elara-event-sig-v0"

// MessageHandler, PresenceHandler, and DegradationHandler are the three
// application callbacks a Session invokes (§6's "events exposed"), always
// outside any internal critical section (§5, §9).
type MessageHandler func(source elara.NodeId, payload []byte)
type PresenceHandler func(node elara.NodeId, presence elara.PresenceVector)
type DegradationHandler func(level elara.DegradationLevel)

// peer bundles one remote node's per-class ratchet state with the
// transport address and authority key a Session needs to talk to it.
type peer struct {
	address       string
	crypto        *crypto.PeerCrypto
	signingPublic []byte
	presence      elara.PresenceVector
	lastSeen      time.Duration
}

// Session is a single peer's live view of one reality space: it owns no
// global state, shares nothing across sessions, and exposes exactly the
// on_datagram / emit_event / tick surface of §4.5.
type Session struct {
	mu sync.Mutex

	id        elara.SessionId
	identity  *crypto.Identity
	localNode elara.NodeId
	domainTag string
	tunables  config.Tunables

	field  *state.Field
	engine *timeengine.Engine

	transport Transport
	store     *Store
	metrics   *metrics.SessionMetrics
	log       log.Logger

	peers map[elara.NodeId]*peer

	eventSeq uint64

	degradation elara.DegradationLevel

	lastDrift, lastCorrection, lastPrediction, lastCompress time.Duration

	sawAnyInbound bool
	lastInboundAt time.Duration

	onMessage     MessageHandler
	onPresence    PresenceHandler
	onDegradation DegradationHandler
}

// Option configures a Session at construction. Mirrors the donor
// engine's functional-options-over-a-builder convention for optional,
// rarely-all-present dependencies.
type Option func(*Session)

// WithLogger overrides the default no-op logger.
func WithLogger(l log.Logger) Option {
	return func(s *Session) { s.log = l }
}

// WithStore attaches a persistence layer. Without this option a Session
// runs purely in memory.
func WithStore(store *Store) Option {
	return func(s *Session) { s.store = store }
}

// WithMetrics attaches a metrics registry. Without this option a Session
// still accounts everything, just without a Prometheus registerer behind
// it (metrics.NewRegistry(nil)).
func WithMetrics(reg *metrics.Registry) Option {
	return func(s *Session) { s.metrics = metrics.NewSessionMetrics(reg) }
}

// WithHandlers registers the application callbacks for inbound messages,
// presence changes, and degradation changes. Any handler left nil is
// simply not invoked.
func WithHandlers(onMessage MessageHandler, onPresence PresenceHandler, onDegradation DegradationHandler) Option {
	return func(s *Session) {
		s.onMessage = onMessage
		s.onPresence = onPresence
		s.onDegradation = onDegradation
	}
}

// NewSession constructs a Session for identity's local node, against
// transport, starting its time engine from now. tunables governs every
// adjustable constant across the four subsystems (§9's emphasis on
// tunables over literals).
func NewSession(id elara.SessionId, identity *crypto.Identity, tunables config.Tunables, transport Transport, now timeengine.NowFunc, opts ...Option) *Session {
	s := &Session{
		id:        id,
		identity:  identity,
		localNode: identity.NodeID(),
		domainTag: DomainTag,
		tunables:  tunables,
		engine:    timeengine.NewEngine(now, tunables, elara.ProfileRaw),
		transport: transport,
		log:       log.NewNoOpLogger(),
		metrics:   metrics.NewSessionMetrics(metrics.NewRegistry(nil)),
		peers:     make(map[elara.NodeId]*peer),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.field = state.NewField(tunables, s.domainTag, s.resolvePublicKey, verifyEd25519)
	return s
}

// verifyEd25519 adapts crypto.Verify's ed25519.PublicKey parameter to the
// state package's raw-[]byte Verifier shape, keeping state free of the
// ed25519 import (§4.5).
func verifyEd25519(publicKey, message, signature []byte) bool {
	return crypto.Verify(publicKey, message, signature)
}

// AddPeer introduces a remote node the session will exchange frames with:
// its transport address, its five-class ratchet state derived from a
// freshly agreed sessionRoot, and its signing public key for authority
// checks.
func (s *Session) AddPeer(node elara.NodeId, address string, sessionRoot []byte, signingPublic []byte) error {
	pc, err := crypto.NewPeerCrypto(sessionRoot, s.id, s.localNode, s.tunables.EpochThresholds)
	if err != nil {
		return fmt.Errorf("runtime: add peer %s: %w", node, err)
	}
	s.mu.Lock()
	s.peers[node] = &peer{address: address, crypto: pc, signingPublic: signingPublic}
	s.mu.Unlock()
	return nil
}

// resolvePublicKey implements state.PublicKeyResolver without the state
// package importing crypto or runtime (§4.5's subsystem separation).
func (s *Session) resolvePublicKey(node elara.NodeId) ([]byte, bool) {
	if node == s.localNode {
		return s.identity.SigningPublic, true
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.peers[node]
	if !ok {
		return nil, false
	}
	return p.signingPublic, true
}

// DegradationLevel returns the session's current coarse quality tier.
func (s *Session) DegradationLevel() elara.DegradationLevel {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.degradation
}

// Atom returns a snapshot of one state atom, for inspection by callers
// outside the state package (tests, the demo harness, metrics exporters).
func (s *Session) Atom(id elara.StateId) (state.Atom, bool) {
	a, ok := s.field.Atom(id)
	if !ok {
		return state.Atom{}, false
	}
	return *a, true
}

// Metrics returns the session's error-kind counters and presence/
// degradation gauges (§7).
func (s *Session) Metrics() *metrics.SessionMetrics {
	return s.metrics
}

// LocalNode returns this session's own node id.
func (s *Session) LocalNode() elara.NodeId {
	return s.localNode
}

// ObserveNetworkSample feeds a synthetic passive-learning sample into the
// session's network model, for harnesses simulating network conditions
// directly rather than through live traffic (§4.3). now marks this as
// inbound activity for the purposes of silence-based pressure, the same
// as a real decrypted frame would.
func (s *Session) ObserveNetworkSample(peer elara.NodeId, now, sample time.Duration) {
	s.engine.Network.Observe(peer, sample)
	s.mu.Lock()
	s.lastInboundAt = now
	s.sawAnyInbound = true
	s.mu.Unlock()
}

// ObserveNetworkLoss feeds a synthetic loss sample into the session's
// network model, for harnesses simulating network conditions directly.
func (s *Session) ObserveNetworkLoss(peer elara.NodeId, lost bool) {
	s.engine.Network.ObserveLoss(peer, lost)
}

// translateRealityClass maps the time engine's reality-window
// classification onto the state field's temporal classification. The two
// enums are deliberately identical in ordering, but the cast is spelled
// out explicitly rather than performed blindly, since runtime is the one
// place allowed to know both subsystems exist (§4.5).
func translateRealityClass(c timeengine.RealityClass) state.TemporalClass {
	switch c {
	case timeengine.TooOld:
		return state.TooOld
	case timeengine.Correctable:
		return state.Correctable
	case timeengine.Current:
		return state.Current
	default:
		return state.TooFuture
	}
}

// presenceForLevel derives a PresenceVector from the degradation ladder
// (§4.4's L0..L5). The precise mapping from degradation level to
// per-profile presentation belongs to the representation-profile layer,
// not the core; this is the core's own minimal, profile-agnostic
// approximation, used only to populate the presence-changed callback.
func presenceForLevel(level elara.DegradationLevel) elara.PresenceVector {
	switch level {
	case elara.L0:
		return elara.PresenceVector{Liveness: 1, Immediacy: 1, Coherence: 1, RelationalContinuity: 1, EmotionalBandwidth: 1}
	case elara.L1:
		return elara.PresenceVector{Liveness: 1, Immediacy: 1, Coherence: 1, RelationalContinuity: 1, EmotionalBandwidth: 0.5}
	case elara.L2:
		return elara.PresenceVector{Liveness: 1, Immediacy: 0.6, Coherence: 1, RelationalContinuity: 0.8, EmotionalBandwidth: 0.2}
	case elara.L3:
		return elara.PresenceVector{Liveness: 1, Immediacy: 0.3, Coherence: 0.6, RelationalContinuity: 0.5}
	case elara.L4:
		return elara.PresenceVector{Liveness: 1, Immediacy: 0.1, Coherence: 0.3, RelationalContinuity: 0.2}
	default:
		return elara.PresenceVector{Liveness: 1}
	}
}

// peerNodeIDs returns the node id of every known peer, for stage 6
// re-emission and for broadcasting presence/degradation changes.
func (s *Session) peerNodeIDs() []elara.NodeId {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]elara.NodeId, 0, len(s.peers))
	for n := range s.peers {
		ids = append(ids, n)
	}
	return ids
}

func (s *Session) peerByNode(node elara.NodeId) (*peer, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.peers[node]
	return p, ok
}
