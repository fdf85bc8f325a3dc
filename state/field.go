// Copyright (C) 2025, Elara Project Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package state

import (
	"sync"
	"time"

	"github.com/elara-project/elara"
	"github.com/elara-project/elara/config"
)

// PublicKeyResolver looks up a node's signing public key, returning false
// if the node is unknown. The field never holds private key material;
// signing happens in the crypto package.
type PublicKeyResolver func(elara.NodeId) ([]byte, bool)

// Verifier checks a signature against a message and public key. Field
// takes this as a function value rather than importing the crypto
// package directly, keeping the state package free of the crypto and
// wire subsystems it doesn't otherwise depend on (§4.5).
type Verifier func(publicKey, message, signature []byte) bool

// Field owns the full reconciled state space for one session: every
// atom, the quarantine buffer, degradation controller, Byzantine
// containment guards, and swarm diffuser (§4.4). A Field is local to one
// peer's view of the session; there is no global coordinator.
type Field struct {
	mu sync.Mutex

	tunables   config.Tunables
	domainTag  string
	publicKeys PublicKeyResolver
	verify     Verifier

	atoms       map[elara.StateId]*Atom
	quarantine  *Quarantine
	degradation *DegradationController
	containment *Containment
	swarm       *SwarmDiffuser
}

// NewField constructs an empty Field. domainTag is the signature domain
// separator events are canonically encoded under (§3); publicKeys and
// verify supply the authority checks stage 1 needs without the state
// package importing crypto.
func NewField(tunables config.Tunables, domainTag string, publicKeys PublicKeyResolver, verify Verifier) *Field {
	return &Field{
		tunables:    tunables,
		domainTag:   domainTag,
		publicKeys:  publicKeys,
		verify:      verify,
		atoms:       make(map[elara.StateId]*Atom),
		quarantine:  NewQuarantine(tunables.QuarantineMaxSize, tunables.QuarantineMaxAge),
		degradation: NewDegradationController(tunables.RecoveryTicks),
		containment: NewContainment(tunables.RateLimitPerSecond, tunables.RateLimitBurst, tunables.IsolationDuration),
		swarm:       NewSwarmDiffuser(tunables.SwarmFanoutCap),
	}
}

// Atom returns the atom at id, if one exists.
func (f *Field) Atom(id elara.StateId) (*Atom, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.atoms[id]
	return a, ok
}

// CreateAtom constructs and registers a new atom directly, bypassing the
// event pipeline. Used for local bootstrap of an atom this node itself
// authors, where no remote event needs to carry the creation.
func (f *Field) CreateAtom(id elara.StateId, stateType elara.PacketClass, authority []elara.NodeId, law DeltaLaw) *Atom {
	f.mu.Lock()
	defer f.mu.Unlock()
	a := NewAtom(id, stateType, authority, law, f.tunables.EntropyThreshold)
	f.atoms[id] = a
	return a
}

// DegradationLevel returns the field's current coarse quality tier.
func (f *Field) DegradationLevel() elara.DegradationLevel {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.degradation.Level()
}

// QuarantineLen reports how many events are currently held pending a
// causal or temporal prerequisite.
func (f *Field) QuarantineLen() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.quarantine.Len()
}

// eventSeen reports whether this field has already committed an event
// with the given id to some atom's version vector, i.e. whether
// dep.Source has reached at least dep.Sequence.
func (f *Field) eventSeen(dep elara.EventId) bool {
	for _, atom := range f.atoms {
		if atom.VersionVector.Get(dep.Source) >= dep.Sequence {
			return true
		}
	}
	return false
}

// Tick drains the quarantine buffer and runs compression (§4.4 stage 5's
// ongoing bookkeeping, §9's periodic maintenance): expired Ephemeral
// atoms are cleared, AppendOnly history is capped to its bounds, stale
// quarantine entries are dropped, and ready ones are handed, in causal
// order, to reapply. classify reports an event's current
// temporal placement, used to test whether a TooFuture entry has become
// placeable; reapply re-drives a released event through Apply.
func (f *Field) Tick(now time.Duration, classify func(Event) TemporalClass, reapply func(Event)) {
	f.mu.Lock()
	released := f.quarantine.ReleaseReady(f.eventSeen, func(e Event) bool {
		return classify(e) == TooFuture
	})
	f.quarantine.Expire(now)
	f.compress(now)
	f.mu.Unlock()

	for _, e := range orderForReplay(released) {
		reapply(e)
	}
}

// compress prunes expired Ephemeral values and caps AppendOnly history
// per atom.Bounds.MaxHistoryEvents by dropping the oldest AppendEntries;
// they are not folded into a snapshot, and atom.Value is not rebuilt here.
func (f *Field) compress(now time.Duration) {
	for _, atom := range f.atoms {
		if atom.ExpiresAt != nil && now >= *atom.ExpiresAt {
			atom.Value = nil
			atom.ExpiresAt = nil
		}
		if atom.Bounds.MaxHistoryEvents > 0 && len(atom.AppendEntries) > atom.Bounds.MaxHistoryEvents {
			drop := len(atom.AppendEntries) - atom.Bounds.MaxHistoryEvents
			atom.AppendEntries = atom.AppendEntries[drop:]
		}
	}
}

// SampleDegradation feeds the degradation controller one adaptation
// tick's pressure signal (instability or divergence exceeding a
// threshold) and returns the resulting level.
func (f *Field) SampleDegradation(pressure bool) elara.DegradationLevel {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.degradation.Sample(pressure)
}
