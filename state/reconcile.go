// Copyright (C) 2025, Elara Project Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package state

import (
	"time"

	"github.com/elara-project/elara"
)

// ApplyResult reports what stage an event reached and any side effects
// the runtime must act on (syncing, re-emission).
type ApplyResult struct {
	Applied     bool
	Archived    bool
	Quarantined bool
	Rejected    bool
	NeedsSync   bool
	Reason      error
	Reemit      []elara.NodeId
}

// Apply runs event through the six-stage reconciliation pipeline
// (§4.4). temporalClass and correctionWeight are supplied by the
// runtime's time engine, keeping state ignorant of clocks. peers is the
// session's known peer set, used by stage 6's swarm diffusion.
func (f *Field) Apply(event Event, temporalClass TemporalClass, correctionWeight float64, now time.Duration, peers []elara.NodeId) (ApplyResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.containment.Admit(event.Source, now); err != nil {
		return ApplyResult{Rejected: true, Reason: err}, err
	}

	atom, existed := f.atoms[event.TargetState]
	if !existed {
		if event.EventType != EventStateCreate {
			return ApplyResult{Rejected: true, Reason: elara.ErrAtomNotFound}, elara.ErrAtomNotFound
		}
		atom = NewAtom(event.TargetState, event.Class, event.CreateAuthority, event.CreateLaw, f.tunables.EntropyThreshold)
		authorized := atom.Authorized(event.Source)
		if !authorized {
			return ApplyResult{Rejected: true, Reason: elara.ErrUnauthorized}, elara.ErrUnauthorized
		}
		f.atoms[event.TargetState] = atom
	}

	// Stage 1: authority.
	if err := f.checkAuthority(atom, event, now); err != nil {
		return ApplyResult{Rejected: true, Reason: err}, err
	}

	// Stage 2: causality. An event is safe to merge once its causal
	// context (VersionRef) is either already fully known to the atom, or
	// advances cleanly by at most one tick per node beyond what the atom
	// has observed. A larger per-node gap means an intervening event
	// from that node hasn't arrived yet, so the event waits in
	// quarantine rather than being merged out of order (§4.4 stage 2).
	if !event.VersionRef.LessEqual(atom.VersionVector) {
		for node, tick := range event.VersionRef {
			if tick > atom.VersionVector[node]+1 {
				missing := elara.EventId{Source: node, Sequence: atom.VersionVector[node] + 1}
				f.quarantine.Add(event, ReasonMissingDependency, missing, now)
				return ApplyResult{Quarantined: true, Reason: elara.ErrQuarantined}, elara.ErrQuarantined
			}
		}
	}

	// Stage 3: temporal placement.
	switch temporalClass {
	case TooOld:
		return ApplyResult{Archived: true}, nil
	case TooFuture:
		f.quarantine.Add(event, ReasonTooFuture, elara.EventId{}, now)
		return ApplyResult{Quarantined: true, Reason: elara.ErrQuarantined}, elara.ErrQuarantined
	case Correctable:
		// proceed with correctionWeight
	case Current:
		correctionWeight = 1
	}

	// Stage 4: delta merge.
	oldValue := append([]byte(nil), atom.Value...)
	applyDeltaLaw(atom, event, correctionWeight, now)

	// Stage 5: divergence control.
	entropy := atom.Entropy.Entropy(oldValue, atom.Value)
	if entropy > atom.EntropyThreshold {
		simplify(atom, oldValue)
	}

	// Stage 6: swarm diffusion.
	f.swarm.Touch(event.Source, event.TargetState)
	reemit := f.swarm.Fanout(peers, event.Source, event.TargetState)

	atom.VersionVector = atom.VersionVector.Increment(event.Source)

	return ApplyResult{Applied: true, Reemit: reemit}, nil
}

// checkAuthority verifies the event's signature and that its source is
// either a direct authority-set member or reachable via a valid
// delegation chain rooted in one (§4.4 stage 1, §4.2).
func (f *Field) checkAuthority(atom *Atom, event Event, now time.Duration) error {
	pub, ok := f.publicKeys(event.Source)
	if !ok {
		return elara.ErrUnauthorized
	}
	msg := event.CanonicalEncoding(f.domainTag)
	if !f.verify(pub, msg, event.AuthorityProof.Signature) {
		return elara.ErrUnauthorized
	}

	if atom.Authorized(event.Source) {
		return nil
	}
	return f.checkDelegation(atom, event, now)
}

// checkDelegation walks event.AuthorityProof.Delegation, verifying each
// link and confirming the chain roots in an authority-set member and
// ends at event.Source, with no link expired relative to now (§4.2).
func (f *Field) checkDelegation(atom *Atom, event Event, now time.Duration) error {
	chain := event.AuthorityProof.Delegation
	if len(chain) == 0 {
		return elara.ErrUnauthorized
	}
	if !atom.Authorized(chain[0].Delegator) {
		return elara.ErrUnauthorized
	}
	for i, link := range chain {
		if link.Expiry != nil && *link.Expiry < now {
			return elara.ErrDelegationExpired
		}
		pub, ok := f.publicKeys(link.Delegator)
		if !ok {
			return elara.ErrUnauthorized
		}
		if !f.verify(pub, delegationEncoding(link), link.Signature) {
			return elara.ErrUnauthorized
		}
		if i > 0 && chain[i-1].Delegate != link.Delegator {
			return elara.ErrUnauthorized
		}
	}
	if chain[len(chain)-1].Delegate != event.Source {
		return elara.ErrUnauthorized
	}
	return nil
}

func delegationEncoding(link DelegationLink) []byte {
	buf := appendUint64(nil, uint64(link.Delegator))
	buf = appendUint64(buf, uint64(link.Delegate))
	buf = append(buf, []byte(link.Scope)...)
	return buf
}
