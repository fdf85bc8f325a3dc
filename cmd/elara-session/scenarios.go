// Copyright (C) 2025, Elara Project Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"context"
	"fmt"
	"time"

	"github.com/elara-project/elara"
	"github.com/elara-project/elara/config"
	"github.com/elara-project/elara/crypto"
	"github.com/elara-project/elara/runtime"
	"github.com/elara-project/elara/state"
)

// loopbackTransport delivers a Send as a synchronous OnDatagram call on
// the addressed session. blocked addresses still record the frame (so a
// scenario can replay it later) but are not delivered, modeling a network
// partition.
type loopbackTransport struct {
	peers   map[string]*runtime.Session
	last    map[string][]byte
	blocked map[string]bool
}

func newLoopback() *loopbackTransport {
	return &loopbackTransport{
		peers:   make(map[string]*runtime.Session),
		last:    make(map[string][]byte),
		blocked: make(map[string]bool),
	}
}

func (t *loopbackTransport) Send(addr string, frame []byte) error {
	dst, ok := t.peers[addr]
	if !ok {
		return fmt.Errorf("loopback: no such peer %q", addr)
	}
	t.last[addr] = append([]byte(nil), frame...)
	if t.blocked[addr] {
		return nil
	}
	dst.OnDatagram("demo", frame)
	return nil
}

func (t *loopbackTransport) Recv(ctx context.Context) (string, []byte, error) {
	<-ctx.Done()
	return "", nil, ctx.Err()
}

// deadTransport drops every frame, modeling a dead link for the
// identity-survival scenario.
type deadTransport struct{}

func (deadTransport) Send(addr string, frame []byte) error { return nil }
func (deadTransport) Recv(ctx context.Context) (string, []byte, error) {
	<-ctx.Done()
	return "", nil, ctx.Err()
}

func newPair(transport runtime.Transport) (a, b *runtime.Session, err error) {
	idA, err := crypto.GenerateIdentity()
	if err != nil {
		return nil, nil, fmt.Errorf("generate identity A: %w", err)
	}
	idB, err := crypto.GenerateIdentity()
	if err != nil {
		return nil, nil, fmt.Errorf("generate identity B: %w", err)
	}

	sessionRoot := make([]byte, 32)
	for i := range sessionRoot {
		sessionRoot[i] = 0x42
	}

	tunables := config.Default()
	now := time.Now()
	nowFn := func() time.Time { return now }

	a = runtime.NewSession(42, idA, tunables, transport, nowFn)
	b = runtime.NewSession(42, idB, tunables, transport, nowFn)

	if err := a.AddPeer(idB.NodeID(), "B", sessionRoot, idB.SigningPublic); err != nil {
		return nil, nil, err
	}
	if err := b.AddPeer(idA.NodeID(), "A", sessionRoot, idA.SigningPublic); err != nil {
		return nil, nil, err
	}
	return a, b, nil
}

func appendEvent(atomID elara.StateId, text string, create bool) state.Event {
	e := state.Event{
		EventType:   state.EventStateMutate,
		TargetState: atomID,
		Mutation:    state.Mutation{Kind: state.MutationAppend, Bytes: []byte(text)},
		TimeIntent:  state.TimeIntent{Timestamp: 0},
		Class:       elara.ClassCore,
		Profile:     elara.ProfileTextual,
	}
	if create {
		e.EventType = state.EventStateCreate
		e.CreateLaw = state.DeltaLaw{Kind: state.LawAppendOnly}
	}
	return e
}

func runS1() error {
	lb := newLoopback()
	a, b, err := newPair(lb)
	if err != nil {
		return err
	}
	lb.peers["A"], lb.peers["B"] = a, b

	atomID := elara.StateId{StateType: 1, Instance: 1}
	if _, err := a.EmitEvent(appendEvent(atomID, "hello", true)); err != nil {
		return fmt.Errorf("A.EmitEvent: %w", err)
	}
	b.Tick(0)

	atom, ok := b.Atom(atomID)
	if !ok {
		return fmt.Errorf("B never materialized the atom")
	}
	fmt.Printf("B atom value = %q, version_vector[A] = %d\n", atom.Value, atom.VersionVector.Get(a.LocalNode()))
	return nil
}

func runS2() error {
	lb := newLoopback()
	a, b, err := newPair(lb)
	if err != nil {
		return err
	}
	lb.peers["A"], lb.peers["B"] = a, b

	atomID := elara.StateId{StateType: 1, Instance: 1}
	if _, err := a.EmitEvent(appendEvent(atomID, "hello", true)); err != nil {
		return fmt.Errorf("A.EmitEvent: %w", err)
	}

	frame := lb.last["B"]
	b.OnDatagram("demo", frame)

	atom, _ := b.Atom(atomID)
	fmt.Printf("after replay: value = %q, version_vector[A] = %d, replays_detected = %d\n",
		atom.Value, atom.VersionVector.Get(a.LocalNode()), b.Metrics().ReplaysDetected.Read())
	return nil
}

func runS3() error {
	lb := newLoopback()
	a, b, err := newPair(lb)
	if err != nil {
		return err
	}
	lb.peers["A"], lb.peers["B"] = a, b

	atomID := elara.StateId{StateType: 2, Instance: 1}
	future := appendEvent(atomID, "from the future", true)
	future.Class = elara.ClassPerceptual
	future.TimeIntent = state.TimeIntent{Timestamp: 5 * time.Second}
	if err := a.SendDirect(b.LocalNode(), future); err != nil {
		return fmt.Errorf("A.SendDirect: %w", err)
	}

	atom, _ := b.Atom(atomID)
	fmt.Printf("immediately after delivery: atom value = %q, quarantined = %d\n", atom.Value, b.Metrics().EventsQuarantined.Read())

	for elapsed := time.Duration(0); elapsed <= 31*time.Second; elapsed += time.Second {
		b.Tick(elapsed)
	}
	atom, _ = b.Atom(atomID)
	fmt.Printf("after 31s with no state-clock catch-up: atom value = %q (expect still empty, event evicted unapplied)\n", atom.Value)
	return nil
}

func runS4() error {
	lb := newLoopback()
	a, b, err := newPair(lb)
	if err != nil {
		return err
	}
	lb.peers["A"], lb.peers["B"] = a, b
	lb.blocked["A"], lb.blocked["B"] = true, true

	atomID := elara.StateId{StateType: 1, Instance: 2}
	if _, err := a.EmitEvent(appendEvent(atomID, "foo", true)); err != nil {
		return fmt.Errorf("A.EmitEvent: %w", err)
	}
	if _, err := b.EmitEvent(appendEvent(atomID, "bar", true)); err != nil {
		return fmt.Errorf("B.EmitEvent: %w", err)
	}

	// Heal the partition and deliver each side's held frame to the other.
	lb.blocked["A"], lb.blocked["B"] = false, false
	if frame := lb.last["B"]; frame != nil {
		b.OnDatagram("demo", frame)
	}
	if frame := lb.last["A"]; frame != nil {
		a.OnDatagram("demo", frame)
	}

	atomA, _ := a.Atom(atomID)
	atomB, _ := b.Atom(atomID)
	fmt.Printf("A's merged value: %q\n", atomA.Value)
	fmt.Printf("B's merged value: %q\n", atomB.Value)
	return nil
}

func runS5() error {
	lb := newLoopback()
	a, b, err := newPair(lb)
	if err != nil {
		return err
	}
	lb.peers["A"], lb.peers["B"] = a, b

	tunables := config.Default()
	now := time.Duration(0)

	// 5s of sustained 30% loss and 200ms jitter, sampled once per
	// drift-estimation interval.
	ticksFor5s := int(5 * time.Second / tunables.DriftEstimationInterval)
	for i := 0; i < ticksFor5s; i++ {
		now += tunables.DriftEstimationInterval
		a.ObserveNetworkSample(b.LocalNode(), now, time.Duration(i%2)*200*time.Millisecond)
		a.ObserveNetworkLoss(b.LocalNode(), i%10 < 3)
		a.Tick(now)
	}
	fmt.Printf("degradation level after 5s of sustained loss/jitter: %v (the ladder should not have bottomed out at L5)\n", a.DegradationLevel())

	// Let the network model's EMAs settle back toward clean readings,
	// then confirm at least RecoveryTicks consecutive stable samples
	// walk the level back down.
	cleanTicks := 10 * tunables.RecoveryTicks
	for i := 0; i < cleanTicks; i++ {
		now += tunables.DriftEstimationInterval
		a.ObserveNetworkSample(b.LocalNode(), now, 0)
		a.ObserveNetworkLoss(b.LocalNode(), false)
		a.Tick(now)
	}
	fmt.Printf("degradation level after %d clean adaptation ticks: %v (expect a return toward L0)\n", cleanTicks, a.DegradationLevel())
	return nil
}

func runS6() error {
	a, _, err := newPair(deadTransport{})
	if err != nil {
		return err
	}

	tunables := config.Default()
	now := time.Duration(0)
	for elapsed := time.Duration(0); elapsed < 60*time.Second; elapsed += tunables.DriftEstimationInterval {
		now = elapsed
		a.Tick(now)
	}
	fmt.Printf("session alive after 60s of total transport loss, degradation = %v (expect L5, identity heartbeats authored locally)\n", a.DegradationLevel())
	return nil
}
