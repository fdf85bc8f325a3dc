// Copyright (C) 2025, Elara Project Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package crypto

import (
	"sync"
	"time"

	"github.com/elara-project/elara"
	"github.com/elara-project/elara/pkg/wire"
)

// maxSkipAhead bounds how far DecryptFrame will fast-forward the receive
// ratchet to catch up with an out-of-order or gapped sequence number,
// matching the replay window's own span so a key is never derived for a
// seq the window would reject anyway.
const maxSkipAhead = replayWindowSize

// classState is one class's full mutable crypto state against one peer.
//
// The receive side mirrors the sender's deterministic chain advance: recv
// holds the ratchet state whose next Advance call produces the message
// key for recvFrontier. Frames can arrive out of order within the replay
// window, so advancing to reach a higher seq caches every intermediate
// message key (keyed by seq) in skipped; a later, lower-seq arrival is
// served from that cache rather than re-deriving (which the one-way
// chain can't do anyway).
type classState struct {
	send    RatchetState
	sendSeq uint16

	recv         RatchetState
	recvFrontier uint16
	skipped      map[uint16][32]byte

	window ReplayWindow
}

// PeerCrypto holds the full per-class ratchet and replay state for one
// session against one peer, and performs the encrypt/decrypt contract of
// §4.2 in terms of wire frames.
type PeerCrypto struct {
	mu         sync.Mutex
	localNode  elara.NodeId
	sessionID  elara.SessionId
	thresholds map[uint8]uint32
	classes    map[elara.PacketClass]*classState
}

// NewPeerCrypto derives all five class ratchets from sessionRoot and
// returns a PeerCrypto ready to encrypt and decrypt frames for
// localNode's side of the session.
func NewPeerCrypto(sessionRoot []byte, sessionID elara.SessionId, localNode elara.NodeId, thresholds map[uint8]uint32) (*PeerCrypto, error) {
	if thresholds == nil {
		thresholds = EpochThresholds
	}
	pc := &PeerCrypto{
		localNode:  localNode,
		sessionID:  sessionID,
		thresholds: thresholds,
		classes:    make(map[elara.PacketClass]*classState, 5),
	}
	for class := range classDomains {
		key, err := DeriveClassKey(sessionRoot, class)
		if err != nil {
			return nil, err
		}
		ratchet := NewRatchet(key)
		pc.classes[class] = &classState{send: ratchet, recv: ratchet, skipped: make(map[uint16][32]byte)}
	}
	return pc, nil
}

func (pc *PeerCrypto) state(class elara.PacketClass) (*classState, error) {
	cs, ok := pc.classes[class]
	if !ok {
		return nil, elara.ErrFrameMalformed
	}
	return cs, nil
}

// EncryptFrame implements §4.2's Encrypt contract: it allocates the next
// sequence number for (localNode, class), advances the send ratchet, and
// returns a complete wire frame (header+extensions+ciphertext+tag).
func (pc *PeerCrypto) EncryptFrame(class elara.PacketClass, profile elara.RepresentationProfile, timeHint time.Duration, extensions []wire.Extension, payload []byte) ([]byte, error) {
	pc.mu.Lock()
	defer pc.mu.Unlock()

	cs, err := pc.state(class)
	if err != nil {
		return nil, err
	}

	seq := cs.sendSeq
	messageKey, next, err := cs.send.Advance(ThresholdFor(pc.thresholds, uint8(class)))
	if err != nil {
		return nil, err
	}

	hdr := wire.Header{
		VersionCrypto: wire.VersionCrypto(0, wire.SuiteChaCha20Poly1305X25519),
		SessionID:     uint64(pc.sessionID),
		NodeID:        uint64(pc.localNode),
		Class:         uint8(class),
		Profile:       uint8(profile),
		Seq:           seq,
		TimeHint:      timeHint,
	}
	aad, err := wire.Encode(hdr, extensions, nil)
	if err != nil {
		return nil, err
	}

	sealed, err := Seal(messageKey, BuildNonce(pc.localNode, seq, class), aad, payload)
	if err != nil {
		return nil, err
	}

	cs.sendSeq = seq + 1
	cs.send = next
	return append(aad, sealed...), nil
}

// DecryptFrame implements §4.2's Decrypt contract against a frame sent by
// the single peer this PeerCrypto was constructed for. The replay bit is
// marked, and the receive ratchet kept advanced, only on full success;
// the replay check itself may slide the window forward.
func (pc *PeerCrypto) DecryptFrame(frame []byte) (elara.PacketClass, []byte, error) {
	hdr, _, bodyOffset, err := wire.Parse(frame)
	if err != nil {
		return 0, nil, err
	}
	class := elara.PacketClass(hdr.Class)

	pc.mu.Lock()
	defer pc.mu.Unlock()

	cs, err := pc.state(class)
	if err != nil {
		return 0, nil, err
	}

	if !cs.window.Check(hdr.Seq) {
		return 0, nil, elara.ErrReplayDetected
	}

	prevRecv, prevFrontier := cs.recv, cs.recvFrontier
	messageKey, err := pc.resolveMessageKey(cs, hdr.Seq, uint8(class))
	if err != nil {
		return 0, nil, err
	}

	aad := frame[:bodyOffset]
	ciphertext := frame[bodyOffset:]
	plaintext, err := Open(messageKey, BuildNonce(elara.NodeId(hdr.NodeID), hdr.Seq, class), aad, ciphertext)
	if err != nil {
		// Rewind the receive chain and drop the keys this call cached, so
		// an authentic frame for this seq can still be opened later.
		for f := prevFrontier; f != cs.recvFrontier; f++ {
			delete(cs.skipped, f)
		}
		cs.recv, cs.recvFrontier = prevRecv, prevFrontier
		return 0, nil, err
	}

	cs.window.Commit(hdr.Seq)
	delete(cs.skipped, hdr.Seq)
	return class, plaintext, nil
}

// resolveMessageKey returns the message key for seq, fast-forwarding the
// receive ratchet and caching skipped keys as needed. It does not commit
// the replay window; callers do that only after a successful decrypt.
func (pc *PeerCrypto) resolveMessageKey(cs *classState, seq uint16, class uint8) ([32]byte, error) {
	if key, ok := cs.skipped[seq]; ok {
		return key, nil
	}

	gap := int(seq) - int(cs.recvFrontier)
	if gap < 0 {
		gap += 1 << 16
	}
	if gap >= maxSkipAhead {
		return [32]byte{}, elara.ErrEpochMismatch
	}

	threshold := ThresholdFor(pc.thresholds, class)
	var target [32]byte
	state := cs.recv
	frontier := cs.recvFrontier
	for i := 0; i <= gap; i++ {
		key, next, err := state.Advance(threshold)
		if err != nil {
			return [32]byte{}, err
		}
		if i == gap {
			target = key
		} else {
			cs.skipped[frontier] = key
		}
		state = next
		frontier++
	}
	cs.recv = state
	cs.recvFrontier = frontier
	return target, nil
}
