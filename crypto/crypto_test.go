// Copyright (C) 2025, Elara Project Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package crypto

import (
	"bytes"
	"testing"
	"time"

	"github.com/elara-project/elara"
)

func TestIdentityNodeIDStable(t *testing.T) {
	id, err := GenerateIdentity()
	if err != nil {
		t.Fatalf("GenerateIdentity: %v", err)
	}
	if id.NodeID() != id.NodeID() {
		t.Fatal("NodeID should be deterministic across calls")
	}
}

func TestIdentityExportImportRoundTrip(t *testing.T) {
	id, err := GenerateIdentity()
	if err != nil {
		t.Fatalf("GenerateIdentity: %v", err)
	}
	snap := id.Export()
	restored, err := Import(snap)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if restored.NodeID() != id.NodeID() {
		t.Fatalf("NodeID mismatch after round trip: got %s, want %s", restored.NodeID(), id.NodeID())
	}
}

func TestImportRejectsTamperedSignature(t *testing.T) {
	id, err := GenerateIdentity()
	if err != nil {
		t.Fatalf("GenerateIdentity: %v", err)
	}
	snap := id.Export()
	snap.SelfSignature[0] ^= 0xff
	if _, err := Import(snap); err != elara.ErrIdentitySignature {
		t.Fatalf("got %v, want ErrIdentitySignature", err)
	}
}

func TestSessionRootCanonicalOrdering(t *testing.T) {
	shared := bytes.Repeat([]byte{0x42}, 32)
	rootAB, err := DeriveSessionRoot(shared, 7, elara.NodeId(1), elara.NodeId(2))
	if err != nil {
		t.Fatalf("DeriveSessionRoot: %v", err)
	}
	rootBA, err := DeriveSessionRoot(shared, 7, elara.NodeId(2), elara.NodeId(1))
	if err != nil {
		t.Fatalf("DeriveSessionRoot: %v", err)
	}
	if !bytes.Equal(rootAB, rootBA) {
		t.Fatal("session root must not depend on argument order")
	}
}

func TestRatchetAdvanceRotatesEpoch(t *testing.T) {
	rs := NewRatchet(bytes.Repeat([]byte{0x01}, 32))
	threshold := uint32(3)
	for i := 0; i < 3; i++ {
		_, next, err := rs.Advance(threshold)
		if err != nil {
			t.Fatalf("Advance: %v", err)
		}
		rs = next
	}
	if rs.Epoch != 1 || rs.MessageIndex != 0 {
		t.Fatalf("expected epoch rotation after threshold messages, got epoch=%d index=%d", rs.Epoch, rs.MessageIndex)
	}
}

func TestRatchetAdvanceKeysDiffer(t *testing.T) {
	rs := NewRatchet(bytes.Repeat([]byte{0x02}, 32))
	k1, next, err := rs.Advance(1000)
	if err != nil {
		t.Fatalf("Advance: %v", err)
	}
	k2, _, err := next.Advance(1000)
	if err != nil {
		t.Fatalf("Advance: %v", err)
	}
	if k1 == k2 {
		t.Fatal("successive message keys must differ")
	}
}

func TestReplayWindowRejectsDuplicateAndOld(t *testing.T) {
	var w ReplayWindow
	if !w.Check(5) {
		t.Fatal("first use of seq 5 should be acceptable")
	}
	w.Commit(5)
	if w.Check(5) {
		t.Fatal("duplicate seq 5 should be rejected")
	}

	w.Check(200)
	w.Commit(200)
	if w.Check(5) {
		t.Fatal("seq far behind the slid window should be rejected as too old")
	}
}

func TestReplayWindowAcceptsOutOfOrderWithinWindow(t *testing.T) {
	var w ReplayWindow
	w.Check(10)
	w.Commit(10)
	if !w.Check(3) {
		t.Fatal("seq 3 should still be within the 64-wide window behind 10")
	}
	w.Commit(3)
	if w.Check(3) {
		t.Fatal("seq 3 should now be rejected as a duplicate")
	}
}

func TestPeerCryptoEncryptDecryptRoundTrip(t *testing.T) {
	root := bytes.Repeat([]byte{0x09}, 32)
	alice, err := NewPeerCrypto(root, elara.SessionId(1), elara.NodeId(100), nil)
	if err != nil {
		t.Fatalf("NewPeerCrypto: %v", err)
	}
	bob, err := NewPeerCrypto(root, elara.SessionId(1), elara.NodeId(100), nil)
	if err != nil {
		t.Fatalf("NewPeerCrypto: %v", err)
	}

	payload := []byte("hello from alice")
	frame, err := alice.EncryptFrame(elara.ClassCore, elara.ProfileTextual, 5*time.Millisecond, nil, payload)
	if err != nil {
		t.Fatalf("EncryptFrame: %v", err)
	}

	class, plaintext, err := bob.DecryptFrame(frame)
	if err != nil {
		t.Fatalf("DecryptFrame: %v", err)
	}
	if class != elara.ClassCore {
		t.Fatalf("got class %v, want core", class)
	}
	if !bytes.Equal(plaintext, payload) {
		t.Fatalf("got payload %q, want %q", plaintext, payload)
	}
}

func TestPeerCryptoRejectsReplayedFrame(t *testing.T) {
	root := bytes.Repeat([]byte{0x0a}, 32)
	alice, _ := NewPeerCrypto(root, elara.SessionId(1), elara.NodeId(1), nil)
	bob, _ := NewPeerCrypto(root, elara.SessionId(1), elara.NodeId(1), nil)

	frame, err := alice.EncryptFrame(elara.ClassCore, elara.ProfileTextual, 0, nil, []byte("once"))
	if err != nil {
		t.Fatalf("EncryptFrame: %v", err)
	}
	if _, _, err := bob.DecryptFrame(frame); err != nil {
		t.Fatalf("first decrypt: %v", err)
	}
	if _, _, err := bob.DecryptFrame(frame); err != elara.ErrReplayDetected {
		t.Fatalf("second decrypt: got %v, want ErrReplayDetected", err)
	}
}

func TestPeerCryptoRejectsTamperedCiphertext(t *testing.T) {
	root := bytes.Repeat([]byte{0x0b}, 32)
	alice, _ := NewPeerCrypto(root, elara.SessionId(1), elara.NodeId(1), nil)
	bob, _ := NewPeerCrypto(root, elara.SessionId(1), elara.NodeId(1), nil)

	frame, err := alice.EncryptFrame(elara.ClassCore, elara.ProfileTextual, 0, nil, []byte("tamper me"))
	if err != nil {
		t.Fatalf("EncryptFrame: %v", err)
	}
	frame[len(frame)-1] ^= 0xff
	if _, _, err := bob.DecryptFrame(frame); err != elara.ErrTagMismatch {
		t.Fatalf("got %v, want ErrTagMismatch", err)
	}
}

func TestPeerCryptoOutOfOrderDelivery(t *testing.T) {
	root := bytes.Repeat([]byte{0x0c}, 32)
	alice, _ := NewPeerCrypto(root, elara.SessionId(1), elara.NodeId(1), nil)
	bob, _ := NewPeerCrypto(root, elara.SessionId(1), elara.NodeId(1), nil)

	var frames [][]byte
	for i := 0; i < 3; i++ {
		f, err := alice.EncryptFrame(elara.ClassCore, elara.ProfileTextual, 0, nil, []byte{byte(i)})
		if err != nil {
			t.Fatalf("EncryptFrame %d: %v", i, err)
		}
		frames = append(frames, f)
	}

	// Deliver out of order: 1, 0, 2.
	order := []int{1, 0, 2}
	for _, idx := range order {
		class, plaintext, err := bob.DecryptFrame(frames[idx])
		if err != nil {
			t.Fatalf("decrypt frame %d: %v", idx, err)
		}
		if class != elara.ClassCore || plaintext[0] != byte(idx) {
			t.Fatalf("frame %d: got payload %v", idx, plaintext)
		}
	}
}
