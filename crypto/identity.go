// Copyright (C) 2025, Elara Project Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package crypto

import (
	"crypto/ecdh"
	"crypto/ed25519"
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"fmt"

	"github.com/elara-project/elara"
)

// nodeIDDomain is the domain separator mixed into the NodeId hash (§4.2).
const nodeIDDomain = "elara-node-id-v0"

// Identity holds a node's full keypairs: Ed25519 for signing authority
// proofs and delegation links, X25519 for session key agreement.
type Identity struct {
	SigningPublic ed25519.PublicKey
	SigningSecret ed25519.PrivateKey
	KAPublic      *ecdh.PublicKey
	KASecret      *ecdh.PrivateKey
}

// GenerateIdentity creates a fresh signing and key-agreement keypair
// pair.
func GenerateIdentity() (*Identity, error) {
	signPub, signSec, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("crypto: generate signing key: %w", err)
	}
	kaSec, err := ecdh.X25519().GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("crypto: generate key-agreement key: %w", err)
	}
	return &Identity{
		SigningPublic: signPub,
		SigningSecret: signSec,
		KAPublic:      kaSec.PublicKey(),
		KASecret:      kaSec,
	}, nil
}

// NodeID derives the node's stable NodeId: the lower 8 bytes of
// SHA-256(domain || signing_public || ka_public).
func (id *Identity) NodeID() elara.NodeId {
	h := sha256.New()
	h.Write([]byte(nodeIDDomain))
	h.Write(id.SigningPublic)
	h.Write(id.KAPublic.Bytes())
	sum := h.Sum(nil)
	return elara.NodeId(binary.BigEndian.Uint64(sum[len(sum)-8:]))
}

// Sign signs msg with the identity's signing secret.
func (id *Identity) Sign(msg []byte) []byte {
	return ed25519.Sign(id.SigningSecret, msg)
}

// Verify checks sig over msg against a remote node's signing public key.
func Verify(signingPublic ed25519.PublicKey, msg, sig []byte) bool {
	return ed25519.Verify(signingPublic, msg, sig)
}

// Snapshot is the persisted, wire-stable form of an Identity, self-signed
// so an import can detect corruption or tampering (donor pattern: a
// content-addressed record verified on load rather than trusted blindly).
type Snapshot struct {
	SigningPublic []byte
	SigningSecret []byte
	KAPublic      []byte
	KASecret      []byte
	SelfSignature []byte
}

// snapshotSignedFields returns the byte sequence a self-signature is
// computed and verified over: the two public keys, not the secrets.
func snapshotSignedFields(signingPublic, kaPublic []byte) []byte {
	buf := make([]byte, 0, len(signingPublic)+len(kaPublic))
	buf = append(buf, signingPublic...)
	buf = append(buf, kaPublic...)
	return buf
}

// Export produces a self-signed Snapshot suitable for persistence.
func (id *Identity) Export() Snapshot {
	kaPub := id.KAPublic.Bytes()
	sig := id.Sign(snapshotSignedFields(id.SigningPublic, kaPub))
	return Snapshot{
		SigningPublic: append([]byte(nil), id.SigningPublic...),
		SigningSecret: append([]byte(nil), id.SigningSecret...),
		KAPublic:      append([]byte(nil), kaPub...),
		KASecret:      append([]byte(nil), id.KASecret.Bytes()...),
		SelfSignature: sig,
	}
}

// Import reconstructs an Identity from a Snapshot, rejecting one whose
// self-signature does not verify.
func Import(snap Snapshot) (*Identity, error) {
	if !ed25519.Verify(ed25519.PublicKey(snap.SigningPublic), snapshotSignedFields(snap.SigningPublic, snap.KAPublic), snap.SelfSignature) {
		return nil, elara.ErrIdentitySignature
	}
	kaPub, err := ecdh.X25519().NewPublicKey(snap.KAPublic)
	if err != nil {
		return nil, fmt.Errorf("crypto: import ka public key: %w", err)
	}
	kaSec, err := ecdh.X25519().NewPrivateKey(snap.KASecret)
	if err != nil {
		return nil, fmt.Errorf("crypto: import ka secret key: %w", err)
	}
	return &Identity{
		SigningPublic: append(ed25519.PublicKey(nil), snap.SigningPublic...),
		SigningSecret: append(ed25519.PrivateKey(nil), snap.SigningSecret...),
		KAPublic:      kaPub,
		KASecret:      kaSec,
	}, nil
}

// SharedSecret performs the X25519 key agreement against a peer's public
// key, returning the raw 32-byte shared secret that feeds DeriveSessionRoot.
func (id *Identity) SharedSecret(peerKAPublic *ecdh.PublicKey) ([]byte, error) {
	secret, err := id.KASecret.ECDH(peerKAPublic)
	if err != nil {
		return nil, fmt.Errorf("crypto: key agreement: %w", err)
	}
	return secret, nil
}
