// Copyright (C) 2025, Elara Project Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

// Package crypto implements the engine's identity, key-derivation, and
// per-class ratchet machinery (§4.2): Ed25519 signing identities, X25519
// key agreement, HKDF-SHA256 derivation of a session root and five
// independent class keys, a forward-ratcheting chain per class, a
// 64-entry replay window per (peer, class), and ChaCha20-Poly1305
// sealing over wire-framed AAD.
//
//	id, err := crypto.GenerateIdentity()
//	root, err := crypto.DeriveSessionRoot(shared, sessionID, localID, peerID)
//	peer, err := crypto.NewPeerCrypto(root, sessionID, localID, config.Default().EpochThresholds)
//	frame, err := peer.EncryptFrame(elara.ClassCore, elara.ProfileTextual, timeHint, nil, payload)
//	class, payload, err := peer.DecryptFrame(frame)
//
// None of these types retain a reference to a transport; runtime wires
// PeerCrypto to actual sockets.
package crypto
