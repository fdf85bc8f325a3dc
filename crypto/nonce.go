// Copyright (C) 2025, Elara Project Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package crypto

import "github.com/elara-project/elara"

// BuildNonce constructs the 12-byte AEAD nonce from a sender's node id,
// the per-(node,class) sequence number, and the packet class (§4.2). The
// (node_id, seq, class) triple is unique within a ratchet epoch, which
// is the nonce-uniqueness invariant the ratchet's ever-advancing
// message_index and ChaCha20-Poly1305 both rely on.
func BuildNonce(nodeID elara.NodeId, seq uint16, class elara.PacketClass) [12]byte {
	var nonce [12]byte
	n := uint64(nodeID)
	for i := 0; i < 8; i++ {
		nonce[i] = byte(n >> (8 * i))
	}
	nonce[8] = byte(seq)
	nonce[9] = byte(seq >> 8)
	nonce[10] = byte(class)
	nonce[11] = 0
	return nonce
}
