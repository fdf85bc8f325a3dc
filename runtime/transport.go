// Copyright (C) 2025, Elara Project Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package runtime

import "context"

// Transport is the opaque datagram transport a Session is built on (§6):
// a non-blocking Send and a potentially suspending Recv, both preserving
// message boundaries. UDP is the canonical implementation; anything
// meeting this contract is admissible.
type Transport interface {
	// Send hands frame to peerAddr without blocking. A transport that
	// cannot accept the send immediately returns an error rather than
	// queuing internally. The session does not retry or queue a refused
	// send for any class: it logs the error and the frame is dropped.
	Send(peerAddr string, frame []byte) error

	// Recv suspends until a datagram arrives, ctx is canceled, or the
	// transport is closed.
	Recv(ctx context.Context) (peerAddr string, frame []byte, err error)
}
