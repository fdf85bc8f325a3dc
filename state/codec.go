// Copyright (C) 2025, Elara Project Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package state

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
)

// CodecVersion identifies the wire encoding of an Event, mirroring the
// donor consensus engine's versioned JSON codec convention.
type CodecVersion uint16

// CurrentCodecVersion is the only version this build understands.
const CurrentCodecVersion CodecVersion = 0

// EncodeEvent serializes an event for transport as an encrypted frame's
// plaintext payload: a 2-byte big-endian version prefix followed by a
// JSON encoding of the event.
func EncodeEvent(e Event) ([]byte, error) {
	body, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("state: encode event: %w", err)
	}
	out := make([]byte, 2, 2+len(body))
	binary.BigEndian.PutUint16(out, uint16(CurrentCodecVersion))
	return append(out, body...), nil
}

// DecodeEvent is the inverse of EncodeEvent.
func DecodeEvent(b []byte) (Event, error) {
	if len(b) < 2 {
		return Event{}, fmt.Errorf("state: decode event: short buffer")
	}
	version := CodecVersion(binary.BigEndian.Uint16(b))
	if version != CurrentCodecVersion {
		return Event{}, fmt.Errorf("state: decode event: unsupported codec version %d", version)
	}
	var e Event
	if err := json.Unmarshal(b[2:], &e); err != nil {
		return Event{}, fmt.Errorf("state: decode event: %w", err)
	}
	return e, nil
}
