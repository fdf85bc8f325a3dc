// Copyright (C) 2025, Elara Project Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package crypto

import "fmt"

// EpochThresholds gives the default per-class message-index ceiling past
// which a ratchet rotates to a new epoch (§4.2). Keyed by PacketClass
// value (0=core .. 4=repair).
var EpochThresholds = map[uint8]uint32{
	0: 1000, // core
	1: 100,  // perceptual
	2: 500,  // enhancement
	3: 1000, // cosmetic
	4: 500,  // repair
}

// RatchetState is one class's forward-ratcheting chain.
type RatchetState struct {
	ChainKey     [32]byte
	Epoch        uint32
	MessageIndex uint32
}

// NewRatchet seeds a RatchetState from a class key: epoch and message
// index both start at zero.
func NewRatchet(classKey []byte) RatchetState {
	var rs RatchetState
	copy(rs.ChainKey[:], classKey)
	return rs
}

// Advance derives the next message key and returns the state's successor,
// rotating to a new epoch once message_index would reach threshold
// (§4.2). The receiver is left untouched; callers hold the returned state.
func (rs RatchetState) Advance(threshold uint32) (messageKey [32]byte, next RatchetState, err error) {
	if err := hkdfExpand(rs.ChainKey[:], nil, fmt.Sprintf("msg-%d", rs.MessageIndex), messageKey[:]); err != nil {
		return [32]byte{}, RatchetState{}, err
	}

	var chainAdvance [32]byte
	if err := hkdfExpand(rs.ChainKey[:], nil, "chain-advance", chainAdvance[:]); err != nil {
		return [32]byte{}, RatchetState{}, err
	}

	next = RatchetState{ChainKey: chainAdvance, Epoch: rs.Epoch, MessageIndex: rs.MessageIndex + 1}
	if next.MessageIndex >= threshold {
		var rotated [32]byte
		if err := hkdfExpand(next.ChainKey[:], nil, fmt.Sprintf("epoch-%d", rs.Epoch+1), rotated[:]); err != nil {
			return [32]byte{}, RatchetState{}, err
		}
		next.ChainKey = rotated
		next.Epoch = rs.Epoch + 1
		next.MessageIndex = 0
	}
	return messageKey, next, nil
}

// ThresholdFor returns the configured epoch threshold for a class,
// falling back to the Core default if the class is unrecognized.
func ThresholdFor(thresholds map[uint8]uint32, class uint8) uint32 {
	if t, ok := thresholds[class]; ok {
		return t
	}
	return EpochThresholds[0]
}
