// Copyright (C) 2025, Elara Project Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package wire

// Extension type identifiers. Any value not listed here is unknown and
// MUST be skipped by Parse rather than rejected (§4.1).
const (
	ExtFragmentInfo  byte = 0x01
	ExtRelayPath     byte = 0x02
	ExtPriorityHint  byte = 0x03
	ExtTimestampFull byte = 0x04
	ExtAckVector     byte = 0x05
	ExtEpochSync     byte = 0x06
	ExtEnd           byte = 0xFF
)

// Extension is one parsed TLV record. Value aliases the input buffer
// passed to Parse; callers that retain it past the buffer's lifetime must
// copy it themselves.
type Extension struct {
	Type  byte
	Value []byte
}

// FragmentInfo decodes an ExtFragmentInfo value.
type FragmentInfo struct {
	FragID  uint16
	FragSeq uint8
	Total   uint8
	Flags   uint8
}

// DecodeFragmentInfo parses ext.Value as a FragmentInfo record.
func DecodeFragmentInfo(ext Extension) (FragmentInfo, error) {
	if ext.Type != ExtFragmentInfo || len(ext.Value) != 5 {
		return FragmentInfo{}, ErrExtensionMalformed
	}
	return FragmentInfo{
		FragID:  uint16(ext.Value[0]) | uint16(ext.Value[1])<<8,
		FragSeq: ext.Value[2],
		Total:   ext.Value[3],
		Flags:   ext.Value[4],
	}, nil
}

// EncodeFragmentInfo renders a FragmentInfo record as a TLV value.
func EncodeFragmentInfo(fi FragmentInfo) []byte {
	return []byte{byte(fi.FragID), byte(fi.FragID >> 8), fi.FragSeq, fi.Total, fi.Flags}
}

// DecodeRelayPath parses ext.Value as a sequence of u64 node ids.
func DecodeRelayPath(ext Extension) ([]uint64, error) {
	if ext.Type != ExtRelayPath || len(ext.Value)%8 != 0 {
		return nil, ErrExtensionMalformed
	}
	path := make([]uint64, 0, len(ext.Value)/8)
	for i := 0; i < len(ext.Value); i += 8 {
		var v uint64
		for j := 0; j < 8; j++ {
			v |= uint64(ext.Value[i+j]) << (8 * j)
		}
		path = append(path, v)
	}
	return path, nil
}

// EncodeRelayPath renders a node-id sequence as a TLV value.
func EncodeRelayPath(path []uint64) []byte {
	out := make([]byte, 0, len(path)*8)
	for _, v := range path {
		for j := 0; j < 8; j++ {
			out = append(out, byte(v>>(8*j)))
		}
	}
	return out
}

// DecodePriorityHint parses ext.Value as a single priority byte.
func DecodePriorityHint(ext Extension) (byte, error) {
	if ext.Type != ExtPriorityHint || len(ext.Value) != 1 {
		return 0, ErrExtensionMalformed
	}
	return ext.Value[0], nil
}

// DecodeTimestampFull parses ext.Value as a u64 absolute timestamp.
func DecodeTimestampFull(ext Extension) (uint64, error) {
	if ext.Type != ExtTimestampFull || len(ext.Value) != 8 {
		return 0, ErrExtensionMalformed
	}
	var v uint64
	for j := 0; j < 8; j++ {
		v |= uint64(ext.Value[j]) << (8 * j)
	}
	return v, nil
}

// DecodeAckVector parses ext.Value as a sequence of u16 sequence numbers.
func DecodeAckVector(ext Extension) ([]uint16, error) {
	if ext.Type != ExtAckVector || len(ext.Value)%2 != 0 {
		return nil, ErrExtensionMalformed
	}
	out := make([]uint16, 0, len(ext.Value)/2)
	for i := 0; i < len(ext.Value); i += 2 {
		out = append(out, uint16(ext.Value[i])|uint16(ext.Value[i+1])<<8)
	}
	return out, nil
}

// EncodeAckVector renders a sequence-number list as a TLV value.
func EncodeAckVector(seqs []uint16) []byte {
	out := make([]byte, 0, len(seqs)*2)
	for _, s := range seqs {
		out = append(out, byte(s), byte(s>>8))
	}
	return out
}

// EpochSync decodes an ExtEpochSync value: a class id and its current
// ratchet epoch, used to resynchronize a peer that fell behind.
type EpochSync struct {
	Class byte
	Epoch uint32
}

// DecodeEpochSync parses ext.Value as an EpochSync record.
func DecodeEpochSync(ext Extension) (EpochSync, error) {
	if ext.Type != ExtEpochSync || len(ext.Value) != 5 {
		return EpochSync{}, ErrExtensionMalformed
	}
	epoch := uint32(ext.Value[1]) | uint32(ext.Value[2])<<8 | uint32(ext.Value[3])<<16 | uint32(ext.Value[4])<<24
	return EpochSync{Class: ext.Value[0], Epoch: epoch}, nil
}

// EncodeEpochSync renders an EpochSync record as a TLV value.
func EncodeEpochSync(es EpochSync) []byte {
	return []byte{es.Class, byte(es.Epoch), byte(es.Epoch >> 8), byte(es.Epoch >> 16), byte(es.Epoch >> 24)}
}
