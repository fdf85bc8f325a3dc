// Copyright (C) 2025, Elara Project Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package wire

import (
	"encoding/binary"
	"time"
)

// HeaderLen is the fixed size of the header region, before any extensions.
const HeaderLen = 28

// MaxFrameLen is the frame-size policy's ceiling, chosen to stay below
// common path MTU.
const MaxFrameLen = 1200

// AEADTagLen is subtracted from the payload budget so a caller sizing a
// plaintext payload leaves room for the AEAD tag appended at seal time.
const AEADTagLen = 16

// Flag bits for the header's flags byte.
const (
	FlagExtensionsPresent byte = 1 << 2
	FlagPriority          byte = 1 << 3
	FlagRepair            byte = 1 << 4
	FlagFragment          byte = 1 << 5
	FlagRelay             byte = 1 << 6
	FlagMultipath         byte = 1 << 7
)

// knownFlagMask covers every bit this build assigns meaning to; bits 0-1
// are reserved and must be zero on parse.
const knownFlagMask = FlagExtensionsPresent | FlagPriority | FlagRepair | FlagFragment | FlagRelay | FlagMultipath

// Crypto suite identifiers, packed into the low nibble of version_crypto.
const (
	SuiteChaCha20Poly1305X25519 byte = 0
)

// VersionCrypto packs a wire version (0-15) and crypto suite id (0-15)
// into the header's first byte.
func VersionCrypto(version, suite byte) byte {
	return (version&0x0f)<<4 | (suite & 0x0f)
}

// WireVersion extracts the high-nibble wire version from a packed byte.
func WireVersion(versionCrypto byte) byte { return versionCrypto >> 4 }

// CryptoSuite extracts the low-nibble crypto suite id from a packed byte.
func CryptoSuite(versionCrypto byte) byte { return versionCrypto & 0x0f }

// Header is the fixed 28-byte frame header (§4.1).
type Header struct {
	VersionCrypto byte
	Flags         byte
	HeaderLen     uint16
	SessionID     uint64
	NodeID        uint64
	Class         byte
	Profile       byte
	Seq           uint16
	TimeHint      time.Duration // milliseconds resolution, signed
}

// put writes the header's 28 bytes to dst, which must be at least
// HeaderLen long. HeaderLen is written from the hdr.HeaderLen field as
// set by the caller (normally by Encode, which accounts for extensions).
func (hdr Header) put(dst []byte) {
	dst[0] = hdr.VersionCrypto
	dst[1] = hdr.Flags
	binary.LittleEndian.PutUint16(dst[2:4], hdr.HeaderLen)
	binary.LittleEndian.PutUint64(dst[4:12], hdr.SessionID)
	binary.LittleEndian.PutUint64(dst[12:20], hdr.NodeID)
	dst[20] = hdr.Class
	dst[21] = hdr.Profile
	binary.LittleEndian.PutUint16(dst[22:24], hdr.Seq)
	binary.LittleEndian.PutUint32(dst[24:28], uint32(int32(hdr.TimeHint.Milliseconds())))
}

// parseHeader reads the fixed 28-byte header from the front of buf. It
// does not validate header_len against len(buf); Parse does that once it
// also knows the extensions region's true extent.
func parseHeader(buf []byte) (Header, error) {
	if len(buf) < HeaderLen {
		return Header{}, ErrShortBuffer
	}
	var hdr Header
	hdr.VersionCrypto = buf[0]
	hdr.Flags = buf[1]
	hdr.HeaderLen = binary.LittleEndian.Uint16(buf[2:4])
	hdr.SessionID = binary.LittleEndian.Uint64(buf[4:12])
	hdr.NodeID = binary.LittleEndian.Uint64(buf[12:20])
	hdr.Class = buf[20]
	hdr.Profile = buf[21]
	hdr.Seq = binary.LittleEndian.Uint16(buf[22:24])
	hdr.TimeHint = time.Duration(int32(binary.LittleEndian.Uint32(buf[24:28]))) * time.Millisecond
	return hdr, nil
}
