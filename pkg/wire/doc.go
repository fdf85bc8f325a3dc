// Copyright (C) 2025, Elara Project Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

// Package wire implements the engine's fixed-header-plus-TLV datagram
// framing: a 28-byte little-endian header, an optional run of TLV
// extensions, and a raw ciphertext payload. The format is designed to sit
// comfortably under common path MTU and to parse without allocation.
//
//	header := wire.Header{
//		VersionCrypto: wire.VersionCrypto(0, wire.SuiteChaCha20Poly1305X25519),
//		SessionID:     sid,
//		NodeID:        nid,
//		Class:         uint8(elara.ClassCore),
//		Profile:       uint8(elara.ProfileTextual),
//		Seq:           42,
//		TimeHint:      time.Millisecond * 7,
//	}
//	buf, err := wire.Encode(header, nil, ciphertext)
//	hdr, exts, body, err := wire.Parse(buf)
//
// Encode and Parse never interpret the payload bytes; the crypto package
// is responsible for AEAD sealing/opening of the region Parse reports via
// body offset. Parse is zero-copy: returned extension values and the body
// slice alias the input buffer.
package wire
