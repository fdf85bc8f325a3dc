// Copyright (C) 2025, Elara Project Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package wire

import (
	"bytes"
	"testing"
	"time"
)

func sampleHeader() Header {
	return Header{
		VersionCrypto: VersionCrypto(0, SuiteChaCha20Poly1305X25519),
		SessionID:     0x0102030405060708,
		NodeID:        0x1112131415161718,
		Class:         0,
		Profile:       1,
		Seq:           42,
		TimeHint:      7 * time.Millisecond,
	}
}

func TestEncodeParseRoundTripNoExtensions(t *testing.T) {
	hdr := sampleHeader()
	payload := []byte("hello elara")

	buf, err := Encode(hdr, nil, payload)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if len(buf) != HeaderLen+len(payload) {
		t.Fatalf("encoded length = %d, want %d", len(buf), HeaderLen+len(payload))
	}

	got, exts, body, err := Parse(buf)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if exts != nil {
		t.Fatalf("expected no extensions, got %v", exts)
	}
	if got != hdr {
		// HeaderLen is filled in by Encode; compare field-by-field via a
		// copy with HeaderLen zeroed on both sides would be noisier than
		// just setting it before the comparison.
		hdr.HeaderLen = uint16(HeaderLen)
		if got != hdr {
			t.Fatalf("header round-trip mismatch: got %+v, want %+v", got, hdr)
		}
	}
	if !bytes.Equal(buf[body:], payload) {
		t.Fatalf("payload round-trip mismatch: got %q, want %q", buf[body:], payload)
	}
}

func TestEncodeParseRoundTripWithExtensions(t *testing.T) {
	hdr := sampleHeader()
	exts := []Extension{
		{Type: ExtPriorityHint, Value: []byte{3}},
		{Type: ExtEpochSync, Value: EncodeEpochSync(EpochSync{Class: 0, Epoch: 17})},
		{Type: ExtAckVector, Value: EncodeAckVector([]uint16{1, 2, 3})},
	}
	payload := []byte("payload-with-extensions")

	buf, err := Encode(hdr, exts, payload)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	gotHdr, gotExts, body, err := Parse(buf)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if gotHdr.Flags&FlagExtensionsPresent == 0 {
		t.Fatal("expected extensions-present flag set")
	}
	if len(gotExts) != len(exts) {
		t.Fatalf("got %d extensions, want %d", len(gotExts), len(exts))
	}
	for i, e := range exts {
		if gotExts[i].Type != e.Type || !bytes.Equal(gotExts[i].Value, e.Value) {
			t.Fatalf("extension %d mismatch: got %+v, want %+v", i, gotExts[i], e)
		}
	}
	if !bytes.Equal(buf[body:], payload) {
		t.Fatalf("payload round-trip mismatch: got %q, want %q", buf[body:], payload)
	}

	ackSeqs, err := DecodeAckVector(gotExts[2])
	if err != nil {
		t.Fatalf("DecodeAckVector: %v", err)
	}
	if len(ackSeqs) != 3 || ackSeqs[0] != 1 || ackSeqs[2] != 3 {
		t.Fatalf("unexpected ack vector: %v", ackSeqs)
	}
}

func TestParseRejectsShortBuffer(t *testing.T) {
	if _, _, _, err := Parse(make([]byte, HeaderLen-1)); err != ErrShortBuffer {
		t.Fatalf("got %v, want ErrShortBuffer", err)
	}
}

func TestParseRejectsUnknownVersion(t *testing.T) {
	hdr := sampleHeader()
	hdr.VersionCrypto = VersionCrypto(1, SuiteChaCha20Poly1305X25519)
	buf, err := Encode(hdr, nil, nil)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if _, _, _, err := Parse(buf); err != ErrUnknownVersion {
		t.Fatalf("got %v, want ErrUnknownVersion", err)
	}
}

func TestParseRejectsReservedFlags(t *testing.T) {
	hdr := sampleHeader()
	buf, err := Encode(hdr, nil, nil)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	buf[1] |= 1 // reserved bit0
	if _, _, _, err := Parse(buf); err != ErrReservedFlags {
		t.Fatalf("got %v, want ErrReservedFlags", err)
	}
}

func TestParseRejectsHeaderLenOverrun(t *testing.T) {
	hdr := sampleHeader()
	buf, err := Encode(hdr, nil, []byte("x"))
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	buf[2] = 0xff
	buf[3] = 0xff
	if _, _, _, err := Parse(buf); err != ErrHeaderLenInvalid {
		t.Fatalf("got %v, want ErrHeaderLenInvalid", err)
	}
}

func TestEncodeRejectsOversizedFrame(t *testing.T) {
	hdr := sampleHeader()
	payload := make([]byte, MaxFrameLen)
	if _, err := Encode(hdr, nil, payload); err != ErrFrameTooLarge {
		t.Fatalf("got %v, want ErrFrameTooLarge", err)
	}
}

func TestEncodeParseRoundTripProperty(t *testing.T) {
	// §8: parse(encode(h, ext, payload)) == (h, ext, payload) for valid
	// inputs with payload <= MaxPayloadLen(), spot-checked across sizes.
	for _, n := range []int{0, 1, 64, 512, MaxPayloadLen()} {
		hdr := sampleHeader()
		hdr.Seq = uint16(n)
		payload := bytes.Repeat([]byte{0xab}, n)

		buf, err := Encode(hdr, nil, payload)
		if err != nil {
			t.Fatalf("n=%d: Encode: %v", n, err)
		}
		gotHdr, _, body, err := Parse(buf)
		if err != nil {
			t.Fatalf("n=%d: Parse: %v", n, err)
		}
		if gotHdr.Seq != hdr.Seq {
			t.Fatalf("n=%d: seq mismatch: got %d, want %d", n, gotHdr.Seq, hdr.Seq)
		}
		if !bytes.Equal(buf[body:], payload) {
			t.Fatalf("n=%d: payload mismatch", n)
		}
	}
}
