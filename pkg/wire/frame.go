// Copyright (C) 2025, Elara Project Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package wire

// Encode produces the header+extensions region followed by payload,
// exactly as the frame-size policy in §4.1 describes. hdr.HeaderLen and
// hdr.Flags' extensions-present bit are both computed here; the caller
// sets every other field.
func Encode(hdr Header, extensions []Extension, payload []byte) ([]byte, error) {
	extLen := 0
	if len(extensions) > 0 {
		for _, e := range extensions {
			if len(e.Value) > 255 {
				return nil, ErrExtensionMalformed
			}
			extLen += 2 + len(e.Value)
		}
		extLen += 2 // END marker: type + zero length
		hdr.Flags |= FlagExtensionsPresent
	} else {
		hdr.Flags &^= FlagExtensionsPresent
	}

	headerLen := HeaderLen + extLen
	if headerLen > 0xffff {
		return nil, ErrFrameTooLarge
	}
	total := headerLen + len(payload)
	if total > MaxFrameLen {
		return nil, ErrFrameTooLarge
	}

	hdr.HeaderLen = uint16(headerLen)
	buf := make([]byte, total)
	hdr.put(buf[:HeaderLen])

	off := HeaderLen
	for _, e := range extensions {
		buf[off] = e.Type
		buf[off+1] = byte(len(e.Value))
		copy(buf[off+2:], e.Value)
		off += 2 + len(e.Value)
	}
	if len(extensions) > 0 {
		buf[off] = ExtEnd
		buf[off+1] = 0
		off += 2
	}
	copy(buf[off:], payload)
	return buf, nil
}

// MaxPayloadLen returns the largest payload (plaintext-plus-tag budget
// already excluded) that fits under MaxFrameLen given the header carries
// no extensions. Callers planning a fragmentation split use this as the
// per-fragment ceiling.
func MaxPayloadLen() int {
	return MaxFrameLen - HeaderLen - AEADTagLen
}

// Parse validates and decodes a frame produced by Encode. The returned
// Header is a decoded copy; each Extension's Value aliases buf, and the
// body starts at the returned offset into buf. Callers needing to retain
// extension values past buf's lifetime must copy them.
func Parse(buf []byte) (Header, []Extension, int, error) {
	hdr, err := parseHeader(buf)
	if err != nil {
		return Header{}, nil, 0, err
	}
	if WireVersion(hdr.VersionCrypto) != 0 {
		return Header{}, nil, 0, ErrUnknownVersion
	}
	if hdr.Flags&^knownFlagMask != 0 {
		return Header{}, nil, 0, ErrReservedFlags
	}
	if int(hdr.HeaderLen) < HeaderLen || int(hdr.HeaderLen) > len(buf) {
		return Header{}, nil, 0, ErrHeaderLenInvalid
	}
	if len(buf) > MaxFrameLen {
		return Header{}, nil, 0, ErrFrameTooLarge
	}

	var extensions []Extension
	if hdr.Flags&FlagExtensionsPresent != 0 {
		extensions, err = parseExtensions(buf[HeaderLen:hdr.HeaderLen])
		if err != nil {
			return Header{}, nil, 0, err
		}
	}
	return hdr, extensions, int(hdr.HeaderLen), nil
}

// parseExtensions decodes the TLV region between the fixed header and
// header_len. The region must terminate with an END record; anything
// left unconsumed after END is ignored, matching "extensions region
// terminates at header_len" without requiring trailing padding to be
// zeroed.
func parseExtensions(region []byte) ([]Extension, error) {
	var out []Extension
	i := 0
	for i < len(region) {
		typ := region[i]
		if typ == ExtEnd {
			return out, nil
		}
		if i+2 > len(region) {
			return nil, ErrExtensionMalformed
		}
		length := int(region[i+1])
		if i+2+length > len(region) {
			return nil, ErrExtensionMalformed
		}
		out = append(out, Extension{Type: typ, Value: region[i+2 : i+2+length]})
		i += 2 + length
	}
	// Region exhausted without an explicit END: always rejected, since
	// FlagExtensionsPresent implies Encode wrote at least the END marker.
	return out, ErrExtensionMalformed
}
