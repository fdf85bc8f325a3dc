// Copyright (C) 2025, Elara Project Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package wire

import "errors"

var (
	// ErrShortBuffer is returned when a buffer is too small to hold even
	// the fixed header.
	ErrShortBuffer = errors.New("wire: buffer shorter than header")

	// ErrUnknownVersion is returned for a wire version this build does
	// not understand.
	ErrUnknownVersion = errors.New("wire: unknown wire version")

	// ErrReservedFlags is returned when a reserved or unrecognized flag
	// bit is set.
	ErrReservedFlags = errors.New("wire: reserved or unknown flag bit set")

	// ErrHeaderLenInvalid is returned when header_len is smaller than
	// HeaderLen or larger than the buffer actually supplied.
	ErrHeaderLenInvalid = errors.New("wire: header_len out of range")

	// ErrExtensionMalformed is returned when the TLV extension region is
	// truncated or an extension's declared length overruns header_len.
	ErrExtensionMalformed = errors.New("wire: extension malformed")

	// ErrFrameTooLarge is returned when an encoded frame would exceed
	// MaxFrameLen.
	ErrFrameTooLarge = errors.New("wire: frame exceeds maximum size")

	// ErrPayloadTooLarge names a payload that does not fit the 1200-byte
	// frame budget left after the header and extensions. Encode does not
	// return it: an oversized frame from Encode is ErrFrameTooLarge.
	ErrPayloadTooLarge = errors.New("wire: payload exceeds available budget")
)
