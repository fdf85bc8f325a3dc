// Copyright (C) 2025, Elara Project Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package crypto

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"

	"github.com/elara-project/elara"
)

const sessionRootDomain = "elara-session-root-v0"

// classDomains maps each packet class to the HKDF info string used to
// derive its class key from a session root (§4.2).
var classDomains = map[elara.PacketClass]string{
	elara.ClassCore:        "elara-class-core-v0",
	elara.ClassPerceptual:  "elara-class-perceptual-v0",
	elara.ClassEnhancement: "elara-class-enhancement-v0",
	elara.ClassCosmetic:    "elara-class-cosmetic-v0",
	elara.ClassRepair:      "elara-class-repair-v0",
}

func hkdfExpand(secret []byte, salt []byte, info string, out []byte) error {
	r := hkdf.New(sha256.New, secret, salt, []byte(info))
	if _, err := io.ReadFull(r, out); err != nil {
		return fmt.Errorf("crypto: hkdf expand %q: %w", info, err)
	}
	return nil
}

// DeriveSessionRoot derives the 32-byte session root from a freshly
// agreed shared secret. Node ids are canonically ordered (min, then max)
// so either side of the handshake derives the identical root regardless
// of who initiated (§4.2).
func DeriveSessionRoot(sharedSecret []byte, sessionID uint64, nodeA, nodeB elara.NodeId) ([]byte, error) {
	lo, hi := uint64(nodeA), uint64(nodeB)
	if lo > hi {
		lo, hi = hi, lo
	}
	info := make([]byte, 0, len(sessionRootDomain)+8+8+8)
	info = append(info, sessionRootDomain...)
	info = binary.BigEndian.AppendUint64(info, sessionID)
	info = binary.BigEndian.AppendUint64(info, lo)
	info = binary.BigEndian.AppendUint64(info, hi)

	root := make([]byte, 32)
	if err := hkdfExpand(sharedSecret, nil, string(info), root); err != nil {
		return nil, err
	}
	return root, nil
}

// DeriveClassKey derives the per-class key K_c from a session root.
func DeriveClassKey(sessionRoot []byte, class elara.PacketClass) ([]byte, error) {
	domain, ok := classDomains[class]
	if !ok {
		return nil, elara.ErrFrameMalformed
	}
	key := make([]byte, 32)
	if err := hkdfExpand(sessionRoot, nil, domain, key); err != nil {
		return nil, err
	}
	return key, nil
}
