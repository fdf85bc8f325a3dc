// Copyright (C) 2025, Elara Project Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package runtime

import (
	"encoding/binary"
	"fmt"

	"github.com/luxfi/database"

	"github.com/elara-project/elara/crypto"
)

// Key prefixes partition a single flat database.Database into the handful
// of record kinds a Session persists, matching the donor engine's
// key-namespacing-by-prefix convention rather than separate databases per
// concern.
var (
	identityKey  = []byte("elara:identity\x00")
	atomKeyPrefix = []byte("elara:atom\x00")
)

// Store wraps a database.Database with the narrow persistence surface a
// Session needs: the local identity snapshot, and opaque per-atom
// snapshots keyed by state id. It holds no session logic of its own.
type Store struct {
	db database.Database
}

// NewStore wraps db. A nil db is valid and yields a Store that reports
// everything as not-found and silently drops writes, for sessions that
// run purely in-memory.
func NewStore(db database.Database) *Store {
	return &Store{db: db}
}

// SaveIdentity persists a self-signed identity snapshot.
func (s *Store) SaveIdentity(snap crypto.Snapshot) error {
	if s.db == nil {
		return nil
	}
	buf, err := encodeSnapshot(snap)
	if err != nil {
		return err
	}
	return s.db.Put(identityKey, buf)
}

// LoadIdentity returns the persisted identity snapshot, if any.
func (s *Store) LoadIdentity() (crypto.Snapshot, bool, error) {
	if s.db == nil {
		return crypto.Snapshot{}, false, nil
	}
	has, err := s.db.Has(identityKey)
	if err != nil {
		return crypto.Snapshot{}, false, fmt.Errorf("runtime: store: check identity: %w", err)
	}
	if !has {
		return crypto.Snapshot{}, false, nil
	}
	buf, err := s.db.Get(identityKey)
	if err != nil {
		return crypto.Snapshot{}, false, fmt.Errorf("runtime: store: load identity: %w", err)
	}
	snap, err := decodeSnapshot(buf)
	if err != nil {
		return crypto.Snapshot{}, false, err
	}
	return snap, true, nil
}

// SaveAtomSnapshot persists an opaque, already-encoded atom snapshot
// under stateID. Callers decide the encoding; the store just addresses
// it. Nothing in this module calls it.
func (s *Store) SaveAtomSnapshot(stateID uint64, snapshot []byte) error {
	if s.db == nil {
		return nil
	}
	return s.db.Put(atomKey(stateID), snapshot)
}

// LoadAtomSnapshot returns the persisted snapshot for stateID, if any.
func (s *Store) LoadAtomSnapshot(stateID uint64) ([]byte, bool, error) {
	if s.db == nil {
		return nil, false, nil
	}
	key := atomKey(stateID)
	has, err := s.db.Has(key)
	if err != nil {
		return nil, false, fmt.Errorf("runtime: store: check atom %d: %w", stateID, err)
	}
	if !has {
		return nil, false, nil
	}
	buf, err := s.db.Get(key)
	if err != nil {
		return nil, false, fmt.Errorf("runtime: store: load atom %d: %w", stateID, err)
	}
	return buf, true, nil
}

func atomKey(stateID uint64) []byte {
	key := make([]byte, 0, len(atomKeyPrefix)+8)
	key = append(key, atomKeyPrefix...)
	key = binary.BigEndian.AppendUint64(key, stateID)
	return key
}

// encodeSnapshot serializes a crypto.Snapshot as a length-prefixed field
// sequence: signing_public, signing_secret, ka_public, ka_secret,
// self_signature, each prefixed by a 2-byte big-endian length.
func encodeSnapshot(snap crypto.Snapshot) ([]byte, error) {
	fields := [][]byte{snap.SigningPublic, snap.SigningSecret, snap.KAPublic, snap.KASecret, snap.SelfSignature}
	var buf []byte
	for _, f := range fields {
		if len(f) > 0xffff {
			return nil, fmt.Errorf("runtime: store: identity field too large")
		}
		buf = binary.BigEndian.AppendUint16(buf, uint16(len(f)))
		buf = append(buf, f...)
	}
	return buf, nil
}

func decodeSnapshot(buf []byte) (crypto.Snapshot, error) {
	var fields [5][]byte
	for i := range fields {
		if len(buf) < 2 {
			return crypto.Snapshot{}, fmt.Errorf("runtime: store: truncated identity record")
		}
		n := int(binary.BigEndian.Uint16(buf))
		buf = buf[2:]
		if len(buf) < n {
			return crypto.Snapshot{}, fmt.Errorf("runtime: store: truncated identity field")
		}
		fields[i] = append([]byte(nil), buf[:n]...)
		buf = buf[n:]
	}
	return crypto.Snapshot{
		SigningPublic: fields[0],
		SigningSecret: fields[1],
		KAPublic:      fields[2],
		KASecret:      fields[3],
		SelfSignature: fields[4],
	}, nil
}
