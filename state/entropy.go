// Copyright (C) 2025, Elara Project Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package state

import (
	"encoding/binary"
	"math"

	"gonum.org/v1/gonum/floats"
)

// EntropyModel computes the divergence entropy between an atom's
// current value and a candidate merged value (§4.4 stage 5, left
// unspecified by the source per §9; this build picks one concrete
// metric per value shape and exposes the threshold as a tunable).
type EntropyModel interface {
	Entropy(old, new []byte) float64
}

// DefaultEntropyModel treats the value as an opaque byte string and uses
// a normalized Hamming distance as a cheap proxy for edit distance: exact
// for equal-length values, and accounts for length difference directly
// for unequal ones.
type DefaultEntropyModel struct{}

// Entropy returns a value in [0,1]: 0 for identical byte strings, 1 for
// maximally dissimilar ones.
func (DefaultEntropyModel) Entropy(old, new []byte) float64 {
	if len(old) == 0 && len(new) == 0 {
		return 0
	}
	maxLen := len(old)
	if len(new) > maxLen {
		maxLen = len(new)
	}
	diff := abs(len(old) - len(new))
	n := minInt(len(old), len(new))
	for i := 0; i < n; i++ {
		if old[i] != new[i] {
			diff++
		}
	}
	return float64(diff) / float64(maxLen)
}

// NumericEntropyModel treats the value as a little-endian float64 vector
// and uses a normalized per-field L2 distance, for Enhancement/PNCounter
// style atoms carrying numeric state.
type NumericEntropyModel struct{}

// EntropyVectors is the float-vector counterpart to Entropy, used
// directly by callers that already hold decoded numeric state rather
// than round-tripping through bytes.
func (NumericEntropyModel) EntropyVectors(old, new []float64) float64 {
	if len(old) == 0 && len(new) == 0 {
		return 0
	}
	n := len(old)
	if len(new) < n {
		n = len(new)
	}
	dist := floats.Distance(old[:n], new[:n], 2)
	norm := floats.Norm(old[:n], 2) + floats.Norm(new[:n], 2)
	if norm == 0 {
		return 0
	}
	v := dist / norm
	if v > 1 {
		v = 1
	}
	return v
}

// Entropy decodes old and new as little-endian float64 vectors and
// defers to EntropyVectors, satisfying EntropyModel for atoms whose
// value is a packed numeric vector rather than opaque bytes.
func (m NumericEntropyModel) Entropy(old, new []byte) float64 {
	return m.EntropyVectors(decodeFloat64s(old), decodeFloat64s(new))
}

func decodeFloat64s(b []byte) []float64 {
	n := len(b) / 8
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		out[i] = math.Float64frombits(binary.LittleEndian.Uint64(b[i*8 : i*8+8]))
	}
	return out
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
