// Package prng implements the seeded pseudo-random source used by the
// simulator. Streams are bit-identical for identical seeds on every
// platform: all arithmetic is 32-bit unsigned with explicit wraparound.
package prng

import (
	"math"
	"math/bits"
	"unicode/utf16"
)

const twoPow32 = 4294967296.0

// HashSeed folds a seed string into a 32-bit state. The string is hashed
// over its UTF-16 code units.
func HashSeed(seed string) uint32 {
	units := utf16.Encode([]rune(seed))

	h := uint32(1779033703) ^ uint32(len(units))
	for _, unit := range units {
		h = (h ^ uint32(unit)) * 3432918353
		h = bits.RotateLeft32(h, 13)
	}
	h = (h ^ (h >> 16)) * 2246822507
	h = (h ^ (h >> 13)) * 3266489909
	return h ^ (h >> 16)
}

// Rand is a mulberry32 generator. It is not safe for concurrent use; the
// draw order is part of the output contract.
type Rand struct {
	state uint32
}

// New creates a generator seeded from seed.
func New(seed string) *Rand {
	return &Rand{state: HashSeed(seed)}
}

// Float returns the next value in [0, 1).
func (r *Rand) Float() float64 {
	r.state += 0x6D2B79F5
	t := r.state
	v := (t ^ (t >> 15)) * (t | 1)
	v ^= v + (v^(v>>7))*(v|61)
	return float64(v^(v>>14)) / twoPow32
}

// Int returns a value in [0, max). A non-positive max returns 0 without
// consuming a draw.
func (r *Rand) Int(max int) int {
	if max <= 0 {
		return 0
	}
	return int(math.Floor(r.Float() * float64(max)))
}

// Bool returns true with probability p. Probabilities at or beyond the
// bounds are decided without consuming a draw.
func (r *Rand) Bool(p float64) bool {
	if p <= 0 {
		return false
	}
	if p >= 1 {
		return true
	}
	return r.Float() < p
}

// Pick returns a uniformly chosen element. An empty slice returns false
// without consuming a draw.
func Pick[T any](r *Rand, items []T) (T, bool) {
	var zero T
	if len(items) == 0 {
		return zero, false
	}
	return items[r.Int(len(items))], true
}

// Entry is one weighted category.
type Entry struct {
	Value  string
	Weight float64
}

// Normalize drops non-finite and non-positive weights and scales the rest
// to sum to one, preserving order. It returns nil when nothing remains.
func Normalize(entries []Entry) []Entry {
	out := make([]Entry, 0, len(entries))
	sum := 0.0
	for _, e := range entries {
		if math.IsNaN(e.Weight) || math.IsInf(e.Weight, 0) || e.Weight <= 0 {
			continue
		}
		sum += e.Weight
		out = append(out, e)
	}
	if sum == 0 {
		return nil
	}
	for i := range out {
		out[i].Weight /= sum
	}
	return out
}

// Weighted draws a category with probability proportional to its weight.
// Order matters: the first category whose cumulative weight reaches the
// threshold wins, with the last one as the rounding fallback. Nothing
// positive to draw from returns false without consuming a draw.
func (r *Rand) Weighted(entries []Entry) (string, bool) {
	normalized := Normalize(entries)
	if len(normalized) == 0 {
		return "", false
	}

	threshold := r.Float()
	cumulative := 0.0
	for _, e := range normalized {
		cumulative += e.Weight
		if threshold <= cumulative {
			return e.Value, true
		}
	}
	return normalized[len(normalized)-1].Value, true
}
