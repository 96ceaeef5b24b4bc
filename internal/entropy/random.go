// Package entropy provides the deterministic random streams used by world generation.
// Every stream derives only from (seed, phase, sub-task index) so two runs with the
// same seed draw identical sequences.
package entropy

import (
	"encoding/binary"
	"math/rand/v2"
)

// SeedSkip is the number of outputs a reseeded child discards before use.
// A few parent states produce children whose first draws cluster; skipping
// a fixed prefix keeps output stable while avoiding them.
const SeedSkip = 5

// Phase identifiers for the independent top-level streams.
const (
	PhaseTerrain uint64 = iota + 1
	PhaseNoise
	PhaseCaves
	PhaseCivs
	PhaseSites
	PhaseEconomy
	PhaseFlatten
	PhaseNames
)

// splitmix64 advances a counter-based mixer. It is the standard SplitMix64
// finalizer, used only to spread a small seed over a 32-byte ChaCha key.
func splitmix64(x uint64) uint64 {
	x += 0x9e3779b97f4a7c15
	x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
	x = (x ^ (x >> 27)) * 0x94d049bb133111eb
	return x ^ (x >> 31)
}

// Expand turns a 32-bit seed and a stream index into a 32-byte PRNG state.
func Expand(seed uint32, stream uint64) [32]byte {
	var out [32]byte
	base := uint64(seed)<<32 ^ stream*0xd1b54a32d192ed03
	for i := 0; i < 4; i++ {
		binary.LittleEndian.PutUint64(out[i*8:], splitmix64(base+uint64(i)))
	}
	return out
}

// Rng is a seeded ChaCha8 stream with the helpers generation code needs.
type Rng struct {
	src *rand.ChaCha8
	r   *rand.Rand
}

// New builds an Rng for the given seed and phase.
func New(seed uint32, phase uint64) *Rng {
	return FromState(Expand(seed, phase))
}

// FromState builds an Rng from an explicit 32-byte state.
func FromState(state [32]byte) *Rng {
	src := rand.NewChaCha8(state)
	return &Rng{src: src, r: rand.New(src)}
}

// Reseed forks a child stream from 32 bytes drawn from the parent.
// Draws made on the child never influence the parent sequence beyond the
// single 32-byte read.
func (g *Rng) Reseed() *Rng {
	child := FromState(g.Bytes32())
	for i := 0; i < SeedSkip; i++ {
		child.r.Uint64()
	}
	return child
}

// Bytes32 draws 32 bytes from the stream.
func (g *Rng) Bytes32() [32]byte {
	var out [32]byte
	for i := 0; i < 4; i++ {
		binary.LittleEndian.PutUint64(out[i*8:], g.r.Uint64())
	}
	return out
}

// Uint64 returns the next raw 64-bit output.
func (g *Rng) Uint64() uint64 { return g.r.Uint64() }

// Float32 returns a value in [0, 1).
func (g *Rng) Float32() float32 { return g.r.Float32() }

// Float64 returns a value in [0, 1).
func (g *Rng) Float64() float64 { return g.r.Float64() }

// Range returns a float32 in [lo, hi).
func (g *Rng) Range(lo, hi float32) float32 {
	return lo + g.r.Float32()*(hi-lo)
}

// IntN returns an int in [0, n). n must be positive.
func (g *Rng) IntN(n int) int { return g.r.IntN(n) }

// Int32Range returns an int32 in [lo, hi).
func (g *Rng) Int32Range(lo, hi int32) int32 {
	if hi <= lo {
		return lo
	}
	return lo + g.r.Int32N(hi-lo)
}

// Chance reports true with probability 1/n.
func (g *Rng) Chance(n int) bool { return g.r.IntN(n) == 0 }

// Shuffle permutes n elements using swap.
func (g *Rng) Shuffle(n int, swap func(i, j int)) { g.r.Shuffle(n, swap) }
