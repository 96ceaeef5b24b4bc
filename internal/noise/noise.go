// Package noise bundles the seeded noise fields sampled by terrain generation
// and the column sampler. All evaluations are read-only and safe for
// concurrent use once a Set is built.
package noise

import (
	"math"

	"github.com/aquilax/go-perlin"
	"github.com/go-gl/mathgl/mgl64"
	opensimplex "github.com/ojrac/opensimplex-go"

	"github.com/talgya/civworld/internal/entropy"
)

// Set holds one independent generator per terrain layer.
type Set struct {
	Alt   opensimplex.Noise
	Chaos opensimplex.Noise
	Temp  opensimplex.Noise
	Humid opensimplex.Noise
	Rock  opensimplex.Noise
	Tree  opensimplex.Noise
	Veg   opensimplex.Noise
	Warp  opensimplex.Noise
	Hill  opensimplex.Noise
	TurbX opensimplex.Noise
	TurbY opensimplex.Noise

	// Small is the micro-detail lattice noise (marble, river width jitter,
	// riverless altitude wobble).
	Small *perlin.Perlin
}

// New derives every layer from the seed via the noise phase stream.
func New(seed uint32) *Set {
	rng := entropy.New(seed, entropy.PhaseNoise)
	next := func() int64 { return int64(rng.Uint64() >> 1) }

	return &Set{
		Alt:   opensimplex.New(next()),
		Chaos: opensimplex.New(next()),
		Temp:  opensimplex.New(next()),
		Humid: opensimplex.New(next()),
		Rock:  opensimplex.New(next()),
		Tree:  opensimplex.New(next()),
		Veg:   opensimplex.New(next()),
		Warp:  opensimplex.New(next()),
		Hill:  opensimplex.New(next()),
		TurbX: opensimplex.New(next()),
		TurbY: opensimplex.New(next()),
		Small: perlin.NewPerlin(2, 2, 3, next()),
	}
}

// FBm layers octaves of n; the result is normalized to roughly [-1, 1].
func FBm(n opensimplex.Noise, x, y float64, octaves int, frequency, persistence float64) float64 {
	total := 0.0
	amplitude := 1.0
	maxVal := 0.0

	for i := 0; i < octaves; i++ {
		total += n.Eval2(x*frequency, y*frequency) * amplitude
		maxVal += amplitude
		amplitude *= persistence
		frequency *= 2
	}

	return total / maxVal
}

// Unit maps a [-1, 1] noise value into [0, 1].
func Unit(v float64) float64 {
	return clamp01(v*0.5 + 0.5)
}

// Hilly returns ridged noise in [0, 1]; peaks sit where the base field crosses zero.
func (s *Set) Hilly(x, y float64) float64 {
	total := 0.0
	amplitude := 1.0
	maxVal := 0.0
	freq := 1.0
	for i := 0; i < 4; i++ {
		r := 1 - math.Abs(s.Hill.Eval2(x*freq, y*freq))
		total += r * r * amplitude
		maxVal += amplitude
		amplitude *= 0.5
		freq *= 2
	}
	return total / maxVal
}

// Turbulence returns a 2D displacement vector with components in [-1, 1].
func (s *Set) Turbulence(x, y float64) mgl64.Vec2 {
	return mgl64.Vec2{
		FBm(s.TurbX, x, y, 3, 1, 0.5),
		FBm(s.TurbY, x, y, 3, 1, 0.5),
	}
}

// SmallNoise samples the micro-detail field, roughly in [-1, 1].
func (s *Set) SmallNoise(x, y float64) float64 {
	v := s.Small.Noise2D(x, y) * 1.5
	if v > 1 {
		return 1
	}
	if v < -1 {
		return -1
	}
	return v
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
