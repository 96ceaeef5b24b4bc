// Interpolation of chunk fields at world positions.
package world

import "math"

// gridCoord maps a world coordinate to fractional chunk-center space.
func gridCoord(w int32) (base int32, frac float64) {
	f := (float64(w) - ChunkSize/2) / ChunkSize
	fl := math.Floor(f)
	return int32(fl), f - fl
}

func (s *WorldSim) sampleAt(pos Vec2i, f func(*SimChunk) float32) float64 {
	return float64(f(s.Get(s.clampPos(pos))))
}

// GetInterpolated bilinearly interpolates f over the four chunk centers
// around wpos. Off-grid corners reuse the nearest edge chunk. Returns false
// when wpos itself lies outside the map.
func (s *WorldSim) GetInterpolated(wpos Vec2i, f func(*SimChunk) float32) (float32, bool) {
	if s.GetWpos(wpos) == nil {
		return 0, false
	}
	x0, tx := gridCoord(wpos.X)
	y0, ty := gridCoord(wpos.Y)

	v00 := s.sampleAt(Vec2i{x0, y0}, f)
	v10 := s.sampleAt(Vec2i{x0 + 1, y0}, f)
	v01 := s.sampleAt(Vec2i{x0, y0 + 1}, f)
	v11 := s.sampleAt(Vec2i{x0 + 1, y0 + 1}, f)

	top := v00 + (v10-v00)*tx
	bot := v01 + (v11-v01)*tx
	return float32(top + (bot-top)*ty), true
}

// GetInterpolatedMonotone interpolates f with a monotone cubic over the 4×4
// chunk neighbourhood. The result never overshoots the neighbouring values
// and equals the stored value exactly at chunk centers.
func (s *WorldSim) GetInterpolatedMonotone(wpos Vec2i, f func(*SimChunk) float32) (float32, bool) {
	if s.GetWpos(wpos) == nil {
		return 0, false
	}
	x0, tx := gridCoord(wpos.X)
	y0, ty := gridCoord(wpos.Y)

	var rows [4]float64
	for j := int32(0); j < 4; j++ {
		y := y0 + j - 1
		rows[j] = monotoneCubic(
			s.sampleAt(Vec2i{x0 - 1, y}, f),
			s.sampleAt(Vec2i{x0, y}, f),
			s.sampleAt(Vec2i{x0 + 1, y}, f),
			s.sampleAt(Vec2i{x0 + 2, y}, f),
			tx,
		)
	}
	return float32(monotoneCubic(rows[0], rows[1], rows[2], rows[3], ty)), true
}

// monotoneCubic evaluates the Fritsch–Carlson Hermite segment between p1 and
// p2 at t in [0, 1].
func monotoneCubic(p0, p1, p2, p3, t float64) float64 {
	if t == 0 {
		return p1
	}
	d0 := p1 - p0
	d1 := p2 - p1
	d2 := p3 - p2

	m1 := 0.0
	if d0*d1 > 0 {
		m1 = (d0 + d1) / 2
	}
	m2 := 0.0
	if d1*d2 > 0 {
		m2 = (d1 + d2) / 2
	}
	if d1 == 0 {
		m1, m2 = 0, 0
	} else {
		if a := m1 / d1; a > 3 {
			m1 = 3 * d1
		}
		if b := m2 / d1; b > 3 {
			m2 = 3 * d1
		}
	}

	t2 := t * t
	t3 := t2 * t
	h00 := 2*t3 - 3*t2 + 1
	h10 := t3 - 2*t2 + t
	h01 := -2*t3 + 3*t2
	h11 := t3 - t2
	return h00*p1 + h10*m1 + h01*p2 + h11*m2
}

// GetGradientApprox returns the central-difference slope magnitude of the
// altitude field at a chunk, in altitude units per world unit.
func (s *WorldSim) GetGradientApprox(pos Vec2i) (float32, bool) {
	if !s.InBounds(pos) {
		return 0, false
	}
	alt := func(p Vec2i) (float64, bool) {
		c := s.Get(p)
		if c == nil {
			return 0, false
		}
		return float64(c.Alt), true
	}
	axis := func(d Vec2i) float64 {
		hi, okHi := alt(pos.Add(d))
		lo, okLo := alt(pos.Sub(d))
		here, _ := alt(pos)
		switch {
		case okHi && okLo:
			return (hi - lo) / (2 * ChunkSize)
		case okHi:
			return (hi - here) / ChunkSize
		case okLo:
			return (here - lo) / ChunkSize
		}
		return 0
	}
	gx := axis(Vec2i{1, 0})
	gy := axis(Vec2i{0, 1})
	return float32(math.Hypot(gx, gy)), true
}
