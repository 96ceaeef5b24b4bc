// Path and cave overlays — nearest-segment queries over way bitmasks.
package world

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// NearestWay is the closest point on an overlay polyline to a query position.
type NearestWay[M any] struct {
	Dist    float32
	Pos     mgl32.Vec2
	Meta    M
	Tangent mgl32.Vec2
}

// wayControl returns the world-space control point of a chunk's way.
func wayControl(cpos Vec2i, w Way) mgl32.Vec2 {
	c := ChunkCenterWpos(cpos)
	return mgl32.Vec2{float32(c.X) + float32(w.Offset[0]), float32(c.Y) + float32(w.Offset[1])}
}

// nearestOnSegment returns the parameter t in [0,1] and the closest point of
// segment a→b to p.
func nearestOnSegment(a, b, p mgl32.Vec2) (float32, mgl32.Vec2) {
	ab := b.Sub(a)
	l2 := ab.Dot(ab)
	if l2 == 0 {
		return 0, a
	}
	t := clampF(p.Sub(a).Dot(ab)/l2, 0, 1)
	return t, a.Add(ab.Mul(t))
}

// nearestWay searches the 3×3 chunk neighbourhood of wpos. Each chunk with
// a way contributes half-segments from its control point to the midpoint
// shared with every connected neighbour; meta is blended along the segment.
func nearestWay[M any](s *WorldSim, wpos Vec2i, get func(*SimChunk) (Way, M), lerp func(a, b M, t float32) M) *NearestWay[M] {
	cpos := WposToChunk(wpos)
	p := wpos.Vec()

	var best *NearestWay[M]
	bestSq := float32(math.MaxFloat32)

	for dy := int32(-1); dy <= 1; dy++ {
		for dx := int32(-1); dx <= 1; dx++ {
			here := cpos.Add(Vec2i{dx, dy})
			c := s.Get(here)
			if c == nil {
				continue
			}
			way, meta := get(c)
			if !way.IsWay() {
				continue
			}
			ctrl := wayControl(here, way)
			for i, d := range Neighbors {
				if way.Neighbors&(1<<uint(i)) == 0 {
					continue
				}
				npos := here.Add(d)
				nc := s.Get(npos)
				if nc == nil {
					continue
				}
				nway, nmeta := get(nc)
				mid := ctrl.Add(wayControl(npos, nway)).Mul(0.5)
				t, pt := nearestOnSegment(ctrl, mid, p)
				dSq := pt.Sub(p).Dot(pt.Sub(p))
				if dSq < bestSq {
					bestSq = dSq
					tangent := mid.Sub(ctrl)
					if tangent.Len() > 0 {
						tangent = tangent.Normalize()
					}
					best = &NearestWay[M]{
						Pos:     pt,
						Meta:    lerp(meta, nmeta, t*0.5),
						Tangent: tangent,
					}
				}
			}
		}
	}
	if best != nil {
		best.Dist = float32(math.Sqrt(float64(bestSq)))
	}
	return best
}

// GetNearestPath returns the closest road segment around wpos, or nil.
func (s *WorldSim) GetNearestPath(wpos Vec2i) *NearestWay[Path] {
	return nearestWay(s, wpos,
		func(c *SimChunk) (Way, Path) { return c.Path.Way, c.Path.Path },
		func(a, b Path, t float32) Path { return Path{Width: a.Width + (b.Width-a.Width)*t} },
	)
}

// GetNearestCave returns the closest cave segment around wpos, or nil.
func (s *WorldSim) GetNearestCave(wpos Vec2i) *NearestWay[Cave] {
	return nearestWay(s, wpos,
		func(c *SimChunk) (Way, Cave) { return c.Cave.Way, c.Cave.Cave },
		func(a, b Cave, t float32) Cave {
			return Cave{
				Width: a.Width + (b.Width-a.Width)*t,
				Alt:   a.Alt + (b.Alt-a.Alt)*t,
			}
		},
	)
}
