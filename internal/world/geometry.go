// Grid geometry — integer vectors, neighbour tables, chunk/world coordinate mapping.
package world

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// ChunkSize is the edge length of a chunk in world units.
const ChunkSize = 32

// Vec2i is an integer 2D vector; chunk positions and world positions share it.
type Vec2i struct {
	X, Y int32
}

func (a Vec2i) Add(b Vec2i) Vec2i { return Vec2i{a.X + b.X, a.Y + b.Y} }
func (a Vec2i) Sub(b Vec2i) Vec2i { return Vec2i{a.X - b.X, a.Y - b.Y} }
func (a Vec2i) Scale(k int32) Vec2i { return Vec2i{a.X * k, a.Y * k} }
func (a Vec2i) Vec() mgl32.Vec2 { return mgl32.Vec2{float32(a.X), float32(a.Y)} }
func (a Vec2i) String() string { return fmt.Sprintf("(%d,%d)", a.X, a.Y) }

// DistSq returns the squared Euclidean distance between a and b.
func (a Vec2i) DistSq(b Vec2i) int64 {
	dx, dy := int64(a.X-b.X), int64(a.Y-b.Y)
	return dx*dx + dy*dy
}

// Dist returns the Euclidean distance between a and b.
func (a Vec2i) Dist(b Vec2i) float32 {
	return float32(math.Sqrt(float64(a.DistSq(b))))
}

// Neighbors lists the 8-connected offsets; bit i of a way's neighbour mask
// refers to Neighbors[i].
var Neighbors = [8]Vec2i{
	{-1, -1}, {0, -1}, {1, -1},
	{-1, 0}, {1, 0},
	{-1, 1}, {0, 1}, {1, 1},
}

// Cardinals lists the 4-connected offsets.
var Cardinals = [4]Vec2i{{0, -1}, {-1, 0}, {1, 0}, {0, 1}}

// NeighborIndex returns the index of d in Neighbors.
func NeighborIndex(d Vec2i) (int, bool) {
	for i, n := range Neighbors {
		if n == d {
			return i, true
		}
	}
	return 0, false
}

// MapSizeLg is the base-2 logarithm of the grid dimensions.
type MapSizeLg struct {
	X, Y uint8
}

// Map size bounds, in log2 chunks. The default 1024x1024 grid is lg 10+10.
const (
	MaxMapSizeLgAxis = 12
	MaxMapSizeLgSum  = 20
)

// Validate enforces the per-axis and total grid bounds.
func (lg MapSizeLg) Validate() error {
	if lg.X > MaxMapSizeLgAxis || lg.Y > MaxMapSizeLgAxis {
		return fmt.Errorf("map size lg %d,%d: each axis must be <= %d", lg.X, lg.Y, MaxMapSizeLgAxis)
	}
	if int(lg.X)+int(lg.Y) > MaxMapSizeLgSum {
		return fmt.Errorf("map size lg %d+%d exceeds %d", lg.X, lg.Y, MaxMapSizeLgSum)
	}
	return nil
}

// Chunks returns the grid dimensions in chunks.
func (lg MapSizeLg) Chunks() Vec2i {
	return Vec2i{1 << lg.X, 1 << lg.Y}
}

func divEuclid(a, b int32) int32 {
	q := a / b
	if a%b < 0 {
		q--
	}
	return q
}

// WposToChunk maps a world position to the chunk containing it.
func WposToChunk(wpos Vec2i) Vec2i {
	return Vec2i{divEuclid(wpos.X, ChunkSize), divEuclid(wpos.Y, ChunkSize)}
}

// ChunkToWpos returns the world position of a chunk's minimum corner.
func ChunkToWpos(cpos Vec2i) Vec2i {
	return cpos.Scale(ChunkSize)
}

// ChunkCenterWpos returns the world position of a chunk's center.
func ChunkCenterWpos(cpos Vec2i) Vec2i {
	return Vec2i{cpos.X*ChunkSize + ChunkSize/2, cpos.Y*ChunkSize + ChunkSize/2}
}

// Spiral returns the first n offsets of a square spiral around the origin:
// the origin, then each ring of Chebyshev radius r in a fixed order.
func Spiral(n int) []Vec2i {
	out := make([]Vec2i, 0, n)
	if n <= 0 {
		return out
	}
	out = append(out, Vec2i{})
	for r := int32(1); len(out) < n; r++ {
		for x := -r; x < r && len(out) < n; x++ {
			out = append(out, Vec2i{x, -r})
		}
		for y := -r; y < r && len(out) < n; y++ {
			out = append(out, Vec2i{r, y})
		}
		for x := r; x > -r && len(out) < n; x-- {
			out = append(out, Vec2i{x, r})
		}
		for y := r; y > -r && len(out) < n; y-- {
			out = append(out, Vec2i{-r, y})
		}
	}
	return out
}
