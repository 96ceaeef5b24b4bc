// Package column answers per-world-position terrain queries over a generated
// chunk grid: interpolated biome scalars, river geometry, surface colours and
// path/cave overlays. Sampling is read-only and safe for concurrent use.
package column

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/talgya/civworld/internal/world"
)

// RiverHit describes the water body that dominates a column.
type RiverHit struct {
	Chunk world.Vec2i
	Kind  world.RiverKind
	// T is the curve parameter of the nearest point (rivers only).
	T float32
	// Width is the local river width, or the chunk size for lakes and oceans.
	Width float32
}

// ColumnSample is the terrain description of one world column.
type ColumnSample struct {
	Alt          float32
	RiverlessAlt float32
	Basement     float32
	Chaos        float32
	WaterLevel   float32
	WarpFactor   float32

	SurfaceColor    mgl32.Vec3
	SubSurfaceColor mgl32.Vec3

	TreeDensity float32
	ForestKind  world.ForestKind
	Marble      float32
	MarbleSmall float32
	Rock        float32
	Temp        float32
	Humidity    float32
	SpawnRate   float32
	StoneCol    [3]uint8

	// WaterDist is the distance to the nearest water body's edge when one lies
	// within MaxRiverDistance.
	WaterDist *float32
	Gradient  *float32
	River     *RiverHit

	Path *world.NearestWay[world.Path]
	Cave *world.NearestWay[world.Cave]

	SnowCover bool
}

// Finite reports whether every float field of the sample is finite.
func (s *ColumnSample) Finite() bool {
	vals := []float32{
		s.Alt, s.RiverlessAlt, s.Basement, s.Chaos, s.WaterLevel, s.WarpFactor,
		s.SurfaceColor[0], s.SurfaceColor[1], s.SurfaceColor[2],
		s.SubSurfaceColor[0], s.SubSurfaceColor[1], s.SubSurfaceColor[2],
		s.TreeDensity, s.Marble, s.MarbleSmall, s.Rock, s.Temp, s.Humidity, s.SpawnRate,
	}
	if s.WaterDist != nil {
		vals = append(vals, *s.WaterDist)
	}
	if s.Gradient != nil {
		vals = append(vals, *s.Gradient)
	}
	if s.River != nil {
		vals = append(vals, s.River.T, s.River.Width)
	}
	if s.Path != nil {
		vals = append(vals, s.Path.Dist, s.Path.Pos[0], s.Path.Pos[1], s.Path.Meta.Width, s.Path.Tangent[0], s.Path.Tangent[1])
	}
	if s.Cave != nil {
		vals = append(vals, s.Cave.Dist, s.Cave.Pos[0], s.Cave.Pos[1], s.Cave.Meta.Width, s.Cave.Meta.Alt, s.Cave.Tangent[0], s.Cave.Tangent[1])
	}
	for _, v := range vals {
		if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
			return false
		}
	}
	return true
}
