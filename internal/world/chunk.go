package world

import (
	"slices"

	"github.com/go-gl/mathgl/mgl32"
)

// PlaceID and SiteID identify civilization entities. Zero means none.
type (
	PlaceID uint32
	SiteID  uint32
)

// RiverKind classifies a chunk's water. The numeric order is significant:
// None < River < Lake < Ocean.
type RiverKind uint8

const (
	RiverNone RiverKind = iota
	RiverRiver
	RiverLake
	RiverOcean
)

func (k RiverKind) String() string {
	switch k {
	case RiverRiver:
		return "river"
	case RiverLake:
		return "lake"
	case RiverOcean:
		return "ocean"
	default:
		return "none"
	}
}

// RiverData holds the hydrology output for one chunk.
type RiverData struct {
	Kind RiverKind
	// PassPos is the rim chunk a lake drains through. Lakes only.
	PassPos Vec2i
	// CrossSection is (width, depth) in world units. Rivers only.
	CrossSection mgl32.Vec2
	// SplineDerivative is the curve tangent at the chunk center, in world units.
	SplineDerivative mgl32.Vec2
	// Flux is the accumulated upstream rainfall.
	Flux float32
}

func (r RiverData) IsOcean() bool { return r.Kind == RiverOcean }
func (r RiverData) IsLake() bool  { return r.Kind == RiverLake }
func (r RiverData) IsRiver() bool { return r.Kind == RiverRiver }

// NearWater reports whether the chunk carries any water body.
func (r RiverData) NearWater() bool { return r.Kind != RiverNone }

// Way is an overlay segment record: an intra-chunk control point offset and
// a bitmask of connected neighbours (bit i = Neighbors[i]).
type Way struct {
	Offset    [2]int8
	Neighbors uint8
}

// IsWay reports whether any neighbour is connected.
func (w Way) IsWay() bool { return w.Neighbors != 0 }

// Path is the per-chunk road metadata.
type Path struct {
	Width float32
}

// Cave is the per-chunk cave metadata.
type Cave struct {
	Width float32
	Alt   float32
}

// PathOverlay pairs a way with its road metadata.
type PathOverlay struct {
	Way  Way
	Path Path
}

// CaveOverlay pairs a way with its cave metadata.
type CaveOverlay struct {
	Way  Way
	Cave Cave
}

// ForestKind is the dominant tree type of a chunk.
type ForestKind uint8

const (
	ForestNone ForestKind = iota
	ForestPalm
	ForestAcacia
	ForestBaobab
	ForestMangrove
	ForestOak
	ForestChestnut
	ForestBirch
	ForestPine
	ForestFrostpine
)

var forestNames = [...]string{"none", "palm", "acacia", "baobab", "mangrove", "oak", "chestnut", "birch", "pine", "frostpine"}

func (f ForestKind) String() string {
	if int(f) < len(forestNames) {
		return forestNames[f]
	}
	return "unknown"
}

// SimChunk is one cell of the world grid.
type SimChunk struct {
	Alt      float32
	Basement float32
	WaterAlt float32

	Chaos       float32
	Temp        float32
	Humidity    float32
	Rockiness   float32
	TreeDensity float32
	SpawnRate   float32
	SurfaceVeg  float32
	WarpFactor  float32

	// Downhill is the chunk this one drains into; nil for sinks (oceans).
	Downhill *Vec2i
	River    RiverData

	ForestKind ForestKind
	Path       PathOverlay
	Cave       CaveOverlay

	Place PlaceID
	Sites []SiteID
}

// Clone copies the chunk without sharing its downhill pointer or site list.
func (c SimChunk) Clone() SimChunk {
	if c.Downhill != nil {
		d := *c.Downhill
		c.Downhill = &d
	}
	c.Sites = slices.Clone(c.Sites)
	return c
}
