// Package site generates the layouts placed at civilization site centers.
// Each layout is a deterministic function of its world position, the chunk
// grid and a forked random stream.
package site

import (
	"github.com/talgya/civworld/internal/entropy"
	"github.com/talgya/civworld/internal/world"
)

// Kind tags the three site variants.
type Kind uint8

const (
	KindSettlement Kind = iota
	KindDungeon
	KindCastle
)

func (k Kind) String() string {
	switch k {
	case KindSettlement:
		return "settlement"
	case KindDungeon:
		return "dungeon"
	case KindCastle:
		return "castle"
	default:
		return "unknown"
	}
}

// SpawnRules tells the column sampler what may spawn at a position.
type SpawnRules struct {
	Trees bool
}

// Layout is implemented by every site variant.
type Layout interface {
	Kind() Kind
	// Origin is the world position the layout is centered on.
	Origin() world.Vec2i
	// Radius bounds the layout footprint in world units.
	Radius() float32
	SpawnRules(wpos world.Vec2i) SpawnRules
}

// Generate dispatches to the generator for kind.
func Generate(kind Kind, wpos world.Vec2i, sim *world.WorldSim, rng *entropy.Rng) Layout {
	switch kind {
	case KindDungeon:
		return GenerateDungeon(wpos, sim, rng)
	case KindCastle:
		return GenerateCastle(wpos, sim, rng)
	default:
		return GenerateSettlement(wpos, sim, rng)
	}
}

// Contains reports whether wpos lies inside a layout's footprint radius.
func Contains(l Layout, wpos world.Vec2i) bool {
	return l.Origin().Dist(wpos) <= l.Radius()
}

func surfaceAlt(sim *world.WorldSim, wpos world.Vec2i) float32 {
	if c := sim.GetWpos(wpos); c != nil {
		return c.Alt
	}
	return sim.SeaLevel
}
