// Castle layout — a polygonal curtain wall with towers, a gate and a keep.
package site

import (
	"math"

	"github.com/talgya/civworld/internal/entropy"
	"github.com/talgya/civworld/internal/world"
)

// Castle is a fortified site.
type Castle struct {
	origin     world.Vec2i
	Alt        float32
	WallRadius float32
	KeepRadius float32
	Towers     []world.Vec2i // Relative to origin, in wall order
	Gate       int           // Index of the wall segment holding the gate
}

// GenerateCastle lays out a castle around wpos.
func GenerateCastle(wpos world.Vec2i, sim *world.WorldSim, rng *entropy.Rng) *Castle {
	c := &Castle{
		origin:     wpos,
		Alt:        surfaceAlt(sim, wpos),
		WallRadius: rng.Range(40, 64),
		KeepRadius: rng.Range(10, 16),
	}
	n := 4 + rng.IntN(4)
	phase := float64(rng.Range(0, 2*math.Pi))
	for i := 0; i < n; i++ {
		a := phase + 2*math.Pi*float64(i)/float64(n) + float64(rng.Range(-0.2, 0.2))
		r := float64(c.WallRadius * rng.Range(0.85, 1))
		c.Towers = append(c.Towers, world.Vec2i{X: int32(math.Cos(a) * r), Y: int32(math.Sin(a) * r)})
	}
	c.Gate = rng.IntN(n)
	return c
}

func (c *Castle) Kind() Kind          { return KindCastle }
func (c *Castle) Origin() world.Vec2i { return c.origin }
func (c *Castle) Radius() float32     { return c.WallRadius + 16 }

// SpawnRules keeps the bailey and a strip outside the wall clear.
func (c *Castle) SpawnRules(wpos world.Vec2i) SpawnRules {
	return SpawnRules{Trees: c.origin.Dist(wpos) > c.WallRadius+8}
}
