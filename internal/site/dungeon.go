// Dungeon layout — a surface entrance above stacked floors of rooms.
package site

import (
	"math"

	"github.com/talgya/civworld/internal/entropy"
	"github.com/talgya/civworld/internal/world"
)

// Room is a circular chamber, relative to the dungeon origin.
type Room struct {
	Offset world.Vec2i
	Radius float32
	Boss   bool
}

// Floor is one level of a dungeon.
type Floor struct {
	Depth float32 // Below the entrance altitude
	Rooms []Room
}

// Dungeon is an underground site.
type Dungeon struct {
	origin     world.Vec2i
	radius     float32
	Alt        float32
	Difficulty uint32
	Floors     []Floor
}

// GenerateDungeon lays out a dungeon under wpos.
func GenerateDungeon(wpos world.Vec2i, sim *world.WorldSim, rng *entropy.Rng) *Dungeon {
	d := &Dungeon{
		origin:     wpos,
		Alt:        surfaceAlt(sim, wpos),
		Difficulty: uint32(rng.IntN(6)),
	}

	floors := 2 + rng.IntN(3)
	extent := float32(24)
	for f := 0; f < floors; f++ {
		fl := Floor{Depth: float32(f+1) * 20}
		rooms := 3 + rng.IntN(4)
		for r := 0; r < rooms; r++ {
			a := float64(rng.Range(0, 2*math.Pi))
			dist := rng.Range(8, 40+float32(f)*12)
			room := Room{
				Offset: world.Vec2i{X: int32(math.Cos(a) * float64(dist)), Y: int32(math.Sin(a) * float64(dist))},
				Radius: rng.Range(5, 11),
			}
			if reach := dist + room.Radius; reach > extent {
				extent = reach
			}
			fl.Rooms = append(fl.Rooms, room)
		}
		if f == floors-1 {
			fl.Rooms = append(fl.Rooms, Room{Radius: 14, Boss: true})
		}
		d.Floors = append(d.Floors, fl)
	}
	d.radius = extent + 16
	return d
}

func (d *Dungeon) Kind() Kind          { return KindDungeon }
func (d *Dungeon) Origin() world.Vec2i { return d.origin }
func (d *Dungeon) Radius() float32     { return d.radius }

// SpawnRules keeps the entrance clearing free of trees.
func (d *Dungeon) SpawnRules(wpos world.Vec2i) SpawnRules {
	return SpawnRules{Trees: d.origin.Dist(wpos) > 24}
}
