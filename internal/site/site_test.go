package site

import (
	"reflect"
	"testing"

	"github.com/talgya/civworld/internal/entropy"
	"github.com/talgya/civworld/internal/world"
)

func flatWorld() *world.WorldSim {
	sim := world.NewWorldSim(world.MapSizeLg{X: 5, Y: 5}, 140)
	for i := range sim.Chunks {
		sim.Chunks[i].Alt = 200
		sim.Chunks[i].WaterAlt = 140
	}
	return sim
}

func TestLayoutsAreDeterministic(t *testing.T) {
	sim := flatWorld()
	center := world.ChunkCenterWpos(world.Vec2i{X: 16, Y: 16})
	for _, k := range []Kind{KindSettlement, KindDungeon, KindCastle} {
		a := Generate(k, center, sim, entropy.New(3, entropy.PhaseSites))
		b := Generate(k, center, sim, entropy.New(3, entropy.PhaseSites))
		if !reflect.DeepEqual(a, b) {
			t.Fatalf("%s layout differs between runs", k)
		}
		if a.Kind() != k {
			t.Fatalf("kind = %s, want %s", a.Kind(), k)
		}
		if a.Origin() != center {
			t.Fatalf("%s origin = %v", k, a.Origin())
		}
	}
}

func TestSpawnRulesClearFootprint(t *testing.T) {
	sim := flatWorld()
	center := world.ChunkCenterWpos(world.Vec2i{X: 16, Y: 16})
	for _, k := range []Kind{KindSettlement, KindDungeon, KindCastle} {
		l := Generate(k, center, sim, entropy.New(9, entropy.PhaseSites))
		if l.SpawnRules(center).Trees {
			t.Fatalf("%s allows trees at its center", k)
		}
		far := world.Vec2i{X: center.X + int32(l.Radius()) + 10, Y: center.Y}
		if !l.SpawnRules(far).Trees {
			t.Fatalf("%s forbids trees outside its radius", k)
		}
		if !Contains(l, center) || Contains(l, far) {
			t.Fatalf("%s footprint containment wrong", k)
		}
	}
}

func TestSettlementPlotsDoNotOverlap(t *testing.T) {
	sim := flatWorld()
	s := GenerateSettlement(world.ChunkCenterWpos(world.Vec2i{X: 16, Y: 16}), sim, entropy.New(1, entropy.PhaseSites))
	if len(s.Plots) == 0 {
		t.Fatalf("expected house plots")
	}
	for i := range s.Plots {
		for j := i + 1; j < len(s.Plots); j++ {
			if s.Plots[i].overlaps(s.Plots[j], 0) {
				t.Fatalf("plots %d and %d overlap", i, j)
			}
		}
		if s.SpawnRules(world.Vec2i{X: (s.Plots[i].Min.X + s.Plots[i].Max.X) / 2, Y: (s.Plots[i].Min.Y + s.Plots[i].Max.Y) / 2}).Trees {
			t.Fatalf("tree allowed inside plot %d", i)
		}
	}
}

func TestDungeonHasBossFloor(t *testing.T) {
	d := GenerateDungeon(world.Vec2i{X: 100, Y: 100}, flatWorld(), entropy.New(2, entropy.PhaseSites))
	last := d.Floors[len(d.Floors)-1]
	if !last.Rooms[len(last.Rooms)-1].Boss {
		t.Fatalf("deepest floor lacks a boss room")
	}
	for i := 1; i < len(d.Floors); i++ {
		if d.Floors[i].Depth <= d.Floors[i-1].Depth {
			t.Fatalf("floors not ordered by depth")
		}
	}
}
