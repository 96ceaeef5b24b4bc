package world

import (
	"math"
	"testing"

	"github.com/talgya/civworld/internal/config"
	"github.com/talgya/civworld/internal/noise"
)

func generated(t *testing.T, seed uint32, lg MapSizeLg) *WorldSim {
	t.Helper()
	cfg := config.DefaultWorldConfig()
	sim := NewWorldSim(lg, cfg.SeaLevel)
	GenerateTerrain(sim, noise.New(seed), cfg)
	if _, err := SolveHydrology(sim); err != nil {
		t.Fatalf("hydrology: %v", err)
	}
	return sim
}

func TestWposToChunkEuclidean(t *testing.T) {
	cases := []struct {
		in, want Vec2i
	}{
		{Vec2i{0, 0}, Vec2i{0, 0}},
		{Vec2i{31, 32}, Vec2i{0, 1}},
		{Vec2i{-1, -32}, Vec2i{-1, -1}},
		{Vec2i{-33, 64}, Vec2i{-2, 2}},
	}
	for _, c := range cases {
		if got := WposToChunk(c.in); got != c.want {
			t.Errorf("WposToChunk(%v) = %v, want %v", c.in, got, c.want)
		}
	}
	if got := WposToChunk(ChunkCenterWpos(Vec2i{5, 7})); got != (Vec2i{5, 7}) {
		t.Fatalf("center does not map back to its chunk: %v", got)
	}
}

func TestSpiralCoversSquare(t *testing.T) {
	offs := Spiral(25)
	if offs[0] != (Vec2i{}) {
		t.Fatalf("spiral must start at origin")
	}
	seen := map[Vec2i]bool{}
	for _, o := range offs {
		if o.X < -2 || o.X > 2 || o.Y < -2 || o.Y > 2 {
			t.Fatalf("offset %v outside radius 2", o)
		}
		if seen[o] {
			t.Fatalf("duplicate offset %v", o)
		}
		seen[o] = true
	}
	if len(seen) != 25 {
		t.Fatalf("expected 25 offsets, got %d", len(seen))
	}
}

func TestGetOutOfBounds(t *testing.T) {
	sim := NewWorldSim(MapSizeLg{4, 4}, 140)
	for _, p := range []Vec2i{{-1, 0}, {0, -1}, {16, 0}, {0, 16}} {
		if sim.Get(p) != nil {
			t.Fatalf("Get(%v) should be nil", p)
		}
	}
	if sim.Get(Vec2i{15, 15}) == nil {
		t.Fatalf("Get(15,15) should be in bounds")
	}
	if _, ok := sim.GetInterpolated(Vec2i{-1, 5}, func(c *SimChunk) float32 { return c.Alt }); ok {
		t.Fatalf("interpolation outside the map should fail")
	}
}

func TestInterpolationExactAtCenters(t *testing.T) {
	sim := generated(t, 9, MapSizeLg{6, 6})
	alt := func(c *SimChunk) float32 { return c.Alt }
	for _, p := range []Vec2i{{0, 0}, {10, 20}, {63, 63}, {31, 2}} {
		want := sim.Get(p).Alt
		got, ok := sim.GetInterpolatedMonotone(ChunkCenterWpos(p), alt)
		if !ok || got != want {
			t.Fatalf("monotone at %v = %v, want %v", p, got, want)
		}
		got, ok = sim.GetInterpolated(ChunkCenterWpos(p), alt)
		if !ok || got != want {
			t.Fatalf("bilinear at %v = %v, want %v", p, got, want)
		}
	}
}

func TestMonotoneCubicStaysInSegment(t *testing.T) {
	cases := [][4]float64{
		{0, 1, 2, 3},
		{0, 0, 10, 10},
		{5, 1, 9, 2},
		{0, 1, 100, 101},
		{10, 9, 9, 0},
		{-3, 4, 4.5, 200},
	}
	for _, p := range cases {
		lo, hi := math.Min(p[1], p[2]), math.Max(p[1], p[2])
		for i := 0; i <= 64; i++ {
			tt := float64(i) / 64
			v := monotoneCubic(p[0], p[1], p[2], p[3], tt)
			if v < lo-1e-9 || v > hi+1e-9 {
				t.Fatalf("points %v at t=%v: %v outside [%v, %v]", p, tt, v, lo, hi)
			}
		}
		if monotoneCubic(p[0], p[1], p[2], p[3], 0) != p[1] {
			t.Fatalf("points %v: not exact at t=0", p)
		}
	}
}

func TestHydrologyInvariants(t *testing.T) {
	for _, seed := range []uint32{0, 1, 2} {
		sim := generated(t, seed, MapSizeLg{7, 7})
		sz := sim.Size()
		rivers, lakes := 0, 0
		for i := range sim.Chunks {
			c := &sim.Chunks[i]
			pos := sim.PosOf(i)
			if c.Downhill != nil && !sim.InBounds(*c.Downhill) {
				t.Fatalf("seed %d: border chunk %v drains off the map", seed, pos)
			}
			if pos.X == 0 || pos.Y == 0 || pos.X == sz.X-1 || pos.Y == sz.Y-1 {
				if !c.River.IsOcean() {
					t.Fatalf("seed %d: border chunk %v is not ocean", seed, pos)
				}
			}
			switch c.River.Kind {
			case RiverRiver:
				rivers++
				down := sim.Get(*c.Downhill)
				if c.WaterAlt < down.WaterAlt {
					t.Fatalf("seed %d: river %v water %.3f below downhill %.3f", seed, pos, c.WaterAlt, down.WaterAlt)
				}
				w := c.River.CrossSection
				if w[0] < RiverMinWidth || w[1] < RiverMinDepth {
					t.Fatalf("seed %d: river %v has degenerate cross section %v", seed, pos, w)
				}
			case RiverLake:
				lakes++
				pass := sim.Get(c.River.PassPos)
				if pass == nil || (pass.River.IsLake() && pass.WaterAlt == c.WaterAlt) {
					t.Fatalf("seed %d: lake %v has bad pass %v", seed, pos, c.River.PassPos)
				}
			}
			// Following downhill terminates at an ocean.
			p, steps := pos, 0
			for {
				cc := sim.Get(p)
				if cc.Downhill == nil {
					if !cc.River.IsOcean() {
						t.Fatalf("seed %d: chain from %v ends at non-ocean sink %v", seed, pos, p)
					}
					break
				}
				p = *cc.Downhill
				steps++
				if steps > sim.ChunkCount() {
					t.Fatalf("seed %d: downhill cycle from %v", seed, pos)
				}
			}
		}
		if rivers == 0 {
			t.Fatalf("seed %d: no rivers generated", seed)
		}
		_ = lakes
	}
}

func TestVerifyRejectsLakeAbovePass(t *testing.T) {
	sim := generated(t, 0, MapSizeLg{7, 7})
	if err := Verify(sim); err != nil {
		t.Fatalf("fresh grid: %v", err)
	}
	for i := range sim.Chunks {
		c := &sim.Chunks[i]
		if !c.River.IsLake() {
			continue
		}
		pass := sim.Get(c.River.PassPos)
		if pass.River.IsOcean() {
			continue
		}
		if pass.Alt < c.WaterAlt {
			t.Fatalf("lake %v water %.3f above pass alt %.3f", sim.PosOf(i), c.WaterAlt, pass.Alt)
		}
		pass.Alt = c.WaterAlt - 5
		pass.Basement = min(pass.Basement, pass.Alt)
		if err := Verify(sim); err == nil {
			t.Fatalf("lowered pass %v accepted", c.River.PassPos)
		}
		return
	}
	t.Skip("seed produced no inland lake")
}

func TestRiverCrossSectionMonotone(t *testing.T) {
	prev := RiverCrossSection(RiverFluxThreshold)
	for f := float32(RiverFluxThreshold + 1); f < 5000; f *= 1.5 {
		cur := RiverCrossSection(f)
		if cur[0] < prev[0] || cur[1] < prev[1] {
			t.Fatalf("cross section shrank at flux %v: %v < %v", f, cur, prev)
		}
		prev = cur
	}
}

func TestNearestPathFollowsSegment(t *testing.T) {
	sim := NewWorldSim(MapSizeLg{4, 4}, 140)
	// A straight east-west road through chunks (3,5), (4,5), (5,5).
	east, _ := NeighborIndex(Vec2i{1, 0})
	west, _ := NeighborIndex(Vec2i{-1, 0})
	sim.Get(Vec2i{3, 5}).Path = PathOverlay{Way: Way{Neighbors: 1 << east}, Path: Path{Width: 5}}
	sim.Get(Vec2i{4, 5}).Path = PathOverlay{Way: Way{Neighbors: 1<<east | 1<<west}, Path: Path{Width: 5}}
	sim.Get(Vec2i{5, 5}).Path = PathOverlay{Way: Way{Neighbors: 1 << west}, Path: Path{Width: 5}}

	center := ChunkCenterWpos(Vec2i{4, 5})
	q := Vec2i{center.X + 3, center.Y + 7}
	nw := sim.GetNearestPath(q)
	if nw == nil {
		t.Fatalf("expected a path")
	}
	if math.Abs(float64(nw.Dist)-7) > 1e-4 {
		t.Fatalf("distance = %v, want 7", nw.Dist)
	}
	if nw.Meta.Width != 5 {
		t.Fatalf("width = %v", nw.Meta.Width)
	}
	if math.Abs(float64(nw.Tangent[1])) > 1e-6 {
		t.Fatalf("tangent should be horizontal, got %v", nw.Tangent)
	}
	if sim.GetNearestCave(q) != nil {
		t.Fatalf("no caves were stamped")
	}
}
