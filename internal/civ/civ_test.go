package civ

import (
	"math"
	"testing"

	"github.com/talgya/civworld/internal/config"
	"github.com/talgya/civworld/internal/economy"
	"github.com/talgya/civworld/internal/entropy"
	"github.com/talgya/civworld/internal/noise"
	"github.com/talgya/civworld/internal/world"
)

func flatSim(lg uint8) *world.WorldSim {
	sim := world.NewWorldSim(world.MapSizeLg{X: lg, Y: lg}, 140)
	for i := range sim.Chunks {
		sim.Chunks[i].Alt = 200
		sim.Chunks[i].Basement = 180
		sim.Chunks[i].WaterAlt = 140
	}
	return sim
}

func generatedCivs(t *testing.T, seed uint32) (*world.WorldSim, *Civs) {
	t.Helper()
	cfg := config.DefaultWorldConfig()
	sim := world.NewWorldSim(world.MapSizeLg{X: 8, Y: 8}, cfg.SeaLevel)
	world.GenerateTerrain(sim, noise.New(seed), cfg)
	if _, err := world.SolveHydrology(sim); err != nil {
		t.Fatalf("hydrology: %v", err)
	}
	c, err := Generate(sim, seed)
	if err != nil {
		t.Fatalf("generate civs: %v", err)
	}
	return sim, c
}

func TestInitialCivCount(t *testing.T) {
	cases := []struct {
		lg   world.MapSizeLg
		want int
	}{
		{world.MapSizeLg{X: 10, Y: 10}, 48},
		{world.MapSizeLg{X: 8, Y: 8}, 3},
		{world.MapSizeLg{X: 9, Y: 8}, 6},
		{world.MapSizeLg{X: 7, Y: 7}, 0},
	}
	for _, c := range cases {
		if got := InitialCivCount(c.lg); got != c.want {
			t.Errorf("InitialCivCount(%v) = %d, want %d", c.lg, got, c.want)
		}
	}
}

func TestWalkInDirCosts(t *testing.T) {
	sim := flatSim(4)
	a := world.Vec2i{X: 5, Y: 5}

	if cost, ok := WalkInDir(sim, a, world.Vec2i{X: 1}); !ok || cost != 4 {
		t.Fatalf("flat wild step = %v,%v, want 4", cost, ok)
	}

	sim.Get(world.Vec2i{X: 6, Y: 5}).Path.Way.Neighbors = 1
	if cost, _ := WalkInDir(sim, a, world.Vec2i{X: 1}); cost != 1 {
		t.Fatalf("flat road step = %v, want 1", cost)
	}

	sim.Get(world.Vec2i{X: 5, Y: 6}).Alt = 210
	if cost, _ := WalkInDir(sim, a, world.Vec2i{Y: 1}); cost != 8 {
		t.Fatalf("uphill step = %v, want 8", cost)
	}

	river := sim.Get(world.Vec2i{X: 4, Y: 5})
	river.River.Kind = world.RiverRiver
	river.WaterAlt = river.Alt
	if cost, _ := WalkInDir(sim, a, world.Vec2i{X: -1}); cost != 78 {
		t.Fatalf("river step = %v, want 78", cost)
	}

	sim.Get(world.Vec2i{X: 5, Y: 4}).River.Kind = world.RiverLake
	if _, ok := WalkInDir(sim, a, world.Vec2i{Y: -1}); ok {
		t.Fatalf("lake step must not be walkable")
	}
	if _, ok := WalkInDir(sim, world.Vec2i{}, world.Vec2i{X: -1, Y: -1}); ok {
		t.Fatalf("step off the map must not be walkable")
	}
}

func TestFindSiteLocSkipsWater(t *testing.T) {
	sim := flatSim(4)
	for i := range sim.Chunks {
		sim.Chunks[i].River.Kind = world.RiverOcean
	}
	dry := world.Vec2i{X: 9, Y: 9}
	sim.Get(dry).River.Kind = world.RiverNone

	c := newCivs()
	ctx := GenCtx{Sim: sim, Rng: entropy.New(1, entropy.PhaseCivs)}
	loc, ok := c.FindSiteLoc(ctx, &Near{Pos: dry, Dist: 0}, 1)
	if !ok || loc != dry {
		t.Fatalf("FindSiteLoc = %v,%v, want %v", loc, ok, dry)
	}
	c.occupied[dry] = true
	if _, ok := c.FindSiteLoc(ctx, &Near{Pos: dry, Dist: 0}, 1); ok {
		t.Fatalf("occupied chunk must not be offered again")
	}
}

func TestEstablishPlaceBounds(t *testing.T) {
	sim := flatSim(4)
	c := newCivs()
	ctx := GenCtx{Sim: sim, Rng: entropy.New(4, entropy.PhaseCivs)}
	id, ok := c.EstablishPlace(ctx, world.Vec2i{X: 8, Y: 8})
	if !ok {
		t.Fatalf("place on flat land failed")
	}
	p := c.Place(id)
	if n := len(p.Chunks); n <= SiteAreaMin || n > SiteAreaMax+2 {
		t.Fatalf("place has %d chunks", n)
	}
	for _, cell := range p.Chunks {
		if sim.Get(cell).Place != id {
			t.Fatalf("chunk %v not tagged with its place", cell)
		}
	}

	// A lone dry chunk cannot host a place.
	island := flatSim(4)
	for i := range island.Chunks {
		island.Chunks[i].River.Kind = world.RiverOcean
	}
	island.Get(world.Vec2i{X: 3, Y: 3}).River.Kind = world.RiverNone
	c2 := newCivs()
	if _, ok := c2.EstablishPlace(GenCtx{Sim: island, Rng: entropy.New(4, entropy.PhaseCivs)}, world.Vec2i{X: 3, Y: 3}); ok {
		t.Fatalf("single-chunk place must be rejected")
	}
}

func TestRoadBetweenSettlements(t *testing.T) {
	sim := flatSim(5)
	c := newCivs()
	ctx := GenCtx{Sim: sim, Rng: entropy.New(7, entropy.PhaseCivs)}
	a, ok := c.EstablishSite(ctx, world.Vec2i{X: 4, Y: 4}, KindSettlement)
	if !ok {
		t.Fatalf("first site failed")
	}
	b, ok := c.EstablishSite(ctx, world.Vec2i{X: 20, Y: 12}, KindSettlement)
	if !ok {
		t.Fatalf("second site failed")
	}
	tid, ok := c.TrackBetween(a, b)
	if !ok {
		t.Fatalf("no track between %d and %d", a, b)
	}
	if back, _ := c.TrackBetween(b, a); back != tid {
		t.Fatalf("track map not symmetric")
	}
	tr := c.Track(tid)
	for _, p := range tr.Path {
		if !sim.Get(p).Path.Way.IsWay() {
			t.Fatalf("track chunk %v not stamped", p)
		}
	}
	cost, err := TrackCost(sim, tr.Path)
	if err != nil {
		t.Fatalf("track cost: %v", err)
	}
	// Every step was wild when the road was routed and is a way now.
	if want := tr.Cost - 3*float32(len(tr.Path)-1); math.Abs(float64(cost-want)) > 1e-2 {
		t.Fatalf("stamped cost %v, want %v", cost, want)
	}

	// A third settlement beside b links to it directly.
	cid, _ := c.EstablishSite(ctx, world.Vec2i{X: 21, Y: 13}, KindSettlement)
	if _, ok := c.TrackBetween(cid, b); !ok {
		t.Fatalf("nearest neighbour not connected")
	}
}

func TestWayBitmasksAreSymmetric(t *testing.T) {
	sim := flatSim(6)
	GenerateCaves(GenCtx{Sim: sim, Rng: entropy.New(5, entropy.PhaseCaves)})
	caves := 0
	for i := range sim.Chunks {
		pos := sim.PosOf(i)
		w := sim.Chunks[i].Cave.Way
		if !w.IsWay() {
			continue
		}
		caves++
		for bit, d := range world.Neighbors {
			if w.Neighbors&(1<<uint(bit)) == 0 {
				continue
			}
			back, _ := world.NeighborIndex(world.Vec2i{X: -d.X, Y: -d.Y})
			n := sim.Get(pos.Add(d))
			if n == nil || n.Cave.Way.Neighbors&(1<<uint(back)) == 0 {
				t.Fatalf("cave link %v -> %v is one-sided", pos, pos.Add(d))
			}
		}
		if w := sim.Chunks[i].Cave.Cave.Width; w < 6 || w > 32 {
			t.Fatalf("cave width %v out of range", w)
		}
	}
	if caves == 0 {
		t.Fatalf("no caves stamped")
	}
}

func TestFlattenFactor(t *testing.T) {
	if FlattenFactor(0) != 1 {
		t.Fatalf("center factor must be 1")
	}
	if FlattenFactor(FlattenRadius) != 0 || FlattenFactor(FlattenRadius+5) != 0 {
		t.Fatalf("factor must vanish at the radius")
	}
	if f := FlattenFactor(FlattenRadius / 2); f <= 0 || f >= 1 {
		t.Fatalf("mid factor %v not in (0,1)", f)
	}
}

func TestFlattenKeepsLakePass(t *testing.T) {
	sim := flatSim(6)
	lake, pass, plain := world.Vec2i{X: 20, Y: 20}, world.Vec2i{X: 21, Y: 20}, world.Vec2i{X: 22, Y: 21}
	lc := sim.Get(lake)
	lc.River.Kind = world.RiverLake
	lc.River.PassPos = pass
	lc.Alt, lc.WaterAlt = 190, 200

	center := world.Vec2i{X: 24, Y: 20}
	cc := sim.Get(center)
	cc.Alt, cc.Basement = 100, 80

	c := newCivs()
	c.Sites = append(c.Sites, Site{Kind: KindCastle, Center: center})
	c.flattenSites(GenCtx{Sim: sim, Rng: entropy.New(3, entropy.PhaseFlatten)})

	if got := sim.Get(pass).Alt; got < lc.WaterAlt {
		t.Fatalf("pass lowered to %v below lake water %v", got, lc.WaterAlt)
	}
	if got := sim.Get(plain).Alt; got >= 200 {
		t.Fatalf("plain chunk next to the pass not flattened: %v", got)
	}
	if lc.Alt != 190 || lc.WaterAlt != 200 {
		t.Fatalf("lake chunk moved: alt %v water %v", lc.Alt, lc.WaterAlt)
	}
}

func TestNamesStayDistinct(t *testing.T) {
	n := &namer{rng: entropy.New(1, entropy.PhaseNames)}
	for i := 0; i < 300; i++ {
		n.pick(namePrefixes, settlementSuffixes)
	}
	for i := range n.used {
		for j := i + 1; j < len(n.used); j++ {
			if n.used[i] == n.used[j] {
				t.Fatalf("duplicate name %q", n.used[i])
			}
		}
	}
}

func TestZeroYearTickIsIdentity(t *testing.T) {
	sim := flatSim(5)
	c := newCivs()
	ctx := GenCtx{Sim: sim, Rng: entropy.New(2, entropy.PhaseCivs)}
	c.EstablishSite(ctx, world.Vec2i{X: 4, Y: 4}, KindSettlement)
	c.EstablishSite(ctx, world.Vec2i{X: 12, Y: 4}, KindSettlement)
	c.Tick(1)
	before := c.Sites[0].Economy.Clone()
	c.Tick(0)
	after := c.Sites[0].Economy
	if before.Population != after.Population || before.Coin != after.Coin {
		t.Fatalf("zero-year tick changed the economy")
	}
	for i := range before.Stocks.Data {
		if before.Stocks.Data[i] != after.Stocks.Data[i] || before.LastExports.Data[i] != after.LastExports.Data[i] {
			t.Fatalf("zero-year tick changed stock %d", i)
		}
	}
}

func TestTradeVolumeSumsExports(t *testing.T) {
	sim := flatSim(5)
	c := newCivs()
	ctx := GenCtx{Sim: sim, Rng: entropy.New(2, entropy.PhaseCivs)}
	c.EstablishSite(ctx, world.Vec2i{X: 4, Y: 4}, KindSettlement)
	c.EstablishSite(ctx, world.Vec2i{X: 12, Y: 4}, KindSettlement)
	for i := range c.Sites {
		c.Sites[i].Economy.ResetExports()
	}
	if v := c.TradeVolume(); v != 0 {
		t.Fatalf("volume after reset = %v", v)
	}
	c.Sites[0].Economy.LastExports.Set(economy.Wood, 3)
	c.Sites[1].Economy.LastExports.Set(economy.Stone, 4.5)
	if v := c.TradeVolume(); v != 7.5 {
		t.Fatalf("volume = %v, want 7.5", v)
	}
}

func TestGenerateInvariants(t *testing.T) {
	if testing.Short() {
		t.Skip("full civ generation")
	}
	sim, c := generatedCivs(t, 2)

	if len(c.Civs) == 0 {
		t.Fatalf("no civilisations born")
	}
	for i, s := range c.Sites {
		id := SiteID(i + 1)
		if got := sim.Get(s.Center).Place; got != s.Place {
			t.Fatalf("site %d center place = %d, want %d", id, got, s.Place)
		}
		if c.Layout(id) == nil {
			t.Fatalf("site %d has no layout", id)
		}
		if s.Name == "" {
			t.Fatalf("site %d unnamed", id)
		}
		if !hasSite(sim.Get(s.Center).Sites, id) {
			t.Fatalf("site %d missing from its center chunk", id)
		}
	}
	for a, m := range c.TrackMap {
		for b, id := range m {
			if back := c.TrackMap[b][a]; back != id {
				t.Fatalf("track map asymmetric for %d,%d", a, b)
			}
		}
	}
	for i, tr := range c.Tracks {
		for _, p := range tr.Path {
			if !LocSuitableForWalking(sim, p) {
				t.Fatalf("track %d passes unwalkable chunk %v", i+1, p)
			}
		}
		cost, err := TrackCost(sim, tr.Path)
		if err != nil || math.Abs(float64(cost-tr.Cost)) > 1e-2 {
			t.Fatalf("track %d cost %v, recomputed %v (%v)", i+1, tr.Cost, cost, err)
		}
	}
	if err := world.Verify(sim); err != nil {
		t.Fatalf("grid invariants after civ generation: %v", err)
	}
}

func TestGenerateDeterministic(t *testing.T) {
	if testing.Short() {
		t.Skip("full civ generation")
	}
	_, a := generatedCivs(t, 3)
	_, b := generatedCivs(t, 3)
	if len(a.Sites) != len(b.Sites) || len(a.Tracks) != len(b.Tracks) {
		t.Fatalf("entity counts differ: %d/%d sites, %d/%d tracks", len(a.Sites), len(b.Sites), len(a.Tracks), len(b.Tracks))
	}
	for i := range a.Sites {
		if a.Sites[i].Center != b.Sites[i].Center || a.Sites[i].Name != b.Sites[i].Name {
			t.Fatalf("site %d differs", i+1)
		}
		if a.Sites[i].Economy.Population != b.Sites[i].Economy.Population {
			t.Fatalf("site %d economy differs", i+1)
		}
	}
}
