// Site search and establishment — suitability tests, place flooding, site insertion.
package civ

import (
	"math"

	"github.com/talgya/civworld/internal/economy"
	"github.com/talgya/civworld/internal/world"
)

// Site search constants.
const (
	MaxSiteAttempts = 100
	BirthAttempts   = 5
	// Place sizes are bounded to SiteAreaMin..SiteAreaMax chunks (exclusive).
	SiteAreaMin = 1
	SiteAreaMax = 4
	// natResScale converts per-chunk scalars into yearly raw stock amounts.
	natResScale = 50
)

// InitialCivCount is the number of civilizations seeded on a map of size lg.
func InitialCivCount(lg world.MapSizeLg) int {
	return (3 << (uint(lg.X) + uint(lg.Y))) >> 16
}

// LocSuitableForSite reports whether a site may be centered on chunk loc:
// dry land with a gentle slope.
func LocSuitableForSite(sim *world.WorldSim, loc world.Vec2i) bool {
	c := sim.Get(loc)
	if c == nil || c.River.NearWater() {
		return false
	}
	g, ok := sim.GetGradientApprox(loc)
	return ok && g < 1
}

// LocSuitableForWalking reports whether a road may pass through chunk loc.
func LocSuitableForWalking(sim *world.WorldSim, loc world.Vec2i) bool {
	c := sim.Get(loc)
	return c != nil && !c.River.IsOcean() && !c.River.IsLake()
}

func siteInDir(sim *world.WorldSim, a, dir world.Vec2i) bool {
	return LocSuitableForSite(sim, a) && LocSuitableForSite(sim, a.Add(dir))
}

// WalkInDir returns the cost of stepping from chunk a to a+dir, or false when
// either end is not walkable.
func WalkInDir(sim *world.WorldSim, a, dir world.Vec2i) (float32, bool) {
	b := a.Add(dir)
	if !LocSuitableForWalking(sim, a) || !LocSuitableForWalking(sim, b) {
		return 0, false
	}
	ac, bc := sim.Get(a), sim.Get(b)

	hill := float32(math.Abs(float64(bc.Alt-ac.Alt))) / 5
	hillCost := hill * hill

	var waterCost float32
	if bc.River.NearWater() {
		waterCost = 50
	}
	waterCost += max(0, min(bc.WaterAlt-bc.Alt+8, 8)) * 3

	wildCost := float32(3)
	if bc.Path.Way.IsWay() {
		wildCost = 0
	}
	return 1 + hillCost + waterCost + wildCost, true
}

// Near constrains a site search to a disc around Pos.
type Near struct {
	Pos  world.Vec2i
	Dist float32
}

// FindSiteLoc looks for a chunk suitable for a site of the given size. Each
// attempt scans a (2·size+1)² spiral around the candidate; failing that it
// follows the candidate's downhill, or picks afresh once it reaches a sink.
func (c *Civs) FindSiteLoc(ctx GenCtx, near *Near, size int) (world.Vec2i, bool) {
	sz := ctx.Sim.Size()
	scan := world.Spiral((size*2 + 1) * (size*2 + 1))

	var next *world.Vec2i
	for attempt := 0; attempt < MaxSiteAttempts; attempt++ {
		var loc world.Vec2i
		switch {
		case next != nil:
			loc = *next
		case near != nil:
			dir := [2]float32{ctx.Rng.Range(-1, 1), ctx.Rng.Range(-1, 1)}
			l := float32(math.Hypot(float64(dir[0]), float64(dir[1])))
			if l > 0 {
				dir[0], dir[1] = dir[0]/l, dir[1]/l
			}
			r := ctx.Rng.Float32() * near.Dist
			loc = near.Pos.Add(world.Vec2i{X: int32(dir[0] * r), Y: int32(dir[1] * r)})
		default:
			loc = world.Vec2i{X: ctx.Rng.Int32Range(0, sz.X-1), Y: ctx.Rng.Int32Range(0, sz.Y-1)}
		}

		for _, off := range scan {
			p := loc.Add(off)
			if LocSuitableForSite(ctx.Sim, p) && !c.occupied[p] {
				return p, true
			}
		}

		next = nil
		if ch := ctx.Sim.Get(loc); ch != nil && ch.Downhill != nil {
			d := *ch.Downhill
			next = &d
		}
	}
	return world.Vec2i{}, false
}

// includeChunk adds a chunk's yield to a place's natural resources.
func includeChunk(sim *world.WorldSim, nat *economy.NaturalResources, loc world.Vec2i) {
	ch := sim.Get(loc)
	if ch == nil {
		return
	}
	nat.Wood += ch.TreeDensity * natResScale
	nat.Rock += ch.Rockiness * natResScale
	for _, d := range world.Cardinals {
		if n := sim.Get(loc.Add(d)); n != nil && (n.River.IsRiver() || n.River.IsLake()) {
			nat.River += 0.25 * natResScale
		}
	}
	g, ok := sim.GetGradientApprox(loc)
	if ch.Humidity > 0.35 && ch.Temp > -0.3 && ch.Temp < 0.75 && ch.Chaos < 0.5 && ok && g < 0.7 {
		nat.Farmland += natResScale
	}
}

// EstablishPlace floods a contiguous region of suitable chunks around loc and
// registers it as a new place. It fails when the region is a single chunk.
func (c *Civs) EstablishPlace(ctx GenCtx, loc world.Vec2i) (PlaceID, bool) {
	alive := []world.Vec2i{loc}
	inAlive := map[world.Vec2i]bool{loc: true}
	var dead []world.Vec2i
	inDead := map[world.Vec2i]bool{}

	for len(alive) > 0 {
		i := ctx.Rng.IntN(len(alive))
		cur := alive[i]
		for _, d := range world.Cardinals {
			r := cur.Add(d)
			if !siteInDir(ctx.Sim, cur, d) || inDead[r] || inAlive[r] {
				continue
			}
			if ch := ctx.Sim.Get(r); ch != nil && ch.Place == 0 {
				alive = append(alive, r)
				inAlive[r] = true
			}
		}
		alive = append(alive[:i], alive[i+1:]...)
		delete(inAlive, cur)
		dead = append(dead, cur)
		inDead[cur] = true

		if len(dead)+len(alive) >= SiteAreaMax {
			break
		}
	}
	if len(dead)+len(alive) <= SiteAreaMin {
		return 0, false
	}

	cells := append(dead, alive...)
	id := c.insertPlace(Place{Center: loc})
	p := c.Place(id)
	for _, cell := range cells {
		ch := ctx.Sim.Get(cell)
		if ch == nil {
			continue
		}
		ch.Place = id
		p.Chunks = append(p.Chunks, cell)
		includeChunk(ctx.Sim, &p.NatRes, cell)
	}
	return id, true
}

// EstablishSite creates a site of the given kind at loc, joining or creating
// its place, and connects settlements and castles to the road network.
func (c *Civs) EstablishSite(ctx GenCtx, loc world.Vec2i, kind SiteKind) (SiteID, bool) {
	ch := ctx.Sim.Get(loc)
	if ch == nil {
		return 0, false
	}
	place := ch.Place
	if place == 0 {
		var ok bool
		if place, ok = c.EstablishPlace(ctx, loc); !ok {
			return 0, false
		}
	}

	id := c.insertSite(Site{
		Kind:    kind,
		Center:  loc,
		Place:   place,
		Economy: economy.New(),
	})
	ch.Sites = append(ch.Sites, id)

	if connectsRoads(kind) {
		c.connectRoads(ctx, id)
	}
	return id, true
}

// birthCiv founds a civilization around a new settlement.
func (c *Civs) birthCiv(ctx GenCtx) (CivID, bool) {
	for attempt := 0; attempt < BirthAttempts; attempt++ {
		loc, ok := c.FindSiteLoc(ctx, nil, 1)
		if !ok {
			continue
		}
		sid, ok := c.EstablishSite(ctx, loc, KindSettlement)
		if !ok {
			continue
		}
		return c.insertCiv(Civ{Capital: sid, Homeland: c.Site(sid).Place}), true
	}
	return 0, false
}
