// Road network — chunk-level A* between sites, redundancy check over existing
// tracks, and stamping of path overlays onto the grid.
package civ

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/talgya/civworld/internal/pathfind"
	"github.com/talgya/civworld/internal/world"
)

// Road network constants.
const (
	MaxNeighborDistance = 2000
	MaxRoadNeighbors    = 5
	MaxRouteIters       = 100
	// RedundancyFactor: a new road is built only if it is this many times
	// cheaper than the best existing route.
	RedundancyFactor = 3
	RoadWidth        = 5
)

// FindPath runs the road A* between two chunks.
func FindPath(sim *world.WorldSim, a, b world.Vec2i) (pathfind.Result[world.Vec2i], bool) {
	return pathfind.Search[world.Vec2i]{
		Start:  a,
		IsGoal: func(n world.Vec2i) bool { return n == b },
		Neighbors: func(n world.Vec2i, yield func(world.Vec2i, float32)) {
			for _, d := range world.Neighbors {
				if cost, ok := WalkInDir(sim, n, d); ok {
					yield(n.Add(d), cost)
				}
			}
		},
		Heuristic: func(n world.Vec2i) float32 { return n.Dist(b) },
		MaxIters:  pathfind.MaxIters,
	}.Run()
}

// RouteBetween finds the cheapest existing route from a to b over the track
// graph.
func (c *Civs) RouteBetween(a, b SiteID) (pathfind.Result[SiteID], bool) {
	target := c.Site(b)
	if c.Site(a) == nil || target == nil {
		return pathfind.Result[SiteID]{}, false
	}
	return pathfind.Search[SiteID]{
		Start:  a,
		IsGoal: func(n SiteID) bool { return n == b },
		Neighbors: func(n SiteID, yield func(SiteID, float32)) {
			for _, m := range c.Neighbors(n) {
				tid, _ := c.TrackBetween(n, m)
				yield(m, c.Track(tid).Cost)
			}
		},
		Heuristic: func(n SiteID) float32 { return c.Site(n).Center.Dist(target.Center) },
		MaxIters:  MaxRouteIters,
	}.Run()
}

type nearbySite struct {
	id   SiteID
	dist float32
}

// connectRoads links a freshly inserted site to its nearest road-bearing
// neighbours.
func (c *Civs) connectRoads(ctx GenCtx, id SiteID) {
	s := c.Site(id)
	var nearby []nearbySite
	for i := range c.Sites {
		other := SiteID(i + 1)
		if other == id || !connectsRoads(c.Sites[i].Kind) {
			continue
		}
		if d := c.Sites[i].Center.Dist(s.Center); d < MaxNeighborDistance {
			nearby = append(nearby, nearbySite{other, d})
		}
	}
	sort.SliceStable(nearby, func(i, j int) bool { return nearby[i].dist < nearby[j].dist })
	if len(nearby) > MaxRoadNeighbors {
		nearby = nearby[:MaxRoadNeighbors]
	}

	for _, n := range nearby {
		res, ok := FindPath(ctx.Sim, s.Center, c.Site(n.id).Center)
		if !ok {
			slog.Debug("no road found", "from", id, "to", n.id)
			continue
		}
		if route, ok := c.RouteBetween(id, n.id); ok && res.Cost >= route.Cost/RedundancyFactor {
			continue
		}
		c.stampPath(ctx, res.Path)
		c.insertTrack(Track{A: id, B: n.id, Cost: res.Cost, Path: res.Path})
		slog.Debug("road built", "from", id, "to", n.id, "len", len(res.Path), "cost", res.Cost)
	}
}

// stampPath writes way bitmasks for every 3-chunk window of path. The middle
// chunk receives a random control offset unless it already carries a way.
func (c *Civs) stampPath(ctx GenCtx, path []world.Vec2i) {
	for i := 0; i+2 < len(path); i++ {
		prev, mid, next := path[i], path[i+1], path[i+2]
		toPrev, ok1 := world.NeighborIndex(prev.Sub(mid))
		toNext, ok2 := world.NeighborIndex(next.Sub(mid))
		fromPrev, _ := world.NeighborIndex(mid.Sub(prev))
		fromNext, _ := world.NeighborIndex(mid.Sub(next))
		if !ok1 || !ok2 {
			continue
		}

		m := ctx.Sim.Get(mid)
		if !m.Path.Way.IsWay() {
			m.Path.Way.Offset = [2]int8{int8(ctx.Rng.Int32Range(-16, 17)), int8(ctx.Rng.Int32Range(-16, 17))}
		}
		m.Path.Way.Neighbors |= 1<<uint(toPrev) | 1<<uint(toNext)
		m.Path.Path.Width = RoadWidth

		p := ctx.Sim.Get(prev)
		p.Path.Way.Neighbors |= 1 << uint(fromPrev)
		p.Path.Path.Width = RoadWidth
		n := ctx.Sim.Get(next)
		n.Path.Way.Neighbors |= 1 << uint(fromNext)
		n.Path.Path.Width = RoadWidth
	}
}

// TrackCost sums the walking cost along a chunk path against the current grid.
func TrackCost(sim *world.WorldSim, path []world.Vec2i) (float32, error) {
	var total float32
	for i := 0; i+1 < len(path); i++ {
		cost, ok := WalkInDir(sim, path[i], path[i+1].Sub(path[i]))
		if !ok {
			return 0, fmt.Errorf("track step %v -> %v is not walkable", path[i], path[i+1])
		}
		total += cost
	}
	return total, nil
}

// refreshTrackCosts recomputes every track's cost against the final terrain.
func (c *Civs) refreshTrackCosts(sim *world.WorldSim) error {
	for i := range c.Tracks {
		cost, err := TrackCost(sim, c.Tracks[i].Path)
		if err != nil {
			return fmt.Errorf("track %d: %w", i+1, err)
		}
		c.Tracks[i].Cost = cost
	}
	return nil
}
