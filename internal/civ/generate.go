package civ

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/dustin/go-humanize"

	"github.com/talgya/civworld/internal/economy"
	"github.com/talgya/civworld/internal/engine"
	"github.com/talgya/civworld/internal/entropy"
	"github.com/talgya/civworld/internal/site"
	"github.com/talgya/civworld/internal/world"
)

// Generation constants.
const (
	SimYears         = 1000
	ExtraSitesPerCiv = 3
	castleOdds       = 8
	castleSize       = 3
	dungeonSize      = 0
)

// Generate populates a hydrologically solved grid with caves, civilizations,
// sites and roads, runs the economy, flattens terrain around sites and lays
// out each site.
func Generate(sim *world.WorldSim, seed uint32) (*Civs, error) {
	c := newCivs()
	count := InitialCivCount(sim.Lg)

	GenerateCaves(GenCtx{Sim: sim, Rng: entropy.New(seed, entropy.PhaseCaves)})

	ctx := GenCtx{Sim: sim, Rng: entropy.New(seed, entropy.PhaseCivs)}
	for i := 0; i < count; i++ {
		if _, ok := c.birthCiv(ctx.Reseed()); !ok {
			slog.Warn("failed to find starting site for civilisation", "civ", i)
		}
	}

	for i := 0; i < count*ExtraSitesPerCiv; i++ {
		kind, size := KindDungeon, dungeonSize
		if ctx.Rng.IntN(castleOdds) == 0 {
			kind, size = KindCastle, castleSize
		}
		for attempt := 0; attempt < BirthAttempts; attempt++ {
			loc, ok := c.FindSiteLoc(ctx, nil, size)
			if !ok {
				continue
			}
			if _, ok := c.EstablishSite(ctx.Reseed(), loc, kind); ok {
				break
			}
		}
	}
	slog.Info("civilisations founded",
		"civs", len(c.Civs), "target", count,
		"sites", len(c.Sites), "places", len(c.Places), "tracks", len(c.Tracks))

	clock := engine.NewClock()
	clock.OnYear = func(uint64) { c.Tick(1) }
	clock.OnDecade = func(year uint64) { c.reportTrade(year) }
	clock.OnCentury = func(year uint64) { c.reportEconomy(year) }
	clock.Run(SimYears)

	c.flattenSites(GenCtx{Sim: sim, Rng: entropy.New(seed, entropy.PhaseFlatten)})
	if err := c.refreshTrackCosts(sim); err != nil {
		return nil, fmt.Errorf("refresh track costs: %w", err)
	}

	c.layoutSites(GenCtx{Sim: sim, Rng: entropy.New(seed, entropy.PhaseSites)})
	c.nameAll(entropy.New(seed, entropy.PhaseNames))
	return c, nil
}

// Tick advances every site economy by years, then trades along each track
// in both directions.
func (c *Civs) Tick(years float32) {
	for i := range c.Sites {
		s := &c.Sites[i]
		if p := c.Place(s.Place); p != nil {
			s.Economy.Simulate(years, p.NatRes)
		}
	}
	if years <= 0 {
		return
	}
	for i := range c.Sites {
		c.Sites[i].Economy.ResetExports()
	}
	for _, t := range c.Tracks {
		a, b := c.Site(t.A), c.Site(t.B)
		economy.Trade(&a.Economy, &b.Economy)
		economy.Trade(&b.Economy, &a.Economy)
	}
}

// TradeVolume sums the goods every site exported in the last tick.
func (c *Civs) TradeVolume() float64 {
	var vol float64
	for i := range c.Sites {
		c.Sites[i].Economy.LastExports.Each(func(_ economy.Stock, v float32) {
			vol += float64(v)
		})
	}
	return vol
}

func (c *Civs) reportTrade(year uint64) {
	slog.Debug("trade decade report",
		"time", engine.SimTime(year),
		"tracks", len(c.Tracks),
		"exports", humanize.CommafWithDigits(c.TradeVolume(), 1))
}

func (c *Civs) reportEconomy(year uint64) {
	var pop, coin float64
	for i := range c.Sites {
		pop += float64(c.Sites[i].Economy.Population)
		coin += float64(c.Sites[i].Economy.Coin)
	}
	slog.Info("economy century report",
		"time", engine.SimTime(year),
		"population", humanize.Comma(int64(math.Round(pop))),
		"coin", humanize.Comma(int64(math.Round(coin))))
}

// layoutSites generates each site's layout on its own forked stream and
// registers the site on every chunk its footprint touches.
func (c *Civs) layoutSites(ctx GenCtx) {
	for i := range c.Sites {
		s := &c.Sites[i]
		id := SiteID(i + 1)
		l := site.Generate(s.Kind, world.ChunkCenterWpos(s.Center), ctx.Sim, ctx.Rng.Reseed())
		idx := len(c.Layouts)
		c.Layouts = append(c.Layouts, l)
		s.SiteTmp = &idx

		r := l.Radius()
		o := l.Origin()
		lo := world.WposToChunk(world.Vec2i{X: o.X - int32(r) - 1, Y: o.Y - int32(r) - 1})
		hi := world.WposToChunk(world.Vec2i{X: o.X + int32(r) + 1, Y: o.Y + int32(r) + 1})
		for y := lo.Y; y <= hi.Y; y++ {
			for x := lo.X; x <= hi.X; x++ {
				cpos := world.Vec2i{X: x, Y: y}
				ch := ctx.Sim.Get(cpos)
				if ch == nil || !chunkTouchesDisc(cpos, o, r) || hasSite(ch.Sites, id) {
					continue
				}
				ch.Sites = append(ch.Sites, id)
			}
		}
	}
}

func chunkTouchesDisc(cpos, o world.Vec2i, r float32) bool {
	lo := world.ChunkToWpos(cpos)
	nx := max(lo.X, min(o.X, lo.X+world.ChunkSize-1))
	ny := max(lo.Y, min(o.Y, lo.Y+world.ChunkSize-1))
	return o.Dist(world.Vec2i{X: nx, Y: ny}) <= r
}

func hasSite(ids []SiteID, id SiteID) bool {
	for _, s := range ids {
		if s == id {
			return true
		}
	}
	return false
}
