// Package worldgen runs the generation pipeline (terrain, hydrology,
// civilizations, sites) and exposes the resulting read-only world index.
package worldgen

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/talgya/civworld/internal/civ"
	"github.com/talgya/civworld/internal/column"
	"github.com/talgya/civworld/internal/config"
	"github.com/talgya/civworld/internal/noise"
	"github.com/talgya/civworld/internal/site"
	"github.com/talgya/civworld/internal/snapshot"
	"github.com/talgya/civworld/internal/world"
)

// ErrInvalidMapSize is returned when the map size exceeds 2^20 chunks or
// 2^12 along one axis.
var ErrInvalidMapSize = errors.New("invalid map size")

// Index is a generated world. It is immutable once Generate returns: every
// accessor hands out copies, and Sample may be called from any number of
// goroutines.
type Index struct {
	Seed   uint32
	Lg     world.MapSizeLg
	Config config.WorldConfig

	sim     *world.WorldSim
	noise   *noise.Set
	civs    *civ.Civs
	sampler *column.Sampler
	digest  string
	water   WaterStats
}

// Generate builds the world for seed deterministically.
func Generate(seed uint32, lg world.MapSizeLg, cfg config.WorldConfig) (*Index, error) {
	if err := lg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMapSize, err)
	}
	start := time.Now()

	ns := noise.New(seed)
	sim := world.NewWorldSim(lg, cfg.SeaLevel)
	world.GenerateTerrain(sim, ns, cfg)
	slog.Info("terrain generated", "seed", seed, "chunks", humanize.Comma(int64(sim.ChunkCount())))

	if _, err := world.SolveHydrology(sim); err != nil {
		return nil, fmt.Errorf("solve hydrology: %w", err)
	}
	st := CountWater(sim)
	slog.Info("hydrology solved", "oceans", st.Ocean, "lakes", st.Lake, "rivers", st.River)

	civs, err := civ.Generate(sim, seed)
	if err != nil {
		return nil, fmt.Errorf("generate civilisations: %w", err)
	}
	if err := world.Verify(sim); err != nil {
		return nil, fmt.Errorf("verify world: %w", err)
	}

	idx := &Index{
		Seed:   seed,
		Lg:     lg,
		Config: cfg,
		sim:    sim,
		noise:  ns,
		civs:   civs,
		digest: snapshot.Digest(sim, civs),
		water:  CountWater(sim),
	}
	idx.sampler = column.NewSampler(sim, ns, cfg, civs)

	slog.Info("world generated",
		"seed", seed,
		"civs", len(civs.Civs),
		"sites", len(civs.Sites),
		"tracks", len(civs.Tracks),
		"elapsed", time.Since(start).Round(time.Millisecond))
	return idx, nil
}

// Sample evaluates the column at wpos; false when wpos lies outside the map.
func (x *Index) Sample(wpos world.Vec2i) (column.ColumnSample, bool) {
	return x.sampler.Sample(wpos)
}

// Chunk returns a copy of the chunk at pos; false when pos lies off the map.
func (x *Index) Chunk(pos world.Vec2i) (world.SimChunk, bool) {
	c := x.sim.Get(pos)
	if c == nil {
		return world.SimChunk{}, false
	}
	return c.Clone(), true
}

// Size returns the grid dimensions in chunks.
func (x *Index) Size() world.Vec2i { return x.sim.Size() }

func (x *Index) ChunkCount() int { return x.sim.ChunkCount() }
func (x *Index) SeaLevel() float32 { return x.sim.SeaLevel }
func (x *Index) Water() WaterStats { return x.water }

// Digest is the determinism digest of the generated grid and stores.
func (x *Index) Digest() string { return x.digest }

// Export returns independent copies of the grid and the civilization stores,
// for serialization or for running the economy further without touching the
// index.
func (x *Index) Export() (*world.WorldSim, *civ.Civs) {
	return x.sim.Clone(), x.civs.Clone()
}

// Site returns a copy of the site with the given ID.
func (x *Index) Site(id civ.SiteID) (civ.Site, bool) {
	s := x.civs.Site(id)
	if s == nil {
		return civ.Site{}, false
	}
	return s.Clone(), true
}

// Place returns a copy of the place with the given ID.
func (x *Index) Place(id civ.PlaceID) (civ.Place, bool) {
	p := x.civs.Place(id)
	if p == nil {
		return civ.Place{}, false
	}
	return p.Clone(), true
}

// Track returns a copy of the track with the given ID.
func (x *Index) Track(id civ.TrackID) (civ.Track, bool) {
	t := x.civs.Track(id)
	if t == nil {
		return civ.Track{}, false
	}
	return t.Clone(), true
}

// Neighbors lists the sites joined to id by a track, in ID order.
func (x *Index) Neighbors(id civ.SiteID) []civ.SiteID { return x.civs.Neighbors(id) }

// Civs, Sites, Places and Tracks return copies of the stored records in ID
// order.
func (x *Index) Civs() []civ.Civ { return slices.Clone(x.civs.Civs) }

func (x *Index) Sites() []civ.Site {
	out := make([]civ.Site, len(x.civs.Sites))
	for i, s := range x.civs.Sites {
		out[i] = s.Clone()
	}
	return out
}

func (x *Index) Places() []civ.Place {
	out := make([]civ.Place, len(x.civs.Places))
	for i, p := range x.civs.Places {
		out[i] = p.Clone()
	}
	return out
}

func (x *Index) Tracks() []civ.Track {
	out := make([]civ.Track, len(x.civs.Tracks))
	for i, t := range x.civs.Tracks {
		out[i] = t.Clone()
	}
	return out
}

// TrackBetween looks up the track joining two sites.
func (x *Index) TrackBetween(a, b civ.SiteID) (civ.TrackID, bool) {
	return x.civs.TrackBetween(a, b)
}

// Layout returns the generated layout of a site, or nil.
func (x *Index) Layout(id civ.SiteID) site.Layout { return x.civs.Layout(id) }

// WaterStats counts chunks per water kind.
type WaterStats struct {
	Ocean, Lake, River, Land int
}

// CountWater tallies the hydrology classification of a grid.
func CountWater(sim *world.WorldSim) WaterStats {
	var st WaterStats
	for i := range sim.Chunks {
		switch sim.Chunks[i].River.Kind {
		case world.RiverOcean:
			st.Ocean++
		case world.RiverLake:
			st.Lake++
		case world.RiverRiver:
			st.River++
		default:
			st.Land++
		}
	}
	return st
}

// SiteCounts tallies sites by kind.
func (x *Index) SiteCounts() map[site.Kind]int {
	out := make(map[site.Kind]int)
	for _, s := range x.civs.Sites {
		out[s.Kind]++
	}
	return out
}
