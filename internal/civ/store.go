// Package civ builds civilizations on a generated chunk grid: places, sites,
// the road network between them, caves, and the yearly economy that runs
// before terrain is flattened around each site.
package civ

import (
	"maps"
	"slices"
	"sort"

	"github.com/talgya/civworld/internal/economy"
	"github.com/talgya/civworld/internal/entropy"
	"github.com/talgya/civworld/internal/site"
	"github.com/talgya/civworld/internal/world"
)

// Entity identifiers. Each is index+1 into its arena; zero means none.
type (
	PlaceID = world.PlaceID
	SiteID  = world.SiteID
	TrackID uint32
	CivID   uint32
)

// SiteKind is re-exported from the layout package.
type SiteKind = site.Kind

const (
	KindSettlement = site.KindSettlement
	KindDungeon    = site.KindDungeon
	KindCastle     = site.KindCastle
)

func connectsRoads(k SiteKind) bool {
	return k == KindSettlement || k == KindCastle
}

// Place is a contiguous multi-chunk region hosting one or more sites.
type Place struct {
	Center world.Vec2i
	NatRes economy.NaturalResources
	Chunks []world.Vec2i
}

// Site is a settlement, dungeon or castle and its economy.
type Site struct {
	Kind    SiteKind
	Name    string
	Center  world.Vec2i
	Place   PlaceID
	Economy economy.Economy
	// SiteTmp indexes the site's layout in Civs.Layouts once generated.
	SiteTmp *int
}

// Track is an edge of the road graph with its walkable chunk path.
type Track struct {
	A, B SiteID
	Cost float32
	Path []world.Vec2i
}

// Civ is a civilization rooted at its capital.
type Civ struct {
	Name     string
	Capital  SiteID
	Homeland PlaceID
}

// Civs owns every civilization entity produced during generation.
type Civs struct {
	Places []Place
	Sites  []Site
	Tracks []Track
	Civs   []Civ

	// TrackMap is symmetric: TrackMap[a][b] == TrackMap[b][a].
	TrackMap map[SiteID]map[SiteID]TrackID

	// Layouts holds the generated site layouts, indexed by Site.SiteTmp.
	Layouts []site.Layout

	occupied map[world.Vec2i]bool
}

func newCivs() *Civs {
	return &Civs{
		TrackMap: make(map[SiteID]map[SiteID]TrackID),
		occupied: make(map[world.Vec2i]bool),
	}
}

// Place returns the place with the given ID, or nil.
func (c *Civs) Place(id PlaceID) *Place {
	if id == 0 || int(id) > len(c.Places) {
		return nil
	}
	return &c.Places[id-1]
}

// Site returns the site with the given ID, or nil.
func (c *Civs) Site(id SiteID) *Site {
	if id == 0 || int(id) > len(c.Sites) {
		return nil
	}
	return &c.Sites[id-1]
}

// Track returns the track with the given ID, or nil.
func (c *Civs) Track(id TrackID) *Track {
	if id == 0 || int(id) > len(c.Tracks) {
		return nil
	}
	return &c.Tracks[id-1]
}

// Civ returns the civilization with the given ID, or nil.
func (c *Civs) Civ(id CivID) *Civ {
	if id == 0 || int(id) > len(c.Civs) {
		return nil
	}
	return &c.Civs[id-1]
}

// Layout returns the generated layout of a site, or nil.
func (c *Civs) Layout(id SiteID) site.Layout {
	s := c.Site(id)
	if s == nil || s.SiteTmp == nil {
		return nil
	}
	return c.Layouts[*s.SiteTmp]
}

// TrackBetween looks up the track joining a and b in either direction.
func (c *Civs) TrackBetween(a, b SiteID) (TrackID, bool) {
	if id, ok := c.TrackMap[a][b]; ok {
		return id, true
	}
	id, ok := c.TrackMap[b][a]
	return id, ok
}

// Neighbors returns the sites directly connected to id, in ID order.
func (c *Civs) Neighbors(id SiteID) []SiteID {
	out := make([]SiteID, 0, len(c.TrackMap[id]))
	for n := range c.TrackMap[id] {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (c *Civs) insertPlace(p Place) PlaceID {
	c.Places = append(c.Places, p)
	return PlaceID(len(c.Places))
}

func (c *Civs) insertSite(s Site) SiteID {
	c.Sites = append(c.Sites, s)
	c.occupied[s.Center] = true
	return SiteID(len(c.Sites))
}

func (c *Civs) insertTrack(t Track) TrackID {
	c.Tracks = append(c.Tracks, t)
	id := TrackID(len(c.Tracks))
	for _, pair := range [2][2]SiteID{{t.A, t.B}, {t.B, t.A}} {
		m := c.TrackMap[pair[0]]
		if m == nil {
			m = make(map[SiteID]TrackID)
			c.TrackMap[pair[0]] = m
		}
		m[pair[1]] = id
	}
	return id
}

func (c *Civs) insertCiv(v Civ) CivID {
	c.Civs = append(c.Civs, v)
	return CivID(len(c.Civs))
}

// GenCtx bundles the grid being generated with the random stream of a phase.
type GenCtx struct {
	Sim *world.WorldSim
	Rng *entropy.Rng
}

// Reseed forks the context onto an independent random stream.
func (g GenCtx) Reseed() GenCtx {
	return GenCtx{Sim: g.Sim, Rng: g.Rng.Reseed()}
}

// Clone returns a deep copy of the site.
func (s Site) Clone() Site {
	s.Economy = s.Economy.Clone()
	if s.SiteTmp != nil {
		i := *s.SiteTmp
		s.SiteTmp = &i
	}
	return s
}

// Clone returns a deep copy of the place.
func (p Place) Clone() Place {
	p.Chunks = slices.Clone(p.Chunks)
	return p
}

// Clone returns a deep copy of the track.
func (t Track) Clone() Track {
	t.Path = slices.Clone(t.Path)
	return t
}

// Clone returns an independent copy of the stores. Layouts are shared; they
// are never modified after generation.
func (c *Civs) Clone() *Civs {
	out := newCivs()
	for _, p := range c.Places {
		out.Places = append(out.Places, p.Clone())
	}
	for _, s := range c.Sites {
		out.Sites = append(out.Sites, s.Clone())
	}
	for _, t := range c.Tracks {
		out.Tracks = append(out.Tracks, t.Clone())
	}
	out.Civs = slices.Clone(c.Civs)
	for a, m := range c.TrackMap {
		out.TrackMap[a] = maps.Clone(m)
	}
	out.Layouts = slices.Clone(c.Layouts)
	maps.Copy(out.occupied, c.occupied)
	return out
}

// Restore rebuilds the stores and their indexes from persisted entities.
// Site layouts are not restored.
func Restore(places []Place, sites []Site, tracks []Track, civs []Civ) *Civs {
	c := newCivs()
	c.Places = places
	c.Civs = civs
	for _, s := range sites {
		s.SiteTmp = nil
		c.insertSite(s)
	}
	for _, t := range tracks {
		c.insertTrack(t)
	}
	return c
}
