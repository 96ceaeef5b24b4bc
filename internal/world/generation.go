// World generation using layered simplex noise.
// Generates altitude, climate and vegetation scalars for every chunk; hydrology
// runs afterwards on the resulting altitude field.
package world

import (
	"math"
	"sort"

	"github.com/talgya/civworld/internal/config"
	"github.com/talgya/civworld/internal/noise"
)

// Terrain shape parameters.
const (
	// OceanFraction is the share of chunks placed below sea level.
	OceanFraction = 0.3
	// LandRelief is the altitude span between the coast and the highest peak.
	LandRelief = 900.0
	// OceanDepth is the altitude span between sea level and the deepest trench.
	OceanDepth = 100.0
	// featureScale is the number of continent-sized noise features across the map.
	featureScale = 6.0
)

// GenerateTerrain fills every chunk's raw scalars from the noise set.
// Altitudes are rank-uniformized, so every chunk gets a distinct altitude and
// the ocean covers a fixed share of the map. The border ring is always ocean.
func GenerateTerrain(sim *WorldSim, ns *noise.Set, cfg config.WorldConfig) {
	sz := sim.Size()
	n := sim.ChunkCount()
	maxDim := float64(max(sz.X, sz.Y))

	raw := make([]float64, n)
	hills := make([]float64, n)
	for i := 0; i < n; i++ {
		pos := sim.PosOf(i)
		nx := (float64(pos.X) + 0.5) / float64(sz.X)
		ny := (float64(pos.Y) + 0.5) / float64(sz.Y)
		px := (float64(pos.X) + 0.5) / maxDim * featureScale
		py := (float64(pos.Y) + 0.5) / maxDim * featureScale

		hill := ns.Hilly(px*2, py*2)
		hills[i] = hill
		if pos.X == 0 || pos.Y == 0 || pos.X == sz.X-1 || pos.Y == sz.Y-1 {
			raw[i] = -1
			continue
		}

		elev := noise.Unit(noise.FBm(ns.Alt, px, py, 6, 1, 0.5))*0.8 + hill*0.2

		// Continental shaping: reduce elevation near edges to create ocean border.
		dist := math.Max(math.Abs(nx*2-1), math.Abs(ny*2-1))
		edgeFalloff := 1.0 - math.Pow(dist, 3.5)
		if edgeFalloff < 0 {
			edgeFalloff = 0
		}
		raw[i] = elev * edgeFalloff
	}

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return raw[order[a]] < raw[order[b]]
	})

	sea := float64(cfg.SeaLevel)
	for rank, i := range order {
		u := 0.0
		if n > 1 {
			u = float64(rank) / float64(n-1)
		}
		pos := sim.PosOf(i)
		px := (float64(pos.X) + 0.5) / maxDim * featureScale
		py := (float64(pos.Y) + 0.5) / maxDim * featureScale
		ny := (float64(pos.Y) + 0.5) / float64(sz.Y)

		land := 0.0
		var alt float64
		if u < OceanFraction {
			alt = sea - (OceanFraction-u)/OceanFraction*OceanDepth - 1
		} else {
			land = (u - OceanFraction) / (1 - OceanFraction)
			alt = sea + 1 + LandRelief*(0.15*land+0.85*land*land)
		}

		c := &sim.Chunks[i]
		c.Alt = float32(alt)

		chaos := clamp01(noise.Unit(noise.FBm(ns.Chaos, px, py, 3, 2, 0.5)) * (0.3 + 0.7*hills[i]))
		c.Chaos = float32(chaos)

		// Temperature falls towards the poles (map top/bottom) and with altitude.
		lat := 1 - math.Abs(ny*2-1)
		temp := 0.55*noise.FBm(ns.Temp, px, py, 3, 1.5, 0.5) + (lat*1.2 - 0.5) - 0.6*land
		c.Temp = float32(math.Max(-1, math.Min(1, temp)))

		c.Humidity = float32(noise.Unit(noise.FBm(ns.Humid, px, py, 3, 1.5, 0.5)))
		c.Rockiness = float32(noise.Unit(noise.FBm(ns.Rock, px, py, 3, 3, 0.5)) * (0.3 + 0.7*land))
		c.Basement = c.Alt - (2 + 30*(1-c.Rockiness))
		c.SurfaceVeg = float32(noise.Unit(noise.FBm(ns.Veg, px, py, 2, 4, 0.5)))
		c.WarpFactor = float32(noise.Unit(noise.FBm(ns.Warp, px, py, 2, 3, 0.5)) * (0.2 + 0.8*chaos))
		c.SpawnRate = 1
		c.WaterAlt = cfg.SeaLevel

		if c.Alt < cfg.SeaLevel {
			c.TreeDensity = 0
			c.ForestKind = ForestNone
			continue
		}
		tree := noise.Unit(noise.FBm(ns.Tree, px, py, 3, 3, 0.5)) * (0.3 + 0.7*float64(c.Humidity))
		if c.Temp < cfg.SnowTemp {
			tree -= 0.3
		}
		c.TreeDensity = float32(clamp01(tree))
		c.ForestKind = ForestFor(c.Temp, c.Humidity, cfg)
	}
}

// ForestFor picks the dominant tree type for a climate.
func ForestFor(temp, humidity float32, cfg config.WorldConfig) ForestKind {
	switch {
	case temp < cfg.SnowTemp:
		return ForestFrostpine
	case temp < cfg.TemperateTemp:
		if humidity > cfg.ForestHum {
			return ForestPine
		}
		return ForestBirch
	case temp < cfg.TropicalTemp:
		if humidity > cfg.ForestHum {
			return ForestOak
		}
		return ForestChestnut
	case temp > cfg.DesertTemp && humidity < cfg.DesertHum:
		return ForestNone
	case humidity > cfg.JungleHum:
		return ForestMangrove
	case humidity > cfg.ForestHum:
		return ForestPalm
	case humidity > cfg.DesertHum:
		return ForestAcacia
	default:
		return ForestBaobab
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
