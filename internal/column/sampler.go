package column

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/talgya/civworld/internal/config"
	"github.com/talgya/civworld/internal/noise"
	"github.com/talgya/civworld/internal/site"
	"github.com/talgya/civworld/internal/world"
)

// Sampler constants.
const (
	// RiverGouge lowers river and lake surfaces below their stored water level.
	RiverGouge = 0.5
	// MaxRiverDistance is how far beyond its edge a water body still shapes terrain.
	MaxRiverDistance = world.ChunkSize
	// riverWidthJitter is the relative width perturbation from small noise.
	riverWidthJitter = 0.3
	// bedrockClearance: no trees where bedrock is closer to the surface than this.
	bedrockClearance = 3
	riverlessAmp     = 3
	turbulenceScale  = 128
	turbulenceAmp    = 16
)

// LayoutSource resolves site IDs stored on chunks into their layouts.
type LayoutSource interface {
	Layout(id world.SiteID) site.Layout
}

// Sampler evaluates columns over a generated grid.
type Sampler struct {
	Sim     *world.WorldSim
	Noise   *noise.Set
	Config  config.WorldConfig
	Layouts LayoutSource
	Palette Palette
}

// NewSampler creates a sampler with the default palette. layouts may be nil.
func NewSampler(sim *world.WorldSim, ns *noise.Set, cfg config.WorldConfig, layouts LayoutSource) *Sampler {
	return &Sampler{Sim: sim, Noise: ns, Config: cfg, Layouts: layouts, Palette: DefaultPalette}
}

// riverHit is one water body near the query position.
type riverHit struct {
	chunk  world.Vec2i
	kind   world.RiverKind
	t      float64
	dist   float32 // To the curve or the water body's square
	width  float32
	depth  float32
	height float32 // Water level at the nearest point
	res    float32 // Distance beyond the water body's edge
}

// dominates orders hits by smallest res, then highest water level, then the
// smallest kind (River before Lake before Ocean).
func (h *riverHit) dominates(o *riverHit) bool {
	if h.res != o.res {
		return h.res < o.res
	}
	if h.height != o.height {
		return h.height > o.height
	}
	return h.kind < o.kind
}

func chunkCenter(pos world.Vec2i) mgl64.Vec2 {
	c := world.ChunkCenterWpos(pos)
	return mgl64.Vec2{float64(c.X), float64(c.Y)}
}

func lerp(a, b, t float32) float32 { return a + (b-a)*t }

// riverHits collects the water bodies of the 3×3 neighbourhood of cpos.
func (s *Sampler) riverHits(cpos world.Vec2i, p mgl64.Vec2) []riverHit {
	var hits []riverHit
	for dy := int32(-1); dy <= 1; dy++ {
		for dx := int32(-1); dx <= 1; dx++ {
			npos := cpos.Add(world.Vec2i{X: dx, Y: dy})
			ch := s.Sim.Get(npos)
			if ch == nil {
				continue
			}
			switch ch.River.Kind {
			case world.RiverRiver:
				if ch.Downhill == nil {
					continue
				}
				hits = append(hits, s.riverCurveHit(npos, ch, p))
			case world.RiverLake, world.RiverOcean:
				lo := world.ChunkToWpos(npos)
				qx := math.Max(float64(lo.X), math.Min(p[0], float64(lo.X+world.ChunkSize)))
				qy := math.Max(float64(lo.Y), math.Min(p[1], float64(lo.Y+world.ChunkSize)))
				d := float32(math.Hypot(p[0]-qx, p[1]-qy))
				hits = append(hits, riverHit{
					chunk:  npos,
					kind:   ch.River.Kind,
					dist:   d,
					width:  world.ChunkSize,
					height: ch.WaterAlt,
					res:    d,
				})
			}
		}
	}
	return hits
}

func (s *Sampler) riverCurveHit(pos world.Vec2i, ch *world.SimChunk, p mgl64.Vec2) riverHit {
	down := s.Sim.Get(*ch.Downhill)
	spline := RiverSplineCoeffs(chunkCenter(pos), ch.River.SplineDerivative, chunkCenter(*ch.Downhill))
	t, pt, dist := QuadraticNearestPoint(spline, p)
	tf := float32(t)

	wMin, dMin := ch.River.CrossSection[0], ch.River.CrossSection[1]
	wMax, dMax := wMin, dMin
	if down.River.IsRiver() {
		wMax, dMax = down.River.CrossSection[0], down.River.CrossSection[1]
	}
	shape := float32(math.Sqrt(float64(max(0, min(tf, 1)))))
	width := lerp(wMin, wMax, shape) * (1 + riverWidthJitter*float32(s.Noise.SmallNoise(pt[0]/16, pt[1]/16)))

	return riverHit{
		chunk:  pos,
		kind:   world.RiverRiver,
		t:      t,
		dist:   float32(dist),
		width:  width,
		depth:  lerp(dMin, dMax, shape),
		height: lerp(ch.WaterAlt, down.WaterAlt, tf),
		res:    max(float32(dist)-width/2, 0),
	}
}

// Sample evaluates the column at wpos. It returns false only when wpos lies
// outside the map.
func (s *Sampler) Sample(wpos world.Vec2i) (ColumnSample, bool) {
	sim := s.Sim
	chunk := sim.GetWpos(wpos)
	if chunk == nil {
		return ColumnSample{}, false
	}
	cpos := world.WposToChunk(wpos)
	cfg := s.Config

	lin := func(f func(*world.SimChunk) float32) float32 {
		v, _ := sim.GetInterpolated(wpos, f)
		return v
	}
	mono := func(f func(*world.SimChunk) float32) float32 {
		v, _ := sim.GetInterpolatedMonotone(wpos, f)
		return v
	}

	alt := mono(func(c *world.SimChunk) float32 { return c.Alt })
	surfaceVeg := mono(func(c *world.SimChunk) float32 { return c.SurfaceVeg })
	warp := mono(func(c *world.SimChunk) float32 { return c.WarpFactor })
	chaos := lin(func(c *world.SimChunk) float32 { return c.Chaos })
	temp := lin(func(c *world.SimChunk) float32 { return c.Temp })
	humidity := lin(func(c *world.SimChunk) float32 { return c.Humidity })
	rock := lin(func(c *world.SimChunk) float32 { return c.Rockiness })
	treeDensity := lin(func(c *world.SimChunk) float32 { return c.TreeDensity })
	spawnRate := lin(func(c *world.SimChunk) float32 { return c.SpawnRate })
	soil := lin(func(c *world.SimChunk) float32 { return c.Alt - c.Basement })
	waterAlt := lin(func(c *world.SimChunk) float32 { return c.WaterAlt })

	p := mgl64.Vec2{float64(wpos.X), float64(wpos.Y)}
	pt := p.Add(s.Noise.Turbulence(p[0]/turbulenceScale, p[1]/turbulenceScale).Mul(turbulenceAmp))
	riverlessDelta := float32(math.Abs(s.Noise.SmallNoise(pt[0]/200, pt[1]/200))*riverlessAmp +
		math.Abs(s.Noise.SmallNoise(pt[0]/400, pt[1]/400))*riverlessAmp)
	riverlessAlt := alt + riverlessDelta*warp

	// Water bodies in range pull the terrain toward their level and damp warping.
	hits := s.riverHits(cpos, p)
	var dom *riverHit
	overlap, overlapCount := float32(0), 0
	distProduct := float64(1)
	for i := range hits {
		h := &hits[i]
		if dom == nil || h.dominates(dom) {
			dom = h
		}
		if h.res < MaxRiverDistance {
			rel := h.res / MaxRiverDistance
			overlap += (1 - rel) * (h.height - alt)
			overlapCount++
			distProduct *= float64(rel)
		}
	}
	scaleFactor := float32(1)
	altForRiver := alt
	if overlapCount > 0 {
		scaleFactor = float32(math.Pow(distProduct, 1/float64(overlapCount)))
		altForRiver = alt + overlap/float32(overlapCount)
	}
	if dom != nil && dom.res >= MaxRiverDistance {
		dom = nil
	}

	var outAlt, waterLevel, outWarp float32
	switch {
	case dom != nil && dom.res == 0 && dom.kind == world.RiverRiver:
		riverAlt := dom.height - RiverGouge
		k := dom.dist / (dom.width / 2)
		outAlt = lerp(riverAlt-dom.depth, riverAlt-1, k*k)
		waterLevel = riverAlt
	case dom != nil && dom.res == 0 && dom.kind == world.RiverLake:
		outAlt = min(altForRiver, dom.height-1-RiverGouge)
		waterLevel = dom.height - RiverGouge
	case dom != nil && dom.res == 0 && dom.kind == world.RiverOcean:
		outAlt = min(altForRiver, dom.height-1-RiverGouge)
		waterLevel = dom.height
	default:
		outAlt = altForRiver + riverlessDelta*warp
		waterLevel = waterAlt
		outWarp = scaleFactor * warp
	}

	marble := float32(noise.Unit(s.Noise.SmallNoise(p[0]/64, p[1]/64)))
	marbleSmall := float32(noise.Unit(s.Noise.SmallNoise(p[0]/8, p[1]/8)))

	out := ColumnSample{
		RiverlessAlt:    riverlessAlt,
		Chaos:           chaos,
		WaterLevel:      waterLevel,
		WarpFactor:      outWarp,
		SurfaceColor:    s.Palette.Surface(cfg, temp, humidity, rock, chaos, outAlt, waterLevel),
		SubSurfaceColor: s.Palette.SubSurface(rock),
		TreeDensity:     treeDensity,
		ForestKind:      chunk.ForestKind,
		Marble:          marble,
		MarbleSmall:     marbleSmall,
		Rock:            rock,
		Temp:            temp,
		Humidity:        humidity,
		SpawnRate:       spawnRate,
		StoneCol:        StoneColor(marble, rock),
	}

	snow := temp - cfg.SnowTemp + marbleSmall*0.5 - 0.5
	if snow <= 0 && outAlt > waterLevel {
		out.SnowCover = true
		outAlt += 1 - max(snow, 0)
		out.SurfaceColor = mix(out.SurfaceColor, s.Palette.Snow, min(1, 0.5+surfaceVeg*0.5))
	}
	out.Alt = outAlt
	out.Basement = min(alt-soil, outAlt)

	if dom != nil {
		d := dom.res
		out.WaterDist = &d
		out.River = &RiverHit{Chunk: dom.chunk, Kind: dom.kind, T: float32(dom.t), Width: dom.width}
	}
	if g, ok := sim.GetGradientApprox(cpos); ok {
		out.Gradient = &g
	}
	out.Path = sim.GetNearestPath(wpos)
	out.Cave = sim.GetNearestCave(wpos)

	if out.Alt-out.Basement < bedrockClearance || !s.treesAllowed(chunk, wpos) {
		out.TreeDensity = 0
	}

	assertFinite(&out, wpos)
	return out, true
}

// treesAllowed consults the spawn rules of every site registered on the chunk.
func (s *Sampler) treesAllowed(chunk *world.SimChunk, wpos world.Vec2i) bool {
	if s.Layouts == nil {
		return true
	}
	for _, id := range chunk.Sites {
		l := s.Layouts.Layout(id)
		if l != nil && !l.SpawnRules(wpos).Trees {
			return false
		}
	}
	return true
}
