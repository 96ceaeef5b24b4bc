// Hydrology — downhill graph, lakes, flow accumulation and river geometry.
package world

import (
	"container/heap"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// River shape parameters. Flux is measured in chunks of upstream rainfall.
const (
	RiverFluxThreshold = 24.0
	RiverMinWidth      = 4.0
	RiverMaxWidth      = 96.0
	RiverMinDepth      = 1.5
	RiverMaxDepth      = 16.0
)

// RiverCrossSection returns (width, depth) for a river carrying flux.
func RiverCrossSection(flux float32) mgl32.Vec2 {
	excess := flux - RiverFluxThreshold
	if excess < 0 {
		excess = 0
	}
	w := clampF(2*float32(math.Sqrt(float64(excess)))+RiverMinWidth, RiverMinWidth, RiverMaxWidth)
	d := clampF(w*0.25+1, RiverMinDepth, RiverMaxDepth)
	return mgl32.Vec2{w, d}
}

type floodItem struct {
	level float32
	seq   int
	idx   int
}

type floodQueue []floodItem

func (q floodQueue) Len() int { return len(q) }
func (q floodQueue) Less(i, j int) bool {
	if q[i].level != q[j].level {
		return q[i].level < q[j].level
	}
	return q[i].seq < q[j].seq
}
func (q floodQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }
func (q *floodQueue) Push(x any) { *q = append(*q, x.(floodItem)) }
func (q *floodQueue) Pop() any {
	old := *q
	it := old[len(old)-1]
	*q = old[:len(old)-1]
	return it
}

// Hydrology holds solver by-products needed by later phases.
type Hydrology struct {
	// Filled is the depression-filled surface per chunk.
	Filled []float32
	// Order lists chunk indices so every chunk appears after its downhill.
	Order []int
}

// SolveHydrology assigns downhill links, river kinds, water altitudes, flux,
// cross sections and spline derivatives from the raw altitude field.
func SolveHydrology(sim *WorldSim) (*Hydrology, error) {
	n := sim.ChunkCount()
	sea := sim.SeaLevel

	filled := make([]float32, n)
	receiver := make([]int, n)
	visited := make([]bool, n)
	order := make([]int, 0, n)

	q := &floodQueue{}
	seq := 0

	// Ocean classification seeds the flood.
	for i := range sim.Chunks {
		c := &sim.Chunks[i]
		c.Downhill = nil
		c.River = RiverData{}
		receiver[i] = -1
		if c.Alt < sea {
			c.River.Kind = RiverOcean
			c.WaterAlt = sea
			filled[i] = sea
			visited[i] = true
			heap.Push(q, floodItem{level: sea, seq: seq, idx: i})
			seq++
		}
	}
	if q.Len() == 0 {
		return nil, fmt.Errorf("hydrology: no ocean chunks below sea level %.1f", sea)
	}

	// Priority flood, lowest rim first. A neighbour at or below the current
	// level is inside a basin and becomes lake at that level.
	for q.Len() > 0 {
		it := heap.Pop(q).(floodItem)
		order = append(order, it.idx)
		pos := sim.PosOf(it.idx)
		for _, d := range Neighbors {
			np := pos.Add(d)
			if !sim.InBounds(np) {
				continue
			}
			ni := sim.Index(np)
			if visited[ni] {
				continue
			}
			visited[ni] = true
			receiver[ni] = it.idx
			nc := &sim.Chunks[ni]
			level := nc.Alt
			if nc.Alt <= it.level {
				level = it.level
				nc.River.Kind = RiverLake
			}
			filled[ni] = level
			heap.Push(q, floodItem{level: level, seq: seq, idx: ni})
			seq++
		}
	}

	// Downhill links.
	for i := range sim.Chunks {
		c := &sim.Chunks[i]
		pos := sim.PosOf(i)
		switch c.River.Kind {
		case RiverOcean:
			continue
		case RiverLake:
			r := sim.PosOf(receiver[i])
			c.Downhill = &r
			c.WaterAlt = filled[i]
		default:
			best := -1
			bestLevel := filled[i]
			for _, d := range Neighbors {
				np := pos.Add(d)
				if !sim.InBounds(np) {
					continue
				}
				ni := sim.Index(np)
				if filled[ni] < bestLevel {
					best, bestLevel = ni, filled[ni]
				}
			}
			if best < 0 {
				return nil, fmt.Errorf("hydrology: land chunk %v has no lower neighbour", pos)
			}
			dp := sim.PosOf(best)
			c.Downhill = &dp
		}
	}

	// Each lake drains through the first chunk on its receiver chain that is
	// not part of a lake at the same level.
	for i := range sim.Chunks {
		if sim.Chunks[i].River.Kind != RiverLake {
			continue
		}
		j := receiver[i]
		for sim.Chunks[j].River.Kind == RiverLake && filled[j] == filled[i] {
			j = receiver[j]
		}
		sim.Chunks[i].River.PassPos = sim.PosOf(j)
	}

	// Flow accumulation, upstream first.
	flux := make([]float32, n)
	for k := len(order) - 1; k >= 0; k-- {
		i := order[k]
		c := &sim.Chunks[i]
		if c.River.Kind == RiverOcean {
			continue
		}
		flux[i] += 0.5 + c.Humidity
		di := sim.Index(*c.Downhill)
		flux[di] += flux[i]
	}

	// Classification and water altitudes, downstream first.
	for _, i := range order {
		c := &sim.Chunks[i]
		c.River.Flux = flux[i]
		switch c.River.Kind {
		case RiverOcean, RiverLake:
			continue
		}
		if flux[i] > RiverFluxThreshold {
			c.River.Kind = RiverRiver
			c.River.CrossSection = RiverCrossSection(flux[i])
			c.WaterAlt = c.Alt
		} else {
			c.WaterAlt = sim.Get(*c.Downhill).WaterAlt
		}
	}

	computeSplineDerivatives(sim, flux)

	h := &Hydrology{Filled: filled, Order: order}
	if err := Verify(sim); err != nil {
		return nil, err
	}
	return h, nil
}

// computeSplineDerivatives sets the river tangent at each river chunk to half
// the vector from the flux-weighted upstream center to the downhill center.
func computeSplineDerivatives(sim *WorldSim, flux []float32) {
	n := sim.ChunkCount()
	upSum := make([]mgl32.Vec2, n)
	upWeight := make([]float32, n)

	for i := range sim.Chunks {
		c := &sim.Chunks[i]
		if c.River.Kind != RiverRiver {
			continue
		}
		di := sim.Index(*c.Downhill)
		center := ChunkCenterWpos(sim.PosOf(i)).Vec()
		upSum[di] = upSum[di].Add(center.Mul(flux[i]))
		upWeight[di] += flux[i]
	}

	for i := range sim.Chunks {
		c := &sim.Chunks[i]
		if c.River.Kind != RiverRiver {
			continue
		}
		center := ChunkCenterWpos(sim.PosOf(i)).Vec()
		upstream := center
		if upWeight[i] > 0 {
			upstream = upSum[i].Mul(1 / upWeight[i])
		}
		down := ChunkCenterWpos(*c.Downhill).Vec()
		c.River.SplineDerivative = down.Sub(upstream).Mul(0.5)
	}
}

// Verify checks the hydrology invariants and names the first offending chunk.
func Verify(sim *WorldSim) error {
	sea := sim.SeaLevel
	n := sim.ChunkCount()
	for i := range sim.Chunks {
		c := &sim.Chunks[i]
		pos := sim.PosOf(i)
		if c.Basement > c.Alt {
			return fmt.Errorf("hydrology: chunk %v basement %.3f above alt %.3f", pos, c.Basement, c.Alt)
		}
		if c.WaterAlt < sea {
			return fmt.Errorf("hydrology: chunk %v water_alt %.3f below sea level", pos, c.WaterAlt)
		}
		switch c.River.Kind {
		case RiverOcean:
			if c.Alt > sea {
				return fmt.Errorf("hydrology: ocean chunk %v above sea level", pos)
			}
			if c.Downhill != nil {
				return fmt.Errorf("hydrology: ocean chunk %v has a downhill", pos)
			}
			continue
		case RiverRiver, RiverLake:
			if c.WaterAlt < c.Alt {
				return fmt.Errorf("hydrology: %s chunk %v water_alt %.3f below alt %.3f", c.River.Kind, pos, c.WaterAlt, c.Alt)
			}
		}
		if c.Downhill == nil {
			return fmt.Errorf("hydrology: %s chunk %v has no downhill", c.River.Kind, pos)
		}
		d := c.Downhill.Sub(pos)
		if _, ok := NeighborIndex(d); !ok || !sim.InBounds(*c.Downhill) {
			return fmt.Errorf("hydrology: chunk %v downhill %v is not an in-bounds neighbour", pos, *c.Downhill)
		}
		if c.River.Kind == RiverRiver && sim.Get(*c.Downhill).WaterAlt > c.WaterAlt {
			return fmt.Errorf("hydrology: river chunk %v flows uphill to %v", pos, *c.Downhill)
		}
		if c.River.Kind == RiverLake {
			pass := sim.Get(c.River.PassPos)
			if pass == nil {
				return fmt.Errorf("hydrology: lake chunk %v pass %v out of bounds", pos, c.River.PassPos)
			}
			if !pass.River.IsOcean() && pass.Alt < c.WaterAlt {
				return fmt.Errorf("hydrology: lake chunk %v water_alt %.3f above its pass %v at %.3f", pos, c.WaterAlt, c.River.PassPos, pass.Alt)
			}
		}
	}

	// Every chain must reach an ocean within n steps.
	state := make([]uint8, n) // 0 unknown, 1 reaches ocean
	for i := range sim.Chunks {
		j, steps := i, 0
		for state[j] == 0 {
			c := &sim.Chunks[j]
			if c.Downhill == nil {
				state[j] = 1
				break
			}
			j = sim.Index(*c.Downhill)
			steps++
			if steps > n {
				return fmt.Errorf("hydrology: downhill cycle through chunk %v", sim.PosOf(i))
			}
		}
		for k := i; state[k] == 0; {
			state[k] = 1
			k = sim.Index(*sim.Chunks[k].Downhill)
		}
	}
	return nil
}
