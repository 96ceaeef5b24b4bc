// Terrain flattening around site centers.
package civ

import "github.com/talgya/civworld/internal/world"

// Flattening constants.
const (
	FlattenRadius     = 48
	flattenGain       = 1.25
	SettlementRaise   = 10
	settlementRaiseIn = 6
)

// FlattenFactor is the blend weight toward the site altitude for a chunk at
// dist chunks from the center, in [0,1].
func FlattenFactor(dist float32) float32 {
	return max(0, min((1-dist/FlattenRadius)*flattenGain, 1))
}

// lakePassFloors maps each land chunk acting as a lake's pass to the highest
// water level it holds back.
func lakePassFloors(sim *world.WorldSim) map[int]float32 {
	floors := make(map[int]float32)
	for i := range sim.Chunks {
		ch := &sim.Chunks[i]
		if !ch.River.IsLake() {
			continue
		}
		pass := sim.Get(ch.River.PassPos)
		if pass == nil || pass.River.IsOcean() {
			continue
		}
		pi := sim.Index(ch.River.PassPos)
		if f, ok := floors[pi]; !ok || ch.WaterAlt > f {
			floors[pi] = ch.WaterAlt
		}
	}
	return floors
}

// flattenSites levels the terrain around every site in ID order. Water
// chunks are left alone; water level and bedrock move with the surface. A
// lake pass never drops below the water it holds back.
func (c *Civs) flattenSites(ctx GenCtx) {
	floors := lakePassFloors(ctx.Sim)
	scan := world.Spiral((FlattenRadius*2 + 1) * (FlattenRadius*2 + 1))
	for i := range c.Sites {
		s := &c.Sites[i]
		centerCh := ctx.Sim.Get(s.Center)
		if centerCh == nil {
			continue
		}
		base := centerCh.Alt

		for _, off := range scan {
			pos := s.Center.Add(off)
			dist := s.Center.Dist(pos)
			factor := FlattenFactor(dist)
			if factor <= 0 {
				continue
			}
			ch := ctx.Sim.Get(pos)
			if ch == nil || ch.River.NearWater() {
				continue
			}
			target := base
			if s.Kind == KindSettlement && dist <= settlementRaiseIn {
				target += SettlementRaise
			}
			alt := ch.Alt + (target-ch.Alt)*factor
			if f, ok := floors[ctx.Sim.Index(pos)]; ok && alt < f {
				alt = f
			}
			diff := alt - ch.Alt
			ch.WaterAlt = max(ctx.Sim.SeaLevel, ch.WaterAlt+diff)
			ch.Alt = alt
			ch.Basement += diff
			ch.Rockiness = 0
			ch.WarpFactor = 0
			ch.SurfaceVeg *= 1 - factor*ctx.Rng.Range(0.25, 0.9)
		}
	}
}
