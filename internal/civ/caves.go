// Cave network — meandering underground corridors walked across the grid.
package civ

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/talgya/civworld/internal/world"
)

// Cave generation constants.
const (
	CaveCount     = 100
	CaveHalfSteps = 100
	caveStep      = 0.5
	caveJitter    = 0.35
)

type caveCell struct {
	pos   world.Vec2i
	depth float32
}

// GenerateCaves stamps CaveCount caves onto the grid.
func GenerateCaves(ctx GenCtx) {
	for i := 0; i < CaveCount; i++ {
		generateCave(ctx)
	}
}

func generateCave(ctx GenCtx) {
	sz := ctx.Sim.Size()
	maxPos := mgl32.Vec2{float32(sz.X - 1), float32(sz.Y - 1)}

	pos := mgl32.Vec2{float32(ctx.Rng.IntN(int(sz.X))), float32(ctx.Rng.IntN(int(sz.Y)))}
	vel := normalizeOr(mgl32.Vec2{float32(sz.X) / 2, float32(sz.Y) / 2}.Sub(pos), mgl32.Vec2{0, 1})

	var walk []caveCell
	for i := -CaveHalfSteps; i < CaveHalfSteps; i++ {
		depth := float32(math.Cos(math.Abs(float64(i)) / CaveHalfSteps * math.Pi / 2))
		vel = normalizeOr(vel.Add(mgl32.Vec2{ctx.Rng.Range(-caveJitter, caveJitter), ctx.Rng.Range(-caveJitter, caveJitter)}), mgl32.Vec2{0, 1})
		old := cellOf(pos)
		pos = pos.Add(vel.Mul(caveStep))
		pos = mgl32.Vec2{clampf(pos[0], 0, maxPos[0]), clampf(pos[1], 0, maxPos[1])}
		if p := cellOf(pos); p != old {
			walk = append(walk, caveCell{p, depth})
		}
	}

	for i := 0; i+2 < len(walk); i++ {
		prev, mid, next := walk[i].pos, walk[i+1].pos, walk[i+2].pos
		toPrev, ok1 := world.NeighborIndex(prev.Sub(mid))
		toNext, ok2 := world.NeighborIndex(next.Sub(mid))
		if !ok1 || !ok2 {
			continue
		}
		fromPrev, _ := world.NeighborIndex(mid.Sub(prev))
		fromNext, _ := world.NeighborIndex(mid.Sub(next))
		ctx.Sim.Get(prev).Cave.Way.Neighbors |= 1 << uint(fromPrev)
		ctx.Sim.Get(mid).Cave.Way.Neighbors |= 1<<uint(toPrev) | 1<<uint(toNext)
		ctx.Sim.Get(next).Cave.Way.Neighbors |= 1 << uint(fromNext)
	}

	for _, cell := range walk {
		ch := ctx.Sim.Get(cell.pos)
		depth := cell.depth*250 - 20
		ch.Cave.Cave.Alt = ch.Alt - depth
		if depth > 10 {
			ch.Cave.Cave.Alt += ctx.Rng.Range(-4, 4)
		}
		ch.Cave.Cave.Width = ctx.Rng.Range(6, 32)
		ch.Cave.Way.Offset = [2]int8{int8(ctx.Rng.Int32Range(-16, 17)), int8(ctx.Rng.Int32Range(-16, 17))}
		if ch.Cave.Cave.Alt+ch.Cave.Cave.Width+5 > ch.Alt {
			ch.SpawnRate = 0
		}
	}
}

func cellOf(p mgl32.Vec2) world.Vec2i {
	return world.Vec2i{X: int32(p[0]), Y: int32(p[1])}
}

func normalizeOr(v, fallback mgl32.Vec2) mgl32.Vec2 {
	if l := v.Len(); l > 1e-6 {
		return v.Mul(1 / l)
	}
	return fallback
}

func clampf(v, lo, hi float32) float32 {
	return max(lo, min(v, hi))
}
