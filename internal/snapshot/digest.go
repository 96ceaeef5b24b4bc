package snapshot

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"hash"
	"math"

	"github.com/talgya/civworld/internal/civ"
	"github.com/talgya/civworld/internal/world"
)

type digester struct {
	h   hash.Hash
	tmp [8]byte
}

func (d *digester) u64(v uint64) {
	binary.LittleEndian.PutUint64(d.tmp[:], v)
	d.h.Write(d.tmp[:])
}

func (d *digester) u32(v uint32)  { d.u64(uint64(v)) }
func (d *digester) i32(v int32)   { d.u64(uint64(int64(v))) }
func (d *digester) f32(v float32) { d.u64(uint64(math.Float32bits(v))) }
func (d *digester) pos(p world.Vec2i) {
	d.i32(p.X)
	d.i32(p.Y)
}

func (d *digester) str(s string) {
	d.u64(uint64(len(s)))
	d.h.Write([]byte(s))
}

// Digest hashes every chunk field and every civilization entity in ID
// order. Two worlds generated from the same inputs have equal digests.
func Digest(sim *world.WorldSim, c *civ.Civs) string {
	d := &digester{h: sha256.New()}
	d.u32(uint32(sim.Lg.X))
	d.u32(uint32(sim.Lg.Y))
	d.f32(sim.SeaLevel)

	for i := range sim.Chunks {
		ch := &sim.Chunks[i]
		for _, v := range []float32{
			ch.Alt, ch.Basement, ch.WaterAlt, ch.Chaos, ch.Temp, ch.Humidity,
			ch.Rockiness, ch.TreeDensity, ch.SpawnRate, ch.SurfaceVeg, ch.WarpFactor,
		} {
			d.f32(v)
		}
		if ch.Downhill != nil {
			d.u64(1)
			d.pos(*ch.Downhill)
		} else {
			d.u64(0)
		}
		r := ch.River
		d.u64(uint64(r.Kind))
		d.pos(r.PassPos)
		d.f32(r.CrossSection[0])
		d.f32(r.CrossSection[1])
		d.f32(r.SplineDerivative[0])
		d.f32(r.SplineDerivative[1])
		d.f32(r.Flux)
		d.u64(uint64(ch.ForestKind))
		d.digestWay(ch.Path.Way)
		d.f32(ch.Path.Path.Width)
		d.digestWay(ch.Cave.Way)
		d.f32(ch.Cave.Cave.Width)
		d.f32(ch.Cave.Cave.Alt)
		d.u32(uint32(ch.Place))
		d.u64(uint64(len(ch.Sites)))
		for _, s := range ch.Sites {
			d.u32(uint32(s))
		}
	}

	if c != nil {
		for _, p := range c.Places {
			d.pos(p.Center)
			d.f32(p.NatRes.Wood)
			d.f32(p.NatRes.Rock)
			d.f32(p.NatRes.River)
			d.f32(p.NatRes.Farmland)
		}
		for _, s := range c.Sites {
			d.u64(uint64(s.Kind))
			d.str(s.Name)
			d.pos(s.Center)
			d.u32(uint32(s.Place))
			d.f32(s.Economy.Population)
			d.f32(s.Economy.Coin)
			for _, v := range s.Economy.Stocks.Data {
				d.f32(v)
			}
		}
		for _, t := range c.Tracks {
			d.u32(uint32(t.A))
			d.u32(uint32(t.B))
			d.f32(t.Cost)
			d.u64(uint64(len(t.Path)))
			for _, p := range t.Path {
				d.pos(p)
			}
		}
		for _, v := range c.Civs {
			d.str(v.Name)
			d.u32(uint32(v.Capital))
			d.u32(uint32(v.Homeland))
		}
	}
	return hex.EncodeToString(d.h.Sum(nil))
}

func (d *digester) digestWay(w world.Way) {
	d.h.Write([]byte{byte(w.Offset[0]), byte(w.Offset[1]), w.Neighbors})
}
