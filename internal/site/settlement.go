// Settlement layout — plaza, two crossing main streets, house plots and fields.
package site

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/talgya/civworld/internal/entropy"
	"github.com/talgya/civworld/internal/world"
)

// PlotKind classifies a settlement plot.
type PlotKind uint8

const (
	PlotHouse PlotKind = iota
	PlotField
	PlotWorkshop
)

// Plot is an axis-aligned rectangle in world coordinates.
type Plot struct {
	Kind     PlotKind
	Min, Max world.Vec2i
}

// Contains reports whether wpos lies inside the plot.
func (p Plot) Contains(wpos world.Vec2i) bool {
	return wpos.X >= p.Min.X && wpos.X < p.Max.X && wpos.Y >= p.Min.Y && wpos.Y < p.Max.Y
}

func (p Plot) overlaps(o Plot, margin int32) bool {
	return p.Min.X < o.Max.X+margin && o.Min.X < p.Max.X+margin &&
		p.Min.Y < o.Max.Y+margin && o.Min.Y < p.Max.Y+margin
}

// Street is a straight segment with a width.
type Street struct {
	From, To mgl32.Vec2
	Width    float32
}

func (s Street) dist(p mgl32.Vec2) float32 {
	ab := s.To.Sub(s.From)
	l2 := ab.Dot(ab)
	if l2 == 0 {
		return p.Sub(s.From).Len()
	}
	t := p.Sub(s.From).Dot(ab) / l2
	t = float32(math.Max(0, math.Min(1, float64(t))))
	return p.Sub(s.From.Add(ab.Mul(t))).Len()
}

// Settlement is a town layout.
type Settlement struct {
	origin      world.Vec2i
	radius      float32
	Alt         float32
	PlazaRadius float32
	Streets     []Street
	Plots       []Plot
}

// GenerateSettlement lays out a town around wpos.
func GenerateSettlement(wpos world.Vec2i, sim *world.WorldSim, rng *entropy.Rng) *Settlement {
	s := &Settlement{
		origin:      wpos,
		radius:      rng.Range(56, 120),
		Alt:         surfaceAlt(sim, wpos),
		PlazaRadius: rng.Range(8, 14),
	}

	o := wpos.Vec()
	angle := rng.Range(0, math.Pi)
	for i := 0; i < 2; i++ {
		a := float64(angle) + float64(i)*math.Pi/2
		dir := mgl32.Vec2{float32(math.Cos(a)), float32(math.Sin(a))}.Mul(s.radius * 0.9)
		s.Streets = append(s.Streets, Street{From: o.Sub(dir), To: o.Add(dir), Width: 4})
	}

	// Houses on rings around the plaza, fields further out.
	for ring := s.PlazaRadius + 10; ring < s.radius-8; ring += 18 {
		count := int(2 * math.Pi * float64(ring) / 20)
		phase := rng.Range(0, 2*math.Pi)
		for k := 0; k < count; k++ {
			a := float64(phase) + 2*math.Pi*float64(k)/float64(count)
			c := o.Add(mgl32.Vec2{float32(math.Cos(a)), float32(math.Sin(a))}.Mul(ring))
			half := rng.Int32Range(4, 8)
			kind := PlotHouse
			if ring > s.radius*0.65 {
				kind = PlotField
				half += 4
			} else if rng.Chance(6) {
				kind = PlotWorkshop
			}
			center := world.Vec2i{X: int32(c[0]), Y: int32(c[1])}
			p := Plot{
				Kind: kind,
				Min:  world.Vec2i{X: center.X - half, Y: center.Y - half},
				Max:  world.Vec2i{X: center.X + half, Y: center.Y + half},
			}
			if s.blocked(sim, p) {
				continue
			}
			s.Plots = append(s.Plots, p)
		}
	}
	return s
}

// blocked rejects plots on water, across a street or overlapping another plot.
func (s *Settlement) blocked(sim *world.WorldSim, p Plot) bool {
	center := world.Vec2i{X: (p.Min.X + p.Max.X) / 2, Y: (p.Min.Y + p.Max.Y) / 2}
	c := sim.GetWpos(center)
	if c == nil || c.River.NearWater() {
		return true
	}
	half := float32(p.Max.X-p.Min.X) / 2
	for _, st := range s.Streets {
		if st.dist(center.Vec()) < st.Width/2+half {
			return true
		}
	}
	for _, o := range s.Plots {
		if p.overlaps(o, 2) {
			return true
		}
	}
	return false
}

func (s *Settlement) Kind() Kind           { return KindSettlement }
func (s *Settlement) Origin() world.Vec2i  { return s.origin }
func (s *Settlement) Radius() float32      { return s.radius }

// SpawnRules forbids trees on streets, the plaza and every plot.
func (s *Settlement) SpawnRules(wpos world.Vec2i) SpawnRules {
	d := s.origin.Dist(wpos)
	if d > s.radius {
		return SpawnRules{Trees: true}
	}
	if d <= s.PlazaRadius {
		return SpawnRules{Trees: false}
	}
	p := wpos.Vec()
	for _, st := range s.Streets {
		if st.dist(p) <= st.Width/2 {
			return SpawnRules{Trees: false}
		}
	}
	for _, pl := range s.Plots {
		if pl.Contains(wpos) {
			return SpawnRules{Trees: false}
		}
	}
	return SpawnRules{Trees: true}
}
