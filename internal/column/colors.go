// Biome palette and surface colour blending.
package column

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/talgya/civworld/internal/config"
)

// Palette is the set of reference colours blended into surface colours.
type Palette struct {
	Sand          mgl32.Vec3
	Cliff         mgl32.Vec3
	Dirt          mgl32.Vec3
	ColdGrass     mgl32.Vec3
	WarmGrass     mgl32.Vec3
	DarkGrass     mgl32.Vec3
	TropicalGrass mgl32.Vec3
	DesertSand    mgl32.Vec3
	Snow          mgl32.Vec3
}

// DefaultPalette is used by every Sampler unless replaced.
var DefaultPalette = Palette{
	Sand:          mgl32.Vec3{0.93, 0.84, 0.56},
	Cliff:         mgl32.Vec3{0.42, 0.40, 0.38},
	Dirt:          mgl32.Vec3{0.38, 0.26, 0.16},
	ColdGrass:     mgl32.Vec3{0.05, 0.45, 0.30},
	WarmGrass:     mgl32.Vec3{0.25, 0.60, 0.10},
	DarkGrass:     mgl32.Vec3{0.10, 0.34, 0.05},
	TropicalGrass: mgl32.Vec3{0.42, 0.62, 0.08},
	DesertSand:    mgl32.Vec3{0.90, 0.74, 0.44},
	Snow:          mgl32.Vec3{0.90, 0.92, 1.00},
}

// ramp maps v linearly from [lo, hi] onto [0, 1].
func ramp(v, lo, hi float32) float32 {
	if hi <= lo {
		if v < lo {
			return 0
		}
		return 1
	}
	return max(0, min((v-lo)/(hi-lo), 1))
}

func mix(a, b mgl32.Vec3, t float32) mgl32.Vec3 {
	return a.Add(b.Sub(a).Mul(t))
}

// Biome blends the grass and desert colours piecewise across the
// temperature and humidity bands of cfg.
func (p Palette) Biome(cfg config.WorldConfig, temp, humidity float32) mgl32.Vec3 {
	grass := mix(p.ColdGrass, p.WarmGrass, ramp(temp, cfg.SnowTemp, cfg.TemperateTemp))
	grass = mix(grass, p.TropicalGrass, ramp(temp, cfg.TemperateTemp, cfg.TropicalTemp))

	wet := mix(grass, p.DarkGrass, ramp(humidity, cfg.ForestHum, cfg.JungleHum))
	dry := mix(p.Dirt, p.Sand, ramp(temp, cfg.TemperateTemp, cfg.DesertTemp))
	if temp > cfg.DesertTemp {
		dry = p.DesertSand
	}
	return mix(dry, wet, ramp(humidity, cfg.DesertHum, cfg.ForestHum))
}

// Surface returns the top colour of a column. Underwater columns grade from
// sand to cliff with rockiness; dry ones take the biome colour, with beaches
// just above the water and exposed rock on steep chaotic ground.
func (p Palette) Surface(cfg config.WorldConfig, temp, humidity, rock, chaos, alt, waterLevel float32) mgl32.Vec3 {
	if alt <= waterLevel {
		return mix(p.Sand, p.Cliff, rock)
	}
	c := p.Biome(cfg, temp, humidity)
	c = mix(p.Sand, c, ramp(alt-waterLevel, 0, 3))
	return mix(c, p.Cliff, ramp(rock*chaos, 0.25, 0.6))
}

// SubSurface returns the colour beneath the top layer.
func (p Palette) SubSurface(rock float32) mgl32.Vec3 {
	return mix(p.Dirt, p.Cliff, rock)
}

// StoneColor derives the stone tint of a column from its marble noise.
func StoneColor(marble, rock float32) [3]uint8 {
	base := 110 + 60*marble
	warm := 12 * rock
	return [3]uint8{
		uint8(max(0, min(base+warm, 255))),
		uint8(max(0, min(base, 255))),
		uint8(max(0, min(base-warm, 255))),
	}
}
