package snapshot

import (
	"bytes"
	"errors"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zstd"

	"github.com/talgya/civworld/internal/civ"
	"github.com/talgya/civworld/internal/config"
	"github.com/talgya/civworld/internal/economy"
	"github.com/talgya/civworld/internal/world"
)

func testWorld() (*world.WorldSim, *civ.Civs) {
	sim := world.NewWorldSim(world.MapSizeLg{X: 4, Y: 4}, 140)
	for i := range sim.Chunks {
		c := &sim.Chunks[i]
		c.Alt = 150 + float32(i%7)
		c.Basement = c.Alt - 10
		c.WaterAlt = 140
	}
	down := world.Vec2i{X: 3, Y: 2}
	sim.Get(world.Vec2i{X: 2, Y: 2}).Downhill = &down
	sim.Get(world.Vec2i{X: 2, Y: 2}).River.Kind = world.RiverRiver
	sim.Get(world.Vec2i{X: 5, Y: 5}).Sites = []world.SiteID{1}

	e := economy.New()
	e.Population = 77
	sites := []civ.Site{
		{Kind: civ.KindSettlement, Name: "Alder", Center: world.Vec2i{X: 5, Y: 5}, Place: 1, Economy: e},
		{Kind: civ.KindCastle, Name: "Brackwall", Center: world.Vec2i{X: 9, Y: 5}, Place: 1, Economy: economy.New()},
	}
	places := []civ.Place{{Center: world.Vec2i{X: 5, Y: 5}, Chunks: []world.Vec2i{{X: 5, Y: 5}, {X: 6, Y: 5}}}}
	tracks := []civ.Track{{A: 1, B: 2, Cost: 12, Path: []world.Vec2i{{X: 5, Y: 5}, {X: 6, Y: 5}, {X: 7, Y: 5}}}}
	civs := []civ.Civ{{Name: "Alderfolk", Capital: 1, Homeland: 1}}
	return sim, civ.Restore(places, sites, tracks, civs)
}

func TestWriteReadRoundTrip(t *testing.T) {
	sim, c := testWorld()
	snap := Build("w-1", 7, config.DefaultWorldConfig(), sim, c)
	path := filepath.Join(t.TempDir(), "nested", "world.snap")
	if err := Write(path, &snap); err != nil {
		t.Fatalf("write: %v", err)
	}

	h, err := ReadHeader(path)
	if err != nil {
		t.Fatalf("read header: %v", err)
	}
	if h.WorldID != "w-1" || h.Seed != 7 || h.Digest != snap.Header.Digest {
		t.Fatalf("header = %+v", h)
	}

	got, err := Read(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	sim2, c2 := got.Grid(), got.RestoreCivs()
	if d := Digest(sim2, c2); d != snap.Header.Digest {
		t.Fatalf("digest after reload %s, want %s", d, snap.Header.Digest)
	}
	if ch := sim2.Get(world.Vec2i{X: 2, Y: 2}); ch.Downhill == nil || *ch.Downhill != (world.Vec2i{X: 3, Y: 2}) {
		t.Fatalf("downhill lost: %+v", ch.Downhill)
	}
	if id, ok := c2.TrackBetween(2, 1); !ok || id != 1 {
		t.Fatalf("track map not rebuilt")
	}
	if c2.Site(1).Economy.Population != 77 {
		t.Fatalf("population = %v", c2.Site(1).Economy.Population)
	}
}

func TestDigestSensitivity(t *testing.T) {
	sim, c := testWorld()
	base := Digest(sim, c)
	if base != Digest(sim, c) {
		t.Fatalf("digest not stable")
	}

	sim.Get(world.Vec2i{X: 1, Y: 1}).Alt += 0.001
	if Digest(sim, c) == base {
		t.Fatalf("digest ignores altitude")
	}
	sim.Get(world.Vec2i{X: 1, Y: 1}).Alt -= 0.001

	c.Site(2).Name = "Other"
	if Digest(sim, c) == base {
		t.Fatalf("digest ignores site names")
	}
}

func TestDecodeRejectsUnknownVersion(t *testing.T) {
	var buf bytes.Buffer
	enc, err := zstd.NewWriter(&buf)
	if err != nil {
		t.Fatal(err)
	}
	enc.Write([]byte(`{"version":99}` + "\n"))
	enc.Close()

	_, err = Decode(&buf)
	if !errors.Is(err, ErrVersion) {
		t.Fatalf("err = %v, want ErrVersion", err)
	}
}
