// Package snapshot writes and reads compressed dumps of a generated world:
// a JSON header line followed by a gob body, all inside a zstd stream.
package snapshot

import (
	"bufio"
	"encoding/gob"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"

	"github.com/talgya/civworld/internal/civ"
	"github.com/talgya/civworld/internal/config"
	"github.com/talgya/civworld/internal/economy"
	"github.com/talgya/civworld/internal/world"
)

// Version is the current snapshot format.
const Version = 1

// ErrVersion is returned when a snapshot has an unsupported format version.
var ErrVersion = errors.New("unsupported snapshot version")

// Header is the uncompressed-readable first line of a snapshot.
type Header struct {
	Version int    `json:"version"`
	WorldID string `json:"world_id"`
	Seed    uint32 `json:"seed"`
	LgX     uint8  `json:"lg_x"`
	LgY     uint8  `json:"lg_y"`
	Digest  string `json:"digest"`
}

// SiteV1 is the persisted summary of a site.
type SiteV1 struct {
	Kind       uint8
	Name       string
	Center     world.Vec2i
	Place      uint32
	Population float32
	Coin       float32
	Stocks     []float32
}

// SnapshotV1 is the full snapshot body.
type SnapshotV1 struct {
	Header Header
	Config config.WorldConfig

	Chunks []world.SimChunk
	Places []civ.Place
	Sites  []SiteV1
	Tracks []civ.Track
	Civs   []civ.Civ
}

// Build captures a world into a snapshot.
func Build(worldID string, seed uint32, cfg config.WorldConfig, sim *world.WorldSim, c *civ.Civs) SnapshotV1 {
	snap := SnapshotV1{
		Header: Header{
			Version: Version,
			WorldID: worldID,
			Seed:    seed,
			LgX:     sim.Lg.X,
			LgY:     sim.Lg.Y,
			Digest:  Digest(sim, c),
		},
		Config: cfg,
		Chunks: sim.Chunks,
		Places: c.Places,
		Tracks: c.Tracks,
		Civs:   c.Civs,
	}
	for _, s := range c.Sites {
		snap.Sites = append(snap.Sites, SiteV1{
			Kind:       uint8(s.Kind),
			Name:       s.Name,
			Center:     s.Center,
			Place:      uint32(s.Place),
			Population: s.Economy.Population,
			Coin:       s.Economy.Coin,
			Stocks:     s.Economy.Stocks.Data,
		})
	}
	return snap
}

// Grid rebuilds the chunk grid held by a snapshot.
func (s *SnapshotV1) Grid() *world.WorldSim {
	sim := world.NewWorldSim(world.MapSizeLg{X: s.Header.LgX, Y: s.Header.LgY}, s.Config.SeaLevel)
	copy(sim.Chunks, s.Chunks)
	return sim
}

// RestoreCivs rebuilds the civilization stores held by a snapshot. Site economies
// keep population, coin and stocks; layouts are not restored.
func (s *SnapshotV1) RestoreCivs() *civ.Civs {
	sites := make([]civ.Site, 0, len(s.Sites))
	for _, sv := range s.Sites {
		e := economy.New()
		e.Population = sv.Population
		e.Coin = sv.Coin
		copy(e.Stocks.Data, sv.Stocks)
		sites = append(sites, civ.Site{
			Kind:    civ.SiteKind(sv.Kind),
			Name:    sv.Name,
			Center:  sv.Center,
			Place:   civ.PlaceID(sv.Place),
			Economy: e,
		})
	}
	return civ.Restore(s.Places, sites, s.Tracks, s.Civs)
}

// Encode writes snap to w.
func Encode(w io.Writer, snap *SnapshotV1) error {
	enc, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return fmt.Errorf("zstd writer: %w", err)
	}
	bw := bufio.NewWriterSize(enc, 256*1024)

	hb, err := json.Marshal(snap.Header)
	if err != nil {
		enc.Close()
		return fmt.Errorf("header: %w", err)
	}
	if _, err := bw.Write(append(hb, '\n')); err != nil {
		enc.Close()
		return err
	}
	if err := gob.NewEncoder(bw).Encode(snap); err != nil {
		enc.Close()
		return fmt.Errorf("gob encode: %w", err)
	}
	if err := bw.Flush(); err != nil {
		enc.Close()
		return err
	}
	return enc.Close()
}

// Decode reads a snapshot from r.
func Decode(r io.Reader) (SnapshotV1, error) {
	var snap SnapshotV1
	dec, err := zstd.NewReader(r)
	if err != nil {
		return snap, fmt.Errorf("zstd reader: %w", err)
	}
	defer dec.Close()

	br := bufio.NewReaderSize(dec, 256*1024)
	line, err := br.ReadBytes('\n')
	if err != nil {
		return snap, fmt.Errorf("header: %w", err)
	}
	var h Header
	if err := json.Unmarshal(line, &h); err != nil {
		return snap, fmt.Errorf("header: %w", err)
	}
	if h.Version != Version {
		return snap, fmt.Errorf("%w: %d", ErrVersion, h.Version)
	}
	if err := gob.NewDecoder(br).Decode(&snap); err != nil {
		return snap, fmt.Errorf("gob decode: %w", err)
	}
	return snap, nil
}

// Write stores snap at path, creating parent directories.
func Write(path string, snap *SnapshotV1) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if err := Encode(f, snap); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Read loads a snapshot from path.
func Read(path string) (SnapshotV1, error) {
	f, err := os.Open(path)
	if err != nil {
		return SnapshotV1{}, err
	}
	defer f.Close()
	return Decode(f)
}

// ReadHeader returns only the header line of a snapshot.
func ReadHeader(path string) (Header, error) {
	var h Header
	f, err := os.Open(path)
	if err != nil {
		return h, err
	}
	defer f.Close()
	dec, err := zstd.NewReader(f)
	if err != nil {
		return h, err
	}
	defer dec.Close()
	line, err := bufio.NewReader(dec).ReadBytes('\n')
	if err != nil {
		return h, fmt.Errorf("header: %w", err)
	}
	if err := json.Unmarshal(line, &h); err != nil {
		return h, fmt.Errorf("header: %w", err)
	}
	return h, nil
}
