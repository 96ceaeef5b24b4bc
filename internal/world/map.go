package world

import "fmt"

// WorldSim holds the complete chunk grid.
type WorldSim struct {
	Lg       MapSizeLg
	SeaLevel float32
	Chunks   []SimChunk // Row-major, y*width + x
}

// NewWorldSim creates an empty grid of 2^lg.X × 2^lg.Y chunks.
func NewWorldSim(lg MapSizeLg, seaLevel float32) *WorldSim {
	sz := lg.Chunks()
	return &WorldSim{
		Lg:       lg,
		SeaLevel: seaLevel,
		Chunks:   make([]SimChunk, int(sz.X)*int(sz.Y)),
	}
}

// Clone returns a deep copy of the grid.
func (s *WorldSim) Clone() *WorldSim {
	out := &WorldSim{Lg: s.Lg, SeaLevel: s.SeaLevel, Chunks: make([]SimChunk, len(s.Chunks))}
	for i := range s.Chunks {
		out.Chunks[i] = s.Chunks[i].Clone()
	}
	return out
}

// Size returns the grid dimensions in chunks.
func (s *WorldSim) Size() Vec2i {
	return s.Lg.Chunks()
}

// InBounds returns true if the chunk position lies inside the grid.
func (s *WorldSim) InBounds(pos Vec2i) bool {
	sz := s.Size()
	return pos.X >= 0 && pos.Y >= 0 && pos.X < sz.X && pos.Y < sz.Y
}

// Index returns the slice index of an in-bounds chunk position.
func (s *WorldSim) Index(pos Vec2i) int {
	return int(pos.Y)*int(s.Size().X) + int(pos.X)
}

// PosOf is the inverse of Index.
func (s *WorldSim) PosOf(idx int) Vec2i {
	w := int(s.Size().X)
	return Vec2i{int32(idx % w), int32(idx / w)}
}

// Get returns the chunk at pos, or nil if out of bounds.
func (s *WorldSim) Get(pos Vec2i) *SimChunk {
	if !s.InBounds(pos) {
		return nil
	}
	return &s.Chunks[s.Index(pos)]
}

// GetWpos returns the chunk containing a world position, or nil.
func (s *WorldSim) GetWpos(wpos Vec2i) *SimChunk {
	return s.Get(WposToChunk(wpos))
}

// clampPos snaps a chunk position onto the grid.
func (s *WorldSim) clampPos(pos Vec2i) Vec2i {
	sz := s.Size()
	return Vec2i{clampI32(pos.X, 0, sz.X-1), clampI32(pos.Y, 0, sz.Y-1)}
}

// ChunkCount returns the total number of chunks.
func (s *WorldSim) ChunkCount() int {
	return len(s.Chunks)
}

// String returns a summary of the grid.
func (s *WorldSim) String() string {
	sz := s.Size()
	return fmt.Sprintf("WorldSim(%dx%d, sea=%.1f)", sz.X, sz.Y, s.SeaLevel)
}

func clampI32(v, lo, hi int32) int32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampF(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
