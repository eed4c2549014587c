package world

import (
	"fmt"
	"sort"

	"voxelstore.dev/internal/mathx"
	"voxelstore.dev/internal/world/block"
)

// Filler populates a freshly materialized chunk, e.g. with generated
// terrain. It runs before the chunk is visible through the store.
type Filler interface {
	FillChunk(c *Chunk, k ChunkKey) error
}

// ChunkStore maps chunk keys to chunks, all sharing one registry and one
// set of dims. Chunks materialize on first access, packed with the
// configured fill. Like the chunks it owns, a store belongs to a single
// goroutine.
type ChunkStore struct {
	reg    *block.Registry
	dims   Dims
	fill   block.Block
	radius int // chunks from origin per axis, 0 = unbounded
	filler Filler

	chunks map[ChunkKey]*Chunk
}

func NewChunkStore(reg *block.Registry, dims Dims, fill block.Block, radius int) (*ChunkStore, error) {
	if dims.X <= 0 || dims.Y <= 0 || dims.Z <= 0 || dims.Volume() > block.MaxAddrs {
		return nil, fmt.Errorf("%w: %dx%dx%d", ErrVolume, dims.X, dims.Y, dims.Z)
	}
	k, ok := reg.KindFor(fill)
	if !ok {
		return nil, fmt.Errorf("fill %q: %w", fill.ID(), ErrUnknownKind)
	}
	if !reg.Inline(k) {
		return nil, fmt.Errorf("fill %q: %w", fill.ID(), ErrNotInline)
	}
	return &ChunkStore{
		reg:    reg,
		dims:   dims,
		fill:   fill,
		radius: radius,
		chunks: make(map[ChunkKey]*Chunk),
	}, nil
}

func (s *ChunkStore) Dims() Dims {
	return s.dims
}

func (s *ChunkStore) Registry() *block.Registry {
	return s.reg
}

func (s *ChunkStore) Radius() int {
	return s.radius
}

// SetFiller installs the terrain filler. Install before serving; chunks
// already materialized are not refilled.
func (s *ChunkStore) SetFiller(f Filler) {
	s.filler = f
}

// Len is the number of materialized chunks.
func (s *ChunkStore) Len() int {
	return len(s.chunks)
}

// EntityTotal sums live arena entries across loaded chunks.
func (s *ChunkStore) EntityTotal() int {
	n := 0
	for _, c := range s.chunks {
		n += c.EntityCount()
	}
	return n
}

func (s *ChunkStore) KeyInBounds(k ChunkKey) bool {
	if s.radius <= 0 {
		return true
	}
	return mathx.AbsInt(k.CX) <= s.radius &&
		mathx.AbsInt(k.CY) <= s.radius &&
		mathx.AbsInt(k.CZ) <= s.radius
}

func (s *ChunkStore) ChunkAt(k ChunkKey) (*Chunk, bool) {
	c, ok := s.chunks[k]
	return c, ok
}

// EnsureChunk returns the chunk at k, materializing it if needed. Keys
// beyond the configured radius fail with ErrOutOfBounds.
func (s *ChunkStore) EnsureChunk(k ChunkKey) (*Chunk, error) {
	if c, ok := s.chunks[k]; ok {
		return c, nil
	}
	if !s.KeyInBounds(k) {
		return nil, fmt.Errorf("chunk (%d,%d,%d): %w", k.CX, k.CY, k.CZ, ErrOutOfBounds)
	}
	c, err := NewChunk(s.reg, s.dims, s.fill)
	if err != nil {
		return nil, err
	}
	if s.filler != nil {
		if err := s.filler.FillChunk(c, k); err != nil {
			return nil, fmt.Errorf("fill chunk (%d,%d,%d): %w", k.CX, k.CY, k.CZ, err)
		}
	}
	s.chunks[k] = c
	return c, nil
}

// Locate splits a global position into a chunk key and local coordinates.
// Floor division keeps negative coordinates correct.
func (s *ChunkStore) Locate(p Vec3i) (ChunkKey, Vec3i) {
	k := ChunkKey{
		CX: mathx.FloorDiv(p.X, s.dims.X),
		CY: mathx.FloorDiv(p.Y, s.dims.Y),
		CZ: mathx.FloorDiv(p.Z, s.dims.Z),
	}
	l := Vec3i{
		X: mathx.Mod(p.X, s.dims.X),
		Y: mathx.Mod(p.Y, s.dims.Y),
		Z: mathx.Mod(p.Z, s.dims.Z),
	}
	return k, l
}

func (s *ChunkStore) LoadedChunkKeys() []ChunkKey {
	keys := make([]ChunkKey, 0, len(s.chunks))
	for k := range s.chunks {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, b := keys[i], keys[j]
		if a.CX != b.CX {
			return a.CX < b.CX
		}
		if a.CY != b.CY {
			return a.CY < b.CY
		}
		return a.CZ < b.CZ
	})
	return keys
}

// InfoAt inspects a global position, materializing its chunk.
func (s *ChunkStore) InfoAt(p Vec3i) (BlockInfo, error) {
	k, l := s.Locate(p)
	c, err := s.EnsureChunk(k)
	if err != nil {
		return BlockInfo{}, err
	}
	return c.Info(l)
}

// SetDataAt writes an inline kind at a global position.
func (s *ChunkStore) SetDataAt(p Vec3i, kind block.Kind, st block.State) error {
	k, l := s.Locate(p)
	c, err := s.EnsureChunk(k)
	if err != nil {
		return err
	}
	return c.SetData(l, kind, st)
}

// PlaceAt writes a kind's default occupant at a global position.
func (s *ChunkStore) PlaceAt(p Vec3i, kind block.Kind) error {
	k, l := s.Locate(p)
	c, err := s.EnsureChunk(k)
	if err != nil {
		return err
	}
	return c.Place(l, kind)
}
