package worldtest

import (
	"testing"

	"voxelstore.dev/internal/world"
	"voxelstore.dev/internal/world/block"
	"voxelstore.dev/internal/world/blocks"
)

// Harness drives a chunk store through exported APIs only, so these tests
// see exactly what library consumers see. It registers the built-in kinds
// and fills with air.
type Harness struct {
	T   *testing.T
	Reg *block.Registry
	S   *world.ChunkStore
}

func NewHarness(t *testing.T, dims world.Dims) *Harness {
	t.Helper()
	reg := block.NewRegistry()
	if err := blocks.RegisterAll(reg); err != nil {
		t.Fatalf("RegisterAll: %v", err)
	}
	s, err := world.NewChunkStore(reg, dims, blocks.Air{}, 0)
	if err != nil {
		t.Fatalf("NewChunkStore: %v", err)
	}
	return &Harness{T: t, Reg: reg, S: s}
}

func (h *Harness) Chunk(k world.ChunkKey) *world.Chunk {
	h.T.Helper()
	c, err := h.S.EnsureChunk(k)
	if err != nil {
		h.T.Fatalf("EnsureChunk(%v): %v", k, err)
	}
	return c
}

// MustSet writes v and fails the test on any error.
func MustSet[T block.Block](h *Harness, c *world.Chunk, p world.Vec3i, v T) {
	h.T.Helper()
	if err := world.Set(c, p, v); err != nil {
		h.T.Fatalf("Set %T at %v: %v", v, p, err)
	}
}

// MustGet reads p as kind T, failing on error or absence.
func MustGet[T block.Block](h *Harness, c *world.Chunk, p world.Vec3i) *T {
	h.T.Helper()
	ref, ok, err := world.Get[T](c, p)
	if err != nil {
		h.T.Fatalf("Get at %v: %v", p, err)
	}
	if !ok {
		var z T
		h.T.Fatalf("no %T at %v", z, p)
	}
	return ref.Block()
}

// MustAbsent asserts p does not hold kind T (without being an error).
func MustAbsent[T block.Block](h *Harness, c *world.Chunk, p world.Vec3i) {
	h.T.Helper()
	_, ok, err := world.Get[T](c, p)
	if err != nil {
		h.T.Fatalf("Get at %v: %v", p, err)
	}
	if ok {
		var z T
		h.T.Fatalf("unexpected %T at %v", z, p)
	}
}

// Mutate opens a write handle, applies fn and releases.
func Mutate[T block.Block](h *Harness, c *world.Chunk, p world.Vec3i, fn func(*T)) {
	h.T.Helper()
	m, ok, err := world.GetMut[T](c, p)
	if err != nil {
		h.T.Fatalf("GetMut at %v: %v", p, err)
	}
	if !ok {
		var z T
		h.T.Fatalf("no %T at %v", z, p)
	}
	fn(m.Block())
	m.Release()
}
