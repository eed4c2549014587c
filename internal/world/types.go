package world

import (
	"errors"
	"fmt"

	"voxelstore.dev/internal/world/block"
)

var (
	ErrOutOfBounds     = errors.New("world: position out of bounds")
	ErrUnknownKind     = errors.New("world: kind not registered")
	ErrNotInline       = errors.New("world: kind has no inline form")
	ErrVolume          = errors.New("world: invalid chunk volume")
	ErrPaletteMismatch = errors.New("world: snapshot palette does not match registry")
	ErrBadSnapshot     = errors.New("world: snapshot is internally inconsistent")
)

type Vec3i struct {
	X, Y, Z int
}

// ChunkKey addresses a chunk in the store grid.
type ChunkKey struct {
	CX, CY, CZ int
}

// Dims are the slot dimensions of a chunk. They are fixed per store; a
// chunk's slot count never changes after allocation.
type Dims struct {
	X, Y, Z int
}

func (d Dims) Volume() int {
	return d.X * d.Y * d.Z
}

func (d Dims) Contains(p Vec3i) bool {
	return p.X >= 0 && p.X < d.X &&
		p.Y >= 0 && p.Y < d.Y &&
		p.Z >= 0 && p.Z < d.Z
}

// Index maps a position to its linear slot index. Out-of-range positions
// fail with ErrOutOfBounds; they are never clamped or wrapped.
func (d Dims) Index(p Vec3i) (int, error) {
	if !d.Contains(p) {
		return 0, fmt.Errorf("%w: (%d,%d,%d) in %dx%dx%d",
			ErrOutOfBounds, p.X, p.Y, p.Z, d.X, d.Y, d.Z)
	}
	return p.X + p.Y*d.X + p.Z*d.X*d.Y, nil
}

// At is the inverse of Index.
func (d Dims) At(i int) Vec3i {
	return Vec3i{
		X: i % d.X,
		Y: i / d.X % d.Y,
		Z: i / (d.X * d.Y),
	}
}

// BlockInfo is the untyped view of one slot, for wire and tooling paths
// that do not know the concrete kind.
type BlockInfo struct {
	Kind   block.Kind
	ID     string
	Name   string
	Entity bool
	State  block.State // data slots only
	Addr   block.Addr  // addr slots only
}
