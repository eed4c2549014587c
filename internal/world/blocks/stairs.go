package blocks

import "voxelstore.dev/internal/world/block"

// Stairs packs facing in the low 3 payload bits and wood variant in the
// high 3.
type Stairs struct {
	Facing  Facing
	Variant WoodVariant
}

func (Stairs) ID() string     { return "stairs" }
func (s Stairs) Name() string { return s.Variant.String() + " Stairs" }

func (s Stairs) Pack() block.State {
	return block.State(s.Facing)&0x7 | block.State(s.Variant)&0x7<<3
}

func (Stairs) Unpack(s block.State) Stairs {
	return Stairs{
		Facing:  Facing(s & 0x7),
		Variant: WoodVariant(s >> 3 & 0x7),
	}
}
