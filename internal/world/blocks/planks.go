package blocks

import "voxelstore.dev/internal/world/block"

type Planks struct {
	Variant WoodVariant
}

func (Planks) ID() string     { return "planks" }
func (p Planks) Name() string { return p.Variant.String() + " Planks" }

func (p Planks) Pack() block.State {
	return block.State(p.Variant) & 0x7
}

func (Planks) Unpack(s block.State) Planks {
	return Planks{Variant: WoodVariant(s & 0x7)}
}
