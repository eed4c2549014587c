package blocks

import "voxelstore.dev/internal/world/block"

type Grass struct{}

func (Grass) ID() string   { return "grass" }
func (Grass) Name() string { return "Grass" }

func (Grass) Pack() block.State        { return 0 }
func (Grass) Unpack(block.State) Grass { return Grass{} }
