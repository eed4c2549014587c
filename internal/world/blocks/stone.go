package blocks

import "voxelstore.dev/internal/world/block"

type Stone struct{}

func (Stone) ID() string   { return "stone" }
func (Stone) Name() string { return "Stone" }

func (Stone) Pack() block.State        { return 0 }
func (Stone) Unpack(block.State) Stone { return Stone{} }
