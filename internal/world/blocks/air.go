package blocks

import "voxelstore.dev/internal/world/block"

// Air is the conventional fill for empty slots. RegisterAll registers it
// first so it always packs as kind 0, state 0, which is the zero slot word.
type Air struct{}

func (Air) ID() string   { return "air" }
func (Air) Name() string { return "Air" }

func (Air) Pack() block.State      { return 0 }
func (Air) Unpack(block.State) Air { return Air{} }
