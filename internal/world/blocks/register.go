package blocks

import (
	"encoding/gob"
	"fmt"

	"voxelstore.dev/internal/world/block"
)

var (
	_ block.Inline[Air]    = Air{}
	_ block.Inline[Stone]  = Stone{}
	_ block.Inline[Grass]  = Grass{}
	_ block.Inline[Planks] = Planks{}
	_ block.Inline[Stairs] = Stairs{}
	_ block.Block          = Chest{}
	_ block.Block          = Sign{}
	_ block.Block          = Furnace{}
)

// Entity instances travel through snapshots as gob interface values, so
// their concrete types register on import. Tools that only decode
// snapshot files import this package for the side effect.
func init() {
	gob.Register(&Chest{})
	gob.Register(&Sign{})
	gob.Register(&Furnace{})
}

// RegisterAll registers every built-in kind. Air goes first so empty slots
// are the zero word.
func RegisterAll(r *block.Registry) error {
	if k, err := block.RegisterInline[Air](r); err != nil {
		return fmt.Errorf("register air: %w", err)
	} else if k != 0 {
		return fmt.Errorf("air registered as kind %d, registry not empty", k)
	}
	if _, err := block.RegisterInline[Stone](r); err != nil {
		return fmt.Errorf("register stone: %w", err)
	}
	if _, err := block.RegisterInline[Grass](r); err != nil {
		return fmt.Errorf("register grass: %w", err)
	}
	if _, err := block.RegisterInline[Planks](r); err != nil {
		return fmt.Errorf("register planks: %w", err)
	}
	if _, err := block.RegisterInline[Stairs](r); err != nil {
		return fmt.Errorf("register stairs: %w", err)
	}
	if _, err := block.RegisterEntity[Chest](r); err != nil {
		return fmt.Errorf("register chest: %w", err)
	}
	if _, err := block.RegisterEntity[Sign](r); err != nil {
		return fmt.Errorf("register sign: %w", err)
	}
	if _, err := block.RegisterEntity[Furnace](r); err != nil {
		return fmt.Errorf("register furnace: %w", err)
	}
	return nil
}
