package gen

import (
	"fmt"
	"math/rand"

	"github.com/aquilax/go-perlin"

	"voxelstore.dev/internal/mathx"
	"voxelstore.dev/internal/world"
	"voxelstore.dev/internal/world/block"
	"voxelstore.dev/internal/world/blocks"
)

// Config tunes the terrain. Zero permilles disable a feature.
type Config struct {
	SurfaceLevel   int // global Y of the mean surface
	ReliefAmp      int // max offset from the mean
	ChestPermille  int
	StairsPermille int
}

// Generator fills freshly materialized chunks with deterministic
// terrain: a perlin heightmap of stone capped with grass, hash-scattered
// stairs above it, and the odd chest on a planks base, stocked for new
// arrivals. Same seed, same chunk, same slots. Columns above the surface
// keep the store fill.
type Generator struct {
	seed  int64
	noise *perlin.Perlin
	cfg   Config

	stone  block.Kind
	grass  block.Kind
	planks block.Kind
	stairs block.Kind
	chest  block.Kind
}

const noiseScale = 0.05

func New(reg *block.Registry, seed int64, cfg Config) (*Generator, error) {
	if cfg.ReliefAmp <= 0 {
		cfg.ReliefAmp = 8
	}
	var missing string
	k := func(id string) block.Kind {
		v, ok := reg.KindByID(id)
		if !ok && missing == "" {
			missing = id
		}
		return v
	}
	g := &Generator{
		seed:   seed,
		noise:  perlin.NewPerlin(2.0, 2.0, 3, seed),
		cfg:    cfg,
		stone:  k("stone"),
		grass:  k("grass"),
		planks: k("planks"),
		stairs: k("stairs"),
		chest:  k("chest"),
	}
	if missing != "" {
		return nil, fmt.Errorf("missing block id in palette: %s", missing)
	}
	return g, nil
}

// SurfaceY is the terrain height of a global column.
func (g *Generator) SurfaceY(wx, wz int) int {
	n := g.noise.Noise2D(float64(wx)*noiseScale, float64(wz)*noiseScale) // [-1, 1]
	return g.cfg.SurfaceLevel + int(n*float64(g.cfg.ReliefAmp))
}

func (g *Generator) FillChunk(c *world.Chunk, k world.ChunkKey) error {
	d := c.Dims()
	y0 := k.CY * d.Y
	rng := rand.New(rand.NewSource(g.seed + int64(k.CX)*31 + int64(k.CY)*17 + int64(k.CZ)*13))

	for z := 0; z < d.Z; z++ {
		for x := 0; x < d.X; x++ {
			wx := k.CX*d.X + x
			wz := k.CZ*d.Z + z
			sy := g.SurfaceY(wx, wz)

			for y := 0; y < d.Y; y++ {
				wy := y0 + y
				if wy > sy {
					break
				}
				p := world.Vec3i{X: x, Y: y, Z: z}
				var err error
				if wy == sy {
					err = c.SetData(p, g.grass, 0)
				} else {
					err = c.SetData(p, g.stone, 0)
				}
				if err != nil {
					return err
				}
			}

			// Features sit one above the surface. Placement rolls hash the
			// global column so chunk borders cannot shift them.
			fy := sy + 1 - y0
			if fy < 0 || fy >= d.Y {
				continue
			}
			p := world.Vec3i{X: x, Y: fy, Z: z}
			roll := int(mathx.Hash3(g.seed, wx, sy+1, wz) % 1000)
			switch {
			case roll < g.cfg.ChestPermille:
				ch := blocks.Chest{Facing: blocks.Facing(rng.Intn(4))}
				ch.Put("torch", 4+rng.Intn(4))
				ch.Put("planks", 8)
				if err := world.Set(c, p, ch); err != nil {
					return err
				}
				// Chests stand on a planks base; the grass below gives way
				// when the surface cell is in this chunk.
				if by := sy - y0; by >= 0 && by < d.Y {
					pl := blocks.Planks{Variant: blocks.WoodVariant(rng.Intn(4))}
					if err := c.SetData(world.Vec3i{X: x, Y: by, Z: z}, g.planks, pl.Pack()); err != nil {
						return err
					}
				}
			case roll < g.cfg.ChestPermille+g.cfg.StairsPermille:
				s := blocks.Stairs{
					Facing:  blocks.Facing(rng.Intn(4)),
					Variant: blocks.WoodVariant(rng.Intn(4)),
				}
				if err := c.SetData(p, g.stairs, s.Pack()); err != nil {
					return err
				}
			}
		}
	}
	return nil
}
