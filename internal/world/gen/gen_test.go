package gen

import (
	"testing"

	"voxelstore.dev/internal/world"
	"voxelstore.dev/internal/world/block"
	"voxelstore.dev/internal/world/blocks"
)

func testStore(t *testing.T, seed int64, cfg Config) (*world.ChunkStore, *Generator) {
	t.Helper()
	reg := block.NewRegistry()
	if err := blocks.RegisterAll(reg); err != nil {
		t.Fatalf("RegisterAll: %v", err)
	}
	s, err := world.NewChunkStore(reg, world.Dims{X: 16, Y: 32, Z: 16}, blocks.Air{}, 0)
	if err != nil {
		t.Fatalf("NewChunkStore: %v", err)
	}
	g, err := New(reg, seed, cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	s.SetFiller(g)
	return s, g
}

func TestGenerator_Deterministic(t *testing.T) {
	keys := []world.ChunkKey{
		{CX: 0, CY: 0, CZ: 0},
		{CX: -2, CY: 0, CZ: 3},
		{CX: 5, CY: -1, CZ: -5},
	}
	s1, _ := testStore(t, 1337, Config{SurfaceLevel: 12, ChestPermille: 20, StairsPermille: 30})
	s2, _ := testStore(t, 1337, Config{SurfaceLevel: 12, ChestPermille: 20, StairsPermille: 30})
	for _, k := range keys {
		c1, err := s1.EnsureChunk(k)
		if err != nil {
			t.Fatalf("EnsureChunk: %v", err)
		}
		c2, err := s2.EnsureChunk(k)
		if err != nil {
			t.Fatalf("EnsureChunk: %v", err)
		}
		if c1.Digest() != c2.Digest() {
			t.Fatalf("chunk (%d,%d,%d): digests differ across identical seeds", k.CX, k.CY, k.CZ)
		}
		if c1.EntityCount() != c2.EntityCount() {
			t.Fatalf("chunk (%d,%d,%d): entity counts %d vs %d", k.CX, k.CY, k.CZ, c1.EntityCount(), c2.EntityCount())
		}
	}
	if s1.CombinedDigest() != s2.CombinedDigest() {
		t.Fatal("combined digests differ across identical seeds")
	}
}

func TestGenerator_SeedMatters(t *testing.T) {
	s1, _ := testStore(t, 1, Config{SurfaceLevel: 12})
	s2, _ := testStore(t, 2, Config{SurfaceLevel: 12})
	k := world.ChunkKey{}
	c1, _ := s1.EnsureChunk(k)
	c2, _ := s2.EnsureChunk(k)
	if c1.Digest() == c2.Digest() {
		t.Fatal("different seeds produced identical terrain")
	}
}

func TestGenerator_SurfaceShape(t *testing.T) {
	s, g := testStore(t, 99, Config{SurfaceLevel: 12})
	sy := g.SurfaceY(3, 5)
	if sy < 4 || sy > 20 {
		t.Fatalf("surface %d outside relief band", sy)
	}

	at := func(y int) string {
		t.Helper()
		info, err := s.InfoAt(world.Vec3i{X: 3, Y: y, Z: 5})
		if err != nil {
			t.Fatalf("InfoAt: %v", err)
		}
		return info.ID
	}
	if got := at(sy); got != "grass" {
		t.Fatalf("surface block = %q, want grass", got)
	}
	if got := at(sy - 1); got != "stone" {
		t.Fatalf("below surface = %q, want stone", got)
	}
	if got := at(sy + 5); got != "air" {
		t.Fatalf("well above surface = %q, want air", got)
	}
}

func TestGenerator_ChestsStocked(t *testing.T) {
	s, _ := testStore(t, 7, Config{SurfaceLevel: 12, ChestPermille: 20})
	var chest *blocks.Chest
	for cx := -1; cx <= 1 && chest == nil; cx++ {
		for cz := -1; cz <= 1 && chest == nil; cz++ {
			c, err := s.EnsureChunk(world.ChunkKey{CX: cx, CY: 0, CZ: cz})
			if err != nil {
				t.Fatalf("EnsureChunk: %v", err)
			}
			for _, a := range c.EntityAddrs() {
				b, ok := c.Entity(a)
				if !ok {
					t.Fatalf("entity addr %d vanished", a)
				}
				if b.ID() == "chest" {
					chest = b.(*blocks.Chest)
					break
				}
			}
		}
	}
	if chest == nil {
		t.Fatal("no chest generated in 9 chunks at 2% per column")
	}
	if chest.Count("planks") != 8 {
		t.Fatalf("chest planks = %d, want 8", chest.Count("planks"))
	}
	if chest.Count("torch") < 4 {
		t.Fatalf("chest torches = %d, want >= 4", chest.Count("torch"))
	}
}

func TestGenerator_ChestsSitOnPlanks(t *testing.T) {
	s, _ := testStore(t, 7, Config{SurfaceLevel: 12, ChestPermille: 20})
	d := s.Dims()
	found := false
	for cx := -1; cx <= 1; cx++ {
		for cz := -1; cz <= 1; cz++ {
			c, err := s.EnsureChunk(world.ChunkKey{CX: cx, CY: 0, CZ: cz})
			if err != nil {
				t.Fatalf("EnsureChunk: %v", err)
			}
			for z := 0; z < d.Z; z++ {
				for x := 0; x < d.X; x++ {
					for y := 1; y < d.Y; y++ {
						info, err := c.Info(world.Vec3i{X: x, Y: y, Z: z})
						if err != nil {
							t.Fatalf("Info: %v", err)
						}
						if info.ID != "chest" {
							continue
						}
						below, err := c.Info(world.Vec3i{X: x, Y: y - 1, Z: z})
						if err != nil {
							t.Fatalf("Info: %v", err)
						}
						if below.ID != "planks" {
							t.Fatalf("below chest (%d,%d,%d) = %q, want planks", x, y, z, below.ID)
						}
						found = true
					}
				}
			}
		}
	}
	if !found {
		t.Fatal("no chest found to check")
	}
}

func TestGenerator_MissingKind(t *testing.T) {
	reg := block.NewRegistry()
	if _, err := block.RegisterInline[blocks.Air](reg); err != nil {
		t.Fatalf("register air: %v", err)
	}
	if _, err := New(reg, 1, Config{}); err == nil {
		t.Fatal("want error for palette without terrain kinds")
	}
}
