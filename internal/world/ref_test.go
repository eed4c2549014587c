package world

import (
	"errors"
	"testing"

	"voxelstore.dev/internal/world/blocks"
)

func TestSetGetRoundTripInline(t *testing.T) {
	c, _ := testChunk(t, Dims{X: 8, Y: 8, Z: 8})
	want := blocks.Stairs{Facing: blocks.South, Variant: blocks.Spruce}
	p := Vec3i{X: 7, Y: 0, Z: 3}
	if err := Set(c, p, want); err != nil {
		t.Fatalf("Set: %v", err)
	}
	ref, ok, err := Get[blocks.Stairs](c, p)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !ok {
		t.Fatalf("stairs absent after set")
	}
	if *ref.Block() != want {
		t.Fatalf("got %+v want %+v", *ref.Block(), want)
	}
}

func TestSetGetRoundTripEntity(t *testing.T) {
	c, _ := testChunk(t, Dims{X: 8, Y: 8, Z: 8})
	chest := blocks.Chest{Facing: blocks.West}
	chest.Put("iron_ingot", 5)
	p := Vec3i{X: 1, Y: 2, Z: 3}
	if err := Set(c, p, chest); err != nil {
		t.Fatalf("Set: %v", err)
	}
	ref, ok, err := Get[blocks.Chest](c, p)
	if err != nil || !ok {
		t.Fatalf("Get chest: ok=%v err=%v", ok, err)
	}
	if ref.Block().Facing != blocks.West || ref.Block().Count("iron_ingot") != 5 {
		t.Fatalf("chest state %+v", *ref.Block())
	}
}

func TestGetWrongKindIsAbsentNotError(t *testing.T) {
	c, _ := testChunk(t, Dims{X: 8, Y: 8, Z: 8})
	p := Vec3i{X: 2, Y: 2, Z: 2}
	if err := Set(c, p, blocks.Stairs{}); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if _, ok, err := Get[blocks.Planks](c, p); ok || err != nil {
		t.Fatalf("wrong inline kind: ok=%v err=%v want false,nil", ok, err)
	}
	if _, ok, err := Get[blocks.Chest](c, p); ok || err != nil {
		t.Fatalf("entity kind on data slot: ok=%v err=%v want false,nil", ok, err)
	}

	if err := Set(c, p, blocks.Sign{Text: "hi"}); err != nil {
		t.Fatalf("Set sign: %v", err)
	}
	if _, ok, err := Get[blocks.Chest](c, p); ok || err != nil {
		t.Fatalf("wrong entity kind: ok=%v err=%v want false,nil", ok, err)
	}
	if _, ok, err := Get[blocks.Stairs](c, p); ok || err != nil {
		t.Fatalf("inline kind on addr slot: ok=%v err=%v want false,nil", ok, err)
	}
}

func TestAccessOutOfBounds(t *testing.T) {
	c, r := testChunk(t, Dims{X: 4, Y: 4, Z: 4})
	bad := Vec3i{X: 4, Y: 0, Z: 0}

	if _, _, err := Get[blocks.Stairs](c, bad); !errors.Is(err, ErrOutOfBounds) {
		t.Fatalf("Get err = %v want ErrOutOfBounds", err)
	}
	if _, _, err := GetMut[blocks.Stairs](c, bad); !errors.Is(err, ErrOutOfBounds) {
		t.Fatalf("GetMut err = %v want ErrOutOfBounds", err)
	}
	if err := Set(c, bad, blocks.Stone{}); !errors.Is(err, ErrOutOfBounds) {
		t.Fatalf("Set err = %v want ErrOutOfBounds", err)
	}
	if _, err := c.Info(bad); !errors.Is(err, ErrOutOfBounds) {
		t.Fatalf("Info err = %v want ErrOutOfBounds", err)
	}
	if err := c.SetData(bad, mustKind(t, r, "stone"), 0); !errors.Is(err, ErrOutOfBounds) {
		t.Fatalf("SetData err = %v want ErrOutOfBounds", err)
	}
	if err := c.Place(bad, mustKind(t, r, "chest")); !errors.Is(err, ErrOutOfBounds) {
		t.Fatalf("Place err = %v want ErrOutOfBounds", err)
	}
}

func TestGetMutRepacksOnRelease(t *testing.T) {
	c, _ := testChunk(t, Dims{X: 8, Y: 8, Z: 8})
	p := Vec3i{X: 5, Y: 5, Z: 5}
	if err := Set(c, p, blocks.Stairs{Facing: blocks.North, Variant: blocks.Oak}); err != nil {
		t.Fatalf("Set: %v", err)
	}

	h, ok, err := GetMut[blocks.Stairs](c, p)
	if err != nil || !ok {
		t.Fatalf("GetMut: ok=%v err=%v", ok, err)
	}
	h.Block().Facing = blocks.East
	h.Release()

	ref, ok, err := Get[blocks.Stairs](c, p)
	if err != nil || !ok {
		t.Fatalf("Get after release: ok=%v err=%v", ok, err)
	}
	if ref.Block().Facing != blocks.East {
		t.Fatalf("facing %v want East", ref.Block().Facing)
	}
}

func TestGetMutWithoutChangeKeepsChunkClean(t *testing.T) {
	c, _ := testChunk(t, Dims{X: 4, Y: 4, Z: 4})
	p := Vec3i{X: 1, Y: 1, Z: 1}
	if err := Set(c, p, blocks.Stairs{Facing: blocks.Up}); err != nil {
		t.Fatalf("Set: %v", err)
	}
	before := c.Digest()

	h, ok, err := GetMut[blocks.Stairs](c, p)
	if err != nil || !ok {
		t.Fatalf("GetMut: ok=%v err=%v", ok, err)
	}
	h.Release()

	if c.Digest() != before {
		t.Fatalf("release without mutation changed the digest")
	}
}

func TestReleaseIsIdempotent(t *testing.T) {
	c, _ := testChunk(t, Dims{X: 4, Y: 4, Z: 4})
	p := Vec3i{X: 2, Y: 0, Z: 0}
	if err := Set(c, p, blocks.Stairs{Facing: blocks.North}); err != nil {
		t.Fatalf("Set: %v", err)
	}

	h, _, _ := GetMut[blocks.Stairs](c, p)
	h.Block().Facing = blocks.South
	h.Release()
	h.Block().Facing = blocks.Down // after release: must not be written
	h.Release()

	ref, _, _ := Get[blocks.Stairs](c, p)
	if ref.Block().Facing != blocks.South {
		t.Fatalf("facing %v want South", ref.Block().Facing)
	}
}

func TestGetMutEntityMutatesLiveInstance(t *testing.T) {
	c, _ := testChunk(t, Dims{X: 8, Y: 8, Z: 8})
	p := Vec3i{X: 0, Y: 4, Z: 0}
	if err := Set(c, p, blocks.Chest{}); err != nil {
		t.Fatalf("Set: %v", err)
	}

	h, ok, err := GetMut[blocks.Chest](c, p)
	if err != nil || !ok {
		t.Fatalf("GetMut: ok=%v err=%v", ok, err)
	}
	h.Block().Put("plank", 7)
	h.Release()

	ref, _, _ := Get[blocks.Chest](c, p)
	if ref.Block().Count("plank") != 7 {
		t.Fatalf("chest count %d want 7", ref.Block().Count("plank"))
	}
}

func TestEntityKindIsolationAtOnePosition(t *testing.T) {
	c, _ := testChunk(t, Dims{X: 16, Y: 32, Z: 16})
	p := Vec3i{X: 10, Y: 30, Z: 5}

	chest := blocks.Chest{}
	chest.Put("gold_ingot", 2)
	if err := Set(c, p, chest); err != nil {
		t.Fatalf("Set chest: %v", err)
	}
	if err := Set(c, p, blocks.Stairs{Facing: blocks.West}); err != nil {
		t.Fatalf("Set stairs: %v", err)
	}

	if _, ok, _ := Get[blocks.Chest](c, p); ok {
		t.Fatalf("chest still visible after overwrite")
	}
	ref, ok, _ := Get[blocks.Stairs](c, p)
	if !ok || ref.Block().Facing != blocks.West {
		t.Fatalf("stairs not observed after overwrite")
	}
	if c.EntityCount() != 0 {
		t.Fatalf("entity count %d want 0", c.EntityCount())
	}

	// A later chest at the same position starts fresh.
	if err := Set(c, p, blocks.Chest{}); err != nil {
		t.Fatalf("Set second chest: %v", err)
	}
	cref, ok, _ := Get[blocks.Chest](c, p)
	if !ok || cref.Block().Count("gold_ingot") != 0 {
		t.Fatalf("second chest inherited state")
	}
}

func TestEntityAddressIsolation(t *testing.T) {
	c, _ := testChunk(t, Dims{X: 8, Y: 8, Z: 8})
	p1 := Vec3i{X: 1, Y: 1, Z: 1}
	p2 := Vec3i{X: 2, Y: 2, Z: 2}
	if err := Set(c, p1, blocks.Chest{}); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := Set(c, p2, blocks.Chest{}); err != nil {
		t.Fatalf("Set: %v", err)
	}

	i1, _ := c.Info(p1)
	i2, _ := c.Info(p2)
	if i1.Addr == i2.Addr {
		t.Fatalf("live entities share addr %d", i1.Addr)
	}

	h, _, _ := GetMut[blocks.Chest](c, p1)
	h.Block().Put("coal", 9)
	h.Release()

	ref, _, _ := Get[blocks.Chest](c, p2)
	if ref.Block().Count("coal") != 0 {
		t.Fatalf("mutation leaked across addresses")
	}
}

func TestFreedAddressIsReusedImmediately(t *testing.T) {
	c, _ := testChunk(t, Dims{X: 8, Y: 8, Z: 8})
	p1 := Vec3i{X: 1, Y: 0, Z: 0}
	p2 := Vec3i{X: 2, Y: 0, Z: 0}
	if err := Set(c, p1, blocks.Sign{Text: "a"}); err != nil {
		t.Fatalf("Set: %v", err)
	}
	i1, _ := c.Info(p1)

	if err := Set(c, p1, blocks.Air{}); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if err := Set(c, p2, blocks.Sign{Text: "b"}); err != nil {
		t.Fatalf("Set: %v", err)
	}
	i2, _ := c.Info(p2)
	if i2.Addr != i1.Addr {
		t.Fatalf("freed addr %d not reused, got %d", i1.Addr, i2.Addr)
	}

	ref, ok, _ := Get[blocks.Sign](c, p2)
	if !ok || ref.Block().Text != "b" {
		t.Fatalf("reused slot carries wrong sign")
	}
}
