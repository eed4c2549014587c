package world

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"

	"voxelstore.dev/internal/world/block"
)

// Chunk owns a dense array of packed slots plus the entity arena those
// slots can point into. The two are coupled: every addr slot resolves to a
// live arena entry, and import rejects files where that does not hold.
//
// A chunk is not safe for concurrent mutation. All writes must come from
// the goroutine that owns the store; the service loop enforces this.
type Chunk struct {
	dims  Dims
	slots []block.Packed
	ents  entityStore
	reg   *block.Registry

	dirty bool
	hash  [32]byte
}

// NewChunk allocates dims.Volume() slots, each packed with fill. The fill
// must be a registered inline kind. Volume is capped at block.MaxAddrs so
// any population of entity blocks stays addressable.
func NewChunk(reg *block.Registry, dims Dims, fill block.Block) (*Chunk, error) {
	if dims.X <= 0 || dims.Y <= 0 || dims.Z <= 0 || dims.Volume() > block.MaxAddrs {
		return nil, fmt.Errorf("%w: %dx%dx%d", ErrVolume, dims.X, dims.Y, dims.Z)
	}
	k, ok := reg.KindFor(fill)
	if !ok {
		return nil, fmt.Errorf("fill %q: %w", fill.ID(), ErrUnknownKind)
	}
	s, ok := reg.Pack(k, fill)
	if !ok {
		return nil, fmt.Errorf("fill %q: %w", fill.ID(), ErrNotInline)
	}
	c := &Chunk{
		dims:  dims,
		slots: make([]block.Packed, dims.Volume()),
		reg:   reg,
	}
	if w := block.PackData(k, s); w != 0 {
		for i := range c.slots {
			c.slots[i] = w
		}
	}
	return c, nil
}

func (c *Chunk) Dims() Dims {
	return c.dims
}

// Len is the slot count. It equals Dims().Volume() for the chunk's whole
// lifetime.
func (c *Chunk) Len() int {
	return len(c.slots)
}

func (c *Chunk) EntityCount() int {
	return c.ents.live
}

// EntityAddrs lists occupied arena addresses in ascending order.
func (c *Chunk) EntityAddrs() []block.Addr {
	return c.ents.addrs()
}

// Entity probes the arena without the corruption panic of slot-driven
// resolution; iteration and tooling paths use it.
func (c *Chunk) Entity(a block.Addr) (block.Block, bool) {
	v, ok := c.ents.probe(a)
	if !ok {
		return nil, false
	}
	return v.(block.Block), true
}

// writeSlot is the single mutation point for slot words. No-op writes do
// not mark the chunk dirty.
func (c *Chunk) writeSlot(i int, w block.Packed) {
	if c.slots[i] == w {
		return
	}
	c.slots[i] = w
	c.dirty = true
}

// vacate frees the arena entry of an addr slot before it is overwritten.
func (c *Chunk) vacate(i int) {
	if p := c.slots[i]; p.IsAddr() {
		c.ents.remove(p.Addr())
		c.dirty = true
	}
}

// SetData writes an inline kind by numeric id, for paths that do not know
// the concrete type (wire, generator).
func (c *Chunk) SetData(p Vec3i, k block.Kind, s block.State) error {
	i, err := c.dims.Index(p)
	if err != nil {
		return err
	}
	if !c.reg.Inline(k) {
		if _, ok := c.reg.StringID(k); !ok {
			return fmt.Errorf("kind %d: %w", k, ErrUnknownKind)
		}
		return fmt.Errorf("kind %d: %w", k, ErrNotInline)
	}
	c.vacate(i)
	c.writeSlot(i, block.PackData(k, s))
	return nil
}

// Place writes a kind's default occupant: zero state for inline kinds, a
// fresh zero-value instance for entity kinds.
func (c *Chunk) Place(p Vec3i, k block.Kind) error {
	i, err := c.dims.Index(p)
	if err != nil {
		return err
	}
	if c.reg.Inline(k) {
		c.vacate(i)
		c.writeSlot(i, block.PackData(k, 0))
		return nil
	}
	v, ok := c.reg.NewEntity(k)
	if !ok {
		return fmt.Errorf("kind %d: %w", k, ErrUnknownKind)
	}
	c.vacate(i)
	a := c.ents.insert(v)
	c.writeSlot(i, block.PackAddr(a))
	return nil
}

// Info reports the untyped view of the slot at p.
func (c *Chunk) Info(p Vec3i) (BlockInfo, error) {
	i, err := c.dims.Index(p)
	if err != nil {
		return BlockInfo{}, err
	}
	return c.infoAt(i), nil
}

func (c *Chunk) infoAt(i int) BlockInfo {
	w := c.slots[i]
	if w.IsAddr() {
		b := c.ents.get(w.Addr()).(block.Block)
		info := BlockInfo{ID: b.ID(), Name: b.Name(), Entity: true, Addr: w.Addr()}
		if k, ok := c.reg.KindFor(b); ok {
			info.Kind = k
		}
		return info
	}
	info := BlockInfo{Kind: w.Kind(), State: w.State()}
	if id, ok := c.reg.StringID(w.Kind()); ok {
		info.ID = id
	}
	if b, ok := c.reg.Unpack(w.Kind(), w.State()); ok {
		info.Name = b.Name()
	}
	return info
}

// Each scans every slot in index order.
func (c *Chunk) Each(fn func(Vec3i, BlockInfo)) {
	for i := range c.slots {
		fn(c.dims.At(i), c.infoAt(i))
	}
}

// Words copies the raw slot array for serialization.
func (c *Chunk) Words() []uint16 {
	out := make([]uint16, len(c.slots))
	for i, w := range c.slots {
		out[i] = uint16(w)
	}
	return out
}

// Digest is the cached sha256 over the slot words. Entity payloads are not
// part of it; the snapshot layer serializes and digests those itself.
func (c *Chunk) Digest() [32]byte {
	if c.dirty || c.hash == ([32]byte{}) {
		h := sha256.New()
		var tmp [2]byte
		for _, w := range c.slots {
			binary.LittleEndian.PutUint16(tmp[:], uint16(w))
			h.Write(tmp[:])
		}
		copy(c.hash[:], h.Sum(nil))
		c.dirty = false
	}
	return c.hash
}
