package world

import (
	"fmt"

	"voxelstore.dev/internal/world/block"
)

// Ref is a typed read handle. For inline kinds it points at a copy
// unpacked from the slot; for entity kinds it points at the live arena
// instance. Do not mutate through a read handle: inline mutations are
// discarded and entity mutations bypass the write path.
type Ref[T block.Block] struct {
	p *T
}

func (r Ref[T]) Block() *T {
	return r.p
}

// MutRef is a typed write handle. It is Active until Release and must not
// outlive the next write to its position. For inline kinds it owns an
// unpacked copy that Release packs back into the slot; for entity kinds
// mutations land directly in the arena and Release only retires the
// handle.
type MutRef[T block.Block] struct {
	p        *T
	c        *Chunk
	idx      int
	kind     block.Kind
	inline   bool
	released bool
}

func (m *MutRef[T]) Block() *T {
	return m.p
}

// Release retires the handle. Idempotent. An inline value is repacked into
// its slot; if the packed word is unchanged the chunk stays clean.
func (m *MutRef[T]) Release() {
	if m.released {
		return
	}
	m.released = true
	if !m.inline {
		return
	}
	if s, ok := m.c.reg.Pack(m.kind, block.Block(*m.p)); ok {
		m.c.writeSlot(m.idx, block.PackData(m.kind, s))
	}
}

// Get reads the block at p as kind T. Positions outside the chunk fail
// with ErrOutOfBounds; a slot holding some other kind is reported as
// absent, not as an error.
func Get[T block.Block](c *Chunk, p Vec3i) (Ref[T], bool, error) {
	i, err := c.dims.Index(p)
	if err != nil {
		return Ref[T]{}, false, err
	}
	w := c.slots[i]
	if w.IsAddr() {
		t, ok := c.ents.get(w.Addr()).(*T)
		if !ok {
			return Ref[T]{}, false, nil
		}
		return Ref[T]{p: t}, true, nil
	}
	if !block.Matches[T](c.reg, w.Kind()) {
		return Ref[T]{}, false, nil
	}
	b, ok := c.reg.Unpack(w.Kind(), w.State())
	if !ok {
		return Ref[T]{}, false, nil
	}
	t := b.(T)
	return Ref[T]{p: &t}, true, nil
}

// GetMut opens a write handle on the block at p as kind T. The same bounds
// and kind rules as Get apply. The caller must Release the handle before
// the next write to the same position.
func GetMut[T block.Block](c *Chunk, p Vec3i) (*MutRef[T], bool, error) {
	i, err := c.dims.Index(p)
	if err != nil {
		return nil, false, err
	}
	w := c.slots[i]
	if w.IsAddr() {
		t, ok := c.ents.get(w.Addr()).(*T)
		if !ok {
			return nil, false, nil
		}
		return &MutRef[T]{p: t, c: c, idx: i}, true, nil
	}
	if !block.Matches[T](c.reg, w.Kind()) {
		return nil, false, nil
	}
	b, ok := c.reg.Unpack(w.Kind(), w.State())
	if !ok {
		return nil, false, nil
	}
	t := b.(T)
	return &MutRef[T]{p: &t, c: c, idx: i, kind: w.Kind(), inline: true}, true, nil
}

// Set writes v at p. Inline kinds pack into the slot; entity kinds move
// into the arena, the slot keeping their address. A previous entity
// occupant is freed first, and its address becomes reusable immediately.
func Set[T block.Block](c *Chunk, p Vec3i, v T) error {
	i, err := c.dims.Index(p)
	if err != nil {
		return err
	}
	k, ok := block.KindOf[T](c.reg)
	if !ok {
		return fmt.Errorf("set %q: %w", v.ID(), ErrUnknownKind)
	}
	if s, ok := c.reg.Pack(k, v); ok {
		c.vacate(i)
		c.writeSlot(i, block.PackData(k, s))
		return nil
	}
	c.vacate(i)
	a := c.ents.insert(&v)
	c.writeSlot(i, block.PackAddr(a))
	return nil
}
