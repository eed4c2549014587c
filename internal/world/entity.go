package world

import (
	"fmt"

	"voxelstore.dev/internal/world/block"
)

// entityStore is the growable arena behind a chunk's addr slots. Freed
// addresses go on a free list and are reused by the next insert, so the
// arena never outgrows the chunk volume.
type entityStore struct {
	slots []any
	free  []int
	live  int
}

func (s *entityStore) insert(v any) block.Addr {
	s.live++
	if n := len(s.free); n > 0 {
		i := s.free[n-1]
		s.free = s.free[:n-1]
		s.slots[i] = v
		return block.Addr(i)
	}
	s.slots = append(s.slots, v)
	return block.Addr(len(s.slots) - 1)
}

// get panics on a vacant address. A slot pointing at freed storage means
// the packed store and the arena have diverged; that is corruption, not a
// recoverable miss.
func (s *entityStore) get(a block.Addr) any {
	i := int(a)
	if i >= len(s.slots) || s.slots[i] == nil {
		panic(fmt.Sprintf("world: entity addr %d is vacant, chunk corrupted", i))
	}
	return s.slots[i]
}

func (s *entityStore) remove(a block.Addr) {
	i := int(a)
	if i >= len(s.slots) || s.slots[i] == nil {
		panic(fmt.Sprintf("world: removing vacant entity addr %d, chunk corrupted", i))
	}
	s.slots[i] = nil
	s.free = append(s.free, i)
	s.live--
}

// probe is the non-panicking lookup for iteration surfaces.
func (s *entityStore) probe(a block.Addr) (any, bool) {
	i := int(a)
	if i >= len(s.slots) || s.slots[i] == nil {
		return nil, false
	}
	return s.slots[i], true
}

// addrs lists occupied addresses in ascending order.
func (s *entityStore) addrs() []block.Addr {
	out := make([]block.Addr, 0, s.live)
	for i, v := range s.slots {
		if v != nil {
			out = append(out, block.Addr(i))
		}
	}
	return out
}

// restore places an instance at an exact address during snapshot import.
func (s *entityStore) restore(a block.Addr, v any) error {
	i := int(a)
	if i >= block.MaxAddrs {
		return fmt.Errorf("entity addr %d exceeds address space", i)
	}
	for len(s.slots) <= i {
		s.slots = append(s.slots, nil)
	}
	if s.slots[i] != nil {
		return fmt.Errorf("duplicate entity addr %d", i)
	}
	s.slots[i] = v
	s.live++
	return nil
}

// rebuildFree recomputes the free list after a sequence of restores.
func (s *entityStore) rebuildFree() {
	s.free = s.free[:0]
	for i := len(s.slots) - 1; i >= 0; i-- {
		if s.slots[i] == nil {
			s.free = append(s.free, i)
		}
	}
}
