package world

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"voxelstore.dev/internal/persistence/snapshot"
	"voxelstore.dev/internal/world/block"
)

// ExportSnapshot captures every loaded chunk in key order. Slot words and
// entity records are taken together so addr slots survive the round trip.
func (s *ChunkStore) ExportSnapshot(hdr snapshot.Header) snapshot.SnapshotV1 {
	fillKind, _ := s.reg.KindFor(s.fill)
	fillState, _ := s.reg.Pack(fillKind, s.fill)
	snap := snapshot.SnapshotV1{
		Header:    hdr,
		Dims:      [3]int{s.dims.X, s.dims.Y, s.dims.Z},
		Radius:    s.radius,
		Fill:      s.fill.ID(),
		FillState: uint8(fillState),
		Palette:   s.reg.Palette(),
	}
	for _, k := range s.LoadedChunkKeys() {
		c := s.chunks[k]
		ch := snapshot.ChunkV1{CX: k.CX, CY: k.CY, CZ: k.CZ, Words: c.Words()}
		for _, a := range c.ents.addrs() {
			b := c.ents.get(a).(block.Block)
			ch.Entities = append(ch.Entities, snapshot.EntityV1{
				Addr:  int(a),
				Kind:  b.ID(),
				Value: b,
			})
		}
		snap.Chunks = append(snap.Chunks, ch)
	}
	return snap
}

// CombinedDigest hashes the chunk digests in key order, hex encoded.
func (s *ChunkStore) CombinedDigest() string {
	h := sha256.New()
	for _, k := range s.LoadedChunkKeys() {
		d := s.chunks[k].Digest()
		h.Write(d[:])
	}
	return hex.EncodeToString(h.Sum(nil))
}

// ImportSnapshot rebuilds a store from a snapshot. The live registry must
// carry the exact palette the snapshot was written with, every chunk must
// have dims.Volume() words, and every addr slot must resolve to exactly
// one serialized entity at its recorded address.
func ImportSnapshot(reg *block.Registry, snap snapshot.SnapshotV1) (*ChunkStore, error) {
	pal := reg.Palette()
	if len(pal) != len(snap.Palette) {
		return nil, fmt.Errorf("%w: %d kinds vs %d", ErrPaletteMismatch, len(snap.Palette), len(pal))
	}
	for i := range pal {
		if pal[i] != snap.Palette[i] {
			return nil, fmt.Errorf("%w: kind %d is %q, registry has %q",
				ErrPaletteMismatch, i, snap.Palette[i], pal[i])
		}
	}

	fillKind, ok := reg.KindByID(snap.Fill)
	if !ok {
		return nil, fmt.Errorf("fill %q: %w", snap.Fill, ErrUnknownKind)
	}
	fill, ok := reg.Unpack(fillKind, block.State(snap.FillState))
	if !ok {
		return nil, fmt.Errorf("fill %q: %w", snap.Fill, ErrNotInline)
	}

	dims := Dims{X: snap.Dims[0], Y: snap.Dims[1], Z: snap.Dims[2]}
	st, err := NewChunkStore(reg, dims, fill, snap.Radius)
	if err != nil {
		return nil, err
	}

	for _, ch := range snap.Chunks {
		key := ChunkKey{CX: ch.CX, CY: ch.CY, CZ: ch.CZ}
		if _, dup := st.chunks[key]; dup {
			return nil, fmt.Errorf("%w: duplicate chunk (%d,%d,%d)", ErrBadSnapshot, ch.CX, ch.CY, ch.CZ)
		}
		c, err := importChunk(reg, dims, ch)
		if err != nil {
			return nil, fmt.Errorf("chunk (%d,%d,%d): %w", ch.CX, ch.CY, ch.CZ, err)
		}
		st.chunks[key] = c
	}
	return st, nil
}

func importChunk(reg *block.Registry, dims Dims, ch snapshot.ChunkV1) (*Chunk, error) {
	if len(ch.Words) != dims.Volume() {
		return nil, fmt.Errorf("%w: %d words, want %d", ErrBadSnapshot, len(ch.Words), dims.Volume())
	}
	c := &Chunk{
		dims:  dims,
		slots: make([]block.Packed, len(ch.Words)),
		reg:   reg,
	}
	for i, w := range ch.Words {
		c.slots[i] = block.Packed(w)
	}

	for _, e := range ch.Entities {
		if e.Value == nil {
			return nil, fmt.Errorf("%w: entity addr %d has no value", ErrBadSnapshot, e.Addr)
		}
		k, ok := reg.KindFor(e.Value)
		if !ok {
			return nil, fmt.Errorf("entity addr %d kind %q: %w", e.Addr, e.Kind, ErrUnknownKind)
		}
		if id, _ := reg.StringID(k); id != e.Kind {
			return nil, fmt.Errorf("%w: entity addr %d says %q but value is %q", ErrBadSnapshot, e.Addr, e.Kind, id)
		}
		if err := c.ents.restore(block.Addr(e.Addr), e.Value); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBadSnapshot, err)
		}
	}
	c.ents.rebuildFree()

	// Coupled-store integrity: addr slots and entity records must pair
	// one to one, and data slots must name palette kinds.
	seen := make(map[block.Addr]bool, c.ents.live)
	for i, w := range c.slots {
		if w.IsAddr() {
			a := w.Addr()
			if _, ok := c.ents.probe(a); !ok {
				return nil, fmt.Errorf("%w: slot %d points at vacant addr %d", ErrBadSnapshot, i, a)
			}
			if seen[a] {
				return nil, fmt.Errorf("%w: addr %d referenced by more than one slot", ErrBadSnapshot, a)
			}
			seen[a] = true
			continue
		}
		if int(w.Kind()) >= reg.Len() {
			return nil, fmt.Errorf("%w: slot %d has unknown kind %d", ErrBadSnapshot, i, w.Kind())
		}
	}
	if len(seen) != c.ents.live {
		return nil, fmt.Errorf("%w: %d entities but %d referenced", ErrBadSnapshot, c.ents.live, len(seen))
	}
	return c, nil
}
