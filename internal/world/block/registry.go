package block

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
)

var (
	ErrKindLimit   = errors.New("block: kind limit reached")
	ErrDuplicateID = errors.New("block: id already registered")
)

// Registry assigns each block type a Kind and dispatches pack/unpack by it.
// Kinds are numbered in registration order. Build the registry during
// startup; it must not be mutated afterwards, which makes it safe to share
// across goroutines.
type Registry struct {
	byType map[reflect.Type]Kind
	byID   map[string]Kind
	kinds  []entry
}

type entry struct {
	typ    reflect.Type
	id     string
	pack   func(Block) State // nil for entity kinds
	unpack func(State) Block // nil for entity kinds
	zero   func() any        // entity kinds only: fresh *T
}

func NewRegistry() *Registry {
	return &Registry{
		byType: make(map[reflect.Type]Kind),
		byID:   make(map[string]Kind),
	}
}

func (r *Registry) add(e entry) (Kind, error) {
	if k, ok := r.byType[e.typ]; ok {
		return k, nil
	}
	if _, ok := r.byID[e.id]; ok {
		return 0, fmt.Errorf("%w: %q", ErrDuplicateID, e.id)
	}
	if len(r.kinds) >= MaxKinds {
		return 0, ErrKindLimit
	}
	k := Kind(len(r.kinds))
	r.kinds = append(r.kinds, e)
	r.byType[e.typ] = k
	r.byID[e.id] = k
	return k, nil
}

// RegisterInline registers an inline kind. Registering the same type again
// returns the kind it already has.
func RegisterInline[T Inline[T]](r *Registry) (Kind, error) {
	var z T
	return r.add(entry{
		typ: reflect.TypeOf((*T)(nil)).Elem(),
		id:  z.ID(),
		pack: func(b Block) State {
			return b.(T).Pack()
		},
		unpack: func(s State) Block {
			var z T
			return z.Unpack(s)
		},
	})
}

// RegisterEntity registers an entity kind. T must be the value type;
// instances are stored behind *T.
func RegisterEntity[T Block](r *Registry) (Kind, error) {
	var z T
	return r.add(entry{
		typ:  reflect.TypeOf((*T)(nil)).Elem(),
		id:   z.ID(),
		zero: func() any { return new(T) },
	})
}

func KindOf[T Block](r *Registry) (Kind, bool) {
	k, ok := r.byType[reflect.TypeOf((*T)(nil)).Elem()]
	return k, ok
}

// KindFor resolves the kind of a block value. Entity instances are held
// behind pointers, so pointer types resolve through their element type.
func (r *Registry) KindFor(b Block) (Kind, bool) {
	t := reflect.TypeOf(b)
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	k, ok := r.byType[t]
	return k, ok
}

// Matches reports whether kind k was registered for type T.
func Matches[T Block](r *Registry, k Kind) bool {
	return int(k) < len(r.kinds) && r.kinds[k].typ == reflect.TypeOf((*T)(nil)).Elem()
}

func (r *Registry) Len() int {
	return len(r.kinds)
}

// Inline reports whether k is a registered inline kind.
func (r *Registry) Inline(k Kind) bool {
	return int(k) < len(r.kinds) && r.kinds[k].pack != nil
}

// Unpack materializes an inline kind from its packed state. Not-ok for
// unknown and entity kinds.
func (r *Registry) Unpack(k Kind, s State) (Block, bool) {
	if !r.Inline(k) {
		return nil, false
	}
	return r.kinds[k].unpack(s), true
}

// Pack reduces an inline block to its packed state. Not-ok for unknown and
// entity kinds.
func (r *Registry) Pack(k Kind, b Block) (State, bool) {
	if !r.Inline(k) {
		return 0, false
	}
	return r.kinds[k].pack(b), true
}

// NewEntity returns a fresh zero-value instance (*T) of an entity kind.
func (r *Registry) NewEntity(k Kind) (any, bool) {
	if int(k) >= len(r.kinds) || r.kinds[k].zero == nil {
		return nil, false
	}
	return r.kinds[k].zero(), true
}

func (r *Registry) StringID(k Kind) (string, bool) {
	if int(k) >= len(r.kinds) {
		return "", false
	}
	return r.kinds[k].id, true
}

func (r *Registry) KindByID(id string) (Kind, bool) {
	k, ok := r.byID[id]
	return k, ok
}

// Palette lists string ids in kind order. Index i is the id of Kind(i).
func (r *Registry) Palette() []string {
	out := make([]string, len(r.kinds))
	for i, e := range r.kinds {
		out[i] = e.id
	}
	return out
}

// PaletteDigest is the sha256 of the JSON palette, hex encoded. Two sides
// agree on kind numbering iff their digests match.
func (r *Registry) PaletteDigest() string {
	b, _ := json.Marshal(r.Palette())
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}
