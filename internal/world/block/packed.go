package block

// Packed is one 16-bit chunk slot. Bit 15 is the tag: 0 means the slot
// carries a kind id plus inline state, 1 means it carries an address into
// the chunk's entity arena. The zero value is a data slot for kind 0.
//
//	data slot: [15]=0 [14..6]=kind [5..0]=state
//	addr slot: [15]=1 [14..0]=addr
type Packed uint16

// State is the inline payload of a data slot.
type State uint8

// Kind is the numeric tag a registry assigns to each block type.
type Kind uint16

// Addr indexes the chunk's entity arena.
type Addr uint16

const (
	StateBits = 6
	KindBits  = 9
	AddrBits  = 15

	StateMask = 1<<StateBits - 1
	KindMask  = 1<<KindBits - 1
	AddrMask  = 1<<AddrBits - 1

	// MaxKinds bounds registry size, MaxAddrs bounds chunk volume: a chunk
	// fully populated with entity blocks must still be addressable.
	MaxKinds = 1 << KindBits
	MaxAddrs = 1 << AddrBits

	tagBit = 1 << 15
)

func PackData(k Kind, s State) Packed {
	return Packed(uint16(k&KindMask)<<StateBits | uint16(s)&StateMask)
}

func PackAddr(a Addr) Packed {
	return Packed(tagBit | uint16(a)&AddrMask)
}

func (p Packed) IsAddr() bool {
	return p&tagBit != 0
}

// Kind is meaningful only when !IsAddr.
func (p Packed) Kind() Kind {
	return Kind(p>>StateBits) & KindMask
}

// State is meaningful only when !IsAddr.
func (p Packed) State() State {
	return State(p & StateMask)
}

// Addr is meaningful only when IsAddr.
func (p Packed) Addr() Addr {
	return Addr(p & AddrMask)
}
