package block

// Block is the capability every block kind implements. ID is the stable
// string identifier ("chest"), Name the display name ("Chest"). Kinds must
// implement both with value receivers so values and pointers to them satisfy
// the interface.
type Block interface {
	ID() string
	Name() string
}

// Inline is satisfied by kinds whose whole state fits the 6-bit slot
// payload. Pack and Unpack must round-trip: Unpack(v.Pack()) == v.
type Inline[T Block] interface {
	Block
	Pack() State
	Unpack(State) T
}
