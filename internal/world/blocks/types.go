package blocks

// Facing occupies 3 payload bits.
type Facing uint8

const (
	North Facing = iota
	South
	East
	West
	Up
	Down
)

func (f Facing) String() string {
	switch f {
	case North:
		return "north"
	case South:
		return "south"
	case East:
		return "east"
	case West:
		return "west"
	case Up:
		return "up"
	case Down:
		return "down"
	}
	return "north"
}

// WoodVariant occupies 3 payload bits.
type WoodVariant uint8

const (
	Oak WoodVariant = iota
	Spruce
	Birch
	Jungle
	Acacia
	DarkOak
)

func (w WoodVariant) String() string {
	switch w {
	case Oak:
		return "Oak"
	case Spruce:
		return "Spruce"
	case Birch:
		return "Birch"
	case Jungle:
		return "Jungle"
	case Acacia:
		return "Acacia"
	case DarkOak:
		return "Dark Oak"
	}
	return "Oak"
}
