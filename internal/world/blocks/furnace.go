package blocks

// Furnace is an entity kind with smelting state.
type Furnace struct {
	Fuel     int
	Input    string
	Progress int
}

func (Furnace) ID() string   { return "furnace" }
func (Furnace) Name() string { return "Furnace" }

func (f *Furnace) Refuel(n int) {
	if n <= 0 {
		return
	}
	f.Fuel += n
}

// Load replaces the input and restarts progress.
func (f *Furnace) Load(item string) {
	f.Input = item
	f.Progress = 0
}
