package blocks

import "sort"

// Chest is an entity kind: its inventory cannot be reduced to a packed
// slot, so chunk slots hold an arena address for it. The zero value is a
// valid empty chest.
type Chest struct {
	Facing    Facing
	Inventory map[string]int
}

func (Chest) ID() string   { return "chest" }
func (Chest) Name() string { return "Chest" }

func (c *Chest) Put(item string, n int) {
	if n <= 0 {
		return
	}
	if c.Inventory == nil {
		c.Inventory = map[string]int{}
	}
	c.Inventory[item] += n
}

// Take removes n of item, or nothing at all if fewer are stored.
func (c *Chest) Take(item string, n int) bool {
	if n <= 0 {
		return true
	}
	if c.Inventory[item] < n {
		return false
	}
	c.Inventory[item] -= n
	if c.Inventory[item] <= 0 {
		delete(c.Inventory, item)
	}
	return true
}

func (c *Chest) Count(item string) int {
	return c.Inventory[item]
}

// Items lists stored items in stable order.
func (c *Chest) Items() []string {
	out := make([]string, 0, len(c.Inventory))
	for item, n := range c.Inventory {
		if n <= 0 {
			continue
		}
		out = append(out, item)
	}
	sort.Strings(out)
	return out
}
