// Package blocks carries the block catalog the navigation core classifies
// terrain with. The catalog is a palette (uint16 ids on the wire) plus
// per-block attributes; the safety table in safety.go is derived from it.
package blocks

import "strings"

type Def struct {
	ID         string `json:"id"`
	Solid      bool   `json:"solid"`
	Fluid      bool   `json:"fluid"`
	Hazard     bool   `json:"hazard"`     // fire, lava: unsafe to stand in or on
	Decorative bool   `json:"decorative"` // ignorable for perception (short grass etc.)
	Fence      bool   `json:"fence"`      // blocks the voxel above as well
	Slab       bool   `json:"slab"`       // half-height collision box
	Ground     bool   `json:"ground"`     // known-walkable surface material
}

type Catalog struct {
	Palette []string
	Index   map[string]uint16
	Defs    map[string]Def
}

// Default is the built-in catalog. Identified by name so an external
// palette can be remapped onto it by id (see ByRawID).
func Default() *Catalog {
	defs := []Def{
		{ID: "AIR"},
		{ID: "GRASS_BLOCK", Solid: true, Ground: true},
		{ID: "DIRT", Solid: true, Ground: true},
		{ID: "SAND", Solid: true, Ground: true},
		{ID: "GRAVEL", Solid: true, Ground: true},
		{ID: "STONE", Solid: true, Ground: true},
		{ID: "LOG", Solid: true},
		{ID: "LEAVES", Solid: true},
		{ID: "SHORT_GRASS", Decorative: true},
		{ID: "FLOWER", Decorative: true},
		{ID: "FENCE", Solid: true, Fence: true},
		{ID: "WALL", Solid: true, Fence: true},
		{ID: "SLAB", Solid: true, Slab: true},
		{ID: "WATER", Fluid: true},
		{ID: "LAVA", Fluid: true, Hazard: true},
		{ID: "FIRE", Hazard: true},
	}
	c := &Catalog{
		Palette: make([]string, 0, len(defs)),
		Index:   make(map[string]uint16, len(defs)),
		Defs:    make(map[string]Def, len(defs)),
	}
	for i, d := range defs {
		c.Palette = append(c.Palette, d.ID)
		c.Index[d.ID] = uint16(i)
		c.Defs[d.ID] = d
	}
	return c
}

func (c *Catalog) ByID(id string) (Def, bool) {
	d, ok := c.Defs[id]
	return d, ok
}

// ByRawID resolves a palette id from the wire. Out-of-range ids are
// reported as unknown, not as air.
func (c *Catalog) ByRawID(raw uint16) (Def, bool) {
	if int(raw) >= len(c.Palette) {
		return Def{}, false
	}
	return c.Defs[c.Palette[raw]], true
}

func (c *Catalog) AirID() uint16 { return c.Index["AIR"] }

// Heuristic fallback for palettes richer than the built-in one: blocks the
// catalog has never heard of are classified by id substring.
func Classify(id string) Def {
	u := strings.ToUpper(id)
	d := Def{ID: id}
	switch {
	case u == "AIR" || u == "CAVE_AIR":
		return d
	case strings.Contains(u, "WATER"):
		d.Fluid = true
	case strings.Contains(u, "LAVA"):
		d.Fluid, d.Hazard = true, true
	case strings.Contains(u, "FIRE") || strings.Contains(u, "MAGMA"):
		d.Hazard = true
	case strings.Contains(u, "FENCE") || strings.Contains(u, "WALL"):
		d.Solid, d.Fence = true, true
	case strings.Contains(u, "SLAB"):
		d.Solid, d.Slab = true, true
	case strings.Contains(u, "GRASS") && !strings.Contains(u, "BLOCK"):
		d.Decorative = true
	case strings.Contains(u, "FLOWER") || strings.Contains(u, "SAPLING"):
		d.Decorative = true
	default:
		d.Solid = true
	}
	return d
}
