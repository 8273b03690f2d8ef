package reactive

import "voxelnav.ai/internal/nav/geom"

// submerged reports whether the agent's feet or head cell is a known
// fluid. Only meaningful under the fluid-as-impassable policy.
func (f *Follower) submerged(current geom.Vec3) bool {
	feet := current.Voxel()
	for _, cell := range [2]geom.Vec3i{feet, feet.Add(geom.Vec3i{Y: 1})} {
		if e, ok := f.know.Entry(cell); ok && e.Rec.Def.Fluid {
			return true
		}
	}
	return false
}

// surface finds the nearest known dry, supported cell and heads there,
// overriding any in-progress plan. With no dry cell known, it falls back
// to straight vertical ascent.
func (f *Follower) surface(current geom.Vec3) (geom.Vec3, bool) {
	feet := current.Voxel()

	var best geom.Vec3i
	bestDist := 0.0
	found := false
	for _, g := range f.know.SafeCells() {
		stand := g.Add(geom.Vec3i{Y: 1})
		if !f.dryCell(stand) {
			continue
		}
		if !f.know.SafeCell(stand) {
			continue
		}
		d := geom.Disti(feet, stand)
		if !found || d < bestDist {
			best, bestDist, found = stand, d, true
		}
	}
	if found {
		return cellCenter(best), true
	}

	// Nothing dry known: ascend and hope for air.
	return geom.Vec3{X: current.X, Y: current.Y + 1, Z: current.Z}, true
}

// dryCell: no known fluid in the feet or head cell.
func (f *Follower) dryCell(feet geom.Vec3i) bool {
	for _, cell := range [2]geom.Vec3i{feet, feet.Add(geom.Vec3i{Y: 1})} {
		if e, ok := f.know.Entry(cell); ok && e.Rec.Def.Fluid {
			return false
		}
	}
	return true
}
