package reactive

import "voxelnav.ai/internal/nav/geom"

var eightDirs = [8]geom.Vec3i{
	{X: 1}, {X: -1}, {Z: 1}, {Z: -1},
	{X: 1, Z: 1}, {X: 1, Z: -1}, {X: -1, Z: 1}, {X: -1, Z: -1},
}

// recover attempts an escape move when stuck: a one-cell raised hop first,
// then a flat lateral step, over all eight directions.
func (f *Follower) recover(current geom.Vec3) (geom.Vec3, bool) {
	cell := current.Voxel()
	// Raised hops first: stepping up clears lips and low obstructions.
	for _, d := range eightDirs {
		hop := cell.Add(d).Add(geom.Vec3i{Y: 1})
		if f.know.SafeCell(hop) && !f.know.Blocked(cell.Add(geom.Vec3i{Y: 1})) {
			return cellCenter(hop), true
		}
	}
	for _, d := range eightDirs {
		step := cell.Add(d)
		if f.know.SafeCell(step) {
			return cellCenter(step), true
		}
	}
	return geom.Vec3{}, false
}

// jitter is the last-resort random nudge around the current position.
func (f *Follower) jitter(current geom.Vec3) geom.Vec3 {
	return geom.Vec3{
		X: current.X + (f.rng.Float64()-0.5)*2*f.cfg.StepSize,
		Y: current.Y,
		Z: current.Z + (f.rng.Float64()-0.5)*2*f.cfg.StepSize,
	}
}

// exploratory movement: nearest reachable safe frontier cell first, then a
// random safe move, then a minimal jitter. Always returns a move; the
// ok=false escape hatch is kept for symmetry with follow.
func (f *Follower) exploratory(current geom.Vec3) (geom.Vec3, bool) {
	curFeet := current.Voxel()

	var best geom.Vec3i
	bestDist := 0.0
	found := false
	for _, c := range f.know.Frontier() {
		feet := c.Add(geom.Vec3i{Y: 1})
		if !f.know.SafeCell(feet) {
			continue
		}
		// Prefer cells at the edge of knowledge: some unknown around them.
		if f.know.UnknownFraction(c, 1) == 0 {
			continue
		}
		d := geom.Dist(current, cellCenter(feet))
		if d < 1 {
			continue
		}
		if !found || d < bestDist {
			if !f.know.Reachable(curFeet, feet, 60) {
				continue
			}
			best, bestDist, found = feet, d, true
		}
	}
	if found {
		return cellCenter(best), true
	}

	// Random safe movement, a handful of attempts.
	for i := 0; i < 6; i++ {
		d := eightDirs[f.rng.Intn(len(eightDirs))]
		dist := 1 + f.rng.Intn(3)
		cand := curFeet.Add(geom.Vec3i{X: d.X * dist, Z: d.Z * dist})
		if f.know.SafeCell(cand) && f.know.ClearPath(current, cellCenter(cand)) {
			return cellCenter(cand), true
		}
	}

	return f.jitter(current), true
}

func cellCenter(c geom.Vec3i) geom.Vec3 {
	return geom.Vec3{X: float64(c.X) + 0.5, Y: float64(c.Y), Z: float64(c.Z) + 0.5}
}
