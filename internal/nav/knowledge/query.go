package knowledge

import (
	"voxelnav.ai/internal/nav/blocks"
	"voxelnav.ai/internal/nav/geom"
)

// Blocked reports whether a cell cannot be occupied: obstacle-set members
// (including fence headroom marks) and any known solid block. Safe-class
// ground is walkable ON, not THROUGH.
func (m *Map) Blocked(pos geom.Vec3i) bool {
	k := geom.Pack(pos)
	if _, ok := m.obstacles[k]; ok {
		return true
	}
	if e, ok := m.entries[k]; ok && e.Rec.Def.Solid {
		return true
	}
	return false
}

// GroundY resolves the known ground level for a column, searching from
// refY+maxJump down to refY-maxFall. Returns the ground voxel's Y.
func (m *Map) GroundY(x, z, refY int) (int, bool) {
	for y := refY + m.limits.MaxJumpHeight; y >= refY-m.limits.MaxFallHeight; y-- {
		g := geom.Vec3i{X: x, Y: y, Z: z}
		if !m.IsSafe(g) {
			continue
		}
		feet := g.Add(geom.Vec3i{Y: 1})
		if m.Blocked(feet) || m.Blocked(feet.Add(geom.Vec3i{Y: 1})) {
			continue
		}
		return y, true
	}
	return 0, false
}

// SafeCell is the planner/reactive safety check for a standing (feet)
// cell: nothing blocking feet or head, no dead-end mark, and no hazard
// underfoot. Unknown terrain passes — the agent has to be able to move
// into territory it has not perceived yet.
func (m *Map) SafeCell(feet geom.Vec3i) bool {
	if m.Blocked(feet) || m.Blocked(feet.Add(geom.Vec3i{Y: 1})) {
		return false
	}
	if m.IsDeadEnd(feet) {
		return false
	}
	if e, ok := m.entries[geom.Pack(feet.Add(geom.Vec3i{Y: -1}))]; ok {
		if cls := blocks.Safety(e.Rec.Def, m.policy); cls == blocks.ClassHazard {
			return false
		}
	}
	return true
}

// HeightAccessible bounds the vertical delta by the jump/fall limits.
func (m *Map) HeightAccessible(from, to geom.Vec3) bool {
	dy := to.Y - from.Y
	return dy <= float64(m.limits.MaxJumpHeight) && -dy <= float64(m.limits.MaxFallHeight)
}

// ClearPath is the straight-line knowledge-clearness check: sample the
// segment and reject if any sampled feet or head cell is blocked. Unknown
// cells pass.
func (m *Map) ClearPath(from, to geom.Vec3) bool {
	delta := to.Sub(from)
	dist := delta.Len()
	if dist == 0 {
		return true
	}
	dir := delta.Scale(1 / dist)
	const step = 0.5
	for d := step; d <= dist; d += step {
		cell := from.Add(dir.Scale(d)).Voxel()
		if m.Blocked(cell) || m.Blocked(cell.Add(geom.Vec3i{Y: 1})) {
			return false
		}
	}
	end := to.Voxel()
	if m.Blocked(end) || m.Blocked(end.Add(geom.Vec3i{Y: 1})) {
		return false
	}
	return true
}

// UnknownFraction is the share of never-perceived cells in a flat square
// neighborhood; the sub-target selector uses it as exploration value.
func (m *Map) UnknownFraction(center geom.Vec3i, radius int) float64 {
	if radius <= 0 {
		return 0
	}
	total, unknown := 0, 0
	for dx := -radius; dx <= radius; dx++ {
		for dz := -radius; dz <= radius; dz++ {
			for dy := -1; dy <= 1; dy++ {
				total++
				if !m.IsKnown(center.Add(geom.Vec3i{X: dx, Y: dy, Z: dz})) {
					unknown++
				}
			}
		}
	}
	return float64(unknown) / float64(total)
}
