package knowledge

import "voxelnav.ai/internal/nav/geom"

// Reachable runs a bounded breadth-first search over safe-classified
// ground voxels from the column under fromFeet toward target. maxSteps
// caps expansions; exhausting the budget means "not known reachable",
// never an error.
func (m *Map) Reachable(fromFeet, target geom.Vec3i, maxSteps int) bool {
	startY, ok := m.GroundY(fromFeet.X, fromFeet.Z, fromFeet.Y-1)
	if !ok {
		return false
	}
	start := geom.Vec3i{X: fromFeet.X, Y: startY, Z: fromFeet.Z}
	if nearColumn(start, target) {
		return true
	}

	dirs := []geom.Vec3i{{X: 1}, {X: -1}, {Z: 1}, {Z: -1}}

	visited := map[geom.PackedPos]struct{}{geom.Pack(start): {}}
	queue := []geom.Vec3i{start}
	steps := 0

	for len(queue) > 0 && steps < maxSteps {
		cur := queue[0]
		queue = queue[1:]
		steps++

		for _, d := range dirs {
			nx, nz := cur.X+d.X, cur.Z+d.Z
			ny, ok := m.GroundY(nx, nz, cur.Y)
			if !ok {
				continue
			}
			n := geom.Vec3i{X: nx, Y: ny, Z: nz}
			k := geom.Pack(n)
			if _, seen := visited[k]; seen {
				continue
			}
			visited[k] = struct{}{}
			if !m.SafeCell(n.Add(geom.Vec3i{Y: 1})) {
				continue
			}
			if nearColumn(n, target) {
				return true
			}
			queue = append(queue, n)
		}
	}
	return false
}

// nearColumn treats the target as reached when the search is within one
// cell of its column.
func nearColumn(ground, target geom.Vec3i) bool {
	return geom.AbsInt(ground.X-target.X) <= 1 && geom.AbsInt(ground.Z-target.Z) <= 1
}
