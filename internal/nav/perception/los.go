package perception

import (
	"voxelnav.ai/internal/nav/blocks"
	"voxelnav.ai/internal/nav/geom"
)

const (
	trivialVisibleDist = 2.0
	boxMargin          = 0.05 // inward margin on obstruction boxes
)

// lineOfSight is the relaxed visibility test: march from the eye toward
// the block center in fixed steps, counting obstructions along the way.
// A few obstructions (p.MaxObstructions) are tolerated before the ray is
// declared blocked; this models practical sight through gaps rather than
// mathematically strict occlusion. The start and target cells themselves
// never count.
func (e *Engine) lineOfSight(eye geom.Vec3, target geom.Vec3i) bool {
	tc := target.Center()
	delta := tc.Sub(eye)
	dist := delta.Len()
	if dist <= trivialVisibleDist {
		return true
	}

	dir := delta.Scale(1 / dist)
	eyeCell := eye.Voxel()

	obstructions := 0
	var lastCounted geom.Vec3i
	counted := false
	for d := e.params.LineOfSightStep; d < dist; d += e.params.LineOfSightStep {
		pt := eye.Add(dir.Scale(d))
		cell := pt.Voxel()
		if cell == eyeCell || cell == target {
			continue
		}
		if counted && cell == lastCounted {
			continue // one count per cell, independent of step size
		}
		b, ok := e.blockAt(cell)
		if !ok {
			continue // unknown never obstructs
		}
		if !obstructs(b.Def, cell, pt) {
			continue
		}
		obstructions++
		lastCounted, counted = cell, true
		if obstructions > e.params.MaxObstructions {
			return false
		}
	}
	return true
}

// obstructs reports whether the sample point falls inside the block's
// collision box, shrunk by a small margin (half height for slabs).
func obstructs(d blocks.Def, cell geom.Vec3i, pt geom.Vec3) bool {
	if !d.Solid || d.Decorative {
		return false
	}
	minX, minY, minZ := float64(cell.X)+boxMargin, float64(cell.Y)+boxMargin, float64(cell.Z)+boxMargin
	maxX, maxY, maxZ := float64(cell.X)+1-boxMargin, float64(cell.Y)+1-boxMargin, float64(cell.Z)+1-boxMargin
	if d.Slab {
		maxY = float64(cell.Y) + 0.5
	}
	return pt.X >= minX && pt.X <= maxX &&
		pt.Y >= minY && pt.Y <= maxY &&
		pt.Z >= minZ && pt.Z <= maxZ
}
