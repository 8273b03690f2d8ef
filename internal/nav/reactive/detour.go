package reactive

import (
	"math"

	"voxelnav.ai/internal/nav/geom"
)

// Detour scoring: progress toward the blocked waypoint dominates, with a
// smaller preference for short detours.
const (
	wDetourProgress   = 0.7
	wDetourEfficiency = 0.3
)

// detour searches lateral offsets around the blocked segment for a point
// that is safe, knowledge-clear from the current position, and
// height-accessible. ok=false means no candidate qualified.
func (f *Follower) detour(current, blocked geom.Vec3) (geom.Vec3, bool) {
	forward := blocked.Sub(current)
	forward.Y = 0
	forward = forward.Unit()
	if forward == (geom.Vec3{}) {
		return geom.Vec3{}, false
	}
	// Perpendicular in the XZ plane.
	side := geom.Vec3{X: -forward.Z, Z: forward.X}

	bestScore := 0.0
	var best geom.Vec3
	found := false

	baseDist := geom.Dist(current, blocked)

	for lat := 1.0; lat <= f.cfg.AvoidanceRadius; lat++ {
		for _, sign := range [2]float64{1, -1} {
			for _, fwd := range [3]float64{1, 2, 3} {
				cand := current.
					Add(forward.Scale(fwd * f.cfg.StepSize)).
					Add(side.Scale(sign * lat))
				cell := f.standCell(cand)
				cand = geom.Vec3{X: float64(cell.X) + 0.5, Y: float64(cell.Y), Z: float64(cell.Z) + 0.5}

				if !f.know.SafeCell(cell) {
					continue
				}
				if !f.know.ClearPath(current, cand) {
					continue
				}
				if !f.know.HeightAccessible(current, cand) {
					continue
				}

				progress := 1 - geom.Dist(cand, blocked)/math.Max(baseDist, 1)
				if progress < 0 {
					progress = 0
				}
				detourLen := geom.Dist(current, cand)
				efficiency := 1 / (1 + detourLen)
				score := wDetourProgress*progress + wDetourEfficiency*efficiency
				if !found || score > bestScore {
					bestScore, best, found = score, cand, true
				}
			}
		}
	}
	return best, found
}

// standCell resolves a candidate point to its feet cell, snapping to the
// known ground level when there is one.
func (f *Follower) standCell(p geom.Vec3) geom.Vec3i {
	v := p.Voxel()
	if gy, ok := f.know.GroundY(v.X, v.Z, v.Y-1); ok {
		v.Y = gy + 1
	}
	return v
}
