package planner

import "voxelnav.ai/internal/nav/geom"

const maxExploratorySteps = 5

// Exploratory is the fallback when search fails: step toward the target
// in fixed increments, keeping the prefix of steps that individually pass
// the safety check. May return nil when even the first step is unsafe.
func (p *Planner) Exploratory(start, target geom.Vec3) []geom.Vec3 {
	dir := target.Sub(start).Unit()
	if dir == (geom.Vec3{}) {
		return nil
	}
	var out []geom.Vec3
	for i := 1; i <= maxExploratorySteps; i++ {
		pt := start.Add(dir.Scale(float64(i) * p.cfg.StepSize))
		cell := p.feetCell(pt)
		if !p.know.SafeCell(cell) {
			break
		}
		out = append(out, waypoint(cell))
	}
	return out
}
