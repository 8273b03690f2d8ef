// Package subtarget picks an intermediate destination when the final
// target lies outside knowledge-reachable territory.
package subtarget

import (
	"voxelnav.ai/internal/nav/geom"
	"voxelnav.ai/internal/nav/knowledge"
)

type Config struct {
	NearKnownRadius int     // final target counts as known within this radius
	ReachSteps      int     // BFS expansion cap
	MinDist         float64 // candidate distance band from current
	MaxDist         float64
	FallbackDist    float64 // fixed offset for the no-candidate fallback
	ExploreRadius   int     // neighborhood for the exploration term
}

func DefaultConfig() Config {
	return Config{
		NearKnownRadius: 2,
		ReachSteps:      100,
		MinDist:         2,
		MaxDist:         15,
		FallbackDist:    3,
		ExploreRadius:   2,
	}
}

type Selector struct {
	know *knowledge.Map
	cfg  Config
}

func New(know *knowledge.Map, cfg Config) *Selector {
	return &Selector{know: know, cfg: cfg}
}

// Scoring weights: progress toward the final target dominates, then
// direction alignment, then straight-line clearness, then exploration
// value of the surrounding unknown.
const (
	wProgress  = 0.4
	wAlignment = 0.3
	wClearness = 0.2
	wExplore   = 0.1
)

// Select returns the next intermediate destination for current->final.
// The final target itself is returned (height-adjusted) when it is near
// known territory and reachable over safe cells.
func (s *Selector) Select(current, final geom.Vec3) geom.Vec3 {
	curFeet := current.Voxel()
	finalCell := final.Voxel()

	if s.nearKnown(finalCell) && s.know.Reachable(curFeet, finalCell, s.cfg.ReachSteps) {
		return s.heightAdjust(final)
	}

	bestScore := -1.0
	var best geom.Vec3
	found := false

	consider := func(c geom.Vec3i) {
		stand, ok := s.standingPoint(c)
		if !ok {
			return
		}
		d := geom.Dist(current, stand)
		if d < s.cfg.MinDist || d > s.cfg.MaxDist {
			return
		}
		if !s.know.HeightAccessible(current, stand) {
			return
		}
		if !s.know.Reachable(curFeet, stand.Voxel(), s.cfg.ReachSteps) {
			return
		}
		if score := s.score(current, final, c, stand); !found || score > bestScore {
			bestScore, best, found = score, stand, true
		}
	}

	for _, c := range s.know.Frontier() {
		consider(c)
	}
	for _, c := range s.know.SafeCells() {
		consider(c)
	}

	if found {
		return best
	}

	// Nothing qualified: a fixed-distance point along the bearing to the
	// final target keeps the agent moving.
	fallback := current.Add(final.Sub(current).Unit().Scale(s.cfg.FallbackDist))
	return s.heightAdjust(fallback)
}

func (s *Selector) score(current, final geom.Vec3, cell geom.Vec3i, stand geom.Vec3) float64 {
	remaining := geom.Dist(current, final)
	progress := 0.0
	if remaining > 0 {
		progress = (remaining - geom.Dist(stand, final)) / remaining
		if progress < 0 {
			progress = 0
		}
		if progress > 1 {
			progress = 1
		}
	}

	toCand := stand.Sub(current).Unit()
	toFinal := final.Sub(current).Unit()
	alignment := toCand.Dot(toFinal)

	clearness := 0.3
	if s.know.ClearPath(current, stand) {
		clearness = 1.0
	}

	explore := s.know.UnknownFraction(cell, s.cfg.ExploreRadius)
	if explore > 1 {
		explore = 1
	}

	return wProgress*progress + wAlignment*alignment + wClearness*clearness + wExplore*explore
}

// standingPoint maps a candidate voxel to a standable world position:
// on top of safe ground, or the cell itself when it is an open feet cell.
func (s *Selector) standingPoint(c geom.Vec3i) (geom.Vec3, bool) {
	if s.know.IsSafe(c) {
		feet := c.Add(geom.Vec3i{Y: 1})
		if !s.know.SafeCell(feet) {
			return geom.Vec3{}, false
		}
		return cellCenter(feet), true
	}
	if !s.know.IsObstacle(c) && s.know.SafeCell(c) {
		return cellCenter(c), true
	}
	return geom.Vec3{}, false
}

// nearKnown reports whether any voxel in a small cube around the target
// has been perceived.
func (s *Selector) nearKnown(target geom.Vec3i) bool {
	r := s.cfg.NearKnownRadius
	for dx := -r; dx <= r; dx++ {
		for dy := -r; dy <= r; dy++ {
			for dz := -r; dz <= r; dz++ {
				if s.know.IsKnown(target.Add(geom.Vec3i{X: dx, Y: dy, Z: dz})) {
					return true
				}
			}
		}
	}
	return false
}

// heightAdjust snaps a point to the known ground level in its column,
// when there is one.
func (s *Selector) heightAdjust(p geom.Vec3) geom.Vec3 {
	v := p.Voxel()
	if gy, ok := s.know.GroundY(v.X, v.Z, v.Y-1); ok {
		p.Y = float64(gy) + 1
	}
	return p
}

func cellCenter(c geom.Vec3i) geom.Vec3 {
	return geom.Vec3{X: float64(c.X) + 0.5, Y: float64(c.Y), Z: float64(c.Z) + 0.5}
}
