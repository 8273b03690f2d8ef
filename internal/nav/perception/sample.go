package perception

import (
	"math"

	"voxelnav.ai/internal/nav/geom"
)

const angularStepDeg = 10

// sampleCandidates generates the polar scan pattern around the agent:
// dense rings near the agent, sparser rings further out, crossed with a
// fixed angular step and a vertical band from slightly below the agent to
// VerticalScanRange above. Deduplicated and capped.
func sampleCandidates(center geom.Vec3, p Params) []geom.Vec3i {
	base := center.Voxel()
	seen := make(map[geom.PackedPos]struct{}, p.MaxBlocksPerScan)
	out := make([]geom.Vec3i, 0, p.MaxBlocksPerScan)

	push := func(v geom.Vec3i) bool {
		k := geom.Pack(v)
		if _, dup := seen[k]; dup {
			return true
		}
		seen[k] = struct{}{}
		out = append(out, v)
		return len(out) < p.MaxBlocksPerScan
	}

	// The agent's own column first, so nearby ground is never starved out
	// by the cap.
	for dy := -2; dy <= p.VerticalScanRange; dy++ {
		if !push(geom.Vec3i{X: base.X, Y: base.Y + dy, Z: base.Z}) {
			return out
		}
	}

	for r := 1; r <= p.ScanRadius; r += radialStep(r, p.ScanRadius) {
		for deg := 0; deg < 360; deg += angularStepDeg {
			rad := float64(deg) * math.Pi / 180
			dx := int(math.Round(float64(r) * math.Cos(rad)))
			dz := int(math.Round(float64(r) * math.Sin(rad)))
			for dy := -2; dy <= p.VerticalScanRange; dy++ {
				v := geom.Vec3i{X: base.X + dx, Y: base.Y + dy, Z: base.Z + dz}
				if !push(v) {
					return out
				}
			}
		}
	}
	return out
}

// radialStep keeps rings dense near the agent (step 1), then 2, then 3.
func radialStep(r, radius int) int {
	switch {
	case r < radius/3 || r < 4:
		return 1
	case r < 2*radius/3:
		return 2
	default:
		return 3
	}
}
