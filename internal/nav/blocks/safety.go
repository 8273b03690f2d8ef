package blocks

// SafetyClass partitions materials the way the knowledge map consumes them.
type SafetyClass int

const (
	ClassUnknown SafetyClass = iota
	ClassSafe                // known-walkable ground
	ClassObstacle            // solid, not walkable through
	ClassHazard              // fluids, fire, lava
	ClassPassable            // air-like, decorative
)

// HazardPolicy decides how plain fluid materials (water, not lava) classify.
// Fluid cells block movement under both policies: the knowledge map indexes
// hazards and obstacles into the same blocked set. FluidAvoid keeps fluids as
// hazards, which also rejects them as footing under a candidate cell;
// FluidImpassable classifies them as solid obstacles and enables the
// submerged-surfacing preemption in the reactive layer. Hazard-flagged defs
// like lava classify as ClassHazard regardless of policy.
type HazardPolicy int

const (
	FluidAvoid HazardPolicy = iota
	FluidImpassable
)

// Safety classifies a block def under a hazard policy.
func Safety(d Def, policy HazardPolicy) SafetyClass {
	switch {
	case d.Hazard:
		return ClassHazard
	case d.Fluid:
		if policy == FluidImpassable {
			return ClassObstacle
		}
		return ClassHazard
	case d.Decorative:
		return ClassPassable
	case d.Ground:
		return ClassSafe
	case d.Solid:
		return ClassObstacle
	default:
		return ClassUnknown
	}
}

// Interesting reports whether a visible block is worth remembering.
// Air and decorative clutter are not.
func Interesting(d Def) bool {
	return !d.Decorative && (d.Solid || d.Fluid || d.Hazard)
}
