package subtarget

import (
	"math"
	"testing"
	"time"

	"voxelnav.ai/internal/nav/blocks"
	"voxelnav.ai/internal/nav/geom"
	"voxelnav.ai/internal/nav/knowledge"
	"voxelnav.ai/internal/nav/perception"
)

var cat = blocks.Default()

func mem(pos geom.Vec3i, id string, now time.Time) perception.MemoryBlock {
	d, _ := cat.ByID(id)
	return perception.MemoryBlock{Pos: pos, Def: d, Dist: 4, RawID: cat.Index[id], FirstSeen: now, LastSeen: now}
}

func knowMap() *knowledge.Map {
	return knowledge.New(blocks.FluidAvoid, knowledge.Limits{MaxJumpHeight: 1, MaxFallHeight: 3}, time.Hour)
}

func floorRecs(x0, x1, z0, z1, y int, now time.Time) []perception.MemoryBlock {
	var recs []perception.MemoryBlock
	for x := x0; x <= x1; x++ {
		for z := z0; z <= z1; z++ {
			recs = append(recs, mem(geom.Vec3i{X: x, Y: y, Z: z}, "STONE", now))
		}
	}
	return recs
}

func TestEmptyKnowledgeFallsBackAlongBearing(t *testing.T) {
	s := New(knowMap(), DefaultConfig())

	// Agent at origin, target 20 units along +X, nothing known.
	got := s.Select(geom.Vec3{}, geom.Vec3{X: 20})
	if math.Abs(got.X-3) > 0.01 || math.Abs(got.Z) > 0.01 {
		t.Fatalf("fallback point %+v, want ~3 units along +X", got)
	}
}

func TestReachableFinalReturnedDirect(t *testing.T) {
	m := knowMap()
	now := time.Now()
	m.Merge(floorRecs(-1, 12, -1, 1, -1, now))
	s := New(m, DefaultConfig())

	current := geom.Vec3{X: 0.5, Y: 0, Z: 0.5}
	final := geom.Vec3{X: 10.5, Y: 0, Z: 0.5}
	got := s.Select(current, final)
	if got.X != final.X || got.Z != final.Z {
		t.Fatalf("reachable final not returned directly: %+v", got)
	}
	// Height-adjusted to stand on the known ground.
	if got.Y != 0 {
		t.Fatalf("final not height-adjusted: y=%v", got.Y)
	}
}

func TestUnreachableFinalPicksProgressCandidate(t *testing.T) {
	m := knowMap()
	now := time.Now()
	// Known territory covers only x in [-1,8]; the final target at x=30
	// is far outside it.
	m.Merge(floorRecs(-1, 8, -2, 2, -1, now))
	s := New(m, DefaultConfig())

	current := geom.Vec3{X: 0.5, Y: 0, Z: 0.5}
	final := geom.Vec3{X: 30.5, Y: 0, Z: 0.5}
	got := s.Select(current, final)

	// The chosen sub-target must make real progress toward +X and sit
	// inside the candidate distance band.
	d := geom.Dist(current, got)
	if d < 2 || d > 15 {
		t.Fatalf("sub-target outside distance band: %+v (d=%v)", got, d)
	}
	if got.X <= current.X+1 {
		t.Fatalf("sub-target makes no progress toward final: %+v", got)
	}
}

func TestCandidatesRejectUnsafe(t *testing.T) {
	m := knowMap()
	now := time.Now()
	m.Merge(floorRecs(-1, 8, -1, 1, -1, now))
	// Poison the far end: lava ground at x in [6,8].
	var recs []perception.MemoryBlock
	for x := 6; x <= 8; x++ {
		for z := -1; z <= 1; z++ {
			recs = append(recs, mem(geom.Vec3i{X: x, Y: -1, Z: z}, "LAVA", now))
		}
	}
	m.Merge(recs)
	s := New(m, DefaultConfig())

	got := s.Select(geom.Vec3{X: 0.5, Y: 0, Z: 0.5}, geom.Vec3{X: 30.5, Y: 0, Z: 0.5})
	cell := got.Voxel().Add(geom.Vec3i{Y: -1})
	if e, ok := m.Entry(cell); ok && e.Rec.Def.Hazard {
		t.Fatalf("sub-target stands on a hazard: %+v", got)
	}
}
