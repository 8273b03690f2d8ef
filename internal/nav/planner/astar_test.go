package planner

import (
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

func flatMap(t *testing.T, x0, x1, z0, z1 int) *knowledge.Map {
	t.Helper()
	m := knowledge.New(blocks.FluidAvoid, knowledge.Limits{MaxJumpHeight: 1, MaxFallHeight: 3}, time.Hour)
	now := time.Now()
	var recs []perception.MemoryBlock
	for x := x0; x <= x1; x++ {
		for z := z0; z <= z1; z++ {
			recs = append(recs, mem(geom.Vec3i{X: x, Y: -1, Z: z}, "STONE", now))
		}
	}
	m.Merge(recs)
	return m
}

func TestPlanStraightCorridorSimplified(t *testing.T) {
	m := flatMap(t, -1, 12, -1, 1)
	p := New(m, DefaultConfig())

	start := geom.Vec3{X: 0.5, Y: 0, Z: 0.5}
	goal := geom.Vec3{X: 10.5, Y: 0, Z: 0.5}
	path := p.Plan(start, goal)
	if path == nil {
		t.Fatal("no path through open corridor")
	}
	// A raw 10-cell straight path has 11 waypoints; simplification must
	// collapse an unobstructed straight line to far fewer.
	if len(path) > 4 {
		t.Fatalf("simplified path still has %d waypoints: %v", len(path), path)
	}
	last := path[len(path)-1]
	if geom.DistXZ(last, goal) > 2.0 {
		t.Fatalf("path ends at %+v, goal %+v", last, goal)
	}
}

func TestPlanReturnsNilOnIterationCap(t *testing.T) {
	m := flatMap(t, -1, 60, -1, 1)
	cfg := DefaultConfig()
	cfg.MaxIterations = 5
	p := New(m, cfg)

	path := p.Plan(geom.Vec3{X: 0.5, Y: 0, Z: 0.5}, geom.Vec3{X: 50.5, Y: 0, Z: 0.5})
	if path != nil {
		t.Fatalf("cap-exhausted search returned a partial path: %v", path)
	}
}

func TestPlanAvoidsKnownObstacles(t *testing.T) {
	m := flatMap(t, -2, 12, -4, 4)
	now := time.Now()
	// Wall across x=5 except a gap at z=3.
	var recs []perception.MemoryBlock
	for z := -4; z <= 2; z++ {
		recs = append(recs, mem(geom.Vec3i{X: 5, Y: 0, Z: z}, "LOG", now))
		recs = append(recs, mem(geom.Vec3i{X: 5, Y: 1, Z: z}, "LOG", now))
	}
	m.Merge(recs)

	p := New(m, DefaultConfig())
	path := p.Plan(geom.Vec3{X: 0.5, Y: 0, Z: 0.5}, geom.Vec3{X: 10.5, Y: 0, Z: 0.5})
	if path == nil {
		t.Fatal("no path around wall with a gap")
	}
	for _, w := range path {
		cell := w.Voxel()
		if m.IsObstacle(cell) || m.IsObstacle(cell.Add(geom.Vec3i{Y: 1})) {
			t.Fatalf("waypoint %+v is an obstacle cell", w)
		}
	}
}

func TestPlanDeterministicForSeed(t *testing.T) {
	mk := func() []geom.Vec3 {
		m := flatMap(t, -2, 12, -2, 12)
		cfg := DefaultConfig()
		cfg.Seed = 42
		return New(m, cfg).Plan(geom.Vec3{X: 0.5, Y: 0, Z: 0.5}, geom.Vec3{X: 9.5, Y: 0, Z: 9.5})
	}
	a, b := mk(), mk()
	if len(a) == 0 || len(b) == 0 {
		t.Fatal("no path on open ground")
	}
	if len(a) != len(b) {
		t.Fatalf("same seed, different paths: %v vs %v", a, b)
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("same seed, different paths at %d: %v vs %v", i, a[i], b[i])
		}
	}
}

func TestSimplifyKeepsEndpointsAndClearance(t *testing.T) {
	m := flatMap(t, -1, 12, -1, 1)
	p := New(m, DefaultConfig())

	raw := make([]geom.Vec3, 0, 11)
	for i := 0; i <= 10; i++ {
		raw = append(raw, geom.Vec3{X: float64(i) + 0.5, Y: 0, Z: 0.5})
	}
	got := p.Simplify(raw)
	if len(got) >= len(raw) {
		t.Fatalf("simplify did not shorten: %d -> %d", len(raw), len(got))
	}
	if got[0] != raw[0] || got[len(got)-1] != raw[len(raw)-1] {
		t.Fatal("simplify lost an endpoint")
	}
}

func TestExploratoryStepsTowardTarget(t *testing.T) {
	m := flatMap(t, -1, 12, -1, 1)
	p := New(m, DefaultConfig())

	path := p.Exploratory(geom.Vec3{X: 0.5, Y: 0, Z: 0.5}, geom.Vec3{X: 20.5, Y: 0, Z: 0.5})
	if len(path) == 0 {
		t.Fatal("no exploratory steps on open ground")
	}
	for i := 1; i < len(path); i++ {
		if path[i].X <= path[i-1].X {
			t.Fatalf("exploratory path not monotonic toward +X: %v", path)
		}
	}

	// A wall right in front stops the prefix immediately.
	now := time.Now()
	m.Merge([]perception.MemoryBlock{
		mem(geom.Vec3i{X: 1, Y: 0, Z: 0}, "LOG", now),
		mem(geom.Vec3i{X: 1, Y: 1, Z: 0}, "LOG", now),
	})
	path = p.Exploratory(geom.Vec3{X: 0.5, Y: 0, Z: 0.5}, geom.Vec3{X: 20.5, Y: 0, Z: 0.5})
	if len(path) != 0 {
		t.Fatalf("exploratory path through a wall: %v", path)
	}
}
