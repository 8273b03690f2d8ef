package nav

import (
	"math"
	"testing"

	"voxelnav.ai/internal/nav/blocks"
	"voxelnav.ai/internal/nav/geom"
	"voxelnav.ai/internal/nav/perception"
	"voxelnav.ai/internal/nav/tuning"
	"voxelnav.ai/internal/sim/gridworld"
)

// flatWorld is an endless grass plain with optional overrides, standing
// surface at y=0.
type flatWorld struct {
	cat       *blocks.Catalog
	overrides map[geom.Vec3i]string
}

func newFlatWorld() *flatWorld {
	return &flatWorld{cat: blocks.Default(), overrides: map[geom.Vec3i]string{}}
}

func (w *flatWorld) set(pos geom.Vec3i, id string) { w.overrides[pos] = id }

func (w *flatWorld) BlockAt(pos geom.Vec3i) (perception.Block, bool) {
	id, ok := w.overrides[pos]
	if !ok {
		switch {
		case pos.Y == -1:
			id = "GRASS_BLOCK"
		case pos.Y < -1:
			id = "STONE"
		default:
			id = "AIR"
		}
	}
	d, _ := w.cat.ByID(id)
	return perception.Block{Def: d, RawID: w.cat.Index[id]}, true
}

// testTuning keeps scans single-step and disables the replan cooldown so
// ticks in a tight loop behave like spaced-out real ticks.
func testTuning() tuning.Tuning {
	cfg := tuning.Default()
	cfg.ScanRadius = 6
	cfg.VerticalScanRange = 2
	cfg.ScanBatchSize = 4096
	cfg.ReplanIntervalMs = 0
	return cfg
}

func TestNonFiniteTargetRejected(t *testing.T) {
	n := New(newFlatWorld(), testTuning())
	pose := Pose{Pos: geom.Vec3{X: 0.5, Z: 0.5}}

	for _, bad := range []geom.Vec3{
		{X: math.NaN()},
		{X: 1, Y: math.Inf(1), Z: 1},
	} {
		if _, _, err := n.ExploreToTarget(pose, bad); err == nil {
			t.Fatalf("target %v accepted, want error", bad)
		}
	}
	if _, has := n.Target(); has {
		t.Fatalf("rejected target was installed")
	}
}

func TestTargetMoveInvalidatesPath(t *testing.T) {
	n := New(newFlatWorld(), testTuning())
	pose := Pose{Pos: geom.Vec3{X: 0.5, Z: 0.5}}

	if _, _, err := n.ExploreToTarget(pose, geom.Vec3{X: 5.5, Z: 0.5}); err != nil {
		t.Fatalf("ExploreToTarget: %v", err)
	}
	if len(n.Path()) == 0 {
		t.Fatalf("no path planned on flat ground")
	}

	// Within epsilon: the plan survives.
	if err := n.SetTarget(geom.Vec3{X: 5.7, Z: 0.5}); err != nil {
		t.Fatalf("SetTarget: %v", err)
	}
	if len(n.Path()) == 0 {
		t.Fatalf("near-identical target discarded the path")
	}

	// Beyond epsilon: path gone, cursor reset.
	if err := n.SetTarget(geom.Vec3{X: 0.5, Z: 9.5}); err != nil {
		t.Fatalf("SetTarget: %v", err)
	}
	if len(n.Path()) != 0 || n.Cursor() != 0 {
		t.Fatalf("moved target kept path len=%d cursor=%d", len(n.Path()), n.Cursor())
	}
}

func TestScanCadence(t *testing.T) {
	n := New(newFlatWorld(), testTuning())
	pose := Pose{Pos: geom.Vec3{X: 0.5, Z: 0.5}}
	target := geom.Vec3{X: 9.5, Z: 0.5}

	if _, _, err := n.ExploreToTarget(pose, target); err != nil {
		t.Fatalf("tick 1: %v", err)
	}
	if n.Stats().Scans != 1 || n.Stats().Merges != 1 {
		t.Fatalf("after tick 1: scans=%d merges=%d, want 1/1", n.Stats().Scans, n.Stats().Merges)
	}

	// Same pose, cooldown not expired: no new scan.
	if _, _, err := n.ExploreToTarget(pose, target); err != nil {
		t.Fatalf("tick 2: %v", err)
	}
	if n.Stats().Scans != 1 {
		t.Fatalf("stationary agent rescanned (scans=%d)", n.Stats().Scans)
	}

	// Moving past the delta forces a scan despite the cooldown.
	pose.Pos.X += 1
	if _, _, err := n.ExploreToTarget(pose, target); err != nil {
		t.Fatalf("tick 3: %v", err)
	}
	if n.Stats().Scans != 2 {
		t.Fatalf("moved agent did not rescan (scans=%d)", n.Stats().Scans)
	}

	// So does turning.
	pose.Yaw = 90
	if _, _, err := n.ExploreToTarget(pose, target); err != nil {
		t.Fatalf("tick 4: %v", err)
	}
	if n.Stats().Scans != 3 {
		t.Fatalf("turned agent did not rescan (scans=%d)", n.Stats().Scans)
	}
}

func TestArrivalClearsTarget(t *testing.T) {
	n := New(newFlatWorld(), testTuning())
	pose := Pose{Pos: geom.Vec3{X: 0.5, Z: 0.5}}

	wp, ok, err := n.ExploreToTarget(pose, geom.Vec3{X: 1.0, Z: 0.5})
	if err != nil {
		t.Fatalf("ExploreToTarget: %v", err)
	}
	if ok {
		t.Fatalf("inside goal radius but still got waypoint %v", wp)
	}
	if _, has := n.Target(); has {
		t.Fatalf("arrival did not clear the target")
	}
	if n.Stats().Arrivals != 1 {
		t.Fatalf("arrivals = %d, want 1", n.Stats().Arrivals)
	}
}

func TestWalksFlatWorldToTarget(t *testing.T) {
	world := newFlatWorld()
	n := New(world, testTuning())

	pose := Pose{Pos: geom.Vec3{X: 0.5, Z: 0.5}}
	target := geom.Vec3{X: 11.5, Z: 8.5}

	arrived := false
	for tick := 0; tick < 200; tick++ {
		wp, ok, err := n.ExploreToTarget(pose, target)
		if err != nil {
			t.Fatalf("tick %d: %v", tick, err)
		}
		if !ok {
			if _, has := n.Target(); !has {
				arrived = true
				break
			}
			continue // no safe move this tick, hold position
		}
		if !wp.Finite() {
			t.Fatalf("tick %d: non-finite waypoint %v", tick, wp)
		}
		pose.Pos = wp
	}
	if !arrived {
		t.Fatalf("never arrived; ended at %v (dist %.2f)", pose.Pos, geom.Dist(pose.Pos, target))
	}
	if d := geom.Dist(pose.Pos, target); d > tuning.Default().GoalRadius {
		t.Fatalf("arrival at dist %.2f > goal radius", d)
	}
	if n.Stats().Merges == 0 || n.Stats().Replans == 0 {
		t.Fatalf("loop never merged (%d) or replanned (%d)", n.Stats().Merges, n.Stats().Replans)
	}
}

func TestWalksAroundWall(t *testing.T) {
	world := newFlatWorld()
	// A stone wall across z in [-3,3] at x=4, two blocks tall, with no gap
	// inside the corridor the straight line would take.
	for z := -3; z <= 3; z++ {
		world.set(geom.Vec3i{X: 4, Y: 0, Z: z}, "STONE")
		world.set(geom.Vec3i{X: 4, Y: 1, Z: z}, "STONE")
	}

	n := New(world, testTuning())
	pose := Pose{Pos: geom.Vec3{X: 0.5, Z: 0.5}}
	target := geom.Vec3{X: 8.5, Z: 0.5}

	arrived := false
	for tick := 0; tick < 300; tick++ {
		wp, ok, err := n.ExploreToTarget(pose, target)
		if err != nil {
			t.Fatalf("tick %d: %v", tick, err)
		}
		if !ok {
			if _, has := n.Target(); !has {
				arrived = true
				break
			}
			continue
		}
		cell := wp.Voxel()
		if n.Knowledge().IsObstacle(cell) {
			t.Fatalf("tick %d: waypoint %v is a known obstacle", tick, wp)
		}
		pose.Pos = wp
	}
	if !arrived {
		t.Fatalf("never arrived; ended at %v", pose.Pos)
	}
}

func TestWalksGeneratedTerrain(t *testing.T) {
	world := gridworld.New(blocks.Default(), gridworld.DefaultGen(1337))
	n := New(world, testTuning())

	startY := float64(world.SurfaceY(0, 0))
	pose := Pose{Pos: geom.Vec3{X: 0.5, Y: startY, Z: 0.5}}
	target := geom.Vec3{X: 5.5, Y: float64(world.SurfaceY(5, 5)), Z: 5.5}

	arrived := false
	for tick := 0; tick < 300; tick++ {
		wp, ok, err := n.ExploreToTarget(pose, target)
		if err != nil {
			t.Fatalf("tick %d: %v", tick, err)
		}
		if !ok {
			if _, has := n.Target(); !has {
				arrived = true
				break
			}
			continue
		}
		pose.Pos = wp
	}
	if !arrived {
		t.Fatalf("never arrived; ended at %v (dist %.2f)", pose.Pos, geom.Dist(pose.Pos, target))
	}
}

func TestTraceEventsEmitted(t *testing.T) {
	n := New(newFlatWorld(), testTuning())
	seen := map[string]int{}
	n.OnTrace = func(ev TraceEvent) { seen[ev.Event]++ }

	pose := Pose{Pos: geom.Vec3{X: 0.5, Z: 0.5}}
	if _, _, err := n.ExploreToTarget(pose, geom.Vec3{X: 6.5, Z: 0.5}); err != nil {
		t.Fatalf("ExploreToTarget: %v", err)
	}

	for _, ev := range []string{"target", "scan", "merge", "replan", "tick"} {
		if seen[ev] == 0 {
			t.Fatalf("no %q trace event emitted (saw %v)", ev, seen)
		}
	}
}
