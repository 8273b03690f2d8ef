package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"voxelnav.ai/internal/nav"
	"voxelnav.ai/internal/nav/blocks"
	"voxelnav.ai/internal/nav/geom"
	"voxelnav.ai/internal/nav/tuning"
	"voxelnav.ai/internal/persistence/journal"
	"voxelnav.ai/internal/persistence/navlog"
	"voxelnav.ai/internal/sim/gridworld"
)

// navsim runs the navigation stack against the deterministic offline
// terrain: same seed, same run. Useful for tuning and regression hunting
// without a server.
func main() {
	var (
		seed       = flag.Int64("seed", 1337, "terrain seed")
		tx         = flag.Float64("tx", 40.5, "target x")
		tz         = flag.Float64("tz", 40.5, "target z")
		maxTicks   = flag.Int("ticks", 2000, "tick budget")
		tuningPath = flag.String("tuning", "", "tuning yaml (optional)")
		logDir     = flag.String("log_dir", "", "trace log directory (optional)")
		dbPath     = flag.String("db", "", "session journal db (optional)")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[navsim] ", log.LstdFlags|log.Lmicroseconds)

	cfg := tuning.Default()
	if *tuningPath != "" {
		var err error
		cfg, err = tuning.Load(*tuningPath)
		if err != nil {
			logger.Fatalf("tuning: %v", err)
		}
	}

	cat := blocks.Default()
	gen := gridworld.DefaultGen(*seed)
	world := gridworld.New(cat, gen)

	navigator := nav.New(world, cfg)

	if *logDir != "" {
		traces := navlog.NewTraceLogger(*logDir)
		defer traces.Close()
		navigator.OnTrace = func(ev nav.TraceEvent) {
			if err := traces.WriteEvent(ev); err != nil {
				logger.Printf("trace: %v", err)
			}
		}
	}

	var db *journal.Journal
	session := ""
	if *dbPath != "" {
		var err error
		db, err = journal.Open(*dbPath)
		if err != nil {
			logger.Fatalf("journal: %v", err)
		}
		defer db.Close()
		session = db.StartSession("navsim", *seed)
		prev := navigator.OnTrace
		navigator.OnTrace = func(ev nav.TraceEvent) {
			if prev != nil {
				prev(ev)
			}
			db.WriteEvent(session, ev)
		}
	}

	startY := float64(world.SurfaceY(0, 0))
	pose := nav.Pose{Pos: geom.Vec3{X: 0.5, Y: startY, Z: 0.5}}
	targetY := float64(world.SurfaceY(int(*tx), int(*tz)))
	target := geom.Vec3{X: *tx, Y: targetY, Z: *tz}

	logger.Printf("seed=%d start=%v target=%v", *seed, pose.Pos, target)

	outcome := "budget_exhausted"
	for tick := 0; tick < *maxTicks; tick++ {
		wp, ok, err := navigator.ExploreToTarget(pose, target)
		if err != nil {
			logger.Fatalf("tick %d: %v", tick, err)
		}
		if !ok {
			if _, has := navigator.Target(); !has {
				outcome = "arrived"
				logger.Printf("arrived at %v on tick %d", pose.Pos, tick)
				break
			}
			continue
		}
		pose.Pos = stepToward(pose.Pos, wp, cfg.StepSize)
	}

	stats := navigator.Stats()
	if db != nil {
		db.EndSession(session, outcome, stats)
	}
	fmt.Printf("outcome=%s ticks=%d scans=%d merges=%d replans=%d dist=%.2f known=%d\n",
		outcome, stats.Ticks, stats.Scans, stats.Merges, stats.Replans,
		geom.Dist(pose.Pos, target), navigator.Knowledge().Len())
	if outcome != "arrived" {
		os.Exit(1)
	}
}

// stepToward is the simulated actuator: move up to step toward the
// waypoint, snapping when close enough.
func stepToward(from, to geom.Vec3, step float64) geom.Vec3 {
	d := to.Sub(from)
	if d.Len() <= step {
		return to
	}
	return from.Add(d.Unit().Scale(step))
}
