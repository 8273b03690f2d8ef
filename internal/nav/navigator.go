// Package nav composes perception, the knowledge map, the planner, the
// sub-target selector and the reactive follower into the per-tick
// navigation loop an agent drives.
package nav

import (
	"fmt"
	"math"
	"time"

	"voxelnav.ai/internal/nav/blocks"
	"voxelnav.ai/internal/nav/geom"
	"voxelnav.ai/internal/nav/knowledge"
	"voxelnav.ai/internal/nav/perception"
	"voxelnav.ai/internal/nav/planner"
	"voxelnav.ai/internal/nav/reactive"
	"voxelnav.ai/internal/nav/subtarget"
	"voxelnav.ai/internal/nav/tuning"
)

// targetEpsilon: a new final target farther than this from the previous
// one invalidates the planned path and the pending sub-target.
const targetEpsilon = 0.5

// Pose is the agent's position and view direction for one tick.
type Pose struct {
	Pos geom.Vec3
	Yaw float64 // degrees
}

// TraceEvent is emitted on significant navigator transitions. The journal
// and trace log consume these; nothing inside the loop depends on them.
type TraceEvent struct {
	At       time.Time
	Event    string // "target", "scan", "merge", "replan", "tick", "arrive"
	State    string
	Pos      geom.Vec3
	Waypoint geom.Vec3
	Target   geom.Vec3
}

type Stats struct {
	Ticks    int
	Scans    int
	Merges   int
	Replans  int
	Arrivals int
}

type Navigator struct {
	eng  *perception.Engine
	know *knowledge.Map
	plan *planner.Planner
	sel  *subtarget.Selector
	fol  *reactive.Follower
	cfg  tuning.Tuning

	target    geom.Vec3
	hasTarget bool

	scan       *perception.Scan
	lastScanAt time.Time
	lastPose   Pose
	scanned    bool

	stats Stats

	// OnTrace, when set, receives one event per transition. Must not block.
	OnTrace func(TraceEvent)

	now func() time.Time
}

func New(src perception.BlockSource, cfg tuning.Tuning) *Navigator {
	policy := blocks.FluidAvoid
	if cfg.HazardFluidImpassable {
		policy = blocks.FluidImpassable
	}

	eng := perception.NewEngine(src, perception.Params{
		ScanRadius:        cfg.ScanRadius,
		VerticalScanRange: cfg.VerticalScanRange,
		LineOfSightStep:   cfg.LineOfSightStep,
		MaxObstructions:   cfg.MaxObstructions,
		MaxBlocksPerScan:  cfg.MaxBlocksPerScan,
		BatchSize:         cfg.ScanBatchSize,
	}, cfg.BlockCacheTTL(), cfg.BlockCacheMax)

	know := knowledge.New(policy, knowledge.Limits{
		MaxJumpHeight: cfg.MaxJumpHeight,
		MaxFallHeight: cfg.MaxFallHeight,
	}, cfg.KnowledgeMaxAge())

	plan := planner.New(know, planner.Config{
		MaxIterations: cfg.MaxIterations,
		StepSize:      cfg.StepSize,
		Seed:          cfg.PlannerSeed,
	})

	n := &Navigator{
		eng:  eng,
		know: know,
		plan: plan,
		sel:  subtarget.New(know, subtarget.DefaultConfig()),
		cfg:  cfg,
		now:  time.Now,
	}

	fcfg := reactive.DefaultConfig()
	fcfg.GoalRadius = cfg.GoalRadius
	fcfg.StepSize = cfg.StepSize
	fcfg.ReplanInterval = cfg.ReplanInterval()
	fcfg.ForceReplanDistance = cfg.ForceReplanDistance
	fcfg.AvoidanceRadius = cfg.AvoidanceRadius
	fcfg.StuckWindow = cfg.StuckWindow
	fcfg.StuckThreshold = cfg.StuckThreshold
	fcfg.RescueThreshold = cfg.MaxStuckCount
	fcfg.FluidImpassable = cfg.HazardFluidImpassable
	fcfg.Seed = cfg.PlannerSeed
	n.fol = reactive.NewFollower(know, fcfg, n.replanPath)

	return n
}

func (n *Navigator) Knowledge() *knowledge.Map      { return n.know }
func (n *Navigator) Perception() *perception.Engine { return n.eng }
func (n *Navigator) State() reactive.State          { return n.fol.State() }
func (n *Navigator) Path() []geom.Vec3              { return n.fol.Path() }
func (n *Navigator) Cursor() int                    { return n.fol.Cursor() }
func (n *Navigator) Stats() Stats                   { return n.stats }

func (n *Navigator) Target() (geom.Vec3, bool) { return n.target, n.hasTarget }

// SetTarget installs the final target. A target that moved more than
// targetEpsilon discards the current path and resets the cursor. The only
// fatal input is a non-finite coordinate.
func (n *Navigator) SetTarget(t geom.Vec3) error {
	if !t.Finite() {
		return fmt.Errorf("nav: non-finite target %v", t)
	}
	if n.hasTarget && geom.Dist(t, n.target) <= targetEpsilon {
		return nil
	}
	n.target = t
	n.hasTarget = true
	n.fol.Invalidate()
	n.trace(TraceEvent{Event: "target", Target: t})
	return nil
}

func (n *Navigator) ClearTarget() {
	n.hasTarget = false
	n.fol.Invalidate()
}

// ExploreToTarget is the one-call tick interface: set (or confirm) the
// final target, run perception, and produce the next waypoint. ok=false
// with a nil error means no safe move exists this tick; the caller should
// hold position and call again next tick.
func (n *Navigator) ExploreToTarget(pose Pose, target geom.Vec3) (geom.Vec3, bool, error) {
	if err := n.SetTarget(target); err != nil {
		return geom.Vec3{}, false, err
	}
	wp, ok := n.Tick(pose)
	return wp, ok, nil
}

// Tick runs one navigation cycle against the already-set target.
func (n *Navigator) Tick(pose Pose) (geom.Vec3, bool) {
	n.stats.Ticks++
	n.perceive(pose)

	if !n.hasTarget {
		return geom.Vec3{}, false
	}
	if geom.Dist(pose.Pos, n.target) <= n.cfg.GoalRadius {
		n.stats.Arrivals++
		n.trace(TraceEvent{Event: "arrive", Pos: pose.Pos, Target: n.target})
		n.ClearTarget()
		return geom.Vec3{}, false
	}

	wp, ok := n.fol.Advance(pose.Pos)
	ev := TraceEvent{Event: "tick", State: n.fol.State().String(), Pos: pose.Pos, Target: n.target}
	if ok {
		ev.Waypoint = wp
	}
	n.trace(ev)
	return wp, ok
}

// perceive advances the in-flight scan by one batch, or starts a new scan
// when the cooldown expired or the agent moved/turned past the deltas.
// Memory merges into the knowledge map only when a scan completes.
func (n *Navigator) perceive(pose Pose) {
	now := n.now()

	if n.scan != nil {
		n.stepScan(pose, now)
		return
	}

	if n.scanned {
		moved := geom.Dist(pose.Pos, n.lastPose.Pos) >= n.cfg.ScanMoveDelta
		turned := yawDelta(pose.Yaw, n.lastPose.Yaw) >= n.cfg.ScanYawDelta
		if now.Sub(n.lastScanAt) < n.cfg.ScanInterval() && !moved && !turned {
			return
		}
	}

	n.scan = n.eng.BeginScan(pose.Pos)
	n.scanned = true
	n.lastScanAt = now
	n.lastPose = pose
	n.stats.Scans++
	n.trace(TraceEvent{Event: "scan", Pos: pose.Pos})
	n.stepScan(pose, now)
}

func (n *Navigator) stepScan(pose Pose, now time.Time) {
	if _, done := n.eng.Step(n.scan); !done {
		return
	}
	n.scan = nil
	n.know.Merge(n.eng.MemoryBlocks())
	n.stats.Merges++
	n.trace(TraceEvent{Event: "merge", Pos: pose.Pos})
}

// replanPath is the follower's ReplanFunc: pick a sub-target, run the
// planner, and fall back to an exploratory prefix when search fails.
func (n *Navigator) replanPath(current geom.Vec3) []geom.Vec3 {
	n.stats.Replans++
	sub := n.sel.Select(current, n.target)
	path := n.plan.Plan(current, sub)
	if path == nil {
		path = n.plan.Exploratory(current, sub)
	}
	n.trace(TraceEvent{Event: "replan", Pos: current, Target: sub})
	return path
}

func (n *Navigator) trace(ev TraceEvent) {
	if n.OnTrace == nil {
		return
	}
	ev.At = n.now()
	if ev.State == "" {
		ev.State = n.fol.State().String()
	}
	n.OnTrace(ev)
}

func yawDelta(a, b float64) float64 {
	d := math.Mod(math.Abs(a-b), 360)
	if d > 180 {
		d = 360 - d
	}
	return d
}
