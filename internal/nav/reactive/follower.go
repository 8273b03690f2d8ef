// Package reactive is the per-tick consumer of planned paths: it advances
// the waypoint cursor, detects blockage and stuck conditions, inserts
// detours, and falls back to escape or exploratory movement when path
// following cannot continue.
package reactive

import (
	"math/rand"
	"time"

	"voxelnav.ai/internal/nav/geom"
	"voxelnav.ai/internal/nav/knowledge"
)

type State int

const (
	StateFollowing State = iota
	StateReplanning
	StateStuckRecovery
	StateExploratory
)

func (s State) String() string {
	switch s {
	case StateFollowing:
		return "FOLLOWING_PATH"
	case StateReplanning:
		return "REPLANNING"
	case StateStuckRecovery:
		return "STUCK_RECOVERY"
	case StateExploratory:
		return "EXPLORATORY_MOVEMENT"
	default:
		return "UNKNOWN"
	}
}

type Config struct {
	GoalRadius          float64
	StepSize            float64
	ReplanInterval      time.Duration
	ForceReplanDistance float64
	AvoidanceRadius     float64
	StuckWindow         int
	StuckThreshold      float64
	RescueThreshold     int // sustained recoveries before transient marks are cleared
	FluidImpassable     bool
	Seed                int64
}

func DefaultConfig() Config {
	return Config{
		GoalRadius:          1.2,
		StepSize:            1.0,
		ReplanInterval:      time.Second,
		ForceReplanDistance: 5.0,
		AvoidanceRadius:     3.0,
		StuckWindow:         6,
		StuckThreshold:      0.15,
		RescueThreshold:     4,
		Seed:                1,
	}
}

// ReplanFunc produces a fresh path for the current position, or nil when
// planning failed. The navigator wires the planner + sub-target selector
// in here; the follower only sequences the state machine.
type ReplanFunc func(current geom.Vec3) []geom.Vec3

type Follower struct {
	know   *knowledge.Map
	cfg    Config
	replan ReplanFunc
	rng    *rand.Rand

	path   []geom.Vec3
	cursor int

	stuck        *stuckDetector
	recoveries   int // consecutive stuck recoveries
	lastReplanAt time.Time
	state        State

	// Extension point for an external "better path found" signal.
	BetterPath func() bool

	now func() time.Time
}

func NewFollower(know *knowledge.Map, cfg Config, replan ReplanFunc) *Follower {
	if cfg.StuckWindow < 2 {
		cfg.StuckWindow = 6
	}
	return &Follower{
		know:   know,
		cfg:    cfg,
		replan: replan,
		rng:    rand.New(rand.NewSource(cfg.Seed)),
		stuck:  newStuckDetector(cfg.StuckWindow, cfg.StuckThreshold),
		now:    time.Now,
	}
}

func (f *Follower) State() State      { return f.state }
func (f *Follower) Path() []geom.Vec3 { return f.path }
func (f *Follower) Cursor() int       { return f.cursor }

// SetPath installs a new planned path and resets the cursor.
func (f *Follower) SetPath(path []geom.Vec3) {
	f.path = path
	f.cursor = 0
	f.state = StateFollowing
}

// Invalidate discards the current path wholesale, e.g. when the final
// target moved.
func (f *Follower) Invalidate() {
	f.path = nil
	f.cursor = 0
	f.stuck.reset()
	f.state = StateFollowing
}

// Advance is the per-tick entry point: it returns the next waypoint for
// the movement actuator, or ok=false when no safe move exists this tick.
func (f *Follower) Advance(current geom.Vec3) (geom.Vec3, bool) {
	// Emergency hazard behavior preempts everything, including the plan.
	if f.cfg.FluidImpassable && f.submerged(current) {
		if wp, ok := f.surface(current); ok {
			return wp, true
		}
	}

	// 1. Stuck check.
	f.stuck.record(current)
	if f.stuck.isStuck() {
		f.state = StateStuckRecovery
		wp, ok := f.recover(current)
		if ok {
			f.stuck.reset()
			f.recoveries = 0
			return wp, true
		}
		f.recoveries++
		if f.recoveries >= f.cfg.RescueThreshold {
			// Sustained failure: drop transient no-go marks so the agent
			// cannot trap itself permanently.
			f.know.ClearTransientMarks()
			f.recoveries = 0
		}
		return f.jitter(current), true
	}

	// 2. Replanning check, rate-limited by the cooldown.
	if f.needsReplan(current) {
		f.state = StateReplanning
		f.lastReplanAt = f.now()
		f.SetPath(f.replan(current))
	}

	// 3. Follow the path.
	if wp, ok := f.follow(current); ok {
		f.state = StateFollowing
		return wp, true
	}

	// Following failed (no path, or no detour candidate): exploratory
	// movement keeps the agent making progress.
	f.state = StateExploratory
	return f.exploratory(current)
}

// needsReplan evaluates the replan triggers under the cooldown.
func (f *Follower) needsReplan(current geom.Vec3) bool {
	if f.now().Sub(f.lastReplanAt) < f.cfg.ReplanInterval {
		return false
	}
	if f.cursor >= len(f.path) {
		return true
	}
	wp := f.path[f.cursor]
	if !f.know.ClearPath(current, wp) {
		return true
	}
	if geom.Dist(current, wp) > f.cfg.ForceReplanDistance {
		return true
	}
	if f.BetterPath != nil && f.BetterPath() {
		return true
	}
	return false
}

// follow advances along the installed path, inserting detours around
// newly known obstructions. ok=false propagates to exploratory movement.
func (f *Follower) follow(current geom.Vec3) (geom.Vec3, bool) {
	if f.cursor >= len(f.path) {
		return geom.Vec3{}, false
	}

	wp := f.path[f.cursor]
	if geom.Dist(current, wp) < f.cfg.GoalRadius {
		// Arrived at this waypoint; check the arrival cell for a dead end
		// before moving the cursor on.
		cell := wp.Voxel()
		if f.deadEnd(cell) {
			f.know.MarkDeadEnd(cell)
			f.path = nil
			f.cursor = 0
			return geom.Vec3{}, false
		}
		f.cursor++
		if f.cursor >= len(f.path) {
			return geom.Vec3{}, false
		}
		wp = f.path[f.cursor]
	}

	if !f.know.ClearPath(current, wp) || !f.know.HeightAccessible(current, wp) {
		det, ok := f.detour(current, wp)
		if !ok {
			return geom.Vec3{}, false
		}
		f.insertDetour(det)
		return det, true
	}
	return wp, true
}

// insertDetour splices a waypoint ahead of the cursor, keeping the rest
// of the plan.
func (f *Follower) insertDetour(wp geom.Vec3) {
	rest := append([]geom.Vec3{wp}, f.path[f.cursor:]...)
	f.path = append(f.path[:f.cursor:f.cursor], rest...)
}

// deadEnd reports an arrival cell with no safe orthogonal neighbor.
func (f *Follower) deadEnd(cell geom.Vec3i) bool {
	for _, d := range [4]geom.Vec3i{{X: 1}, {X: -1}, {Z: 1}, {Z: -1}} {
		if f.know.SafeCell(cell.Add(d)) {
			return false
		}
	}
	return true
}
