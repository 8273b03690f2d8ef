package tuning

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Tuning is the navigation configuration surface. Zero values are filled
// from Default by Load so a partial file only overrides what it names.
type Tuning struct {
	ScanRadius        int     `yaml:"scan_radius"`
	VerticalScanRange int     `yaml:"vertical_scan_range"`
	LineOfSightStep   float64 `yaml:"line_of_sight_step"`
	MaxObstructions   int     `yaml:"max_obstructions_tolerated"`
	MaxBlocksPerScan  int     `yaml:"max_blocks_per_scan"`
	ScanBatchSize     int     `yaml:"scan_batch_size"`

	BlockCacheTTLMs   int `yaml:"block_cache_ttl_ms"`
	BlockCacheMax     int `yaml:"block_cache_max"`
	KnowledgeMaxAgeMs int `yaml:"knowledge_max_age_ms"`

	// Perception merge cadence: no rescan while the cooldown holds unless
	// the agent moved or turned beyond the deltas.
	ScanIntervalMs int     `yaml:"scan_interval_ms"`
	ScanMoveDelta  float64 `yaml:"scan_move_delta"`
	ScanYawDelta   float64 `yaml:"scan_yaw_delta"`

	StepSize      float64 `yaml:"step_size"`
	GoalRadius    float64 `yaml:"goal_radius"`
	MaxJumpHeight int     `yaml:"max_jump_height"`
	MaxFallHeight int     `yaml:"max_fall_height"`

	MaxIterations       int     `yaml:"max_iterations"`
	ReplanIntervalMs    int     `yaml:"replan_interval_ms"`
	ForceReplanDistance float64 `yaml:"force_replan_distance"`
	AvoidanceRadius     float64 `yaml:"avoidance_radius"`

	MaxStuckCount  int     `yaml:"max_stuck_count"`
	StuckWindow    int     `yaml:"stuck_window"`
	StuckThreshold float64 `yaml:"stuck_threshold"`

	HazardFluidImpassable bool  `yaml:"hazard_fluid_impassable"`
	PlannerSeed           int64 `yaml:"planner_seed"`
}

func Default() Tuning {
	return Tuning{
		ScanRadius:        16,
		VerticalScanRange: 4,
		LineOfSightStep:   0.5,
		MaxObstructions:   2,
		MaxBlocksPerScan:  600,
		ScanBatchSize:     64,

		BlockCacheTTLMs:   10_000,
		BlockCacheMax:     4096,
		KnowledgeMaxAgeMs: 60_000,

		ScanIntervalMs: 1000,
		ScanMoveDelta:  0.5,
		ScanYawDelta:   15,

		StepSize:      1.0,
		GoalRadius:    1.2,
		MaxJumpHeight: 1,
		MaxFallHeight: 3,

		MaxIterations:       200,
		ReplanIntervalMs:    1000,
		ForceReplanDistance: 5.0,
		AvoidanceRadius:     3.0,

		MaxStuckCount:  5,
		StuckWindow:    6,
		StuckThreshold: 0.15,

		HazardFluidImpassable: false,
		PlannerSeed:           1,
	}
}

func (t Tuning) BlockCacheTTL() time.Duration   { return time.Duration(t.BlockCacheTTLMs) * time.Millisecond }
func (t Tuning) KnowledgeMaxAge() time.Duration { return time.Duration(t.KnowledgeMaxAgeMs) * time.Millisecond }
func (t Tuning) ReplanInterval() time.Duration  { return time.Duration(t.ReplanIntervalMs) * time.Millisecond }
func (t Tuning) ScanInterval() time.Duration    { return time.Duration(t.ScanIntervalMs) * time.Millisecond }

func Load(path string) (Tuning, error) {
	t := Default()
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("nav tuning: %w", err)
	}
	if err := t.validate(); err != nil {
		return t, fmt.Errorf("nav tuning: %w", err)
	}
	return t, nil
}

func (t Tuning) validate() error {
	if t.ScanRadius <= 0 {
		return fmt.Errorf("scan_radius must be positive, got %d", t.ScanRadius)
	}
	if t.LineOfSightStep <= 0 {
		return fmt.Errorf("line_of_sight_step must be positive, got %v", t.LineOfSightStep)
	}
	if t.MaxIterations <= 0 {
		return fmt.Errorf("max_iterations must be positive, got %d", t.MaxIterations)
	}
	if t.StuckWindow < 2 {
		return fmt.Errorf("stuck_window must be at least 2, got %d", t.StuckWindow)
	}
	return nil
}
