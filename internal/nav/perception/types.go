// Package perception turns raw block lookups into a visibility set and a
// durable memory of interesting blocks, via polar candidate sampling and
// relaxed line-of-sight ray marching.
package perception

import (
	"time"

	"voxelnav.ai/internal/nav/blocks"
	"voxelnav.ai/internal/nav/geom"
)

// Block is one resolved block lookup.
type Block struct {
	Def   blocks.Def
	RawID uint16
	Meta  map[string]string
}

// BlockSource is the world connection seam. ok=false means the lookup
// failed or the position is outside loaded data; the engine treats that as
// unknown, never as an error.
type BlockSource interface {
	BlockAt(pos geom.Vec3i) (Block, bool)
}

// VisibleBlock is rebuilt on every scan pass and not persisted.
type VisibleBlock struct {
	Pos   geom.Vec3i
	Def   blocks.Def
	Dist  float64
	RawID uint16
	Meta  map[string]string
}

// MemoryBlock is the durable record of a block the agent has actually seen.
// Position and material never change after first insertion; only LastSeen
// refreshes on re-observation.
type MemoryBlock struct {
	Pos       geom.Vec3i
	Def       blocks.Def
	Dist      float64
	RawID     uint16
	FirstSeen time.Time
	LastSeen  time.Time
}

// Params is the recognized scan configuration surface.
type Params struct {
	ScanRadius        int
	VerticalScanRange int
	LineOfSightStep   float64
	MaxObstructions   int
	MaxBlocksPerScan  int
	BatchSize         int
}

func DefaultParams() Params {
	return Params{
		ScanRadius:        16,
		VerticalScanRange: 4,
		LineOfSightStep:   0.5,
		MaxObstructions:   2,
		MaxBlocksPerScan:  600,
		BatchSize:         64,
	}
}
