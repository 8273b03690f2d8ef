// Package knowledge maintains the agent's expiring, confidence-weighted
// model of perceived voxels: the knowledge map, its obstacle/safe
// partitions, and the explored frontier.
package knowledge

import (
	"time"

	"voxelnav.ai/internal/nav/blocks"
	"voxelnav.ai/internal/nav/geom"
	"voxelnav.ai/internal/nav/perception"
)

// Entry is the per-voxel knowledge record.
type Entry struct {
	Rec        perception.MemoryBlock
	Confidence float64 // [0,1], derived from observation distance
	Safe       bool
	Passable   bool
	FirstSeen  time.Time
	LastSeen   time.Time
}

// Limits are the vertical traversal bounds used by ground resolution and
// height accessibility.
type Limits struct {
	MaxJumpHeight int
	MaxFallHeight int
}

// Map partitions known voxels into obstacle / safe / unknown. Obstacle and
// safe sets are disjoint by construction; membership changes atomically
// with the owning entry. Not safe for concurrent use.
type Map struct {
	policy blocks.HazardPolicy
	limits Limits
	maxAge time.Duration

	entries   map[geom.PackedPos]*Entry
	obstacles map[geom.PackedPos]struct{}
	safe      map[geom.PackedPos]struct{}
	frontier  map[geom.PackedPos]struct{}

	// Transient no-go marks (dead ends). Cleared wholesale during rescue.
	noGo map[geom.PackedPos]struct{}

	now func() time.Time
}

func New(policy blocks.HazardPolicy, limits Limits, maxAge time.Duration) *Map {
	return &Map{
		policy:    policy,
		limits:    limits,
		maxAge:    maxAge,
		entries:   make(map[geom.PackedPos]*Entry),
		obstacles: make(map[geom.PackedPos]struct{}),
		safe:      make(map[geom.PackedPos]struct{}),
		frontier:  make(map[geom.PackedPos]struct{}),
		noGo:      make(map[geom.PackedPos]struct{}),
		now:       time.Now,
	}
}

// Merge folds the perception memory into the map. Stale entries are purged
// first, and incoming records past maxAge are dropped rather than merged:
// the perception memory is insert-once and keeps records forever, so
// without the age gate every merge would resurrect what purge just forgot.
func (m *Map) Merge(mem []perception.MemoryBlock) {
	now := m.now()
	m.purge(now)

	for _, rec := range mem {
		if now.Sub(rec.LastSeen) > m.maxAge {
			continue
		}
		k := geom.Pack(rec.Pos)
		cls := blocks.Safety(rec.Def, m.policy)
		conf := confidence(rec.Dist, cls)

		e, ok := m.entries[k]
		if !ok {
			e = &Entry{FirstSeen: rec.FirstSeen}
			m.entries[k] = e
		}
		e.Rec = rec
		e.Confidence = conf
		e.Safe = cls == blocks.ClassSafe
		e.Passable = cls == blocks.ClassPassable || cls == blocks.ClassSafe
		e.LastSeen = rec.LastSeen

		m.reindex(rec.Pos, cls)
		m.frontier[k] = struct{}{}
	}
}

// reindex updates the derived set memberships for one entry, including the
// fence headroom rule (the voxel above a fence is also an obstacle).
func (m *Map) reindex(pos geom.Vec3i, cls blocks.SafetyClass) {
	k := geom.Pack(pos)
	delete(m.obstacles, k)
	delete(m.safe, k)
	switch cls {
	case blocks.ClassSafe:
		m.safe[k] = struct{}{}
	case blocks.ClassObstacle, blocks.ClassHazard:
		m.obstacles[k] = struct{}{}
	}
	if m.entries[k] != nil && m.entries[k].Rec.Def.Fence {
		m.obstacles[geom.Pack(pos.Add(geom.Vec3i{Y: 1}))] = struct{}{}
	}
	// Preserve a headroom mark owned by a fence in the cell below.
	if be, ok := m.entries[geom.Pack(pos.Add(geom.Vec3i{Y: -1}))]; ok && be.Rec.Def.Fence {
		m.obstacles[k] = struct{}{}
		delete(m.safe, k)
	}
}

// purge drops entries older than maxAge, atomically with their set
// memberships.
func (m *Map) purge(now time.Time) {
	for k, e := range m.entries {
		if now.Sub(e.LastSeen) <= m.maxAge {
			continue
		}
		pos := e.Rec.Pos
		fence := e.Rec.Def.Fence
		delete(m.entries, k)
		delete(m.obstacles, k)
		delete(m.safe, k)
		delete(m.frontier, k)
		delete(m.noGo, k)
		if fence {
			aboveKey := geom.Pack(pos.Add(geom.Vec3i{Y: 1}))
			// Only clear the headroom mark if no live entry owns it.
			if ae, ok := m.entries[aboveKey]; !ok || blocks.Safety(ae.Rec.Def, m.policy) != blocks.ClassObstacle {
				delete(m.obstacles, aboveKey)
			}
		}
	}
}

// confidence maps observation distance to [0,1]; materials the safety
// table does not recognize carry a middle confidence.
func confidence(dist float64, cls blocks.SafetyClass) float64 {
	c := 1 - dist/32
	if c < 0.2 {
		c = 0.2
	}
	if c > 1 {
		c = 1
	}
	if cls == blocks.ClassUnknown {
		c *= 0.5
	}
	return c
}

func (m *Map) Len() int { return len(m.entries) }

func (m *Map) Entry(pos geom.Vec3i) (Entry, bool) {
	e, ok := m.entries[geom.Pack(pos)]
	if !ok {
		return Entry{}, false
	}
	return *e, true
}

func (m *Map) IsObstacle(pos geom.Vec3i) bool {
	_, ok := m.obstacles[geom.Pack(pos)]
	return ok
}

func (m *Map) IsSafe(pos geom.Vec3i) bool {
	_, ok := m.safe[geom.Pack(pos)]
	return ok
}

func (m *Map) IsKnown(pos geom.Vec3i) bool {
	_, ok := m.entries[geom.Pack(pos)]
	return ok
}

// MarkDeadEnd records a transient no-go cell; SafeCell rejects it until
// ClearTransientMarks.
func (m *Map) MarkDeadEnd(pos geom.Vec3i) { m.noGo[geom.Pack(pos)] = struct{}{} }

func (m *Map) IsDeadEnd(pos geom.Vec3i) bool {
	_, ok := m.noGo[geom.Pack(pos)]
	return ok
}

func (m *Map) ClearTransientMarks() { m.noGo = make(map[geom.PackedPos]struct{}) }

// Frontier returns every position currently in the explored frontier.
func (m *Map) Frontier() []geom.Vec3i {
	out := make([]geom.Vec3i, 0, len(m.frontier))
	for k := range m.frontier {
		out = append(out, k.Unpack())
	}
	return out
}

// SafeCells returns every position currently classified safe.
func (m *Map) SafeCells() []geom.Vec3i {
	out := make([]geom.Vec3i, 0, len(m.safe))
	for k := range m.safe {
		out = append(out, k.Unpack())
	}
	return out
}
