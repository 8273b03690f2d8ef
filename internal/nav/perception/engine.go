package perception

import (
	"time"

	"voxelnav.ai/internal/nav/blocks"
	"voxelnav.ai/internal/nav/geom"
)

const eyeHeight = 1.6

// Engine owns the block cache and the durable memory set. It is not safe
// for concurrent use; the navigation core drives it from a single tick
// loop.
type Engine struct {
	src    BlockSource
	params Params
	cache  *blockCache

	memory map[geom.PackedPos]*MemoryBlock

	now func() time.Time
}

func NewEngine(src BlockSource, p Params, cacheTTL time.Duration, cacheMax int) *Engine {
	return &Engine{
		src:    src,
		params: p,
		cache:  newBlockCache(cacheTTL, cacheMax),
		memory: make(map[geom.PackedPos]*MemoryBlock),
		now:    time.Now,
	}
}

// SetScanParameters replaces the recognized scan options. Zero-valued
// fields keep their current setting.
func (e *Engine) SetScanParameters(p Params) {
	if p.ScanRadius > 0 {
		e.params.ScanRadius = p.ScanRadius
	}
	if p.VerticalScanRange > 0 {
		e.params.VerticalScanRange = p.VerticalScanRange
	}
	if p.LineOfSightStep > 0 {
		e.params.LineOfSightStep = p.LineOfSightStep
	}
	if p.MaxObstructions > 0 {
		e.params.MaxObstructions = p.MaxObstructions
	}
	if p.MaxBlocksPerScan > 0 {
		e.params.MaxBlocksPerScan = p.MaxBlocksPerScan
	}
	if p.BatchSize > 0 {
		e.params.BatchSize = p.BatchSize
	}
}

// Scan is the resumable state of one perception pass: candidate cursor plus
// partial results. The owning scheduler calls Step until done, then the
// visible set is merged into memory in one shot so a partial pass is never
// observable.
type Scan struct {
	eye        geom.Vec3
	candidates []geom.Vec3i
	next       int
	visible    []VisibleBlock
	done       bool
}

func (s *Scan) Done() bool { return s.done }

// BeginScan snapshots the candidate set for an agent position. The eye
// offset is applied here; callers pass feet position.
func (e *Engine) BeginScan(agentPos geom.Vec3) *Scan {
	return &Scan{
		eye:        agentPos.Add(geom.Vec3{Y: eyeHeight}),
		candidates: sampleCandidates(agentPos, e.params),
	}
}

// Step processes one batch of candidates and reports whether the pass is
// complete. On the completing call the visible set is merged into the
// durable memory (all or nothing per pass) and returned; earlier calls
// return nil.
func (e *Engine) Step(s *Scan) ([]VisibleBlock, bool) {
	if s.done {
		return s.visible, true
	}
	end := s.next + e.params.BatchSize
	if end > len(s.candidates) {
		end = len(s.candidates)
	}
	now := e.now()
	for _, pos := range s.candidates[s.next:end] {
		b, ok := e.blockAt(pos)
		if !ok {
			continue // failed lookup: unknown, not an error
		}
		if !blocks.Interesting(b.Def) {
			continue
		}
		if !e.lineOfSight(s.eye, pos) {
			continue
		}
		s.visible = append(s.visible, VisibleBlock{
			Pos:   pos,
			Def:   b.Def,
			Dist:  geom.Dist(s.eye, pos.Center()),
			RawID: b.RawID,
			Meta:  b.Meta,
		})
	}
	s.next = end
	if s.next < len(s.candidates) {
		return nil, false
	}
	s.done = true
	e.mergeMemory(s.visible, now)
	return s.visible, true
}

// ScanAll runs a full pass synchronously. Batch yielding only matters to
// callers that interleave scanning with tick work.
func (e *Engine) ScanAll(agentPos geom.Vec3) []VisibleBlock {
	s := e.BeginScan(agentPos)
	for {
		if vis, done := e.Step(s); done {
			return vis
		}
	}
}

// mergeMemory applies insert-once semantics: a known position only has its
// LastSeen refreshed; material, position and first-observation distance
// are immutable.
func (e *Engine) mergeMemory(visible []VisibleBlock, now time.Time) {
	for _, v := range visible {
		k := geom.Pack(v.Pos)
		if m, ok := e.memory[k]; ok {
			m.LastSeen = now
			continue
		}
		e.memory[k] = &MemoryBlock{
			Pos:       v.Pos,
			Def:       v.Def,
			Dist:      v.Dist,
			RawID:     v.RawID,
			FirstSeen: now,
			LastSeen:  now,
		}
	}
}

// MemoryBlocks returns the durable memory set. The slice is rebuilt per
// call; records are copies.
func (e *Engine) MemoryBlocks() []MemoryBlock {
	out := make([]MemoryBlock, 0, len(e.memory))
	for _, m := range e.memory {
		out = append(out, *m)
	}
	return out
}

func (e *Engine) MemorySize() int { return len(e.memory) }

// blockAt resolves a block through the TTL cache.
func (e *Engine) blockAt(pos geom.Vec3i) (Block, bool) {
	now := e.now()
	if b, ok, hit := e.cache.get(pos, now); hit {
		return b, ok
	}
	b, ok := e.src.BlockAt(pos)
	e.cache.put(pos, b, ok, now)
	return b, ok
}
