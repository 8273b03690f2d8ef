// Package gridworld is a deterministic, seed-generated voxel terrain used
// to exercise the navigation stack offline. Columns are generated lazily
// per 16x16 chunk; the same seed always yields the same world.
package gridworld

import (
	"voxelnav.ai/internal/nav/blocks"
	"voxelnav.ai/internal/nav/geom"
	"voxelnav.ai/internal/nav/perception"
)

const chunkSide = 16

type chunkKey struct {
	CX int
	CZ int
}

const (
	featNone = iota
	featTree
	featWater
	featLava
	featFence
)

// column is one resolved (x,z) terrain column: top solid level, surface
// material and an optional feature on top of it.
type column struct {
	h       int // y of the top solid block
	surface uint16
	feat    uint8
}

type chunk struct {
	cx, cz  int
	columns []column // x fastest, then z
}

func (c *chunk) at(lx, lz int) column { return c.columns[lx+lz*chunkSide] }

type Gen struct {
	Seed       int64
	BoundaryR  int // blocks; 0 means unbounded
	BaseHeight int // top solid y of flat ground
	HillStep   int // plateau noise cell size
	HillMax    int // max plateau rise above base

	SpawnClearRadius int

	BiomeRegionSize int

	TreeGrid         int
	TreeProbPermille uint64

	PondGrid         int
	PondProbPermille uint64

	LavaGrid         int
	LavaProbPermille uint64

	FenceGrid         int
	FenceProbPermille uint64
}

func DefaultGen(seed int64) Gen {
	return Gen{
		Seed:              seed,
		BoundaryR:         512,
		BaseHeight:        63,
		HillStep:          12,
		HillMax:           2,
		SpawnClearRadius:  8,
		BiomeRegionSize:   96,
		TreeGrid:          8,
		TreeProbPermille:  220,
		PondGrid:          48,
		PondProbPermille:  160,
		LavaGrid:          128,
		LavaProbPermille:  60,
		FenceGrid:         64,
		FenceProbPermille: 90,
	}
}

type Store struct {
	cat *blocks.Catalog
	gen Gen

	chunks    map[chunkKey]*chunk
	overrides map[geom.PackedPos]uint16
}

func New(cat *blocks.Catalog, gen Gen) *Store {
	if gen.HillStep <= 0 {
		gen.HillStep = 12
	}
	if gen.BiomeRegionSize <= 0 {
		gen.BiomeRegionSize = 96
	}
	return &Store{
		cat:       cat,
		gen:       gen,
		chunks:    map[chunkKey]*chunk{},
		overrides: map[geom.PackedPos]uint16{},
	}
}

// BlockAt implements perception.BlockSource. Positions beyond the world
// boundary are unknown, not air.
func (s *Store) BlockAt(pos geom.Vec3i) (perception.Block, bool) {
	if !s.inBounds(pos) {
		return perception.Block{}, false
	}
	if raw, ok := s.overrides[geom.Pack(pos)]; ok {
		return s.block(raw), true
	}
	col := s.columnAt(pos.X, pos.Z)
	return s.block(s.rawAt(col, pos.Y)), true
}

// SetBlock overrides one cell; scenario setup and tests use this to carve
// obstacles into generated terrain.
func (s *Store) SetBlock(pos geom.Vec3i, id string) {
	s.overrides[geom.Pack(pos)] = s.cat.Index[id]
}

// SurfaceY reports the feet level on top of the column: the y an agent
// standing at (x,z) occupies.
func (s *Store) SurfaceY(x, z int) int {
	return s.columnAt(x, z).h + 1
}

func (s *Store) inBounds(pos geom.Vec3i) bool {
	if s.gen.BoundaryR > 0 {
		if pos.X < -s.gen.BoundaryR || pos.X > s.gen.BoundaryR || pos.Z < -s.gen.BoundaryR || pos.Z > s.gen.BoundaryR {
			return false
		}
	}
	return true
}

func (s *Store) block(raw uint16) perception.Block {
	def, _ := s.cat.ByRawID(raw)
	return perception.Block{Def: def, RawID: raw}
}

// rawAt composes the column into a block id for one y level.
func (s *Store) rawAt(col column, y int) uint16 {
	idx := s.cat.Index
	switch {
	case col.feat == featWater || col.feat == featLava:
		fluid := idx["WATER"]
		if col.feat == featLava {
			fluid = idx["LAVA"]
		}
		switch {
		case y <= col.h-2:
			return idx["STONE"]
		case y <= col.h:
			return fluid
		}
	case y < col.h-2:
		return idx["STONE"]
	case y < col.h:
		return idx["DIRT"]
	case y == col.h:
		return col.surface
	case col.feat == featTree:
		switch {
		case y <= col.h+3:
			return idx["LOG"]
		case y == col.h+4:
			return idx["LEAVES"]
		}
	case col.feat == featFence && y == col.h+1:
		return idx["FENCE"]
	}
	return idx["AIR"]
}

func (s *Store) columnAt(x, z int) column {
	cx := geom.FloorDiv(x, chunkSide)
	cz := geom.FloorDiv(z, chunkSide)
	k := chunkKey{CX: cx, CZ: cz}
	ch, ok := s.chunks[k]
	if !ok {
		ch = &chunk{cx: cx, cz: cz, columns: make([]column, chunkSide*chunkSide)}
		s.generate(ch)
		s.chunks[k] = ch
	}
	return ch.at(geom.Mod(x, chunkSide), geom.Mod(z, chunkSide))
}
