package gridworld

import "voxelnav.ai/internal/nav/geom"

func (s *Store) generate(ch *chunk) {
	for z := 0; z < chunkSide; z++ {
		for x := 0; x < chunkSide; x++ {
			wx := ch.cx*chunkSide + x
			wz := ch.cz*chunkSide + z
			ch.columns[x+z*chunkSide] = s.generateColumn(wx, wz)
		}
	}
}

func (s *Store) generateColumn(wx, wz int) column {
	g := s.gen
	idx := s.cat.Index

	col := column{h: g.BaseHeight, surface: idx["GRASS_BLOCK"]}

	// The spawn clearing stays flat and featureless so runs start from
	// navigable ground.
	if withinSpawnClear(wx, wz, g.SpawnClearRadius) {
		return col
	}

	// Plateau terrain: one hash per hill cell, so heights form flat-topped
	// steps the agent has to hop between.
	hx := geom.FloorDiv(wx, g.HillStep)
	hz := geom.FloorDiv(wz, g.HillStep)
	if g.HillMax > 0 {
		col.h += int(hash2(g.Seed, hx, hz) % uint64(g.HillMax+1))
	}

	switch biomeAt(g.Seed+1, wx, wz, g.BiomeRegionSize) {
	case "DESERT":
		col.surface = idx["SAND"]
	case "FOREST":
		if hash2(g.Seed+2, wx, wz)%3 == 0 {
			col.surface = idx["DIRT"]
		}
	}

	// Features in precedence order: fluids carve the column, then trees
	// and fences sit on top of it.
	switch {
	case inCluster(g.Seed+11, wx, wz, g.LavaGrid, 2, g.LavaProbPermille):
		col.feat = featLava
	case inCluster(g.Seed+12, wx, wz, g.PondGrid, 3, g.PondProbPermille):
		col.feat = featWater
	case inCluster(g.Seed+13, wx, wz, g.FenceGrid, 4, g.FenceProbPermille):
		col.feat = featFence
	case inCluster(g.Seed+14, wx, wz, g.TreeGrid, 1, g.TreeProbPermille):
		col.feat = featTree
	}
	return col
}

func withinSpawnClear(x, z, radius int) bool {
	if radius <= 0 {
		return false
	}
	r := int64(radius)
	dx := int64(x)
	dz := int64(z)
	return dx*dx+dz*dz <= r*r
}

func biomeAt(seed int64, x, z, regionSize int) string {
	rx := geom.FloorDiv(x, regionSize)
	rz := geom.FloorDiv(z, regionSize)
	switch hash2(seed, rx, rz) % 3 {
	case 0:
		return "PLAINS"
	case 1:
		return "FOREST"
	default:
		return "DESERT"
	}
}

// inCluster places deterministic blob centers on a sparse grid and tests
// membership against the blobs of the surrounding grid cells.
func inCluster(seed int64, x, z, grid, radius int, probPermille uint64) bool {
	if grid <= 0 || radius <= 0 || probPermille == 0 {
		return false
	}
	gx := geom.FloorDiv(x, grid)
	gz := geom.FloorDiv(z, grid)
	r2 := radius * radius

	for dz := -1; dz <= 1; dz++ {
		for dx := -1; dx <= 1; dx++ {
			cgx := gx + dx
			cgz := gz + dz
			h := hash2(seed, cgx, cgz)
			if h%1000 >= probPermille {
				continue
			}

			ox := int((h >> 10) % uint64(grid))
			oz := int((h >> 20) % uint64(grid))
			cx := cgx*grid + ox
			cz := cgz*grid + oz

			ddx := x - cx
			ddz := z - cz
			if ddx*ddx+ddz*ddz <= r2 {
				return true
			}
		}
	}
	return false
}

func mix64(z uint64) uint64 {
	z += 0x9e3779b97f4a7c15
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}

func hash2(seed int64, x, z int) uint64 {
	ux := uint64(uint32(int32(x)))
	uz := uint64(uint32(int32(z)))
	v := uint64(seed) ^ (ux * 0x9e3779b97f4a7c15) ^ (uz * 0xbf58476d1ce4e5b9)
	return mix64(v)
}
