// Package planner runs bounded grid search over the knowledge map and
// produces simplified waypoint paths.
package planner

import (
	"container/heap"
	"math"
	"math/rand"

	"voxelnav.ai/internal/nav/geom"
	"voxelnav.ai/internal/nav/knowledge"
)

type Config struct {
	MaxIterations int
	GoalTolerance float64 // cells
	StepSize      float64
	Seed          int64
}

func DefaultConfig() Config {
	return Config{MaxIterations: 200, GoalTolerance: 1.5, StepSize: 1.0, Seed: 1}
}

type Planner struct {
	know *knowledge.Map
	cfg  Config
	rng  *rand.Rand
}

func New(know *knowledge.Map, cfg Config) *Planner {
	if cfg.MaxIterations <= 0 {
		cfg.MaxIterations = 200
	}
	if cfg.GoalTolerance <= 0 {
		cfg.GoalTolerance = 1.5
	}
	if cfg.StepSize <= 0 {
		cfg.StepSize = 1.0
	}
	return &Planner{know: know, cfg: cfg, rng: rand.New(rand.NewSource(cfg.Seed))}
}

type node struct {
	cell   geom.Vec3i // feet cell
	g      float64
	f      float64
	parent geom.PackedPos
	hasPar bool
}

type openHeap []*node

func (h openHeap) Len() int            { return len(h) }
func (h openHeap) Less(i, j int) bool  { return h[i].f < h[j].f }
func (h openHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *openHeap) Push(x interface{}) { *h = append(*h, x.(*node)) }
func (h *openHeap) Pop() interface{} {
	old := *h
	n := old[len(old)-1]
	*h = old[:len(old)-1]
	return n
}

var neighborDirs = [8][2]int{
	{1, 0}, {-1, 0}, {0, 1}, {0, -1},
	{1, 1}, {1, -1}, {-1, 1}, {-1, -1},
}

// Plan searches from start to goal over knowledge-resolved ground cells.
// Returns nil when the goal is not reached within the iteration cap —
// never a partial path. Successful paths are simplified before return.
func (p *Planner) Plan(start, goal geom.Vec3) []geom.Vec3 {
	startCell := p.feetCell(start)
	goalCell := goal.Voxel()

	best := make(map[geom.PackedPos]*node)
	open := &openHeap{}
	heap.Init(open)

	s := &node{cell: startCell, g: 0, f: heurXZ(startCell, goalCell)}
	best[geom.Pack(startCell)] = s
	heap.Push(open, s)

	dirs := make([][2]int, len(neighborDirs))
	var goalNode *node

	for iter := 0; iter < p.cfg.MaxIterations && open.Len() > 0; iter++ {
		cur := heap.Pop(open).(*node)

		if heurXZ(cur.cell, goalCell) <= p.cfg.GoalTolerance {
			goalNode = cur
			break
		}

		// Randomized neighbor order breaks directional bias in ties.
		copy(dirs, neighborDirs[:])
		p.rng.Shuffle(len(dirs), func(i, j int) { dirs[i], dirs[j] = dirs[j], dirs[i] })

		for _, d := range dirs {
			next, ok := p.expand(cur.cell, d[0], d[1])
			if !ok {
				continue
			}
			stepCost := 1.0
			if d[0] != 0 && d[1] != 0 {
				stepCost = math.Sqrt2
			}
			g := cur.g + stepCost
			k := geom.Pack(next)
			if prev, seen := best[k]; seen && prev.g <= g {
				continue
			}
			n := &node{cell: next, g: g, f: g + heurXZ(next, goalCell), parent: geom.Pack(cur.cell), hasPar: true}
			best[k] = n
			heap.Push(open, n)
		}
	}

	if goalNode == nil {
		return nil
	}

	raw := p.reconstruct(goalNode, best)
	return p.Simplify(raw)
}

// expand resolves the neighbor column's ground level and applies the
// safety check. A fully unknown column keeps the current level — the
// search must be able to probe unexplored terrain.
func (p *Planner) expand(from geom.Vec3i, dx, dz int) (geom.Vec3i, bool) {
	nx, nz := from.X+dx, from.Z+dz
	ny := from.Y
	if gy, ok := p.know.GroundY(nx, nz, from.Y-1); ok {
		ny = gy + 1
	}
	cell := geom.Vec3i{X: nx, Y: ny, Z: nz}
	if geom.AbsInt(cell.Y-from.Y) > 1 {
		return geom.Vec3i{}, false
	}
	if !p.know.SafeCell(cell) {
		return geom.Vec3i{}, false
	}
	return cell, true
}

func (p *Planner) reconstruct(goal *node, best map[geom.PackedPos]*node) []geom.Vec3 {
	var cells []geom.Vec3i
	for n := goal; ; {
		cells = append(cells, n.cell)
		if !n.hasPar {
			break
		}
		n = best[n.parent]
	}
	// Parent links run goal-to-start; reverse in place.
	for i, j := 0, len(cells)-1; i < j; i, j = i+1, j-1 {
		cells[i], cells[j] = cells[j], cells[i]
	}
	out := make([]geom.Vec3, len(cells))
	for i, c := range cells {
		out[i] = waypoint(c)
	}
	return out
}

// Simplify drops intermediate waypoints while the straight line between
// the kept endpoints stays knowledge-clear.
func (p *Planner) Simplify(path []geom.Vec3) []geom.Vec3 {
	if len(path) <= 2 {
		return path
	}
	out := []geom.Vec3{path[0]}
	i := 0
	for i < len(path)-1 {
		j := i + 1
		for k := len(path) - 1; k > j; k-- {
			if p.know.ClearPath(path[i], path[k]) {
				j = k
				break
			}
		}
		out = append(out, path[j])
		i = j
	}
	return out
}

func (p *Planner) feetCell(pos geom.Vec3) geom.Vec3i {
	v := pos.Voxel()
	if gy, ok := p.know.GroundY(v.X, v.Z, v.Y-1); ok {
		v.Y = gy + 1
	}
	return v
}

// waypoint is the world-space center of a feet cell.
func waypoint(c geom.Vec3i) geom.Vec3 {
	return geom.Vec3{X: float64(c.X) + 0.5, Y: float64(c.Y), Z: float64(c.Z) + 0.5}
}

func heurXZ(a, b geom.Vec3i) float64 {
	dx := float64(a.X - b.X)
	dz := float64(a.Z - b.Z)
	return math.Sqrt(dx*dx + dz*dz)
}
