// Package worldview maintains the client-side copy of the blocks around
// the agent, rebuilt from OBS voxel payloads. It is the BlockSource the
// perception engine scans against when the agent runs over the wire.
package worldview

import (
	"fmt"

	"voxelnav.ai/internal/nav/blocks"
	"voxelnav.ai/internal/nav/geom"
	"voxelnav.ai/internal/nav/perception"
	"voxelnav.ai/internal/protocol"
)

type View struct {
	cat     *blocks.Catalog
	palette []string // raw id -> block id, from WELCOME

	cells map[geom.PackedPos]uint16

	// Previous full cube, kept for DELTA application in the canonical
	// dy/dz/dx scan order.
	cube   []uint16
	center geom.Vec3i
	radius int
}

func New(cat *blocks.Catalog, palette []string) *View {
	return &View{
		cat:     cat,
		palette: palette,
		cells:   make(map[geom.PackedPos]uint16),
	}
}

// Apply folds one voxel payload into the view. DELTA payloads require a
// previous full cube of the same radius.
func (v *View) Apply(obs protocol.VoxelsObs) error {
	center := geom.Vec3i{X: obs.Center[0], Y: obs.Center[1], Z: obs.Center[2]}

	switch obs.Encoding {
	case "RLE":
		cube, err := protocol.DecodeRLE(obs.Data)
		if err != nil {
			return fmt.Errorf("worldview: %w", err)
		}
		if len(cube) != protocol.CubeLen(obs.Radius) {
			return fmt.Errorf("worldview: cube len %d, want %d", len(cube), protocol.CubeLen(obs.Radius))
		}
		v.cube = cube
		v.center = center
		v.radius = obs.Radius

	case "DELTA":
		if v.cube == nil || v.radius != obs.Radius {
			return fmt.Errorf("worldview: delta without matching base cube")
		}
		r := obs.Radius
		dim := 2*r + 1
		for _, op := range obs.Ops {
			dx, dy, dz := op.D[0], op.D[1], op.D[2]
			if dx < -r || dx > r || dy < -r || dy > r || dz < -r || dz > r {
				return fmt.Errorf("worldview: delta op %v outside radius %d", op.D, r)
			}
			v.cube[((dy+r)*dim+(dz+r))*dim+(dx+r)] = op.B
		}
		v.center = center

	default:
		return fmt.Errorf("worldview: unknown encoding %q", obs.Encoding)
	}

	v.foldCube()
	return nil
}

func (v *View) foldCube() {
	r := v.radius
	i := 0
	for dy := -r; dy <= r; dy++ {
		for dz := -r; dz <= r; dz++ {
			for dx := -r; dx <= r; dx++ {
				p := geom.Vec3i{X: v.center.X + dx, Y: v.center.Y + dy, Z: v.center.Z + dz}
				v.cells[geom.Pack(p)] = v.cube[i]
				i++
			}
		}
	}
}

// BlockAt resolves one cell. ok=false means the server never sent this
// position; the caller treats that as unknown.
func (v *View) BlockAt(pos geom.Vec3i) (perception.Block, bool) {
	raw, ok := v.cells[geom.Pack(pos)]
	if !ok {
		return perception.Block{}, false
	}
	id := ""
	if int(raw) < len(v.palette) {
		id = v.palette[raw]
	}
	def, ok := v.cat.ByID(id)
	if !ok {
		// Palette entries outside the local catalog still classify by name.
		def = blocks.Classify(id)
	}
	return perception.Block{Def: def, RawID: raw}, true
}

// Len reports how many cells the view has accumulated.
func (v *View) Len() int { return len(v.cells) }
