package geom

// PackedPos encodes a voxel position into a single map key.
// 26 bits for X and Z, 12 bits for Y, biased to keep negatives packable.
// The durable spatial maps (knowledge, frontier, obstacle/safe sets) key on
// this instead of Vec3i so hot lookups hash a single uint64.
type PackedPos uint64

const (
	packBiasXZ = 1 << 25
	packBiasY  = 1 << 11
	packMaskXZ = 1<<26 - 1
	packMaskY  = 1<<12 - 1
)

func Pack(v Vec3i) PackedPos {
	x := uint64(v.X+packBiasXZ) & packMaskXZ
	y := uint64(v.Y+packBiasY) & packMaskY
	z := uint64(v.Z+packBiasXZ) & packMaskXZ
	return PackedPos(x<<38 | y<<26 | z)
}

func (p PackedPos) Unpack() Vec3i {
	return Vec3i{
		X: int(uint64(p)>>38&packMaskXZ) - packBiasXZ,
		Y: int(uint64(p)>>26&packMaskY) - packBiasY,
		Z: int(uint64(p)&packMaskXZ) - packBiasXZ,
	}
}
