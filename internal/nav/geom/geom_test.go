package geom

import (
	"math"
	"testing"
)

func TestPackRoundTrip(t *testing.T) {
	cases := []Vec3i{
		{},
		{X: 1, Y: 2, Z: 3},
		{X: -1, Y: -2, Z: -3},
		{X: 1 << 20, Y: 255, Z: -(1 << 20)},
		{X: -packBiasXZ, Y: -packBiasY, Z: packBiasXZ - 1},
	}
	for _, c := range cases {
		if got := Pack(c).Unpack(); got != c {
			t.Fatalf("round trip %+v -> %+v", c, got)
		}
	}
}

func TestPackDistinct(t *testing.T) {
	// Neighboring voxels must never collide.
	seen := map[PackedPos]Vec3i{}
	for x := -2; x <= 2; x++ {
		for y := -2; y <= 2; y++ {
			for z := -2; z <= 2; z++ {
				v := Vec3i{X: x, Y: y, Z: z}
				k := Pack(v)
				if prev, ok := seen[k]; ok {
					t.Fatalf("collision %+v vs %+v", prev, v)
				}
				seen[k] = v
			}
		}
	}
}

func TestVoxelFloors(t *testing.T) {
	v := Vec3{X: -0.5, Y: 1.9, Z: 0.0}.Voxel()
	if v != (Vec3i{X: -1, Y: 1, Z: 0}) {
		t.Fatalf("voxel=%+v", v)
	}
}

func TestUnitZeroSafe(t *testing.T) {
	if u := (Vec3{}).Unit(); u != (Vec3{}) {
		t.Fatalf("unit of zero = %+v", u)
	}
	u := Vec3{X: 3, Y: 0, Z: 4}.Unit()
	if math.Abs(u.Len()-1) > 1e-12 {
		t.Fatalf("len=%v", u.Len())
	}
}

func TestFinite(t *testing.T) {
	if (Vec3{X: math.NaN()}).Finite() {
		t.Fatal("NaN reported finite")
	}
	if (Vec3{Y: math.Inf(1)}).Finite() {
		t.Fatal("Inf reported finite")
	}
	if !(Vec3{X: 1, Y: 2, Z: 3}).Finite() {
		t.Fatal("finite vec rejected")
	}
}
