package utils_test

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/mogaika/fbximport/utils"
)

func TestQuatToEuler(t *testing.T) {
	if e := utils.QuatToEuler(mgl32.QuatIdent()); e != (mgl32.Vec3{0, 0, 0}) {
		t.Errorf("identity: got %v", e)
	}

	q := mgl32.AnglesToQuat(math.Pi/2, 0, 0, mgl32.XYZ)
	e := utils.QuatToEuler(q)
	if math.Abs(float64(e[0])-math.Pi/2) > 1e-5 || math.Abs(float64(e[1])) > 1e-5 {
		t.Errorf("x rotation: got %v", e)
	}
}

func TestRadiansToDegreeV3(t *testing.T) {
	v := utils.RadiansToDegreeV3(mgl32.Vec3{math.Pi, math.Pi / 2, 0})
	if math.Abs(float64(v[0])-180) > 1e-4 || math.Abs(float64(v[1])-90) > 1e-4 {
		t.Errorf("got %v", v)
	}
}

func TestDumpBytesPreview(t *testing.T) {
	if got := utils.DumpBytesPreview([]byte("ab\x00"), 0); got != `ab\x00` {
		t.Errorf("got %q", got)
	}
	if got := utils.DumpBytesPreview([]byte("abcdef"), 3); got != "abc..." {
		t.Errorf("got %q", got)
	}
}
