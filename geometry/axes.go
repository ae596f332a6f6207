package geometry

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/mogaika/fbximport/document"
)

// Basis is the document-to-host basis change computed once per import from the
// global settings. The host convention is fixed: right-handed, Y up. The
// conversion is folded into vertex data at import time so nothing downstream
// carries a per-mesh coordinate flag.
type Basis struct {
	mat mgl32.Mat3
	// a negatively oriented basis mirrors geometry, so triangle winding
	// flips with it
	FlipWinding bool
}

// NewBasis builds the basis change. Each source axis index (with sign) is
// routed to the host axis it plays the role of: CoordAxis to X, UpAxis to Y,
// FrontAxis to Z.
func NewBasis(gs document.GlobalSettings) Basis {
	var m mgl32.Mat3
	set := func(hostRow, srcAxis, sign int) {
		if srcAxis < 0 || srcAxis > 2 {
			srcAxis = hostRow
		}
		if sign >= 0 {
			m.Set(hostRow, srcAxis, 1)
		} else {
			m.Set(hostRow, srcAxis, -1)
		}
	}
	set(0, gs.CoordAxis, gs.CoordAxisSign)
	set(1, gs.UpAxis, gs.UpAxisSign)
	set(2, gs.FrontAxis, gs.FrontAxisSign)

	return Basis{mat: m, FlipWinding: m.Det() < 0}
}

// Apply converts a document space vector to host space.
func (b Basis) Apply(v mgl32.Vec3) mgl32.Vec3 {
	return b.mat.Mul3x1(v)
}

// Rotation returns the basis as a quaternion for converting node rotations.
// Only valid for positively oriented bases; with a reflection involved the
// caller keeps rotations unconverted (known degradation, logged once).
func (b Basis) Rotation() mgl32.Quat {
	return mgl32.Mat4ToQuat(b.mat.Mat4())
}
