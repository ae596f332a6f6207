// Package geometry converts raw fbx geometry objects (control points, the
// negative-terminated polygon index stream and the attribute layers) into the
// flat triangle mesh representation of the scene package.
package geometry

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/mogaika/fbx"
	"github.com/pkg/errors"

	"github.com/mogaika/fbximport/document"
	"github.com/mogaika/fbximport/scene"
)

// maxInfluences is the per vertex skin weight capacity; the smallest weights
// beyond it are dropped, as hosts conventionally do.
const maxInfluences = 4

// Convert builds MeshData from a Geometry object. The basis change and the
// unit scale factor are folded into the vertex data here: positions leave in
// host space and host units, normals and tangents in host space, UVs with V
// flipped into the host's top-left origin convention.
//
// Mapping/reference mode combinations outside the supported set return
// *scene.UnsupportedMappingError; the caller skips the one mesh and keeps the
// import alive.
func Convert(name string, geom *fbx.Node, clusters []*scene.Cluster, gs document.GlobalSettings) (*scene.MeshData, error) {
	positions := document.ToFloat64Slice(document.Prop(document.Child(geom, "Vertices"), 0))
	if positions == nil {
		return nil, errors.Errorf("Geometry has no vertices")
	}
	rawIndices := document.ToInt32Slice(document.Prop(document.Child(geom, "PolygonVertexIndex"), 0))

	controlPointCount := len(positions) / 3
	for _, idx := range rawIndices {
		if idx < 0 {
			idx = ^idx
		}
		if int(idx) >= controlPointCount {
			return nil, errors.Errorf("Polygon vertex index %v out of range (%v control points)",
				idx, controlPointCount)
		}
	}

	polys := decodePolygons(rawIndices)
	basis := NewBasis(gs)
	unit := float32(gs.UnitScaleFactor)

	mesh := &scene.MeshData{
		Name:    name,
		Indices: polys.triangulate(basis.FlipWinding),
	}

	mesh.Positions = make([]mgl32.Vec3, len(polys.controlPoints))
	for pv, cp := range polys.controlPoints {
		v := mgl32.Vec3{
			float32(positions[cp*3]),
			float32(positions[cp*3+1]),
			float32(positions[cp*3+2]),
		}
		mesh.Positions[pv] = basis.Apply(v).Mul(unit)
	}

	if err := convertNormalLayer(mesh, geom, polys, basis); err != nil {
		return nil, err
	}
	if err := convertUVLayer(mesh, geom, polys); err != nil {
		return nil, err
	}
	if err := convertMaterialLayer(mesh, geom, polys); err != nil {
		return nil, err
	}
	convertSkin(mesh, polys, clusters)

	return mesh, nil
}

func convertNormalLayer(mesh *scene.MeshData, geom *fbx.Node, polys polygonSet, basis Basis) error {
	normals, err := findLayer(geom, "LayerElementNormal", "Normals", "NormalsIndex", 3)
	if err != nil {
		return err
	}
	if normals != nil {
		mesh.Normals = expandVec3(normals, polys, basis)
	}

	tangents, err := findLayer(geom, "LayerElementTangent", "Tangents", "TangentsIndex", 3)
	if err != nil {
		return err
	}
	if tangents != nil {
		mesh.Tangents = expandVec3(tangents, polys, basis)
	}
	return nil
}

func expandVec3(l *layer, polys polygonSet, basis Basis) []mgl32.Vec3 {
	flat := l.expand(polys)
	out := make([]mgl32.Vec3, len(polys.controlPoints))
	for i := range out {
		v := mgl32.Vec3{
			float32(flat[i*3]),
			float32(flat[i*3+1]),
			float32(flat[i*3+2]),
		}
		out[i] = basis.Apply(v)
	}
	return out
}

func convertUVLayer(mesh *scene.MeshData, geom *fbx.Node, polys polygonSet) error {
	uv, err := findLayer(geom, "LayerElementUV", "UV", "UVIndex", 2)
	if err != nil {
		return err
	}
	if uv == nil {
		return nil
	}
	flat := uv.expand(polys)
	mesh.UVs = make([]mgl32.Vec2, len(polys.controlPoints))
	for i := range mesh.UVs {
		mesh.UVs[i] = mgl32.Vec2{float32(flat[i*2]), 1 - float32(flat[i*2+1])}
	}
	return nil
}

// convertMaterialLayer fills the per triangle material slot array. The
// material layer is special: its "Materials" array is the index data itself,
// there is no separate value pool.
func convertMaterialLayer(mesh *scene.MeshData, geom *fbx.Node, polys polygonSet) error {
	node := document.Child(geom, "LayerElementMaterial")
	if node == nil {
		return nil
	}
	mappingRaw := document.PropString(document.Child(node, "MappingInformationType"), 0, "")
	mapping, ok := parseMappingMode(mappingRaw)
	if !ok || mapping == mappingByControlPoint || mapping == mappingByPolygonVertex {
		return &scene.UnsupportedMappingError{
			Layer:     "LayerElementMaterial",
			Mapping:   mappingRaw,
			Reference: document.PropString(document.Child(node, "ReferenceInformationType"), 0, ""),
		}
	}
	slots := document.ToInt32Slice(document.Prop(document.Child(node, "Materials"), 0))
	if len(slots) == 0 {
		return nil
	}

	mesh.TriangleMaterials = make([]int32, 0, len(mesh.Indices)/3)
	for _, p := range polys.polygons {
		// index by the source ordinal: a dropped degenerate polygon still
		// occupies its entry in the per polygon arrays
		slot := slots[0]
		if mapping == mappingByPolygon && p.source < len(slots) {
			slot = slots[p.source]
		}
		for i := 0; i < p.end-p.start-2; i++ {
			mesh.TriangleMaterials = append(mesh.TriangleMaterials, slot)
		}
	}
	return nil
}

// convertSkin accumulates cluster weights per control point, keeps the
// strongest influences and expands them to polygon-vertices.
func convertSkin(mesh *scene.MeshData, polys polygonSet, clusters []*scene.Cluster) {
	if len(clusters) == 0 {
		return
	}

	type influence struct {
		joint  uint16
		weight float32
	}
	controlPoints := 0
	for _, cp := range polys.controlPoints {
		if int(cp)+1 > controlPoints {
			controlPoints = int(cp) + 1
		}
	}
	perCP := make([][]influence, controlPoints)

	for joint, cluster := range clusters {
		mesh.JointModels = append(mesh.JointModels, cluster.Joint)
		for i, cp := range cluster.Indexes {
			if int(cp) >= controlPoints || i >= len(cluster.Weights) {
				continue
			}
			perCP[cp] = append(perCP[cp], influence{
				joint:  uint16(joint),
				weight: float32(cluster.Weights[i]),
			})
		}
	}

	for cp := range perCP {
		inf := perCP[cp]
		// selection by straight insertion: influence counts are tiny
		for i := 1; i < len(inf); i++ {
			for j := i; j > 0 && inf[j].weight > inf[j-1].weight; j-- {
				inf[j], inf[j-1] = inf[j-1], inf[j]
			}
		}
		if len(inf) > maxInfluences {
			perCP[cp] = inf[:maxInfluences]
		}
	}

	mesh.Joints = make([][4]uint16, len(polys.controlPoints))
	mesh.Weights = make([][4]float32, len(polys.controlPoints))
	for pv, cp := range polys.controlPoints {
		var joints [4]uint16
		var weights [4]float32
		total := float32(0)
		for i, inf := range perCP[cp] {
			joints[i] = inf.joint
			weights[i] = inf.weight
			total += inf.weight
		}
		if total > 0 {
			for i := range weights {
				weights[i] /= total
			}
		}
		mesh.Joints[pv] = joints
		mesh.Weights[pv] = weights
	}
}
