package geometry_test

import (
	"reflect"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/mogaika/fbx"
	"github.com/mogaika/fbx/builders/bfbx73"

	"github.com/mogaika/fbximport/document"
	"github.com/mogaika/fbximport/geometry"
	"github.com/mogaika/fbximport/scene"
)

func defaultSettings() document.GlobalSettings {
	return document.GlobalSettings{
		UpAxis: 1, UpAxisSign: 1,
		FrontAxis: 2, FrontAxisSign: 1,
		CoordAxis: 0, CoordAxisSign: 1,
		UnitScaleFactor: 1,
	}
}

func quadGeometry(extra ...*fbx.Node) *fbx.Node {
	return bfbx73.Geometry(100, "quad\x00\x01Geometry", "Mesh").AddNodes(
		bfbx73.Vertices([]float64{
			0, 0, 0,
			1, 0, 0,
			1, 1, 0,
			0, 1, 0,
		}),
		bfbx73.PolygonVertexIndex([]int32{0, 1, 2, -4}),
	).AddNodes(extra...)
}

func TestConvertQuad(t *testing.T) {
	mesh, err := geometry.Convert("quad", quadGeometry(), nil, defaultSettings())
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	if mesh.Name != "quad" {
		t.Errorf("name: got %q", mesh.Name)
	}
	if len(mesh.Positions) != 4 {
		t.Errorf("positions: got %v, want 4", len(mesh.Positions))
	}
	if got := mesh.TriangleCount(); got != 2 {
		t.Errorf("triangles: got %v, want 2", got)
	}
	want := []uint32{0, 1, 2, 0, 2, 3}
	if !reflect.DeepEqual(mesh.Indices, want) {
		t.Errorf("indices: got %v, want %v", mesh.Indices, want)
	}
	if mesh.Positions[2] != (mgl32.Vec3{1, 1, 0}) {
		t.Errorf("position 2: got %v", mesh.Positions[2])
	}
}

func TestConvertPolygonMix(t *testing.T) {
	// quad, triangle and a degenerate two vertex polygon
	geom := bfbx73.Geometry(100, "\x00\x01Geometry", "Mesh").AddNodes(
		bfbx73.Vertices([]float64{
			0, 0, 0,
			1, 0, 0,
			1, 1, 0,
			0, 1, 0,
			2, 0, 0,
		}),
		bfbx73.PolygonVertexIndex([]int32{0, 1, 2, -4, 1, 4, -3, 0, -2}),
	)
	mesh, err := geometry.Convert("", geom, nil, defaultSettings())
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	if got := mesh.TriangleCount(); got != 3 {
		t.Errorf("triangles: got %v, want 3", got)
	}
}

func TestConvertUnitScale(t *testing.T) {
	gs := defaultSettings()
	gs.UnitScaleFactor = 2.5
	mesh, err := geometry.Convert("", quadGeometry(), nil, gs)
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	if mesh.Positions[1] != (mgl32.Vec3{2.5, 0, 0}) {
		t.Errorf("scaled position: got %v", mesh.Positions[1])
	}
}

func TestConvertAxisChange(t *testing.T) {
	// source Z plays host up: an axis swap that mirrors, so winding flips
	gs := defaultSettings()
	gs.UpAxis = 2
	gs.FrontAxis = 1

	mesh, err := geometry.Convert("", quadGeometry(), nil, gs)
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	if mesh.Positions[2] != (mgl32.Vec3{1, 0, 1}) {
		t.Errorf("swizzled position: got %v", mesh.Positions[2])
	}
	want := []uint32{0, 2, 1, 0, 3, 2}
	if !reflect.DeepEqual(mesh.Indices, want) {
		t.Errorf("flipped indices: got %v, want %v", mesh.Indices, want)
	}
}

func TestConvertNormalsByControlPoint(t *testing.T) {
	geom := quadGeometry(
		bfbx73.LayerElementNormal(0).AddNodes(
			bfbx73.MappingInformationType("ByVertice"),
			bfbx73.ReferenceInformationType("Direct"),
			bfbx73.Normals([]float64{
				0, 0, 1,
				0, 0, 1,
				0, 1, 0,
				0, 0, 1,
			}),
		),
	)
	mesh, err := geometry.Convert("", geom, nil, defaultSettings())
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	if len(mesh.Normals) != len(mesh.Positions) {
		t.Fatalf("normals: got %v, want %v", len(mesh.Normals), len(mesh.Positions))
	}
	// polygon-vertex 2 references control point 2
	if mesh.Normals[2] != (mgl32.Vec3{0, 1, 0}) {
		t.Errorf("normal 2: got %v", mesh.Normals[2])
	}
}

func TestConvertUVIndexToDirect(t *testing.T) {
	geom := quadGeometry(
		bfbx73.LayerElementUV(0).AddNodes(
			bfbx73.MappingInformationType("ByPolygonVertex"),
			bfbx73.ReferenceInformationType("IndexToDirect"),
			bfbx73.UV([]float64{
				0, 0,
				1, 0.25,
			}),
			bfbx73.UVIndex([]int32{0, 1, 1, 0}),
		),
	)
	mesh, err := geometry.Convert("", geom, nil, defaultSettings())
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	// V flips into a top-left origin
	if mesh.UVs[1] != (mgl32.Vec2{1, 0.75}) {
		t.Errorf("uv 1: got %v", mesh.UVs[1])
	}
	if mesh.UVs[3] != (mgl32.Vec2{0, 1}) {
		t.Errorf("uv 3: got %v", mesh.UVs[3])
	}
}

func TestConvertMaterialsByPolygon(t *testing.T) {
	geom := bfbx73.Geometry(100, "\x00\x01Geometry", "Mesh").AddNodes(
		bfbx73.Vertices([]float64{
			0, 0, 0,
			1, 0, 0,
			1, 1, 0,
			0, 1, 0,
			2, 0, 0,
		}),
		bfbx73.PolygonVertexIndex([]int32{0, 1, 2, -4, 1, 4, -3}),
		bfbx73.LayerElementMaterial(0).AddNodes(
			bfbx73.MappingInformationType("ByPolygon"),
			bfbx73.ReferenceInformationType("IndexToDirect"),
			bfbx73.Materials([]int32{1, 0}),
		),
	)
	mesh, err := geometry.Convert("", geom, nil, defaultSettings())
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	if !reflect.DeepEqual(mesh.TriangleMaterials, []int32{1, 1, 0}) {
		t.Errorf("triangle materials: got %v", mesh.TriangleMaterials)
	}
}

func TestConvertMaterialsAfterDegeneratePolygon(t *testing.T) {
	// the dropped two vertex polygon still owns its Materials entry;
	// layers keep indexing by the source polygon ordinal
	geom := bfbx73.Geometry(100, "\x00\x01Geometry", "Mesh").AddNodes(
		bfbx73.Vertices([]float64{
			0, 0, 0,
			1, 0, 0,
			1, 1, 0,
			0, 1, 0,
			2, 0, 0,
		}),
		bfbx73.PolygonVertexIndex([]int32{0, 1, 2, -4, 0, -2, 1, 4, -3}),
		bfbx73.LayerElementMaterial(0).AddNodes(
			bfbx73.MappingInformationType("ByPolygon"),
			bfbx73.ReferenceInformationType("IndexToDirect"),
			bfbx73.Materials([]int32{0, 1, 2}),
		),
	)
	mesh, err := geometry.Convert("", geom, nil, defaultSettings())
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	if got := mesh.TriangleCount(); got != 3 {
		t.Fatalf("triangles: got %v, want 3", got)
	}
	if !reflect.DeepEqual(mesh.TriangleMaterials, []int32{0, 0, 2}) {
		t.Errorf("triangle materials: got %v", mesh.TriangleMaterials)
	}
}

func TestConvertMaterialsAllSame(t *testing.T) {
	geom := quadGeometry(
		bfbx73.LayerElementMaterial(0).AddNodes(
			bfbx73.MappingInformationType("AllSame"),
			bfbx73.ReferenceInformationType("IndexToDirect"),
			bfbx73.Materials([]int32{0}),
		),
	)
	mesh, err := geometry.Convert("", geom, nil, defaultSettings())
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	if !reflect.DeepEqual(mesh.TriangleMaterials, []int32{0, 0}) {
		t.Errorf("triangle materials: got %v", mesh.TriangleMaterials)
	}
}

func TestConvertUnsupportedMaterialMapping(t *testing.T) {
	geom := quadGeometry(
		bfbx73.LayerElementMaterial(0).AddNodes(
			bfbx73.MappingInformationType("ByPolygonVertex"),
			bfbx73.ReferenceInformationType("IndexToDirect"),
			bfbx73.Materials([]int32{0, 0, 0, 0}),
		),
	)
	_, err := geometry.Convert("", geom, nil, defaultSettings())
	if _, ok := err.(*scene.UnsupportedMappingError); !ok {
		t.Fatalf("expected UnsupportedMappingError, got %v", err)
	}
}

func TestConvertUnknownMapping(t *testing.T) {
	geom := quadGeometry(
		bfbx73.LayerElementNormal(0).AddNodes(
			bfbx73.MappingInformationType("ByBanana"),
			bfbx73.ReferenceInformationType("Direct"),
			bfbx73.Normals([]float64{0, 0, 1}),
		),
	)
	_, err := geometry.Convert("", geom, nil, defaultSettings())
	if _, ok := err.(*scene.UnsupportedMappingError); !ok {
		t.Fatalf("expected UnsupportedMappingError, got %v", err)
	}
}

func TestConvertIndexOutOfRange(t *testing.T) {
	geom := bfbx73.Geometry(100, "\x00\x01Geometry", "Mesh").AddNodes(
		bfbx73.Vertices([]float64{0, 0, 0}),
		bfbx73.PolygonVertexIndex([]int32{0, 1, -3}),
	)
	_, err := geometry.Convert("", geom, nil, defaultSettings())
	if err == nil {
		t.Fatalf("expected error for out of range index")
	}
	if _, ok := err.(*scene.UnsupportedMappingError); ok {
		t.Fatalf("out of range index is not a mapping problem")
	}
}

func TestConvertSkin(t *testing.T) {
	clusters := []*scene.Cluster{
		{Joint: 500, Indexes: []int32{0, 1}, Weights: []float64{1, 0.5}},
		{Joint: 501, Indexes: []int32{1, 2}, Weights: []float64{0.5, 2}},
	}
	mesh, err := geometry.Convert("", quadGeometry(), clusters, defaultSettings())
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	if !reflect.DeepEqual(mesh.JointModels, []int64{500, 501}) {
		t.Errorf("joint models: got %v", mesh.JointModels)
	}
	if len(mesh.Joints) != len(mesh.Positions) || len(mesh.Weights) != len(mesh.Positions) {
		t.Fatalf("skin buffers not parallel to positions")
	}

	// control point 0: one influence, normalized to 1
	if mesh.Weights[0] != [4]float32{1, 0, 0, 0} || mesh.Joints[0] != [4]uint16{0, 0, 0, 0} {
		t.Errorf("pv 0: joints %v weights %v", mesh.Joints[0], mesh.Weights[0])
	}
	// control point 1: equal influence from both joints
	if mesh.Weights[1] != [4]float32{0.5, 0.5, 0, 0} {
		t.Errorf("pv 1: weights %v", mesh.Weights[1])
	}
	// control point 2: single influence, weight 2 normalizes to 1
	if mesh.Joints[2] != [4]uint16{1, 0, 0, 0} || mesh.Weights[2] != [4]float32{1, 0, 0, 0} {
		t.Errorf("pv 2: joints %v weights %v", mesh.Joints[2], mesh.Weights[2])
	}
}
