package scene_test

import (
	"reflect"
	"testing"

	"github.com/mogaika/fbx"
	"github.com/mogaika/fbx/builders/bfbx73"

	"github.com/mogaika/fbximport/document"
	"github.com/mogaika/fbximport/scene"
)

func testDoc(sections ...*fbx.Node) *document.Document {
	return &document.Document{Root: &fbx.Node{Nodes: sections}, Version: 7400}
}

func resolve(t *testing.T, doc *document.Document) (*scene.Index, *scene.Graph, *scene.Resolution) {
	t.Helper()
	idx, err := scene.BuildIndex(doc)
	if err != nil {
		t.Fatalf("BuildIndex: %v", err)
	}
	graph := scene.BuildGraph(doc)
	res, err := scene.Resolve(idx, graph)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	return idx, graph, res
}

func TestBuildIndexMissingObjects(t *testing.T) {
	_, err := scene.BuildIndex(testDoc(bfbx73.Connections()))
	if _, ok := err.(*scene.MalformedDocumentError); !ok {
		t.Fatalf("expected MalformedDocumentError, got %v", err)
	}
}

func TestBuildIndexOrder(t *testing.T) {
	doc := testDoc(bfbx73.Objects().AddNodes(
		bfbx73.Model(12, "b\x00\x01Model", "Mesh"),
		bfbx73.Model(10, "a\x00\x01Model", "Mesh"),
		bfbx73.Material(11, "m\x00\x01Material", ""),
	))
	idx, err := scene.BuildIndex(doc)
	if err != nil {
		t.Fatalf("BuildIndex: %v", err)
	}
	if !reflect.DeepEqual(idx.IDs(), []int64{12, 10, 11}) {
		t.Errorf("ids: got %v", idx.IDs())
	}
	obj := idx.Get(10)
	if obj == nil || obj.Kind != "Model" || obj.Name != "a" || obj.Class != "Mesh" {
		t.Errorf("object 10: got %+v", obj)
	}
	if idx.Get(99) != nil {
		t.Errorf("expected nil for unknown id")
	}
}

func TestResolveHierarchy(t *testing.T) {
	doc := testDoc(
		bfbx73.Objects().AddNodes(
			bfbx73.Model(10, "root\x00\x01Model", "Null").AddNodes(
				bfbx73.Properties70().AddNodes(
					bfbx73.P("Lcl Translation", "Lcl Translation", "", "A",
						float64(1), float64(2), float64(3)),
				),
			),
			bfbx73.Model(11, "child\x00\x01Model", "Mesh"),
			bfbx73.Geometry(20, "child\x00\x01Geometry", "Mesh"),
			bfbx73.Material(30, "red\x00\x01Material", ""),
			bfbx73.Material(31, "blue\x00\x01Material", ""),
		),
		bfbx73.Connections().AddNodes(
			bfbx73.C("OO", 10, 0),
			bfbx73.C("OO", 11, 10),
			bfbx73.C("OO", 20, 11),
			// slot order is connection order, not id order
			bfbx73.C("OO", 31, 11),
			bfbx73.C("OO", 30, 11),
		),
	)

	_, _, res := resolve(t, doc)

	if !reflect.DeepEqual(res.Roots, []int64{10}) {
		t.Fatalf("roots: got %v", res.Roots)
	}
	root := res.Models[10]
	if !reflect.DeepEqual(root.Children, []int64{11}) {
		t.Errorf("children: got %v", root.Children)
	}
	if root.Transform.Translation != [3]float32{1, 2, 3} {
		t.Errorf("translation: got %v", root.Transform.Translation)
	}

	child := res.Models[11]
	if child.Parent != 10 {
		t.Errorf("parent: got %v", child.Parent)
	}
	if child.Geometry == nil || child.Geometry.ID != 20 {
		t.Errorf("geometry: got %+v", child.Geometry)
	}
	if len(child.Materials) != 2 || child.Materials[0].ID != 31 || child.Materials[1].ID != 30 {
		t.Errorf("materials: got %+v", child.Materials)
	}
	if len(res.Warnings) != 0 {
		t.Errorf("warnings: got %v", res.Warnings)
	}
}

func TestResolveDuplicateEdges(t *testing.T) {
	doc := testDoc(
		bfbx73.Objects().AddNodes(
			bfbx73.Model(10, "root\x00\x01Model", "Null"),
			bfbx73.Model(11, "child\x00\x01Model", "Mesh"),
			bfbx73.Geometry(20, "\x00\x01Geometry", "Mesh"),
			bfbx73.Material(30, "m\x00\x01Material", ""),
		),
		bfbx73.Connections().AddNodes(
			bfbx73.C("OO", 10, 0),
			// exporters sometimes emit the same edge twice; only the first
			// occurrence may attach, or the subtree and the material slot
			// table get duplicated
			bfbx73.C("OO", 11, 10),
			bfbx73.C("OO", 11, 10),
			bfbx73.C("OO", 20, 11),
			bfbx73.C("OO", 30, 11),
			bfbx73.C("OO", 30, 11),
		),
	)

	_, _, res := resolve(t, doc)

	if !reflect.DeepEqual(res.Models[10].Children, []int64{11}) {
		t.Errorf("children: got %v", res.Models[10].Children)
	}
	child := res.Models[11]
	if len(child.Materials) != 1 || child.Materials[0].ID != 30 {
		t.Errorf("materials: got %+v", child.Materials)
	}

	s := scene.Assemble(res,
		[]*scene.MeshData{{Name: "child"}}, map[int64]int32{20: 0},
		[]*scene.MaterialData{{Name: "m"}}, map[int64]int32{30: 0},
		func(t scene.Transform) scene.Transform { return t })
	if len(s.Nodes) != 3 {
		t.Fatalf("nodes: got %v", len(s.Nodes))
	}
	if !reflect.DeepEqual(s.Nodes[2].Materials, []int32{0}) {
		t.Errorf("leaf materials: got %v", s.Nodes[2].Materials)
	}
}

func TestResolveDanglingConnection(t *testing.T) {
	doc := testDoc(
		bfbx73.Objects().AddNodes(
			bfbx73.Model(10, "a\x00\x01Model", "Mesh"),
			bfbx73.Model(11, "b\x00\x01Model", "Mesh"),
		),
		bfbx73.Connections().AddNodes(
			bfbx73.C("OO", 10, 0),
			bfbx73.C("OO", 99, 10),
			bfbx73.C("OO", 11, 98),
		),
	)

	_, _, res := resolve(t, doc)

	// both models survive; the model whose only parent edge dangles
	// becomes a root
	if !reflect.DeepEqual(res.Roots, []int64{10, 11}) {
		t.Errorf("roots: got %v", res.Roots)
	}
	if len(res.Warnings) != 2 {
		t.Fatalf("warnings: got %v", res.Warnings)
	}
	for _, w := range res.Warnings {
		if w.Kind != scene.WarningDanglingReference {
			t.Errorf("warning kind: got %v", w.Kind)
		}
	}
}

func TestResolveCycle(t *testing.T) {
	doc := testDoc(
		bfbx73.Objects().AddNodes(
			bfbx73.Model(10, "a\x00\x01Model", "Mesh"),
			bfbx73.Model(11, "b\x00\x01Model", "Mesh"),
		),
		bfbx73.Connections().AddNodes(
			bfbx73.C("OO", 10, 11),
			bfbx73.C("OO", 11, 10),
		),
	)

	idx, err := scene.BuildIndex(doc)
	if err != nil {
		t.Fatalf("BuildIndex: %v", err)
	}
	_, err = scene.Resolve(idx, scene.BuildGraph(doc))
	if _, ok := err.(*scene.CyclicHierarchyError); !ok {
		t.Fatalf("expected CyclicHierarchyError, got %v", err)
	}
}

func TestResolveUnconnectedModels(t *testing.T) {
	doc := testDoc(
		bfbx73.Objects().AddNodes(
			bfbx73.Model(12, "c\x00\x01Model", "Mesh"),
			bfbx73.Model(10, "a\x00\x01Model", "Mesh"),
			bfbx73.Model(11, "b\x00\x01Model", "Mesh"),
		),
		bfbx73.Connections().AddNodes(
			bfbx73.C("OO", 11, 0),
		),
	)

	_, _, res := resolve(t, doc)

	// connected roots first in connection order, then never connected
	// models in object order
	if !reflect.DeepEqual(res.Roots, []int64{11, 12, 10}) {
		t.Errorf("roots: got %v", res.Roots)
	}
}

func TestResolveSkin(t *testing.T) {
	cluster := &fbx.Node{
		Name:       "Deformer",
		Properties: []interface{}{int64(41), "\x00\x01SubDeformer", "Cluster"},
		Nodes: []*fbx.Node{
			{Name: "Indexes", Properties: []interface{}{[]int32{0, 2}}},
			{Name: "Weights", Properties: []interface{}{[]float64{1, 0.5}}},
		},
	}
	skin := &fbx.Node{
		Name:       "Deformer",
		Properties: []interface{}{int64(40), "\x00\x01Deformer", "Skin"},
	}

	doc := testDoc(
		bfbx73.Objects().AddNodes(
			bfbx73.Model(10, "mesh\x00\x01Model", "Mesh"),
			bfbx73.Model(50, "bone\x00\x01Model", "LimbNode"),
			bfbx73.Geometry(20, "\x00\x01Geometry", "Mesh"),
			skin,
			cluster,
		),
		bfbx73.Connections().AddNodes(
			bfbx73.C("OO", 10, 0),
			bfbx73.C("OO", 50, 10),
			bfbx73.C("OO", 20, 10),
			bfbx73.C("OO", 40, 20),
			bfbx73.C("OO", 41, 40),
			bfbx73.C("OO", 50, 41),
		),
	)

	_, _, res := resolve(t, doc)

	clusters := res.Clusters[20]
	if len(clusters) != 1 {
		t.Fatalf("clusters: got %v", len(clusters))
	}
	c := clusters[0]
	if c.Joint != 50 {
		t.Errorf("joint: got %v", c.Joint)
	}
	if !reflect.DeepEqual(c.Indexes, []int32{0, 2}) || !reflect.DeepEqual(c.Weights, []float64{1, 0.5}) {
		t.Errorf("cluster data: got %+v", c)
	}
}

func TestAssemble(t *testing.T) {
	doc := testDoc(
		bfbx73.Objects().AddNodes(
			bfbx73.Model(10, "root\x00\x01Model", "Null"),
			bfbx73.Model(11, "child\x00\x01Model", "Mesh"),
			bfbx73.Geometry(20, "\x00\x01Geometry", "Mesh"),
			bfbx73.Material(30, "m\x00\x01Material", ""),
		),
		bfbx73.Connections().AddNodes(
			bfbx73.C("OO", 10, 0),
			bfbx73.C("OO", 11, 10),
			bfbx73.C("OO", 20, 11),
			bfbx73.C("OO", 30, 11),
		),
	)
	_, _, res := resolve(t, doc)

	meshes := []*scene.MeshData{{Name: "child"}}
	materials := []*scene.MaterialData{{Name: "m"}}
	s := scene.Assemble(res,
		meshes, map[int64]int32{20: 0},
		materials, map[int64]int32{30: 0},
		func(t scene.Transform) scene.Transform { return t })

	if len(s.Nodes) != 3 {
		t.Fatalf("nodes: got %v", len(s.Nodes))
	}
	if s.Nodes[0].Name != "RootNode" || s.Nodes[0].Mesh != scene.NoMesh {
		t.Errorf("root: got %+v", s.Nodes[0])
	}
	if !reflect.DeepEqual(s.Nodes[0].Children, []int32{1}) {
		t.Errorf("root children: got %v", s.Nodes[0].Children)
	}

	n := s.Nodes[1]
	if n.Name != "root" || n.Mesh != scene.NoMesh || !reflect.DeepEqual(n.Children, []int32{2}) {
		t.Errorf("node 1: got %+v", n)
	}
	leaf := s.Nodes[2]
	if leaf.Name != "child" || leaf.Mesh != 0 || !reflect.DeepEqual(leaf.Materials, []int32{0}) {
		t.Errorf("node 2: got %+v", leaf)
	}

	if s.Root() == nil || s.Root() != &s.Nodes[0] {
		t.Errorf("Root() does not point at the synthesized root")
	}
}
