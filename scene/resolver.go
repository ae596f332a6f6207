package scene

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/mogaika/fbximport/document"
)

// ResolvedModel is a Model object with its graph relations flattened: one
// parent (0 for the scene root), child models in connection order, at most
// one geometry and the material list in slot order.
type ResolvedModel struct {
	Object *Object

	Parent   int64
	Children []int64

	Geometry  *Object
	Materials []*Object

	// local transform in document space, before axis/unit conversion
	Transform Transform
}

// Cluster is one skin cluster of a geometry: the joint model it binds to and
// the per control point weights.
type Cluster struct {
	Joint   int64
	Indexes []int32
	Weights []float64
}

// Resolution is the outcome of resolving the connection graph against the
// object index: a tree over models plus per geometry skin clusters.
type Resolution struct {
	Models map[int64]*ResolvedModel
	// model ids without a model parent, in connection order (then object
	// order for models never connected at all)
	Roots []int64
	// skin clusters by geometry object id, in connection order
	Clusters map[int64][]*Cluster

	Warnings []Warning
}

type resolver struct {
	idx   *Index
	graph *Graph
	res   *Resolution
}

// Resolve turns the connection multigraph into a validated model tree.
// Dangling edges are dropped with a warning; a parent cycle is fatal since no
// meaningful partial hierarchy exists.
func Resolve(idx *Index, graph *Graph) (*Resolution, error) {
	r := &resolver{
		idx:   idx,
		graph: graph,
		res: &Resolution{
			Models:   make(map[int64]*ResolvedModel),
			Clusters: make(map[int64][]*Cluster),
		},
	}

	for _, id := range idx.IDs() {
		obj := idx.Get(id)
		switch obj.Kind {
		case "Model":
			r.res.Models[id] = &ResolvedModel{
				Object:    obj,
				Transform: modelTransform(obj),
			}
		}
	}

	// parents first: child attachment below checks the child's resolved
	// parent to reject edges contradicting it
	for _, id := range idx.IDs() {
		if m := r.res.Models[id]; m != nil {
			r.resolveParent(m)
		}
	}

	for _, id := range idx.IDs() {
		obj := idx.Get(id)
		switch obj.Kind {
		case "Model":
			r.resolveAttachments(r.res.Models[id])
		case "Geometry":
			r.resolveSkin(obj)
		}
	}

	if err := r.checkCycles(); err != nil {
		return nil, err
	}
	r.collectRoots()

	return r.res, nil
}

func (r *resolver) warn(kind WarningKind, object int64, format string, args ...interface{}) {
	r.res.Warnings = append(r.res.Warnings, Warning{
		Kind:    kind,
		Object:  object,
		Message: fmt.Sprintf(format, args...),
	})
}

// resolveParent picks the model parent: the first usable parent edge in
// connection order wins, contradictory extra edges are ignored.
func (r *resolver) resolveParent(m *ResolvedModel) {
	id := m.Object.ID
	for _, e := range r.graph.ParentsOf(id) {
		if e.Parent == 0 {
			break
		}
		parent := r.idx.Get(e.Parent)
		if parent == nil {
			r.warn(WarningDanglingReference, id, "parent connection to missing object %v", e.Parent)
			continue
		}
		if parent.Kind == "Model" {
			m.Parent = e.Parent
			break
		}
	}
}

func (r *resolver) resolveAttachments(m *ResolvedModel) {
	id := m.Object.ID
	seen := make(map[int64]bool)
	for _, e := range r.graph.ChildrenOf(id) {
		child := r.idx.Get(e.Child)
		if child == nil {
			r.warn(WarningDanglingReference, id, "connection to missing object %v", e.Child)
			continue
		}
		// exporters occasionally repeat an edge; the first one wins
		if seen[child.ID] {
			continue
		}
		seen[child.ID] = true
		switch child.Kind {
		case "Model":
			// only children that resolved us as their parent: keeps an edge
			// to another parent from re-attaching the child here
			if cm := r.res.Models[child.ID]; cm != nil && cm.Parent == id {
				m.Children = append(m.Children, child.ID)
			}
		case "Geometry":
			if m.Geometry == nil {
				m.Geometry = child
			}
		case "Material":
			// slot order is connection order; the geometry converter's per
			// polygon material indices point into this list
			m.Materials = append(m.Materials, child)
		}
	}
}

// resolveSkin follows Geometry <- Deformer(Skin) <- SubDeformer(Cluster)
// chains and the cluster to joint model links.
func (r *resolver) resolveSkin(geom *Object) {
	for _, e := range r.graph.ChildrenOf(geom.ID) {
		skin := r.idx.Get(e.Child)
		if skin == nil {
			r.warn(WarningDanglingReference, geom.ID, "deformer connection to missing object %v", e.Child)
			continue
		}
		if skin.Kind != "Deformer" || skin.Class != "Skin" {
			continue
		}
		for _, ce := range r.graph.ChildrenOf(skin.ID) {
			sub := r.idx.Get(ce.Child)
			if sub == nil {
				r.warn(WarningDanglingReference, skin.ID, "cluster connection to missing object %v", ce.Child)
				continue
			}
			if sub.Kind != "Deformer" || sub.Class != "Cluster" {
				continue
			}
			cluster := &Cluster{
				Indexes: document.ToInt32Slice(document.Prop(document.Child(sub.Node, "Indexes"), 0)),
				Weights: document.ToFloat64Slice(document.Prop(document.Child(sub.Node, "Weights"), 0)),
			}
			for _, je := range r.graph.ChildrenOf(sub.ID) {
				if joint := r.idx.Get(je.Child); joint != nil && joint.Kind == "Model" {
					cluster.Joint = joint.ID
					break
				}
			}
			r.res.Clusters[geom.ID] = append(r.res.Clusters[geom.ID], cluster)
		}
	}
}

// checkCycles walks every parent chain with a visited set. Hierarchies can be
// thousands of levels deep in degenerate exports, so the walk is iterative.
func (r *resolver) checkCycles() error {
	for id, m := range r.res.Models {
		visited := map[int64]bool{id: true}
		for cur := m.Parent; cur != 0; {
			if visited[cur] {
				return &CyclicHierarchyError{Object: cur}
			}
			visited[cur] = true
			next, ok := r.res.Models[cur]
			if !ok {
				break
			}
			cur = next.Parent
		}
	}
	return nil
}

func (r *resolver) collectRoots() {
	seen := make(map[int64]bool)
	for _, e := range r.graph.ChildrenOf(0) {
		if m := r.res.Models[e.Child]; m != nil && m.Parent == 0 && !seen[e.Child] {
			seen[e.Child] = true
			r.res.Roots = append(r.res.Roots, e.Child)
		}
	}
	for _, id := range r.idx.IDs() {
		if m := r.res.Models[id]; m != nil && m.Parent == 0 && !seen[id] {
			seen[id] = true
			r.res.Roots = append(r.res.Roots, id)
		}
	}
}

// modelTransform reads the decomposed local transform properties. Rotations
// are XYZ euler degrees.
func modelTransform(obj *Object) Transform {
	t := document.Property70Vec3(obj.Node, "Lcl Translation", [3]float64{0, 0, 0})
	rot := document.Property70Vec3(obj.Node, "Lcl Rotation", [3]float64{0, 0, 0})
	s := document.Property70Vec3(obj.Node, "Lcl Scaling", [3]float64{1, 1, 1})

	return Transform{
		Translation: mgl32.Vec3{float32(t[0]), float32(t[1]), float32(t[2])},
		Rotation: mgl32.AnglesToQuat(
			mgl32.DegToRad(float32(rot[0])),
			mgl32.DegToRad(float32(rot[1])),
			mgl32.DegToRad(float32(rot[2])),
			mgl32.XYZ),
		Scale: mgl32.Vec3{float32(s[0]), float32(s[1]), float32(s[2])},
	}
}
