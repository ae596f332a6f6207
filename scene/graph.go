package scene

import (
	"github.com/mogaika/fbximport/document"
)

// Edge is one entry of the Connections section: child connected to parent,
// optionally through a named property ("OP" connections).
type Edge struct {
	Child    int64
	Parent   int64
	Property string
}

// Graph is the document connection graph: an adjacency mapping by opaque id.
// It is a general directed multigraph (forward references, duplicates and
// stale edges all occur in real files) and is read-only after construction;
// the resolver turns it into a validated tree.
type Graph struct {
	byParent map[int64][]Edge
	byChild  map[int64][]Edge
}

// BuildGraph reads the Connections section. Connection order is preserved:
// it defines both child order and material slot order. A document without a
// Connections section yields an empty graph (a legal, if useless, file).
func BuildGraph(doc *document.Document) *Graph {
	g := &Graph{
		byParent: make(map[int64][]Edge),
		byChild:  make(map[int64][]Edge),
	}
	for _, c := range document.Children(doc.Connections(), "C") {
		kind := document.PropString(c, 0, "")
		if kind != "OO" && kind != "OP" {
			continue
		}
		e := Edge{
			Child:  document.PropInt64(c, 1, 0),
			Parent: document.PropInt64(c, 2, 0),
		}
		if kind == "OP" {
			e.Property = document.PropString(c, 3, "")
		}
		g.byParent[e.Parent] = append(g.byParent[e.Parent], e)
		g.byChild[e.Child] = append(g.byChild[e.Child], e)
	}
	return g
}

// ChildrenOf returns the edges pointing at children of the object, in
// connection order.
func (g *Graph) ChildrenOf(parent int64) []Edge {
	return g.byParent[parent]
}

// ParentsOf returns the edges pointing at parents of the object, in
// connection order.
func (g *Graph) ParentsOf(child int64) []Edge {
	return g.byChild[child]
}
