package scene

import (
	"github.com/mogaika/fbx"

	"github.com/mogaika/fbximport/document"
)

// Object is one entry of the Objects section: an opaque id, the section node
// kind ("Model", "Geometry", ...), the display name, the subclass ("Mesh",
// "Skin", "Cluster", ...) and the raw node for the converters to interpret.
type Object struct {
	ID    int64
	Kind  string
	Name  string
	Class string
	Node  *fbx.Node
}

// Index maps object ids to their raw objects. Ids are only unique within one
// document, so an Index never outlives the import call that built it.
type Index struct {
	objects map[int64]*Object
	ordered []int64
}

// BuildIndex walks the Objects section of the document. Object kinds the
// importer does not know are indexed anyway so connections through them
// resolve; only a missing Objects section is fatal.
func BuildIndex(doc *document.Document) (*Index, error) {
	objects := doc.Objects()
	if objects == nil {
		return nil, &MalformedDocumentError{Section: "Objects"}
	}

	idx := &Index{objects: make(map[int64]*Object, len(objects.Nodes))}
	for _, n := range objects.Nodes {
		id := document.PropInt64(n, 0, 0)
		if id == 0 {
			// id 0 is the implicit scene root, a real object never carries it
			continue
		}
		name, _ := document.SplitName(document.PropString(n, 1, ""))
		class := document.PropString(n, 2, "")
		if _, seen := idx.objects[id]; !seen {
			idx.ordered = append(idx.ordered, id)
		}
		idx.objects[id] = &Object{
			ID:    id,
			Kind:  n.Name,
			Name:  name,
			Class: class,
			Node:  n,
		}
	}
	return idx, nil
}

// IDs returns all object ids in Objects section order.
func (idx *Index) IDs() []int64 {
	return idx.ordered
}

// Get returns the object or nil for ids absent from the document.
func (idx *Index) Get(id int64) *Object {
	return idx.objects[id]
}

func (idx *Index) Len() int {
	return len(idx.objects)
}
