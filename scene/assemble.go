package scene

// Assemble instantiates the resolved model tree as the output scene graph:
// a single synthesized root (Nodes[0]) plus one node per model, depth first,
// children in connection order, so the same input always yields the same
// scene layout.
//
// meshIndex/matIndex map object ids to slots of the meshes/materials payload
// lists; models whose geometry is absent (conversion skipped or failed) come
// out as plain transform nodes. convertTransform folds the document axis
// system and unit scale into local transforms, matching what the geometry
// converter folded into vertex data.
func Assemble(
	res *Resolution,
	meshes []*MeshData, meshIndex map[int64]int32,
	materials []*MaterialData, matIndex map[int64]int32,
	convertTransform func(Transform) Transform,
) *Scene {
	s := &Scene{
		Meshes:    meshes,
		Materials: materials,
		Warnings:  res.Warnings,
	}

	s.Nodes = append(s.Nodes, Node{
		Name:      "RootNode",
		Transform: IdentityTransform(),
		Mesh:      NoMesh,
	})

	var build func(modelID int64) int32
	build = func(modelID int64) int32 {
		m := res.Models[modelID]

		node := Node{
			// names pass through unmodified, duplicates included:
			// uniqueness is not an fbx invariant
			Name:      m.Object.Name,
			Transform: convertTransform(m.Transform),
			Mesh:      NoMesh,
		}
		if m.Geometry != nil {
			if slot, ok := meshIndex[m.Geometry.ID]; ok {
				node.Mesh = slot
			}
		}
		for _, mat := range m.Materials {
			if slot, ok := matIndex[mat.ID]; ok {
				node.Materials = append(node.Materials, slot)
			}
		}

		idx := int32(len(s.Nodes))
		s.Nodes = append(s.Nodes, node)
		for _, child := range m.Children {
			childIdx := build(child)
			s.Nodes[idx].Children = append(s.Nodes[idx].Children, childIdx)
		}
		return idx
	}

	for _, root := range res.Roots {
		idx := build(root)
		s.Nodes[0].Children = append(s.Nodes[0].Children, idx)
	}
	return s
}
