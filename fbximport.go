// Package fbximport converts Autodesk FBX documents into a renderable scene
// graph: a transform hierarchy with triangle meshes, materials and texture
// references, ready for a host engine's asset system.
//
// One Import call transforms one in-memory byte buffer into one scene with no
// shared state between calls, so independent imports may run on separate
// goroutines freely. The importer performs no file I/O of its own; texture
// references are passed through for the host to resolve.
package fbximport

import (
	"log"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"

	"github.com/mogaika/fbximport/document"
	"github.com/mogaika/fbximport/geometry"
	"github.com/mogaika/fbximport/material"
	"github.com/mogaika/fbximport/scene"
)

// Extensions lists the file extensions the importer should be registered for.
func Extensions() []string { return []string{"fbx"} }

// Options is the whole runtime configuration surface.
type Options struct {
	// log wall time per pipeline stage; no behavior change
	Profile bool
	// recognize the Maya/3ds Max PBR material property vocabulary
	ExtendedPBR bool
}

// Import runs the full pipeline synchronously: parse, index, resolve,
// convert, assemble. The returned scene owns every payload; recoverable
// defects of the input are recorded as warnings on it. A non-nil error means
// nothing was produced: imports are all or nothing at this boundary.
func Import(data []byte, opts Options) (*scene.Scene, error) {
	profile := stageProfiler(opts.Profile)

	doc, err := document.Parse(data)
	if err != nil {
		return nil, errors.Wrapf(err, "Failed to parse document")
	}
	profile("parse")

	idx, err := scene.BuildIndex(doc)
	if err != nil {
		return nil, err
	}
	graph := scene.BuildGraph(doc)
	profile("index")

	res, err := scene.Resolve(idx, graph)
	if err != nil {
		return nil, err
	}
	profile("resolve")

	gs := doc.GlobalSettings()
	basis := geometry.NewBasis(gs)

	meshes, meshIndex, err := convertGeometries(idx, res, gs)
	if err != nil {
		return nil, err
	}
	profile("geometry")

	materials, matIndex := convertMaterials(idx, graph, res, opts.ExtendedPBR)
	profile("materials")

	s := scene.Assemble(res, meshes, meshIndex, materials, matIndex,
		transformConverter(basis, float32(gs.UnitScaleFactor)))
	profile("assemble")

	log.Printf("[import] scene: %v nodes, %v meshes, %v materials, %v warnings",
		len(s.Nodes), len(s.Meshes), len(s.Materials), len(s.Warnings))
	return s, nil
}

// convertGeometries converts every geometry attached to a model, in Objects
// section order. An unsupported layer mapping skips the one mesh with a
// warning; structurally broken geometry aborts the import.
func convertGeometries(idx *scene.Index, res *scene.Resolution, gs document.GlobalSettings) ([]*scene.MeshData, map[int64]int32, error) {
	attached := make(map[int64]bool)
	for _, m := range res.Models {
		if m.Geometry != nil {
			attached[m.Geometry.ID] = true
		}
	}

	var meshes []*scene.MeshData
	meshIndex := make(map[int64]int32)
	for _, id := range idx.IDs() {
		obj := idx.Get(id)
		if obj.Kind != "Geometry" || !attached[id] {
			continue
		}
		mesh, err := geometry.Convert(obj.Name, obj.Node, res.Clusters[id], gs)
		if err != nil {
			if mapErr, ok := errors.Cause(err).(*scene.UnsupportedMappingError); ok {
				res.Warnings = append(res.Warnings, scene.Warning{
					Kind:    scene.WarningUnsupportedMapping,
					Object:  id,
					Message: mapErr.Error(),
				})
				continue
			}
			return nil, nil, errors.Wrapf(err, "Failed to convert geometry %v (%q)", id, obj.Name)
		}
		meshIndex[id] = int32(len(meshes))
		meshes = append(meshes, mesh)
	}
	return meshes, meshIndex, nil
}

// convertMaterials converts every material referenced by a model, in Objects
// section order. Slot order on the nodes themselves is connection order,
// restored by the assembler.
func convertMaterials(idx *scene.Index, graph *scene.Graph, res *scene.Resolution, extendedPBR bool) ([]*scene.MaterialData, map[int64]int32) {
	referenced := make(map[int64]bool)
	for _, m := range res.Models {
		for _, mat := range m.Materials {
			referenced[mat.ID] = true
		}
	}

	var materials []*scene.MaterialData
	matIndex := make(map[int64]int32)
	for _, id := range idx.IDs() {
		obj := idx.Get(id)
		if obj.Kind != "Material" || !referenced[id] {
			continue
		}
		matIndex[id] = int32(len(materials))
		materials = append(materials, material.Convert(obj, idx, graph, extendedPBR))
	}
	return materials, matIndex
}

// transformConverter folds the basis change and unit scale into local node
// transforms the same way the geometry converter folds them into vertices.
// With a mirroring basis the rotation part cannot be conjugated cleanly; it
// is left as is, which only matters for exotic left-handed exports.
func transformConverter(basis geometry.Basis, unit float32) func(scene.Transform) scene.Transform {
	basisQuat := mgl32.QuatIdent()
	conjugate := !basis.FlipWinding
	if conjugate {
		basisQuat = basis.Rotation()
	} else {
		log.Printf("[import] Mirrored axis system, node rotations left in document space")
	}

	return func(t scene.Transform) scene.Transform {
		out := scene.Transform{
			Translation: basis.Apply(t.Translation).Mul(unit),
			Rotation:    t.Rotation,
			Scale:       absVec(basis.Apply(t.Scale)),
		}
		if conjugate {
			out.Rotation = basisQuat.Mul(t.Rotation).Mul(basisQuat.Inverse())
		}
		return out
	}
}

func absVec(v mgl32.Vec3) mgl32.Vec3 {
	for i := range v {
		if v[i] < 0 {
			v[i] = -v[i]
		}
	}
	return v
}

func stageProfiler(enabled bool) func(stage string) {
	if !enabled {
		return func(string) {}
	}
	last := time.Now()
	return func(stage string) {
		now := time.Now()
		log.Printf("[profile] %v: %v", stage, now.Sub(last))
		last = now
	}
}
