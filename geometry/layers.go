package geometry

import (
	"github.com/mogaika/fbx"

	"github.com/mogaika/fbximport/document"
	"github.com/mogaika/fbximport/scene"
)

// The mapping/reference mode pair of a layer element forms a small closed set
// of variants. It is resolved here, once, into a flat per-polygon-vertex
// array; the triangulation code never branches on modes again.
type mappingMode int

type referenceMode int

const (
	mappingByControlPoint mappingMode = iota
	mappingByPolygonVertex
	mappingByPolygon
	mappingAllSame
)

const (
	referenceDirect referenceMode = iota
	referenceIndexToDirect
)

func parseMappingMode(s string) (mappingMode, bool) {
	switch s {
	case "ByControlPoint", "ByVertice", "ByVertex":
		return mappingByControlPoint, true
	case "ByPolygonVertex":
		return mappingByPolygonVertex, true
	case "ByPolygon":
		return mappingByPolygon, true
	case "AllSame":
		return mappingAllSame, true
	}
	return 0, false
}

func parseReferenceMode(s string) (referenceMode, bool) {
	switch s {
	case "Direct", "":
		return referenceDirect, true
	case "IndexToDirect", "Index":
		return referenceIndexToDirect, true
	}
	return 0, false
}

// layer is one attribute layer (normals, uv, tangents) of a geometry.
type layer struct {
	name      string
	node      *fbx.Node
	values    []float64
	indices   []int32
	mapping   mappingMode
	reference referenceMode
	stride    int
}

// findLayer locates the first layer element node of the given kind. Returns
// nil when the geometry has no such layer.
func findLayer(geom *fbx.Node, elementName, arrayName, indexName string, stride int) (*layer, error) {
	node := document.Child(geom, elementName)
	if node == nil {
		return nil, nil
	}

	mappingRaw := document.PropString(document.Child(node, "MappingInformationType"), 0, "")
	referenceRaw := document.PropString(document.Child(node, "ReferenceInformationType"), 0, "")

	mapping, ok := parseMappingMode(mappingRaw)
	if !ok {
		return nil, &scene.UnsupportedMappingError{Layer: elementName, Mapping: mappingRaw, Reference: referenceRaw}
	}
	reference, ok := parseReferenceMode(referenceRaw)
	if !ok {
		return nil, &scene.UnsupportedMappingError{Layer: elementName, Mapping: mappingRaw, Reference: referenceRaw}
	}

	l := &layer{
		name:      elementName,
		node:      node,
		values:    document.ToFloat64Slice(document.Prop(document.Child(node, arrayName), 0)),
		mapping:   mapping,
		reference: reference,
		stride:    stride,
	}
	if reference == referenceIndexToDirect {
		l.indices = document.ToInt32Slice(document.Prop(document.Child(node, indexName), 0))
	}
	return l, nil
}

// valueIndex resolves a polygon-vertex to an index into the value pool,
// dispatching over the mapping/reference variants.
func (l *layer) valueIndex(pv int, cp int32, polygon int) (int, bool) {
	var mapped int
	switch l.mapping {
	case mappingByControlPoint:
		mapped = int(cp)
	case mappingByPolygonVertex:
		mapped = pv
	case mappingByPolygon:
		mapped = polygon
	case mappingAllSame:
		mapped = 0
	}
	if l.reference == referenceIndexToDirect {
		if mapped >= len(l.indices) {
			return 0, false
		}
		mapped = int(l.indices[mapped])
	}
	if mapped < 0 || (mapped+1)*l.stride > len(l.values) {
		return 0, false
	}
	return mapped, true
}

// expand flattens the layer into one value tuple per polygon-vertex. Out of
// range references resolve to zero tuples rather than failing the mesh: the
// buffers stay parallel either way.
func (l *layer) expand(polys polygonSet) []float64 {
	out := make([]float64, len(polys.controlPoints)*l.stride)
	if len(polys.polygons) == 0 {
		return out
	}
	cursor := 0
	for pv, cp := range polys.controlPoints {
		cursor = polys.polygonOf(pv, cursor)
		idx, ok := l.valueIndex(pv, cp, polys.polygons[cursor].source)
		if !ok {
			continue
		}
		copy(out[pv*l.stride:(pv+1)*l.stride], l.values[idx*l.stride:(idx+1)*l.stride])
	}
	return out
}
