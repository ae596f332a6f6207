// Package document reads Autodesk FBX files (binary or text encoded) into a
// queryable node tree. It only understands the container format: object
// semantics (models, geometries, materials, connections) are interpreted by
// the packages above it.
package document

import (
	"bytes"
	"strings"

	"github.com/mogaika/fbx"
	"github.com/pkg/errors"
)

// Document is a parsed fbx file. Root is the unnamed top level node, its
// children are the document sections (FBXHeaderExtension, GlobalSettings,
// Objects, Connections, ...).
type Document struct {
	Root    *fbx.Node
	Version uint32
}

// Parse auto-detects the encoding of the buffer and builds the node tree.
func Parse(data []byte) (*Document, error) {
	if len(data) >= len(binaryMagic) && string(data[:len(binaryMagic)]) == binaryMagic {
		root, version, err := parseBinary(bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		return &Document{Root: root, Version: version}, nil
	}

	root, err := parseASCII(data)
	if err != nil {
		return nil, err
	}
	doc := &Document{Root: root}
	if header := Child(root, "FBXHeaderExtension"); header != nil {
		doc.Version = uint32(PropInt64(Child(header, "FBXVersion"), 0, 0))
	}
	if len(root.Nodes) == 0 {
		return nil, errors.Errorf("Document has no sections")
	}
	return doc, nil
}

func (doc *Document) Objects() *fbx.Node     { return Child(doc.Root, "Objects") }
func (doc *Document) Connections() *fbx.Node { return Child(doc.Root, "Connections") }

// Child returns the first direct child with the given name, nil-safe.
func Child(n *fbx.Node, name string) *fbx.Node {
	if n == nil {
		return nil
	}
	for _, c := range n.Nodes {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// Children returns all direct children with the given name in source order.
func Children(n *fbx.Node, name string) []*fbx.Node {
	if n == nil {
		return nil
	}
	var result []*fbx.Node
	for _, c := range n.Nodes {
		if c.Name == name {
			result = append(result, c)
		}
	}
	return result
}

// Prop returns the i-th property of the node or nil.
func Prop(n *fbx.Node, i int) interface{} {
	if n == nil || i >= len(n.Properties) {
		return nil
	}
	return n.Properties[i]
}

// ToInt64 coerces any of the integer representations a parser may have
// produced for the same document written by different exporters.
func ToInt64(v interface{}, def int64) int64 {
	switch v := v.(type) {
	case int16:
		return int64(v)
	case int32:
		return int64(v)
	case int64:
		return v
	case bool:
		if v {
			return 1
		}
		return 0
	}
	return def
}

func ToFloat64(v interface{}, def float64) float64 {
	switch v := v.(type) {
	case float32:
		return float64(v)
	case float64:
		return v
	case int16:
		return float64(v)
	case int32:
		return float64(v)
	case int64:
		return float64(v)
	}
	return def
}

func ToString(v interface{}, def string) string {
	switch v := v.(type) {
	case string:
		return v
	case []byte:
		return string(v)
	}
	return def
}

func ToInt32Slice(v interface{}) []int32 {
	switch v := v.(type) {
	case []int32:
		return v
	case []int64:
		r := make([]int32, len(v))
		for i, e := range v {
			r[i] = int32(e)
		}
		return r
	case []byte:
		r := make([]int32, len(v))
		for i, e := range v {
			r[i] = int32(e)
		}
		return r
	}
	return nil
}

func ToFloat64Slice(v interface{}) []float64 {
	switch v := v.(type) {
	case []float64:
		return v
	case []float32:
		r := make([]float64, len(v))
		for i, e := range v {
			r[i] = float64(e)
		}
		return r
	case []int32:
		r := make([]float64, len(v))
		for i, e := range v {
			r[i] = float64(e)
		}
		return r
	case []int64:
		r := make([]float64, len(v))
		for i, e := range v {
			r[i] = float64(e)
		}
		return r
	}
	return nil
}

func PropInt64(n *fbx.Node, i int, def int64) int64       { return ToInt64(Prop(n, i), def) }
func PropFloat64(n *fbx.Node, i int, def float64) float64 { return ToFloat64(Prop(n, i), def) }
func PropString(n *fbx.Node, i int, def string) string    { return ToString(Prop(n, i), def) }

// SplitName splits the "Name\x00\x01Class" form of object name properties.
func SplitName(raw string) (name string, class string) {
	if idx := strings.Index(raw, "\x00\x01"); idx >= 0 {
		return raw[:idx], raw[idx+2:]
	}
	// text documents use "Class::Name"
	if idx := strings.Index(raw, "::"); idx >= 0 {
		return raw[idx+2:], raw[:idx]
	}
	return raw, ""
}

// Property70 returns the value attributes of a Properties70 entry ("P" child
// with matching first attribute) of the node, or nil.
func Property70(n *fbx.Node, name string) []interface{} {
	props := Child(n, "Properties70")
	if props == nil {
		// pre-7.0 documents name the block Properties60 and drop the label column
		props = Child(n, "Properties60")
	}
	for _, p := range Children(props, "P") {
		if PropString(p, 0, "") == name {
			if len(p.Properties) <= 4 {
				return nil
			}
			return p.Properties[4:]
		}
	}
	return nil
}

func Property70Int64(n *fbx.Node, name string, def int64) int64 {
	if vals := Property70(n, name); len(vals) > 0 {
		return ToInt64(vals[0], def)
	}
	return def
}

func Property70Float64(n *fbx.Node, name string, def float64) float64 {
	if vals := Property70(n, name); len(vals) > 0 {
		return ToFloat64(vals[0], def)
	}
	return def
}

func Property70String(n *fbx.Node, name string, def string) string {
	if vals := Property70(n, name); len(vals) > 0 {
		return ToString(vals[0], def)
	}
	return def
}

func Property70Vec3(n *fbx.Node, name string, def [3]float64) [3]float64 {
	vals := Property70(n, name)
	if len(vals) < 3 {
		return def
	}
	return [3]float64{
		ToFloat64(vals[0], def[0]),
		ToFloat64(vals[1], def[1]),
		ToFloat64(vals[2], def[2]),
	}
}

// GlobalSettings carries the document wide axis system and unit scale.
type GlobalSettings struct {
	UpAxis        int
	UpAxisSign    int
	FrontAxis     int
	FrontAxisSign int
	CoordAxis     int
	CoordAxisSign int

	UnitScaleFactor float64
}

// GlobalSettings reads the document global settings, falling back to the
// format defaults (right-handed, Y up, centimeters) for absent entries.
func (doc *Document) GlobalSettings() GlobalSettings {
	gs := Child(doc.Root, "GlobalSettings")
	return GlobalSettings{
		UpAxis:          int(Property70Int64(gs, "UpAxis", 1)),
		UpAxisSign:      int(Property70Int64(gs, "UpAxisSign", 1)),
		FrontAxis:       int(Property70Int64(gs, "FrontAxis", 2)),
		FrontAxisSign:   int(Property70Int64(gs, "FrontAxisSign", 1)),
		CoordAxis:       int(Property70Int64(gs, "CoordAxis", 0)),
		CoordAxisSign:   int(Property70Int64(gs, "CoordAxisSign", 1)),
		UnitScaleFactor: Property70Float64(gs, "UnitScaleFactor", 1.0),
	}
}
