// Package scene resolves the object and connection sections of an fbx
// document into a flat, validated scene graph: an arena of nodes with index
// based parent/child links plus the converted mesh and material payloads.
package scene

import (
	"github.com/go-gl/mathgl/mgl32"
)

// NoMesh marks a node without attached geometry.
const NoMesh = int32(-1)

// Transform is a decomposed local affine transform. Kept decomposed (not as a
// matrix) so hosts can interpolate and re-export it.
type Transform struct {
	Translation mgl32.Vec3
	Rotation    mgl32.Quat
	Scale       mgl32.Vec3
}

func IdentityTransform() Transform {
	return Transform{
		Rotation: mgl32.QuatIdent(),
		Scale:    mgl32.Vec3{1, 1, 1},
	}
}

// Node is one element of the output hierarchy. Children are indices into
// Scene.Nodes; every node except the root has exactly one parent.
type Node struct {
	Name      string
	Transform Transform

	// index into Scene.Meshes or NoMesh
	Mesh int32
	// indices into Scene.Materials, in material slot order
	Materials []int32

	Children []int32
}

// MeshData is a converted geometry: parallel per-vertex buffers plus a
// triangle index buffer. Optional buffers are nil or have exactly
// len(Positions) entries.
type MeshData struct {
	Name string

	Positions []mgl32.Vec3
	Normals   []mgl32.Vec3
	Tangents  []mgl32.Vec3
	UVs       []mgl32.Vec2

	// skin weights, up to four influences per vertex; Joints indexes
	// JointModels
	Joints  [][4]uint16
	Weights [][4]float32
	// model object ids of the skin clusters, in cluster order
	JointModels []int64

	// triangle list, three indices per triangle, every index < len(Positions)
	Indices []uint32
	// material slot per triangle (len(Indices)/3 entries), nil when the
	// geometry has no material layer
	TriangleMaterials []int32
}

func (m *MeshData) TriangleCount() int {
	return len(m.Indices) / 3
}

// Channel is a semantic material input. The set is closed: unrecognized fbx
// properties never produce new channels.
type Channel int

const (
	ChannelDiffuse Channel = iota
	ChannelSpecular
	ChannelEmissive
	ChannelNormal
	ChannelMetallic
	ChannelRoughness
	ChannelOpacity
)

// AllChannels lists every channel in a stable display order.
var AllChannels = []Channel{
	ChannelDiffuse, ChannelSpecular, ChannelEmissive, ChannelNormal,
	ChannelMetallic, ChannelRoughness, ChannelOpacity,
}

func (c Channel) String() string {
	switch c {
	case ChannelDiffuse:
		return "Diffuse"
	case ChannelSpecular:
		return "Specular"
	case ChannelEmissive:
		return "Emissive"
	case ChannelNormal:
		return "Normal"
	case ChannelMetallic:
		return "Metallic"
	case ChannelRoughness:
		return "Roughness"
	case ChannelOpacity:
		return "Opacity"
	}
	return "Unknown"
}

// TextureRef points at image data without decoding it. Either a file path
// passed through for the host asset system to resolve, or a byte range lifted
// out of the document plus a synthetic path to register it under.
type TextureRef struct {
	Path     string
	Embedded bool
	Data     []byte
}

// Value is a single channel binding: a constant and/or a texture. For color
// channels the constant lives in Color, for scalar channels in Factor.
type Value struct {
	Color   mgl32.Vec3
	Factor  float32
	Texture *TextureRef
}

// MaterialData maps semantic channels to constants or texture references.
type MaterialData struct {
	Name     string
	Channels map[Channel]Value
}

// Scene is the import result: one root node (Nodes[0]) owning the hierarchy,
// with all payloads moved into the scene. Instances are independent; the
// importer keeps no state between calls.
type Scene struct {
	Nodes     []Node
	Meshes    []*MeshData
	Materials []*MaterialData

	Warnings []Warning
}

func (s *Scene) Root() *Node {
	return &s.Nodes[0]
}

// Walk visits the hierarchy depth first in child order.
func (s *Scene) Walk(visit func(node *Node, depth int)) {
	var rec func(idx int32, depth int)
	rec = func(idx int32, depth int) {
		node := &s.Nodes[idx]
		visit(node, depth)
		for _, child := range node.Children {
			rec(child, depth+1)
		}
	}
	rec(0, 0)
}
