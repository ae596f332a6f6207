// Package material maps fbx surface materials and their texture bindings to
// the closed channel set of the scene package. Unrecognized properties are
// ignored: new exporter vocabularies must not fail an import.
package material

import (
	"fmt"
	"math"
	"path"
	"strings"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/mogaika/fbximport/document"
	"github.com/mogaika/fbximport/scene"
)

// baseChannelProps is the stock FBX surface vocabulary (lambert/phong).
var baseChannelProps = map[string]scene.Channel{
	"DiffuseColor":  scene.ChannelDiffuse,
	"SpecularColor": scene.ChannelSpecular,
	"EmissiveColor": scene.ChannelEmissive,
	"NormalMap":     scene.ChannelNormal,
	"Bump":          scene.ChannelNormal,
	"Opacity":       scene.ChannelOpacity,
}

// pbrChannelProps is the vendor PBR vocabulary written by the Maya and 3ds Max
// exporters. Recognized only with the ExtendedPBR option on; the gate changes
// nothing but this name set.
var pbrChannelProps = map[string]scene.Channel{
	"Maya|base_color":         scene.ChannelDiffuse,
	"Maya|baseColor":          scene.ChannelDiffuse,
	"Maya|metalness":          scene.ChannelMetallic,
	"Maya|specular_roughness": scene.ChannelRoughness,
	"Maya|emission_color":     scene.ChannelEmissive,
	"Maya|normal_camera":      scene.ChannelNormal,
	"3dsMax|base_color":       scene.ChannelDiffuse,
	"3dsMax|metalness":        scene.ChannelMetallic,
	"3dsMax|roughness":        scene.ChannelRoughness,
	"3dsMax|emit_color":       scene.ChannelEmissive,
	"3dsMax|bump_map":         scene.ChannelNormal,
}

// Convert builds MaterialData for one Material object. Texture bindings come
// from OP connections into the material; the graph and the index stay
// read-only.
func Convert(mat *scene.Object, idx *scene.Index, graph *scene.Graph, extendedPBR bool) *scene.MaterialData {
	out := &scene.MaterialData{
		Name:     mat.Name,
		Channels: make(map[scene.Channel]scene.Value),
	}

	recognized := func(prop string) (scene.Channel, bool) {
		if ch, ok := baseChannelProps[prop]; ok {
			return ch, true
		}
		if extendedPBR {
			if ch, ok := pbrChannelProps[prop]; ok {
				return ch, true
			}
		}
		return 0, false
	}

	// constants first
	if c := document.Property70(mat.Node, "DiffuseColor"); c != nil {
		out.Channels[scene.ChannelDiffuse] = scene.Value{
			Color:  propColor(mat, "DiffuseColor"),
			Factor: float32(document.Property70Float64(mat.Node, "DiffuseFactor", 1)),
		}
	}
	if c := document.Property70(mat.Node, "SpecularColor"); c != nil {
		out.Channels[scene.ChannelSpecular] = scene.Value{
			Color:  propColor(mat, "SpecularColor"),
			Factor: float32(document.Property70Float64(mat.Node, "SpecularFactor", 1)),
		}
	}
	if c := document.Property70(mat.Node, "EmissiveColor"); c != nil {
		out.Channels[scene.ChannelEmissive] = scene.Value{
			Color:  propColor(mat, "EmissiveColor"),
			Factor: float32(document.Property70Float64(mat.Node, "EmissiveFactor", 1)),
		}
	}
	if v := document.Property70(mat.Node, "Opacity"); v != nil {
		out.Channels[scene.ChannelOpacity] = scene.Value{
			Factor: float32(document.ToFloat64(v[0], 1)),
		}
	}
	if v := document.Property70(mat.Node, "ShininessExponent"); v != nil {
		out.Channels[scene.ChannelRoughness] = scene.Value{
			Factor: shininessToRoughness(document.ToFloat64(v[0], 0)),
		}
	}
	if extendedPBR {
		if v := document.Property70(mat.Node, "Maya|metalness"); v != nil {
			out.Channels[scene.ChannelMetallic] = scene.Value{
				Factor: float32(document.ToFloat64(v[0], 0)),
			}
		}
		if v := document.Property70(mat.Node, "Maya|specular_roughness"); v != nil {
			out.Channels[scene.ChannelRoughness] = scene.Value{
				Factor: float32(document.ToFloat64(v[0], 0.5)),
			}
		}
	}

	// then texture bindings on top of them
	for _, e := range graph.ChildrenOf(mat.ID) {
		if e.Property == "" {
			continue
		}
		ch, ok := recognized(e.Property)
		if !ok {
			continue
		}
		texture := idx.Get(e.Child)
		if texture == nil || texture.Kind != "Texture" {
			continue
		}
		if ref := resolveTexture(texture, idx, graph); ref != nil {
			value := out.Channels[ch]
			value.Texture = ref
			out.Channels[ch] = value
		}
	}

	return out
}

// resolveTexture reads the file reference of a Texture object. Embedded
// payloads live on the connected Video object; they surface as a byte range
// plus a synthetic path so the host can register a virtual asset. Pixels are
// never decoded here.
func resolveTexture(texture *scene.Object, idx *scene.Index, graph *scene.Graph) *scene.TextureRef {
	relative := document.PropString(document.Child(texture.Node, "RelativeFilename"), 0, "")
	if relative == "" {
		relative = document.PropString(document.Child(texture.Node, "FileName"), 0, "")
	}

	for _, e := range graph.ChildrenOf(texture.ID) {
		video := idx.Get(e.Child)
		if video == nil || video.Kind != "Video" {
			continue
		}
		content, _ := document.Prop(document.Child(video.Node, "Content"), 0).([]byte)
		if len(content) == 0 {
			continue
		}
		if relative == "" {
			relative = document.PropString(document.Child(video.Node, "RelativeFilename"), 0, "")
		}
		return &scene.TextureRef{
			Path:     syntheticPath(video.ID, relative),
			Embedded: true,
			Data:     content,
		}
	}

	if relative == "" {
		return nil
	}
	// host asset system resolves the (possibly relative) path; only the
	// separator style is normalized
	return &scene.TextureRef{Path: strings.ReplaceAll(relative, `\`, "/")}
}

func syntheticPath(videoID int64, relative string) string {
	base := path.Base(strings.ReplaceAll(relative, `\`, "/"))
	if base == "." || base == "/" {
		base = "texture"
	}
	return fmt.Sprintf("fbx-embedded-%v/%v", videoID, base)
}

func propColor(mat *scene.Object, name string) mgl32.Vec3 {
	c := document.Property70Vec3(mat.Node, name, [3]float64{1, 1, 1})
	return mgl32.Vec3{float32(c[0]), float32(c[1]), float32(c[2])}
}

// shininessToRoughness converts a Blinn-Phong exponent to GGX roughness.
func shininessToRoughness(shininess float64) float32 {
	if shininess <= 0 {
		return 1
	}
	return float32(math.Sqrt(2 / (shininess + 2)))
}
