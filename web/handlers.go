package web

import (
	"bytes"
	"io/ioutil"
	"log"
	"net/http"
	"path"
	"sort"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/mogaika/fbximport"
	"github.com/mogaika/fbximport/document"
	"github.com/mogaika/fbximport/scene"
	"github.com/mogaika/fbximport/utils"
	"github.com/mogaika/fbximport/webutils"
)

func isImportable(name string) bool {
	for _, ext := range fbximport.Extensions() {
		if strings.HasSuffix(strings.ToLower(name), "."+ext) {
			return true
		}
	}
	return false
}

func readServedFile(name string) ([]byte, error) {
	if name != path.Base(name) {
		return nil, errors.Errorf("Invalid file name %q", name)
	}
	return ioutil.ReadFile(path.Join(ServerDirectory, name))
}

func loadScene(name string) (*scene.Scene, error) {
	data, err := readServedFile(name)
	if err != nil {
		return nil, err
	}
	return fbximport.Import(data, ServerOptions)
}

func HandlerAjaxList(w http.ResponseWriter, r *http.Request) {
	entries, err := ioutil.ReadDir(ServerDirectory)
	if err != nil {
		webutils.WriteError(w, err)
		return
	}

	files := make([]string, 0)
	for _, e := range entries {
		if !e.IsDir() && isImportable(e.Name()) {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)
	webutils.WriteJson(w, files)
}

type ajaxDocumentNode struct {
	Name       string
	Properties int
	Children   int
}

func HandlerAjaxDocument(w http.ResponseWriter, r *http.Request) {
	file := mux.Vars(r)["file"]
	data, err := readServedFile(file)
	if err != nil {
		webutils.WriteError(w, err)
		return
	}

	doc, err := document.Parse(data)
	if err != nil {
		webutils.WriteError(w, err)
		return
	}

	sections := make([]ajaxDocumentNode, 0, len(doc.Root.Nodes))
	for _, n := range doc.Root.Nodes {
		sections = append(sections, ajaxDocumentNode{
			Name:       n.Name,
			Properties: len(n.Properties),
			Children:   len(n.Nodes),
		})
	}

	webutils.WriteJson(w, map[string]interface{}{
		"Version":  doc.Version,
		"Sections": sections,
	})
}

type ajaxSceneNode struct {
	Name            string
	Translation     [3]float32
	RotationDegrees [3]float32
	Scale           [3]float32
	Mesh            int32
	Materials       []int32
	Children        []int32
}

type ajaxSceneMesh struct {
	Name      string
	Vertices  int
	Triangles int
	Normals   bool
	Tangents  bool
	UVs       bool
	Skinned   bool
}

type ajaxSceneChannel struct {
	Channel  string
	Color    [3]float32
	Factor   float32
	Texture  string
	Embedded bool
}

type ajaxSceneMaterial struct {
	Name     string
	Channels []ajaxSceneChannel
}

func HandlerAjaxScene(w http.ResponseWriter, r *http.Request) {
	file := mux.Vars(r)["file"]
	s, err := loadScene(file)
	if err != nil {
		webutils.WriteError(w, err)
		return
	}

	nodes := make([]ajaxSceneNode, len(s.Nodes))
	for i, n := range s.Nodes {
		nodes[i] = ajaxSceneNode{
			Name:            n.Name,
			Translation:     n.Transform.Translation,
			RotationDegrees: utils.RadiansToDegreeV3(utils.QuatToEuler(n.Transform.Rotation)),
			Scale:           n.Transform.Scale,
			Mesh:            n.Mesh,
			Materials:       n.Materials,
			Children:        n.Children,
		}
	}

	meshes := make([]ajaxSceneMesh, len(s.Meshes))
	for i, m := range s.Meshes {
		meshes[i] = ajaxSceneMesh{
			Name:      m.Name,
			Vertices:  len(m.Positions),
			Triangles: m.TriangleCount(),
			Normals:   len(m.Normals) != 0,
			Tangents:  len(m.Tangents) != 0,
			UVs:       len(m.UVs) != 0,
			Skinned:   len(m.Joints) != 0,
		}
	}

	materials := make([]ajaxSceneMaterial, len(s.Materials))
	for i, m := range s.Materials {
		am := ajaxSceneMaterial{Name: m.Name}
		for _, ch := range scene.AllChannels {
			v, ok := m.Channels[ch]
			if !ok {
				continue
			}
			ac := ajaxSceneChannel{
				Channel: ch.String(),
				Color:   v.Color,
				Factor:  v.Factor,
			}
			if v.Texture != nil {
				ac.Texture = v.Texture.Path
				ac.Embedded = v.Texture.Embedded
			}
			am.Channels = append(am.Channels, ac)
		}
		materials[i] = am
	}

	warnings := make([]string, len(s.Warnings))
	for i, warn := range s.Warnings {
		warnings[i] = warn.String()
	}

	webutils.WriteJson(w, map[string]interface{}{
		"Nodes":     nodes,
		"Meshes":    meshes,
		"Materials": materials,
		"Warnings":  warnings,
	})
}

func HandlerDumpScene(w http.ResponseWriter, r *http.Request) {
	file := mux.Vars(r)["file"]
	s, err := loadScene(file)
	if err != nil {
		webutils.WriteError(w, err)
		return
	}
	webutils.WriteJsonFile(w, s, file)
}

func HandlerDumpTexture(w http.ResponseWriter, r *http.Request) {
	file := mux.Vars(r)["file"]
	param := mux.Vars(r)["index"]

	index, err := strconv.Atoi(param)
	if err != nil {
		webutils.WriteError(w, errors.Errorf("Texture index %q is not integer", param))
		return
	}

	s, err := loadScene(file)
	if err != nil {
		webutils.WriteError(w, err)
		return
	}

	var embedded []*scene.TextureRef
	for _, m := range s.Materials {
		for _, ch := range scene.AllChannels {
			if v, ok := m.Channels[ch]; ok && v.Texture != nil && v.Texture.Embedded {
				embedded = append(embedded, v.Texture)
			}
		}
	}

	if index < 0 || index >= len(embedded) {
		webutils.WriteError(w, errors.Errorf("No embedded texture %v in %q", index, file))
		return
	}

	tex := embedded[index]
	log.Printf("[web] Serving embedded texture %v (%v bytes): %v",
		tex.Path, len(tex.Data), utils.DumpBytesPreview(tex.Data, 16))
	webutils.WriteFile(w, bytes.NewReader(tex.Data), path.Base(tex.Path))
}
