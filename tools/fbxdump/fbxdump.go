package main

import (
	"flag"
	"fmt"
	"io/ioutil"
	"log"
	"strings"

	"github.com/mogaika/fbximport"
	"github.com/mogaika/fbximport/document"
	"github.com/mogaika/fbximport/scene"
	"github.com/mogaika/fbximport/utils"
)

func dumpDocument(data []byte) error {
	doc, err := document.Parse(data)
	if err != nil {
		return err
	}
	fmt.Printf("FBX version %v\n", doc.Version)
	utils.Dump(doc.Root)
	return nil
}

func dumpScene(s *scene.Scene, verbose bool) {
	s.Walk(func(n *scene.Node, depth int) {
		indent := strings.Repeat("  ", depth)
		e := utils.RadiansToDegreeV3(utils.QuatToEuler(n.Transform.Rotation))
		fmt.Printf("%v%q t=%v r=%v s=%v", indent, n.Name, n.Transform.Translation, e, n.Transform.Scale)
		if n.Mesh != scene.NoMesh {
			fmt.Printf(" mesh=%v materials=%v", n.Mesh, n.Materials)
		}
		fmt.Printf("\n")
	})

	for i, m := range s.Meshes {
		fmt.Printf("mesh %v %q: %v vertices, %v triangles", i, m.Name, len(m.Positions), m.TriangleCount())
		if len(m.Normals) != 0 {
			fmt.Printf(", normals")
		}
		if len(m.Tangents) != 0 {
			fmt.Printf(", tangents")
		}
		if len(m.UVs) != 0 {
			fmt.Printf(", uvs")
		}
		if len(m.Joints) != 0 {
			fmt.Printf(", %v joints", len(m.JointModels))
		}
		fmt.Printf("\n")
	}

	for i, m := range s.Materials {
		fmt.Printf("material %v %q:\n", i, m.Name)
		for _, ch := range scene.AllChannels {
			v, ok := m.Channels[ch]
			if !ok {
				continue
			}
			fmt.Printf("  %v: color=%v factor=%v", ch, v.Color, v.Factor)
			if v.Texture != nil {
				fmt.Printf(" texture=%q", v.Texture.Path)
				if v.Texture.Embedded {
					fmt.Printf(" (embedded %v bytes: %v)", len(v.Texture.Data),
						utils.DumpBytesPreview(v.Texture.Data, 8))
				}
			}
			fmt.Printf("\n")
		}
	}

	for _, warn := range s.Warnings {
		fmt.Printf("warning: %v\n", warn)
	}

	if verbose {
		utils.Dump(s)
	}
}

func main() {
	var file string
	var rawDocument, verbose, pbr, profile bool
	flag.StringVar(&file, "f", "", "Path to fbx file")
	flag.BoolVar(&rawDocument, "doc", false, "Dump raw document tree instead of converted scene")
	flag.BoolVar(&verbose, "v", false, "Spew entire converted scene")
	flag.BoolVar(&pbr, "pbr", false, "Recognize Maya/3dsMax pbr material properties")
	flag.BoolVar(&profile, "profile", false, "Log time spent per import stage")
	flag.Parse()

	if file == "" {
		flag.PrintDefaults()
		return
	}

	data, err := ioutil.ReadFile(file)
	if err != nil {
		log.Fatal(err)
	}

	if rawDocument {
		if err := dumpDocument(data); err != nil {
			log.Fatal(err)
		}
		return
	}

	s, err := fbximport.Import(data, fbximport.Options{
		Profile:     profile,
		ExtendedPBR: pbr,
	})
	if err != nil {
		log.Fatal(err)
	}

	dumpScene(s, verbose)
}
