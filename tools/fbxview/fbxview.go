package main

import (
	"flag"
	"log"

	"github.com/mogaika/fbximport"
	"github.com/mogaika/fbximport/web"
)

func main() {
	var addr, dir, webPath string
	var pbr, profile bool
	flag.StringVar(&addr, "i", ":8000", "Address of server")
	flag.StringVar(&dir, "dir", ".", "Path to folder with fbx files")
	flag.StringVar(&webPath, "web", "web", "Path to folder with static web files")
	flag.BoolVar(&pbr, "pbr", false, "Recognize Maya/3dsMax pbr material properties")
	flag.BoolVar(&profile, "profile", false, "Log time spent per import stage")
	flag.Parse()

	opts := fbximport.Options{
		Profile:     profile,
		ExtendedPBR: pbr,
	}

	if err := web.StartServer(addr, dir, webPath, opts); err != nil {
		log.Fatal(err)
	}
}
