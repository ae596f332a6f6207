package web

import (
	"log"
	"net/http"
	"os"
	"path"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/mogaika/fbximport"
)

var ServerDirectory string
var ServerOptions fbximport.Options

func StartServer(addr string, dir string, webPath string, opts fbximport.Options) error {
	ServerDirectory = dir
	ServerOptions = opts

	r := mux.NewRouter()
	r.HandleFunc("/json/list", HandlerAjaxList)
	r.HandleFunc("/json/document/{file}", HandlerAjaxDocument)
	r.HandleFunc("/json/scene/{file}", HandlerAjaxScene)
	r.HandleFunc("/dump/scene/{file}", HandlerDumpScene)
	r.HandleFunc("/dump/texture/{file}/{index}", HandlerDumpTexture)

	r.PathPrefix("/").Handler(http.FileServer(http.Dir(path.Join(webPath, "data"))))

	h := handlers.RecoveryHandler()(r)
	h = handlers.LoggingHandler(os.Stdout, h)

	log.Printf("[web] Starting server %v", addr)

	return http.ListenAndServe(addr, h)
}
