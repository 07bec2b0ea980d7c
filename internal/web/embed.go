// Package web wires the fiber app: middlewares, templates and page handlers.
package web

import (
	"embed"
	"io/fs"
	"net/http"
)

//go:embed templates static
var assets embed.FS

// assetDir returns one directory of the embedded assets as http.FileSystem.
func assetDir(dir string) http.FileSystem {
	sub, err := fs.Sub(assets, dir)
	if err != nil {
		// dir is one of the embedded directories, fs.Sub only fails for invalid names
		panic(err)
	}

	return http.FS(sub)
}
