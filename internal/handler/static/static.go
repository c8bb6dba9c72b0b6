// Package static serves the embedded browser chat widget.
package static

import (
	"embed"
	"io/fs"
	"net/http"
)

//go:embed assets
var assets embed.FS

// Handler serves index.html at / and the widget's other assets by name.
func Handler() http.Handler {
	sub, err := fs.Sub(assets, "assets")
	if err != nil {
		// 嵌入目录在编译期确定，这里不会失败。
		panic(err)
	}
	return http.FileServer(http.FS(sub))
}
