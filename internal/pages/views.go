package pages

import (
	"embed"
	"io/fs"
	"net/http"

	"github.com/gofiber/template/html/v2"
)

//go:embed views/*.html
var embeddedViews embed.FS

// NewViews 基于内嵌模板构建 html 引擎，页面通过 layout 模板中的 {{embed}} 嵌入。
func NewViews() *html.Engine {
	sub, err := fs.Sub(embeddedViews, "views")
	if err != nil {
		panic(err)
	}
	return html.NewFileSystem(http.FS(sub), ".html")
}
