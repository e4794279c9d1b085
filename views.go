package authpage

import (
	"embed"
	"fmt"
	"io/fs"
	"net/http"

	"github.com/gofiber/template/django/v3"
)

//go:embed views/*.html views/layouts/*.html views/partials/*.html views/errors/*.html
var viewsFS embed.FS

// GetViewsFS returns the page templates rooted at the views directory
func GetViewsFS() fs.FS {
	sub, err := fs.Sub(viewsFS, "views")
	if err != nil {
		panic(fmt.Sprintf("authpage: views fs: %v", err))
	}
	return sub
}

// NewViewEngine returns a django engine serving the embedded templates.
// Pass it as fiber.Config.Views.
func NewViewEngine(debug bool) *django.Engine {
	engine := django.NewFileSystem(http.FS(GetViewsFS()), ".html")
	engine.Reload(debug)
	engine.Debug(debug)
	return engine
}
