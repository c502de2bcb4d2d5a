package assets

import (
	"github.com/labstack/echo/v4"
	"github.com/maktabaapp/maktaba/pkg/sandbox"
)

// RegisterRoutes mounts the desktop safe-file protocol, the static
// namespaces on e and the file API under api.
func RegisterRoutes(e *echo.Echo, api *echo.Group, roots sandbox.Roots) {
	h := &handler{server: NewServer(roots)}

	e.GET("/safe-file/*", h.safeFile)
	e.HEAD("/safe-file/*", h.safeFile)

	for _, prefix := range []string{sandbox.BooksPrefix, sandbox.CoversPrefix, sandbox.AttachedAssetsPrefix} {
		e.GET(prefix+"/*", h.static)
		e.HEAD(prefix+"/*", h.static)
	}

	g := api.Group("/files")
	g.GET("/content", h.content)
	g.GET("/download", h.download)
	g.POST("/open", h.open)
}
