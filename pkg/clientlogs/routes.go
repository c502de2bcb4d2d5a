package clientlogs

import "github.com/labstack/echo/v4"

// RegisterRoutesWithGroup registers the client log sink on a pre-configured
// group.
func RegisterRoutesWithGroup(g *echo.Group) {
	h := &handler{}

	g.POST("", h.write)
}
