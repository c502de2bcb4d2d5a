package categories

import (
	"github.com/labstack/echo/v4"
	"github.com/maktabaapp/maktaba/pkg/organizer"
	"github.com/maktabaapp/maktaba/pkg/store"
)

// RegisterRoutesWithGroup registers category routes on a pre-configured group.
func RegisterRoutesWithGroup(g *echo.Group, s store.Store, m *organizer.Maintainer) {
	h := &handler{store: s, maintainer: m}

	g.GET("", h.list)
	g.PUT("", h.rename)
	g.DELETE("", h.delete)
}
