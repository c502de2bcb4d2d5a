package uploads

import (
	"github.com/labstack/echo/v4"
)

// RegisterRoutesWithGroup registers upload routes on a pre-configured group.
func RegisterRoutesWithGroup(g *echo.Group, svc *Service) {
	h := &handler{uploadService: svc}

	g.POST("", h.create)
}
