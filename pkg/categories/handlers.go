package categories

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/maktabaapp/maktaba/pkg/organizer"
	"github.com/maktabaapp/maktaba/pkg/store"
	"github.com/pkg/errors"
)

type handler struct {
	store      store.Store
	maintainer *organizer.Maintainer
}

func (h *handler) list(c echo.Context) error {
	names, err := h.store.ListCategories(c.Request().Context())
	if err != nil {
		return errors.WithStack(err)
	}
	return errors.WithStack(c.JSON(http.StatusOK, names))
}

// rename moves every book of a category, and its folder, to a new name. Items
// that could not be moved are listed in the result; the request still
// succeeds.
func (h *handler) rename(c echo.Context) error {
	params := RenameCategoryPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	result, err := h.maintainer.RenameCategory(c.Request().Context(), params.OldName, params.NewName)
	if err != nil {
		return errors.WithStack(err)
	}
	return errors.WithStack(c.JSON(http.StatusOK, result))
}

func (h *handler) delete(c echo.Context) error {
	params := DeleteCategoryQuery{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	result, err := h.maintainer.DeleteCategory(c.Request().Context(), params.Name)
	if err != nil {
		return errors.WithStack(err)
	}
	return errors.WithStack(c.JSON(http.StatusOK, result))
}
