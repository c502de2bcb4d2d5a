package authors

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
	names, err := h.store.ListAuthors(c.Request().Context())
	if err != nil {
		return errors.WithStack(err)
	}
	return errors.WithStack(c.JSON(http.StatusOK, names))
}

// rename renames an author across every category folder.
func (h *handler) rename(c echo.Context) error {
	params := RenameAuthorPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	result, err := h.maintainer.RenameAuthor(c.Request().Context(), params.OldName, params.NewName)
	if err != nil {
		return errors.WithStack(err)
	}
	return errors.WithStack(c.JSON(http.StatusOK, result))
}

func (h *handler) delete(c echo.Context) error {
	params := DeleteAuthorQuery{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	result, err := h.maintainer.DeleteAuthor(c.Request().Context(), params.Name)
	if err != nil {
		return errors.WithStack(err)
	}
	return errors.WithStack(c.JSON(http.StatusOK, result))
}
