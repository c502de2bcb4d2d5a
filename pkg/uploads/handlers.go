package uploads

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/maktabaapp/maktaba/pkg/errcodes"
	"github.com/pkg/errors"
)

const fileField = "file"

type handler struct {
	uploadService *Service
}

func (h *handler) create(c echo.Context) error {
	params := UploadPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	fh, ok := params.FormFiles[fileField]
	if !ok || fh == nil {
		return errcodes.ValidationError(`"file" is required`)
	}

	result, err := h.uploadService.Save(c.Request().Context(), fh)
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusCreated, result))
}
