package assets

import (
	"net/http"
	"path/filepath"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

const safeFilePrefix = "/safe-file"

type handler struct {
	server *Server
}

// safeFile serves the desktop shell's safe-file://<path> requests, forwarded
// as /safe-file/<path>. PDFs are always shown inline.
func (h *handler) safeFile(c echo.Context) error {
	requested := strings.TrimPrefix(c.Request().URL.EscapedPath(), safeFilePrefix)

	f, err := h.server.open(c.Request().Context(), h.server.guard, requested)
	if err != nil {
		return err
	}

	ctype := f.contentType()
	c.Response().Header().Set(echo.HeaderContentType, ctype)
	if ctype == mimePDF {
		c.Response().Header().Set(echo.HeaderContentDisposition, "inline")
	}
	return errors.WithStack(c.File(f.path))
}

// static serves /books/, /covers/ and /attached_assets/ URLs exactly as they
// are stored on books.
func (h *handler) static(c echo.Context) error {
	f, err := h.server.open(c.Request().Context(), h.server.assetGuard, c.Request().URL.EscapedPath())
	if err != nil {
		return err
	}

	c.Response().Header().Set(echo.HeaderContentType, f.contentType())
	return errors.WithStack(c.File(f.path))
}

// content returns the raw bytes of a stored file so the reader can extract
// its text.
func (h *handler) content(c echo.Context) error {
	params := FileQuery{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	f, err := h.server.open(c.Request().Context(), h.server.assetGuard, params.Path)
	if err != nil {
		return err
	}

	c.Response().Header().Set(echo.HeaderContentType, echo.MIMEOctetStream)
	return errors.WithStack(c.File(f.path))
}

func (h *handler) download(c echo.Context) error {
	params := DownloadQuery{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	f, err := h.server.open(c.Request().Context(), h.server.guard, params.Path)
	if err != nil {
		return err
	}

	name := params.FileName
	if name == "" {
		name = filepath.Base(f.path)
	}
	c.Response().Header().Set(echo.HeaderContentType, f.contentType())
	return errors.WithStack(c.Attachment(f.path, name))
}

// open checks that a file may be opened by the desktop shell. The shell does
// the opening; the response never includes the resolved path.
func (h *handler) open(c echo.Context) error {
	params := OpenPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	f, err := h.server.open(c.Request().Context(), h.server.guard, params.Path)
	if err != nil {
		return err
	}

	resp := struct {
		Success bool   `json:"success"`
		Name    string `json:"name"`
		Size    int64  `json:"size"`
	}{true, filepath.Base(f.path), f.info.Size()}

	return errors.WithStack(c.JSON(http.StatusOK, resp))
}
