package errcodes

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/segmentio/encoding/json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func render(t *testing.T, err error) (int, Payload) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	NewHandler().Handle(err, c)

	var payload Payload
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	return rec.Code, payload
}

func TestHandle_CustomError(t *testing.T) {
	code, payload := render(t, errors.WithStack(NotFound("Book")))
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "not_found", payload.Error.Code)
	assert.Equal(t, "Book not found.", payload.Error.Message)
	assert.Equal(t, http.StatusNotFound, payload.Error.StatusCode)
}

func TestHandle_AccessDenied(t *testing.T) {
	code, payload := render(t, AccessDenied())
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, "access_denied", payload.Error.Code)
}

func TestHandle_EchoError(t *testing.T) {
	code, payload := render(t, echo.NewHTTPError(http.StatusMethodNotAllowed, "Method Not Allowed"))
	assert.Equal(t, http.StatusMethodNotAllowed, code)
	assert.Equal(t, "method_not_allowed", payload.Error.Code)
}

func TestHandle_GenericErrorHidesMessage(t *testing.T) {
	code, payload := render(t, errors.New("open /home/me/Books/secret.pdf: permission denied"))
	assert.Equal(t, http.StatusInternalServerError, code)
	assert.Equal(t, "internal_server_error", payload.Error.Code)
	assert.Equal(t, "Internal Server Error", payload.Error.Message)
}

func TestErrorIs(t *testing.T) {
	err := errors.Wrap(NotFound("Book"), "retrieve")
	assert.True(t, errors.Is(err, NotFound("Anything")))
	assert.False(t, errors.Is(err, AccessDenied()))
}
