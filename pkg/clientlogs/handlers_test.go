package clientlogs

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/maktabaapp/maktaba/pkg/binder"
	"github.com/maktabaapp/maktaba/pkg/errcodes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T) *echo.Echo {
	t.Helper()
	e := echo.New()
	b, err := binder.New()
	require.NoError(t, err)
	e.Binder = b
	e.HTTPErrorHandler = errcodes.NewHandler().Handle
	RegisterRoutesWithGroup(e.Group("/api/logs"))
	return e
}

func post(e *echo.Echo, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/logs", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestWrite(t *testing.T) {
	e := setup(t)

	tests := []struct {
		name string
		body string
		code int
	}{
		{"info", `{"level":"info","message":"reader opened","context":{"bookId":3}}`, http.StatusOK},
		{"error", `{"level":"error","message":"render failed"}`, http.StatusOK},
		{"default level", `{"message":"hello"}`, http.StatusOK},
		{"bad level", `{"level":"fatal","message":"x"}`, http.StatusUnprocessableEntity},
		{"blank message", `{"level":"warn","message":"   "}`, http.StatusUnprocessableEntity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := post(e, tt.body)
			assert.Equal(t, tt.code, rec.Code, rec.Body.String())
			if tt.code == http.StatusOK {
				assert.JSONEq(t, `{"success":true}`, rec.Body.String())
			}
		})
	}
}

func TestContextData(t *testing.T) {
	long := strings.Repeat("a", maxDataValueLen+10)
	data := contextData(map[string]any{"page": float64(4), "stack": long})

	assert.Equal(t, "client", data["source"])
	assert.Equal(t, float64(4), data["client_page"])
	assert.Len(t, data["client_stack"], maxDataValueLen+3)

	many := map[string]any{}
	for i := 0; i < maxContextKeys+5; i++ {
		many[strings.Repeat("k", i+1)] = i
	}
	data = contextData(many)
	assert.Equal(t, true, data["truncated"])
	assert.Len(t, data, maxContextKeys+2)
}
