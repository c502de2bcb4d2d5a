package binder

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type params struct {
	Hello string `json:"hello" mod:"trim" validate:"max=9"`
	Omit  string `json:"-"`
}

type assetParams struct {
	FileURL string `json:"fileUrl" validate:"asseturl"`
}

type queryParams struct {
	Status string `query:"status" validate:"omitempty,oneof=planned reading"`
	Limit  int    `query:"limit" default:"20"`
}

var (
	goodJSON             = `{"hello":" world "}`
	unknownFieldsErrJSON = `{"hello":"world","foo":"bar"}`
	typeErrJSON          = `{"hello":123}`
	validationErrJSON    = `{"hello":"0123456789"}`
)

func TestNew(t *testing.T) {
	t.Parallel()
	b, err := New()
	require.NoError(t, err)
	assert.NotNil(t, b)

	t.Run("only allows application/json and application/x-www-form-urlencoded", func(tt *testing.T) {
		c := newContext(goodJSON, echo.MIMEApplicationXML)
		p := params{}
		err = b.Bind(&p, c)
		assert.Contains(tt, err.Error(), "Unsupported Media Type")
	})

	t.Run("disallows unknown fields", func(tt *testing.T) {
		c := newContext(unknownFieldsErrJSON, echo.MIMEApplicationJSON)
		p := params{}
		err = b.Bind(&p, c)
		assert.Contains(tt, err.Error(), `Unknown Parameter "foo"`)
	})

	t.Run("returns a good message for type errors", func(tt *testing.T) {
		c := newContext(typeErrJSON, echo.MIMEApplicationJSON)
		p := params{}
		err = b.Bind(&p, c)
		assert.Contains(tt, err.Error(), `"hello" should be of type string`)
	})

	t.Run("use mod tag to modify params", func(tt *testing.T) {
		c := newContext(goodJSON, echo.MIMEApplicationJSON)
		p := params{}
		err = b.Bind(&p, c)
		require.NoError(tt, err)
		assert.Equal(tt, "world", p.Hello)
	})

	t.Run("use validate tag to validate params", func(tt *testing.T) {
		c := newContext(validationErrJSON, echo.MIMEApplicationJSON)
		p := params{}
		err = b.Bind(&p, c)
		assert.Contains(tt, err.Error(), "length must be less than or equal to 9 characters")
	})
}

func TestBind_AssetURL(t *testing.T) {
	t.Parallel()
	b, err := New()
	require.NoError(t, err)

	valid := []string{
		"",
		"/books/History/Jane%20Doe/novel.pdf",
		"/covers/a.jpg",
		"/attached_assets/x.png",
		"https://example.com/cover.jpg",
	}
	for _, v := range valid {
		c := newContext(`{"fileUrl":"`+v+`"}`, echo.MIMEApplicationJSON)
		p := assetParams{}
		assert.NoError(t, b.Bind(&p, c), v)
	}

	invalid := []string{
		"/etc/passwd",
		"/books/../secret",
		"ftp://example.com/x",
		"novel.pdf",
	}
	for _, v := range invalid {
		c := newContext(`{"fileUrl":"`+v+`"}`, echo.MIMEApplicationJSON)
		p := assetParams{}
		err := b.Bind(&p, c)
		require.Error(t, err, v)
		assert.Contains(t, err.Error(), `"fileUrl" must be a /books/`)
	}
}

func TestBind_Query(t *testing.T) {
	t.Parallel()
	b, err := New()
	require.NoError(t, err)

	e := echo.New()
	req := httptest.NewRequest(echo.GET, "/?status=reading", nil)
	c := e.NewContext(req, httptest.NewRecorder())
	p := queryParams{}
	require.NoError(t, b.Bind(&p, c))
	assert.Equal(t, "reading", p.Status)
	assert.Equal(t, 20, p.Limit)

	req = httptest.NewRequest(echo.GET, "/?status=lost", nil)
	c = e.NewContext(req, httptest.NewRecorder())
	err = b.Bind(&queryParams{}, c)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"status" must be one of the following`)

	req = httptest.NewRequest(echo.GET, "/?bogus=1", nil)
	c = e.NewContext(req, httptest.NewRecorder())
	err = b.Bind(&queryParams{}, c)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `Unknown Parameter "bogus"`)
}

func TestBind_EmptyBody(t *testing.T) {
	t.Parallel()
	b, err := New()
	require.NoError(t, err)

	c := newContext("", echo.MIMEApplicationJSON)
	err = b.Bind(&params{}, c)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Request body can't be empty.")
}

func newContext(payload, mime string) echo.Context {
	e := echo.New()
	req := httptest.NewRequest(echo.POST, "/", strings.NewReader(payload))
	req.Header.Set(echo.HeaderContentType, mime)
	rr := httptest.NewRecorder()
	return e.NewContext(req, rr)
}
