package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/maktabaapp/maktaba/pkg/config"
	"github.com/maktabaapp/maktaba/pkg/sandbox"
	"github.com/maktabaapp/maktaba/pkg/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, mutate func(cfg *config.Config)) (*config.Config, store.Store, http.Handler) {
	t.Helper()
	cfg := config.NewForTest(t.TempDir())
	if mutate != nil {
		mutate(cfg)
	}
	require.NoError(t, PrepareDirs(sandbox.RootsFromConfig(cfg)))

	s, err := OpenStore(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	srv, err := New(cfg, s)
	require.NoError(t, err)
	t.Cleanup(func() { srv.Shutdown(context.Background()) })
	return cfg, s, srv.Handler
}

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestServer_Routes(t *testing.T) {
	_, _, h := newTestServer(t, nil)

	rec := serve(h, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = serve(h, httptest.NewRequest(http.MethodGet, "/api/books", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	rec = serve(h, httptest.NewRequest(http.MethodGet, "/api/categories", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = serve(h, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "not_found")

	rec = serve(h, httptest.NewRequest(http.MethodGet, "/safe-file/etc/passwd", nil))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestServer_SecurityHeaders(t *testing.T) {
	_, _, h := newTestServer(t, nil)

	rec := serve(h, httptest.NewRequest(http.MethodGet, "/api/books", nil))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "SAMEORIGIN", rec.Header().Get("X-Frame-Options"))
	assert.Equal(t, "cross-origin", rec.Header().Get("Cross-Origin-Resource-Policy"))
	assert.Contains(t, rec.Header().Get("Content-Security-Policy"), "frame-src 'self' blob: safe-file:")
}

func TestServer_CORS(t *testing.T) {
	_, _, h := newTestServer(t, func(cfg *config.Config) {
		cfg.AllowedOrigins = []string{"https://library.example"}
	})

	tests := []struct {
		origin  string
		allowed bool
	}{
		{"http://localhost:5173", true},
		{"http://127.0.0.1:5000", true},
		{"file://", true},
		{"null", true},
		{"https://library.example", true},
		{"http://localhost.evil.example", false},
		{"https://evil.example", false},
	}

	for _, tt := range tests {
		t.Run(tt.origin, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/books", nil)
			req.Header.Set("Origin", tt.origin)
			rec := serve(h, req)

			if tt.allowed {
				assert.Equal(t, tt.origin, rec.Header().Get("Access-Control-Allow-Origin"))
			} else {
				assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
			}
		})
	}
}

func TestServer_RateLimit(t *testing.T) {
	_, _, h := newTestServer(t, func(cfg *config.Config) {
		cfg.RateLimitRequests = 2
	})

	for i := 0; i < 2; i++ {
		rec := serve(h, httptest.NewRequest(http.MethodGet, "/api/books", nil))
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec := serve(h, httptest.NewRequest(http.MethodGet, "/api/books", nil))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	// Only /api is limited.
	rec = serve(h, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestServer_BodyLimit(t *testing.T) {
	_, _, h := newTestServer(t, func(cfg *config.Config) {
		cfg.MaxUploadBytes = 16
	})

	req := httptest.NewRequest(http.MethodPost, "/api/logs", strings.NewReader(`{"level":"info","message":"this body is too long"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := serve(h, req)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestOpenStore_JSON(t *testing.T) {
	cfg, s, h := newTestServer(t, func(cfg *config.Config) {
		cfg.StorageBackend = config.StorageBackendJSON
		cfg.SeedSampleBooks = true
	})

	require.NoError(t, Seed(context.Background(), cfg, s))
	list, err := s.ListBooks(context.Background(), store.ListOptions{})
	require.NoError(t, err)
	assert.NotEmpty(t, list)
	assert.FileExists(t, cfg.JSONFilePath)

	rec := serve(h, httptest.NewRequest(http.MethodGet, "/api/books?status=planned", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSeed_Disabled(t *testing.T) {
	cfg, s, _ := newTestServer(t, nil)

	require.NoError(t, Seed(context.Background(), cfg, s))
	list, err := s.ListBooks(context.Background(), store.ListOptions{})
	require.NoError(t, err)
	assert.Empty(t, list)
}
