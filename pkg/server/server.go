package server

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/maktabaapp/maktaba/pkg/assets"
	"github.com/maktabaapp/maktaba/pkg/authors"
	"github.com/maktabaapp/maktaba/pkg/binder"
	"github.com/maktabaapp/maktaba/pkg/books"
	"github.com/maktabaapp/maktaba/pkg/categories"
	"github.com/maktabaapp/maktaba/pkg/clientlogs"
	"github.com/maktabaapp/maktaba/pkg/config"
	"github.com/maktabaapp/maktaba/pkg/errcodes"
	"github.com/maktabaapp/maktaba/pkg/organizer"
	"github.com/maktabaapp/maktaba/pkg/ratelimit"
	"github.com/maktabaapp/maktaba/pkg/sandbox"
	"github.com/maktabaapp/maktaba/pkg/store"
	"github.com/maktabaapp/maktaba/pkg/uploads"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/echo/v4/health"
	"github.com/robinjoseph08/golib/echo/v4/middleware/logger"
	"github.com/robinjoseph08/golib/echo/v4/middleware/recovery"
)

var contentSecurityPolicy = strings.Join([]string{
	"default-src 'self'",
	"script-src 'self' 'unsafe-inline' 'unsafe-eval' https://unpkg.com",
	"style-src 'self' 'unsafe-inline' https://fonts.googleapis.com https://unpkg.com",
	"font-src 'self' https://fonts.gstatic.com",
	"img-src 'self' data: blob: https:",
	"connect-src 'self' http://127.0.0.1:* ws://127.0.0.1:* http://localhost:* ws://localhost:* safe-file: https://unpkg.com",
	"frame-src 'self' blob: safe-file:",
	"worker-src 'self' blob: https://unpkg.com",
}, "; ")

func New(cfg *config.Config, s store.Store) (*http.Server, error) {
	e := echo.New()

	b, err := binder.New()
	if err != nil {
		return nil, errors.WithStack(err)
	}
	e.Binder = b

	e.Use(logger.Middleware())
	e.Use(recovery.Middleware())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOriginFunc:  allowOrigin(cfg.AllowedOrigins),
		AllowMethods:     []string{http.MethodGet, http.MethodHead, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowHeaders:     []string{echo.HeaderContentType, echo.HeaderAuthorization},
		AllowCredentials: true,
	}))
	e.Use(middleware.SecureWithConfig(middleware.SecureConfig{
		XSSProtection:         "0",
		ContentTypeNosniff:    "nosniff",
		XFrameOptions:         "SAMEORIGIN",
		ContentSecurityPolicy: contentSecurityPolicy,
		ReferrerPolicy:        "no-referrer",
	}))
	e.Use(crossOriginResources)
	e.Use(middleware.BodyLimit(strconv.FormatInt(cfg.MaxUploadBytes, 10) + "B"))

	health.RegisterRoutes(e)

	roots := sandbox.RootsFromConfig(cfg)
	org := organizer.New(roots)
	maintainer := organizer.NewMaintainer(s, org)

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.ServerHost, cfg.ServerPort),
		Handler:           e,
		ReadHeaderTimeout: 3 * time.Second,
	}

	api := e.Group("/api")
	if cfg.RateLimitRequests > 0 {
		krl := ratelimit.New(cfg.RateLimitRequests, cfg.RateLimitWindow)
		api.Use(ratelimit.Middleware(krl))
		srv.RegisterOnShutdown(krl.Stop)
	}

	books.RegisterRoutesWithGroup(api.Group("/books"), books.NewService(s, org))
	categories.RegisterRoutesWithGroup(api.Group("/categories"), s, maintainer)
	authors.RegisterRoutesWithGroup(api.Group("/authors"), s, maintainer)
	uploads.RegisterRoutesWithGroup(api.Group("/uploads"), uploads.NewService(roots))
	clientlogs.RegisterRoutesWithGroup(api.Group("/logs"))
	assets.RegisterRoutes(e, api, roots)

	echo.NotFoundHandler = notFoundHandler
	e.HTTPErrorHandler = errcodes.NewHandler().Handle

	return srv, nil
}

// allowOrigin accepts requests from the local UI, the desktop shell and any
// configured origin.
func allowOrigin(extra []string) func(origin string) (bool, error) {
	return func(origin string) (bool, error) {
		if origin == "null" || strings.HasPrefix(origin, "file://") {
			return true, nil
		}
		if u, err := url.Parse(origin); err == nil && u.Scheme == "http" {
			if host := u.Hostname(); host == "localhost" || host == "127.0.0.1" {
				return true, nil
			}
		}
		for _, o := range extra {
			if o == origin {
				return true, nil
			}
		}
		return false, nil
	}
}

// crossOriginResources lets the desktop shell embed PDFs and covers served
// from this origin.
func crossOriginResources(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		c.Response().Header().Set("Cross-Origin-Resource-Policy", "cross-origin")
		return next(c)
	}
}

func notFoundHandler(c echo.Context) error {
	c.SetPath("/:path")
	return errcodes.NotFound("Page")
}
