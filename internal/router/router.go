// Package router sets up all HTTP routes and middleware chains for
// PicoBlog. It organizes routes into public, feed and admin groups with
// appropriate middleware stacks. URL segments come from config.Blog.
package router

import (
	"context"
	"encoding/json"
	"io/fs"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"picoblog/internal/config"
	"picoblog/internal/handlers"
	"picoblog/internal/metrics"
	"picoblog/internal/middleware"
	"picoblog/web"
)

// Options configures the router.
type Options struct {
	Blog config.Blog

	// SecureCookies marks the CSRF cookie Secure; set behind TLS.
	SecureCookies bool

	// AdminLimiter throttles admin writes per client. Nil disables it.
	AdminLimiter *middleware.RateLimiter

	// Health reports whether the backing services are reachable. Nil
	// always reports ok.
	Health func(ctx context.Context) error
}

// New creates and returns the configured Chi router with all middleware
// and route groups wired up.
func New(opts Options, admin *handlers.Admin, public *handlers.Public) chi.Router {
	r := chi.NewRouter()
	b := opts.Blog

	// Global middleware, applied to every request.
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)
	r.Use(middleware.SecureHeaders)

	r.Get("/health", healthHandler(opts.Health))
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	// Admin screens with CSRF protection. Access control is left to the
	// reverse proxy in front of the blog.
	r.Route("/admin", func(r chi.Router) {
		r.Use(middleware.NewCSRF(opts.SecureCookies))

		r.Get("/", admin.List)
		r.Get("/article/new", admin.New)
		r.Get("/article/edit/{id}", admin.Edit)
		r.Get("/article/delete", admin.ConfirmDelete)

		r.Group(func(r chi.Router) {
			if opts.AdminLimiter != nil {
				r.Use(opts.AdminLimiter.Middleware)
			}
			r.Post("/article/save", admin.Save)
			r.Post("/article/delete", admin.Delete)
		})
	})

	// The feed may be fetched by browser-based readers on other origins.
	r.Group(func(r chi.Router) {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{http.MethodGet, http.MethodHead, http.MethodOptions},
			MaxAge:         3600,
		}))
		r.Get("/"+b.RSS2Path, public.RSS)
		r.Options("/"+b.RSS2Path, func(w http.ResponseWriter, r *http.Request) {})
	})

	// Static assets and the generated highlighting stylesheet.
	static, _ := fs.Sub(web.StaticFS, "static")
	r.Get("/"+b.MediaPath+"/chroma.css", public.Stylesheet)
	r.Handle("/"+b.MediaPath+"/*", http.StripPrefix("/"+b.MediaPath+"/", http.FileServerFS(static)))

	// Public pages.
	r.Get("/", public.FrontPage)
	r.Get("/"+b.ArticlePath+"/{id}", public.Article)
	r.Get("/"+b.TagPath+"/{tag}", public.Tag)
	r.Get("/"+b.DatePath+"/{month}", public.Month)
	r.Get("/"+b.ArchivePath, public.Archive)

	r.NotFound(public.NotFound)

	return r
}

// healthHandler returns a JSON health check response. When check fails the
// status is 503.
func healthHandler(check func(ctx context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := http.StatusOK
		body := map[string]string{"status": "ok", "version": config.Version}

		if check != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := check(ctx); err != nil {
				status = http.StatusServiceUnavailable
				body["status"] = "unavailable"
				body["error"] = err.Error()
			}
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(body)
	}
}
