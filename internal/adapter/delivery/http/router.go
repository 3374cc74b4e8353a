// Package http provides the HTTP delivery layer for the bookmarks service.
// This package contains the HTTP handlers and related types used for processing
// incoming requests, resolving the caller's identity, validating input, and
// formatting responses.
package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v2"
	"github.com/go-playground/validator/v10"
	"github.com/vadimbarashkov/bookmarks/pkg/middleware/recoverer"

	httpSwagger "github.com/swaggo/http-swagger"
)

// NewRouter initializes and returns a new Chi router configured with middleware and routes for the bookmarks API.
func NewRouter(
	logger *httplog.Logger,
	identity identityResolver,
	bookmarkUseCase bookmarkUseCase,
	pagination Pagination,
) *chi.Mux {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*"},
		AllowedMethods:   []string{"POST", "GET", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "Accept"},
		AllowCredentials: false,
		MaxAge:           84600,
	}))
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(httplog.RequestLogger(logger))
	r.Use(recoverer.New(logger.Logger, serverErrorResponse))

	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/docs/swagger.yml"),
	))

	r.Get("/docs/swagger.yml", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, "./docs/swagger.yml")
	})

	h := newBookmarkHandler(bookmarkUseCase, validator.New(), pagination)

	r.Get("/{shortURL}", h.resolveShortURL)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/ping", handlePing)

		r.Route("/bookmarks", func(r chi.Router) {
			r.Use(authenticate(identity))

			r.Post("/", h.createBookmark)
			r.Get("/", h.listBookmarks)
			r.Get("/stats", h.getBookmarkStats)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.getBookmark)
				r.Put("/", h.updateBookmark)
				r.Patch("/", h.updateBookmark)
				r.Delete("/", h.deleteBookmark)
			})
		})
	})

	return r
}
