package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httplog/v2"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
	"github.com/vadimbarashkov/bookmarks/internal/entity"
)

func handlePing(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, "pong")
}

type bookmarkUseCase interface {
	CreateBookmark(ctx context.Context, userID, url, body string) (*entity.Bookmark, error)
	ListBookmarks(ctx context.Context, userID string, req entity.PageRequest) (*entity.Page, error)
	GetBookmark(ctx context.Context, userID string, id int64) (*entity.Bookmark, error)
	UpdateBookmark(ctx context.Context, userID string, id int64, url, body string) (*entity.Bookmark, error)
	DeleteBookmark(ctx context.Context, userID string, id int64) error
	GetBookmarkStats(ctx context.Context, userID string) ([]entity.Bookmark, error)
	ResolveShortURL(ctx context.Context, shortURL string) (*entity.Bookmark, error)
}

// Pagination controls the page size of bookmark listings.
type Pagination struct {
	DefaultPerPage int
	MaxPerPage     int
}

type bookmarkHandler struct {
	useCase    bookmarkUseCase
	validate   *validator.Validate
	pagination Pagination
}

func newBookmarkHandler(useCase bookmarkUseCase, validate *validator.Validate, pagination Pagination) *bookmarkHandler {
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return &bookmarkHandler{
		useCase:    useCase,
		validate:   validate,
		pagination: pagination,
	}
}

// queryInt reads an integer query parameter, falling back to def when it is
// absent or not an integer.
func queryInt(r *http.Request, key string, def int) int {
	n, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil {
		return def
	}
	return n
}

func (h *bookmarkHandler) pageRequest(r *http.Request) entity.PageRequest {
	page := queryInt(r, "page", 1)
	if page < 1 {
		page = 1
	}

	perPage := queryInt(r, "per_page", h.pagination.DefaultPerPage)
	if perPage < 1 {
		perPage = h.pagination.DefaultPerPage
	}
	if h.pagination.MaxPerPage > 0 && perPage > h.pagination.MaxPerPage {
		perPage = h.pagination.MaxPerPage
	}

	// Keep (page-1)*perPage within int so the offset never wraps negative.
	if perPage > 0 && page > math.MaxInt/perPage {
		page = math.MaxInt / perPage
	}

	return entity.PageRequest{Page: page, PerPage: perPage}
}

// decodeBookmarkRequest decodes and validates the request body. It writes the
// error response itself and reports whether the handler may continue.
func (h *bookmarkHandler) decodeBookmarkRequest(w http.ResponseWriter, r *http.Request) (bookmarkRequest, bool) {
	var req bookmarkRequest

	if err := render.DecodeJSON(r.Body, &req); err != nil {
		if errors.Is(err, io.EOF) {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, emptyRequestBodyResponse)
			return req, false
		}

		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, invalidRequestBodyResponse)
		return req, false
	}

	if err := h.validate.Struct(req); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, validationErrorResponse(err))
		return req, false
	}

	return req, true
}

// bookmarkID parses the {id} path parameter. Ids that aren't integers can't name
// any bookmark, so they are answered with 404.
func bookmarkID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, bookmarkNotFoundResponse)
		return 0, false
	}
	return id, true
}

func serverError(w http.ResponseWriter, r *http.Request, err error) {
	httplog.LogEntrySetField(r.Context(), "err", slog.AnyValue(err))

	render.Status(r, http.StatusInternalServerError)
	render.JSON(w, r, serverErrorResponse)
}

func (h *bookmarkHandler) createBookmark(w http.ResponseWriter, r *http.Request) {
	userID, _ := userIDFromContext(r.Context())

	req, ok := h.decodeBookmarkRequest(w, r)
	if !ok {
		return
	}

	bookmark, err := h.useCase.CreateBookmark(r.Context(), userID, req.URL, req.Body)
	if err != nil {
		if errors.Is(err, entity.ErrURLExists) {
			render.Status(r, http.StatusConflict)
			render.JSON(w, r, urlExistsResponse)
			return
		}

		serverError(w, r, err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, toBookmarkResponse(bookmark))
}

func (h *bookmarkHandler) listBookmarks(w http.ResponseWriter, r *http.Request) {
	userID, _ := userIDFromContext(r.Context())

	page, err := h.useCase.ListBookmarks(r.Context(), userID, h.pageRequest(r))
	if err != nil {
		serverError(w, r, err)
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, toBookmarkListResponse(page))
}

func (h *bookmarkHandler) getBookmark(w http.ResponseWriter, r *http.Request) {
	userID, _ := userIDFromContext(r.Context())

	id, ok := bookmarkID(w, r)
	if !ok {
		return
	}

	bookmark, err := h.useCase.GetBookmark(r.Context(), userID, id)
	if err != nil {
		if errors.Is(err, entity.ErrBookmarkNotFound) {
			render.Status(r, http.StatusNotFound)
			render.JSON(w, r, bookmarkNotFoundResponse)
			return
		}

		serverError(w, r, err)
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, toBookmarkResponse(bookmark))
}

// updateBookmark serves both PUT and PATCH: url and body are always overwritten.
// Ownership is resolved before the body is validated, so a bookmark the caller
// doesn't own is reported as 404 whatever the payload.
func (h *bookmarkHandler) updateBookmark(w http.ResponseWriter, r *http.Request) {
	userID, _ := userIDFromContext(r.Context())

	id, ok := bookmarkID(w, r)
	if !ok {
		return
	}

	if _, err := h.useCase.GetBookmark(r.Context(), userID, id); err != nil {
		if errors.Is(err, entity.ErrBookmarkNotFound) {
			render.Status(r, http.StatusNotFound)
			render.JSON(w, r, bookmarkNotFoundResponse)
			return
		}

		serverError(w, r, err)
		return
	}

	req, ok := h.decodeBookmarkRequest(w, r)
	if !ok {
		return
	}

	bookmark, err := h.useCase.UpdateBookmark(r.Context(), userID, id, req.URL, req.Body)
	if err != nil {
		if errors.Is(err, entity.ErrBookmarkNotFound) {
			render.Status(r, http.StatusNotFound)
			render.JSON(w, r, bookmarkNotFoundResponse)
			return
		}

		serverError(w, r, err)
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, toBookmarkResponse(bookmark))
}

func (h *bookmarkHandler) deleteBookmark(w http.ResponseWriter, r *http.Request) {
	userID, _ := userIDFromContext(r.Context())

	id, ok := bookmarkID(w, r)
	if !ok {
		return
	}

	if err := h.useCase.DeleteBookmark(r.Context(), userID, id); err != nil {
		if errors.Is(err, entity.ErrBookmarkNotFound) {
			render.Status(r, http.StatusNotFound)
			render.JSON(w, r, bookmarkNotFoundResponse)
			return
		}

		serverError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *bookmarkHandler) getBookmarkStats(w http.ResponseWriter, r *http.Request) {
	userID, _ := userIDFromContext(r.Context())

	bookmarks, err := h.useCase.GetBookmarkStats(r.Context(), userID)
	if err != nil {
		serverError(w, r, err)
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, toBookmarkStatsResponse(bookmarks))
}

func (h *bookmarkHandler) resolveShortURL(w http.ResponseWriter, r *http.Request) {
	shortURL := chi.URLParam(r, "shortURL")

	bookmark, err := h.useCase.ResolveShortURL(r.Context(), shortURL)
	if err != nil {
		if errors.Is(err, entity.ErrBookmarkNotFound) {
			render.Status(r, http.StatusNotFound)
			render.JSON(w, r, bookmarkNotFoundResponse)
			return
		}

		serverError(w, r, err)
		return
	}

	http.Redirect(w, r, bookmark.URL, http.StatusFound)
}
