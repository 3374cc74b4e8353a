package http

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/vadimbarashkov/bookmarks/internal/entity"
)

const statusError = "error"

// bookmarkRequest represents the structure for a request to create or update a bookmark.
// An omitted body is stored as an empty string.
type bookmarkRequest struct {
	URL  string `json:"url" validate:"required,http_url"`
	Body string `json:"body"`
}

// bookmarkResponse represents the structure for a response containing a bookmark.
type bookmarkResponse struct {
	ID        int64     `json:"id"`
	URL       string    `json:"url"`
	ShortURL  string    `json:"short_url"`
	Visits    int64     `json:"visits"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// toBookmarkResponse converts an entity.Bookmark to a bookmarkResponse.
func toBookmarkResponse(bookmark *entity.Bookmark) bookmarkResponse {
	return bookmarkResponse{
		ID:        bookmark.ID,
		URL:       bookmark.URL,
		ShortURL:  bookmark.ShortURL,
		Visits:    bookmark.Visits,
		Body:      bookmark.Body,
		CreatedAt: bookmark.CreatedAt,
		UpdatedAt: bookmark.UpdatedAt,
	}
}

// paginationMeta describes the position of a page within the full listing.
type paginationMeta struct {
	Page            int   `json:"page"`
	Pages           int   `json:"pages"`
	TotalCount      int64 `json:"total_count"`
	NextPage        *int  `json:"next_page"`
	PreviousPage    *int  `json:"previous_page"`
	HasNextPage     bool  `json:"has_next_page"`
	HasPreviousPage bool  `json:"has_previous_page"`
}

// bookmarkListResponse represents the structure for a paginated list of bookmarks.
type bookmarkListResponse struct {
	Data []bookmarkResponse `json:"data"`
	Meta paginationMeta     `json:"meta"`
}

// toBookmarkListResponse converts an entity.Page to a bookmarkListResponse.
func toBookmarkListResponse(page *entity.Page) bookmarkListResponse {
	data := make([]bookmarkResponse, 0, len(page.Items))
	for i := range page.Items {
		data = append(data, toBookmarkResponse(&page.Items[i]))
	}

	return bookmarkListResponse{
		Data: data,
		Meta: paginationMeta{
			Page:            page.Page,
			Pages:           page.Pages(),
			TotalCount:      page.Total,
			NextPage:        page.NextPage(),
			PreviousPage:    page.PrevPage(),
			HasNextPage:     page.HasNext(),
			HasPreviousPage: page.HasPrev(),
		},
	}
}

type bookmarkStats struct {
	ID       int64  `json:"id"`
	URL      string `json:"url"`
	ShortURL string `json:"short_url"`
	Visits   int64  `json:"visits"`
}

// bookmarkStatsResponse represents the structure for a response containing visit statistics.
type bookmarkStatsResponse struct {
	Data []bookmarkStats `json:"data"`
}

func toBookmarkStatsResponse(bookmarks []entity.Bookmark) bookmarkStatsResponse {
	data := make([]bookmarkStats, 0, len(bookmarks))
	for _, b := range bookmarks {
		data = append(data, bookmarkStats{
			ID:       b.ID,
			URL:      b.URL,
			ShortURL: b.ShortURL,
			Visits:   b.Visits,
		})
	}

	return bookmarkStatsResponse{Data: data}
}

// validationError represents an individual validation error.
type validationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// errorResponse represents a structured error response.
type errorResponse struct {
	Status  string            `json:"status"`
	Message string            `json:"message"`
	Errors  []validationError `json:"errors,omitempty"`
}

// Predefined error responses for common scenarios.
var (
	emptyRequestBodyResponse = errorResponse{
		Status:  statusError,
		Message: "empty request body",
	}

	invalidRequestBodyResponse = errorResponse{
		Status:  statusError,
		Message: "invalid request body",
	}

	unauthorizedResponse = errorResponse{
		Status:  statusError,
		Message: "unauthorized",
	}

	bookmarkNotFoundResponse = errorResponse{
		Status:  statusError,
		Message: "bookmark not found",
	}

	urlExistsResponse = errorResponse{
		Status:  statusError,
		Message: "url already exists",
	}

	serverErrorResponse = errorResponse{
		Status:  statusError,
		Message: "server error occurred",
	}
)

// messageForTag returns a user-friendly message based on the validation tag.
func messageForTag(tag string) string {
	switch tag {
	case "required":
		return "this field is required"
	case "url", "http_url":
		return "enter a valid url"
	default:
		return "invalid value"
	}
}

// getValidationErrors processes validation errors and returns a list of validationError.
func getValidationErrors(err error) []validationError {
	var validationErrs []validationError

	errs, ok := err.(validator.ValidationErrors)
	if ok {
		for _, e := range errs {
			validationErrs = append(validationErrs, validationError{
				Field:   e.Field(),
				Message: messageForTag(e.Tag()),
			})
		}
	}

	return validationErrs
}

// validationErrorResponse constructs an errorResponse for validation errors.
func validationErrorResponse(err error) errorResponse {
	return errorResponse{
		Status:  statusError,
		Message: "validation error",
		Errors:  getValidationErrors(err),
	}
}
