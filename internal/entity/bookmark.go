// Package entity defines the entities and errors used in the application.
// It includes the Bookmark struct, which represents a user-owned URL with a
// generated short url, and the Page types used for paginated listing.
package entity

import (
	"errors"
	"time"
)

var (
	// ErrBookmarkNotFound is returned when a bookmark doesn't exist or is owned by another user.
	ErrBookmarkNotFound = errors.New("bookmark not found")
	// ErrURLExists is returned when attempting to create a bookmark with a url that is already stored.
	ErrURLExists = errors.New("url exists")
	// ErrShortURLExists is returned when a generated short url collides with an existing one.
	ErrShortURLExists = errors.New("short url exists")
)

// Bookmark represents a stored URL owned by a single user.
type Bookmark struct {
	ID        int64     // ID is the unique identifier of the bookmark in the database.
	URL       string    // URL is the bookmarked address.
	ShortURL  string    // ShortURL is the generated alias that redirects to URL.
	Body      string    // Body is a free-text note attached to the bookmark.
	Visits    int64     // Visits is the number of times ShortURL has been resolved.
	UserID    string    // UserID is the owner key of the bookmark.
	CreatedAt time.Time // CreatedAt is the timestamp when the bookmark was created.
	UpdatedAt time.Time // UpdatedAt is the timestamp when the bookmark was last updated.
}
