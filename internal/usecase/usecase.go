package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/vadimbarashkov/bookmarks/internal/entity"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

var ErrMaxRetriesExceeded = errors.New("maximum retries exceeded for generating short url")

type bookmarkRepository interface {
	Save(ctx context.Context, userID, url, shortURL, body string) (*entity.Bookmark, error)
	List(ctx context.Context, userID string, req entity.PageRequest) (*entity.Page, error)
	ListByVisits(ctx context.Context, userID string) ([]entity.Bookmark, error)
	RetrieveByID(ctx context.Context, userID string, id int64) (*entity.Bookmark, error)
	RetrieveAndUpdateVisits(ctx context.Context, shortURL string) (*entity.Bookmark, error)
	Update(ctx context.Context, userID string, id int64, url, body string) (*entity.Bookmark, error)
	Remove(ctx context.Context, userID string, id int64) error
}

type BookmarkUseCase struct {
	shortURLLength int
	repo           bookmarkRepository
}

func NewBookmarkUseCase(shortURLLength int, repo bookmarkRepository) *BookmarkUseCase {
	return &BookmarkUseCase{
		shortURLLength: shortURLLength,
		repo:           repo,
	}
}

// CreateBookmark stores a new bookmark for userID under a freshly generated short url.
// A short url collision is retried with a longer code; a url that is already
// bookmarked by anyone fails with entity.ErrURLExists.
func (uc *BookmarkUseCase) CreateBookmark(ctx context.Context, userID, url, body string) (*entity.Bookmark, error) {
	const op = "usecase.BookmarkUseCase.CreateBookmark"
	const maxRetries = 5

	length := uc.shortURLLength

	for i := 0; i < maxRetries; i++ {
		shortURL, err := gonanoid.New(length)
		if err != nil {
			return nil, fmt.Errorf("%s: failed to generate short url: %w", op, err)
		}

		bookmark, err := uc.repo.Save(ctx, userID, url, shortURL, body)
		if err != nil {
			if errors.Is(err, entity.ErrShortURLExists) {
				length++
				continue
			}

			return nil, fmt.Errorf("%s: failed to create bookmark: %w", op, err)
		}

		return bookmark, nil
	}

	return nil, fmt.Errorf("%s: %w", op, ErrMaxRetriesExceeded)
}

func (uc *BookmarkUseCase) ListBookmarks(ctx context.Context, userID string, req entity.PageRequest) (*entity.Page, error) {
	const op = "usecase.BookmarkUseCase.ListBookmarks"

	page, err := uc.repo.List(ctx, userID, req)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to list bookmarks: %w", op, err)
	}

	return page, nil
}

func (uc *BookmarkUseCase) GetBookmark(ctx context.Context, userID string, id int64) (*entity.Bookmark, error) {
	const op = "usecase.BookmarkUseCase.GetBookmark"

	bookmark, err := uc.repo.RetrieveByID(ctx, userID, id)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to get bookmark: %w", op, err)
	}

	return bookmark, nil
}

// UpdateBookmark overwrites url and body of the caller's bookmark. The new url is
// not checked against other bookmarks.
func (uc *BookmarkUseCase) UpdateBookmark(ctx context.Context, userID string, id int64, url, body string) (*entity.Bookmark, error) {
	const op = "usecase.BookmarkUseCase.UpdateBookmark"

	bookmark, err := uc.repo.Update(ctx, userID, id, url, body)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to update bookmark: %w", op, err)
	}

	return bookmark, nil
}

func (uc *BookmarkUseCase) DeleteBookmark(ctx context.Context, userID string, id int64) error {
	const op = "usecase.BookmarkUseCase.DeleteBookmark"

	if err := uc.repo.Remove(ctx, userID, id); err != nil {
		return fmt.Errorf("%s: failed to delete bookmark: %w", op, err)
	}

	return nil
}

func (uc *BookmarkUseCase) GetBookmarkStats(ctx context.Context, userID string) ([]entity.Bookmark, error) {
	const op = "usecase.BookmarkUseCase.GetBookmarkStats"

	bookmarks, err := uc.repo.ListByVisits(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to get bookmark stats: %w", op, err)
	}

	return bookmarks, nil
}

// ResolveShortURL returns the bookmark behind shortURL and counts the visit.
func (uc *BookmarkUseCase) ResolveShortURL(ctx context.Context, shortURL string) (*entity.Bookmark, error) {
	const op = "usecase.BookmarkUseCase.ResolveShortURL"

	bookmark, err := uc.repo.RetrieveAndUpdateVisits(ctx, shortURL)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to resolve short url: %w", op, err)
	}

	return bookmark, nil
}
