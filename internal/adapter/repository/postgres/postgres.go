package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/vadimbarashkov/bookmarks/internal/entity"
)

const (
	uniqueViolationErrCode = "23505"
	shortURLConstraint     = "bookmarks_short_url_key"
)

const bookmarkColumns = `id, url, short_url, body, visits, user_id, created_at, updated_at`

func isUniqueViolationError(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.SQLState() != uniqueViolationErrCode {
		return false
	}
	return constraint == "" || pgErr.ConstraintName == constraint
}

type bookmarkDB struct {
	ID        int64     `db:"id"`
	URL       string    `db:"url"`
	ShortURL  string    `db:"short_url"`
	Body      string    `db:"body"`
	Visits    int64     `db:"visits"`
	UserID    string    `db:"user_id"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (b *bookmarkDB) toEntity() *entity.Bookmark {
	return &entity.Bookmark{
		ID:        b.ID,
		URL:       b.URL,
		ShortURL:  b.ShortURL,
		Body:      b.Body,
		Visits:    b.Visits,
		UserID:    b.UserID,
		CreatedAt: b.CreatedAt,
		UpdatedAt: b.UpdatedAt,
	}
}

type BookmarkRepository struct {
	db *sqlx.DB
}

func NewBookmarkRepository(db *sqlx.DB) *BookmarkRepository {
	return &BookmarkRepository{db: db}
}

// Save inserts a bookmark owned by userID. The url is checked for existence under a
// transaction-scoped advisory lock keyed on the url, so concurrent saves of the same
// url are serialized and only the first one succeeds.
func (r *BookmarkRepository) Save(ctx context.Context, userID, url, shortURL, body string) (*entity.Bookmark, error) {
	const op = "adapter.repository.postgres.BookmarkRepository.Save"
	const lockQuery = `SELECT pg_advisory_xact_lock(hashtext($1))`
	const existsQuery = `SELECT EXISTS(SELECT 1 FROM bookmarks WHERE url = $1)`
	const insertQuery = `INSERT INTO bookmarks(url, short_url, body, user_id)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + bookmarkColumns

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to begin transaction: %w", op, err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, lockQuery, url); err != nil {
		return nil, fmt.Errorf("%s: failed to acquire url lock: %w", op, err)
	}

	var exists bool

	if err := tx.GetContext(ctx, &exists, existsQuery, url); err != nil {
		return nil, fmt.Errorf("%s: failed to check url existence: %w", op, err)
	}

	if exists {
		return nil, fmt.Errorf("%s: %w", op, entity.ErrURLExists)
	}

	var bookmark bookmarkDB

	if err := tx.GetContext(ctx, &bookmark, insertQuery, url, shortURL, body, userID); err != nil {
		if isUniqueViolationError(err, shortURLConstraint) {
			return nil, fmt.Errorf("%s: %w", op, entity.ErrShortURLExists)
		}

		return nil, fmt.Errorf("%s: failed to insert into bookmarks table: %w", op, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%s: failed to commit transaction: %w", op, err)
	}

	return bookmark.toEntity(), nil
}

func (r *BookmarkRepository) List(ctx context.Context, userID string, req entity.PageRequest) (*entity.Page, error) {
	const op = "adapter.repository.postgres.BookmarkRepository.List"
	const countQuery = `SELECT COUNT(*) FROM bookmarks WHERE user_id = $1`
	const selectQuery = `SELECT ` + bookmarkColumns + ` FROM bookmarks
		WHERE user_id = $1
		ORDER BY id
		LIMIT $2 OFFSET $3`

	var total int64

	if err := r.db.GetContext(ctx, &total, countQuery, userID); err != nil {
		return nil, fmt.Errorf("%s: failed to count rows in bookmarks table: %w", op, err)
	}

	var rows []bookmarkDB

	if err := r.db.SelectContext(ctx, &rows, selectQuery, userID, req.PerPage, req.Offset()); err != nil {
		return nil, fmt.Errorf("%s: failed to select rows from bookmarks table: %w", op, err)
	}

	items := make([]entity.Bookmark, 0, len(rows))
	for i := range rows {
		items = append(items, *rows[i].toEntity())
	}

	return &entity.Page{
		Items:   items,
		Page:    req.Page,
		PerPage: req.PerPage,
		Total:   total,
	}, nil
}

func (r *BookmarkRepository) ListByVisits(ctx context.Context, userID string) ([]entity.Bookmark, error) {
	const op = "adapter.repository.postgres.BookmarkRepository.ListByVisits"
	const query = `SELECT ` + bookmarkColumns + ` FROM bookmarks
		WHERE user_id = $1
		ORDER BY visits DESC, id`

	var rows []bookmarkDB

	if err := r.db.SelectContext(ctx, &rows, query, userID); err != nil {
		return nil, fmt.Errorf("%s: failed to select rows from bookmarks table: %w", op, err)
	}

	items := make([]entity.Bookmark, 0, len(rows))
	for i := range rows {
		items = append(items, *rows[i].toEntity())
	}

	return items, nil
}

func (r *BookmarkRepository) RetrieveByID(ctx context.Context, userID string, id int64) (*entity.Bookmark, error) {
	const op = "adapter.repository.postgres.BookmarkRepository.RetrieveByID"
	const query = `SELECT ` + bookmarkColumns + ` FROM bookmarks WHERE id = $1 AND user_id = $2`

	var bookmark bookmarkDB

	if err := r.db.GetContext(ctx, &bookmark, query, id, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, entity.ErrBookmarkNotFound)
		}

		return nil, fmt.Errorf("%s: failed to get row from bookmarks table: %w", op, err)
	}

	return bookmark.toEntity(), nil
}

func (r *BookmarkRepository) RetrieveAndUpdateVisits(ctx context.Context, shortURL string) (*entity.Bookmark, error) {
	const op = "adapter.repository.postgres.BookmarkRepository.RetrieveAndUpdateVisits"
	const query = `UPDATE bookmarks SET visits = visits + 1 WHERE short_url = $1 RETURNING ` + bookmarkColumns

	var bookmark bookmarkDB

	if err := r.db.GetContext(ctx, &bookmark, query, shortURL); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, entity.ErrBookmarkNotFound)
		}

		return nil, fmt.Errorf("%s: failed to get and update bookmarks table row: %w", op, err)
	}

	return bookmark.toEntity(), nil
}

func (r *BookmarkRepository) Update(ctx context.Context, userID string, id int64, url, body string) (*entity.Bookmark, error) {
	const op = "adapter.repository.postgres.BookmarkRepository.Update"
	const query = `UPDATE bookmarks
		SET url = $1, body = $2, updated_at = NOW()
		WHERE id = $3 AND user_id = $4
		RETURNING ` + bookmarkColumns

	var bookmark bookmarkDB

	if err := r.db.GetContext(ctx, &bookmark, query, url, body, id, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, entity.ErrBookmarkNotFound)
		}

		return nil, fmt.Errorf("%s: failed to update bookmarks table row: %w", op, err)
	}

	return bookmark.toEntity(), nil
}

func (r *BookmarkRepository) Remove(ctx context.Context, userID string, id int64) error {
	const op = "adapter.repository.postgres.BookmarkRepository.Remove"
	const query = `DELETE FROM bookmarks WHERE id = $1 AND user_id = $2`

	res, err := r.db.ExecContext(ctx, query, id, userID)
	if err != nil {
		return fmt.Errorf("%s: failed to delete from bookmarks table: %w", op, err)
	}

	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: failed to get number of affected rows: %w", op, err)
	}

	if rowsAffected != 1 {
		return fmt.Errorf("%s: %w", op, entity.ErrBookmarkNotFound)
	}

	return nil
}
