// internal/store/bookmarks.go
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"contribforge/internal/model"
)

const bookmarkColumns = `id, user_id, title, url, kind, description, labels,
	language, stars, owner, repo_name, issue_number, created_at`

func scanBookmark(row pgx.Row) (model.Bookmark, error) {
	var b model.Bookmark
	err := row.Scan(&b.ID, &b.UserID, &b.Title, &b.URL, &b.Kind, &b.Description, &b.Labels,
		&b.Language, &b.Stars, &b.Owner, &b.RepoName, &b.IssueNumber, &b.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Bookmark{}, ErrNotFound
	}
	return b, err
}

// CreateBookmark inserts a bookmark. A duplicate (user_id, url) pair fails
// with a unique violation the handler maps to a conflict response.
func (s *Store) CreateBookmark(ctx context.Context, arg CreateBookmarkParams) (model.Bookmark, error) {
	labels := arg.Labels
	if labels == nil {
		labels = []model.Label{}
	}
	row := s.db.QueryRow(ctx, `
		INSERT INTO bookmarks (user_id, title, url, kind, description, labels,
			language, stars, owner, repo_name, issue_number)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING `+bookmarkColumns,
		arg.UserID, arg.Title, arg.URL, arg.Kind, arg.Description, labels,
		arg.Language, arg.Stars, arg.Owner, arg.RepoName, arg.IssueNumber)
	return scanBookmark(row)
}

// DeleteBookmark removes one of the owner's bookmarks.
func (s *Store) DeleteBookmark(ctx context.Context, userID string, id int64) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM bookmarks WHERE user_id = $1 AND id = $2`, userID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListBookmarks returns the owner's bookmarks, newest first. An empty Kind
// returns all.
func (s *Store) ListBookmarks(ctx context.Context, arg ListBookmarksParams) ([]model.Bookmark, error) {
	query := `SELECT ` + bookmarkColumns + ` FROM bookmarks WHERE user_id = $1`
	args := []any{arg.UserID}
	if arg.Kind != "" {
		query += ` AND kind = $2`
		args = append(args, arg.Kind)
	}
	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing bookmarks: %w", err)
	}
	defer rows.Close()

	var out []model.Bookmark
	for rows.Next() {
		var b model.Bookmark
		if err := rows.Scan(&b.ID, &b.UserID, &b.Title, &b.URL, &b.Kind, &b.Description, &b.Labels,
			&b.Language, &b.Stars, &b.Owner, &b.RepoName, &b.IssueNumber, &b.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// GetBookmarkByURL looks up a bookmark by its target URL, used by the UI to
// render bookmark toggles.
func (s *Store) GetBookmarkByURL(ctx context.Context, userID, url string) (model.Bookmark, error) {
	row := s.db.QueryRow(ctx, `
		SELECT `+bookmarkColumns+` FROM bookmarks WHERE user_id = $1 AND url = $2`, userID, url)
	return scanBookmark(row)
}
