// internal/store/contributions.go
package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"contribforge/internal/model"
)

const upsertContributionSQL = `
INSERT INTO contributions (
	user_id, kind, title, url, repo_full_name, state,
	created_at_source, closed_at_source, merged_at_source,
	comment_count, labels, source_id
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
ON CONFLICT (user_id, source_id) DO UPDATE SET
	title = EXCLUDED.title,
	url = EXCLUDED.url,
	repo_full_name = EXCLUDED.repo_full_name,
	state = EXCLUDED.state,
	created_at_source = EXCLUDED.created_at_source,
	closed_at_source = EXCLUDED.closed_at_source,
	merged_at_source = EXCLUDED.merged_at_source,
	comment_count = EXCLUDED.comment_count,
	labels = EXCLUDED.labels,
	db_updated_at = now()`

// UpsertContributions writes one sync run's normalized batch in a single
// conflict-resolving batch keyed on (user_id, source_id). Rows seen before
// have their mutable fields overwritten; new rows are inserted. Returns the
// number of rows written.
func (s *Store) UpsertContributions(ctx context.Context, batch []model.Contribution) (int64, error) {
	if len(batch) == 0 {
		return 0, nil
	}

	b := &pgx.Batch{}
	for _, c := range batch {
		labels := c.Labels
		if labels == nil {
			labels = []model.Label{}
		}
		b.Queue(upsertContributionSQL,
			c.UserID, c.Kind, c.Title, c.URL, c.RepoFullName, c.State,
			c.CreatedAtSource, c.ClosedAtSource, c.MergedAtSource,
			c.CommentCount, labels, c.SourceID)
	}

	br := s.db.SendBatch(ctx, b)
	defer br.Close()

	var written int64
	for range batch {
		tag, err := br.Exec()
		if err != nil {
			return written, fmt.Errorf("upserting contributions: %w", err)
		}
		written += tag.RowsAffected()
	}
	return written, nil
}

// ListContributions returns the owner's contributions, newest first. An empty
// Kind returns all kinds.
func (s *Store) ListContributions(ctx context.Context, arg ListContributionsParams) ([]model.Contribution, error) {
	query := `
		SELECT id, user_id, kind, title, url, repo_full_name, state,
		       created_at_source, closed_at_source, merged_at_source,
		       comment_count, labels, source_id, db_created_at, db_updated_at
		FROM contributions
		WHERE user_id = $1`
	args := []any{arg.UserID}
	if arg.Kind != "" {
		query += ` AND kind = $2`
		args = append(args, arg.Kind)
	}
	query += ` ORDER BY created_at_source DESC NULLS LAST, source_id`

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing contributions: %w", err)
	}
	defer rows.Close()

	var out []model.Contribution
	for rows.Next() {
		var c model.Contribution
		if err := rows.Scan(&c.ID, &c.UserID, &c.Kind, &c.Title, &c.URL, &c.RepoFullName, &c.State,
			&c.CreatedAtSource, &c.ClosedAtSource, &c.MergedAtSource,
			&c.CommentCount, &c.Labels, &c.SourceID, &c.DBCreatedAt, &c.DBUpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
