// internal/store/activity.go
package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"contribforge/internal/model"
)

const upsertActivityDaySQL = `
INSERT INTO contribution_activity (
	user_id, activity_date, pr_count, commit_count, issue_count, total_count
) VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (user_id, activity_date) DO UPDATE SET
	pr_count = EXCLUDED.pr_count,
	commit_count = EXCLUDED.commit_count,
	issue_count = EXCLUDED.issue_count,
	total_count = EXCLUDED.total_count`

// UpsertActivityDays overwrites the histogram rows for the dates present in
// days. Counts replace prior values; dates outside the batch are untouched.
func (s *Store) UpsertActivityDays(ctx context.Context, days []model.ActivityDay) error {
	if len(days) == 0 {
		return nil
	}

	b := &pgx.Batch{}
	for _, d := range days {
		b.Queue(upsertActivityDaySQL,
			d.UserID, d.ActivityDate, d.PRCount, d.CommitCount, d.IssueCount, d.TotalCount)
	}

	br := s.db.SendBatch(ctx, b)
	defer br.Close()

	for range days {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("upserting activity days: %w", err)
		}
	}
	return nil
}

// ListActivityDays returns the owner's full histogram, oldest date first.
func (s *Store) ListActivityDays(ctx context.Context, userID string) ([]model.ActivityDay, error) {
	rows, err := s.db.Query(ctx, `
		SELECT user_id, activity_date, pr_count, commit_count, issue_count, total_count
		FROM contribution_activity
		WHERE user_id = $1
		ORDER BY activity_date`, userID)
	if err != nil {
		return nil, fmt.Errorf("listing activity days: %w", err)
	}
	defer rows.Close()

	var out []model.ActivityDay
	for rows.Next() {
		var d model.ActivityDay
		if err := rows.Scan(&d.UserID, &d.ActivityDate, &d.PRCount, &d.CommitCount, &d.IssueCount, &d.TotalCount); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}
