// internal/store/syncstatus.go
package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"contribforge/internal/model"
)

// GetSyncStatus returns the owner's sync state. An absent row is reported as
// idle rather than an error.
func (s *Store) GetSyncStatus(ctx context.Context, userID string) (model.SyncStatus, error) {
	var st model.SyncStatus
	err := s.db.QueryRow(ctx, `
		SELECT user_id, status, last_synced_at, error_message, updated_at
		FROM contribution_sync
		WHERE user_id = $1`, userID).
		Scan(&st.UserID, &st.Status, &st.LastSyncedAt, &st.ErrorMessage, &st.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.SyncStatus{UserID: userID, Status: model.SyncIdle}, nil
	}
	return st, err
}

// MarkSyncing transitions the owner to syncing and clears any previous error
// message. last_synced_at is untouched.
func (s *Store) MarkSyncing(ctx context.Context, userID string) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO contribution_sync (user_id, status, error_message, updated_at)
		VALUES ($1, 'syncing', NULL, now())
		ON CONFLICT (user_id) DO UPDATE SET
			status = 'syncing', error_message = NULL, updated_at = now()`, userID)
	return err
}

// MarkSyncIdle records a successful completion at syncedAt.
func (s *Store) MarkSyncIdle(ctx context.Context, userID string, syncedAt time.Time) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO contribution_sync (user_id, status, last_synced_at, error_message, updated_at)
		VALUES ($1, 'idle', $2, NULL, now())
		ON CONFLICT (user_id) DO UPDATE SET
			status = 'idle', last_synced_at = $2, error_message = NULL, updated_at = now()`,
		userID, syncedAt)
	return err
}

// MarkSyncError records a failed run. last_synced_at keeps its prior value.
func (s *Store) MarkSyncError(ctx context.Context, userID, message string) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO contribution_sync (user_id, status, error_message, updated_at)
		VALUES ($1, 'error', $2, now())
		ON CONFLICT (user_id) DO UPDATE SET
			status = 'error', error_message = $2, updated_at = now()`,
		userID, message)
	return err
}
