// internal/store/profiles.go
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"contribforge/internal/model"
)

const profileColumns = `id, display_name, github_username, avatar_url, created_at, updated_at`

func scanProfile(row pgx.Row) (model.Profile, error) {
	var p model.Profile
	err := row.Scan(&p.ID, &p.DisplayName, &p.GithubUsername, &p.AvatarURL, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Profile{}, ErrNotFound
	}
	return p, err
}

// GetUserIDByToken resolves a bearer token to the owning user id.
func (s *Store) GetUserIDByToken(ctx context.Context, token string) (string, error) {
	var userID string
	err := s.db.QueryRow(ctx, `SELECT user_id FROM auth_tokens WHERE token = $1`, token).Scan(&userID)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNotFound
	}
	return userID, err
}

// CreateAuthToken registers a credential issued by the identity provider.
func (s *Store) CreateAuthToken(ctx context.Context, token, userID string) error {
	_, err := s.db.Exec(ctx, `INSERT INTO auth_tokens (token, user_id) VALUES ($1, $2)`, token, userID)
	return err
}

// GetProfile fetches one profile by user id.
func (s *Store) GetProfile(ctx context.Context, userID string) (model.Profile, error) {
	row := s.db.QueryRow(ctx, `SELECT `+profileColumns+` FROM profiles WHERE id = $1`, userID)
	return scanProfile(row)
}

// GetProfileByGithubUsername fetches the profile linked to a GitHub handle,
// used by the public portfolio page.
func (s *Store) GetProfileByGithubUsername(ctx context.Context, username string) (model.Profile, error) {
	row := s.db.QueryRow(ctx, `SELECT `+profileColumns+` FROM profiles WHERE github_username = $1`, username)
	return scanProfile(row)
}

// CreateProfile provisions an empty profile row for a new account.
func (s *Store) CreateProfile(ctx context.Context, userID string) (model.Profile, error) {
	row := s.db.QueryRow(ctx, `
		INSERT INTO profiles (id) VALUES ($1)
		ON CONFLICT (id) DO UPDATE SET updated_at = profiles.updated_at
		RETURNING `+profileColumns, userID)
	return scanProfile(row)
}

// UpdateProfile replaces the caller-editable profile fields.
func (s *Store) UpdateProfile(ctx context.Context, arg UpdateProfileParams) (model.Profile, error) {
	row := s.db.QueryRow(ctx, `
		UPDATE profiles
		SET display_name = $2, github_username = $3, avatar_url = $4, updated_at = now()
		WHERE id = $1
		RETURNING `+profileColumns,
		arg.ID, arg.DisplayName, arg.GithubUsername, arg.AvatarURL)
	return scanProfile(row)
}

// ListLinkedProfiles returns every profile with a linked GitHub username,
// the population the background resync loop walks.
func (s *Store) ListLinkedProfiles(ctx context.Context) ([]model.Profile, error) {
	rows, err := s.db.Query(ctx, `
		SELECT `+profileColumns+` FROM profiles
		WHERE github_username IS NOT NULL AND github_username <> ''
		ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("listing linked profiles: %w", err)
	}
	defer rows.Close()

	var profiles []model.Profile
	for rows.Next() {
		var p model.Profile
		if err := rows.Scan(&p.ID, &p.DisplayName, &p.GithubUsername, &p.AvatarURL, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		profiles = append(profiles, p)
	}
	return profiles, rows.Err()
}
