// internal/store/store.go
package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"contribforge/internal/model"
)

// DBTX is the subset of pgx the store needs; satisfied by *pgxpool.Pool and
// pgx.Tx alike.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

// Store executes all persisted-state access for the service.
type Store struct {
	db DBTX
}

// New creates a Store bound to the given connection source.
func New(db DBTX) *Store {
	return &Store{db: db}
}

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// IsUniqueViolation reports whether err is a Postgres unique-constraint
// violation.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// UpdateProfileParams are the caller-editable profile fields.
type UpdateProfileParams struct {
	ID             string
	DisplayName    *string
	GithubUsername *string
	AvatarURL      *string
}

// ListContributionsParams filter the contribution listing. An empty Kind
// means all kinds.
type ListContributionsParams struct {
	UserID string
	Kind   model.Kind
}

// CreateBookmarkParams carry a new bookmark row.
type CreateBookmarkParams struct {
	UserID      string
	Title       string
	URL         string
	Kind        string
	Description *string
	Labels      []model.Label
	Language    *string
	Stars       *int
	Owner       *string
	RepoName    *string
	IssueNumber *int
}

// ListBookmarksParams filter the bookmark listing. An empty Kind means all.
type ListBookmarksParams struct {
	UserID string
	Kind   string
}

// Querier is the store surface the rest of the application depends on,
// kept as an interface so tests can substitute a mock.
type Querier interface {
	GetUserIDByToken(ctx context.Context, token string) (string, error)
	CreateAuthToken(ctx context.Context, token, userID string) error

	GetProfile(ctx context.Context, userID string) (model.Profile, error)
	GetProfileByGithubUsername(ctx context.Context, username string) (model.Profile, error)
	CreateProfile(ctx context.Context, userID string) (model.Profile, error)
	UpdateProfile(ctx context.Context, arg UpdateProfileParams) (model.Profile, error)
	ListLinkedProfiles(ctx context.Context) ([]model.Profile, error)

	GetSyncStatus(ctx context.Context, userID string) (model.SyncStatus, error)
	MarkSyncing(ctx context.Context, userID string) error
	MarkSyncIdle(ctx context.Context, userID string, syncedAt time.Time) error
	MarkSyncError(ctx context.Context, userID, message string) error

	UpsertContributions(ctx context.Context, batch []model.Contribution) (int64, error)
	ListContributions(ctx context.Context, arg ListContributionsParams) ([]model.Contribution, error)

	UpsertActivityDays(ctx context.Context, days []model.ActivityDay) error
	ListActivityDays(ctx context.Context, userID string) ([]model.ActivityDay, error)

	CreateBookmark(ctx context.Context, arg CreateBookmarkParams) (model.Bookmark, error)
	DeleteBookmark(ctx context.Context, userID string, id int64) error
	ListBookmarks(ctx context.Context, arg ListBookmarksParams) ([]model.Bookmark, error)
	GetBookmarkByURL(ctx context.Context, userID, url string) (model.Bookmark, error)
}

var _ Querier = (*Store)(nil)
