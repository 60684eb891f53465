// internal/model/models.go
package model

import "time"

// Kind discriminates the three contribution variants. The set is closed;
// normalization produces nothing outside it.
type Kind string

const (
	KindPullRequest Kind = "pull_request"
	KindIssue       Kind = "issue"
	KindCommit      Kind = "commit"
)

// ValidKind reports whether s names one of the three contribution kinds.
func ValidKind(s string) bool {
	switch Kind(s) {
	case KindPullRequest, KindIssue, KindCommit:
		return true
	}
	return false
}

// Contribution states. Commits carry no state (nil).
const (
	StateOpen   = "open"
	StateClosed = "closed"
	StateMerged = "merged"
)

// Label is one upstream issue/PR label, reduced to the fields the UI renders.
type Label struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

// Contribution is one unit of developer activity fetched from the source
// platform. SourceID is stable across refetches and, together with UserID,
// forms the natural key the merge engine upserts on.
type Contribution struct {
	ID              int64      `json:"id"`
	UserID          string     `json:"user_id"`
	Kind            Kind       `json:"kind"`
	Title           string     `json:"title"`
	URL             string     `json:"url"`
	RepoFullName    string     `json:"repo_full_name"`
	State           *string    `json:"state"`
	CreatedAtSource *time.Time `json:"created_at_source"`
	ClosedAtSource  *time.Time `json:"closed_at_source"`
	MergedAtSource  *time.Time `json:"merged_at_source"`
	CommentCount    int        `json:"comment_count"`
	Labels          []Label    `json:"labels"`
	SourceID        string     `json:"source_id"`
	DBCreatedAt     time.Time  `json:"db_created_at"`
	DBUpdatedAt     time.Time  `json:"db_updated_at"`
}

// ActivityDay is one row of the per-day contribution histogram. TotalCount is
// always recomputed as the sum of the three kind counts, never stored
// independently.
type ActivityDay struct {
	UserID       string    `json:"user_id"`
	ActivityDate time.Time `json:"activity_date"`
	PRCount      int       `json:"pr_count"`
	CommitCount  int       `json:"commit_count"`
	IssueCount   int       `json:"issue_count"`
	TotalCount   int       `json:"total_count"`
}

// Sync status values for SyncStatus.Status.
const (
	SyncIdle    = "idle"
	SyncSyncing = "syncing"
	SyncError   = "error"
)

// SyncStatus is the singleton per-owner sync state row. An absent row is
// treated as idle.
type SyncStatus struct {
	UserID       string     `json:"user_id"`
	Status       string     `json:"status"`
	LastSyncedAt *time.Time `json:"last_synced_at"`
	ErrorMessage *string    `json:"error_message"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// SyncSummary reports how many records of each kind a sync run processed.
type SyncSummary struct {
	PRCount     int `json:"pr_count"`
	IssueCount  int `json:"issue_count"`
	CommitCount int `json:"commit_count"`
}

// Profile is the account record; GithubUsername is the linked source handle
// the sync orchestrator resolves before fetching.
type Profile struct {
	ID             string    `json:"id"`
	DisplayName    *string   `json:"display_name"`
	GithubUsername *string   `json:"github_username"`
	AvatarURL      *string   `json:"avatar_url"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Bookmark kinds.
const (
	BookmarkRepo  = "repo"
	BookmarkIssue = "issue"
)

// Bookmark is a saved repository or issue from the discovery search.
type Bookmark struct {
	ID          int64     `json:"id"`
	UserID      string    `json:"user_id"`
	Title       string    `json:"title"`
	URL         string    `json:"url"`
	Kind        string    `json:"kind"`
	Description *string   `json:"description"`
	Labels      []Label   `json:"labels"`
	Language    *string   `json:"language"`
	Stars       *int      `json:"stars"`
	Owner       *string   `json:"owner"`
	RepoName    *string   `json:"repo_name"`
	IssueNumber *int      `json:"issue_number"`
	CreatedAt   time.Time `json:"created_at"`
}
