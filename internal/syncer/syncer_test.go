// internal/syncer/syncer_test.go
package syncer

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apperrors "contribforge/internal/errors"
	"contribforge/internal/github"
	"contribforge/internal/model"
	"contribforge/internal/store"
)

// MockQuerier is a mock of the store.Querier interface.
type MockQuerier struct {
	mock.Mock
}

func (m *MockQuerier) GetUserIDByToken(ctx context.Context, token string) (string, error) {
	args := m.Called(ctx, token)
	return args.String(0), args.Error(1)
}
func (m *MockQuerier) CreateAuthToken(ctx context.Context, token, userID string) error {
	args := m.Called(ctx, token, userID)
	return args.Error(0)
}
func (m *MockQuerier) GetProfile(ctx context.Context, userID string) (model.Profile, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(model.Profile), args.Error(1)
}
func (m *MockQuerier) GetProfileByGithubUsername(ctx context.Context, username string) (model.Profile, error) {
	args := m.Called(ctx, username)
	return args.Get(0).(model.Profile), args.Error(1)
}
func (m *MockQuerier) CreateProfile(ctx context.Context, userID string) (model.Profile, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(model.Profile), args.Error(1)
}
func (m *MockQuerier) UpdateProfile(ctx context.Context, arg store.UpdateProfileParams) (model.Profile, error) {
	args := m.Called(ctx, arg)
	return args.Get(0).(model.Profile), args.Error(1)
}
func (m *MockQuerier) ListLinkedProfiles(ctx context.Context) ([]model.Profile, error) {
	args := m.Called(ctx)
	return args.Get(0).([]model.Profile), args.Error(1)
}
func (m *MockQuerier) GetSyncStatus(ctx context.Context, userID string) (model.SyncStatus, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(model.SyncStatus), args.Error(1)
}
func (m *MockQuerier) MarkSyncing(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}
func (m *MockQuerier) MarkSyncIdle(ctx context.Context, userID string, syncedAt time.Time) error {
	args := m.Called(ctx, userID, syncedAt)
	return args.Error(0)
}
func (m *MockQuerier) MarkSyncError(ctx context.Context, userID, message string) error {
	args := m.Called(ctx, userID, message)
	return args.Error(0)
}
func (m *MockQuerier) UpsertContributions(ctx context.Context, batch []model.Contribution) (int64, error) {
	args := m.Called(ctx, batch)
	return args.Get(0).(int64), args.Error(1)
}
func (m *MockQuerier) ListContributions(ctx context.Context, arg store.ListContributionsParams) ([]model.Contribution, error) {
	args := m.Called(ctx, arg)
	return args.Get(0).([]model.Contribution), args.Error(1)
}
func (m *MockQuerier) UpsertActivityDays(ctx context.Context, days []model.ActivityDay) error {
	args := m.Called(ctx, days)
	return args.Error(0)
}
func (m *MockQuerier) ListActivityDays(ctx context.Context, userID string) ([]model.ActivityDay, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]model.ActivityDay), args.Error(1)
}
func (m *MockQuerier) CreateBookmark(ctx context.Context, arg store.CreateBookmarkParams) (model.Bookmark, error) {
	args := m.Called(ctx, arg)
	return args.Get(0).(model.Bookmark), args.Error(1)
}
func (m *MockQuerier) DeleteBookmark(ctx context.Context, userID string, id int64) error {
	args := m.Called(ctx, userID, id)
	return args.Error(0)
}
func (m *MockQuerier) ListBookmarks(ctx context.Context, arg store.ListBookmarksParams) ([]model.Bookmark, error) {
	args := m.Called(ctx, arg)
	return args.Get(0).([]model.Bookmark), args.Error(1)
}
func (m *MockQuerier) GetBookmarkByURL(ctx context.Context, userID, url string) (model.Bookmark, error) {
	args := m.Called(ctx, userID, url)
	return args.Get(0).(model.Bookmark), args.Error(1)
}

const (
	prSearchBody = `{"total_count": 2, "items": [
		{"id": 101, "title": "Add retries", "html_url": "https://github.com/acme/widgets/pull/1",
		 "state": "closed", "created_at": "2024-03-10T10:00:00Z", "closed_at": "2024-03-11T10:00:00Z",
		 "comments": 2, "labels": [], "repository_url": "https://api.github.com/repos/acme/widgets",
		 "pull_request": {"merged_at": "2024-03-11T10:00:00Z"}},
		{"id": 102, "title": "Fix docs", "html_url": "https://github.com/acme/widgets/pull/2",
		 "state": "open", "created_at": "2024-03-12T10:00:00Z",
		 "comments": 0, "labels": [], "repository_url": "https://api.github.com/repos/acme/widgets",
		 "pull_request": {}}
	]}`

	issueSearchBody = `{"total_count": 1, "items": [
		{"id": 201, "title": "Flaky test", "html_url": "https://github.com/acme/gears/issues/3",
		 "state": "open", "created_at": "2024-03-12T11:00:00Z",
		 "comments": 1, "labels": [{"name": "bug", "color": "d73a4a"}],
		 "repository_url": "https://api.github.com/repos/acme/gears"}
	]}`

	eventsBody = `[
		{"type": "PushEvent", "repo": {"name": "acme/widgets"}, "created_at": "2024-03-13T08:00:00Z",
		 "payload": {"commits": [
			{"sha": "aaa111", "distinct": true, "message": "fix: one", "author": {"email": "a@x.com"}},
			{"sha": "bbb222", "distinct": true, "message": "fix: two", "author": {"email": "a@x.com"}}
		 ]}},
		{"type": "WatchEvent", "repo": {"name": "acme/widgets"}, "created_at": "2024-03-13T09:00:00Z",
		 "payload": {"action": "started"}}
	]`
)

// githubFixture serves the three upstream endpoints the orchestrator hits and
// counts requests.
type githubFixture struct {
	requests    atomic.Int32
	issueStatus int // non-zero forces the type:issue search to fail
}

func (f *githubFixture) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.requests.Add(1)
		switch {
		case r.URL.Path == "/search/issues" && strings.Contains(r.URL.Query().Get("q"), "type:pr"):
			w.Write([]byte(prSearchBody))
		case r.URL.Path == "/search/issues":
			if f.issueStatus != 0 {
				http.Error(w, `{"message": "upstream unavailable"}`, f.issueStatus)
				return
			}
			w.Write([]byte(issueSearchBody))
		case strings.HasSuffix(r.URL.Path, "/events"):
			w.Write([]byte(eventsBody))
		default:
			http.NotFound(w, r)
		}
	})
}

func newTestSyncer(t *testing.T, mockQ *MockQuerier, fixture *githubFixture) *Syncer {
	t.Helper()
	server := httptest.NewServer(fixture.handler())
	t.Cleanup(server.Close)

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	ghClient, err := github.NewClient("", server.URL, logger)
	require.NoError(t, err)

	return NewSyncer(mockQ, ghClient, logger, time.Hour)
}

func linkedProfile() model.Profile {
	username := "octocat"
	return model.Profile{ID: testUserID, GithubUsername: &username}
}

func TestSyncer_Sync(t *testing.T) {
	ctx := context.Background()

	t.Run("fresh sync persists the full batch and reports counts", func(t *testing.T) {
		mockQ := new(MockQuerier)
		fixture := &githubFixture{}
		s := newTestSyncer(t, mockQ, fixture)

		mockQ.On("GetProfile", mock.Anything, testUserID).Return(linkedProfile(), nil).Once()
		mockQ.On("MarkSyncing", mock.Anything, testUserID).Return(nil).Once()

		var persisted []model.Contribution
		mockQ.On("UpsertContributions", mock.Anything, mock.Anything).
			Run(func(args mock.Arguments) {
				persisted = args.Get(1).([]model.Contribution)
			}).
			Return(int64(5), nil).Once()
		mockQ.On("UpsertActivityDays", mock.Anything, mock.Anything).Return(nil).Once()
		mockQ.On("MarkSyncIdle", mock.Anything, testUserID, mock.AnythingOfType("time.Time")).Return(nil).Once()

		summary, err := s.Sync(ctx, testUserID)

		require.NoError(t, err)
		assert.Equal(t, model.SyncSummary{PRCount: 2, IssueCount: 1, CommitCount: 2}, summary)

		require.Len(t, persisted, 5)
		ids := make(map[string]model.Kind, len(persisted))
		for _, c := range persisted {
			ids[c.SourceID] = c.Kind
		}
		assert.Equal(t, model.KindPullRequest, ids["pr_101"])
		assert.Equal(t, model.KindPullRequest, ids["pr_102"])
		assert.Equal(t, model.KindIssue, ids["issue_201"])
		assert.Equal(t, model.KindCommit, ids["commit_aaa111"])
		assert.Equal(t, model.KindCommit, ids["commit_bbb222"])

		mockQ.AssertExpectations(t)
	})

	t.Run("repeated runs produce identical upsert batches", func(t *testing.T) {
		mockQ := new(MockQuerier)
		fixture := &githubFixture{}
		s := newTestSyncer(t, mockQ, fixture)

		mockQ.On("GetProfile", mock.Anything, testUserID).Return(linkedProfile(), nil)
		mockQ.On("MarkSyncing", mock.Anything, testUserID).Return(nil)

		var batches [][]model.Contribution
		mockQ.On("UpsertContributions", mock.Anything, mock.Anything).
			Run(func(args mock.Arguments) {
				batches = append(batches, args.Get(1).([]model.Contribution))
			}).
			Return(int64(5), nil)
		mockQ.On("UpsertActivityDays", mock.Anything, mock.Anything).Return(nil)
		mockQ.On("MarkSyncIdle", mock.Anything, testUserID, mock.AnythingOfType("time.Time")).Return(nil)

		_, err := s.Sync(ctx, testUserID)
		require.NoError(t, err)
		_, err = s.Sync(ctx, testUserID)
		require.NoError(t, err)

		require.Len(t, batches, 2)
		assert.Equal(t, batches[0], batches[1])
	})

	t.Run("missing linked username fails fast without touching status or network", func(t *testing.T) {
		mockQ := new(MockQuerier)
		fixture := &githubFixture{}
		s := newTestSyncer(t, mockQ, fixture)

		mockQ.On("GetProfile", mock.Anything, testUserID).Return(model.Profile{ID: testUserID}, nil).Once()

		_, err := s.Sync(ctx, testUserID)

		var cfgErr *apperrors.ConfigurationError
		require.ErrorAs(t, err, &cfgErr)
		assert.Contains(t, cfgErr.Error(), "No GitHub username linked")
		assert.Equal(t, int32(0), fixture.requests.Load(), "no upstream calls expected")
		mockQ.AssertNotCalled(t, "MarkSyncing")
		mockQ.AssertNotCalled(t, "MarkSyncError")
	})

	t.Run("upstream failure aborts the run and records the error", func(t *testing.T) {
		mockQ := new(MockQuerier)
		fixture := &githubFixture{issueStatus: http.StatusServiceUnavailable}
		s := newTestSyncer(t, mockQ, fixture)

		mockQ.On("GetProfile", mock.Anything, testUserID).Return(linkedProfile(), nil).Once()
		mockQ.On("MarkSyncing", mock.Anything, testUserID).Return(nil).Once()
		mockQ.On("MarkSyncError", mock.Anything, testUserID, mock.MatchedBy(func(msg string) bool {
			return msg != ""
		})).Return(nil).Once()

		_, err := s.Sync(ctx, testUserID)

		var srcErr *github.SourceFetchError
		require.ErrorAs(t, err, &srcErr)
		assert.Equal(t, http.StatusServiceUnavailable, srcErr.StatusCode)
		mockQ.AssertNotCalled(t, "UpsertContributions")
		mockQ.AssertNotCalled(t, "UpsertActivityDays")
		mockQ.AssertNotCalled(t, "MarkSyncIdle")
		mockQ.AssertExpectations(t)
	})

	t.Run("merge failure records the error state", func(t *testing.T) {
		mockQ := new(MockQuerier)
		fixture := &githubFixture{}
		s := newTestSyncer(t, mockQ, fixture)

		dbErr := errors.New("connection reset")
		mockQ.On("GetProfile", mock.Anything, testUserID).Return(linkedProfile(), nil).Once()
		mockQ.On("MarkSyncing", mock.Anything, testUserID).Return(nil).Once()
		mockQ.On("UpsertContributions", mock.Anything, mock.Anything).Return(int64(0), dbErr).Once()
		mockQ.On("MarkSyncError", mock.Anything, testUserID, mock.AnythingOfType("string")).Return(nil).Once()

		_, err := s.Sync(ctx, testUserID)

		var perr *apperrors.PersistenceError
		require.ErrorAs(t, err, &perr)
		assert.Equal(t, "contribution merge", perr.Op)
		mockQ.AssertNotCalled(t, "UpsertActivityDays")
		mockQ.AssertNotCalled(t, "MarkSyncIdle")
		mockQ.AssertExpectations(t)
	})

	t.Run("unknown profile is a configuration error", func(t *testing.T) {
		mockQ := new(MockQuerier)
		fixture := &githubFixture{}
		s := newTestSyncer(t, mockQ, fixture)

		mockQ.On("GetProfile", mock.Anything, testUserID).Return(model.Profile{}, store.ErrNotFound).Once()

		_, err := s.Sync(ctx, testUserID)

		var cfgErr *apperrors.ConfigurationError
		require.ErrorAs(t, err, &cfgErr)
		assert.Equal(t, int32(0), fixture.requests.Load())
	})
}

func TestSyncer_RunResyncCycle(t *testing.T) {
	mockQ := new(MockQuerier)
	fixture := &githubFixture{}
	s := newTestSyncer(t, mockQ, fixture)

	mockQ.On("ListLinkedProfiles", mock.Anything).Return([]model.Profile{linkedProfile()}, nil).Once()
	mockQ.On("GetProfile", mock.Anything, testUserID).Return(linkedProfile(), nil).Once()
	mockQ.On("MarkSyncing", mock.Anything, testUserID).Return(nil).Once()
	mockQ.On("UpsertContributions", mock.Anything, mock.Anything).Return(int64(5), nil).Once()
	mockQ.On("UpsertActivityDays", mock.Anything, mock.Anything).Return(nil).Once()
	mockQ.On("MarkSyncIdle", mock.Anything, testUserID, mock.AnythingOfType("time.Time")).Return(nil).Once()

	s.runResyncCycle(context.Background())

	mockQ.AssertExpectations(t)
}
