// internal/syncer/syncer.go
package syncer

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	apperrors "contribforge/internal/errors"
	"contribforge/internal/github"
	"contribforge/internal/model"
	"contribforge/internal/store"
)

const (
	// Number of owners to resync in parallel in the background cycle. A
	// single owner's run stays strictly sequential.
	concurrency = 5

	noLinkedUsername = "No GitHub username linked. Please set it in Profile Settings."
)

// Syncer orchestrates one owner's contribution sync: resolve the linked
// GitHub handle, fetch PRs, issues and push events in sequence, normalize,
// merge, aggregate, and track status. It holds no lock across a run; two
// concurrent runs for the same owner race benignly because every write is an
// upsert.
type Syncer struct {
	store    store.Querier
	gh       *github.Client
	logger   *slog.Logger
	interval time.Duration
}

// NewSyncer creates a new Syncer instance.
func NewSyncer(st store.Querier, gh *github.Client, logger *slog.Logger, interval time.Duration) *Syncer {
	return &Syncer{
		store:    st,
		gh:       gh,
		logger:   logger,
		interval: interval,
	}
}

// Sync runs the full pipeline for one owner and returns how many records of
// each kind were processed.
//
// A missing linked username fails with a ConfigurationError before any status
// mutation or network call. Any fetch or persistence failure after the run
// has started transitions the status row to error with the message captured;
// last_synced_at is only advanced on full success. Batches persisted by
// earlier steps of a failed run are not rolled back — reruns are idempotent.
func (s *Syncer) Sync(ctx context.Context, userID string) (model.SyncSummary, error) {
	logger := s.logger.With("user_id", userID)

	profile, err := s.store.GetProfile(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return model.SyncSummary{}, &apperrors.ConfigurationError{Reason: noLinkedUsername}
		}
		return model.SyncSummary{}, &apperrors.PersistenceError{Op: "profile lookup", Err: err}
	}
	if profile.GithubUsername == nil || *profile.GithubUsername == "" {
		return model.SyncSummary{}, &apperrors.ConfigurationError{Reason: noLinkedUsername}
	}
	username := *profile.GithubUsername
	logger = logger.With("github_username", username)

	if err := s.store.MarkSyncing(ctx, userID); err != nil {
		return model.SyncSummary{}, &apperrors.PersistenceError{Op: "sync status update", Err: err}
	}
	logger.Info("Sync started")

	prs, err := s.gh.SearchAuthoredPullRequests(ctx, username)
	if err != nil {
		return model.SyncSummary{}, s.fail(ctx, logger, userID, err)
	}
	issues, err := s.gh.SearchAuthoredIssues(ctx, username)
	if err != nil {
		return model.SyncSummary{}, s.fail(ctx, logger, userID, err)
	}
	events, err := s.gh.ListRecentPushEvents(ctx, username)
	if err != nil {
		return model.SyncSummary{}, s.fail(ctx, logger, userID, err)
	}

	batch := make([]model.Contribution, 0, len(prs)+len(issues))
	for _, pr := range prs {
		batch = append(batch, FromPullRequest(userID, pr))
	}
	for _, is := range issues {
		batch = append(batch, FromIssue(userID, is))
	}
	var commitCount int
	for _, ev := range events {
		commits := FromPushEvent(userID, ev)
		commitCount += len(commits)
		batch = append(batch, commits...)
	}

	summary := model.SyncSummary{
		PRCount:     len(prs),
		IssueCount:  len(issues),
		CommitCount: commitCount,
	}

	written, err := s.store.UpsertContributions(ctx, batch)
	if err != nil {
		perr := &apperrors.PersistenceError{Op: "contribution merge", Err: err}
		return model.SyncSummary{}, s.fail(ctx, logger, userID, perr)
	}

	days := BuildActivity(userID, batch)
	if err := s.store.UpsertActivityDays(ctx, days); err != nil {
		perr := &apperrors.PersistenceError{Op: "activity aggregation", Err: err}
		return model.SyncSummary{}, s.fail(ctx, logger, userID, perr)
	}

	if err := s.store.MarkSyncIdle(ctx, userID, time.Now().UTC()); err != nil {
		perr := &apperrors.PersistenceError{Op: "sync status update", Err: err}
		return model.SyncSummary{}, s.fail(ctx, logger, userID, perr)
	}

	logger.Info("Sync finished",
		"prs", summary.PRCount,
		"issues", summary.IssueCount,
		"commits", summary.CommitCount,
		"rows_written", written,
		"activity_days", len(days))
	return summary, nil
}

// fail records the run's failure on the status row and passes the error
// through. The status write is best effort; a failure there is only logged.
func (s *Syncer) fail(ctx context.Context, logger *slog.Logger, userID string, err error) error {
	logger.Error("Sync failed", "error", err)
	if markErr := s.store.MarkSyncError(ctx, userID, err.Error()); markErr != nil {
		logger.Error("Failed to record sync error state", "error", markErr)
	}
	return err
}

// Start begins the periodic background resync of every linked profile. It
// blocks until ctx is cancelled.
func (s *Syncer) Start(ctx context.Context) {
	s.logger.Info("Starting background resync", "interval", s.interval.String(), "concurrency", concurrency)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.runResyncCycle(ctx) // Initial cycle

	for {
		select {
		case <-ticker.C:
			s.runResyncCycle(ctx)
		case <-ctx.Done():
			s.logger.Info("Background resync shutting down", "reason", ctx.Err())
			return
		}
	}
}

// runResyncCycle syncs all linked profiles concurrently, bounded by
// concurrency. Per-owner failures are logged and do not stop the cycle.
func (s *Syncer) runResyncCycle(ctx context.Context) {
	profiles, err := s.store.ListLinkedProfiles(ctx)
	if err != nil {
		s.logger.Error("Failed to list linked profiles", "error", err)
		return
	}
	if len(profiles) == 0 {
		return
	}
	s.logger.Info("Starting resync cycle", "profiles", len(profiles))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for _, p := range profiles {
		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}
			if _, err := s.Sync(gctx, p.ID); err != nil && !errors.Is(err, context.Canceled) {
				s.logger.Error("Failed to resync profile", "user_id", p.ID, "error", err)
			}
			return nil
		})
	}

	_ = g.Wait()
	s.logger.Info("Resync cycle finished")
}
