// internal/syncer/aggregate_test.go
package syncer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"contribforge/internal/model"
)

func contrib(kind model.Kind, createdAt *time.Time) model.Contribution {
	return model.Contribution{
		UserID:          testUserID,
		Kind:            kind,
		CreatedAtSource: createdAt,
	}
}

func at(day int, hour int) *time.Time {
	t := time.Date(2024, 3, day, hour, 0, 0, 0, time.UTC)
	return &t
}

func TestBuildActivity(t *testing.T) {
	t.Run("groups by calendar date and kind", func(t *testing.T) {
		batch := []model.Contribution{
			contrib(model.KindPullRequest, at(10, 9)),
			contrib(model.KindCommit, at(10, 23)),
			contrib(model.KindIssue, at(11, 0)),
		}

		days := BuildActivity(testUserID, batch)

		require.Len(t, days, 2)
		assert.Equal(t, time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC), days[0].ActivityDate)
		assert.Equal(t, 1, days[0].PRCount)
		assert.Equal(t, 1, days[0].CommitCount)
		assert.Equal(t, 0, days[0].IssueCount)
		assert.Equal(t, 1, days[1].IssueCount)
	})

	t.Run("total is always the sum of the three counts", func(t *testing.T) {
		batch := []model.Contribution{
			contrib(model.KindPullRequest, at(10, 1)),
			contrib(model.KindPullRequest, at(10, 2)),
			contrib(model.KindCommit, at(10, 3)),
			contrib(model.KindIssue, at(11, 4)),
			contrib(model.KindCommit, at(12, 5)),
		}

		for _, day := range BuildActivity(testUserID, batch) {
			assert.Equal(t, day.PRCount+day.CommitCount+day.IssueCount, day.TotalCount)
		}
	})

	t.Run("records without a creation timestamp are excluded", func(t *testing.T) {
		batch := []model.Contribution{
			contrib(model.KindCommit, nil),
			contrib(model.KindPullRequest, at(10, 12)),
		}

		days := BuildActivity(testUserID, batch)

		require.Len(t, days, 1)
		assert.Equal(t, 1, days[0].TotalCount)
	})

	t.Run("duplicate date and kind are both counted", func(t *testing.T) {
		batch := []model.Contribution{
			contrib(model.KindCommit, at(10, 8)),
			contrib(model.KindCommit, at(10, 9)),
		}

		days := BuildActivity(testUserID, batch)

		require.Len(t, days, 1)
		assert.Equal(t, 2, days[0].CommitCount)
		assert.Equal(t, 2, days[0].TotalCount)
	})

	t.Run("empty batch yields no rows", func(t *testing.T) {
		assert.Empty(t, BuildActivity(testUserID, nil))
	})

	t.Run("rows come back sorted by date", func(t *testing.T) {
		batch := []model.Contribution{
			contrib(model.KindIssue, at(14, 1)),
			contrib(model.KindIssue, at(9, 1)),
			contrib(model.KindIssue, at(12, 1)),
		}

		days := BuildActivity(testUserID, batch)

		require.Len(t, days, 3)
		assert.True(t, days[0].ActivityDate.Before(days[1].ActivityDate))
		assert.True(t, days[1].ActivityDate.Before(days[2].ActivityDate))
	})
}
