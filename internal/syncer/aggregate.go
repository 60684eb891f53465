// internal/syncer/aggregate.go
package syncer

import (
	"sort"
	"time"

	"contribforge/internal/model"
)

// BuildActivity folds one sync run's normalized batch into per-day histogram
// rows, grouped by the UTC calendar date of each record's source creation
// time. Records without a creation timestamp are left out (they still persist
// as contributions). Counts are cardinalities of the batch, and total_count
// is recomputed as their sum. Rows come back sorted by date.
func BuildActivity(userID string, batch []model.Contribution) []model.ActivityDay {
	byDate := make(map[time.Time]*model.ActivityDay)

	for _, c := range batch {
		if c.CreatedAtSource == nil {
			continue
		}
		t := c.CreatedAtSource.UTC()
		date := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)

		day, ok := byDate[date]
		if !ok {
			day = &model.ActivityDay{UserID: userID, ActivityDate: date}
			byDate[date] = day
		}
		switch c.Kind {
		case model.KindPullRequest:
			day.PRCount++
		case model.KindIssue:
			day.IssueCount++
		case model.KindCommit:
			day.CommitCount++
		}
	}

	days := make([]model.ActivityDay, 0, len(byDate))
	for _, day := range byDate {
		day.TotalCount = day.PRCount + day.IssueCount + day.CommitCount
		days = append(days, *day)
	}
	sort.Slice(days, func(i, j int) bool {
		return days[i].ActivityDate.Before(days[j].ActivityDate)
	})
	return days
}
