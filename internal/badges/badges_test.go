// internal/badges/badges_test.go
package badges

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"contribforge/internal/model"
)

func repeat(kind model.Kind, n int, merged bool) []model.Contribution {
	out := make([]model.Contribution, n)
	for i := range out {
		out[i] = model.Contribution{
			Kind:         kind,
			RepoFullName: "acme/widgets",
			SourceID:     fmt.Sprintf("%s_%d", kind, i),
		}
		if merged {
			t := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
			out[i].MergedAtSource = &t
		}
	}
	return out
}

func ids(bs []Badge) []string {
	out := make([]string, len(bs))
	for i, b := range bs {
		out[i] = b.ID
	}
	return out
}

func TestEvaluate(t *testing.T) {
	t.Run("empty set earns nothing", func(t *testing.T) {
		assert.Empty(t, Evaluate(nil))
	})

	t.Run("a single PR earns first-pr only", func(t *testing.T) {
		earned := Evaluate(repeat(model.KindPullRequest, 1, false))
		assert.Equal(t, []string{"first-pr"}, ids(earned))
	})

	t.Run("ten PRs earn pr-champion", func(t *testing.T) {
		earned := Evaluate(repeat(model.KindPullRequest, 10, false))
		assert.Contains(t, ids(earned), "pr-champion")
	})

	t.Run("five merged PRs earn merger", func(t *testing.T) {
		assert.Contains(t, ids(Evaluate(repeat(model.KindPullRequest, 5, true))), "merger")
		assert.NotContains(t, ids(Evaluate(repeat(model.KindPullRequest, 5, false))), "merger")
	})

	t.Run("fifty commits earn committer", func(t *testing.T) {
		earned := Evaluate(repeat(model.KindCommit, 50, false))
		assert.Contains(t, ids(earned), "committer")
		assert.NotContains(t, ids(earned), "first-pr")
	})

	t.Run("ten issues earn issue-hunter", func(t *testing.T) {
		assert.Contains(t, ids(Evaluate(repeat(model.KindIssue, 10, false))), "issue-hunter")
	})

	t.Run("five distinct repos earn multi-repo", func(t *testing.T) {
		var cs []model.Contribution
		for i := 0; i < 5; i++ {
			cs = append(cs, model.Contribution{
				Kind:         model.KindCommit,
				RepoFullName: fmt.Sprintf("acme/repo-%d", i),
			})
		}
		assert.Contains(t, ids(Evaluate(cs)), "multi-repo")
	})

	t.Run("volume badges stack at their thresholds", func(t *testing.T) {
		earned := ids(Evaluate(repeat(model.KindCommit, 250, false)))
		assert.Contains(t, earned, "on-fire")
		assert.Contains(t, earned, "prolific")

		earned = ids(Evaluate(repeat(model.KindCommit, 100, false)))
		assert.Contains(t, earned, "on-fire")
		assert.NotContains(t, earned, "prolific")
	})
}
