// internal/badges/badges.go
package badges

import "contribforge/internal/model"

// Badge is one earned achievement.
type Badge struct {
	ID          string `json:"id"`
	Label       string `json:"label"`
	Description string `json:"description"`
}

type badgeDef struct {
	Badge
	check func([]model.Contribution) bool
}

// Badge predicates are independent of each other; an owner may hold any
// subset. They are evaluated fresh on every read and never stored.
var defs = []badgeDef{
	{
		Badge: Badge{ID: "first-pr", Label: "First PR", Description: "Opened your first pull request"},
		check: func(cs []model.Contribution) bool { return countKind(cs, model.KindPullRequest) >= 1 },
	},
	{
		Badge: Badge{ID: "pr-champion", Label: "PR Champion", Description: "Opened 10+ pull requests"},
		check: func(cs []model.Contribution) bool { return countKind(cs, model.KindPullRequest) >= 10 },
	},
	{
		Badge: Badge{ID: "merger", Label: "Merger", Description: "Had 5+ PRs merged"},
		check: func(cs []model.Contribution) bool { return countMerged(cs) >= 5 },
	},
	{
		Badge: Badge{ID: "committer", Label: "Committer", Description: "Made 50+ commits"},
		check: func(cs []model.Contribution) bool { return countKind(cs, model.KindCommit) >= 50 },
	},
	{
		Badge: Badge{ID: "issue-hunter", Label: "Issue Hunter", Description: "Opened 10+ issues"},
		check: func(cs []model.Contribution) bool { return countKind(cs, model.KindIssue) >= 10 },
	},
	{
		Badge: Badge{ID: "multi-repo", Label: "Explorer", Description: "Contributed to 5+ repos"},
		check: func(cs []model.Contribution) bool { return countRepos(cs) >= 5 },
	},
	{
		Badge: Badge{ID: "on-fire", Label: "On Fire", Description: "100+ total contributions"},
		check: func(cs []model.Contribution) bool { return len(cs) >= 100 },
	},
	{
		Badge: Badge{ID: "prolific", Label: "Prolific", Description: "250+ total contributions"},
		check: func(cs []model.Contribution) bool { return len(cs) >= 250 },
	},
}

// Evaluate returns the badges earned by the given full contribution set.
func Evaluate(contributions []model.Contribution) []Badge {
	earned := make([]Badge, 0, len(defs))
	for _, d := range defs {
		if d.check(contributions) {
			earned = append(earned, d.Badge)
		}
	}
	return earned
}

func countKind(cs []model.Contribution, kind model.Kind) int {
	var n int
	for _, c := range cs {
		if c.Kind == kind {
			n++
		}
	}
	return n
}

func countMerged(cs []model.Contribution) int {
	var n int
	for _, c := range cs {
		if c.Kind == model.KindPullRequest && c.MergedAtSource != nil {
			n++
		}
	}
	return n
}

func countRepos(cs []model.Contribution) int {
	repos := make(map[string]struct{}, len(cs))
	for _, c := range cs {
		repos[c.RepoFullName] = struct{}{}
	}
	return len(repos)
}
