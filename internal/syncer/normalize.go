// internal/syncer/normalize.go
package syncer

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/go-github/v62/github"

	"contribforge/internal/model"
)

const apiRepoPrefix = "https://api.github.com/repos/"

// FromPullRequest maps one search result of type:pr to a contribution.
// A pull request with an upstream merge timestamp is reported as merged
// regardless of its open/closed state; the upstream numeric id keys it.
func FromPullRequest(userID string, is *github.Issue) model.Contribution {
	c := fromSearchItem(userID, is)
	c.Kind = model.KindPullRequest
	c.SourceID = fmt.Sprintf("pr_%d", is.GetID())

	if links := is.PullRequestLinks; links != nil && links.MergedAt != nil {
		mergedAt := links.MergedAt.Time
		c.MergedAtSource = &mergedAt
		state := model.StateMerged
		c.State = &state
	}
	return c
}

// FromIssue maps one search result of type:issue to a contribution. The
// upstream open/closed state passes through unchanged.
func FromIssue(userID string, is *github.Issue) model.Contribution {
	c := fromSearchItem(userID, is)
	c.Kind = model.KindIssue
	c.SourceID = fmt.Sprintf("issue_%d", is.GetID())
	return c
}

func fromSearchItem(userID string, is *github.Issue) model.Contribution {
	var state *string
	if s := is.GetState(); s != "" {
		state = &s
	}

	labels := make([]model.Label, 0, len(is.Labels))
	for _, l := range is.Labels {
		labels = append(labels, model.Label{Name: l.GetName(), Color: l.GetColor()})
	}

	return model.Contribution{
		UserID:          userID,
		Title:           is.GetTitle(),
		URL:             is.GetHTMLURL(),
		RepoFullName:    strings.TrimPrefix(is.GetRepositoryURL(), apiRepoPrefix),
		State:           state,
		CreatedAtSource: timestampPtr(is.CreatedAt),
		ClosedAtSource:  timestampPtr(is.ClosedAt),
		CommentCount:    is.GetComments(),
		Labels:          labels,
	}
}

// FromPushEvent maps a push event to one contribution per admitted commit.
// Only commits the source marks distinct and that carry an author email are
// admitted; this drops merge artifacts and authorless entries. Commits have
// no lifecycle state. Events that are not push events, or whose payload does
// not parse, yield nothing.
func FromPushEvent(userID string, ev *github.Event) []model.Contribution {
	if ev.GetType() != "PushEvent" {
		return nil
	}
	payload, err := ev.ParsePayload()
	if err != nil {
		return nil
	}
	push, ok := payload.(*github.PushEvent)
	if !ok {
		return nil
	}

	repoName := ev.GetRepo().GetName()
	createdAt := timestampPtr(ev.CreatedAt)

	var out []model.Contribution
	for _, commit := range push.Commits {
		if !commit.GetDistinct() || commit.GetAuthor().GetEmail() == "" {
			continue
		}
		out = append(out, model.Contribution{
			UserID:          userID,
			Kind:            model.KindCommit,
			Title:           commitTitle(commit.GetMessage()),
			URL:             fmt.Sprintf("https://github.com/%s/commit/%s", repoName, commit.GetSHA()),
			RepoFullName:    repoName,
			CreatedAtSource: createdAt,
			Labels:          []model.Label{},
			SourceID:        fmt.Sprintf("commit_%s", commit.GetSHA()),
		})
	}
	return out
}

func commitTitle(message string) string {
	firstLine, _, _ := strings.Cut(message, "\n")
	if firstLine == "" {
		return "Commit"
	}
	return firstLine
}

func timestampPtr(ts *github.Timestamp) *time.Time {
	if ts == nil {
		return nil
	}
	t := ts.Time
	return &t
}
