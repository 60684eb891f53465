// internal/github/client.go
package github

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/google/go-github/v62/github"
	"golang.org/x/oauth2"
)

const userAgent = "contribforge"

// SourceFetchError is any upstream failure: non-2xx response, rate limit, or
// transport error. StatusCode is 0 when no response was received.
type SourceFetchError struct {
	StatusCode int
	Body       string
}

func (e *SourceFetchError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("github request failed: %s", e.Body)
	}
	return fmt.Sprintf("github %d: %s", e.StatusCode, e.Body)
}

// Client is a wrapper around the go-github client. It is stateless and safe
// for reuse across calls; it performs no retries and imposes no deadline of
// its own.
type Client struct {
	gh     *github.Client
	logger *slog.Logger
}

// NewClient creates and configures a new Client instance. An empty token
// means anonymous requests against the public rate limit. A non-empty
// baseURL overrides the API endpoint (GHES, test servers).
func NewClient(token, baseURL string, logger *slog.Logger) (*Client, error) {
	var gh *github.Client
	if token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
		gh = github.NewClient(oauth2.NewClient(context.Background(), ts))
	} else {
		gh = github.NewClient(nil)
	}
	gh.UserAgent = userAgent

	if baseURL != "" {
		u, err := url.Parse(strings.TrimSuffix(baseURL, "/") + "/")
		if err != nil {
			return nil, fmt.Errorf("invalid github api url %q: %w", baseURL, err)
		}
		gh.BaseURL = u
	}

	return &Client{gh: gh, logger: logger}, nil
}

// SearchAuthoredPullRequests returns the caller's most recent pull requests,
// newest first, first page only (up to 100).
func (c *Client) SearchAuthoredPullRequests(ctx context.Context, username string) ([]*github.Issue, error) {
	return c.searchAuthored(ctx, username, "pr")
}

// SearchAuthoredIssues returns the caller's most recent issues, newest first,
// first page only (up to 100).
func (c *Client) SearchAuthoredIssues(ctx context.Context, username string) ([]*github.Issue, error) {
	return c.searchAuthored(ctx, username, "issue")
}

func (c *Client) searchAuthored(ctx context.Context, username, itemType string) ([]*github.Issue, error) {
	q := fmt.Sprintf("author:%s type:%s", username, itemType)
	c.logger.Debug("Searching authored items", "user", username, "type", itemType)

	res, _, err := c.gh.Search.Issues(ctx, q, &github.SearchOptions{
		Sort:        "created",
		Order:       "desc",
		ListOptions: github.ListOptions{PerPage: 100},
	})
	if err != nil {
		return nil, asSourceFetchError(err)
	}
	return res.Issues, nil
}

// ListRecentPushEvents returns the user's public push events from the most
// recent 100 events. The events API only exposes this window, so very active
// accounts are under-counted.
func (c *Client) ListRecentPushEvents(ctx context.Context, username string) ([]*github.Event, error) {
	c.logger.Debug("Listing recent events", "user", username)

	events, _, err := c.gh.Activity.ListEventsPerformedByUser(ctx, username, false, &github.ListOptions{PerPage: 100})
	if err != nil {
		return nil, asSourceFetchError(err)
	}

	var pushes []*github.Event
	for _, e := range events {
		if e.GetType() == "PushEvent" {
			pushes = append(pushes, e)
		}
	}
	return pushes, nil
}

// asSourceFetchError maps go-github errors onto the SourceFetchError type the
// orchestrator records.
func asSourceFetchError(err error) error {
	switch e := err.(type) {
	case *github.RateLimitError:
		return &SourceFetchError{StatusCode: e.Response.StatusCode, Body: e.Message}
	case *github.AbuseRateLimitError:
		return &SourceFetchError{StatusCode: e.Response.StatusCode, Body: e.Message}
	case *github.ErrorResponse:
		return &SourceFetchError{StatusCode: e.Response.StatusCode, Body: e.Message}
	default:
		return &SourceFetchError{Body: err.Error()}
	}
}
