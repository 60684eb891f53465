// internal/github/search.go
package github

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/go-github/v62/github"
)

// SearchFilters parameterize the discovery search endpoints.
type SearchFilters struct {
	Query          string
	Language       string
	Sort           string // stars | forks | updated | best-match
	GoodFirstIssue bool
	Page           int
	PerPage        int
}

func (f SearchFilters) listOptions() github.ListOptions {
	page := f.Page
	if page <= 0 {
		page = 1
	}
	perPage := f.PerPage
	if perPage <= 0 || perPage > 100 {
		perPage = 12
	}
	return github.ListOptions{Page: page, PerPage: perPage}
}

// SearchRepositories finds repositories for the discovery page. An empty
// query defaults to popular repos.
func (c *Client) SearchRepositories(ctx context.Context, f SearchFilters) (*github.RepositoriesSearchResult, error) {
	q := f.Query
	if q == "" {
		q = "stars:>100"
	}
	if f.Language != "" {
		q += fmt.Sprintf(" language:%s", f.Language)
	}
	if f.GoodFirstIssue {
		q += " good-first-issues:>0"
	}

	sort := f.Sort
	if sort == "best-match" {
		sort = ""
	}

	res, _, err := c.gh.Search.Repositories(ctx, q, &github.SearchOptions{
		Sort:        sort,
		Order:       "desc",
		ListOptions: f.listOptions(),
	})
	if err != nil {
		return nil, asSourceFetchError(err)
	}
	return res, nil
}

// SearchGoodFirstIssues finds open issues labeled "good first issue".
func (c *Client) SearchGoodFirstIssues(ctx context.Context, f SearchFilters) (*github.IssuesSearchResult, error) {
	var sb strings.Builder
	if f.Query != "" {
		sb.WriteString(f.Query)
		sb.WriteString(" ")
	}
	sb.WriteString(`label:"good first issue" state:open`)
	if f.Language != "" {
		fmt.Fprintf(&sb, " language:%s", f.Language)
	}

	res, _, err := c.gh.Search.Issues(ctx, sb.String(), &github.SearchOptions{
		Sort:        "created",
		Order:       "desc",
		ListOptions: f.listOptions(),
	})
	if err != nil {
		return nil, asSourceFetchError(err)
	}
	return res, nil
}
