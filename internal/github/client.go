// Package github fetches issue and pull-request inputs from the GitHub API so
// callers can pass --repo/--issue-number or --repo/--pr-number instead of text.
package github

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/go-github/v57/github"
	"github.com/oraportal/claude-api/internal/errors"
	"golang.org/x/time/rate"
)

// Issue is the subset of a GitHub issue used for spec generation
type Issue struct {
	Number int
	Title  string
	Body   string
}

// PullRequest is the subset of a pull request used for review
type PullRequest struct {
	Number int
	Title  string
	Body   string
	Diff   string
}

// Client wraps the GitHub API client with rate limiting
type Client struct {
	client      *github.Client
	rateLimiter *rate.Limiter
	logger      *slog.Logger
}

// NewClient creates a GitHub client. An empty token makes unauthenticated
// requests; baseURL selects a GitHub Enterprise API root.
func NewClient(token string, rateLimit int, baseURL string) (*Client, error) {
	client := github.NewClient(nil)
	if token != "" {
		client = client.WithAuthToken(token)
	}
	if baseURL != "" {
		var err error
		client, err = client.WithEnterpriseURLs(baseURL, baseURL)
		if err != nil {
			return nil, errors.Wrap(err, errors.KindConfiguration, "invalid GitHub API URL").
				WithContext("base_url", baseURL)
		}
	}
	if rateLimit <= 0 {
		rateLimit = 10
	}

	return &Client{
		client:      client,
		rateLimiter: rate.NewLimiter(rate.Limit(rateLimit), 1),
		logger:      slog.Default().With("component", "github"),
	}, nil
}

// ParseRepo splits "owner/name"
func ParseRepo(fullName string) (owner, name string, err error) {
	parts := strings.Split(strings.TrimSpace(fullName), "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", errors.MissingInput(fmt.Sprintf("--repo must be in owner/name form, got %q", fullName))
	}
	return parts[0], parts[1], nil
}

// FetchIssue gets an issue's title and body
func (c *Client) FetchIssue(ctx context.Context, owner, name string, number int) (*Issue, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	issue, _, err := c.client.Issues.Get(ctx, owner, name, number)
	if err != nil {
		return nil, errors.ServiceErrorf(err, "fetch issue %s/%s#%d", owner, name, number)
	}

	c.logger.Debug("fetched issue", "repo", owner+"/"+name, "number", number)
	return &Issue{
		Number: number,
		Title:  issue.GetTitle(),
		Body:   issue.GetBody(),
	}, nil
}

// FetchPullRequest gets a pull request's description and its unified diff
func (c *Client) FetchPullRequest(ctx context.Context, owner, name string, number int) (*PullRequest, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	pr, _, err := c.client.PullRequests.Get(ctx, owner, name, number)
	if err != nil {
		return nil, errors.ServiceErrorf(err, "fetch pull request %s/%s#%d", owner, name, number)
	}

	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	diff, _, err := c.client.PullRequests.GetRaw(ctx, owner, name, number, github.RawOptions{Type: github.Diff})
	if err != nil {
		return nil, errors.ServiceErrorf(err, "fetch diff for %s/%s#%d", owner, name, number)
	}

	c.logger.Debug("fetched pull request", "repo", owner+"/"+name, "number", number, "diff_length", len(diff))
	return &PullRequest{
		Number: number,
		Title:  pr.GetTitle(),
		Body:   pr.GetBody(),
		Diff:   diff,
	}, nil
}
