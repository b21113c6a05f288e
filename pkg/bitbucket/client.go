// Package bitbucket fetches issues from the Bitbucket REST API. It is the
// external issue source for the synchronizer: callers get a forward-only
// iterator over a repository's issues and pagination is handled internally.
package bitbucket

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"golang.org/x/oauth2"
)

const (
	// DefaultBaseURL is the Bitbucket REST endpoint prefix.
	DefaultBaseURL = "https://api.bitbucket.org/1.0"

	// defaultBatchSize is the page size requested per issues call. The API
	// caps large limits, so batches stay small.
	defaultBatchSize = 25
)

// Client talks to the Bitbucket issues API.
type Client struct {
	baseURL string
	http    *http.Client
	batch   int
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the API endpoint, e.g. for a self-hosted tracker or
// a test server.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// WithToken authenticates requests with an OAuth2 bearer token.
func WithToken(ctx context.Context, token string) Option {
	return func(c *Client) {
		src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
		c.http = oauth2.NewClient(ctx, src)
	}
}

// WithBasicAuth authenticates requests with a username and app password.
func WithBasicAuth(username, password string) Option {
	return func(c *Client) {
		c.http = &http.Client{
			Transport: &basicAuthTransport{
				username: username,
				password: password,
				rt:       http.DefaultTransport,
			},
		}
	}
}

// WithHTTPClient supplies a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// NewClient creates a Bitbucket API client. Without auth options, requests
// are anonymous, which is sufficient for public repositories.
func NewClient(opts ...Option) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		http:    http.DefaultClient,
		batch:   defaultBatchSize,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type basicAuthTransport struct {
	username, password string
	rt                 http.RoundTripper
}

func (t *basicAuthTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	clone := req.Clone(req.Context())
	clone.SetBasicAuth(t.username, t.password)
	return t.rt.RoundTrip(clone)
}

// issuesPage is the envelope the issues endpoint returns: a total count plus
// one batch of issue records.
type issuesPage struct {
	Count  int     `json:"count"`
	Issues []Issue `json:"issues"`
}

// Issues returns an iterator over every issue in owner/slug. The sequence is
// lazy, finite, forward-only, and non-restartable; each page of results is
// fetched on demand as the iterator advances.
func (c *Client) Issues(ctx context.Context, owner, slug string) *Iterator {
	return &Iterator{c: c, ctx: ctx, owner: owner, slug: slug}
}

// Iterator walks a repository's issues page by page. Usage:
//
//	it := client.Issues(ctx, "biocommons", "eutils")
//	for it.Next() {
//		issue := it.Issue()
//		...
//	}
//	if err := it.Err(); err != nil {
//		...
//	}
type Iterator struct {
	c           *Client
	ctx         context.Context
	owner, slug string

	buf     []Issue
	pos     int
	start   int
	count   int
	fetched bool
	cur     Issue
	err     error
}

// Next advances to the next issue, fetching the next page from the API when
// the current one is exhausted. It returns false when the sequence ends or
// an error occurs; check Err afterwards.
func (it *Iterator) Next() bool {
	if it.err != nil {
		return false
	}
	for it.pos >= len(it.buf) {
		if it.fetched && it.start >= it.count {
			return false
		}
		page, err := it.c.fetchIssues(it.ctx, it.owner, it.slug, it.start, it.c.batch)
		if err != nil {
			it.err = err
			return false
		}
		it.fetched = true
		it.count = page.Count
		it.start += it.c.batch
		it.buf = page.Issues
		it.pos = 0
	}
	it.cur = it.buf[it.pos]
	it.pos++
	return true
}

// Issue returns the issue produced by the last successful call to Next.
func (it *Iterator) Issue() Issue {
	return it.cur
}

// Err returns the error that terminated iteration, if any.
func (it *Iterator) Err() error {
	return it.err
}

func (c *Client) fetchIssues(ctx context.Context, owner, slug string, start, limit int) (*issuesPage, error) {
	u := fmt.Sprintf("%s/repositories/%s/%s/issues?%s",
		c.baseURL, url.PathEscape(owner), url.PathEscape(slug),
		url.Values{
			"start": {strconv.Itoa(start)},
			"limit": {strconv.Itoa(limit)},
		}.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build issues request for %s/%s: %w", owner, slug, err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to get issues for %s/%s: %w", owner, slug, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("failed to get issues for %s/%s: %s: %s", owner, slug, resp.Status, body)
	}

	var page issuesPage
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, fmt.Errorf("failed to decode issues for %s/%s: %w", owner, slug, err)
	}
	return &page, nil
}
