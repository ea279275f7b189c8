package gh

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/google/go-github/v68/github"
	"github.com/karlseguin/ccache/v2"
	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"

	"repo-nav/model"
)

// Error constants
var (
	ErrRateLimitExceeded  = errors.New("rate limit exceeded")
	ErrRepositoryNotFound = errors.New("repository not found")
	ErrPathNotFound       = errors.New("path not found")
	ErrInvalidToken       = errors.New("invalid token")
	ErrFetchError         = errors.New("could not obtain repository data from the GitHub API")
)

const (
	DefaultAPIBaseURL   = "https://api.github.com/"
	DefaultRawBaseURL   = "https://raw.githubusercontent.com"
	DefaultMediaBaseURL = "https://media.githubusercontent.com/media"
	DefaultCacheTTL     = 5 * time.Minute

	// TokenEnv is the environment variable for the GitHub token
	TokenEnv = "GITHUB_TOKEN"
)

// ClientOption configures a Client
type ClientOption func(*Client)

// WithBaseURL points the API client at a different server, e.g. GitHub
// Enterprise or a test server.
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.apiBaseURL = baseURL
	}
}

// WithRawBaseURLs overrides the hosts used for raw and LFS file content.
func WithRawBaseURLs(raw, media string) ClientOption {
	return func(c *Client) {
		c.rawBaseURL = strings.TrimSuffix(raw, "/")
		c.mediaBaseURL = strings.TrimSuffix(media, "/")
	}
}

// WithCacheTTL sets how long branch lists and default branches are reused.
func WithCacheTTL(ttl time.Duration) ClientOption {
	return func(c *Client) {
		c.ttl = ttl
	}
}

func WithLogger(logger *logrus.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithRetryPolicy replaces the default retry schedule.
func WithRetryPolicy(maxRetries int, baseDelay, maxDelay time.Duration) ClientOption {
	return func(c *Client) {
		c.retry = retryPolicy{maxRetries: maxRetries, baseDelay: baseDelay, maxDelay: maxDelay}
	}
}

// Client answers the questions the navigation layer cannot answer from the
// URL alone: which branches exist, which one is the default, and what a
// directory contains.
type Client struct {
	api          *github.Client
	httpClient   *http.Client
	cache        *ccache.Cache
	ttl          time.Duration
	logger       *logrus.Logger
	retry        retryPolicy
	apiBaseURL   string
	rawBaseURL   string
	mediaBaseURL string
}

// NewClient creates a client. An empty token means anonymous access.
func NewClient(token string, opts ...ClientOption) (*Client, error) {
	c := &Client{
		ttl:          DefaultCacheTTL,
		retry:        defaultRetryPolicy(),
		apiBaseURL:   DefaultAPIBaseURL,
		rawBaseURL:   DefaultRawBaseURL,
		mediaBaseURL: DefaultMediaBaseURL,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = logrus.New()
		c.logger.SetLevel(logrus.InfoLevel)
	}

	var transport http.RoundTripper = &retryTransport{policy: c.retry}
	if token != "" {
		transport = &oauth2.Transport{
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token}),
			Base:   transport,
		}
	}
	c.httpClient = &http.Client{Transport: transport, Timeout: 30 * time.Second}

	c.api = github.NewClient(c.httpClient)
	if c.apiBaseURL != DefaultAPIBaseURL {
		if !strings.HasSuffix(c.apiBaseURL, "/") {
			c.apiBaseURL += "/"
		}
		u, err := url.Parse(c.apiBaseURL)
		if err != nil {
			return nil, fmt.Errorf("invalid API base URL %s: %w", c.apiBaseURL, err)
		}
		c.api.BaseURL = u
	}

	c.cache = ccache.New(ccache.Configure().MaxSize(1000).ItemsToPrune(100))
	return c, nil
}

// ListBranches returns every branch name of owner/repository.
func (c *Client) ListBranches(ctx context.Context, owner, repository string) ([]string, error) {
	key := "branches:" + owner + "/" + repository
	if item := c.cache.Get(key); item != nil && !item.Expired() {
		c.logger.WithField("repo", owner+"/"+repository).Debug("branch list cache hit")
		return slices.Clone(item.Value().([]string)), nil
	}

	var names []string
	opts := &github.BranchListOptions{ListOptions: github.ListOptions{PerPage: 100}}
	for {
		branches, resp, err := c.api.Repositories.ListBranches(ctx, owner, repository, opts)
		if err != nil {
			return nil, translateError(err, owner, repository)
		}
		for _, b := range branches {
			names = append(names, b.GetName())
		}
		if resp == nil || resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	c.cache.Set(key, slices.Clone(names), c.ttl)
	c.logger.WithFields(logrus.Fields{
		"repo":     owner + "/" + repository,
		"branches": len(names),
	}).Debug("branch list fetched")
	return names, nil
}

// DefaultBranch returns the branch the repository root page shows.
func (c *Client) DefaultBranch(ctx context.Context, owner, repository string) (string, error) {
	key := "default:" + owner + "/" + repository
	if item := c.cache.Get(key); item != nil && !item.Expired() {
		return item.Value().(string), nil
	}

	repo, _, err := c.api.Repositories.Get(ctx, owner, repository)
	if err != nil {
		return "", translateError(err, owner, repository)
	}
	branch := repo.GetDefaultBranch()
	c.cache.Set(key, branch, c.ttl)
	return branch, nil
}

// ListEntries lists the directory d points at. A descriptor that points at
// a file yields no entries. Directories sort before files.
func (c *Client) ListEntries(ctx context.Context, d model.PathDescriptor) ([]model.Entry, error) {
	if !d.HasBranch() {
		return nil, fmt.Errorf("listing %s/%s: no branch resolved", d.Owner, d.Repository)
	}

	opts := &github.RepositoryContentGetOptions{Ref: d.Branch}
	_, dir, _, err := c.api.Repositories.GetContents(ctx, d.Owner, d.Repository, strings.Join(d.Path, "/"), opts)
	if err != nil {
		return nil, translatePathError(err, d)
	}

	entries := make([]model.Entry, 0, len(dir))
	for _, item := range dir {
		kind := model.EntryFile
		if item.GetType() == "dir" {
			kind = model.EntryDir
		}
		entries = append(entries, model.Entry{
			Name: item.GetName(),
			Kind: kind,
			Size: int64(item.GetSize()),
			SHA:  item.GetSHA(),
		})
	}

	slices.SortStableFunc(entries, func(a, b model.Entry) int {
		if a.Kind != b.Kind {
			return int(b.Kind) - int(a.Kind)
		}
		return strings.Compare(a.Name, b.Name)
	})
	return entries, nil
}

// FetchReadme returns the repository README at ref.
func (c *Client) FetchReadme(ctx context.Context, owner, repository, ref string) (*model.Readme, error) {
	rc, _, err := c.api.Repositories.GetReadme(ctx, owner, repository, &github.RepositoryContentGetOptions{Ref: ref})
	if err != nil {
		return nil, translateError(err, owner, repository)
	}
	content, err := rc.GetContent()
	if err != nil {
		return nil, fmt.Errorf("decoding README of %s/%s: %w", owner, repository, err)
	}
	return &model.Readme{Path: rc.GetPath(), SHA: rc.GetSHA(), Content: content}, nil
}

// translatePathError reports a 404 against the branch and path d names,
// which may be missing while the repository exists.
func translatePathError(err error, d model.PathDescriptor) error {
	var respErr *github.ErrorResponse
	if errors.As(err, &respErr) && respErr.Response != nil && respErr.Response.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %s/%s@%s:/%s", ErrPathNotFound, d.Owner, d.Repository, d.Branch, strings.Join(d.Path, "/"))
	}
	return translateError(err, d.Owner, d.Repository)
}

func translateError(err error, owner, repository string) error {
	var rateErr *github.RateLimitError
	if errors.As(err, &rateErr) {
		return fmt.Errorf("%w: resets at %s", ErrRateLimitExceeded, rateErr.Rate.Reset.Time.Format(time.RFC3339))
	}
	var abuseErr *github.AbuseRateLimitError
	if errors.As(err, &abuseErr) {
		return ErrRateLimitExceeded
	}

	var respErr *github.ErrorResponse
	if errors.As(err, &respErr) && respErr.Response != nil {
		switch respErr.Response.StatusCode {
		case http.StatusNotFound:
			return fmt.Errorf("%w: %s/%s", ErrRepositoryNotFound, owner, repository)
		case http.StatusUnauthorized:
			return ErrInvalidToken
		case http.StatusForbidden:
			if respErr.Response.Header.Get("X-RateLimit-Remaining") == "0" {
				return ErrRateLimitExceeded
			}
			return fmt.Errorf("HTTP 403 Forbidden - check repository access and rate limits")
		}
		return fmt.Errorf("%w: HTTP %d", ErrFetchError, respErr.Response.StatusCode)
	}

	return fmt.Errorf("%w: %v", ErrFetchError, err)
}
