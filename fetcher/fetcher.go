// Package fetcher verifies that derived navigation links answer.
package fetcher

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const DefaultConcurrency = 5

var ErrBrokenLink = errors.New("broken link")

// Result is the outcome of checking one URL.
type Result struct {
	URL    string
	Status int
	Err    error
}

func (r Result) OK() bool {
	return r.Err == nil && r.Status >= 200 && r.Status < 400
}

// Checker sends a HEAD request to each URL, falling back to GET for servers
// that refuse HEAD.
type Checker struct {
	Client      *http.Client
	Concurrency int
	Logger      *logrus.Logger
	// OnDone is called after each URL finishes, from the checking goroutine.
	OnDone func(Result)
}

func NewChecker(client *http.Client, concurrency int) *Checker {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	logger := logrus.New()
	logger.SetLevel(logrus.InfoLevel)
	return &Checker{Client: client, Concurrency: concurrency, Logger: logger}
}

// Check returns one result per URL in input order. A cancelled context stops
// pending checks; their results carry the context error.
func (c *Checker) Check(ctx context.Context, urls []string) []Result {
	results := make([]Result, len(urls))
	limit := c.Concurrency
	if limit <= 0 {
		limit = DefaultConcurrency
	}

	logger := c.logger()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	var mu sync.Mutex
	for i, u := range urls {
		g.Go(func() error {
			r := c.checkOne(gctx, logger, u)
			results[i] = r
			if c.OnDone != nil {
				mu.Lock()
				c.OnDone(r)
				mu.Unlock()
			}
			return nil
		})
	}
	g.Wait()

	broken := 0
	for _, r := range results {
		if !r.OK() {
			broken++
		}
	}
	logger.WithFields(logrus.Fields{
		"checked": len(results),
		"broken":  broken,
	}).Debug("link check finished")
	return results
}

func (c *Checker) checkOne(ctx context.Context, logger *logrus.Logger, url string) Result {
	if err := ctx.Err(); err != nil {
		return Result{URL: url, Err: err}
	}

	status, err := c.do(ctx, http.MethodHead, url)
	if err == nil && (status == http.StatusMethodNotAllowed || status == http.StatusNotImplemented) {
		status, err = c.do(ctx, http.MethodGet, url)
	}
	if err != nil {
		logger.WithError(err).WithField("url", url).Debug("link check failed")
		return Result{URL: url, Err: err}
	}

	r := Result{URL: url, Status: status}
	if !r.OK() {
		r.Err = fmt.Errorf("%w: %s answered %d", ErrBrokenLink, url, status)
	}
	return r
}

func (c *Checker) do(ctx context.Context, method, url string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return 0, fmt.Errorf("creating request for %s: %w", url, err)
	}
	client := c.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return 0, err
	}
	resp.Body.Close()
	return resp.StatusCode, nil
}

// logger never writes to c, so concurrent Check calls may share a Checker.
func (c *Checker) logger() *logrus.Logger {
	if c.Logger == nil {
		return logrus.StandardLogger()
	}
	return c.Logger
}
