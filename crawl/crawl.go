// Package crawl runs extraction over many pages of a site. Pages come from
// the site's sitemaps or, when it has none, from following links out of the
// start URL.
package crawl

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/fwojciec/scrapely"
)

// Frontier sizing for link-following crawls.
const (
	frontierExpectedURLs      = 10000
	frontierFalsePositiveRate = 0.01
)

// Defaults applied when the corresponding Crawler field is zero.
const (
	DefaultConcurrency = 4
	DefaultMaxPages    = 1000
)

// Crawler fetches pages and extracts records from each with a fixed set of
// templates.
type Crawler struct {
	Sitemaps  scrapely.SitemapService
	Fetcher   scrapely.Fetcher
	Tokenizer scrapely.Tokenizer
	Extractor scrapely.Extractor

	// Links enables link following when no sitemap lists any page.
	Links scrapely.LinkSelector

	RateLimiter scrapely.DomainLimiter

	// Store, when set, receives the result of every matched page.
	Store scrapely.ResultStore

	Concurrency int
	MaxPages    int

	// MaxDepth bounds link following; zero means unlimited.
	MaxDepth int

	Retry   RetryPolicy
	OnRetry func(url string, attempt uint, err error)
}

// Summary holds the outcome of a crawl.
type Summary struct {
	Pages     int
	Matched   int
	Unmatched int
	Failed    int
	Records   int
}

// PageResult is the outcome for a single page. Err is a *scrapely.MatchError
// when no template matched the page.
type PageResult struct {
	URL    string
	Depth  int
	Result *scrapely.Result
	Err    error

	// LinkErr is set when links could not be read from the page during a
	// link-following crawl. The page's own result is unaffected.
	LinkErr error
}

// PageFunc receives every crawled page. Calls are serialized.
type PageFunc func(page PageResult)

type pageOutcome struct {
	PageResult
	links []scrapely.Link
}

// Crawl extracts records from the pages of the site at startURL. Sitemap
// URLs are used when available; otherwise links are followed from startURL,
// staying below its path. The filter applies to both sources.
func (c *Crawler) Crawl(ctx context.Context, templates []*scrapely.Template, startURL string, filter *scrapely.URLFilter, fn PageFunc) (*Summary, error) {
	if len(templates) == 0 {
		return nil, scrapely.Errorf(scrapely.EINVALID, "at least one template required")
	}
	start, err := url.Parse(startURL)
	if err != nil || start.Host == "" {
		return nil, scrapely.Errorf(scrapely.EINVALID, "invalid start URL %q", startURL)
	}

	frontier := NewFrontier(frontierExpectedURLs, frontierFalsePositiveRate)
	follow := false

	if c.Sitemaps != nil {
		urls, err := c.Sitemaps.DiscoverURLs(ctx, startURL, filter)
		if err != nil {
			return nil, fmt.Errorf("sitemap discovery: %w", err)
		}
		for _, u := range urls {
			frontier.Push(scrapely.Link{URL: u})
		}
	}
	if frontier.Len() == 0 {
		if c.Links == nil {
			return &Summary{}, nil
		}
		follow = true
		frontier.Push(scrapely.Link{URL: startURL})
	}

	scope := start.Path[:strings.LastIndex(start.Path, "/")+1]
	admit := func(link scrapely.Link) bool {
		u, err := url.Parse(link.URL)
		if err != nil || u.Host != start.Host || !strings.HasPrefix(u.Path, scope) {
			return false
		}
		if c.MaxDepth > 0 && link.Depth > c.MaxDepth {
			return false
		}
		return filter.Match(link.URL)
	}

	var summary Summary
	handle := func(out pageOutcome) {
		summary.Pages++
		switch {
		case out.Err == nil:
			summary.Matched++
			summary.Records += len(out.Result.Records)
			if c.Store != nil {
				if err := c.Store.Save(ctx, out.URL, out.Result); err != nil {
					out.Err = fmt.Errorf("save %s: %w", out.URL, err)
					summary.Matched--
					summary.Failed++
				}
			}
		case scrapely.ErrorCode(out.Err) == scrapely.ENOMATCH:
			summary.Unmatched++
		default:
			summary.Failed++
		}
		if follow {
			for _, link := range out.links {
				link.Depth = out.Depth + 1
				if admit(link) {
					frontier.Push(link)
				}
			}
		}
		if fn != nil {
			fn(out.PageResult)
		}
	}

	process := func(ctx context.Context, link scrapely.Link) pageOutcome {
		return c.processPage(ctx, templates, link, follow)
	}

	if err := c.walk(ctx, frontier, process, handle); err != nil {
		return &summary, err
	}
	return &summary, ctx.Err()
}

// walk dispatches frontier links to a worker pool and feeds results back to
// handle on the calling goroutine, which may push new links. It returns once
// the frontier is drained and no work is pending, or MaxPages were
// dispatched, or the context is canceled.
func (c *Crawler) walk(
	ctx context.Context,
	frontier *Frontier,
	process func(context.Context, scrapely.Link) pageOutcome,
	handle func(pageOutcome),
) error {
	concurrency := c.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	maxPages := c.MaxPages
	if maxPages <= 0 {
		maxPages = DefaultMaxPages
	}

	workCh := make(chan scrapely.Link)
	resultCh := make(chan pageOutcome)

	var wg sync.WaitGroup
	for range concurrency {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for link := range workCh {
				resultCh <- process(ctx, link)
			}
		}()
	}
	go func() {
		wg.Wait()
		close(resultCh)
	}()

	dispatched, pending := 0, 0
	var next *scrapely.Link

loop:
	for {
		if next == nil && dispatched < maxPages {
			if link, ok := frontier.Pop(); ok {
				next = &link
			}
		}
		if next == nil && pending == 0 {
			break
		}

		var work chan scrapely.Link
		if next != nil && ctx.Err() == nil {
			work = workCh
		} else if pending == 0 {
			break
		}

		var nextLink scrapely.Link
		if next != nil {
			nextLink = *next
		}
		select {
		case work <- nextLink:
			dispatched++
			pending++
			next = nil
		case out := <-resultCh:
			pending--
			handle(out)
		case <-ctx.Done():
			if pending == 0 {
				break loop
			}
			out := <-resultCh
			pending--
			handle(out)
		}
	}

	close(workCh)
	for out := range resultCh {
		handle(out)
	}
	return nil
}

// processPage fetches, tokenizes and extracts a single page.
func (c *Crawler) processPage(ctx context.Context, templates []*scrapely.Template, link scrapely.Link, follow bool) pageOutcome {
	out := pageOutcome{PageResult: PageResult{URL: link.URL, Depth: link.Depth}}

	if c.RateLimiter != nil {
		u, err := url.Parse(link.URL)
		if err != nil {
			out.Err = err
			return out
		}
		if err := c.RateLimiter.Wait(ctx, u.Host); err != nil {
			out.Err = err
			return out
		}
	}

	policy := c.Retry
	if policy.Attempts == 0 {
		policy = DefaultRetryPolicy()
	}
	var onRetry RetryFunc
	if c.OnRetry != nil {
		onRetry = func(attempt uint, err error) { c.OnRetry(link.URL, attempt, err) }
	}
	body, err := FetchWithRetry(ctx, c.Fetcher, link.URL, policy, onRetry)
	if err != nil {
		out.Err = fmt.Errorf("fetch %s: %w", link.URL, err)
		return out
	}

	if follow {
		out.links, err = c.Links.ExtractLinks(body, link.URL)
		if err != nil {
			out.LinkErr = fmt.Errorf("extract links from %s: %w", link.URL, err)
		}
	}

	page := c.Tokenizer.Tokenize(link.URL, []byte(body), "utf-8")
	out.Result, out.Err = c.Extractor.Extract(ctx, templates, page)
	return out
}
