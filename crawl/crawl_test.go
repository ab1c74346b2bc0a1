package crawl_test

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fwojciec/scrapely"
	"github.com/fwojciec/scrapely/crawl"
	"github.com/fwojciec/scrapely/html"
	"github.com/fwojciec/scrapely/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mocks struct {
	Sitemaps  *mock.SitemapService
	Fetcher   *mock.Fetcher
	Extractor *mock.Extractor
	Links     *mock.LinkSelector
}

// newTestCrawler returns a crawler whose extractor reports a match on every
// page containing "item" and NoMatch elsewhere.
func newTestCrawler() (*crawl.Crawler, *mocks) {
	m := &mocks{
		Sitemaps: &mock.SitemapService{
			DiscoverURLsFn: func(context.Context, string, *scrapely.URLFilter) ([]string, error) {
				return nil, nil
			},
		},
		Fetcher: &mock.Fetcher{
			FetchFn: func(_ context.Context, url string) (string, error) {
				return "<p>" + url + "</p>", nil
			},
		},
		Extractor: &mock.Extractor{
			ExtractFn: func(_ context.Context, _ []*scrapely.Template, page *scrapely.Page) (*scrapely.Result, error) {
				if !strings.Contains(page.Body, "item") {
					return nil, &scrapely.MatchError{}
				}
				rec := scrapely.NewRecord()
				rec.Set("url", scrapely.Scalar(page.URL))
				return &scrapely.Result{Records: []*scrapely.Record{rec}}, nil
			},
		},
		Links: &mock.LinkSelector{
			ExtractLinksFn: func(string, string) ([]scrapely.Link, error) { return nil, nil },
		},
	}
	c := &crawl.Crawler{
		Sitemaps:  m.Sitemaps,
		Fetcher:   m.Fetcher,
		Tokenizer: html.NewTokenizer(),
		Extractor: m.Extractor,
		Links:     m.Links,
		Retry:     crawl.RetryPolicy{Attempts: 1},
	}
	return c, m
}

var templates = []*scrapely.Template{{}}

func collect(pages *[]crawl.PageResult) crawl.PageFunc {
	return func(p crawl.PageResult) { *pages = append(*pages, p) }
}

func pageURLs(pages []crawl.PageResult) []string {
	out := make([]string, len(pages))
	for i, p := range pages {
		out[i] = p.URL
	}
	sort.Strings(out)
	return out
}

func TestCrawler_Crawl_FromSitemap(t *testing.T) {
	t.Parallel()

	c, m := newTestCrawler()
	m.Sitemaps.DiscoverURLsFn = func(_ context.Context, baseURL string, _ *scrapely.URLFilter) ([]string, error) {
		assert.Equal(t, "https://shop.test/", baseURL)
		return []string{"https://shop.test/item/1", "https://shop.test/item/2", "https://shop.test/about"}, nil
	}
	m.Links.ExtractLinksFn = func(string, string) ([]scrapely.Link, error) {
		t.Error("links must not be followed when the sitemap lists pages")
		return nil, nil
	}

	var pages []crawl.PageResult
	summary, err := c.Crawl(context.Background(), templates, "https://shop.test/", nil, collect(&pages))

	require.NoError(t, err)
	assert.Equal(t, &crawl.Summary{Pages: 3, Matched: 2, Unmatched: 1, Records: 2}, summary)
	assert.Equal(t, []string{"https://shop.test/about", "https://shop.test/item/1", "https://shop.test/item/2"}, pageURLs(pages))
	for _, p := range pages {
		if p.URL == "https://shop.test/about" {
			assert.Equal(t, scrapely.ENOMATCH, scrapely.ErrorCode(p.Err))
		} else {
			assert.NoError(t, p.Err)
		}
	}
}

func TestCrawler_Crawl_FollowsLinks(t *testing.T) {
	t.Parallel()

	c, m := newTestCrawler()
	m.Links.ExtractLinksFn = func(_ string, baseURL string) ([]scrapely.Link, error) {
		switch baseURL {
		case "https://shop.test/catalog/":
			return []scrapely.Link{
				{URL: "https://shop.test/catalog/item/1"},
				{URL: "https://shop.test/catalog/item/2"},
				{URL: "https://shop.test/blog/post"},
				{URL: "https://other.test/catalog/item/9"},
			}, nil
		case "https://shop.test/catalog/item/1":
			return []scrapely.Link{
				{URL: "https://shop.test/catalog/"},
				{URL: "https://shop.test/catalog/item/3"},
			}, nil
		}
		return nil, nil
	}

	var pages []crawl.PageResult
	summary, err := c.Crawl(context.Background(), templates, "https://shop.test/catalog/", nil, collect(&pages))

	require.NoError(t, err)
	assert.Equal(t, []string{
		"https://shop.test/catalog/",
		"https://shop.test/catalog/item/1",
		"https://shop.test/catalog/item/2",
		"https://shop.test/catalog/item/3",
	}, pageURLs(pages))
	assert.Equal(t, 3, summary.Matched)
	assert.Equal(t, 1, summary.Unmatched)
	for _, p := range pages {
		if p.URL == "https://shop.test/catalog/item/3" {
			assert.Equal(t, 2, p.Depth)
		}
	}
}

func TestCrawler_Crawl_ReportsLinkErrors(t *testing.T) {
	t.Parallel()

	c, m := newTestCrawler()
	m.Links.ExtractLinksFn = func(_ string, baseURL string) ([]scrapely.Link, error) {
		if baseURL == "https://shop.test/catalog/" {
			return []scrapely.Link{{URL: "https://shop.test/catalog/item/1"}}, nil
		}
		return nil, errors.New("malformed base")
	}

	var pages []crawl.PageResult
	summary, err := c.Crawl(context.Background(), templates, "https://shop.test/catalog/", nil, collect(&pages))

	require.NoError(t, err)
	assert.Equal(t, 1, summary.Matched)
	require.Len(t, pages, 2)
	for _, p := range pages {
		if p.URL == "https://shop.test/catalog/item/1" {
			assert.ErrorContains(t, p.LinkErr, "malformed base")
			assert.NoError(t, p.Err)
			assert.NotNil(t, p.Result)
		} else {
			assert.NoError(t, p.LinkErr)
		}
	}
}

func TestCrawler_Crawl_Limits(t *testing.T) {
	t.Parallel()

	chain := func(_ string, baseURL string) ([]scrapely.Link, error) {
		var links []scrapely.Link
		for i := range 5 {
			links = append(links, scrapely.Link{URL: fmt.Sprintf("%s%d/", baseURL, i)})
		}
		return links, nil
	}

	t.Run("max pages", func(t *testing.T) {
		t.Parallel()

		c, m := newTestCrawler()
		c.MaxPages = 7
		m.Links.ExtractLinksFn = chain

		summary, err := c.Crawl(context.Background(), templates, "https://shop.test/", nil, nil)

		require.NoError(t, err)
		assert.Equal(t, 7, summary.Pages)
	})

	t.Run("max depth", func(t *testing.T) {
		t.Parallel()

		c, m := newTestCrawler()
		c.MaxDepth = 1
		m.Links.ExtractLinksFn = chain

		summary, err := c.Crawl(context.Background(), templates, "https://shop.test/", nil, nil)

		require.NoError(t, err)
		assert.Equal(t, 6, summary.Pages)
	})

	t.Run("filter", func(t *testing.T) {
		t.Parallel()

		c, m := newTestCrawler()
		c.MaxDepth = 1
		m.Links.ExtractLinksFn = chain
		filter := &scrapely.URLFilter{Exclude: []*regexp.Regexp{regexp.MustCompile(`/[0-2]/$`)}}

		summary, err := c.Crawl(context.Background(), templates, "https://shop.test/", filter, nil)

		require.NoError(t, err)
		assert.Equal(t, 3, summary.Pages)
	})
}

func TestCrawler_Crawl_FetchFailures(t *testing.T) {
	t.Parallel()

	c, m := newTestCrawler()
	m.Sitemaps.DiscoverURLsFn = func(context.Context, string, *scrapely.URLFilter) ([]string, error) {
		return []string{"https://shop.test/item/1", "https://shop.test/item/2"}, nil
	}
	m.Fetcher.FetchFn = func(_ context.Context, url string) (string, error) {
		if strings.HasSuffix(url, "/2") {
			return "", errors.New("HTTP 500")
		}
		return "<p>item</p>", nil
	}

	var pages []crawl.PageResult
	summary, err := c.Crawl(context.Background(), templates, "https://shop.test/", nil, collect(&pages))

	require.NoError(t, err)
	assert.Equal(t, 1, summary.Matched)
	assert.Equal(t, 1, summary.Failed)
	for _, p := range pages {
		if p.URL == "https://shop.test/item/2" {
			assert.ErrorContains(t, p.Err, "HTTP 500")
		}
	}
}

func TestCrawler_Crawl_SavesMatchedPages(t *testing.T) {
	t.Parallel()

	c, m := newTestCrawler()
	m.Sitemaps.DiscoverURLsFn = func(context.Context, string, *scrapely.URLFilter) ([]string, error) {
		return []string{"https://shop.test/item/1", "https://shop.test/about"}, nil
	}
	var saved []string
	c.Store = &mock.ResultStore{SaveFn: func(_ context.Context, url string, _ *scrapely.Result) error {
		saved = append(saved, url)
		return nil
	}}

	_, err := c.Crawl(context.Background(), templates, "https://shop.test/", nil, nil)

	require.NoError(t, err)
	assert.Equal(t, []string{"https://shop.test/item/1"}, saved)
}

func TestCrawler_Crawl_Concurrency(t *testing.T) {
	t.Parallel()

	const numPages = 10
	const concurrency = 3

	var maxConcurrent, current atomic.Int32
	c, m := newTestCrawler()
	c.Concurrency = concurrency
	m.Sitemaps.DiscoverURLsFn = func(context.Context, string, *scrapely.URLFilter) ([]string, error) {
		var urls []string
		for i := range numPages {
			urls = append(urls, fmt.Sprintf("https://shop.test/item/%d", i))
		}
		return urls, nil
	}
	m.Fetcher.FetchFn = func(_ context.Context, url string) (string, error) {
		n := current.Add(1)
		for {
			peak := maxConcurrent.Load()
			if n <= peak || maxConcurrent.CompareAndSwap(peak, n) {
				break
			}
		}
		time.Sleep(30 * time.Millisecond)
		current.Add(-1)
		return "<p>item</p>", nil
	}

	summary, err := c.Crawl(context.Background(), templates, "https://shop.test/", nil, nil)

	require.NoError(t, err)
	assert.Equal(t, numPages, summary.Matched)
	assert.Greater(t, maxConcurrent.Load(), int32(1))
	assert.LessOrEqual(t, maxConcurrent.Load(), int32(concurrency))
}

func TestCrawler_Crawl_RateLimitsPerHost(t *testing.T) {
	t.Parallel()

	c, m := newTestCrawler()
	m.Sitemaps.DiscoverURLsFn = func(context.Context, string, *scrapely.URLFilter) ([]string, error) {
		return []string{"https://shop.test/item/1", "https://shop.test/item/2"}, nil
	}
	var mu sync.Mutex
	var hosts []string
	c.RateLimiter = &mock.DomainLimiter{WaitFn: func(_ context.Context, domain string) error {
		mu.Lock()
		defer mu.Unlock()
		hosts = append(hosts, domain)
		return nil
	}}

	_, err := c.Crawl(context.Background(), templates, "https://shop.test/", nil, nil)

	require.NoError(t, err)
	assert.Equal(t, []string{"shop.test", "shop.test"}, hosts)
}

func TestCrawler_Crawl_Errors(t *testing.T) {
	t.Parallel()

	t.Run("requires templates", func(t *testing.T) {
		t.Parallel()

		c, _ := newTestCrawler()

		_, err := c.Crawl(context.Background(), nil, "https://shop.test/", nil, nil)

		assert.Equal(t, scrapely.EINVALID, scrapely.ErrorCode(err))
	})

	t.Run("requires absolute start URL", func(t *testing.T) {
		t.Parallel()

		c, _ := newTestCrawler()

		_, err := c.Crawl(context.Background(), templates, "/relative", nil, nil)

		assert.Equal(t, scrapely.EINVALID, scrapely.ErrorCode(err))
	})

	t.Run("propagates sitemap errors", func(t *testing.T) {
		t.Parallel()

		c, m := newTestCrawler()
		m.Sitemaps.DiscoverURLsFn = func(context.Context, string, *scrapely.URLFilter) ([]string, error) {
			return nil, errors.New("boom")
		}

		_, err := c.Crawl(context.Background(), templates, "https://shop.test/", nil, nil)

		assert.ErrorContains(t, err, "sitemap discovery")
	})

	t.Run("stops on cancellation", func(t *testing.T) {
		t.Parallel()

		c, m := newTestCrawler()
		ctx, cancel := context.WithCancel(context.Background())
		m.Links.ExtractLinksFn = func(_ string, baseURL string) ([]scrapely.Link, error) {
			cancel()
			return []scrapely.Link{{URL: baseURL + "next/"}}, nil
		}

		summary, err := c.Crawl(ctx, templates, "https://shop.test/", nil, nil)

		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 1, summary.Pages)
	})
}
