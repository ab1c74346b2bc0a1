package main

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"

	"github.com/fwojciec/scrapely"
	"github.com/fwojciec/scrapely/crawl"
)

// pageLine is the JSON line written for every matched page when results are
// streamed to stdout.
type pageLine struct {
	URL     string             `json:"url"`
	Records []*scrapely.Record `json:"records"`
}

// Run executes the crawl command.
func (c *CrawlCmd) Run(deps *Dependencies) error {
	filter, err := compileFilter(c.Filter, c.Exclude)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %v\n", err)
		return err
	}

	s, err := deps.loadSet(c.Set)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", scrapely.ErrorMessage(err))
		return err
	}

	crawler := deps.newCrawler()
	crawler.Concurrency = c.Concurrency
	crawler.MaxPages = c.MaxPages
	crawler.MaxDepth = c.MaxDepth
	crawler.Retry = crawl.DefaultRetryPolicy()
	crawler.Retry.Attempts = c.Retries + 1
	crawler.OnRetry = func(url string, attempt uint, err error) {
		fmt.Fprintf(deps.Stderr, "  retry %s (attempt %d): %v\n", url, attempt, err)
	}

	var store scrapely.ResultStore
	if c.Out != "" {
		store = deps.Results(c.Out, c.Set)
		if c.Markdown {
			store = &markdownStore{ResultStore: store, deps: deps}
		}
		crawler.Store = store
	}

	enc := json.NewEncoder(deps.Stdout)
	var convertErr error
	onPage := func(p crawl.PageResult) {
		if p.LinkErr != nil {
			fmt.Fprintf(deps.Stderr, "  links %s: %v\n", p.URL, p.LinkErr)
		}
		switch {
		case p.Err == nil:
			if store != nil {
				return
			}
			if c.Markdown {
				if err := deps.Converter.ConvertResult(p.Result); err != nil && convertErr == nil {
					convertErr = err
				}
			}
			_ = enc.Encode(pageLine{URL: p.URL, Records: p.Result.Records})
		case scrapely.ErrorCode(p.Err) == scrapely.ENOMATCH:
			fmt.Fprintf(deps.Stderr, "  no match %s\n", p.URL)
		default:
			fmt.Fprintf(deps.Stderr, "  skip %s: %v\n", p.URL, p.Err)
		}
	}

	summary, err := crawler.Crawl(deps.Ctx, s.Templates(), c.URL, filter, onPage)
	if err == nil {
		err = convertErr
	}
	if err != nil {
		if store != nil {
			_ = store.Abort()
		}
		fmt.Fprintf(deps.Stderr, "error crawling: %v\n", err)
		return err
	}
	if store != nil {
		if err := store.Commit(); err != nil {
			fmt.Fprintf(deps.Stderr, "error: %v\n", err)
			return err
		}
	}

	fmt.Fprintf(deps.Stderr, "Crawled %d pages: %d matched, %d unmatched, %d failed (%d records)\n",
		summary.Pages, summary.Matched, summary.Unmatched, summary.Failed, summary.Records)
	return nil
}

// markdownStore renders markup fields as Markdown before saving.
type markdownStore struct {
	scrapely.ResultStore
	deps *Dependencies
}

func (s *markdownStore) Save(ctx context.Context, url string, result *scrapely.Result) error {
	if err := s.deps.Converter.ConvertResult(result); err != nil {
		return err
	}
	return s.ResultStore.Save(ctx, url, result)
}

// compileFilter validates the URL patterns early. It returns nil when no
// pattern is given.
func compileFilter(include, exclude []string) (*scrapely.URLFilter, error) {
	if len(include) == 0 && len(exclude) == 0 {
		return nil, nil
	}
	filter := &scrapely.URLFilter{}
	for _, pattern := range include {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, scrapely.Errorf(scrapely.EINVALID, "invalid filter pattern %q: %v", pattern, err)
		}
		filter.Include = append(filter.Include, re)
	}
	for _, pattern := range exclude {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, scrapely.Errorf(scrapely.EINVALID, "invalid exclude pattern %q: %v", pattern, err)
		}
		filter.Exclude = append(filter.Exclude, re)
	}
	return filter, nil
}
