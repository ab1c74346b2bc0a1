package mock

import (
	"context"

	"github.com/fwojciec/scrapely"
)

var _ scrapely.SitemapService = (*SitemapService)(nil)

// SitemapService is a mock implementation of scrapely.SitemapService.
type SitemapService struct {
	DiscoverURLsFn func(ctx context.Context, baseURL string, filter *scrapely.URLFilter) ([]string, error)
}

func (s *SitemapService) DiscoverURLs(ctx context.Context, baseURL string, filter *scrapely.URLFilter) ([]string, error) {
	return s.DiscoverURLsFn(ctx, baseURL, filter)
}
