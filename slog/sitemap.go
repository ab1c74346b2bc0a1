package slog

import (
	"context"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/fwojciec/scrapely"
)

// Ensure LoggingSitemapService implements scrapely.SitemapService.
var _ scrapely.SitemapService = (*LoggingSitemapService)(nil)

// LoggingSitemapService wraps a SitemapService with debug logging.
type LoggingSitemapService struct {
	next   scrapely.SitemapService
	logger *slog.Logger
}

// NewLoggingSitemapService creates a new LoggingSitemapService.
func NewLoggingSitemapService(next scrapely.SitemapService, logger *slog.Logger) *LoggingSitemapService {
	return &LoggingSitemapService{next: next, logger: logger}
}

// DiscoverURLs delegates to the wrapped service and logs the seed count along
// with the filter that produced it. An empty result is logged as a warning
// since the crawl then relies on link following alone.
func (s *LoggingSitemapService) DiscoverURLs(ctx context.Context, baseURL string, filter *scrapely.URLFilter) (urls []string, err error) {
	defer func(begin time.Time) {
		level := slog.LevelInfo
		if err == nil && len(urls) == 0 {
			level = slog.LevelWarn
		}
		attrs := []any{"url", baseURL}
		if filter != nil {
			attrs = append(attrs,
				"include", patterns(filter.Include),
				"exclude", patterns(filter.Exclude),
			)
		}
		attrs = append(attrs,
			"seeds", len(urls),
			"duration", time.Since(begin),
			"err", err,
		)
		s.logger.Log(ctx, level, "sitemap discovery", attrs...)
		for _, u := range urls {
			s.logger.DebugContext(ctx, "sitemap seed", "url", u)
		}
	}(time.Now())
	return s.next.DiscoverURLs(ctx, baseURL, filter)
}

func patterns(res []*regexp.Regexp) string {
	ss := make([]string, len(res))
	for i, re := range res {
		ss[i] = re.String()
	}
	return strings.Join(ss, ",")
}
