package slog

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/fwojciec/scrapely"
)

// Ensure decorators implement their interfaces.
var (
	_ scrapely.Extractor = (*LoggingExtractor)(nil)
	_ scrapely.Locator   = (*LoggingLocator)(nil)
)

// LoggingExtractor wraps an Extractor with debug logging. Every template
// attempt is logged at debug level; the outcome at info level.
type LoggingExtractor struct {
	next   scrapely.Extractor
	logger *slog.Logger
}

// NewLoggingExtractor creates a new LoggingExtractor.
func NewLoggingExtractor(next scrapely.Extractor, logger *slog.Logger) *LoggingExtractor {
	return &LoggingExtractor{next: next, logger: logger}
}

// Extract delegates to the wrapped extractor and logs the operation.
func (e *LoggingExtractor) Extract(ctx context.Context, templates []*scrapely.Template, page *scrapely.Page) (result *scrapely.Result, err error) {
	defer func(begin time.Time) {
		attrs := []any{
			"url", page.URL,
			"tokens", page.Len(),
			"templates", len(templates),
			"duration", time.Since(begin),
		}
		if result != nil {
			attrs = append(attrs,
				"template", result.TemplateIndex,
				"score", result.Score,
				"records", len(result.Records),
			)
			e.logAttempts(ctx, result.Attempts)
		}
		var me *scrapely.MatchError
		if errors.As(err, &me) {
			e.logAttempts(ctx, me.Attempts)
		}
		attrs = append(attrs, "err", err)
		e.logger.Info("extract", attrs...)
	}(time.Now())
	return e.next.Extract(ctx, templates, page)
}

func (e *LoggingExtractor) logAttempts(ctx context.Context, attempts []scrapely.Attempt) {
	for _, a := range attempts {
		e.logger.DebugContext(ctx, "template attempt",
			"template", a.TemplateIndex,
			"score", a.Score,
			"quality", a.Quality,
			"filled", a.Filled,
			"records", a.Records,
			"err", a.Err,
		)
	}
}

// LoggingLocator wraps a Locator with debug logging.
type LoggingLocator struct {
	next   scrapely.Locator
	logger *slog.Logger
}

// NewLoggingLocator creates a new LoggingLocator.
func NewLoggingLocator(next scrapely.Locator, logger *slog.Logger) *LoggingLocator {
	return &LoggingLocator{next: next, logger: logger}
}

// Locate delegates to the wrapped locator and logs the located region.
func (l *LoggingLocator) Locate(page *scrapely.Page, value string) (region scrapely.Region, ok bool) {
	defer func(begin time.Time) {
		l.logger.Info("locate",
			"value", value,
			"found", ok,
			"start", region.Start,
			"end", region.End,
			"score", region.Score,
			"duration", time.Since(begin),
		)
	}(time.Now())
	return l.next.Locate(page, value)
}
