package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/scrapely"
)

// Ensure LoggingTemplateService implements scrapely.TemplateService.
var _ scrapely.TemplateService = (*LoggingTemplateService)(nil)

// LoggingTemplateService wraps a TemplateService with debug logging.
type LoggingTemplateService struct {
	next   scrapely.TemplateService
	logger *slog.Logger
}

// NewLoggingTemplateService creates a new LoggingTemplateService.
func NewLoggingTemplateService(next scrapely.TemplateService, logger *slog.Logger) *LoggingTemplateService {
	return &LoggingTemplateService{next: next, logger: logger}
}

// CreateTemplate delegates to the wrapped service and logs the operation.
func (s *LoggingTemplateService) CreateTemplate(ctx context.Context, entry *scrapely.TemplateEntry) (err error) {
	defer func(begin time.Time) {
		s.logger.Info("create template",
			"set", entry.Set,
			"id", entry.ID,
			"position", entry.Position,
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.CreateTemplate(ctx, entry)
}

// FindTemplateByID delegates to the wrapped service and logs the operation.
func (s *LoggingTemplateService) FindTemplateByID(ctx context.Context, id string) (entry *scrapely.TemplateEntry, err error) {
	defer func(begin time.Time) {
		s.logger.Info("find template",
			"id", id,
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.FindTemplateByID(ctx, id)
}

// FindTemplates delegates to the wrapped service and logs the operation.
func (s *LoggingTemplateService) FindTemplates(ctx context.Context, filter scrapely.TemplateFilter) (entries []*scrapely.TemplateEntry, err error) {
	defer func(begin time.Time) {
		set := ""
		if filter.Set != nil {
			set = *filter.Set
		}
		s.logger.Info("find templates",
			"set", set,
			"count", len(entries),
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.FindTemplates(ctx, filter)
}

// DeleteTemplate delegates to the wrapped service and logs the operation.
func (s *LoggingTemplateService) DeleteTemplate(ctx context.Context, id string) (err error) {
	defer func(begin time.Time) {
		s.logger.Info("delete template",
			"id", id,
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.DeleteTemplate(ctx, id)
}

// DeleteTemplatesBySet delegates to the wrapped service and logs the operation.
func (s *LoggingTemplateService) DeleteTemplatesBySet(ctx context.Context, set string) (n int, err error) {
	defer func(begin time.Time) {
		s.logger.Info("delete template set",
			"set", set,
			"count", n,
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.DeleteTemplatesBySet(ctx, set)
}
