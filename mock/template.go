package mock

import (
	"context"

	"github.com/fwojciec/scrapely"
)

var _ scrapely.TemplateService = (*TemplateService)(nil)

// TemplateService is a mock implementation of scrapely.TemplateService.
type TemplateService struct {
	CreateTemplateFn       func(ctx context.Context, entry *scrapely.TemplateEntry) error
	FindTemplateByIDFn     func(ctx context.Context, id string) (*scrapely.TemplateEntry, error)
	FindTemplatesFn        func(ctx context.Context, filter scrapely.TemplateFilter) ([]*scrapely.TemplateEntry, error)
	DeleteTemplateFn       func(ctx context.Context, id string) error
	DeleteTemplatesBySetFn func(ctx context.Context, set string) (int, error)
}

func (s *TemplateService) CreateTemplate(ctx context.Context, entry *scrapely.TemplateEntry) error {
	return s.CreateTemplateFn(ctx, entry)
}

func (s *TemplateService) FindTemplateByID(ctx context.Context, id string) (*scrapely.TemplateEntry, error) {
	return s.FindTemplateByIDFn(ctx, id)
}

func (s *TemplateService) FindTemplates(ctx context.Context, filter scrapely.TemplateFilter) ([]*scrapely.TemplateEntry, error) {
	return s.FindTemplatesFn(ctx, filter)
}

func (s *TemplateService) DeleteTemplate(ctx context.Context, id string) error {
	return s.DeleteTemplateFn(ctx, id)
}

func (s *TemplateService) DeleteTemplatesBySet(ctx context.Context, set string) (int, error) {
	return s.DeleteTemplatesBySetFn(ctx, set)
}

var _ scrapely.TemplateArchive = (*TemplateArchive)(nil)

// TemplateArchive is a mock implementation of scrapely.TemplateArchive.
type TemplateArchive struct {
	ReadTemplatesFn  func(ctx context.Context) ([]*scrapely.TemplateRecord, error)
	WriteTemplatesFn func(ctx context.Context, records []*scrapely.TemplateRecord) error
}

func (a *TemplateArchive) ReadTemplates(ctx context.Context) ([]*scrapely.TemplateRecord, error) {
	return a.ReadTemplatesFn(ctx)
}

func (a *TemplateArchive) WriteTemplates(ctx context.Context, records []*scrapely.TemplateRecord) error {
	return a.WriteTemplatesFn(ctx, records)
}
