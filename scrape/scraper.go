// Package scrape ties the tokenizer, locator and extractor together into a
// train-then-scrape workflow over URLs or already tokenized pages.
package scrape

import (
	"context"
	"fmt"
	"sync"

	"github.com/fwojciec/scrapely"
)

// Scraper holds an ordered set of trained templates. Templates are tried in
// the order they were added. Scraper is safe for concurrent use.
type Scraper struct {
	Tokenizer scrapely.Tokenizer
	Locator   scrapely.Locator
	Extractor scrapely.Extractor

	// Fetcher is only needed by Train and Scrape.
	Fetcher scrapely.Fetcher

	mu        sync.RWMutex
	templates []*scrapely.Template
}

// AddTemplate appends a trained template.
func (s *Scraper) AddTemplate(tmpl *scrapely.Template) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.templates = append(s.templates, tmpl)
}

// Templates returns the trained templates in order.
func (s *Scraper) Templates() []*scrapely.Template {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*scrapely.Template, len(s.templates))
	copy(out, s.templates)
	return out
}

// TrainPage builds a template from page and the given field values and adds
// it to the scraper. A field listed several times yields one annotation per
// value.
func (s *Scraper) TrainPage(page *scrapely.Page, fields []scrapely.FieldSpec) (*scrapely.Template, error) {
	if len(fields) == 0 {
		return nil, scrapely.Errorf(scrapely.EINVALID, "training data required")
	}
	tmpl, err := scrapely.BuildTemplate(page, s.Locator, fields)
	if err != nil {
		return nil, err
	}
	s.AddTemplate(tmpl)
	return tmpl, nil
}

// Train fetches url and trains on it.
func (s *Scraper) Train(ctx context.Context, url string, fields []scrapely.FieldSpec) (*scrapely.Template, error) {
	if len(fields) == 0 {
		return nil, scrapely.Errorf(scrapely.EINVALID, "training data required")
	}
	page, err := s.fetch(ctx, url)
	if err != nil {
		return nil, err
	}
	return s.TrainPage(page, fields)
}

// ScrapePage extracts records from page using every trained template.
func (s *Scraper) ScrapePage(ctx context.Context, page *scrapely.Page) (*scrapely.Result, error) {
	return s.Extractor.Extract(ctx, s.Templates(), page)
}

// Scrape fetches url and extracts records from it.
func (s *Scraper) Scrape(ctx context.Context, url string) (*scrapely.Result, error) {
	page, err := s.fetch(ctx, url)
	if err != nil {
		return nil, err
	}
	return s.ScrapePage(ctx, page)
}

// LoadRecords rebuilds templates from their persisted form and appends them.
// Nothing is added if any record is invalid.
func (s *Scraper) LoadRecords(records []*scrapely.TemplateRecord) error {
	templates := make([]*scrapely.Template, 0, len(records))
	for i, rec := range records {
		tmpl, err := scrapely.NewTemplateFromRecord(rec, s.Tokenizer)
		if err != nil {
			return fmt.Errorf("template %d: %w", i, err)
		}
		templates = append(templates, tmpl)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.templates = append(s.templates, templates...)
	return nil
}

// Records returns the persisted form of every trained template.
func (s *Scraper) Records() []*scrapely.TemplateRecord {
	templates := s.Templates()
	records := make([]*scrapely.TemplateRecord, len(templates))
	for i, tmpl := range templates {
		records[i] = tmpl.Record()
	}
	return records
}

func (s *Scraper) fetch(ctx context.Context, url string) (*scrapely.Page, error) {
	if s.Fetcher == nil {
		return nil, scrapely.Errorf(scrapely.EINVALID, "no fetcher configured")
	}
	body, err := s.Fetcher.Fetch(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	return s.Tokenizer.Tokenize(url, []byte(body), "utf-8"), nil
}
