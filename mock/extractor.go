package mock

import (
	"context"

	"github.com/fwojciec/scrapely"
)

var _ scrapely.Tokenizer = (*Tokenizer)(nil)

// Tokenizer is a mock implementation of scrapely.Tokenizer.
type Tokenizer struct {
	TokenizeFn func(url string, body []byte, encoding string) *scrapely.Page
}

func (t *Tokenizer) Tokenize(url string, body []byte, encoding string) *scrapely.Page {
	return t.TokenizeFn(url, body, encoding)
}

var _ scrapely.Locator = (*Locator)(nil)

// Locator is a mock implementation of scrapely.Locator.
type Locator struct {
	LocateFn func(page *scrapely.Page, value string) (scrapely.Region, bool)
}

func (l *Locator) Locate(page *scrapely.Page, value string) (scrapely.Region, bool) {
	return l.LocateFn(page, value)
}

var _ scrapely.Extractor = (*Extractor)(nil)

// Extractor is a mock implementation of scrapely.Extractor.
type Extractor struct {
	ExtractFn func(ctx context.Context, templates []*scrapely.Template, page *scrapely.Page) (*scrapely.Result, error)
}

func (e *Extractor) Extract(ctx context.Context, templates []*scrapely.Template, page *scrapely.Page) (*scrapely.Result, error) {
	return e.ExtractFn(ctx, templates, page)
}
