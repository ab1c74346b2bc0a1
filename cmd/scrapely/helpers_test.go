package main_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/fwojciec/scrapely"
	"github.com/fwojciec/scrapely/align"
	main "github.com/fwojciec/scrapely/cmd/scrapely"
	"github.com/fwojciec/scrapely/html"
	"github.com/fwojciec/scrapely/htmltomarkdown"
	"github.com/fwojciec/scrapely/levenshtein"
	"github.com/fwojciec/scrapely/mock"
	"github.com/stretchr/testify/require"
)

const kettlePage = `<html><body>
<div class="product"><h1>Blue Kettle</h1><span class="price">24.00</span>
<div class="desc"><p>Boils <b>fast</b>.</p></div></div>
</body></html>`

const toasterPage = `<html><body>
<div class="product"><h1>Red Toaster</h1><span class="price">31.50</span>
<div class="desc"><p>Toasts <b>evenly</b>.</p></div></div>
</body></html>`

// newDeps returns dependencies with the real extraction pipeline, a fetcher
// serving pages and buffers capturing output.
func newDeps(pages map[string]string) (*main.Dependencies, *bytes.Buffer, *bytes.Buffer) {
	opts := scrapely.DefaultOptions()
	stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
	return &main.Dependencies{
		Ctx:       context.Background(),
		Stdout:    stdout,
		Stderr:    stderr,
		Options:   opts,
		Fetcher:   mock.NewPageFetcher(pages),
		Tokenizer: html.NewTokenizer(),
		Locator:   levenshtein.NewLocator(opts),
		Extractor: align.NewExtractor(opts),
		Converter: htmltomarkdown.NewConverter(),
	}, stdout, stderr
}

// kettleRecord returns the persisted form of a template trained on
// kettlePage.
func kettleRecord(t *testing.T) *scrapely.TemplateRecord {
	t.Helper()
	opts := scrapely.DefaultOptions()
	page := html.NewTokenizer().Tokenize("https://shop.test/kettle", []byte(kettlePage), "utf-8")
	tmpl, err := scrapely.BuildTemplate(page, levenshtein.NewLocator(opts), []scrapely.FieldSpec{
		{Field: "name", Value: "Blue Kettle", Required: true},
		{Field: "price", Value: "24.00"},
	})
	require.NoError(t, err)
	return tmpl.Record()
}

// setService returns a template service holding records under set.
func setService(set string, records ...*scrapely.TemplateRecord) *mock.TemplateService {
	return &mock.TemplateService{
		FindTemplatesFn: func(_ context.Context, filter scrapely.TemplateFilter) ([]*scrapely.TemplateEntry, error) {
			if filter.Set == nil || *filter.Set != set {
				return nil, nil
			}
			entries := make([]*scrapely.TemplateEntry, len(records))
			for i, rec := range records {
				entries[i] = &scrapely.TemplateEntry{ID: "tpl-" + string(rune('a'+i)), Set: set, Position: i, Record: rec}
			}
			return entries, nil
		},
	}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}
