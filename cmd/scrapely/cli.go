package main

import (
	"context"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/fwojciec/scrapely"
	"github.com/fwojciec/scrapely/crawl"
	"github.com/fwojciec/scrapely/htmltomarkdown"
	"github.com/fwojciec/scrapely/scrape"
)

// Dependencies holds all services and configuration for command execution.
type Dependencies struct {
	Ctx     context.Context
	Stdout  io.Writer
	Stderr  io.Writer
	Options scrapely.Options

	Templates scrapely.TemplateService
	Fetcher   scrapely.Fetcher
	Sitemaps  scrapely.SitemapService
	Links     scrapely.LinkSelector
	Limiter   scrapely.DomainLimiter

	Tokenizer scrapely.Tokenizer
	Locator   scrapely.Locator
	Extractor scrapely.Extractor
	Converter *htmltomarkdown.Converter

	// Archive opens the template file at path for export and import.
	Archive func(path string) scrapely.TemplateArchive

	// Results opens the result store for a crawl writing to dir/name.
	Results func(dir, name string) scrapely.ResultStore
}

// newScraper returns a scraper wired to the dependencies, holding no
// templates.
func (d *Dependencies) newScraper() *scrape.Scraper {
	return &scrape.Scraper{
		Tokenizer: d.Tokenizer,
		Locator:   d.Locator,
		Extractor: d.Extractor,
		Fetcher:   d.Fetcher,
	}
}

// newCrawler returns a crawler wired to the dependencies.
func (d *Dependencies) newCrawler() *crawl.Crawler {
	return &crawl.Crawler{
		Sitemaps:    d.Sitemaps,
		Fetcher:     d.Fetcher,
		Tokenizer:   d.Tokenizer,
		Extractor:   d.Extractor,
		Links:       d.Links,
		RateLimiter: d.Limiter,
	}
}

// loadSet loads the templates of a set into a new scraper, in position order.
func (d *Dependencies) loadSet(set string) (*scrape.Scraper, error) {
	entries, err := d.Templates.FindTemplates(d.Ctx, scrapely.TemplateFilter{Set: &set})
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, scrapely.Errorf(scrapely.ENOTFOUND, "template set %q not found. Use 'scrapely list' to see available sets.", set)
	}
	records := make([]*scrapely.TemplateRecord, len(entries))
	for i, e := range entries {
		records[i] = e.Record
	}
	s := d.newScraper()
	if err := s.LoadRecords(records); err != nil {
		return nil, err
	}
	return s, nil
}

// readPage tokenizes the markup in file, recording url as its address. The
// encoding is sniffed from the content.
func (d *Dependencies) readPage(url, file string) (*scrapely.Page, error) {
	body, err := os.ReadFile(file)
	if err != nil {
		return nil, err
	}
	return d.Tokenizer.Tokenize(url, body, ""), nil
}

// CLI defines the command-line interface structure for Kong.
type CLI struct {
	Verbose bool   `short:"v" help:"Log every operation to stderr"`
	Config  string `type:"path" help:"YAML file overriding extraction options"`

	Train  TrainCmd  `cmd:"" help:"Train a template from a page and field values"`
	Scrape ScrapeCmd `cmd:"" help:"Extract records from a page with a template set"`
	Crawl  CrawlCmd  `cmd:"" help:"Extract records from every page of a site"`
	List   ListCmd   `cmd:"" help:"List stored templates"`
	Delete DeleteCmd `cmd:"" help:"Delete a template set or a single template"`
	Export ExportCmd `cmd:"" help:"Write a template set to a JSON file"`
	Import ImportCmd `cmd:"" help:"Add templates from a JSON file to a set"`
	Tokens TokensCmd `cmd:"" help:"Print the token sequence of a page"`
}

// TrainCmd is the "train" subcommand.
type TrainCmd struct {
	Set      string             `arg:"" help:"Template set name"`
	URL      string             `arg:"" help:"Page URL"`
	Fields   []string           `arg:"" help:"Training values as field=value (repeat a field for several values)"`
	File     string             `type:"existingfile" help:"Read the page from a local file instead of fetching URL"`
	Required []string           `short:"r" help:"Fields that must be present for the template to match"`
	Markup   []string           `short:"m" help:"Fields extracted with their markup preserved"`
	Weight   map[string]float64 `short:"w" help:"Per-field score weight as field=weight"`
}

// ScrapeCmd is the "scrape" subcommand.
type ScrapeCmd struct {
	Set      string `arg:"" help:"Template set name"`
	URL      string `arg:"" help:"Page URL"`
	File     string `type:"existingfile" help:"Read the page from a local file instead of fetching URL"`
	Markdown bool   `help:"Render markup fields as Markdown"`
}

// CrawlCmd is the "crawl" subcommand.
type CrawlCmd struct {
	Set         string   `arg:"" help:"Template set name"`
	URL         string   `arg:"" help:"Site start URL"`
	Filter      []string `short:"F" help:"Only crawl URLs matching regex (repeatable)"`
	Exclude     []string `short:"X" help:"Skip URLs matching regex (repeatable)"`
	Concurrency int      `short:"c" default:"4" help:"Concurrent fetch limit"`
	MaxPages    int      `default:"1000" help:"Maximum pages to fetch"`
	MaxDepth    int      `help:"Maximum link depth when following links (0 for unlimited)"`
	Retries     uint     `default:"3" help:"Retries per failed fetch"`
	Out         string   `short:"o" type:"path" help:"Write results as JSON files under this directory"`
	Markdown    bool     `help:"Render markup fields as Markdown"`
}

// ListCmd is the "list" subcommand.
type ListCmd struct {
	Set string `arg:"" optional:"" help:"Only list templates of this set"`
}

// DeleteCmd is the "delete" subcommand.
type DeleteCmd struct {
	Set   string `arg:"" help:"Template set name"`
	ID    string `help:"Delete only the template with this ID"`
	Force bool   `help:"Confirm deletion"`
}

// ExportCmd is the "export" subcommand.
type ExportCmd struct {
	Set  string `arg:"" help:"Template set name"`
	Path string `arg:"" type:"path" help:"Output JSON file"`
}

// ImportCmd is the "import" subcommand.
type ImportCmd struct {
	Set  string `arg:"" help:"Template set name"`
	Path string `arg:"" type:"existingfile" help:"Template JSON file"`
}

// TokensCmd is the "tokens" subcommand.
type TokensCmd struct {
	URL  string `arg:"" help:"Page URL"`
	File string `type:"existingfile" help:"Read the page from a local file instead of fetching URL"`
}

// parseFields turns field=value arguments into training pairs.
func parseFields(args []string, required, markup []string, weights map[string]float64) ([]scrapely.FieldSpec, error) {
	specs := make([]scrapely.FieldSpec, 0, len(args))
	for _, arg := range args {
		field, value, ok := strings.Cut(arg, "=")
		if !ok || field == "" || value == "" {
			return nil, scrapely.Errorf(scrapely.EINVALID, "invalid training value %q: expected field=value", arg)
		}
		specs = append(specs, scrapely.FieldSpec{
			Field:       field,
			Value:       value,
			Required:    slices.Contains(required, field),
			AllowMarkup: slices.Contains(markup, field),
			Weight:      weights[field],
		})
	}
	return specs, nil
}
