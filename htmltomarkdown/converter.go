// Package htmltomarkdown renders markup-preserving field values as Markdown
// with github.com/JohannesKaufmann/html-to-markdown/v2.
package htmltomarkdown

import (
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"github.com/fwojciec/scrapely"
)

// Ensure Converter implements scrapely.Converter at compile time.
var _ scrapely.Converter = (*Converter)(nil)

// Converter wraps html-to-markdown to convert markup fragments to Markdown.
type Converter struct {
	conv   *converter.Converter
	domain string
}

// Option configures a Converter.
type Option func(*Converter)

// WithDomain resolves relative links and images against domain.
func WithDomain(domain string) Option {
	return func(c *Converter) {
		c.domain = domain
	}
}

// NewConverter creates a new Converter.
func NewConverter(opts ...Option) *Converter {
	c := &Converter{
		conv: converter.NewConverter(
			converter.WithPlugins(
				base.NewBasePlugin(),
				commonmark.NewCommonmarkPlugin(),
				table.NewTablePlugin(),
			),
		),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Convert transforms a markup fragment into trimmed Markdown.
func (c *Converter) Convert(markup string) (string, error) {
	if strings.TrimSpace(markup) == "" {
		return "", scrapely.Errorf(scrapely.EINVALID, "empty HTML input")
	}

	var opts []converter.ConvertOptionFunc
	if c.domain != "" {
		opts = append(opts, converter.WithDomain(c.domain))
	}
	result, err := c.conv.ConvertString(markup, opts...)
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(result), nil
}

// ConvertResult replaces the values of markup-preserving fields in every
// record of res with their Markdown rendering.
func (c *Converter) ConvertResult(res *scrapely.Result) error {
	if res.Template == nil {
		return nil
	}
	markup := make(map[string]bool)
	for _, a := range res.Template.Annotations {
		if a.AllowMarkup {
			markup[a.Field] = true
		}
	}
	for _, rec := range res.Records {
		for field := range markup {
			v, ok := rec.Get(field)
			if !ok {
				continue
			}
			values := v.Values()
			for i, s := range values {
				md, err := c.Convert(s)
				if err != nil {
					return err
				}
				values[i] = md
			}
			if v.IsMany() {
				rec.Set(field, scrapely.Many(values...))
			} else {
				rec.Set(field, scrapely.Scalar(values[0]))
			}
		}
	}
	return nil
}
