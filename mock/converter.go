package mock

import "github.com/fwojciec/scrapely"

var _ scrapely.Converter = (*Converter)(nil)

// Converter is a mock implementation of scrapely.Converter.
type Converter struct {
	ConvertFn func(markup string) (string, error)
}

func (c *Converter) Convert(markup string) (string, error) {
	return c.ConvertFn(markup)
}
