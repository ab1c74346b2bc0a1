package mock

import "github.com/fwojciec/scrapely"

var _ scrapely.LinkSelector = (*LinkSelector)(nil)

// LinkSelector is a mock implementation of scrapely.LinkSelector.
type LinkSelector struct {
	ExtractLinksFn func(body string, baseURL string) ([]scrapely.Link, error)
}

func (s *LinkSelector) ExtractLinks(body string, baseURL string) ([]scrapely.Link, error) {
	return s.ExtractLinksFn(body, baseURL)
}
