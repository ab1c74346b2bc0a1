package mock

import (
	"context"

	"github.com/fwojciec/scrapely"
)

var _ scrapely.Fetcher = (*Fetcher)(nil)

// Fetcher is a mock implementation of scrapely.Fetcher.
type Fetcher struct {
	FetchFn func(ctx context.Context, url string) (string, error)
	CloseFn func() error
}

// NewPageFetcher returns a Fetcher serving pages by URL. Unknown URLs fail
// with ENOTFOUND the way the HTTP fetcher reports a 404.
func NewPageFetcher(pages map[string]string) *Fetcher {
	return &Fetcher{
		FetchFn: func(_ context.Context, url string) (string, error) {
			body, ok := pages[url]
			if !ok {
				return "", scrapely.Errorf(scrapely.ENOTFOUND, "HTTP 404 for %s", url)
			}
			return body, nil
		},
	}
}

func (f *Fetcher) Fetch(ctx context.Context, url string) (string, error) {
	return f.FetchFn(ctx, url)
}

// Close calls CloseFn when set.
func (f *Fetcher) Close() error {
	if f.CloseFn == nil {
		return nil
	}
	return f.CloseFn()
}
