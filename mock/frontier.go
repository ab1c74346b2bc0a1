package mock

import (
	"context"

	"github.com/fwojciec/scrapely"
)

var _ scrapely.URLFrontier = (*URLFrontier)(nil)

// URLFrontier is a mock implementation of scrapely.URLFrontier.
type URLFrontier struct {
	PushFn func(link scrapely.Link) bool
	PopFn  func() (scrapely.Link, bool)
	LenFn  func() int
	SeenFn func(url string) bool
}

func (f *URLFrontier) Push(link scrapely.Link) bool {
	return f.PushFn(link)
}

func (f *URLFrontier) Pop() (scrapely.Link, bool) {
	return f.PopFn()
}

func (f *URLFrontier) Len() int {
	return f.LenFn()
}

func (f *URLFrontier) Seen(url string) bool {
	return f.SeenFn(url)
}

var _ scrapely.DomainLimiter = (*DomainLimiter)(nil)

// DomainLimiter is a mock implementation of scrapely.DomainLimiter.
type DomainLimiter struct {
	WaitFn func(ctx context.Context, domain string) error
}

func (l *DomainLimiter) Wait(ctx context.Context, domain string) error {
	return l.WaitFn(ctx, domain)
}
