package mock

import (
	"context"

	"github.com/fwojciec/scrapely"
)

var _ scrapely.ResultStore = (*ResultStore)(nil)

// ResultStore is a mock implementation of scrapely.ResultStore.
type ResultStore struct {
	SaveFn   func(ctx context.Context, url string, result *scrapely.Result) error
	CommitFn func() error
	AbortFn  func() error
}

func (s *ResultStore) Save(ctx context.Context, url string, result *scrapely.Result) error {
	return s.SaveFn(ctx, url, result)
}

func (s *ResultStore) Commit() error {
	return s.CommitFn()
}

func (s *ResultStore) Abort() error {
	return s.AbortFn()
}
