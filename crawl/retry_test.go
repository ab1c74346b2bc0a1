package crawl_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/fwojciec/scrapely"
	"github.com/fwojciec/scrapely/crawl"
	"github.com/fwojciec/scrapely/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchWithRetry(t *testing.T) {
	t.Parallel()

	noDelay := crawl.RetryPolicy{Attempts: 4}

	t.Run("succeeds after transient failures", func(t *testing.T) {
		t.Parallel()

		var calls atomic.Int32
		fetcher := &mock.Fetcher{FetchFn: func(context.Context, string) (string, error) {
			if calls.Add(1) < 3 {
				return "", errors.New("connection reset")
			}
			return "<p>ok</p>", nil
		}}
		var retries []uint

		body, err := crawl.FetchWithRetry(context.Background(), fetcher, "https://example.com", noDelay,
			func(attempt uint, err error) { retries = append(retries, attempt) })

		require.NoError(t, err)
		assert.Equal(t, "<p>ok</p>", body)
		assert.Equal(t, int32(3), calls.Load())
		assert.Equal(t, []uint{1, 2}, retries)
	})

	t.Run("returns last error after all attempts", func(t *testing.T) {
		t.Parallel()

		var calls atomic.Int32
		fetcher := &mock.Fetcher{FetchFn: func(context.Context, string) (string, error) {
			calls.Add(1)
			return "", errors.New("HTTP 503")
		}}

		_, err := crawl.FetchWithRetry(context.Background(), fetcher, "https://example.com", noDelay, nil)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "HTTP 503")
		assert.Equal(t, int32(4), calls.Load())
	})

	t.Run("does not retry invalid input", func(t *testing.T) {
		t.Parallel()

		var calls atomic.Int32
		fetcher := &mock.Fetcher{FetchFn: func(context.Context, string) (string, error) {
			calls.Add(1)
			return "", scrapely.Errorf(scrapely.EINVALID, "bad url")
		}}

		_, err := crawl.FetchWithRetry(context.Background(), fetcher, "::", noDelay, nil)

		assert.Equal(t, scrapely.EINVALID, scrapely.ErrorCode(err))
		assert.Equal(t, int32(1), calls.Load())
	})

	t.Run("does not retry missing pages", func(t *testing.T) {
		t.Parallel()

		var calls atomic.Int32
		fetcher := &mock.Fetcher{FetchFn: func(context.Context, string) (string, error) {
			calls.Add(1)
			return "", scrapely.Errorf(scrapely.ENOTFOUND, "HTTP 404 for https://example.com/gone")
		}}

		_, err := crawl.FetchWithRetry(context.Background(), fetcher, "https://example.com/gone", noDelay, nil)

		assert.Equal(t, scrapely.ENOTFOUND, scrapely.ErrorCode(err))
		assert.Equal(t, int32(1), calls.Load())
	})

	t.Run("stops on context cancellation", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		fetcher := &mock.Fetcher{FetchFn: func(context.Context, string) (string, error) {
			cancel()
			return "", errors.New("timeout")
		}}

		_, err := crawl.FetchWithRetry(ctx, fetcher, "https://example.com", crawl.DefaultRetryPolicy(), nil)

		require.Error(t, err)
	})
}
