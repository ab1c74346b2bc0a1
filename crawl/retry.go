package crawl

import (
	"context"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/fwojciec/scrapely"
)

// RetryPolicy controls how failed fetches are retried.
type RetryPolicy struct {
	// Attempts is the total number of tries, the first included.
	Attempts uint

	// Delay is the initial backoff; it doubles after every failure.
	Delay time.Duration

	// MaxDelay caps the backoff.
	MaxDelay time.Duration
}

// DefaultRetryPolicy retries three times after 1s, 2s and 4s.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{Attempts: 4, Delay: time.Second, MaxDelay: 4 * time.Second}
}

// RetryFunc is called before every retry with the attempt number (starting
// at 1) and the error that caused it.
type RetryFunc func(attempt uint, err error)

// FetchWithRetry fetches url, retrying failures with exponential backoff.
// Invalid-input and not-found errors are not retried. Context cancellation stops retrying
// immediately.
func FetchWithRetry(ctx context.Context, fetcher scrapely.Fetcher, url string, policy RetryPolicy, onRetry RetryFunc) (string, error) {
	attempts := policy.Attempts
	if attempts == 0 {
		attempts = 1
	}
	opts := []retry.Option{
		retry.Context(ctx),
		retry.Attempts(attempts),
		retry.Delay(policy.Delay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			code := scrapely.ErrorCode(err)
			return code != scrapely.EINVALID && code != scrapely.ENOTFOUND
		}),
	}
	if policy.MaxDelay > 0 {
		opts = append(opts, retry.MaxDelay(policy.MaxDelay))
	}
	if onRetry != nil {
		opts = append(opts, retry.OnRetry(func(n uint, err error) {
			onRetry(n+1, err)
		}))
	}
	return retry.DoWithData(func() (string, error) {
		return fetcher.Fetch(ctx, url)
	}, opts...)
}
