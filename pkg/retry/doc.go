// Package retry provides exponential backoff and a bounded retry loop for
// transient failures of Twitter API calls, in particular rate limit
// rejections (HTTP 429).
//
// The default backoff waits 2^n units plus a uniform jitter in [0, 1 unit)
// after the n-th consecutive failure:
//
//	backoff := retry.NewExponentialBackoff(time.Second, 0)
//	backoff.NextDelay(1) // 2s + [0s, 1s)
//	backoff.NextDelay(3) // 8s + [0s, 1s)
//
// Do runs an operation until it succeeds, fails with a non-retryable error,
// or uses up MaxAttempts:
//
//	page, err := retry.DoWithResult(func() (*models.Page, error) {
//		return client.FetchPage(ctx, req)
//	}, &retry.Config{
//		MaxAttempts: maxRetries + 1,
//		Backoff:     backoff,
//		RetryIf:     errors.IsRateLimited,
//		Context:     ctx,
//	})
//	if stderrors.Is(err, errors.ErrRetriesExhausted) {
//		// budget used up
//	}
//
// All waits go through Wait, which returns early when the context is
// cancelled.
package retry
