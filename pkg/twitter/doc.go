// Package twitter implements the Twitter API v2 user timeline client.
//
// The client issues GET /2/users/:id/tweets with an app bearer token and
// converts each response into a models.Page. It performs no retries of its
// own: a 429 answer surfaces as an error of type errors.ErrorTypeRateLimit
// so the caller decides how to back off.
//
//	client := twitter.NewClient(token, 30*time.Second, log,
//		twitter.WithLimiter(limiter),
//	)
//	page, err := client.FetchPage(ctx, twitter.NewPageRequest("2244994945", "", 10))
//	if errors.IsRateLimited(err) {
//		// back off and try again
//	}
package twitter
