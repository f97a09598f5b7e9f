// Package ratelimit paces outgoing Twitter API requests on the client side.
//
// Twitter enforces per-endpoint windows (the user timeline allows 1500
// requests per 15 minutes per app). A limiter keeps a long multi-subject run
// inside that budget so the server rarely has to answer 429 at all.
//
// Two strategies are available:
//
//   - TokenBucket allows bursts up to N and regains one token every period/N.
//   - SlidingWindow allows at most N requests within any window.
//
// Both are safe for concurrent use and block in Wait until a request is
// allowed or the context ends:
//
//	limiter, err := ratelimit.New("sliding_window", 1500, 15*time.Minute)
//	if err != nil {
//		return err
//	}
//	if limiter != nil {
//		if err := limiter.Wait(ctx); err != nil {
//			return err
//		}
//	}
package ratelimit
