// Package scraper walks a Twitter user timeline from the newest page to the last.
//
// FetchAll follows next_token cursors until the API stops returning one,
// accumulating tweets and the expanded author profiles of every page. Rate
// limit rejections are retried with exponential backoff plus jitter:
// after the n-th consecutive rejection it waits unit*2^n plus up to one unit.
// A page that still fails after MaxRetries retries ends the walk; any other
// error ends it at once. Either way the pages fetched so far are returned.
//
// Pages are fetched strictly one at a time with a politeness delay of one
// unit after each success.
//
//	client := twitter.NewClient(token, 30*time.Second, log)
//	s, err := scraper.New(client, scraper.DefaultOptions())
//	if err != nil {
//		return err
//	}
//	res := s.FetchAll(ctx, "2244994945")
//	if !res.Complete() {
//		log.WithError(res.Err).Warn("partial timeline")
//	}
package scraper
