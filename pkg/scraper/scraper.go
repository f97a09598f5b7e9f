package scraper

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"tweetscraper/pkg/errors"
	"tweetscraper/pkg/logger"
	"tweetscraper/pkg/metrics"
	"tweetscraper/pkg/models"
	"tweetscraper/pkg/retry"
	"tweetscraper/pkg/twitter"
)

// StopReason tells why a fetch ended
type StopReason string

const (
	// StopCompleted means the last page was reached
	StopCompleted StopReason = "completed"
	// StopRetriesExhausted means consecutive rate limit rejections used up the retry budget
	StopRetriesExhausted StopReason = "retries_exhausted"
	// StopFailed means a non rate limit error ended the fetch
	StopFailed StopReason = "failed"
	// StopCancelled means the context ended the fetch
	StopCancelled StopReason = "cancelled"
	// StopInvalidInput means no request was made
	StopInvalidInput StopReason = "invalid_input"
)

// ErrEmptyUserID is reported when FetchAll is called without a user ID
var ErrEmptyUserID = stderrors.New("user ID is required")

// Result is everything accumulated by one FetchAll call
type Result struct {
	UserID string
	Tweets []models.Tweet
	Users  []models.User
	Pages  int
	Stop   StopReason
	// Err is the failure that ended the fetch early, nil when completed
	Err error
}

// Complete reports whether every page was fetched
func (r *Result) Complete() bool {
	return r.Stop == StopCompleted
}

// PageProgress describes the state after a successful page
type PageProgress struct {
	UserID      string
	Page        int
	PageTweets  int
	TotalTweets int
	TotalUsers  int
	NextCursor  string
}

// Options configures a Scraper
type Options struct {
	// MaxRetries is the number of consecutive rate limit rejections tolerated per page
	MaxRetries int
	// PageSize is max_results for every request
	PageSize int
	// PolitenessDelay is waited after every successful page
	PolitenessDelay time.Duration
	// Backoff computes the wait after the n-th consecutive rejection
	Backoff retry.BackoffStrategy
	Logger  logger.Logger
	Metrics *metrics.Metrics
	// OnPage is called after each successful page
	OnPage func(PageProgress)
	// OnFinish is called with every result before FetchAll returns it
	OnFinish func(*Result)
}

// DefaultOptions returns 5 retries, pages of 10 and a one second unit
func DefaultOptions() Options {
	return Options{
		MaxRetries:      5,
		PageSize:        twitter.DefaultPageSize,
		PolitenessDelay: time.Second,
		Backoff:         retry.DefaultExponentialBackoff(),
	}
}

// Scraper walks a user timeline page by page
type Scraper struct {
	fetcher PageFetcher
	opts    Options
	logger  logger.Logger
}

// New creates a Scraper over fetcher
func New(fetcher PageFetcher, opts Options) (*Scraper, error) {
	if fetcher == nil {
		return nil, stderrors.New("page fetcher is required")
	}
	if opts.MaxRetries < 0 {
		return nil, fmt.Errorf("max retries must be >= 0, got %d", opts.MaxRetries)
	}
	if opts.PageSize <= 0 {
		opts.PageSize = twitter.DefaultPageSize
	}
	if opts.Backoff == nil {
		opts.Backoff = retry.DefaultExponentialBackoff()
	}

	log := opts.Logger
	if log == nil {
		log = logger.GetLogger()
	}

	return &Scraper{
		fetcher: fetcher,
		opts:    opts,
		logger:  log,
	}, nil
}

// FetchAll retrieves every page of userID's timeline.
//
// It never returns an error: failures end the walk and are reported in
// Result.Stop and Result.Err alongside whatever was fetched before them.
// The retry budget applies to consecutive rate limit rejections and is
// restored after every successful page, empty pages included.
func (s *Scraper) FetchAll(ctx context.Context, userID string) *Result {
	res := &Result{
		UserID: userID,
		Tweets: []models.Tweet{},
		Users:  []models.User{},
	}
	log := s.logger.WithField("user_id", userID)
	start := time.Now()

	if userID == "" {
		res.Stop = StopInvalidInput
		res.Err = ErrEmptyUserID
		log.Error("Cannot fetch timeline without a user ID")
		s.finish(res)
		return res
	}

	log.InfoWithFields("Fetching timeline", map[string]interface{}{
		"max_retries": s.opts.MaxRetries,
		"page_size":   s.opts.PageSize,
	})

	cursor := ""
	for {
		page, err := s.fetchPage(ctx, log, userID, cursor)
		if err != nil {
			s.abort(log, res, err)
			break
		}

		res.Tweets = append(res.Tweets, page.Tweets...)
		res.Users = append(res.Users, page.Users...)
		res.Pages++
		cursor = page.NextCursor

		s.opts.Metrics.PageFetched(len(page.Tweets), len(page.Users))
		log.DebugWithFields("Page fetched", map[string]interface{}{
			"page":        res.Pages,
			"page_tweets": len(page.Tweets),
			"has_next":    page.HasNext(),
		})
		if s.opts.OnPage != nil {
			s.opts.OnPage(PageProgress{
				UserID:      userID,
				Page:        res.Pages,
				PageTweets:  len(page.Tweets),
				TotalTweets: len(res.Tweets),
				TotalUsers:  len(res.Users),
				NextCursor:  cursor,
			})
		}

		// an interrupted delay after the last page does not lose anything
		if err := retry.Wait(ctx, s.opts.PolitenessDelay); err != nil && cursor != "" {
			s.abort(log, res, err)
			break
		}

		if cursor == "" {
			res.Stop = StopCompleted
			break
		}
	}

	s.finish(res)
	log.InfoWithFields("Fetch finished", map[string]interface{}{
		"stop":     string(res.Stop),
		"pages":    res.Pages,
		"tweets":   len(res.Tweets),
		"users":    len(res.Users),
		"duration": time.Since(start).Round(time.Millisecond),
	})

	return res
}

func (s *Scraper) finish(res *Result) {
	s.opts.Metrics.FetchFinished(string(res.Stop))
	if s.opts.OnFinish != nil {
		s.opts.OnFinish(res)
	}
}

// FetchMany runs FetchAll for each user ID in order. A failed subject does
// not affect the others; subjects not started before ctx ends are skipped.
func (s *Scraper) FetchMany(ctx context.Context, userIDs []string) []*Result {
	results := make([]*Result, 0, len(userIDs))
	for _, id := range userIDs {
		if ctx.Err() != nil {
			break
		}
		results = append(results, s.FetchAll(ctx, id))
	}
	return results
}

// fetchPage runs a fresh retry loop for one pagination step, so the
// count of consecutive rejections starts at zero for every page.
func (s *Scraper) fetchPage(ctx context.Context, log logger.Logger, userID, cursor string) (*models.Page, error) {
	req := twitter.NewPageRequest(userID, cursor, s.opts.PageSize)

	cfg := &retry.Config{
		MaxAttempts: s.opts.MaxRetries + 1,
		Backoff:     s.opts.Backoff,
		RetryIf:     errors.IsRateLimited,
		OnRetry: func(attempt int, err error, delay time.Duration) {
			s.opts.Metrics.Backoff(delay)
			logger.LogRateLimit(log, userID, attempt, s.opts.MaxRetries, delay)
		},
		Context: ctx,
		Logger:  log,
	}

	return retry.DoWithResult(func() (*models.Page, error) {
		page, err := s.fetcher.FetchPage(ctx, req)
		if err != nil {
			if errors.IsRateLimited(err) {
				s.opts.Metrics.RateLimited()
			}
			return nil, err
		}
		if page == nil {
			page = &models.Page{}
		}
		return page, nil
	}, cfg)
}

// abort classifies err and records it on res
func (s *Scraper) abort(log logger.Logger, res *Result, err error) {
	res.Err = err
	fields := map[string]interface{}{
		"pages":  res.Pages,
		"tweets": len(res.Tweets),
	}

	switch {
	case stderrors.Is(err, context.Canceled), stderrors.Is(err, context.DeadlineExceeded):
		res.Stop = StopCancelled
		log.WithError(err).WarnWithFields("Fetch cancelled, returning partial results", fields)
	case stderrors.Is(err, errors.ErrRetriesExhausted):
		res.Stop = StopRetriesExhausted
		fields["max_retries"] = s.opts.MaxRetries
		log.WithError(err).WarnWithFields("Retry budget exhausted, returning partial results", fields)
	default:
		res.Stop = StopFailed
		log.WithError(err).ErrorWithFields("An unexpected error has occurred", fields)
	}
}
