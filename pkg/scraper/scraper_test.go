package scraper

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tweetscraper/pkg/errors"
	"tweetscraper/pkg/logger"
	"tweetscraper/pkg/metrics"
	"tweetscraper/pkg/models"
	"tweetscraper/pkg/retry"
)

type step struct {
	page *models.Page
	err  error
}

// scriptedFetcher answers each request with the next scripted step
type scriptedFetcher struct {
	mu       sync.Mutex
	steps    []step
	requests []models.PageRequest
	onCall   func(call int)
}

func (f *scriptedFetcher) FetchPage(ctx context.Context, req models.PageRequest) (*models.Page, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	call := len(f.requests)
	if len(f.steps) == 0 {
		f.mu.Unlock()
		return nil, fmt.Errorf("unexpected request %d", call)
	}
	s := f.steps[0]
	f.steps = f.steps[1:]
	onCall := f.onCall
	f.mu.Unlock()

	if onCall != nil {
		onCall(call)
	}
	return s.page, s.err
}

func (f *scriptedFetcher) cursors() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	cursors := make([]string, len(f.requests))
	for i, r := range f.requests {
		cursors[i] = r.Cursor
	}
	return cursors
}

func pageOf(next string, ids ...string) step {
	p := &models.Page{NextCursor: next}
	for _, id := range ids {
		p.Tweets = append(p.Tweets, models.Tweet{ID: id, Text: "tweet " + id, AuthorID: "2244994945"})
	}
	if len(ids) > 0 {
		p.Users = []models.User{{ID: "2244994945", Username: "TwitterDev"}}
	}
	return step{page: p}
}

func rateLimited() step {
	return step{err: errors.New(errors.ErrorTypeRateLimit, 429, "rate limit exceeded")}
}

func failing(err error) step {
	return step{err: err}
}

// recordingBackoff records the attempt numbers it is asked about and never waits
type recordingBackoff struct {
	mu       sync.Mutex
	attempts []int
}

func (b *recordingBackoff) NextDelay(attempt int) time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.attempts = append(b.attempts, attempt)
	return 0
}

func newTestScraper(t *testing.T, f PageFetcher, maxRetries int) (*Scraper, *logger.TestLogger, *recordingBackoff) {
	t.Helper()
	log := logger.NewTestLogger()
	backoff := &recordingBackoff{}

	s, err := New(f, Options{
		MaxRetries: maxRetries,
		Backoff:    backoff,
		Logger:     log,
	})
	require.NoError(t, err)
	return s, log, backoff
}

func tweetIDs(tweets []models.Tweet) []string {
	ids := make([]string, len(tweets))
	for i, t := range tweets {
		ids[i] = t.ID
	}
	return ids
}

func TestFetchAllPaginationCompleteness(t *testing.T) {
	f := &scriptedFetcher{steps: []step{
		pageOf("c1", "1", "2"),
		pageOf("c2", "3"),
		pageOf("", "4", "5"),
	}}
	s, _, _ := newTestScraper(t, f, 5)

	res := s.FetchAll(context.Background(), "2244994945")

	assert.Equal(t, StopCompleted, res.Stop)
	assert.True(t, res.Complete())
	assert.NoError(t, res.Err)
	assert.Equal(t, []string{"1", "2", "3", "4", "5"}, tweetIDs(res.Tweets))
	assert.Len(t, res.Users, 3, "users are appended per page without dedup")
	assert.Equal(t, 3, res.Pages)
	assert.Equal(t, []string{"", "c1", "c2"}, f.cursors())
}

func TestFetchAllRequestShape(t *testing.T) {
	f := &scriptedFetcher{steps: []step{pageOf("", "1")}}
	s, _, _ := newTestScraper(t, f, 5)

	s.FetchAll(context.Background(), "2244994945")

	require.Len(t, f.requests, 1)
	req := f.requests[0]
	assert.Equal(t, "2244994945", req.UserID)
	assert.Equal(t, 10, req.MaxResults)
	assert.Equal(t, []string{"created_at", "public_metrics", "lang", "source"}, req.TweetFields)
	assert.Equal(t, []string{"id", "name", "username", "profile_image_url", "description"}, req.UserFields)
	assert.Equal(t, []string{"author_id"}, req.Expansions)
}

func TestFetchAllRetryCountResetsAfterSuccess(t *testing.T) {
	f := &scriptedFetcher{steps: []step{
		pageOf("c1", "1"),
		rateLimited(), rateLimited(), rateLimited(),
		pageOf("c2", "2"),
		rateLimited(),
		pageOf("", "3"),
	}}
	s, _, backoff := newTestScraper(t, f, 3)

	res := s.FetchAll(context.Background(), "42")

	assert.Equal(t, StopCompleted, res.Stop)
	assert.Equal(t, []string{"1", "2", "3"}, tweetIDs(res.Tweets))
	assert.Equal(t, []int{1, 2, 3, 1}, backoff.attempts, "page 3 starts from a zero retry count")
	assert.Equal(t, []string{"", "c1", "c1", "c1", "c1", "c2", "c2"}, f.cursors())
}

func TestFetchAllBudgetIsPerPage(t *testing.T) {
	// four rejections in total, never more than two in a row
	f := &scriptedFetcher{steps: []step{
		rateLimited(), rateLimited(),
		pageOf("c1", "1"),
		rateLimited(), rateLimited(),
		pageOf("", "2"),
	}}
	s, _, _ := newTestScraper(t, f, 2)

	res := s.FetchAll(context.Background(), "42")
	assert.Equal(t, StopCompleted, res.Stop)
	assert.Equal(t, []string{"1", "2"}, tweetIDs(res.Tweets))
}

func TestFetchAllEmptyPageResetsRetryCount(t *testing.T) {
	f := &scriptedFetcher{steps: []step{
		rateLimited(),
		pageOf("c1"),
		rateLimited(),
		pageOf("", "1"),
	}}
	s, _, backoff := newTestScraper(t, f, 1)

	res := s.FetchAll(context.Background(), "42")
	assert.Equal(t, StopCompleted, res.Stop)
	assert.Equal(t, []string{"1"}, tweetIDs(res.Tweets))
	assert.Equal(t, []int{1, 1}, backoff.attempts)
}

func TestFetchAllBudgetExhaustion(t *testing.T) {
	f := &scriptedFetcher{steps: []step{
		pageOf("c1", "1", "2"),
		rateLimited(), rateLimited(), rateLimited(),
		pageOf("", "never"),
	}}
	s, log, backoff := newTestScraper(t, f, 2)

	var res *Result
	require.NotPanics(t, func() {
		res = s.FetchAll(context.Background(), "42")
	})

	assert.Equal(t, StopRetriesExhausted, res.Stop)
	assert.ErrorIs(t, res.Err, errors.ErrRetriesExhausted)
	assert.True(t, errors.IsRateLimited(res.Err))
	assert.Equal(t, []string{"1", "2"}, tweetIDs(res.Tweets))
	assert.Equal(t, 1, res.Pages)
	assert.Len(t, f.requests, 4, "one success plus maxRetries+1 attempts")
	assert.Equal(t, []int{1, 2}, backoff.attempts, "no wait after the final attempt")
	assert.Len(t, log.GetMessagesByLevel("WARN"), 3, "two backoff warnings and one abort warning")
	assert.True(t, log.HasMessage("Retry budget exhausted, returning partial results"))
}

func TestFetchAllZeroRetries(t *testing.T) {
	f := &scriptedFetcher{steps: []step{rateLimited()}}
	s, _, backoff := newTestScraper(t, f, 0)

	res := s.FetchAll(context.Background(), "42")
	assert.Equal(t, StopRetriesExhausted, res.Stop)
	assert.Len(t, f.requests, 1)
	assert.Empty(t, backoff.attempts)
}

func TestFetchAllUnexpectedErrorShortCircuits(t *testing.T) {
	authErr := errors.New(errors.ErrorTypeAuth, 401, "bearer token rejected")
	f := &scriptedFetcher{steps: []step{
		pageOf("c1", "1"),
		failing(authErr),
		pageOf("", "3"),
	}}
	s, log, backoff := newTestScraper(t, f, 5)

	res := s.FetchAll(context.Background(), "42")

	assert.Equal(t, StopFailed, res.Stop)
	assert.Same(t, authErr, res.Err)
	assert.Equal(t, []string{"1"}, tweetIDs(res.Tweets))
	assert.Len(t, f.requests, 2, "page 3 is never requested")
	assert.Empty(t, backoff.attempts, "non rate limit errors are not retried")

	errs := log.GetMessagesByLevel("ERROR")
	require.Len(t, errs, 1)
	assert.Equal(t, "An unexpected error has occurred", errs[0].Message)
	assert.Same(t, authErr, errs[0].Error)
}

func TestFetchAllBackoffGrowsAsPowersOfTwo(t *testing.T) {
	f := &scriptedFetcher{steps: []step{
		rateLimited(), rateLimited(), rateLimited(),
		pageOf("", "1"),
	}}

	backoff := retry.NewExponentialBackoff(time.Millisecond, 0)
	backoff.Rand = func() float64 { return 0 }

	log := logger.NewTestLogger()
	s, err := New(f, Options{MaxRetries: 5, Backoff: backoff, Logger: log})
	require.NoError(t, err)

	res := s.FetchAll(context.Background(), "42")
	require.Equal(t, StopCompleted, res.Stop)

	var waits []time.Duration
	for _, msg := range log.GetMessagesByLevel("WARN") {
		if msg.Message == "Too many requests, backing off" {
			waits = append(waits, msg.Fields["wait"].(time.Duration))
		}
	}
	assert.Equal(t, []time.Duration{2 * time.Millisecond, 4 * time.Millisecond, 8 * time.Millisecond}, waits)
}

func TestFetchAllEmptyTimeline(t *testing.T) {
	f := &scriptedFetcher{steps: []step{pageOf("")}}
	s, _, _ := newTestScraper(t, f, 5)

	res := s.FetchAll(context.Background(), "42")

	assert.Equal(t, StopCompleted, res.Stop)
	assert.NotNil(t, res.Tweets)
	assert.Empty(t, res.Tweets)
	assert.NotNil(t, res.Users)
	assert.Empty(t, res.Users)
	assert.Len(t, f.requests, 1)
}

func TestFetchAllNilPageIsLastPage(t *testing.T) {
	f := &scriptedFetcher{steps: []step{{}}}
	s, _, _ := newTestScraper(t, f, 5)

	res := s.FetchAll(context.Background(), "42")
	assert.Equal(t, StopCompleted, res.Stop)
	assert.Equal(t, 1, res.Pages)
}

func TestFetchAllEmptyUserID(t *testing.T) {
	f := &scriptedFetcher{}
	s, _, _ := newTestScraper(t, f, 5)

	res := s.FetchAll(context.Background(), "")
	assert.Equal(t, StopInvalidInput, res.Stop)
	assert.ErrorIs(t, res.Err, ErrEmptyUserID)
	assert.Empty(t, f.requests)
}

func TestFetchAllCancelledDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	f := &scriptedFetcher{steps: []step{
		pageOf("c1", "1"),
		rateLimited(),
	}}
	f.onCall = func(call int) {
		if call == 2 {
			cancel()
		}
	}

	s, err := New(f, Options{
		MaxRetries: 5,
		Backoff:    &retry.ConstantBackoff{Delay: time.Hour},
		Logger:     logger.NewTestLogger(),
	})
	require.NoError(t, err)

	done := make(chan *Result, 1)
	go func() { done <- s.FetchAll(ctx, "42") }()

	select {
	case res := <-done:
		assert.Equal(t, StopCancelled, res.Stop)
		assert.ErrorIs(t, res.Err, context.Canceled)
		assert.Equal(t, []string{"1"}, tweetIDs(res.Tweets))
	case <-time.After(5 * time.Second):
		t.Fatal("FetchAll did not return after cancellation")
	}
}

func TestFetchAllCancelledDuringPolitenessDelay(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	f := &scriptedFetcher{steps: []step{pageOf("c1", "1")}}
	s, err := New(f, Options{
		MaxRetries:      5,
		PolitenessDelay: time.Hour,
		Logger:          logger.NewTestLogger(),
	})
	require.NoError(t, err)

	res := s.FetchAll(ctx, "42")
	assert.Equal(t, StopCancelled, res.Stop)
	assert.ErrorIs(t, res.Err, context.DeadlineExceeded)
	assert.Equal(t, 1, res.Pages)
}

func TestFetchAllOnPage(t *testing.T) {
	f := &scriptedFetcher{steps: []step{
		pageOf("c1", "1", "2"),
		pageOf("", "3"),
	}}

	var progress []PageProgress
	s, err := New(f, Options{
		Backoff: &recordingBackoff{},
		Logger:  logger.NewNopLogger(),
		OnPage:  func(p PageProgress) { progress = append(progress, p) },
	})
	require.NoError(t, err)

	s.FetchAll(context.Background(), "42")

	require.Len(t, progress, 2)
	assert.Equal(t, PageProgress{UserID: "42", Page: 1, PageTweets: 2, TotalTweets: 2, TotalUsers: 1, NextCursor: "c1"}, progress[0])
	assert.Equal(t, PageProgress{UserID: "42", Page: 2, PageTweets: 1, TotalTweets: 3, TotalUsers: 2}, progress[1])
}

func TestFetchAllRecordsMetrics(t *testing.T) {
	f := &scriptedFetcher{steps: []step{
		pageOf("c1", "1", "2"),
		rateLimited(), rateLimited(), rateLimited(),
	}}
	m := metrics.New()
	s, err := New(f, Options{
		MaxRetries: 2,
		Backoff:    &recordingBackoff{},
		Logger:     logger.NewNopLogger(),
		Metrics:    m,
	})
	require.NoError(t, err)

	s.FetchAll(context.Background(), "42")

	count, err := testutil.GatherAndCount(m.Registry(), "tweetscraper_fetches_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	expected := `
# HELP tweetscraper_rate_limited_total Total number of rate limit rejections received
# TYPE tweetscraper_rate_limited_total counter
tweetscraper_rate_limited_total 3
# HELP tweetscraper_tweets_fetched_total Total number of tweets fetched
# TYPE tweetscraper_tweets_fetched_total counter
tweetscraper_tweets_fetched_total 2
`
	assert.NoError(t, testutil.GatherAndCompare(m.Registry(), strings.NewReader(expected),
		"tweetscraper_rate_limited_total", "tweetscraper_tweets_fetched_total"))
}

func TestFetchManyIsolatesSubjects(t *testing.T) {
	fetcher := PageFetcherFunc(func(ctx context.Context, req models.PageRequest) (*models.Page, error) {
		if req.UserID == "1" {
			return nil, errors.New(errors.ErrorTypeNotFound, 404, "resource not found")
		}
		return &models.Page{Tweets: []models.Tweet{{ID: req.UserID + "-a"}}}, nil
	})
	s, err := New(fetcher, Options{Backoff: &recordingBackoff{}, Logger: logger.NewNopLogger()})
	require.NoError(t, err)

	results := s.FetchMany(context.Background(), []string{"1", "2"})

	require.Len(t, results, 2)
	assert.Equal(t, StopFailed, results[0].Stop)
	assert.Equal(t, StopCompleted, results[1].Stop)
	assert.Equal(t, []string{"2-a"}, tweetIDs(results[1].Tweets))
}

func TestFetchManyCallsOnFinishInOrder(t *testing.T) {
	fetcher := PageFetcherFunc(func(ctx context.Context, req models.PageRequest) (*models.Page, error) {
		return &models.Page{Tweets: []models.Tweet{{ID: req.UserID + "-a"}}}, nil
	})

	var finished []string
	s, err := New(fetcher, Options{
		Backoff:  &recordingBackoff{},
		Logger:   logger.NewNopLogger(),
		OnFinish: func(r *Result) { finished = append(finished, r.UserID+":"+string(r.Stop)) },
	})
	require.NoError(t, err)

	s.FetchMany(context.Background(), []string{"1", "", "2"})

	assert.Equal(t, []string{"1:completed", ":invalid_input", "2:completed"}, finished)
}

func TestFetchManySkipsAfterCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s, err := New(&scriptedFetcher{}, DefaultOptions())
	require.NoError(t, err)
	assert.Empty(t, s.FetchMany(ctx, []string{"1", "2"}))
}

func TestNew(t *testing.T) {
	_, err := New(nil, DefaultOptions())
	assert.Error(t, err)

	_, err = New(&scriptedFetcher{}, Options{MaxRetries: -1})
	assert.Error(t, err)

	s, err := New(&scriptedFetcher{}, Options{})
	require.NoError(t, err)
	assert.Equal(t, 10, s.opts.PageSize)
	assert.NotNil(t, s.opts.Backoff)
	assert.NotNil(t, s.logger)
}
