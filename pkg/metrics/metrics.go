// Package metrics records Prometheus metrics for timeline fetches.
//
// Each Metrics value owns its registry, so a run can export exactly its own
// counters with WriteToTextfile (node_exporter textfile collector format).
//
// Metrics:
//   - tweetscraper_pages_fetched_total (Counter): pages fetched successfully
//   - tweetscraper_tweets_fetched_total (Counter): tweets accumulated
//   - tweetscraper_users_fetched_total (Counter): expanded users accumulated
//   - tweetscraper_rate_limited_total (Counter): 429 answers received
//   - tweetscraper_backoff_seconds (Histogram): backoff waits after 429s
//   - tweetscraper_fetches_total{stop} (Counter): finished fetches by stop reason
//
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the collectors for one process
type Metrics struct {
	registry *prometheus.Registry

	pagesFetched  prometheus.Counter
	tweetsFetched prometheus.Counter
	usersFetched  prometheus.Counter
	rateLimited   prometheus.Counter
	backoff       prometheus.Histogram
	fetches       *prometheus.CounterVec
}

// New creates a Metrics value with a fresh registry
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		pagesFetched: factory.NewCounter(prometheus.CounterOpts{
			Name: "tweetscraper_pages_fetched_total",
			Help: "Total number of timeline pages fetched successfully",
		}),
		tweetsFetched: factory.NewCounter(prometheus.CounterOpts{
			Name: "tweetscraper_tweets_fetched_total",
			Help: "Total number of tweets fetched",
		}),
		usersFetched: factory.NewCounter(prometheus.CounterOpts{
			Name: "tweetscraper_users_fetched_total",
			Help: "Total number of expanded user records fetched",
		}),
		rateLimited: factory.NewCounter(prometheus.CounterOpts{
			Name: "tweetscraper_rate_limited_total",
			Help: "Total number of rate limit rejections received",
		}),
		backoff: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "tweetscraper_backoff_seconds",
			Help:    "Backoff wait after a rate limit rejection",
			Buckets: []float64{2, 4, 8, 16, 32, 64, 128},
		}),
		fetches: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "tweetscraper_fetches_total",
			Help: "Total number of finished timeline fetches by stop reason",
		}, []string{"stop"}),
	}
}

// Registry exposes the underlying registry for gathering
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// PageFetched records one successful page
func (m *Metrics) PageFetched(tweets, users int) {
	if m == nil {
		return
	}
	m.pagesFetched.Inc()
	m.tweetsFetched.Add(float64(tweets))
	m.usersFetched.Add(float64(users))
}

// RateLimited records one 429 answer
func (m *Metrics) RateLimited() {
	if m == nil {
		return
	}
	m.rateLimited.Inc()
}

// Backoff records a backoff wait
func (m *Metrics) Backoff(d time.Duration) {
	if m == nil {
		return
	}
	m.backoff.Observe(d.Seconds())
}

// FetchFinished records the stop reason of a finished fetch
func (m *Metrics) FetchFinished(stop string) {
	if m == nil {
		return
	}
	m.fetches.WithLabelValues(stop).Inc()
}

// WriteToTextfile writes all metrics to path in the Prometheus text format
func (m *Metrics) WriteToTextfile(path string) error {
	if m == nil {
		return nil
	}
	return prometheus.WriteToTextfile(path, m.registry)
}
