package scraper

import (
	"context"

	"tweetscraper/pkg/models"
)

// PageFetcher fetches one page of a user timeline.
// Rate limit rejections must satisfy errors.IsRateLimited.
type PageFetcher interface {
	FetchPage(ctx context.Context, req models.PageRequest) (*models.Page, error)
}

// PageFetcherFunc adapts a function to PageFetcher
type PageFetcherFunc func(ctx context.Context, req models.PageRequest) (*models.Page, error)

// FetchPage calls f
func (f PageFetcherFunc) FetchPage(ctx context.Context, req models.PageRequest) (*models.Page, error) {
	return f(ctx, req)
}
