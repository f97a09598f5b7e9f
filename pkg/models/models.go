// Package models holds the domain types shared by the Twitter client and the scraper.
package models

import "time"

// Public metric names reported by the Twitter API
const (
	MetricLikes    = "like_count"
	MetricRetweets = "retweet_count"
	MetricReplies  = "reply_count"
	MetricQuotes   = "quote_count"
)

// Tweet is one post from a user timeline
type Tweet struct {
	ID            string         `json:"id"`
	Text          string         `json:"text"`
	CreatedAt     time.Time      `json:"created_at"`
	Lang          string         `json:"lang,omitempty"`
	PublicMetrics map[string]int `json:"public_metrics,omitempty"`
	Source        string         `json:"source,omitempty"`
	AuthorID      string         `json:"author_id,omitempty"`
}

// Likes returns the like count, 0 when not reported
func (t Tweet) Likes() int {
	return t.PublicMetrics[MetricLikes]
}

// Retweets returns the retweet count, 0 when not reported
func (t Tweet) Retweets() int {
	return t.PublicMetrics[MetricRetweets]
}

// User is an author profile expanded alongside tweets
type User struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Username        string `json:"username"`
	ProfileImageURL string `json:"profile_image_url,omitempty"`
	Description     string `json:"description,omitempty"`
}

// Page is a single page of a paginated timeline
type Page struct {
	Tweets []Tweet
	Users  []User
	// NextCursor is empty on the last page
	NextCursor string
}

// HasNext reports whether another page follows
func (p *Page) HasNext() bool {
	return p != nil && p.NextCursor != ""
}

// PageRequest describes one page fetch
type PageRequest struct {
	UserID      string
	MaxResults  int
	Cursor      string
	TweetFields []string
	UserFields  []string
	Expansions  []string
}
