package twitter

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"tweetscraper/pkg/models"
)

const (
	// BaseURL is the base URL of the Twitter API
	BaseURL = "https://api.twitter.com"

	// UserTweetsEndpoint is the v2 user timeline path; %s is the user ID
	UserTweetsEndpoint = "/2/users/%s/tweets"

	// DefaultPageSize is the number of tweets requested per page
	DefaultPageSize = 10

	// MinPageSize and MaxPageSize bound max_results for the timeline endpoint
	MinPageSize = 5
	MaxPageSize = 100

	// RateLimitResetHeader carries the epoch second at which the window resets
	RateLimitResetHeader = "x-rate-limit-reset"
)

var (
	// DefaultTweetFields are the tweet.fields requested for every page
	DefaultTweetFields = []string{"created_at", "public_metrics", "lang", "source"}

	// DefaultUserFields are the user.fields requested for expanded authors
	DefaultUserFields = []string{"id", "name", "username", "profile_image_url", "description"}

	// DefaultExpansions makes author profiles arrive in includes.users
	DefaultExpansions = []string{"author_id"}
)

// NewPageRequest returns the standard request shape for one page of a timeline
func NewPageRequest(userID, cursor string, pageSize int) models.PageRequest {
	return models.PageRequest{
		UserID:      userID,
		MaxResults:  pageSize,
		Cursor:      cursor,
		TweetFields: DefaultTweetFields,
		UserFields:  DefaultUserFields,
		Expansions:  DefaultExpansions,
	}
}

// GetUserTweetsURL constructs the timeline URL for one page
func GetUserTweetsURL(baseURL string, req models.PageRequest) string {
	params := url.Values{}
	params.Set("max_results", strconv.Itoa(clampPageSize(req.MaxResults)))
	if req.Cursor != "" {
		params.Set("pagination_token", req.Cursor)
	}
	if len(req.TweetFields) > 0 {
		params.Set("tweet.fields", strings.Join(req.TweetFields, ","))
	}
	if len(req.UserFields) > 0 {
		params.Set("user.fields", strings.Join(req.UserFields, ","))
	}
	if len(req.Expansions) > 0 {
		params.Set("expansions", strings.Join(req.Expansions, ","))
	}

	path := fmt.Sprintf(UserTweetsEndpoint, url.PathEscape(req.UserID))
	return fmt.Sprintf("%s%s?%s", strings.TrimRight(baseURL, "/"), path, params.Encode())
}

// clampPageSize keeps max_results inside the range the endpoint accepts
func clampPageSize(n int) int {
	switch {
	case n <= 0:
		return DefaultPageSize
	case n < MinPageSize:
		return MinPageSize
	case n > MaxPageSize:
		return MaxPageSize
	default:
		return n
	}
}

// IsValidUserID checks that id looks like a numeric Twitter user ID
func IsValidUserID(id string) bool {
	if id == "" || len(id) > 19 {
		return false
	}
	for _, char := range id {
		if char < '0' || char > '9' {
			return false
		}
	}
	return true
}
