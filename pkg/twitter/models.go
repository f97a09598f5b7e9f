package twitter

import (
	"time"

	"tweetscraper/pkg/models"
)

// TimelineResponse is the body of GET /2/users/:id/tweets
type TimelineResponse struct {
	Data     []TweetData `json:"data"`
	Includes Includes    `json:"includes"`
	Meta     Meta        `json:"meta"`
	Errors   []APIError  `json:"errors"`
}

// TweetData is a tweet object as returned by the v2 API
type TweetData struct {
	ID            string         `json:"id"`
	Text          string         `json:"text"`
	CreatedAt     time.Time      `json:"created_at"`
	Lang          string         `json:"lang"`
	Source        string         `json:"source"`
	AuthorID      string         `json:"author_id"`
	PublicMetrics map[string]int `json:"public_metrics"`
}

// Includes holds expanded objects referenced by the tweets
type Includes struct {
	Users []UserData `json:"users"`
}

// UserData is a user object as returned by the v2 API
type UserData struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Username        string `json:"username"`
	ProfileImageURL string `json:"profile_image_url"`
	Description     string `json:"description"`
}

// Meta carries pagination state
type Meta struct {
	ResultCount   int    `json:"result_count"`
	NextToken     string `json:"next_token"`
	PreviousToken string `json:"previous_token"`
	NewestID      string `json:"newest_id"`
	OldestID      string `json:"oldest_id"`
}

// APIError is a partial-error or problem entry in a response body
type APIError struct {
	Title        string `json:"title"`
	Detail       string `json:"detail"`
	Type         string `json:"type"`
	Value        string `json:"value"`
	ResourceType string `json:"resource_type"`
	Parameter    string `json:"parameter"`
}

// ToPage converts the wire response into a domain page
func (r *TimelineResponse) ToPage() *models.Page {
	page := &models.Page{
		Tweets:     make([]models.Tweet, 0, len(r.Data)),
		Users:      make([]models.User, 0, len(r.Includes.Users)),
		NextCursor: r.Meta.NextToken,
	}

	for _, t := range r.Data {
		page.Tweets = append(page.Tweets, models.Tweet{
			ID:            t.ID,
			Text:          t.Text,
			CreatedAt:     t.CreatedAt,
			Lang:          t.Lang,
			PublicMetrics: t.PublicMetrics,
			Source:        t.Source,
			AuthorID:      t.AuthorID,
		})
	}

	for _, u := range r.Includes.Users {
		page.Users = append(page.Users, models.User{
			ID:              u.ID,
			Name:            u.Name,
			Username:        u.Username,
			ProfileImageURL: u.ProfileImageURL,
			Description:     u.Description,
		})
	}

	return page
}
