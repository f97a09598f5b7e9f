package ui

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"tweetscraper/pkg/models"
	"tweetscraper/pkg/scraper"
)

// Separator is printed after every record in text output
const Separator = "--------------------"

// PrintTweet writes one tweet with fixed labels followed by the separator
func PrintTweet(w io.Writer, tweet models.Tweet) {
	fmt.Fprintf(w, "Tweet ID: %s\n", tweet.ID)
	fmt.Fprintf(w, "Tweet Content: %s\n", tweet.Text)
	fmt.Fprintf(w, "Tweet Created at: %s\n", formatTime(tweet.CreatedAt))
	fmt.Fprintf(w, "Tweet Language: %s\n", tweet.Lang)
	fmt.Fprintf(w, "Tweet Likes: %d\n", tweet.Likes())
	fmt.Fprintf(w, "Tweet Retweets: %d\n", tweet.Retweets())
	fmt.Fprintf(w, "Tweet Source: %s\n", tweet.Source)
	fmt.Fprintln(w, Separator)
}

// PrintUser writes one user with fixed labels followed by the separator
func PrintUser(w io.Writer, user models.User) {
	fmt.Fprintf(w, "User ID: %s\n", user.ID)
	fmt.Fprintf(w, "User Name: %s\n", user.Name)
	fmt.Fprintf(w, "User Username: %s\n", user.Username)
	fmt.Fprintf(w, "User Profile Image URL: %s\n", user.ProfileImageURL)
	fmt.Fprintf(w, "User Description: %s\n", user.Description)
	fmt.Fprintln(w, Separator)
}

// PrintResultText writes every tweet and then every user of the result
func PrintResultText(w io.Writer, result *scraper.Result) {
	if result == nil {
		return
	}
	for _, tweet := range result.Tweets {
		PrintTweet(w, tweet)
	}
	for _, user := range result.Users {
		PrintUser(w, user)
	}
}

// resultJSON is the JSON output shape of one subject
type resultJSON struct {
	UserID string             `json:"user_id"`
	Tweets []models.Tweet     `json:"tweets"`
	Users  []models.User      `json:"users"`
	Pages  int                `json:"pages"`
	Stop   scraper.StopReason `json:"stop"`
	Error  string             `json:"error,omitempty"`
}

// PrintResultJSON writes the result as one JSON object per line
func PrintResultJSON(w io.Writer, result *scraper.Result) error {
	if result == nil {
		return nil
	}

	out := resultJSON{
		UserID: result.UserID,
		Tweets: result.Tweets,
		Users:  result.Users,
		Pages:  result.Pages,
		Stop:   result.Stop,
	}
	if out.Tweets == nil {
		out.Tweets = []models.Tweet{}
	}
	if out.Users == nil {
		out.Users = []models.User{}
	}
	if result.Err != nil {
		out.Error = result.Err.Error()
	}

	if err := json.NewEncoder(w).Encode(out); err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}
	return nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
