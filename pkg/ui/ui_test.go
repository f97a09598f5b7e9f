package ui

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tweetscraper/pkg/models"
	"tweetscraper/pkg/scraper"
)

func sampleResult() *scraper.Result {
	return &scraper.Result{
		UserID: "2244994945",
		Tweets: []models.Tweet{{
			ID:        "1",
			Text:      "hello world",
			CreatedAt: time.Date(2023, 5, 1, 12, 30, 0, 0, time.UTC),
			Lang:      "en",
			PublicMetrics: map[string]int{
				models.MetricLikes:    7,
				models.MetricRetweets: 3,
			},
			Source: "Twitter Web App",
		}},
		Users: []models.User{{
			ID:              "2244994945",
			Name:            "Twitter Dev",
			Username:        "TwitterDev",
			ProfileImageURL: "https://pbs.twimg.com/profile.png",
			Description:     "The voice of the developer platform",
		}},
		Pages: 1,
		Stop:  scraper.StopCompleted,
	}
}

func TestPrintResultText(t *testing.T) {
	var buf bytes.Buffer
	PrintResultText(&buf, sampleResult())

	expected := strings.Join([]string{
		"Tweet ID: 1",
		"Tweet Content: hello world",
		"Tweet Created at: 2023-05-01T12:30:00Z",
		"Tweet Language: en",
		"Tweet Likes: 7",
		"Tweet Retweets: 3",
		"Tweet Source: Twitter Web App",
		"--------------------",
		"User ID: 2244994945",
		"User Name: Twitter Dev",
		"User Username: TwitterDev",
		"User Profile Image URL: https://pbs.twimg.com/profile.png",
		"User Description: The voice of the developer platform",
		"--------------------",
		"",
	}, "\n")
	assert.Equal(t, expected, buf.String())
}

func TestPrintTweetMissingMetrics(t *testing.T) {
	var buf bytes.Buffer
	PrintTweet(&buf, models.Tweet{ID: "9"})

	assert.Contains(t, buf.String(), "Tweet Likes: 0\n")
	assert.Contains(t, buf.String(), "Tweet Created at: \n")
}

func TestPrintResultTextEmpty(t *testing.T) {
	var buf bytes.Buffer
	PrintResultText(&buf, &scraper.Result{UserID: "1"})
	PrintResultText(&buf, nil)
	assert.Empty(t, buf.String())
}

func TestPrintResultJSON(t *testing.T) {
	result := sampleResult()
	result.Stop = scraper.StopRetriesExhausted
	result.Err = errors.New("retry budget exhausted")

	var buf bytes.Buffer
	require.NoError(t, PrintResultJSON(&buf, result))

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "2244994945", decoded["user_id"])
	assert.Equal(t, "retries_exhausted", decoded["stop"])
	assert.Equal(t, float64(1), decoded["pages"])
	assert.Equal(t, "retry budget exhausted", decoded["error"])
	assert.Len(t, decoded["tweets"], 1)
	assert.Len(t, decoded["users"], 1)
}

func TestPrintResultJSONEmptySlices(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, PrintResultJSON(&buf, &scraper.Result{UserID: "1", Stop: scraper.StopCompleted}))

	assert.Contains(t, buf.String(), `"tweets":[]`)
	assert.Contains(t, buf.String(), `"users":[]`)
	assert.NotContains(t, buf.String(), `"error"`)
}

func TestTerminalColor(t *testing.T) {
	var buf bytes.Buffer
	plain := NewTerminal(&buf, false)
	plain.PrintError("failed", errors.New("boom"))
	plain.PrintInfo("User", "42")
	assert.Equal(t, "failed: boom\nUser: 42\n", buf.String())

	colored := NewTerminal(&buf, true)
	assert.Equal(t, "\033[32mok\033[0m", colored.Green("ok"))
}

func TestProgressDisplay(t *testing.T) {
	var buf bytes.Buffer
	progress := NewProgressDisplay(NewTerminal(&buf, false), false)

	progress.Start("42")
	progress.Page(scraper.PageProgress{UserID: "42", Page: 2, PageTweets: 5, TotalTweets: 15, TotalUsers: 2})
	assert.Contains(t, buf.String(), "42 • page 2 • 15 tweets • 2 users")

	progress.Finish(&scraper.Result{UserID: "42", Pages: 2, Stop: scraper.StopCompleted})
	assert.Contains(t, buf.String(), "✓ 42: 0 tweets, 0 users in 2 pages")

	buf.Reset()
	progress.Start("43")
	progress.Finish(&scraper.Result{UserID: "43", Stop: scraper.StopFailed, Err: errors.New("boom")})
	assert.Contains(t, buf.String(), "stopped: failed")
	assert.Contains(t, buf.String(), "boom")
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "5s", formatDuration(5*time.Second))
	assert.Equal(t, "2m5s", formatDuration(125*time.Second))
	assert.Equal(t, "1h1m", formatDuration(61*time.Minute))
}
