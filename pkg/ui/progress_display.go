package ui

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"tweetscraper/pkg/scraper"
)

// ProgressDisplay renders a one-line fetch status per subject
type ProgressDisplay struct {
	mu        sync.Mutex
	term      *Terminal
	userID    string
	startTime time.Time
	pages     int
	tweets    int
	users     int
	isDebug   bool
}

// NewProgressDisplay creates a progress display writing through term
func NewProgressDisplay(term *Terminal, debug bool) *ProgressDisplay {
	return &ProgressDisplay{
		term:      term,
		startTime: time.Now(),
		isDebug:   debug,
	}
}

// Start resets the display for a new subject
func (p *ProgressDisplay) Start(userID string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.userID = userID
	p.startTime = time.Now()
	p.pages, p.tweets, p.users = 0, 0, 0
}

// Page records a fetched page; it matches scraper.Options.OnPage
func (p *ProgressDisplay) Page(progress scraper.PageProgress) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.userID = progress.UserID
	p.pages = progress.Page
	p.tweets = progress.TotalTweets
	p.users = progress.TotalUsers

	if p.isDebug {
		fmt.Fprintf(p.term.Writer(), "%s page %d: %d tweets\n",
			p.term.Magenta("→"), progress.Page, progress.PageTweets)
		return
	}
	p.printProgress()
}

// printProgress rewrites the current status line
func (p *ProgressDisplay) printProgress() {
	line := fmt.Sprintf("%s • page %d • %d tweets • %d users • %s",
		p.term.Cyan(p.userID),
		p.pages,
		p.tweets,
		p.users,
		formatDuration(time.Since(p.startTime)),
	)
	fmt.Fprintf(p.term.Writer(), "\r%s\r%s", strings.Repeat(" ", 80), line)
}

// Finish prints the outcome of a subject
func (p *ProgressDisplay) Finish(result *scraper.Result) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if result == nil {
		return
	}

	w := p.term.Writer()
	if !p.isDebug && p.pages > 0 {
		fmt.Fprintln(w)
	}

	summary := fmt.Sprintf("%s: %d tweets, %d users in %d pages (%s)",
		result.UserID, len(result.Tweets), len(result.Users), result.Pages,
		formatDuration(time.Since(p.startTime)))

	switch result.Stop {
	case scraper.StopCompleted:
		fmt.Fprintf(w, "%s %s\n", p.term.Green("✓"), summary)
	default:
		fmt.Fprintf(w, "%s %s, stopped: %s\n", p.term.Yellow("⚠"), summary, result.Stop)
		if result.Err != nil {
			fmt.Fprintf(w, "  %s %v\n", p.term.Dim("•"), result.Err)
		}
	}
}

// formatDuration formats a duration in a human-readable way
func formatDuration(d time.Duration) string {
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
	default:
		return fmt.Sprintf("%dh%dm", int(d.Hours()), int(d.Minutes())%60)
	}
}
