package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"tweetscraper/pkg/config"
	"tweetscraper/pkg/metrics"
	"tweetscraper/pkg/ratelimit"
	"tweetscraper/pkg/retry"
	"tweetscraper/pkg/scraper"
	"tweetscraper/pkg/twitter"
	"tweetscraper/pkg/ui"
)

// DefaultUserID is fetched when no user IDs are given (TwitterDev)
const DefaultUserID = "2244994945"

// fetchOptions holds flags that only apply to fetching
type fetchOptions struct {
	account     string
	metricsFile string
	progress    bool
}

func addFetchFlags(cmd *cobra.Command, o *fetchOptions) {
	cmd.Flags().StringVarP(&o.account, "account", "a", "", "use a stored account instead of the credentials file")
	cmd.Flags().StringVar(&o.metricsFile, "metrics-file", "", "write Prometheus metrics to this file when done")
	cmd.Flags().BoolVar(&o.progress, "progress", false, "show a progress line on stderr (default when stderr is a terminal)")
}

func (a *app) newFetchCmd() *cobra.Command {
	opts := &fetchOptions{}

	cmd := &cobra.Command{
		Use:   "fetch [user-id...]",
		Short: "Fetch and print the timelines of Twitter users",
		Long: `Fetch every page of each user's timeline and print all tweets, then all
authors. Users are fetched one after another; a failure on one user does not
stop the others.

Without arguments the TwitterDev account (` + DefaultUserID + `) is fetched.`,
		Example: `  # Fetch the default account using ./config.json
  tweetscraper fetch

  # Fetch two users as JSON with a stored account
  tweetscraper fetch 2244994945 783214 --account work --format json

  # Tolerate fewer rate limit rejections and export metrics
  tweetscraper fetch 783214 --max-retries 2 --metrics-file fetch.prom`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runFetch(cmd, args, opts)
		},
	}

	addFetchFlags(cmd, opts)
	return cmd
}

func (a *app) runFetch(cmd *cobra.Command, args []string, opts *fetchOptions) error {
	ctx := cmd.Context()
	cfg := a.cfg
	start := time.Now()

	userIDs := make([]string, 0, len(args))
	for _, arg := range args {
		userIDs = append(userIDs, strings.TrimSpace(arg))
	}
	if len(userIDs) == 0 {
		userIDs = []string{DefaultUserID}
	}
	for _, id := range userIDs {
		if id != "" && !twitter.IsValidUserID(id) {
			a.log.WithField("user_id", id).Warn("User ID is not numeric, the API will likely reject it")
		}
	}

	token, err := a.resolveToken(opts.account)
	if err != nil {
		return err
	}

	limiter, err := ratelimit.New(cfg.RateLimit.Strategy, cfg.RateLimit.Requests, cfg.RateLimit.Window)
	if err != nil {
		return err
	}

	client := twitter.NewClient(token, cfg.Twitter.RequestTimeout, a.log,
		twitter.WithBaseURL(cfg.Twitter.BaseURL),
		twitter.WithUserAgent(cfg.Twitter.UserAgent),
		twitter.WithLimiter(limiter),
	)

	m := metrics.New()
	out := a.stdout

	sopts := scraper.DefaultOptions()
	sopts.MaxRetries = cfg.Fetch.MaxRetries
	sopts.PageSize = cfg.Fetch.PageSize
	sopts.PolitenessDelay = cfg.Fetch.PolitenessDelay
	sopts.Backoff = retry.NewExponentialBackoff(cfg.Fetch.BackoffUnit, cfg.Fetch.MaxBackoff)
	sopts.Logger = a.log
	sopts.Metrics = m

	var progress *ui.ProgressDisplay
	if opts.progress || (!cmd.Flags().Changed("progress") && isTerminal(a.stderr)) {
		progress = ui.NewProgressDisplay(a.terminal(a.stderr), strings.EqualFold(cfg.Logging.Level, "debug"))
		sopts.OnPage = progress.Page
	}

	var printErr error
	sopts.OnFinish = func(res *scraper.Result) {
		if progress != nil {
			progress.Finish(res)
		}
		if cfg.Output.Format == config.FormatJSON {
			if err := ui.PrintResultJSON(out, res); err != nil && printErr == nil {
				printErr = err
			}
			return
		}
		ui.PrintResultText(out, res)
	}

	s, err := scraper.New(client, sopts)
	if err != nil {
		return err
	}

	results := s.FetchMany(ctx, userIDs)

	complete := 0
	for _, res := range results {
		if res.Complete() {
			complete++
		}
	}
	a.log.InfoWithFields("Run finished", map[string]interface{}{
		"subjects": len(userIDs),
		"fetched":  len(results),
		"complete": complete,
		"duration": elapsed(start),
	})

	if opts.metricsFile != "" {
		if err := m.WriteToTextfile(opts.metricsFile); err != nil {
			return fmt.Errorf("failed to write metrics: %w", err)
		}
	}

	return printErr
}

// resolveToken returns the bearer token from a stored account or the credentials file
func (a *app) resolveToken(account string) (string, error) {
	if account != "" {
		manager, err := a.newManager()
		if err != nil {
			return "", fmt.Errorf("failed to open credential store: %w", err)
		}
		cred, err := manager.Retrieve(account)
		if err != nil {
			return "", fmt.Errorf("%w (see 'tweetscraper auth list')", err)
		}
		a.log.WithField("account", cred.Name).Info("Using stored credentials")
		return cred.BearerToken, nil
	}

	creds, err := config.LoadCredentials(a.cfg.Twitter.CredentialsFile)
	if err != nil {
		a.log.WithError(err).WithField("path", a.cfg.Twitter.CredentialsFile).Debug("Cannot load credentials")
		return "", err
	}
	return creds.BearerToken, nil
}

// isTerminal reports whether w is an interactive terminal
func isTerminal(w interface{}) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
