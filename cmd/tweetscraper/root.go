package main

import (
	"fmt"
	"io"
	"runtime"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"tweetscraper/pkg/auth"
	"tweetscraper/pkg/config"
	"tweetscraper/pkg/logger"
	"tweetscraper/pkg/ui"
)

var (
	// Version information, set through ldflags
	version   = "dev"
	gitCommit = "unknown"
	buildDate = "unknown"
)

// app carries state shared by all commands of one invocation
type app struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	configFile string
	cfg        *config.Config
	log        logger.Logger
	runID      string

	// newManager opens the credential stores
	newManager func() (*auth.Manager, error)
}

func newApp(stdin io.Reader, stdout, stderr io.Writer) *app {
	return &app{
		stdin:      stdin,
		stdout:     stdout,
		stderr:     stderr,
		newManager: auth.NewDefaultManager,
	}
}

// newRootCmd creates the command tree; running it without a subcommand fetches timelines
func (a *app) newRootCmd() *cobra.Command {
	fetch := &fetchOptions{}

	rootCmd := &cobra.Command{
		Use:   "tweetscraper [user-id...]",
		Short: "Fetch Twitter user timelines with rate limit backoff",
		Long: `tweetscraper pages through the tweets of one or more Twitter users via the
API v2 and prints every tweet and author.

Rate limit rejections are retried with exponential backoff and jitter. When
the retry budget runs out the tweets fetched so far are still printed.

Credentials come from:
  - a JSON file with a "bearer_token" field (default: config.json)
  - stored accounts (see 'tweetscraper auth login' and --account)`,
		Version:       resolveVersion(version, readBuildInfo()),
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runFetch(cmd, args, fetch)
		},
	}

	rootCmd.SetIn(a.stdin)
	rootCmd.SetOut(a.stdout)
	rootCmd.SetErr(a.stderr)

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&a.configFile, "config", "c", "", "config file (default is ./.tweetscraper.yaml or ~/.config/tweetscraper/config.yaml)")
	flags.String("credentials", "", "JSON file holding the bearer_token (default config.json)")
	flags.String("base-url", "", "Twitter API base URL")
	flags.Int("page-size", 0, "tweets per page, 5 to 100")
	flags.Int("max-retries", 0, "consecutive rate limit retries per page")
	flags.Duration("backoff-unit", 0, "base unit of the exponential backoff")
	flags.String("rate-limit", "", "client-side limiter: none, sliding_window or token_bucket")
	flags.String("log-level", "", "log level (debug, info, warn, error)")
	flags.String("log-file", "", "also write logs to this file")
	flags.String("format", "", "output format: text or json")
	flags.Bool("no-color", false, "disable colored output")

	addFetchFlags(rootCmd, fetch)

	rootCmd.SetVersionTemplate(`tweetscraper {{.Version}}
Go Version: ` + runtime.Version() + `
OS/Arch: ` + runtime.GOOS + `/` + runtime.GOARCH + `
`)
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.AddCommand(a.newFetchCmd())
	rootCmd.AddCommand(a.newAuthCmd())
	rootCmd.AddCommand(a.newConfigCmd())
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

// setup loads the configuration and the logger before any command runs
func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configFile, changedFlags(cmd))
	if err != nil {
		return err
	}
	a.cfg = cfg

	logger.Version = version
	if err := logger.Initialize(&cfg.Logging); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	a.runID = uuid.NewString()
	a.log = logger.WithField("run_id", a.runID)
	a.log.DebugWithFields("Configuration loaded", map[string]interface{}{
		"command":     cmd.Name(),
		"config_file": a.configFile,
	})
	return nil
}

// terminal returns a Terminal for w honoring the color setting
func (a *app) terminal(w io.Writer) *ui.Terminal {
	color := true
	if a.cfg != nil {
		color = a.cfg.Output.Color
	}
	return ui.NewTerminal(w, color)
}

// changedFlags collects the configuration flags the user set explicitly
func changedFlags(cmd *cobra.Command) map[string]interface{} {
	fs := cmd.Flags()
	out := make(map[string]interface{})

	for _, name := range []string{"credentials", "base-url", "rate-limit", "log-level", "log-file", "format"} {
		if fs.Changed(name) {
			if v, err := fs.GetString(name); err == nil {
				out[name] = v
			}
		}
	}
	for _, name := range []string{"page-size", "max-retries"} {
		if fs.Changed(name) {
			if v, err := fs.GetInt(name); err == nil {
				out[name] = v
			}
		}
	}
	if fs.Changed("backoff-unit") {
		if v, err := fs.GetDuration("backoff-unit"); err == nil {
			out["backoff-unit"] = v
		}
	}
	if fs.Changed("no-color") {
		if v, err := fs.GetBool("no-color"); err == nil {
			out["no-color"] = v
		}
	}

	return out
}

// resolveVersion prefers the ldflags version, then the module version from build info
func resolveVersion(ldflagsVersion string, info *debug.BuildInfo) string {
	if ldflagsVersion != "dev" && ldflagsVersion != "" {
		return ldflagsVersion
	}
	if info == nil {
		return "dev"
	}
	if v := info.Main.Version; v != "" && v != "(devel)" {
		return v
	}
	return "dev"
}

func readBuildInfo() *debug.BuildInfo {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return nil
	}
	return info
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		// version needs no configuration
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "tweetscraper %s\n", resolveVersion(version, readBuildInfo()))
			fmt.Fprintf(cmd.OutOrStdout(), "Git Commit: %s\n", gitCommit)
			fmt.Fprintf(cmd.OutOrStdout(), "Built: %s\n", buildDate)
			fmt.Fprintf(cmd.OutOrStdout(), "Go Version: %s\n", runtime.Version())
			fmt.Fprintf(cmd.OutOrStdout(), "OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	}
}

// elapsed rounds a duration for log fields
func elapsed(start time.Time) time.Duration {
	return time.Since(start).Round(time.Millisecond)
}
