package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"tweetscraper/pkg/config"
)

// defaultConfigPath is where 'config init' writes without --config
const defaultConfigPath = ".tweetscraper.yaml"

const exampleConfig = `# tweetscraper configuration
#
# Every option can also be set with a TWEETSCRAPER_ environment variable,
# for example TWEETSCRAPER_MAX_RETRIES=3. Command line flags win over both.

twitter:
  # API host; point it at a mock server for testing
  base_url: "https://api.twitter.com"

  # JSON file holding {"bearer_token": "..."}
  credentials_file: "config.json"

  user_agent: "tweetscraper/1.0"
  request_timeout: 30s

fetch:
  # max_results per request, 5 to 100
  page_size: 10

  # consecutive rate limit rejections tolerated per page
  max_retries: 5

  # wait after every page
  politeness_delay: 1s

  # retry n waits backoff_unit * 2^n plus up to one unit of jitter
  backoff_unit: 1s

  # cap on the exponential part, 0 for none
  max_backoff: 0s

rate_limit:
  # none, sliding_window or token_bucket
  strategy: "none"
  requests: 1500
  window: 15m

logging:
  # debug, info, warn, error
  level: "info"

  # optional log file in addition to stderr
  file: ""

output:
  # text or json
  format: "text"
  color: true
`

func (a *app) newConfigCmd() *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration files",
		Long: `Manage tweetscraper configuration files.

Configuration is layered, highest priority first:
  - Command line flags
  - Environment variables (TWEETSCRAPER_*, also read from .env files)
  - Configuration file
  - Default values`,
	}

	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Create an example configuration file",
		Long: `Create an example configuration file with all available options.

The file is written to '` + defaultConfigPath + `' unless --config names another path.`,
		Args: cobra.NoArgs,
		// init must work while the existing configuration is invalid
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runConfigInit(cmd)
		},
	}

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := yaml.Marshal(a.cfg)
			if err != nil {
				return fmt.Errorf("failed to format configuration: %w", err)
			}

			out := cmd.OutOrStdout()
			a.terminal(out).PrintHighlight("Current configuration")
			fmt.Fprint(out, string(data))
			return nil
		},
	}

	validateCmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate the configuration",
		Long: `Validate the layered configuration and check that the credentials file
can be read. Errors in the configuration itself are reported before this
command runs.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runConfigValidate(cmd)
		},
	}

	configCmd.AddCommand(initCmd, showCmd, validateCmd)
	return configCmd
}

func (a *app) runConfigInit(cmd *cobra.Command) error {
	path := a.configFile
	if path == "" {
		path = defaultConfigPath
	}

	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("configuration file already exists: %s", path)
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to check %s: %w", path, err)
	}

	if err := os.WriteFile(path, []byte(exampleConfig), 0600); err != nil {
		return fmt.Errorf("failed to create configuration file: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Configuration file created: %s\n", path)
	fmt.Fprintln(out, "\nNext steps:")
	fmt.Fprintln(out, "1. Put your bearer token in config.json or run 'tweetscraper auth login'")
	fmt.Fprintln(out, "2. Run 'tweetscraper config validate' to check the configuration")
	fmt.Fprintln(out, "3. Fetch a timeline with 'tweetscraper fetch <user-id>'")
	return nil
}

func (a *app) runConfigValidate(cmd *cobra.Command) error {
	out := cmd.OutOrStdout()
	termOut := a.terminal(out)
	cfg := a.cfg

	var warnings []string
	if _, err := config.LoadCredentials(cfg.Twitter.CredentialsFile); err != nil {
		warnings = append(warnings, strings.TrimPrefix(err.Error(), "Error: "))
	}
	if cfg.Fetch.MaxRetries == 0 {
		warnings = append(warnings, "max_retries is 0, the first rate limit rejection ends a fetch")
	}

	if len(warnings) > 0 {
		termOut.PrintWarning("Configuration warnings:")
		for _, w := range warnings {
			fmt.Fprintf(out, "  - %s\n", w)
		}
		fmt.Fprintln(out)
	}

	termOut.PrintSuccess("Configuration is valid")
	fmt.Fprintln(out, "\nConfiguration summary:")
	fmt.Fprintf(out, "  API base URL: %s\n", cfg.Twitter.BaseURL)
	fmt.Fprintf(out, "  Credentials file: %s\n", cfg.Twitter.CredentialsFile)
	fmt.Fprintf(out, "  Page size: %d\n", cfg.Fetch.PageSize)
	fmt.Fprintf(out, "  Max retries: %d\n", cfg.Fetch.MaxRetries)
	fmt.Fprintf(out, "  Backoff unit: %s\n", cfg.Fetch.BackoffUnit)
	fmt.Fprintf(out, "  Rate limit: %s\n", cfg.RateLimit.Strategy)
	fmt.Fprintf(out, "  Log level: %s\n", cfg.Logging.Level)
	fmt.Fprintf(out, "  Output: %s\n", cfg.Output.Format)
	return nil
}
