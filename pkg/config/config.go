package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const envPrefix = "TWEETSCRAPER_"

// Config holds all configuration options for tweetscraper
type Config struct {
	// Twitter API access
	Twitter TwitterConfig `yaml:"twitter" json:"twitter"`

	// Pagination and retry behavior
	Fetch FetchConfig `yaml:"fetch" json:"fetch"`

	// Client-side request window
	RateLimit RateLimitConfig `yaml:"rate_limit" json:"rate_limit"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`

	// Record output
	Output OutputConfig `yaml:"output" json:"output"`
}

// TwitterConfig holds Twitter API connection settings
type TwitterConfig struct {
	BaseURL         string        `yaml:"base_url" json:"base_url"`
	CredentialsFile string        `yaml:"credentials_file" json:"credentials_file"`
	UserAgent       string        `yaml:"user_agent" json:"user_agent"`
	RequestTimeout  time.Duration `yaml:"request_timeout" json:"request_timeout"`
}

// FetchConfig controls pagination, politeness and the retry budget
type FetchConfig struct {
	PageSize        int           `yaml:"page_size" json:"page_size"`
	MaxRetries      int           `yaml:"max_retries" json:"max_retries"`
	PolitenessDelay time.Duration `yaml:"politeness_delay" json:"politeness_delay"`
	BackoffUnit     time.Duration `yaml:"backoff_unit" json:"backoff_unit"`
	MaxBackoff      time.Duration `yaml:"max_backoff" json:"max_backoff"`
}

// RateLimitConfig holds the optional client-side limiter settings
type RateLimitConfig struct {
	Strategy string        `yaml:"strategy" json:"strategy"`
	Requests int           `yaml:"requests" json:"requests"`
	Window   time.Duration `yaml:"window" json:"window"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// OutputConfig selects how fetched records are printed
type OutputConfig struct {
	Format string `yaml:"format" json:"format"`
	Color  bool   `yaml:"color" json:"color"`
}

// Rate limit strategies understood by the ratelimit package
const (
	StrategyNone          = "none"
	StrategySlidingWindow = "sliding_window"
	StrategyTokenBucket   = "token_bucket"
)

// Output formats
const (
	FormatText = "text"
	FormatJSON = "json"
)

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Twitter: TwitterConfig{
			BaseURL:         "https://api.twitter.com",
			CredentialsFile: "config.json",
			UserAgent:       "tweetscraper/1.0",
			RequestTimeout:  30 * time.Second,
		},
		Fetch: FetchConfig{
			PageSize:        10,
			MaxRetries:      5,
			PolitenessDelay: time.Second,
			BackoffUnit:     time.Second,
			MaxBackoff:      0, // 0 means no cap
		},
		RateLimit: RateLimitConfig{
			// user timeline lookups allow 1500 requests per 15 minutes per app
			Strategy: StrategyNone,
			Requests: 1500,
			Window:   15 * time.Minute,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Output: OutputConfig{
			Format: FormatText,
			Color:  true,
		},
	}
}

// LoadFromEnv overrides settings from TWEETSCRAPER_* environment variables
func (c *Config) LoadFromEnv() error {
	var errs []error

	setString := func(name string, dst *string) {
		if v := os.Getenv(envPrefix + name); v != "" {
			*dst = v
		}
	}
	setInt := func(name string, dst *int) {
		if v := os.Getenv(envPrefix + name); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", envPrefix, name, err))
				return
			}
			*dst = n
		}
	}
	setDuration := func(name string, dst *time.Duration) {
		if v := os.Getenv(envPrefix + name); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", envPrefix, name, err))
				return
			}
			*dst = d
		}
	}

	setString("BASE_URL", &c.Twitter.BaseURL)
	setString("CREDENTIALS_FILE", &c.Twitter.CredentialsFile)
	setString("USER_AGENT", &c.Twitter.UserAgent)
	setDuration("REQUEST_TIMEOUT", &c.Twitter.RequestTimeout)

	setInt("PAGE_SIZE", &c.Fetch.PageSize)
	setInt("MAX_RETRIES", &c.Fetch.MaxRetries)
	setDuration("POLITENESS_DELAY", &c.Fetch.PolitenessDelay)
	setDuration("BACKOFF_UNIT", &c.Fetch.BackoffUnit)
	setDuration("MAX_BACKOFF", &c.Fetch.MaxBackoff)

	setString("RATE_LIMIT_STRATEGY", &c.RateLimit.Strategy)
	setInt("RATE_LIMIT_REQUESTS", &c.RateLimit.Requests)
	setDuration("RATE_LIMIT_WINDOW", &c.RateLimit.Window)

	setString("LOG_LEVEL", &c.Logging.Level)
	setString("LOG_FILE", &c.Logging.File)

	setString("OUTPUT_FORMAT", &c.Output.Format)
	if v := os.Getenv(envPrefix + "COLOR"); v != "" {
		c.Output.Color = strings.ToLower(v) == "true"
	}
	if os.Getenv("NO_COLOR") != "" {
		c.Output.Color = false
	}

	return errors.Join(errs...)
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	// If path is empty, try default locations
	if path == "" {
		path = c.findConfigFile()
		if path == "" {
			return nil // No config file found, not an error
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// findConfigFile searches for config file in standard locations
func (c *Config) findConfigFile() string {
	home := os.Getenv("HOME")
	locations := []string{
		".tweetscraper.yaml",
		".tweetscraper.yml",
		filepath.Join(home, ".config", "tweetscraper", "config.yaml"),
		filepath.Join(home, ".config", "tweetscraper", "config.yml"),
		filepath.Join(home, ".tweetscraper.yaml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	if c.Twitter.BaseURL == "" {
		errs = append(errs, errors.New("twitter base URL is required"))
	} else if u, err := url.Parse(c.Twitter.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("twitter base URL %q is not an absolute URL", c.Twitter.BaseURL))
	}
	if c.Twitter.CredentialsFile == "" {
		errs = append(errs, errors.New("credentials file is required"))
	}
	if c.Twitter.RequestTimeout <= 0 {
		errs = append(errs, errors.New("request timeout must be positive"))
	}

	if c.Fetch.PageSize < 5 || c.Fetch.PageSize > 100 {
		errs = append(errs, errors.New("page size must be between 5 and 100"))
	}
	if c.Fetch.MaxRetries < 0 {
		errs = append(errs, errors.New("max retries cannot be negative"))
	}
	if c.Fetch.PolitenessDelay < 0 {
		errs = append(errs, errors.New("politeness delay cannot be negative"))
	}
	if c.Fetch.BackoffUnit <= 0 {
		errs = append(errs, errors.New("backoff unit must be positive"))
	}
	if c.Fetch.MaxBackoff < 0 {
		errs = append(errs, errors.New("max backoff cannot be negative"))
	}

	switch strings.ToLower(c.RateLimit.Strategy) {
	case StrategyNone:
	case StrategySlidingWindow, StrategyTokenBucket:
		if c.RateLimit.Requests <= 0 {
			errs = append(errs, errors.New("rate limit requests must be positive"))
		}
		if c.RateLimit.Window <= 0 {
			errs = append(errs, errors.New("rate limit window must be positive"))
		}
	default:
		errs = append(errs, fmt.Errorf("invalid rate limit strategy %q", c.RateLimit.Strategy))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "warning": true,
		"error": true, "fatal": true, "disabled": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, errors.New("invalid log level"))
	}

	switch strings.ToLower(c.Output.Format) {
	case FormatText, FormatJSON:
	default:
		errs = append(errs, fmt.Errorf("invalid output format %q", c.Output.Format))
	}

	return errors.Join(errs...)
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeCommandLineFlags applies explicitly set CLI flags on top of the configuration.
// Only flags present in the map are applied, so a zero max-retries is honored.
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if v, ok := flags["credentials"].(string); ok && v != "" {
		c.Twitter.CredentialsFile = v
	}
	if v, ok := flags["base-url"].(string); ok && v != "" {
		c.Twitter.BaseURL = v
	}
	if v, ok := flags["page-size"].(int); ok {
		c.Fetch.PageSize = v
	}
	if v, ok := flags["max-retries"].(int); ok {
		c.Fetch.MaxRetries = v
	}
	if v, ok := flags["backoff-unit"].(time.Duration); ok {
		c.Fetch.BackoffUnit = v
	}
	if v, ok := flags["rate-limit"].(string); ok && v != "" {
		c.RateLimit.Strategy = v
	}
	if v, ok := flags["log-level"].(string); ok && v != "" {
		c.Logging.Level = v
	}
	if v, ok := flags["log-file"].(string); ok && v != "" {
		c.Logging.File = v
	}
	if v, ok := flags["format"].(string); ok && v != "" {
		c.Output.Format = v
	}
	if v, ok := flags["no-color"].(bool); ok && v {
		c.Output.Color = false
	}
}

// Load loads configuration from all sources with proper precedence
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	// .env files never override variables that are already set
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".tweetscraper.env"))

	config := DefaultConfig()

	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	config.MergeCommandLineFlags(flags)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}
