// Package config provides centralized configuration management for the application.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/Mr-Squirrely-Net/GitBugger/internal/submit"
	"github.com/spf13/viper"
)

// DefaultProductLabel identifies the calling application in the User-Agent
// when nothing else is configured.
const DefaultProductLabel = "GitBugger"

// Config holds all configuration parameters for the application.
type Config struct {
	GitHub GitHubConfig
	Jira   JiraConfig
	Retry  RetryConfig
	HTTP   HTTPConfig
	Log    LogConfig
}

// GitHubConfig holds GitHub specific configuration.
type GitHubConfig struct {
	// Token is the personal access token. It must never be logged.
	Token string
	// Domain is github.com or a GitHub Enterprise host.
	Domain string
	// APIURL overrides the API base derived from Domain.
	APIURL string
	// ProductLabel is free text identifying the calling application.
	ProductLabel string
}

// JiraConfig holds JIRA specific configuration.
type JiraConfig struct {
	URL      string
	Username string
	Token    string
}

// RetryConfig bounds how long a rate-limited submission keeps retrying.
type RetryConfig struct {
	Delay       time.Duration
	MaxAttempts int
	MaxElapsed  time.Duration
}

// HTTPConfig holds transport settings shared by all clients.
type HTTPConfig struct {
	Timeout time.Duration
	// RateLimit caps outgoing requests per second. Zero disables pacing.
	RateLimit float64
}

// LogConfig controls logging output.
type LogConfig struct {
	Level string
	File  bool
	Dir   string
}

// Policy converts the retry and HTTP settings into a submission policy.
func (c *Config) Policy() submit.Policy {
	return submit.Policy{
		Delay:          c.Retry.Delay,
		MaxAttempts:    c.Retry.MaxAttempts,
		MaxElapsed:     c.Retry.MaxElapsed,
		RequestTimeout: c.HTTP.Timeout,
	}
}

// LoadConfig initializes and loads configuration from environment variables.
func LoadConfig() (*Config, error) {
	return load(newViper())
}

// LoadConfigFile loads configuration from a file, with environment
// variables taking precedence over values in the file.
func LoadConfigFile(path string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	return load(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Map specific environment variables
	v.BindEnv("github.token", "GITHUB_TOKEN")
	v.BindEnv("github.domain", "GITHUB_DOMAIN")
	v.BindEnv("github.api_url", "GITHUB_API_URL")
	v.BindEnv("github.product", "GITBUGGER_PRODUCT")
	v.BindEnv("jira.url", "JIRA_URL")
	v.BindEnv("jira.username", "JIRA_USERNAME")
	v.BindEnv("jira.token", "JIRA_TOKEN")
	v.BindEnv("retry.delay", "GITBUGGER_RETRY_DELAY")
	v.BindEnv("retry.max_attempts", "GITBUGGER_RETRY_MAX_ATTEMPTS")
	v.BindEnv("retry.max_elapsed", "GITBUGGER_RETRY_MAX_ELAPSED")
	v.BindEnv("http.timeout", "GITBUGGER_HTTP_TIMEOUT")
	v.BindEnv("http.rate_limit", "GITBUGGER_RATE_LIMIT")
	v.BindEnv("log.level", "LOG_LEVEL")
	v.BindEnv("log.file", "GITBUGGER_LOG_FILE")
	v.BindEnv("log.dir", "GITBUGGER_LOG_DIR")

	v.SetDefault("github.domain", "github.com")
	v.SetDefault("github.product", DefaultProductLabel)
	v.SetDefault("retry.delay", submit.DefaultDelay.String())
	v.SetDefault("retry.max_attempts", submit.DefaultMaxAttempts)
	v.SetDefault("retry.max_elapsed", "0s")
	v.SetDefault("http.timeout", submit.DefaultRequestTimeout.String())
	v.SetDefault("http.rate_limit", 0.0)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", false)

	return v
}

// durationSetting reads key as a duration string such as "60s". A bare
// number is rejected rather than read as nanoseconds.
func durationSetting(v *viper.Viper, key string) (time.Duration, error) {
	raw := strings.TrimSpace(v.GetString(key))
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid duration for %s: %q (use a unit, e.g. \"60s\"): %w", key, raw, err)
	}
	return d, nil
}

func load(v *viper.Viper) (*Config, error) {
	delay, err := durationSetting(v, "retry.delay")
	if err != nil {
		return nil, err
	}
	maxElapsed, err := durationSetting(v, "retry.max_elapsed")
	if err != nil {
		return nil, err
	}
	timeout, err := durationSetting(v, "http.timeout")
	if err != nil {
		return nil, err
	}

	config := &Config{
		GitHub: GitHubConfig{
			Token:        v.GetString("github.token"),
			Domain:       v.GetString("github.domain"),
			APIURL:       v.GetString("github.api_url"),
			ProductLabel: v.GetString("github.product"),
		},
		Jira: JiraConfig{
			URL:      v.GetString("jira.url"),
			Username: v.GetString("jira.username"),
			Token:    v.GetString("jira.token"),
		},
		Retry: RetryConfig{
			Delay:       delay,
			MaxAttempts: v.GetInt("retry.max_attempts"),
			MaxElapsed:  maxElapsed,
		},
		HTTP: HTTPConfig{
			Timeout:   timeout,
			RateLimit: v.GetFloat64("http.rate_limit"),
		},
		Log: LogConfig{
			Level: v.GetString("log.level"),
			File:  v.GetBool("log.file"),
			Dir:   v.GetString("log.dir"),
		},
	}

	if config.GitHub.Domain == "" {
		config.GitHub.Domain = "github.com"
	}

	// Validate configuration
	if err := ValidateRetryConfig(config); err != nil {
		return nil, err
	}

	return config, nil
}

// ValidateRetryConfig ensures retry and HTTP settings are usable.
func ValidateRetryConfig(config *Config) error {
	if err := config.Policy().Validate(); err != nil {
		return fmt.Errorf("invalid retry configuration: %w", err)
	}
	if config.HTTP.RateLimit < 0 {
		return fmt.Errorf("invalid rate limit: %v", config.HTTP.RateLimit)
	}
	return nil
}

// ValidateGitHubConfig validates GitHub-specific configuration.
func ValidateGitHubConfig(config *Config) error {
	if config.GitHub.Token == "" {
		return fmt.Errorf("missing required environment variables: [GITHUB_TOKEN]")
	}
	return nil
}

// ValidateJiraConfig validates JIRA-specific configuration.
func ValidateJiraConfig(config *Config) error {
	var missingVars []string

	// JIRA validation
	if config.Jira.URL == "" {
		missingVars = append(missingVars, "JIRA_URL")
	}
	if config.Jira.Username == "" {
		missingVars = append(missingVars, "JIRA_USERNAME")
	}
	if config.Jira.Token == "" {
		missingVars = append(missingVars, "JIRA_TOKEN")
	}

	if len(missingVars) > 0 {
		return fmt.Errorf("missing required environment variables: %v", missingVars)
	}

	return nil
}
