// Package config resolves every monitor setting from the environment.
//
// .env files are loaded first, in priority order:
//
//  1. ENV_FILE (if set, only this file is loaded)
//  2. .env.local
//  3. .env
//
// Variables already present in the process environment always win.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/Park-MinJe/monthly-audit-report/internal/domain"
)

// Defaults.
const (
	DefaultOrgsPath          = "config/managed_orgs.xlsx"
	DefaultSeenStatePath     = "state/seen.json"
	DefaultReportDir         = "reports"
	DefaultBaseURL           = "https://opengov.seoul.go.kr"
	DefaultItemsPerPage      = 50
	DefaultMaxPages          = 300
	DefaultStopAfterEmpty    = 2
	DefaultHTTPTimeoutSec    = 30
	DefaultUserAgent         = "opengov-monitor/1.0 (+github-actions)"
	DefaultPoliteDelay       = 200 * time.Millisecond
	DefaultRetryDelay        = time.Second
	DefaultBufferDays        = 30
	DefaultLookbackCount     = 8
	DefaultMaxRowsPerSheet   = 2000
	DefaultSummaryProvider   = "none"
	DefaultOpenAIModel       = "gpt-4o-mini"
	DefaultAnthropicModel    = "claude-sonnet-4-5"
	DefaultGeminiModel       = "gemini-2.0-flash"
	DefaultSummaryTimeoutSec = 60
	DefaultLogLevel          = "info"
	DefaultLogFormat         = "json"
	DefaultReportSchedule    = "0 9 1 * *"

	minDownloadTimeout = 60 * time.Second
)

// Config is built once at startup and passed to every component.
type Config struct {
	OrgsPath      string `mapstructure:"orgs_xlsx_path"`
	SeenStatePath string `mapstructure:"state_seen_path"`
	ReportDir     string `mapstructure:"report_dir"`
	ReportBaseURL string `mapstructure:"report_base_url"`

	BaseURL        string        `mapstructure:"opengov_base_url"`
	ItemsPerPage   int           `mapstructure:"opengov_items_per_page"`
	MaxPages       int           `mapstructure:"opengov_max_pages"`
	StopAfterEmpty int           `mapstructure:"opengov_stop_after_empty"`
	HTTPTimeoutSec int           `mapstructure:"opengov_http_timeout_sec"`
	UserAgent      string        `mapstructure:"opengov_user_agent"`
	PoliteDelay    time.Duration `mapstructure:"opengov_polite_delay"`
	RetryDelay     time.Duration `mapstructure:"opengov_retry_delay"`

	QuarterBufferDays int `mapstructure:"quarter_buffer_days"`
	// QuarterLookbackCount is accepted and logged; the report always shows
	// the four quarters of the report year.
	QuarterLookbackCount int `mapstructure:"quarter_lookback_count"`

	MaxRowsPerSheet   int    `mapstructure:"xlsx_max_rows_per_sheet"`
	SummaryProvider   string `mapstructure:"summary_provider"`
	SummaryTimeoutSec int    `mapstructure:"summary_timeout_sec"`
	OpenAIAPIKey      string `mapstructure:"openai_api_key"`
	OpenAIModel       string `mapstructure:"openai_model"`
	OpenAIBaseURL     string `mapstructure:"openai_base_url"`
	AnthropicAPIKey   string `mapstructure:"anthropic_api_key"`
	AnthropicModel    string `mapstructure:"anthropic_model"`
	GeminiAPIKey      string `mapstructure:"gemini_api_key"`
	GeminiModel       string `mapstructure:"gemini_model"`

	LogLevel            string `mapstructure:"log_level"`
	LogFormat           string `mapstructure:"log_format"`
	MetricsTextfilePath string `mapstructure:"metrics_textfile_path"`
	ReportSchedule      string `mapstructure:"report_schedule"`
}

// HTTPTimeout is the per-request budget for listing and detail pages.
func (c *Config) HTTPTimeout() time.Duration {
	return time.Duration(c.HTTPTimeoutSec) * time.Second
}

// DownloadTimeout is the per-request budget for attachments, at least 60s.
func (c *Config) DownloadTimeout() time.Duration {
	return max(c.HTTPTimeout(), minDownloadTimeout)
}

// SummaryTimeout bounds one summarization call.
func (c *Config) SummaryTimeout() time.Duration {
	return time.Duration(c.SummaryTimeoutSec) * time.Second
}

// Load reads .env files and the environment, applies defaults and validates.
// Every failure is a *domain.ConfigError.
func Load() (*Config, error) {
	if err := loadEnvFiles(); err != nil {
		return nil, &domain.ConfigError{Source: "env file", Err: err}
	}
	return FromViper(New())
}

// New returns a viper instance bound to the environment with all defaults set.
func New() *viper.Viper {
	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)
	return v
}

// FromViper decodes and validates a Config from v.
func FromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, &domain.ConfigError{Source: "environment", Err: err}
	}
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, &domain.ConfigError{Source: "environment", Err: err}
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("orgs_xlsx_path", DefaultOrgsPath)
	v.SetDefault("state_seen_path", DefaultSeenStatePath)
	v.SetDefault("report_dir", DefaultReportDir)
	v.SetDefault("report_base_url", "")

	v.SetDefault("opengov_base_url", DefaultBaseURL)
	v.SetDefault("opengov_items_per_page", DefaultItemsPerPage)
	v.SetDefault("opengov_max_pages", DefaultMaxPages)
	v.SetDefault("opengov_stop_after_empty", DefaultStopAfterEmpty)
	v.SetDefault("opengov_http_timeout_sec", DefaultHTTPTimeoutSec)
	v.SetDefault("opengov_user_agent", DefaultUserAgent)
	v.SetDefault("opengov_polite_delay", DefaultPoliteDelay)
	v.SetDefault("opengov_retry_delay", DefaultRetryDelay)

	v.SetDefault("quarter_buffer_days", DefaultBufferDays)
	v.SetDefault("quarter_lookback_count", DefaultLookbackCount)

	v.SetDefault("xlsx_max_rows_per_sheet", DefaultMaxRowsPerSheet)
	v.SetDefault("summary_provider", DefaultSummaryProvider)
	v.SetDefault("summary_timeout_sec", DefaultSummaryTimeoutSec)
	v.SetDefault("openai_api_key", "")
	v.SetDefault("openai_model", DefaultOpenAIModel)
	v.SetDefault("openai_base_url", "")
	v.SetDefault("anthropic_api_key", "")
	v.SetDefault("anthropic_model", DefaultAnthropicModel)
	v.SetDefault("gemini_api_key", "")
	v.SetDefault("gemini_model", DefaultGeminiModel)

	v.SetDefault("log_level", DefaultLogLevel)
	v.SetDefault("log_format", DefaultLogFormat)
	v.SetDefault("metrics_textfile_path", "")
	v.SetDefault("report_schedule", DefaultReportSchedule)
}

func (c *Config) normalize() {
	for _, s := range []*string{
		&c.OrgsPath, &c.SeenStatePath, &c.ReportDir, &c.ReportBaseURL,
		&c.BaseURL, &c.UserAgent,
		&c.SummaryProvider, &c.OpenAIAPIKey, &c.OpenAIModel, &c.OpenAIBaseURL,
		&c.AnthropicAPIKey, &c.AnthropicModel, &c.GeminiAPIKey, &c.GeminiModel,
		&c.LogLevel, &c.LogFormat, &c.MetricsTextfilePath, &c.ReportSchedule,
	} {
		*s = strings.TrimSpace(*s)
	}
	c.SummaryProvider = strings.ToLower(c.SummaryProvider)
	c.LogLevel = strings.ToLower(c.LogLevel)
	c.LogFormat = strings.ToLower(c.LogFormat)
	if c.SummaryProvider == "" {
		c.SummaryProvider = DefaultSummaryProvider
	}
}

func loadEnvFiles() error {
	if envFile := os.Getenv("ENV_FILE"); envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("load env file %s: %w", envFile, err)
		}
		return nil
	}
	if err := godotenv.Load(".env.local"); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("load .env.local: %w", err)
	}
	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}
	return nil
}
