package config

import (
	"fmt"
	"slices"
)

var (
	logFormats = []string{"json", "console"}
	logLevels  = []string{"debug", "info", "warn", "error"}
)

// ValidationError names the offending variable.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks ranges and required values.
func (c *Config) Validate() error {
	positive := []struct {
		field string
		value int
	}{
		{"OPENGOV_ITEMS_PER_PAGE", c.ItemsPerPage},
		{"OPENGOV_MAX_PAGES", c.MaxPages},
		{"OPENGOV_STOP_AFTER_EMPTY", c.StopAfterEmpty},
		{"OPENGOV_HTTP_TIMEOUT_SEC", c.HTTPTimeoutSec},
		{"QUARTER_LOOKBACK_COUNT", c.QuarterLookbackCount},
		{"XLSX_MAX_ROWS_PER_SHEET", c.MaxRowsPerSheet},
		{"SUMMARY_TIMEOUT_SEC", c.SummaryTimeoutSec},
	}
	for _, p := range positive {
		if p.value < 1 {
			return &ValidationError{Field: p.field, Message: fmt.Sprintf("must be at least 1, got %d", p.value)}
		}
	}

	if c.QuarterBufferDays < 0 {
		return &ValidationError{Field: "QUARTER_BUFFER_DAYS", Message: "must not be negative"}
	}
	if c.PoliteDelay <= 0 {
		return &ValidationError{Field: "OPENGOV_POLITE_DELAY", Message: fmt.Sprintf("must be positive, got %s", c.PoliteDelay)}
	}
	if c.RetryDelay <= 0 {
		return &ValidationError{Field: "OPENGOV_RETRY_DELAY", Message: fmt.Sprintf("must be positive, got %s", c.RetryDelay)}
	}

	if !slices.Contains(logFormats, c.LogFormat) {
		return &ValidationError{Field: "LOG_FORMAT", Message: fmt.Sprintf("must be one of %v, got %q", logFormats, c.LogFormat)}
	}
	if !slices.Contains(logLevels, c.LogLevel) {
		return &ValidationError{Field: "LOG_LEVEL", Message: fmt.Sprintf("must be one of %v, got %q", logLevels, c.LogLevel)}
	}

	required := []struct {
		field string
		value string
	}{
		{"ORGS_XLSX_PATH", c.OrgsPath},
		{"STATE_SEEN_PATH", c.SeenStatePath},
		{"REPORT_DIR", c.ReportDir},
		{"OPENGOV_BASE_URL", c.BaseURL},
	}
	for _, r := range required {
		if r.value == "" {
			return &ValidationError{Field: r.field, Message: "is required"}
		}
	}
	return nil
}
