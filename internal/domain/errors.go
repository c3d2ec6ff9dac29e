package domain

import (
	"errors"
	"fmt"
)

// ErrNoTotalCount is returned when no strategy finds the result counter.
var ErrNoTotalCount = errors.New("total count not found")

// ConfigError marks unusable configuration or inputs. It is the only class that aborts a run.
type ConfigError struct {
	Source string
	Err    error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error (%s): %v", e.Source, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// FetchError is a failed HTTP request against the listing site.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("fetch %s: status %d: %v", e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// ProbeError means the total result count could not be determined.
type ProbeError struct {
	Err error
}

func (e *ProbeError) Error() string {
	return fmt.Sprintf("total count probe: %v", e.Err)
}

func (e *ProbeError) Unwrap() error { return e.Err }
