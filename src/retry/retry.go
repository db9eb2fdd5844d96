// Package retry wraps fallible operations with bounded exponential backoff.
package retry

import (
	"time"

	"github.com/sirupsen/logrus"
)

// Default retry parameters.
const (
	DefaultMaxAttempts = 3
	DefaultBaseDelay   = 1000 * time.Millisecond
	DefaultMaxDelay    = 10000 * time.Millisecond
)

// Config bounds a retry loop. The delay before retry n is
// min(BaseDelay * 2^(n-1), MaxDelay). No jitter is applied, so identical
// configurations back off in lockstep; callers that need jitter must add it
// themselves.
type Config struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		MaxAttempts: DefaultMaxAttempts,
		BaseDelay:   DefaultBaseDelay,
		MaxDelay:    DefaultMaxDelay,
	}
}

// Do runs op until it succeeds or cfg.MaxAttempts attempts have failed, in
// which case the last failure is returned. Failed attempts are separated by a
// delay that starts at BaseDelay and doubles after each failure, capped at
// MaxDelay. The wait only parks the calling goroutine; other work in the
// process proceeds. Once started, an attempt always runs to completion.
func Do(cfg Config, logger *logrus.Entry, op func() error) error {
	delay := cfg.BaseDelay

	for attempt := 1; ; attempt++ {
		err := op()
		if err == nil {
			return nil
		}

		if attempt >= cfg.MaxAttempts {
			return err
		}

		if logger != nil {
			logger.WithFields(logrus.Fields{
				"attempt": attempt,
				"delay":   delay,
			}).WithError(err).Warn("Operation failed, retrying")
		}

		time.Sleep(delay)

		delay *= 2
		if delay > cfg.MaxDelay {
			delay = cfg.MaxDelay
		}
	}
}
