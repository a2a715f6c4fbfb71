/*
Copyright (c) 2025 Mike Lane

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in all
copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
SOFTWARE.
*/

// Package retry wraps fallible operations with bounded re-attempts and a
// fixed delay between failures.
//
// The fixed (non-exponential, jitter-free) backoff is deliberate: the tool
// drives a small number of external commands where a short constant pause is
// enough to ride out transient failures, and deterministic timing keeps runs
// reproducible. The last failure is returned unchanged so callers can
// translate it into a domain error themselves.
package retry

import (
	"context"
	"time"
)

const (
	// DefaultMaxAttempts is the number of invocations allowed per call when
	// no explicit limit is configured.
	DefaultMaxAttempts = 3

	// DefaultDelay is the pause between failed attempts when no explicit
	// delay is configured.
	DefaultDelay = time.Second
)

// Config defines the retry behavior for one call.
type Config struct {
	// MaxAttempts is the total number of invocations, including the first.
	MaxAttempts int

	// Delay is the fixed pause between failed attempts. No pause follows
	// the final attempt.
	Delay time.Duration
}

// DefaultConfig returns the default retry configuration.
func DefaultConfig() Config {
	return Config{
		MaxAttempts: DefaultMaxAttempts,
		Delay:       DefaultDelay,
	}
}

// Do invokes op up to cfg.MaxAttempts times, pausing cfg.Delay between
// failed attempts. The first success returns immediately. When all attempts
// fail, the last error is returned unchanged. Cancellation of ctx during a
// pause aborts the call with ctx.Err().
func Do(ctx context.Context, cfg Config, op func() error) error {
	_, err := DoValue(ctx, cfg, func() (struct{}, error) {
		return struct{}{}, op()
	})
	return err
}

// DoValue is Do for operations that produce a value. On success the value
// from the succeeding attempt is returned; on exhaustion the zero value and
// the last error.
func DoValue[T any](ctx context.Context, cfg Config, op func() (T, error)) (T, error) {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	if cfg.Delay <= 0 {
		cfg.Delay = DefaultDelay
	}

	var zero T
	var lastErr error

	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		result, err := op()
		if err == nil {
			return result, nil
		}
		lastErr = err

		if attempt == cfg.MaxAttempts {
			break
		}

		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-time.After(cfg.Delay):
		}
	}

	return zero, lastErr
}
