// Package retry implements the Retry Primitive (C12): an exponential
// backoff wrapper around provider calls that only retries errors classified
// as transient, giving rate-limit errors a longer backoff than plain
// transport errors.
package retry

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/zetherion/assistant-core/pkg/apperr"
)

// Options configures a retry run. Zero values fall back to sensible
// defaults via WithDefaults.
type Options struct {
	MaxRetries         int
	InitialDelay       time.Duration
	MaxDelay           time.Duration
	Multiplier         float64
	RateLimitMultiplier float64 // extra factor applied on top of Multiplier for rate-limit errors
}

// WithDefaults fills unset fields with the queue's own retry defaults.
func (o Options) WithDefaults() Options {
	if o.MaxRetries == 0 {
		o.MaxRetries = 3
	}
	if o.InitialDelay == 0 {
		o.InitialDelay = time.Second
	}
	if o.MaxDelay == 0 {
		o.MaxDelay = 60 * time.Second
	}
	if o.Multiplier == 0 {
		o.Multiplier = 2
	}
	if o.RateLimitMultiplier == 0 {
		o.RateLimitMultiplier = 3
	}
	return o
}

// Do runs fn, retrying on classified-retryable errors (transport, rate
// limit) up to opts.MaxRetries times with exponential backoff. Rate-limit
// failures back off opts.RateLimitMultiplier times longer than plain
// transport failures. Any other error kind (auth, validation, parse,
// capacity, skill, queue, fatal) is returned immediately without retrying.
func Do(ctx context.Context, opts Options, fn func(ctx context.Context) error) error {
	opts = opts.WithDefaults()

	var lastErr error
	for attempt := 0; attempt <= opts.MaxRetries; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		err := fn(ctx)
		if err == nil {
			return nil
		}
		lastErr = err

		if !isRetryable(err) {
			return err
		}
		if attempt == opts.MaxRetries {
			break
		}

		delay := backoffDelay(opts, attempt, apperr.Is(err, apperr.KindRateLimit))
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	return lastErr
}

func isRetryable(err error) bool {
	return apperr.Is(err, apperr.KindTransport) || apperr.Is(err, apperr.KindRateLimit)
}

// backoffDelay computes initial * multiplier^attempt capped at MaxDelay,
// matching pkg/queue's worker backoff shape. Rate-limit errors get an extra
// RateLimitMultiplier factor on top, per spec.md's requirement that
// rate-limited calls wait longer than plain transport failures.
func backoffDelay(opts Options, attempt int, rateLimited bool) time.Duration {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = opts.InitialDelay
	b.MaxInterval = opts.MaxDelay
	b.Multiplier = opts.Multiplier
	b.RandomizationFactor = 0

	d := b.InitialInterval
	for i := 0; i < attempt; i++ {
		d = time.Duration(float64(d) * opts.Multiplier)
		if d > b.MaxInterval {
			d = b.MaxInterval
			break
		}
	}
	if rateLimited {
		d = time.Duration(float64(d) * opts.RateLimitMultiplier)
	}
	if d > opts.MaxDelay {
		d = opts.MaxDelay
	}
	return d
}
