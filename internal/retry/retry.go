// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package retry runs a single extraction unit with a bounded number of
// immediate re-attempts.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/pdiddy/docpipe/pkg/types"
)

// Func performs one attempt at a unit. attempt is zero-based, so a unit that
// is retried three times sees attempts 0, 1, 2 and 3.
type Func func(ctx context.Context, unit types.Unit, attempt int) (string, error)

// Policy bounds the attempts made for one unit.
type Policy struct {
	// MaxRetries is the number of attempts after the first. Negative values
	// are treated as zero.
	MaxRetries int

	// Delay is slept between attempts. Zero retries immediately.
	Delay time.Duration

	Logger zerolog.Logger
}

// permanent is implemented by errors that no amount of retrying can fix.
type permanent interface {
	Permanent() bool
}

// IsPermanent reports whether err, or anything it wraps, declares itself
// permanent.
func IsPermanent(err error) bool {
	var p permanent
	return errors.As(err, &p) && p.Permanent()
}

// Execute calls fn until it succeeds or 1+MaxRetries attempts have been
// made. Permanent errors and context cancellation end the loop early. The
// returned result always carries the number of attempts made and, on
// failure, the last error seen.
func Execute(ctx context.Context, unit types.Unit, p Policy, fn Func) types.ExtractionResult {
	maxRetries := p.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}

	res := types.ExtractionResult{Unit: unit}
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			res.Err = cancelled(err, res.Err)
			return res
		}

		res.Attempts = attempt + 1
		text, err := fn(ctx, unit, attempt)
		if err == nil {
			res.Text = text
			res.OK = true
			res.Err = nil
			return res
		}
		res.Err = err

		if IsPermanent(err) {
			p.Logger.Debug().Err(err).Stringer("unit", unit).Msg("permanent failure, not retrying")
			return res
		}
		if attempt == maxRetries {
			break
		}

		p.Logger.Warn().Err(err).
			Stringer("unit", unit).
			Int("attempt", attempt+1).
			Int("max_attempts", maxRetries+1).
			Msg("unit failed, retrying")

		if p.Delay > 0 {
			select {
			case <-ctx.Done():
				res.Err = cancelled(ctx.Err(), res.Err)
				return res
			case <-time.After(p.Delay):
			}
		}
	}

	res.Err = fmt.Errorf("%s failed after %d attempts: %w", unit, res.Attempts, res.Err)
	return res
}

// cancelled joins the context error with the last attempt's error so both
// stay matchable with errors.Is.
func cancelled(ctxErr, last error) error {
	if last == nil {
		return ctxErr
	}
	return fmt.Errorf("%w after: %w", ctxErr, last)
}
