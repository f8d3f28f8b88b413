//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

package graph

import (
	"context"
	"crypto/rand"
	"errors"
	"math/big"
	"net"
	"time"
)

// DefaultMaxAttempts bounds agent invocations on degenerate output.
const DefaultMaxAttempts = 3

// ErrRetriesExhausted is returned by Retry when no attempt succeeded.
var ErrRetriesExhausted = errors.New("graph: retries exhausted")

// RetryCondition determines whether an error is retryable.
type RetryCondition interface {
	Match(err error) bool
}

// RetryConditionFunc adapts a function to RetryCondition.
type RetryConditionFunc func(error) bool

// Match calls f(err).
func (f RetryConditionFunc) Match(err error) bool { return f(err) }

// RetryPolicy bounds how often an agent is re-asked. MaxAttempts counts the
// first try, so 3 means one call and up to two retries.
//
// An attempt ends one of three ways. Usable output stops the loop. Degenerate
// output is retried at once. An error is retried after a backoff delay if it
// matches RetryOn, and returned as is otherwise.
type RetryPolicy struct {
	MaxAttempts     int
	InitialInterval time.Duration
	BackoffFactor   float64
	MaxInterval     time.Duration
	Jitter          bool
	RetryOn         []RetryCondition
}

// DefaultRetryPolicy retries degenerate output and nothing else.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: DefaultMaxAttempts, BackoffFactor: 1}
}

// WithSimpleRetry retries degenerate output and transient errors up to
// attempts times, backing off from 500ms to 8s with jitter between errors.
func WithSimpleRetry(attempts int) RetryPolicy {
	return RetryPolicy{
		MaxAttempts:     max(attempts, 1),
		InitialInterval: 500 * time.Millisecond,
		BackoffFactor:   2,
		MaxInterval:     8 * time.Second,
		Jitter:          true,
		RetryOn:         []RetryCondition{DefaultTransientCondition()},
	}
}

// NextDelay returns the wait after the given failed attempt. Without
// MaxInterval the delay never exceeds InitialInterval. Jitter adds up to one
// extra delay.
func (p RetryPolicy) NextDelay(attempt int) time.Duration {
	factor := p.BackoffFactor
	if factor <= 0 {
		factor = 1
	}
	ceiling := p.MaxInterval
	if ceiling <= 0 {
		ceiling = p.InitialInterval
	}
	d := p.InitialInterval
	for i := 1; i < attempt && d < ceiling; i++ {
		d = time.Duration(float64(d) * factor)
	}
	d = min(d, ceiling)
	if p.Jitter && d > 0 {
		// crypto/rand keeps gosec G404 quiet.
		if n, err := rand.Int(rand.Reader, big.NewInt(int64(d))); err == nil {
			d += time.Duration(n.Int64())
		}
	}
	return max(d, 0)
}

// ShouldRetry reports whether err matches any of the policy's conditions.
func (p RetryPolicy) ShouldRetry(err error) bool {
	for _, cond := range p.RetryOn {
		if cond != nil && cond.Match(err) {
			return true
		}
	}
	return false
}

// Retry calls fn until it reports done, fails with an error the policy does
// not retry, or runs out of attempts. Exhaustion yields ErrRetriesExhausted,
// joined with the last retried error if any.
func Retry(ctx context.Context, p RetryPolicy, fn func(ctx context.Context, attempt int) (done bool, err error)) error {
	attempts := max(p.MaxAttempts, 1)
	var lastErr error
	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		done, err := fn(ctx, attempt)
		if err == nil && done {
			return nil
		}
		if err != nil {
			if !p.ShouldRetry(err) {
				return err
			}
			lastErr = err
		}
		if attempt >= attempts {
			break
		}
		if err != nil {
			if werr := wait(ctx, p.NextDelay(attempt)); werr != nil {
				return werr
			}
		}
	}
	if lastErr != nil {
		return errors.Join(ErrRetriesExhausted, lastErr)
	}
	return ErrRetriesExhausted
}

func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// RetryOnErrors matches errors for which errors.Is holds against any target.
func RetryOnErrors(targets ...error) RetryCondition {
	return RetryConditionFunc(func(err error) bool {
		for _, t := range targets {
			if t != nil && errors.Is(err, t) {
				return true
			}
		}
		return false
	})
}

// DefaultTransientCondition matches deadline expiry and network timeouts.
func DefaultTransientCondition() RetryCondition {
	return RetryConditionFunc(func(err error) bool {
		if errors.Is(err, context.DeadlineExceeded) {
			return true
		}
		var ne net.Error
		return errors.As(err, &ne) && ne.Timeout()
	})
}
