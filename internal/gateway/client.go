package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// Executor abstracts Transport for the retrying client.
type Executor interface {
	Execute(ctx context.Context, query string, variables map[string]any) (json.RawMessage, error)
}

// ClientOptions tune the retry/backoff policy.
type ClientOptions struct {
	// MaxAttempts bounds the total attempts per query, including the first.
	MaxAttempts int
	// BaseDelay is the first backoff step; it doubles each retry with
	// jitter on top.
	BaseDelay time.Duration
	// RequestsPerMinute smooths bursts with a local pacer, independent of
	// the server-reported budget. Zero disables pacing.
	RequestsPerMinute int
}

// Client wraps an Executor with the rate-limit wait and retry policy:
// ask the Tracker how long to hold off, pace locally, then retry
// rate-limited and transient failures with exponential backoff. Auth,
// semantic and malformed failures propagate immediately.
type Client struct {
	executor    Executor
	tracker     *Tracker
	pacer       *rate.Limiter
	logger      logrus.FieldLogger
	maxAttempts int
	baseDelay   time.Duration
}

// NewClient builds a Client with sane defaults for zero-valued options.
func NewClient(executor Executor, tracker *Tracker, opts ClientOptions, logger logrus.FieldLogger) *Client {
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 4
	}
	if opts.BaseDelay <= 0 {
		opts.BaseDelay = time.Second
	}
	var pacer *rate.Limiter
	if opts.RequestsPerMinute > 0 {
		pacer = rate.NewLimiter(rate.Limit(float64(opts.RequestsPerMinute)/60.0), opts.RequestsPerMinute)
	}
	return &Client{
		executor:    executor,
		tracker:     tracker,
		pacer:       pacer,
		logger:      logger,
		maxAttempts: opts.MaxAttempts,
		baseDelay:   opts.BaseDelay,
	}
}

// Query executes one GraphQL query under the retry policy and returns the
// raw data payload.
func (c *Client) Query(ctx context.Context, query string, variables map[string]any) (json.RawMessage, error) {
	var lastErr error

	for attempt := 0; attempt < c.maxAttempts; attempt++ {
		if err := c.holdForBudget(ctx); err != nil {
			return nil, err
		}
		if c.pacer != nil {
			if err := c.pacer.Wait(ctx); err != nil {
				return nil, err
			}
		}

		data, err := c.executor.Execute(ctx, query, variables)
		if err == nil {
			return data, nil
		}
		if !retryable(err) {
			return nil, err
		}

		lastErr = err
		if attempt == c.maxAttempts-1 {
			break
		}
		backoff := c.backoff(attempt)
		c.logger.WithFields(logrus.Fields{
			"attempt": attempt + 1,
			"backoff": backoff.String(),
		}).Warnf("retrying after transient failure: %v", err)
		if err := sleepCtx(ctx, backoff); err != nil {
			return nil, err
		}
	}

	return nil, fmt.Errorf("retry budget exhausted after %d attempts: %w", c.maxAttempts, lastErr)
}

// holdForBudget blocks until the tracker clears the next call, or fails
// fast when the required wait exceeds the cap.
func (c *Client) holdForBudget(ctx context.Context) error {
	wait, ok := c.tracker.Delay()
	if !ok {
		rl, _ := c.tracker.Snapshot()
		return &RateLimitError{
			ResetAt: rl.ResetAt,
			Message: "required wait exceeds the configured maximum",
		}
	}
	if wait <= 0 {
		return nil
	}
	c.logger.WithField("wait", wait.String()).Warn("rate limit budget low, holding before next call")
	return sleepCtx(ctx, wait)
}

func (c *Client) backoff(attempt int) time.Duration {
	d := c.baseDelay << uint(attempt)
	// Up to 25% jitter so concurrent aggregations do not retry in lockstep.
	jitter := time.Duration(rand.Int63n(int64(d)/4 + 1))
	return d + jitter
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
