package imagegen

import (
	"context"
	"fmt"
	"time"

	"noodle_backend/logging"

	"go.uber.org/zap"
)

// Default retry budget: 3 total attempts, 1s initial backoff doubling per
// retry (1s, 2s). Matches the MAX_RETRIES / RETRY_DELAY config defaults.
const (
	DefaultMaxAttempts = 3
	DefaultBaseDelay   = time.Second
)

// sleepFunc waits for the given duration or until the context is done.
// Injectable so tests can record the backoff schedule without sleeping.
type sleepFunc func(ctx context.Context, d time.Duration) error

// RetryingGenerator wraps a Provider with bounded retry and exponential
// backoff.
//
// Transient failures (rate limit, outage, unclassified) consume a retry
// slot; permanent failures (invalid prompt, content policy) short-circuit
// immediately since retrying cannot change the outcome. Backoff waits
// suspend only the calling goroutine and honor context cancellation.
type RetryingGenerator struct {
	provider       Provider
	logger         *logging.Logger
	maxAttempts    int
	baseDelay      time.Duration
	attemptTimeout time.Duration
	sleep          sleepFunc
}

// RetryOption customizes a RetryingGenerator.
type RetryOption func(*RetryingGenerator)

// WithMaxAttempts sets the total attempt budget (first try included).
func WithMaxAttempts(n int) RetryOption {
	return func(g *RetryingGenerator) {
		if n > 0 {
			g.maxAttempts = n
		}
	}
}

// WithBaseDelay sets the delay before the first retry. Subsequent retries
// double it.
func WithBaseDelay(d time.Duration) RetryOption {
	return func(g *RetryingGenerator) {
		if d > 0 {
			g.baseDelay = d
		}
	}
}

// WithAttemptTimeout bounds each provider attempt so a hung call cannot
// occupy a request goroutine indefinitely. Zero disables the bound.
func WithAttemptTimeout(d time.Duration) RetryOption {
	return func(g *RetryingGenerator) {
		g.attemptTimeout = d
	}
}

// withSleep replaces the backoff wait. Test seam.
func withSleep(fn sleepFunc) RetryOption {
	return func(g *RetryingGenerator) {
		g.sleep = fn
	}
}

// NewRetryingGenerator wraps the provider with the default retry budget,
// adjusted by the given options.
func NewRetryingGenerator(provider Provider, logger *logging.Logger, opts ...RetryOption) (*RetryingGenerator, error) {
	if provider == nil {
		return nil, fmt.Errorf("imagegen: provider cannot be nil")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	g := &RetryingGenerator{
		provider:    provider,
		logger:      logger.Named("retry"),
		maxAttempts: DefaultMaxAttempts,
		baseDelay:   DefaultBaseDelay,
		sleep:       sleepContext,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// Generate calls the provider with retries, returning image bytes or the
// final classified failure.
//
// No wait happens before the first attempt. Before each retry the generator
// waits the current delay, then doubles it. On exhaustion the returned error
// keeps the last attempt's classification and wraps its error for diagnostics.
func (g *RetryingGenerator) Generate(ctx context.Context, prompt string, opts Options) ([]byte, error) {
	delay := g.baseDelay
	var lastErr *GenerationError

	for attempt := 1; attempt <= g.maxAttempts; attempt++ {
		if attempt > 1 {
			g.logger.Warn("generation attempt failed, backing off",
				zap.Int("attempt", attempt-1),
				zap.Duration("delay", delay),
				zap.String("kind", lastErr.Kind),
				zap.Error(lastErr))
			if err := g.sleep(ctx, delay); err != nil {
				return nil, err
			}
			delay *= 2
		}

		data, err := g.attempt(ctx, prompt, opts)
		if err == nil {
			if attempt > 1 {
				g.logger.Info("generation succeeded after retry", zap.Int("attempt", attempt))
			}
			return data, nil
		}

		lastErr = AsGenerationError(err)
		if !lastErr.Retryable() {
			g.logger.Info("permanent generation failure, not retrying",
				zap.Int("attempt", attempt),
				zap.String("kind", lastErr.Kind))
			return nil, lastErr
		}
	}

	g.logger.Error("generation failed, retry budget exhausted",
		zap.Int("attempts", g.maxAttempts),
		zap.String("kind", lastErr.Kind),
		zap.Error(lastErr))

	return nil, &GenerationError{
		Kind:    lastErr.Kind,
		Message: fmt.Sprintf("generation failed after %d attempts", g.maxAttempts),
		Cause:   lastErr,
	}
}

// attempt runs a single provider call under the per-attempt timeout.
func (g *RetryingGenerator) attempt(ctx context.Context, prompt string, opts Options) ([]byte, error) {
	if g.attemptTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.attemptTimeout)
		defer cancel()
	}
	return g.provider.Generate(ctx, prompt, opts)
}

// sleepContext waits for d or until ctx is done.
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
