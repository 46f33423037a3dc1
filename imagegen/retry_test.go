package imagegen

import (
	"context"
	"errors"
	"testing"
	"time"

	"noodle_backend/logging"
)

// scriptedProvider returns canned results per attempt.
type scriptedProvider struct {
	results []scriptedResult
	calls   int
	prompts []string
}

type scriptedResult struct {
	data []byte
	err  error
}

func (p *scriptedProvider) Generate(ctx context.Context, prompt string, opts Options) ([]byte, error) {
	p.prompts = append(p.prompts, prompt)
	i := p.calls
	p.calls++
	if i >= len(p.results) {
		return nil, NewGenerationError(KindUnknown, "script exhausted", nil)
	}
	return p.results[i].data, p.results[i].err
}

func (p *scriptedProvider) Name() string { return "scripted" }

// recordedSleep captures backoff waits instead of sleeping.
func recordedSleep(delays *[]time.Duration) sleepFunc {
	return func(ctx context.Context, d time.Duration) error {
		*delays = append(*delays, d)
		return ctx.Err()
	}
}

func newTestGenerator(t *testing.T, provider Provider, delays *[]time.Duration, opts ...RetryOption) *RetryingGenerator {
	t.Helper()
	opts = append(opts, withSleep(recordedSleep(delays)))
	g, err := NewRetryingGenerator(provider, logging.NewNop(), opts...)
	if err != nil {
		t.Fatalf("NewRetryingGenerator() error = %v", err)
	}
	return g
}

func TestRetrySucceedsFirstAttempt(t *testing.T) {
	provider := &scriptedProvider{results: []scriptedResult{
		{data: []byte("image")},
	}}
	var delays []time.Duration
	g := newTestGenerator(t, provider, &delays)

	data, err := g.Generate(context.Background(), "sunset", Options{})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if string(data) != "image" {
		t.Errorf("Generate() data = %q", data)
	}
	if provider.calls != 1 {
		t.Errorf("provider calls = %d, want 1", provider.calls)
	}
	if len(delays) != 0 {
		t.Errorf("backoff waits = %v, want none before the first attempt", delays)
	}
}

func TestRetryBackoffSchedule(t *testing.T) {
	// Fails transiently twice, succeeds on the third attempt:
	// exactly two waits of 1s then 2s.
	provider := &scriptedProvider{results: []scriptedResult{
		{err: NewGenerationError(KindRateLimited, "slow down", nil)},
		{err: NewGenerationError(KindUnavailable, "outage", nil)},
		{data: []byte("image")},
	}}
	var delays []time.Duration
	g := newTestGenerator(t, provider, &delays)

	data, err := g.Generate(context.Background(), "sunset", Options{})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if string(data) != "image" {
		t.Errorf("Generate() data = %q", data)
	}
	if provider.calls != 3 {
		t.Errorf("provider calls = %d, want 3", provider.calls)
	}

	want := []time.Duration{time.Second, 2 * time.Second}
	if len(delays) != len(want) {
		t.Fatalf("backoff waits = %v, want %v", delays, want)
	}
	for i := range want {
		if delays[i] != want[i] {
			t.Errorf("backoff wait %d = %v, want %v", i, delays[i], want[i])
		}
	}
}

func TestRetryPermanentFailureShortCircuits(t *testing.T) {
	provider := &scriptedProvider{results: []scriptedResult{
		{err: NewGenerationError(KindInvalidRequest, "bad prompt", nil)},
	}}
	var delays []time.Duration
	g := newTestGenerator(t, provider, &delays)

	_, err := g.Generate(context.Background(), "", Options{})
	if err == nil {
		t.Fatal("Generate() should fail")
	}
	if provider.calls != 1 {
		t.Errorf("provider calls = %d, want exactly 1 for a permanent failure", provider.calls)
	}
	if len(delays) != 0 {
		t.Errorf("backoff waits = %v, want none", delays)
	}

	genErr := AsGenerationError(err)
	if genErr.Kind != KindInvalidRequest {
		t.Errorf("Kind = %q, want %q", genErr.Kind, KindInvalidRequest)
	}
}

func TestRetryContentPolicyShortCircuits(t *testing.T) {
	provider := &scriptedProvider{results: []scriptedResult{
		{err: NewGenerationError(KindContentPolicy, "rejected", nil)},
	}}
	var delays []time.Duration
	g := newTestGenerator(t, provider, &delays)

	_, err := g.Generate(context.Background(), "something disallowed", Options{})
	if err == nil {
		t.Fatal("Generate() should fail")
	}
	if provider.calls != 1 {
		t.Errorf("provider calls = %d, want 1", provider.calls)
	}
}

func TestRetryExhaustionKeepsLastClassification(t *testing.T) {
	provider := &scriptedProvider{results: []scriptedResult{
		{err: NewGenerationError(KindUnavailable, "outage", nil)},
		{err: NewGenerationError(KindUnavailable, "outage", nil)},
		{err: NewGenerationError(KindRateLimited, "slow down", errors.New("429"))},
	}}
	var delays []time.Duration
	g := newTestGenerator(t, provider, &delays)

	_, err := g.Generate(context.Background(), "sunset", Options{})
	if err == nil {
		t.Fatal("Generate() should fail after exhaustion")
	}
	if provider.calls != 3 {
		t.Errorf("provider calls = %d, want 3", provider.calls)
	}

	genErr := AsGenerationError(err)
	if genErr.Kind != KindRateLimited {
		t.Errorf("Kind = %q, want last attempt's %q", genErr.Kind, KindRateLimited)
	}
	// The final error must carry the last underlying error for diagnostics.
	var inner *GenerationError
	if !errors.As(genErr.Cause, &inner) {
		t.Fatalf("exhaustion error does not wrap the last failure: %v", genErr.Cause)
	}
	if inner.Message != "slow down" {
		t.Errorf("wrapped message = %q, want %q", inner.Message, "slow down")
	}
}

func TestRetryUnclassifiedErrorIsTransient(t *testing.T) {
	provider := &scriptedProvider{results: []scriptedResult{
		{err: errors.New("connection reset")},
		{data: []byte("image")},
	}}
	var delays []time.Duration
	g := newTestGenerator(t, provider, &delays)

	data, err := g.Generate(context.Background(), "sunset", Options{})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if string(data) != "image" {
		t.Errorf("Generate() data = %q", data)
	}
	if provider.calls != 2 {
		t.Errorf("provider calls = %d, want 2", provider.calls)
	}
}

func TestRetryRespectsCancelledContext(t *testing.T) {
	provider := &scriptedProvider{results: []scriptedResult{
		{err: NewGenerationError(KindUnavailable, "outage", nil)},
		{data: []byte("never reached")},
	}}

	ctx, cancel := context.WithCancel(context.Background())
	var delays []time.Duration
	g := newTestGenerator(t, provider, &delays,
		WithMaxAttempts(3))

	cancel()
	// First attempt runs (scripted, ignores ctx), then the backoff wait
	// observes cancellation and aborts.
	_, err := g.Generate(ctx, "sunset", Options{})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Generate() error = %v, want context.Canceled", err)
	}
	if provider.calls != 1 {
		t.Errorf("provider calls = %d, want 1", provider.calls)
	}
}

func TestRetryCustomBudget(t *testing.T) {
	provider := &scriptedProvider{results: []scriptedResult{
		{err: NewGenerationError(KindUnavailable, "outage", nil)},
		{err: NewGenerationError(KindUnavailable, "outage", nil)},
		{err: NewGenerationError(KindUnavailable, "outage", nil)},
		{err: NewGenerationError(KindUnavailable, "outage", nil)},
		{data: []byte("image")},
	}}
	var delays []time.Duration
	g := newTestGenerator(t, provider, &delays,
		WithMaxAttempts(5),
		WithBaseDelay(100*time.Millisecond))

	data, err := g.Generate(context.Background(), "sunset", Options{})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if string(data) != "image" {
		t.Errorf("Generate() data = %q", data)
	}

	want := []time.Duration{
		100 * time.Millisecond,
		200 * time.Millisecond,
		400 * time.Millisecond,
		800 * time.Millisecond,
	}
	if len(delays) != len(want) {
		t.Fatalf("backoff waits = %v, want %v", delays, want)
	}
	for i := range want {
		if delays[i] != want[i] {
			t.Errorf("backoff wait %d = %v, want %v", i, delays[i], want[i])
		}
	}
}

func TestNewRetryingGeneratorRequiresProvider(t *testing.T) {
	if _, err := NewRetryingGenerator(nil, logging.NewNop()); err == nil {
		t.Error("NewRetryingGenerator(nil) should fail")
	}
}
