// Package oracle wraps an llm.Provider with the retry, timeout and error
// classification policy used by the melody pipeline. Transient failures
// (timeouts, rate limits, 5xx) are retried with exponential backoff; schema
// violations are surfaced immediately so the caller can decide between a
// corrective re-prompt and the deterministic fallback.
package oracle

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/Conceptual-Machines/melodia-api/internal/llm"
	"github.com/getsentry/sentry-go"
	"github.com/openai/openai-go"
	"google.golang.org/genai"
)

// Kind classifies adapter errors so callers can branch without string matching.
type Kind string

const (
	// KindTransient covers timeouts, rate limits and upstream 5xx; the
	// adapter retries these itself.
	KindTransient Kind = "transient"
	// KindInvalidSchema means the oracle answered but the payload failed
	// validation. The adapter does NOT retry these; the caller owns the
	// corrective re-prompt.
	KindInvalidSchema Kind = "invalid_schema"
	// KindRequest covers non-retryable API rejections (auth, bad request).
	KindRequest Kind = "request"
)

// Error is the adapter's classified error.
type Error struct {
	Kind       Kind
	Err        error
	Raw        string        // raw oracle output, set for KindInvalidSchema
	RetryAfter time.Duration // server-requested delay, zero if none
}

func (e *Error) Error() string {
	return fmt.Sprintf("oracle %s error: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsInvalidSchema reports whether err is a schema-validation failure.
func IsInvalidSchema(err error) bool {
	var oerr *Error
	return errors.As(err, &oerr) && oerr.Kind == KindInvalidSchema
}

// Config controls the retry policy.
type Config struct {
	MaxRetries     int           // total attempts per Invoke
	InitialDelay   time.Duration // delay before the first retry
	BackoffFactor  float64       // multiplier applied per retry
	AttemptTimeout time.Duration // per-attempt deadline
}

// DefaultConfig returns the production retry policy.
func DefaultConfig() Config {
	return Config{
		MaxRetries:     3,
		InitialDelay:   1 * time.Second,
		BackoffFactor:  2.0,
		AttemptTimeout: 30 * time.Second,
	}
}

// ParseFunc validates and decodes a raw oracle payload. Returning an error
// marks the payload as schema-invalid.
type ParseFunc func(raw string) error

// Result carries the response plus how many attempts were made. On failure
// Response is nil but Attempts still reports the work done, for diagnostics.
type Result struct {
	Response *llm.GenerationResponse
	Attempts int
}

// Adapter mediates all oracle traffic.
type Adapter struct {
	provider llm.Provider
	cfg      Config

	// sleep is swapped out in tests to observe backoff without waiting.
	sleep func(ctx context.Context, d time.Duration) error
}

// New creates an adapter around the given provider.
func New(provider llm.Provider, cfg Config) *Adapter {
	return &Adapter{
		provider: provider,
		cfg:      cfg,
		sleep:    sleepContext,
	}
}

// Provider returns the wrapped provider, mainly for logging.
func (a *Adapter) Provider() llm.Provider {
	return a.provider
}

// Invoke runs one oracle call under the retry policy. The parse callback runs
// on every successful response; a parse failure is returned as
// KindInvalidSchema with the raw payload attached, without further retries.
func (a *Adapter) Invoke(ctx context.Context, request *llm.GenerationRequest, parse ParseFunc) (*Result, error) {
	span := sentry.StartSpan(ctx, "oracle.invoke")
	defer span.Finish()
	span.SetTag("provider", a.provider.Name())
	span.SetTag("model", request.Model)

	var lastErr error
	delay := a.cfg.InitialDelay

	for attempt := 1; attempt <= a.cfg.MaxRetries; attempt++ {
		if attempt > 1 {
			wait := delay
			var oerr *Error
			if errors.As(lastErr, &oerr) && oerr.RetryAfter > 0 {
				wait = oerr.RetryAfter
			}
			log.Printf("⏳ ORACLE RETRY %d/%d in %v (last error: %v)",
				attempt, a.cfg.MaxRetries, wait, lastErr)
			if err := a.sleep(ctx, wait); err != nil {
				return nil, err
			}
			delay = time.Duration(float64(delay) * a.cfg.BackoffFactor)
		}

		resp, err := a.attempt(ctx, request)
		if err == nil {
			if perr := parse(resp.RawOutput); perr != nil {
				log.Printf("❌ ORACLE PAYLOAD FAILED VALIDATION: %v", perr)
				span.SetTag("invalid_schema", "true")
				return &Result{Attempts: attempt}, &Error{Kind: KindInvalidSchema, Err: perr, Raw: resp.RawOutput}
			}
			span.SetTag("attempts", strconv.Itoa(attempt))
			return &Result{Response: resp, Attempts: attempt}, nil
		}

		// A dead parent context is never retried, and never triggers the
		// fallback path upstream.
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		classified := classify(err)
		if classified.Kind != KindTransient {
			return &Result{Attempts: attempt}, classified
		}
		lastErr = classified
	}

	log.Printf("❌ ORACLE EXHAUSTED %d ATTEMPTS: %v", a.cfg.MaxRetries, lastErr)
	return &Result{Attempts: a.cfg.MaxRetries}, lastErr
}

// attempt runs a single provider call under the per-attempt deadline.
func (a *Adapter) attempt(ctx context.Context, request *llm.GenerationRequest) (*llm.GenerationResponse, error) {
	attemptCtx := ctx
	if a.cfg.AttemptTimeout > 0 {
		var cancel context.CancelFunc
		attemptCtx, cancel = context.WithTimeout(ctx, a.cfg.AttemptTimeout)
		defer cancel()
	}
	return a.provider.Generate(attemptCtx, request)
}

// classify maps provider errors onto adapter error kinds.
func classify(err error) *Error {
	var oerr *Error
	if errors.As(err, &oerr) {
		return oerr
	}

	// Per-attempt deadline expiry counts as transient.
	if errors.Is(err, context.DeadlineExceeded) {
		return &Error{Kind: KindTransient, Err: err}
	}

	var openaiErr *openai.Error
	if errors.As(err, &openaiErr) {
		if openaiErr.StatusCode == http.StatusTooManyRequests || openaiErr.StatusCode >= http.StatusInternalServerError {
			return &Error{
				Kind:       KindTransient,
				Err:        err,
				RetryAfter: retryAfterHeader(openaiErr.Response),
			}
		}
		return &Error{Kind: KindRequest, Err: err}
	}

	var genaiErr genai.APIError
	if errors.As(err, &genaiErr) {
		if genaiErr.Code == http.StatusTooManyRequests || genaiErr.Code >= http.StatusInternalServerError {
			return &Error{Kind: KindTransient, Err: err}
		}
		return &Error{Kind: KindRequest, Err: err}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return &Error{Kind: KindTransient, Err: err}
	}

	return &Error{Kind: KindRequest, Err: err}
}

// retryAfterHeader reads a Retry-After value in seconds, zero if absent.
func retryAfterHeader(resp *http.Response) time.Duration {
	if resp == nil {
		return 0
	}
	header := resp.Header.Get("Retry-After")
	if header == "" {
		return 0
	}
	seconds, err := strconv.Atoi(header)
	if err != nil || seconds <= 0 {
		return 0
	}
	return time.Duration(seconds) * time.Second
}

// sleepContext waits for d or until ctx is cancelled.
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
