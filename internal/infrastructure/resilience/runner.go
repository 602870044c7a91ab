package resilience

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/kirillkom/personal-reading-tracker/internal/core/domain"
)

// Outcome tells the runner how to treat a single failure.
type Outcome struct {
	Retry bool
	Count bool
}

type Classifier func(err error) Outcome

// ProviderClassifier is the shared policy for metadata providers: transient
// faults retry and trip the breaker, parse failures do neither.
func ProviderClassifier(err error) Outcome {
	switch {
	case domain.IsKind(err, domain.ErrParseFailure):
		return Outcome{Retry: false, Count: false}
	case domain.IsKind(err, domain.ErrTemporary), domain.IsKind(err, domain.ErrProviderUnavailable):
		return Outcome{Retry: true, Count: true}
	default:
		return Outcome{Retry: false, Count: true}
	}
}

// Runner wraps outbound provider calls with bounded retries and a lazily
// created circuit breaker per operation name.
type Runner struct {
	cfg Config

	mu       sync.Mutex
	breakers map[string]*gobreaker.CircuitBreaker[any]
}

func NewRunner(cfg Config) *Runner {
	return &Runner{
		cfg:      cfg.normalize(),
		breakers: make(map[string]*gobreaker.CircuitBreaker[any]),
	}
}

func (r *Runner) Do(ctx context.Context, operation string, classify Classifier, fn func(context.Context) error) error {
	if fn == nil {
		return fmt.Errorf("resilience: operation callback is nil")
	}
	op := strings.TrimSpace(operation)
	if op == "" {
		op = "unknown"
	}
	if classify == nil {
		classify = ProviderClassifier
	}

	if !r.cfg.BreakerEnabled {
		return r.retry(ctx, op, classify, fn)
	}

	breaker := r.breaker(op, classify)
	_, err := breaker.Execute(func() (any, error) {
		return nil, r.retry(ctx, op, classify, fn)
	})
	return err
}

func (r *Runner) retry(ctx context.Context, operation string, classify Classifier, fn func(context.Context) error) error {
	backoff := r.cfg.InitialBackoff

	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := fn(ctx)
		if err == nil {
			return nil
		}

		if !classify(err).Retry || attempt == r.cfg.MaxAttempts {
			return err
		}

		slog.Warn("retry_attempt",
			"operation", operation,
			"attempt", attempt,
			"max_attempts", r.cfg.MaxAttempts,
			"backoff_ms", backoff.Milliseconds(),
			"error", err,
		)

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return err
		case <-timer.C:
		}

		backoff = time.Duration(float64(backoff) * r.cfg.Multiplier)
		if backoff > r.cfg.MaxBackoff {
			backoff = r.cfg.MaxBackoff
		}
	}
}

func (r *Runner) breaker(operation string, classify Classifier) *gobreaker.CircuitBreaker[any] {
	r.mu.Lock()
	defer r.mu.Unlock()

	if breaker, ok := r.breakers[operation]; ok {
		return breaker
	}

	settings := gobreaker.Settings{
		Name:        operation,
		MaxRequests: r.cfg.BreakerProbeCalls,
		Timeout:     r.cfg.BreakerOpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < r.cfg.BreakerMinRequests {
				return false
			}
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			return ratio >= r.cfg.BreakerFailureRatio
		},
		IsSuccessful: func(err error) bool {
			if err == nil {
				return true
			}
			return !classify(err).Count
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			slog.Warn("circuit_breaker_state_change", "operation", name, "from", from.String(), "to", to.String())
		},
	}

	breaker := gobreaker.NewCircuitBreaker[any](settings)
	r.breakers[operation] = breaker
	return breaker
}

func IsCircuitOpen(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}
